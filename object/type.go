package object

// Type describes a family of objects. Types form a tree rooted at
// Root through their Super links. A Type can only name a supertype
// that already exists, so chains cannot cycle.
type Type struct {
	Name  string
	Super *Type

	// Attributes and Functions are exposed to the command layer. Lookups
	// fall back to the supertype.
	Attributes []Attribute
	Functions  []Function
}

// Root is the supertype of every other type.
var Root = &Type{Name: "object"}

// NewType returns a type derived from super, or from Root if super is
// nil.
func NewType(name string, super *Type) *Type {
	if super == nil {
		super = Root
	}
	return &Type{Name: name, Super: super}
}

func (t *Type) String() string {
	if t == nil {
		return "<nil>"
	}
	return t.Name
}

// Is reports whether t is other or derives from it.
func (t *Type) Is(other *Type) bool {
	for c := t; c != nil; c = c.Super {
		if c == other {
			return true
		}
	}
	return false
}

// Attribute finds a named attribute on t or its supertypes.
func (t *Type) Attribute(name string) (*Attribute, bool) {
	for c := t; c != nil; c = c.Super {
		for i := range c.Attributes {
			if c.Attributes[i].Name == name {
				return &c.Attributes[i], true
			}
		}
	}
	return nil, false
}

// Function finds a named function on t or its supertypes.
func (t *Type) Function(name string) (*Function, bool) {
	for c := t; c != nil; c = c.Super {
		for i := range c.Functions {
			if c.Functions[i].Name == name {
				return &c.Functions[i], true
			}
		}
	}
	return nil, false
}

// Attribute is a named, typed field of an object that the command
// layer may read and write.
type Attribute struct {
	Name string
	Kind Kind
	Get  func(obj any) Value
	Set  func(obj any, v Value) error
}

// Function is a named operation callable by the command layer. The
// stack holds the target object at index 0, the function name at index
// 1, then the arguments, terminated by a None value. Call returns zero
// or a negated errno.
type Function struct {
	Name string
	Call func(stack []Value) int
}

package compositor

import (
	"unsafe"

	"deedles.dev/kms/object"
)

var WaylandObjectType = object.NewType("wayland_object", nil)

// WaylandObject is the base of every entity that is backed by a
// protocol resource.
type WaylandObject struct {
	object.Object
	res Resource
}

func (o *WaylandObject) initWayland(typ *object.Type, self any, res Resource) {
	o.Init(typ, self)
	o.res = res
}

func (o *WaylandObject) Resource() Resource {
	o.RLock()
	defer o.RUnlock()
	return o.res
}

func (o *WaylandObject) SetResource(res Resource) {
	o.Lock()
	defer o.Unlock()
	o.res = res
}

// Client returns the client that owns the resource, or nil once the
// resource is gone.
func (o *WaylandObject) Client() Client {
	res := o.Resource()
	if res == nil {
		return nil
	}
	return res.Client()
}

func (o *WaylandObject) UUID() uint64 {
	var id uint32
	if res := o.Resource(); res != nil {
		id = res.ID()
	}
	return uint64(id) + uint64(uintptr(unsafe.Pointer(o)))
}

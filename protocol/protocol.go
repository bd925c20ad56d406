// Package protocol defines the types necessary for unmarshalling a
// protocol-specification XML file, and carries the core protocol
// interfaces that the server implements.
package protocol

import (
	_ "embed"
	"encoding/xml"
	"fmt"
	"strconv"
	"sync"
)

//go:embed wayland.xml
var coreXML []byte

var core = sync.OnceValues(func() (*Protocol, error) {
	return Parse(coreXML)
})

// Core returns the core Wayland protocol interfaces that the server
// implements.
func Core() (*Protocol, error) {
	return core()
}

// Parse decodes a protocol-specification XML document.
func Parse(data []byte) (*Protocol, error) {
	var p Protocol
	err := xml.Unmarshal(data, &p)
	if err != nil {
		return nil, fmt.Errorf("unmarshal protocol: %w", err)
	}
	return &p, nil
}

type Protocol struct {
	Name      string `xml:"name,attr"`
	Copyright string `xml:"copyright"`

	Interfaces []Interface `xml:"interface"`
}

// Interface returns the interface with the given name.
func (p *Protocol) Interface(name string) (*Interface, bool) {
	for i := range p.Interfaces {
		if p.Interfaces[i].Name == name {
			return &p.Interfaces[i], true
		}
	}
	return nil, false
}

type Interface struct {
	Name        string      `xml:"name,attr"`
	Version     int         `xml:"version,attr"`
	Description Description `xml:"description"`

	Requests []Op   `xml:"request"`
	Events   []Op   `xml:"event"`
	Enums    []Enum `xml:"enum"`
}

type Description struct {
	Summary string `xml:"summary,attr"`
	Full    string `xml:",chardata"`
}

// RequestNames lists the interface's request names indexed by opcode.
func (iface *Interface) RequestNames() []string {
	return opNames(iface.Requests)
}

// EventNames lists the interface's event names indexed by opcode.
func (iface *Interface) EventNames() []string {
	return opNames(iface.Events)
}

func opNames(ops []Op) []string {
	names := make([]string, 0, len(ops))
	for _, op := range ops {
		names = append(names, op.Name)
	}
	return names
}

// Enum returns the named enum.
func (iface *Interface) Enum(name string) (*Enum, bool) {
	for i := range iface.Enums {
		if iface.Enums[i].Name == name {
			return &iface.Enums[i], true
		}
	}
	return nil, false
}

type Op struct {
	Name        string      `xml:"name,attr"`
	Type        string      `xml:"type,attr"`
	Since       int         `xml:"since,attr"`
	Description Description `xml:"description"`

	Args []Arg `xml:"arg"`
}

type Arg struct {
	Name    string `xml:"name,attr"`
	Summary string `xml:"summary,attr"`

	Type      string `xml:"type,attr"`
	Interface string `xml:"interface,attr"`
	Version   int    `xml:"version,attr"`
	AllowNull bool   `xml:"allow-null,attr"`
	Enum      string `xml:"enum,attr"`
}

type Enum struct {
	Name        string      `xml:"name,attr"`
	Bitfield    bool        `xml:"bitfield,attr"`
	Description Description `xml:"description"`

	Entries []Entry `xml:"entry"`
}

type Entry struct {
	Name    string `xml:"name,attr"`
	Summary string `xml:"summary,attr"`
	Value   string `xml:"value,attr"`
}

// Value returns the value of the named entry.
func (e *Enum) Value(name string) (int, error) {
	for _, entry := range e.Entries {
		if entry.Name == name {
			return entry.Int()
		}
	}
	return 0, fmt.Errorf("no entry %q in enum %v", name, e.Name)
}

func (e Entry) Int() (int, error) {
	v, err := strconv.ParseInt(e.Value, 0, 0)
	return int(v), err
}

package compositor

import (
	"image"
	"slices"

	"deedles.dev/kms/object"
)

var RegionType = object.NewType("region", WaylandObjectType)

type regionOp struct {
	rect image.Rectangle
	add  bool
}

// Region is a wl_region: a list of rectangles added to or subtracted
// from an initially empty area.
type Region struct {
	WaylandObject
	ops []regionOp
}

func NewRegion(res Resource) *Region {
	var r Region
	r.initWayland(RegionType, &r, res)
	return &r
}

func (r *Region) Add(x, y, width, height int32) {
	r.Lock()
	defer r.Unlock()
	r.ops = append(r.ops, regionOp{rect: rect(x, y, width, height), add: true})
}

func (r *Region) Subtract(x, y, width, height int32) {
	r.Lock()
	defer r.Unlock()
	r.ops = append(r.ops, regionOp{rect: rect(x, y, width, height)})
}

// Contains reports whether the point is in the region. The last
// operation whose rectangle covers the point decides.
func (r *Region) Contains(x, y int) bool {
	r.RLock()
	defer r.RUnlock()

	p := image.Pt(x, y)
	for i := len(r.ops) - 1; i >= 0; i-- {
		if p.In(r.ops[i].rect) {
			return r.ops[i].add
		}
	}
	return false
}

// Copy returns a region with the same area and no resource.
func (r *Region) Copy() *Region {
	r.RLock()
	defer r.RUnlock()

	c := NewRegion(nil)
	c.ops = slices.Clone(r.ops)
	return c
}

func rect(x, y, width, height int32) image.Rectangle {
	return image.Rect(int(x), int(y), int(x)+int(width), int(y)+int(height))
}

package compositor

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegion(t *testing.T) {
	r := NewRegion(&fakeResource{id: 4})
	r.Add(0, 0, 100, 100)
	r.Subtract(25, 25, 50, 50)
	r.Add(40, 40, 10, 10)

	tests := []struct {
		name string
		x, y int
		in   bool
	}{
		{name: "Added", x: 10, y: 10, in: true},
		{name: "Subtracted", x: 30, y: 30, in: false},
		{name: "AddedBack", x: 45, y: 45, in: true},
		{name: "RightEdge", x: 100, y: 50, in: false},
		{name: "Outside", x: -1, y: 0, in: false},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.in, r.Contains(test.x, test.y))
		})
	}

	c := r.Copy()
	assert.Nil(t, c.Resource())
	assert.True(t, c.Contains(45, 45))
	assert.Equal(t, uint32(4), r.Resource().ID())
}

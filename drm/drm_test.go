package drm

import (
	"testing"
	"unsafe"

	"deedles.dev/kms/internal/bin"
	"github.com/stretchr/testify/assert"
)

func TestIoctlNumbers(t *testing.T) {
	tests := []struct {
		name string
		got  uintptr
		want uintptr
	}{
		{"GET_CAP", ioctlGetCap, 0xC010640C},
		{"GETRESOURCES", ioctlGetResources, 0xC04064A0},
		{"GETCRTC", ioctlGetCrtc, 0xC06864A1},
		{"SETCRTC", ioctlSetCrtc, 0xC06864A2},
		{"GETENCODER", ioctlGetEncoder, 0xC01464A6},
		{"GETCONNECTOR", ioctlGetConnector, 0xC05064A7},
		{"ADDFB", ioctlAddFB, 0xC01C64AE},
		{"RMFB", ioctlRmFB, 0xC00464AF},
		{"PAGE_FLIP", ioctlPageFlip, 0xC01864B0},
		{"CREATE_DUMB", ioctlCreateDumb, 0xC02064B2},
		{"MAP_DUMB", ioctlMapDumb, 0xC01064B3},
		{"DESTROY_DUMB", ioctlDestroyDumb, 0xC00464B4},
		{"CURSOR2", ioctlCursor2, 0xC02464BB},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.got)
		})
	}

	assert.Equal(t, uintptr(68), unsafe.Sizeof(ModeInfo{}))
}

func event(typ, length uint32, userData uint64, sec, usec, seq, crtc uint32) []byte {
	var buf []byte
	put := func(v uint32) {
		b := bin.Bytes(v)
		buf = append(buf, b[:]...)
	}
	put(typ)
	put(length)
	put(uint32(userData))
	put(uint32(userData >> 32))
	put(sec)
	put(usec)
	put(seq)
	put(crtc)
	return buf[:length]
}

func TestParseEvents(t *testing.T) {
	var buf []byte
	buf = append(buf, event(EventFlipComplete, 32, 1<<33|5, 2, 500000, 9, 42)...)
	buf = append(buf, event(0x80000000, 16, 0, 0, 0, 0, 0)...)
	buf = append(buf, event(EventVBlank, 32, 7, 0, 0, 1, 43)...)
	buf = append(buf, 1, 2, 3)

	events := ParseEvents(buf)
	if assert.Len(t, events, 2) {
		assert.Equal(t, Event{
			Type:     EventFlipComplete,
			UserData: 1<<33 | 5,
			Sec:      2,
			Usec:     500000,
			Sequence: 9,
			CrtcID:   42,
		}, events[0])
		assert.Equal(t, uint32(2500), events[0].Millis())
		assert.Equal(t, uint32(43), events[1].CrtcID)
	}

	assert.Empty(t, ParseEvents(event(EventFlipComplete, 4, 0, 0, 0, 0, 0)))
}

func TestModeString(t *testing.T) {
	m := NewMode(1920, 1080, 60)
	assert.Equal(t, "1920x1080@60", m.String())
	assert.False(t, m.Preferred())

	var unnamed ModeInfo
	unnamed.Hdisplay, unnamed.Vdisplay, unnamed.Vrefresh = 640, 480, 75
	assert.Equal(t, "640x480@75", unnamed.String())
}

func TestConnectorName(t *testing.T) {
	c := Connector{Type: 11, TypeID: 1}
	assert.Equal(t, "HDMI-A-1", c.Name())
	assert.Equal(t, "Unknown", ConnectorType(99).String())
}

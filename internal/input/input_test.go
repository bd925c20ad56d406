package input

import (
	"testing"

	"deedles.dev/kms/pointer"
	evdev "github.com/gvalkov/golang-evdev"
	"github.com/stretchr/testify/assert"
)

func rel(code uint16, v int32) evdev.InputEvent {
	return evdev.InputEvent{Type: evdev.EV_REL, Code: code, Value: v}
}

func key(code uint16, v int32) evdev.InputEvent {
	return evdev.InputEvent{Type: evdev.EV_KEY, Code: code, Value: v}
}

var syn = evdev.InputEvent{Type: evdev.EV_SYN, Code: evdev.SYN_REPORT}

func TestTranslator(t *testing.T) {
	tests := []struct {
		name  string
		speed float64
		in    []evdev.InputEvent
		out   []Event
	}{
		{
			name: "Motion",
			in:   []evdev.InputEvent{rel(evdev.REL_X, 3), rel(evdev.REL_Y, -2), syn},
			out:  []Event{{Kind: Motion, DX: 3, DY: -2}},
		},
		{
			name: "Accumulate",
			in:   []evdev.InputEvent{rel(evdev.REL_X, 3), rel(evdev.REL_X, 4), syn},
			out:  []Event{{Kind: Motion, DX: 7}},
		},
		{
			name: "NothingBeforeReport",
			in:   []evdev.InputEvent{rel(evdev.REL_X, 3)},
		},
		{
			name: "EmptyReport",
			in:   []evdev.InputEvent{syn},
		},
		{
			name:  "Speed",
			speed: 2,
			in:    []evdev.InputEvent{rel(evdev.REL_X, 3), syn},
			out:   []Event{{Kind: Motion, DX: 6}},
		},
		{
			name:  "CarriedFraction",
			speed: 0.5,
			in:    []evdev.InputEvent{rel(evdev.REL_X, 1), syn, rel(evdev.REL_X, 1), syn, rel(evdev.REL_X, -3), syn},
			out:   []Event{{Kind: Motion, DX: 1}, {Kind: Motion, DX: -1}},
		},
		{
			name: "Buttons",
			in:   []evdev.InputEvent{key(evdev.BTN_LEFT, 1), key(evdev.BTN_RIGHT, 0)},
			out: []Event{
				{Kind: Button, Button: pointer.ButtonLeft, State: pointer.Pressed},
				{Kind: Button, Button: pointer.ButtonRight, State: pointer.Released},
			},
		},
		{
			name: "Repeat",
			in:   []evdev.InputEvent{key(evdev.BTN_LEFT, 2)},
		},
		{
			name: "NotAButton",
			in:   []evdev.InputEvent{key(evdev.KEY_A, 1)},
		},
		{
			name: "Wheel",
			in:   []evdev.InputEvent{rel(evdev.REL_WHEEL, 1), syn},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			tr := Translator{Speed: test.speed}
			var out []Event
			for _, ev := range test.in {
				out = append(out, tr.Feed(ev)...)
			}
			assert.Equal(t, test.out, out)
		})
	}
}

func TestIsPointer(t *testing.T) {
	tests := []struct {
		name string
		dev  evdev.InputDevice
		want bool
	}{
		{
			name: "Mouse",
			dev: evdev.InputDevice{
				Name: "Logitech USB Optical Mouse",
				CapabilitiesFlat: map[int][]int{
					evdev.EV_REL: {evdev.REL_X, evdev.REL_Y, evdev.REL_WHEEL},
					evdev.EV_KEY: {evdev.BTN_LEFT, evdev.BTN_RIGHT},
				},
			},
			want: true,
		},
		{
			name: "Keyboard",
			dev: evdev.InputDevice{
				Name:             "AT Translated Set 2 keyboard",
				CapabilitiesFlat: map[int][]int{evdev.EV_KEY: {evdev.KEY_A}},
			},
		},
		{
			name: "NoButtons",
			dev: evdev.InputDevice{
				Name:             "Motion sensor",
				CapabilitiesFlat: map[int][]int{evdev.EV_REL: {evdev.REL_X, evdev.REL_Y}},
			},
		},
		{
			name: "Ignored",
			dev: evdev.InputDevice{
				Name: "Virtual console mouse",
				CapabilitiesFlat: map[int][]int{
					evdev.EV_REL: {evdev.REL_X, evdev.REL_Y},
					evdev.EV_KEY: {evdev.BTN_LEFT},
				},
			},
		},
	}

	for _, test := range tests {
		t.Run(test.name, func(t *testing.T) {
			assert.Equal(t, test.want, isPointer(&test.dev))
		})
	}
}

package drm

import "deedles.dev/kms/internal/bin"

// Event types.
const (
	EventVBlank       = 0x01
	EventFlipComplete = 0x02
	EventCrtcSequence = 0x03
)

// Event is a vblank or page-flip completion read from the card.
type Event struct {
	Type     uint32
	UserData uint64
	Sec      uint32
	Usec     uint32
	Sequence uint32
	CrtcID   uint32
}

// Millis returns the event's timestamp in milliseconds, truncated to
// 32 bits the way Wayland timestamps are.
func (ev Event) Millis() uint32 {
	return ev.Sec*1000 + ev.Usec/1000
}

const (
	eventHeaderLen = 8
	vblankEventLen = 32
)

// ParseEvents decodes a buffer of struct drm_event records. Records of
// unknown type are skipped and a truncated trailing record is dropped.
func ParseEvents(buf []byte) []Event {
	var events []Event
	for len(buf) >= eventHeaderLen {
		typ := bin.Uint32At(buf, 0)
		length := int(bin.Uint32At(buf, 4))
		if length < eventHeaderLen || length > len(buf) {
			break
		}

		switch typ {
		case EventVBlank, EventFlipComplete:
			if length < vblankEventLen {
				break
			}
			events = append(events, Event{
				Type:     typ,
				UserData: bin.Uint64At(buf, 8),
				Sec:      bin.Uint32At(buf, 16),
				Usec:     bin.Uint32At(buf, 20),
				Sequence: bin.Uint32At(buf, 24),
				CrtcID:   bin.Uint32At(buf, 28),
			})
		}

		buf = buf[length:]
	}
	return events
}

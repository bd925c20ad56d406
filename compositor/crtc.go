package compositor

import (
	"fmt"

	"deedles.dev/kms/drm"
	"golang.org/x/sys/unix"
)

// ErrNoCRTC is returned when no free CRTC can drive a connector.
var ErrNoCRTC = fmt.Errorf("no free crtc: %w", unix.ENOENT)

// crtcClaimed reports whether a monitor other than self has reserved
// crtc.
func (c *Compositor) crtcClaimed(self *Monitor, crtc uint32) bool {
	for _, m := range c.monitors {
		if m == self {
			continue
		}
		switch m.State() {
		case CrtcReserved, Connected:
			if m.crtc == crtc {
				return true
			}
		}
	}
	return false
}

// reserveCRTC finds a CRTC for conn. The CRTC that the connector's
// current encoder drives is preferred. Otherwise the first free CRTC
// that any of the connector's encoders can drive is used, in encoder
// order and then in the order the device lists its CRTCs.
func (m *Monitor) reserveCRTC(conn *drm.Connector, res *drm.Resources) (uint32, error) {
	c := m.comp

	if conn.EncoderID != 0 {
		enc, err := c.dev.Encoder(conn.EncoderID)
		switch {
		case err != nil:
			m.log.Debug("get current encoder", "encoder", conn.EncoderID, "err", err)
		case enc.CrtcID != 0 && !c.crtcClaimed(m, enc.CrtcID):
			return enc.CrtcID, nil
		}
	}

	for _, id := range conn.Encoders {
		enc, err := c.dev.Encoder(id)
		if err != nil {
			m.log.Debug("get encoder", "encoder", id, "err", err)
			continue
		}

		for j, crtc := range res.CRTCs {
			if j >= 32 || enc.PossibleCrtcs&(1<<j) == 0 {
				continue
			}
			if c.crtcClaimed(m, crtc) {
				continue
			}
			return crtc, nil
		}
	}

	return 0, ErrNoCRTC
}

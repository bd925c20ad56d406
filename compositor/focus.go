package compositor

// focus tracks which shell surface has keyboard focus. It follows the
// surface under the cursor.
type focus struct {
	comp    *Compositor
	surface *ShellSurface
}

func (f *focus) set(next *ShellSurface) {
	if next == f.surface {
		return
	}

	d := f.comp.display
	if !d.Acquire() {
		f.comp.log.Error("could not acquire display")
		return
	}
	defer d.Release()

	if prev := f.surface; prev != nil {
		if res := prev.surfaceResource(); res != nil {
			for _, k := range clientKeyboards(res) {
				k.Leave(d.NextSerial(), res)
			}
		}
	}

	f.surface = next
	if next != nil {
		if res := next.surfaceResource(); res != nil {
			for _, k := range clientKeyboards(res) {
				k.Enter(d.NextSerial(), res, nil)
			}
		}
	}
}

func (f *focus) forget(s *ShellSurface) {
	if f.surface == s {
		f.surface = nil
	}
}

func (f *focus) surfaceDestroyed(s *Surface) {
	if f.surface != nil && f.surface.Surface() == s {
		f.surface = nil
	}
}

// Focus returns the shell surface with keyboard focus.
func (c *Compositor) Focus() *ShellSurface {
	return c.focus.surface
}

func clientKeyboards(res Resource) []Keyboard {
	client := res.Client()
	if client == nil {
		return nil
	}
	return client.Keyboards()
}

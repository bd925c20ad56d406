package buffer

func data(b Buffer) []byte {
	if b == nil {
		return nil
	}
	return b.Data()
}

// Blit copies the overlapping top-left region of src into dst. It
// copies min(dst.Width*dst.BPP, src.Width*src.BPP) bytes from each of
// min(dst.Height, src.Height) rows. It does nothing if either buffer's
// data is unavailable. Callers bracket it with BeginAccess and
// EndAccess where needed.
func Blit(dst, src Buffer) {
	d, s := data(dst), data(src)
	if d == nil || s == nil {
		return
	}

	row := min(dst.Width()*dst.BPP(), src.Width()*src.BPP())
	rows := min(dst.Height(), src.Height())
	copyRows(d, dst.Stride(), s, src.Stride(), row, rows)
}

// BlitAt is Blit with the destination offset by x rows and y pixels.
// Note the axes: x selects the row and y the column, and the copy is
// clipped to dst.Width-y pixels wide and dst.Height-x rows high.
// Negative offsets copy nothing.
func BlitAt(dst, src Buffer, x, y int) {
	d, s := data(dst), data(src)
	if d == nil || s == nil || x < 0 || y < 0 {
		return
	}

	bpp := dst.BPP()
	row := min((dst.Width()-y)*bpp, src.Width()*src.BPP())
	rows := min(dst.Height()-x, src.Height())
	if row <= 0 || rows <= 0 {
		return
	}

	off := x*dst.Stride() + y*bpp
	copyRows(d[off:], dst.Stride(), s, src.Stride(), row, rows)
}

func copyRows(d []byte, dstride int, s []byte, sstride int, row, rows int) {
	if row <= 0 {
		return
	}
	for i := 0; i < rows; i++ {
		copy(d[i*dstride:i*dstride+row], s[i*sstride:i*sstride+row])
	}
}

// Copy blits src into dst while holding access to both.
func Copy(dst, src Buffer) {
	if dst == nil || src == nil {
		return
	}

	dst.BeginAccess()
	defer dst.EndAccess()
	src.BeginAccess()
	defer src.EndAccess()

	Blit(dst, src)
}

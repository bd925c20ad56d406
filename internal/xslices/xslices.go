package xslices

// Delete removes every element equal to v, returning the shortened
// slice.
func Delete[T comparable, S ~[]T](s S, v T) S {
	i := 0
	for _, e := range s {
		if e != v {
			s[i] = e
			i++
		}
	}
	clear(s[i:])
	return s[:i]
}

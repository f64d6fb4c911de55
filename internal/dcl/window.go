package dcl

// slidingWindow is the 4 KiB history of decoded output that copy
// back-references resolve against. The write cursor wraps around; until
// the first wrap only pos bytes of history exist.
type slidingWindow struct {
	buf     [windowSize]byte
	pos     int  // next write position
	wrapped bool // cursor has wrapped at least once
}

// push appends one decoded byte to the history.
func (w *slidingWindow) push(b byte) {
	w.buf[w.pos] = b
	w.pos = (w.pos + 1) & (windowSize - 1)
	if w.pos == 0 {
		w.wrapped = true
	}
}

// readBack returns the byte dist positions behind the write cursor,
// 1 <= dist <= windowSize. Before the first wrap a distance beyond the
// written history fails with ErrDistanceTooFar instead of returning
// stale buffer contents.
func (w *slidingWindow) readBack(dist int) (byte, error) {
	if !w.wrapped && dist > w.pos {
		return 0, ErrDistanceTooFar
	}
	return w.buf[(w.pos-dist+windowSize)&(windowSize-1)], nil
}

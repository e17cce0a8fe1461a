package vdevcache

import "github.com/google/btree"

// Write implements spec.md §4.3. It never fails: writes flow straight
// through to the backend at a layer above this one, and this method
// only patches or invalidates whatever of the write's range the cache
// happens to have resident. No device I/O is issued or awaited here.
func (c *Cache) Write(io *IO) {
	line := c.cfg.LineSize()
	start := alignDown(io.Offset, line)
	end := alignUp(io.Offset+int64(io.Size), line)

	c.mu.Lock()
	defer c.mu.Unlock()

	probe := offsetItem{&Entry{offset: start}}
	c.offset.AscendGreaterOrEqual(probe, func(item btree.Item) bool {
		e := item.(offsetItem).entry
		if e.offset >= end {
			return false
		}

		if e.fillInFlight != nil {
			// The in-flight fill may still be writing into e.data;
			// leave it untouched and let the fill callback discard the
			// entry once queued delegates have been served.
			e.missedUpdate = true
			return true
		}

		lineStart := e.offset
		lineEnd := e.offset + line
		overlapStart := max64(io.Offset, lineStart)
		overlapEnd := min64(io.Offset+int64(io.Size), lineEnd)
		if overlapStart >= overlapEnd {
			return true
		}
		srcOff := overlapStart - io.Offset
		dstOff := overlapStart - lineStart
		n := overlapEnd - overlapStart
		copy(e.data[dstOff:dstOff+n], io.Data[srcOff:srcOff+n])
		return true
	})
}

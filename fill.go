package vdevcache

// onFill implements spec.md §4.5, invoked by the IOFramework when the
// device read submitted in Read's miss path completes.
func (c *Cache) onFill(e *Entry, child *ChildIO) {
	c.mu.Lock()

	e.fillInFlight = nil
	delegates := e.drainDelegates()

	// Queued delegates were issued before any conflicting write could
	// have been observed, so they are entitled to the fill's data even
	// if missedUpdate was set afterward — that flag only blocks *new*
	// hits, handled by evicting the entry below.
	if child.Err == nil {
		for d := delegates; d != nil; d = d.next {
			rel := d.Offset - e.offset
			copy(d.Data[:d.Size], e.data[rel:rel+int64(d.Size)])
			e.hits++
			c.stats.hits.Add(1)
		}
		if delegates != nil {
			c.touchLocked(e)
		}
	}

	if child.Err != nil || e.missedUpdate {
		c.evictLocked(e)
	}

	c.mu.Unlock()

	var ferr error
	if child.Err != nil {
		ferr = newDeviceError("fill", child.Offset, child.Err)
	}

	for d := delegates; d != nil; {
		next := d.next
		d.next = nil
		d.Err = ferr
		c.io.Execute(d)
		d = next
	}
}

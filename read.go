package vdevcache

import "syscall"

// Read implements spec.md §4.2. A nil return means the IO is absorbed:
// it will complete asynchronously (or already has) via io.Execute, and
// the caller must not issue its own device read. Any other return value
// means the cache left io untouched and the caller must service it
// itself.
func (c *Cache) Read(io *IO) error {
	if io.Flags&FlagDontCache != 0 {
		return newNotEligible("read", io.Offset, syscall.EINVAL, "DONT_CACHE set")
	}
	if int64(io.Size) > c.cfg.CacheMax {
		return newNotEligible("read", io.Offset, syscall.EOVERFLOW, "read exceeds cache_max")
	}

	line := c.cfg.LineSize()
	lineOffset := alignDown(io.Offset, line)
	if io.Offset+int64(io.Size) > lineOffset+line {
		return newNotEligible("read", io.Offset, syscall.EXDEV, "read straddles a line boundary")
	}

	c.mu.Lock()

	if e := c.lookupLocked(lineOffset); e != nil {
		if e.missedUpdate {
			c.mu.Unlock()
			return newStale("read", io.Offset)
		}

		if e.fillInFlight != nil {
			e.enqueueDelegate(io)
			c.io.Bypass(io)
			c.mu.Unlock()
			c.stats.delegations.Add(1)
			return nil
		}

		rel := io.Offset - lineOffset
		copy(io.Data[:io.Size], e.data[rel:rel+int64(io.Size)])
		c.touchLocked(e)
		e.hits++
		c.io.Bypass(io)
		c.mu.Unlock()

		c.io.Execute(io)
		c.stats.hits.Add(1)
		return nil
	}

	entry, aerr := c.allocateLocked(lineOffset)
	if aerr != nil {
		c.mu.Unlock()
		return aerr
	}

	entry.enqueueDelegate(io)
	child := c.io.NewChildIO(c.backend, lineOffset, entry.data, fillFlags, func(ch *ChildIO) {
		c.onFill(entry, ch)
	})
	entry.fillInFlight = child
	c.io.Bypass(io)
	c.mu.Unlock()

	c.io.Nowait(child)
	c.stats.misses.Add(1)
	return nil
}

package vdevcache

// allocateLocked implements spec.md §4.4. Precondition: lock held, no
// entry exists for lineOffset.
func (c *Cache) allocateLocked(lineOffset int64) (*Entry, *Error) {
	if c.cfg.CacheSizeLimit == 0 {
		return nil, newTransient("allocate", lineOffset, "caching disabled: cache_size_limit=0")
	}

	line := c.cfg.LineSize()
	if c.count*line >= c.cfg.CacheSizeLimit {
		front := c.lruFrontLocked()
		if front == nil {
			return nil, newTransient("allocate", lineOffset, "no eviction candidate despite budget pressure")
		}
		if front.fillInFlight != nil {
			return nil, newTransient("allocate", lineOffset, "lru front is pinned by an in-flight fill")
		}
		c.evictLocked(front)
	}

	e := &Entry{
		offset: lineOffset,
		data:   make([]byte, line),
	}
	c.tick++
	e.lastUsed = c.tick

	c.offset.ReplaceOrInsert(offsetItem{e})
	c.lru.ReplaceOrInsert(lruItem{e})
	c.count++

	c.logger.Debug("allocate", "offset", lineOffset)
	return e, nil
}

package vdevcache

import "github.com/google/btree"

// Entry is a single resident cache line. All field access happens under
// the owning Cache's lock.
type Entry struct {
	offset int64
	data   []byte

	lastUsed uint64
	hits     uint64

	fillInFlight *ChildIO
	missedUpdate bool

	delegateHead *IO
	delegateTail *IO
}

// enqueueDelegate appends io to the FIFO delegate list in O(1).
func (e *Entry) enqueueDelegate(io *IO) {
	io.next = nil
	if e.delegateTail == nil {
		e.delegateHead = io
		e.delegateTail = io
		return
	}
	e.delegateTail.next = io
	e.delegateTail = io
}

// drainDelegates detaches and returns the head of the delegate list,
// leaving the entry's list empty. The caller owns a single forward pass
// over the returned chain.
func (e *Entry) drainDelegates() *IO {
	head := e.delegateHead
	e.delegateHead = nil
	e.delegateTail = nil
	return head
}

// Hits returns the entry's lifetime hit counter (telemetry only).
func (e *Entry) Hits() uint64 {
	return e.hits
}

// offsetItem orders entries by offset for the offset index.
type offsetItem struct{ entry *Entry }

func (o offsetItem) Less(than btree.Item) bool {
	return o.entry.offset < than.(offsetItem).entry.offset
}

// lruItem orders entries by (lastUsed, offset) for the LRU index, per
// spec.md §9: identical timestamps are broken by offset so the LRU
// ordering is a strict total order.
type lruItem struct{ entry *Entry }

func (l lruItem) Less(than btree.Item) bool {
	o := than.(lruItem)
	if l.entry.lastUsed != o.entry.lastUsed {
		return l.entry.lastUsed < o.entry.lastUsed
	}
	return l.entry.offset < o.entry.offset
}

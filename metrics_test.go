package vdevcache

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStatsSnapshot(t *testing.T) {
	s := NewStats()
	s.hits.Add(3)
	s.misses.Add(1)
	s.delegations.Add(2)

	snap := s.Snapshot()
	assert.Equal(t, StatsSnapshot{Hits: 3, Misses: 1, Delegations: 2}, snap)
}

func TestStatInitFiniRegistry(t *testing.T) {
	StatFini()
	defer StatFini()

	s1 := StatInit()
	s2 := StatInit()
	assert.Same(t, s1, s2, "repeated StatInit must return the same block")

	got, ok := LookupStats()
	assert.True(t, ok)
	assert.Same(t, s1, got)

	StatFini()
	_, ok = LookupStats()
	assert.False(t, ok)
}

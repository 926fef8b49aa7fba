package renderer

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

type countingReleaser struct{ released int }

func (c *countingReleaser) Release() { c.released++ }

type fakePoller struct {
	idle  bool
	waits int
	polls int
}

func (p *fakePoller) poll(wait bool) bool {
	p.polls++
	if wait {
		p.waits++
		return true
	}
	return p.idle
}

func TestRetireKeepsBusyResources(t *testing.T) {
	p := &fakePoller{}
	q := newRetirementQueue(p.poll, 8)
	a, b := &countingReleaser{}, &countingReleaser{}

	q.track(a, b)
	q.retire()
	assert.Equal(t, 0, a.released)
	assert.Equal(t, 2, q.len())

	p.idle = true
	q.retire()
	assert.Equal(t, 1, a.released)
	assert.Equal(t, 1, b.released)
	assert.Equal(t, 0, q.len())
	assert.Equal(t, 0, p.waits)
}

func TestRetireEmptySkipsPoll(t *testing.T) {
	p := &fakePoller{}
	q := newRetirementQueue(p.poll, 8)
	q.retire()
	q.drain()
	assert.Equal(t, 0, p.polls)
}

func TestRetireBlocksAtLimit(t *testing.T) {
	p := &fakePoller{}
	q := newRetirementQueue(p.poll, 3)

	rs := []*countingReleaser{{}, {}, {}}
	q.track(rs[0], rs[1])
	q.retire()
	assert.Equal(t, 0, p.waits)

	q.track(rs[2])
	q.retire()
	assert.Equal(t, 1, p.waits)
	for _, r := range rs {
		assert.Equal(t, 1, r.released)
	}
}

func TestDrain(t *testing.T) {
	p := &fakePoller{}
	q := newRetirementQueue(p.poll, 0)
	assert.Equal(t, maxPendingTransients, q.limit)

	c := &countingReleaser{}
	q.track(c, nil)
	assert.Equal(t, 1, q.len())

	q.drain()
	assert.Equal(t, 1, p.waits)
	assert.Equal(t, 1, c.released)
	assert.Equal(t, 0, q.len())
}

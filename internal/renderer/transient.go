package renderer

// maxPendingTransients bounds the retirement queue. Reaching it makes the
// next retire block until the GPU is idle.
const maxPendingTransients = 4096

type releaser interface {
	Release()
}

// devicePoller reports whether every submitted command buffer has finished.
// wait blocks until that is true.
type devicePoller func(wait bool) bool

// retirementQueue holds per-draw resources until the command buffers that
// reference them have retired. Entries are kept in submission order.
type retirementQueue struct {
	pending []releaser
	poll    devicePoller
	limit   int
}

func newRetirementQueue(poll devicePoller, limit int) *retirementQueue {
	if limit <= 0 {
		limit = maxPendingTransients
	}
	return &retirementQueue{poll: poll, limit: limit}
}

// track registers resources referenced by the most recent submission.
func (q *retirementQueue) track(rs ...releaser) {
	for _, r := range rs {
		if r != nil {
			q.pending = append(q.pending, r)
		}
	}
}

// retire releases everything once the device reports its queue empty.
func (q *retirementQueue) retire() {
	if len(q.pending) == 0 {
		return
	}
	wait := len(q.pending) >= q.limit
	if q.poll(wait) || wait {
		q.releaseAll()
	}
}

// drain waits for the device and releases everything.
func (q *retirementQueue) drain() {
	if len(q.pending) == 0 {
		return
	}
	q.poll(true)
	q.releaseAll()
}

func (q *retirementQueue) len() int {
	return len(q.pending)
}

func (q *retirementQueue) releaseAll() {
	n := len(q.pending)
	for i, r := range q.pending {
		r.Release()
		q.pending[i] = nil
	}
	q.pending = q.pending[:0]
	Logger().Debug("retired transient resources", "count", n)
}

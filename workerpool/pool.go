package workerpool

import (
	"golang.org/x/sync/errgroup"
)

// Pool runs submitted tasks on at most size goroutines. Go blocks while the
// pool is full; Wait blocks until every submitted task has returned.
type Pool struct {
	group errgroup.Group
}

// New returns a pool of size goroutines, at least one.
func New(size int) *Pool {
	p := &Pool{}
	p.group.SetLimit(max(size, 1))
	return p
}

func (p *Pool) Go(task func()) {
	p.group.Go(func() error {
		task()
		return nil
	})
}

func (p *Pool) Wait() {
	_ = p.group.Wait()
}

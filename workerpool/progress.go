package workerpool

import (
	"fmt"
	"sync"
	"sync/atomic"
)

// Progress counts completed tasks and reports to sink every few steps and
// once at the end. sink is never called concurrently.
type Progress struct {
	label string
	total int
	every int
	done  atomic.Int64
	mu    sync.Mutex
	sink  func(string)
}

// NewProgress reports "<label> n/total". every <= 0 picks a stride of about
// one twentieth of total, but never less than 3.
func NewProgress(label string, total, every int, sink func(string)) *Progress {
	if every <= 0 {
		every = max(3, total/20)
	}
	return &Progress{label: label, total: total, every: every, sink: sink}
}

func (p *Progress) Step() {
	n := int(p.done.Add(1))
	if p.sink == nil {
		return
	}
	if n%p.every != 0 && n != p.total {
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.sink(fmt.Sprintf("%s %d/%d", p.label, n, p.total))
}

// Report forwards msg to sink when one is set.
func Report(sink func(string), msg string) {
	if sink != nil {
		sink(msg)
	}
}

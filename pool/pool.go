// Package pool implements the interpreter's object pool: an intrusive,
// insertion-ordered list of every live runtime value plus a bounded
// "state clearer" sweep used to break reference cycles without a
// tracing collector.
package pool

import (
	"fmt"
	"sync"
)

// Clearer is implemented by anything the pool can sweep. Clear must drop
// the value's internal strong references (a Class's base class, a
// Method's bound receiver, a container's elements) so that reference
// cycles formed during a script call become collectible once every
// external handle is released.
type Clearer interface {
	Clear()
}

// node is one intrusive list entry. The pool never reorders nodes: new
// entries are always appended, so list order is allocation order and a
// StateClearer can find "everything allocated after me" by walking
// backwards from the tail to a saved node.
type node struct {
	value      Clearer
	prev, next *node
	pinned     bool // escaped a StateClearer scope; sweeps skip it
}

// Pool is the VM-wide allocator and diagnostics list. It is not
// reference counted itself — callers retain ordinary Go pointers to
// pool-owned values, and Go's GC reclaims node memory once nothing
// (including the pool's own list, which Sweep/Release prune) points to
// it anymore. What the pool buys over bare `new` is (a) the ability to
// dump every live value for diagnostics and (b) the bounded-sweep cycle
// breaker StateClearer depends on.
type Pool struct {
	mu         sync.Mutex
	head, tail *node
	count      int
	allocs     int
	frees      int
}

// New constructs an empty pool.
func New() *Pool {
	return &Pool{}
}

// Handle identifies a pool slot so a StateClearer can resume iteration
// from it. The zero Handle denotes "the list tail at construction time",
// i.e. everything in the pool is newer.
type Handle struct {
	n *node
}

// Add inserts value at the tail of the list and returns its handle.
func (p *Pool) Add(value Clearer) Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := &node{value: value, prev: p.tail}
	if p.tail != nil {
		p.tail.next = n
	} else {
		p.head = n
	}
	p.tail = n
	p.count++
	p.allocs++
	return Handle{n: n}
}

// Size returns the number of values currently linked into the pool.
func (p *Pool) Size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.count
}

// Stats reports lifetime allocation/free counts for diagnostics.
func (p *Pool) Stats() (allocs, frees, live int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.allocs, p.frees, p.count
}

// ListHead returns a handle to the current tail of the list: the anchor
// a new StateClearer should save, since every value added after this
// point is "newer than me".
func (p *Pool) ListHead() Handle {
	p.mu.Lock()
	defer p.mu.Unlock()
	return Handle{n: p.tail}
}

// Foreach visits every node strictly newer than anchor, walking from the
// tail backwards, stopping when it reaches anchor or runs off the front
// of the list. visitor returning false stops the walk early. It reports
// whether the walk reached the list terminator without ever finding
// anchor — a logic bug the caller (StateClearer) must report, mirroring
// the C++ StateClearer's "went too far" check.
func (p *Pool) Foreach(anchor Handle, visitor func(Clearer) bool) (ranOffEnd bool) {
	p.mu.Lock()
	cur := p.tail
	p.mu.Unlock()

	for cur != nil {
		if cur == anchor.n {
			return false
		}
		if !visitor(cur.value) {
			return false
		}
		cur = cur.prev
	}
	// Only an error if the pool was non-empty and had a real anchor to
	// find. An anchor of the zero Handle legitimately means "sweep
	// everything", so running off the end is expected in that case.
	return anchor.n != nil
}

// pinFrom marks every node newer than anchor whose value keep accepts.
// Pinned nodes are skipped by sweep: this is how a value "escapes" the
// StateClearer scope it was allocated in (e.g. a call's return value
// handed back to the host).
func (p *Pool) pinFrom(anchor Handle, keep func(Clearer) bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	for cur := p.tail; cur != nil && cur != anchor.n; cur = cur.prev {
		if keep(cur.value) {
			cur.pinned = true
		}
	}
}

// sweep clears and unlinks every non-pinned node newer than anchor,
// reporting whether the walk ran off the front of the list without
// finding a non-zero anchor (the StateClearer "went too far" condition).
func (p *Pool) sweep(anchor Handle) (ranOffEnd bool, err error) {
	p.mu.Lock()
	var targets []*node
	found := anchor.n == nil
	for cur := p.tail; cur != nil; cur = cur.prev {
		if cur == anchor.n {
			found = true
			break
		}
		if !cur.pinned {
			targets = append(targets, cur)
		}
	}
	p.mu.Unlock()

	for _, n := range targets {
		func() {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic while clearing pooled value: %v", r)
				}
			}()
			n.value.Clear()
		}()
		p.release(n)
	}
	return !found, err
}

// release unlinks n from the list, called by sweep once a value has
// been cleared and should no longer be reachable via diagnostics/
// foreach.
func (p *Pool) release(n *node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if n.prev != nil {
		n.prev.next = n.next
	} else if p.head == n {
		p.head = n.next
	}
	if n.next != nil {
		n.next.prev = n.prev
	} else if p.tail == n {
		p.tail = n.prev
	}
	n.prev, n.next = nil, nil
	p.count--
	p.frees++
}

// Clear empties the pool unconditionally, used when the VM itself is
// torn down.
func (p *Pool) Clear() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.head, p.tail = nil, nil
	p.frees += p.count
	p.count = 0
}

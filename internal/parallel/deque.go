package parallel

import "sync"

// deque holds the tasks forked by one worker. The owner pushes and pops at
// the bottom (LIFO, good locality for recursive splitting); thieves take
// from the top, which holds the oldest and therefore largest tasks.
//
// Entries may be stale: a task joined inline by its parent stays in the
// deque until someone reaches it, and is discarded then because its claim
// fails.
type deque struct {
	mu    sync.Mutex
	tasks []*Task
	head  int
}

func (d *deque) push(t *Task) {
	d.mu.Lock()
	d.tasks = append(d.tasks, t)
	d.mu.Unlock()
}

// pop claims the newest runnable task.
func (d *deque) pop() *Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	for len(d.tasks) > d.head {
		last := len(d.tasks) - 1
		t := d.tasks[last]
		d.tasks[last] = nil
		d.tasks = d.tasks[:last]
		if t.claim() {
			d.compact()
			return t
		}
	}
	d.reset()
	return nil
}

// steal claims the oldest runnable task.
func (d *deque) steal() *Task {
	d.mu.Lock()
	defer d.mu.Unlock()
	for d.head < len(d.tasks) {
		t := d.tasks[d.head]
		d.tasks[d.head] = nil
		d.head++
		if t.claim() {
			d.compact()
			return t
		}
	}
	d.reset()
	return nil
}

func (d *deque) compact() {
	if d.head == len(d.tasks) {
		d.reset()
	}
}

func (d *deque) reset() {
	d.tasks = d.tasks[:0]
	d.head = 0
}

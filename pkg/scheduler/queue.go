package scheduler

import (
	"container/heap"
	"errors"
	"sync"
)

var ErrQueueClosed = errors.New("queue is closed")

const defaultQueueCap = 16

// taskHeap is a max-heap on priority. Equal priorities pop in submission order.
type taskHeap []Task

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].priority != h[j].priority {
		return h[i].priority > h[j].priority
	}
	return h[i].seq < h[j].seq
}

func (h taskHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *taskHeap) Push(x any) {
	*h = append(*h, x.(Task))
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = Task{} // release the runner
	*h = old[:n-1]
	return t
}

// PriorityTaskQueue is an unbounded, blocking max-priority queue of tasks.
// All access to the heap and the closed flag happens under mu.
type PriorityTaskQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	tasks   taskHeap
	nextSeq uint64
	closed  bool
}

func NewPriorityTaskQueue() *PriorityTaskQueue {
	q := &PriorityTaskQueue{
		tasks: make(taskHeap, 0, defaultQueueCap),
	}
	q.cond = sync.NewCond(&q.mu)
	return q
}

// Push inserts t and wakes one waiting consumer.
func (q *PriorityTaskQueue) Push(t Task) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrQueueClosed
	}
	t.seq = q.nextSeq
	q.nextSeq++
	heap.Push(&q.tasks, t)
	q.mu.Unlock()

	q.cond.Signal()
	return nil
}

// PopBlocking waits until a task is available or the queue is closed.
// It returns false only when the queue is both closed and empty, so tasks
// pushed before Close are always handed out.
func (q *PriorityTaskQueue) PopBlocking() (Task, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for len(q.tasks) == 0 && !q.closed {
		q.cond.Wait()
	}

	if len(q.tasks) == 0 {
		return Task{}, false
	}
	return heap.Pop(&q.tasks).(Task), true
}

// Close rejects further pushes and wakes every waiting consumer.
func (q *PriorityTaskQueue) Close() {
	q.mu.Lock()
	q.closed = true
	q.mu.Unlock()

	q.cond.Broadcast()
}

func (q *PriorityTaskQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.tasks)
}

// Drain removes every pending task and returns them highest priority first.
func (q *PriorityTaskQueue) Drain() []Task {
	q.mu.Lock()
	defer q.mu.Unlock()

	drained := make([]Task, 0, len(q.tasks))
	for len(q.tasks) > 0 {
		drained = append(drained, heap.Pop(&q.tasks).(Task))
	}
	q.tasks = make(taskHeap, 0, defaultQueueCap)
	return drained
}

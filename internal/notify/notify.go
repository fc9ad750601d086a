package notify

import (
	"log"
	"sync"
	"time"
)

type Kind string

const (
	KindSuccess Kind = "success"
	KindError   Kind = "error"
)

// Toast is a transient notification shown to the operator.
type Toast struct {
	Kind    Kind      `json:"kind"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// Notifier surfaces the outcome of an operation to the operator.
type Notifier interface {
	Success(message string)
	Error(message string)
}

// Queue collects toasts until the next page render drains them.
type Queue struct {
	mu     sync.Mutex
	toasts []Toast
	limit  int
}

// NewQueue creates a Queue that keeps at most limit pending toasts,
// discarding the oldest ones first. A limit <= 0 keeps 20.
func NewQueue(limit int) *Queue {
	if limit <= 0 {
		limit = 20
	}
	return &Queue{limit: limit}
}

func (q *Queue) Success(message string) { q.push(KindSuccess, message) }

func (q *Queue) Error(message string) { q.push(KindError, message) }

func (q *Queue) push(kind Kind, message string) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.toasts = append(q.toasts, Toast{Kind: kind, Message: message, At: time.Now()})
	if over := len(q.toasts) - q.limit; over > 0 {
		q.toasts = q.toasts[over:]
	}
}

// Drain returns the pending toasts and clears the queue.
func (q *Queue) Drain() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	out := q.toasts
	q.toasts = nil
	return out
}

// Pending returns the pending toasts without clearing them.
func (q *Queue) Pending() []Toast {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]Toast(nil), q.toasts...)
}

// Logger writes toasts to the standard logger. Useful when no UI is attached.
type Logger struct{}

func (Logger) Success(message string) { log.Printf("[success] %s", message) }

func (Logger) Error(message string) { log.Printf("[error] %s", message) }

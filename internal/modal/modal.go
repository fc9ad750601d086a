package modal

import (
	"context"
	"errors"
	"log"
	"sync"

	"tokoadmin/internal/models"
	"tokoadmin/internal/notify"
)

// State is the lifecycle state of a dialog.
type State int

const (
	Closed State = iota
	OpenIdle
	OpenSubmitting
)

func (s State) String() string {
	switch s {
	case Closed:
		return "closed"
	case OpenIdle:
		return "open"
	case OpenSubmitting:
		return "submitting"
	default:
		return "unknown"
	}
}

var (
	// ErrNotOpen is returned when submitting a dialog that is not open.
	ErrNotOpen = errors.New("dialog is not open")
	// ErrSubmitting is returned when a dialog already has a request in flight.
	ErrSubmitting = errors.New("dialog is already submitting")
	// ErrInvalid is returned when the form fails validation.
	ErrInvalid = errors.New("invalid form")
)

// ProductAPI is the part of the catalog API the dialogs call.
type ProductAPI interface {
	Create(ctx context.Context, form models.ProductForm) (string, error)
	Update(ctx context.Context, id string, form models.ProductForm) (string, error)
	SoftDelete(ctx context.Context, id string) (string, error)
	Restore(ctx context.Context, id string) (string, error)
	HardDelete(ctx context.Context, id string) (string, error)
}

// Deps are the collaborators shared by every dialog.
type Deps struct {
	API      ProductAPI
	Notifier notify.Notifier
	// OnSuccess is called once after every successful request. The page
	// controller uses it to revalidate the product list.
	OnSuccess func()
	// Context is the parent of every request context. Requests outlive the
	// call that submitted them, so this is usually an application context.
	Context context.Context
}

// request describes the single call a submission makes.
type request struct {
	verb    string // used in log lines, e.g. "Deleting"
	failure string // generic message shown when the call fails
	call    func(ctx context.Context) (string, error)
	// done runs under the dialog lock when the call succeeds.
	done func()
}

// Dialog is the open/submit state machine shared by every product dialog.
// At most one request is in flight per dialog.
type Dialog struct {
	deps Deps

	mu       sync.Mutex
	state    State
	disposed bool
	wg       sync.WaitGroup
}

func newDialog(deps Deps) *Dialog {
	if deps.Context == nil {
		deps.Context = context.Background()
	}
	if deps.Notifier == nil {
		deps.Notifier = notify.Logger{}
	}
	return &Dialog{deps: deps}
}

// State returns the current state.
func (d *Dialog) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// IsOpen reports whether the dialog is shown.
func (d *Dialog) IsOpen() bool {
	return d.State() != Closed
}

// IsSubmitting reports whether a request is in flight.
func (d *Dialog) IsSubmitting() bool {
	return d.State() == OpenSubmitting
}

// Open shows the dialog. Opening an open dialog does nothing.
func (d *Dialog) Open() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == Closed && !d.disposed {
		d.state = OpenIdle
	}
}

// Cancel closes an idle dialog. A submitting dialog cannot be cancelled.
func (d *Dialog) Cancel() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.state == OpenSubmitting {
		return ErrSubmitting
	}
	d.state = Closed
	return nil
}

// Wait blocks until the in-flight request, if any, has settled.
func (d *Dialog) Wait() {
	d.wg.Wait()
}

// Dispose detaches the dialog from the page. A response arriving after
// disposal no longer changes the dialog or notifies the operator.
func (d *Dialog) Dispose() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.disposed = true
}

// submit moves the dialog to OpenSubmitting and issues the request built
// by prepare in the background. prepare runs under the lock after the state
// checks; an error from it aborts the submission and leaves the dialog open
// and idle.
func (d *Dialog) submit(prepare func() (request, error)) error {
	d.mu.Lock()
	switch {
	case d.disposed, d.state == Closed:
		d.mu.Unlock()
		return ErrNotOpen
	case d.state == OpenSubmitting:
		d.mu.Unlock()
		return ErrSubmitting
	}
	req, err := prepare()
	if err != nil {
		d.mu.Unlock()
		return err
	}
	d.state = OpenSubmitting
	d.wg.Add(1)
	d.mu.Unlock()

	go d.run(req)
	return nil
}

func (d *Dialog) run(req request) {
	defer d.wg.Done()

	msg, err := req.call(d.deps.Context)

	d.mu.Lock()
	disposed := d.disposed
	if !disposed {
		if err != nil {
			d.state = OpenIdle
		} else {
			d.state = Closed
			if req.done != nil {
				req.done()
			}
		}
	}
	d.mu.Unlock()

	if err != nil {
		log.Printf("Failed %s Product: %v", req.verb, err)
		if !disposed {
			d.deps.Notifier.Error(req.failure)
		}
		return
	}

	// The remote list changed even if nobody is watching this dialog anymore.
	if d.deps.OnSuccess != nil {
		d.deps.OnSuccess()
	}
	if !disposed {
		d.deps.Notifier.Success(msg)
	}
}

package workflow

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/errgroup"
)

const loopBuffer = 64

// ErrLoopClosed is returned by [Loop.Await] after [Loop.Close].
var ErrLoopClosed = errors.New("workflow loop closed")

// Loop hosts a [Controller] without a UI: Tasks run on an errgroup and their
// messages are applied in order by [Loop.Await].
type Loop struct {
	ctrl  *Controller
	msgs  chan Msg
	group *errgroup.Group
	gctx  context.Context
	stop  context.CancelFunc

	closeOnce sync.Once
	done      chan struct{}

	// Watch, when set, is called after every applied message.
	Watch func(Msg, Session)
}

// NewLoop creates a controller bound to a headless loop. opts.Dispatch is replaced.
func NewLoop(ctx context.Context, backend Backend, opts Options) *Loop {
	ctx, stop := context.WithCancel(ctx)
	group, gctx := errgroup.WithContext(ctx)
	l := &Loop{
		msgs:  make(chan Msg, loopBuffer),
		group: group,
		gctx:  gctx,
		stop:  stop,
		done:  make(chan struct{}),
	}

	opts.Dispatch = l.dispatch
	l.ctrl = NewController(backend, opts)
	return l
}

// Controller returns the hosted controller. Only call its methods from the goroutine driving Await.
func (l *Loop) Controller() *Controller { return l.ctrl }

// Start runs task off-loop. A nil task is ignored.
func (l *Loop) Start(task Task) {
	if task == nil {
		return
	}
	l.group.Go(func() error {
		l.post(task(l.gctx))
		return nil
	})
}

// Await applies messages until until reports true for the session or ctx ends.
func (l *Loop) Await(ctx context.Context, until func(Session) bool) (Session, error) {
	for {
		if s := l.ctrl.Session(); until(s) {
			return s, nil
		}

		select {
		case <-l.done:
			return l.ctrl.Session(), ErrLoopClosed
		default:
		}

		select {
		case <-ctx.Done():
			return l.ctrl.Session(), ctx.Err()
		case <-l.done:
			return l.ctrl.Session(), ErrLoopClosed
		case msg := <-l.msgs:
			l.Start(l.ctrl.Update(msg))
			if l.Watch != nil {
				l.Watch(msg, l.ctrl.Session())
			}
		}
	}
}

// Close cancels outstanding Tasks, stops the progress reporter and waits for the Tasks to return.
func (l *Loop) Close() error {
	l.closeOnce.Do(func() {
		l.stop()
		l.ctrl.Close()
		close(l.done)
	})
	return l.group.Wait()
}

// post delivers a Task result; results are never dropped while the loop is open.
func (l *Loop) post(msg Msg) {
	select {
	case l.msgs <- msg:
	case <-l.done:
	}
}

// dispatch delivers progress without blocking; a full buffer drops the update.
func (l *Loop) dispatch(msg Msg) {
	select {
	case l.msgs <- msg:
	default:
	}
}

// Settled reports whether no call is outstanding.
func Settled(s Session) bool { return !s.InFlight() }

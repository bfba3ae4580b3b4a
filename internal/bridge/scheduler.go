package bridge

import (
	"errors"
	"time"

	"github.com/rs/zerolog/log"
)

// ErrSchedulerStopped is returned to submitters when the scheduler shut down
// before their work could run or complete.
var ErrSchedulerStopped = errors.New("bridge: scheduler stopped")

const schedulerJoinTimeout = 5 * time.Second

type taskResult struct {
	value any
	err   error
}

type task struct {
	id   string
	run  func() (any, error)
	resp chan taskResult
}

// Scheduler is the single owner of the session connection. Its goroutine is
// the only context allowed to perform session I/O, which is what keeps at
// most one request in flight on a connection that cannot correlate responses.
//
// Work arrives two ways: external submissions (OSC command handlers), and the
// poll timer, which lives in the same select loop. Submissions run strictly
// in FIFO order; a tick never interleaves with a submitted exchange.
type Scheduler struct {
	tasks    chan task
	interval time.Duration
	onTick   func()

	stop chan struct{}
	done chan struct{}
}

// NewScheduler builds a scheduler that fires onTick every interval while no
// submission is pending ahead of the timer.
func NewScheduler(interval time.Duration, onTick func()) *Scheduler {
	return &Scheduler{
		tasks:    make(chan task, 16),
		interval: interval,
		onTick:   onTick,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start brings the scheduler goroutine up. It must run before the OSC
// listener starts so a handler can never submit into the void.
func (s *Scheduler) Start() {
	go s.loop()
	log.Info().Str("module", "bridge.scheduler").
		Dur("interval", s.interval).Msg("scheduler started")
}

// Stop signals the loop and waits for it with a bounded join. In-flight
// session I/O cannot be cancelled; a scheduler stuck in a read is logged and
// abandoned rather than treated as fatal to process exit.
func (s *Scheduler) Stop() {
	close(s.stop)
	select {
	case <-s.done:
	case <-time.After(schedulerJoinTimeout):
		log.Warn().Str("module", "bridge.scheduler").
			Msg("scheduler did not stop within bound")
	}
}

// Submit hands fn to the scheduler goroutine and blocks until it ran. The
// result or failure is returned to the calling goroutine; the hand-back also
// orders any cache writes fn made before the caller's subsequent reads.
func (s *Scheduler) Submit(id string, fn func() (any, error)) (any, error) {
	t := task{id: id, run: fn, resp: make(chan taskResult, 1)}
	select {
	case s.tasks <- t:
	case <-s.done:
		return nil, ErrSchedulerStopped
	}
	select {
	case r := <-t.resp:
		return r.value, r.err
	case <-s.done:
		// The loop may have finished the task right as it shut down.
		select {
		case r := <-t.resp:
			return r.value, r.err
		default:
			return nil, ErrSchedulerStopped
		}
	}
}

func (s *Scheduler) loop() {
	defer close(s.done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			log.Info().Str("module", "bridge.scheduler").Msg("scheduler stopping")
			return
		case t := <-s.tasks:
			value, err := t.run()
			if err != nil {
				log.Debug().Err(err).Str("module", "bridge.scheduler").
					Str("task", t.id).Msg("task failed")
			}
			t.resp <- taskResult{value: value, err: err}
		case <-ticker.C:
			if s.onTick != nil {
				s.onTick()
			}
		}
	}
}

package worker

import (
	"os"
	"os/signal"
	"sync"
	"syscall"
)

// control carries the cooperative pause condition and the stop flag.
// Signal handlers flip the flags; the coordinator loop blocks on the
// condition between scheduling rounds.
type control struct {
	mu      sync.Mutex
	cond    *sync.Cond
	paused  bool
	stopped bool
}

func newControl() *control {
	c := &control{}
	c.cond = sync.NewCond(&c.mu)
	return c
}

// WaitIfPaused blocks while paused. It returns false once the worker
// has been told to stop.
func (c *control) WaitIfPaused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.paused && !c.stopped {
		c.cond.Wait()
	}
	return !c.stopped
}

func (c *control) Pause() {
	c.mu.Lock()
	c.paused = true
	c.mu.Unlock()
}

func (c *control) Resume() {
	c.mu.Lock()
	c.paused = false
	c.mu.Unlock()
	c.cond.Broadcast()
}

func (c *control) Stop() {
	c.mu.Lock()
	c.stopped = true
	c.paused = false
	c.mu.Unlock()
	c.cond.Broadcast()
}

func (c *control) Stopped() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stopped
}

func (c *control) Paused() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.paused
}

// installSignals wires the process signals: SIGTERM/SIGINT stop the
// crawl gracefully, SIGUSR1 pauses, SIGUSR2 resumes. The pause and
// resume callbacks run outside the control lock.
func installSignals(c *control, onPause, onResume func()) {
	ch := make(chan os.Signal, 4)
	signal.Notify(ch, syscall.SIGTERM, syscall.SIGINT, syscall.SIGUSR1, syscall.SIGUSR2)
	go func() {
		for sig := range ch {
			switch sig {
			case syscall.SIGUSR1:
				c.Pause()
				if onPause != nil {
					onPause()
				}
			case syscall.SIGUSR2:
				c.Resume()
				if onResume != nil {
					onResume()
				}
			default:
				c.Stop()
				return
			}
		}
	}()
}

package spinner

import (
	"fmt"
	"os"
	"sync"
	"time"

	"golang.org/x/term"
)

var frames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// Spinner displays animated progress while a query is in flight
type Spinner struct {
	out     *os.File
	mu      sync.Mutex
	message string
	done    chan struct{}
	stopped chan struct{}
	active  bool
}

// New creates a spinner that draws on stderr
func New(message string) *Spinner {
	return &Spinner{
		out:     os.Stderr,
		message: message,
	}
}

func (s *Spinner) isTerminal() bool {
	return term.IsTerminal(int(s.out.Fd()))
}

// Start begins the spinner animation. It does nothing when stderr is not a terminal.
func (s *Spinner) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.active || !s.isTerminal() {
		return
	}

	s.active = true
	s.done = make(chan struct{})
	s.stopped = make(chan struct{})

	go func() {
		defer close(s.stopped)

		ticker := time.NewTicker(80 * time.Millisecond)
		defer ticker.Stop()

		frame := 0
		for {
			select {
			case <-s.done:
				return
			case <-ticker.C:
				s.mu.Lock()
				fmt.Fprintf(s.out, "\r\033[K%s %s", frames[frame], s.message)
				s.mu.Unlock()
				frame = (frame + 1) % len(frames)
			}
		}
	}()
}

// Stop halts the spinner and clears the line
func (s *Spinner) Stop() {
	s.mu.Lock()
	if !s.active {
		s.mu.Unlock()
		return
	}
	s.active = false
	close(s.done)
	s.mu.Unlock()

	<-s.stopped
	fmt.Fprint(s.out, "\r\033[K")
}

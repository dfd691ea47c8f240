package sim

import (
	"context"
	"errors"
	"time"
)

// ErrRunActive is returned when starting a run while another one is running.
var ErrRunActive = errors.New("a run is already active")

// ErrNoRun is returned by operations that need an initialized run.
var ErrNoRun = errors.New("no run initialized")

// contextWithTimeout bounds store writes that happen off the tick lock.
func contextWithTimeout() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), 5*time.Second)
}

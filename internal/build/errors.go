package build

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrTimeout indicates the build exceeded its time limit and was killed.
	ErrTimeout = errors.New("build timed out")

	// ErrLaunch indicates the build tool could not be started or waited on.
	ErrLaunch = errors.New("failed to launch build")
)

// TimeoutError is returned when the build subprocess is killed after
// exceeding its timeout. It matches ErrTimeout with errors.Is.
type TimeoutError struct {
	Command string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s did not finish within %s", e.Command, e.Timeout)
}

func (e *TimeoutError) Unwrap() error {
	return ErrTimeout
}

package ops

import (
	"context"
	"fmt"
	"runtime"
	"time"
)

var startTime = time.Now()

// StatusOp returns bot version, uptime, Go version, and goroutine count.
type StatusOp struct {
	Version string
	// ActivePolls reports the number of open deletion votes; optional.
	ActivePolls func() int
}

func (s *StatusOp) Name() string        { return "status" }
func (s *StatusOp) Description() string { return "Show bot status" }
func (s *StatusOp) Access() Access      { return AccessAdmin }

func (s *StatusOp) Execute(_ context.Context, _ string) (string, error) {
	uptime := time.Since(startTime).Truncate(time.Second)
	out := fmt.Sprintf("Status: OK\nVersion: %s\nUptime: %s\nGo: %s\nGoroutines: %d",
		s.Version, uptime, runtime.Version(), runtime.NumGoroutine())
	if s.ActivePolls != nil {
		out += fmt.Sprintf("\nActive polls: %d", s.ActivePolls())
	}
	return out, nil
}

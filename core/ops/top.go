package ops

import (
	"context"
	"fmt"
	"html"
	"os/exec"
	"strings"

	"github.com/jdelaire/skybot/core"
)

// TopOp shows a one-shot snapshot of system resource usage.
type TopOp struct {
	Lines int
	// Command overrides the snapshot command; defaults to top in batch mode.
	Command []string
}

func (t *TopOp) Name() string        { return "top" }
func (t *TopOp) Description() string { return "Show system resource usage" }
func (t *TopOp) Access() Access      { return AccessAdmin }
func (t *TopOp) ParseMode() string   { return core.ParseModeHTML }

func (t *TopOp) Execute(ctx context.Context, _ string) (string, error) {
	argv := t.Command
	if len(argv) == 0 {
		argv = []string{"top", "-b", "-n", "1"}
	}
	out, err := exec.CommandContext(ctx, argv[0], argv[1:]...).Output()
	if err != nil {
		return "", fmt.Errorf("get system info: %w", err)
	}

	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if t.Lines > 0 && len(lines) > t.Lines {
		lines = lines[:t.Lines]
	}
	return "<code>" + html.EscapeString(strings.Join(lines, "\n")) + "</code>", nil
}

package ops

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"strings"

	"github.com/jdelaire/skybot/core"
	"github.com/jdelaire/skybot/core/journal"
)

// maxLogChars keeps the reply under the platform's 4096-character limit.
const maxLogChars = 4000

// LogOp sends the most recent interaction log lines.
type LogOp struct {
	Path  string
	Lines int
}

func (l *LogOp) Name() string        { return "log" }
func (l *LogOp) Description() string { return "Show recent interaction log entries" }
func (l *LogOp) Access() Access      { return AccessAdmin }
func (l *LogOp) ParseMode() string   { return core.ParseModeHTML }

func (l *LogOp) Execute(_ context.Context, _ string) (string, error) {
	lines, err := journal.Tail(l.Path, l.Lines)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "Log file is currently empty or does not exist.", nil
		}
		return "", fmt.Errorf("read log file: %w", err)
	}
	if len(lines) == 0 {
		return "Log file is empty.", nil
	}

	content := strings.Join(lines, "\n")
	if len(content) > maxLogChars {
		content = content[len(content)-maxLogChars:]
		// Don't start mid-rune.
		for len(content) > 0 && !isRuneStart(content[0]) {
			content = content[1:]
		}
	}
	return fmt.Sprintf("<b>Last %d Log Entries:</b>\n<pre>%s</pre>", len(lines), html.EscapeString(content)), nil
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}

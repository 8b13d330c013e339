package ops

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"math/rand/v2"
	"os"
	"path/filepath"

	"github.com/jdelaire/skybot/core"
)

// Photo sends a random file from Dir.
type Photo struct {
	Dir      string
	Notifier core.Notifier
	Logger   *slog.Logger
	// Pick chooses an index in [0, n); random when nil.
	Pick func(n int) int
}

func (p *Photo) Name() string        { return "photo" }
func (p *Photo) Description() string { return "Send a random photo" }

// Handle is the router handler for /photo.
func (p *Photo) Handle(ctx context.Context, ev *core.Event) error {
	chat, ok := ev.Chat()
	if !ok {
		return nil
	}
	say := func(text string) error {
		return p.Notifier.Send(ctx, core.Notification{ChatID: chat.ID, Text: text})
	}

	entries, err := os.ReadDir(p.Dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return say("Photo directory does not exist.")
		}
		return fmt.Errorf("list photos: %w", err)
	}

	var photos []string
	for _, e := range entries {
		if e.Type().IsRegular() {
			photos = append(photos, e.Name())
		}
	}
	if len(photos) == 0 {
		return say("The photo folder is empty.")
	}

	pick := p.Pick
	if pick == nil {
		pick = rand.IntN
	}
	name := photos[pick(len(photos))]

	err = p.Notifier.SendPhoto(ctx, core.Photo{
		ChatID:  chat.ID,
		Path:    filepath.Join(p.Dir, name),
		Caption: "Here is a random photo: " + name,
	})
	if err != nil {
		p.Logger.Error("send photo failed", "chat_id", chat.ID, "photo", name, "error", err)
		return say("Failed to send photo: " + err.Error())
	}
	return nil
}

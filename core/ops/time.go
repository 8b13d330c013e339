package ops

import (
	"context"
	"errors"
	"fmt"
	"html"
	"time"

	"github.com/jdelaire/skybot/core"
	"github.com/jdelaire/skybot/internal/weather"
)

// TimeOp shows the current time, on the server or in a named city. City
// time zones come from the weather provider's UTC offset for that place.
type TimeOp struct {
	Source WeatherSource
	Now    func() time.Time
}

func (t *TimeOp) Name() string { return "time" }
func (t *TimeOp) Description() string {
	return "Show current time in specified city (default: Server local time)"
}
func (t *TimeOp) Usage() string     { return "[city]" }
func (t *TimeOp) ParseMode() string { return core.ParseModeHTML }

func (t *TimeOp) Execute(ctx context.Context, args string) (string, error) {
	now := time.Now()
	if t.Now != nil {
		now = t.Now()
	}

	if args == "" {
		now = now.Local()
		return formatTime("Server Local Time", zoneName(now), now), nil
	}

	cur, err := t.Source.Current(ctx, weather.City(args))
	if err != nil {
		if errors.Is(err, weather.ErrNotFound) {
			return fmt.Sprintf("Sorry, I couldn't find the location: '%s'.", escape(args)), nil
		}
		return "", fmt.Errorf("look up city: %w", err)
	}
	loc := cur.Location()
	return formatTime(cur.City, loc.String(), now.In(loc)), nil
}

func formatTime(place, zone string, now time.Time) string {
	return fmt.Sprintf("The current time in <b>%s</b> is:\n🕒 <code>%s</code>\n📅 <code>%s</code>\n🌍 Timezone: <i>%s</i>",
		escape(place), now.Format("15:04:05"), now.Format("2006-01-02"), escape(zone))
}

func zoneName(t time.Time) string {
	if name := t.Location().String(); name != "" && name != "Local" {
		return name
	}
	abbr, _ := t.Zone()
	return abbr
}

func escape(s string) string {
	return html.EscapeString(s)
}

package ops

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/jdelaire/skybot/core"
	"github.com/jdelaire/skybot/internal/weather"
)

const (
	maxSuggestions     = 5
	inlineCacheTime    = time.Minute
	emptyQueryCacheTTL = 5 * time.Minute
)

// CityMatcher suggests city names for a typed prefix.
type CityMatcher interface {
	Match(prefix string, limit int) []string
}

// Inline answers inline queries with weather articles, autocompleting city
// names from a known list.
type Inline struct {
	Source   WeatherSource
	Cities   CityMatcher
	Notifier core.Notifier
	Logger   *slog.Logger
	// NewID generates result ids; random UUIDs when nil.
	NewID func() string
}

// Instructions answers an inline query with neither text nor location. It is
// registered as the router's inline-query fallback.
func (in *Inline) Instructions(ctx context.Context, ev *core.Event) error {
	if ev.InlineQuery == nil {
		return nil
	}
	return in.answer(ctx, ev.InlineQuery.ID, emptyQueryCacheTTL, core.InlineResult{
		ID:    in.id(),
		Title: "Enter a city name for weather",
		Text:  "Please type a city name after the bot's username or use the location button.",
	})
}

// Handle answers an inline query carrying text, a location, or both.
func (in *Inline) Handle(ctx context.Context, ev *core.Event) error {
	iq := ev.InlineQuery
	if iq == nil {
		return nil
	}
	query := strings.TrimSpace(iq.Query)
	var results []core.InlineResult

	if iq.Location != nil {
		cur, err := in.Source.Current(ctx, weather.Coords(iq.Location.Latitude, iq.Location.Longitude))
		if err != nil {
			in.Logger.Warn("inline location weather failed", "query_id", iq.ID, "error", err)
		} else {
			results = append(results, in.article("Weather at "+cur.City, cur))
		}
		if query == "" {
			if len(results) == 0 {
				results = append(results, core.InlineResult{
					ID:    in.id(),
					Title: "Weather unavailable for your location",
					Text:  "Sorry, I couldn't fetch the weather for your location.",
				})
			}
			return in.answer(ctx, iq.ID, inlineCacheTime, results...)
		}
	}

	if matches := in.Cities.Match(query, maxSuggestions); len(matches) > 0 {
		results = append(results, in.suggest(ctx, matches)...)
	} else {
		cur, err := in.Source.Current(ctx, weather.City(query))
		if err != nil {
			in.Logger.Debug("inline exact lookup failed", "query", query, "error", err)
		} else {
			results = append(results, in.article("Weather in "+cur.City, cur))
		}
	}

	if len(results) == 0 {
		results = append(results, core.InlineResult{
			ID:    in.id(),
			Title: fmt.Sprintf("City not found: '%s'", query),
			Text:  fmt.Sprintf("Sorry, I couldn't find the weather for '%s'.", query),
		})
	}
	return in.answer(ctx, iq.ID, inlineCacheTime, results...)
}

// suggest looks up every matched city concurrently and keeps the ones that
// resolved, in match order.
func (in *Inline) suggest(ctx context.Context, cities []string) []core.InlineResult {
	found := make([]*weather.Current, len(cities))

	var g errgroup.Group
	g.SetLimit(maxSuggestions)
	for i, city := range cities {
		g.Go(func() error {
			cur, err := in.Source.Current(ctx, weather.City(city))
			if err != nil {
				in.Logger.Debug("inline suggestion lookup failed", "city", city, "error", err)
				return nil
			}
			found[i] = cur
			return nil
		})
	}
	g.Wait()

	var results []core.InlineResult
	for i, cur := range found {
		if cur != nil {
			results = append(results, in.article(cities[i], cur))
		}
	}
	return results
}

func (in *Inline) article(title string, cur *weather.Current) core.InlineResult {
	return core.InlineResult{
		ID:          in.id(),
		Title:       title,
		Description: weather.Summary(cur),
		Text:        weather.FormatCurrent(cur),
		ParseMode:   core.ParseModeHTML,
	}
}

func (in *Inline) answer(ctx context.Context, queryID string, cache time.Duration, results ...core.InlineResult) error {
	return in.Notifier.AnswerInline(ctx, core.InlineAnswer{
		QueryID:   queryID,
		Results:   results,
		CacheTime: cache,
	})
}

func (in *Inline) id() string {
	if in.NewID != nil {
		return in.NewID()
	}
	return uuid.NewString()
}

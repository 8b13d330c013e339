package ops

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jdelaire/skybot/core"
	"github.com/jdelaire/skybot/internal/weather"
)

// WeatherSource looks up current conditions and forecasts.
type WeatherSource interface {
	Current(ctx context.Context, q weather.Query) (*weather.Current, error)
	Forecast(ctx context.Context, q weather.Query) (*weather.Forecast, error)
}

// WeatherOp reports current weather for a city, or asks for a location.
type WeatherOp struct {
	Source WeatherSource
}

func (w *WeatherOp) Name() string        { return "weather" }
func (w *WeatherOp) Description() string { return "Show current weather for a city or your location" }
func (w *WeatherOp) Usage() string       { return "[city]" }
func (w *WeatherOp) ParseMode() string   { return core.ParseModeHTML }

func (w *WeatherOp) LocationPrompt() string {
	return "To show you the weather for your current location, please click the button below:"
}

func (w *WeatherOp) Execute(ctx context.Context, args string) (string, error) {
	cur, err := w.Source.Current(ctx, weather.City(args))
	if err != nil {
		if errors.Is(err, weather.ErrNotFound) {
			return fmt.Sprintf("Sorry, I couldn't find the weather for: '%s'.", escape(args)), nil
		}
		return "", err
	}
	return weather.FormatCurrent(cur), nil
}

// ForecastOp reports the 5-day forecast for a city, or asks for a location.
type ForecastOp struct {
	Source WeatherSource
}

func (f *ForecastOp) Name() string        { return "forecast" }
func (f *ForecastOp) Description() string { return "Show 5-day weather forecast for a city or your location" }
func (f *ForecastOp) Usage() string       { return "[city]" }
func (f *ForecastOp) ParseMode() string   { return core.ParseModeHTML }

func (f *ForecastOp) LocationPrompt() string {
	return "To show you the forecast for your location, please share it using the button below:"
}

func (f *ForecastOp) Execute(ctx context.Context, args string) (string, error) {
	fc, err := f.Source.Forecast(ctx, weather.City(args))
	if err != nil {
		if errors.Is(err, weather.ErrNotFound) {
			return fmt.Sprintf("Sorry, I couldn't find the forecast for: '%s'.", escape(args)), nil
		}
		return "", err
	}
	return weather.FormatForecast(fc), nil
}

// LocationReport answers a shared location with current weather, which also
// removes the share-location keyboard, followed by the forecast.
func LocationReport(source WeatherSource, notifier core.Notifier, logger *slog.Logger) core.Handler {
	return func(ctx context.Context, ev *core.Event) error {
		msg := ev.Message
		if msg == nil || msg.Location == nil {
			return nil
		}
		q := weather.Coords(msg.Location.Latitude, msg.Location.Longitude)
		chatID := msg.Chat.ID

		cur, err := source.Current(ctx, q)
		if err != nil {
			logger.Warn("weather for location failed", "chat_id", chatID, "error", err)
			return notifier.Send(ctx, core.Notification{
				ChatID:         chatID,
				Text:           "Sorry, I couldn't fetch the current weather for your location.",
				RemoveKeyboard: true,
			})
		}
		if err := notifier.Send(ctx, core.Notification{
			ChatID:         chatID,
			Text:           weather.FormatCurrent(cur),
			ParseMode:      core.ParseModeHTML,
			RemoveKeyboard: true,
		}); err != nil {
			return err
		}

		fc, err := source.Forecast(ctx, q)
		if err != nil {
			logger.Warn("forecast for location failed", "chat_id", chatID, "error", err)
			return notifier.Send(ctx, core.Notification{
				ChatID: chatID,
				Text:   "Could not fetch the forecast for your location.",
			})
		}
		return notifier.Send(ctx, core.Notification{
			ChatID:    chatID,
			Text:      weather.FormatForecast(fc),
			ParseMode: core.ParseModeHTML,
		})
	}
}

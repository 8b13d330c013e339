// Package weather fetches current conditions and 5-day forecasts from the
// OpenWeatherMap HTTP API.
package weather

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/maypok86/otter"
	"github.com/tidwall/gjson"
)

// DefaultBaseURL is the OpenWeatherMap 2.5 API root.
const DefaultBaseURL = "https://api.openweathermap.org/data/2.5"

const (
	cacheCapacity = 1000
	cacheTTL      = 10 * time.Minute
	httpTimeout   = 10 * time.Second
)

var (
	// ErrNotFound means the provider does not know the requested place.
	ErrNotFound = errors.New("location not found")
	// ErrNoAPIKey is returned by every lookup when no key is configured.
	ErrNoAPIKey = errors.New("weather api key not set")
)

// Query selects a place by name or by coordinates.
type Query struct {
	City      string
	Lat, Lon  float64
	HasCoords bool
}

// City builds a query by place name.
func City(name string) Query { return Query{City: strings.TrimSpace(name)} }

// Coords builds a query by latitude and longitude.
func Coords(lat, lon float64) Query { return Query{Lat: lat, Lon: lon, HasCoords: true} }

func (q Query) String() string {
	if q.HasCoords {
		return fmt.Sprintf("%.4f,%.4f", q.Lat, q.Lon)
	}
	return q.City
}

func (q Query) cacheKey() string {
	if q.HasCoords {
		return "@" + q.String()
	}
	return "q:" + strings.ToLower(q.City)
}

func (q Query) params(apiKey string) (map[string]string, error) {
	p := map[string]string{"appid": apiKey, "units": "metric"}
	switch {
	case q.HasCoords:
		p["lat"] = strconv.FormatFloat(q.Lat, 'f', -1, 64)
		p["lon"] = strconv.FormatFloat(q.Lon, 'f', -1, 64)
	case q.City != "":
		p["q"] = q.City
	default:
		return nil, errors.New("empty weather query")
	}
	return p, nil
}

// Client talks to OpenWeatherMap. Current conditions are cached briefly
// since inline autocompletion asks for the same cities repeatedly.
type Client struct {
	http   *resty.Client
	apiKey string
	cache  otter.Cache[string, *Current]
	logger *slog.Logger
}

// NewClient creates a client for baseURL (DefaultBaseURL when empty).
func NewClient(baseURL, apiKey string, logger *slog.Logger) (*Client, error) {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	cache, err := otter.MustBuilder[string, *Current](cacheCapacity).WithTTL(cacheTTL).Build()
	if err != nil {
		return nil, fmt.Errorf("create weather cache: %w", err)
	}
	return &Client{
		http: resty.New().
			SetBaseURL(strings.TrimRight(baseURL, "/")).
			SetTimeout(httpTimeout).
			SetHeader("Accept", "application/json"),
		apiKey: apiKey,
		cache:  cache,
		logger: logger,
	}, nil
}

// Close releases the cache's background resources.
func (c *Client) Close() {
	c.cache.Close()
}

// Current returns current conditions for q.
func (c *Client) Current(ctx context.Context, q Query) (*Current, error) {
	key := q.cacheKey()
	if cur, ok := c.cache.Get(key); ok {
		return cur, nil
	}

	var body currentResponse
	if err := c.get(ctx, "/weather", q, &body); err != nil {
		return nil, err
	}
	cur := body.toCurrent()
	c.cache.Set(key, cur)
	return cur, nil
}

// Forecast returns the 5-day forecast in 3-hour steps for q.
func (c *Client) Forecast(ctx context.Context, q Query) (*Forecast, error) {
	var body forecastResponse
	if err := c.get(ctx, "/forecast", q, &body); err != nil {
		return nil, err
	}
	return body.toForecast(), nil
}

func (c *Client) get(ctx context.Context, path string, q Query, out any) error {
	if c.apiKey == "" {
		return ErrNoAPIKey
	}
	params, err := q.params(c.apiKey)
	if err != nil {
		return err
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParams(params).
		SetResult(out).
		Get(path)
	if err != nil {
		return fmt.Errorf("weather request %s: %w", path, err)
	}
	if resp.IsError() {
		msg := gjson.GetBytes(resp.Body(), "message").String()
		c.logger.Warn("weather api error", "path", path, "query", q.String(), "status", resp.StatusCode(), "message", msg)
		if resp.StatusCode() == 404 {
			return fmt.Errorf("%w: %s", ErrNotFound, q)
		}
		if msg == "" {
			msg = resp.Status()
		}
		return fmt.Errorf("weather api %s: %d %s", path, resp.StatusCode(), msg)
	}
	return nil
}

// Current holds the fields of a current-weather report the bot shows.
type Current struct {
	City       string
	Country    string
	Condition  string
	Temp       float64
	FeelsLike  float64
	Humidity   int
	Pressure   int
	WindSpeed  float64 // m/s
	Visibility int     // meters
	Cloudiness int     // percent
	Sunrise    time.Time
	Sunset     time.Time
	// Offset is the place's UTC offset in seconds.
	Offset int
}

// Location returns the place's fixed-offset zone.
func (c *Current) Location() *time.Location {
	return time.FixedZone(formatOffset(c.Offset), c.Offset)
}

// ForecastEntry is one 3-hour step.
type ForecastEntry struct {
	Time      time.Time
	Temp      float64
	Condition string
}

// Forecast is a 5-day forecast in 3-hour steps, oldest first.
type Forecast struct {
	City    string
	Country string
	Entries []ForecastEntry
}

type condition struct {
	Main        string `json:"main"`
	Description string `json:"description"`
}

type currentResponse struct {
	Name    string      `json:"name"`
	Weather []condition `json:"weather"`
	Main    struct {
		Temp      float64 `json:"temp"`
		FeelsLike float64 `json:"feels_like"`
		Humidity  int     `json:"humidity"`
		Pressure  int     `json:"pressure"`
	} `json:"main"`
	Wind struct {
		Speed float64 `json:"speed"`
	} `json:"wind"`
	Visibility int `json:"visibility"`
	Clouds     struct {
		All int `json:"all"`
	} `json:"clouds"`
	Sys struct {
		Country string `json:"country"`
		Sunrise int64  `json:"sunrise"`
		Sunset  int64  `json:"sunset"`
	} `json:"sys"`
	Timezone int `json:"timezone"`
}

func (r *currentResponse) toCurrent() *Current {
	cur := &Current{
		City:       orUnknown(r.Name),
		Country:    orUnknown(r.Sys.Country),
		Condition:  "Unknown",
		Temp:       r.Main.Temp,
		FeelsLike:  r.Main.FeelsLike,
		Humidity:   r.Main.Humidity,
		Pressure:   r.Main.Pressure,
		WindSpeed:  r.Wind.Speed,
		Visibility: r.Visibility,
		Cloudiness: r.Clouds.All,
		Sunrise:    time.Unix(r.Sys.Sunrise, 0),
		Sunset:     time.Unix(r.Sys.Sunset, 0),
		Offset:     r.Timezone,
	}
	if len(r.Weather) > 0 && r.Weather[0].Description != "" {
		cur.Condition = capitalize(r.Weather[0].Description)
	}
	return cur
}

type forecastResponse struct {
	List []struct {
		Dt   int64 `json:"dt"`
		Main struct {
			Temp float64 `json:"temp"`
		} `json:"main"`
		Weather []condition `json:"weather"`
	} `json:"list"`
	City struct {
		Name    string `json:"name"`
		Country string `json:"country"`
	} `json:"city"`
}

func (r *forecastResponse) toForecast() *Forecast {
	f := &Forecast{
		City:    orUnknown(r.City.Name),
		Country: orUnknown(r.City.Country),
		Entries: make([]ForecastEntry, 0, len(r.List)),
	}
	for _, item := range r.List {
		e := ForecastEntry{
			Time:      time.Unix(item.Dt, 0).UTC(),
			Temp:      item.Main.Temp,
			Condition: "Unknown",
		}
		if len(item.Weather) > 0 && item.Weather[0].Main != "" {
			e.Condition = item.Weather[0].Main
		}
		f.Entries = append(f.Entries, e)
	}
	return f
}

func orUnknown(s string) string {
	if s == "" {
		return "Unknown"
	}
	return s
}

// capitalize upper-cases the first letter and lower-cases the rest.
func capitalize(s string) string {
	if s == "" {
		return s
	}
	lower := strings.ToLower(s)
	return strings.ToUpper(lower[:1]) + lower[1:]
}

package weather

import (
	"fmt"
	"html"
	"math"
	"sort"
	"strconv"
	"strings"
)

const (
	hourlySteps = 8 // 3-hour steps, 24 hours
	summaryDays = 5
)

// FormatCurrent renders a current-weather report as Telegram HTML.
func FormatCurrent(c *Current) string {
	loc := c.Location()
	var b strings.Builder
	fmt.Fprintf(&b, "<b>📍 Weather in %s, %s</b>\n\n", esc(c.City), esc(c.Country))
	fmt.Fprintf(&b, "🌡️ <b>Temperature:</b> <code>%s°C</code>\n", num(c.Temp))
	fmt.Fprintf(&b, "🤔 <b>Feels Like:</b> <code>%s°C</code>\n", num(c.FeelsLike))
	fmt.Fprintf(&b, "☁️ <b>Condition:</b> <code>%s</code>\n", esc(c.Condition))
	fmt.Fprintf(&b, "💧 <b>Humidity:</b> <code>%d%%</code>\n", c.Humidity)
	fmt.Fprintf(&b, "💨 <b>Wind:</b> <code>%s km/h</code>\n", num(round1(c.WindSpeed*3.6)))
	fmt.Fprintf(&b, "👀 <b>Visibility:</b> <code>%s km</code>\n", num(round1(float64(c.Visibility)/1000)))
	fmt.Fprintf(&b, "📊 <b>Pressure:</b> <code>%d hPa</code>\n", c.Pressure)
	fmt.Fprintf(&b, "🌥️ <b>Cloudiness:</b> <code>%d%%</code>\n\n", c.Cloudiness)
	fmt.Fprintf(&b, "🌅 <b>Sunrise:</b> <code>%s</code>\n", c.Sunrise.In(loc).Format("15:04:05"))
	fmt.Fprintf(&b, "🌇 <b>Sunset:</b> <code>%s</code>", c.Sunset.In(loc).Format("15:04:05"))
	return b.String()
}

// Summary is the one-line description used for inline results.
func Summary(c *Current) string {
	return fmt.Sprintf("%s°C, %s", num(c.Temp), c.Condition)
}

type daySummary struct {
	date       string
	min, max   float64
	conditions map[string]int
	order      []string
}

// FormatForecast renders the next 24 hours in 3-hour steps followed by a
// per-day min/max summary with the most frequent condition. Times are UTC.
func FormatForecast(f *Forecast) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>🌤️ Forecast for %s, %s</b>\n\n", esc(f.City), esc(f.Country))

	b.WriteString("<b>Next 24 Hours (3-hour intervals):</b>")
	for i, e := range f.Entries {
		if i == hourlySteps {
			break
		}
		fmt.Fprintf(&b, "\n<code>%s</code>: %s°C, <i>%s</i>", e.Time.Format("15:04"), num(e.Temp), esc(e.Condition))
	}
	b.WriteString("\n\n<b>Next 5 Days:</b>")

	days := map[string]*daySummary{}
	for _, e := range f.Entries {
		date := e.Time.Format("2006-01-02")
		d, ok := days[date]
		if !ok {
			d = &daySummary{date: date, min: e.Temp, max: e.Temp, conditions: map[string]int{}}
			days[date] = d
		}
		d.min = math.Min(d.min, e.Temp)
		d.max = math.Max(d.max, e.Temp)
		if d.conditions[e.Condition] == 0 {
			d.order = append(d.order, e.Condition)
		}
		d.conditions[e.Condition]++
	}

	dates := make([]string, 0, len(days))
	for date := range days {
		dates = append(dates, date)
	}
	sort.Strings(dates)
	if len(dates) > summaryDays {
		dates = dates[:summaryDays]
	}

	for _, date := range dates {
		d := days[date]
		day := f.dayName(date)
		fmt.Fprintf(&b, "\n<code>%s, %s</code>: %.1f°C / %.1f°C, <i>%s</i>", day, date, d.min, d.max, esc(d.prevailing()))
	}
	return b.String()
}

// prevailing returns the most frequent condition; ties go to the one seen first.
func (d *daySummary) prevailing() string {
	best, count := "", 0
	for _, c := range d.order {
		if d.conditions[c] > count {
			best, count = c, d.conditions[c]
		}
	}
	return best
}

func (f *Forecast) dayName(date string) string {
	for _, e := range f.Entries {
		if e.Time.Format("2006-01-02") == date {
			return e.Time.Format("Mon")
		}
	}
	return ""
}

func formatOffset(seconds int) string {
	sign := '+'
	if seconds < 0 {
		sign = '-'
		seconds = -seconds
	}
	return fmt.Sprintf("UTC%c%02d:%02d", sign, seconds/3600, (seconds%3600)/60)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func esc(s string) string {
	return html.EscapeString(s)
}

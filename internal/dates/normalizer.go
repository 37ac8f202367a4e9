// Package dates converts site-local calendar dates to UTC instant ranges.
package dates

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"AdAttribution/internal/apperr"
	"AdAttribution/internal/config"
	"AdAttribution/internal/interfaces"
)

// Layout is the calendar date format used throughout the ledger.
const Layout = "2006-01-02"

// Normalizer maps (site, local date) pairs onto UTC instants.
type Normalizer struct {
	lookup interfaces.TimezoneLookup
}

func NewNormalizer(lookup interfaces.TimezoneLookup) *Normalizer {
	return &Normalizer{lookup: lookup}
}

// DayRange returns the UTC instants of 00:00:00 and 23:59:59 local time on date.
func (n *Normalizer) DayRange(siteID int64, date string) (time.Time, time.Time, error) {
	loc, err := n.lookup.Get(siteID)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	d, err := ParseDate(date)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	y, m, day := d.Date()
	start := time.Date(y, m, day, 0, 0, 0, 0, loc)
	end := time.Date(y, m, day, 23, 59, 59, 0, loc)
	return start.UTC(), end.UTC(), nil
}

// LocalDate converts a UTC instant into the site's calendar date.
func (n *Normalizer) LocalDate(siteID int64, t time.Time) (string, error) {
	loc, err := n.lookup.Get(siteID)
	if err != nil {
		return "", err
	}
	return t.In(loc).Format(Layout), nil
}

// ParseDate parses a YYYY-MM-DD date.
func ParseDate(s string) (time.Time, error) {
	d, err := time.Parse(Layout, strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return d, nil
}

// Between enumerates every date from a to b inclusive, walking backwards when b is before a.
func Between(a, b string) ([]string, error) {
	from, err := ParseDate(a)
	if err != nil {
		return nil, err
	}
	to, err := ParseDate(b)
	if err != nil {
		return nil, err
	}
	step := 1
	if to.Before(from) {
		step = -1
	}
	var out []string
	for d := from; ; d = d.AddDate(0, 0, step) {
		out = append(out, d.Format(Layout))
		if d.Equal(to) {
			break
		}
	}
	return out, nil
}

// ConfigTimezones serves TimezoneLookup from the `sites:` config section.
type ConfigTimezones struct {
	sites map[string]config.SiteConfig
}

func NewConfigTimezones(cfg *config.Config) *ConfigTimezones {
	return &ConfigTimezones{sites: cfg.Sites}
}

// Get loads the site's IANA zone; a missing or unknown zone is a ConfigurationError.
func (c *ConfigTimezones) Get(siteID int64) (*time.Location, error) {
	site, ok := c.sites[strconv.FormatInt(siteID, 10)]
	if !ok || strings.TrimSpace(site.Timezone) == "" {
		return nil, &apperr.ConfigurationError{SiteID: siteID, Reason: "no timezone configured"}
	}
	loc, err := time.LoadLocation(site.Timezone)
	if err != nil {
		return nil, &apperr.ConfigurationError{SiteID: siteID, Reason: fmt.Sprintf("invalid timezone %q: %v", site.Timezone, err)}
	}
	return loc, nil
}

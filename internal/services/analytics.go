package services

import (
	"context"
	"errors"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/SR0725/short-link-tracker-sub000/internal/models"
	"github.com/SR0725/short-link-tracker-sub000/internal/repository"
)

const (
	topN          = 10
	labelDirect   = "Direct"
	labelUnknown  = "Unknown"
	dateLayout    = "2006-01-02"
	hoursInDay    = 24
	MaxWindowDays = 366
)

// ClickReader is the storage the aggregator reads from.
type ClickReader interface {
	FindLinkByID(ctx context.Context, id string) (*models.Link, error)
	FindClicksSince(ctx context.Context, linkID string, since time.Time) ([]models.Click, error)
}

type Period struct {
	Days     int       `json:"days"`
	Timezone string    `json:"timezone"`
	Start    time.Time `json:"start"`
	End      time.Time `json:"end"`
}

type DayCount struct {
	Date   string `json:"date"`
	Clicks int    `json:"clicks"`
}

type HourCount struct {
	Hour   int `json:"hour"`
	Clicks int `json:"clicks"`
}

type ReferrerCount struct {
	Domain string `json:"domain"`
	Count  int    `json:"count"`
}

type DeviceCount struct {
	Device string `json:"device"`
	Count  int    `json:"count"`
}

type CountryCount struct {
	Country string `json:"country"`
	Count   int    `json:"count"`
}

type CityCount struct {
	City  string `json:"city"`
	Count int    `json:"count"`
}

type Report struct {
	Period              Period          `json:"period"`
	Timeline            []DayCount      `json:"timeline"`
	TopReferrers        []ReferrerCount `json:"topReferrers"`
	DeviceStats         []DeviceCount   `json:"deviceStats"`
	CountryStats        []CountryCount  `json:"countryStats"`
	CityStats           []CityCount     `json:"cityStats"`
	HourlyStats         []HourCount     `json:"hourlyStats"`
	TotalClicksInPeriod int             `json:"totalClicksInPeriod"`
}

// rankOrder selects how grouped buckets are ranked.
type rankOrder int

const (
	rankByCountDesc rankOrder = iota
	rankByLabelAsc
)

type bucket struct {
	label string
	count int
}

func (o rankOrder) less(a, b bucket) bool {
	switch o {
	case rankByLabelAsc:
		return a.label < b.label
	case rankByCountDesc:
		if a.count != b.count {
			return a.count > b.count
		}
		return a.label < b.label
	}
	panic("unhandled rank order")
}

// tally counts labels and returns them ranked, capped at limit when
// limit > 0.
type tally map[string]int

func (t tally) ranked(order rankOrder, limit int) []bucket {
	out := make([]bucket, 0, len(t))
	for label, n := range t {
		out = append(out, bucket{label: label, count: n})
	}
	sort.Slice(out, func(i, j int) bool { return order.less(out[i], out[j]) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out
}

type AnalyticsService struct {
	store ClickReader
	now   func() time.Time
}

func NewAnalyticsService(store ClickReader) *AnalyticsService {
	return &AnalyticsService{store: store, now: time.Now}
}

// ResolveLocation returns the named IANA zone, or UTC when the name is
// empty or unknown.
func ResolveLocation(name string) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Aggregate builds the report for the trailing windowDays calendar days
// (today included) in the given timezone. All metrics come from a single
// read of the click rows.
func (s *AnalyticsService) Aggregate(ctx context.Context, linkID string, windowDays int, timezone string) (*Report, error) {
	if windowDays < 1 || windowDays > MaxWindowDays {
		return nil, ErrInvalidWindow
	}
	if _, err := s.store.FindLinkByID(ctx, linkID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}

	loc := ResolveLocation(timezone)
	now := s.now().In(loc)
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	start := today.AddDate(0, 0, -(windowDays - 1))

	clicks, err := s.store.FindClicksSince(ctx, linkID, start)
	if err != nil {
		return nil, err
	}

	report := &Report{
		Period: Period{
			Days:     windowDays,
			Timezone: loc.String(),
			Start:    start,
			End:      now,
		},
		Timeline:            make([]DayCount, windowDays),
		HourlyStats:         make([]HourCount, hoursInDay),
		TotalClicksInPeriod: len(clicks),
	}

	dayIndex := make(map[string]int, windowDays)
	for i := 0; i < windowDays; i++ {
		date := start.AddDate(0, 0, i).Format(dateLayout)
		report.Timeline[i] = DayCount{Date: date}
		dayIndex[date] = i
	}
	for h := 0; h < hoursInDay; h++ {
		report.HourlyStats[h] = HourCount{Hour: h}
	}

	referrers, devices, countries, cities := tally{}, tally{}, tally{}, tally{}
	for _, c := range clicks {
		local := c.Timestamp.In(loc)

		i, ok := dayIndex[local.Format(dateLayout)]
		if !ok {
			// Rows stamped after "now" (clock skew) count towards today.
			i = windowDays - 1
		}
		report.Timeline[i].Clicks++
		report.HourlyStats[local.Hour()].Clicks++

		referrers[referrerDomain(c.Referrer)]++
		devices[deviceLabel(c.Device)]++
		countries[orUnknown(c.Country)]++
		cities[orUnknown(c.City)]++
	}

	for _, b := range referrers.ranked(rankByCountDesc, topN) {
		report.TopReferrers = append(report.TopReferrers, ReferrerCount{Domain: b.label, Count: b.count})
	}
	for _, b := range devices.ranked(rankByCountDesc, 0) {
		report.DeviceStats = append(report.DeviceStats, DeviceCount{Device: b.label, Count: b.count})
	}
	for _, b := range countries.ranked(rankByCountDesc, topN) {
		report.CountryStats = append(report.CountryStats, CountryCount{Country: b.label, Count: b.count})
	}
	for _, b := range cities.ranked(rankByCountDesc, topN) {
		report.CityStats = append(report.CityStats, CityCount{City: b.label, Count: b.count})
	}

	// Keep empty groupings as [] rather than null in JSON.
	if report.TopReferrers == nil {
		report.TopReferrers = []ReferrerCount{}
	}
	if report.DeviceStats == nil {
		report.DeviceStats = []DeviceCount{}
	}
	if report.CountryStats == nil {
		report.CountryStats = []CountryCount{}
	}
	if report.CityStats == nil {
		report.CityStats = []CityCount{}
	}

	return report, nil
}

func referrerDomain(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return labelDirect
	}
	u, err := url.Parse(raw)
	if err != nil || u.Hostname() == "" {
		return labelDirect
	}
	return strings.ToLower(u.Hostname())
}

func deviceLabel(d string) string {
	if d == "" {
		return models.DeviceUnknown
	}
	return d
}

func orUnknown(s *string) string {
	if s == nil || *s == "" {
		return labelUnknown
	}
	return *s
}

package extract

import (
	"net/http"
	"sort"
	"strings"
	"time"

	"geocrawl/internal/model"
)

// TemporalSignals mines the body text for years, relative time
// phrases, "as of" statements and staleness markers, and converts the
// resolved content dates into ages in days.
func TemporalSignals(text string, publishedDate, modifiedDate, httpLastModified string, now time.Time) model.TemporalSignals {
	result := model.TemporalSignals{
		YearsMentioned:      []int{},
		RelativeTimePhrases: []string{},
		AsOfStatements:      []string{},
		MonthYearReferences: []string{},
	}
	if httpLastModified != "" {
		result.HTTPLastModified = strPtr(httpLastModified)
		result.HTTPLastModifiedAgeDay = ageDays(httpLastModified, true, now)
	}
	if text == "" {
		return result
	}

	currentYear := now.Year()
	years := map[int]struct{}{}
	for _, m := range yearRE.FindAllString(text, -1) {
		y := 0
		for _, r := range m {
			y = y*10 + int(r-'0')
		}
		years[y] = struct{}{}
	}
	for y := range years {
		result.YearsMentioned = append(result.YearsMentioned, y)
	}
	sort.Ints(result.YearsMentioned)

	if len(result.YearsMentioned) > 0 {
		most := result.YearsMentioned[len(result.YearsMentioned)-1]
		oldest := result.YearsMentioned[0]
		result.MostRecentYear = &most
		result.OldestYear = &oldest
		_, result.HasCurrentYear = years[currentYear]
		_, result.HasLastYear = years[currentYear-1]
	}

	result.RelativeTimePhrases = dedupeStrings(relativeTimeRE.FindAllString(text, -1), 10)
	result.AsOfStatements = capStrings(asOfRE.FindAllString(text, -1), 5, 100)
	result.MonthYearReferences = dedupeStrings(monthYearRE.FindAllString(text, -1), 10)
	result.OutdatedSignalsCount = len(outdatedSignalRE.FindAllString(text, -1))

	if publishedDate != "" {
		result.ContentAgeDays = ageDays(publishedDate, false, now)
	}
	if modifiedDate != "" {
		result.LastUpdateAgeDays = ageDays(modifiedDate, false, now)
	}

	return result
}

// ageDays parses an ISO 8601 or HTTP date and returns whole days
// elapsed, clamped at zero. Unparseable dates return nil.
func ageDays(dateStr string, httpFormat bool, now time.Time) *int {
	var parsed time.Time
	var err error

	if httpFormat {
		parsed, err = http.ParseTime(dateStr)
	} else {
		parsed, err = parseISODate(dateStr)
	}
	if err != nil {
		return nil
	}

	days := int(now.Sub(parsed).Hours() / 24)
	if days < 0 {
		days = 0
	}
	return &days
}

var isoLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006-01",
	"2006",
}

func parseISODate(s string) (time.Time, error) {
	s = strings.TrimSpace(strings.Replace(s, "Z", "+00:00", 1))
	if strings.HasSuffix(s, "+00:00") {
		s = strings.TrimSuffix(s, "+00:00") + "Z"
	}
	var lastErr error
	for _, layout := range isoLayouts {
		t, err := time.Parse(layout, s)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}

func dedupeStrings(in []string, limit int) []string {
	seen := map[string]struct{}{}
	out := []string{}
	for _, s := range in {
		if len(out) >= limit {
			break
		}
		if _, dup := seen[s]; dup {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}

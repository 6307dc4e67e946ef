package memo

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/araddon/dateparse"
)

const dateLayout = "2006-01-02"

// Date is a calendar date. The zero value means "unknown".
type Date struct {
	t time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf returns the calendar date of t in t's own location.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) IsZero() bool {
	return d.t.IsZero()
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.t.Format(dateLayout)
}

func (d Date) Time() time.Time {
	return d.t
}

func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

func (d Date) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Date) UnmarshalText(b []byte) error {
	parsed, err := ParseCanonicalDate(string(b))
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ParseCanonicalDate parses the YYYY-MM-DD form produced by String. An empty
// string yields the zero Date.
func ParseCanonicalDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q", ErrDateParse, s)
	}
	return DateOf(t), nil
}

const monthNames = `january|february|march|april|may|june|july|august|september|october|november|december|` +
	`sept|jan|feb|mar|apr|jun|jul|aug|sep|oct|nov|dec`

var (
	reMonthNameDate = regexp.MustCompile(`(?i)\b(` + monthNames + `)\.?\s+(\d{1,2})(?:st|nd|rd|th)?\s*,?\s*(\d{4})\b`)
	reSlashDate     = regexp.MustCompile(`\b(\d{1,2})/(\d{1,2})/(\d{4})\b`)
	reISODate       = regexp.MustCompile(`\b\d{4}-\d{2}-\d{2}\b`)
)

// NormalizeDate finds the first date-shaped token in s and returns it as a
// calendar date. Numeric dates are read month first.
func NormalizeDate(s string) (Date, error) {
	token, ok := dateToken(s)
	if !ok {
		return Date{}, fmt.Errorf("%w: no date in %q", ErrDateParse, s)
	}

	t, err := dateparse.ParseIn(token, time.UTC, dateparse.PreferMonthFirst(true))
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q: %v", ErrDateParse, token, err)
	}

	return DateOf(t), nil
}

// dateToken returns the earliest date-shaped substring of s, rewritten into a
// form dateparse accepts without guessing ("Mar 3, 2025", "03/04/2025").
func dateToken(s string) (string, bool) {
	best := -1
	token := ""

	if loc := reMonthNameDate.FindStringSubmatchIndex(s); loc != nil {
		month := strings.ToLower(s[loc[2]:loc[3]])[:3]
		day := s[loc[4]:loc[5]]
		year := s[loc[6]:loc[7]]
		best = loc[0]
		token = fmt.Sprintf("%s%s %s, %s", strings.ToUpper(month[:1]), month[1:], day, year)
	}

	if loc := reSlashDate.FindStringSubmatchIndex(s); loc != nil && (best < 0 || loc[0] < best) {
		month, _ := strconv.Atoi(s[loc[2]:loc[3]])
		day, _ := strconv.Atoi(s[loc[4]:loc[5]])
		best = loc[0]
		token = fmt.Sprintf("%02d/%02d/%s", month, day, s[loc[6]:loc[7]])
	}

	if loc := reISODate.FindStringIndex(s); loc != nil && (best < 0 || loc[0] < best) {
		best = loc[0]
		token = s[loc[0]:loc[1]]
	}

	return token, best >= 0
}

package engine

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// Clock answers calendar questions about recurrence rules: does a rule
// fire on a given local date, and when does it fire next. A malformed
// rule is logged and treated as "never occurs"; one bad card must not
// break availability for the rest of the catalog.
type Clock struct {
	loc    *time.Location
	logger *log.Logger
}

// ruleAnchor is the DTSTART used when a rule string carries none. Noon
// UTC keeps the occurrence instant inside the local day window for every
// real-world offset (within ±12h of UTC).
var ruleAnchor = time.Date(2000, time.January, 3, 12, 0, 0, 0, time.UTC)

// NewClock creates a Clock evaluating local dates in loc. A nil loc
// falls back to time.Local, a nil logger to the default logger.
func NewClock(loc *time.Location, logger *log.Logger) *Clock {
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Clock{loc: loc, logger: logger}
}

// OccursOn reports whether the rule produces an occurrence on the
// calendar date of `date`, evaluated in the rule's timezone (or the
// clock's default). The local day is converted into a UTC window and the
// rule, which resolves in UTC, is asked for any occurrence inside it.
func (c *Clock) OccursOn(rule, tz string, date time.Time) bool {
	r, err := c.parse(rule)
	if err != nil {
		c.logger.Printf("[warn] recurrence rule %q: %v", rule, err)
		return false
	}

	loc := c.location(tz)
	y, m, d := date.In(loc).Date()
	start := time.Date(y, m, d, 0, 0, 0, 0, loc).UTC()
	end := time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), loc).UTC()

	return len(r.Between(start, end, true)) > 0
}

// NextOccurrence returns the first occurrence strictly after the given
// instant, or nil if the rule is malformed or produces none.
func (c *Clock) NextOccurrence(rule, tz string, after time.Time) *time.Time {
	r, err := c.parse(rule)
	if err != nil {
		c.logger.Printf("[warn] recurrence rule %q: %v", rule, err)
		return nil
	}
	next := r.After(after.UTC(), false)
	if next.IsZero() {
		return nil
	}
	return &next
}

// Describe renders a human-readable label for a rule. It is presentation
// only and fails open to a generic label on parse failure.
func (c *Clock) Describe(rule string) string {
	opt, err := rrule.StrToROption(strings.TrimSpace(rule))
	if err != nil {
		return "Scheduled"
	}
	switch opt.Freq {
	case rrule.DAILY:
		return "Every day"
	case rrule.WEEKLY:
		if len(opt.Byweekday) == 0 {
			return "Every week"
		}
		names := make([]string, 0, len(opt.Byweekday))
		for _, wd := range opt.Byweekday {
			names = append(names, weekdayName(wd))
		}
		return "Every week on " + strings.Join(names, ", ")
	case rrule.MONTHLY:
		if len(opt.Bymonthday) == 1 {
			switch opt.Bymonthday[0] {
			case 1:
				return "First day of the month"
			case -1:
				return "Last day of the month"
			}
		}
		if len(opt.Bymonthday) == 0 {
			return "Every month"
		}
		days := make([]string, 0, len(opt.Bymonthday))
		for _, d := range opt.Bymonthday {
			days = append(days, fmt.Sprintf("%d", d))
		}
		return "Every month on day " + strings.Join(days, ", ")
	default:
		return "Scheduled"
	}
}

func (c *Clock) parse(rule string) (*rrule.RRule, error) {
	rule = strings.TrimSpace(rule)
	if rule == "" {
		return nil, fmt.Errorf("empty rule")
	}
	opt, err := rrule.StrToROption(rule)
	if err != nil {
		return nil, fmt.Errorf("parse rule: %w", err)
	}
	if opt.Dtstart.IsZero() {
		opt.Dtstart = ruleAnchor
	}
	r, err := rrule.NewRRule(*opt)
	if err != nil {
		return nil, fmt.Errorf("build rule: %w", err)
	}
	return r, nil
}

func (c *Clock) location(tz string) *time.Location {
	if tz == "" {
		return c.loc
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		c.logger.Printf("[warn] unknown timezone %q, using default", tz)
		return c.loc
	}
	return loc
}

func weekdayName(wd rrule.Weekday) string {
	switch wd.String() {
	case "MO":
		return "Mon"
	case "TU":
		return "Tue"
	case "WE":
		return "Wed"
	case "TH":
		return "Thu"
	case "FR":
		return "Fri"
	case "SA":
		return "Sat"
	case "SU":
		return "Sun"
	default:
		return wd.String()
	}
}

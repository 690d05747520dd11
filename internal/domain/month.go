package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Month is a calendar month without a year (January = 1).
type Month int

const (
	January Month = iota + 1
	February
	March
	April
	May
	June
	July
	August
	September
	October
	November
	December
)

// MonthsPerYear is the fixed scenario horizon.
const MonthsPerYear = 12

var monthAbbrev = [MonthsPerYear]string{
	"Jan", "Feb", "Mar", "Apr", "May", "Jun",
	"Jul", "Aug", "Sep", "Oct", "Nov", "Dec",
}

var monthFull = [MonthsPerYear]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// AllMonths returns January through December.
func AllMonths() []Month {
	months := make([]Month, 0, MonthsPerYear)
	for m := January; m <= December; m++ {
		months = append(months, m)
	}
	return months
}

// Valid reports whether m is between January and December.
func (m Month) Valid() bool {
	return m >= January && m <= December
}

// Index returns the zero-based position of the month in the year.
func (m Month) Index() int {
	return int(m) - 1
}

// String returns the three letter month label ("Jan").
func (m Month) String() string {
	if !m.Valid() {
		return fmt.Sprintf("Month(%d)", int(m))
	}
	return monthAbbrev[m.Index()]
}

// FullName returns the long month label ("January").
func (m Month) FullName() string {
	if !m.Valid() {
		return m.String()
	}
	return monthFull[m.Index()]
}

// ParseMonth accepts abbreviations, full names (case-insensitive) and 1-12.
func ParseMonth(s string) (Month, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return 0, fmt.Errorf("empty month")
	}

	if n, err := strconv.Atoi(trimmed); err == nil {
		m := Month(n)
		if !m.Valid() {
			return 0, fmt.Errorf("month number %d out of range", n)
		}
		return m, nil
	}

	for i := 0; i < MonthsPerYear; i++ {
		if strings.EqualFold(trimmed, monthAbbrev[i]) || strings.EqualFold(trimmed, monthFull[i]) {
			return Month(i + 1), nil
		}
	}
	return 0, fmt.Errorf("unknown month %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Month) MarshalText() ([]byte, error) {
	if m == 0 {
		return []byte(""), nil
	}
	if !m.Valid() {
		return nil, fmt.Errorf("invalid month %d", int(m))
	}
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Month) UnmarshalText(text []byte) error {
	if len(strings.TrimSpace(string(text))) == 0 {
		*m = 0
		return nil
	}
	parsed, err := ParseMonth(string(text))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// MonthWindow is an inclusive start/end month range without years.
// When Start comes after End the window wraps across the year boundary.
// A zero Start means January and a zero End means December.
type MonthWindow struct {
	Start Month
	End   Month
}

// FullYear covers January through December.
var FullYear = MonthWindow{Start: January, End: December}

func (w MonthWindow) normalized() MonthWindow {
	if w.Start == 0 {
		w.Start = January
	}
	if w.End == 0 {
		w.End = December
	}
	return w
}

// Wraps reports whether the window crosses December into January.
func (w MonthWindow) Wraps() bool {
	n := w.normalized()
	return n.Start.Index() > n.End.Index()
}

// Contains reports whether m falls inside the window, honouring wrap.
func (w MonthWindow) Contains(m Month) bool {
	if !m.Valid() {
		return false
	}
	n := w.normalized()
	if n.Wraps() {
		return m.Index() >= n.Start.Index() || m.Index() <= n.End.Index()
	}
	return m.Index() >= n.Start.Index() && m.Index() <= n.End.Index()
}

// Months lists the window's months in chronological order starting at Start.
func (w MonthWindow) Months() []Month {
	n := w.normalized()
	months := make([]Month, 0, MonthsPerYear)
	m := n.Start
	for {
		months = append(months, m)
		if m == n.End {
			break
		}
		m = m%December + 1
	}
	return months
}

// Len returns the number of months covered.
func (w MonthWindow) Len() int {
	return len(w.Months())
}

func (w MonthWindow) String() string {
	n := w.normalized()
	return n.Start.String() + "-" + n.End.String()
}

// MonthYear identifies one column of the forecast grid.
type MonthYear struct {
	Year  int   `json:"year" yaml:"year"`
	Month Month `json:"month" yaml:"month"`
}

// NewMonthYear builds a MonthYear.
func NewMonthYear(year int, month Month) MonthYear {
	return MonthYear{Year: year, Month: month}
}

// String formats as "2025-03".
func (my MonthYear) String() string {
	return fmt.Sprintf("%04d-%02d", my.Year, int(my.Month))
}

// Label formats as "Mar 2025".
func (my MonthYear) Label() string {
	return fmt.Sprintf("%s %d", my.Month, my.Year)
}

// Before reports whether my is strictly earlier than other.
func (my MonthYear) Before(other MonthYear) bool {
	if my.Year != other.Year {
		return my.Year < other.Year
	}
	return my.Month < other.Month
}

// AddMonths shifts by n months (n may be negative).
func (my MonthYear) AddMonths(n int) MonthYear {
	total := my.Year*MonthsPerYear + my.Month.Index() + n
	year := total / MonthsPerYear
	idx := total % MonthsPerYear
	if idx < 0 {
		idx += MonthsPerYear
		year--
	}
	return MonthYear{Year: year, Month: Month(idx + 1)}
}

// ParseMonthYear accepts "2025-03", "2025-3" or "Mar 2025".
func ParseMonthYear(s string) (MonthYear, error) {
	trimmed := strings.TrimSpace(s)
	if parts := strings.SplitN(trimmed, "-", 2); len(parts) == 2 {
		year, err := strconv.Atoi(parts[0])
		if err != nil {
			return MonthYear{}, fmt.Errorf("invalid year in %q: %w", s, err)
		}
		month, err := ParseMonth(parts[1])
		if err != nil {
			return MonthYear{}, fmt.Errorf("invalid month in %q: %w", s, err)
		}
		return MonthYear{Year: year, Month: month}, nil
	}

	fields := strings.Fields(trimmed)
	if len(fields) == 2 {
		month, err := ParseMonth(fields[0])
		if err != nil {
			return MonthYear{}, fmt.Errorf("invalid month in %q: %w", s, err)
		}
		year, err := strconv.Atoi(fields[1])
		if err != nil {
			return MonthYear{}, fmt.Errorf("invalid year in %q: %w", s, err)
		}
		return MonthYear{Year: year, Month: month}, nil
	}

	return MonthYear{}, fmt.Errorf("invalid month-year %q, expected YYYY-MM", s)
}

package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMonth(t *testing.T) {
	tests := []struct {
		in      string
		want    Month
		wantErr bool
	}{
		{"Jan", January, false},
		{"december", December, false},
		{" SEP ", September, false},
		{"7", July, false},
		{"13", 0, true},
		{"", 0, true},
		{"Smarch", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseMonth(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMonthWindow_NonWrapping(t *testing.T) {
	w := MonthWindow{Start: March, End: June}

	assert.False(t, w.Wraps())
	assert.Equal(t, []Month{March, April, May, June}, w.Months())
	assert.True(t, w.Contains(March))
	assert.True(t, w.Contains(June))
	assert.False(t, w.Contains(February))
	assert.False(t, w.Contains(July))
}

func TestMonthWindow_Wrapping(t *testing.T) {
	w := MonthWindow{Start: November, End: February}

	assert.True(t, w.Wraps())
	assert.Equal(t, []Month{November, December, January, February}, w.Months())
	assert.Equal(t, "Nov-Feb", w.String())

	for _, m := range AllMonths() {
		inside := m == November || m == December || m == January || m == February
		assert.Equal(t, inside, w.Contains(m), "month %s", m)
	}
}

func TestMonthWindow_Defaults(t *testing.T) {
	var w MonthWindow
	assert.Equal(t, 12, w.Len())
	assert.False(t, w.Wraps())

	single := MonthWindow{Start: May, End: May}
	assert.Equal(t, []Month{May}, single.Months())
}

func TestMonthYear(t *testing.T) {
	my := NewMonthYear(2025, November)
	assert.Equal(t, "2025-11", my.String())
	assert.Equal(t, "Nov 2025", my.Label())

	assert.Equal(t, NewMonthYear(2026, February), my.AddMonths(3))
	assert.Equal(t, NewMonthYear(2024, December), NewMonthYear(2025, January).AddMonths(-1))
	assert.True(t, my.Before(NewMonthYear(2026, January)))
	assert.False(t, my.Before(my))
}

func TestParseMonthYear(t *testing.T) {
	got, err := ParseMonthYear("2025-03")
	require.NoError(t, err)
	assert.Equal(t, NewMonthYear(2025, March), got)

	got, err = ParseMonthYear("Mar 2025")
	require.NoError(t, err)
	assert.Equal(t, NewMonthYear(2025, March), got)

	_, err = ParseMonthYear("2025")
	assert.Error(t, err)
	_, err = ParseMonthYear("2025-13")
	assert.Error(t, err)
}

func TestMonthText(t *testing.T) {
	text, err := December.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "Dec", string(text))

	var m Month
	require.NoError(t, m.UnmarshalText([]byte("april")))
	assert.Equal(t, April, m)

	_, err = Month(14).MarshalText()
	assert.Error(t, err)
}

package calendar

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name   string
		raw    RawDate
		want   Date
		wantOK bool
	}{
		{name: "nil", raw: nil},
		{name: "iso string", raw: StringDate("2024-03-15"), want: NewDate(2024, time.March, 15), wantOK: true},
		{name: "leap day string", raw: StringDate("2024-02-29"), want: NewDate(2024, time.February, 29), wantOK: true},
		{name: "impossible day", raw: StringDate("2023-02-29")},
		{name: "month thirteen", raw: StringDate("2024-13-01")},
		{name: "single digit parts", raw: StringDate("2024-3-5")},
		{name: "timestamp string", raw: StringDate("2024-03-15T10:00:00Z")},
		{name: "empty string", raw: StringDate("")},
		{name: "garbage", raw: StringDate("tomorrow")},
		{
			name:   "native drops time of day",
			raw:    NativeDate{time.Date(2024, time.March, 15, 23, 59, 0, 0, time.UTC)},
			want:   NewDate(2024, time.March, 15),
			wantOK: true,
		},
		{
			name:   "native uses its own location",
			raw:    NativeDate{time.Date(2024, time.March, 15, 0, 30, 0, 0, time.FixedZone("BRT", -3*3600))},
			want:   NewDate(2024, time.March, 15),
			wantOK: true,
		},
		{name: "zero native", raw: NativeDate{}},
		{name: "date value", raw: NewDate(2024, time.December, 31), want: NewDate(2024, time.December, 31), wantOK: true},
		{name: "zero date value", raw: Date{}},
		{name: "invalid date value", raw: NewDate(2024, time.April, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(tt.raw)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSameDay_StringAndNativeAgreeInAnyZone(t *testing.T) {
	saved := time.Local
	t.Cleanup(func() { time.Local = saved })

	zones := []*time.Location{
		time.UTC,
		time.FixedZone("UTC-3", -3*3600),
		time.FixedZone("UTC-11", -11*3600),
		time.FixedZone("UTC+14", 14*3600),
	}
	days := []Date{
		NewDate(2024, time.January, 1),
		NewDate(2024, time.February, 29),
		NewDate(2023, time.December, 31),
		NewDate(1999, time.July, 4),
	}

	for _, loc := range zones {
		time.Local = loc
		for _, d := range days {
			native := NativeDate{time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.Local)}
			assert.True(t, SameDay(StringDate(d.String()), native), "%s in %s", d, loc)
			assert.True(t, SameDay(native, StringDate(d.String())), "%s in %s", d, loc)
		}
	}
}

func TestSameDay_AbsentNeverMatches(t *testing.T) {
	values := []RawDate{
		StringDate("2024-03-15"),
		NativeDate{time.Now()},
		NewDate(2024, time.March, 15),
		StringDate("bogus"),
		nil,
	}
	for _, v := range values {
		assert.False(t, SameDay(v, nil))
		assert.False(t, SameDay(nil, v))
	}
	assert.False(t, SameDay(StringDate("bogus"), StringDate("bogus")))
}

func TestSameDay_ComparesAllComponents(t *testing.T) {
	base := StringDate("2024-03-15")
	assert.True(t, SameDay(base, NewDate(2024, time.March, 15)))
	assert.False(t, SameDay(base, StringDate("2024-03-16")))
	assert.False(t, SameDay(base, StringDate("2024-04-15")))
	assert.False(t, SameDay(base, StringDate("2023-03-15")))
}

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-11-30")
	require.NoError(t, err)
	assert.Equal(t, NewDate(2025, time.November, 30), d)
	assert.Equal(t, "2025-11-30", d.String())

	_, err = ParseDate("30.11.2025")
	assert.Error(t, err)
}

func TestDate_Ordering(t *testing.T) {
	a := NewDate(2024, time.March, 15)
	b := NewDate(2024, time.March, 16)
	c := NewDate(2025, time.January, 1)

	assert.True(t, a.Before(b))
	assert.True(t, b.Before(c))
	assert.True(t, c.After(a))
	assert.False(t, a.Before(a))
	assert.True(t, a.Equal(NewDate(2024, time.March, 15)))
}

func TestDate_AddDays(t *testing.T) {
	assert.Equal(t, NewDate(2024, time.March, 1), NewDate(2024, time.February, 29).AddDays(1))
	assert.Equal(t, NewDate(2023, time.December, 31), NewDate(2024, time.January, 1).AddDays(-1))
	assert.Equal(t, NewDate(2024, time.March, 15), NewDate(2024, time.March, 15).AddDays(0))
}

func TestIsPast(t *testing.T) {
	today := NewDate(2024, time.March, 1)

	assert.False(t, IsPast(today, today))
	assert.True(t, IsPast(today.AddDays(-1), today))
	assert.False(t, IsPast(today.AddDays(1), today))
	assert.True(t, IsPast(NewDate(2023, time.December, 31), today))
}

func TestIsWeekend(t *testing.T) {
	tests := []struct {
		day  Date
		want bool
	}{
		{NewDate(2024, time.March, 16), true},  // Saturday
		{NewDate(2024, time.March, 17), true},  // Sunday
		{NewDate(2024, time.March, 18), false}, // Monday
		{NewDate(2024, time.March, 15), false}, // Friday
		{NewDate(1900, time.January, 1), false},
		{NewDate(2000, time.January, 1), true},
	}
	for _, tt := range tests {
		t.Run(tt.day.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, IsWeekend(tt.day))
		})
	}
}

func TestDate_Time(t *testing.T) {
	loc := time.FixedZone("UTC-3", -3*3600)
	got := NewDate(2024, time.March, 15).Time(loc)
	assert.Equal(t, time.Date(2024, time.March, 15, 0, 0, 0, 0, loc), got)
	assert.Equal(t, NewDate(2024, time.March, 15), FromTime(got))
}

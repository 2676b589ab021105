package recur

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daylog/internal/model"
)

func d(t *testing.T, s string) time.Time {
	t.Helper()
	v, err := model.ParseDate(s)
	require.NoError(t, err)
	return v
}

func formatted(dates []time.Time) []string {
	out := make([]string, 0, len(dates))
	for _, v := range dates {
		out = append(out, model.FormatDate(v))
	}
	return out
}

func TestExpand(t *testing.T) {
	tests := []struct {
		name  string
		rule  string
		start string
		until string
		want  []string
	}{
		{
			name:  "rrule daily count",
			rule:  "FREQ=DAILY;COUNT=3",
			start: "2024-01-30",
			until: "2024-12-31",
			want:  []string{"2024-01-30", "2024-01-31", "2024-02-01"},
		},
		{
			name:  "rrule weekly byday until is inclusive",
			rule:  "FREQ=WEEKLY;BYDAY=MO,WE",
			start: "2024-01-01",
			until: "2024-01-10",
			want:  []string{"2024-01-01", "2024-01-03", "2024-01-08", "2024-01-10"},
		},
		{
			name:  "rrule prefix and lower case",
			rule:  "rrule:freq=monthly;count=2",
			start: "2024-01-31",
			until: "2024-12-31",
			want:  []string{"2024-01-31", "2024-03-31"},
		},
		{
			name:  "rrule sub-daily collapses to days",
			rule:  "FREQ=HOURLY;INTERVAL=12",
			start: "2024-01-01",
			until: "2024-01-02",
			want:  []string{"2024-01-01", "2024-01-02"},
		},
		{
			name:  "cron descriptor",
			rule:  "@weekly",
			start: "2024-01-01",
			until: "2024-01-21",
			want:  []string{"2024-01-07", "2024-01-14", "2024-01-21"},
		},
		{
			name:  "cron includes start day at midnight",
			rule:  "0 0 1 * *",
			start: "2024-01-01",
			until: "2024-03-31",
			want:  []string{"2024-01-01", "2024-02-01", "2024-03-01"},
		},
		{
			name:  "cron several firings per day",
			rule:  "0 */6 * * *",
			start: "2024-01-01",
			until: "2024-01-03",
			want:  []string{"2024-01-01", "2024-01-02", "2024-01-03"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			res, err := Expand(tc.rule, Options{Start: d(t, tc.start), Until: d(t, tc.until)})
			require.NoError(t, err)
			assert.Equal(t, tc.want, formatted(res.Dates))
			assert.False(t, res.Truncated)
		})
	}
}

func TestExpand_Cap(t *testing.T) {
	res, err := Expand("FREQ=DAILY", Options{
		Start:          d(t, "2024-01-01"),
		Until:          d(t, "2025-01-01"),
		MaxOccurrences: 5,
	})
	require.NoError(t, err)
	assert.Len(t, res.Dates, 5)
	assert.True(t, res.Truncated)

	res, err = Expand("FREQ=DAILY;COUNT=5", Options{
		Start:          d(t, "2024-01-01"),
		Until:          d(t, "2025-01-01"),
		MaxOccurrences: 5,
	})
	require.NoError(t, err)
	assert.Len(t, res.Dates, 5)
	assert.False(t, res.Truncated)

	res, err = Expand("@daily", Options{
		Start:          d(t, "2024-01-01"),
		Until:          d(t, "2025-01-01"),
		MaxOccurrences: 3,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-01-01", "2024-01-02", "2024-01-03"}, formatted(res.Dates))
	assert.True(t, res.Truncated)
}

func TestExpand_Errors(t *testing.T) {
	start := d(t, "2024-01-10")

	_, err := Expand("  ", Options{Start: start, Until: start})
	assert.Error(t, err)

	_, err = Expand("FREQ=SOMETIMES", Options{Start: start, Until: start})
	assert.Error(t, err)

	_, err = Expand("not a cron", Options{Start: start, Until: start})
	assert.Error(t, err)

	_, err = Expand("@daily", Options{Start: start, Until: d(t, "2024-01-09")})
	assert.Error(t, err)
}

func TestIsRRule(t *testing.T) {
	assert.True(t, IsRRule("FREQ=DAILY"))
	assert.True(t, IsRRule("RRULE:FREQ=WEEKLY;COUNT=2"))
	assert.True(t, IsRRule("interval=2;freq=daily"))
	assert.False(t, IsRRule("@monthly"))
	assert.False(t, IsRRule("0 9 * * MON"))
}

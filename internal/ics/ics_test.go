package ics

import (
	"bytes"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"daylog/internal/model"
)

func ev(t *testing.T, date, description, category string) model.Event {
	t.Helper()
	d, err := model.ParseDate(date)
	require.NoError(t, err)
	e, err := model.New(d, description, category)
	require.NoError(t, err)
	return e
}

func lines(events []model.Event) []string {
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.String())
	}
	return out
}

func calendar(vevents ...string) []byte {
	var b strings.Builder
	b.WriteString("BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:-//test//test//EN\r\n")
	for _, v := range vevents {
		b.WriteString("BEGIN:VEVENT\r\n")
		b.WriteString(strings.ReplaceAll(strings.TrimSpace(v), "\n", "\r\n"))
		b.WriteString("\r\nEND:VEVENT\r\n")
	}
	b.WriteString("END:VCALENDAR\r\n")
	return []byte(b.String())
}

func TestEncode_ParseRoundTrip(t *testing.T) {
	events := []model.Event{
		ev(t, "2024-01-01", "New year", "home"),
		ev(t, "2024-02-29", "Leap day, finally; done", "misc"),
		ev(t, "2024-03-10", "No category", ""),
		ev(t, "2024-03-10", "No category", ""),
	}

	var buf bytes.Buffer
	err := Encode(&buf, slices.Values(events), ExportOptions{
		ProductID: "-//daylog//test//EN",
		Now:       time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, "PRODID:-//daylog//test//EN")
	assert.Contains(t, out, "METHOD:PUBLISH")
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240229")
	assert.Contains(t, out, "DTEND;VALUE=DATE:20240301")
	assert.Contains(t, out, "DTSTAMP:20240501T120000Z")
	assert.Equal(t, 4, strings.Count(out, "BEGIN:VEVENT"))

	back, err := Parse(buf.Bytes(), ImportOptions{Location: time.UTC})
	require.NoError(t, err)
	assert.Equal(t, lines(events), lines(back))
}

func TestEncode_StableDistinctUIDs(t *testing.T) {
	events := []model.Event{
		ev(t, "2024-01-01", "Same", "x"),
		ev(t, "2024-01-01", "Same", "x"),
	}
	render := func() string {
		var buf bytes.Buffer
		require.NoError(t, Encode(&buf, slices.Values(events), ExportOptions{Now: time.Unix(0, 0)}))
		return buf.String()
	}

	first := render()
	assert.Equal(t, first, render())

	var uids []string
	for _, l := range strings.Split(first, "\r\n") {
		if strings.HasPrefix(l, "UID:") {
			uids = append(uids, l)
		}
	}
	require.Len(t, uids, 2)
	assert.NotEqual(t, uids[0], uids[1])
}

func TestEncode_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, slices.Values([]model.Event(nil)), ExportOptions{}))
	assert.Contains(t, buf.String(), "BEGIN:VCALENDAR")
	assert.NotContains(t, buf.String(), "BEGIN:VEVENT")
}

func TestParse(t *testing.T) {
	tests := []struct {
		name string
		body []byte
		opts ImportOptions
		want []string
	}{
		{
			name: "timed event uses location day",
			body: calendar(`
UID:a
DTSTART:20240101T230000Z
SUMMARY:Late call`),
			opts: ImportOptions{Location: time.FixedZone("UTC+2", 2*60*60)},
			want: []string{"2024-01-02: Late call ()"},
		},
		{
			name: "all day keeps its day",
			body: calendar(`
UID:b
DTSTART;VALUE=DATE:20240115
SUMMARY:Gym
CATEGORIES:sport`),
			want: []string{"2024-01-15: Gym (sport)"},
		},
		{
			name: "description fills missing summary",
			body: calendar(`
UID:c
DTSTART;VALUE=DATE:20240115
DESCRIPTION:Only a description`),
			want: []string{"2024-01-15: Only a description ()"},
		},
		{
			name: "category override",
			body: calendar(`
UID:d
DTSTART;VALUE=DATE:20240115
SUMMARY:Gym
CATEGORIES:sport`),
			opts: ImportOptions{Category: "imported"},
			want: []string{"2024-01-15: Gym (imported)"},
		},
		{
			name: "rrule with exdate",
			body: calendar(`
UID:e
DTSTART;VALUE=DATE:20240101
RRULE:FREQ=DAILY;COUNT=4
EXDATE;VALUE=DATE:20240102,20240103
SUMMARY:Standup`),
			want: []string{"2024-01-01: Standup ()", "2024-01-04: Standup ()"},
		},
		{
			name: "recurrence id replaces base occurrence",
			body: calendar(`
UID:f
DTSTART;VALUE=DATE:20240101
RRULE:FREQ=WEEKLY;COUNT=3
SUMMARY:Review`, `
UID:f
RECURRENCE-ID;VALUE=DATE:20240108
DTSTART;VALUE=DATE:20240109
SUMMARY:Review (moved)`),
			want: []string{
				"2024-01-01: Review ()",
				"2024-01-15: Review ()",
				"2024-01-09: Review (moved) ()",
			},
		},
		{
			name: "horizon bounds open rule",
			body: calendar(`
UID:g
DTSTART;VALUE=DATE:20240101
RRULE:FREQ=DAILY
SUMMARY:Daily`),
			opts: ImportOptions{HorizonDays: 2},
			want: []string{"2024-01-01: Daily ()", "2024-01-02: Daily ()", "2024-01-03: Daily ()"},
		},
		{
			name: "broken vevents are skipped",
			body: calendar(`
UID:h
SUMMARY:No start`, `
UID:i
DTSTART;VALUE=DATE:20240101
SUMMARY:`, `
UID:j
DTSTART;VALUE=DATE:20240101
RRULE:FREQ=NEVER
SUMMARY:Bad rule`, `
UID:k
DTSTART;VALUE=DATE:20240105
SUMMARY:Kept`),
			want: []string{"2024-01-05: Kept ()"},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if tc.opts.Location == nil {
				tc.opts.Location = time.UTC
			}
			got, err := Parse(tc.body, tc.opts)
			require.NoError(t, err)
			assert.Equal(t, tc.want, lines(got))
		})
	}
}

func TestParse_MaxOccurrences(t *testing.T) {
	body := calendar(`
UID:a
DTSTART;VALUE=DATE:20240101
RRULE:FREQ=DAILY
SUMMARY:Daily`)

	got, err := Parse(body, ImportOptions{Location: time.UTC, MaxOccurrences: 10})
	require.NoError(t, err)
	assert.Len(t, got, 10)
}

func TestParse_Errors(t *testing.T) {
	_, err := Parse(nil, ImportOptions{})
	assert.Error(t, err)

	_, err = Parse([]byte("BEGIN:VTODO\r\nEND:VTODO\r\n"), ImportOptions{})
	assert.Error(t, err)
}

func TestICSDay(t *testing.T) {
	helsinki, err := time.LoadLocation("Europe/Helsinki")
	require.NoError(t, err)

	tests := []struct {
		name   string
		value  string
		params map[string][]string
		loc    *time.Location
		want   string
	}{
		{"date only", "20240301", nil, helsinki, "2024-03-01"},
		{"utc converted", "20240301T230000Z", nil, helsinki, "2024-03-02"},
		{"floating in loc", "20240301T230000", nil, time.UTC, "2024-03-01"},
		{"tzid converted", "20240302T000500", map[string][]string{"TZID": {"Europe/Helsinki"}}, time.UTC, "2024-03-01"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			d, err := icsDay(tc.value, tc.params, tc.loc)
			require.NoError(t, err)
			assert.Equal(t, tc.want, model.FormatDate(d))
		})
	}

	_, err = icsDay(" ", nil, time.UTC)
	assert.Error(t, err)
}

package ics

import (
	"crypto/sha256"
	"encoding/hex"
	"io"
	"iter"
	"strconv"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "daylog/internal/log"
	"daylog/internal/model"
)

// ExportOptions controls calendar serialization.
type ExportOptions struct {
	// ProductID is written as PRODID. Empty keeps the library default.
	ProductID string
	// Now stamps every VEVENT (DTSTAMP). Zero means time.Now.
	Now time.Time
}

// Encode writes events as a PUBLISH calendar of all-day VEVENTs.
// UIDs are derived from the event content, so exporting the same log twice
// yields the same UIDs.
func Encode(w io.Writer, events iter.Seq[model.Event], opts ExportOptions) error {
	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	cal := ical.NewCalendarFor("daylog")
	if opts.ProductID != "" {
		cal.SetProductId(opts.ProductID)
	}
	cal.SetMethod(ical.MethodPublish)

	seen := make(map[string]int)
	n := 0
	for e := range events {
		base := eventUID(e)
		uid := base
		if k := seen[base]; k > 0 {
			uid = base + "-" + strconv.Itoa(k)
		}
		seen[base]++

		ve := cal.AddEvent(uid + "@daylog")
		ve.SetDtStampTime(now)
		ve.SetAllDayStartAt(e.Date())
		ve.SetAllDayEndAt(e.Date().AddDate(0, 0, 1))
		ve.SetSummary(e.Description())
		if e.Category() != "" {
			ve.AddCategory(e.Category())
		}
		n++
	}

	if err := cal.SerializeTo(w); err != nil {
		return err
	}
	appLog.Debug("ics export completed", "events", n)
	return nil
}

func eventUID(e model.Event) string {
	sum := sha256.Sum256([]byte(model.FormatDate(e.Date()) + "|" + e.Description() + "|" + e.Category()))
	return hex.EncodeToString(sum[:8])
}

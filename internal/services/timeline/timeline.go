// Package timeline derives a shipment's timeline.
//
// BuildCreation stores entries newest first. OrderForDisplay re-sorts them by a fixed
// status priority that ignores event time.
package timeline

import (
	"sort"
	"strings"
	"time"

	"github.com/BearBump/ShipTrack/internal/models"
)

// DisplayLayout matches the en-US "long date, 2-digit time" rendering the front-end expects.
const DisplayLayout = "January 2, 2006 at 03:04 PM"

// DefaultRecheckInterval is how often a pending transit entry is re-evaluated.
const DefaultRecheckInterval = 30 * time.Second

const unknownPriority = 999

var displayPriority = map[string]int{
	models.StatusCollectedFromPostnet: 1,
	models.StatusInTransit:            2,
	models.StatusOutForDelivery:       3,
	models.StatusPickedUp:             4,
	models.StatusDelivered:            5,
}

var milestones = []struct {
	status      string
	description string
	at          func(m models.Milestones) *time.Time
}{
	{models.StatusCollectedFromPostnet, "Package collected from Postnet", func(m models.Milestones) *time.Time { return m.CollectedFromPostnet }},
	{models.StatusOutForDelivery, "Package is out for delivery", func(m models.Milestones) *time.Time { return m.OutForDelivery }},
	{models.StatusPickedUp, "Package picked up by receiver", func(m models.Milestones) *time.Time { return m.PickedUp }},
}

// BuildCreation returns the timeline stored with a new shipment: the current status plus
// one entry per supplied milestone, most recent first. Equal timestamps keep append order.
func BuildCreation(status string, statusTime time.Time, m models.Milestones, loc *time.Location) []models.TimelineEntry {
	out := make([]models.TimelineEntry, 0, 1+len(milestones))
	out = append(out, newEntry(status, Describe(status), statusTime, loc))

	for _, ms := range milestones {
		at := ms.at(m)
		if at == nil {
			continue
		}
		out = append(out, newEntry(ms.status, ms.description, *at, loc))
	}

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Timestamp > out[j].Timestamp
	})
	return out
}

// OrderForDisplay sorts a copy of entries by display priority. Unknown statuses go last,
// in their original relative order.
func OrderForDisplay(entries []models.TimelineEntry) []models.TimelineEntry {
	out := append([]models.TimelineEntry(nil), entries...)
	sort.SliceStable(out, func(i, j int) bool {
		return Priority(out[i].Status) < Priority(out[j].Status)
	})
	return out
}

func Priority(status string) int {
	if p, ok := displayPriority[status]; ok {
		return p
	}
	return unknownPriority
}

// Render marks entries whose time has come as completed. Only the first entry of an
// already ordered slice can be active.
func Render(ordered []models.TimelineEntry, now time.Time) []models.DisplayEntry {
	nowMs := now.UnixMilli()
	out := make([]models.DisplayEntry, 0, len(ordered))
	for i, e := range ordered {
		completed := nowMs >= e.Timestamp
		out = append(out, models.DisplayEntry{
			TimelineEntry: e,
			Completed:     completed,
			Active:        i == 0 && completed,
		})
	}
	return out
}

// NeedsRecheck reports whether some transit entry is still in the future.
func NeedsRecheck(entries []models.TimelineEntry, now time.Time) bool {
	nowMs := now.UnixMilli()
	for _, e := range entries {
		if strings.Contains(strings.ToLower(e.Status), "transit") && e.Timestamp > nowMs {
			return true
		}
	}
	return false
}

func FormatTime(t time.Time, loc *time.Location) string {
	if loc != nil {
		t = t.In(loc)
	}
	return t.Format(DisplayLayout)
}

func newEntry(status, description string, at time.Time, loc *time.Location) models.TimelineEntry {
	return models.TimelineEntry{
		Time:        FormatTime(at, loc),
		Status:      status,
		Description: description,
		Timestamp:   at.UnixMilli(),
	}
}

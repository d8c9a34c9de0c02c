package timeline

import (
	"fmt"
	"math"
	"time"

	"github.com/BearBump/ShipTrack/internal/models"
)

const fallbackDescription = "Package status updated"

var descriptions = map[string]string{
	models.StatusPickedUp:             "Package picked up by receiver",
	models.StatusInTransit:            "Package is on the way to destination",
	models.StatusOutForDelivery:       "Package is out for delivery",
	models.StatusCollectedFromPostnet: "Package collected from Postnet",
	models.StatusDelivered:            "Package has been delivered successfully",
}

func Describe(status string) string {
	if d, ok := descriptions[status]; ok {
		return d
	}
	return fallbackDescription
}

// EstimateTransitTime buckets the whole days between now and the arrival date.
// Direction does not matter: a past arrival is measured the same way.
func EstimateTransitTime(arrival, now time.Time) string {
	d := arrival.Sub(now)
	if d < 0 {
		d = -d
	}
	days := int(math.Ceil(float64(d) / float64(24*time.Hour)))

	switch {
	case days <= 1:
		return "1 Business Day"
	case days <= 3:
		return "2-3 Business Days"
	case days <= 5:
		return "3-5 Business Days"
	default:
		return fmt.Sprintf("%d Business Days", days)
	}
}

// Synthesize builds a display timeline for a record stored without one. Entries carry
// no timestamp, so they always render as completed.
func Synthesize(status string, now time.Time, loc *time.Location) []models.TimelineEntry {
	if loc != nil {
		now = now.In(loc)
	}
	out := []models.TimelineEntry{{
		Time:        now.Format("January 2, 2006") + " - " + now.Format("03:04 PM"),
		Status:      status,
		Description: Describe(status),
	}}
	if status == models.StatusPickedUp {
		return out
	}

	yesterday := now.AddDate(0, 0, -1)
	twoDaysAgo := now.AddDate(0, 0, -2)
	return append(out,
		models.TimelineEntry{
			Time:        yesterday.Format("January 2, 2006") + " - 8:00 AM",
			Status:      models.StatusOutForDelivery,
			Description: Describe(models.StatusOutForDelivery),
		},
		models.TimelineEntry{
			Time:        twoDaysAgo.Format("January 2, 2006") + " - 6:45 PM",
			Status:      models.StatusPickedUp,
			Description: Describe(models.StatusPickedUp),
		},
	)
}

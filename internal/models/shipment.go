package models

import "time"

// Канонические статусы посылки. Переходы между ними не проверяются.
const (
	StatusPickedUp             = "Picked Up"
	StatusInTransit            = "In Transit"
	StatusOutForDelivery       = "Out for Delivery"
	StatusCollectedFromPostnet = "Collected from Postnet"
	StatusDelivered            = "Delivered"
)

type Shipment struct {
	TrackingNumber string `json:"trackingNumber"`
	Contents       string `json:"contents"`
	Origin         string `json:"origin"`
	Destination    string `json:"destination"`

	Status     string    `json:"status"`
	StatusTime time.Time `json:"statusTime"`

	CollectedFromPostnetTime *time.Time `json:"collectedFromPostnetTime"`
	OutForDeliveryTime       *time.Time `json:"outForDeliveryTime"`
	PickedUpTime             *time.Time `json:"pickedUpTime"`

	EstimatedArrival *time.Time `json:"estimatedArrival"`
	TransitTime      string     `json:"transitTime"`
	CreatedAt        time.Time  `json:"createdAt"`

	Timeline []TimelineEntry `json:"timeline"`
}

// Milestones returns the optional checkpoint times of the shipment.
func (s *Shipment) Milestones() Milestones {
	return Milestones{
		CollectedFromPostnet: s.CollectedFromPostnetTime,
		OutForDelivery:       s.OutForDeliveryTime,
		PickedUp:             s.PickedUpTime,
	}
}

// Clone returns a deep copy, so stores never share memory with callers.
func (s *Shipment) Clone() *Shipment {
	if s == nil {
		return nil
	}
	out := *s
	out.CollectedFromPostnetTime = cloneTime(s.CollectedFromPostnetTime)
	out.OutForDeliveryTime = cloneTime(s.OutForDeliveryTime)
	out.PickedUpTime = cloneTime(s.PickedUpTime)
	out.EstimatedArrival = cloneTime(s.EstimatedArrival)
	if s.Timeline != nil {
		out.Timeline = append([]TimelineEntry(nil), s.Timeline...)
	}
	return &out
}

type Milestones struct {
	CollectedFromPostnet *time.Time
	OutForDelivery       *time.Time
	PickedUp             *time.Time
}

type TimelineEntry struct {
	Time        string `json:"time"`
	Status      string `json:"status"`
	Description string `json:"description"`
	// Unix-миллисекунды; 0 означает "время не задано".
	Timestamp int64 `json:"timestamp,omitempty"`
}

type DisplayEntry struct {
	TimelineEntry
	Completed bool `json:"completed"`
	Active    bool `json:"active"`
}

type ShipmentStats struct {
	TotalShipments  int `json:"totalShipments"`
	ActiveShipments int `json:"activeShipments"`
	DeliveredToday  int `json:"deliveredToday"`
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

package messages

import (
	"time"

	"github.com/BearBump/ShipTrack/internal/models"
)

const (
	ActionCreated = "created"
	ActionUpdated = "updated"
	ActionDeleted = "deleted"
	ActionCleared = "cleared"
)

// ShipmentChanged is published after every successful store mutation.
type ShipmentChanged struct {
	Action         string           `json:"action"`
	TrackingNumber string           `json:"tracking_number,omitempty"`
	Shipment       *models.Shipment `json:"shipment,omitempty"`
	Removed        int              `json:"removed,omitempty"`
	At             time.Time        `json:"at"`
}

// ShipmentStatus asks the service to shallow-merge Fields into a shipment,
// exactly like PUT /api/shipments/{trackingNumber}.
type ShipmentStatus struct {
	TrackingNumber string       `json:"tracking_number"`
	Fields         models.Patch `json:"fields"`
}

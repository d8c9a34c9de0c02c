package models

import "github.com/pkg/errors"

var (
	ErrShipmentNotFound = errors.New("shipment not found")
	ErrValidation       = errors.New("validation failed")
	ErrInvalidPatch     = errors.New("invalid shipment fields")
)

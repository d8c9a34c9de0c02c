package models

import (
	"encoding/json"

	"github.com/pkg/errors"
)

// Patch is a set of top-level shipment fields as they arrived in a request body.
// Supplied keys replace the stored ones (explicit null included), the rest is kept.
type Patch map[string]json.RawMessage

// ApplyPatch shallow-merges p over s and returns the merged copy. s is not modified.
// Keys that are not Shipment fields are ignored.
func ApplyPatch(s *Shipment, p Patch) (*Shipment, error) {
	base, err := json.Marshal(s)
	if err != nil {
		return nil, errors.Wrap(err, "marshal shipment")
	}
	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, errors.Wrap(err, "unmarshal shipment fields")
	}
	for k, v := range p {
		fields[k] = v
	}
	merged, err := json.Marshal(fields)
	if err != nil {
		return nil, errors.Wrap(err, "marshal merged fields")
	}

	var out Shipment
	if err := json.Unmarshal(merged, &out); err != nil {
		return nil, errors.Wrap(ErrInvalidPatch, err.Error())
	}
	return &out, nil
}

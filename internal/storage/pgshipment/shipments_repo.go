package pgshipment

import (
	"context"
	"encoding/json"

	"github.com/BearBump/ShipTrack/internal/models"
	"github.com/jackc/pgx/v5"
	"github.com/pkg/errors"
)

func (s *Storage) List(ctx context.Context) ([]*models.Shipment, error) {
	rows, err := s.db.Query(ctx, `SELECT doc FROM shipments ORDER BY id`)
	if err != nil {
		return nil, errors.Wrap(err, "select shipments")
	}
	defer rows.Close()

	out := []*models.Shipment{}
	for rows.Next() {
		var doc []byte
		if err := rows.Scan(&doc); err != nil {
			return nil, errors.Wrap(err, "scan shipment")
		}
		sh, err := decode(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, sh)
	}
	if rows.Err() != nil {
		return nil, errors.Wrap(rows.Err(), "rows")
	}
	return out, nil
}

func (s *Storage) Get(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	var doc []byte
	err := s.db.QueryRow(ctx, `
SELECT doc FROM shipments
WHERE tracking_number = $1
ORDER BY id
LIMIT 1
`, trackingNumber).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrShipmentNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment")
	}
	return decode(doc)
}

func (s *Storage) Create(ctx context.Context, sh *models.Shipment) (*models.Shipment, error) {
	doc, err := json.Marshal(sh)
	if err != nil {
		return nil, errors.Wrap(err, "marshal shipment")
	}

	var stored []byte
	err = s.db.QueryRow(ctx, `
INSERT INTO shipments (tracking_number, doc)
VALUES ($1, $2)
RETURNING doc
`, sh.TrackingNumber, doc).Scan(&stored)
	if err != nil {
		return nil, errors.Wrap(err, "insert shipment")
	}
	return decode(stored)
}

// Update merges the patch in Go, so both stores share models.ApplyPatch semantics.
func (s *Storage) Update(ctx context.Context, trackingNumber string, p models.Patch) (*models.Shipment, error) {
	tx, err := s.db.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, errors.Wrap(err, "begin tx")
	}
	defer func() { _ = tx.Rollback(ctx) }()

	var id int64
	var doc []byte
	err = tx.QueryRow(ctx, `
SELECT id, doc FROM shipments
WHERE tracking_number = $1
ORDER BY id
LIMIT 1
FOR UPDATE
`, trackingNumber).Scan(&id, &doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, models.ErrShipmentNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "select shipment for update")
	}

	current, err := decode(doc)
	if err != nil {
		return nil, err
	}
	merged, err := models.ApplyPatch(current, p)
	if err != nil {
		return nil, err
	}
	newDoc, err := json.Marshal(merged)
	if err != nil {
		return nil, errors.Wrap(err, "marshal shipment")
	}

	if _, err := tx.Exec(ctx, `
UPDATE shipments SET tracking_number = $2, doc = $3, updated_at = now()
WHERE id = $1
`, id, merged.TrackingNumber, newDoc); err != nil {
		return nil, errors.Wrap(err, "update shipment")
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, errors.Wrap(err, "commit tx")
	}
	return merged, nil
}

func (s *Storage) Delete(ctx context.Context, trackingNumber string) (int, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM shipments WHERE tracking_number = $1`, trackingNumber)
	if err != nil {
		return 0, errors.Wrap(err, "delete shipments")
	}
	return int(tag.RowsAffected()), nil
}

func (s *Storage) Clear(ctx context.Context) error {
	_, err := s.db.Exec(ctx, `DELETE FROM shipments`)
	return errors.Wrap(err, "clear shipments")
}

func decode(doc []byte) (*models.Shipment, error) {
	var sh models.Shipment
	if err := json.Unmarshal(doc, &sh); err != nil {
		return nil, errors.Wrap(err, "decode shipment doc")
	}
	return &sh, nil
}

package memshipment

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/BearBump/ShipTrack/internal/models"
	"github.com/stretchr/testify/require"
)

func TestStorage_Flow(t *testing.T) {
	ctx := context.Background()
	st := New()

	_, err := st.Create(ctx, &models.Shipment{TrackingNumber: "A1", Origin: "first"})
	require.NoError(t, err)
	_, err = st.Create(ctx, &models.Shipment{TrackingNumber: "B2"})
	require.NoError(t, err)
	// дубликат не отбрасывается
	_, err = st.Create(ctx, &models.Shipment{TrackingNumber: "A1", Origin: "second"})
	require.NoError(t, err)

	all, err := st.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	require.Equal(t, []string{"A1", "B2", "A1"}, []string{all[0].TrackingNumber, all[1].TrackingNumber, all[2].TrackingNumber})

	got, err := st.Get(ctx, "A1")
	require.NoError(t, err)
	require.Equal(t, "first", got.Origin)

	_, err = st.Get(ctx, "nope")
	require.ErrorIs(t, err, models.ErrShipmentNotFound)

	upd, err := st.Update(ctx, "A1", models.Patch{"status": json.RawMessage(`"Delivered"`)})
	require.NoError(t, err)
	require.Equal(t, models.StatusDelivered, upd.Status)
	require.Equal(t, "first", upd.Origin)

	all, _ = st.List(ctx)
	require.Equal(t, "", all[2].Status, "only the first match is updated")

	_, err = st.Update(ctx, "nope", models.Patch{})
	require.ErrorIs(t, err, models.ErrShipmentNotFound)

	n, err := st.Delete(ctx, "A1")
	require.NoError(t, err)
	require.Equal(t, 2, n)

	n, err = st.Delete(ctx, "unknown")
	require.NoError(t, err)
	require.Zero(t, n)

	all, _ = st.List(ctx)
	require.Len(t, all, 1)
	require.Equal(t, "B2", all[0].TrackingNumber)

	require.NoError(t, st.Clear(ctx))
	all, _ = st.List(ctx)
	require.Empty(t, all)
}

func TestStorage_NoAliasing(t *testing.T) {
	ctx := context.Background()
	st := New()

	at := time.Now()
	in := &models.Shipment{TrackingNumber: "X", PickedUpTime: &at, Timeline: []models.TimelineEntry{{Status: "s"}}}
	_, err := st.Create(ctx, in)
	require.NoError(t, err)

	in.Timeline[0].Status = "changed"
	in.TrackingNumber = "Y"

	got, err := st.Get(ctx, "X")
	require.NoError(t, err)
	require.Equal(t, "s", got.Timeline[0].Status)

	got.Origin = "mutated"
	again, _ := st.Get(ctx, "X")
	require.Empty(t, again.Origin)
}

func TestStorage_UpdateBadPatchKeepsRecord(t *testing.T) {
	ctx := context.Background()
	st := New()
	_, _ = st.Create(ctx, &models.Shipment{TrackingNumber: "X", Status: models.StatusInTransit})

	_, err := st.Update(ctx, "X", models.Patch{"createdAt": json.RawMessage(`42`)})
	require.ErrorIs(t, err, models.ErrInvalidPatch)

	got, _ := st.Get(ctx, "X")
	require.Equal(t, models.StatusInTransit, got.Status)
}

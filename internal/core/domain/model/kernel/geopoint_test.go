package kernel_test

import (
	"testing"

	"fleet/internal/core/domain/model/kernel"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewGeoPoint(t *testing.T) {
	t.Run("valid_coordinates", func(t *testing.T) {
		p, err := kernel.NewGeoPoint(52.52, 13.405)

		require.NoError(t, err)
		assert.InDelta(t, 52.52, p.Latitude(), 1e-9)
		assert.InDelta(t, 13.405, p.Longitude(), 1e-9)
		require.NoError(t, p.Validate())
	})

	t.Run("boundary_coordinates", func(t *testing.T) {
		for _, tc := range []struct{ lat, lon float64 }{
			{kernel.LatitudeMin, kernel.LongitudeMin},
			{kernel.LatitudeMax, kernel.LongitudeMax},
			{0, 0},
		} {
			_, err := kernel.NewGeoPoint(tc.lat, tc.lon)
			require.NoError(t, err)
		}
	})

	t.Run("latitude_out_of_range", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(91, 0)
		require.Error(t, err)
	})

	t.Run("longitude_out_of_range", func(t *testing.T) {
		_, err := kernel.NewGeoPoint(0, -181)
		require.Error(t, err)
	})

	t.Run("zero_value_is_invalid", func(t *testing.T) {
		var p kernel.GeoPoint
		require.Error(t, p.Validate())
	})
}

func TestGeoPoint_DistanceTo(t *testing.T) {
	berlin, err := kernel.NewGeoPoint(52.5200, 13.4050)
	require.NoError(t, err)
	hamburg, err := kernel.NewGeoPoint(53.5511, 9.9937)
	require.NoError(t, err)

	t.Run("known_distance", func(t *testing.T) {
		d, err := berlin.DistanceTo(hamburg)

		require.NoError(t, err)
		// Berlin to Hamburg is roughly 255 km great-circle.
		assert.InDelta(t, 255, d, 5)
	})

	t.Run("distance_is_symmetric", func(t *testing.T) {
		ab, err := berlin.DistanceTo(hamburg)
		require.NoError(t, err)
		ba, err := hamburg.DistanceTo(berlin)
		require.NoError(t, err)

		assert.InDelta(t, ab, ba, 1e-9)
	})

	t.Run("distance_to_self_is_zero", func(t *testing.T) {
		d, err := berlin.DistanceTo(berlin)

		require.NoError(t, err)
		assert.InDelta(t, 0, d, 1e-9)
	})

	t.Run("unconstructed_point_fails", func(t *testing.T) {
		var p kernel.GeoPoint
		_, err := berlin.DistanceTo(p)
		require.Error(t, err)
	})
}

func TestGeoPoint_Interpolate(t *testing.T) {
	a, err := kernel.NewGeoPoint(0, 0)
	require.NoError(t, err)
	b, err := kernel.NewGeoPoint(10, 20)
	require.NoError(t, err)

	t.Run("midpoint", func(t *testing.T) {
		mid, err := a.Interpolate(b, 0.5)

		require.NoError(t, err)
		assert.InDelta(t, 5, mid.Latitude(), 1e-9)
		assert.InDelta(t, 10, mid.Longitude(), 1e-9)
	})

	t.Run("fraction_is_clamped", func(t *testing.T) {
		past, err := a.Interpolate(b, 1.7)
		require.NoError(t, err)

		equal, err := past.IsEqual(b)
		require.NoError(t, err)
		assert.True(t, equal)
	})
}

func TestUUID(t *testing.T) {
	t.Run("new_uuid_is_valid", func(t *testing.T) {
		id := kernel.NewUUID()
		require.NoError(t, id.Validate())
	})

	t.Run("round_trip_through_string", func(t *testing.T) {
		id := kernel.NewUUID()

		parsed, err := kernel.UUIDFromString(id.String())
		require.NoError(t, err)
		assert.True(t, id.IsEqual(parsed))
	})

	t.Run("nil_uuid_rejected", func(t *testing.T) {
		var id kernel.UUID
		require.Error(t, id.Validate())

		_, err := kernel.UUIDFromString("00000000-0000-0000-0000-000000000000")
		require.Error(t, err)
	})

	t.Run("less_is_a_strict_order", func(t *testing.T) {
		a, err := kernel.UUIDFromString("11111111-1111-1111-1111-111111111111")
		require.NoError(t, err)
		b, err := kernel.UUIDFromString("22222222-2222-2222-2222-222222222222")
		require.NoError(t, err)

		assert.True(t, a.Less(b))
		assert.False(t, b.Less(a))
		assert.False(t, a.Less(a))
	})
}

package pipeline

import (
	"testing"
	"time"

	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoerceUUID(t *testing.T) {
	t.Parallel()

	id, err := coerceUUID("B27A8E6B-9A2C-4E5D-8F1A-2B3C4D5E6F70")
	require.NoError(t, err)
	assert.Equal(t, "b27a8e6b-9a2c-4e5d-8f1a-2b3c4d5e6f70", id,
		"identifiers are normalized to canonical lower case")

	_, err = coerceUUID("not-a-uuid")
	assert.Error(t, err)

	_, err = coerceUUID(42.0)
	assert.Error(t, err)
}

func TestCoerceTime(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
		want  time.Time
	}{
		{
			name:  "rfc3339",
			input: "2024-03-01T08:15:30-05:00",
			want:  time.Date(2024, 3, 1, 8, 15, 30, 0, time.FixedZone("", -5*3600)),
		},
		{
			name:  "compact offset",
			input: "2024-03-01T08:15:30-0500",
			want:  time.Date(2024, 3, 1, 8, 15, 30, 0, time.FixedZone("", -5*3600)),
		},
		{
			name:  "no offset",
			input: "2024-03-01T08:15:30",
			want:  time.Date(2024, 3, 1, 8, 15, 30, 0, time.UTC),
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := coerceTime(tc.input)
			require.NoError(t, err)
			parsed, ok := got.(time.Time)
			require.True(t, ok)
			assert.True(t, parsed.Equal(tc.want), "got %v, want %v", parsed, tc.want)
		})
	}
}

func TestCoerceTime_PreservesOffset(t *testing.T) {
	t.Parallel()

	got, err := coerceTime("2024-03-01T08:15:30-0500")
	require.NoError(t, err)
	_, offset := got.(time.Time).Zone()
	assert.Equal(t, -5*3600, offset, "the written offset is kept, not normalized to UTC")
}

func TestCoerceTime_Invalid(t *testing.T) {
	t.Parallel()

	_, err := coerceTime("yesterday")
	assert.Error(t, err)

	_, err = coerceTime(12.5)
	assert.Error(t, err)
}

func TestCoerceBool(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input any
		want  bool
	}{
		{"true passthrough", true, true},
		{"false passthrough", false, false},
		{"nonzero number", 1.0, true},
		{"zero number", 0.0, false},
		{"nonempty string", "draft", true},
		{"zero string is still truthy", "0", true},
		{"empty string", "", false},
		{"whitespace string", "  ", false},
		{"nil", nil, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := coerceBool(tc.input)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}

	_, err := coerceBool([]any{})
	assert.Error(t, err)
}

func TestKeyMapFor_CoversEveryKind(t *testing.T) {
	t.Parallel()

	kinds := []datastore.NodeKind{
		datastore.KindReport, datastore.KindAudio, datastore.KindLocation,
		datastore.KindPlacemark, datastore.KindWeather, datastore.KindAltitude,
	}
	for _, kind := range kinds {
		keyMap := keyMapFor(kind)
		require.NotEmpty(t, keyMap, "no key map for %s", kind)
		assert.Contains(t, keyMap, "uniqueIdentifier", "%s must map its identifier", kind)
	}
}

func TestKeyMap_RenamedColumns(t *testing.T) {
	t.Parallel()

	// The export names that do not translate mechanically to column names.
	assert.Equal(t, "created_at", reportKeyMap["date"])
	assert.Equal(t, "average", audioKeyMap["avg"])
	assert.Equal(t, "created_at", locationKeyMap["timestamp"])
	assert.Equal(t, "state", placemarkKeyMap["administrativeArea"])
	assert.Equal(t, "city", placemarkKeyMap["locality"])
	assert.Equal(t, "address", placemarkKeyMap["name"])
	assert.Equal(t, "location_report_id", placemarkKeyMap["locationUniqueIdentifier"])
	assert.Equal(t, "pressure_adjusted", altitudeKeyMap["adjustedPressure"])
	assert.Equal(t, "gps_altitude_raw", altitudeKeyMap["gpsRawAltitude"])
}

func TestChildKindFor(t *testing.T) {
	t.Parallel()

	for key, want := range map[string]datastore.NodeKind{
		"audio":    datastore.KindAudio,
		"location": datastore.KindLocation,
		"weather":  datastore.KindWeather,
		"altitude": datastore.KindAltitude,
	} {
		kind, ok := childKindFor(datastore.KindReport, key)
		require.True(t, ok, "report must nest %q", key)
		assert.Equal(t, want, kind)
	}

	kind, ok := childKindFor(datastore.KindLocation, "placemark")
	require.True(t, ok)
	assert.Equal(t, datastore.KindPlacemark, kind)

	// Placemark only nests under location.
	_, ok = childKindFor(datastore.KindReport, "placemark")
	assert.False(t, ok)
	_, ok = childKindFor(datastore.KindAudio, "anything")
	assert.False(t, ok)
}

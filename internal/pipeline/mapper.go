// mapper.go: field name and type mapping between Reporter documents and the schema
package pipeline

import (
	"strings"
	"time"

	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/datums-app/datums-go/internal/errors"
	"github.com/google/uuid"
)

// Document is one raw JSON report node decoded into a generic map.
type Document map[string]any

// Key maps translate Reporter's camelCase field names to column names, one
// table per node kind. A field missing from its table is unsupported: the
// walker drops it with a warning instead of failing, since the export schema
// gains fields over time.

var reportKeyMap = map[string]string{
	"background":        "background",
	"battery":           "battery",
	"connection":        "connection",
	"date":              "created_at",
	"draft":             "draft",
	"reportImpetus":     "report_impetus",
	"sectionIdentifier": "section_identifier",
	"steps":             "steps",
	"uniqueIdentifier":  "id",
}

var audioKeyMap = map[string]string{
	"avg":                    "average",
	"peak":                   "peak",
	"reportUniqueIdentifier": "report_id",
	"uniqueIdentifier":       "id",
}

var locationKeyMap = map[string]string{
	"altitude":               "altitude",
	"course":                 "course",
	"horizontalAccuracy":     "horizontal_accuracy",
	"latitude":               "latitude",
	"longitude":              "longitude",
	"reportUniqueIdentifier": "report_id",
	"speed":                  "speed",
	"timestamp":              "created_at",
	"uniqueIdentifier":       "id",
	"verticalAccuracy":       "vertical_accuracy",
}

// Placemark fields assume U.S. address shapes (administrativeArea → state and
// so on), a documented limitation of the export format. Note the parent
// linkage is the location report, not the report.
var placemarkKeyMap = map[string]string{
	"administrativeArea":       "state",
	"country":                  "country",
	"inlandWater":              "inland_water",
	"locality":                 "city",
	"locationUniqueIdentifier": "location_report_id",
	"name":                     "address",
	"postalCode":               "postal_code",
	"region":                   "region",
	"subAdministrativeArea":    "county",
	"subLocality":              "neighborhood",
	"subThoroughfare":          "street_number",
	"thoroughfare":             "street_name",
	"uniqueIdentifier":         "id",
}

var weatherKeyMap = map[string]string{
	"dewpointC":              "dewpoint_celsius",
	"feelslikeC":             "feels_like_celsius",
	"feelslikeF":             "feels_like_fahrenheit",
	"latitude":               "latitude",
	"longitude":              "longitude",
	"precipTodayIn":          "precipitation_in",
	"precipTodayMetric":      "precipitation_mm",
	"pressureIn":             "pressure_in",
	"pressureMb":             "pressure_mb",
	"relativeHumidity":       "relative_humidity",
	"reportUniqueIdentifier": "report_id",
	"stationID":              "station_id",
	"tempC":                  "temperature_celsius",
	"tempF":                  "temperature_fahrenheit",
	"uniqueIdentifier":       "id",
	"uv":                     "uv",
	"visibilityKM":           "visibility_km",
	"visibilityMi":           "visibility_mi",
	"weather":                "weather",
	"windDegrees":            "wind_degrees",
	"windDirection":          "wind_direction",
	"windGustKPH":            "wind_gust_kph",
	"windGustMPH":            "wind_gust_mph",
	"windKPH":                "wind_kph",
	"windMPH":                "wind_mph",
}

var altitudeKeyMap = map[string]string{
	"adjustedPressure":        "pressure_adjusted",
	"floorsAscended":          "floors_ascended",
	"floorsDescended":         "floors_descended",
	"gpsAltitudeFromLocation": "gps_altitude_from_location",
	"gpsRawAltitude":          "gps_altitude_raw",
	"pressure":                "pressure",
	"reportUniqueIdentifier":  "report_id",
	"uniqueIdentifier":        "id",
}

// keyMapFor returns the external→column name table for a node kind.
func keyMapFor(kind datastore.NodeKind) map[string]string {
	switch kind {
	case datastore.KindReport:
		return reportKeyMap
	case datastore.KindAudio:
		return audioKeyMap
	case datastore.KindLocation:
		return locationKeyMap
	case datastore.KindPlacemark:
		return placemarkKeyMap
	case datastore.KindWeather:
		return weatherKeyMap
	case datastore.KindAltitude:
		return altitudeKeyMap
	default:
		return nil
	}
}

// childKindFor resolves a nested document key to its node kind. Placemark
// only nests under location, everything else under the report root.
func childKindFor(parent datastore.NodeKind, key string) (datastore.NodeKind, bool) {
	switch parent {
	case datastore.KindReport:
		switch key {
		case "audio":
			return datastore.KindAudio, true
		case "location":
			return datastore.KindLocation, true
		case "weather":
			return datastore.KindWeather, true
		case "altitude":
			return datastore.KindAltitude, true
		}
	case datastore.KindLocation:
		if key == "placemark" {
			return datastore.KindPlacemark, true
		}
	}
	return 0, false
}

// coercion converts an external field value to its internal representation.
type coercion func(any) (any, error)

// coercionFor returns the coercion for fields whose external representation
// needs conversion. Fields without one pass through unchanged.
func coercionFor(key string) (coercion, bool) {
	switch key {
	case "uniqueIdentifier", "reportUniqueIdentifier", "locationUniqueIdentifier":
		return coerceUUID, true
	case "date", "timestamp":
		return coerceTime, true
	case "draft":
		return coerceBool, true
	default:
		return nil, false
	}
}

// coerceUUID parses and normalizes an identifier to its canonical lower-case
// string form.
func coerceUUID(value any) (any, error) {
	s, ok := value.(string)
	if !ok {
		return nil, errors.Newf("identifier is not a string: %v", value).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return nil, errors.Newf("invalid identifier %q: %w", s, err).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
	return id.String(), nil
}

// reporterTimeLayouts are the timestamp layouts Reporter exports use. The
// offset is kept as written, not normalized to UTC.
var reporterTimeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05-0700",
	"2006-01-02T15:04:05",
}

// coerceTime parses a timestamp preserving its timezone offset.
func coerceTime(value any) (any, error) {
	switch v := value.(type) {
	case time.Time:
		return v, nil
	case string:
		for _, layout := range reporterTimeLayouts {
			if t, err := time.Parse(layout, v); err == nil {
				return t, nil
			}
		}
		return nil, errors.Newf("unparseable timestamp %q", v).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	default:
		return nil, errors.Newf("timestamp is not a string: %v", value).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
}

// coerceBool converts the export's boolean representations explicitly: JSON
// booleans pass through, numbers are true when non-zero, and a non-empty
// string is truthy even when it reads "0".
func coerceBool(value any) (any, error) {
	switch v := value.(type) {
	case bool:
		return v, nil
	case float64:
		return v != 0, nil
	case int:
		return v != 0, nil
	case string:
		return strings.TrimSpace(v) != "", nil
	case nil:
		return false, nil
	default:
		return nil, errors.Newf("cannot coerce %T to boolean", value).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
}

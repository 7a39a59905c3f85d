package datastore

// NodeKind identifies which table of the report tree a record belongs to.
// It is a closed enum so dispatch over kinds is exhaustive at compile time.
type NodeKind int

const (
	KindReport NodeKind = iota
	KindAudio
	KindLocation
	KindPlacemark
	KindWeather
	KindAltitude
)

// String returns the node kind tag as it appears in source documents.
func (k NodeKind) String() string {
	switch k {
	case KindReport:
		return "report"
	case KindAudio:
		return "audio"
	case KindLocation:
		return "location"
	case KindPlacemark:
		return "placemark"
	case KindWeather:
		return "weather"
	case KindAltitude:
		return "altitude"
	default:
		return "unknown"
	}
}

// TableName returns the table backing records of this kind.
func (k NodeKind) TableName() string {
	switch k {
	case KindReport:
		return "reports"
	case KindAudio:
		return "audio_reports"
	case KindLocation:
		return "location_reports"
	case KindPlacemark:
		return "placemark_reports"
	case KindWeather:
		return "weather_reports"
	case KindAltitude:
		return "altitude_reports"
	default:
		return ""
	}
}

// blank returns a fresh zero record of the kind's model type for GORM calls.
func (k NodeKind) blank() any {
	switch k {
	case KindReport:
		return &Report{}
	case KindAudio:
		return &AudioReport{}
	case KindLocation:
		return &LocationReport{}
	case KindPlacemark:
		return &PlacemarkReport{}
	case KindWeather:
		return &WeatherReport{}
	case KindAltitude:
		return &AltitudeReport{}
	default:
		return nil
	}
}

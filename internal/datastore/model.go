// model.go this code defines the data model for the application
package datastore

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// Report is the top-level envelope for one Reporter capture event. All nested
// observations and responses hang off it and are removed with it on delete.
type Report struct {
	ID                string    `gorm:"primaryKey;size:36"`
	CreatedAt         time.Time `gorm:"autoCreateTime:false"`
	ReportImpetus     int
	Battery           float64
	Steps             int
	SectionIdentifier string
	Background        float64
	Connection        float64
	Draft             bool

	AudioReport    *AudioReport    `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
	LocationReport *LocationReport `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
	WeatherReport  *WeatherReport  `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
	AltitudeReport *AltitudeReport `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
	Responses      []Response      `gorm:"foreignKey:ReportID;constraint:OnDelete:CASCADE"`
}

// AudioReport holds the ambient sound levels captured with a report.
type AudioReport struct {
	ID       string  `gorm:"primaryKey;size:36"`
	Average  float64
	Peak     float64
	ReportID string  `gorm:"size:36;index;not null"`
}

// LocationReport holds the GPS fix captured with a report. The reverse-geocoded
// placemark is its child, not the report's.
type LocationReport struct {
	ID                 string    `gorm:"primaryKey;size:36"`
	Latitude           float64
	Longitude          float64
	Altitude           float64
	Speed              float64
	Course             float64
	VerticalAccuracy   float64
	HorizontalAccuracy float64
	CreatedAt          time.Time `gorm:"autoCreateTime:false"`
	ReportID           string    `gorm:"size:36;index;not null"`

	Placemark *PlacemarkReport `gorm:"foreignKey:LocationReportID;constraint:OnDelete:CASCADE"`
}

// PlacemarkReport holds the reverse-geocoded address for a location fix.
// Field names assume U.S. address shapes, a known limitation carried over
// from the Reporter export format.
type PlacemarkReport struct {
	ID               string `gorm:"primaryKey;size:36"`
	Address          string
	City             string
	County           string
	State            string
	Country          string
	PostalCode       string
	Region           string
	Neighborhood     string
	StreetName       string
	StreetNumber     string
	InlandWater      string
	LocationReportID string `gorm:"size:36;index;not null"`
}

// WeatherReport holds the weather conditions fetched when the report was taken.
type WeatherReport struct {
	ID                    string  `gorm:"primaryKey;size:36"`
	StationID             string
	Latitude              float64
	Longitude             float64
	Weather               string
	TemperatureCelsius    float64
	TemperatureFahrenheit float64
	FeelsLikeCelsius      float64
	FeelsLikeFahrenheit   float64
	WindDirection         string
	WindDegrees           int
	WindMph               float64
	WindKph               float64
	WindGustMph           float64
	WindGustKph           float64
	RelativeHumidity      string
	PrecipitationIn       float64
	PrecipitationMm       float64
	PressureIn            float64
	PressureMb            float64
	DewpointCelsius       float64
	VisibilityMi          float64
	VisibilityKm          float64
	UV                    float64 `gorm:"column:uv"`
	ReportID              string  `gorm:"size:36;index;not null"`
}

// AltitudeReport holds barometric and floor-count data. Its identifier is
// optional in the source document, see the pipeline for how that is handled.
type AltitudeReport struct {
	ID                      string  `gorm:"primaryKey;size:36"`
	FloorsAscended          float64
	FloorsDescended         float64
	GpsAltitudeFromLocation float64
	GpsAltitudeRaw          float64
	Pressure                float64
	PressureAdjusted        float64
	ReportID                string  `gorm:"size:36;index;not null"`
}

// Question is one entry in the question catalog. Prompts are functionally
// unique, responses resolve their type through them.
type Question struct {
	ID     uint   `gorm:"primaryKey"`
	Type   int    `gorm:"not null"`
	Prompt string `gorm:"not null;index"`

	Responses []Response `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE"`
}

// Response is a single-table polymorphic record: the Type discriminator
// mirrors the owning question's type and selects which payload column is set.
type Response struct {
	ID         uint   `gorm:"primaryKey"`
	ReportID   string `gorm:"size:36;index;not null"`
	QuestionID uint   `gorm:"index;not null"`
	Type       string `gorm:"size:20"`

	BooleanResponse  *bool
	LocationResponse *string
	VenueID          *string
	MultiResponse    StringList `gorm:"type:text"`
	NoteResponse     *string
	NumericResponse  *float64
	PeopleResponse   StringList `gorm:"type:text"`
	TokensResponse   StringList `gorm:"type:text"`
}

// StringList stores a list of strings as a JSON-encoded text column, since
// neither SQLite nor MySQL has a native array type.
type StringList []string

// Value implements driver.Valuer.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return nil, nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner.
func (l *StringList) Scan(value any) error {
	if value == nil {
		*l = nil
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("unsupported type for StringList: %T", value)
	}
}

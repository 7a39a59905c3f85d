// codec.go: typed accessors for the seven response payload shapes
package pipeline

import (
	"strconv"
	"strings"

	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/datums-app/datums-go/internal/errors"
)

// QuestionType is the closed set of response payload shapes, in catalog
// seed order: the integer codes match the questionType values Reporter uses.
type QuestionType int

const (
	QuestionTokens QuestionType = iota
	QuestionMulti
	QuestionBoolean
	QuestionLocation
	QuestionPeople
	QuestionNumeric
	QuestionNote
)

// String returns the discriminator stored on response rows.
func (t QuestionType) String() string {
	switch t {
	case QuestionTokens:
		return "tokens"
	case QuestionMulti:
		return "multi"
	case QuestionBoolean:
		return "boolean"
	case QuestionLocation:
		return "location"
	case QuestionPeople:
		return "people"
	case QuestionNumeric:
		return "numeric"
	case QuestionNote:
		return "note"
	default:
		return "unknown"
	}
}

// RawResponse is one undecoded response entry from a report document.
type RawResponse map[string]any

// ResponseKey identifies the response row an accessor operates on.
type ResponseKey struct {
	ReportID   string
	QuestionID uint
}

// accessor knows how to extract one payload shape from a raw response and
// read, write and delete the corresponding typed columns. Extraction
// tolerates absent payload fields: not every response carries every
// sub-field.
type accessor struct {
	questionType QuestionType
	// apply extracts the payload from raw and sets the accessor's column(s).
	apply func(rec *datastore.Response, raw RawResponse)
	// isSet reports whether the accessor's column already carries a value.
	isSet func(rec *datastore.Response) bool
}

// accessorFor selects the accessor for a question's declared type.
func accessorFor(t QuestionType) (*accessor, error) {
	switch t {
	case QuestionTokens:
		return &tokensAccessor, nil
	case QuestionMulti:
		return &multiAccessor, nil
	case QuestionBoolean:
		return &booleanAccessor, nil
	case QuestionLocation:
		return &locationAccessor, nil
	case QuestionPeople:
		return &peopleAccessor, nil
	case QuestionNumeric:
		return &numericAccessor, nil
	case QuestionNote:
		return &noteAccessor, nil
	default:
		return nil, errors.Newf("unknown question type %d", t).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
}

var tokensAccessor = accessor{
	questionType: QuestionTokens,
	apply: func(rec *datastore.Response, raw RawResponse) {
		rec.TokensResponse = tokenTexts(raw, "tokens")
	},
	isSet: func(rec *datastore.Response) bool { return rec.TokensResponse != nil },
}

var multiAccessor = accessor{
	questionType: QuestionMulti,
	apply: func(rec *datastore.Response, raw RawResponse) {
		rec.MultiResponse = stringList(raw["answeredOptions"])
	},
	isSet: func(rec *datastore.Response) bool { return rec.MultiResponse != nil },
}

var booleanAccessor = accessor{
	questionType: QuestionBoolean,
	apply: func(rec *datastore.Response, raw RawResponse) {
		rec.BooleanResponse = humanToBoolean(raw["answeredOptions"])
	},
	isSet: func(rec *datastore.Response) bool { return rec.BooleanResponse != nil },
}

// The location accessor is the two-column variant: response text and venue
// identifier are always written together.
var locationAccessor = accessor{
	questionType: QuestionLocation,
	apply: func(rec *datastore.Response, raw RawResponse) {
		loc, _ := raw["locationResponse"].(map[string]any)
		rec.LocationResponse = optionalString(loc, "text")
		rec.VenueID = optionalString(loc, "foursquareVenueId")
	},
	isSet: func(rec *datastore.Response) bool { return rec.LocationResponse != nil },
}

var peopleAccessor = accessor{
	questionType: QuestionPeople,
	apply: func(rec *datastore.Response, raw RawResponse) {
		rec.PeopleResponse = tokenTexts(raw, "tokens")
	},
	isSet: func(rec *datastore.Response) bool { return rec.PeopleResponse != nil },
}

var numericAccessor = accessor{
	questionType: QuestionNumeric,
	apply: func(rec *datastore.Response, raw RawResponse) {
		rec.NumericResponse = numericValue(raw["numericResponse"])
	},
	isSet: func(rec *datastore.Response) bool { return rec.NumericResponse != nil },
}

var noteAccessor = accessor{
	questionType: QuestionNote,
	apply: func(rec *datastore.Response, raw RawResponse) {
		rec.NoteResponse = noteText(raw["textResponses"])
	},
	isSet: func(rec *datastore.Response) bool { return rec.NoteResponse != nil },
}

// getOrCreate looks up or creates the response row for key; if the payload
// column is still unset it is filled from raw and persisted.
func (a *accessor) getOrCreate(store datastore.Interface, raw RawResponse, key ResponseKey) error {
	rec, err := store.FindResponse(key.ReportID, key.QuestionID)
	if err != nil {
		return err
	}
	if rec == nil {
		rec = &datastore.Response{
			ReportID:   key.ReportID,
			QuestionID: key.QuestionID,
			Type:       a.questionType.String(),
		}
		a.apply(rec, raw)
		return store.CreateResponse(rec)
	}
	if !a.isSet(rec) {
		a.apply(rec, raw)
		rec.Type = a.questionType.String()
		return store.SaveResponse(rec)
	}
	return nil
}

// update overwrites the payload column(s) of the existing row, falling back
// to getOrCreate when the row does not exist yet.
func (a *accessor) update(store datastore.Interface, raw RawResponse, key ResponseKey) error {
	rec, err := store.FindResponse(key.ReportID, key.QuestionID)
	if err != nil {
		return err
	}
	if rec == nil {
		return a.getOrCreate(store, raw, key)
	}
	a.apply(rec, raw)
	// The discriminator mirrors the question's current type; the question may
	// have been retyped since the row was written.
	rec.Type = a.questionType.String()
	return store.SaveResponse(rec)
}

// delete removes the row for key if it exists, otherwise it is a no-op.
func (a *accessor) delete(store datastore.Interface, key ResponseKey) error {
	rec, err := store.FindResponse(key.ReportID, key.QuestionID)
	if err != nil {
		return err
	}
	if rec == nil {
		return nil
	}
	return store.DeleteResponse(rec)
}

// tokenTexts extracts the text of each token entry under key; a token
// response with zero tokens yields nil.
func tokenTexts(raw RawResponse, key string) datastore.StringList {
	items, ok := raw[key].([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	out := make(datastore.StringList, 0, len(items))
	for _, item := range items {
		if entry, ok := item.(map[string]any); ok {
			if text, ok := entry["text"].(string); ok {
				out = append(out, text)
			}
		}
	}
	return out
}

// stringList converts a JSON string array, nil when absent or empty.
func stringList(value any) datastore.StringList {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	out := make(datastore.StringList, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// humanToBoolean maps an answeredOptions list to a boolean: the first option
// decides, "yes" in any casing is true. Absent or empty lists yield nil.
func humanToBoolean(value any) *bool {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	first, ok := items[0].(string)
	if !ok {
		return nil
	}
	result := strings.EqualFold(first, "yes")
	return &result
}

// numericValue coerces the numericResponse payload to a float. String values
// are parsed, so "1" becomes 1.0. Empty and zero raw values mean the question
// went unanswered and yield nil.
func numericValue(value any) *float64 {
	switch v := value.(type) {
	case float64:
		if v == 0 {
			return nil
		}
		return &v
	case string:
		if v == "" {
			return nil
		}
		parsed, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil
		}
		return &parsed
	default:
		return nil
	}
}

// noteText joins the text fragments of a textResponses list into one string.
func noteText(value any) *string {
	items, ok := value.([]any)
	if !ok || len(items) == 0 {
		return nil
	}
	texts := make([]string, 0, len(items))
	for _, item := range items {
		if entry, ok := item.(map[string]any); ok {
			if text, ok := entry["text"].(string); ok {
				texts = append(texts, text)
			}
		}
	}
	if len(texts) == 0 {
		return nil
	}
	joined := strings.Join(texts, "\n")
	return &joined
}

// optionalString returns a pointer to the string under key, or nil when the
// map or key is absent.
func optionalString(m map[string]any, key string) *string {
	if m == nil {
		return nil
	}
	if s, ok := m[key].(string); ok {
		return &s
	}
	return nil
}

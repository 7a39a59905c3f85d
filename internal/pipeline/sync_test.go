package pipeline

import (
	"testing"

	"github.com/datums-app/datums-go/internal/conf"
	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/datums-app/datums-go/internal/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	sampleReportID    = "1a2b3c4d-5e6f-4071-8293-a4b5c6d7e8f9"
	sampleAudioID     = "2b3c4d5e-6f70-4182-93a4-b5c6d7e8f901"
	sampleLocationID  = "3c4d5e6f-7081-4293-a4b5-c6d7e8f90112"
	samplePlacemarkID = "4d5e6f70-8192-43a4-b5c6-d7e8f9011223"
	sampleWeatherID   = "5e6f7081-92a3-44b5-86d7-e8f901122334"
	sampleAltitudeID  = "6f708192-a3b4-45c6-97e8-f90112233445"
)

// newTestStore opens a temporary SQLite datastore for pipeline tests.
func newTestStore(t *testing.T) datastore.Interface {
	t.Helper()
	settings := &conf.Settings{}
	settings.Output.SQLite.Enabled = true
	settings.Output.SQLite.Path = t.TempDir() + "/test.db"

	store := datastore.New(settings)
	require.NoError(t, store.Open(), "Failed to open database")
	t.Cleanup(func() {
		assert.NoError(t, store.Close(), "Failed to close datastore")
	})
	return store
}

// seedQuestions loads the catalog entries the sample report's responses need.
func seedQuestions(t *testing.T, sync *Synchronizer) {
	t.Helper()
	for _, doc := range []Document{
		{"questionType": 0.0, "prompt": "What are you doing?"},
		{"questionType": 2.0, "prompt": "Are you working?"},
		{"questionType": 5.0, "prompt": "How many coffees?"},
	} {
		require.NoError(t, sync.AddQuestion(doc))
	}
}

// sampleReport builds a full report document the way an export file decodes:
// numbers as float64, one nested document per node kind, three responses.
func sampleReport() Document {
	return Document{
		"uniqueIdentifier": sampleReportID,
		"date":             "2024-03-01T08:15:30-0500",
		"battery":          0.80,
		"steps":            100.0,
		"draft":            false,
		"reportImpetus":    4.0,
		"audio": map[string]any{
			"uniqueIdentifier": sampleAudioID,
			"avg":              5.0,
			"peak":             10.0,
		},
		"location": map[string]any{
			"uniqueIdentifier": sampleLocationID,
			"latitude":         45.52,
			"longitude":        -122.68,
			"timestamp":        "2024-03-01T08:15:28-0500",
			"placemark": map[string]any{
				"uniqueIdentifier":   samplePlacemarkID,
				"locality":           "Portland",
				"administrativeArea": "OR",
			},
		},
		"weather": map[string]any{
			"uniqueIdentifier": sampleWeatherID,
			"tempC":            7.0,
			"weather":          "clear",
		},
		"altitude": map[string]any{
			"uniqueIdentifier": sampleAltitudeID,
			"pressure":         101.3,
			"floorsAscended":   3.0,
		},
		"responses": []any{
			map[string]any{
				"questionPrompt":  "How many coffees?",
				"numericResponse": "1",
			},
			map[string]any{
				"questionPrompt":  "Are you working?",
				"answeredOptions": []any{"Yes"},
			},
			map[string]any{
				"questionPrompt": "What are you doing?",
				"tokens":         []any{map[string]any{"text": "writing"}},
			},
		},
		"photoSet": []any{
			map[string]any{"uniqueIdentifier": "ignored"},
		},
	}
}

func findResponse(t *testing.T, store datastore.Interface, prompt string) *datastore.Response {
	t.Helper()
	question, err := store.QuestionByPrompt(prompt)
	require.NoError(t, err)
	response, err := store.FindResponse(sampleReportID, question.ID)
	require.NoError(t, err)
	return response
}

func TestAddReport_FullDocument(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sync := NewSynchronizer(store)
	seedQuestions(t, sync)

	result, err := sync.AddReport(sampleReport())
	require.NoError(t, err)
	assert.Empty(t, result.Warnings, "a fully mapped document must not warn")
	assert.Empty(t, result.ResponseErrors)

	for _, kind := range []datastore.NodeKind{
		datastore.KindReport, datastore.KindAudio, datastore.KindLocation,
		datastore.KindPlacemark, datastore.KindWeather, datastore.KindAltitude,
	} {
		count, err := store.Count(kind, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, int64(1), count, "expected one %s row", kind)
	}

	audio, err := store.First(datastore.KindAudio, map[string]any{"id": sampleAudioID})
	require.NoError(t, err)
	assert.InDelta(t, 5.0, audio["average"], 1e-9)
	assert.InDelta(t, 10.0, audio["peak"], 1e-9)
	assert.Equal(t, sampleReportID, audio["report_id"])

	placemark, err := store.First(datastore.KindPlacemark, map[string]any{"id": samplePlacemarkID})
	require.NoError(t, err)
	assert.Equal(t, sampleLocationID, placemark["location_report_id"],
		"placemark hangs off the location report")
	assert.Equal(t, "Portland", placemark["city"])
	assert.Equal(t, "OR", placemark["state"])

	numeric := findResponse(t, store, "How many coffees?")
	require.NotNil(t, numeric)
	require.NotNil(t, numeric.NumericResponse)
	assert.InDelta(t, 1.0, *numeric.NumericResponse, 1e-9, `a "1" payload parses to 1.0`)
	assert.Equal(t, "numeric", numeric.Type)

	boolean := findResponse(t, store, "Are you working?")
	require.NotNil(t, boolean)
	require.NotNil(t, boolean.BooleanResponse)
	assert.True(t, *boolean.BooleanResponse)

	tokens := findResponse(t, store, "What are you doing?")
	require.NotNil(t, tokens)
	assert.Equal(t, datastore.StringList{"writing"}, tokens.TokensResponse)
}

func TestAddReport_Idempotent(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sync := NewSynchronizer(store)
	seedQuestions(t, sync)

	_, err := sync.AddReport(sampleReport())
	require.NoError(t, err)
	result, err := sync.AddReport(sampleReport())
	require.NoError(t, err, "re-adding the same document must be a no-op")
	assert.Empty(t, result.ResponseErrors)

	count, err := store.Count(datastore.KindReport, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	count, err = store.Count(datastore.KindAudio, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAddReport_ConflictOnChangedValues(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sync := NewSynchronizer(store)
	seedQuestions(t, sync)

	_, err := sync.AddReport(sampleReport())
	require.NoError(t, err)

	changed := sampleReport()
	changed["battery"] = 0.25
	_, err = sync.AddReport(changed)
	require.Error(t, err, "add must not overwrite an existing report")
	assert.True(t, errors.IsConflict(err), "expected a conflict, got: %v", err)
}

func TestUpdateReport_OverwritesInPlace(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sync := NewSynchronizer(store)
	seedQuestions(t, sync)

	_, err := sync.AddReport(sampleReport())
	require.NoError(t, err)

	changed := sampleReport()
	changed["battery"] = 0.25
	responses := changed["responses"].([]any)
	responses[0].(map[string]any)["numericResponse"] = "3"

	result, err := sync.UpdateReport(changed)
	require.NoError(t, err)
	assert.Empty(t, result.ResponseErrors)

	report, err := store.First(datastore.KindReport, map[string]any{"id": sampleReportID})
	require.NoError(t, err)
	assert.InDelta(t, 0.25, report["battery"], 1e-9)

	numeric := findResponse(t, store, "How many coffees?")
	require.NotNil(t, numeric)
	require.NotNil(t, numeric.NumericResponse)
	assert.InDelta(t, 3.0, *numeric.NumericResponse, 1e-9)

	count, err := store.Count(datastore.KindReport, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "update must not duplicate the report")
}

func TestUpdateReport_CreatesUnseenRecords(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sync := NewSynchronizer(store)
	seedQuestions(t, sync)

	result, err := sync.UpdateReport(sampleReport())
	require.NoError(t, err, "updating a never-added report falls back to insertion")
	assert.Empty(t, result.ResponseErrors)

	count, err := store.Count(datastore.KindReport, map[string]any{"id": sampleReportID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestDeleteReport_CascadesEverything(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sync := NewSynchronizer(store)
	seedQuestions(t, sync)

	_, err := sync.AddReport(sampleReport())
	require.NoError(t, err)

	// Deleting only needs the identifier, not the full tree.
	require.NoError(t, sync.DeleteReport(Document{"uniqueIdentifier": sampleReportID}))

	for _, kind := range []datastore.NodeKind{
		datastore.KindReport, datastore.KindAudio, datastore.KindLocation,
		datastore.KindPlacemark, datastore.KindWeather, datastore.KindAltitude,
	} {
		count, err := store.Count(kind, map[string]any{})
		require.NoError(t, err)
		assert.Equal(t, int64(0), count, "%s rows must cascade away", kind)
	}

	assert.Nil(t, findResponse(t, store, "How many coffees?"))

	// The question catalog survives report deletion.
	_, err = store.QuestionByPrompt("How many coffees?")
	assert.NoError(t, err)
}

func TestDeleteReport_InvalidIdentifier(t *testing.T) {
	t.Parallel()

	sync := NewSynchronizer(newTestStore(t))
	err := sync.DeleteReport(Document{"uniqueIdentifier": "not-a-uuid"})
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
}

func TestAddReport_UnknownPromptIsCollected(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sync := NewSynchronizer(store)
	seedQuestions(t, sync)

	doc := sampleReport()
	doc["responses"] = []any{
		map[string]any{"questionPrompt": "Did you exercise?", "answeredOptions": []any{"Yes"}},
		map[string]any{"questionPrompt": "How many coffees?", "numericResponse": "1"},
	}

	result, err := sync.AddReport(doc)
	require.NoError(t, err, "a bad response must not abort the document")
	require.Len(t, result.ResponseErrors, 1)
	assert.True(t, errors.IsNotFound(result.ResponseErrors[0]),
		"an unseeded prompt surfaces as not-found")

	// The report and the resolvable response still landed.
	count, err := store.Count(datastore.KindReport, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	assert.NotNil(t, findResponse(t, store, "How many coffees?"))
}

func TestAddReport_PhotoSetIsDropped(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sync := NewSynchronizer(store)
	seedQuestions(t, sync)

	result, err := sync.AddReport(sampleReport())
	require.NoError(t, err)
	assert.Empty(t, result.Warnings, "photoSet is excluded silently, not warned about")
}

func TestSyncReport_AltitudeWithoutIdentifier(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sync := NewSynchronizer(store)
	seedQuestions(t, sync)

	doc := sampleReport()
	doc["altitude"] = map[string]any{"pressure": 101.3}

	result, err := sync.AddReport(doc)
	require.NoError(t, err)
	assert.Empty(t, result.Warnings)
	count, err := store.Count(datastore.KindAltitude, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "create synthesizes the missing identifier")

	result, err = sync.UpdateReport(doc)
	require.NoError(t, err)
	require.Len(t, result.Warnings, 1, "update skips the unidentifiable altitude report")
	assert.Equal(t, datastore.KindAltitude, result.Warnings[0].Kind)
	count, err = store.Count(datastore.KindAltitude, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count, "the existing altitude row is left alone")
}

func TestSplitReport(t *testing.T) {
	t.Parallel()

	body, responses := splitReport(sampleReport())
	assert.NotContains(t, body, "responses")
	assert.NotContains(t, body, "photoSet")
	assert.Contains(t, body, "audio")
	assert.Len(t, responses, 3)
}

func TestQuestionLifecycle(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sync := NewSynchronizer(store)

	require.NoError(t, sync.AddQuestion(Document{"questionType": 2.0, "prompt": "Are you working?"}))
	require.NoError(t, sync.AddQuestion(Document{"questionType": 2.0, "prompt": "Are you working?"}),
		"re-seeding the same entry is a no-op")

	question, err := store.QuestionByPrompt("Are you working?")
	require.NoError(t, err)
	assert.Equal(t, 2, question.Type)

	require.NoError(t, sync.UpdateQuestion(Document{"questionType": 6.0, "prompt": "Are you working?"}))
	question, err = store.QuestionByPrompt("Are you working?")
	require.NoError(t, err)
	assert.Equal(t, 6, question.Type)

	require.NoError(t, sync.DeleteQuestion(Document{"questionType": 6.0, "prompt": "Are you working?"}))
	_, err = store.QuestionByPrompt("Are you working?")
	assert.True(t, errors.IsNotFound(err))
}

func TestUpdateQuestion_InvalidatesCachedPrompt(t *testing.T) {
	t.Parallel()

	store := newTestStore(t)
	sync := NewSynchronizer(store)
	seedQuestions(t, sync)

	// Resolve once so the prompt is cached.
	_, err := sync.AddReport(sampleReport())
	require.NoError(t, err)

	// Retype the numeric question as a note question.
	require.NoError(t, sync.UpdateQuestion(Document{"questionType": 6.0, "prompt": "How many coffees?"}))

	doc := sampleReport()
	doc["responses"] = []any{map[string]any{
		"questionPrompt": "How many coffees?",
		"textResponses":  []any{map[string]any{"text": "two"}},
	}}
	result, err := sync.UpdateReport(doc)
	require.NoError(t, err)
	assert.Empty(t, result.ResponseErrors)

	response := findResponse(t, store, "How many coffees?")
	require.NotNil(t, response)
	require.NotNil(t, response.NoteResponse, "the retyped question must resolve through its new accessor")
	assert.Equal(t, "two", *response.NoteResponse)
	assert.Equal(t, "note", response.Type,
		"the discriminator follows the question's current type, not the row's history")
}

func TestAddQuestion_Validation(t *testing.T) {
	t.Parallel()

	sync := NewSynchronizer(newTestStore(t))

	tests := []struct {
		name string
		doc  Document
	}{
		{"missing prompt", Document{"questionType": 2.0}},
		{"empty prompt", Document{"questionType": 2.0, "prompt": ""}},
		{"missing type", Document{"prompt": "Are you working?"}},
		{"type out of range", Document{"questionType": 9.0, "prompt": "Are you working?"}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			err := sync.AddQuestion(tc.doc)
			require.Error(t, err)
			assert.True(t, errors.IsCategory(err, errors.CategoryValidation))
		})
	}
}

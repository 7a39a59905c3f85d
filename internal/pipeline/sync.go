// sync.go: orchestration of add/update/delete over full report trees
package pipeline

import (
	"log/slog"
	"time"

	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/datums-app/datums-go/internal/errors"
	"github.com/datums-app/datums-go/internal/logging"
	"github.com/datums-app/datums-go/internal/observability"
	"github.com/patrickmn/go-cache"
)

const (
	questionCacheExpiration = 5 * time.Minute
	questionCacheCleanup    = 10 * time.Minute
)

// Synchronizer ingests report documents into the datastore. It holds no
// mutable state beyond the question cache; one instance per storage session.
type Synchronizer struct {
	store     datastore.Interface
	log       *slog.Logger
	metrics   *observability.Metrics
	questions *cache.Cache
}

// Option configures a Synchronizer.
type Option func(*Synchronizer)

// WithMetrics attaches prometheus metrics to the synchronizer.
func WithMetrics(metrics *observability.Metrics) Option {
	return func(s *Synchronizer) {
		s.metrics = metrics
	}
}

// WithLogger overrides the default pipeline logger.
func WithLogger(log *slog.Logger) Option {
	return func(s *Synchronizer) {
		s.log = log
	}
}

// NewSynchronizer creates a Synchronizer backed by store.
func NewSynchronizer(store datastore.Interface, opts ...Option) *Synchronizer {
	s := &Synchronizer{
		store:     store,
		log:       logging.ForService("pipeline"),
		questions: cache.New(questionCacheExpiration, questionCacheCleanup),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Result reports the non-fatal outcomes of one document synchronization.
// Warnings cover dropped fields and skipped nodes; ResponseErrors carry the
// per-response failures that did not abort the rest of the document.
type Result struct {
	Warnings       []Warning
	ResponseErrors []error
}

// AddReport ingests one report document: the report body is walked into
// get-or-create calls parent-before-child, then each response is resolved
// and stored. A response that fails to resolve is recorded and the remaining
// responses still synchronize. Re-running AddReport with identical input is
// a no-op.
func (s *Synchronizer) AddReport(doc Document) (*Result, error) {
	return s.syncReport(doc, OpCreate)
}

// UpdateReport overwrites a previously ingested report tree in place,
// creating any sub-records that were absent on first sight.
func (s *Synchronizer) UpdateReport(doc Document) (*Result, error) {
	return s.syncReport(doc, OpUpdate)
}

// DeleteReport removes the report identified by the document's
// uniqueIdentifier. The storage layer's cascade removes every nested report
// and response, so no tree walk is needed.
func (s *Synchronizer) DeleteReport(doc Document) error {
	id, err := coerceUUID(doc["uniqueIdentifier"])
	if err != nil {
		return err
	}
	if err := s.store.Delete(datastore.KindReport, map[string]any{"id": id}); err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ReportSynced(datastore.KindReport.String(), OpDelete.String())
	}
	s.log.Info("report deleted", "report_id", id)
	return nil
}

func (s *Synchronizer) syncReport(doc Document, op Operation) (*Result, error) {
	body, responses := splitReport(doc)
	result := &Result{}

	if err := s.syncNode(datastore.KindReport, body, op, result); err != nil {
		return result, err
	}

	reportID, err := coerceUUID(body["uniqueIdentifier"])
	if err != nil {
		return result, err
	}

	for _, raw := range responses {
		if err := s.syncResponse(raw, reportID.(string), op); err != nil {
			prompt, _ := raw["questionPrompt"].(string)
			s.log.Error("response failed to synchronize",
				"report_id", reportID,
				"prompt", prompt,
				"error", err)
			if s.metrics != nil {
				s.metrics.ResponseError()
			}
			result.ResponseErrors = append(result.ResponseErrors, err)
		}
	}

	return result, nil
}

// syncNode persists the current node before recursing into its nested
// sub-documents, so every child row's foreign key references an existing
// parent.
func (s *Synchronizer) syncNode(kind datastore.NodeKind, doc Document, op Operation, result *Result) error {
	attrs, nested, warnings, err := walkNode(kind, doc, op)
	for _, warning := range warnings {
		s.log.Warn(warning.Message, "kind", warning.Kind.String(), "field", warning.Field)
		if s.metrics != nil {
			s.metrics.WarningEmitted(warning.Kind.String())
		}
	}
	result.Warnings = append(result.Warnings, warnings...)
	if err != nil {
		return err
	}

	switch op {
	case OpCreate:
		err = s.store.GetOrCreate(kind, attrs)
	case OpUpdate:
		err = s.store.Update(kind, attrs)
	case OpDelete:
		err = errors.Newf("delete does not walk the report tree").
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
	if err != nil {
		return err
	}
	if s.metrics != nil {
		s.metrics.ReportSynced(kind.String(), op.String())
	}

	for _, child := range nested {
		if err := s.syncNode(child.kind, child.doc, op, result); err != nil {
			return err
		}
	}
	return nil
}

// AddQuestion get-or-creates a question catalog entry from a seed document.
func (s *Synchronizer) AddQuestion(doc Document) error {
	question, err := questionFromDocument(doc)
	if err != nil {
		return err
	}
	return s.store.GetOrCreateQuestion(question)
}

// UpdateQuestion rewrites the catalog entry for the document's prompt.
func (s *Synchronizer) UpdateQuestion(doc Document) error {
	question, err := questionFromDocument(doc)
	if err != nil {
		return err
	}
	s.questions.Delete(question.Prompt)
	return s.store.UpdateQuestion(question)
}

// DeleteQuestion removes the catalog entry; its responses go with it.
func (s *Synchronizer) DeleteQuestion(doc Document) error {
	question, err := questionFromDocument(doc)
	if err != nil {
		return err
	}
	s.questions.Delete(question.Prompt)
	return s.store.DeleteQuestion(question.Type, question.Prompt)
}

// splitReport separates the response list from the report body. The photoSet
// attachment list is dropped: media ingestion is out of scope.
func splitReport(doc Document) (Document, []RawResponse) {
	body := make(Document, len(doc))
	var responses []RawResponse
	for key, value := range doc {
		switch key {
		case "responses":
			if items, ok := value.([]any); ok {
				for _, item := range items {
					if raw, ok := item.(map[string]any); ok {
						responses = append(responses, RawResponse(raw))
					}
				}
			}
		case "photoSet":
			// skip
		default:
			body[key] = value
		}
	}
	return body, responses
}

// questionFromDocument maps a catalog seed entry {questionType, prompt} to a
// question record.
func questionFromDocument(doc Document) (*datastore.Question, error) {
	prompt, ok := doc["prompt"].(string)
	if !ok || prompt == "" {
		return nil, errors.Newf("question has no prompt").
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
	rawType, ok := doc["questionType"].(float64)
	if !ok {
		return nil, errors.Newf("question %q has no questionType", prompt).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
	questionType := QuestionType(int(rawType))
	if questionType < QuestionTokens || questionType > QuestionNote {
		return nil, errors.Newf("question %q has unknown type %d", prompt, int(rawType)).
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}
	return &datastore.Question{Type: int(questionType), Prompt: prompt}, nil
}

// response.go: resolution of raw responses against the question catalog
package pipeline

import (
	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/datums-app/datums-go/internal/errors"
)

// resolveResponse looks up the question matching the response's declared
// prompt to obtain its id and type, and selects the accessor for that type.
// The declared type never comes from the raw payload, only from the catalog.
// An unknown prompt is a not-found error the caller reports per response: it
// means the question catalog has not been synced yet.
func (s *Synchronizer) resolveResponse(raw RawResponse, reportID string) (*accessor, ResponseKey, error) {
	prompt, ok := raw["questionPrompt"].(string)
	if !ok || prompt == "" {
		return nil, ResponseKey{}, errors.Newf("response carries no questionPrompt").
			Component("pipeline").
			Category(errors.CategoryValidation).
			Build()
	}

	question, err := s.questionByPrompt(prompt)
	if err != nil {
		return nil, ResponseKey{}, err
	}

	acc, err := accessorFor(QuestionType(question.Type))
	if err != nil {
		return nil, ResponseKey{}, err
	}

	return acc, ResponseKey{ReportID: reportID, QuestionID: question.ID}, nil
}

// questionByPrompt resolves a prompt through the cache before hitting the
// datastore. Catalog writes invalidate cached entries.
func (s *Synchronizer) questionByPrompt(prompt string) (*datastore.Question, error) {
	if cached, ok := s.questions.Get(prompt); ok {
		return cached.(*datastore.Question), nil
	}
	question, err := s.store.QuestionByPrompt(prompt)
	if err != nil {
		return nil, err
	}
	s.questions.SetDefault(prompt, question)
	return question, nil
}

// syncResponse resolves raw and delegates the operation to its accessor.
func (s *Synchronizer) syncResponse(raw RawResponse, reportID string, op Operation) error {
	acc, key, err := s.resolveResponse(raw, reportID)
	if err != nil {
		return err
	}

	switch op {
	case OpCreate:
		err = acc.getOrCreate(s.store, raw, key)
	case OpUpdate:
		err = acc.update(s.store, raw, key)
	case OpDelete:
		err = acc.delete(s.store, key)
	}
	if err != nil {
		return err
	}

	if s.metrics != nil {
		s.metrics.ResponseSynced(acc.questionType.String(), op.String())
	}
	return nil
}

// interfaces.go: this code defines the interface for the database operations
package datastore

import (
	"maps"
	"strings"

	"github.com/datums-app/datums-go/internal/conf"
	"github.com/datums-app/datums-go/internal/errors"
	"gorm.io/gorm"
)

// Interface abstracts the underlying database implementation and defines the
// record repository consumed by the sync pipeline. GetOrCreate, Update and
// Delete operate on attribute maps keyed by column name; deleting a report
// cascades transactionally to every dependent row.
type Interface interface {
	Open() error
	Close() error

	// Generic record operations over the report tree.
	GetOrCreate(kind NodeKind, attrs map[string]any) error
	Update(kind NodeKind, attrs map[string]any) error
	Delete(kind NodeKind, attrs map[string]any) error
	First(kind NodeKind, attrs map[string]any) (map[string]any, error)
	Count(kind NodeKind, attrs map[string]any) (int64, error)

	// Question catalog operations.
	GetOrCreateQuestion(question *Question) error
	UpdateQuestion(question *Question) error
	DeleteQuestion(questionType int, prompt string) error
	QuestionByPrompt(prompt string) (*Question, error)

	// Response operations, keyed by report and question.
	FindResponse(reportID string, questionID uint) (*Response, error)
	CreateResponse(response *Response) error
	SaveResponse(response *Response) error
	DeleteResponse(response *Response) error

	// Schema management.
	Setup() error
	Teardown() error
}

// DataStore implements Interface using a GORM database.
type DataStore struct {
	DB *gorm.DB // GORM database instance
}

// New creates a new datastore instance based on the provided settings.
func New(settings *conf.Settings) Interface {
	switch {
	case settings.Output.SQLite.Enabled:
		return &SQLiteStore{
			Settings: settings,
		}
	case settings.Output.MySQL.Enabled:
		return &MySQLStore{
			Settings: settings,
		}
	default:
		return nil
	}
}

// GetOrCreate returns without writing if a record matching every attribute
// already exists, otherwise it inserts a new record with those attributes.
// Re-running the same insert is therefore a no-op; an insert whose identifier
// exists with different values surfaces as a conflict.
func (ds *DataStore) GetOrCreate(kind NodeKind, attrs map[string]any) error {
	var count int64
	if err := ds.DB.Model(kind.blank()).Where(attrs).Count(&count).Error; err != nil {
		return dbError(err, kind, "get_or_create")
	}
	if count > 0 {
		return nil
	}
	if err := ds.DB.Model(kind.blank()).Create(attrs).Error; err != nil {
		return dbError(err, kind, "create")
	}
	return nil
}

// Update overwrites the fields of the record identified by attrs["id"]. If no
// such record exists it falls back to GetOrCreate with the full attribute set.
func (ds *DataStore) Update(kind NodeKind, attrs map[string]any) error {
	id, ok := attrs["id"]
	if !ok {
		return errors.Newf("update of %s requires an id attribute", kind).
			Component("datastore").
			Category(errors.CategoryValidation).
			Build()
	}

	var count int64
	if err := ds.DB.Model(kind.blank()).Where("id = ?", id).Count(&count).Error; err != nil {
		return dbError(err, kind, "update")
	}
	if count == 0 {
		return ds.GetOrCreate(kind, attrs)
	}

	updates := maps.Clone(attrs)
	delete(updates, "id")
	if len(updates) == 0 {
		return nil
	}
	if err := ds.DB.Model(kind.blank()).Where("id = ?", id).Updates(updates).Error; err != nil {
		return dbError(err, kind, "update")
	}
	return nil
}

// Delete removes the record matching attrs, if any. For reports the schema's
// foreign keys cascade the delete to every dependent row.
func (ds *DataStore) Delete(kind NodeKind, attrs map[string]any) error {
	if err := ds.DB.Where(attrs).Delete(kind.blank()).Error; err != nil {
		return dbError(err, kind, "delete")
	}
	return nil
}

// First returns the first record matching attrs as a column→value map.
func (ds *DataStore) First(kind NodeKind, attrs map[string]any) (map[string]any, error) {
	row := map[string]any{}
	err := ds.DB.Model(kind.blank()).Where(attrs).Take(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("no %s record matches", kind).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return nil, dbError(err, kind, "first")
	}
	return row, nil
}

// Count returns the number of records matching attrs.
func (ds *DataStore) Count(kind NodeKind, attrs map[string]any) (int64, error) {
	var count int64
	if err := ds.DB.Model(kind.blank()).Where(attrs).Count(&count).Error; err != nil {
		return 0, dbError(err, kind, "count")
	}
	return count, nil
}

// GetOrCreateQuestion inserts the question unless an entry with the same type
// and prompt already exists.
func (ds *DataStore) GetOrCreateQuestion(question *Question) error {
	var existing Question
	err := ds.DB.Where(map[string]any{"type": question.Type, "prompt": question.Prompt}).
		First(&existing).Error
	if err == nil {
		*question = existing
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dbErrorf(err, "get_or_create_question")
	}
	if err := ds.DB.Create(question).Error; err != nil {
		return dbErrorf(err, "create_question")
	}
	return nil
}

// UpdateQuestion rewrites the type of the question with the given prompt,
// creating the question if the prompt is unknown.
func (ds *DataStore) UpdateQuestion(question *Question) error {
	var existing Question
	err := ds.DB.Where("prompt = ?", question.Prompt).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ds.GetOrCreateQuestion(question)
	}
	if err != nil {
		return dbErrorf(err, "update_question")
	}
	existing.Type = question.Type
	if err := ds.DB.Save(&existing).Error; err != nil {
		return dbErrorf(err, "update_question")
	}
	*question = existing
	return nil
}

// DeleteQuestion removes the question matching type and prompt; responses
// referencing it are removed by the cascade.
func (ds *DataStore) DeleteQuestion(questionType int, prompt string) error {
	err := ds.DB.Where(map[string]any{"type": questionType, "prompt": prompt}).
		Delete(&Question{}).Error
	if err != nil {
		return dbErrorf(err, "delete_question")
	}
	return nil
}

// QuestionByPrompt resolves a question by its prompt text.
func (ds *DataStore) QuestionByPrompt(prompt string) (*Question, error) {
	var question Question
	err := ds.DB.Where("prompt = ?", prompt).First(&question).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, errors.Newf("no question matches prompt %q", prompt).
				Component("datastore").
				Category(errors.CategoryNotFound).
				Build()
		}
		return nil, dbErrorf(err, "question_by_prompt")
	}
	return &question, nil
}

// FindResponse returns the response for the report/question pair, or nil if
// none exists.
func (ds *DataStore) FindResponse(reportID string, questionID uint) (*Response, error) {
	var response Response
	err := ds.DB.Where(map[string]any{"report_id": reportID, "question_id": questionID}).
		First(&response).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, dbErrorf(err, "find_response")
	}
	return &response, nil
}

// CreateResponse inserts a new response row.
func (ds *DataStore) CreateResponse(response *Response) error {
	if err := ds.DB.Create(response).Error; err != nil {
		return dbErrorf(err, "create_response")
	}
	return nil
}

// SaveResponse persists all fields of an existing response row.
func (ds *DataStore) SaveResponse(response *Response) error {
	if err := ds.DB.Save(response).Error; err != nil {
		return dbErrorf(err, "save_response")
	}
	return nil
}

// DeleteResponse removes a response row.
func (ds *DataStore) DeleteResponse(response *Response) error {
	if err := ds.DB.Delete(response).Error; err != nil {
		return dbErrorf(err, "delete_response")
	}
	return nil
}

// dbError wraps a storage error with component and category metadata.
// Uniqueness violations surface as conflicts so callers can tell idempotency
// collisions from plain failures.
func dbError(err error, kind NodeKind, operation string) error {
	category := errors.CategoryDatabase
	if isUniqueViolation(err) {
		category = errors.CategoryConflict
	}
	return errors.New(err).
		Component("datastore").
		Category(category).
		Context("operation", operation).
		Context("kind", kind.String()).
		Build()
}

func dbErrorf(err error, operation string) error {
	category := errors.CategoryDatabase
	if isUniqueViolation(err) {
		category = errors.CategoryConflict
	}
	return errors.New(err).
		Component("datastore").
		Category(category).
		Context("operation", operation).
		Build()
}

// isUniqueViolation reports whether err is a uniqueness/constraint violation
// on either supported database.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate entry") ||
		strings.Contains(msg, "constraint failed")
}

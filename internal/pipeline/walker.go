// walker.go: recursive partitioning of a report document into repository calls
package pipeline

import (
	"fmt"
	"maps"
	"slices"

	"github.com/datums-app/datums-go/internal/datastore"
	"github.com/datums-app/datums-go/internal/errors"
	"github.com/google/uuid"
)

// Operation selects the repository call a walk feeds into. The altitude
// identifier rule depends on it: a missing identifier is synthesized on
// create and skipped with a warning otherwise.
type Operation int

const (
	OpCreate Operation = iota
	OpUpdate
	OpDelete
)

func (o Operation) String() string {
	switch o {
	case OpCreate:
		return "create"
	case OpUpdate:
		return "update"
	case OpDelete:
		return "delete"
	default:
		return "unknown"
	}
}

// Warning records a non-fatal condition encountered while walking a document.
// Warnings never abort a synchronization, they are logged and reported back.
type Warning struct {
	Kind    datastore.NodeKind
	Field   string
	Message string
}

// nestedNode is a nested sub-document annotated with its resolved kind, ready
// for a recursive walk.
type nestedNode struct {
	kind datastore.NodeKind
	doc  Document
}

// walkNode partitions doc into a mapped top-level attribute set and the list
// of nested sub-documents. Scalar fields are coerced and renamed to column
// names; unsupported fields are dropped with a warning. Nested documents get
// the current node's coerced identifier injected as parent linkage, renamed
// for the placemark case whose parent is the location report.
func walkNode(kind datastore.NodeKind, doc Document, op Operation) (map[string]any, []nestedNode, []Warning, error) {
	attrs := make(map[string]any, len(doc))
	var nested []nestedNode
	var warnings []Warning
	keyMap := keyMapFor(kind)

	for _, key := range slices.Sorted(maps.Keys(doc)) {
		value := doc[key]

		if childDoc, ok := value.(map[string]any); ok {
			childKind, ok := childKindFor(kind, key)
			if !ok {
				warnings = append(warnings, Warning{
					Kind:    kind,
					Field:   key,
					Message: fmt.Sprintf("unsupported nested document %q in %s, skipping", key, kind),
				})
				continue
			}

			parentID, err := coerceUUID(doc["uniqueIdentifier"])
			if err != nil {
				return nil, nil, warnings, errors.Newf("%s has no usable identifier for nested %s: %w", kind, childKind, err).
					Component("pipeline").
					Category(errors.CategoryValidation).
					Build()
			}

			child := Document(maps.Clone(childDoc))
			linkKey := "reportUniqueIdentifier"
			if childKind == datastore.KindPlacemark {
				// The placemark's parent is the location report.
				linkKey = "locationUniqueIdentifier"
			}
			child[linkKey] = parentID

			if childKind == datastore.KindAltitude {
				if _, ok := child["uniqueIdentifier"]; !ok {
					if op != OpCreate {
						// Synthesizing an identifier here would orphan a row:
						// the identifier is the conflict-detection key, and an
						// invented one can never match an existing record.
						warnings = append(warnings, Warning{
							Kind:    childKind,
							Field:   "uniqueIdentifier",
							Message: fmt.Sprintf("no uniqueIdentifier for altitude report in %v, existing altitude report will not be %sd", parentID, op),
						})
						continue
					}
					child["uniqueIdentifier"] = uuid.NewString()
				}
			}

			nested = append(nested, nestedNode{kind: childKind, doc: child})
			continue
		}

		column, ok := keyMap[key]
		if !ok {
			warnings = append(warnings, Warning{
				Kind:    kind,
				Field:   key,
				Message: fmt.Sprintf("unsupported field %q in %s, skipping", key, kind),
			})
			continue
		}

		if coerce, ok := coercionFor(key); ok {
			coerced, err := coerce(value)
			if err != nil {
				return nil, nil, warnings, err
			}
			value = coerced
		}
		attrs[column] = value
	}

	return attrs, nested, warnings, nil
}

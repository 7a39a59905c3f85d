// Package reporter locates and loads Reporter JSON export files.
package reporter

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/antonholmquist/jason"
	"github.com/datums-app/datums-go/internal/errors"
	"github.com/datums-app/datums-go/internal/pipeline"
)

// DiscoverExports returns the sorted list of JSON export files in dir.
func DiscoverExports(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.New(err).
			Component("reporter").
			Category(errors.CategoryFileIO).
			Context("dir", dir).
			Build()
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		files = append(files, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(files)
	return files, nil
}

// LoadExport reads one export file and returns its report documents. Reporter
// wraps a day's reports in a {"snapshots": [...]} envelope; a file holding a
// single bare report document is accepted too.
func LoadExport(path string) ([]pipeline.Document, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.New(err).
			Component("reporter").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}
	defer f.Close()

	root, err := jason.NewObjectFromReader(f)
	if err != nil {
		return nil, parseError(err, path)
	}

	snapshots, err := root.GetObjectArray("snapshots")
	if err != nil {
		// No envelope, treat the whole file as one report document.
		doc, err := documentFromValue(&root.Value)
		if err != nil {
			return nil, parseError(err, path)
		}
		return []pipeline.Document{doc}, nil
	}

	docs := make([]pipeline.Document, 0, len(snapshots))
	for _, snapshot := range snapshots {
		doc, err := documentFromValue(&snapshot.Value)
		if err != nil {
			return nil, parseError(err, path)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// LoadQuestions reads a question catalog seed file, a JSON array of
// {questionType, prompt} entries.
func LoadQuestions(path string) ([]pipeline.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New(err).
			Component("reporter").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	value, err := jason.NewValueFromBytes(data)
	if err != nil {
		return nil, parseError(err, path)
	}
	entries, err := value.Array()
	if err != nil {
		return nil, parseError(errors.NewStd("question catalog is not a JSON array"), path)
	}

	docs := make([]pipeline.Document, 0, len(entries))
	for _, entry := range entries {
		doc, err := documentFromValue(entry)
		if err != nil {
			return nil, parseError(err, path)
		}
		docs = append(docs, doc)
	}
	return docs, nil
}

// documentFromValue re-decodes a jason value into the generic map shape the
// pipeline works with. jason keeps numbers as json.Number internally; going
// through encoding/json yields float64 throughout, and rejects values that
// are not JSON objects.
func documentFromValue(value *jason.Value) (pipeline.Document, error) {
	data, err := value.Marshal()
	if err != nil {
		return nil, err
	}
	var doc map[string]any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, errors.NewStd("entry is not a JSON object")
	}
	return doc, nil
}

func parseError(err error, path string) error {
	return errors.New(err).
		Component("reporter").
		Category(errors.CategoryFileParsing).
		Context("path", path).
		Build()
}

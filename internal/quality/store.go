package quality

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
)

// ResultStore persists suites and validation results for the context
// validator.
type ResultStore interface {
	// GetOrCreateSuite stores def unless a suite with the same name exists,
	// and reports whether it was created.
	GetOrCreateSuite(ctx context.Context, def SuiteDefinition) (bool, error)
	// LoadSuite returns the stored suite with the given name.
	LoadSuite(ctx context.Context, name string) (SuiteDefinition, error)
	SaveResult(ctx context.Context, res *Result) error
	Close(ctx context.Context) error
}

// FileStore keeps suites and results as JSON files under Dir:
//
//	<Dir>/expectations/<suite>.json
//	<Dir>/validations/<suite>/<timestamp>-<id>.json
type FileStore struct {
	Dir string
}

// NewFileStore creates the directory layout and checks that it is writable.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("quality: data dir is empty")
	}
	for _, sub := range []string{"expectations", "validations"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("quality: create %s: %w", sub, err)
		}
	}
	if err := CheckWritable(dir); err != nil {
		return nil, err
	}
	return &FileStore{Dir: dir}, nil
}

// CheckWritable creates dir if needed and writes a probe file into it.
func CheckWritable(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("quality: create %s: %w", dir, err)
	}
	f, err := os.CreateTemp(dir, ".probe-*")
	if err != nil {
		return fmt.Errorf("quality: %s is not writable: %w", dir, err)
	}
	name := f.Name()
	f.Close()
	return os.Remove(name)
}

func (s *FileStore) GetOrCreateSuite(ctx context.Context, def SuiteDefinition) (bool, error) {
	path := filepath.Join(s.Dir, "expectations", fileName(def.Name)+".json")
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("quality: stat suite: %w", err)
	}
	if err := writeJSON(path, def); err != nil {
		return false, err
	}
	return true, nil
}

func (s *FileStore) LoadSuite(ctx context.Context, name string) (SuiteDefinition, error) {
	var def SuiteDefinition
	data, err := os.ReadFile(filepath.Join(s.Dir, "expectations", fileName(name)+".json"))
	if err != nil {
		return def, fmt.Errorf("quality: read suite %s: %w", name, err)
	}
	if err := json.Unmarshal(data, &def); err != nil {
		return def, fmt.Errorf("quality: parse suite %s: %w", name, err)
	}
	return def, nil
}

func (s *FileStore) SaveResult(ctx context.Context, res *Result) error {
	dir := filepath.Join(s.Dir, "validations", fileName(res.Suite))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("quality: create %s: %w", dir, err)
	}
	name := res.EvaluatedAt.UTC().Format("20060102T150405Z") + "-" + res.ID + ".json"
	return writeJSON(filepath.Join(dir, name), res)
}

func (s *FileStore) Close(ctx context.Context) error { return nil }

var unsafeChars = regexp.MustCompile(`[^A-Za-z0-9_.-]`)

func fileName(name string) string {
	return unsafeChars.ReplaceAllString(name, "_")
}

func writeJSON(path string, v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("quality: encode %s: %w", filepath.Base(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("quality: write %s: %w", path, err)
	}
	return nil
}

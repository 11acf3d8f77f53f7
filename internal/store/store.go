// Package store is the findings store: a per-run artifact directory with
// write-once keys. Keys are assigned by the plan builder before any worker
// starts, so no two writers ever contend for the same key and no locking is
// needed around artifact writes.
//
// Run layout:
//
//	run-{id}/
//	  plan                  classification + thread specs
//	  finding-{threadId}    one per thread, 0..N present
//	  final-output          exactly one, produced last
package store

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/surveyorhq/surveyor/pkg/models"
)

// Artifact file names inside a run directory.
const (
	planArtifact        = "plan"
	findingPrefix       = "finding-"
	finalOutputArtifact = "final-output"
)

// DefaultDataDir returns the base directory for run artifacts,
// honoring XDG_DATA_HOME.
func DefaultDataDir() string {
	dataDir := os.Getenv("XDG_DATA_HOME")
	if dataDir == "" {
		home, _ := os.UserHomeDir()
		dataDir = filepath.Join(home, ".local", "share")
	}
	return filepath.Join(dataDir, "surveyor", "runs")
}

// RunStore is the artifact space for a single run.
type RunStore struct {
	runID string
	dir   string
}

// NewRunStore creates the run directory under baseDir and returns its store.
func NewRunStore(baseDir, runID string) (*RunStore, error) {
	dir := filepath.Join(baseDir, "run-"+runID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, &StorageError{Op: "create run directory", Path: dir, Err: err}
	}
	return &RunStore{runID: runID, dir: dir}, nil
}

// OpenRunStore opens an existing run directory without creating it.
func OpenRunStore(baseDir, runID string) (*RunStore, error) {
	dir := filepath.Join(baseDir, "run-"+runID)
	info, err := os.Stat(dir)
	if err != nil {
		return nil, &StorageError{Op: "open run directory", Path: dir, Err: err}
	}
	if !info.IsDir() {
		return nil, &StorageError{Op: "open run directory", Path: dir, Err: fmt.Errorf("not a directory")}
	}
	return &RunStore{runID: runID, dir: dir}, nil
}

// RunID returns the run identifier.
func (s *RunStore) RunID() string {
	return s.runID
}

// Dir returns the run directory path.
func (s *RunStore) Dir() string {
	return s.dir
}

// WritePlan persists the plan artifact. The plan is written exactly once,
// before any worker starts.
func (s *RunStore) WritePlan(p *models.Plan) error {
	return s.writeOnce(planArtifact, p)
}

// ReadPlan loads the plan artifact.
func (s *RunStore) ReadPlan() (*models.Plan, error) {
	var p models.Plan
	if err := s.read(planArtifact, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// WriteFinding persists a finding under its thread key. Each key accepts
// exactly one write; a second write to the same key is a storage error
// because it means two workers shared a key.
func (s *RunStore) WriteFinding(f *models.Finding) error {
	if f.ThreadID == "" {
		return &StorageError{Op: "write finding", Path: s.dir, Err: fmt.Errorf("finding has empty thread ID")}
	}
	return s.writeOnce(findingPrefix+f.ThreadID, f)
}

// ReadFinding loads the finding for a thread. The boolean is false when the
// thread produced no finding, which is a normal condition at barrier time.
func (s *RunStore) ReadFinding(threadID string) (*models.Finding, bool, error) {
	var f models.Finding
	err := s.read(findingPrefix+threadID, &f)
	if err != nil {
		var serr *StorageError
		if ok := asStorageError(err, &serr); ok && os.IsNotExist(serr.Err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return &f, true, nil
}

// Findings loads every finding that exists for the given thread IDs, keyed
// by thread ID. Absent findings are simply omitted.
func (s *RunStore) Findings(threadIDs []string) (map[string]*models.Finding, error) {
	found := make(map[string]*models.Finding)
	for _, id := range threadIDs {
		f, ok, err := s.ReadFinding(id)
		if err != nil {
			return nil, err
		}
		if ok {
			found[id] = f
		}
	}
	return found, nil
}

// WriteFinalOutput persists the terminal artifact of the run.
func (s *RunStore) WriteFinalOutput(out *models.FinalOutput) error {
	return s.writeOnce(finalOutputArtifact, out)
}

// ReadFinalOutput loads the final output artifact.
func (s *RunStore) ReadFinalOutput() (*models.FinalOutput, error) {
	var out models.FinalOutput
	if err := s.read(finalOutputArtifact, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// writeOnce marshals v and writes it to the named artifact. The write is
// staged to a temp file and renamed into place so watchers never observe a
// partial artifact. An existing artifact makes the write fail.
func (s *RunStore) writeOnce(name string, v any) error {
	path := filepath.Join(s.dir, name)

	if _, err := os.Stat(path); err == nil {
		return &StorageError{Op: "write " + name, Path: path, Err: ErrArtifactExists}
	}

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &StorageError{Op: "encode " + name, Path: path, Err: err}
	}

	tmp := filepath.Join(s.dir, ".tmp-"+name)
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return &StorageError{Op: "stage " + name, Path: tmp, Err: err}
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return &StorageError{Op: "write " + name, Path: path, Err: err}
	}
	return nil
}

// read loads and unmarshals the named artifact into v.
func (s *RunStore) read(name string, v any) error {
	path := filepath.Join(s.dir, name)

	data, err := os.ReadFile(path)
	if err != nil {
		return &StorageError{Op: "read " + name, Path: path, Err: err}
	}
	if err := json.Unmarshal(data, v); err != nil {
		return &StorageError{Op: "decode " + name, Path: path, Err: err}
	}
	return nil
}

// ListRuns returns the run IDs present under baseDir, unordered.
func ListRuns(baseDir string) ([]string, error) {
	entries, err := os.ReadDir(baseDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, &StorageError{Op: "list runs", Path: baseDir, Err: err}
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() && strings.HasPrefix(entry.Name(), "run-") {
			ids = append(ids, strings.TrimPrefix(entry.Name(), "run-"))
		}
	}
	return ids, nil
}

package store

import (
	"context"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// ArtifactKind identifies which run artifact an event refers to.
type ArtifactKind string

const (
	// ArtifactPlan is the plan artifact.
	ArtifactPlan ArtifactKind = "plan"
	// ArtifactFinding is a per-thread finding artifact.
	ArtifactFinding ArtifactKind = "finding"
	// ArtifactFinalOutput is the terminal output artifact.
	ArtifactFinalOutput ArtifactKind = "final-output"
)

// ArtifactEvent is one observable write inside a run directory: the plan
// landing, a finding landing, or the final output landing.
type ArtifactEvent struct {
	// Kind is which artifact was written.
	Kind ArtifactKind
	// ThreadID is set for finding events.
	ThreadID string
	// Path is the artifact's path on disk.
	Path string
}

// Watcher follows a run directory and surfaces artifact writes. Artifacts
// are renamed into place atomically, so a create event always refers to a
// complete artifact.
type Watcher struct {
	watcher *fsnotify.Watcher
	events  chan ArtifactEvent
}

// WatchRun starts watching the given run store's directory. Events are
// delivered until ctx is canceled, after which the channel closes.
func WatchRun(ctx context.Context, s *RunStore) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, &StorageError{Op: "create watcher", Path: s.Dir(), Err: err}
	}
	if err := fsw.Add(s.Dir()); err != nil {
		fsw.Close()
		return nil, &StorageError{Op: "watch run directory", Path: s.Dir(), Err: err}
	}

	w := &Watcher{
		watcher: fsw,
		events:  make(chan ArtifactEvent, 16),
	}
	go w.loop(ctx)
	return w, nil
}

// Events returns the artifact event channel.
func (w *Watcher) Events() <-chan ArtifactEvent {
	return w.events
}

// loop translates fsnotify events into artifact events.
func (w *Watcher) loop(ctx context.Context) {
	defer close(w.events)
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			// Artifacts appear via rename from a staging file, which
			// fsnotify reports as Create.
			if !event.Has(fsnotify.Create) {
				continue
			}
			ae, ok := classifyArtifact(event.Name)
			if !ok {
				continue
			}
			select {
			case w.events <- ae:
			case <-ctx.Done():
				return
			}
		case _, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			// Watch errors are non-fatal for observers; the artifacts
			// themselves are still on disk.
		}
	}
}

// classifyArtifact maps a file path to an artifact event. Staging files and
// unknown names are ignored.
func classifyArtifact(path string) (ArtifactEvent, bool) {
	name := filepath.Base(path)
	switch {
	case strings.HasPrefix(name, "."):
		return ArtifactEvent{}, false
	case name == planArtifact:
		return ArtifactEvent{Kind: ArtifactPlan, Path: path}, true
	case name == finalOutputArtifact:
		return ArtifactEvent{Kind: ArtifactFinalOutput, Path: path}, true
	case strings.HasPrefix(name, findingPrefix):
		return ArtifactEvent{
			Kind:     ArtifactFinding,
			ThreadID: strings.TrimPrefix(name, findingPrefix),
			Path:     path,
		}, true
	default:
		return ArtifactEvent{}, false
	}
}

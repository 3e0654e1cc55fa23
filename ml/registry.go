package ml

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// ModelRegistry owns the classifier shared by all requests.
type ModelRegistry struct {
	modelType string
	path      string
	schema    Schema
	logger    *zap.Logger

	mu      sync.RWMutex
	clf     Classifier
	loadErr error

	// OnReload, if set, is called after every reload attempt.
	OnReload func(err error)
}

// NewModelRegistry does not load anything; call Load. An empty schema
// means DefaultSchema.
func NewModelRegistry(modelType, path string, schema Schema, logger *zap.Logger) *ModelRegistry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(schema) == 0 {
		schema = DefaultSchema()
	}
	return &ModelRegistry{
		modelType: modelType,
		path:      path,
		schema:    schema,
		logger:    logger,
		loadErr:   ErrModelUnavailable,
	}
}

// Load reads the artifact. On failure the previously loaded classifier,
// if any, stays in place.
func (r *ModelRegistry) Load() error {
	clf, err := LoadModel(r.modelType, r.path)

	r.mu.Lock()
	defer r.mu.Unlock()
	if err != nil {
		if r.clf == nil {
			r.loadErr = err
		}
		return err
	}
	r.clf = clf
	r.loadErr = nil
	r.logger.Info("model loaded",
		zap.String("type", r.modelType),
		zap.String("path", r.path),
		zap.Int("columns", len(r.schemaLocked())))
	return nil
}

// Set installs clf directly.
func (r *ModelRegistry) Set(clf Classifier) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.clf = clf
	if clf == nil {
		r.loadErr = ErrModelUnavailable
	} else {
		r.loadErr = nil
	}
}

// Current returns the loaded classifier, or an error wrapping
// ErrModelUnavailable.
func (r *ModelRegistry) Current() (Classifier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.currentLocked()
}

// Snapshot returns the classifier together with the schema it was trained
// on, read under one lock so a concurrent reload cannot pair them wrongly.
func (r *ModelRegistry) Snapshot() (Classifier, Schema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	clf, err := r.currentLocked()
	if err != nil {
		return nil, nil, err
	}
	return clf, r.schemaLocked(), nil
}

func (r *ModelRegistry) currentLocked() (Classifier, error) {
	if r.clf == nil {
		if r.loadErr != nil && r.loadErr != ErrModelUnavailable {
			return nil, fmt.Errorf("%w: %w", ErrModelUnavailable, r.loadErr)
		}
		return nil, ErrModelUnavailable
	}
	return r.clf, nil
}

func (r *ModelRegistry) Available() bool {
	_, err := r.Current()
	return err == nil
}

func (r *ModelRegistry) ModelType() string {
	return r.modelType
}

// Schema is the artifact's own column list when it has one, otherwise the
// configured schema.
func (r *ModelRegistry) Schema() Schema {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.schemaLocked()
}

func (r *ModelRegistry) schemaLocked() Schema {
	if cp, ok := r.clf.(ColumnProvider); ok {
		if cols := cp.Columns(); len(cols) > 0 {
			return cols
		}
	}
	return append(Schema(nil), r.schema...)
}

// Watch reloads the artifact whenever it is written or replaced, until
// ctx is done.
func (r *ModelRegistry) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	target := filepath.Clean(r.path)
	// Watch the directory so atomic renames onto the path are seen.
	if err := watcher.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(target), err)
	}
	r.logger.Info("watching model artifact", zap.String("path", target))

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			err := r.Load()
			if err != nil {
				r.logger.Error("model reload failed, keeping previous model",
					zap.String("path", target), zap.Error(err))
			}
			if r.OnReload != nil {
				r.OnReload(err)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			r.logger.Warn("model watcher error", zap.Error(err))
		}
	}
}

package rulefile

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"

	"github.com/harriteja/reqguard/pkg/logger"
	"github.com/harriteja/reqguard/pkg/types"
)

// DefaultDebounce collapses the burst of events editors emit on save
const DefaultDebounce = 100 * time.Millisecond

// Watcher reloads a rule file when it changes on disk
type Watcher struct {
	path     string
	onChange func(*File)
	logger   types.Logger
	debounce time.Duration
	watcher  *fsnotify.Watcher
}

// WatcherOption configures a Watcher
type WatcherOption func(*Watcher)

// WithWatcherLogger sets the logger for reload outcomes
func WithWatcherLogger(l types.Logger) WatcherOption {
	return func(w *Watcher) {
		w.logger = l
	}
}

// WithDebounce sets how long to wait after the last event before reloading
func WithDebounce(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		w.debounce = d
	}
}

// NewWatcher watches path. The parent directory is watched so that editors
// replacing the file by rename are still noticed.
func NewWatcher(path string, onChange func(*File), opts ...WatcherOption) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to resolve rule file path")
	}

	w := &Watcher{
		path:     abs,
		onChange: onChange,
		debounce: DefaultDebounce,
	}
	for _, opt := range opts {
		opt(w)
	}
	w.logger = logger.OrDefault(w.logger).With(types.LogField{Key: "rules", Value: abs})

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "failed to create file watcher")
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		_ = fw.Close()
		return nil, errors.Wrap(err, "failed to watch rule file directory")
	}
	w.watcher = fw
	return w, nil
}

// Run delivers reloads until ctx is done. A file that fails to load is logged
// and the caller keeps whatever it loaded last.
func (w *Watcher) Run(ctx context.Context) error {
	defer w.watcher.Close()

	debounce := time.NewTimer(w.debounce)
	if !debounce.Stop() {
		<-debounce.C
	}

	for {
		select {
		case <-ctx.Done():
			debounce.Stop()
			return nil
		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) {
				debounce.Reset(w.debounce)
			}
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("Error watching rule file", types.LogField{Key: "error", Value: err.Error()})
		case <-debounce.C:
			w.reload()
		}
	}
}

func (w *Watcher) reload() {
	f, err := Load(w.path)
	if err != nil {
		w.logger.Error("Failed to reload rule file, keeping previous rules",
			types.LogField{Key: "error", Value: err.Error()})
		return
	}
	w.logger.Info("Rule file reloaded",
		types.LogField{Key: "rulesets", Value: len(f.RuleSets)},
		types.LogField{Key: "routes", Value: len(f.Routes)},
	)
	if w.onChange != nil {
		w.onChange(f)
	}
}

// Close stops watching without waiting for Run
func (w *Watcher) Close() error {
	return w.watcher.Close()
}

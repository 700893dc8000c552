package llheap

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fsnotify/fsnotify"
)

// tunableFile is the on-disk shape a ConfigWatcher reloads. Both fields are
// optional; a zero value leaves the corresponding knob untouched.
type tunableFile struct {
	ExtendAmount  uintptr `json:"extend_amount"`
	MmapCrossover uintptr `json:"mmap_crossover"`
}

// ConfigWatcher applies spec.md §6's configure() knobs from a JSON file
// whenever it changes on disk, so a long-running host process can retune
// the allocator without a restart. Grounded on
// internal/runtime/vfs/watch_fsnotify.go's fsnotify.NewWatcher usage.
type ConfigWatcher struct {
	master *HeapMaster
	watch  *fsnotify.Watcher
	path   string
}

// WatchConfigFile starts watching path for changes, applying it once
// immediately. The returned ConfigWatcher must be stopped with Close.
func WatchConfigFile(m *HeapMaster, path string) (*ConfigWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("llheap: config watcher: %w", err)
	}

	cw := &ConfigWatcher{master: m, watch: w, path: path}

	if err := cw.reload(); err != nil {
		_ = w.Close()
		return nil, err
	}

	if err := w.Add(path); err != nil {
		_ = w.Close()
		return nil, fmt.Errorf("llheap: config watcher: %w", err)
	}

	return cw, nil
}

// Run blocks, applying reloads as fsnotify reports them, until ctx is
// canceled or Close is called.
func (cw *ConfigWatcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-cw.watch.Events:
			if !ok {
				return nil
			}

			if ev.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				_ = cw.reload()
			}
		case err, ok := <-cw.watch.Errors:
			if !ok {
				return nil
			}

			fatalf(cw.master.StatsFD(), "config watcher: %v", err)
		}
	}
}

func (cw *ConfigWatcher) reload() error {
	data, err := os.ReadFile(cw.path)
	if err != nil {
		return fmt.Errorf("llheap: config watcher: %w", err)
	}

	var t tunableFile
	if err := json.Unmarshal(data, &t); err != nil {
		return fmt.Errorf("llheap: config watcher: invalid json: %w", err)
	}

	if t.ExtendAmount != 0 {
		if err := cw.master.Configure(ConfigExtendAmount, t.ExtendAmount); err != nil {
			return err
		}
	}

	if t.MmapCrossover != 0 {
		if err := cw.master.Configure(ConfigMmapCrossover, t.MmapCrossover); err != nil {
			return err
		}
	}

	return nil
}

// Close stops the underlying fsnotify watcher.
func (cw *ConfigWatcher) Close() error {
	return cw.watch.Close()
}

package main

import (
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"crucible/internal/logging"
)

// rulesetWatcher hot-reloads a ruleset directory: any create/write of a
// .yaml/.yml file triggers reload, the CLI analogue of CLIPS's
// `(batch-watch <dir>)` picking up edited source on disk.
type rulesetWatcher struct {
	w    *fsnotify.Watcher
	done chan struct{}
}

// watchRulesetDir starts watching dir, invoking reload (with the changed
// file's path) whenever a YAML file inside it is created or written.
// reload errors are logged, not fatal — a typo'd mid-edit file shouldn't
// kill the session.
func watchRulesetDir(dir string, reload func(path string) error) (*rulesetWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := w.Add(dir); err != nil {
		_ = w.Close()
		return nil, err
	}

	rw := &rulesetWatcher{w: w, done: make(chan struct{})}
	go rw.loop(reload)
	logging.Get(logging.CategoryCLI).Infof("watching %s for ruleset changes", dir)
	return rw, nil
}

func (rw *rulesetWatcher) loop(reload func(path string) error) {
	defer close(rw.done)
	for {
		select {
		case ev, ok := <-rw.w.Events:
			if !ok {
				return
			}
			if !isYAML(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			logging.Get(logging.CategoryCLI).Infof("ruleset file changed: %s", ev.Name)
			if err := reload(ev.Name); err != nil {
				logging.Get(logging.CategoryCLI).Warnf("reload %s: %v", ev.Name, err)
			}
		case err, ok := <-rw.w.Errors:
			if !ok {
				return
			}
			logging.Get(logging.CategoryCLI).Warnf("watcher: %v", err)
		}
	}
}

func isYAML(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yaml" || ext == ".yml"
}

// Close stops the watcher and waits for its goroutine to exit, so tests
// using goleak see no leaked watcher loop.
func (rw *rulesetWatcher) Close() error {
	err := rw.w.Close()
	<-rw.done
	return err
}

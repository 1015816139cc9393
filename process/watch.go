package process

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// WatchDelay groups bursts of events on one file into a single run.
const WatchDelay = 100 * time.Millisecond

// Watch re-runs the script on every file with a known grammar that is
// written under roots, passing each result to report. It blocks until ctx
// is done. Watching always reads from the OS filesystem and never writes,
// since a write would trigger another run.
func (p *Processor) Watch(ctx context.Context, roots []string, report func(*FileResult)) error {
	if p.opts.Write {
		return errors.New("watch cannot write files in place")
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	for _, root := range roots {
		err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return err
			}
			if !info.IsDir() {
				return nil
			}
			if path != root && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return watcher.Add(path)
		})
		if err != nil {
			return fmt.Errorf("error adding directory to watcher: %w", err)
		}
	}
	p.logger.Debug("Watching", zap.Strings("roots", roots))

	ticker := time.NewTicker(WatchDelay / 2)
	defer ticker.Stop()
	pending := make(map[string]time.Time)

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if _, err := p.language(event.Name); err != nil {
				continue
			}
			pending[event.Name] = time.Now()

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			p.logger.Error("Watch error", zap.Error(err))

		case now := <-ticker.C:
			for path, at := range pending {
				if now.Sub(at) < WatchDelay {
					continue
				}
				delete(pending, path)
				report(p.watched(ctx, path))
			}
		}
	}
}

func (p *Processor) watched(ctx context.Context, path string) *FileResult {
	lang, err := p.language(path)
	if err != nil {
		return &FileResult{Path: path, Err: err}
	}
	e, err := p.engine(lang)
	if err != nil {
		return &FileResult{Path: path, Language: lang.Name(), Err: err}
	}
	return p.file(ctx, e, path, lang.Name())
}

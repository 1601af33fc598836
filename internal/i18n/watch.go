package i18n

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"
)

// WatchOverrides loads locale override files from dir and reloads them when
// they change, until ctx is cancelled.
//
// Override files are named {locale}.yaml and overlay the embedded tables
// key by key, so a partial file only replaces the keys it carries. Files
// that fail to parse are skipped with a warning; the previous table stays
// in effect.
func (t *Translator) WatchOverrides(ctx context.Context, dir string, logger *log.Logger) error {
	if logger == nil {
		logger = log.Default()
	}

	// Initial load before watching so existing overrides apply immediately.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		t.loadOverride(filepath.Join(dir, entry.Name()), logger)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if !strings.HasSuffix(event.Name, ".yaml") {
					continue
				}
				t.loadOverride(event.Name, logger)

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Printf("locale watcher error: %v", err)
			}
		}
	}()

	return nil
}

// loadOverride parses one override file and overlays it onto its locale.
func (t *Translator) loadOverride(path string, logger *log.Logger) {
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Printf("Warning: failed to read locale override %s: %v", path, err)
		return
	}

	table, err := parseTable(data)
	if err != nil {
		logger.Printf("Warning: skipping invalid locale override %s: %v", path, err)
		return
	}

	locale := strings.TrimSuffix(filepath.Base(path), ".yaml")
	t.merge(locale, table)
	logger.Printf("Loaded locale override %s (%d keys)", locale, len(table))
}

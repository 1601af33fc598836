// Package i18n resolves user-facing strings through locale lookup tables.
//
// Tables are nested YAML documents addressed by dotted keys
// ("notifications.updateSuccess"). Lookup rules: the active locale first,
// then the fallback locale, then the key itself - a missing key never
// errors and never renders blank. A nil Translator degrades to raw keys,
// so callers work without the collaborator wired in.
package i18n

import (
	"embed"
	"fmt"
	"io/fs"
	"sort"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed locales/*.yaml
var localeFS embed.FS

// FallbackLocale is consulted when the active locale misses a key.
const FallbackLocale = "en"

// Translator holds the loaded locale tables and the active locale.
// Safe for concurrent use; live reloads swap tables under the lock.
type Translator struct {
	mu     sync.RWMutex
	locale string
	tables map[string]map[string]string // locale -> dotted key -> string
}

// New loads the embedded locale tables and activates the given locale.
// An unknown locale is accepted; every lookup then falls back.
func New(locale string) (*Translator, error) {
	if locale == "" {
		locale = FallbackLocale
	}

	t := &Translator{
		locale: locale,
		tables: make(map[string]map[string]string),
	}

	entries, err := fs.ReadDir(localeFS, "locales")
	if err != nil {
		return nil, fmt.Errorf("failed to read embedded locales: %w", err)
	}

	for _, entry := range entries {
		name := entry.Name()
		if !strings.HasSuffix(name, ".yaml") {
			continue
		}

		data, err := localeFS.ReadFile("locales/" + name)
		if err != nil {
			return nil, fmt.Errorf("failed to read locale file %s: %w", name, err)
		}

		table, err := parseTable(data)
		if err != nil {
			return nil, fmt.Errorf("invalid locale file %s: %w", name, err)
		}

		t.tables[strings.TrimSuffix(name, ".yaml")] = table
	}

	return t, nil
}

// SetLocale switches the active locale.
func (t *Translator) SetLocale(locale string) {
	t.mu.Lock()
	t.locale = locale
	t.mu.Unlock()
}

// Locale returns the active locale.
func (t *Translator) Locale() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.locale
}

// Locales returns the known locales, sorted.
func (t *Translator) Locales() []string {
	t.mu.RLock()
	defer t.mu.RUnlock()

	locales := make([]string, 0, len(t.tables))
	for locale := range t.tables {
		locales = append(locales, locale)
	}
	sort.Strings(locales)
	return locales
}

// T resolves a dotted key in the active locale.
//
// Missing keys fall back to FallbackLocale; a key missing there too is
// returned as-is. A nil Translator always returns the key.
func (t *Translator) T(key string) string {
	if t == nil {
		return key
	}

	t.mu.RLock()
	defer t.mu.RUnlock()

	if table, ok := t.tables[t.locale]; ok {
		if s, ok := table[key]; ok {
			return s
		}
	}

	if t.locale != FallbackLocale {
		if table, ok := t.tables[FallbackLocale]; ok {
			if s, ok := table[key]; ok {
				return s
			}
		}
	}

	return key
}

// merge overlays a parsed table onto a locale, adding the locale if new.
func (t *Translator) merge(locale string, table map[string]string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	existing, ok := t.tables[locale]
	if !ok {
		existing = make(map[string]string)
		t.tables[locale] = existing
	}
	for k, v := range table {
		existing[k] = v
	}
}

// parseTable decodes a nested YAML document into a flat dotted-key table.
func parseTable(data []byte) (map[string]string, error) {
	var nested map[string]interface{}
	if err := yaml.Unmarshal(data, &nested); err != nil {
		return nil, err
	}

	table := make(map[string]string)
	flatten("", nested, table)
	return table, nil
}

func flatten(prefix string, node map[string]interface{}, out map[string]string) {
	for k, v := range node {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		switch val := v.(type) {
		case map[string]interface{}:
			flatten(key, val, out)
		case string:
			out[key] = val
		default:
			out[key] = fmt.Sprintf("%v", val)
		}
	}
}

package localization

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
)

//go:embed locales/*.json
var localeFS embed.FS

// DefaultLang is the fallback for unknown users and missing keys.
const DefaultLang = "en"

// Table holds message templates per language. Templates use
// {placeholder} markers substituted by Render.
type Table struct {
	langs map[string]map[string]string
}

// Load parses every embedded locale file. The file name without
// extension becomes the language code.
func Load() (*Table, error) {
	entries, err := localeFS.ReadDir("locales")
	if err != nil {
		return nil, fmt.Errorf("read locales: %w", err)
	}

	t := &Table{langs: make(map[string]map[string]string)}
	for _, entry := range entries {
		data, err := localeFS.ReadFile("locales/" + entry.Name())
		if err != nil {
			return nil, fmt.Errorf("read locale %s: %w", entry.Name(), err)
		}
		var messages map[string]string
		if err := json.Unmarshal(data, &messages); err != nil {
			return nil, fmt.Errorf("parse locale %s: %w", entry.Name(), err)
		}
		lang := strings.TrimSuffix(entry.Name(), ".json")
		t.langs[lang] = messages
	}

	if _, ok := t.langs[DefaultLang]; !ok {
		return nil, fmt.Errorf("default locale %q is missing", DefaultLang)
	}

	return t, nil
}

// Languages returns the available language codes.
func (t *Table) Languages() []string {
	out := make([]string, 0, len(t.langs))
	for lang := range t.langs {
		out = append(out, lang)
	}
	return out
}

// Has reports whether the language has its own table.
func (t *Table) Has(lang string) bool {
	_, ok := t.langs[lang]
	return ok
}

// Render looks up the key for the language, falling back to the
// default language and then to the key itself, and substitutes
// {name} placeholders from args.
func (t *Table) Render(lang, key string, args map[string]string) string {
	msg, ok := t.langs[lang][key]
	if !ok {
		msg, ok = t.langs[DefaultLang][key]
	}
	if !ok {
		return key
	}
	for name, value := range args {
		msg = strings.ReplaceAll(msg, "{"+name+"}", value)
	}
	return msg
}

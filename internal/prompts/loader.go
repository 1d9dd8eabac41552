// Package prompts embeds the engine's LLM prompt templates. Each JSON file
// maps prompt keys to template text with {{.Key}} placeholders; the llm
// package pulls its extraction and enhancement prompts from here.
package prompts

import (
	"embed"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
)

//go:embed *.json
var templateFS embed.FS

// Parsed files are cached; prompts are read on every model call.
var (
	mu     sync.RWMutex
	parsed = map[string]map[string]string{}
)

// Get returns the template stored under key in the named embedded file
// (e.g., "extraction.json").
func Get(filename, key string) (string, error) {
	templates, err := load(filename)
	if err != nil {
		return "", err
	}

	tmpl, ok := templates[key]
	if !ok {
		return "", fmt.Errorf("prompt key %q not found in %s", key, filename)
	}
	return tmpl, nil
}

// MustGet is Get for prompts required at construction time. A missing file
// or key is a packaging defect, so it panics.
func MustGet(filename, key string) string {
	tmpl, err := Get(filename, key)
	if err != nil {
		panic(fmt.Sprintf("failed to load prompt: %v", err))
	}
	return tmpl
}

// Format substitutes {{.Key}} placeholders with values from data. Unmatched
// placeholders stay in place.
func Format(template string, data map[string]string) string {
	out := template
	for key, value := range data {
		out = strings.ReplaceAll(out, "{{."+key+"}}", value)
	}
	return out
}

func load(filename string) (map[string]string, error) {
	mu.RLock()
	templates, ok := parsed[filename]
	mu.RUnlock()
	if ok {
		return templates, nil
	}

	data, err := templateFS.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read prompt file %s: %w", filename, err)
	}
	if err := json.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse prompt file %s: %w", filename, err)
	}

	mu.Lock()
	parsed[filename] = templates
	mu.Unlock()
	return templates, nil
}

// ClearCache drops parsed files so tests exercise fresh loads.
func ClearCache() {
	mu.Lock()
	parsed = map[string]map[string]string{}
	mu.Unlock()
}

// Package i18n provides the text-lookup function used for every
// user-visible string. Hosts that supply no catalog get the identity lookup.
package i18n

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// Lookup translates a source string.
type Lookup func(string) string

// Identity returns text unchanged.
func Identity(text string) string { return text }

// OrIdentity returns fn, or Identity when fn is nil.
func OrIdentity(fn Lookup) Lookup {
	if fn == nil {
		return Identity
	}
	return fn
}

// Catalog maps source strings to translations.
type Catalog map[string]string

// Lookup returns a Lookup backed by the catalog. Missing entries fall back
// to the source string.
func (c Catalog) Lookup() Lookup {
	if len(c) == 0 {
		return Identity
	}
	return func(text string) string {
		if translated, ok := c[text]; ok && strings.TrimSpace(translated) != "" {
			return translated
		}
		return text
	}
}

// LoadCatalog reads a YAML catalog. An empty path or a missing file yields
// the identity lookup.
func LoadCatalog(path string) (Lookup, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Identity, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Identity, nil
		}
		return nil, fmt.Errorf("i18n: read %s: %w", path, err)
	}
	var catalog Catalog
	if err := yaml.Unmarshal(data, &catalog); err != nil {
		return nil, fmt.Errorf("i18n: parse %s: %w", path, err)
	}
	return catalog.Lookup(), nil
}

package syntax

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// ErrUnknownLanguage is returned when no grammar is registered under a name
// or for a file extension.
var ErrUnknownLanguage = errors.New("unknown language")

// Registry maps language names and file extensions to grammars.
type Registry struct {
	byName map[string]Language
	byExt  map[string]Language
}

// NewRegistry returns a registry holding langs. When two languages claim the
// same extension the later one wins.
func NewRegistry(langs ...Language) *Registry {
	r := &Registry{
		byName: make(map[string]Language),
		byExt:  make(map[string]Language),
	}
	for _, l := range langs {
		r.Register(l)
	}
	return r
}

// Register adds l and its default extensions.
func (r *Registry) Register(l Language) {
	r.byName[strings.ToLower(l.Name())] = l
	for _, ext := range l.Extensions() {
		r.byExt[normalizeExt(ext)] = l
	}
}

// MapExtension routes files with extension ext to the language called name.
func (r *Registry) MapExtension(ext, name string) error {
	l, err := r.Lookup(name)
	if err != nil {
		return err
	}
	r.byExt[normalizeExt(ext)] = l
	return nil
}

// Lookup finds a language by name, ignoring case.
func (r *Registry) Lookup(name string) (Language, error) {
	l, ok := r.byName[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLanguage, name)
	}
	return l, nil
}

// ForFile picks the language for path by its extension.
func (r *Registry) ForFile(path string) (Language, error) {
	ext := filepath.Ext(path)
	l, ok := r.byExt[normalizeExt(ext)]
	if !ok || ext == "" {
		return nil, fmt.Errorf("%w for file %s", ErrUnknownLanguage, path)
	}
	return l, nil
}

// Names returns the registered language names, sorted.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Extensions returns every routed extension, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}

// ExtensionsOf returns the extensions currently routed to the named language.
func (r *Registry) ExtensionsOf(name string) []string {
	var exts []string
	for ext, l := range r.byExt {
		if strings.EqualFold(l.Name(), name) {
			exts = append(exts, ext)
		}
	}
	sort.Strings(exts)
	return exts
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(ext)
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

// Package resources assigns collision-free destination file names to every
// resource file referenced by a project and discovers those references.
package resources

import (
	"path"
	"sort"
	"strconv"
	"strings"
)

// Relocation pairs an original resource path with its destination file name
type Relocation struct {
	OriginalPath string `json:"originalPath" yaml:"originalPath"`
	NewFilename  string `json:"newFilename" yaml:"newFilename"`
}

// Map tracks every distinct resource path and its destination file name.
//
// Destination names are unique regardless of case, contain no character reserved on
// Windows, Linux or macOS, and never change once assigned. A Map is not safe for
// concurrent mutation.
type Map struct {
	byPath map[string]string
	taken  map[string]string // lower-cased destination -> original path, empty when reserved
}

// NewMap creates an empty relocation map
func NewMap() *Map {
	return &Map{
		byPath: make(map[string]string),
		taken:  make(map[string]string),
	}
}

// Expose registers a resource path. Empty paths mean "no file" and are ignored.
func (m *Map) Expose(resourcePath string) {
	m.expose(resourcePath)
}

// Reserve marks names as used by files that are not resources, so no resource is
// ever given one of them. Reserving a name already assigned has no effect on it.
func (m *Map) Reserve(names ...string) {
	for _, name := range names {
		key := strings.ToLower(name)
		if _, used := m.taken[key]; !used {
			m.taken[key] = ""
		}
	}
}

// ExposePath registers the path stored in *field and rewrites the field to the
// destination file name.
func (m *Map) ExposePath(field *string) {
	if field == nil {
		return
	}
	if name, ok := m.expose(*field); ok {
		*field = name
	}
}

// NewFilename returns the destination file name assigned to resourcePath
func (m *Map) NewFilename(resourcePath string) (string, bool) {
	name, ok := m.byPath[resourcePath]
	return name, ok
}

// Len returns the number of distinct registered paths
func (m *Map) Len() int {
	return len(m.byPath)
}

// GetAll returns every relocation, ordered by original path
func (m *Map) GetAll() []Relocation {
	all := make([]Relocation, 0, len(m.byPath))
	for original, name := range m.byPath {
		all = append(all, Relocation{OriginalPath: original, NewFilename: name})
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].OriginalPath < all[j].OriginalPath
	})
	return all
}

func (m *Map) expose(resourcePath string) (string, bool) {
	if resourcePath == "" {
		return "", false
	}
	if name, ok := m.byPath[resourcePath]; ok {
		return name, true
	}

	base := SanitizeFilename(baseName(resourcePath))
	stem, ext := splitExt(base)

	name := base
	for n := 2; ; n++ {
		if _, used := m.taken[strings.ToLower(name)]; !used {
			break
		}
		name = stem + strconv.Itoa(n) + ext
	}

	m.byPath[resourcePath] = name
	m.taken[strings.ToLower(name)] = resourcePath
	return name, true
}

// baseName returns the last element of a path written with either separator
func baseName(p string) string {
	p = strings.ReplaceAll(p, "\\", "/")
	p = strings.TrimRight(p, "/")
	if p == "" {
		return ""
	}
	return path.Base(p)
}

func splitExt(name string) (string, string) {
	ext := path.Ext(name)
	if ext == name {
		return name, ""
	}
	return strings.TrimSuffix(name, ext), ext
}

var reservedDeviceNames = map[string]bool{
	"CON": true, "PRN": true, "AUX": true, "NUL": true,
	"COM1": true, "COM2": true, "COM3": true, "COM4": true, "COM5": true,
	"COM6": true, "COM7": true, "COM8": true, "COM9": true,
	"LPT1": true, "LPT2": true, "LPT3": true, "LPT4": true, "LPT5": true,
	"LPT6": true, "LPT7": true, "LPT8": true, "LPT9": true,
}

// SanitizeFilename turns name into a file name valid on Windows, Linux and macOS
func SanitizeFilename(name string) string {
	var b strings.Builder
	for _, r := range name {
		switch {
		case r < 0x20 || r == 0x7f:
			b.WriteByte('_')
		case strings.ContainsRune(`<>:"/\|?*`, r):
			b.WriteByte('_')
		default:
			b.WriteRune(r)
		}
	}

	clean := strings.TrimRight(b.String(), ". ")
	if clean == "" {
		return "resource"
	}

	stem, _ := splitExt(clean)
	if reservedDeviceNames[strings.ToUpper(stem)] {
		clean = "_" + clean
	}
	return clean
}

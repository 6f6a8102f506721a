package packager

import (
	"sort"

	"github.com/gdexport/gdexport/pkg/types"
)

// Extension names with special packaging rules
const (
	CommonDialogsExtension       = "CommonDialogs"
	BuiltinInstructionsExtension = "BuiltinCommonInstructions"
)

// ExtensionResolver looks up the descriptor of an extension used by a project
type ExtensionResolver interface {
	Resolve(name string) (types.Extension, bool)
}

// Registry is an ExtensionResolver backed by the configured extension descriptors
type Registry struct {
	extensions map[string]types.Extension
}

// NewRegistry creates a registry holding extensions. Later duplicates win.
func NewRegistry(extensions []types.Extension) *Registry {
	r := &Registry{extensions: make(map[string]types.Extension, len(extensions))}
	for _, ext := range extensions {
		r.Register(ext)
	}
	return r
}

// Register adds or replaces an extension descriptor
func (r *Registry) Register(ext types.Extension) {
	r.extensions[ext.Name] = ext
}

// Resolve returns the descriptor of name
func (r *Registry) Resolve(name string) (types.Extension, bool) {
	ext, ok := r.extensions[name]
	return ext, ok
}

// Names returns the registered extension names, sorted
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.extensions))
	for name := range r.extensions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ShipsBinary reports whether ext has platform binaries to copy. Builtin extensions
// have no namespace and are compiled into the runtime, except CommonDialogs; the
// builtin common instructions never ship a binary even though they are namespaced.
func ShipsBinary(ext types.Extension) bool {
	if ext.Name == BuiltinInstructionsExtension {
		return false
	}
	return ext.Namespace != "" || ext.Name == CommonDialogsExtension
}

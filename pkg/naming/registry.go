package naming

import (
	"fmt"
	"path"
	"path/filepath"
	"strings"
	"sync"
)

// Registry remembers which URI owns each file name in a directory so two
// different URIs never share one local file.
type Registry struct {
	mu     sync.Mutex
	owners map[string]string
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{owners: make(map[string]string)}
}

// Claim returns name when it is free in dir or already owned by uri.
// Otherwise it returns the first free "<stem>-<n><ext>" and claims that.
func (r *Registry) Claim(dir, name, uri string) string {
	if r == nil || name == "" {
		return name
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	ext := path.Ext(name)
	stem := strings.TrimSuffix(name, ext)
	candidate := name
	for n := 1; ; n++ {
		key := filepath.Join(dir, candidate)
		owner, taken := r.owners[key]
		if !taken {
			r.owners[key] = uri
			return candidate
		}
		if owner == uri {
			return candidate
		}
		candidate = Sanitize(fmt.Sprintf("%s-%d%s", stem, n, ext))
	}
}

package profile

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnknownProfile is returned when no profile matches a name or extension
var ErrUnknownProfile = errors.New("unknown language profile")

// Registry is a read-only set of profiles indexed by name, alias and extension
type Registry struct {
	byName map[string]*Profile
	byExt  map[string]*Profile
	names  []string
}

// NewRegistry builds a registry from the built-in profiles plus custom ones.
// A custom profile with the same name as a built-in replaces it.
func NewRegistry(custom ...*Profile) (*Registry, error) {
	all := builtinProfiles()
	for _, c := range custom {
		replaced := false
		for i, b := range all {
			if strings.EqualFold(b.Name, c.Name) {
				all[i] = c
				replaced = true
				break
			}
		}
		if !replaced {
			all = append(all, c)
		}
	}

	r := &Registry{
		byName: make(map[string]*Profile),
		byExt:  make(map[string]*Profile),
	}
	for _, p := range all {
		p.seal()
		if err := Validate(p); err != nil {
			return nil, err
		}
		if _, dup := r.byName[p.Name]; dup {
			return nil, fmt.Errorf("duplicate profile %q", p.Name)
		}
		r.byName[p.Name] = p
		r.names = append(r.names, p.Name)
		for _, a := range p.Aliases {
			r.byName[strings.ToLower(a)] = p
		}
		for _, ext := range p.Extensions {
			r.byExt[strings.ToLower(ext)] = p
		}
	}
	sort.Strings(r.names)
	return r, nil
}

var (
	defaultOnce     sync.Once
	defaultRegistry *Registry
)

// Default returns the registry of built-in profiles. It is built once and
// shared by all callers.
func Default() *Registry {
	defaultOnce.Do(func() {
		r, err := NewRegistry()
		if err != nil {
			panic("profile: invalid built-in profile: " + err.Error())
		}
		defaultRegistry = r
	})
	return defaultRegistry
}

// Lookup finds a profile by name or alias (case-insensitive)
func (r *Registry) Lookup(name string) (*Profile, error) {
	if p, ok := r.byName[strings.ToLower(strings.TrimSpace(name))]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
}

// ForFile finds a profile by the extension of path
func (r *Registry) ForFile(path string) (*Profile, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if p, ok := r.byExt[ext]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: no profile for extension %q", ErrUnknownProfile, ext)
}

// Profiles returns all registered profiles sorted by name
func (r *Registry) Profiles() []*Profile {
	out := make([]*Profile, 0, len(r.names))
	for _, n := range r.names {
		out = append(out, r.byName[n])
	}
	return out
}

// Resolve finds a profile by name or alias, falling back to a file
// extension given with or without the leading dot ("cs", ".py").
func (r *Registry) Resolve(language string) (*Profile, error) {
	p, err := r.Lookup(language)
	if err == nil {
		return p, nil
	}
	ext := "." + strings.TrimPrefix(strings.ToLower(strings.TrimSpace(language)), ".")
	if p, ok := r.byExt[ext]; ok {
		return p, nil
	}
	return nil, err
}

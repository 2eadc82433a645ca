// Package images maps image keys onto ordered frame sequences. Handles are
// opaque to the simulation; only frame selection happens here.
package images

import (
	"fmt"
	"io"
	"sort"

	"gopkg.in/yaml.v3"
)

// Handle is an opaque reference to one image, typically an asset path.
type Handle string

// Frames is an ordered, non-empty sequence of image handles.
type Frames []Handle

// At returns the handle for frame index i, wrapping around the sequence.
func (f Frames) At(i int) Handle {
	if len(f) == 0 {
		return ""
	}
	i %= len(f)
	if i < 0 {
		i += len(f)
	}
	return f[i]
}

// Next returns the frame index after i, wrapping to 0.
func (f Frames) Next(i int) int {
	if len(f) == 0 {
		return 0
	}
	return (i + 1) % len(f)
}

// Provider resolves a key to its frames. Unknown keys resolve to a
// provider-wide default sequence.
type Provider interface {
	Frames(key string) Frames
}

// DefaultHandle backs Store's fallback sequence when none is configured.
const DefaultHandle Handle = "default"

var _ Provider = (*Store)(nil)

type Store struct {
	frames   map[string]Frames
	defaults Frames
}

func NewStore(defaults Frames) *Store {
	if len(defaults) == 0 {
		defaults = Frames{DefaultHandle}
	}
	return &Store{
		frames:   make(map[string]Frames),
		defaults: defaults,
	}
}

// Add appends handles to key, creating it if needed.
func (s *Store) Add(key string, handles ...Handle) {
	s.frames[key] = append(s.frames[key], handles...)
}

func (s *Store) Frames(key string) Frames {
	if f, ok := s.frames[key]; ok && len(f) > 0 {
		return f
	}
	return s.defaults
}

func (s *Store) Defaults() Frames {
	return s.defaults
}

// Keys returns the known keys in sorted order.
func (s *Store) Keys() []string {
	keys := make([]string, 0, len(s.frames))
	for k := range s.frames {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Manifest is the YAML shape accepted by LoadManifest:
//
//	default: [img/none.bmp]
//	images:
//	  tree: [img/tree1.bmp, img/tree2.bmp]
type Manifest struct {
	Default []string            `yaml:"default"`
	Images  map[string][]string `yaml:"images"`
}

func LoadManifest(r io.Reader) (*Store, error) {
	var m Manifest
	if err := yaml.NewDecoder(r).Decode(&m); err != nil {
		if err == io.EOF {
			return NewStore(nil), nil
		}
		return nil, fmt.Errorf("decode image manifest: %w", err)
	}

	s := NewStore(toFrames(m.Default))
	for key, paths := range m.Images {
		if len(paths) == 0 {
			return nil, fmt.Errorf("image key %q has no frames", key)
		}
		s.Add(key, toFrames(paths)...)
	}
	return s, nil
}

func toFrames(paths []string) Frames {
	out := make(Frames, 0, len(paths))
	for _, p := range paths {
		out = append(out, Handle(p))
	}
	return out
}

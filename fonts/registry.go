package fonts

import (
	"strings"

	"github.com/wudi/pdfflow/recovery"
)

// Loader supplies metrics for a family and style ("", "B", "I" or "BI").
// A Loader that does not know the font returns a MissingResource error.
type Loader interface {
	Load(family, style string) (*Metrics, error)
}

// Key normalizes family and style into the registry key, e.g. "helveticaBI".
// Underline and strike-through flags in style are ignored.
func Key(family, style string) string {
	return strings.ToLower(strings.TrimSpace(family)) + NormalizeStyle(style)
}

// NormalizeStyle keeps only the bold and italic flags of style in "BI" order.
func NormalizeStyle(style string) string {
	style = strings.ToUpper(style)
	var out string
	if strings.Contains(style, "B") {
		out += "B"
	}
	if strings.Contains(style, "I") {
		out += "I"
	}
	return out
}

// Registry holds the fonts of one document. Each key is registered once.
type Registry struct {
	loader Loader
	byKey  map[string]*Font
	order  []*Font
	diffs  []string
}

func NewRegistry(loader Loader) *Registry {
	if loader == nil {
		loader = DefaultLoader()
	}
	return &Registry{loader: loader, byKey: map[string]*Font{}}
}

// Add returns the font for family and style, loading and registering it on
// first use.
func (r *Registry) Add(family, style string) (*Font, error) {
	key := Key(family, style)
	if f, ok := r.byKey[key]; ok {
		return f, nil
	}
	m, err := r.loader.Load(strings.ToLower(strings.TrimSpace(family)), NormalizeStyle(style))
	if err != nil {
		return nil, recovery.Wrap(recovery.MissingResource, "fonts.Add", err)
	}
	return r.AddMetrics(family, style, m)
}

// AddMetrics registers caller-supplied metrics under family and style.
func (r *Registry) AddMetrics(family, style string, m *Metrics) (*Font, error) {
	key := Key(family, style)
	if f, ok := r.byKey[key]; ok {
		return f, nil
	}
	if err := validate(key, m); err != nil {
		return nil, err
	}
	f := newFont(key, strings.ToLower(strings.TrimSpace(family)), NormalizeStyle(style), m)
	f.Index = len(r.order) + 1
	if m.Diff != "" {
		f.DiffIndex = r.diffIndex(m.Diff)
	}
	r.byKey[key] = f
	r.order = append(r.order, f)
	return f, nil
}

func validate(key string, m *Metrics) error {
	switch {
	case m == nil:
		return recovery.Errorf(recovery.InvalidFormat, "fonts.Add", "%s: no metrics", key)
	case m.Type < Core || m.Type > CIDFont0:
		return recovery.Errorf(recovery.InvalidFormat, "fonts.Add", "%s: missing or unknown font type", key)
	case m.Widths == nil && m.Source == nil:
		return recovery.Errorf(recovery.InvalidFormat, "fonts.Add", "%s: missing character widths", key)
	case m.Name == "":
		return recovery.Errorf(recovery.InvalidFormat, "fonts.Add", "%s: missing font name", key)
	}
	return nil
}

func (r *Registry) diffIndex(diff string) int {
	for i, d := range r.diffs {
		if d == diff {
			return i + 1
		}
	}
	r.diffs = append(r.diffs, diff)
	return len(r.diffs)
}

func (r *Registry) Get(key string) (*Font, bool) {
	f, ok := r.byKey[key]
	return f, ok
}

// Fonts returns the registered fonts in registration order.
func (r *Registry) Fonts() []*Font { return r.order }

// Diffs returns the shared encoding differences; DiffIndex points into it.
func (r *Registry) Diffs() []string { return r.diffs }

// Clone returns a deep copy sharing only the loader.
func (r *Registry) Clone() *Registry {
	c := &Registry{loader: r.loader, byKey: make(map[string]*Font, len(r.byKey)), diffs: append([]string(nil), r.diffs...)}
	for _, f := range r.order {
		cf := f.Clone()
		c.byKey[cf.Key] = cf
		c.order = append(c.order, cf)
	}
	return c
}

// Package props implements the layered key/value configuration of a run:
// an ordered string mapping with override semantics, placeholder resolution
// and typed accessors for the well-known keys.
//
// The file format is deliberately minimal: one `key=value` pair per line,
// `#` or `!` starts a comment, blank lines are skipped, whitespace around
// the key is trimmed and the value starts after the first `=`.
package props

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// Properties is an ordered mapping of string keys to string values.
// Setting an existing key replaces its value but keeps its position;
// setting a new key appends it.
//
// Properties is not safe for concurrent mutation. Each run owns its own
// copy and per-scenario layers are derived with Copy, never shared.
type Properties struct {
	keys   []string
	values map[string]string
}

// New returns an empty Properties.
func New() *Properties {
	return &Properties{values: make(map[string]string)}
}

// Load reads a properties file from path.
func Load(path string) (*Properties, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load properties: %w", err)
	}
	defer f.Close()
	p, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("load properties %s: %w", path, err)
	}
	return p, nil
}

// Parse reads properties from r. Lines without `=` are ignored.
func Parse(r io.Reader) (*Properties, error) {
	p := New()
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "!") {
			continue
		}
		idx := strings.Index(line, "=")
		if idx <= 0 {
			continue
		}
		key := strings.TrimSpace(line[:idx])
		// Leading whitespace after the separator is not part of the value;
		// trailing whitespace is.
		p.Set(key, strings.TrimLeft(line[idx+1:], " \t"))
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	return p, nil
}

// Set stores a value under key.
func (p *Properties) Set(key, value string) {
	if _, ok := p.values[key]; !ok {
		p.keys = append(p.keys, key)
	}
	p.values[key] = value
}

// Get returns the value for key and whether it is present.
func (p *Properties) Get(key string) (string, bool) {
	v, ok := p.values[key]
	return v, ok
}

// GetDefault returns the value for key, or def when absent.
func (p *Properties) GetDefault(key, def string) string {
	if v, ok := p.values[key]; ok {
		return v
	}
	return def
}

// Bool interprets the value under key as a boolean. Absent or unparseable
// values return def.
func (p *Properties) Bool(key string, def bool) bool {
	v, ok := p.values[key]
	if !ok {
		return def
	}
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "true", "1", "yes":
		return true
	case "false", "0", "no":
		return false
	default:
		return def
	}
}

// Keys returns the keys in insertion order. The slice is a copy.
func (p *Properties) Keys() []string {
	out := make([]string, len(p.keys))
	copy(out, p.keys)
	return out
}

// Len returns the number of keys.
func (p *Properties) Len() int { return len(p.keys) }

// Copy returns an independent copy preserving insertion order.
func (p *Properties) Copy() *Properties {
	out := New()
	for _, k := range p.keys {
		out.Set(k, p.values[k])
	}
	return out
}

// Merge returns a new Properties where override's keys take precedence.
// Base keys keep their positions; keys only present in override are
// appended in override order. Neither argument is mutated.
func Merge(base, override *Properties) *Properties {
	out := base.Copy()
	for _, k := range override.keys {
		out.Set(k, override.values[k])
	}
	return out
}

// String renders the mapping as key=value lines in insertion order.
func (p *Properties) String() string {
	var b strings.Builder
	for _, k := range p.keys {
		fmt.Fprintf(&b, "%s=%s\n", k, p.values[k])
	}
	return b.String()
}

// DumpFileName is the audit copy written next to a run's results.
const DumpFileName = "drover.properties"

// DumpTo writes the mapping to DumpFileName inside dir, creating dir if
// needed. This is the auditability side effect of property resolution: the
// exact configuration a run executed with ends up next to its results.
func (p *Properties) DumpTo(dir string) error {
	if dir == "" {
		return fmt.Errorf("dump properties: output directory not set")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("dump properties: %w", err)
	}
	return os.WriteFile(filepath.Join(dir, DumpFileName), []byte(p.String()), 0o644)
}

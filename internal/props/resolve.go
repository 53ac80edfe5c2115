package props

import (
	"fmt"
	"os"
	"regexp"
)

var placeholderRe = regexp.MustCompile(`\$\{([^${}]+)\}`)

// UnresolvedPlaceholderError reports a placeholder that could not be
// substituted, either because the referenced key does not exist anywhere
// (properties or environment) or because resolution ran into a cycle.
type UnresolvedPlaceholderError struct {
	// Key is the property whose value contains the offending placeholder.
	Key string
	// Ref is the referenced name inside ${...}.
	Ref string
	// Cycle is true when Ref participates in a reference cycle.
	Cycle bool
}

func (e *UnresolvedPlaceholderError) Error() string {
	if e.Cycle {
		return fmt.Sprintf("property %q: placeholder ${%s} forms a reference cycle", e.Key, e.Ref)
	}
	return fmt.Sprintf("property %q: placeholder ${%s} cannot be resolved", e.Key, e.Ref)
}

// Resolve substitutes ${name} placeholders in every value, in place.
// A name resolves against the mapping first and the process environment
// second. Substitution is iterative, so a placeholder may expand to a value
// holding further placeholders; a cycle or an unknown reference fails the
// whole resolution and names the offending key.
func (p *Properties) Resolve() error {
	resolved := make(map[string]string, len(p.keys))
	for _, k := range p.keys {
		v, err := p.resolveKey(k, map[string]bool{}, resolved)
		if err != nil {
			return err
		}
		resolved[k] = v
	}
	for k, v := range resolved {
		p.values[k] = v
	}
	return nil
}

// resolveKey resolves the value of key, recursing into referenced keys.
// visiting guards against cycles, resolved memoizes finished keys.
func (p *Properties) resolveKey(key string, visiting map[string]bool, resolved map[string]string) (string, error) {
	if v, ok := resolved[key]; ok {
		return v, nil
	}
	visiting[key] = true
	defer delete(visiting, key)

	// Property references recurse and come back fully resolved; environment
	// references are taken literally. Replacements are never rescanned, so
	// resolution terminates even for hostile environment values.
	var resolveErr error
	value := placeholderRe.ReplaceAllStringFunc(p.values[key], func(tok string) string {
		if resolveErr != nil {
			return tok
		}
		ref := tok[2 : len(tok)-1]
		if visiting[ref] {
			resolveErr = &UnresolvedPlaceholderError{Key: key, Ref: ref, Cycle: true}
			return tok
		}
		if _, ok := p.values[ref]; ok {
			r, err := p.resolveKey(ref, visiting, resolved)
			if err != nil {
				resolveErr = err
				return tok
			}
			resolved[ref] = r
			return r
		}
		if env, ok := os.LookupEnv(ref); ok {
			return env
		}
		resolveErr = &UnresolvedPlaceholderError{Key: key, Ref: ref}
		return tok
	})
	if resolveErr != nil {
		return "", resolveErr
	}
	return value, nil
}

// Package selection compiles include/exclude glob rules and skip-fluff
// presets into per-file priority vectors (spec §4.3, component C3).
//
// Pattern compilation technique (anchored, case-insensitive matching via
// lower-casing both pattern and candidate before compiling) is grounded on
// the fuzzy path-matching trick in autobrr/qui's
// internal/services/dirscan/matching.go; the glob library itself
// (github.com/gobwas/glob) is the natural home for spec's "compiles glob
// patterns to an internal matcher" requirement.
package selection

import (
	"strings"

	"github.com/gobwas/glob"

	"revaer/internal/domain"
)

// Engine compiles a domain.SelectionRules into a reusable matcher set.
type Engine struct {
	include []glob.Glob
	exclude []glob.Glob
	fluff   []glob.Glob
	rules   domain.SelectionRules
}

// Compile builds matchers for rules. Patterns are case-insensitive and
// anchored over the full path (spec §4.3: "*" -> ".*", "?" -> ".").
func Compile(rules domain.SelectionRules) (*Engine, error) {
	e := &Engine{rules: rules}

	var err error
	if e.include, err = compileAll(rules.Include); err != nil {
		return nil, err
	}
	if e.exclude, err = compileAll(rules.Exclude); err != nil {
		return nil, err
	}
	if rules.SkipFluff {
		if e.fluff, err = compileAll(domain.FluffPresets()); err != nil {
			return nil, err
		}
	}
	return e, nil
}

func compileAll(patterns []string) ([]glob.Glob, error) {
	out := make([]glob.Glob, 0, len(patterns))
	for _, p := range patterns {
		p = strings.ToLower(p)
		// A leading "**/" also matches zero directories, so "**/*.nfo"
		// matches a top-level "movie.nfo".
		if strings.HasPrefix(p, "**/") {
			p = "{**/,}" + p[3:]
		}
		// No separator is passed, so "*" also matches across "/".
		g, err := glob.Compile(p)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, nil
}

func matchesAny(globs []glob.Glob, path string) bool {
	lower := strings.ToLower(path)
	for _, g := range globs {
		if g.Match(lower) {
			return true
		}
	}
	return false
}

// Priorities computes a per-file priority vector following spec §4.3's
// five-step algorithm:
//  1. skip_fluff match -> skip
//  2. exclude match -> skip
//  3. include non-empty and matches -> normal
//  4. default -> normal
//  5. explicit per-index override replaces the above (applied last, I4)
func (e *Engine) Priorities(files []domain.FileEntry) map[int]domain.Priority {
	out := make(map[int]domain.Priority, len(files))
	for _, f := range files {
		out[f.Index] = e.baseFilePriority(f.Path)
	}
	for idx, override := range e.rules.Priorities {
		if _, ok := out[idx]; ok {
			out[idx] = override
		}
	}
	return out
}

func (e *Engine) baseFilePriority(path string) domain.Priority {
	if len(e.fluff) > 0 && matchesAny(e.fluff, path) {
		return domain.PrioritySkip
	}
	if matchesAny(e.exclude, path) {
		return domain.PrioritySkip
	}
	if len(e.include) > 0 {
		if matchesAny(e.include, path) {
			return domain.PriorityNormal
		}
		// Non-empty include list with no match: spec step 4 still defaults
		// to normal ("Else default normal") unless overridden later; the
		// include list narrows intent only through the explicit priority
		// map, not by implicitly skipping unmatched files.
		return domain.PriorityNormal
	}
	return domain.PriorityNormal
}

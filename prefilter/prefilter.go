// Package prefilter accelerates unanchored searching by extracting the
// literal prefixes a compiled program demands and scanning for them with an
// Aho-Corasick automaton.
//
// Extraction walks the program from its body entry point. When every path
// from entry begins with a non-empty literal, the collected literal set is
// complete: a match can only start where one of the literals occurs, so the
// engine's scan may jump straight to the next candidate position. When any
// path reaches a non-literal consumer before contributing a character, no
// prefilter is built and the engines scan normally.
package prefilter

import (
	"unicode/utf8"

	"github.com/coregx/ahocorasick"

	"github.com/coregx/regexvm/nfa"
)

// Config bounds literal extraction.
//
// The limits keep degenerate patterns from exploding the literal set:
// every alternative branch contributes a literal, and very long literals stop paying
// for themselves once the automaton outgrows cache.
type Config struct {
	// MaxLiterals caps the number of extracted literals.
	MaxLiterals int

	// MaxLiteralLen caps the length in bytes of each literal; longer
	// prefixes are truncated, which stays sound for candidate skipping.
	MaxLiteralLen int
}

// DefaultConfig returns the default extraction limits.
func DefaultConfig() Config {
	return Config{
		MaxLiterals:   64,
		MaxLiteralLen: 64,
	}
}

// Literals is a compiled prefilter: the complete set of literal prefixes of
// a program, baked into an Aho-Corasick automaton.
type Literals struct {
	auto   *ahocorasick.Automaton
	maxLen int
}

// FromProgram extracts the literal prefixes of prog and builds the
// prefilter. Returns nil when the program has no complete literal prefix
// set, in which case searching proceeds without a prefilter.
func FromProgram(prog *nfa.Program, cfg Config) *Literals {
	w := &walker{
		prog:    prog,
		cfg:     cfg,
		visited: make(map[int]bool),
		lits:    make(map[string]bool),
	}
	start := 0
	if prog.Prefixed() {
		// skip the lazy dot-star scanner; the body is its preferred leg
		start, _ = prog.Inst(0).Split()
	}
	if !w.walk(start, nil) || len(w.lits) == 0 {
		return nil
	}

	builder := ahocorasick.NewBuilder()
	maxLen := 0
	for lit := range w.lits {
		builder.AddPattern([]byte(lit))
		if len(lit) > maxLen {
			maxLen = len(lit)
		}
	}
	auto, err := builder.Build()
	if err != nil {
		return nil
	}
	return &Literals{auto: auto, maxLen: maxLen}
}

// FindCandidate returns the earliest byte offset not before at where a
// match could begin, or -1 when no match is possible in s[at:]. The result
// is conservative: the true match start is never earlier.
func (l *Literals) FindCandidate(s string, at int) int {
	if at >= len(s) {
		return -1
	}
	m := l.auto.Find([]byte(s), at)
	if m == nil {
		return -1
	}
	// The automaton reports the first literal occurrence by end position;
	// a longer literal may start earlier, but never by more than its own
	// length.
	cand := m.End - l.maxLen
	if cand < at {
		cand = at
	}
	return cand
}

// walker performs the extraction. A revisited instruction (a loop back-edge
// or a join already claimed by a sibling path) terminates the current
// literal; a path that ends with nothing collected makes the set
// incomplete.
type walker struct {
	prog    *nfa.Program
	cfg     Config
	visited map[int]bool
	lits    map[string]bool
}

// walk follows the program from pc accumulating the literal built so far.
// Returns false as soon as completeness is lost.
func (w *walker) walk(pc int, cur []byte) bool {
	for {
		if len(w.lits) > w.cfg.MaxLiterals {
			return false
		}
		if w.visited[pc] {
			return w.emit(cur)
		}
		w.visited[pc] = true

		in := w.prog.Inst(pc)
		switch in.Opcode() {
		case nfa.OpSave, nfa.OpBOL, nfa.OpEOL, nfa.OpBOT, nfa.OpEOT, nfa.OpWordBoundary:
			pc++

		case nfa.OpJump:
			pc = in.Target()

		case nfa.OpSplit:
			pref, sec := in.Split()
			branch := make([]byte, len(cur))
			copy(branch, cur)
			if !w.walk(pref, branch) {
				return false
			}
			pc = sec

		case nfa.OpChar:
			cur = utf8.AppendRune(cur, in.Rune())
			if len(cur) >= w.cfg.MaxLiteralLen {
				return w.emit(cur)
			}
			pc++

		case nfa.OpMatch:
			return w.emit(cur)

		default:
			// IChar, ranges, bitmaps, AnyChar, LookAround: the literal
			// ends here
			return w.emit(cur)
		}
	}
}

// emit records a finished literal. An empty literal means some path has no
// mandatory prefix, which voids the whole set, as does exceeding MaxLiterals.
func (w *walker) emit(cur []byte) bool {
	if len(cur) == 0 {
		return false
	}
	w.lits[string(cur)] = true
	return len(w.lits) <= w.cfg.MaxLiterals
}

// Package regexvm provides a regular-expression library built on two
// cooperating engines over a common compiled program.
//
// The lockstep engine simulates the NFA with all threads advancing in step,
// guaranteeing time linear in the input regardless of pattern. The
// backtracking engine explores alternatives depth-first and additionally
// supports lookahead and lookbehind assertions. Compile picks the engine
// automatically: lockstep unless the pattern uses lookaround.
//
// Basic usage:
//
//	re, err := regexvm.Compile(`(\w+)@(\w+)\.com`)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	m, _ := re.MatchAt("mail bob@example.com", 0)
//	if m.Ok() {
//	    fmt.Println(m.Hit(), m.Group(1)) // "bob@example.com bob"
//	}
//
// All offsets are byte indices into the input. A compiled Program is
// immutable and may be shared; a Regexp carries per-instance engine scratch
// and must not be used from more than one goroutine at a time.
package regexvm

import (
	"github.com/coregx/regexvm/nfa"
	"github.com/coregx/regexvm/prefilter"
)

// EngineKind selects which engine a Regexp runs.
type EngineKind uint8

const (
	// EngineAuto picks the lockstep engine, falling back to the
	// backtracker when the pattern contains lookaround.
	EngineAuto EngineKind = iota

	// EngineLockstep forces the lockstep engine. Compilation fails for
	// patterns with lookaround.
	EngineLockstep

	// EngineBacktrack forces the backtracking engine.
	EngineBacktrack
)

// Config tunes compilation.
type Config struct {
	// Engine selects the execution engine.
	Engine EngineKind

	// StepLimit bounds the work of one backtracking search.
	// Zero means nfa.DefaultStepLimit.
	StepLimit int

	// DisablePrefilter turns off the literal prefilter.
	DisablePrefilter bool
}

// DefaultConfig returns the default compilation configuration.
func DefaultConfig() Config {
	return Config{StepLimit: nfa.DefaultStepLimit}
}

// engine is the call shape both engines share. MatchAt returns the capture
// slots of a match, nil for no match, or an engine error.
type engine interface {
	MatchAt(s string, start int) ([]int, error)
}

// Regexp is a compiled regular expression bound to an engine instance.
type Regexp struct {
	pattern string
	prog    *nfa.Program
	eng     engine
	pf      *prefilter.Literals
}

// Compile compiles a pattern with the default configuration.
func Compile(pattern string) (*Regexp, error) {
	return CompileWithConfig(pattern, DefaultConfig())
}

// MustCompile is like Compile but panics if the pattern is invalid.
func MustCompile(pattern string) *Regexp {
	re, err := Compile(pattern)
	if err != nil {
		panic("regexvm: Compile(`" + pattern + "`): " + err.Error())
	}
	return re
}

// CompileWithConfig compiles a pattern with explicit configuration.
func CompileWithConfig(pattern string, cfg Config) (*Regexp, error) {
	prog, err := compileCached(pattern)
	if err != nil {
		return nil, err
	}

	var eng engine
	switch {
	case cfg.Engine == EngineLockstep,
		cfg.Engine == EngineAuto && !prog.HasLookaround():
		ls, err := nfa.NewLockstep(prog)
		if err != nil {
			return nil, err
		}
		eng = ls
	default:
		bt := nfa.NewBacktracker(prog)
		if cfg.StepLimit > 0 {
			bt.SetStepLimit(cfg.StepLimit)
		}
		eng = bt
	}

	var pf *prefilter.Literals
	if !cfg.DisablePrefilter && prog.Prefixed() {
		pf = prefilter.FromProgram(prog, prefilter.DefaultConfig())
	}

	return &Regexp{
		pattern: pattern,
		prog:    prog,
		eng:     eng,
		pf:      pf,
	}, nil
}

// String returns the source pattern.
func (re *Regexp) String() string {
	return re.pattern
}

// Program returns the compiled program.
func (re *Regexp) Program() *nfa.Program {
	return re.prog
}

// NumSubexp returns the number of explicit capture groups in the pattern.
func (re *Regexp) NumSubexp() int {
	return re.prog.CaptureCount() - 1
}

// matchFrom runs one search from start, consulting the prefilter to skip
// regions where no match can begin.
func (re *Regexp) matchFrom(s string, start int) ([]int, error) {
	at := start
	if re.pf != nil {
		cand := re.pf.FindCandidate(s, at)
		if cand < 0 {
			return nil, nil
		}
		at = cand
	}
	return re.eng.MatchAt(s, at)
}

// MatchAt searches s from byte offset start and returns the first match.
// A failed search returns a Match whose Ok reports false. The error is
// non-nil only when the backtracker exhausts its step budget.
func (re *Regexp) MatchAt(s string, start int) (Match, error) {
	slots, err := re.matchFrom(s, start)
	if err != nil {
		return Match{}, err
	}
	return makeMatch(s, slots), nil
}

// MatchString reports whether s contains a match. Engine errors read as no
// match.
func (re *Regexp) MatchString(s string) bool {
	m, err := re.MatchAt(s, 0)
	return err == nil && m.Ok()
}

// FindString returns the text of the first match, or "" if there is none.
// Use FindStringIndex to distinguish an empty match from no match.
func (re *Regexp) FindString(s string) string {
	m, err := re.MatchAt(s, 0)
	if err != nil || !m.Ok() {
		return ""
	}
	return m.Hit()
}

// FindStringIndex returns the byte range of the first match as [start, end),
// or nil if there is none.
func (re *Regexp) FindStringIndex(s string) []int {
	m, err := re.MatchAt(s, 0)
	if err != nil || !m.Ok() {
		return nil
	}
	return []int{m.StartByte(), m.EndByte()}
}

// FindStringSubmatch returns the text of the first match and its capture
// groups, or nil if there is none. Unset groups read as "".
func (re *Regexp) FindStringSubmatch(s string) []string {
	m, err := re.MatchAt(s, 0)
	if err != nil || !m.Ok() {
		return nil
	}
	out := make([]string, m.GroupCount())
	for i := range out {
		out[i] = m.Group(i)
	}
	return out
}

// FindStringSubmatchIndex returns the capture slots of the first match as a
// flat [start0, end0, start1, end1, …] sequence with -1 marking unset
// slots, or nil if there is none.
func (re *Regexp) FindStringSubmatchIndex(s string) []int {
	slots, err := re.matchFrom(s, 0)
	if err != nil {
		return nil
	}
	return slots
}

// FindAllString returns the text of every non-overlapping match, at most n
// of them when n >= 0. Returns nil when there are none.
func (re *Regexp) FindAllString(s string, n int) []string {
	var out []string
	r := re.MatchAll(s)
	for r.Next() {
		if n >= 0 && len(out) >= n {
			break
		}
		out = append(out, r.Match().Hit())
	}
	return out
}

// CountString returns the number of non-overlapping matches in s, at most n
// when n >= 0.
func (re *Regexp) CountString(s string, n int) int {
	count := 0
	r := re.MatchAll(s)
	for r.Next() {
		if n >= 0 && count >= n {
			break
		}
		count++
	}
	return count
}

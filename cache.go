package regexvm

import (
	"sync"

	"github.com/coregx/regexvm/nfa"
)

// The compile cache is a single last-request memo: recompiling the pattern
// just compiled returns the shared, immutable Program instead of rebuilding
// it. The cache affects only cost, never semantics; a hit returns a program
// equivalent to a fresh compile.
var lastCompile struct {
	mu      sync.Mutex
	pattern string
	prog    *nfa.Program
}

// compileCached compiles pattern, consulting and updating the memo.
// Failed compiles are not cached.
func compileCached(pattern string) (*nfa.Program, error) {
	lastCompile.mu.Lock()
	defer lastCompile.mu.Unlock()

	if lastCompile.prog != nil && lastCompile.pattern == pattern {
		return lastCompile.prog, nil
	}
	prog, err := nfa.Compile(pattern)
	if err != nil {
		return nil, err
	}
	lastCompile.pattern = pattern
	lastCompile.prog = prog
	return prog, nil
}

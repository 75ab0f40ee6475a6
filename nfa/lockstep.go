package nfa

import (
	"unicode/utf8"

	"github.com/coregx/regexvm/internal/sparse"
)

// Lockstep is the Thompson-style NFA simulator. It advances every live
// thread in lockstep over the input, one code point per generation, and
// deduplicates threads by program state so each state runs at most once per
// generation. Total work is O(states · input length) regardless of pattern.
//
// Capture slots use copy-on-write sharing: threads split cheaply and copy
// only when one of them writes a slot.
//
// A Lockstep owns mutable scratch reused across calls and must not be used
// from more than one goroutine at a time. The underlying Program may be
// shared freely.
type Lockstep struct {
	prog  *Program
	slots int

	// Thread pools. current is the epsilon-closure work stack, consuming
	// holds this generation's threads parked at consuming instructions,
	// executing carries the survivors of a consuming step into the next
	// generation.
	current   []lockThread
	consuming []lockThread
	executing []lockThread

	// scheduled tracks which states ran this generation; a second
	// schedule of a state in the same generation is dropped.
	scheduled *sparse.GenSet

	best    []int
	matched bool
}

// lockThread is one live path through the automaton.
type lockThread struct {
	pc   int
	caps capRef
}

// capRef is a copy-on-write reference to a flat capture-slot array.
// Threads share one array until a Save instruction forces a private copy.
// A zero capRef reads as all slots unset.
type capRef struct {
	shared *capShared
}

type capShared struct {
	data []int
	refs int
}

// clone returns a reference to the same data, bumping the share count.
func (c capRef) clone() capRef {
	if c.shared != nil {
		c.shared.refs++
	}
	return c
}

// set writes one slot, copying the array first if it is shared.
func (c capRef) set(nslots, slot, pos int) capRef {
	if c.shared == nil {
		data := make([]int, nslots)
		for i := range data {
			data[i] = -1
		}
		data[slot] = pos
		return capRef{shared: &capShared{data: data, refs: 1}}
	}
	if c.shared.refs > 1 {
		c.shared.refs--
		data := make([]int, len(c.shared.data))
		copy(data, c.shared.data)
		data[slot] = pos
		return capRef{shared: &capShared{data: data, refs: 1}}
	}
	c.shared.data[slot] = pos
	return c
}

// get returns the slot array, which may be nil.
func (c capRef) get() []int {
	if c.shared == nil {
		return nil
	}
	return c.shared.data
}

// NewLockstep creates a lockstep engine for the program. Programs containing
// lookaround compile only to the backtracker; for those this returns
// ErrLookaroundUnsupported.
func NewLockstep(prog *Program) (*Lockstep, error) {
	if prog.HasLookaround() {
		return nil, ErrLookaroundUnsupported
	}
	n := prog.NumStates()
	return &Lockstep{
		prog:      prog,
		slots:     2 * prog.CaptureCount(),
		current:   make([]lockThread, 0, 2*n),
		consuming: make([]lockThread, 0, n),
		executing: make([]lockThread, 0, n),
		scheduled: sparse.NewGenSet(n),
		best:      make([]int, 2*prog.CaptureCount()),
	}, nil
}

// MatchAt runs the simulation over s beginning at byte offset start.
// It returns the capture slots of the best match (slot 2k/2k+1 bracket group
// k, -1 marks an unset slot) or nil if there is no match. The error result
// is always nil; it exists so both engines share a call shape.
func (e *Lockstep) MatchAt(s string, start int) ([]int, error) {
	if start < 0 || start > len(s) {
		return nil, nil
	}

	e.scheduled.Reset()
	e.consuming = e.consuming[:0]
	e.executing = e.executing[:0]
	e.matched = false

	gen := start
	seeds := append(e.executing[:0], lockThread{pc: 0})
	for {
		e.consuming = e.consuming[:0]
		for _, t := range seeds {
			if e.addThread(t.pc, t.caps, gen, s) {
				// accept reached; lower-priority seeds are dead
				break
			}
		}
		if len(e.consuming) == 0 || gen >= len(s) {
			break
		}

		r, w := utf8.DecodeRuneInString(s[gen:])
		next := gen + w
		e.executing = e.executing[:0]
		for _, t := range e.consuming {
			if instMatches(&e.prog.insts[t.pc], r) {
				e.executing = append(e.executing, lockThread{pc: t.pc + 1, caps: t.caps})
			}
		}
		gen = next
		seeds = e.executing
		if len(seeds) == 0 {
			break
		}
	}

	if !e.matched {
		return nil, nil
	}
	out := make([]int, e.slots)
	copy(out, e.best)
	return out, nil
}

// addThread runs the epsilon closure of one seed thread at input position
// gen, depositing threads parked at consuming instructions into e.consuming
// in priority order. Returns true if the closure reached Match, in which
// case the thread's captures have been recorded and every lower-priority
// seed must be abandoned; higher-priority threads already in e.consuming may
// still extend the match.
func (e *Lockstep) addThread(pc int, caps capRef, gen int, s string) bool {
	e.current = append(e.current[:0], lockThread{pc: pc, caps: caps})
	for len(e.current) > 0 {
		n := len(e.current) - 1
		t := e.current[n]
		e.current = e.current[:n]

		if !e.scheduled.TryInsert(t.pc, gen) {
			continue
		}

		in := &e.prog.insts[t.pc]
		switch in.op {
		case OpChar, OpIChar, OpAnyChar, OpCharRange, OpICharRange, OpCharBitmap:
			e.consuming = append(e.consuming, t)

		case OpMatch:
			e.record(t.caps)
			return true

		case OpSave:
			e.current = append(e.current, lockThread{pc: t.pc + 1, caps: t.caps.set(e.slots, in.slot, gen)})

		case OpSplit:
			// secondary below preferred so the preferred leg pops first
			e.current = append(e.current,
				lockThread{pc: in.alt, caps: t.caps.clone()},
				lockThread{pc: in.next, caps: t.caps})

		case OpJump:
			e.current = append(e.current, lockThread{pc: in.next, caps: t.caps})

		case OpBOT:
			if gen == 0 {
				e.current = append(e.current, lockThread{pc: t.pc + 1, caps: t.caps})
			}

		case OpEOT:
			if gen == len(s) {
				e.current = append(e.current, lockThread{pc: t.pc + 1, caps: t.caps})
			}

		case OpBOL:
			if gen == 0 || isLineTerm(s[gen-1]) {
				e.current = append(e.current, lockThread{pc: t.pc + 1, caps: t.caps})
			}

		case OpEOL:
			if gen == len(s) || isLineTerm(s[gen]) {
				e.current = append(e.current, lockThread{pc: t.pc + 1, caps: t.caps})
			}

		case OpWordBoundary:
			if atWordBoundary(s, gen) == in.positive {
				e.current = append(e.current, lockThread{pc: t.pc + 1, caps: t.caps})
			}
		}
	}
	return false
}

// record copies a matching thread's captures into the best-match buffer.
func (e *Lockstep) record(caps capRef) {
	e.matched = true
	data := caps.get()
	if data == nil {
		for i := range e.best {
			e.best[i] = -1
		}
		return
	}
	copy(e.best, data)
}

// instMatches tests a consuming instruction against one code point.
func instMatches(in *Inst, r rune) bool {
	switch in.op {
	case OpChar:
		return r == in.r
	case OpIChar:
		return lowerASCII(r) == in.r
	case OpAnyChar:
		return true
	case OpCharRange:
		return in.lo <= r && r <= in.hi
	case OpICharRange:
		c := lowerASCII(r)
		return in.lo <= c && c <= in.hi
	case OpCharBitmap:
		return in.bitmapContains(r)
	}
	return false
}

// atWordBoundary reports whether a word boundary lies at byte position pos.
// Word characters are ASCII, so single-byte checks are exact in UTF-8.
func atWordBoundary(s string, pos int) bool {
	before := pos > 0 && s[pos-1] < 0x80 && isWordRune(rune(s[pos-1]))
	after := pos < len(s) && s[pos] < 0x80 && isWordRune(rune(s[pos]))
	return before != after
}

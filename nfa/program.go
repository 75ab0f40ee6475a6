// Package nfa implements the compiled form of a regular expression and the
// two engines that execute it: a lockstep Thompson simulation that runs in
// time linear in the input, and a recursive backtracker that additionally
// supports lookaround assertions.
//
// A pattern is compiled by Compile into a Program, a flat sequence of
// instructions addressed by instruction index. The Program is immutable after
// compilation and may be shared by any number of engine instances; each
// engine owns its own mutable scratch and must not be used from more than one
// goroutine at a time.
package nfa

import (
	"fmt"
	"strings"
)

// Op identifies an instruction's operation.
type Op uint8

const (
	// OpChar matches one code point equal to the payload.
	OpChar Op = iota

	// OpIChar matches one code point whose ASCII lowercase equals the
	// payload, which is stored lowercased at compile time.
	OpIChar

	// OpAnyChar matches any one code point.
	OpAnyChar

	// OpCharRange matches one code point in the inclusive range [lo, hi].
	OpCharRange

	// OpICharRange matches one code point whose ASCII lowercase lies in
	// [lo, hi]; the bounds are stored lowercased.
	OpICharRange

	// OpCharBitmap matches one code point < 128 whose bit is set in a
	// 128-bit bitmap.
	OpCharBitmap

	// OpSave records the current input offset into a capture slot.
	OpSave

	// OpSplit branches non-deterministically; the preferred target is
	// tried first.
	OpSplit

	// OpJump transfers control unconditionally.
	OpJump

	// OpMatch accepts.
	OpMatch

	// OpBOL matches at the start of a line.
	OpBOL

	// OpEOL matches at the end of a line.
	OpEOL

	// OpBOT matches only at the start of the input.
	OpBOT

	// OpEOT matches only at the end of the input.
	OpEOT

	// OpWordBoundary matches (positive) or refuses (negative) a word
	// boundary position.
	OpWordBoundary

	// OpLookAround brackets a lookaround subprogram. The body starts at
	// the following instruction and is terminated by OpMatch; the
	// instruction's target points just past that terminator.
	OpLookAround
)

// String returns a human-readable name for the opcode.
func (op Op) String() string {
	switch op {
	case OpChar:
		return "Char"
	case OpIChar:
		return "IChar"
	case OpAnyChar:
		return "AnyChar"
	case OpCharRange:
		return "CharRange"
	case OpICharRange:
		return "ICharRange"
	case OpCharBitmap:
		return "CharBitmap"
	case OpSave:
		return "Save"
	case OpSplit:
		return "Split"
	case OpJump:
		return "Jump"
	case OpMatch:
		return "Match"
	case OpBOL:
		return "BOL"
	case OpEOL:
		return "EOL"
	case OpBOT:
		return "BOT"
	case OpEOT:
		return "EOT"
	case OpWordBoundary:
		return "WordBoundary"
	case OpLookAround:
		return "LookAround"
	default:
		return fmt.Sprintf("Unknown(%d)", uint8(op))
	}
}

// Inst is a single instruction. Which fields are meaningful depends on the
// opcode; see the accessor methods for the per-opcode views.
type Inst struct {
	op    Op
	state int // dense state id assigned after compilation

	r      rune      // Char, IChar
	lo, hi rune      // CharRange, ICharRange
	bitmap [2]uint64 // CharBitmap

	slot int // Save

	next int // Split preferred, Jump target, LookAround continuation
	alt  int // Split secondary

	positive bool // WordBoundary, LookAround
	ahead    bool // LookAround: true = lookahead, false = lookbehind
	dist     int  // LookAround: fixed lookbehind length in code points
}

// Opcode returns the instruction's operation.
func (i *Inst) Opcode() Op { return i.op }

// StateID returns the dense state id assigned to this instruction.
func (i *Inst) StateID() int { return i.state }

// Rune returns the code-point payload of Char and IChar instructions.
func (i *Inst) Rune() rune { return i.r }

// Bounds returns the inclusive range of CharRange and ICharRange
// instructions.
func (i *Inst) Bounds() (lo, hi rune) { return i.lo, i.hi }

// Bitmap returns the 128-bit bitmap of a CharBitmap instruction.
func (i *Inst) Bitmap() [2]uint64 { return i.bitmap }

// Slot returns the capture-slot index of a Save instruction.
func (i *Inst) Slot() int { return i.slot }

// Split returns the preferred and secondary targets of a Split instruction.
func (i *Inst) Split() (preferred, secondary int) { return i.next, i.alt }

// Target returns the target of a Jump instruction or the continuation of a
// LookAround instruction.
func (i *Inst) Target() int { return i.next }

// Look returns the lookaround parameters: direction, sense, and the fixed
// lookbehind distance in code points (zero for lookahead).
func (i *Inst) Look() (ahead, positive bool, dist int) {
	return i.ahead, i.positive, i.dist
}

// Positive reports the sense of a WordBoundary instruction.
func (i *Inst) Positive() bool { return i.positive }

// bitmapContains reports whether code point c is set in the bitmap.
func (i *Inst) bitmapContains(c rune) bool {
	return c < 128 && i.bitmap[c>>6]&(1<<(uint(c)&63)) != 0
}

// String renders the instruction for debugging.
func (i *Inst) String() string {
	switch i.op {
	case OpChar, OpIChar:
		return fmt.Sprintf("%s %q", i.op, i.r)
	case OpCharRange, OpICharRange:
		return fmt.Sprintf("%s [%q-%q]", i.op, i.lo, i.hi)
	case OpCharBitmap:
		return fmt.Sprintf("%s %016x%016x", i.op, i.bitmap[1], i.bitmap[0])
	case OpSave:
		return fmt.Sprintf("%s %d", i.op, i.slot)
	case OpSplit:
		return fmt.Sprintf("%s %d, %d", i.op, i.next, i.alt)
	case OpJump:
		return fmt.Sprintf("%s %d", i.op, i.next)
	case OpWordBoundary:
		if i.positive {
			return "WordBoundary"
		}
		return "NonWordBoundary"
	case OpLookAround:
		dir := "behind"
		if i.ahead {
			dir = "ahead"
		}
		sense := "negative"
		if i.positive {
			sense = "positive"
		}
		return fmt.Sprintf("Look%s %s dist=%d jump=%d", dir, sense, i.dist, i.next)
	default:
		return i.op.String()
	}
}

// Program is the compiled form of a pattern: a linear instruction stream
// addressed by instruction index, plus the capture-group count. Programs are
// immutable after compilation.
type Program struct {
	insts     []Inst
	captures  int // capture groups including group 0
	numStates int
	prefixed  bool // lazy dot-star search prefix present
	hasLook   bool
}

// Len returns the number of instructions.
func (p *Program) Len() int { return len(p.insts) }

// Inst returns the instruction at pc. Returns nil if pc is out of range.
func (p *Program) Inst(pc int) *Inst {
	if pc < 0 || pc >= len(p.insts) {
		return nil
	}
	return &p.insts[pc]
}

// CaptureCount returns the number of capture groups. Group 0 is the whole
// match; a pattern with k explicit groups reports k+1.
func (p *Program) CaptureCount() int { return p.captures }

// NumStates returns the number of automaton states, one per instruction.
// The lockstep engine sizes its thread pools from this.
func (p *Program) NumStates() int { return p.numStates }

// Prefixed reports whether the program begins with the implicit lazy
// dot-star that turns an anchored match into an unanchored search.
func (p *Program) Prefixed() bool { return p.prefixed }

// HasLookaround reports whether the program contains lookaround
// instructions. Such programs are only executable by the backtracker.
func (p *Program) HasLookaround() bool { return p.hasLook }

// number walks the finished instruction stream and assigns each instruction
// a sequential state id in walk order.
func (p *Program) number() {
	for pc := range p.insts {
		p.insts[pc].state = pc
	}
	p.numStates = len(p.insts)
}

// String renders the whole program, one instruction per line.
func (p *Program) String() string {
	var b strings.Builder
	for pc := range p.insts {
		fmt.Fprintf(&b, "%3d  %s\n", pc, p.insts[pc].String())
	}
	return b.String()
}

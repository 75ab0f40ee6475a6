package regexvm

import (
	"iter"
	"unicode/utf8"
)

// inlineSlots is the capture-slot capacity a Match carries without a heap
// allocation: enough for the whole match plus three groups.
const inlineSlots = 8

// Match is the result of one search. It borrows the input string and owns
// its capture slots; the slots live inline when the pattern has at most
// three capture groups and spill to the heap beyond that.
//
// Slot pair 2k/2k+1 brackets group k as a half-open byte range. Group 0 is
// the whole match. A slot value of -1 means the group did not participate.
type Match struct {
	input  string
	ok     bool
	nslots int
	inline [inlineSlots]int
	heap   []int
}

// makeMatch wraps engine capture slots. A nil slice is the no-match value.
func makeMatch(input string, slots []int) Match {
	m := Match{input: input}
	if slots == nil {
		return m
	}
	m.ok = true
	m.nslots = len(slots)
	if len(slots) <= inlineSlots {
		copy(m.inline[:], slots)
	} else {
		m.heap = slots
	}
	return m
}

// slot returns the i'th capture slot.
func (m *Match) slot(i int) int {
	if m.heap != nil {
		return m.heap[i]
	}
	return m.inline[i]
}

// Ok reports whether the search matched.
func (m *Match) Ok() bool {
	return m.ok
}

// GroupCount returns the number of groups including group 0, or 0 for a
// failed match.
func (m *Match) GroupCount() int {
	if !m.ok {
		return 0
	}
	return m.nslots / 2
}

// GroupPresent reports whether group i participated in the match.
func (m *Match) GroupPresent(i int) bool {
	return m.ok && i >= 0 && 2*i < m.nslots && m.slot(2*i) >= 0
}

// Group returns the text of group i. An absent group reads as "".
func (m *Match) Group(i int) string {
	if !m.GroupPresent(i) {
		return ""
	}
	return m.input[m.slot(2*i):m.slot(2*i+1)]
}

// GroupIndex returns the half-open byte range of group i, or (-1, -1) when
// the group is absent.
func (m *Match) GroupIndex(i int) (start, end int) {
	if !m.GroupPresent(i) {
		return -1, -1
	}
	return m.slot(2 * i), m.slot(2*i + 1)
}

// Hit returns the matched substring.
func (m *Match) Hit() string {
	return m.Group(0)
}

// WholeMatch returns the matched substring; it is a synonym for Hit.
func (m *Match) WholeMatch() string {
	return m.Hit()
}

// Pre returns the input before the match.
func (m *Match) Pre() string {
	if !m.ok {
		return ""
	}
	return m.input[:m.slot(0)]
}

// Post returns the input after the match.
func (m *Match) Post() string {
	if !m.ok {
		return ""
	}
	return m.input[m.slot(1):]
}

// StartByte returns the byte offset where the match begins.
func (m *Match) StartByte() int {
	if !m.ok {
		return -1
	}
	return m.slot(0)
}

// EndByte returns the byte offset just past the match.
func (m *Match) EndByte() int {
	if !m.ok {
		return -1
	}
	return m.slot(1)
}

// MatchRange enumerates successive non-overlapping matches. Each match
// begins at or after the previous match's end; an empty match advances one
// code point so enumeration always terminates.
//
//	r := re.MatchAll(s)
//	for r.Next() {
//	    use(r.Match())
//	}
type MatchRange struct {
	re    *Regexp
	input string
	cur   Match
	next  int
	done  bool
	err   error
}

// MatchAll returns a range over the non-overlapping matches in s.
func (re *Regexp) MatchAll(s string) *MatchRange {
	return &MatchRange{re: re, input: s}
}

// Next advances to the following match. It returns false when no match
// remains or an engine error occurred; Err distinguishes the two.
func (r *MatchRange) Next() bool {
	if r.done || r.next > len(r.input) {
		r.done = true
		return false
	}
	slots, err := r.re.matchFrom(r.input, r.next)
	if err != nil {
		r.err = err
		r.done = true
		return false
	}
	if slots == nil {
		r.done = true
		return false
	}
	r.cur = makeMatch(r.input, slots)

	end := r.cur.EndByte()
	if end == r.cur.StartByte() {
		if end < len(r.input) {
			_, w := utf8.DecodeRuneInString(r.input[end:])
			end += w
		} else {
			end++
		}
	}
	r.next = end
	return true
}

// Match returns the current match. The result is valid until the next call
// to Next.
func (r *MatchRange) Match() *Match {
	return &r.cur
}

// Err returns the engine error that stopped enumeration, if any.
func (r *MatchRange) Err() error {
	return r.err
}

// All returns an iterator over the non-overlapping matches in s, yielding
// each Match by value.
func (re *Regexp) All(s string) iter.Seq[Match] {
	return func(yield func(Match) bool) {
		r := re.MatchAll(s)
		for r.Next() {
			if !yield(r.cur) {
				return
			}
		}
	}
}

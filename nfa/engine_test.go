package nfa

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// engineCase is shared by the lockstep and backtracker tables: both engines
// must produce the same result on the lookaround-free subset.
type engineCase struct {
	name    string
	pattern string
	input   string
	start   int
	want    []int // capture slots, nil = no match
}

var engineCases = []engineCase{
	{
		name:    "literal at offset",
		pattern: `hello`,
		input:   "say hello",
		want:    []int{4, 9},
	},
	{
		name:    "literal absent",
		pattern: `hello`,
		input:   "say goodbye",
		want:    nil,
	},
	{
		name:    "empty pattern",
		pattern: ``,
		input:   "abc",
		want:    []int{0, 0},
	},
	{
		name:    "empty input no match",
		pattern: `a`,
		input:   "",
		want:    nil,
	},
	{
		name:    "any char crosses newline",
		pattern: `a.b`,
		input:   "a\nb",
		want:    []int{0, 3},
	},
	{
		name:    "class run",
		pattern: `[0-9]+`,
		input:   "abc123def",
		want:    []int{3, 6},
	},
	{
		name:    "negated class",
		pattern: `[^a]+`,
		input:   "aaxy",
		want:    []int{2, 4},
	},
	{
		name:    "alternation is leftmost first",
		pattern: `a|ab`,
		input:   "xab",
		want:    []int{1, 2},
	},
	{
		name:    "greedy star",
		pattern: `a*`,
		input:   "aaab",
		want:    []int{0, 3},
	},
	{
		name:    "lazy plus",
		pattern: `a+?`,
		input:   "aaa",
		want:    []int{0, 1},
	},
	{
		name:    "lazy question",
		pattern: `a??b`,
		input:   "ab",
		want:    []int{0, 2},
	},
	{
		name:    "bounded repeat greedy",
		pattern: `x{2,3}`,
		input:   "xxxx",
		want:    []int{0, 3},
	},
	{
		name:    "bounded repeat minimum unmet",
		pattern: `^a{2,3}b`,
		input:   "aaaab",
		want:    nil,
	},
	{
		name:    "unbounded repeat",
		pattern: `a{2,}`,
		input:   "baaaa",
		want:    []int{1, 5},
	},
	{
		name:    "exact repeat",
		pattern: `^a{3}$`,
		input:   "aaa",
		want:    []int{0, 3},
	},
	{
		name:    "capture pair",
		pattern: `(a+)(b+)`,
		input:   "xaabbb",
		want:    []int{1, 6, 1, 3, 3, 6},
	},
	{
		name:    "optional group left unset",
		pattern: `(a(.*))?(b)`,
		input:   "b",
		want:    []int{0, 1, -1, -1, -1, -1, 0, 1},
	},
	{
		name:    "optional group taken",
		pattern: `(a(.*))?(b)`,
		input:   "ab",
		want:    []int{0, 2, 0, 1, 1, 1, 1, 2},
	},
	{
		name:    "anchored both ends",
		pattern: `^ab$`,
		input:   "ab",
		want:    []int{0, 2},
	},
	{
		name:    "caret rejects interior",
		pattern: `^b`,
		input:   "ab",
		want:    nil,
	},
	{
		name:    "caret rejects nonzero start",
		pattern: `^a`,
		input:   "aa",
		start:   1,
		want:    nil,
	},
	{
		name:    "dollar at end",
		pattern: `a$`,
		input:   "bca",
		want:    []int{2, 3},
	},
	{
		name:    "multiline caret",
		pattern: `(?m)^b`,
		input:   "a\nb",
		want:    []int{2, 3},
	},
	{
		name:    "multiline dollar",
		pattern: `(?m)a$`,
		input:   "xa\nb",
		want:    []int{1, 2},
	},
	{
		name:    "word boundary",
		pattern: `\bfoo\b`,
		input:   "a foo bar",
		want:    []int{2, 5},
	},
	{
		name:    "non word boundary",
		pattern: `\Boo`,
		input:   "foo oo",
		want:    []int{1, 3},
	},
	{
		name:    "digit class escape",
		pattern: `\d+`,
		input:   "v1.24",
		want:    []int{1, 2},
	},
	{
		name:    "negated digit escape",
		pattern: `\D+`,
		input:   "12ab34",
		want:    []int{2, 4},
	},
	{
		name:    "space escape",
		pattern: `\s+`,
		input:   "a \t b",
		want:    []int{1, 4},
	},
	{
		name:    "case insensitive literal",
		pattern: `(?i)HeLLo`,
		input:   "xxhello",
		want:    []int{2, 7},
	},
	{
		name:    "case insensitive scoped",
		pattern: `a(?i:b)c`,
		input:   "aBc",
		want:    []int{0, 3},
	},
	{
		name:    "case insensitive off outside scope",
		pattern: `a(?i:b)c`,
		input:   "aBC",
		want:    nil,
	},
	{
		name:    "case insensitive class",
		pattern: `(?i)[a-c]+`,
		input:   "xAbC",
		want:    []int{1, 4},
	},
	{
		name:    "start offset search",
		pattern: `ab`,
		input:   "abab",
		start:   1,
		want:    []int{2, 4},
	},
	{
		name:    "non capturing group",
		pattern: `(?:ab)+`,
		input:   "xababy",
		want:    []int{1, 5},
	},
	{
		name:    "nested groups",
		pattern: `((a)(b))`,
		input:   "ab",
		want:    []int{0, 2, 0, 2, 0, 1, 1, 2},
	},
	{
		name:    "greedy dot spans packets",
		pattern: `<packet.*/packet>`,
		input:   "<packet>text</packet><packet>text</packet>",
		want:    []int{0, 42},
	},
	{
		name:    "lazy dot stops at first packet",
		pattern: `<packet.*?/packet>`,
		input:   "<packet>text</packet><packet>text</packet>",
		want:    []int{0, 21},
	},
	{
		name:    "multibyte input",
		pattern: `こ(.*)`,
		input:   "こんにちは",
		want:    []int{0, 15, 3, 15},
	},
	{
		name:    "escaped metachar",
		pattern: `\(\d\)`,
		input:   "x(7)y",
		want:    []int{1, 4},
	},
	{
		name:    "control escapes",
		pattern: `a\tb`,
		input:   "a\tb",
		want:    []int{0, 3},
	},
	{
		name:    "pathological quantifiers still match",
		pattern: strings.Repeat(`a?`, 18) + strings.Repeat(`a`, 18),
		input:   strings.Repeat("a", 18),
		want:    []int{0, 18},
	},
}

func runEngine(t *testing.T, eng interface {
	MatchAt(string, int) ([]int, error)
}, tc engineCase) {
	t.Helper()
	got, err := eng.MatchAt(tc.input, tc.start)
	if err != nil {
		t.Fatalf("MatchAt(%q, %d): %v", tc.input, tc.start, err)
	}
	if diff := cmp.Diff(tc.want, got); diff != "" {
		t.Errorf("MatchAt(%q, %d) mismatch (-want +got):\n%s", tc.input, tc.start, diff)
	}
}

func TestLockstepTable(t *testing.T) {
	for _, tc := range engineCases {
		t.Run(tc.name, func(t *testing.T) {
			eng, err := NewLockstep(MustCompile(tc.pattern))
			if err != nil {
				t.Fatalf("NewLockstep: %v", err)
			}
			runEngine(t, eng, tc)
		})
	}
}

func TestBacktrackTable(t *testing.T) {
	for _, tc := range engineCases {
		t.Run(tc.name, func(t *testing.T) {
			runEngine(t, NewBacktracker(MustCompile(tc.pattern)), tc)
		})
	}
}

func TestLockstepRejectsLookaround(t *testing.T) {
	if _, err := NewLockstep(MustCompile(`a(?=b)`)); err != ErrLookaroundUnsupported {
		t.Fatalf("NewLockstep = %v, want ErrLookaroundUnsupported", err)
	}
}

func TestLockstepScratchReuse(t *testing.T) {
	eng, err := NewLockstep(MustCompile(`(a+)b`))
	if err != nil {
		t.Fatalf("NewLockstep: %v", err)
	}
	for i := 0; i < 3; i++ {
		got, err := eng.MatchAt("xxaab", 0)
		if err != nil {
			t.Fatalf("MatchAt: %v", err)
		}
		want := []int{2, 5, 2, 4}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Fatalf("call %d mismatch (-want +got):\n%s", i, diff)
		}
		if got2, _ := eng.MatchAt("nope", 0); got2 != nil {
			t.Fatalf("call %d on non-matching input = %v, want nil", i, got2)
		}
	}
}

func TestBacktrackLookaround(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		input   string
		want    []int
	}{
		{"lookahead holds", `q(?=u)`, "qu", []int{0, 1}},
		{"lookahead fails", `q(?=u)`, "qo", nil},
		{"negative lookahead holds", `q(?!u)`, "qo", []int{0, 1}},
		{"negative lookahead fails", `q(?!u)`, "qu", nil},
		{"lookbehind holds", `(?<=q)u`, "qu", []int{1, 2}},
		{"lookbehind fails", `(?<=q)u`, "!u", nil},
		{"negative lookbehind holds", `(?<!q)u`, "!u", []int{1, 2}},
		{"negative lookbehind fails", `(?<!q)u`, "qu", nil},
		{"lookahead with capture", `a(?=(b+))`, "abbb", []int{0, 1, 1, 4}},
		{"multibyte lookbehind", `(?<=こ)ん`, "こんにちは", []int{3, 6}},
		{"lookahead then consume", `foo(?=bar)bar`, "foobar", []int{0, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eng := NewBacktracker(MustCompile(tt.pattern))
			got, err := eng.MatchAt(tt.input, 0)
			if err != nil {
				t.Fatalf("MatchAt: %v", err)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("MatchAt(%q) mismatch (-want +got):\n%s", tt.input, diff)
			}
		})
	}
}

func TestBacktrackStepLimit(t *testing.T) {
	eng := NewBacktracker(MustCompile(`(a|a){10}b`))
	eng.SetStepLimit(500)
	_, err := eng.MatchAt(strings.Repeat("a", 10), 0)
	if err != ErrStepLimit {
		t.Fatalf("MatchAt = %v, want ErrStepLimit", err)
	}
}

// genAtom and genPattern build random patterns over a small alphabet.
// Quantifiers apply only to single-character atoms so the backtracker never
// faces an empty-bodied loop.
func genAtom(r *rand.Rand) string {
	atoms := []string{"a", "b", "c", "x", ".", "[ab]", "[^c]", "[a-c]", `\d`, `\w`}
	a := atoms[r.Intn(len(atoms))]
	switch r.Intn(8) {
	case 0:
		return a + "*"
	case 1:
		return a + "+"
	case 2:
		return a + "?"
	case 3:
		return a + "*?"
	case 4:
		return a + "{1,2}"
	default:
		return a
	}
}

func genPattern(r *rand.Rand, depth int) string {
	var b strings.Builder
	n := 1 + r.Intn(4)
	for i := 0; i < n; i++ {
		switch {
		case depth > 0 && r.Intn(4) == 0:
			b.WriteString("(" + genPattern(r, depth-1) + ")")
		case depth > 0 && r.Intn(6) == 0:
			b.WriteString("(?:" + genPattern(r, depth-1) + "|" + genPattern(r, depth-1) + ")")
		default:
			b.WriteString(genAtom(r))
		}
	}
	return b.String()
}

func genInput(r *rand.Rand) string {
	const alphabet = "abcx19 "
	n := r.Intn(13)
	var b strings.Builder
	for i := 0; i < n; i++ {
		b.WriteByte(alphabet[r.Intn(len(alphabet))])
	}
	return b.String()
}

// TestEnginesAgreeRandom drives both engines with randomly generated
// patterns and inputs and requires identical capture slots.
func TestEnginesAgreeRandom(t *testing.T) {
	r := rand.New(rand.NewSource(42))
	for i := 0; i < 500; i++ {
		pattern := genPattern(r, 2)
		prog, err := Compile(pattern)
		if err != nil {
			t.Fatalf("Compile(%q): %v", pattern, err)
		}
		lock, err := NewLockstep(prog)
		if err != nil {
			t.Fatalf("NewLockstep(%q): %v", pattern, err)
		}
		back := NewBacktracker(prog)

		for j := 0; j < 8; j++ {
			input := genInput(r)
			lres, err := lock.MatchAt(input, 0)
			if err != nil {
				t.Fatalf("lockstep MatchAt(%q, %q): %v", pattern, input, err)
			}
			bres, err := back.MatchAt(input, 0)
			if err != nil {
				t.Fatalf("backtrack MatchAt(%q, %q): %v", pattern, input, err)
			}
			if diff := cmp.Diff(lres, bres); diff != "" {
				t.Fatalf("engines disagree on pattern %q, input %q (-lockstep +backtrack):\n%s",
					pattern, input, diff)
			}
		}
	}
}

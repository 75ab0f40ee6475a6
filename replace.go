package regexvm

import "strings"

// ReplaceAllString returns src with every non-overlapping match replaced by
// repl. Inside repl, $k and $$ expand to capture group k and a literal
// dollar; any other $ is kept as-is.
func (re *Regexp) ReplaceAllString(src, repl string) string {
	return re.replaceAll(src, func(b *strings.Builder, m *Match) {
		expandGroups(b, repl, m)
	})
}

// ReplaceAllLiteralString returns src with every non-overlapping match
// replaced by repl with no expansion of $ sequences.
func (re *Regexp) ReplaceAllLiteralString(src, repl string) string {
	return re.replaceAll(src, func(b *strings.Builder, _ *Match) {
		b.WriteString(repl)
	})
}

// ReplaceAllStringFunc returns src with every non-overlapping match
// replaced by the result of f applied to the matched text.
func (re *Regexp) ReplaceAllStringFunc(src string, f func(string) string) string {
	return re.replaceAll(src, func(b *strings.Builder, m *Match) {
		b.WriteString(f(m.Hit()))
	})
}

func (re *Regexp) replaceAll(src string, emit func(*strings.Builder, *Match)) string {
	var b strings.Builder
	prev := 0
	matched := false
	r := re.MatchAll(src)
	for r.Next() {
		m := r.Match()
		matched = true
		b.WriteString(src[prev:m.StartByte()])
		emit(&b, m)
		prev = m.EndByte()
	}
	if !matched {
		return src
	}
	b.WriteString(src[prev:])
	return b.String()
}

// expandGroups writes repl with $-sequences expanded from m.
func expandGroups(b *strings.Builder, repl string, m *Match) {
	for i := 0; i < len(repl); {
		if repl[i] != '$' {
			b.WriteByte(repl[i])
			i++
			continue
		}
		if i+1 < len(repl) && repl[i+1] == '$' {
			b.WriteByte('$')
			i += 2
			continue
		}
		j := i + 1
		num := 0
		for j < len(repl) && repl[j] >= '0' && repl[j] <= '9' {
			num = num*10 + int(repl[j]-'0')
			j++
		}
		if j == i+1 {
			b.WriteByte('$')
			i++
			continue
		}
		b.WriteString(m.Group(num))
		i = j
	}
}

// SplitString slices src around every non-overlapping match, returning at
// most n substrings when n >= 0.
func (re *Regexp) SplitString(src string, n int) []string {
	if n == 0 {
		return nil
	}
	var out []string
	prev := 0
	r := re.MatchAll(src)
	for r.Next() {
		if n > 0 && len(out) == n-1 {
			break
		}
		m := r.Match()
		out = append(out, src[prev:m.StartByte()])
		prev = m.EndByte()
	}
	return append(out, src[prev:])
}

// QuoteMeta returns a pattern that matches the literal text s, escaping
// every metacharacter.
func QuoteMeta(s string) string {
	const special = `\.+*?()|[]{}^$`
	n := 0
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(special, s[i]) >= 0 {
			n++
		}
	}
	if n == 0 {
		return s
	}
	buf := make([]byte, 0, len(s)+n)
	for i := 0; i < len(s); i++ {
		if strings.IndexByte(special, s[i]) >= 0 {
			buf = append(buf, '\\')
		}
		buf = append(buf, s[i])
	}
	return string(buf)
}

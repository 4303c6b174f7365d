package store

import (
	"strings"

	mberrors "github.com/wippyai/mbridge/errors"
)

// Ref names a variable or global node: a name and its subscripts.
// Global names carry the leading caret.
type Ref struct {
	Name string
	Subs []string
}

// IsGlobal reports whether the ref names a ^global.
func (r Ref) IsGlobal() bool { return strings.HasPrefix(r.Name, "^") }

// Child returns the ref extended by one subscript.
func (r Ref) Child(sub string) Ref {
	subs := make([]string, len(r.Subs)+1)
	copy(subs, r.Subs)
	subs[len(r.Subs)] = sub
	return Ref{Name: r.Name, Subs: subs}
}

// Parent returns the ref without its last subscript.
func (r Ref) Parent() Ref {
	if len(r.Subs) == 0 {
		return r
	}
	return Ref{Name: r.Name, Subs: r.Subs[:len(r.Subs)-1]}
}

// Last returns the last subscript, or "" for an unsubscripted ref.
func (r Ref) Last() string {
	if len(r.Subs) == 0 {
		return ""
	}
	return r.Subs[len(r.Subs)-1]
}

// String formats the ref in M syntax: ^DD(0,"B","x").
func (r Ref) String() string {
	if len(r.Subs) == 0 {
		return r.Name
	}
	var b strings.Builder
	b.WriteString(r.Name)
	b.WriteByte('(')
	for i, s := range r.Subs {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteString(Quote(s))
	}
	b.WriteByte(')')
	return b.String()
}

// Quote renders a subscript: canonic numbers bare, strings quoted with
// embedded quotes doubled.
func Quote(s string) string {
	if IsCanonic(s) {
		return s
	}
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

// ParseRef parses a literal reference such as ^DD(0,"B","x") or X(1).
// Subscripts must be quoted strings or numeric literals.
func ParseRef(s string) (Ref, error) {
	s = strings.TrimSpace(s)
	i := 0
	if i < len(s) && s[i] == '^' {
		i++
	}
	start := i
	for i < len(s) && isNameChar(s[i], i == start) {
		i++
	}
	if i == start {
		return Ref{}, badRef(s, "missing name")
	}
	ref := Ref{Name: s[:i]}
	if i == len(s) {
		return ref, nil
	}
	if s[i] != '(' || s[len(s)-1] != ')' {
		return Ref{}, badRef(s, "malformed subscripts")
	}
	body := s[i+1 : len(s)-1]

	for pos := 0; pos <= len(body); {
		var sub string
		if pos < len(body) && body[pos] == '"' {
			var sb strings.Builder
			pos++
			closed := false
			for pos < len(body) {
				if body[pos] == '"' {
					if pos+1 < len(body) && body[pos+1] == '"' {
						sb.WriteByte('"')
						pos += 2
						continue
					}
					pos++
					closed = true
					break
				}
				sb.WriteByte(body[pos])
				pos++
			}
			if !closed {
				return Ref{}, badRef(s, "unterminated string")
			}
			sub = sb.String()
		} else {
			end := strings.IndexByte(body[pos:], ',')
			if end < 0 {
				end = len(body) - pos
			}
			lit := strings.TrimSpace(body[pos : pos+end])
			n, ok := CanonicNumber(lit)
			if !ok {
				return Ref{}, badRef(s, "subscript "+lit+" is not a literal")
			}
			sub = n
			pos += end
		}
		ref.Subs = append(ref.Subs, sub)
		if pos == len(body) {
			break
		}
		if body[pos] != ',' {
			return Ref{}, badRef(s, "expected ,")
		}
		pos++
	}
	return ref, nil
}

// CanonicNumber converts a plain numeric literal to canonic form: "01"
// becomes "1", "1.50" becomes "1.5", "0.5" becomes ".5".
func CanonicNumber(lit string) (string, bool) {
	if lit == "" {
		return "", false
	}
	neg := false
	switch lit[0] {
	case '-':
		neg = true
		lit = lit[1:]
	case '+':
		lit = lit[1:]
	}
	intPart, frac, hasPoint := strings.Cut(lit, ".")
	if intPart == "" && (!hasPoint || frac == "") {
		return "", false
	}
	for _, part := range []string{intPart, frac} {
		for _, c := range part {
			if c < '0' || c > '9' {
				return "", false
			}
		}
	}
	intPart = strings.TrimLeft(intPart, "0")
	frac = strings.TrimRight(frac, "0")
	out := intPart
	if frac != "" {
		out += "." + frac
	}
	if out == "" {
		return "0", true
	}
	if neg {
		out = "-" + out
	}
	return out, true
}

func isNameChar(c byte, first bool) bool {
	switch {
	case c == '%':
		return first
	case c >= 'A' && c <= 'Z', c >= 'a' && c <= 'z':
		return true
	case c >= '0' && c <= '9':
		return !first
	}
	return false
}

func badRef(s, detail string) error {
	return mberrors.New(mberrors.PhaseStore, mberrors.KindInvalidInput).Value(s).Detail("bad reference %q: %s", s, detail).Build()
}

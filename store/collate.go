package store

import (
	"bytes"
	"strings"

	mberrors "github.com/wippyai/mbridge/errors"
)

// Subscripts collate in M order: canonic numbers first, by value, then
// strings, bytewise. Each subscript encodes to a self-delimiting byte
// string that preserves that order, so a node's descendants form the byte
// range [key, key+0xFF).
const (
	tagNeg  byte = 0x10
	tagZero byte = 0x11
	tagPos  byte = 0x12
	tagStr  byte = 0x20

	strEnd    byte = 0x01 // after 0x00
	strEscape byte = 0xFF // after 0x00
	negEnd    byte = 0xFF
	posEnd    byte = 0x00

	// rangeEnd sorts after every subscript tag.
	rangeEnd byte = 0xFF

	// longer digit strings collate as strings
	maxNumericSubscript = 64
)

// IsCanonic reports whether s is an M canonic number: no leading or
// trailing zeros, no trailing point, no plus sign, no "-0".
func IsCanonic(s string) bool {
	if s == "0" {
		return true
	}
	if strings.HasPrefix(s, "-") {
		s = s[1:]
	}
	if s == "" {
		return false
	}
	intPart, frac, hasPoint := strings.Cut(s, ".")
	if intPart == "" && !hasPoint {
		return false
	}
	for _, c := range intPart {
		if c < '0' || c > '9' {
			return false
		}
	}
	if len(intPart) > 0 && intPart[0] == '0' {
		return false
	}
	if hasPoint {
		if frac == "" || frac[len(frac)-1] == '0' {
			return false
		}
		for _, c := range frac {
			if c < '0' || c > '9' {
				return false
			}
		}
	}
	return true
}

// appendSubscript appends the collation encoding of one subscript.
func appendSubscript(dst []byte, s string) []byte {
	if IsCanonic(s) && len(s) <= maxNumericSubscript {
		return appendNumber(dst, s)
	}
	dst = append(dst, tagStr)
	for i := 0; i < len(s); i++ {
		if s[i] == 0 {
			dst = append(dst, 0, strEscape)
			continue
		}
		dst = append(dst, s[i])
	}
	return append(dst, 0, strEnd)
}

// appendNumber encodes a canonic number as sign tag, biased decimal
// exponent and significant digits. Negative numbers invert the exponent
// and digits so larger magnitudes sort first.
func appendNumber(dst []byte, s string) []byte {
	if s == "0" {
		return append(dst, tagZero)
	}
	neg := s[0] == '-'
	if neg {
		s = s[1:]
	}
	intPart, frac, _ := strings.Cut(s, ".")
	digits := intPart + frac
	exp := len(intPart)
	lead := 0
	for lead < len(digits) && digits[lead] == '0' {
		lead++
	}
	digits = digits[lead:]
	exp -= lead

	e := byte(exp + 128)
	if !neg {
		dst = append(dst, tagPos, e)
		dst = append(dst, digits...)
		return append(dst, posEnd)
	}
	dst = append(dst, tagNeg, ^e)
	for i := 0; i < len(digits); i++ {
		dst = append(dst, ^digits[i])
	}
	return append(dst, negEnd)
}

// decodeSubscript decodes the subscript at the start of b and returns it
// with the remaining bytes.
func decodeSubscript(b []byte) (string, []byte, error) {
	if len(b) == 0 {
		return "", nil, errCorrupt("empty key")
	}
	switch b[0] {
	case tagZero:
		return "0", b[1:], nil
	case tagPos, tagNeg:
		return decodeNumber(b)
	case tagStr:
		var sb strings.Builder
		for i := 1; i < len(b); i++ {
			if b[i] != 0 {
				sb.WriteByte(b[i])
				continue
			}
			if i+1 >= len(b) {
				break
			}
			switch b[i+1] {
			case strEnd:
				return sb.String(), b[i+2:], nil
			case strEscape:
				sb.WriteByte(0)
				i++
				continue
			}
			break
		}
		return "", nil, errCorrupt("unterminated string subscript")
	}
	return "", nil, errCorrupt("unknown subscript tag")
}

func decodeNumber(b []byte) (string, []byte, error) {
	if len(b) < 3 {
		return "", nil, errCorrupt("short number subscript")
	}
	neg := b[0] == tagNeg
	e := b[1]
	end := posEnd
	if neg {
		e = ^e
		end = negEnd
	}
	exp := int(e) - 128

	i := bytes.IndexByte(b[2:], end)
	if i < 0 {
		return "", nil, errCorrupt("unterminated number subscript")
	}
	raw := b[2 : 2+i]
	digits := make([]byte, len(raw))
	for j, c := range raw {
		if neg {
			c = ^c
		}
		digits[j] = c
	}

	var sb strings.Builder
	if neg {
		sb.WriteByte('-')
	}
	switch {
	case exp <= 0:
		sb.WriteByte('.')
		sb.WriteString(strings.Repeat("0", -exp))
		sb.Write(digits)
	case exp >= len(digits):
		sb.Write(digits)
		sb.WriteString(strings.Repeat("0", exp-len(digits)))
	default:
		sb.Write(digits[:exp])
		sb.WriteByte('.')
		sb.Write(digits[exp:])
	}
	return sb.String(), b[3+i:], nil
}

// EncodeKey encodes a subscript list. The result is never nil, so an
// unsubscripted node binds as an empty blob rather than NULL.
func EncodeKey(subs []string) []byte {
	b := []byte{}
	for _, s := range subs {
		b = appendSubscript(b, s)
	}
	return b
}

// DecodeKey decodes a subscript list.
func DecodeKey(b []byte) ([]string, error) {
	var subs []string
	for len(b) > 0 {
		s, rest, err := decodeSubscript(b)
		if err != nil {
			return nil, err
		}
		subs = append(subs, s)
		b = rest
	}
	return subs, nil
}

// subtreeEnd returns the exclusive upper bound of key's descendants.
func subtreeEnd(key []byte) []byte {
	end := make([]byte, len(key)+1)
	copy(end, key)
	end[len(key)] = rangeEnd
	return end
}

// firstSubscript decodes the subscript following prefix in key.
func firstSubscript(key, prefix []byte) (string, error) {
	s, _, err := decodeSubscript(key[len(prefix):])
	return s, err
}

func errCorrupt(detail string) error {
	return mberrors.New(mberrors.PhaseStore, mberrors.KindInvalidData).Detail("corrupt key: %s", detail).Build()
}

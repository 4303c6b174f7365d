package interp

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/apd/v3"
)

// Precision is the number of significant decimal digits kept by
// arithmetic.
const Precision = 18

var mctx = apd.BaseContext.WithPrecision(Precision)

// numPrefix returns the numeric interpretation prefix of s as a plain
// literal: leading signs, digits, a fraction and an exponent. "12abc" is
// "12", "-+-3" is "3", "abc" is "0".
func numPrefix(s string) string {
	i := 0
	neg := false
	for i < len(s) && (s[i] == '+' || s[i] == '-') {
		if s[i] == '-' {
			neg = !neg
		}
		i++
	}
	start := i
	for i < len(s) && isDigit(s[i]) {
		i++
	}
	if i < len(s) && s[i] == '.' {
		j := i + 1
		for j < len(s) && isDigit(s[j]) {
			j++
		}
		if j > i+1 {
			i = j
		}
	}
	mant := s[start:i]
	if mant == "" || mant == "." {
		return "0"
	}
	if i < len(s) && (s[i] == 'E' || s[i] == 'e') {
		j := i + 1
		if j < len(s) && (s[j] == '+' || s[j] == '-') {
			j++
		}
		k := j
		for k < len(s) && isDigit(s[k]) {
			k++
		}
		if k > j {
			mant = s[start:k]
		}
	}
	if neg {
		return "-" + mant
	}
	return mant
}

// toNum interprets s as a number.
func toNum(s string) *apd.Decimal {
	d, _, err := apd.NewFromString(numPrefix(s))
	if err != nil {
		return apd.New(0, 0)
	}
	out := new(apd.Decimal)
	if _, err := mctx.Round(out, d); err != nil {
		return apd.New(0, 0)
	}
	return out
}

// formatNum renders d in M canonic form: no exponent, no trailing zeros,
// no leading zero before the point.
func formatNum(d *apd.Decimal) string {
	if d.IsZero() {
		return "0"
	}
	var r apd.Decimal
	r.Reduce(d)
	s := r.Text('f')
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	if strings.Contains(s, ".") {
		s = strings.TrimRight(s, "0")
		s = strings.TrimSuffix(s, ".")
	}
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	if neg {
		return "-" + s
	}
	return s
}

// canon returns the canonic numeric value of s.
func canon(s string) string { return formatNum(toNum(s)) }

// truth reports the truth value of s: nonzero numbers are true.
func truth(s string) bool { return !toNum(s).IsZero() }

func boolStr(b bool) string {
	if b {
		return "1"
	}
	return "0"
}

// formatInt renders an integer slot value.
func formatInt(v int64) string { return strconv.FormatInt(v, 10) }

// formatFloat renders a float slot value with 15 significant digits.
func formatFloat(v float64) string {
	return canon(strconv.FormatFloat(v, 'g', 15, 64))
}

// toInt truncates the numeric value of s toward zero.
func toInt(s string) int64 {
	i := truncated(toNum(s))
	v, err := i.Int64()
	if err != nil {
		if i.Negative {
			return -1 << 63
		}
		return 1<<63 - 1
	}
	return v
}

func truncated(d *apd.Decimal) *apd.Decimal {
	if d.Exponent >= 0 {
		return d
	}
	var out apd.Decimal
	c := mctx.WithPrecision(Precision)
	c.Rounding = apd.RoundDown
	if _, err := c.Quantize(&out, d, 0); err != nil {
		return apd.New(0, 0)
	}
	return &out
}

// toFloat converts the numeric value of s to a float64.
func toFloat(s string) float64 {
	f, err := toNum(s).Float64()
	if err != nil {
		return 0
	}
	return f
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

// arith applies a binary operator to two M values.
func arith(op string, a, b string) (string, error) {
	x, y := toNum(a), toNum(b)
	res := new(apd.Decimal)
	var (
		cond apd.Condition
		err  error
	)
	switch op {
	case "+":
		cond, err = mctx.Add(res, x, y)
	case "-":
		cond, err = mctx.Sub(res, x, y)
	case "*":
		cond, err = mctx.Mul(res, x, y)
	case "/":
		if y.IsZero() {
			return "", merr("DIVZERO")
		}
		cond, err = mctx.Quo(res, x, y)
	case "\\":
		if y.IsZero() {
			return "", merr("DIVZERO")
		}
		cond, err = mctx.QuoInteger(res, x, y)
	case "#":
		if y.IsZero() {
			return "", merr("DIVZERO")
		}
		// sign follows the divisor: x - y*floor(x/y)
		q := new(apd.Decimal)
		if _, err = mctx.Quo(q, x, y); err == nil {
			if _, err = mctx.Floor(q, q); err == nil {
				if _, err = mctx.Mul(q, q, y); err == nil {
					cond, err = mctx.Sub(res, x, q)
				}
			}
		}
	case "**":
		cond, err = mctx.Pow(res, x, y)
	default:
		return "", merr("UNIMPLOP", "operator "+op)
	}
	if err != nil || cond.Overflow() {
		if cond.DivisionByZero() {
			return "", merr("DIVZERO")
		}
		return "", merr("NUMOFLOW")
	}
	return formatNum(res), nil
}

// numCompare compares the numeric values of a and b.
func numCompare(a, b string) int {
	return toNum(a).Cmp(toNum(b))
}

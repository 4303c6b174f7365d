package main

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/wippyai/mbridge/callin"
	"github.com/wippyai/mbridge/mcall"
)

var floatPattern = regexp.MustCompile(`^[-+]?(\d+\.\d*|\.\d+|\d+)([eE][-+]?\d+)?$`)

// parseArg converts one command line argument:
//
//	17          integer
//	1.5         float
//	text        text
//	s:17        text, even when it looks numeric
//	ref:NAME    variable passed by name (proc and func only)
//	out:ARG     output marker around any of the above
func parseArg(s string) (any, error) {
	if rest, ok := strings.CutPrefix(s, "out:"); ok {
		inner, err := parseArg(rest)
		if err != nil {
			return nil, err
		}
		if _, isRef := inner.(mcall.Ref); isRef {
			return nil, fmt.Errorf("argument %q: a reference cannot be an output", s)
		}
		return callin.Out(inner), nil
	}
	if rest, ok := strings.CutPrefix(s, "s:"); ok {
		return rest, nil
	}
	if rest, ok := strings.CutPrefix(s, "ref:"); ok {
		if rest == "" {
			return nil, fmt.Errorf("argument %q: empty variable name", s)
		}
		return mcall.Ref{Name: rest}, nil
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	if floatPattern.MatchString(s) {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return f, nil
		}
	}
	return s, nil
}

func parseArgs(raw []string) ([]any, error) {
	args := make([]any, len(raw))
	for i, s := range raw {
		v, err := parseArg(s)
		if err != nil {
			return nil, err
		}
		args[i] = v
	}
	return args, nil
}

// formatValue renders one output the way M would print it.
func formatValue(v callin.Value) string {
	if v.Kind() == callin.KindText {
		return v.Text()
	}
	return v.String()
}

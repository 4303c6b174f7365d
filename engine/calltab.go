package engine

import (
	"fmt"
	"strings"
)

// DefaultEntry is the M routine holding the call-in labels.
const DefaultEntry = "mbridge"

// nativeType maps a parameter to its call-in table type.
func nativeType(p Param) string {
	var typ string
	switch p.Kind {
	case SlotCommand, SlotText, SlotTextRet:
		typ = "gtm_char_t*"
	case SlotInt, SlotIntRet:
		typ = "gtm_long_t"
	case SlotFloat, SlotFloatRet:
		typ = "gtm_double_t"
	}
	// Numbers are passed by reference unless input only; strings always are.
	if p.Dir != In && !strings.HasSuffix(typ, "*") {
		typ += "*"
	}
	return p.Dir.String() + ":" + typ
}

// CallTableLine renders the call-in table line for one routine.
func CallTableLine(sig Signature, entry string) string {
	params := make([]string, len(sig.Params))
	for i, p := range sig.Params {
		params[i] = nativeType(p)
	}
	return fmt.Sprintf("%s: void %s^%s(%s)", sig.Routine, sig.Routine, entry, strings.Join(params, ","))
}

// CallTable renders the call-in table (the file named by GTMCI) for every
// routine, with labels in routine entry. An empty entry selects DefaultEntry.
func CallTable(entry string) string {
	if entry == "" {
		entry = DefaultEntry
	}
	var b strings.Builder
	for _, r := range Routines() {
		sig, _ := SignatureOf(r)
		b.WriteString(CallTableLine(sig, entry))
		b.WriteByte('\n')
	}
	return b.String()
}

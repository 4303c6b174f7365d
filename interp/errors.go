package interp

import (
	"fmt"

	"github.com/wippyai/mbridge/engine"
)

// mError is a runtime error raised by M code. It surfaces through the
// engine as a nonzero status plus a ZStatus message.
type mError struct {
	mnemonic string
	text     string
	status   engine.Status
}

func (e *mError) Error() string {
	return fmt.Sprintf("%%MB-E-%s, %s", e.mnemonic, e.text)
}

type mnemonic struct {
	status engine.Status
	format string
}

var mnemonics = map[string]mnemonic{
	"UNDEF":         {101, "Undefined local variable: %s"},
	"GVUNDEF":       {102, "Global variable undefined: %s"},
	"DIVZERO":       {103, "Attempt to divide by zero"},
	"INVCMD":        {104, "Invalid command keyword encountered: %s"},
	"EXPR":          {105, "Expression expected but not found: %s"},
	"SPOREOL":       {106, "Either a space or an end-of-line was expected but not found: %s"},
	"LABELMISSING":  {107, "Label referenced but not defined: %s"},
	"ZLINKFILE":     {108, "Routine not found: %s"},
	"QUITARGREQD":   {109, "Quit from an extrinsic must have an argument"},
	"NOTEXTRINSIC":  {110, "Quit does not return to an extrinsic function: argument not allowed"},
	"INVFCN":        {111, "Invalid function name: %s"},
	"INVSVN":        {112, "Invalid special variable name: %s"},
	"NULSUBSC":      {113, "Null subscripts are not allowed: %s"},
	"TLVLZERO":      {114, "Transaction is not in progress"},
	"ACTLSTTOOLONG": {115, "More actual parameters than formal parameters: %s"},
	"RPARENMISSING": {116, "Right parenthesis expected: %s"},
	"STACKCRIT":     {117, "Stack space critical: %s"},
	"VAREXPECTED":   {118, "Variable expected in this context: %s"},
	"STRUNXEOL":     {119, "Unexpected end of line within a string literal: %s"},
	"NUMOFLOW":      {120, "Numeric overflow"},
	"FNARGINC":      {121, "Format specifiers to $FNUMBER are incompatible: %s"},
	"UNIMPLOP":      {122, "Unimplemented construct: %s"},
	"PROCFAIL":      {123, "Procedure %s failed: %s"},
	"INVOBJ":        {124, "Invalid routine source: %s"},
	"STORE":         {125, "Storage failure: %s"},
	"MAXSTRLEN":     {126, "Maximum string length exceeded"},
	"MAXARGCNT":     {127, "Maximum number of arguments exceeded: %s"},
	"NOCANONICNAME": {128, "Value is not a canonic name: %s"},
	"FCNARGCNT":     {129, "Wrong number of arguments to $%s"},
	"SELECTFALSE":   {130, "No argument to $SELECT was true"},
	"FMLLSTMISSING": {131, "Formal parameter list missing for %s"},
	"NOTLIVE":       {132, "Engine is not initialized"},
	"INVDOLLARDIR":  {133, "Invalid $ORDER direction: %s"},
	"RANDARGNEG":    {134, "Random number generator argument must be greater than or equal to one"},
}

// merr builds an M error. Unknown mnemonics fall back to UNIMPLOP.
func merr(name string, args ...any) *mError {
	m, ok := mnemonics[name]
	if !ok {
		name, m = "UNIMPLOP", mnemonics["UNIMPLOP"]
		args = []any{name}
	}
	text := m.format
	if len(args) > 0 {
		text = fmt.Sprintf(m.format, args...)
	}
	return &mError{mnemonic: name, text: text, status: m.status}
}

// statusOf maps any error to an engine status and message.
func statusOf(err error) (engine.Status, string) {
	if me, ok := err.(*mError); ok {
		return me.status, me.Error()
	}
	me := merr("STORE", err.Error())
	return me.status, me.Error()
}

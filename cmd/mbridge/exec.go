package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/wippyai/mbridge"
	"github.com/wippyai/mbridge/callin"
	"github.com/wippyai/mbridge/mcall"
)

// CallOptions holds flags shared by exec, proc and func.
type CallOptions struct {
	*RootOptions
	JSON bool
}

// NewExecCommand creates the exec command.
func NewExecCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "exec <command> [arg...]",
		Short: "Run an M command through mexec",
		Long: `Run an M command through mexec.

Arguments are packed into s0..s7, l0..l7 and d0..d7 by kind:
  17        integer       1.5      float       text     text
  s:17      forced text   out:ARG  returned after the call

Example:
  mbridge exec 'set s0=s0_" world",l0=$length(s0)' out:hello out:0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, args[1:], func(ctx context.Context, b *mbridge.Bridge, argv []any) (callin.Result, error) {
				return b.Exec(ctx, args[0], argv...)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print outputs as a JSON array")
	return cmd
}

// NewProcCommand creates the proc command.
func NewProcCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "proc <label^routine> [arg...]",
		Short: "Call an M procedure",
		Long: `Call an M procedure with do.

Output arguments are passed by reference and ref:NAME passes a variable by
name.

Example:
  mbridge proc testproc^vavistagtm out: out:0 out:0.0`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, args[1:], func(ctx context.Context, b *mbridge.Bridge, argv []any) (callin.Result, error) {
				return b.Proc(ctx, args[0], argv...)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print outputs as a JSON array")
	return cmd
}

// NewFuncCommand creates the func command.
func NewFuncCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &CallOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "func <function> [arg...]",
		Short: "Call an M function and print its value",
		Long: `Call an M function. Its value is printed first, then any outputs.

Example:
  mbridge func '$A' Beethoven
  mbridge func '$$fact^vavistagtm' 10`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.call(cmd, args[1:], func(ctx context.Context, b *mbridge.Bridge, argv []any) (callin.Result, error) {
				return b.Func(ctx, args[0], argv...)
			})
		},
	}
	cmd.Flags().BoolVar(&opts.JSON, "json", false, "print outputs as a JSON array")
	return cmd
}

func (o *CallOptions) call(cmd *cobra.Command, raw []string, fn func(context.Context, *mbridge.Bridge, []any) (callin.Result, error)) error {
	argv, err := parseArgs(raw)
	if err != nil {
		return err
	}
	if err := checkRefs(cmd.Name(), argv); err != nil {
		return err
	}
	return o.withBridge(cmd, func(ctx context.Context, b *mbridge.Bridge) error {
		rv, err := fn(ctx, b, argv)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), rv, o.JSON)
	})
}

// checkRefs rejects ref: arguments where they have no meaning.
func checkRefs(name string, argv []any) error {
	if name != "exec" {
		return nil
	}
	for i, a := range argv {
		if _, ok := a.(mcall.Ref); ok {
			return fmt.Errorf("argument %d: ref: is only valid for proc and func", i)
		}
	}
	return nil
}

func printResult(w io.Writer, rv callin.Result, asJSON bool) error {
	if asJSON {
		vals := rv.Any()
		if rv.IsUnit() {
			vals = []any{}
		}
		return json.NewEncoder(w).Encode(vals)
	}
	for _, v := range rv.Values() {
		if _, err := fmt.Fprintln(w, formatValue(v)); err != nil {
			return err
		}
	}
	return nil
}

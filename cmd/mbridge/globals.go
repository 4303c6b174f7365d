package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/itchyny/gojq"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/wippyai/mbridge"
	"github.com/wippyai/mbridge/engine"
	"github.com/wippyai/mbridge/globals"
)

// NewGetCommand creates the get command.
func NewGetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Print the value of a variable (mget)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBridge(cmd, func(ctx context.Context, b *mbridge.Bridge) error {
				v, err := b.MGet(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
}

// NewSetCommand creates the set command.
func NewSetCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set <name> <value>",
		Short: "Set a variable (mset)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBridge(cmd, func(ctx context.Context, b *mbridge.Bridge) error {
				return b.MSet(ctx, args[0], args[1])
			})
		},
	}
}

// NewOrderCommand creates the order command.
func NewOrderCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "order <name>",
		Short: "Print the next subscript at the same level (mord)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBridge(cmd, func(ctx context.Context, b *mbridge.Bridge) error {
				v, err := b.MOrder(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), v)
				return nil
			})
		},
	}
}

// NewDataCommand creates the data command.
func NewDataCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "data <name>",
		Short: "Print $DATA of a variable (mdata)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBridge(cmd, func(ctx context.Context, b *mbridge.Bridge) error {
				d, err := b.MData(ctx, args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), d)
				return nil
			})
		},
	}
}

// NewKillCommand creates the kill command.
func NewKillCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "kill <name>",
		Short: "Kill a variable and its descendants (mkill)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBridge(cmd, func(ctx context.Context, b *mbridge.Bridge) error {
				return b.MKill(ctx, args[0])
			})
		},
	}
}

// NewNamesCommand creates the names command.
func NewNamesCommand(rootOpts *RootOptions) *cobra.Command {
	var locals bool
	cmd := &cobra.Command{
		Use:   "names",
		Short: "List global names",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBridge(cmd, func(ctx context.Context, b *mbridge.Bridge) error {
				names, err := b.Names(ctx, locals)
				if err != nil {
					return err
				}
				for _, n := range names {
					fmt.Fprintln(cmd.OutOrStdout(), n)
				}
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&locals, "locals", false, "include local variables")
	return cmd
}

// DumpOptions holds flags for the dump command.
type DumpOptions struct {
	*RootOptions
	Query string
	Pairs bool
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &DumpOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "dump <name> [subscript...]",
		Short: "Print a global subtree as JSON",
		Long: `Print a global subtree as JSON. Each node is an object with "value"
when it has one and "children" keyed by subscript.

Examples:
  mbridge dump ^DD 9999940 --jq '.children | keys'
  mbridge dump ^DIC --pairs > dic.yaml`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.Pairs && opts.Query != "" {
				return fmt.Errorf("--pairs and --jq are exclusive")
			}
			return opts.withBridge(cmd, func(ctx context.Context, b *mbridge.Bridge) error {
				return opts.dump(ctx, cmd, b.Global(args[0], args[1:]...))
			})
		},
	}
	cmd.Flags().StringVar(&opts.Query, "jq", "", "jq filter applied to the JSON tree")
	cmd.Flags().BoolVar(&opts.Pairs, "pairs", false, "print (ref, value) pairs as YAML, loadable with load")
	return cmd
}

func (o *DumpOptions) dump(ctx context.Context, cmd *cobra.Command, n globals.Node) error {
	w := cmd.OutOrStdout()
	if o.Pairs {
		pairs, err := n.Serialise(ctx)
		if err != nil {
			return err
		}
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(pairs); err != nil {
			return err
		}
		return enc.Close()
	}
	if o.Query == "" {
		return n.DumpJSON(ctx, w)
	}

	q, err := gojq.Parse(o.Query)
	if err != nil {
		return fmt.Errorf("parse --jq: %w", err)
	}
	tree, err := n.Tree(ctx)
	if err != nil {
		return err
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	iter := q.Run(tree)
	for {
		v, ok := iter.Next()
		if !ok {
			return nil
		}
		if err, isErr := v.(error); isErr {
			return fmt.Errorf("--jq: %w", err)
		}
		if err := enc.Encode(v); err != nil {
			return err
		}
	}
}

// NewLoadCommand creates the load command.
func NewLoadCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "load <file>",
		Short: "Set every (ref, value) pair from a YAML file",
		Long: `Set every (ref, value) pair from a YAML file, as written by dump --pairs.

Loading only persists with a SQL store or a GT.M engine.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()
			pairs, err := globals.ReadPairs(f)
			if err != nil {
				return fmt.Errorf("read %s: %w", args[0], err)
			}
			return rootOpts.withBridge(cmd, func(ctx context.Context, b *mbridge.Bridge) error {
				if err := b.Load(ctx, pairs); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "loaded %d nodes\n", len(pairs))
				return nil
			})
		},
	}
}

// NewDDWalkCommand creates the ddwalk command.
func NewDDWalkCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "ddwalk <file>",
		Short: "List the data dictionary fields of a FileMan file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootOpts.withBridge(cmd, func(ctx context.Context, b *mbridge.Bridge) error {
				field := "0"
				for {
					e, err := b.DDWalk(ctx, args[0], field)
					if err != nil {
						return err
					}
					if e.FieldID == "" {
						return nil
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", e.FieldID, e.Info)
					field = e.FieldID
				}
			})
		},
	}
}

// NewCallTabCommand creates the calltab command.
func NewCallTabCommand(rootOpts *RootOptions) *cobra.Command {
	var entry string
	cmd := &cobra.Command{
		Use:   "calltab",
		Short: "Print the call-in table for GTMCI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := rootOpts.loadConfig()
			if err != nil {
				return err
			}
			if entry != "" {
				cfg.Entry = entry
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), engine.CallTable(cfg.Entry))
			return err
		},
	}
	cmd.Flags().StringVar(&entry, "entry", "", "M routine holding the call-in labels")
	return cmd
}

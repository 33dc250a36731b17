// Command linearkb is an introspection and demonstration CLI over the
// execution core: it builds a named fixture, runs it through an Engine,
// and prints the result. It does not parse a textual fact/rule language
// (spec's Non-goals keep a parser out of scope); goals and facts come
// from the fixtures registry instead.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/gokando-ll/linearlogic/internal/fixtures"
	"github.com/gokando-ll/linearlogic/internal/parallel"
	"github.com/gokando-ll/linearlogic/pkg/linearlogic"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "linearkb",
		Short: "Inspect and drive the linear-logic resolution core",
	}
	root.AddCommand(
		newAssertCmd(),
		newResolveCmd(),
		newResolveAllCmd(),
		newInspectCmd(),
		newBatchCmd(),
	)
	return root
}

func logger() hclog.Logger {
	return hclog.New(&hclog.LoggerOptions{
		Name:  "linearkb",
		Level: hclog.Info,
	})
}

func newAssertCmd() *cobra.Command {
	var fixture string
	cmd := &cobra.Command{
		Use:   "assert",
		Short: "Build a fixture and print its memory state (resource and rule counts)",
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, _, err := fixtures.Lookup(fixture)
			if err != nil {
				return err
			}
			kb.PrintMemoryState(cmd.OutOrStdout(), fixture)
			return nil
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "vending-machine", "fixture name (see `linearkb inspect --list`)")
	return cmd
}

func newResolveCmd() *cobra.Command {
	var fixture string
	cmd := &cobra.Command{
		Use:   "resolve",
		Short: "Resolve a fixture's goal in progressive (first-solution) mode",
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, goals, err := fixtures.Lookup(fixture)
			if err != nil {
				return err
			}
			eng := linearlogic.NewEngine(kb, linearlogic.WithEngineLogger(logger()))
			ok, err := eng.Resolve(cmd.Context(), goals)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: resolved=%v\n", fixture, ok)
			return nil
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "vending-machine", "fixture name (see `linearkb inspect --list`)")
	return cmd
}

func newResolveAllCmd() *cobra.Command {
	var fixture string
	var max int
	cmd := &cobra.Command{
		Use:   "resolve-all",
		Short: "Enumerate every distinct solution for a fixture's goal",
		RunE: func(cmd *cobra.Command, args []string) error {
			kb, goals, err := fixtures.Lookup(fixture)
			if err != nil {
				return err
			}
			eng := linearlogic.NewEngine(kb, linearlogic.WithEngineLogger(logger()))
			var original linearlogic.Term
			if len(goals) == 1 {
				original = goals[0]
			}
			results, err := eng.ResolveAll(cmd.Context(), goals, original, max)
			if err != nil {
				return err
			}
			in := kb.Interner()
			fmt.Fprintf(cmd.OutOrStdout(), "%s: %d solution(s)\n", fixture, results.Len())
			for _, sol := range results.Solutions() {
				fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", sol.Render(in))
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&fixture, "fixture", "type-directed-coin", "fixture name (see `linearkb inspect --list`)")
	cmd.Flags().IntVar(&max, "max", 0, "maximum solutions to collect (0 = unbounded)")
	return cmd
}

func newInspectCmd() *cobra.Command {
	var list bool
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "List available fixtures, or print one's memory state",
		RunE: func(cmd *cobra.Command, args []string) error {
			if list || len(args) == 0 {
				for name, f := range fixtures.All {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", name, f.Description)
				}
				return nil
			}
			kb, _, err := fixtures.Lookup(args[0])
			if err != nil {
				return err
			}
			kb.PrintMemoryState(cmd.OutOrStdout(), args[0])
			return nil
		},
	}
	cmd.Flags().BoolVar(&list, "list", false, "list every registered fixture name")
	return cmd
}

func newBatchCmd() *cobra.Command {
	var workers int
	cmd := &cobra.Command{
		Use:   "batch",
		Short: "Resolve every fixture concurrently, one independent KnowledgeBase per worker",
		Long: "Demonstrates the one concurrency case the execution core permits: " +
			"fanning independent queries out across independent KnowledgeBases. " +
			"No query's own resolution is ever run on more than one goroutine.",
		RunE: func(cmd *cobra.Command, args []string) error {
			pool := parallel.NewWorkerPool(workers)
			defer pool.Shutdown()

			type outcome struct {
				fixture string
				ok      bool
				err     error
			}
			results := make(chan outcome, len(fixtures.All))

			ctx := cmd.Context()
			for name := range fixtures.All {
				name := name
				if err := pool.Submit(ctx, func() {
					kb, goals, err := fixtures.Lookup(name)
					if err != nil {
						results <- outcome{fixture: name, err: err}
						return
					}
					eng := linearlogic.NewEngine(kb)
					ok, err := eng.Resolve(context.Background(), goals)
					results <- outcome{fixture: name, ok: ok, err: err}
				}); err != nil {
					return err
				}
			}

			for range fixtures.All {
				o := <-results
				if o.err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s: error: %v\n", o.fixture, o.err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s: resolved=%v\n", o.fixture, o.ok)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pool stats: %s\n", pool.GetStats())
			return nil
		},
	}
	cmd.Flags().IntVar(&workers, "workers", 0, "worker count (0 = runtime.NumCPU())")
	return cmd
}

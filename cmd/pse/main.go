// Command pse inspects grammars compiled from JSON schemas and checks
// candidate output against them.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	"github.com/proxy-structuring/pse/envconfig"
	"github.com/proxy-structuring/pse/grammar"
	"github.com/proxy-structuring/pse/logutil"
)

func checkHandler(cmd *cobra.Command, args []string) error {
	schema, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	g, err := grammar.FromSchemaBytes(schema)
	if err != nil {
		return err
	}

	var input []byte
	if len(args) > 1 {
		input = []byte(args[1])
	} else {
		if input, err = io.ReadAll(cmd.InOrStdin()); err != nil {
			return err
		}
	}

	var accepted []grammar.Walker
	for _, w := range g.NewWalker().Consume(string(input)) {
		if w.Remainder() == "" && w.Accepted() {
			accepted = append(accepted, w)
		}
	}
	if len(accepted) == 0 {
		return fmt.Errorf("input does not match the schema")
	}

	value, err := accepted[0].Value()
	if err != nil {
		return err
	}
	out, err := json.MarshalIndent(value, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}

// describe renders a transition matcher for the graph dump.
func describe(m grammar.Matcher) string {
	switch m := m.(type) {
	case *grammar.Literal:
		return fmt.Sprintf("literal %q", m.Text)
	case *grammar.Charset:
		if m.White == "" {
			return fmt.Sprintf("chars not in %q", m.Black)
		}
		return fmt.Sprintf("chars in %q", m.White)
	case *grammar.Sequence:
		if len(m.Items) == 0 {
			return "epsilon"
		}
		return fmt.Sprintf("sequence of %d", len(m.Items))
	case *grammar.Choice:
		return fmt.Sprintf("choice of %d", len(m.Items))
	case *grammar.Repeat:
		return "repetition"
	case *grammar.Scan:
		return "scan"
	case *grammar.Delimited:
		return fmt.Sprintf("delimited %q...%q", m.Start, m.End)
	case *grammar.Graph:
		return "graph " + m.Name()
	default:
		return fmt.Sprintf("%T", m)
	}
}

func graphHandler(cmd *cobra.Command, args []string) error {
	schema, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	g, err := grammar.FromSchemaBytes(schema)
	if err != nil {
		return err
	}

	ends := make(map[grammar.StateID]bool)
	for _, s := range g.Ends() {
		ends[s] = true
	}

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"From", "Matcher", "To", ""})
	for _, s := range g.States() {
		for _, t := range g.Transitions(s) {
			var mark string
			if ends[t.Target] {
				mark = "accept"
			}
			table.Append([]string{
				fmt.Sprint(s),
				describe(t.Matcher),
				fmt.Sprint(t.Target),
				mark,
			})
		}
	}
	table.Render()
	return nil
}

func envHandler(cmd *cobra.Command, _ []string) error {
	vars := envconfig.AsMap()
	names := make([]string, 0, len(vars))
	for name := range vars {
		names = append(names, name)
	}
	sort.Strings(names)

	table := tablewriter.NewWriter(cmd.OutOrStdout())
	table.SetHeader([]string{"Variable", "Value", "Description"})
	for _, name := range names {
		v := vars[name]
		table.Append([]string{v.Name, fmt.Sprint(v.Value), v.Description})
	}
	table.Render()
	return nil
}

func NewCLI() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "pse",
		Short:         "Grammar-constrained generation tools",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			slog.SetDefault(logutil.NewLogger(os.Stderr, logutil.Level(envconfig.Debug)))
		},
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
	}

	checkCmd := &cobra.Command{
		Use:   "check SCHEMA [INPUT]",
		Short: "Check input against a schema grammar and print its value",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  checkHandler,
	}

	graphCmd := &cobra.Command{
		Use:   "graph SCHEMA",
		Short: "Dump the compiled state graph of a schema",
		Args:  cobra.ExactArgs(1),
		RunE:  graphHandler,
	}

	envCmd := &cobra.Command{
		Use:   "env",
		Short: "Show environment configuration",
		Args:  cobra.NoArgs,
		RunE:  envHandler,
	}

	rootCmd.AddCommand(checkCmd, graphCmd, envCmd)
	return rootCmd
}

func main() {
	if err := NewCLI().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

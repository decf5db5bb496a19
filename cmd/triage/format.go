package main

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"

	"triage/internal/errors"
)

// usageError marks command-line mistakes so main exits 2 instead of 1.
type usageError struct {
	err error
}

func (u *usageError) Error() string { return u.err.Error() }
func (u *usageError) Unwrap() error { return u.err }

func usageErrorf(format string, args ...any) error {
	return &usageError{fmt.Errorf(format, args...)}
}

// exactArgs is cobra.ExactArgs with the failure classified as a usage error.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

// maxArgs is cobra.MaximumNArgs with the failure classified as a usage error.
func maxArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.MaximumNArgs(n)(cmd, args); err != nil {
			return &usageError{err}
		}
		return nil
	}
}

// exitCode maps a command error to the process exit code. Usage errors are
// never wrapped, so a direct type check is enough.
func exitCode(err error) int {
	if _, ok := err.(*usageError); ok {
		return 2
	}
	return 1
}

// printJSON writes v to stdout as indented JSON.
func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

// printError renders a command error on stderr. Typed errors print their
// code, details, and a suggested next step; everything else prints as-is.
func printError(err error) {
	if u, ok := err.(*usageError); ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", u.err)
		fmt.Fprintln(os.Stderr, "Run 'triage --help' for usage.")
		return
	}

	te, ok := errors.AsTriageError(err)
	if !ok {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return
	}

	if jsonOut {
		data, _ := json.MarshalIndent(te, "", "  ")
		fmt.Fprintln(os.Stderr, string(data))
		return
	}

	fmt.Fprintf(os.Stderr, "Error [%s]: %s\n", te.Code, te.Message)
	keys := make([]string, 0, len(te.Details))
	for k := range te.Details {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(os.Stderr, "  %s: %v\n", k, te.Details[k])
	}
	for _, line := range actionLines(te.Code) {
		fmt.Fprintf(os.Stderr, "  → %s\n", line)
	}
}

// actionLines renders the suggested fixes for an error code.
func actionLines(code errors.ErrorCode) []string {
	var lines []string
	for _, action := range errors.ActionsFor(code) {
		line := action.Description
		if action.Command != "" {
			line = fmt.Sprintf("%s: %s", action.Description, action.Command)
		}
		lines = append(lines, line)
	}
	return lines
}

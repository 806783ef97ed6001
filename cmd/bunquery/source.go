package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/kartikbazzad/bunbase/bunquery"
	"github.com/kartikbazzad/bunbase/bunquery/internal/jsonio"
	"github.com/kartikbazzad/bunbase/bunquery/internal/querydoc"
)

const stdinName = "-"

// queryFlags are shared by every subcommand that takes a query.
type queryFlags struct {
	inline     string
	file       string
	ignoreCase bool
}

func (f *queryFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&f.inline, "query", "q", "", "Query document as JSON")
	cmd.Flags().StringVarP(&f.file, "query-file", "f", "", "Query document file (.json, .yaml, .yml)")
	cmd.Flags().BoolVarP(&f.ignoreCase, "ignore-case", "i", false, "Match $regex case-insensitively")
	cmd.MarkFlagsMutuallyExclusive("query", "query-file")
}

func (f *queryFlags) load() (bunquery.Query, error) {
	switch {
	case f.file != "":
		raw, err := os.ReadFile(f.file)
		if err != nil {
			return nil, err
		}
		doc, err := querydoc.Load(raw, querydoc.FormatFromPath(f.file))
		if err != nil {
			return nil, fmt.Errorf("%s: %w", f.file, err)
		}
		return doc, nil
	case f.inline != "":
		return querydoc.Load([]byte(f.inline), querydoc.FormatJSON)
	}
	return nil, errors.New("one of --query or --query-file is required")
}

func (f *queryFlags) options() []bunquery.Option {
	caseSensitive := cfg.Query.CaseSensitive
	if f.ignoreCase {
		caseSensitive = false
	}
	return []bunquery.Option{bunquery.WithCaseSensitive(caseSensitive)}
}

func readInput(name string) ([]byte, error) {
	if name == stdinName {
		return io.ReadAll(os.Stdin)
	}
	return os.ReadFile(name)
}

// loadRecords reads a data file whose top level must be a sequence.
func loadRecords(name string) ([]any, error) {
	raw, err := readInput(name)
	if err != nil {
		return nil, err
	}
	v, err := jsonio.Load(name, raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	records, ok := bunquery.AsSequence(v)
	if !ok {
		return nil, fmt.Errorf("%s: %w: got %T", name, bunquery.ErrInvalidInput, v)
	}
	return records, nil
}

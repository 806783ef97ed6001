package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"
	"github.com/spf13/cobra"

	"github.com/kartikbazzad/bunbase/bunquery"
	"github.com/kartikbazzad/bunbase/bunquery/adapter"
	"github.com/kartikbazzad/bunbase/bunquery/internal/jsonio"
	"github.com/kartikbazzad/bunbase/bunquery/internal/querydoc"
)

const (
	prompt      = "bunquery> "
	historyFile = ".bunquery_history"
)

const shellHelp = `Type a JSON query document to filter the loaded records.
  .count              number of loaded records
  .ignorecase on|off  case-insensitive $regex
  .help               this text
  .exit               leave the shell
`

// shellSession holds the REPL state; it is independent of the terminal so
// commands can be driven directly.
type shellSession struct {
	source        string
	records       []any
	caseSensitive bool

	// Identical input lines reuse the same query map so the memo can serve
	// the cached result.
	queries map[string]bunquery.Query
	memo    *adapter.Memo[any]
}

func newShellSession(source string, records []any, caseSensitive bool) *shellSession {
	return &shellSession{
		source:        source,
		records:       records,
		caseSensitive: caseSensitive,
		queries:       make(map[string]bunquery.Query),
		memo:          adapter.NewMemo[any](),
	}
}

// exec runs one input line and reports whether the session should end.
func (s *shellSession) exec(input string, w io.Writer) bool {
	input = strings.TrimSpace(input)
	switch {
	case input == "":
		return false
	case input == ".exit" || input == ".quit":
		return true
	case input == ".help":
		fmt.Fprint(w, shellHelp)
	case input == ".count":
		fmt.Fprintf(w, "%d\n", len(s.records))
	case strings.HasPrefix(input, ".ignorecase"):
		switch strings.TrimSpace(strings.TrimPrefix(input, ".ignorecase")) {
		case "on":
			s.caseSensitive = false
		case "off":
			s.caseSensitive = true
		default:
			fmt.Fprintln(w, "ERROR")
			fmt.Fprintln(w, "usage: .ignorecase on|off")
			return false
		}
		fmt.Fprintf(w, "case sensitive: %t\n", s.caseSensitive)
	case strings.HasPrefix(input, "."):
		fmt.Fprintln(w, "ERROR")
		fmt.Fprintf(w, "unknown command %s, try .help\n", input)
	default:
		doc, ok := s.queries[input]
		if !ok {
			var err error
			doc, err = querydoc.Load([]byte(input), querydoc.FormatJSON)
			if err != nil {
				fmt.Fprintln(w, "ERROR")
				fmt.Fprintln(w, err.Error())
				return false
			}
			s.queries[input] = doc
		}
		results := s.memo.Query(s.records, doc, bunquery.WithCaseSensitive(s.caseSensitive))
		out, err := jsonio.Envelope(s.source, results, true)
		if err != nil {
			fmt.Fprintln(w, "ERROR")
			fmt.Fprintln(w, err.Error())
			return false
		}
		w.Write(out)
	}
	return false
}

func newShellCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "shell FILE",
		Short: "Interactive query shell over FILE",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := loadRecords(args[0])
			if err != nil {
				return err
			}
			session := newShellSession(args[0], records, cfg.Query.CaseSensitive)

			line := liner.NewLiner()
			defer line.Close()
			line.SetCtrlCAborts(true)

			histPath := ""
			if home, err := os.UserHomeDir(); err == nil {
				histPath = filepath.Join(home, historyFile)
				if f, err := os.Open(histPath); err == nil {
					line.ReadHistory(f)
					f.Close()
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Loaded %d records from %s. Type '.help' for commands.\n", len(records), args[0])

			for {
				input, err := line.Prompt(prompt)
				if err != nil {
					if errors.Is(err, liner.ErrPromptAborted) || errors.Is(err, io.EOF) {
						fmt.Fprintln(out)
						break
					}
					return err
				}
				if strings.TrimSpace(input) != "" {
					line.AppendHistory(input)
				}
				if session.exec(input, out) {
					break
				}
			}

			if histPath != "" {
				if f, err := os.Create(histPath); err == nil {
					line.WriteHistory(f)
					f.Close()
				}
			}
			return nil
		},
	}
}

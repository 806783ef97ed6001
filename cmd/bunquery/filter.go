package main

import (
	"fmt"
	"log/slog"
	"sync"

	"github.com/panjf2000/ants/v2"
	"github.com/spf13/cobra"

	"github.com/kartikbazzad/bunbase/bunquery"
	"github.com/kartikbazzad/bunbase/bunquery/internal/jsonio"
	"github.com/kartikbazzad/bunbase/bunquery/internal/logger"
	"github.com/kartikbazzad/bunbase/bunquery/internal/rules"
)

// filterJob is one input file run through the query and optional guard.
type filterJob struct {
	query  bunquery.Query
	opts   []bunquery.Option
	where  string
	guard  *rules.RulesEngine
	indent bool
	log    *slog.Logger
}

func (j *filterJob) logger() *slog.Logger {
	if j.log == nil {
		return logger.Get()
	}
	return j.log
}

func newFilterCmd() *cobra.Command {
	var (
		qf      queryFlags
		where   string
		indent  bool
		workers int
	)

	cmd := &cobra.Command{
		Use:   "filter [files...]",
		Short: "Filter JSON or JSON Lines files; reads stdin when no file is given",
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := qf.load()
			if err != nil {
				return err
			}

			job := &filterJob{
				query:  doc,
				opts:   qf.options(),
				where:  where,
				indent: indent,
				log:    logger.WithTraceID(cmd.Context(), logger.Get()),
			}
			if where != "" {
				engine, err := rules.NewRulesEngine()
				if err != nil {
					return err
				}
				if _, err := engine.Compile(where); err != nil {
					return fmt.Errorf("--where: %w", err)
				}
				job.guard = engine
			}

			if len(args) == 0 {
				args = []string{stdinName}
			}
			if !cmd.Flags().Changed("workers") {
				workers = cfg.Workers
			}

			outputs, err := job.runAll(args, workers)
			if err != nil {
				return err
			}
			for _, out := range outputs {
				if _, err := cmd.OutOrStdout().Write(out); err != nil {
					return err
				}
			}
			return nil
		},
	}

	qf.register(cmd)
	cmd.Flags().StringVar(&where, "where", "", "CEL guard applied to each match, e.g. 'record.qty * record.price > 100.0'")
	cmd.Flags().BoolVar(&indent, "pretty", false, "Indent output")
	cmd.Flags().IntVar(&workers, "workers", 4, "Files filtered concurrently")
	return cmd
}

// runAll filters every source on a bounded pool and returns the encoded
// envelopes in argument order. The first failing source aborts the output.
func (j *filterJob) runAll(sources []string, workers int) ([][]byte, error) {
	if workers < 1 {
		workers = 1
	}
	pool, err := ants.NewPool(workers, ants.WithPanicHandler(func(v any) {
		j.logger().Error("filter worker panic", "panic", v)
	}))
	if err != nil {
		return nil, err
	}
	defer pool.Release()

	outputs := make([][]byte, len(sources))
	errs := make([]error, len(sources))

	var wg sync.WaitGroup
	for i, name := range sources {
		i, name := i, name
		wg.Add(1)
		if err := pool.Submit(func() {
			defer wg.Done()
			outputs[i], errs[i] = j.run(name)
		}); err != nil {
			wg.Done()
			errs[i] = err
		}
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return nil, err
		}
		if outputs[i] == nil {
			return nil, fmt.Errorf("%s: filter aborted", sources[i])
		}
	}
	return outputs, nil
}

func (j *filterJob) run(name string) ([]byte, error) {
	records, err := loadRecords(name)
	if err != nil {
		return nil, err
	}

	results, err := bunquery.FilterAny(records, j.query, j.opts...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	results = j.applyGuard(results)

	j.logger().Debug("filtered source", "source", name, "records", len(records), "matched", len(results))
	return jsonio.Envelope(name, results, j.indent)
}

// applyGuard keeps records the CEL guard allows. Evaluation errors (e.g. a
// missing field) exclude the record.
func (j *filterJob) applyGuard(results []any) []any {
	if j.guard == nil {
		return results
	}
	kept := results[:0:0]
	for _, rec := range results {
		ok, err := j.guard.Evaluate(j.where, rec)
		if err != nil {
			j.logger().Debug("guard rejected record", "error", err)
			continue
		}
		if ok {
			kept = append(kept, rec)
		}
	}
	return kept
}

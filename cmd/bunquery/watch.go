package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/kartikbazzad/bunbase/bunquery"
	"github.com/kartikbazzad/bunbase/bunquery/adapter"
	"github.com/kartikbazzad/bunbase/bunquery/internal/jsonio"
	"github.com/kartikbazzad/bunbase/bunquery/internal/logger"
	"github.com/kartikbazzad/bunbase/bunquery/internal/watch"
)

func newWatchCmd() *cobra.Command {
	var (
		qf     queryFlags
		delay  time.Duration
		indent bool
	)

	cmd := &cobra.Command{
		Use:   "watch FILE",
		Short: "Re-filter FILE every time it changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			doc, err := qf.load()
			if err != nil {
				return err
			}
			if !cmd.Flags().Changed("delay") {
				delay = cfg.Watch.Delay
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			return watchFile(ctx, args[0], doc, qf.options(), delay, indent, cmd.OutOrStdout())
		},
	}

	qf.register(cmd)
	cmd.Flags().DurationVar(&delay, "delay", adapter.DefaultDelay, "Quiet period before re-filtering")
	cmd.Flags().BoolVar(&indent, "pretty", false, "Indent output")
	return cmd
}

// watchFile prints the envelope for path once, then after every debounced
// change, until ctx is done.
func watchFile(ctx context.Context, path string, doc bunquery.Query, opts []bunquery.Option, delay time.Duration, indent bool, out io.Writer) error {
	records, err := loadRecords(path)
	if err != nil {
		return err
	}
	log := logger.WithTraceID(ctx, logger.Get())

	var mu sync.Mutex
	emit := func(results []any) {
		body, err := jsonio.Envelope(path, results, indent)
		if err != nil {
			log.Error("failed to encode results", "error", err)
			return
		}
		mu.Lock()
		defer mu.Unlock()
		out.Write(body)
	}

	d := adapter.NewDebounced(records, doc,
		adapter.WithDelay(delay),
		adapter.WithQueryOptions(opts...),
		adapter.WithDebounceLogger(log),
	)
	defer d.Close()
	d.OnResult(emit)
	emit(d.Result().Results)

	fw, err := watch.NewFileWatcher(path, func(p string) {
		recs, err := loadRecords(p)
		if err != nil {
			// Usually a partial write; the next event brings the full file.
			log.Warn("skipping unreadable data file", "path", p, "error", err)
			return
		}
		d.Update(recs, doc)
	}, log)
	if err != nil {
		return err
	}
	if err := fw.Start(ctx); err != nil {
		fw.Stop()
		return err
	}
	defer fw.Stop()

	log.Info("watching data file", "path", path, "delay", delay)
	<-ctx.Done()
	return nil
}

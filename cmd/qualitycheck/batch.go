package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/internal/store"
)

type batchOptions struct {
	evidence bool
	persist  bool
}

func (o *batchOptions) bind(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&o.evidence, "evidence", false, "include the per-sentence evidence trace")
	cmd.Flags().BoolVar(&o.persist, "store", false, "also save the results to the store")
}

func checkCmd(a *app) *cobra.Command {
	var opts batchOptions
	var file string

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Score news items from stdin or a file",
		Run: func(cmd *cobra.Command, args []string) {
			in := cmd.InOrStdin()
			if file != "" && file != "-" {
				f, err := os.Open(file)
				if err != nil {
					a.logger.Error("open input", "file", file, "error", err)
					fmt.Fprintln(cmd.OutOrStdout(), "[]")
					return
				}
				defer f.Close()
				in = f
			}
			runBatch(cmd.Context(), a, in, cmd.OutOrStdout(), opts)
		},
	}

	opts.bind(cmd)
	cmd.Flags().StringVarP(&file, "file", "f", "", "read items from this file instead of stdin")
	return cmd
}

// runBatch is the fail-open scorer: every problem is logged to stderr and
// stdout always receives a JSON array.
func runBatch(ctx context.Context, a *app, in io.Reader, out io.Writer, opts batchOptions) {
	scored, err := quality.Check(in, out, quality.Options{IncludeEvidence: opts.evidence})
	if err != nil {
		a.logger.Error("quality check failed", "error", err)
		return
	}
	a.logger.Debug("quality check done", "items", len(scored))

	if !opts.persist || len(scored) == 0 {
		return
	}
	st, err := store.Open(ctx, a.cfg.Store)
	if err != nil {
		a.logger.Error("open store", "dsn", a.cfg.Store.DSN, "error", err)
		return
	}
	defer st.Close()

	recs := make([]store.Record, 0, len(scored))
	for _, s := range scored {
		recs = append(recs, store.NewRecord(s, "", ""))
	}
	run, err := st.SaveRun(ctx, "cli", recs)
	if err != nil {
		a.logger.Error("save results", "error", err)
		return
	}
	a.logger.Info("results stored", "run_id", run.ID, "items", run.Items)
}

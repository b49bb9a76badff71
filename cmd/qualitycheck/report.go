package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newsquality/internal/report"
	"github.com/RobinCoderZhao/newsquality/internal/store"
	"github.com/RobinCoderZhao/newsquality/pkg/notify"
)

func reportCmd(a *app) *cobra.Command {
	var runID, pngPath, compareID string
	var send bool

	cmd := &cobra.Command{
		Use:   "report",
		Short: "Render a stored run as Markdown or PNG",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			ctx := cmd.Context()
			st, err := store.Open(ctx, a.cfg.Store)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			d, err := loadDigest(cmd, st, runID)
			if err != nil {
				return err
			}

			if pngPath != "" {
				r := report.NewImageRenderer(a.cfg.Report.FontPath)
				if err := r.RenderPNG(d, pngPath); err != nil {
					return err
				}
				a.logger.Info("report written", "path", pngPath, "items", len(d.Records))
			} else {
				fmt.Fprint(cmd.OutOrStdout(), report.FormatMarkdown(d))
			}

			if compareID != "" {
				prev, err := loadDigest(cmd, st, compareID)
				if err != nil {
					return fmt.Errorf("load run to compare: %w", err)
				}
				fmt.Fprint(cmd.OutOrStdout(), "\n"+report.FormatComparison(prev, d))
			}

			if send {
				if a.cfg.Alert.URL == "" {
					return errors.New("--send needs alert.url")
				}
				dispatcher := notify.NewDispatcher(a.logger)
				dispatcher.Register(notify.NewWebhookNotifier(a.cfg.Alert))
				if err := dispatcher.SendAll(ctx, report.Message(d)); err != nil {
					return fmt.Errorf("send report: %w", err)
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&runID, "run", "", "run id (default: latest run)")
	cmd.Flags().StringVar(&pngPath, "png", "", "write a PNG table to this path instead of Markdown")
	cmd.Flags().StringVar(&compareID, "compare", "", "also print what changed since this run")
	cmd.Flags().BoolVar(&send, "send", false, "also post the Markdown digest to the alert webhook")
	return cmd
}

func loadDigest(cmd *cobra.Command, st *store.Store, runID string) (report.Digest, error) {
	ctx := cmd.Context()
	var run store.Run
	if runID == "" {
		latest, err := st.LatestRun(ctx)
		if err != nil {
			return report.Digest{}, err
		}
		if latest == nil {
			return report.Digest{}, errors.New("no runs stored yet")
		}
		run = *latest
	} else {
		run = store.Run{ID: runID}
	}

	recs, err := st.RunResults(ctx, run.ID)
	if err != nil {
		return report.Digest{}, err
	}
	if runID != "" && len(recs) == 0 {
		return report.Digest{}, fmt.Errorf("run %q has no results", runID)
	}
	return report.Digest{Run: run, Records: recs}, nil
}

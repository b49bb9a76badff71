package main

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newsquality/internal/quality"
	"github.com/RobinCoderZhao/newsquality/internal/store"
)

func resultsCmd(a *app) *cobra.Command {
	var f store.Filter
	var badge string
	var outputJSON bool

	cmd := &cobra.Command{
		Use:   "results",
		Short: "List stored quality results, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.requireConfig(); err != nil {
				return err
			}
			b, err := parseBadge(badge)
			if err != nil {
				return err
			}
			f.Badge = b

			st, err := store.Open(cmd.Context(), a.cfg.Store)
			if err != nil {
				return fmt.Errorf("open store: %w", err)
			}
			defer st.Close()

			recs, err := st.ListResults(cmd.Context(), f)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if outputJSON {
				if recs == nil {
					recs = []store.Record{}
				}
				enc := json.NewEncoder(out)
				enc.SetEscapeHTML(false)
				enc.SetIndent("", "  ")
				return enc.Encode(recs)
			}

			tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "RUN\tNEWS ID\tSCORE\tBADGE\tFLAGS\tTITLE")
			for _, r := range recs {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\t%s\t%s\n",
					shortID(r.RunID), orDash(r.NewsID), r.Score, r.Badge, orDash(strings.Join(r.Flags, ",")), r.Title)
			}
			return tw.Flush()
		},
	}

	cmd.Flags().StringVar(&badge, "badge", "", "filter by badge: good, warning, bad (or the emoji)")
	cmd.Flags().StringVar(&f.RunID, "run", "", "filter by run id")
	cmd.Flags().IntVarP(&f.Limit, "limit", "n", 50, "maximum rows")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "print JSON")
	return cmd
}

// parseBadge accepts a badge emoji or its English name.
func parseBadge(s string) (quality.Badge, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "":
		return "", nil
	case "good", "ok", string(quality.BadgeGood):
		return quality.BadgeGood, nil
	case "warning", "warn", string(quality.BadgeWarning):
		return quality.BadgeWarning, nil
	case "bad", "fail", string(quality.BadgeBad):
		return quality.BadgeBad, nil
	}
	return "", fmt.Errorf("unknown badge %q", s)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

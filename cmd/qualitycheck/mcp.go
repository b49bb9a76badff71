package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/RobinCoderZhao/newsquality/internal/mcptools"
	"github.com/RobinCoderZhao/newsquality/internal/store"
	"github.com/RobinCoderZhao/newsquality/pkg/mcpserver"
)

func mcpCmd(a *app) *cobra.Command {
	var noStore bool

	cmd := &cobra.Command{
		Use:   "mcp",
		Short: "Serve the quality tools over MCP on stdin/stdout",
		RunE: func(cmd *cobra.Command, args []string) error {
			srv := mcpserver.New("qualitycheck", version, a.logger)
			srv.Use(mcpserver.RecoveryMiddleware(a.logger), mcpserver.LoggingMiddleware(a.logger))

			var lister mcptools.ResultLister
			if !noStore && a.cfgErr == nil {
				st, err := store.Open(cmd.Context(), a.cfg.Store)
				if err != nil {
					return fmt.Errorf("open store: %w", err)
				}
				defer st.Close()
				lister = st
			}
			mcptools.Register(srv, lister)

			return srv.Serve(cmd.Context(), cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}

	cmd.Flags().BoolVar(&noStore, "no-store", false, "only offer the scoring tool")
	return cmd
}

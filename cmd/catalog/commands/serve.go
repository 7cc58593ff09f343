package commands

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wallpaper-catalog/internal/server"
	"wallpaper-catalog/internal/startup"
)

func (a *app) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the catalog, images and metrics over HTTP (read-only)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start := time.Now()

			e, err := a.open(cmd.Context(), false)
			if err != nil {
				return err
			}
			defer e.Close()
			startup.LogStartup(e.cfg)

			logCfg := server.DefaultLoggingConfig()
			logCfg.LogAssets = e.cfg.LogAssets
			logCfg.LogHealthChecks = e.cfg.LogHealthChecks

			srv := server.New(server.Config{
				Addr:      fmt.Sprintf(":%d", e.cfg.Port),
				OutputDir: e.cfg.OutputDir,
				Store:     e.store,
				Version:   startup.Version,
				AccessLog: logCfg,
			})
			startup.LogHTTPRoutes(srv.Router())
			startup.LogServerStarted(e.cfg.Port, time.Since(start))

			if err := srv.ListenAndServe(cmd.Context()); err != nil {
				return err
			}
			startup.LogShutdownInitiated("interrupt")
			startup.LogShutdownComplete()
			return nil
		},
	}

	cmd.Flags().Int("port", 0, "listen port (default 8080)")
	cmd.Flags().Bool("log-assets", false, "access-log image and thumbnail requests")
	a.bind(cmd.Flags(), "port", "log-assets")
	return cmd
}

package cli

import (
	"github.com/spf13/cobra"

	"github.com/matzehuels/lineagewalk/pkg/server"
)

// serveCommand creates the serve command, which exposes extraction over HTTP.
func (c *CLI) serveCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the lineage HTTP API",
		Long: `Serve the lineage HTTP API.

Endpoints:
  GET  /healthz
  POST /v1/lineage            {"objects": [...], "direction": "UPSTREAM", "max_distance": 5}
  GET  /v1/lineage/{object}   ?direction=&max_distance=&format=json|csv|markdown|dot

The server shares one warehouse connection and one cache across requests.
Use the redis cache backend when several instances run side by side.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			cfg, err := c.loadConfig(cmd)
			if err != nil {
				return err
			}
			defaults, err := cfg.LineageOptions()
			if err != nil {
				return err
			}
			defaults.Logger = c.Logger

			sess, err := c.openSession(ctx, cfg, false, false)
			if err != nil {
				return err
			}
			defer sess.Close()

			srv := server.New(sess.extractor, server.Options{Defaults: defaults, Logger: c.Logger})
			printInfo("Listening on %s", StyleHighlight.Render(cfg.Server.Addr))
			return srv.ListenAndServe(ctx, cfg.Server.Addr, cfg.Server.ShutdownTimeout)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().Int("max-distance", 5, "default hop ceiling for requests that omit it")
	cmd.Flags().Int("concurrency", 1, "default parallel lookups per round")
	addCacheFlags(cmd)
	addSnowflakeFlags(cmd)

	return cmd
}

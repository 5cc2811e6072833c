package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/matzehuels/lineagewalk/pkg/errors"
	"github.com/matzehuels/lineagewalk/pkg/lineage"
	"github.com/matzehuels/lineagewalk/pkg/snowflake"
)

// extractOpts holds flags that are not configuration keys.
type extractOpts struct {
	output   string
	noCache  bool
	refresh  bool
	detailed bool
}

// extractCommand creates the extract command.
func (c *CLI) extractCommand() *cobra.Command {
	var opts extractOpts

	cmd := &cobra.Command{
		Use:   "extract [DB.SCHEMA.OBJECT ...]",
		Short: "Extract transitive lineage for tables, views and stages",
		Long: `Extract the transitive lineage of one or more objects.

Each object is classified, then expanded one hop at a time up to
--max-distance hops. The per-object results are unioned into one
14-column table. Objects that are neither tables nor stages are skipped
with a warning.

Objects can be given as arguments or listed under "objects" in the config
file. Quoted identifiers keep their case: 'DB."Mixed".T'.

Examples:
  lineagewalk extract ANALYTICS.PUBLIC.ORDERS
  lineagewalk extract ANALYTICS.PUBLIC.ORDERS --direction downstream --max-distance 2
  lineagewalk extract RAW.LANDING.EVENTS_STAGE -f json -o lineage.json
  lineagewalk extract ANALYTICS.PUBLIC.ORDERS -f svg -o orders.svg`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runExtract(cmd.Context(), cmd, args, opts)
		},
	}

	f := cmd.Flags()
	f.String("direction", string(lineage.Upstream), "traversal direction: upstream or downstream")
	f.Int("max-distance", lineage.DefaultMaxDistance, fmt.Sprintf("hop ceiling (1-%d)", lineage.MaxDistanceCeiling))
	f.Int("concurrency", lineage.DefaultConcurrency, fmt.Sprintf("parallel lookups per round (1-%d)", lineage.MaxConcurrency))
	f.Int("root-concurrency", 1, fmt.Sprintf("objects expanded in parallel (1-%d)", lineage.MaxConcurrency))
	f.StringP("format", "f", "table", "output format: table, json, csv, markdown, dot, svg")
	f.StringVarP(&opts.output, "output", "o", "", "output file (stdout if empty)")
	f.BoolVar(&opts.noCache, "no-cache", false, "disable the lookup cache")
	f.BoolVar(&opts.refresh, "refresh", false, "ignore cached lookups but store fresh ones")
	f.BoolVar(&opts.detailed, "detailed", false, "label graph nodes and edges with details (dot, svg)")
	addCacheFlags(cmd)
	addSnowflakeFlags(cmd)

	return cmd
}

// addSnowflakeFlags registers the connection flags shared by extract and serve.
func addSnowflakeFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("account", "", "Snowflake account identifier")
	f.String("user", "", "Snowflake user")
	f.String("role", "", "Snowflake role")
	f.String("warehouse", "", "Snowflake warehouse")
	f.String("authenticator", snowflake.AuthPassword, "snowflake, externalbrowser or snowflake_jwt")
}

// addCacheFlags registers the cache backend flags.
func addCacheFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.String("cache-backend", "file", "lookup cache: file, redis or none")
	f.Duration("cache-ttl", 0, "lifetime of cached lookups (default 24h)")
	f.String("cache-dir", "", "file cache directory (default: user cache dir)")
	f.String("redis-addr", "", "redis address for the redis backend (default localhost:6379)")
}

func (c *CLI) runExtract(ctx context.Context, cmd *cobra.Command, args []string, opts extractOpts) error {
	logger := loggerFromContext(ctx)

	cfg, err := c.loadConfig(cmd)
	if err != nil {
		return err
	}
	roots, err := cfg.Roots(args...)
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		return errors.New(errors.ErrCodeInvalidInput, "no objects: pass DB.SCHEMA.OBJECT arguments or set objects in the config file")
	}
	lopts, err := cfg.LineageOptions()
	if err != nil {
		return err
	}
	lopts.Logger = logger

	sess, err := c.openSession(ctx, cfg, opts.noCache, opts.refresh)
	if err != nil {
		return err
	}
	defer sess.Close()

	prog := newProgress(logger)
	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Expanding %d object(s) %s", len(roots), strings.ToLower(string(lopts.Direction))))
	spinner.Start()
	res, err := sess.extractor.Extract(ctx, roots, lopts)
	spinner.Stop()
	if err != nil {
		return err
	}
	prog.done(fmt.Sprintf("Extracted %d rows", res.Table.Len()))

	reportResult(res)
	return writeResult(ctx, cmd.OutOrStdout(), res, cfg.Format, opts.output, opts.detailed)
}

// reportResult prints skipped roots and a summary line on the status stream.
func reportResult(res *lineage.Result) {
	for _, s := range res.Skipped {
		printWarning("Skipped %s: %s", s.Root, s.Reason)
	}
	lookups := 0
	for _, r := range res.Roots {
		lookups += r.Stats.Lookups
	}
	printStats(res.Table.Len(), len(res.Roots), len(res.Skipped), lookups)
}

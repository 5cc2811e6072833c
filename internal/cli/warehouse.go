package cli

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/matzehuels/lineagewalk/pkg/cache"
	"github.com/matzehuels/lineagewalk/pkg/config"
	"github.com/matzehuels/lineagewalk/pkg/lineage"
	"github.com/matzehuels/lineagewalk/pkg/snowflake"
)

// warehouse bundles the two collaborators the extractor talks to.
type warehouse struct {
	classifier lineage.Classifier
	source     lineage.Source
	closer     io.Closer
}

type connectFunc func(ctx context.Context, cfg snowflake.Config) (*warehouse, error)

func connectSnowflake(ctx context.Context, cfg snowflake.Config) (*warehouse, error) {
	db, err := snowflake.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &warehouse{
		classifier: snowflake.NewClassifier(db, snowflake.Options{}),
		source:     snowflake.NewSource(db, snowflake.Options{}),
		closer:     db,
	}, nil
}

// session is an extractor together with the resources it holds open.
type session struct {
	extractor *lineage.Extractor
	wh        *warehouse
	cache     cache.Cache
}

func (s *session) Close() error {
	cerr := s.cache.Close()
	if s.wh.closer != nil {
		if err := s.wh.closer.Close(); err != nil {
			return err
		}
	}
	return cerr
}

// openSession connects to the warehouse and puts the configured cache in
// front of both collaborators.
func (c *CLI) openSession(ctx context.Context, cfg *config.Config, noCache, refresh bool) (*session, error) {
	store, err := newCache(ctx, cfg.Cache, noCache)
	if err != nil {
		return nil, fmt.Errorf("open cache: %w", err)
	}

	wh, err := c.connect(ctx, cfg.Snowflake)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	opts := lineage.CacheOptions{
		Keyer:   cache.NewScopedKeyer(cache.NewDefaultKeyer(), cacheScope(cfg.Snowflake)),
		TTL:     cfg.Cache.TTL,
		Refresh: refresh,
	}
	x := lineage.NewExtractor(
		lineage.NewCachedClassifier(wh.classifier, store, opts),
		lineage.NewCachedSource(wh.source, store, opts),
	)
	c.Logger.Debug("session ready", "cache", cfg.Cache.Backend, "no_cache", noCache, "refresh", refresh)
	return &session{extractor: x, wh: wh, cache: store}, nil
}

// cacheScope prefixes cache keys with the account and role, since lineage
// visibility depends on both.
func cacheScope(cfg snowflake.Config) string {
	if cfg.DSN != "" && cfg.Account == "" {
		return "dsn-" + cache.Hash([]byte(cfg.DSN))[:12] + ":"
	}
	return fmt.Sprintf("%s:%s:", strings.ToLower(cfg.Account), strings.ToUpper(cfg.Role))
}

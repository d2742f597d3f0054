package cmd

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/linkhound/internal/api"
	"github.com/JakeFAU/linkhound/internal/clock/system"
	"github.com/JakeFAU/linkhound/internal/config"
	"github.com/JakeFAU/linkhound/internal/crawl"
	"github.com/JakeFAU/linkhound/internal/extract"
	collyfetcher "github.com/JakeFAU/linkhound/internal/fetcher/colly"
	"github.com/JakeFAU/linkhound/internal/hash/sha256"
	"github.com/JakeFAU/linkhound/internal/id/uuid"
	"github.com/JakeFAU/linkhound/internal/logging"
	"github.com/JakeFAU/linkhound/internal/policy/ratelimit"
	"github.com/JakeFAU/linkhound/internal/progress"
	"github.com/JakeFAU/linkhound/internal/progress/sinks"
	pubsubPublisher "github.com/JakeFAU/linkhound/internal/publisher/pubsub"
	queueMemory "github.com/JakeFAU/linkhound/internal/queue/memory"
	"github.com/JakeFAU/linkhound/internal/report"
	"github.com/JakeFAU/linkhound/internal/snapshot"
	"github.com/JakeFAU/linkhound/internal/storage"
	"github.com/JakeFAU/linkhound/internal/storage/gcs"
	"github.com/JakeFAU/linkhound/internal/storage/local"
	"github.com/JakeFAU/linkhound/internal/storage/postgres"
	"github.com/JakeFAU/linkhound/internal/store"
)

func newCrawlCmd(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "crawl",
		Short: "Start a crawl from the configured seeds",
		Long: `Starts a crawl from --url and/or the seed file, fetching pages with a
worker pool and following a sampled percentage of each page's links down to
the depth limit. Progress checkpoints to the output directory; rerun with
--resume to pick up where an interrupted crawl left off.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCrawl(cmd.Context(), v)
		},
	}

	flags := cmd.Flags()
	flags.String("url", "", "single seed URL (combined with --url-file seeds)")
	flags.String("url-file", "urls.txt", "seed list, one URL per line (\"-\" reads stdin)")
	flags.Int("depth", crawl.DefaultDepth, "maximum link depth; seeds are depth 0")
	flags.Int("threads", crawl.DefaultThreads, "fetch worker count")
	flags.Int("percentage", crawl.DefaultPercentage, "percentage of each page's links to follow (0-100)")
	flags.Int("timeout", 5, "per-fetch timeout in seconds")
	flags.Bool("exfiltrate", false, "track the longest unique link chain")
	flags.Bool("search-links", true, "extract and follow links; off crawls seeds only")
	flags.Bool("follow-redirects", true, "follow HTTP redirects")
	flags.Bool("same-host", false, "only follow links on the seed hosts")
	flags.String("keyword", "", "case-insensitive keyword to search for in page bodies")
	flags.String("user-agent", "", "fixed User-Agent header (default rotates a browser list)")
	flags.Bool("resume", false, "resume from the checkpoint in the output directory")
	flags.String("output", crawl.DefaultOutputDir, "directory for the checkpoint, reports, and archived pages")

	for key, name := range map[string]string{
		"seeds.url":              "url",
		"seeds.url_file":         "url-file",
		"crawl.depth":            "depth",
		"crawl.threads":          "threads",
		"crawl.percentage":       "percentage",
		"crawl.timeout_seconds":  "timeout",
		"crawl.exfiltrate":       "exfiltrate",
		"crawl.search_links":     "search-links",
		"crawl.follow_redirects": "follow-redirects",
		"crawl.same_host":        "same-host",
		"crawl.keyword":          "keyword",
		"crawl.user_agent":       "user-agent",
		"crawl.resume":           "resume",
		"output.dir":             "output",
	} {
		if err := v.BindPFlag(key, flags.Lookup(name)); err != nil {
			panic(fmt.Sprintf("bind %s flag: %v", name, err))
		}
	}

	return cmd
}

func runCrawl(ctx context.Context, v *viper.Viper) error {
	cfg, err := config.Load(v)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Development)
	if err != nil {
		return err
	}
	defer logger.Sync() //nolint:errcheck // best-effort flush
	zap.ReplaceGlobals(logger)

	seeds, err := loadSeeds(cfg)
	if err != nil {
		return err
	}
	crawlCfg := buildCrawlConfig(cfg, seeds)

	snaps, err := snapshot.New(cfg.Output.Dir, sha256.New())
	if err != nil {
		return err
	}
	restored, err := loadCheckpoint(cfg, snaps, logger)
	if err != nil {
		return err
	}

	archive, closeArchive, err := buildArchive(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer closeArchive()

	repo, closeRepo, err := buildRunRepo(ctx, cfg)
	if err != nil {
		return err
	}
	defer closeRepo()

	publisher, err := buildPublisher(ctx, cfg)
	if err != nil {
		return err
	}
	if publisher != nil {
		defer func() {
			if cerr := publisher.Close(); cerr != nil {
				logger.Warn("publisher close failed", zap.Error(cerr))
			}
		}()
	}

	hub, err := buildHub(repo, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if cerr := hub.Close(closeCtx); cerr != nil {
			logger.Warn("progress hub close failed", zap.Error(cerr))
		}
	}()

	var limiter crawl.Limiter
	if cfg.RateLimit.RPS > 0 {
		limiter = ratelimit.New(ratelimit.Config{
			PerDomainRPS: cfg.RateLimit.RPS,
			Burst:        cfg.RateLimit.Burst,
		})
	}

	deps := crawl.Deps{
		Queue: queueMemory.NewQueue(crawlCfg.Threads),
		Fetcher: collyfetcher.New(collyfetcher.Config{
			UserAgent:       crawlCfg.UserAgents[0],
			Timeout:         crawlCfg.Timeout,
			FollowRedirects: crawlCfg.FollowRedirects,
		}),
		Extractor: extract.New(),
		Limiter:   limiter,
		Archive:   archive,
		Hasher:    sha256.New(),
		Snapshots: snaps,
		Publisher: publisher,
		Emitter:   hub,
		Clock:     system.New(),
		IDs:       uuid.New(),
		Logger:    logger.Named("crawl"),
	}

	coord, err := crawl.NewCoordinator(crawlCfg, deps, restored)
	if err != nil {
		return err
	}

	logger.Info("crawl starting",
		zap.String("run_id", coord.RunID()),
		zap.Int("seeds", len(crawlCfg.Seeds)),
		zap.Int("depth", crawlCfg.Depth),
		zap.Int("threads", crawlCfg.Threads),
		zap.Int("percentage", crawlCfg.Percentage),
		zap.Bool("resume", restored != nil),
	)

	res, runErr := runWithServer(ctx, coord, repo, cfg, logger)

	if res.State == crawl.StateCompleted || res.State == crawl.StatePaused {
		writeReports(cfg.Output.Dir, res, logger)
	}

	if runErr != nil {
		if errors.Is(runErr, context.Canceled) && res.State == crawl.StatePaused {
			logger.Info("crawl paused; rerun with --resume to continue",
				zap.String("checkpoint", snaps.Path()))
			return nil
		}
		return runErr
	}
	return nil
}

// runWithServer runs the coordinator, optionally alongside the status HTTP
// server. A server fault cancels the group context so the crawl checkpoints
// before the error surfaces.
func runWithServer(
	ctx context.Context,
	coord *crawl.Coordinator,
	repo store.RunRepository,
	cfg config.Config,
	logger *zap.Logger,
) (crawl.Result, error) {
	var (
		res    crawl.Result
		runErr error
	)
	g, gctx := errgroup.WithContext(ctx)

	var srv *http.Server
	if cfg.Server.Enabled {
		apiServer := api.NewServer(repo, api.Config{
			Addr:   cfg.Server.Addr,
			APIKey: cfg.Server.APIKey,
		}, logger.Named("api"))
		srv = &http.Server{
			Addr:              cfg.Server.Addr,
			Handler:           apiServer.Handler(),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			logger.Info("status server started", zap.String("addr", cfg.Server.Addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("status server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		res, runErr = coord.Run(gctx)
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("status server shutdown error", zap.Error(err))
			}
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		// The server fault is the root cause; the crawl only paused because
		// the group context collapsed.
		if runErr == nil || errors.Is(runErr, context.Canceled) {
			runErr = err
		} else {
			logger.Error("status server failed", zap.Error(err))
		}
	}
	return res, runErr
}

// loadSeeds resolves the seed sources. The default seed file is optional once
// --url supplies a seed; an explicitly missing file still fails inside
// LoadSeeds.
func loadSeeds(cfg config.Config) ([]string, error) {
	seedFile := cfg.Seeds.URLFile
	if cfg.Seeds.URL != "" && seedFile != "" && seedFile != "-" {
		if _, err := os.Stat(seedFile); errors.Is(err, fs.ErrNotExist) {
			seedFile = ""
		}
	}
	return crawl.LoadSeeds(cfg.Seeds.URL, seedFile, os.Stdin)
}

func buildCrawlConfig(cfg config.Config, seeds []string) crawl.Config {
	agents := crawl.DefaultUserAgents
	if cfg.Crawl.UserAgent != "" {
		agents = []string{cfg.Crawl.UserAgent}
	}
	return crawl.Config{
		Seeds:           seeds,
		Depth:           cfg.Crawl.Depth,
		Threads:         cfg.Crawl.Threads,
		Percentage:      cfg.Crawl.Percentage,
		Timeout:         cfg.FetchTimeout(),
		Exfiltrate:      cfg.Crawl.Exfiltrate,
		SearchLinks:     cfg.Crawl.SearchLinks,
		FollowRedirects: cfg.Crawl.FollowRedirects,
		SameHostOnly:    cfg.Crawl.SameHost,
		Keyword:         cfg.Crawl.Keyword,
		UserAgents:      agents,
		OutputDir:       cfg.Output.Dir,
		Resume:          cfg.Crawl.Resume,
		CheckpointEvery: cfg.CheckpointInterval(),
		RetryAttempts:   cfg.Crawl.RetryAttempts,
	}
}

func loadCheckpoint(cfg config.Config, snaps *snapshot.Store, logger *zap.Logger) (*crawl.Snapshot, error) {
	if !cfg.Crawl.Resume {
		return nil, nil
	}
	snap, err := snaps.Load()
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			logger.Warn("no checkpoint to resume; starting fresh", zap.String("path", snaps.Path()))
			return nil, nil
		}
		return nil, err
	}
	logger.Info("checkpoint loaded",
		zap.String("path", snaps.Path()),
		zap.Int("visited", len(snap.Visited)),
		zap.Int("frontier", len(snap.Frontier)),
		zap.Time("saved_at", snap.SavedAt),
	)
	return &snap, nil
}

func buildArchive(ctx context.Context, cfg config.Config, logger *zap.Logger) (crawl.Archive, func(), error) {
	noop := func() {}
	switch cfg.Storage.Backend {
	case "local":
		blob, err := local.New(local.Config{BaseDir: filepath.Join(cfg.Output.Dir, "pages")})
		if err != nil {
			return nil, noop, fmt.Errorf("init local page store: %w", err)
		}
		return blob, noop, nil
	case "gcs":
		blob, err := gcs.New(ctx, gcs.Config{Bucket: cfg.Storage.GCSBucket})
		if err != nil {
			return nil, noop, fmt.Errorf("init gcs page store: %w", err)
		}
		closer := func() {
			if cerr := blob.Close(); cerr != nil {
				logger.Warn("gcs client close failed", zap.Error(cerr))
			}
		}
		return blob, closer, nil
	default:
		return &storage.NoOpProvider{}, noop, nil
	}
}

func buildRunRepo(ctx context.Context, cfg config.Config) (store.RunRepository, func(), error) {
	noop := func() {}
	if cfg.DB.DSN == "" {
		return nil, noop, nil
	}
	runStore, err := postgres.New(ctx, postgres.Config{
		DSN:             cfg.DB.DSN,
		MaxConns:        cfg.DB.MaxConns,
		MinConns:        cfg.DB.MinConns,
		MaxConnLifetime: cfg.DB.ConnLifetime(),
	})
	if err != nil {
		return nil, noop, fmt.Errorf("init run store: %w", err)
	}
	return runStore, runStore.Close, nil
}

func buildPublisher(ctx context.Context, cfg config.Config) (crawl.Publisher, error) {
	if cfg.PubSub.ProjectID == "" {
		return nil, nil
	}
	pub, err := pubsubPublisher.New(ctx, pubsubPublisher.Config{
		ProjectID: cfg.PubSub.ProjectID,
		TopicID:   cfg.PubSub.TopicID,
	})
	if err != nil {
		return nil, fmt.Errorf("init pubsub publisher: %w", err)
	}
	return pub, nil
}

func buildHub(repo store.RunRepository, logger *zap.Logger) (*progress.Hub, error) {
	promSink, err := sinks.NewPrometheusSink(prometheus.DefaultRegisterer)
	if err != nil {
		return nil, fmt.Errorf("register progress metrics: %w", err)
	}
	hubSinks := []progress.Sink{
		sinks.NewLogSink(logger.Named("progress")),
		promSink,
	}
	if repo != nil {
		hubSinks = append(hubSinks, sinks.NewStoreSink(repo, logger.Named("progress")))
	}
	return progress.NewHub(progress.Config{Logger: logger.Named("progress")}, hubSinks...), nil
}

func writeReports(dir string, res crawl.Result, logger *zap.Logger) {
	writer, err := report.NewWriter(dir, logger.Named("report"))
	if err != nil {
		logger.Error("report writer init failed", zap.Error(err))
		return
	}
	if err := writer.WriteAll(res); err != nil {
		logger.Error("report write failed", zap.Error(err))
	}
}

package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"

	"github.com/fortuna/matchnarrator/internal/cache"
	"github.com/fortuna/matchnarrator/internal/config"
	"github.com/fortuna/matchnarrator/internal/ingest/statsbomb"
	"github.com/fortuna/matchnarrator/internal/logging"
	"github.com/fortuna/matchnarrator/internal/prefetch"
)

const (
	appName    = "matchnarrator-prefetch"
	appVersion = "1.0.0"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}

	var (
		competition = flag.Int("competition", 0, "Competition ID to prefetch (with -season)")
		season      = flag.Int("season", 0, "Season ID to prefetch (with -competition)")
		matchList   = flag.String("match", "", "Comma-separated match IDs to prefetch")
		workers     = flag.Int("workers", prefetch.DefaultWorkers, "Concurrent match fetches")
		backend     = flag.String("cache", cfg.CacheBackend, "Cache backend (memory, redis, postgres)")
		dryRun      = flag.Bool("dry-run", false, "List the matches without fetching them")
	)
	flag.Parse()

	logger := logging.New(cfg.LogLevel, cfg.LogFormat, cfg.IsDevelopment())
	log := logging.WithService(logger, appName)
	log.WithField("version", appVersion).Info("Starting cache prefetch")

	spec, err := buildSpec(*competition, *season, *matchList)
	if err != nil {
		log.WithError(err).Fatal("Specify -competition and -season, or -match")
	}
	spec.Workers = *workers
	spec.DryRun = *dryRun

	if *backend == config.BackendMemory && !*dryRun {
		log.Warn("Memory cache does not outlive this process; use -cache redis or postgres")
	}

	opener, err := cache.NewStoreOpener(cache.BackendConfig{
		Backend:     *backend,
		RedisURL:    cfg.RedisURL,
		DatabaseURL: cfg.DatabaseURL,
	}, logger)
	if err != nil {
		log.WithError(err).Fatal("Invalid cache configuration")
	}
	cacheManager := cache.NewManager(opener, cache.ManagerConfig{
		TTL:     cfg.CacheTTL,
		Timeout: cfg.ProviderTimeout,
	}, logger)
	defer cacheManager.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	runner := prefetch.NewRunner(statsbomb.New(cfg.StatsBombBaseURL, cacheManager, logger))
	runErr := runner.Run(ctx, spec, &consoleReporter{log: log})

	if stats, ok := cacheManager.Stats(); ok {
		log.WithFields(logrus.Fields{
			"hits":   stats.Hits,
			"misses": stats.Misses,
			"shared": stats.Shared,
		}).Info("Cache statistics")
	}

	if runErr != nil {
		log.WithError(runErr).Error("Prefetch failed")
		cacheManager.Close()
		os.Exit(1)
	}
	log.Info("✓ Prefetch completed successfully")
}

func buildSpec(competition, season int, matchList string) (prefetch.JobSpec, error) {
	switch {
	case matchList != "":
		spec := prefetch.JobSpec{Type: prefetch.JobTypeMatch}
		for _, part := range strings.Split(matchList, ",") {
			id, err := strconv.Atoi(strings.TrimSpace(part))
			if err != nil || id <= 0 {
				return spec, fmt.Errorf("invalid match ID %q", part)
			}
			spec.MatchIDs = append(spec.MatchIDs, id)
		}
		return spec, nil
	case competition > 0 && season > 0:
		return prefetch.JobSpec{
			Type:          prefetch.JobTypeSeason,
			CompetitionID: competition,
			SeasonID:      season,
		}, nil
	default:
		return prefetch.JobSpec{}, fmt.Errorf("unable to determine job type")
	}
}

type consoleReporter struct {
	log *logrus.Entry
}

func (c *consoleReporter) OnJobStart(spec prefetch.JobSpec) {
	c.log.WithFields(logrus.Fields{
		"type":    spec.Type,
		"workers": spec.Workers,
		"dry_run": spec.DryRun,
	}).Info("Starting prefetch job")
}

func (c *consoleReporter) OnMatchWarmed(matchID int) {
	c.log.WithField("match_id", matchID).Debug("Match cached")
}

func (c *consoleReporter) OnProgress(message string, current int, total int) {
	c.log.Infof("Progress: %s (%d/%d)", message, current, total)
}

func (c *consoleReporter) OnJobComplete() {
	c.log.Info("Job complete")
}

func (c *consoleReporter) OnJobError(err error) {
	c.log.WithError(err).Warn("Job error")
}

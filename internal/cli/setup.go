package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codewandler/glpipe/internal/cache"
	"github.com/codewandler/glpipe/internal/config"
	"github.com/codewandler/glpipe/internal/gitlab"
	"github.com/codewandler/glpipe/internal/logging"
	"github.com/codewandler/glpipe/internal/summary"
)

// session bundles everything a pipeline command needs
type session struct {
	cfg    *config.Config
	log    *logging.Logger
	client *gitlab.Client
	store  *cache.Store
	sum    *summary.Summarizer
}

func fatalf(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

// loadConfig loads and validates configuration, exiting on failure.
func loadConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil {
		fatalf("Configuration error: %v", err)
	}
	if err := cfg.RequireGitLab(); err != nil {
		fatalf("Configuration error: %v", err)
	}
	return cfg
}

func openLogger(cmd *cobra.Command, cfg *config.Config) *logging.Logger {
	level := cfg.LogLevel
	if flag, _ := cmd.Flags().GetString("log-level"); flag != "" {
		level = flag
	}
	log, err := logging.New(cfg.CacheDir, level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: logging disabled: %v\n", err)
		return logging.Nop()
	}
	return log
}

// newSession wires config, logging, the API client and the cache. A cache
// that cannot be opened only disables caching.
func newSession(cmd *cobra.Command, useCache bool) *session {
	cfg := loadConfig()
	log := openLogger(cmd, cfg)

	client, err := gitlab.NewClient(cfg.GitLab.URL, cfg.GitLab.Token, cfg.GitLab.Project)
	if err != nil {
		log.Close()
		fatalf("Failed to create GitLab client: %v", err)
	}

	s := &session{cfg: cfg, log: log, client: client}
	if useCache {
		store, err := cache.Open(cache.PathFor(cfg.CacheDir, cfg.GitLab.Project), log)
		if err != nil {
			log.Warn("cache unavailable", "err", err)
		} else {
			s.store = store
		}
	}

	// a nil *cache.Store must not become a non-nil summary.Store
	if s.store != nil {
		s.sum = summary.New(client, s.store, log)
	} else {
		s.sum = summary.New(client, nil, log)
	}
	return s
}

func (s *session) Close() {
	if s.store != nil {
		if err := s.store.Close(); err != nil {
			s.log.Warn("close cache", "err", err)
		}
	}
	s.log.Close()
}

// commandContext is cancelled on Ctrl+C.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
}

// parseID parses a positive numeric id argument.
func parseID(arg, what string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid %s %q: must be a positive number", what, arg)
	}
	return id, nil
}

func mustParseID(arg, what string) int {
	id, err := parseID(arg, what)
	if err != nil {
		fatalf("Error: %v", err)
	}
	return id
}

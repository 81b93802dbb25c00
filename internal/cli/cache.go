package cli

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/codewandler/glpipe/internal/cache"
	"github.com/codewandler/glpipe/internal/config"
	"github.com/codewandler/glpipe/internal/logging"
	"github.com/codewandler/glpipe/internal/output"
)

const pruneDateLayout = "2006-01-02"

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect and maintain the local pipeline cache",
	Long: `Finished pipelines are cached in one SQLite file per project under
the cache directory. Entries never expire on their own.`,
}

var cacheInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show cache location and contents",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		store, log := openCache(cmd)
		defer log.Close()
		defer store.Close()

		st, err := store.Stats(cmd.Context())
		if err != nil {
			fmt.Fprintf(os.Stderr, "Could not read cache: %v\n", err)
			return
		}
		output.PrintCacheInfo(os.Stdout, st)
	},
}

var cachePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete cached pipelines created before a date",
	Long: `Delete cached pipelines created before a date, together with their
merge request links.

Examples:
  glpipe cache prune --before 2024-01-01`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		beforeFlag, _ := cmd.Flags().GetString("before")
		before, err := parsePruneDate(beforeFlag)
		if err != nil {
			fatalf("Error: %v", err)
		}

		store, log := openCache(cmd)
		defer log.Close()
		defer store.Close()

		n, err := store.Prune(cmd.Context(), before)
		log.Info("cache pruned", "before", before, "removed", n, "err", err)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Prune failed: %v\n", err)
			return
		}
		fmt.Printf("Removed %d cached pipelines created before %s\n", n, before.Format(pruneDateLayout))
	},
}

// openCache opens the project cache. Only the project setting is needed,
// no API credentials.
func openCache(cmd *cobra.Command) (*cache.Store, *logging.Logger) {
	cfg, err := config.Load()
	if err != nil {
		fatalf("Configuration error: %v", err)
	}
	if cfg.GitLab.Project == "" {
		fatalf("Configuration error: %v", &config.ConfigError{Setting: "GitLab project", Env: "GITLAB_PROJECT"})
	}
	log := openLogger(cmd, cfg)
	store, err := cache.Open(cache.PathFor(cfg.CacheDir, cfg.GitLab.Project), log)
	if err != nil {
		log.Close()
		fatalf("Could not open cache: %v", err)
	}
	return store, log
}

func parsePruneDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("--before is required (YYYY-MM-DD)")
	}
	t, err := time.ParseInLocation(pruneDateLayout, s, time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid --before %q: want YYYY-MM-DD", s)
	}
	return t, nil
}

func init() {
	cacheCmd.AddCommand(cacheInfoCmd)
	cacheCmd.AddCommand(cachePruneCmd)

	cachePruneCmd.Flags().String("before", "", "Delete pipelines created before this date (YYYY-MM-DD)")
}

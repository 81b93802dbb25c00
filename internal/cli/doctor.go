package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/codewandler/glpipe/internal/cache"
	"github.com/codewandler/glpipe/internal/config"
	"github.com/codewandler/glpipe/internal/gitlab"
	"github.com/codewandler/glpipe/internal/logging"
)

const doctorTimeout = 15 * time.Second

var (
	doctorHeader  = color.New(color.FgCyan, color.Bold)
	doctorSuccess = color.New(color.FgGreen)
	doctorError   = color.New(color.FgRed)
	doctorDim     = color.New(color.FgHiBlack)
	doctorLabel   = color.New(color.FgWhite)
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check configuration, GitLab access and the local cache",
	Long: `Check that glpipe is ready to use: required settings are present,
the token is accepted, the project is reachable and the cache file can be
opened.

Examples:
  glpipe doctor`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.Load()
		if err != nil {
			doctorError.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
			os.Exit(1)
		}

		doctorHeader.Println("glpipe doctor")
		fmt.Println()

		ctx, cancel := context.WithTimeout(cmd.Context(), doctorTimeout)
		defer cancel()

		errors := 0
		report := func(label string, check func() string) {
			doctorLabel.Printf("  %-10s  ", label)
			status := check()
			if status == "" {
				errors++
				fmt.Println()
				return
			}
			fmt.Println(status)
		}

		var client *gitlab.Client
		report("Config", func() string { return checkConfig(cfg, &client) })
		if client != nil {
			report("Token", func() string { return checkToken(ctx, client, cfg) })
			report("Project", func() string { return checkProject(ctx, client) })
		}
		report("Cache", func() string { return checkCache(ctx, cfg) })
		report("Log", func() string { return checkLog(cfg) })

		fmt.Println()
		if errors == 0 {
			doctorSuccess.Println("All checks passed!")
			return
		}
		doctorError.Printf("%d check(s) failed\n", errors)
		os.Exit(1)
	},
}

// Each check returns a status line, or prints its failure and returns "".

func checkConfig(cfg *config.Config, client **gitlab.Client) string {
	if err := cfg.RequireGitLab(); err != nil {
		doctorError.Print("✗ ")
		doctorDim.Print(err.Error())
		return ""
	}
	c, err := gitlab.NewClient(cfg.GitLab.URL, cfg.GitLab.Token, cfg.GitLab.Project)
	if err != nil {
		doctorError.Printf("✗ Failed to create client: %v", err)
		return ""
	}
	*client = c
	return doctorSuccess.Sprint("✓ ") + doctorDim.Sprint(cfg.GitLab.URL)
}

func checkToken(ctx context.Context, client *gitlab.Client, cfg *config.Config) string {
	user, err := client.TestAuth(ctx)
	if err != nil {
		doctorError.Printf("✗ %v", err)
		return ""
	}
	return doctorSuccess.Sprint("✓ ") + fmt.Sprintf("@%s ", user) + doctorDim.Sprintf("(%s)", cfg.GitLab.URL)
}

func checkProject(ctx context.Context, client *gitlab.Client) string {
	p, err := client.GetProject(ctx)
	if err != nil {
		doctorError.Printf("✗ %v", err)
		return ""
	}
	return doctorSuccess.Sprint("✓ ") + p.PathWithNamespace + " " + doctorDim.Sprintf("(ID %d, default branch %s)", p.ID, p.DefaultBranch)
}

func checkCache(ctx context.Context, cfg *config.Config) string {
	if cfg.GitLab.Project == "" {
		doctorDim.Print("- skipped, no project configured")
		return ""
	}
	store, err := cache.Open(cache.PathFor(cfg.CacheDir, cfg.GitLab.Project), nil)
	if err != nil {
		doctorError.Printf("✗ %v", err)
		return ""
	}
	defer store.Close()

	st, err := store.Stats(ctx)
	if err != nil {
		doctorError.Printf("✗ %v", err)
		return ""
	}
	return doctorSuccess.Sprint("✓ ") + fmt.Sprintf("%d pipelines ", st.Pipelines) + doctorDim.Sprintf("(%s)", st.Path)
}

func checkLog(cfg *config.Config) string {
	log, err := logging.New(cfg.CacheDir, cfg.LogLevel)
	if err != nil {
		doctorError.Printf("✗ %v", err)
		return ""
	}
	log.Close()
	return doctorSuccess.Sprint("✓ ") + doctorDim.Sprintf("%s (level %s)", filepath.Join(cfg.CacheDir, logging.FileName), cfg.LogLevel)
}

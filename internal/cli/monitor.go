package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/codewandler/glpipe/internal/browser"
	"github.com/codewandler/glpipe/internal/tui"
)

var monitorCmd = &cobra.Command{
	Use:     "monitor",
	Aliases: []string{"tui"},
	Short:   "Watch pipelines in a live terminal dashboard",
	Long: `Open an interactive dashboard of recent pipelines. Drill into a
pipeline's jobs and a job's trace; the active view refreshes automatically.

Keys:
  enter      open the selected pipeline or job
  esc        go back
  r          refresh now
  x          failed jobs of the pipeline, with extracted failures
  f          filter pipelines by ref/user, or show only failures of a job
  o          open the selection in the browser
  a          toggle auto-refresh
  q          quit

Examples:
  glpipe monitor
  glpipe monitor --ref main --interval 10
  glpipe monitor --user alice`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		interval, _ := cmd.Flags().GetInt("interval")
		ref, _ := cmd.Flags().GetString("ref")
		user, _ := cmd.Flags().GetString("user")
		noAuto, _ := cmd.Flags().GetBool("no-auto-refresh")

		s := newSession(cmd, true)
		defer s.Close()

		refresh := s.cfg.Refresh()
		if interval > 0 {
			refresh = time.Duration(interval) * time.Second
		}

		s.log.Info("starting dashboard", "project", s.cfg.GitLab.Project, "interval", refresh.String())
		err := tui.Run(tui.Options{
			Source:          s.sum,
			Log:             s.log,
			Project:         s.cfg.GitLab.Project,
			MaxPipelines:    s.cfg.MaxPipelines,
			Ref:             ref,
			User:            user,
			RefreshInterval: refresh,
			AutoRefresh:     !noAuto,
			OpenURL:         browser.Open,
		})
		if err != nil {
			s.Close()
			fatalf("Error: %v", err)
		}
	},
}

func init() {
	monitorCmd.Flags().IntP("interval", "i", 0, "Auto-refresh interval in seconds (default from config)")
	monitorCmd.Flags().String("ref", "", "Only show pipelines for this branch or tag")
	monitorCmd.Flags().String("user", "", "Only show pipelines triggered by this user")
	monitorCmd.Flags().Bool("no-auto-refresh", false, "Start with auto-refresh paused")
}

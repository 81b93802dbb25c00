package output

import (
	"fmt"
	"io"

	"github.com/dustin/go-humanize"

	"github.com/codewandler/glpipe/internal/cache"
	"github.com/codewandler/glpipe/internal/config"
)

func orNotSet(s string) string {
	if s == "" {
		return dimColor.Sprint("Not set")
	}
	return s
}

// PrintConfig shows the effective configuration. The token is never echoed.
func PrintConfig(w io.Writer, cfg *config.Config, path string) {
	token := "Not set"
	if cfg.GitLab.Token != "" {
		token = "Set"
	}
	printBanner(w, 60, "Configuration")
	printField(w, "File", path)
	printField(w, "GitLab URL", orNotSet(cfg.GitLab.URL))
	printField(w, "Project", orNotSet(cfg.GitLab.Project))
	printField(w, "Token", token)
	printField(w, "Cache dir", cfg.CacheDir)
	printField(w, "Refresh", cfg.Refresh().String())
	printField(w, "Pipelines", fmt.Sprintf("%d", cfg.MaxPipelines))
	printField(w, "Log level", cfg.LogLevel)
}

// PrintCacheInfo summarises the local pipeline cache.
func PrintCacheInfo(w io.Writer, st cache.Stats) {
	printBanner(w, 60, "Pipeline Cache")
	printField(w, "File", st.Path)
	printField(w, "Size", humanize.Bytes(uint64(st.SizeBytes)))
	printField(w, "Pipelines", fmt.Sprintf("%d", st.Pipelines))
	printField(w, "MR links", fmt.Sprintf("%d", st.Associations))
	if st.Pipelines > 0 {
		printField(w, "Oldest", formatTimestamp(st.OldestCreated))
		printField(w, "Newest", formatTimestamp(st.NewestCreated))
	}
}

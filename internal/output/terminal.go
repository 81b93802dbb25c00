package output

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/dustin/go-humanize"
	"github.com/fatih/color"
	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/term"

	"github.com/codewandler/glpipe/internal/models"
)

var (
	headerColor  = color.New(color.FgCyan, color.Bold)
	sectionColor = color.New(color.FgGreen)
	labelColor   = color.New(color.FgCyan)
	valueColor   = color.New(color.FgWhite)
	dimColor     = color.New(color.FgHiBlack)
	linkColor    = color.New(color.FgCyan, color.Underline)
	errorColor   = color.New(color.FgRed)

	statusColors = map[models.Status]*color.Color{
		models.StatusSuccess:  color.New(color.FgGreen),
		models.StatusFailed:   color.New(color.FgRed),
		models.StatusRunning:  color.New(color.FgYellow),
		models.StatusPending:  color.New(color.FgHiBlack),
		models.StatusCreated:  color.New(color.FgHiBlack),
		models.StatusSkipped:  color.New(color.FgHiBlack),
		models.StatusCanceled: color.New(color.FgMagenta),
		models.StatusManual:   color.New(color.FgBlue),
	}

	mrStateColors = map[string]*color.Color{
		"opened": color.New(color.FgGreen),
		"merged": color.New(color.FgBlue),
		"closed": color.New(color.FgRed),
	}

	// Markdown renderer for verbose failure reports
	mdRenderer, _ = glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(100),
	)
)

// hyperlink creates a clickable terminal hyperlink using OSC 8 escape sequence
// Uses BEL (\a) as string terminator for wider terminal compatibility
func hyperlink(url, text string) string {
	styledText := linkColor.Sprint(text)
	if url == "" || !term.IsTerminal(int(os.Stdout.Fd())) {
		return styledText
	}
	return fmt.Sprintf("\x1b]8;;%s\x07%s\x1b]8;;\x07", url, styledText)
}

func printBanner(w io.Writer, width int, format string, args ...any) {
	line := strings.Repeat("═", width)
	fmt.Fprintln(w)
	headerColor.Fprintln(w, line)
	headerColor.Fprintf(w, "  "+format+"\n", args...)
	headerColor.Fprintln(w, line)
}

func printField(w io.Writer, label, value string) {
	labelColor.Fprintf(w, "  %-12s ", label+":")
	valueColor.Fprintln(w, value)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	return t
}

func statusText(s models.Status) string {
	if c, ok := statusColors[s]; ok {
		return c.Sprint(string(s))
	}
	return string(s)
}

func statusIcon(s models.Status) string {
	switch s {
	case models.StatusSuccess:
		return "✅"
	case models.StatusFailed:
		return "❌"
	case models.StatusRunning:
		return "🔄"
	case models.StatusSkipped:
		return "⏭"
	case models.StatusCanceled:
		return "🚫"
	case models.StatusManual:
		return "👤"
	}
	return "⏸"
}

func formatMRState(state string) string {
	if c, ok := mrStateColors[state]; ok {
		return c.Sprint(state)
	}
	return state
}

// FormatDuration renders seconds as "XmYs", or "N/A" when unknown.
func FormatDuration(seconds *float64) string {
	if seconds == nil {
		return "N/A"
	}
	total := int(*seconds)
	return fmt.Sprintf("%dm%ds", total/60, total%60)
}

func formatSeconds(seconds int) string {
	f := float64(seconds)
	return FormatDuration(&f)
}

// ProgressBar draws percentage as a bar of width cells.
func ProgressBar(percentage, width int) string {
	percentage = min(max(percentage, 0), 100)
	filled := width * percentage / 100
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}

func timeAgo(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return humanize.Time(t)
}

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return "unknown"
	}
	return fmt.Sprintf("%s (%s)", t.Local().Format("2006-01-02 15:04"), timeAgo(t))
}

// renderMarkdown renders markdown text for terminal display
func renderMarkdown(text string) string {
	if mdRenderer == nil {
		return text
	}
	rendered, err := mdRenderer.Render(text)
	if err != nil {
		return text
	}
	return strings.TrimSpace(rendered)
}

// PrintCouldNotFetch reports a failed lookup without failing the command.
func PrintCouldNotFetch(w io.Writer, what string, id any) {
	errorColor.Fprintf(w, "Could not fetch %s %v\n", what, id)
}

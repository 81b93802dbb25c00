package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/codewandler/glpipe/internal/models"
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("230")).
			Background(lipgloss.Color("31")).
			Padding(0, 1)

	crumbStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("111"))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("60")).
			Bold(true)

	stageStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("111"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203")).
			Bold(true)

	footerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderTop(true).
			BorderForeground(lipgloss.Color("238")).
			Foreground(lipgloss.Color("245")).
			Padding(0, 1)

	statusStyles = map[models.Status]lipgloss.Style{
		models.StatusSuccess:  lipgloss.NewStyle().Foreground(lipgloss.Color("114")),
		models.StatusFailed:   lipgloss.NewStyle().Foreground(lipgloss.Color("203")).Bold(true),
		models.StatusRunning:  lipgloss.NewStyle().Foreground(lipgloss.Color("75")),
		models.StatusPending:  lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		models.StatusCreated:  lipgloss.NewStyle().Foreground(lipgloss.Color("221")),
		models.StatusCanceled: lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		models.StatusSkipped:  lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		models.StatusManual:   lipgloss.NewStyle().Foreground(lipgloss.Color("177")),
	}
)

func statusStyle(s models.Status) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return mutedStyle
}

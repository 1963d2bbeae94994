package main

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/kevinmichaelchen/repobot/internal/respond"
)

type styles struct {
	intent  lipgloss.Style
	repo    lipgloss.Style
	failure lipgloss.Style
}

func newStyles() styles {
	return styles{
		intent:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
		repo:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("2")),
		failure: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("1")),
	}
}

func (s styles) answer() respond.Style {
	return respond.Style{
		Intent:  func(v string) string { return s.intent.Render(v) },
		Repo:    func(v string) string { return s.repo.Render(v) },
		Failure: func(v string) string { return s.failure.Render(v) },
	}
}

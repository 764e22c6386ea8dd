// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package consoleui

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the color palette of the console. Colors are ANSI 256-color
// codes.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	HeaderForeground lipgloss.Color
	HeaderBackground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// MenuKey colors the key column of the menu.
	MenuKey lipgloss.Color

	// Alarm rows: unacknowledged conditions stand out, acknowledged
	// ones are dimmed until the server clears them.
	AlarmActive       lipgloss.Color
	AlarmAcknowledged lipgloss.Color

	// Status bar log records.
	WarnText  lipgloss.Color
	ErrorText lipgloss.Color

	BusyText lipgloss.Color
}

// DefaultTheme suits 256-color terminals with a dark background.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	HeaderForeground: lipgloss.Color("255"),
	HeaderBackground: lipgloss.Color("236"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	MenuKey: lipgloss.Color("75"),

	AlarmActive:       lipgloss.Color("196"),
	AlarmAcknowledged: lipgloss.Color("220"),

	WarnText:  lipgloss.Color("220"),
	ErrorText: lipgloss.Color("196"),

	BusyText: lipgloss.Color("114"),
}

// styles are the lipgloss styles of one renderer.
type styles struct {
	header            lipgloss.Style
	headerMode        lipgloss.Style
	output            lipgloss.Style
	alarmBox          lipgloss.Style
	alarmActive       lipgloss.Style
	alarmAcknowledged lipgloss.Style
	menuKey           lipgloss.Style
	menuLabel         lipgloss.Style
	help              lipgloss.Style
	warn              lipgloss.Style
	error             lipgloss.Style
	busy              lipgloss.Style
}

func newStyles(renderer *lipgloss.Renderer, theme Theme) styles {
	return styles{
		header: renderer.NewStyle().
			Foreground(theme.HeaderForeground).
			Background(theme.HeaderBackground).
			Bold(true),
		headerMode: renderer.NewStyle().
			Foreground(theme.MenuKey).
			Background(theme.HeaderBackground),
		output: renderer.NewStyle().Foreground(theme.NormalText),
		alarmBox: renderer.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(theme.BorderColor),
		alarmActive:       renderer.NewStyle().Foreground(theme.AlarmActive),
		alarmAcknowledged: renderer.NewStyle().Foreground(theme.AlarmAcknowledged),
		menuKey:           renderer.NewStyle().Foreground(theme.MenuKey).Bold(true),
		menuLabel:         renderer.NewStyle().Foreground(theme.FaintText),
		help:              renderer.NewStyle().Foreground(theme.HelpText),
		warn:              renderer.NewStyle().Foreground(theme.WarnText),
		error:             renderer.NewStyle().Foreground(theme.ErrorText).Bold(true),
		busy:              renderer.NewStyle().Foreground(theme.BusyText),
	}
}

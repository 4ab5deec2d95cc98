// Copyright 2026 The Adjutant Authors
// SPDX-License-Identifier: Apache-2.0

package ledgerui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Theme defines the color palette for the ledger viewer. All colors
// are lipgloss ANSI 256-color codes for broad terminal compatibility.
type Theme struct {
	NormalText lipgloss.Color
	FaintText  lipgloss.Color

	SelectedBackground lipgloss.Color
	SelectedForeground lipgloss.Color

	// Status colors keyed off the entry's status field.
	StatusRunning lipgloss.Color
	StatusDone    lipgloss.Color
	StatusFailed  lipgloss.Color
	StatusWaiting lipgloss.Color

	HeaderForeground lipgloss.Color
	BorderColor      lipgloss.Color
	HelpText         lipgloss.Color

	// Filter match highlighting.
	MatchForeground lipgloss.Color
}

// StatusColor maps an entry status string to its display color.
// Failed and cancelled statuses are recognized by prefix; Done-section
// entries carry no status field and render with StatusDone directly.
func (theme Theme) StatusColor(status string) lipgloss.Color {
	switch {
	case strings.HasPrefix(status, "failed"), strings.HasPrefix(status, "cancelled"):
		return theme.StatusFailed
	case status == "worker dispatched":
		return theme.StatusRunning
	case status == "":
		return theme.FaintText
	default:
		return theme.StatusWaiting
	}
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	NormalText: lipgloss.Color("252"),
	FaintText:  lipgloss.Color("245"),

	SelectedBackground: lipgloss.Color("236"),
	SelectedForeground: lipgloss.Color("255"),

	StatusRunning: lipgloss.Color("220"), // amber
	StatusDone:    lipgloss.Color("114"), // green
	StatusFailed:  lipgloss.Color("196"), // red
	StatusWaiting: lipgloss.Color("75"),  // blue

	HeaderForeground: lipgloss.Color("255"),
	BorderColor:      lipgloss.Color("240"),
	HelpText:         lipgloss.Color("241"),

	MatchForeground: lipgloss.Color("214"), // orange
}

package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/ifcmat/internal/workflow"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// interface Painter defines coloring text with [lipgloss] styles
type Painter interface {
	On(string, lipgloss.Color) string // Sets background color
	As(string, lipgloss.Color) string // Sets foreground color
}

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	ok    lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	help  lipgloss.Style
	label lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title: NewBold(t).MarginBottom(1),
		ok:    NewBold(s),
		err:   NewBold(e),
		warn:  NewStyle(w),
		help:  NewEm(h),
		label: NewBold(h),
	}
}

// notice picks the style for a notice level.
func (p *Palette) notice(level workflow.Level) lipgloss.Style {
	switch level {
	case workflow.LevelSuccess:
		return p.ok
	case workflow.LevelWarning:
		return p.warn
	case workflow.LevelError:
		return p.err
	default:
		return p.help
	}
}

// stage colors the stage name.
func (p *Palette) stage(s workflow.Stage) lipgloss.Style {
	switch s {
	case workflow.Error:
		return p.err
	case workflow.Processed, workflow.DownloadReady:
		return p.ok
	case workflow.Uploading, workflow.Processing:
		return p.warn
	default:
		return p.label
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}

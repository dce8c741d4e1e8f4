package ui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/ifcmat/internal/models"
	"github.com/desertthunder/ifcmat/internal/shared"
)

var (
	_ list.Item = runItem{}
)

// runItem wraps [models.Run] to implement [list.Item].
type runItem struct {
	run *models.Run
}

func (i runItem) FilterValue() string { return i.run.FileName }
func (i runItem) Title() string {
	return fmt.Sprintf("#%d %s", i.run.Sequence(), i.run.FileName)
}
func (i runItem) Description() string {
	desc := fmt.Sprintf("%s • %s • %s", i.run.Stage, shared.FormatBytes(i.run.FileSize), i.run.CreatedAt().Format("2006-01-02 15:04"))
	if i.run.MaterialCount > 0 {
		desc = fmt.Sprintf("%s • %d materials", desc, i.run.MaterialCount)
	}
	if i.run.ErrorMessage != "" {
		desc = fmt.Sprintf("%s • %s", desc, i.run.ErrorMessage)
	}
	return desc
}

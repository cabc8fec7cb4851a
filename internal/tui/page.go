package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

const (
	headerText = "showsave - lighting console show backups"
	navText    = "[yellow]Navigation:[white] TAB/↑↓ to move | ENTER to select | ESC to cancel | Mouse clicks enabled"
)

// BuildPage frames content with the common header, navigation hint and
// footer showing the configuration file in use.
func BuildPage(title, configPath string, content tview.Primitive) *tview.Flex {
	header := tview.NewTextView().
		SetText(headerText).
		SetTextColor(StageLight).
		SetTextAlign(tview.AlignCenter)

	nav := tview.NewTextView().
		SetText(navText).
		SetTextColor(tcell.ColorWhite).
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	separator := tview.NewTextView().
		SetText(strings.Repeat("─", 80)).
		SetTextColor(StageAmber)

	footer := tview.NewTextView().
		SetText(fmt.Sprintf("[yellow]Configuration file:[white] %s", configPath)).
		SetTextColor(tcell.ColorWhite).
		SetDynamicColors(true).
		SetTextAlign(tview.AlignCenter)

	flex := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(header, 2, 0, false).
		AddItem(nav, 2, 0, false).
		AddItem(separator, 1, 0, false).
		AddItem(content, 0, 1, true).
		AddItem(footer, 1, 0, false)

	flex.SetBorder(true).
		SetTitle(fmt.Sprintf(" %s ", strings.TrimSpace(title))).
		SetTitleAlign(tview.AlignCenter).
		SetTitleColor(StageAmber).
		SetBorderColor(StageAmber).
		SetBackgroundColor(tcell.ColorBlack)

	return flex
}

// NewButtonForm returns a button-only form styled with the palette.
func NewButtonForm() *tview.Form {
	return tview.NewForm().
		SetButtonsAlign(tview.AlignCenter).
		SetButtonBackgroundColor(StageAmber).
		SetButtonTextColor(tcell.ColorBlack).
		SetLabelColor(StageLight).
		SetFieldBackgroundColor(StageDark).
		SetFieldTextColor(tcell.ColorWhite)
}

// NewResultModal builds an OK modal whose border carries the status color.
func NewResultModal(title, message string, borderColor tcell.Color, done func()) *tview.Modal {
	modal := tview.NewModal().
		SetText(fmt.Sprintf("%s\n\n[yellow]Press ENTER to continue[white]", strings.TrimSpace(message))).
		AddButtons([]string{"OK"}).
		SetDoneFunc(func(int, string) {
			if done != nil {
				done()
			}
		})

	modal.SetBorder(true).
		SetTitle(fmt.Sprintf(" %s ", strings.TrimSpace(title))).
		SetTitleAlign(tview.AlignCenter).
		SetTitleColor(borderColor).
		SetBorderColor(borderColor).
		SetBackgroundColor(tcell.ColorBlack)
	return modal
}

// NewMenu builds a list of choices; selected receives the chosen index and
// cancel runs on ESC.
func NewMenu(items []string, selected func(index int), cancel func()) *tview.List {
	list := tview.NewList().
		ShowSecondaryText(false).
		SetMainTextColor(tcell.ColorWhite).
		SetSelectedTextColor(tcell.ColorBlack).
		SetSelectedBackgroundColor(StageAmber)

	for i, item := range items {
		index := i
		list.AddItem(item, "", 0, func() {
			if selected != nil {
				selected(index)
			}
		})
	}
	list.SetDoneFunc(func() {
		if cancel != nil {
			cancel()
		}
	})
	return list
}

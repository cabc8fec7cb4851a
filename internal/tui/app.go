package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// App wraps tview.Application with the showsave theme.
type App struct {
	*tview.Application
	stopHook func()
}

// NewApp creates a themed application bound to the abort context.
func NewApp() *App {
	app := &App{
		Application: tview.NewApplication(),
	}

	app.EnableMouse(true)

	tview.Styles.PrimitiveBackgroundColor = tcell.ColorBlack
	tview.Styles.ContrastBackgroundColor = tcell.ColorBlack
	tview.Styles.MoreContrastBackgroundColor = StageDark
	tview.Styles.BorderColor = StageAmber
	tview.Styles.TitleColor = StageAmber
	tview.Styles.GraphicsColor = StageAmber
	tview.Styles.PrimaryTextColor = tcell.ColorWhite
	tview.Styles.SecondaryTextColor = StageLight
	tview.Styles.TertiaryTextColor = StageGray
	tview.Styles.InverseTextColor = tcell.ColorBlack
	tview.Styles.ContrastSecondaryTextColor = tcell.ColorWhite

	bindAbortContext(app)
	return app
}

func (a *App) Stop() {
	if a == nil {
		return
	}
	if a.stopHook != nil {
		a.stopHook()
		return
	}
	if a.Application != nil {
		a.Application.Stop()
	}
}

// SetRootWithTitle sets the root primitive, framing plain boxes with a title.
func (a *App) SetRootWithTitle(root tview.Primitive, title string) *App {
	if box, ok := root.(*tview.Box); ok {
		box.SetBorder(true).
			SetTitle(" " + title + " ").
			SetTitleAlign(tview.AlignCenter).
			SetTitleColor(StageAmber).
			SetBorderColor(StageAmber)
	}
	a.SetRoot(root, true)
	return a
}

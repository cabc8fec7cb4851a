package orchestrator

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/tis24dev/showsave/internal/backup"
	"github.com/tis24dev/showsave/internal/input"
	"github.com/tis24dev/showsave/internal/logging"
	"github.com/tis24dev/showsave/internal/tui"
)

const progressRefresh = 100 * time.Millisecond

// latestMessage keeps only the newest progress line so reporting never waits
// for the screen.
type latestMessage struct {
	mu      sync.Mutex
	message string
	pending bool
}

func (l *latestMessage) set(message string) {
	message = strings.TrimSpace(message)
	if message == "" {
		return
	}
	l.mu.Lock()
	l.message = message
	l.pending = true
	l.mu.Unlock()
}

// take returns the newest line once; ok is false when nothing changed.
func (l *latestMessage) take() (message string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.pending {
		return "", false
	}
	l.pending = false
	return l.message, true
}

// TUIWorkflowUI drives a backup run with full-screen tview pages.
type TUIWorkflowUI struct {
	configPath string
	logger     *logging.Logger
	newApp     func() *tui.App
}

// NewTUIWorkflowUI builds the full-screen UI.
func NewTUIWorkflowUI(configPath string, logger *logging.Logger) *TUIWorkflowUI {
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &TUIWorkflowUI{
		configPath: configPath,
		logger:     logger,
		newApp:     tui.NewApp,
	}
}

// RunTask shows a progress page with a Cancel button while run executes in
// its own goroutine. Console log output is held back until the screen is
// released so it does not tear the layout.
func (u *TUIWorkflowUI) RunTask(ctx context.Context, title, initialMessage string, run func(ctx context.Context, report ProgressReporter) error) error {
	taskCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	held := &bytes.Buffer{}
	previous := u.logger.Output()
	u.logger.SetOutput(held)
	defer func() {
		u.logger.SetOutput(previous)
		if held.Len() > 0 {
			_, _ = previous.Write(held.Bytes())
		}
	}()

	app := u.newApp()

	messageView := tview.NewTextView().
		SetText(strings.TrimSpace(initialMessage)).
		SetTextAlign(tview.AlignCenter).
		SetTextColor(tcell.ColorWhite).
		SetDynamicColors(true)

	form := tui.NewButtonForm()
	form.AddButton("Cancel", func() {
		cancel()
		app.Stop()
	})

	content := tview.NewFlex().
		SetDirection(tview.FlexRow).
		AddItem(messageView, 0, 1, false).
		AddItem(form, 3, 0, true)

	page := tui.BuildPage(title, u.configPath, content)

	done := make(chan struct{})
	var runErr error

	latest := &latestMessage{}
	go func() {
		ticker := time.NewTicker(progressRefresh)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-taskCtx.Done():
				return
			case <-ticker.C:
				if message, ok := latest.take(); ok {
					app.QueueUpdateDraw(func() {
						messageView.SetText(tview.Escape(message))
					})
				}
			}
		}
	}()

	go func() {
		runErr = run(taskCtx, latest.set)
		close(done)
		if taskCtx.Err() != nil {
			return
		}
		app.QueueUpdateDraw(func() {
			app.Stop()
		})
	}()

	if err := app.SetRoot(page, true).SetFocus(form).Run(); err != nil {
		cancel()
		<-done
		return err
	}

	cancel()
	<-done
	return runErr
}

func (u *TUIWorkflowUI) ShowMessage(ctx context.Context, title, message string) error {
	return u.showOKModal(title, message, tui.SuccessGreen)
}

func (u *TUIWorkflowUI) ShowError(ctx context.Context, title, message string) error {
	return u.showOKModal(title, fmt.Sprintf("%s %s", tui.SymbolError, message), tui.ErrorRed)
}

func (u *TUIWorkflowUI) showOKModal(title, message string, borderColor tcell.Color) error {
	app := u.newApp()
	modal := tui.NewResultModal(title, tview.Escape(message), borderColor, app.Stop)
	page := tui.BuildPage(title, u.configPath, modal)
	return app.SetRoot(page, true).SetFocus(modal).Run()
}

// SelectSystems shows the system menu; ESC aborts with input.ErrInputAborted.
func (u *TUIWorkflowUI) SelectSystems(ctx context.Context, systems []backup.SystemDefinition) ([]backup.SystemDefinition, error) {
	if len(systems) == 0 {
		return nil, nil
	}

	items := make([]string, 0, len(systems)+1)
	items = append(items, allSystemsLabel)
	for _, system := range systems {
		items = append(items, systemLabel(system))
	}

	app := u.newApp()
	choice := -1
	menu := tui.NewMenu(items, func(index int) {
		choice = index
		app.Stop()
	}, app.Stop)

	page := tui.BuildPage("Choose a system", u.configPath, menu)
	if err := app.SetRoot(page, true).SetFocus(menu).Run(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, input.ErrInputAborted
	}
	if choice < 0 {
		return nil, input.ErrInputAborted
	}
	selected := pickSystems(systems, choice)
	u.logger.Debug("Selected %d system(s) (choice %d)", len(selected), choice)
	return selected, nil
}

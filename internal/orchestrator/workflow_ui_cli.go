package orchestrator

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/tis24dev/showsave/internal/backup"
	"github.com/tis24dev/showsave/internal/input"
	"github.com/tis24dev/showsave/internal/logging"
)

// CLIWorkflowUI drives a backup run with plain line output.
type CLIWorkflowUI struct {
	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
	logger *logging.Logger
	now    func() time.Time
}

// NewCLIWorkflowUI builds the line-oriented UI. nil arguments select the
// process standard streams.
func NewCLIWorkflowUI(in io.Reader, out, errOut io.Writer, logger *logging.Logger) *CLIWorkflowUI {
	if in == nil {
		in = os.Stdin
	}
	if out == nil {
		out = os.Stdout
	}
	if errOut == nil {
		errOut = os.Stderr
	}
	if logger == nil {
		logger = logging.GetDefaultLogger()
	}
	return &CLIWorkflowUI{
		reader: bufio.NewReader(in),
		out:    out,
		errOut: errOut,
		logger: logger,
		now:    time.Now,
	}
}

func (u *CLIWorkflowUI) RunTask(ctx context.Context, title, initialMessage string, run func(ctx context.Context, report ProgressReporter) error) error {
	title = strings.TrimSpace(title)
	if title != "" {
		fmt.Fprintf(u.errOut, "%s\n", title)
	}
	initialMessage = strings.TrimSpace(initialMessage)
	if initialMessage != "" {
		fmt.Fprintf(u.errOut, "%s\n", initialMessage)
	}

	var lastPrinted time.Time
	var lastMessage string
	report := func(message string) {
		message = strings.TrimSpace(message)
		if message == "" {
			return
		}
		now := u.now()
		if message == lastMessage && now.Sub(lastPrinted) < 2*time.Second {
			return
		}
		lastPrinted = now
		lastMessage = message
		fmt.Fprintf(u.errOut, "%s\n", message)
	}

	return run(ctx, report)
}

func (u *CLIWorkflowUI) ShowMessage(ctx context.Context, title, message string) error {
	if strings.TrimSpace(title) != "" {
		fmt.Fprintf(u.out, "\n%s\n", title)
	}
	if strings.TrimSpace(message) != "" {
		fmt.Fprintln(u.out, message)
	}
	return nil
}

func (u *CLIWorkflowUI) ShowError(ctx context.Context, title, message string) error {
	if strings.TrimSpace(title) != "" {
		fmt.Fprintf(u.errOut, "\n%s\n", title)
	}
	if strings.TrimSpace(message) != "" {
		fmt.Fprintln(u.errOut, message)
	}
	return nil
}

// SelectSystems prints the numbered system list and reads one choice.
func (u *CLIWorkflowUI) SelectSystems(ctx context.Context, systems []backup.SystemDefinition) ([]backup.SystemDefinition, error) {
	if len(systems) == 0 {
		return nil, nil
	}
	fmt.Fprintln(u.out, "Systems available for backup:")
	fmt.Fprintf(u.out, "  [0] %s\n", allSystemsLabel)
	for i, system := range systems {
		fmt.Fprintf(u.out, "  [%d] %s\n", i+1, systemLabel(system))
	}
	choice, err := input.ReadChoice(ctx, u.reader, u.out, "Choose a system: ", 0, len(systems))
	if err != nil {
		return nil, input.MapInputError(err)
	}
	selected := pickSystems(systems, choice)
	u.logger.Debug("Selected %d system(s) (choice %d)", len(selected), choice)
	return selected, nil
}

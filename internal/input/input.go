// Package input reads interactive answers from the terminal without blocking
// cancellation.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/term"
)

// ErrInputAborted signals that interactive input was interrupted (Ctrl+C
// cancelling the context, or stdin being closed).
var ErrInputAborted = errors.New("input aborted")

// readPassword is replaced in tests.
var readPassword = term.ReadPassword

// IsAborted reports whether err means the user aborted the prompt.
func IsAborted(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, ErrInputAborted) || errors.Is(err, context.Canceled)
}

// MapInputError normalizes common stdin errors (EOF/closed fd) into ErrInputAborted.
func MapInputError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
		return ErrInputAborted
	}
	errStr := strings.ToLower(err.Error())
	if strings.Contains(errStr, "use of closed file") ||
		strings.Contains(errStr, "bad file descriptor") ||
		strings.Contains(errStr, "file already closed") {
		return ErrInputAborted
	}
	return err
}

// await runs read in a goroutine so a cancelled ctx returns immediately. A
// deadline is reported as context.DeadlineExceeded, any other cancellation as
// ErrInputAborted.
func await[T any](ctx context.Context, read func() (T, error)) (T, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	type result struct {
		value T
		err   error
	}
	ch := make(chan result, 1)
	go func() {
		v, err := read()
		ch <- result{value: v, err: MapInputError(err)}
	}()
	select {
	case <-ctx.Done():
		var zero T
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return zero, context.DeadlineExceeded
		}
		return zero, ErrInputAborted
	case res := <-ch:
		return res.value, res.err
	}
}

// ReadLineWithContext reads a single line and supports cancellation.
func ReadLineWithContext(ctx context.Context, reader *bufio.Reader) (string, error) {
	return await(ctx, func() (string, error) {
		return reader.ReadString('\n')
	})
}

// ReadPasswordWithContext reads a password (no echo) and supports cancellation.
func ReadPasswordWithContext(ctx context.Context, readPassword func(int) ([]byte, error), fd int) ([]byte, error) {
	if readPassword == nil {
		return nil, errors.New("readPassword function is nil")
	}
	return await(ctx, func() ([]byte, error) {
		return readPassword(fd)
	})
}

// ReadChoice prints prompt and reads a number in [min, max]. Invalid answers
// are reported on w and the prompt is repeated.
func ReadChoice(ctx context.Context, reader *bufio.Reader, w io.Writer, prompt string, min, max int) (int, error) {
	for {
		fmt.Fprint(w, prompt)
		line, err := ReadLineWithContext(ctx, reader)
		if err != nil {
			if errors.Is(err, ErrInputAborted) && strings.TrimSpace(line) != "" {
				err = nil
			} else {
				return 0, err
			}
		}
		n, convErr := strconv.Atoi(strings.TrimSpace(line))
		if convErr == nil && n >= min && n <= max {
			return n, nil
		}
		fmt.Fprintf(w, "Invalid input, enter a number between %d and %d\n", min, max)
	}
}

// ReadPassphrase asks for a passphrase twice on the terminal behind fd and
// returns it when both entries match.
func ReadPassphrase(ctx context.Context, w io.Writer, fd int) (string, error) {
	for {
		fmt.Fprint(w, "Archive passphrase: ")
		first, err := ReadPasswordWithContext(ctx, readPassword, fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		if len(first) == 0 {
			fmt.Fprintln(w, "The passphrase cannot be empty")
			continue
		}
		fmt.Fprint(w, "Repeat passphrase: ")
		second, err := ReadPasswordWithContext(ctx, readPassword, fd)
		fmt.Fprintln(w)
		if err != nil {
			return "", err
		}
		if string(first) != string(second) {
			fmt.Fprintln(w, "Passphrases do not match, try again")
			continue
		}
		return string(first), nil
	}
}

// IsTerminal reports whether fd is an interactive terminal.
func IsTerminal(fd int) bool {
	return term.IsTerminal(fd)
}

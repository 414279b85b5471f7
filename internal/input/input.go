// Package input reads interactive answers from the operator.
package input

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"cfgbk-go/internal/bk"
)

// ErrInputAborted signals that interactive input was interrupted, either by
// context cancellation or because stdin was closed.
var ErrInputAborted = errors.New("input aborted")

// MapInputError normalizes stdin closure errors into ErrInputAborted.
func MapInputError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
		return ErrInputAborted
	}
	return err
}

// ReadLineWithContext reads one line, returning early with ErrInputAborted
// when ctx is cancelled. A final line without a trailing newline is returned
// together with ErrInputAborted.
func ReadLineWithContext(ctx context.Context, reader *bufio.Reader) (string, error) {
	type result struct {
		line string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		line, err := reader.ReadString('\n')
		ch <- result{line: line, err: MapInputError(err)}
	}()
	select {
	case <-ctx.Done():
		return "", ErrInputAborted
	case res := <-ch:
		return res.line, res.err
	}
}

// LineConfirmer asks yes/no questions on a line-oriented terminal.
// The default answer is yes: an empty line or "y" (any case) confirms,
// anything else declines. Closed input declines.
type LineConfirmer struct {
	in  *bufio.Reader
	out io.Writer
}

var _ bk.Confirmer = (*LineConfirmer)(nil)

// NewLineConfirmer reads answers from in and writes prompts to out.
func NewLineConfirmer(in io.Reader, out io.Writer) *LineConfirmer {
	return &LineConfirmer{in: bufio.NewReader(in), out: out}
}

// Confirm prints prompt and waits for one line of input. Cancelling ctx
// returns ctx's error.
func (c *LineConfirmer) Confirm(ctx context.Context, prompt string) (bool, error) {
	fmt.Fprintf(c.out, "%s [Y/n]: ", prompt)

	line, err := ReadLineWithContext(ctx, c.in)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			fmt.Fprintln(c.out)
			return false, ctxErr
		}
		if !errors.Is(err, ErrInputAborted) {
			return false, err
		}
		// Closed input: honour a final unterminated answer, otherwise decline.
		if line == "" {
			fmt.Fprintln(c.out)
			return false, nil
		}
	}
	return IsAffirmative(line), nil
}

// IsAffirmative reports whether answer accepts a default-yes prompt.
func IsAffirmative(answer string) bool {
	answer = strings.TrimSpace(answer)
	return answer == "" || strings.EqualFold(answer, "y")
}

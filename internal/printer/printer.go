// Package printer writes user-facing status lines for CLI commands.
package printer

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/colonyops/qcdash/internal/core/styles"
)

type ctxKey struct{}

// Printer writes prefixed, styled lines.
type Printer struct {
	out io.Writer
	err io.Writer
}

// New creates a Printer writing normal lines to out and errors to errOut.
func New(out, errOut io.Writer) *Printer {
	return &Printer{out: out, err: errOut}
}

// NewContext stores p in ctx.
func NewContext(ctx context.Context, p *Printer) context.Context {
	return context.WithValue(ctx, ctxKey{}, p)
}

// Ctx returns the Printer stored in ctx, or one writing to stdout and
// stderr.
func Ctx(ctx context.Context) *Printer {
	if p, ok := ctx.Value(ctxKey{}).(*Printer); ok {
		return p
	}
	return New(os.Stdout, os.Stderr)
}

// Printf writes a plain line to the output writer.
func (p *Printer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(p.out, format+"\n", args...)
}

// Successf writes a line marked as a success.
func (p *Printer) Successf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, styles.SuccessStyle.Render("✔"), fmt.Sprintf(format, args...))
}

// Infof writes an informational line.
func (p *Printer) Infof(format string, args ...any) {
	_, _ = fmt.Fprintln(p.out, styles.HeaderStyle.Render("•"), fmt.Sprintf(format, args...))
}

// Warnf writes a warning to the error writer.
func (p *Printer) Warnf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.err, styles.WarningStyle.Render("!"), fmt.Sprintf(format, args...))
}

// Errorf writes an error line to the error writer.
func (p *Printer) Errorf(format string, args ...any) {
	_, _ = fmt.Fprintln(p.err, styles.ErrorStyle.Render("✘"), fmt.Sprintf(format, args...))
}

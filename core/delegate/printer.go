// Package delegate holds the receivers of remote calls: a Printer that only
// echoes what it is told and a Robot that drives a DriveSystem.
package delegate

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/kilianp07/ev3remote/core/remote"
)

// Printer answers say_it by printing the message.
type Printer struct {
	out io.Writer
}

// NewPrinter writes to out, or stdout when out is nil.
func NewPrinter(out io.Writer) *Printer {
	if out == nil {
		out = os.Stdout
	}
	return &Printer{out: out}
}

func (p *Printer) Methods() map[string]remote.Handler {
	return map[string]remote.Handler{"say_it": p.sayIt}
}

func (p *Printer) sayIt(_ context.Context, args remote.Args) error {
	if err := args.Expect(1); err != nil {
		return err
	}
	msg, err := args.String(0)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(p.out, "Message received!", msg)
	return err
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/roach88/wurm/internal/ormerr"
)

// Exit statuses of the wurm binary.
const (
	ExitOK    = 0
	ExitError = 1 // a wurm operation failed
	ExitUsage = 2 // bad flags or arguments, unusable config or database
)

// Codes reported for failures that carry no wurm error code. Failures of
// wurm operations report their own code, e.g. DUPLICATE_KEY.
const (
	CodeInternal = "INTERNAL"
	CodeConfig   = "CONFIG"
	CodeOpen     = "OPEN_DATABASE"
)

// commandError is returned by commands whose failure has already been
// printed. It decides the exit status.
type commandError struct {
	status int
	err    error
}

func (e *commandError) Error() string { return e.err.Error() }
func (e *commandError) Unwrap() error { return e.err }

// ExitStatus maps the error returned by the root command to the process
// exit status. Errors not produced by a printer come from cobra's flag and
// argument checks.
func ExitStatus(err error) int {
	if err == nil {
		return ExitOK
	}
	var ce *commandError
	if errors.As(err, &ce) {
		return ce.status
	}
	return ExitUsage
}

// Reported reports whether err was already printed by a printer. Commands
// silence cobra's own error output, so any other error still needs printing.
func Reported(err error) bool {
	var ce *commandError
	return errors.As(err, &ce)
}

// codeOf returns the wurm error code of err, or CodeInternal.
func codeOf(err error) string {
	if code := ormerr.CodeOf(err); code != "" {
		return string(code)
	}
	return CodeInternal
}

// reply is the document printed for every command run with --format json.
type reply struct {
	OK     bool        `json:"ok"`
	Result any         `json:"result,omitempty"`
	Error  *replyError `json:"error,omitempty"`
}

type replyError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Table   string `json:"table,omitempty"`
	Field   string `json:"field,omitempty"`
}

// printer writes command results to out and everything else to diag, so
// JSON on out stays parseable.
type printer struct {
	json    bool
	verbose bool
	out     io.Writer
	diag    io.Writer
}

// result prints v: as the result of a reply in JSON, with fmt otherwise.
func (p *printer) result(v any) error {
	if p.json {
		return json.NewEncoder(p.out).Encode(reply{OK: true, Result: v})
	}
	_, err := fmt.Fprintln(p.out, v)
	return err
}

// fail prints err as the failure of a wurm operation and returns the error
// for RunE.
func (p *printer) fail(err error) error {
	return p.report(ExitError, codeOf(err), err)
}

// usage prints err as a failure to set up the command, reported as code.
func (p *printer) usage(code string, err error) error {
	return p.report(ExitUsage, code, err)
}

func (p *printer) report(status int, code string, err error) error {
	body := &replyError{Code: code, Message: err.Error()}
	var oe *ormerr.Error
	if errors.As(err, &oe) {
		body.Table, body.Field = oe.Table, oe.Field
	}

	if p.json {
		_ = json.NewEncoder(p.out).Encode(reply{Error: body})
	} else {
		fmt.Fprintf(p.diag, "wurm: %s: %s\n", body.Code, body.Message)
		if p.verbose && body.Table != "" {
			fmt.Fprintf(p.diag, "  table: %s\n", body.Table)
			if body.Field != "" {
				fmt.Fprintf(p.diag, "  field: %s\n", body.Field)
			}
		}
	}
	return &commandError{status: status, err: err}
}

// debugf prints a line to diag when --verbose is set.
func (p *printer) debugf(format string, args ...any) {
	if p.verbose {
		fmt.Fprintf(p.diag, format+"\n", args...)
	}
}

package errs

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrInputValidation    = errors.New("invalid input")
	ErrParse              = errors.New("parse error")
	ErrResourceExhaustion = errors.New("resource exhausted")
	ErrExternalTool       = errors.New("external tool failed")
	ErrPoolClaimed        = errors.New("clip pool already claimed")
)

// Input wraps a validation failure for a required path or argument.
func Input(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInputValidation, fmt.Sprintf(format, args...))
}

// Tool reports a collaborator process failure together with its captured output.
func Tool(what string, err error, output []byte) error {
	out := strings.TrimSpace(string(output))
	if out == "" {
		return fmt.Errorf("%s: %w: %w", what, ErrExternalTool, err)
	}
	return fmt.Errorf("%s: %w: %w\n%s", what, ErrExternalTool, err, out)
}

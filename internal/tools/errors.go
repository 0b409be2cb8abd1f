package tools

import (
	"errors"
	"fmt"
	"strings"

	"ssh-tools-mcp/internal/probe"
)

// Error kinds. A *ToolError unwraps to exactly one of these, so callers
// classify failures with errors.Is.
var (
	ErrUnknownTool      = errors.New("unknown tool")
	ErrMissingParameter = errors.New("missing required parameter")
	ErrInvalidEnum      = errors.New("invalid enum value")
	ErrInvalidType      = errors.New("invalid parameter type")
	ErrInvalidArgument  = errors.New("invalid argument")
	ErrRangeTooLarge    = probe.ErrRangeTooLarge
	ErrHandlerFailure   = errors.New("handler failure")
)

// ToolError is returned by Dispatch in place of a Result.
type ToolError struct {
	Tool    string
	Kind    error
	Message string
}

func (e *ToolError) Error() string {
	return fmt.Sprintf("%s: %s", e.Tool, e.Message)
}

func (e *ToolError) Unwrap() error {
	return e.Kind
}

func newToolError(tool string, kind error, format string, args ...any) *ToolError {
	return &ToolError{Tool: tool, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Content is one block of a tool result.
type Content struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// Result is a successful tool response.
type Result struct {
	Content []Content `json:"content"`
}

// TextResult wraps text in a single-block Result.
func TextResult(text string) *Result {
	return &Result{Content: []Content{{Type: "text", Text: text}}}
}

// Text joins the text of every block.
func (r *Result) Text() string {
	parts := make([]string, 0, len(r.Content))
	for _, c := range r.Content {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, "\n")
}

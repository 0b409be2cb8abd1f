package tools

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"github.com/xeipuuv/gojsonschema"
)

// Call is one tool invocation request.
type Call struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// Dispatcher routes calls to the registered handlers. It holds no mutable
// state, so Dispatch is safe for concurrent use.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher creates a Dispatcher over r.
func NewDispatcher(r *Registry) *Dispatcher {
	return &Dispatcher{registry: r}
}

// ListTools returns the catalogue in registration order.
func (d *Dispatcher) ListTools() []Descriptor {
	return d.registry.ListTools()
}

// Dispatch validates call and runs its handler. Every failure, including a
// handler panic, is returned as a *ToolError.
func (d *Dispatcher) Dispatch(ctx context.Context, call Call) (*Result, error) {
	callID := uuid.NewString()
	logger := log.With().Str("tool", call.Name).Str("call_id", callID).Logger()

	desc, ok := d.registry.Lookup(call.Name)
	if !ok {
		logger.Warn().Msg("Unknown tool")
		return nil, newToolError(call.Name, ErrUnknownTool, "unknown tool %q", call.Name)
	}

	args, terr := desc.validate(call.Arguments)
	if terr != nil {
		logger.Warn().Err(terr).Msg("Parameter validation failed")
		return nil, terr
	}

	if desc.Check != nil {
		if err := desc.Check(args); err != nil {
			kind := ErrInvalidArgument
			if errors.Is(err, ErrRangeTooLarge) {
				kind = ErrRangeTooLarge
			}
			logger.Warn().Err(err).Msg("Argument check failed")
			return nil, newToolError(desc.Name, kind, "%v", err)
		}
	}

	logger.Debug().Msg("Executing tool")
	start := time.Now()

	text, err := invoke(ctx, desc.Handler, args)
	duration := time.Since(start)
	if err != nil {
		logger.Error().Dur("duration", duration).Err(err).Msg("Tool execution failed")
		return nil, newToolError(desc.Name, ErrHandlerFailure, "%v", err)
	}

	logger.Debug().Dur("duration", duration).Int("bytes", len(text)).Msg("Tool execution completed")
	return TextResult(text), nil
}

// invoke runs h and turns a panic into an error.
func invoke(ctx context.Context, h Handler, args Args) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return h(ctx, args)
}

// validate checks raw against the compiled schema and returns a copy with
// defaults filled in. The caller's map is never modified.
func (d *Descriptor) validate(raw map[string]any) (Args, *ToolError) {
	args := make(Args, len(d.Params))
	for k, v := range raw {
		args[k] = v
	}

	result, err := d.schema.Validate(gojsonschema.NewGoLoader(map[string]any(args)))
	if err != nil {
		return nil, newToolError(d.Name, ErrInvalidArgument, "validation error: %v", err)
	}
	if !result.Valid() {
		return nil, d.classify(result.Errors())
	}

	for _, p := range d.Params {
		if !args.Has(p.Name) && p.Default != nil {
			args[p.Name] = p.Default
		}
	}
	for _, p := range d.Params {
		if !args.Has(p.Name) && p.DefaultFrom != nil {
			args[p.Name] = p.DefaultFrom(args)
		}
	}
	return args, nil
}

// classify picks the most specific error kind among the schema violations:
// missing parameters first, then enum mismatches, then type errors.
func (d *Descriptor) classify(errs []gojsonschema.ResultError) *ToolError {
	var missing, enums, types, other []string

	for _, e := range errs {
		switch e.(type) {
		case *gojsonschema.RequiredError:
			missing = append(missing, fmt.Sprint(e.Details()["property"]))
		case *gojsonschema.EnumError:
			enums = append(enums, fmt.Sprintf("%s must be one of %v, got %v", e.Field(), d.enumOf(e.Field()), e.Value()))
		case *gojsonschema.InvalidTypeError:
			types = append(types, fmt.Sprintf("%s: expected %v, got %v", e.Field(), e.Details()["expected"], e.Details()["given"]))
		default:
			other = append(other, e.String())
		}
	}

	switch {
	case len(missing) > 0:
		sort.Strings(missing)
		return newToolError(d.Name, ErrMissingParameter, "missing required parameter: %s", strings.Join(missing, ", "))
	case len(enums) > 0:
		return newToolError(d.Name, ErrInvalidEnum, "%s", strings.Join(enums, "; "))
	case len(types) > 0:
		return newToolError(d.Name, ErrInvalidType, "%s", strings.Join(types, "; "))
	default:
		return newToolError(d.Name, ErrInvalidArgument, "%s", strings.Join(other, "; "))
	}
}

func (d *Descriptor) enumOf(name string) []string {
	for _, p := range d.Params {
		if p.Name == name {
			return p.Enum
		}
	}
	return nil
}

package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/brojonat/burnwatch/service/burn"
	natspkg "github.com/brojonat/burnwatch/service/nats"
	"github.com/itchyny/gojq"
)

// Filter is a compiled jq expression evaluated against the published form
// of a burn event (see nats.BurnMessage).
type Filter struct {
	expr string
	code *gojq.Code
}

// NewFilter compiles expr.
func NewFilter(expr string) (*Filter, error) {
	query, err := gojq.Parse(expr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse jq filter %q: %w", expr, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq filter %q: %w", expr, err)
	}
	return &Filter{expr: expr, code: code}, nil
}

func (f *Filter) String() string { return f.expr }

// Match reports whether the first result of the expression is truthy.
// An expression with no results does not match.
func (f *Filter) Match(ctx context.Context, ev *burn.Event) (bool, error) {
	input, err := toJQInput(natspkg.FromEvent(ev))
	if err != nil {
		return false, err
	}
	return f.MatchValue(ctx, input)
}

// MatchValue runs the expression on an already decoded JSON value.
func (f *Filter) MatchValue(ctx context.Context, input any) (bool, error) {
	iter := f.code.RunWithContext(ctx, input)
	v, ok := iter.Next()
	if !ok {
		return false, nil
	}
	if err, ok := v.(error); ok {
		return false, fmt.Errorf("jq filter %q: %w", f.expr, err)
	}
	return Truthy(v), nil
}

// Truthy applies jq truthiness: false and null are falsy, everything else
// is truthy.
func Truthy(v any) bool {
	if v == nil {
		return false
	}
	if b, ok := v.(bool); ok {
		return b
	}
	return true
}

// gojq only accepts plain JSON values (maps, slices, float64...).
func toJQInput(v any) (any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode jq input: %w", err)
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, fmt.Errorf("failed to decode jq input: %w", err)
	}
	return out, nil
}

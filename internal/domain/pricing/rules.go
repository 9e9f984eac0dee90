package pricing

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/cel-go/cel"

	"stockledger/internal/core/apperror"
	"stockledger/internal/core/types"
)

// Rules compiles and evaluates promo-code conditions written in CEL, e.g.
//
//	subtotal >= 100.0 && weekday in [0, 6]
//
// Variables: subtotal (double), now (timestamp), weekday (int, 0 = Sunday).
// Compiled programs are cached per rule text.
type Rules struct {
	env *cel.Env

	mu       sync.RWMutex
	programs map[string]cel.Program
}

// NewRules creates the CEL environment for promo-code conditions.
func NewRules() (*Rules, error) {
	env, err := cel.NewEnv(
		cel.Variable("subtotal", cel.DoubleType),
		cel.Variable("now", cel.TimestampType),
		cel.Variable("weekday", cel.IntType),
	)
	if err != nil {
		return nil, fmt.Errorf("create cel env: %w", err)
	}
	return &Rules{env: env, programs: make(map[string]cel.Program)}, nil
}

// Compile checks that rule is a boolean expression and caches its program.
func (r *Rules) Compile(rule string) (cel.Program, error) {
	r.mu.RLock()
	prg, ok := r.programs[rule]
	r.mu.RUnlock()
	if ok {
		return prg, nil
	}

	ast, iss := r.env.Compile(rule)
	if iss != nil && iss.Err() != nil {
		return nil, apperror.NewValidation("invalid promo rule").
			WithDetail("field", "rule").
			WithDetail("error", iss.Err().Error())
	}
	if !ast.OutputType().IsExactType(cel.BoolType) {
		return nil, apperror.NewValidation("promo rule must evaluate to bool").
			WithDetail("field", "rule").
			WithDetail("type", ast.OutputType().String())
	}
	prg, err := r.env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("build cel program: %w", err)
	}

	r.mu.Lock()
	r.programs[rule] = prg
	r.mu.Unlock()
	return prg, nil
}

// Eval evaluates rule for an order. An empty rule always holds.
func (r *Rules) Eval(rule string, subtotal types.Money, now time.Time) (bool, error) {
	if rule == "" {
		return true, nil
	}
	prg, err := r.Compile(rule)
	if err != nil {
		return false, err
	}

	out, _, err := prg.Eval(map[string]any{
		"subtotal": subtotal.InexactFloat64(),
		"now":      now,
		"weekday":  int64(now.Weekday()),
	})
	if err != nil {
		return false, fmt.Errorf("evaluate promo rule: %w", err)
	}
	ok, isBool := out.Value().(bool)
	if !isBool {
		return false, fmt.Errorf("promo rule returned %T", out.Value())
	}
	return ok, nil
}

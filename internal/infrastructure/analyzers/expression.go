package analyzers

import (
	"fmt"

	"github.com/google/cel-go/cel"

	"github.com/khanhnv2901/seca-traffic/internal/domain/analysis"
	"github.com/khanhnv2901/seca-traffic/internal/domain/httpmsg"
	sharedErrors "github.com/khanhnv2901/seca-traffic/internal/shared/errors"
)

const (
	KindExpression = "expression"

	expressionDescription = "Custom CEL rule"
)

var expressionOutputs = analysis.OutputTypes{
	Success:  []string{"bool"},
	Failures: []analysis.FailureKind{analysis.ExpressionFailed, analysis.ExpressionErrored},
}

// ExpressionAnalyzer evaluates user supplied CEL expressions against
// requests, responses or exchanges.
//
// Expressions see two map variables, request and response. Missing sides are
// empty maps. The applies expression filters events, passes decides the
// outcome.
type ExpressionAnalyzer struct {
	analysis.Base
	input   httpmsg.Kind
	applies cel.Program
	passes  cel.Program
	failure analysis.FailureKind
	detail  string
}

// NewExpressionAnalyzer requires passes. Optional keys are input (request,
// response or exchange; default exchange), applies, description and failure,
// the failure kind reported when passes is false.
func NewExpressionAnalyzer(name string, cfg Section) (analysis.Analyzer, error) {
	passesExpr, err := cfg.requireString(name, "passes")
	if err != nil {
		return nil, err
	}
	appliesExpr, err := cfg.optionalString(name, "applies", "true")
	if err != nil {
		return nil, err
	}
	inputName, err := cfg.optionalString(name, "input", httpmsg.KindExchange.String())
	if err != nil {
		return nil, err
	}
	description, err := cfg.optionalString(name, "description", expressionDescription+": "+passesExpr)
	if err != nil {
		return nil, err
	}
	failure, err := cfg.optionalString(name, "failure", string(analysis.ExpressionFailed))
	if err != nil {
		return nil, err
	}
	if failure == "" {
		return nil, fmt.Errorf("%w: %s.failure must not be empty", sharedErrors.ErrInvalidConfig, name)
	}

	input, err := httpmsg.ParseKind(inputName)
	if err != nil || input == httpmsg.KindRawPacket {
		return nil, fmt.Errorf("%w: %s.input must be request, response or exchange, got %q", sharedErrors.ErrInvalidConfig, name, inputName)
	}

	env, err := cel.NewEnv(
		cel.Variable("request", cel.MapType(cel.StringType, cel.DynType)),
		cel.Variable("response", cel.MapType(cel.StringType, cel.DynType)),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create CEL environment: %w", err)
	}
	applies, err := compileBool(env, name, "applies", appliesExpr)
	if err != nil {
		return nil, err
	}
	passes, err := compileBool(env, name, "passes", passesExpr)
	if err != nil {
		return nil, err
	}

	outputs := analysis.OutputTypes{
		Success:  expressionOutputs.Success,
		Failures: []analysis.FailureKind{analysis.FailureKind(failure), analysis.ExpressionErrored},
	}
	return &ExpressionAnalyzer{
		Base:    analysis.NewBase(name, description, input, outputs),
		input:   input,
		applies: applies,
		passes:  passes,
		failure: analysis.FailureKind(failure),
		detail:  passesExpr,
	}, nil
}

func compileBool(env *cel.Env, name, key, expr string) (cel.Program, error) {
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("%w: %s.%s: %v", sharedErrors.ErrInvalidConfig, name, key, issues.Err())
	}
	if out := ast.OutputType(); !out.IsExactType(cel.BoolType) && !out.IsExactType(cel.DynType) {
		return nil, fmt.Errorf("%w: %s.%s must evaluate to bool, got %s", sharedErrors.ErrInvalidConfig, name, key, ast.OutputType())
	}
	prg, err := env.Program(ast, cel.InterruptCheckFrequency(100), cel.CostLimit(10000))
	if err != nil {
		return nil, fmt.Errorf("%w: %s.%s: %v", sharedErrors.ErrInvalidConfig, name, key, err)
	}
	return prg, nil
}

func evalBool(prg cel.Program, vars map[string]any) (bool, error) {
	out, _, err := prg.Eval(vars)
	if err != nil {
		return false, err
	}
	b, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression returned %T, not bool", out.Value())
	}
	return b, nil
}

func (a *ExpressionAnalyzer) CanAnalyze(p httpmsg.Payload) bool {
	if p.Kind() != a.input {
		return false
	}
	// evaluation errors in applies simply exclude the event
	ok, err := evalBool(a.applies, expressionVars(p))
	return err == nil && ok
}

func (a *ExpressionAnalyzer) Analyze(p httpmsg.Payload) (analysis.Outcome, error) {
	ok, err := evalBool(a.passes, expressionVars(p))
	if err != nil {
		return analysis.Fail(analysis.ExpressionErrored, err.Error()), nil
	}
	if !ok {
		return analysis.Fail(a.failure, a.detail), nil
	}
	return analysis.Pass(true), nil
}

func expressionVars(p httpmsg.Payload) map[string]any {
	vars := map[string]any{
		"request":  map[string]any{},
		"response": map[string]any{},
	}
	switch v := p.(type) {
	case *httpmsg.Request:
		vars["request"] = requestVars(v)
	case *httpmsg.Response:
		vars["response"] = responseVars(v)
	case *httpmsg.Exchange:
		if v.Request != nil {
			vars["request"] = requestVars(v.Request)
		}
		if v.Response != nil {
			vars["response"] = responseVars(v.Response)
		}
	}
	return vars
}

func requestVars(r *httpmsg.Request) map[string]any {
	return map[string]any{
		"method":   r.Method,
		"uri":      r.URI,
		"query":    r.Query,
		"fragment": r.Fragment,
		"version":  r.Version,
		"host":     r.Host(),
		"headers":  r.Header.Lowered(),
		"body":     string(r.Body),
	}
}

func responseVars(r *httpmsg.Response) map[string]any {
	return map[string]any{
		"version": r.Version,
		"status":  int64(r.Status),
		"reason":  r.Reason,
		"headers": r.Header.Lowered(),
		"body":    string(r.Body),
	}
}

package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/cel-go/cel"
)

// CalculatorTool evaluates arithmetic expressions with CEL.
// Expressions see no variables, so only literals and operators are usable.
type CalculatorTool struct {
	env *cel.Env
}

// NewCalculatorTool creates a calculator.
func NewCalculatorTool() *CalculatorTool {
	env, err := cel.NewEnv()
	if err != nil {
		panic("tools: create CEL environment: " + err.Error())
	}
	return &CalculatorTool{env: env}
}

// Metadata returns the tool metadata.
func (t *CalculatorTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "calculate",
		Description: "Evaluate an arithmetic expression such as (12.5 * 4) / 3. Use decimals for non-integer division.",
		Parameters: []ToolParameter{
			{Name: "expression", ParamType: "string", Description: "The expression to evaluate", Required: true},
		},
	}
}

type calculatorArgs struct {
	Expression string `json:"expression"`
}

// Validate checks that an expression is present and compiles.
func (t *CalculatorTool) Validate(args json.RawMessage) error {
	var a calculatorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return fmt.Errorf("invalid arguments: %w", err)
	}
	if a.Expression == "" {
		return fmt.Errorf("expression cannot be empty")
	}
	if _, iss := t.env.Compile(a.Expression); iss != nil && iss.Err() != nil {
		return fmt.Errorf("invalid expression: %w", iss.Err())
	}
	return nil
}

// Execute evaluates the expression.
func (t *CalculatorTool) Execute(_ context.Context, args json.RawMessage) (ToolResult, error) {
	var a calculatorArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}

	ast, iss := t.env.Compile(a.Expression)
	if iss != nil && iss.Err() != nil {
		return FailureResult(fmt.Errorf("invalid expression: %w", iss.Err())), nil
	}
	prg, err := t.env.Program(ast)
	if err != nil {
		return FailureResult(fmt.Errorf("invalid expression: %w", err)), nil
	}
	out, _, err := prg.Eval(map[string]any{})
	if err != nil {
		return FailureResult(fmt.Errorf("evaluation failed: %w", err)), nil
	}

	switch v := out.Value().(type) {
	case int64:
		return SuccessResult(strconv.FormatInt(v, 10)), nil
	case uint64:
		return SuccessResult(strconv.FormatUint(v, 10)), nil
	case float64:
		return SuccessResult(strconv.FormatFloat(v, 'f', -1, 64)), nil
	default:
		return FailureResultf("invalid expression: result is %T, not a number", v), nil
	}
}

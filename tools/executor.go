// Tool Executor with Retry Logic.
//
// Information Hiding:
// - Retry strategy implementation hidden
// - Backoff algorithm hidden
// - Error classification logic hidden

package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/richinex/genlo/internal/logx"
	"github.com/richinex/genlo/model"
)

// ErrUnknownFunction is returned for calls to functions that are not registered.
var ErrUnknownFunction = errors.New("unknown function")

// Executor runs registered tools with validation, a per-call timeout and
// retry with exponential backoff. It is the function executor handed to the
// text handler.
type Executor struct {
	registry *Registry
	config   ToolConfig
}

// NewExecutor creates a new tool executor with the given configuration.
func NewExecutor(registry *Registry, config ToolConfig) *Executor {
	return &Executor{registry: registry, config: config}
}

// NewDefaultExecutor creates an executor with default configuration.
func NewDefaultExecutor(registry *Registry) *Executor {
	return NewExecutor(registry, DefaultToolConfig())
}

// Definitions returns the function definitions of the registered tools.
func (e *Executor) Definitions() []model.FunctionDefinition {
	return e.registry.Definitions()
}

// ExecuteFunction runs the named tool and returns its output. A failed tool
// result is returned as an error so the caller can report it to the model.
func (e *Executor) ExecuteFunction(ctx context.Context, name string, args json.RawMessage) (string, error) {
	tool, ok := e.registry.Get(name)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownFunction, name)
	}
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	if err := tool.Validate(args); err != nil {
		return "", fmt.Errorf("validation failed: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout())
	defer cancel()

	started := time.Now()
	result, err := e.Execute(ctx, tool, args)
	if err != nil {
		return "", err
	}

	logx.Debug().
		Str("function", name).
		Bool("success", result.Success()).
		Dur("elapsed", time.Since(started)).
		Msg("function executed")

	if !result.Success() {
		return result.Output, result.Error
	}
	return result.Output, nil
}

// Execute runs a tool with retry logic.
func (e *Executor) Execute(ctx context.Context, tool Tool, args json.RawMessage) (ToolResult, error) {
	var lastErr error
	toolName := tool.Metadata().Name
	maxRetries := e.config.Retries()

	for attempt := uint32(0); attempt < maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ToolResult{}, ctx.Err()
			case <-time.After(e.calculateBackoff(attempt)):
			}
		}

		result, err := tool.Execute(ctx, args)
		if err != nil {
			lastErr = err
			continue
		}

		if result.Success() || !e.shouldRetry(result) {
			return result, nil
		}

		lastErr = result.Error
	}

	errMsg := "unknown error"
	if lastErr != nil {
		errMsg = lastErr.Error()
	}
	return FailureResultf("tool '%s' failed after %d attempts: %s", toolName, maxRetries, errMsg), nil
}

// calculateBackoff returns the backoff duration for the given attempt.
func (e *Executor) calculateBackoff(attempt uint32) time.Duration {
	const (
		baseDelay = 100 * time.Millisecond
		maxDelay  = 5 * time.Second
	)

	delay := baseDelay * time.Duration(1<<attempt)
	if delay > maxDelay {
		delay = maxDelay
	}
	return delay
}

// shouldRetry determines if a failed result is worth another attempt.
func (e *Executor) shouldRetry(result ToolResult) bool {
	if result.Error == nil {
		return false
	}

	errLower := strings.ToLower(result.Error.Error())

	// Bad input and policy refusals fail the same way every time.
	nonRetryable := []string{"validation", "invalid", "evaluation", "not allowed", "unknown", "empty", "only get and post"}
	for _, s := range nonRetryable {
		if strings.Contains(errLower, s) {
			return false
		}
	}

	return true
}

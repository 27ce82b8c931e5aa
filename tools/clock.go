package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"time"
)

// ClockTool reports the current time in a timezone.
type ClockTool struct {
	BaseTool
	now func() time.Time
}

// NewClockTool creates a clock tool backed by time.Now.
func NewClockTool() *ClockTool {
	return &ClockTool{now: time.Now}
}

// Metadata returns the tool metadata.
func (t *ClockTool) Metadata() ToolMetadata {
	return ToolMetadata{
		Name:        "get_current_time",
		Description: "Get the current date and time, optionally in an IANA timezone such as Europe/Berlin",
		Parameters: []ToolParameter{
			{Name: "timezone", ParamType: "string", Description: "IANA timezone name, defaults to UTC"},
		},
	}
}

// Execute returns the time formatted as RFC 1123 plus the zone name.
func (t *ClockTool) Execute(_ context.Context, args json.RawMessage) (ToolResult, error) {
	var a struct {
		Timezone string `json:"timezone"`
	}
	if err := json.Unmarshal(args, &a); err != nil {
		return FailureResult(fmt.Errorf("invalid arguments: %w", err)), nil
	}
	if a.Timezone == "" {
		a.Timezone = "UTC"
	}

	loc, err := time.LoadLocation(a.Timezone)
	if err != nil {
		return FailureResultf("invalid timezone %q", a.Timezone), nil
	}
	return SuccessResult(t.now().In(loc).Format(time.RFC1123) + " (" + loc.String() + ")"), nil
}

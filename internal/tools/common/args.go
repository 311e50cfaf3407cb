package common

import (
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/teemow/mailgate/internal/output"
)

// StringArg returns the trimmed string argument key, or "" when it is
// missing or not a string.
func StringArg(args map[string]interface{}, key string) string {
	if v, ok := args[key].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}

// RequiredStringArg is StringArg that fails on an empty value.
func RequiredStringArg(args map[string]interface{}, key string) (string, error) {
	v := StringArg(args, key)
	if v == "" {
		return "", fmt.Errorf("'%s' parameter is required", key)
	}
	return v, nil
}

// BoolArg returns the boolean argument key, or def when it is missing.
func BoolArg(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

// ErrorResult renders err as a tool error in the CLI's compact error form.
func ErrorResult(err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("error:%s:%s", output.ErrorKind(err), err.Error()))
}

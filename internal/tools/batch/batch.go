package batch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/teemow/mailgate/internal/output"
)

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Result is the outcome for one id.
type Result struct {
	ID     string `json:"id"`
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
	Kind   string `json:"kind,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Summary aggregates the results of a batch.
type Summary struct {
	Total      int      `json:"total"`
	Successful int      `json:"successful"`
	Failed     int      `json:"failed"`
	Results    []Result `json:"results"`
}

// ParseIDs accepts a single id, a JSON array encoded as a string, or an
// array of strings. Ids are trimmed and duplicates are dropped.
func ParseIDs(param interface{}, paramName string) ([]string, error) {
	var raw []string

	switch v := param.(type) {
	case nil:
		return nil, fmt.Errorf("%s is required", paramName)
	case string:
		s := strings.TrimSpace(v)
		if strings.HasPrefix(s, "[") {
			if err := json.Unmarshal([]byte(s), &raw); err != nil {
				return nil, fmt.Errorf("%s: invalid JSON array: %w", paramName, err)
			}
		} else {
			raw = []string{s}
		}
	case []string:
		raw = v
	case []interface{}:
		for i, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%s[%d] must be a string", paramName, i)
			}
			raw = append(raw, str)
		}
	default:
		return nil, fmt.Errorf("%s must be a string or array of strings", paramName)
	}

	if len(raw) == 0 {
		return nil, fmt.Errorf("%s cannot be empty", paramName)
	}

	ids := make([]string, 0, len(raw))
	seen := make(map[string]bool, len(raw))
	for i, id := range raw {
		id = strings.TrimSpace(id)
		if id == "" {
			return nil, fmt.Errorf("%s[%d] cannot be empty", paramName, i)
		}
		if seen[id] {
			continue
		}
		seen[id] = true
		ids = append(ids, id)
	}
	return ids, nil
}

// Process runs fn for each id in order. Once ctx is done the remaining ids
// fail with the context error without calling fn.
func Process(ctx context.Context, ids []string, fn func(ctx context.Context, id string) (string, error)) []Result {
	results := make([]Result, 0, len(ids))
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		res, err := fn(ctx, id)
		if err != nil {
			results = append(results, NewErrorResult(id, err))
			continue
		}
		results = append(results, NewSuccessResult(id, res))
	}
	return results
}

// Summarize counts successes and failures.
func Summarize(results []Result) Summary {
	s := Summary{Total: len(results), Results: results}
	for _, r := range results {
		if r.Status == StatusSuccess {
			s.Successful++
		} else {
			s.Failed++
		}
	}
	return s
}

// FormatResults renders results in the given output format. A single
// result is rendered as its own line so one-id calls read like the CLI.
func FormatResults(results []Result, format output.Format) string {
	s := Summarize(results)

	if format == output.FormatJSON {
		data, _ := json.MarshalIndent(s, "", "  ")
		return string(data)
	}

	if len(results) == 1 {
		r := results[0]
		if r.Status == StatusSuccess {
			return r.Result
		}
		return fmt.Sprintf("error:%s:%s", r.Kind, r.Error)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "results[%d]{id|status|detail}:", s.Total)
	for _, r := range results {
		detail := r.Result
		if r.Status == StatusError {
			detail = r.Kind + ":" + r.Error
		}
		fmt.Fprintf(&b, "\n%s|%s|%s", r.ID, r.Status, detail)
	}
	fmt.Fprintf(&b, "\nsummary:successful:%d|failed:%d", s.Successful, s.Failed)
	return b.String()
}

// NewSuccessResult creates a success result
func NewSuccessResult(id, message string) Result {
	return Result{
		ID:     id,
		Status: StatusSuccess,
		Result: message,
	}
}

// NewErrorResult creates an error result classified by output.ErrorKind.
func NewErrorResult(id string, err error) Result {
	return Result{
		ID:     id,
		Status: StatusError,
		Kind:   output.ErrorKind(err),
		Error:  err.Error(),
	}
}

package output

import (
	"encoding/json"
	"fmt"
	"io"
	"reflect"
	"strings"
	"time"

	"github.com/teemow/mailgate/internal/approval"
	"github.com/teemow/mailgate/internal/history"
)

// Format selects how results are rendered.
type Format string

const (
	FormatJSON    Format = "json"
	FormatCompact Format = "compact"
)

// mutationFieldLimit caps the fields shown in a compact mutation line.
const mutationFieldLimit = 3

// TimeLayout renders timestamps in UTC with millisecond precision.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// ParseFormat validates a --format value. Empty means compact.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(s)) {
	case "", FormatCompact:
		return FormatCompact, nil
	case FormatJSON:
		return FormatJSON, nil
	}
	return "", fmt.Errorf("unknown output format %q (supported: json, compact)", s)
}

// Field is one key/value pair of a mutation result. Order is preserved in
// compact output.
type Field struct {
	Key   string
	Value any
}

// F is shorthand for Field{Key: key, Value: value}.
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// Printer writes formatted results to w.
type Printer struct {
	w      io.Writer
	format Format
}

// New creates a Printer.
func New(w io.Writer, format Format) *Printer {
	if format == "" {
		format = FormatCompact
	}
	return &Printer{w: w, format: format}
}

// Format returns the printer's format.
func (p *Printer) Format() Format {
	return p.format
}

// Mutation prints the result of a state-changing action.
func (p *Printer) Mutation(action string, fields ...Field) error {
	if p.format == FormatJSON {
		obj := map[string]any{"success": true, "action": action}
		for _, f := range fields {
			if !isEmpty(f.Value) {
				obj[f.Key] = f.Value
			}
		}
		return p.json(obj)
	}
	return p.line(FormatMutation(action, fields...))
}

// FormatMutation renders action:key:value|key:value with at most three
// non-empty fields.
func FormatMutation(action string, fields ...Field) string {
	parts := make([]string, 0, mutationFieldLimit)
	for _, f := range fields {
		if isEmpty(f.Value) {
			continue
		}
		if len(parts) == mutationFieldLimit {
			break
		}
		parts = append(parts, f.Key+":"+formatValue(f.Value))
	}
	return action + ":" + strings.Join(parts, "|")
}

// Submit prints the outcome of a gate submission.
func (p *Printer) Submit(res approval.SubmitResult) error {
	action, fields := submitFields(res)
	return p.Mutation(action, fields...)
}

// FormatSubmit renders message_sent or message_queued.
func FormatSubmit(res approval.SubmitResult) string {
	action, fields := submitFields(res)
	return FormatMutation(action, fields...)
}

func submitFields(res approval.SubmitResult) (string, []Field) {
	if res.Outcome == approval.OutcomeSent {
		return "message_sent", []Field{F("messageId", res.MessageID), F("to", res.To), F("subject", res.Subject)}
	}
	return "message_queued", []Field{F("pendingId", res.PendingID), F("to", res.To), F("subject", res.Subject)}
}

// Pending prints the pending queue.
func (p *Printer) Pending(items []approval.PendingView) error {
	if p.format == FormatJSON {
		if items == nil {
			items = []approval.PendingView{}
		}
		return p.json(map[string]any{"count": len(items), "pending": items})
	}
	return p.line(FormatPending(items))
}

// FormatPending renders the compact pending table.
func FormatPending(items []approval.PendingView) string {
	return table("pending", []string{"id", "to", "subject", "created"}, len(items), func(i int) []string {
		m := items[i]
		return []string{m.ID, m.To, m.Subject, FormatTime(m.CreatedAt)}
	})
}

// History prints recorded decisions.
func (p *Printer) History(items []history.Decision) error {
	if p.format == FormatJSON {
		if items == nil {
			items = []history.Decision{}
		}
		return p.json(map[string]any{"count": len(items), "history": items})
	}
	return p.line(table("history", []string{"id", "action", "address", "subject", "at"}, len(items), func(i int) []string {
		d := items[i]
		return []string{fmt.Sprint(d.ID), string(d.Action), d.Address, d.Subject, FormatTime(d.At)}
	}))
}

// Inbound prints a screening result. Delivered mail is printed as the
// agent-facing content block in compact mode.
func (p *Printer) Inbound(res approval.InboundResult) error {
	if p.format == FormatJSON {
		return p.json(res)
	}
	if res.Verdict == approval.VerdictDelivered {
		return p.line(res.Content)
	}
	return p.line(FormatMutation("inbound_blocked",
		F("from", res.Email.From),
		F("subject", res.Email.Subject),
		F("alerted", res.Alerted),
	))
}

// Value prints an arbitrary value, JSON or key:value pairs.
func (p *Printer) Value(v any) error {
	if p.format == FormatJSON {
		return p.json(v)
	}
	return p.line(formatValue(v))
}

// Error prints err with its kind.
func (p *Printer) Error(err error) error {
	kind := ErrorKind(err)
	if p.format == FormatJSON {
		return p.json(map[string]any{
			"success": false,
			"error":   map[string]string{"kind": kind, "message": err.Error()},
		})
	}
	return p.line(fmt.Sprintf("error:%s:%s", kind, err.Error()))
}

// ErrorKind classifies err for output. Gate errors carry their kind,
// everything else is "error".
func ErrorKind(err error) string {
	if k := approval.KindOf(err); k != "" {
		return string(k)
	}
	return "error"
}

// FormatTime renders t as UTC with milliseconds, or "-" when zero.
func FormatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.UTC().Format(TimeLayout)
}

func table(name string, fields []string, n int, row func(int) []string) string {
	if n == 0 {
		return name + "[0]{}:"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s[%d]{%s}:", name, n, strings.Join(fields, "|"))
	for i := 0; i < n; i++ {
		cells := row(i)
		for j, c := range cells {
			cells[j] = cell(c)
		}
		b.WriteString("\n")
		b.WriteString(strings.Join(cells, "|"))
	}
	return b.String()
}

// cell keeps a table value on one line.
func cell(s string) string {
	if s == "" {
		return "-"
	}
	return strings.NewReplacer("\n", " ", "\r", " ", "|", "/").Replace(s)
}

func formatValue(v any) string {
	switch val := v.(type) {
	case nil:
		return "-"
	case string:
		if val == "" {
			return "-"
		}
		return val
	case []string:
		return strings.Join(val, ";")
	case time.Time:
		return FormatTime(val)
	case fmt.Stringer:
		return val.String()
	case bool, int, int64, float64:
		return fmt.Sprint(val)
	}
	if rv := reflect.ValueOf(v); rv.Kind() == reflect.String {
		return formatValue(rv.String())
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func isEmpty(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	}
	rv := reflect.ValueOf(v)
	return rv.Kind() == reflect.String && rv.Len() == 0
}

func (p *Printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func (p *Printer) line(s string) error {
	_, err := fmt.Fprintln(p.w, s)
	return err
}

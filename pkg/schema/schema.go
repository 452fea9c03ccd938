// Package schema provides small composable validators for decoded JSON
// documents (map[string]any / []any / string / float64 / bool / nil).
//
// Validators never panic on bad input. Every problem is recorded as an Issue
// with the path of the offending field, and walking continues so that one
// pass reports all issues of a document.
package schema

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

const (
	MsgExpectedString = "Expected string"
	MsgExpectedArray  = "Expected array"
	MsgExpectedObject = "Expected object"
	MsgExpectedNumber = "Expected number"
	MsgExpectedInt    = "Expected integer"
)

// Path locates a field inside a document. Elements are object keys (string)
// or array indexes (int).
type Path []any

func (p Path) Key(k string) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, k)
}

func (p Path) Index(i int) Path {
	out := make(Path, len(p), len(p)+1)
	copy(out, p)
	return append(out, i)
}

// String renders the path dotted, e.g. "education.0.degree".
func (p Path) String() string {
	parts := make([]string, len(p))
	for i, el := range p {
		switch v := el.(type) {
		case int:
			parts[i] = strconv.Itoa(v)
		default:
			parts[i] = fmt.Sprint(v)
		}
	}
	return strings.Join(parts, ".")
}

type Issue struct {
	Path    Path   `json:"path"`
	Message string `json:"message"`
}

type Issues []Issue

func (is Issues) Error() string {
	msgs := make([]string, len(is))
	for i, issue := range is {
		if len(issue.Path) == 0 {
			msgs[i] = issue.Message
			continue
		}
		msgs[i] = issue.Path.String() + ": " + issue.Message
	}
	return strings.Join(msgs, "; ")
}

// First returns the first issue, used as the user-facing message in simple flows.
func (is Issues) First() (Issue, bool) {
	if len(is) == 0 {
		return Issue{}, false
	}
	return is[0], true
}

// At returns the messages recorded for an exact path.
func (is Issues) At(path string) []string {
	var out []string
	for _, issue := range is {
		if issue.Path.String() == path {
			out = append(out, issue.Message)
		}
	}
	return out
}

// Result is either a fully transformed value (no issues) or a list of issues.
// Value is best effort when issues are present and must not be persisted.
type Result[T any] struct {
	Value  T
	Issues Issues
}

func (r Result[T]) OK() bool {
	return len(r.Issues) == 0
}

// Collector accumulates issues for one validation pass.
type Collector struct {
	issues Issues
}

func NewCollector() *Collector {
	return &Collector{}
}

func (c *Collector) Report(path Path, message string) {
	c.issues = append(c.issues, Issue{Path: path, Message: message})
}

func (c *Collector) Issues() Issues {
	return c.issues
}

// Object wraps a decoded JSON object at a path.
type Object struct {
	c      *Collector
	path   Path
	fields map[string]any
}

// Object checks that raw is a JSON object. A nil raw reports missingMsg.
func (c *Collector) Object(path Path, raw any, missingMsg string) (*Object, bool) {
	if raw == nil {
		c.Report(path, missingMsg)
		return nil, false
	}
	fields, ok := raw.(map[string]any)
	if !ok {
		c.Report(path, MsgExpectedObject)
		return nil, false
	}
	return &Object{c: c, path: path, fields: fields}, true
}

func (o *Object) Path() Path {
	return o.path
}

func (o *Object) Collector() *Collector {
	return o.c
}

func (o *Object) value(key string) any {
	return o.fields[key]
}

// Rule transforms or checks a trimmed, non-empty string. A non-empty message
// rejects the value.
type Rule func(value string) (out string, message string)

func Check(ok func(string) bool, message string) Rule {
	return func(v string) (string, string) {
		if !ok(v) {
			return v, message
		}
		return v, ""
	}
}

func Match(re *regexp.Regexp, message string) Rule {
	return Check(re.MatchString, message)
}

func Transform(fn func(string) string) Rule {
	return func(v string) (string, string) {
		return fn(v), ""
	}
}

func applyRules(v string, rules []Rule) (string, string) {
	for _, rule := range rules {
		var msg string
		v, msg = rule(v)
		if msg != "" {
			return v, msg
		}
	}
	return strings.TrimSpace(v), ""
}

// clean trims s and replaces invalid UTF-8 so values survive a JSON round trip.
func clean(s string) string {
	return strings.TrimSpace(strings.ToValidUTF8(s, "\uFFFD"))
}

// RequiredString trims the field and reports message when it is missing,
// null or blank. Rules run after the required check; a value that a rule
// reduces to blank is reported with message as well.
func (o *Object) RequiredString(key, message string, rules ...Rule) string {
	path := o.path.Key(key)
	raw := o.value(key)
	if raw == nil {
		o.c.Report(path, message)
		return ""
	}
	s, ok := raw.(string)
	if !ok {
		o.c.Report(path, MsgExpectedString)
		return ""
	}
	s = clean(s)
	if s == "" {
		o.c.Report(path, message)
		return ""
	}
	out, msg := applyRules(s, rules)
	if msg != "" {
		o.c.Report(path, msg)
		return ""
	}
	if out == "" {
		o.c.Report(path, message)
		return ""
	}
	return out
}

// OptionalString trims the field; missing, null and blank values become nil.
func (o *Object) OptionalString(key string, rules ...Rule) *string {
	raw := o.value(key)
	if raw == nil {
		return nil
	}
	s, ok := raw.(string)
	if !ok {
		o.c.Report(o.path.Key(key), MsgExpectedString)
		return nil
	}
	s = clean(s)
	if s == "" {
		return nil
	}
	out, msg := applyRules(s, rules)
	if msg != "" {
		o.c.Report(o.path.Key(key), msg)
		return nil
	}
	if out == "" {
		return nil
	}
	return &out
}

// Strings reads an array of strings, defaulting to an empty slice.
func (o *Object) Strings(key string) []string {
	out := []string{}
	raw := o.value(key)
	if raw == nil {
		return out
	}
	path := o.path.Key(key)
	items, ok := raw.([]any)
	if !ok {
		o.c.Report(path, MsgExpectedArray)
		return out
	}
	for i, item := range items {
		s, ok := item.(string)
		if !ok {
			o.c.Report(path.Index(i), MsgExpectedString)
			continue
		}
		out = append(out, strings.ToValidUTF8(s, "\uFFFD"))
	}
	return out
}

// PositiveInt reads a whole number >= 1. Missing, null and non-positive
// values report message.
func (o *Object) PositiveInt(key, message string) int {
	path := o.path.Key(key)
	var f float64
	switch v := o.value(key).(type) {
	case nil:
		o.c.Report(path, message)
		return 0
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	default:
		o.c.Report(path, MsgExpectedNumber)
		return 0
	}
	if f < 1 {
		o.c.Report(path, message)
		return 0
	}
	if f != math.Trunc(f) || f > math.MaxInt32 {
		o.c.Report(path, MsgExpectedInt)
		return 0
	}
	return int(f)
}

// Nested reads a required sub-object.
func (o *Object) Nested(key, missingMsg string) (*Object, bool) {
	return o.c.Object(o.path.Key(key), o.value(key), missingMsg)
}

// OptionalNested reads a sub-object that may be missing or null. The bool
// reports whether a usable object is present.
func (o *Object) OptionalNested(key string) (*Object, bool) {
	raw := o.value(key)
	if raw == nil {
		return nil, false
	}
	return o.c.Object(o.path.Key(key), raw, MsgExpectedObject)
}

// Each calls fn for every object element of an array field. A missing or
// null array is treated as empty. Non-object elements are reported at their
// index and skipped.
func (o *Object) Each(key string, fn func(el *Object)) {
	raw := o.value(key)
	if raw == nil {
		return
	}
	path := o.path.Key(key)
	items, ok := raw.([]any)
	if !ok {
		o.c.Report(path, MsgExpectedArray)
		return
	}
	for i, item := range items {
		el, ok := o.c.Object(path.Index(i), item, MsgExpectedObject)
		if !ok {
			continue
		}
		fn(el)
	}
}

// List collects fn over every object element of an array field, always
// returning a non-nil slice.
func List[T any](o *Object, key string, fn func(el *Object) T) []T {
	out := []T{}
	o.Each(key, func(el *Object) {
		out = append(out, fn(el))
	})
	return out
}

// Run validates raw as a top-level object and builds the value with fn.
func Run[T any](raw any, missingMsg string, fn func(o *Object) T) Result[T] {
	c := NewCollector()
	var value T
	if o, ok := c.Object(nil, raw, missingMsg); ok {
		value = fn(o)
	}
	return Result[T]{Value: value, Issues: c.Issues()}
}

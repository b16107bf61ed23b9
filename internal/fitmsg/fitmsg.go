// Package fitmsg models the decoded FIT message stream at the boundary
// between the binary decoder and the import pipeline. Every decoded message
// is a named sequence of (field name, typed value) pairs; the pipeline never
// sees raw bytes.
package fitmsg

import (
	"fmt"
	"strings"
	"time"
)

// Message kinds the pipeline asks for.
const (
	KindFileID   = "file_id"
	KindActivity = "activity"
	KindSport    = "sport"
	KindSession  = "session"
	KindRecord   = "record"
	KindLocation = "location"
)

// Field is one decoded field of a message. A field the device did not record
// is simply absent from the message; Value is never nil for a present field
// unless the decoder emitted an explicit null.
type Field struct {
	Name  string
	Value any
}

// Message is one decoded logical message.
type Message struct {
	Fields []Field
}

// Value returns the value of the named field, or nil if the field is absent.
func (m Message) Value(name string) any {
	for _, f := range m.Fields {
		if f.Name == name {
			return f.Value
		}
	}
	return nil
}

// Source hands back all decoded messages of a kind, in file order. Messages
// are immutable; callers may range over the same kind repeatedly.
type Source interface {
	Messages(kind string) []Message
}

// First returns the named field from the first message of a kind, or nil when
// no such message or field exists.
func First(src Source, kind, field string) any {
	for _, m := range src.Messages(kind) {
		return m.Value(field)
	}
	return nil
}

// JoinStrings concatenates the named field across all messages of a kind with
// the given separator, skipping messages where the field is absent.
func JoinStrings(src Source, kind, field, sep string) string {
	var parts []string
	for _, m := range src.Messages(kind) {
		if v := m.Value(field); v != nil {
			parts = append(parts, fmt.Sprint(v))
		}
	}
	return strings.Join(parts, sep)
}

// Float coerces a decoded value to float64. Non-numeric values (and nil)
// yield nil so that position-sensitive numeric columns can discard them.
func Float(v any) *float64 {
	var out float64
	switch x := v.(type) {
	case float64:
		out = x
	case float32:
		out = float64(x)
	case int:
		out = float64(x)
	case int8:
		out = float64(x)
	case int16:
		out = float64(x)
	case int32:
		out = float64(x)
	case int64:
		out = float64(x)
	case uint:
		out = float64(x)
	case uint8:
		out = float64(x)
	case uint16:
		out = float64(x)
	case uint32:
		out = float64(x)
	case uint64:
		out = float64(x)
	default:
		return nil
	}
	return &out
}

// Int coerces a decoded value to int64 via Float, truncating.
func Int(v any) *int64 {
	f := Float(v)
	if f == nil {
		return nil
	}
	n := int64(*f)
	return &n
}

// String returns the value stringified, or nil for absent values.
func String(v any) *string {
	if v == nil {
		return nil
	}
	s := fmt.Sprint(v)
	return &s
}

// Time returns the value as a timestamp when the decoder emitted one.
func Time(v any) *time.Time {
	t, ok := v.(time.Time)
	if !ok || t.IsZero() {
		return nil
	}
	return &t
}

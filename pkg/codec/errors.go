package codec

import (
	"errors"
	"fmt"
)

// ErrMessageSealed is returned when mutating a message that was parsed
// from wire text.
var ErrMessageSealed = errors.New("message parsed from text cannot be modified")

// MalformedRecordError reports raw text that does not follow VIF record
// framing.
type MalformedRecordError struct {
	Text   string
	Reason string
}

func (e *MalformedRecordError) Error() string {
	text := e.Text
	if len(text) > 40 {
		text = text[:40] + "..."
	}
	return fmt.Sprintf("malformed record %q: %s", text, e.Reason)
}

// UnknownFieldError reports a field name that the schema does not
// define for the record code.
type UnknownFieldError struct {
	RecordCode string
	Field      string
}

func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("unknown field %q for record code %q", e.Field, e.RecordCode)
}

// MissingRecordCodeError reports named fields given without a record
// code to resolve them against.
type MissingRecordCodeError struct {
	Fields []string
}

func (e *MissingRecordCodeError) Error() string {
	return fmt.Sprintf("record code required to resolve named fields %v", e.Fields)
}

// FieldValueError reports a value that cannot be coerced to the kind of
// its field.
type FieldValueError struct {
	RecordCode string
	Field      string
	Value      any
	Err        error
}

func (e *FieldValueError) Error() string {
	return fmt.Sprintf("field %q of record code %q: %v", e.Field, e.RecordCode, e.Err)
}

func (e *FieldValueError) Unwrap() error {
	return e.Err
}

// GroupFullError reports an element added past the last index whose keys
// stay inside the group's range.
type GroupFullError struct {
	RecordCode string
	Group      string
	Capacity   int
}

func (e *GroupFullError) Error() string {
	return fmt.Sprintf("%s of record code %q is full (%d elements)", e.Group, e.RecordCode, e.Capacity)
}

package schema

import (
	"fmt"
	"sort"
)

// Field describes one positional field of a record or group element.
type Field struct {
	Code int
	Name string
	Kind Kind
	// OmitEmpty drops the field from group encodings when its value is
	// empty or zero.
	OmitEmpty bool
}

// Placeholder is the field returned for codes a table does not catalogue.
func Placeholder(code int) Field {
	return Field{Code: code, Name: fmt.Sprintf("UNKNOWN_%d", code), Kind: String}
}

// Table maps integer field codes to fields for one record code or group
// element. A nil *Table is valid and behaves as an empty table.
type Table struct {
	name   string
	byCode map[int]Field
	byName map[string]Field
}

// newTable builds a table and panics on duplicate codes or names, since
// tables are only built from the static definitions at init.
func newTable(name string, fields ...Field) *Table {
	t := &Table{
		name:   name,
		byCode: make(map[int]Field, len(fields)),
		byName: make(map[string]Field, len(fields)),
	}
	for _, f := range fields {
		if _, dup := t.byCode[f.Code]; dup {
			panic(fmt.Sprintf("schema: %s: duplicate field code %d", name, f.Code))
		}
		if _, dup := t.byName[f.Name]; dup {
			panic(fmt.Sprintf("schema: %s: duplicate field name %q", name, f.Name))
		}
		t.byCode[f.Code] = f
		t.byName[f.Name] = f
	}
	return t
}

// Name returns the record code (or group name) the table describes.
func (t *Table) Name() string {
	if t == nil {
		return ""
	}
	return t.name
}

// Lookup returns the field for code, or a placeholder when it is not
// catalogued. It never fails.
func (t *Table) Lookup(code int) Field {
	if t != nil {
		if f, ok := t.byCode[code]; ok {
			return f
		}
	}
	return Placeholder(code)
}

// Reverse returns the field named name.
func (t *Table) Reverse(name string) (Field, bool) {
	if t == nil {
		return Field{}, false
	}
	f, ok := t.byName[name]
	return f, ok
}

// Len returns the number of catalogued fields.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.byCode)
}

// Fields returns a copy of the catalogued fields ordered by code.
func (t *Table) Fields() []Field {
	if t == nil {
		return nil
	}
	out := make([]Field, 0, len(t.byCode))
	for _, f := range t.byCode {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

func strField(code int, name string) Field {
	return Field{Code: code, Name: name, Kind: String}
}

func intField(code int, name string) Field {
	return Field{Code: code, Name: name, Kind: Integer}
}

func floatField(code int, name string) Field {
	return Field{Code: code, Name: name, Kind: Float}
}

func boolField(code int, name string) Field {
	return Field{Code: code, Name: name, Kind: Boolean}
}

func omitEmpty(f Field) Field {
	f.OmitEmpty = true
	return f
}

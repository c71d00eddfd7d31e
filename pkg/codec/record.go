package codec

import (
	"encoding/json"
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ssargent/vifgate/pkg/schema"
)

var (
	// codeToken is the leading {xxx} record code. Codes start with a letter,
	// which keeps a bare {123} field key from being read as a code.
	codeToken = regexp.MustCompile(`^\{([A-Za-z][A-Za-z0-9]{2})\}`)
	// fieldToken is one {key}value pair; the value runs to the next brace.
	fieldToken = regexp.MustCompile(`\{(\d+)\}([^{]*)`)
)

// Record is one VIF record: a record code and its fields keyed by integer
// code. Scalar values are held as wire text and typed on demand through
// the schema; repeated groups are held separately and merged back into
// the flat key space when the record is serialized.
type Record struct {
	code     string
	table    *schema.Table
	fields   map[int]string
	tickets  *Group
	payments *Group
	seats    *Group
}

// NewRecord creates an empty record. An empty code is allowed for bare
// records; such a record serializes without a code prefix.
func NewRecord(code string) *Record {
	return &Record{
		code:     code,
		table:    schema.Record(code),
		fields:   make(map[int]string),
		tickets:  newGroup(ticketSpec, code),
		payments: newGroup(paymentSpec, code),
		seats:    newGroup(seatSpec, code),
	}
}

// ParseRecord parses raw wire text that starts with a {xxx} record code.
func ParseRecord(text string) (*Record, error) {
	m := codeToken.FindStringSubmatch(text)
	if m == nil {
		return nil, &MalformedRecordError{Text: text, Reason: "missing leading record code"}
	}
	rest := text[len(m[0]):]
	if rest != "" && rest[0] != '{' {
		return nil, &MalformedRecordError{Text: text, Reason: "record code not followed by a field"}
	}

	flat, err := scanFields(text, rest)
	if err != nil {
		return nil, err
	}
	r := NewRecord(m[1])
	r.load(flat)
	return r, nil
}

// ParseBareRecord parses raw wire text that has no record code, the
// legacy form some hosts use for body records.
func ParseBareRecord(text string) (*Record, error) {
	flat, err := scanFields(text, text)
	if err != nil {
		return nil, err
	}
	r := NewRecord("")
	r.load(flat)
	return r, nil
}

// NewRecordFromFields builds a record from named fields. The collection
// keys "tickets", "payments" and "reserved_seats" take a list of named
// sub-records and are routed to the matching group.
func NewRecordFromFields(code string, named map[string]any) (*Record, error) {
	if code == "" && len(named) > 0 {
		return nil, &MissingRecordCodeError{Fields: sortedKeys(named)}
	}

	r := NewRecord(code)
	for _, g := range r.groups() {
		value, ok := named[g.Name()]
		if !ok {
			continue
		}
		if !g.supported() {
			return nil, &UnknownFieldError{RecordCode: code, Field: g.Name()}
		}
		items, err := toItems(value)
		if err != nil {
			return nil, &FieldValueError{RecordCode: code, Field: g.Name(), Value: value, Err: err}
		}
		for _, item := range items {
			if err := g.Add(item); err != nil {
				return nil, err
			}
		}
	}

	for _, name := range sortedKeys(named) {
		if isGroupName(name) {
			continue
		}
		if err := r.Set(name, named[name]); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewRecordFromData builds a record from integer-keyed values. Keys that
// fall in a group range of the record code are decoded into the group.
func NewRecordFromData(code string, data map[int]any) (*Record, error) {
	table := schema.Record(code)
	flat := make(map[int]string, len(data))
	for key, value := range data {
		if value == nil {
			continue
		}
		field := table.Lookup(key)
		text, err := field.Kind.Format(value)
		if err != nil {
			return nil, &FieldValueError{RecordCode: code, Field: field.Name, Value: value, Err: err}
		}
		flat[key] = text
	}
	r := NewRecord(code)
	r.load(flat)
	return r, nil
}

// load splits a flat key space between the groups the record code carries
// and the scalar fields.
func (r *Record) load(flat map[int]string) {
	for _, g := range r.groups() {
		if !g.supported() {
			continue
		}
		claimed := make(map[int]string)
		for key, text := range flat {
			if g.spec.claims(key) {
				claimed[key] = text
				delete(flat, key)
			}
		}
		g.decode(claimed)
	}
	for key, text := range flat {
		r.fields[key] = text
	}
}

// Code returns the record code, empty for bare records.
func (r *Record) Code() string { return r.code }

// Set assigns a named scalar field. A nil value removes the field.
func (r *Record) Set(name string, value any) error {
	field, ok := r.table.Reverse(name)
	if !ok {
		return &UnknownFieldError{RecordCode: r.code, Field: name}
	}
	return r.set(field, value)
}

// SetField assigns a scalar field by integer code. Codes the schema does
// not catalogue are stored as text. Keys inside a group range are
// rejected; use the group's Add instead.
func (r *Record) SetField(code int, value any) error {
	for _, g := range r.groups() {
		if g.supported() && g.spec.claims(code) {
			return fmt.Errorf("field %d of record code %q belongs to %s", code, r.code, g.Name())
		}
	}
	return r.set(r.table.Lookup(code), value)
}

func (r *Record) set(field schema.Field, value any) error {
	if value == nil {
		delete(r.fields, field.Code)
		return nil
	}
	text, err := field.Kind.Format(value)
	if err != nil {
		return &FieldValueError{RecordCode: r.code, Field: field.Name, Value: value, Err: err}
	}
	r.fields[field.Code] = text
	return nil
}

// Get returns the typed value of a named scalar field.
func (r *Record) Get(name string) (any, bool) {
	field, ok := r.table.Reverse(name)
	if !ok {
		return nil, false
	}
	text, ok := r.scalars()[field.Code]
	if !ok {
		return nil, false
	}
	return typed(field, text), true
}

// Field returns the wire text of a scalar field.
func (r *Record) Field(code int) (string, bool) {
	text, ok := r.scalars()[code]
	return text, ok
}

// Tickets returns the ticket group.
func (r *Record) Tickets() Tickets { return Tickets{r.tickets} }

// Payments returns the payment group.
func (r *Record) Payments() Payments { return Payments{r.payments} }

// Seats returns the reserved seat group.
func (r *Record) Seats() *Group { return r.seats }

func (r *Record) groups() []*Group {
	return []*Group{r.tickets, r.payments, r.seats}
}

// aggregate is a scalar field that request records derive from a group.
type aggregate struct {
	field   string
	compute func(r *Record) string
}

// aggregates are recomputed whenever a request record is serialized.
// Response records carry the host's totals verbatim.
var aggregates = map[string][]aggregate{
	"q30": {
		{"total_ticket_prices", func(r *Record) string { return schema.FormatFloat(r.Tickets().TotalTicketPrices()) }},
		{"total_ticket_fees", func(r *Record) string { return schema.FormatFloat(r.Tickets().TotalTicketFees()) }},
		{"total_transaction_price", func(r *Record) string { return schema.FormatFloat(r.Tickets().Total()) }},
		{"ticket_count", func(r *Record) string { return strconv.Itoa(r.tickets.Len()) }},
	},
	"q31": {
		{"total_amount_paid", func(r *Record) string { return schema.FormatFloat(r.Payments().TotalAmountPaid()) }},
		{"payment_count", func(r *Record) string { return strconv.Itoa(r.payments.Len()) }},
	},
}

// scalars returns the scalar fields with aggregates applied.
func (r *Record) scalars() map[int]string {
	out := make(map[int]string, len(r.fields)+4)
	for key, text := range r.fields {
		out[key] = text
	}
	for _, agg := range aggregates[r.code] {
		field, ok := r.table.Reverse(agg.field)
		if !ok {
			continue
		}
		out[field.Code] = agg.compute(r)
	}
	return out
}

// flat merges scalar fields and encoded groups into one key space.
func (r *Record) flat() map[int]string {
	out := r.scalars()
	for _, g := range r.groups() {
		for key, text := range g.Encode() {
			out[key] = text
		}
	}
	return out
}

// Content serializes the record as {code}{key}value... with keys in
// ascending order.
func (r *Record) Content() string {
	flat := r.flat()
	keys := make([]int, 0, len(flat))
	for key := range flat {
		keys = append(keys, key)
	}
	sort.Ints(keys)

	var b strings.Builder
	if r.code != "" {
		b.WriteString("{" + r.code + "}")
	}
	for _, key := range keys {
		b.WriteByte('{')
		b.WriteString(strconv.Itoa(key))
		b.WriteByte('}')
		b.WriteString(flat[key])
	}
	return b.String()
}

func (r *Record) String() string { return r.Content() }

// Data returns the flat integer-keyed view with schema-typed values.
// Group fields stay flat, as on the wire.
func (r *Record) Data() map[int]any {
	out := make(map[int]any)
	for key, text := range r.scalars() {
		out[key] = typed(r.table.Lookup(key), text)
	}
	for _, g := range r.groups() {
		for key, value := range g.Data() {
			out[key] = value
		}
	}
	return out
}

// FriendlyData returns scalar fields by name, plus each non-empty group
// as a list of named sub-mappings under its collection name.
func (r *Record) FriendlyData() map[string]any {
	out := make(map[string]any)
	for key, text := range r.scalars() {
		field := r.table.Lookup(key)
		out[field.Name] = typed(field, text)
	}
	for _, g := range r.groups() {
		if g.Len() > 0 {
			out[g.Name()] = g.FriendlyData()
		}
	}
	return out
}

// MarshalJSON encodes the named view.
func (r *Record) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.FriendlyData())
}

// scanFields collects the {key}value tokens of body into a flat map. The
// last occurrence of a key wins.
func scanFields(text, body string) (map[int]string, error) {
	flat := make(map[int]string)
	for _, m := range fieldToken.FindAllStringSubmatch(body, -1) {
		key, err := strconv.Atoi(m[1])
		if err != nil {
			return nil, &MalformedRecordError{Text: text, Reason: fmt.Sprintf("field key %s out of range", m[1])}
		}
		flat[key] = m[2]
	}
	return flat, nil
}

func isGroupName(name string) bool {
	for _, spec := range groupSpecs {
		if spec.Name == name {
			return true
		}
	}
	return false
}

// toItems accepts the shapes a list of named sub-records arrives in from
// Go callers and from decoded JSON.
func toItems(value any) ([]map[string]any, error) {
	switch v := value.(type) {
	case []map[string]any:
		return v, nil
	case []any:
		items := make([]map[string]any, 0, len(v))
		for i, elem := range v {
			item, ok := elem.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("element %d is %T, want an object", i, elem)
			}
			items = append(items, item)
		}
		return items, nil
	}
	return nil, fmt.Errorf("got %T, want a list of objects", value)
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

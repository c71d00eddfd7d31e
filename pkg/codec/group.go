package codec

import (
	"sort"

	"github.com/ssargent/vifgate/pkg/schema"
)

// GroupSpec describes how one kind of repeated group is flattened into a
// record's integer key space. Element N (1-based) occupies the keys
// [Seed + N*Multiplier, Seed + (N+1)*Multiplier), with the sub-field code
// as the offset inside that range.
type GroupSpec struct {
	Name       string
	Seed       int
	Multiplier int
	// Min and Max are exclusive bounds on the keys the group claims when a
	// record is decoded. Max 0 leaves the range open.
	Min, Max int
	table    func(recordCode string) *schema.Table
}

var (
	ticketSpec = &GroupSpec{
		Name:       "tickets",
		Seed:       100000,
		Multiplier: 100,
		Min:        100100,
		table:      schema.Tickets,
	}
	paymentSpec = &GroupSpec{
		Name:       "payments",
		Seed:       1000,
		Multiplier: 100,
		Min:        1100,
		Max:        2000,
		table:      schema.Payments,
	}
	seatSpec = &GroupSpec{
		Name:       "reserved_seats",
		Seed:       1000,
		Multiplier: 1,
		Min:        1000,
		Max:        1100,
		table:      schema.Seats,
	}
)

// groupSpecs lists the group kinds in the order they are decoded. The key
// ranges do not overlap for any record code.
var groupSpecs = []*GroupSpec{ticketSpec, paymentSpec, seatSpec}

func (s *GroupSpec) claims(key int) bool {
	return key > s.Min && (s.Max == 0 || key < s.Max)
}

// Capacity is the number of elements that fit below Max, or 0 when the
// range is open.
func (s *GroupSpec) Capacity() int {
	if s.Max == 0 {
		return 0
	}
	return (s.Max-s.Seed)/s.Multiplier - 1
}

func (s *GroupSpec) key(index, field int) int {
	return s.Seed + index*s.Multiplier + field
}

// Group is an ordered sequence of homogeneous sub-records. Values are
// kept as wire text, keyed by sub-field code.
type Group struct {
	spec       *GroupSpec
	recordCode string
	table      *schema.Table
	items      []map[int]string
}

func newGroup(spec *GroupSpec, recordCode string) *Group {
	return &Group{
		spec:       spec,
		recordCode: recordCode,
		table:      spec.table(recordCode),
	}
}

// Name returns the collection name of the group, e.g. "tickets".
func (g *Group) Name() string { return g.spec.Name }

// Spec returns the flattening parameters of the group.
func (g *Group) Spec() GroupSpec { return *g.spec }

// Len returns the number of elements.
func (g *Group) Len() int { return len(g.items) }

// supported reports whether the parent record code carries this group.
func (g *Group) supported() bool { return g.table != nil }

// decode partitions flat keys into elements by index and sub-field, and
// appends the elements in ascending index order.
func (g *Group) decode(flat map[int]string) {
	buckets := make(map[int]map[int]string)
	for key, text := range flat {
		offset := key - g.spec.Seed
		index := offset / g.spec.Multiplier
		field := offset % g.spec.Multiplier
		if buckets[index] == nil {
			buckets[index] = make(map[int]string)
		}
		buckets[index][field] = text
	}

	indexes := make([]int, 0, len(buckets))
	for index := range buckets {
		indexes = append(indexes, index)
	}
	sort.Ints(indexes)
	for _, index := range indexes {
		g.items = append(g.items, buckets[index])
	}
}

// Add appends one element built from named sub-fields. Nil values are
// skipped. A group at capacity returns *GroupFullError.
func (g *Group) Add(named map[string]any) error {
	if limit := g.spec.Capacity(); limit > 0 && len(g.items) >= limit {
		return &GroupFullError{RecordCode: g.recordCode, Group: g.spec.Name, Capacity: limit}
	}
	names := make([]string, 0, len(named))
	for name := range named {
		names = append(names, name)
	}
	sort.Strings(names)

	item := make(map[int]string, len(named))
	for _, name := range names {
		field, ok := g.table.Reverse(name)
		if !ok {
			return &UnknownFieldError{RecordCode: g.recordCode, Field: g.spec.Name + "." + name}
		}
		value := named[name]
		if value == nil {
			continue
		}
		text, err := field.Kind.Format(value)
		if err != nil {
			return &FieldValueError{RecordCode: g.recordCode, Field: g.spec.Name + "." + name, Value: value, Err: err}
		}
		item[field.Code] = text
	}
	g.items = append(g.items, item)
	return nil
}

// Encode flattens the group into wire text keyed by parent record key.
// Fields declared OmitEmpty are left out when empty or zero.
func (g *Group) Encode() map[int]string {
	out := make(map[int]string)
	for i, item := range g.items {
		for code, text := range item {
			field := g.table.Lookup(code)
			if field.OmitEmpty && field.Kind.IsEmpty(text) {
				continue
			}
			out[g.spec.key(i+1, code)] = text
		}
	}
	return out
}

// Data is Encode with values converted to their schema kinds.
func (g *Group) Data() map[int]any {
	out := make(map[int]any)
	for i, item := range g.items {
		for code, text := range item {
			field := g.table.Lookup(code)
			if field.OmitEmpty && field.Kind.IsEmpty(text) {
				continue
			}
			out[g.spec.key(i+1, code)] = typed(field, text)
		}
	}
	return out
}

// FriendlyData returns the elements as named sub-mappings.
func (g *Group) FriendlyData() []map[string]any {
	out := make([]map[string]any, 0, len(g.items))
	for _, item := range g.items {
		named := make(map[string]any, len(item))
		for code, text := range item {
			field := g.table.Lookup(code)
			named[field.Name] = typed(field, text)
		}
		out = append(out, named)
	}
	return out
}

// Sum adds up a numeric sub-field across all elements. Missing or
// unparsable values count as zero.
func (g *Group) Sum(name string) float64 {
	field, ok := g.table.Reverse(name)
	if !ok {
		return 0
	}
	var total float64
	for _, item := range g.items {
		v, err := schema.Float.Parse(item[field.Code])
		if err != nil {
			continue
		}
		total += v.(float64)
	}
	return total
}

// Tickets is the ticket group of a q30, p30, p31 or p32 record.
type Tickets struct{ *Group }

// NewTickets returns an empty ticket group for a record code.
func NewTickets(recordCode string) Tickets {
	return Tickets{newGroup(ticketSpec, recordCode)}
}

// AddTicket appends a ticket given by named fields.
func (t Tickets) AddTicket(named map[string]any) error { return t.Add(named) }

// TotalTicketPrices sums ticket_price, excluding fees.
func (t Tickets) TotalTicketPrices() float64 { return t.Sum("ticket_price") }

// TotalTicketFees sums ticket_service_fee.
func (t Tickets) TotalTicketFees() float64 { return t.Sum("ticket_service_fee") }

// Total is prices plus fees.
func (t Tickets) Total() float64 { return t.TotalTicketPrices() + t.TotalTicketFees() }

// Payments is the payment group of a q31 record.
type Payments struct{ *Group }

// payment_category 14 is a micropayment settled by an external provider.
const micropaymentCategory = 14

// NewPayments returns an empty payment group for a record code.
func NewPayments(recordCode string) Payments {
	return Payments{newGroup(paymentSpec, recordCode)}
}

// AddPayment appends a payment given by named fields.
func (p Payments) AddPayment(named map[string]any) error { return p.Add(named) }

// AddStripePayment records a Stripe micropayment.
func (p Payments) AddStripePayment(amount float64, transactionID string) error {
	return p.addProviderPayment("Stripe", amount, transactionID)
}

// AddPayPalPayment records a PayPal micropayment.
func (p Payments) AddPayPalPayment(amount float64, transactionID string) error {
	return p.addProviderPayment("PayPal", amount, transactionID)
}

func (p Payments) addProviderPayment(provider string, amount float64, transactionID string) error {
	payment := map[string]any{
		"payment_category": micropaymentCategory,
		"payment_provider": provider,
		"amount_paid":      amount,
	}
	if transactionID != "" {
		payment["transaction_id"] = transactionID
	}
	return p.Add(payment)
}

// TotalAmountPaid sums amount_paid.
func (p Payments) TotalAmountPaid() float64 { return p.Sum("amount_paid") }

// NewSeats returns an empty reserved seat group for a record code.
func NewSeats(recordCode string) *Group {
	return newGroup(seatSpec, recordCode)
}

// typed converts wire text to the field kind, falling back to the raw text
// when it does not parse.
func typed(field schema.Field, text string) any {
	v, err := field.Kind.Parse(text)
	if err != nil {
		return text
	}
	return v
}

package schema

import "sort"

// Group element tables. Ticket prices sit in sub-field 2 of a q30 ticket
// but sub-field 3 of a p30 ticket.
var (
	q30TicketTable = newTable("q30.tickets",
		omitEmpty(strField(1, "ticket_code")),
		omitEmpty(floatField(2, "ticket_price")),
		omitEmpty(floatField(3, "ticket_service_fee")),
		omitEmpty(strField(4, "seat_name")),
		strField(5, "barcode"),
		boolField(6, "converted_rainout_voucher"),
	)

	p30TicketTable = newTable("p30.tickets",
		strField(1, "ticket_code"),
		strField(2, "companion_voucher_code"),
		floatField(3, "ticket_price"),
		intField(4, "sale_category"),
		strField(5, "seat_name"),
		strField(6, "ticket_name"),
		intField(7, "ticket_number"),
		floatField(8, "ticket_service_fee"),
		floatField(9, "ticket_surcharge"),
		strField(10, "ticket_barcode"),
		strField(11, "voucher_barcode"),
		boolField(12, "converted_from_voucher"),
		boolField(13, "inserted_record"),
	)

	q31PaymentTable = newTable("q31.payments",
		intField(1, "payment_category"),
		strField(2, "payment_provider"),
		floatField(3, "amount_paid"),
		strField(4, "card_number"),
		strField(5, "cvv_number"),
		strField(6, "cardholder_name"),
		strField(7, "card_type_name"),
		strField(8, "expiry"),
		strField(9, "transaction_id"),
		strField(10, "authorisation_number"),
		intField(11, "card_type"),
		strField(12, "eft_response"),
		intField(13, "lane_number"),
		strField(14, "device_id"),
		strField(15, "settlement_date"),
		strField(16, "voucher_id"),
	)

	seatTable = newTable("seats",
		strField(0, "seat_name"),
	)
)

var (
	tickets = map[string]*Table{
		"q30": q30TicketTable,
		"p30": p30TicketTable,
		"p31": p30TicketTable,
		"p32": p30TicketTable,
	}
	payments = map[string]*Table{
		"q31": q31PaymentTable,
	}
	seats = map[string]*Table{
		"p30": seatTable,
		"p31": seatTable,
	}
)

// Record returns the table for a record code, or nil if the code is not
// catalogued.
func Record(code string) *Table {
	return records[code]
}

// Known reports whether the record code has a table.
func Known(code string) bool {
	_, ok := records[code]
	return ok
}

// RecordCodes lists the catalogued record codes in sorted order.
func RecordCodes() []string {
	codes := make([]string, 0, len(records))
	for code := range records {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}

// Lookup resolves an integer field code for a record code. Codes the
// registry does not know resolve to a placeholder so that inbound data
// from the host never fails to map.
func Lookup(recordCode string, code int) Field {
	return Record(recordCode).Lookup(code)
}

// ReverseLookup resolves a field name for a record code.
func ReverseLookup(recordCode, name string) (Field, bool) {
	return Record(recordCode).Reverse(name)
}

// Tickets returns the ticket element table for a record code.
func Tickets(recordCode string) *Table { return tickets[recordCode] }

// Payments returns the payment element table for a record code.
func Payments(recordCode string) *Table { return payments[recordCode] }

// Seats returns the reserved seat element table for a record code.
func Seats(recordCode string) *Table { return seats[recordCode] }

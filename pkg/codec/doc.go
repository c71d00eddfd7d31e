// Package codec parses and serializes VIF, the flat text protocol spoken by
// venue back-office hosts.
//
// # Record Format
//
// A record is a three character record code followed by fields keyed by
// positive decimal integers:
//
//	{q30}{1}3{3}52117{10}15{11}3{13}18{100001}3
//
// Values run to the next '{' or the end of the record. There is no escaping,
// so a value cannot contain a literal brace. The meaning and type of each
// key is defined per record code by package schema. Keys the schema does
// not catalogue are kept as text under an UNKNOWN_<key> name so that
// responses from newer hosts still decode.
//
// # Repeated Groups
//
// Tickets, payments and reserved seats are flattened into the record's
// key space. Element N of a group with seed S and multiplier M occupies
// keys [S+N*M, S+(N+1)*M), the offset being the sub-field code:
//
//	tickets         seed 100000, multiplier 100  (q30, p30, p31, p32)
//	payments        seed 1000,   multiplier 100  (q31)
//	reserved_seats  seed 1000,   multiplier 1    (p30, p31)
//
// A record parsed from text splits these ranges out into groups, and
// Content merges them back in ascending key order. q30 and q31 records
// recompute their totals and counts from the groups every time they are
// serialized; response records keep the host's values.
//
// # Message Format
//
// A message is a vrq or vrp header, the separator '!', and body records
// one per line, terminated on the wire by ETX (0x03):
//
//	{vrp}{1}BARKER{2}6000!{hdr}{1}E:\Ven\bin\VIFGateway.exe{4}2
//	{ins}{2}Mt Barker Cinemas{4}BARKER
//
// Lines starting with ';' are comments. A '!' only separates header from
// body when it follows a vrq or vrp header and is followed by a record, a
// comment, a line break or the end of the text; anywhere else it is data.
//
// # Usage
//
//	rec, err := codec.NewRecordFromFields("q32", map[string]any{"key": 1234})
//	if err != nil {
//	    return err
//	}
//	msg, err := codec.NewRequest(32, map[string]any{"site_name": "BARKER"})
//	if err != nil {
//	    return err
//	}
//	_ = msg.AddBodyRecord(rec)
//	wire := msg.Frame()
//
// # Thread Safety
//
// Records and messages are not safe for concurrent mutation. Parsed
// messages are read-only and may be shared once parsing returns.
package codec

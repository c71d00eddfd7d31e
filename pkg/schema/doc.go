// Package schema holds the static VIF field tables.
//
// Every record code exchanged with the box-office host (vrq, vrp, q30,
// p30, ssn, mov, ...) has a Table mapping its positional integer field
// codes to a name and a scalar Kind. Repeated groups carried inside a
// record (tickets, payments, reserved seats) have their own element
// tables, looked up by the parent record code.
//
// Tables are built once at package initialisation and are read-only
// afterwards, so they can be shared freely between goroutines.
//
// Forward lookups never fail: a code missing from a table resolves to a
// placeholder named UNKNOWN_<code> of kind String, because the host may
// send fields that are not catalogued yet. Reverse lookups by name report
// a miss, since outbound data must only use known fields.
package schema

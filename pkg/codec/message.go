package codec

import (
	"encoding/json"
	"fmt"
	"math/rand"
	"strings"
)

const (
	// Terminator ends every message on the wire (ASCII ETX).
	Terminator byte = 0x03
	// Separator divides the header record from the body records.
	Separator = '!'
	// CommentPrefix starts a body line the host adds for readability.
	CommentPrefix = ';'

	// RequestHeader and ResponseHeader are the header record codes.
	RequestHeader  = "vrq"
	ResponseHeader = "vrp"

	// UncodedKey groups body records parsed without a record code in the
	// Data and FriendlyData views.
	UncodedKey = "uncoded"

	packetIDLength   = 4
	packetIDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
)

// Message is one header record followed by zero or more body records.
// A message parsed from wire text is sealed and rejects further body
// records.
type Message struct {
	header *Record
	body   []*Record
	sealed bool
}

// NewMessage wraps a header record.
func NewMessage(header *Record) *Message {
	return &Message{header: header}
}

// NewRequest builds a message with a vrq header for requestCode. The
// header fields are given by name; a packet_id is generated when absent.
func NewRequest(requestCode int, fields map[string]any) (*Message, error) {
	named := make(map[string]any, len(fields)+2)
	for k, v := range fields {
		named[k] = v
	}
	named["request_code"] = requestCode
	if id, _ := named["packet_id"].(string); id == "" {
		named["packet_id"] = NewPacketID()
	}

	header, err := NewRecordFromFields(RequestHeader, named)
	if err != nil {
		return nil, err
	}
	return NewMessage(header), nil
}

// NewPacketID returns a short random token that correlates a request with
// its response. It is not a security token.
func NewPacketID() string {
	b := make([]byte, packetIDLength)
	for i := range b {
		b[i] = packetIDAlphabet[rand.Intn(len(packetIDAlphabet))]
	}
	return string(b)
}

// ParseMessage parses one message of wire text. A trailing terminator is
// ignored. Only vrq and vrp headers carry a body; any other record code
// makes the whole text a single record, literal '!' included.
func ParseMessage(text string) (*Message, error) {
	text = strings.TrimRight(text, string(Terminator))
	m := codeToken.FindStringSubmatch(text)
	if m == nil {
		return nil, &MalformedRecordError{Text: text, Reason: "missing leading record code"}
	}

	headerText, bodyText := text, ""
	if m[1] == RequestHeader || m[1] == ResponseHeader {
		if i := separatorIndex(text); i >= 0 {
			headerText, bodyText = text[:i], text[i+1:]
		}
	}

	header, err := ParseRecord(strings.TrimRight(headerText, "\r\n"))
	if err != nil {
		return nil, err
	}
	msg := &Message{header: header}
	if err := msg.parseBody(bodyText); err != nil {
		return nil, err
	}
	msg.sealed = true
	return msg, nil
}

// separatorIndex finds the '!' that ends the header. A '!' inside a field
// value is data unless it is followed by a record, a comment, a line break
// or the end of the text.
func separatorIndex(text string) int {
	for i := 0; i < len(text); i++ {
		if text[i] != Separator {
			continue
		}
		if i+1 == len(text) {
			return i
		}
		switch text[i+1] {
		case '{', CommentPrefix, '\r', '\n':
			return i
		}
	}
	return -1
}

func (m *Message) parseBody(text string) error {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimRight(line, "\r")
		// Comment lines and blank lines are skipped along with any other
		// line that does not open a record.
		if line == "" || line[0] != '{' {
			continue
		}
		var (
			r   *Record
			err error
		)
		if codeToken.MatchString(line) {
			r, err = ParseRecord(line)
		} else {
			r, err = ParseBareRecord(line)
		}
		if err != nil {
			return err
		}
		if r.Code() == "" && len(r.fields) == 0 {
			continue
		}
		m.body = append(m.body, r)
	}
	return nil
}

// Header returns the header record.
func (m *Message) Header() *Record { return m.header }

// Body returns the body records in order.
func (m *Message) Body() []*Record {
	out := make([]*Record, len(m.body))
	copy(out, m.body)
	return out
}

// AddBodyRecord appends a body record.
func (m *Message) AddBodyRecord(r *Record) error {
	if m.sealed {
		return ErrMessageSealed
	}
	m.body = append(m.body, r)
	return nil
}

// Records returns the header followed by the body records.
func (m *Message) Records() []*Record {
	return append([]*Record{m.header}, m.body...)
}

// First returns the first record with the given code.
func (m *Message) First(code string) (*Record, bool) {
	for _, r := range m.Records() {
		if r.Code() == code {
			return r, true
		}
	}
	return nil, false
}

// Content serializes the message without the terminator. The separator is
// only written when there is at least one body record.
func (m *Message) Content() string {
	if len(m.body) == 0 {
		return m.header.Content()
	}
	lines := make([]string, len(m.body))
	for i, r := range m.body {
		lines[i] = r.Content()
	}
	return m.header.Content() + string(Separator) + strings.Join(lines, "\n")
}

func (m *Message) String() string { return m.Content() }

// Frame returns the wire bytes: content followed by the terminator.
func (m *Message) Frame() []byte {
	return append([]byte(m.Content()), Terminator)
}

// Data groups the integer-keyed view of every record by record code. A
// code held by one record maps to its map[int]any; a code shared by
// several maps to a []any of them in message order.
func (m *Message) Data() map[string]any {
	return groupByCode(m.Records(), func(r *Record) any { return r.Data() })
}

// FriendlyData groups the named view of every record by record code, with
// the same single-or-list shape as Data.
func (m *Message) FriendlyData() map[string]any {
	return groupByCode(m.Records(), func(r *Record) any { return r.FriendlyData() })
}

// MarshalJSON encodes FriendlyData.
func (m *Message) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.FriendlyData())
}

func groupByCode(records []*Record, view func(*Record) any) map[string]any {
	grouped := make(map[string][]any)
	var order []string
	for _, r := range records {
		code := r.Code()
		if code == "" {
			code = UncodedKey
		}
		if _, seen := grouped[code]; !seen {
			order = append(order, code)
		}
		grouped[code] = append(grouped[code], view(r))
	}

	out := make(map[string]any, len(grouped))
	for _, code := range order {
		views := grouped[code]
		if len(views) == 1 {
			out[code] = views[0]
			continue
		}
		out[code] = views
	}
	return out
}

// PacketID returns the header packet id.
func (m *Message) PacketID() string {
	text, _ := m.header.Field(2)
	return text
}

// RequestCode returns the request code of a vrq header.
func (m *Message) RequestCode() (int, bool) { return m.headerInt("request_code") }

// ResponseCode returns the response code of a vrp header.
func (m *Message) ResponseCode() (int, bool) { return m.headerInt("response_code") }

// ErrorNumber returns the host error number of a vrp header. A missing
// error number reads as zero.
func (m *Message) ErrorNumber() int {
	n, _ := m.headerInt("error_number")
	return n
}

// ResponseText returns the host's response text, usually an error
// description.
func (m *Message) ResponseText() string {
	v, ok := m.header.Get("response_text")
	if !ok {
		return ""
	}
	return fmt.Sprint(v)
}

func (m *Message) headerInt(name string) (int, bool) {
	v, ok := m.header.Get(name)
	if !ok {
		return 0, false
	}
	n, ok := v.(int)
	return n, ok
}

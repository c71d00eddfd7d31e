package api

import (
	"time"

	"github.com/ssargent/vifgate/pkg/journal"
)

// APIResponse represents a standard API response
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
}

// ServerConfig holds configuration for the API server
type ServerConfig struct {
	Bind     string
	Port     int
	APIKey   string
	SiteName string // site the catalog cache and booking events are keyed by
}

// VenueResponse is the envelope data for every venue call.
type VenueResponse struct {
	PacketID string         `json:"packet_id"`
	Cached   bool           `json:"cached,omitempty"`
	Header   map[string]any `json:"header"`
	Body     map[string]any `json:"body"`
}

// HostErrorResponse is returned as data alongside a 502 when the host
// reported an error number.
type HostErrorResponse struct {
	Number   int            `json:"error_number"`
	Text     string         `json:"response_text,omitempty"`
	PacketID string         `json:"packet_id,omitempty"`
	Response *VenueResponse `json:"response,omitempty"`
}

// DecodeRequest is the body of POST /vif/decode when sent as JSON.
type DecodeRequest struct {
	Text string `json:"text"`
}

// JournalEntry is one exchange as listed by GET /journal.
type JournalEntry struct {
	ID          string        `json:"id"`
	PacketID    string        `json:"packet_id"`
	RequestCode int           `json:"request_code"`
	Started     time.Time     `json:"started"`
	Duration    time.Duration `json:"duration_ns"`
	Error       string        `json:"error,omitempty"`
	Request     string        `json:"request,omitempty"`
	Response    string        `json:"response,omitempty"`
}

func journalEntry(e journal.Entry, withText bool) JournalEntry {
	out := JournalEntry{
		ID:          e.ID,
		PacketID:    e.PacketID,
		RequestCode: e.RequestCode,
		Started:     e.Started,
		Duration:    e.Duration,
		Error:       e.Error,
	}
	if withText {
		out.Request = e.Request
		out.Response = e.Response
	}
	return out
}

package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ssargent/vifgate/pkg/codec"
	"github.com/ssargent/vifgate/pkg/events"
	"github.com/ssargent/vifgate/pkg/gateway"
	"github.com/ssargent/vifgate/pkg/journal"
)

const testAPIKey = "test-key"

// fakeVenue answers every operation with a vrp message for the request
// code, or with err when set.
type fakeVenue struct {
	mu    sync.Mutex
	calls []string
	body  map[int]string
	err   error
}

func (v *fakeVenue) answer(code int, call string) (*codec.Message, error) {
	v.mu.Lock()
	v.calls = append(v.calls, call)
	v.mu.Unlock()

	text := fmt.Sprintf("{vrp}{1}BARKER{2}PK%02d{3}%d{4}0!", code, code)
	if body, ok := v.body[code]; ok {
		text += "\n" + body
	}
	msg, err := codec.ParseMessage(text)
	if err != nil {
		return nil, err
	}
	if v.err != nil {
		return msg, v.err
	}
	return msg, nil
}

func (v *fakeVenue) Handshake(context.Context) (*codec.Message, error) {
	return v.answer(gateway.RequestHandshake, "handshake")
}

func (v *fakeVenue) GetData(_ context.Context, detail int) (*codec.Message, error) {
	return v.answer(gateway.RequestGetData, fmt.Sprintf("get_data %d", detail))
}

func (v *fakeVenue) FreeSeats(_ context.Context, session, workstation int) (*codec.Message, error) {
	return v.answer(gateway.RequestFreeSeats, fmt.Sprintf("free_seats %d %d", session, workstation))
}

func (v *fakeVenue) SessionSeats(_ context.Context, session, availability int) (*codec.Message, error) {
	return v.answer(gateway.RequestSessionSeats, fmt.Sprintf("session_seats %d %d", session, availability))
}

func (v *fakeVenue) InitTransaction(_ context.Context, fields map[string]any) (*codec.Message, error) {
	return v.answer(gateway.RequestInitTransaction, fmt.Sprintf("init %v", fields["session_number"]))
}

func (v *fakeVenue) CommitTransaction(_ context.Context, fields map[string]any) (*codec.Message, error) {
	return v.answer(gateway.RequestCommitTransaction, fmt.Sprintf("commit %v", fields["booking_key"]))
}

func (v *fakeVenue) LookupBooking(_ context.Context, key int, useAlternate bool) (*codec.Message, error) {
	return v.answer(gateway.RequestLookupBooking, fmt.Sprintf("lookup %d %t", key, useAlternate))
}

func (v *fakeVenue) VerifyBooking(_ context.Context, alternateKey string) (*codec.Message, error) {
	return v.answer(gateway.RequestVerifyBooking, "verify "+alternateKey)
}

func (v *fakeVenue) Calls() []string {
	v.mu.Lock()
	defer v.mu.Unlock()
	return append([]string(nil), v.calls...)
}

type memoryCache struct {
	entries map[string]string
}

func (c *memoryCache) Fetch(ctx context.Context, site string, detail int, load func(context.Context) (string, error)) (string, bool, error) {
	key := fmt.Sprintf("%s:%d", site, detail)
	if text, ok := c.entries[key]; ok {
		return text, true, nil
	}
	text, err := load(ctx)
	if err != nil {
		return "", false, err
	}
	c.entries[key] = text
	return text, false, nil
}

func (c *memoryCache) Invalidate(_ context.Context, site string, detail int) error {
	delete(c.entries, fmt.Sprintf("%s:%d", site, detail))
	return nil
}

type recordingPublisher struct {
	events []events.BookingCommitted
	err    error
}

func (p *recordingPublisher) PublishBookingCommitted(_ context.Context, ev events.BookingCommitted) error {
	p.events = append(p.events, ev)
	return p.err
}

type fakeJournal struct {
	entries []journal.Entry
}

func (j *fakeJournal) List(limit int) ([]journal.Entry, error) {
	if limit > 0 && limit < len(j.entries) {
		return j.entries[:limit], nil
	}
	return j.entries, nil
}

func (j *fakeJournal) Get(id string) (journal.Entry, error) {
	for _, e := range j.entries {
		if e.ID == id {
			return e, nil
		}
	}
	return journal.Entry{}, journal.ErrNotFound
}

func setupTestServer(t *testing.T, deps Dependencies) http.Handler {
	t.Helper()
	if deps.Venue == nil {
		deps.Venue = &fakeVenue{}
	}
	deps.Metrics = NewMetrics(prometheus.NewRegistry())
	s := NewServer(deps, ServerConfig{APIKey: testAPIKey, SiteName: "BARKER"})
	s.now = func() time.Time { return time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC) }
	return NewRouter(s)
}

type envelope struct {
	Success bool           `json:"success"`
	Data    map[string]any `json:"data"`
	Error   string         `json:"error"`
}

func do(t *testing.T, h http.Handler, method, path string, body []byte, contentType string) (int, envelope) {
	t.Helper()
	var req *http.Request
	if body != nil {
		req = httptest.NewRequest(method, path, bytes.NewReader(body))
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	req.Header.Set("X-API-Key", testAPIKey)
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.NewDecoder(w.Body).Decode(&env), "body of %s %s", method, path)
	return w.Code, env
}

func TestServer_handleHealth(t *testing.T) {
	h := setupTestServer(t, Dependencies{})

	req := httptest.NewRequest("GET", "/api/v1/health", nil)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	code, env := do(t, h, "GET", "/api/v1/health", nil, "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Equal(t, "healthy", env.Data["status"])
}

func TestServer_VenueRoutes(t *testing.T) {
	tests := []struct {
		name     string
		method   string
		path     string
		body     string
		wantCall string
		wantCode int
	}{
		{"handshake", "GET", "/api/v1/venue/handshake", "", "handshake", 1},
		{"get data default detail", "GET", "/api/v1/venue/data", "", "get_data 2", 2},
		{"get data detail", "GET", "/api/v1/venue/data?detail=1", "", "get_data 1", 2},
		{"session seats", "GET", "/api/v1/venue/sessions/42/seats?availability=1", "", "session_seats 42 1", 20},
		{"free seats", "GET", "/api/v1/venue/sessions/42/free-seats?workstation=3", "", "free_seats 42 3", 17},
		{"init transaction", "POST", "/api/v1/venue/transactions",
			`{"session_number": 42, "workstation_id": 3, "tickets": [{"ticket_code": "ADULT", "ticket_price": 15}]}`,
			"init 42", 30},
		{"lookup booking", "GET", "/api/v1/venue/bookings/77?alternate=true", "", "lookup 77 true", 32},
		{"lookup booking by key", "GET", "/api/v1/venue/bookings/77", "", "lookup 77 false", 32},
		{"verify booking", "GET", "/api/v1/venue/bookings/verify/ALT-99", "", "verify ALT-99", 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			venue := &fakeVenue{}
			h := setupTestServer(t, Dependencies{Venue: venue})

			var body []byte
			if tt.body != "" {
				body = []byte(tt.body)
			}
			code, env := do(t, h, tt.method, tt.path, body, "application/json")

			require.Equal(t, http.StatusOK, code, env.Error)
			assert.True(t, env.Success)
			assert.Equal(t, []string{tt.wantCall}, venue.Calls())
			assert.Equal(t, fmt.Sprintf("PK%02d", tt.wantCode), env.Data["packet_id"])
		})
	}
}

func TestServer_BadInput(t *testing.T) {
	tests := []struct {
		name   string
		method string
		path   string
		body   string
	}{
		{"non numeric session", "GET", "/api/v1/venue/sessions/abc/seats", ""},
		{"non numeric detail", "GET", "/api/v1/venue/data?detail=web", ""},
		{"non numeric workstation", "GET", "/api/v1/venue/sessions/4/free-seats?workstation=x", ""},
		{"bad alternate flag", "GET", "/api/v1/venue/bookings/7?alternate=maybe", ""},
		{"bad refresh flag", "GET", "/api/v1/venue/data?refresh=soon", ""},
		{"invalid json", "POST", "/api/v1/venue/transactions", `{"session_number":`},
		{"unknown q30 field", "POST", "/api/v1/venue/transactions", `{"colour": "red"}`},
		{"bad q31 value", "POST", "/api/v1/venue/transactions/commit", `{"total_amount_paid": "lots"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			venue := &fakeVenue{}
			h := setupTestServer(t, Dependencies{Venue: venue})

			var body []byte
			if tt.body != "" {
				body = []byte(tt.body)
			}
			code, env := do(t, h, tt.method, tt.path, body, "application/json")
			assert.Equal(t, http.StatusBadRequest, code)
			assert.False(t, env.Success)
			assert.NotEmpty(t, env.Error)
			assert.Empty(t, venue.Calls(), "nothing reaches the host")
		})
	}
}

func TestServer_GetDataCached(t *testing.T) {
	venue := &fakeVenue{body: map[int]string{gateway.RequestGetData: "{ins}{2}Mt Barker Cinemas"}}
	cache := &memoryCache{entries: map[string]string{}}
	h := setupTestServer(t, Dependencies{Venue: venue, Cache: cache})

	code, env := do(t, h, "GET", "/api/v1/venue/data", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, env.Data["cached"])

	code, env = do(t, h, "GET", "/api/v1/venue/data", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, env.Data["cached"])

	body := env.Data["body"].(map[string]any)
	ins := body["ins"].(map[string]any)
	assert.Equal(t, "Mt Barker Cinemas", ins["name"])

	assert.Equal(t, []string{"get_data 2"}, venue.Calls())
	assert.Contains(t, cache.entries, "BARKER:2")
}

func TestServer_GetDataRefresh(t *testing.T) {
	venue := &fakeVenue{body: map[int]string{gateway.RequestGetData: "{ins}{2}Old Name"}}
	cache := &memoryCache{entries: map[string]string{}}
	h := setupTestServer(t, Dependencies{Venue: venue, Cache: cache})

	code, _ := do(t, h, "GET", "/api/v1/venue/data", nil, "")
	require.Equal(t, http.StatusOK, code)

	venue.body[gateway.RequestGetData] = "{ins}{2}Mt Barker Cinemas"

	code, env := do(t, h, "GET", "/api/v1/venue/data", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, env.Data["cached"])
	ins := env.Data["body"].(map[string]any)["ins"].(map[string]any)
	assert.Equal(t, "Old Name", ins["name"])

	code, env = do(t, h, "GET", "/api/v1/venue/data?refresh=true", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, env.Data["cached"])
	ins = env.Data["body"].(map[string]any)["ins"].(map[string]any)
	assert.Equal(t, "Mt Barker Cinemas", ins["name"])

	assert.Equal(t, []string{"get_data 2", "get_data 2"}, venue.Calls())
}

func TestServer_GetDataHostErrorNotCached(t *testing.T) {
	venue := &fakeVenue{err: &gateway.HostError{RequestCode: 2, Number: 3, Text: "not licensed"}}
	cache := &memoryCache{entries: map[string]string{}}
	h := setupTestServer(t, Dependencies{Venue: venue, Cache: cache})

	code, env := do(t, h, "GET", "/api/v1/venue/data", nil, "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.False(t, env.Success)
	assert.Equal(t, float64(3), env.Data["error_number"])
	assert.Empty(t, cache.entries)
}

func TestServer_CommitPublishesBooking(t *testing.T) {
	venue := &fakeVenue{body: map[int]string{
		gateway.RequestCommitTransaction: "{p31}{1}1{2}50321{3}XK7Q{4}ALT-99",
	}}
	publisher := &recordingPublisher{}
	h := setupTestServer(t, Dependencies{Venue: venue, Publisher: publisher})

	body := `{"booking_key": "BK-778", "workstation_id": 3,
		"payments": [{"payment_category": 5, "payment_provider": "Stripe", "amount_paid": 30}]}`
	code, env := do(t, h, "POST", "/api/v1/venue/transactions/commit", []byte(body), "application/json")
	require.Equal(t, http.StatusOK, code, env.Error)

	require.Len(t, publisher.events, 1)
	assert.Equal(t, events.BookingCommitted{
		Site:              "BARKER",
		PacketID:          "PK31",
		BookingKey:        "BK-778",
		TransactionNumber: 50321,
		Key:               "XK7Q",
		AlternateKey:      "ALT-99",
		AmountPaid:        30,
		CommittedAt:       time.Date(2026, 5, 1, 19, 0, 0, 0, time.UTC),
	}, publisher.events[0])
}

func TestServer_CommitSurvivesPublishFailure(t *testing.T) {
	publisher := &recordingPublisher{err: errors.New("broker down")}
	h := setupTestServer(t, Dependencies{Publisher: publisher})

	code, env := do(t, h, "POST", "/api/v1/venue/transactions/commit", []byte(`{"booking_key": "BK-1"}`), "application/json")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, env.Success)
	assert.Len(t, publisher.events, 1)
}

func TestServer_CommitHostErrorPublishesNothing(t *testing.T) {
	venue := &fakeVenue{err: &gateway.HostError{RequestCode: 31, Number: 40, Text: "card declined"}}
	publisher := &recordingPublisher{}
	h := setupTestServer(t, Dependencies{Venue: venue, Publisher: publisher})

	code, env := do(t, h, "POST", "/api/v1/venue/transactions/commit", []byte(`{"booking_key": "BK-1"}`), "application/json")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, env.Error, "card declined")
	assert.Empty(t, publisher.events)
}

func TestServer_ConnectionError(t *testing.T) {
	venue := &fakeVenue{err: &gateway.ConnectionError{Op: "dial", Addr: "10.0.0.5:4016", Err: errors.New("connection refused")}}
	h := setupTestServer(t, Dependencies{Venue: venue})

	code, env := do(t, h, "GET", "/api/v1/venue/handshake", nil, "")
	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, env.Error, "connection refused")
}

func TestServer_UnreadableHostReply(t *testing.T) {
	// the host answers the handshake with text that is not VIF
	dial := func(ctx context.Context, network, addr string) (net.Conn, error) {
		client, host := net.Pipe()
		go func() {
			defer host.Close()
			if _, err := bufio.NewReader(host).ReadString(codec.Terminator); err != nil {
				return
			}
			_, _ = host.Write([]byte("HOST PANIC\x03"))
		}()
		return client, nil
	}
	metrics := NewMetrics(prometheus.NewRegistry())
	gw := gateway.New(gateway.Config{Host: "venue.example", Port: 4016, Timeout: time.Second, SiteName: "BARKER"},
		gateway.WithDialer(dial), gateway.WithObserver(metrics))

	s := NewServer(Dependencies{Venue: gw, Metrics: metrics}, ServerConfig{APIKey: testAPIKey})
	code, env := do(t, NewRouter(s), "GET", "/api/v1/venue/handshake", nil, "")

	assert.Equal(t, http.StatusBadGateway, code)
	assert.Contains(t, env.Error, "unreadable response")
	assert.Equal(t, 1.0, testutil.ToFloat64(
		metrics.exchangesTotal.WithLabelValues(strconv.Itoa(gateway.RequestHandshake), "response_error")))
}

func TestServer_Decode(t *testing.T) {
	h := setupTestServer(t, Dependencies{})
	text := "{vrp}{1}NRLNGA{2}8edi!\n{p30}{4}Cinema Three{100001}1{100101}BOUNT00{100103}10"

	t.Run("raw text", func(t *testing.T) {
		code, env := do(t, h, "POST", "/api/v1/vif/decode", []byte(text), "text/plain")
		require.Equal(t, http.StatusOK, code, env.Error)
		assert.Equal(t, "8edi", env.Data["packet_id"])

		p30 := env.Data["body"].(map[string]any)["p30"].(map[string]any)
		assert.Equal(t, "Cinema Three", p30["venue_name"])
		tickets := p30["tickets"].([]any)
		require.Len(t, tickets, 1)
		assert.Equal(t, "BOUNT00", tickets[0].(map[string]any)["ticket_code"])
	})

	t.Run("json", func(t *testing.T) {
		payload, err := json.Marshal(DecodeRequest{Text: text})
		require.NoError(t, err)
		code, env := do(t, h, "POST", "/api/v1/vif/decode", payload, "application/json; charset=utf-8")
		require.Equal(t, http.StatusOK, code, env.Error)
		assert.Equal(t, "NRLNGA", env.Data["header"].(map[string]any)["site_name"])
	})

	t.Run("empty", func(t *testing.T) {
		code, _ := do(t, h, "POST", "/api/v1/vif/decode", []byte(""), "text/plain")
		assert.Equal(t, http.StatusBadRequest, code)
	})

	t.Run("malformed", func(t *testing.T) {
		code, env := do(t, h, "POST", "/api/v1/vif/decode", []byte("no braces here"), "text/plain")
		assert.Equal(t, http.StatusBadRequest, code)
		assert.True(t, strings.Contains(env.Error, "malformed"), env.Error)
	})
}

func TestServer_Journal(t *testing.T) {
	started := time.Date(2026, 5, 1, 18, 0, 0, 0, time.UTC)
	j := &fakeJournal{entries: []journal.Entry{
		{ID: "2", PacketID: "BBBB", RequestCode: 2, Started: started, Request: "{vrq}{2}BBBB!", Response: "{vrp}{2}BBBB!"},
		{ID: "1", PacketID: "AAAA", RequestCode: 1, Started: started, Error: "vif gateway dial"},
	}}
	h := setupTestServer(t, Dependencies{Journal: j})

	req := httptest.NewRequest("GET", "/api/v1/journal?limit=1", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var list struct {
		Data []JournalEntry `json:"data"`
	}
	require.NoError(t, json.NewDecoder(w.Body).Decode(&list))
	require.Len(t, list.Data, 1)
	assert.Equal(t, "BBBB", list.Data[0].PacketID)
	assert.Empty(t, list.Data[0].Request, "list omits wire text")

	code, env := do(t, h, "GET", "/api/v1/journal/2", nil, "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "{vrq}{2}BBBB!", env.Data["request"])

	code, _ = do(t, h, "GET", "/api/v1/journal/missing", nil, "")
	assert.Equal(t, http.StatusNotFound, code)
}

func TestServer_JournalDisabled(t *testing.T) {
	h := setupTestServer(t, Dependencies{})

	req := httptest.NewRequest("GET", "/api/v1/journal", nil)
	req.Header.Set("X-API-Key", testAPIKey)
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestStartServer_RequiresVenue(t *testing.T) {
	err := StartServer(context.Background(), Dependencies{}, ServerConfig{Port: 0})
	assert.Error(t, err)
}

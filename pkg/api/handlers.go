package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/ssargent/vifgate/pkg/codec"
	"github.com/ssargent/vifgate/pkg/events"
	"github.com/ssargent/vifgate/pkg/gateway"
	"github.com/ssargent/vifgate/pkg/journal"
)

const (
	maxBodyBytes        = 1 << 20
	defaultJournalLimit = 50
)

// Server holds the API server state
type Server struct {
	venue     Venue
	cache     CatalogCache
	publisher BookingPublisher
	journal   ExchangeJournal
	config    ServerConfig
	metrics   *Metrics
	logger    *zap.Logger
	now       func() time.Time
}

// NewServer creates a new API server
func NewServer(deps Dependencies, config ServerConfig) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	metrics := deps.Metrics
	if metrics == nil {
		metrics = NewMetrics(prometheus.NewRegistry())
	}
	return &Server{
		venue:     deps.Venue,
		cache:     deps.Cache,
		publisher: deps.Publisher,
		journal:   deps.Journal,
		config:    config,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// NewVenueResponse is the named JSON view of msg: body records grouped by
// record code, one record as an object and several as a list.
func NewVenueResponse(msg *codec.Message, cached bool) *VenueResponse {
	body := make(map[string]any)
	for _, r := range msg.Body() {
		code := r.Code()
		if code == "" {
			code = codec.UncodedKey
		}
		switch existing := body[code].(type) {
		case nil:
			body[code] = r.FriendlyData()
		case []any:
			body[code] = append(existing, r.FriendlyData())
		default:
			body[code] = []any{existing, r.FriendlyData()}
		}
	}
	return &VenueResponse{
		PacketID: msg.PacketID(),
		Cached:   cached,
		Header:   msg.Header().FriendlyData(),
		Body:     body,
	}
}

// reply writes the outcome of a venue call.
func (s *Server) reply(w http.ResponseWriter, msg *codec.Message, err error) {
	if err != nil {
		sendVenueError(w, err, msg)
		return
	}
	sendSuccess(w, NewVenueResponse(msg, false))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendSuccess(w, map[string]string{"status": "healthy"})
}

func (s *Server) handleHandshake(w http.ResponseWriter, r *http.Request) {
	msg, err := s.venue.Handshake(r.Context())
	s.reply(w, msg, err)
}

// handleGetData serves the catalog, through the cache when one is set.
// refresh=true drops the cached entry first. Host errors are never cached.
func (s *Server) handleGetData(w http.ResponseWriter, r *http.Request) {
	detail, ok := queryInt(w, r, "detail", gateway.DetailWeb)
	if !ok {
		return
	}
	refresh, ok := queryBool(w, r, "refresh")
	if !ok {
		return
	}

	if s.cache == nil {
		msg, err := s.venue.GetData(r.Context(), detail)
		s.reply(w, msg, err)
		return
	}
	if refresh {
		if err := s.cache.Invalidate(r.Context(), s.config.SiteName, detail); err != nil {
			s.logger.Warn("catalog cache invalidate failed", zap.Int("detail", detail), zap.Error(err))
		}
	}

	var loaded *codec.Message
	text, hit, err := s.cache.Fetch(r.Context(), s.config.SiteName, detail, func(ctx context.Context) (string, error) {
		msg, err := s.venue.GetData(ctx, detail)
		loaded = msg
		if err != nil {
			return "", err
		}
		return msg.Content(), nil
	})
	s.metrics.RecordCacheLookup(hit)
	if err != nil {
		sendVenueError(w, err, loaded)
		return
	}

	msg, err := codec.ParseMessage(text)
	if err != nil {
		sendError(w, "cached catalog is unreadable: "+err.Error(), http.StatusInternalServerError)
		return
	}
	sendSuccess(w, NewVenueResponse(msg, hit))
}

func (s *Server) handleSessionSeats(w http.ResponseWriter, r *http.Request) {
	session, ok := pathInt(w, r, "session")
	if !ok {
		return
	}
	availability, ok := queryInt(w, r, "availability", 0)
	if !ok {
		return
	}
	msg, err := s.venue.SessionSeats(r.Context(), session, availability)
	s.reply(w, msg, err)
}

func (s *Server) handleFreeSeats(w http.ResponseWriter, r *http.Request) {
	session, ok := pathInt(w, r, "session")
	if !ok {
		return
	}
	workstation, ok := queryInt(w, r, "workstation", 0)
	if !ok {
		return
	}
	msg, err := s.venue.FreeSeats(r.Context(), session, workstation)
	s.reply(w, msg, err)
}

// handleInitTransaction takes q30 fields by name, tickets under "tickets".
func (s *Server) handleInitTransaction(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r, "q30")
	if !ok {
		return
	}
	msg, err := s.venue.InitTransaction(r.Context(), fields)
	s.reply(w, msg, err)
}

// handleCommitTransaction takes q31 fields by name, payments under
// "payments". A successful commit is announced to the publisher; a failed
// publish does not fail the request.
func (s *Server) handleCommitTransaction(w http.ResponseWriter, r *http.Request) {
	fields, ok := decodeFields(w, r, "q31")
	if !ok {
		return
	}
	msg, err := s.venue.CommitTransaction(r.Context(), fields)
	if err != nil {
		sendVenueError(w, err, msg)
		return
	}

	if s.publisher != nil {
		q31, _ := codec.NewRecordFromFields("q31", fields)
		ev := events.NewBookingCommitted(s.config.SiteName, q31, msg, s.now())
		perr := s.publisher.PublishBookingCommitted(context.WithoutCancel(r.Context()), ev)
		s.metrics.RecordBookingEvent(perr == nil)
		if perr != nil {
			s.logger.Error("booking event publish failed",
				zap.String("packet_id", ev.PacketID), zap.Error(perr))
		}
	}
	sendSuccess(w, NewVenueResponse(msg, false))
}

func (s *Server) handleLookupBooking(w http.ResponseWriter, r *http.Request) {
	key, ok := pathInt(w, r, "key")
	if !ok {
		return
	}
	alternate, ok := queryBool(w, r, "alternate")
	if !ok {
		return
	}
	msg, err := s.venue.LookupBooking(r.Context(), key, alternate)
	s.reply(w, msg, err)
}

func (s *Server) handleVerifyBooking(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "alternate_key")
	if key == "" {
		sendError(w, "alternate key is required", http.StatusBadRequest)
		return
	}
	msg, err := s.venue.VerifyBooking(r.Context(), key)
	s.reply(w, msg, err)
}

// handleDecode parses raw VIF text into the named JSON view. The body is
// either the text itself or a JSON DecodeRequest.
func (s *Server) handleDecode(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		sendError(w, "Failed to read request body", http.StatusBadRequest)
		return
	}

	text := string(raw)
	if mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type")); mediaType == "application/json" {
		var req DecodeRequest
		if err := json.Unmarshal(raw, &req); err != nil {
			sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
			return
		}
		text = req.Text
	}
	if text == "" {
		sendError(w, "VIF text is required", http.StatusBadRequest)
		return
	}

	msg, err := codec.ParseMessage(text)
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sendSuccess(w, NewVenueResponse(msg, false))
}

func (s *Server) handleJournalList(w http.ResponseWriter, r *http.Request) {
	limit, ok := queryInt(w, r, "limit", defaultJournalLimit)
	if !ok {
		return
	}
	entries, err := s.journal.List(limit)
	if err != nil {
		sendError(w, err.Error(), http.StatusInternalServerError)
		return
	}
	out := make([]JournalEntry, len(entries))
	for i, e := range entries {
		out[i] = journalEntry(e, false)
	}
	sendSuccess(w, out)
}

func (s *Server) handleJournalGet(w http.ResponseWriter, r *http.Request) {
	entry, err := s.journal.Get(chi.URLParam(r, "id"))
	if errors.Is(err, journal.ErrNotFound) {
		sendError(w, err.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return
	}
	sendSuccess(w, journalEntry(entry, true))
}

// decodeFields reads a JSON object of named fields and checks it builds a
// valid recordCode record before anything is sent to the host.
func decodeFields(w http.ResponseWriter, r *http.Request, recordCode string) (map[string]any, bool) {
	var fields map[string]any
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&fields); err != nil {
		sendError(w, "Invalid JSON in request body", http.StatusBadRequest)
		return nil, false
	}
	if _, err := codec.NewRecordFromFields(recordCode, fields); err != nil {
		sendError(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return fields, true
}

func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	n, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil {
		sendError(w, name+" must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func queryInt(w http.ResponseWriter, r *http.Request, name string, def int) (int, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def, true
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		sendError(w, name+" must be an integer", http.StatusBadRequest)
		return 0, false
	}
	return n, true
}

func queryBool(w http.ResponseWriter, r *http.Request, name string) (bool, bool) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return false, true
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		sendError(w, name+" must be a boolean", http.StatusBadRequest)
		return false, false
	}
	return b, true
}

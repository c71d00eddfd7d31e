// Package journal keeps a durable log of gateway exchanges in pebble.
// Entries are CBOR-encoded under ksuid keys, so key order is time order.
package journal

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/cockroachdb/pebble"
	"github.com/fxamacker/cbor/v2"
	"github.com/segmentio/ksuid"
	"go.uber.org/zap"

	"github.com/ssargent/vifgate/pkg/gateway"
)

// ErrNotFound is returned by Get for an unknown id.
var ErrNotFound = errors.New("journal entry not found")

// Entry is one recorded exchange.
type Entry struct {
	ID          string        `cbor:"-" json:"id"`
	Addr        string        `cbor:"addr" json:"addr"`
	PacketID    string        `cbor:"packet_id" json:"packet_id"`
	RequestCode int           `cbor:"request_code" json:"request_code"`
	Request     string        `cbor:"request" json:"request"`
	Response    string        `cbor:"response,omitempty" json:"response,omitempty"`
	Started     time.Time     `cbor:"started" json:"started"`
	Duration    time.Duration `cbor:"duration" json:"duration"`
	Error       string        `cbor:"error,omitempty" json:"error,omitempty"`
}

var (
	encMode cbor.EncMode
	decMode cbor.DecMode
)

func init() {
	var err error

	encOptions := cbor.CoreDetEncOptions()
	encOptions.Time = cbor.TimeRFC3339Nano
	encMode, err = encOptions.EncMode()
	if err != nil {
		panic("journal: CBOR encoder initialization failed: " + err.Error())
	}

	decMode, err = cbor.DecOptions{}.DecMode()
	if err != nil {
		panic("journal: CBOR decoder initialization failed: " + err.Error())
	}
}

// Journal stores exchanges. It is safe for concurrent use.
type Journal struct {
	db     *pebble.DB
	logger *zap.Logger

	mu   sync.Mutex
	last ksuid.KSUID
}

// Open opens or creates a journal in dir.
func Open(dir string, logger *zap.Logger) (*Journal, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	db, err := pebble.Open(dir, &pebble.Options{})
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}

	j := &Journal{db: db, logger: logger}
	if err := j.loadLast(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return j, nil
}

func (j *Journal) loadLast() error {
	iter, err := j.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return err
	}
	defer iter.Close()

	if iter.Last() {
		id, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			return fmt.Errorf("corrupt journal key: %w", err)
		}
		j.last = id
	}
	return iter.Error()
}

// nextID returns an id strictly greater than every id handed out before,
// so exchanges finishing within the same second still sort in order.
func (j *Journal) nextID(at time.Time) (ksuid.KSUID, error) {
	id, err := ksuid.NewRandomWithTime(at)
	if err != nil {
		return ksuid.Nil, err
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	if ksuid.Compare(id, j.last) <= 0 {
		id = j.last.Next()
	}
	j.last = id
	return id, nil
}

// Record stores ex and returns the stored entry.
func (j *Journal) Record(ctx context.Context, ex gateway.Exchange) (Entry, error) {
	if err := ctx.Err(); err != nil {
		return Entry{}, err
	}

	started := ex.Started
	if started.IsZero() {
		started = time.Now()
	}
	entry := Entry{
		Addr:        ex.Addr,
		PacketID:    ex.PacketID,
		RequestCode: ex.RequestCode,
		Request:     ex.Request,
		Response:    ex.Response,
		Started:     started,
		Duration:    ex.Duration,
	}
	if ex.Err != nil {
		entry.Error = ex.Err.Error()
	}

	id, err := j.nextID(started)
	if err != nil {
		return Entry{}, err
	}
	entry.ID = id.String()

	data, err := encMode.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("failed to encode journal entry: %w", err)
	}
	if err := j.db.Set(id.Bytes(), data, pebble.NoSync); err != nil {
		return Entry{}, fmt.Errorf("failed to write journal entry: %w", err)
	}
	return entry, nil
}

// ObserveExchange records ex, logging failures. It lets a Journal be
// passed to gateway.WithObserver.
func (j *Journal) ObserveExchange(ctx context.Context, ex gateway.Exchange) {
	if _, err := j.Record(context.WithoutCancel(ctx), ex); err != nil {
		j.logger.Error("journal write failed", zap.String("packet_id", ex.PacketID), zap.Error(err))
	}
}

// Get returns the entry with the given id.
func (j *Journal) Get(id string) (Entry, error) {
	key, err := ksuid.Parse(id)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid journal id %q: %w", id, err)
	}

	data, closer, err := j.db.Get(key.Bytes())
	if errors.Is(err, pebble.ErrNotFound) {
		return Entry{}, ErrNotFound
	}
	if err != nil {
		return Entry{}, err
	}
	defer closer.Close()

	return decode(key, data)
}

// List returns up to limit entries, newest first. A limit <= 0 returns
// every entry.
func (j *Journal) List(limit int) ([]Entry, error) {
	iter, err := j.db.NewIter(&pebble.IterOptions{})
	if err != nil {
		return nil, err
	}
	defer iter.Close()

	var entries []Entry
	for valid := iter.Last(); valid; valid = iter.Prev() {
		if limit > 0 && len(entries) >= limit {
			break
		}
		key, err := ksuid.FromBytes(iter.Key())
		if err != nil {
			return nil, fmt.Errorf("corrupt journal key: %w", err)
		}
		entry, err := decode(key, iter.Value())
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, iter.Error()
}

// Close flushes and closes the underlying store.
func (j *Journal) Close() error {
	if err := j.db.Flush(); err != nil {
		_ = j.db.Close()
		return err
	}
	return j.db.Close()
}

func decode(key ksuid.KSUID, data []byte) (Entry, error) {
	var entry Entry
	if err := decMode.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("failed to decode journal entry %s: %w", key, err)
	}
	entry.ID = key.String()
	return entry, nil
}

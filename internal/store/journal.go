package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/gstoney/mcserver/internal/logging"
)

type record struct {
	key    uint64
	join   bool
	player uuid.UUID
	name   string
	remote string
	at     time.Time
	reason string
}

// Journal writes session records on its own goroutine so callers on a tick
// loop never wait for the disk. Records are keyed by the caller's
// connection id.
type Journal struct {
	store *Store
	ch    chan record
	open  map[uint64]int64
	log   zerolog.Logger
}

func NewJournal(s *Store, queue int) *Journal {
	if queue <= 0 {
		queue = 256
	}
	return &Journal{
		store: s,
		ch:    make(chan record, queue),
		open:  make(map[uint64]int64),
		log:   logging.Component("journal"),
	}
}

// Joined queues a join record. It never blocks; a full queue drops the
// record.
func (j *Journal) Joined(key uint64, player uuid.UUID, name, remote string, at time.Time) {
	j.push(record{key: key, join: true, player: player, name: name, remote: remote, at: at})
}

// Left queues the end of the session started under key.
func (j *Journal) Left(key uint64, at time.Time, reason string) {
	j.push(record{key: key, at: at, reason: reason})
}

func (j *Journal) push(r record) {
	select {
	case j.ch <- r:
	default:
		j.log.Warn().Uint64("key", r.key).Bool("join", r.join).Msg("journal queue full, record dropped")
	}
}

// Run writes records until ctx is done, then flushes what is queued and
// closes sessions still open.
func (j *Journal) Run(ctx context.Context) error {
	for {
		select {
		case r := <-j.ch:
			j.write(ctx, r)
		case <-ctx.Done():
			return j.shutdown()
		}
	}
}

func (j *Journal) write(ctx context.Context, r record) {
	if r.join {
		id, err := j.store.BeginSession(ctx, r.player, r.name, r.remote, r.at)
		if err != nil {
			j.log.Error().Err(err).Msg("failed to record join")
			return
		}
		j.open[r.key] = id
		return
	}

	id, ok := j.open[r.key]
	if !ok {
		return
	}
	delete(j.open, r.key)
	if err := j.store.EndSession(ctx, id, r.at, r.reason); err != nil {
		j.log.Error().Err(err).Msg("failed to record leave")
	}
}

func (j *Journal) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

drain:
	for {
		select {
		case r := <-j.ch:
			j.write(ctx, r)
		default:
			break drain
		}
	}

	n, err := j.store.CloseOpenSessions(ctx, time.Now(), "server stopped")
	if err != nil {
		return err
	}
	if n > 0 {
		j.log.Info().Int64("sessions", n).Msg("closed open sessions")
	}
	return nil
}

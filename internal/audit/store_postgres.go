package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const insertTimeout = 2 * time.Second

// PostgresStore persists gate decisions in the gate_audit table so the
// admin dashboard can surface them.
type PostgresStore struct {
	pool   *pgxpool.Pool
	logger *slog.Logger
}

// NewPostgresStore wraps a pgx pool as an audit sink.
func NewPostgresStore(pool *pgxpool.Pool, logger *slog.Logger) *PostgresStore {
	return &PostgresStore{pool: pool, logger: logger}
}

// Record implements Recorder. Insert failures are logged and swallowed;
// the gate decision has already been made and must stand.
func (s *PostgresStore) Record(ctx context.Context, event Event) {
	// Detach from the request deadline: an almost-expired request
	// should still get its decision recorded.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), insertTimeout)
	defer cancel()

	_, err := s.pool.Exec(ctx,
		`INSERT INTO gate_audit (id, recorded_at, endpoint, outcome, reason, ip_prefix, asn)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		event.ID, event.Time, event.Endpoint, string(event.Outcome), event.Reason, event.IPPrefix, event.ASN)
	if err != nil {
		s.logger.Warn("audit insert failed", "error", err, "event_id", event.ID)
	}
}

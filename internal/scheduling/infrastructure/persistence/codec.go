package persistence

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/database"
	"github.com/google/uuid"
)

const appointmentColumns = `id, client_id, provider_id, service_id, start_time, end_time, status,
	notes, cancellation_reason, recurring_group_id, recurrence, rescheduled_from, rescheduled_to,
	confirmation_code, created_at, updated_at, version`

const blockedColumns = `id, provider_id, start_time, end_time, reason, recurrence, timezone`

func encodePattern(p *domain.RecurringPattern) (any, error) {
	if p == nil {
		return nil, nil
	}
	raw, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode recurrence: %w", err)
	}
	return string(raw), nil
}

func decodePattern(raw []byte) (*domain.RecurringPattern, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var p domain.RecurringPattern
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode recurrence: %w", err)
	}
	return &p, nil
}

func cipherOrPlain(c crypto.FieldCipher) crypto.FieldCipher {
	if c == nil {
		return crypto.Plaintext{}
	}
	return c
}

// withTx runs fn on the transaction in ctx, or on a new one it commits itself.
func withTx(ctx context.Context, conn database.Connection, fn func(exec database.Executor) error) error {
	if tx := database.TxFromContext(ctx); tx != nil {
		return fn(tx)
	}
	tx, err := conn.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	return tx.Commit(ctx)
}

func statusStrings(statuses []domain.AppointmentStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}

// SQLite keeps uuids as TEXT.

func textUUID(id uuid.UUID) sql.NullString {
	if id == uuid.Nil {
		return sql.NullString{}
	}
	return sql.NullString{String: id.String(), Valid: true}
}

func parseTextUUID(s sql.NullString) (uuid.UUID, error) {
	if !s.Valid || s.String == "" {
		return uuid.Nil, nil
	}
	return uuid.Parse(s.String)
}

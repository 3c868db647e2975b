package persistence

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/database"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// PostgresAppointmentRepository implements domain.AppointmentRepository on
// PostgreSQL. The appointments_no_overlap exclusion constraint rejects
// overlapping blocking appointments even across processes.
type PostgresAppointmentRepository struct {
	conn   database.Connection
	cipher crypto.FieldCipher
}

// NewPostgresAppointmentRepository creates a repository. Notes are sealed with cipher.
func NewPostgresAppointmentRepository(conn database.Connection, cipher crypto.FieldCipher) *PostgresAppointmentRepository {
	return &PostgresAppointmentRepository{conn: conn, cipher: cipherOrPlain(cipher)}
}

func (r *PostgresAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	return r.findOne(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id, id.String())
}

func (r *PostgresAppointmentRepository) FindByConfirmationCode(ctx context.Context, code string) (*domain.Appointment, error) {
	return r.findOne(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE confirmation_code = $1`, code, code)
}

func (r *PostgresAppointmentRepository) findOne(ctx context.Context, query string, arg any, label string) (*domain.Appointment, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	appt, err := r.scan(exec.QueryRow(ctx, query, arg))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: appointment %s", domain.ErrNotFound, label)
		}
		return nil, err
	}
	return appt, nil
}

func (r *PostgresAppointmentRepository) ListBlocking(ctx context.Context, providerID string, window domain.Interval) ([]*domain.Appointment, error) {
	return r.ListInRange(ctx, domain.AppointmentFilter{
		ProviderID: providerID,
		Range:      window,
		Statuses:   domain.BlockingStatuses,
	})
}

func (r *PostgresAppointmentRepository) ListInRange(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	var (
		where []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}
	if filter.ProviderID != "" {
		where = append(where, "provider_id = "+arg(filter.ProviderID))
	}
	if filter.ClientID != "" {
		where = append(where, "client_id = "+arg(filter.ClientID))
	}
	if !filter.Range.IsZero() {
		where = append(where, "start_time < "+arg(filter.Range.End)+" AND end_time > "+arg(filter.Range.Start))
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status = ANY("+arg(pq.Array(statusStrings(filter.Statuses)))+"::text[])")
	}

	query := `SELECT ` + appointmentColumns + ` FROM appointments`
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY start_time, id"

	exec := database.ExecutorFromContext(ctx, r.conn)
	rows, err := exec.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list appointments: %w", err)
	}
	defer rows.Close()

	var out []*domain.Appointment
	for rows.Next() {
		appt, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, appt)
	}
	return out, rows.Err()
}

func (r *PostgresAppointmentRepository) InsertIfAvailable(ctx context.Context, appt *domain.Appointment) error {
	return r.insert(ctx, database.ExecutorFromContext(ctx, r.conn), appt)
}

func (r *PostgresAppointmentRepository) insert(ctx context.Context, exec database.Executor, appt *domain.Appointment) error {
	s := appt.State()
	notes, err := r.cipher.Seal(s.Notes)
	if err != nil {
		return fmt.Errorf("seal notes: %w", err)
	}
	pattern, err := encodePattern(s.Pattern)
	if err != nil {
		return err
	}
	_, err = exec.Exec(ctx, `
		INSERT INTO appointments (`+appointmentColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`,
		s.ID, s.ClientID, s.ProviderID, s.ServiceID, s.Start, s.End, string(s.Status),
		notes, s.CancellationReason, nullUUID(s.RecurringGroupID), pattern,
		nullUUID(s.RescheduledFrom), nullUUID(s.RescheduledTo), s.ConfirmationCode,
		s.CreatedAt, s.UpdatedAt, s.Version,
	)
	switch {
	case err == nil:
		return nil
	case database.IsExclusionViolation(err):
		return fmt.Errorf("%w: provider %s at %s", domain.ErrSlotUnavailable, s.ProviderID, s.Start.Format(time.RFC3339))
	case database.IsUniqueViolation(err):
		return fmt.Errorf("%w: %s", domain.ErrDuplicateAppointment, s.ID)
	default:
		return fmt.Errorf("insert appointment: %w", err)
	}
}

func (r *PostgresAppointmentRepository) Update(ctx context.Context, appt *domain.Appointment) error {
	return r.update(ctx, database.ExecutorFromContext(ctx, r.conn), appt)
}

func (r *PostgresAppointmentRepository) update(ctx context.Context, exec database.Executor, appt *domain.Appointment) error {
	s := appt.State()
	notes, err := r.cipher.Seal(s.Notes)
	if err != nil {
		return fmt.Errorf("seal notes: %w", err)
	}
	pattern, err := encodePattern(s.Pattern)
	if err != nil {
		return err
	}
	res, err := exec.Exec(ctx, `
		UPDATE appointments
		SET status = $1, notes = $2, cancellation_reason = $3, recurring_group_id = $4, recurrence = $5,
		    rescheduled_to = $6, updated_at = $7, version = version + 1
		WHERE id = $8`,
		string(s.Status), notes, s.CancellationReason, nullUUID(s.RecurringGroupID), pattern,
		nullUUID(s.RescheduledTo), s.UpdatedAt, s.ID,
	)
	if err != nil {
		return fmt.Errorf("update appointment %s: %w", s.ID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: appointment %s", domain.ErrNotFound, s.ID)
	}
	return nil
}

func (r *PostgresAppointmentRepository) Reschedule(ctx context.Context, previous, replacement *domain.Appointment) error {
	return withTx(ctx, r.conn, func(exec database.Executor) error {
		if err := r.update(ctx, exec, previous); err != nil {
			return err
		}
		return r.insert(ctx, exec, replacement)
	})
}

func (r *PostgresAppointmentRepository) scan(row database.Row) (*domain.Appointment, error) {
	var (
		s               domain.AppointmentState
		status, notes   string
		group, from, to uuid.NullUUID
		recurrence      []byte
	)
	err := row.Scan(&s.ID, &s.ClientID, &s.ProviderID, &s.ServiceID, &s.Start, &s.End, &status,
		&notes, &s.CancellationReason, &group, &recurrence, &from, &to,
		&s.ConfirmationCode, &s.CreatedAt, &s.UpdatedAt, &s.Version)
	if err != nil {
		return nil, err
	}
	if s.Status, err = domain.ParseAppointmentStatus(status); err != nil {
		return nil, err
	}
	if s.Pattern, err = decodePattern(recurrence); err != nil {
		return nil, err
	}
	if s.Notes, err = r.cipher.Open(notes); err != nil {
		return nil, fmt.Errorf("open notes of %s: %w", s.ID, err)
	}
	s.RecurringGroupID = group.UUID
	s.RescheduledFrom = from.UUID
	s.RescheduledTo = to.UUID
	return domain.RehydrateAppointment(s), nil
}

func nullUUID(id uuid.UUID) uuid.NullUUID {
	return uuid.NullUUID{UUID: id, Valid: id != uuid.Nil}
}

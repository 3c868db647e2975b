package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/crypto"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/database"
	"github.com/felixgeelhaar/solace/internal/shared/infrastructure/database/sqlite"
	"github.com/google/uuid"
)

// SQLiteAppointmentRepository implements domain.AppointmentRepository on the
// local SQLite database. The single connection serialises check-and-insert.
type SQLiteAppointmentRepository struct {
	conn   database.Connection
	cipher crypto.FieldCipher
}

// NewSQLiteAppointmentRepository creates a repository. Notes are sealed with cipher.
func NewSQLiteAppointmentRepository(conn database.Connection, cipher crypto.FieldCipher) *SQLiteAppointmentRepository {
	return &SQLiteAppointmentRepository{conn: conn, cipher: cipherOrPlain(cipher)}
}

func (r *SQLiteAppointmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.Appointment, error) {
	return r.findOne(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE id = ?`, id.String())
}

func (r *SQLiteAppointmentRepository) FindByConfirmationCode(ctx context.Context, code string) (*domain.Appointment, error) {
	return r.findOne(ctx, `SELECT `+appointmentColumns+` FROM appointments WHERE confirmation_code = ?`, code)
}

func (r *SQLiteAppointmentRepository) findOne(ctx context.Context, query string, arg string) (*domain.Appointment, error) {
	exec := database.ExecutorFromContext(ctx, r.conn)
	appt, err := r.scan(exec.QueryRow(ctx, query, arg))
	if err != nil {
		if database.IsNoRows(err) {
			return nil, fmt.Errorf("%w: appointment %s", domain.ErrNotFound, arg)
		}
		return nil, err
	}
	return appt, nil
}

func (r *SQLiteAppointmentRepository) ListBlocking(ctx context.Context, providerID string, window domain.Interval) ([]*domain.Appointment, error) {
	return r.ListInRange(ctx, domain.AppointmentFilter{
		ProviderID: providerID,
		Range:      window,
		Statuses:   domain.BlockingStatuses,
	})
}

func (r *SQLiteAppointmentRepository) ListInRange(ctx context.Context, filter domain.AppointmentFilter) ([]*domain.Appointment, error) {
	var (
		where []string
		args  []any
	)
	if filter.ProviderID != "" {
		where = append(where, "provider_id = ?")
		args = append(args, filter.ProviderID)
	}
	if filter.ClientID != "" {
		where = append(where, "client_id = ?")
		args = append(args, filter.ClientID)
	}
	if !filter.Range.IsZero() {
		where = append(where, "start_time < ? AND end_time > ?")
		args = append(args, database.FormatTime(filter.Range.End), database.FormatTime(filter.Range.Start))
	}
	if len(filter.Statuses) > 0 {
		where = append(where, "status IN ("+strings.TrimSuffix(strings.Repeat("?,", len(filter.Statuses)), ",")+")")
		for _, s := range filter.Statuses {
			args = append(args, string(s))
		}
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

func (r *SQLiteAppointmentRepository) InsertIfAvailable(ctx context.Context, appt *domain.Appointment) error {
	return withTx(ctx, r.conn, func(exec database.Executor) error {
		return r.insertIfAvailable(ctx, exec, appt)
	})
}

func (r *SQLiteAppointmentRepository) insertIfAvailable(ctx context.Context, exec database.Executor, appt *domain.Appointment) error {
	s := appt.State()
	if s.Status.IsBlocking() {
		var conflict string
		err := exec.QueryRow(ctx, `
			SELECT id FROM appointments
			WHERE provider_id = ? AND status IN ('pending', 'scheduled', 'confirmed')
			  AND start_time < ? AND end_time > ?
			LIMIT 1`,
			s.ProviderID, database.FormatTime(s.End), database.FormatTime(s.Start),
		).Scan(&conflict)
		switch {
		case err == nil:
			return fmt.Errorf("%w: overlaps appointment %s", domain.ErrSlotUnavailable, conflict)
		case !database.IsNoRows(err):
			return fmt.Errorf("check overlap: %w", err)
		}
	}

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
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		s.ID.String(), s.ClientID, s.ProviderID, s.ServiceID,
		database.FormatTime(s.Start), database.FormatTime(s.End), string(s.Status),
		notes, s.CancellationReason, textUUID(s.RecurringGroupID), pattern,
		textUUID(s.RescheduledFrom), textUUID(s.RescheduledTo), s.ConfirmationCode,
		database.FormatTime(s.CreatedAt), database.FormatTime(s.UpdatedAt), s.Version,
	)
	if err != nil {
		if sqlite.IsConstraintViolation(err) {
			return fmt.Errorf("%w: %s", domain.ErrDuplicateAppointment, s.ID)
		}
		return fmt.Errorf("insert appointment: %w", err)
	}
	return nil
}

func (r *SQLiteAppointmentRepository) Update(ctx context.Context, appt *domain.Appointment) error {
	return r.update(ctx, database.ExecutorFromContext(ctx, r.conn), appt)
}

func (r *SQLiteAppointmentRepository) update(ctx context.Context, exec database.Executor, appt *domain.Appointment) error {
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
		SET status = ?, notes = ?, cancellation_reason = ?, recurring_group_id = ?, recurrence = ?,
		    rescheduled_to = ?, updated_at = ?, version = version + 1
		WHERE id = ?`,
		string(s.Status), notes, s.CancellationReason, textUUID(s.RecurringGroupID), pattern,
		textUUID(s.RescheduledTo), database.FormatTime(s.UpdatedAt), s.ID.String(),
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

// Reschedule retires previous before inserting replacement, so the overlap
// check no longer sees the slot being vacated.
func (r *SQLiteAppointmentRepository) Reschedule(ctx context.Context, previous, replacement *domain.Appointment) error {
	return withTx(ctx, r.conn, func(exec database.Executor) error {
		if err := r.update(ctx, exec, previous); err != nil {
			return err
		}
		return r.insertIfAvailable(ctx, exec, replacement)
	})
}

func (r *SQLiteAppointmentRepository) scan(row database.Row) (*domain.Appointment, error) {
	var (
		s                             domain.AppointmentState
		id, start, end, status, notes string
		created, updated              string
		group, from, to, recurrence   sql.NullString
	)
	err := row.Scan(&id, &s.ClientID, &s.ProviderID, &s.ServiceID, &start, &end, &status,
		&notes, &s.CancellationReason, &group, &recurrence, &from, &to,
		&s.ConfirmationCode, &created, &updated, &s.Version)
	if err != nil {
		return nil, err
	}

	var errs []error
	var perr error
	s.ID, perr = uuid.Parse(id)
	errs = append(errs, perr)
	s.Start, perr = database.ParseTime(start)
	errs = append(errs, perr)
	s.End, perr = database.ParseTime(end)
	errs = append(errs, perr)
	s.CreatedAt, perr = database.ParseTime(created)
	errs = append(errs, perr)
	s.UpdatedAt, perr = database.ParseTime(updated)
	errs = append(errs, perr)
	s.Status, perr = domain.ParseAppointmentStatus(status)
	errs = append(errs, perr)
	s.RecurringGroupID, perr = parseTextUUID(group)
	errs = append(errs, perr)
	s.RescheduledFrom, perr = parseTextUUID(from)
	errs = append(errs, perr)
	s.RescheduledTo, perr = parseTextUUID(to)
	errs = append(errs, perr)
	if recurrence.Valid {
		s.Pattern, perr = decodePattern([]byte(recurrence.String))
		errs = append(errs, perr)
	}
	s.Notes, perr = r.cipher.Open(notes)
	errs = append(errs, perr)
	if err := errors.Join(errs...); err != nil {
		return nil, fmt.Errorf("decode appointment %s: %w", id, err)
	}
	return domain.RehydrateAppointment(s), nil
}

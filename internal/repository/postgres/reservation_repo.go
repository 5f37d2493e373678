package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"eventhub/internal/domain"
)

type reservationStore struct {
	DB *sql.DB
}

// NewReservationStore returns a ReservationStore that runs each unit of work in a
// READ COMMITTED transaction. Counter updates rely on row locks taken by the
// conditional UPDATE, so no stronger isolation level is needed.
func NewReservationStore(db *sql.DB) domain.ReservationStore {
	return &reservationStore{DB: db}
}

func (s *reservationStore) InTx(ctx context.Context, fn func(tx domain.ReservationTx) error) (err error) {
	tx, err := s.DB.BeginTx(ctx, &sql.TxOptions{Isolation: sql.LevelReadCommitted})
	if err != nil {
		return fmt.Errorf("begin reservation tx: %w", mapError(err))
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(&reservationTx{tx: tx}); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit reservation tx: %w", mapError(err))
	}
	return nil
}

type reservationTx struct {
	tx *sql.Tx
}

func (t *reservationTx) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(t.tx.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, mapError(err)
	}
	return e, nil
}

func (t *reservationTx) InsertReservation(ctx context.Context, res *domain.Reservation) error {
	query := `
		INSERT INTO event_rsvps (event_id, user_id, status, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id
	`
	err := t.tx.QueryRowContext(ctx, query, res.EventID, res.UserID, res.Status, res.CreatedAt).Scan(&res.ID)
	if err != nil {
		switch pqCode(err) {
		case codeUniqueViolation:
			return domain.ErrAlreadyReserved
		case codeForeignKeyViolation:
			if pqConstraint(err) == rsvpUserForeignKey {
				return domain.ErrUserNotFound
			}
			return domain.ErrNotFound
		}
		return mapError(err)
	}
	return nil
}

func (t *reservationTx) DeleteReservation(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	query := `
		DELETE FROM event_rsvps
		WHERE event_id = $1 AND user_id = $2
		RETURNING id, event_id, user_id, status, created_at
	`
	res := &domain.Reservation{}
	err := t.tx.QueryRowContext(ctx, query, eventID, userID).
		Scan(&res.ID, &res.EventID, &res.UserID, &res.Status, &res.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotReserved
		}
		return nil, mapError(err)
	}
	return res, nil
}

func (t *reservationTx) IncrementReserved(ctx context.Context, eventID string) (*domain.Event, error) {
	query := `
		UPDATE events SET reserved_count = reserved_count + 1, updated_at = NOW()
		WHERE id = $1 AND reserved_count < capacity
		RETURNING ` + eventColumns
	e, err := scanEvent(t.tx.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrEventFull
		}
		return nil, mapError(err)
	}
	return e, nil
}

func (t *reservationTx) DecrementReserved(ctx context.Context, eventID string) (*domain.Event, bool, error) {
	query := `
		UPDATE events SET reserved_count = reserved_count - 1, updated_at = NOW()
		WHERE id = $1 AND reserved_count > 0
		RETURNING ` + eventColumns
	e, err := scanEvent(t.tx.QueryRowContext(ctx, query, eventID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, mapError(err)
	}
	return e, true, nil
}

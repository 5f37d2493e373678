package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"eventhub/internal/domain"
)

const eventColumns = `id, title, description, date_time, location, capacity, reserved_count,
		created_by, category, image_url, image_key, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEvent(row rowScanner) (*domain.Event, error) {
	e := &domain.Event{}
	var imageURL, imageKey sql.NullString
	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.DateTime, &e.Location, &e.Capacity, &e.ReservedCount,
		&e.CreatedBy, &e.Category, &imageURL, &imageKey, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	e.ImageURL = imageURL.String
	e.ImageKey = imageKey.String
	return e, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// escapeLike escapes LIKE wildcards so user input matches literally.
func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) Create(ctx context.Context, e *domain.Event) error {
	query := `
		INSERT INTO events (title, description, date_time, location, capacity, reserved_count,
			created_by, category, image_url, image_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8, $9, $10, $11)
		RETURNING id
	`
	err := r.DB.QueryRowContext(ctx, query,
		e.Title, e.Description, e.DateTime, e.Location, e.Capacity,
		e.CreatedBy, e.Category, nullString(e.ImageURL), nullString(e.ImageKey), e.CreatedAt, e.UpdatedAt,
	).Scan(&e.ID)
	if err != nil {
		switch pqCode(err) {
		case codeCheckViolation:
			return fmt.Errorf("create event: %w", domain.ErrInvalidInput)
		case codeForeignKeyViolation:
			return fmt.Errorf("create event: %w", domain.ErrUserNotFound)
		}
		return err
	}
	e.ReservedCount = 0
	return nil
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return e, nil
}

func buildEventWhere(filter domain.EventFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		add(`title ILIKE $%d ESCAPE '\'`, "%"+escapeLike(s)+"%")
	}
	if c := strings.TrimSpace(filter.Category); c != "" {
		add(`category = $%d`, c)
	}
	if filter.From != nil {
		add(`date_time >= $%d`, *filter.From)
	}
	if filter.To != nil {
		add(`date_time <= $%d`, *filter.To)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *eventRepository) List(ctx context.Context, filter domain.EventFilter, page domain.PaginationParams) (*domain.EventPage, error) {
	where, args := buildEventWhere(filter)

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM events`+where, args...).Scan(&total); err != nil {
		return nil, err
	}

	order := "ASC"
	if filter.SortDesc {
		order = "DESC"
	}
	n := len(args)
	query := fmt.Sprintf(`SELECT %s FROM events%s ORDER BY date_time %s, id LIMIT $%d OFFSET $%d`,
		eventColumns, where, order, n+1, n+2)
	args = append(args, page.Limit(), page.Offset())

	items, err := r.queryEvents(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	return &domain.EventPage{Items: items, Total: total}, nil
}

func (r *eventRepository) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	query := `SELECT ` + eventColumns + ` FROM events WHERE created_by = $1 ORDER BY created_at DESC`
	return r.queryEvents(ctx, query, ownerID)
}

func (r *eventRepository) ListByAttendee(ctx context.Context, userID string) ([]*domain.Event, error) {
	query := `
		SELECT e.id, e.title, e.description, e.date_time, e.location, e.capacity, e.reserved_count,
			e.created_by, e.category, e.image_url, e.image_key, e.created_at, e.updated_at
		FROM events e
		INNER JOIN event_rsvps r ON r.event_id = e.id
		WHERE r.user_id = $1 AND r.status = 'going'
		ORDER BY e.date_time ASC
	`
	return r.queryEvents(ctx, query, userID)
}

func (r *eventRepository) queryEvents(ctx context.Context, query string, args ...any) ([]*domain.Event, error) {
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	events := make([]*domain.Event, 0)
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, e)
	}
	return events, rows.Err()
}

func (r *eventRepository) Update(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	if patch.IsEmpty() {
		return r.GetByID(ctx, id)
	}
	setClauses := []string{"updated_at = NOW()"}
	args := []any{}
	set := func(column string, value any) {
		args = append(args, value)
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if patch.Title != nil {
		set("title", *patch.Title)
	}
	if patch.Description != nil {
		set("description", *patch.Description)
	}
	if patch.DateTime != nil {
		set("date_time", *patch.DateTime)
	}
	if patch.Location != nil {
		set("location", *patch.Location)
	}
	if patch.Category != nil {
		set("category", *patch.Category)
	}
	if patch.ImageURL != nil {
		set("image_url", nullString(*patch.ImageURL))
	}
	if patch.ImageKey != nil {
		set("image_key", nullString(*patch.ImageKey))
	}
	if patch.Capacity != nil {
		set("capacity", *patch.Capacity)
	}

	args = append(args, id)
	where := fmt.Sprintf("id = $%d", len(args))
	if patch.Capacity != nil {
		// Shrinking below the number of held reservations must not succeed, even when a
		// join commits between our read and this write.
		args = append(args, *patch.Capacity)
		where += fmt.Sprintf(" AND reserved_count <= $%d", len(args))
	}
	query := fmt.Sprintf(`UPDATE events SET %s WHERE %s RETURNING %s`,
		strings.Join(setClauses, ", "), where, eventColumns)

	e, err := scanEvent(r.DB.QueryRowContext(ctx, query, args...))
	if err == nil {
		return e, nil
	}
	if pqCode(err) == codeCheckViolation {
		return nil, domain.ErrCapacityBelowReserved
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if patch.Capacity == nil {
		return nil, domain.ErrNotFound
	}
	if _, getErr := r.GetByID(ctx, id); getErr != nil {
		return nil, getErr
	}
	return nil, domain.ErrCapacityBelowReserved
}

func (r *eventRepository) Delete(ctx context.Context, id string) (removed int, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, mapError(err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `DELETE FROM event_rsvps WHERE event_id = $1`, id)
	if err != nil {
		return 0, mapError(err)
	}
	n, _ := res.RowsAffected()

	res, err = tx.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		return 0, mapError(err)
	}
	if rows, _ := res.RowsAffected(); rows == 0 {
		err = domain.ErrNotFound
		return 0, err
	}
	if err = tx.Commit(); err != nil {
		return 0, mapError(err)
	}
	return int(n), nil
}

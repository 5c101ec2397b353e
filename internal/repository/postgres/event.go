package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/evenza/settlement/internal/apperrors"
	"github.com/evenza/settlement/internal/models"
	"github.com/evenza/settlement/internal/repository"
)

type EventRepo struct {
	DB DBTX
}

const createEvent = `-- name: CreateEvent
INSERT INTO events (title, starts_at, location, fee, created_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created_at, title, starts_at, location, fee, created_by
`

func (r *EventRepo) CreateEvent(ctx context.Context, arg repository.CreateEventParams) (models.Event, error) {
	rows, _ := r.DB.Query(ctx, createEvent, arg.Title, arg.StartsAt, arg.Location, arg.Fee, arg.CreatedBy)
	event, err := pgx.CollectOneRow(rows, rowToEvent)
	if err != nil {
		return event, fmt.Errorf("db error: %w", err)
	}

	return event, nil
}

const getEventByID = `-- name: GetEventByID
SELECT id, created_at, title, starts_at, location, fee, created_by FROM events
WHERE id = $1
`

func (r *EventRepo) GetEventByID(ctx context.Context, eventID uuid.UUID) (models.Event, error) {
	rows, _ := r.DB.Query(ctx, getEventByID, eventID)
	event, err := pgx.CollectOneRow(rows, rowToEvent)

	switch {
	case err == nil:
		return event, nil
	case errors.Is(err, pgx.ErrNoRows):
		return event, apperrors.ErrEventNotFound
	default:
		return event, fmt.Errorf("db error: %w", err)
	}
}

func rowToEvent(row pgx.CollectableRow) (models.Event, error) {
	var e models.Event
	err := row.Scan(&e.ID, &e.CreatedAt, &e.Title, &e.StartsAt, &e.Location, &e.Fee, &e.CreatedBy)
	return e, err
}

package models

import (
	"time"

	"github.com/google/uuid"
)

type Event struct {
	ID        uuid.UUID
	CreatedAt time.Time
	Title     string
	StartsAt  time.Time
	Location  string

	// Fee in minor currency units (paise). Zero means a free event.
	Fee int64

	// Organizer who receives settlement credits
	CreatedBy uuid.UUID
}

package domain

import (
	"context"
	"time"
)

// Event is a scheduled gathering with a fixed number of attendee slots.
// ReservedCount is only ever changed by the reservation coordinator.
// swagger:model Event
type Event struct {
	ID            string    `json:"id"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	DateTime      time.Time `json:"dateTime"`
	Location      string    `json:"location"`
	Capacity      int       `json:"capacity"`
	ReservedCount int       `json:"reservedCount"`
	CreatedBy     string    `json:"createdBy"`
	Category      string    `json:"category"`
	ImageURL      string    `json:"imageUrl"`
	ImageKey      string    `json:"imageKey"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// NewEvent returns a new Event with a zero counter. ID is set by the repository on create.
func NewEvent(title, description, location, category string, dateTime time.Time, capacity int, createdBy string, now time.Time) *Event {
	return &Event{
		Title:       title,
		Description: description,
		Location:    location,
		Category:    category,
		DateTime:    dateTime,
		Capacity:    capacity,
		CreatedBy:   createdBy,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// SpotsLeft returns the number of free slots, never negative.
func (e *Event) SpotsLeft() int {
	if left := e.Capacity - e.ReservedCount; left > 0 {
		return left
	}
	return 0
}

// IsOwnedBy reports whether userID created the event.
func (e *Event) IsOwnedBy(userID string) bool {
	return userID != "" && e.CreatedBy == userID
}

// EventFilter narrows the public event listing.
type EventFilter struct {
	Search   string
	Category string
	From     *time.Time
	To       *time.Time
	SortDesc bool
}

// EventPatch holds optional field updates. Nil fields are left unchanged.
type EventPatch struct {
	Title       *string
	Description *string
	DateTime    *time.Time
	Location    *string
	Capacity    *int
	Category    *string
	ImageURL    *string
	ImageKey    *string
}

// IsEmpty reports whether the patch changes nothing.
func (p EventPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DateTime == nil && p.Location == nil &&
		p.Capacity == nil && p.Category == nil && p.ImageURL == nil && p.ImageKey == nil
}

// EventPage is one page of the event listing plus the total match count.
type EventPage struct {
	Items []*Event `json:"items"`
	Total int      `json:"total"`
}

// EventRepository defines the interface for event storage.
type EventRepository interface {
	Create(ctx context.Context, event *Event) error
	GetByID(ctx context.Context, id string) (*Event, error)
	List(ctx context.Context, filter EventFilter, page PaginationParams) (*EventPage, error)
	ListByOwnerID(ctx context.Context, ownerID string) ([]*Event, error)
	ListByAttendee(ctx context.Context, userID string) ([]*Event, error)
	// Update applies patch. A capacity change only succeeds while the new capacity is
	// still >= reserved_count; otherwise ErrCapacityBelowReserved.
	Update(ctx context.Context, id string, patch EventPatch) (*Event, error)
	// Delete removes the event and all of its reservations in one transaction and
	// returns the number of reservations removed.
	Delete(ctx context.Context, id string) (int, error)
}

// EventListCache caches listing pages. Implementations must be safe to call when the
// backing store is unavailable: a miss is always an acceptable answer.
//
// Get resolves key against the current generation and returns that slot even on a
// miss. Set writes to the slot Get returned, so a page read before an Invalidate is
// stored under the dead generation and never served. An empty slot makes Set a no-op.
type EventListCache interface {
	Get(ctx context.Context, key string) (page *EventPage, slot string, hit bool)
	Set(ctx context.Context, slot string, page *EventPage)
	Invalidate(ctx context.Context)
}

// EventService defines the event catalog operations.
type EventService interface {
	CreateEvent(ctx context.Context, event *Event, image *Image) error
	GetEvent(ctx context.Context, id string) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter, page PaginationParams) (*EventPage, error)
	UpdateEvent(ctx context.Context, id, editorID string, patch EventPatch, image *Image) (*Event, error)
	DeleteEvent(ctx context.Context, id, editorID string) error
	ListCreatedEvents(ctx context.Context, userID string) ([]*Event, error)
	ListAttendingEvents(ctx context.Context, userID string) ([]*Event, error)
}

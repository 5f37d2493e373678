package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"

	"eventhub/internal/domain"

	"go.opentelemetry.io/otel/trace/noop"
)

var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

var testTracer = noop.NewTracerProvider().Tracer("test")

// memStore is an in-memory ReservationStore. InTx runs fn against a private copy of
// the state under a single lock and swaps it in only when fn succeeds, giving the
// same all-or-nothing, serial-order behavior as a database transaction.
type memStore struct {
	mu        sync.Mutex
	events    map[string]domain.Event
	reserved  map[string]map[string]domain.Reservation
	nextID    int
	commits   int
	rollbacks int
	failWith  error
}

func newMemStore(events ...*domain.Event) *memStore {
	s := &memStore{
		events:   make(map[string]domain.Event),
		reserved: make(map[string]map[string]domain.Reservation),
	}
	for _, e := range events {
		s.events[e.ID] = *e
	}
	return s
}

func (s *memStore) InTx(ctx context.Context, fn func(tx domain.ReservationTx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failWith != nil {
		return s.failWith
	}

	tx := &memTx{nextID: s.nextID, events: make(map[string]domain.Event), reserved: make(map[string]map[string]domain.Reservation)}
	for k, v := range s.events {
		tx.events[k] = v
	}
	for k, m := range s.reserved {
		cp := make(map[string]domain.Reservation, len(m))
		for u, r := range m {
			cp[u] = r
		}
		tx.reserved[k] = cp
	}
	if err := fn(tx); err != nil {
		s.rollbacks++
		return err
	}
	s.events = tx.events
	s.reserved = tx.reserved
	s.nextID = tx.nextID
	s.commits++
	return nil
}

func (s *memStore) event(id string) domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.events[id]
}

func (s *memStore) reservationCount(eventID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reserved[eventID])
}

type memTx struct {
	events   map[string]domain.Event
	reserved map[string]map[string]domain.Reservation
	nextID   int
}

func (t *memTx) GetEvent(ctx context.Context, eventID string) (*domain.Event, error) {
	e, ok := t.events[eventID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &e, nil
}

func (t *memTx) InsertReservation(ctx context.Context, r *domain.Reservation) error {
	if _, ok := t.events[r.EventID]; !ok {
		return domain.ErrNotFound
	}
	if _, dup := t.reserved[r.EventID][r.UserID]; dup {
		return domain.ErrAlreadyReserved
	}
	if t.reserved[r.EventID] == nil {
		t.reserved[r.EventID] = make(map[string]domain.Reservation)
	}
	t.nextID++
	r.ID = fmt.Sprintf("rsvp-%d", t.nextID)
	t.reserved[r.EventID][r.UserID] = *r
	return nil
}

func (t *memTx) DeleteReservation(ctx context.Context, eventID, userID string) (*domain.Reservation, error) {
	r, ok := t.reserved[eventID][userID]
	if !ok {
		return nil, domain.ErrNotReserved
	}
	delete(t.reserved[eventID], userID)
	return &r, nil
}

func (t *memTx) IncrementReserved(ctx context.Context, eventID string) (*domain.Event, error) {
	e := t.events[eventID]
	if e.ReservedCount >= e.Capacity {
		return nil, domain.ErrEventFull
	}
	e.ReservedCount++
	t.events[eventID] = e
	return &e, nil
}

func (t *memTx) DecrementReserved(ctx context.Context, eventID string) (*domain.Event, bool, error) {
	e := t.events[eventID]
	if e.ReservedCount <= 0 {
		return nil, false, nil
	}
	e.ReservedCount--
	t.events[eventID] = e
	return &e, true, nil
}

type publishedMsg struct {
	key string
	msg domain.RSVPMessage
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []publishedMsg
	err  error
}

func (p *fakePublisher) PublishRSVP(ctx context.Context, key string, msg *domain.RSVPMessage) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.msgs = append(p.msgs, publishedMsg{key: key, msg: *msg})
	return nil
}

// fakeEventRepo is an in-memory EventRepository for tests.
type fakeEventRepo struct {
	byID      map[string]*domain.Event
	attending map[string][]string
	nextID    int
	createErr error
	updateErr error
	listCalls int
	// onList runs inside List after the rows are read, before the page is returned.
	onList func()
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{
		byID:      make(map[string]*domain.Event),
		attending: make(map[string][]string),
		nextID:    1,
	}
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = fmt.Sprintf("ev-%d", f.nextID)
	f.nextID++
	f.byID[e.ID] = e
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	if e, ok := f.byID[id]; ok {
		cp := *e
		return &cp, nil
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, page domain.PaginationParams) (*domain.EventPage, error) {
	f.listCalls++
	out := make([]*domain.Event, 0, len(f.byID))
	for _, e := range f.byID {
		if filter.Category != "" && e.Category != filter.Category {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].DateTime.Before(out[j].DateTime) })
	if f.onList != nil {
		f.onList()
	}
	return &domain.EventPage{Items: out, Total: len(out)}, nil
}

func (f *fakeEventRepo) ListByOwnerID(ctx context.Context, ownerID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, e := range f.byID {
		if e.CreatedBy == ownerID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) ListByAttendee(ctx context.Context, userID string) ([]*domain.Event, error) {
	var out []*domain.Event
	for _, id := range f.attending[userID] {
		if e, ok := f.byID[id]; ok {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEventRepo) Update(ctx context.Context, id string, patch domain.EventPatch) (*domain.Event, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if patch.Capacity != nil && *patch.Capacity < e.ReservedCount {
		return nil, domain.ErrCapacityBelowReserved
	}
	if patch.Title != nil {
		e.Title = *patch.Title
	}
	if patch.Capacity != nil {
		e.Capacity = *patch.Capacity
	}
	if patch.ImageURL != nil {
		e.ImageURL = *patch.ImageURL
	}
	if patch.ImageKey != nil {
		e.ImageKey = *patch.ImageKey
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) (int, error) {
	if _, ok := f.byID[id]; !ok {
		return 0, domain.ErrNotFound
	}
	delete(f.byID, id)
	return 0, nil
}

type fakeImageStore struct {
	uploads   int
	deleted   []string
	uploadErr error
	deleteErr error
}

func (f *fakeImageStore) Upload(ctx context.Context, img *domain.Image) (*domain.StoredImage, error) {
	if f.uploadErr != nil {
		return nil, f.uploadErr
	}
	f.uploads++
	key := fmt.Sprintf("events/img-%d", f.uploads)
	return &domain.StoredImage{URL: "https://cdn.example/" + key, Key: key}, nil
}

func (f *fakeImageStore) Delete(ctx context.Context, key string) error {
	f.deleted = append(f.deleted, key)
	return f.deleteErr
}

type fakeListCache struct {
	pages       map[string]*domain.EventPage
	gen         int
	invalidated int
}

func newFakeListCache() *fakeListCache {
	return &fakeListCache{pages: make(map[string]*domain.EventPage)}
}

func (c *fakeListCache) Get(ctx context.Context, key string) (*domain.EventPage, string, bool) {
	slot := fmt.Sprintf("%d:%s", c.gen, key)
	p, ok := c.pages[slot]
	return p, slot, ok
}

func (c *fakeListCache) Set(ctx context.Context, slot string, page *domain.EventPage) {
	if slot == "" {
		return
	}
	c.pages[slot] = page
}

func (c *fakeListCache) Invalidate(ctx context.Context) {
	c.invalidated++
	c.gen++
}

// fakeUserRepo is an in-memory UserRepository for tests.
type fakeUserRepo struct {
	byID    map[string]*domain.User
	byEmail map[string]*domain.User
	getErr  error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User), byEmail: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) Create(ctx context.Context, u *domain.User) error {
	if _, ok := f.byEmail[u.Email]; ok {
		return domain.ErrDuplicateEmail
	}
	u.ID = fmt.Sprintf("user-%d", len(f.byID)+1)
	f.byID[u.ID] = u
	f.byEmail[u.Email] = u
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if u, ok := f.byEmail[email]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	if u, ok := f.byID[id]; ok {
		return u, nil
	}
	return nil, domain.ErrUserNotFound
}

var errBoom = errors.New("boom")

package services

import (
	"context"
	"testing"
	"time"

	"eventhub/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestEventService(repo *fakeEventRepo, images *fakeImageStore, cache *fakeListCache) domain.EventService {
	var c domain.EventListCache
	if cache != nil {
		c = cache
	}
	return NewEventService(repo, images, c, testTracer, testLogger, 5*time.Second)
}

func validNewEvent() *domain.Event {
	return domain.NewEvent("Go Meetup", "Talks and pizza", "Berlin", "tech",
		time.Date(2025, 6, 1, 18, 0, 0, 0, time.UTC), 30, "owner-1", time.Time{})
}

func testImage() *domain.Image {
	return &domain.Image{Filename: "a.png", ContentType: "image/png", Data: []byte("png")}
}

func TestEventService_CreateEvent(t *testing.T) {
	ctx := context.Background()

	t.Run("uploads then inserts", func(t *testing.T) {
		repo, images, cache := newFakeEventRepo(), &fakeImageStore{}, newFakeListCache()
		svc := newTestEventService(repo, images, cache)

		e := validNewEvent()
		e.ReservedCount = 7
		require.NoError(t, svc.CreateEvent(ctx, e, testImage()))
		assert.Equal(t, "ev-1", e.ID)
		assert.Equal(t, 0, e.ReservedCount)
		assert.Equal(t, "events/img-1", e.ImageKey)
		assert.False(t, e.CreatedAt.IsZero())
		assert.Equal(t, 1, cache.invalidated)
	})

	t.Run("image required", func(t *testing.T) {
		repo, images := newFakeEventRepo(), &fakeImageStore{}
		err := newTestEventService(repo, images, nil).CreateEvent(ctx, validNewEvent(), nil)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
		assert.Zero(t, images.uploads)
	})

	t.Run("validation", func(t *testing.T) {
		tests := []struct {
			name   string
			mutate func(e *domain.Event)
		}{
			{"blank title", func(e *domain.Event) { e.Title = "  " }},
			{"no description", func(e *domain.Event) { e.Description = "" }},
			{"no location", func(e *domain.Event) { e.Location = "" }},
			{"no category", func(e *domain.Event) { e.Category = "" }},
			{"zero date", func(e *domain.Event) { e.DateTime = time.Time{} }},
			{"zero capacity", func(e *domain.Event) { e.Capacity = 0 }},
			{"no owner", func(e *domain.Event) { e.CreatedBy = "" }},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				e := validNewEvent()
				tt.mutate(e)
				err := newTestEventService(newFakeEventRepo(), &fakeImageStore{}, nil).CreateEvent(ctx, e, testImage())
				require.ErrorIs(t, err, domain.ErrInvalidInput)
			})
		}
	})

	t.Run("insert failure removes uploaded image", func(t *testing.T) {
		repo, images := newFakeEventRepo(), &fakeImageStore{}
		repo.createErr = errBoom
		err := newTestEventService(repo, images, nil).CreateEvent(ctx, validNewEvent(), testImage())
		require.ErrorIs(t, err, errBoom)
		assert.Equal(t, []string{"events/img-1"}, images.deleted)
	})

	t.Run("upload failure", func(t *testing.T) {
		images := &fakeImageStore{uploadErr: domain.ErrUnsupportedImage}
		err := newTestEventService(newFakeEventRepo(), images, nil).CreateEvent(ctx, validNewEvent(), testImage())
		require.ErrorIs(t, err, domain.ErrUnsupportedImage)
	})
}

func TestEventService_UpdateEvent(t *testing.T) {
	ctx := context.Background()
	seed := func() (*fakeEventRepo, *fakeImageStore, *fakeListCache) {
		repo := newFakeEventRepo()
		e := validNewEvent()
		e.ID = "ev-1"
		e.ReservedCount = 5
		e.ImageKey = "events/old"
		repo.byID[e.ID] = e
		return repo, &fakeImageStore{}, newFakeListCache()
	}

	t.Run("owner updates title", func(t *testing.T) {
		repo, images, cache := seed()
		title := "Renamed"
		got, err := newTestEventService(repo, images, cache).UpdateEvent(ctx, "ev-1", "owner-1", domain.EventPatch{Title: &title}, nil)
		require.NoError(t, err)
		assert.Equal(t, "Renamed", got.Title)
		assert.Empty(t, images.deleted)
		assert.Equal(t, 1, cache.invalidated)
	})

	t.Run("non owner forbidden", func(t *testing.T) {
		repo, images, _ := seed()
		title := "Hijack"
		_, err := newTestEventService(repo, images, nil).UpdateEvent(ctx, "ev-1", "intruder", domain.EventPatch{Title: &title}, nil)
		require.ErrorIs(t, err, domain.ErrForbidden)
	})

	t.Run("missing event", func(t *testing.T) {
		repo, images, _ := seed()
		_, err := newTestEventService(repo, images, nil).UpdateEvent(ctx, "nope", "owner-1", domain.EventPatch{}, nil)
		require.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("capacity below reserved", func(t *testing.T) {
		repo, images, _ := seed()
		capacity := 4
		_, err := newTestEventService(repo, images, nil).UpdateEvent(ctx, "ev-1", "owner-1", domain.EventPatch{Capacity: &capacity}, nil)
		require.ErrorIs(t, err, domain.ErrCapacityBelowReserved)
	})

	t.Run("capacity must be positive", func(t *testing.T) {
		repo, images, _ := seed()
		capacity := 0
		_, err := newTestEventService(repo, images, nil).UpdateEvent(ctx, "ev-1", "owner-1", domain.EventPatch{Capacity: &capacity}, nil)
		require.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("new image replaces and removes old", func(t *testing.T) {
		repo, images, _ := seed()
		got, err := newTestEventService(repo, images, nil).UpdateEvent(ctx, "ev-1", "owner-1", domain.EventPatch{}, testImage())
		require.NoError(t, err)
		assert.Equal(t, "events/img-1", got.ImageKey)
		assert.Equal(t, []string{"events/old"}, images.deleted)
	})

	t.Run("failed update discards new image", func(t *testing.T) {
		repo, images, _ := seed()
		repo.updateErr = errBoom
		_, err := newTestEventService(repo, images, nil).UpdateEvent(ctx, "ev-1", "owner-1", domain.EventPatch{}, testImage())
		require.ErrorIs(t, err, errBoom)
		assert.Equal(t, []string{"events/img-1"}, images.deleted)
	})

	t.Run("image cleanup failure is not returned", func(t *testing.T) {
		repo, images, _ := seed()
		images.deleteErr = errBoom
		_, err := newTestEventService(repo, images, nil).UpdateEvent(ctx, "ev-1", "owner-1", domain.EventPatch{}, testImage())
		require.NoError(t, err)
	})
}

func TestEventService_DeleteEvent(t *testing.T) {
	ctx := context.Background()
	repo, images, cache := newFakeEventRepo(), &fakeImageStore{}, newFakeListCache()
	e := validNewEvent()
	e.ID = "ev-1"
	e.ImageKey = "events/a"
	repo.byID[e.ID] = e
	svc := newTestEventService(repo, images, cache)

	require.ErrorIs(t, svc.DeleteEvent(ctx, "ev-1", "intruder"), domain.ErrForbidden)
	require.NoError(t, svc.DeleteEvent(ctx, "ev-1", "owner-1"))
	assert.Equal(t, []string{"events/a"}, images.deleted)
	assert.Equal(t, 1, cache.invalidated)
	require.ErrorIs(t, svc.DeleteEvent(ctx, "ev-1", "owner-1"), domain.ErrNotFound)
}

func TestEventService_ListEventsUsesCache(t *testing.T) {
	ctx := context.Background()
	repo, cache := newFakeEventRepo(), newFakeListCache()
	e := validNewEvent()
	e.ID = "ev-1"
	repo.byID[e.ID] = e
	svc := newTestEventService(repo, &fakeImageStore{}, cache)

	filter := domain.EventFilter{Category: "tech"}
	page := domain.PaginationParams{Page: 1, PageSize: 10}

	first, err := svc.ListEvents(ctx, filter, page)
	require.NoError(t, err)
	second, err := svc.ListEvents(ctx, filter, page)
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Equal(t, 1, repo.listCalls)

	_, err = svc.ListEvents(ctx, domain.EventFilter{Category: "music"}, page)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
}

func TestEventService_ListEventsDropsPageReadBeforeInvalidate(t *testing.T) {
	ctx := context.Background()
	repo, cache := newFakeEventRepo(), newFakeListCache()
	e := validNewEvent()
	e.ID = "ev-1"
	repo.byID[e.ID] = e
	svc := newTestEventService(repo, &fakeImageStore{}, cache)

	filter := domain.EventFilter{Category: "tech"}
	page := domain.PaginationParams{Page: 1, PageSize: 10}

	// A write commits and invalidates while the first listing is between its
	// repository read and its cache write.
	repo.onList = func() {
		repo.onList = nil
		added := validNewEvent()
		added.ID = "ev-2"
		repo.byID[added.ID] = added
		cache.Invalidate(ctx)
	}

	stale, err := svc.ListEvents(ctx, filter, page)
	require.NoError(t, err)
	assert.Equal(t, 1, stale.Total)

	fresh, err := svc.ListEvents(ctx, filter, page)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
	assert.Equal(t, 2, fresh.Total)

	cached, err := svc.ListEvents(ctx, filter, page)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.listCalls)
	assert.Equal(t, 2, cached.Total)
}

func TestListCacheKey(t *testing.T) {
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.FixedZone("x", 3600))
	a := listCacheKey(domain.EventFilter{Search: " Go ", From: &from}, domain.PaginationParams{Page: 2, PageSize: 10})
	b := listCacheKey(domain.EventFilter{Search: "go", From: &from}, domain.PaginationParams{Page: 2, PageSize: 10})
	c := listCacheKey(domain.EventFilter{Search: "go", From: &from, SortDesc: true}, domain.PaginationParams{Page: 2, PageSize: 10})
	assert.Equal(t, a, b)
	assert.NotEqual(t, b, c)
	assert.Contains(t, a, "offset=10")
	assert.Contains(t, a, "from=2024-12-31T23%3A00%3A00Z")
}

func TestEventService_ListsForUser(t *testing.T) {
	ctx := context.Background()
	repo := newFakeEventRepo()
	e := validNewEvent()
	e.ID = "ev-1"
	repo.byID[e.ID] = e
	repo.attending["user-2"] = []string{"ev-1"}
	svc := newTestEventService(repo, &fakeImageStore{}, nil)

	created, err := svc.ListCreatedEvents(ctx, "owner-1")
	require.NoError(t, err)
	assert.Len(t, created, 1)

	attending, err := svc.ListAttendingEvents(ctx, "user-2")
	require.NoError(t, err)
	assert.Len(t, attending, 1)
}

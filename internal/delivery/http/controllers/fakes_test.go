package controllers

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"eventhub/internal/delivery/http/helpers"
	"eventhub/internal/delivery/http/middleware"
	"eventhub/internal/domain"

	"github.com/stretchr/testify/require"
)

// testLogger is a no-op logger for controller tests so we don't assert on log output.
var testLogger = slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))

const (
	testEventID = "6f1c2a4e-3b7d-4e8a-9c0f-1a2b3c4d5e6f"
	testUserID  = "user-1"
)

// serve routes req through a mux so path values resolve, optionally as userID.
func serve(pattern string, handler http.HandlerFunc, req *http.Request, userID string) *httptest.ResponseRecorder {
	mux := http.NewServeMux()
	mux.HandleFunc(pattern, handler)
	if userID != "" {
		req = req.WithContext(middleware.WithUserID(req.Context(), userID))
	}
	rr := httptest.NewRecorder()
	mux.ServeHTTP(rr, req)
	return rr
}

func decodeData[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var envelope struct {
		Data  T                 `json:"data"`
		Error *helpers.APIError `json:"error"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	require.Nil(t, envelope.Error)
	return envelope.Data
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) helpers.APIError {
	t.Helper()
	var envelope helpers.APIResponse
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&envelope))
	require.NotNil(t, envelope.Error)
	return *envelope.Error
}

// fakeEventService implements domain.EventService for handler tests.
type fakeEventService struct {
	createErr   error
	getResult   *domain.Event
	getErr      error
	listResult  *domain.EventPage
	listErr     error
	updateErr   error
	deleteErr   error
	created     []*domain.Event
	attending   []*domain.Event
	owned       []*domain.Event
	lastImage   *domain.Image
	lastFilter  domain.EventFilter
	lastPage    domain.PaginationParams
	lastPatch   domain.EventPatch
	lastID      string
	lastEditor  string
	lastOwnerID string
}

func (f *fakeEventService) CreateEvent(_ context.Context, e *domain.Event, img *domain.Image) error {
	f.lastImage = img
	if f.createErr != nil {
		return f.createErr
	}
	e.ID = testEventID
	f.created = append(f.created, e)
	return nil
}

func (f *fakeEventService) GetEvent(_ context.Context, id string) (*domain.Event, error) {
	f.lastID = id
	return f.getResult, f.getErr
}

func (f *fakeEventService) ListEvents(_ context.Context, filter domain.EventFilter, page domain.PaginationParams) (*domain.EventPage, error) {
	f.lastFilter = filter
	f.lastPage = page
	if f.listErr != nil {
		return nil, f.listErr
	}
	if f.listResult == nil {
		return &domain.EventPage{}, nil
	}
	return f.listResult, nil
}

func (f *fakeEventService) UpdateEvent(_ context.Context, id, editorID string, patch domain.EventPatch, img *domain.Image) (*domain.Event, error) {
	f.lastID, f.lastEditor, f.lastPatch, f.lastImage = id, editorID, patch, img
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	return &domain.Event{ID: id, Title: "updated", CreatedBy: editorID}, nil
}

func (f *fakeEventService) DeleteEvent(_ context.Context, id, editorID string) error {
	f.lastID, f.lastEditor = id, editorID
	return f.deleteErr
}

func (f *fakeEventService) ListCreatedEvents(_ context.Context, userID string) ([]*domain.Event, error) {
	f.lastOwnerID = userID
	return f.owned, nil
}

func (f *fakeEventService) ListAttendingEvents(_ context.Context, userID string) ([]*domain.Event, error) {
	f.lastOwnerID = userID
	return f.attending, nil
}

// fakeRSVPService implements domain.RSVPService.
type fakeRSVPService struct {
	event     *domain.Event
	err       error
	lastEvent string
	lastUser  string
}

func (f *fakeRSVPService) Join(_ context.Context, eventID, attendeeID string) (*domain.Event, error) {
	f.lastEvent, f.lastUser = eventID, attendeeID
	return f.event, f.err
}

func (f *fakeRSVPService) Leave(_ context.Context, eventID, attendeeID string) (*domain.Event, error) {
	f.lastEvent, f.lastUser = eventID, attendeeID
	return f.event, f.err
}

// fakeAuthService implements domain.AuthService.
type fakeAuthService struct {
	token    string
	user     *domain.User
	err      error
	lastName string
	lastMail string
}

func (f *fakeAuthService) Register(_ context.Context, name, email, _ string) (string, *domain.User, error) {
	f.lastName, f.lastMail = name, email
	return f.token, f.user, f.err
}

func (f *fakeAuthService) Login(_ context.Context, email, _ string) (string, *domain.User, error) {
	f.lastMail = email
	return f.token, f.user, f.err
}

// fakeDescriptionService implements domain.DescriptionService.
type fakeDescriptionService struct {
	result string
	err    error
	last   domain.DescriptionPrompt
}

func (f *fakeDescriptionService) EnhanceDescription(_ context.Context, p domain.DescriptionPrompt) (string, error) {
	f.last = p
	return f.result, f.err
}

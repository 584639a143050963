package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
	"staffbot-backend/internal/security"
	"staffbot-backend/internal/service"
)

type stubAuth struct {
	token   string
	manager *domain.Identity
	err     error
}

func (s *stubAuth) Login(ctx context.Context, login, password string) (string, *domain.Identity, error) {
	return s.token, s.manager, s.err
}

type stubReports struct {
	rows      []*service.TrackRow
	submitted *domain.Report
	err       error
}

func (s *stubReports) Masters(ctx context.Context) ([]*domain.Site, []*domain.Drone, error) {
	return []*domain.Site{{ID: 1, Name: "North"}}, []*domain.Drone{{ID: 1, Name: "M350"}}, nil
}

func (s *stubReports) Submit(ctx context.Context, telegramID int64, in service.ReportInput) (*domain.Report, error) {
	return s.submitted, s.err
}

func (s *stubReports) GetReport(ctx context.Context, managerUserID, reportID int32) (*domain.Report, []*domain.ReportFlight, error) {
	return nil, nil, s.err
}

func (s *stubReports) UpdateReport(ctx context.Context, managerUserID, reportID int32, in service.ReportInput) error {
	return s.err
}

func (s *stubReports) Track(ctx context.Context, managerUserID int32, dates []string) ([]*service.TrackRow, error) {
	return s.rows, s.err
}

type stubUsers struct {
	user *domain.Identity
	err  error
}

func (s *stubUsers) GetByTelegramID(ctx context.Context, telegramID int64) (*domain.Identity, error) {
	return s.user, s.err
}
func (s *stubUsers) GetByID(ctx context.Context, id int32) (*domain.Identity, error) {
	return s.user, s.err
}
func (s *stubUsers) ListEmployees(ctx context.Context, managerID int32) ([]*domain.Identity, error) {
	return nil, nil
}
func (s *stubUsers) ListActiveEmployees(ctx context.Context, managerID int32) ([]*domain.Identity, error) {
	return nil, nil
}
func (s *stubUsers) ListActiveAdmins(ctx context.Context) ([]*domain.Identity, error) {
	return nil, nil
}
func (s *stubUsers) Deactivate(ctx context.Context, id int32) error { return nil }

func newTestServer(auth service.DashboardAuthService, reports service.ReportService, users *stubUsers, tokens *security.TokenManager) *Server {
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewServer(auth, reports, users, tokens, "12345:TOKEN", time.Hour, log)
}

func TestLogin_BadCredentials(t *testing.T) {
	tokens := security.NewTokenManager("secret", time.Hour)
	srv := newTestServer(&stubAuth{err: service.ErrUnauthorized}, &stubReports{}, &stubUsers{err: repository.ErrNotFound}, tokens)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"login":"x","password":"y"}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestLogin_Success(t *testing.T) {
	tokens := security.NewTokenManager("secret", time.Hour)
	srv := newTestServer(&stubAuth{
		token:   "signed-token",
		manager: &domain.Identity{ID: 7, Role: domain.RoleManager},
	}, &stubReports{}, &stubUsers{err: repository.ErrNotFound}, tokens)

	req := httptest.NewRequest(http.MethodPost, "/api/login", strings.NewReader(`{"login":"grace.h","password":"pw"}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "signed-token")
}

func TestTrack_RequiresToken(t *testing.T) {
	tokens := security.NewTokenManager("secret", time.Hour)
	srv := newTestServer(&stubAuth{}, &stubReports{}, &stubUsers{err: repository.ErrNotFound}, tokens)

	req := httptest.NewRequest(http.MethodGet, "/api/track", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTrack_WithValidToken(t *testing.T) {
	tokens := security.NewTokenManager("secret", time.Hour)
	srv := newTestServer(&stubAuth{}, &stubReports{rows: []*service.TrackRow{}}, &stubUsers{err: repository.ErrNotFound}, tokens)

	token, err := tokens.Generate(7, "grace.h")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/track?days=3", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dates")
}

func TestTrack_RejectsBadDays(t *testing.T) {
	tokens := security.NewTokenManager("secret", time.Hour)
	srv := newTestServer(&stubAuth{}, &stubReports{}, &stubUsers{err: repository.ErrNotFound}, tokens)

	token, err := tokens.Generate(7, "grace.h")
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/api/track?days=100", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSubmitReport_RequiresInitData(t *testing.T) {
	tokens := security.NewTokenManager("secret", time.Hour)
	srv := newTestServer(&stubAuth{}, &stubReports{}, &stubUsers{err: repository.ErrNotFound}, tokens)

	req := httptest.NewRequest(http.MethodPost, "/api/reports", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestVerify_BadInitData(t *testing.T) {
	tokens := security.NewTokenManager("secret", time.Hour)
	srv := newTestServer(&stubAuth{}, &stubReports{}, &stubUsers{err: repository.ErrNotFound}, tokens)

	req := httptest.NewRequest(http.MethodPost, "/api/verify", strings.NewReader(`{"init_data":"hash=ff&auth_date=1"}`))
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestMasters_Open(t *testing.T) {
	tokens := security.NewTokenManager("secret", time.Hour)
	srv := newTestServer(&stubAuth{}, &stubReports{}, &stubUsers{err: repository.ErrNotFound}, tokens)

	req := httptest.NewRequest(http.MethodGet, "/api/masters", nil)
	rec := httptest.NewRecorder()
	srv.Router().ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "North")
}

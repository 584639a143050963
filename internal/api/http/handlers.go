package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"staffbot-backend/internal/domain"
	"staffbot-backend/internal/repository"
	"staffbot-backend/internal/security"
	"staffbot-backend/internal/service"
)

type loginRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token   string           `json:"token"`
	Manager *domain.Identity `json:"manager"`
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	token, manager, err := s.auth.Login(r.Context(), strings.TrimSpace(req.Login), req.Password)
	if errors.Is(err, service.ErrUnauthorized) {
		writeError(w, http.StatusUnauthorized, "invalid login or password")
		return
	}
	if err != nil {
		s.logger.Error("login failed", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, loginResponse{Token: token, Manager: manager})
}

type verifyRequest struct {
	InitData string `json:"init_data"`
}

type verifyResponse struct {
	TelegramID int64       `json:"telegram_id"`
	Role       domain.Role `json:"role,omitempty"`
	IsActive   bool        `json:"is_active"`
	Enrolled   bool        `json:"enrolled"`
}

// handleVerify checks WebApp init data and reports the caller's membership,
// so the mini app can decide which screen to show.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	user, err := security.VerifyInitData(req.InitData, s.botToken, s.initDataMaxAge)
	if err != nil {
		writeError(w, http.StatusUnauthorized, "init data verification failed")
		return
	}

	resp := verifyResponse{TelegramID: user.ID}
	identity, err := s.users.GetByTelegramID(r.Context(), user.ID)
	if err == nil {
		resp.Enrolled = true
		resp.Role = identity.Role
		resp.IsActive = identity.IsActive
	} else if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Error("verify lookup failed", "telegram_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleMasters(w http.ResponseWriter, r *http.Request) {
	sites, drones, err := s.reports.Masters(r.Context())
	if err != nil {
		s.logger.Error("failed to load masters", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"sites":  sites,
		"drones": drones,
	})
}

func (s *Server) handleSubmitReport(w http.ResponseWriter, r *http.Request) {
	user := webAppUserFrom(r)
	var in service.ReportInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	report, err := s.reports.Submit(r.Context(), user.ID, in)
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusForbidden, "not an active employee")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid report fields")
	case errors.Is(err, repository.ErrDuplicateReport):
		writeError(w, http.StatusConflict, "report already submitted for this date")
	case err != nil:
		s.logger.Error("failed to submit report", "telegram_id", user.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusCreated, report)
	}
}

// handleTrack returns the submission track for the manager's employees. The
// range is ?start=YYYY-MM-DD&days=N, defaulting to the last 7 days.
func (s *Server) handleTrack(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)

	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 62 {
			writeError(w, http.StatusBadRequest, "days must be 1-62")
			return
		}
		days = n
	}
	start := time.Now().AddDate(0, 0, -(days - 1))
	if v := r.URL.Query().Get("start"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start must be YYYY-MM-DD")
			return
		}
		start = t
	}

	dates := make([]string, 0, days)
	for i := 0; i < days; i++ {
		dates = append(dates, start.AddDate(0, 0, i).Format("2006-01-02"))
	}

	rows, err := s.reports.Track(r.Context(), claims.UserID, dates)
	if err != nil {
		s.logger.Error("failed to build track", "user_id", claims.UserID, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"dates": dates,
		"rows":  rows,
	})
}

func reportID(r *http.Request) (int32, bool) {
	id, err := strconv.ParseInt(mux.Vars(r)["id"], 10, 32)
	if err != nil {
		return 0, false
	}
	return int32(id), true
}

func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := reportID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	report, flights, err := s.reports.GetReport(r.Context(), claims.UserID, id)
	if errors.Is(err, service.ErrUnauthorized) {
		writeError(w, http.StatusNotFound, "report not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get report", "report_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"report":  report,
		"flights": flights,
	})
}

func (s *Server) handleUpdateReport(w http.ResponseWriter, r *http.Request) {
	claims := claimsFrom(r)
	id, ok := reportID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid report id")
		return
	}

	var in service.ReportInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	err := s.reports.UpdateReport(r.Context(), claims.UserID, id, in)
	switch {
	case errors.Is(err, service.ErrUnauthorized):
		writeError(w, http.StatusNotFound, "report not found")
	case errors.Is(err, service.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid report fields")
	case err != nil:
		s.logger.Error("failed to update report", "report_id", id, "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	default:
		writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
	}
}

package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/brk3/habitbot/internal/logger"
	"github.com/brk3/habitbot/internal/stats"
	"github.com/brk3/habitbot/internal/storage"
	"github.com/brk3/habitbot/pkg/versioninfo"
)

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	if err := writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"}); err != nil {
		logger.Error("Failed to serialize health response", "error", err)
	}
}

func (s *Server) getVersionInfo(w http.ResponseWriter, _ *http.Request) {
	if err := writeJSON(w, http.StatusOK, versioninfo.Get()); err != nil {
		logger.Error("Failed to serialize version info response", "error", err)
		http.Error(w, `{"error":"failed to serialize version info"}`, http.StatusInternalServerError)
		return
	}
}

func (s *Server) getUserReport(w http.ResponseWriter, r *http.Request) {
	chatID, err := strconv.ParseInt(chi.URLParam(r, "chat_id"), 10, 64)
	if err != nil {
		logger.Warn("Invalid chat id", "chat_id", chi.URLParam(r, "chat_id"))
		http.Error(w, `{"error":"chat id must be an integer"}`, http.StatusBadRequest)
		return
	}

	period := stats.Week
	if q := r.URL.Query().Get("period"); q != "" {
		period, err = stats.ParsePeriod(q)
		if err != nil {
			logger.Warn("Invalid report period", "period", q)
			http.Error(w, `{"error":"period must be today, week or month"}`, http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	u, err := s.store.GetUserByChat(ctx, chatID)
	if errors.Is(err, storage.ErrNotFound) {
		http.Error(w, `{"error":"user not found"}`, http.StatusNotFound)
		return
	}
	if err != nil {
		logger.Error("Failed to load user", "chat_id", chatID, "error", err)
		http.Error(w, `{"error":"storage error"}`, http.StatusInternalServerError)
		return
	}

	report, err := stats.BuildReport(ctx, s.store, u.ID, period, s.now().In(s.loc))
	if err != nil {
		logger.Error("Failed to build report", "chat_id", chatID, "period", period, "error", err)
		http.Error(w, `{"error":"error building report"}`, http.StatusInternalServerError)
		return
	}
	logger.Debug("Built report", "chat_id", chatID, "period", period, "habits", len(report.Habits))

	if err := writeJSON(w, http.StatusOK, ReportResponse{ChatID: chatID, Report: report}); err != nil {
		logger.Error("Failed to serialize report response", "chat_id", chatID, "error", err)
		http.Error(w, `{"error":"failed to serialize response"}`, http.StatusInternalServerError)
		return
	}
}

package server

import (
	"github.com/brk3/habitbot/internal/stats"
)

type HealthResponse struct {
	Status string `json:"status"`
}

type ReportResponse struct {
	ChatID int64 `json:"chat_id"`
	stats.Report
}

// Package transport defines the analytics API response shapes.
package transport

import (
	"staffhub_backend/internal/analytics/engine"

	"github.com/google/uuid"
)

type AgentAnalytics struct {
	AgentID   uuid.UUID        `json:"agentId"`
	Name      string           `json:"name"`
	Analytics engine.Analytics `json:"analytics"`
}

type TeamAnalyticsResponse struct {
	Agents     []AgentAnalytics      `json:"agents"`
	Comparison engine.TeamComparison `json:"comparison"`
}

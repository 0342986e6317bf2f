package service

import (
	"time"

	"staffhub_backend/internal/pipeline/domain"
	"staffhub_backend/internal/pipeline/repository"
	"staffhub_backend/internal/pipeline/transport"

	"github.com/google/uuid"
)

func toLeadResponse(lead domain.Lead) transport.LeadResponse {
	return transport.LeadResponse{
		ID:               lead.ID,
		FirstName:        lead.FirstName,
		LastName:         lead.LastName,
		Phone:            lead.Phone,
		Email:            lead.Email,
		ProductInterests: lead.ProductInterests,
		Source:           lead.Source,
		Notes:            lead.Notes,
		CreatedAt:        lead.CreatedAt,
	}
}

func toCardResponse(card domain.Card, now time.Time) transport.CardResponse {
	resp := transport.CardResponse{
		ID:                   card.ID,
		LeadID:               card.LeadID,
		Stage:                string(card.Stage),
		Qualification:        string(card.Qualification),
		PreviousAgentID:      card.PreviousAgentID,
		DistributedAt:        card.DistributedAt,
		UpdatedAt:            card.UpdatedAt,
		TimeInStageSeconds:   int64(card.CurrentDwell(now) / time.Second),
		TotalPipelineSeconds: int64(card.TotalPipelineTime / time.Second),
		RecontactLoops:       card.RecontactLoops,
		StageHistory:         make([]transport.StageHistoryEntryResponse, 0, len(card.StageHistory)),
		Attempts:             make([]transport.AttemptResponse, 0, len(card.Attempts)),
		CreatedAt:            card.CreatedAt,
	}

	if card.CurrentAgentID != uuid.Nil {
		agent := card.CurrentAgentID
		resp.CurrentAgentID = &agent
	}

	for _, entry := range card.StageHistory {
		resp.StageHistory = append(resp.StageHistory, transport.StageHistoryEntryResponse{
			Stage:        string(entry.Stage),
			AgentID:      entry.AgentID,
			EnteredAt:    entry.EnteredAt,
			ExitedAt:     entry.ExitedAt,
			DwellSeconds: int64(entry.Dwell / time.Second),
			Notes:        entry.Notes,
		})
	}

	for _, attempt := range card.Attempts {
		resp.Attempts = append(resp.Attempts, toAttemptResponse(attempt))
	}

	if card.ScheduledRecontact != nil {
		resp.ScheduledRecontact = &transport.ScheduledRecontactResponse{
			ScheduledFor: card.ScheduledRecontact.ScheduledFor,
			Notes:        card.ScheduledRecontact.Notes,
		}
	}

	if card.Outcome != nil {
		resp.Outcome = &transport.OutcomeResponse{
			Qualification: string(card.Outcome.Qualification),
			Reason:        card.Outcome.Reason,
			AgentID:       card.Outcome.AgentID,
			ClosedAt:      card.Outcome.ClosedAt,
		}
	}

	return resp
}

func toAttemptResponse(attempt domain.ContactAttempt) transport.AttemptResponse {
	resp := transport.AttemptResponse{
		ID:         attempt.ID,
		CardID:     attempt.CardID,
		AgentID:    attempt.AgentID,
		Channel:    string(attempt.Channel),
		Result:     string(attempt.Result),
		Timestamp:  attempt.Timestamp,
		NextAction: attempt.NextAction,
	}
	if attempt.CallDuration != nil {
		seconds := int64(*attempt.CallDuration / time.Second)
		resp.CallDurationSeconds = &seconds
	}
	return resp
}

func toDistributionResponse(d repository.Distribution) transport.DistributionResponse {
	return transport.DistributionResponse{
		ID:              d.ID,
		CardID:          d.CardID,
		LeadID:          d.LeadID,
		AgentID:         d.AgentID,
		PreviousAgentID: d.PreviousAgent,
		Reason:          d.Reason,
		Notes:           d.Notes,
		CreatedAt:       d.CreatedAt,
	}
}

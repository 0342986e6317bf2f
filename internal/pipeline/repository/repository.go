package repository

import (
	"context"
	"errors"
	"time"

	"staffhub_backend/internal/pipeline/domain"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

var _ CardStore = (*Repository)(nil)
var _ DistributionStore = (*Repository)(nil)

func (r *Repository) CreateLead(ctx context.Context, lead domain.Lead) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO leads (id, first_name, last_name, phone, email, product_interests, source, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, lead.ID, lead.FirstName, lead.LastName, lead.Phone, lead.Email, lead.ProductInterests, lead.Source, lead.Notes, lead.CreatedAt)
	return err
}

func (r *Repository) GetLead(ctx context.Context, id uuid.UUID) (domain.Lead, error) {
	var lead domain.Lead
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, phone, email, product_interests, source, notes, created_at
		FROM leads WHERE id = $1
	`, id).Scan(&lead.ID, &lead.FirstName, &lead.LastName, &lead.Phone, &lead.Email,
		&lead.ProductInterests, &lead.Source, &lead.Notes, &lead.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Lead{}, ErrLeadNotFound
	}
	return lead, err
}

// UpdateLead updates the lead's mutable contact fields. Identity fields are
// immutable after intake.
func (r *Repository) UpdateLead(ctx context.Context, lead domain.Lead) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE leads SET phone = $2, email = $3, product_interests = $4, notes = $5
		WHERE id = $1
	`, lead.ID, lead.Phone, lead.Email, lead.ProductInterests, lead.Notes)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrLeadNotFound
	}
	return nil
}

func (r *Repository) CreateCard(ctx context.Context, card domain.Card) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if err := insertCardRow(ctx, tx, card); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, card); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// SaveCard swaps the stored card for the given value: the card row is
// updated and the stage history is rewritten inside one transaction. The
// history is append-only at the domain level; rewriting it here keeps the
// store a dumb mirror of the value.
func (r *Repository) SaveCard(ctx context.Context, card domain.Card) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx, `
		UPDATE pipeline_cards SET
			stage = $2, qualification = $3, current_agent_id = $4, previous_agent_id = $5,
			distributed_at = $6, updated_at = $7, total_pipeline_seconds = $8, recontact_loops = $9,
			recontact_scheduled_for = $10, recontact_notes = $11,
			outcome_qualification = $12, outcome_reason = $13, outcome_agent_id = $14, outcome_closed_at = $15
		WHERE id = $1
	`, card.ID, string(card.Stage), string(card.Qualification), card.CurrentAgentID, card.PreviousAgentID,
		card.DistributedAt, card.UpdatedAt, int64(card.TotalPipelineTime/time.Second), card.RecontactLoops,
		recontactFor(card), recontactNotes(card),
		outcomeQualification(card), outcomeReason(card), outcomeAgent(card), outcomeClosedAt(card))
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrCardNotFound
	}

	if _, err := tx.Exec(ctx, `DELETE FROM stage_history WHERE card_id = $1`, card.ID); err != nil {
		return err
	}
	if err := insertHistory(ctx, tx, card); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) GetCard(ctx context.Context, id uuid.UUID) (domain.Card, error) {
	card, err := r.scanCardRow(ctx, id)
	if err != nil {
		return domain.Card{}, err
	}

	history, err := r.loadHistory(ctx, id)
	if err != nil {
		return domain.Card{}, err
	}
	card.StageHistory = history

	attempts, err := r.ListAttempts(ctx, id)
	if err != nil {
		return domain.Card{}, err
	}
	card.Attempts = attempts

	return card, nil
}

func (r *Repository) ListCardsByAgent(ctx context.Context, agentID uuid.UUID) ([]domain.Card, error) {
	rows, err := r.pool.Query(ctx, `SELECT id FROM pipeline_cards WHERE current_agent_id = $1 ORDER BY updated_at DESC`, agentID)
	if err != nil {
		return nil, err
	}
	ids := make([]uuid.UUID, 0)
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return nil, err
		}
		ids = append(ids, id)
	}
	rows.Close()
	if rows.Err() != nil {
		return nil, rows.Err()
	}

	cards := make([]domain.Card, 0, len(ids))
	for _, id := range ids {
		card, err := r.GetCard(ctx, id)
		if err != nil {
			return nil, err
		}
		cards = append(cards, card)
	}
	return cards, nil
}

func (r *Repository) AppendAttempt(ctx context.Context, attempt domain.ContactAttempt) error {
	var durationSeconds *int64
	if attempt.CallDuration != nil {
		seconds := int64(*attempt.CallDuration / time.Second)
		durationSeconds = &seconds
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO contact_attempts (id, card_id, agent_id, channel, result, attempted_at, call_duration_seconds, next_action)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, attempt.ID, attempt.CardID, attempt.AgentID, string(attempt.Channel), string(attempt.Result),
		attempt.Timestamp, durationSeconds, attempt.NextAction)
	if err != nil {
		return err
	}

	if _, err := tx.Exec(ctx, `UPDATE pipeline_cards SET updated_at = $2 WHERE id = $1`, attempt.CardID, attempt.Timestamp); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *Repository) ListAttempts(ctx context.Context, cardID uuid.UUID) ([]domain.ContactAttempt, error) {
	return r.queryAttempts(ctx, `
		SELECT id, card_id, agent_id, channel, result, attempted_at, call_duration_seconds, next_action
		FROM contact_attempts WHERE card_id = $1 ORDER BY attempted_at ASC
	`, cardID)
}

func (r *Repository) ListAttemptsByAgent(ctx context.Context, agentID uuid.UUID) ([]domain.ContactAttempt, error) {
	return r.queryAttempts(ctx, `
		SELECT id, card_id, agent_id, channel, result, attempted_at, call_duration_seconds, next_action
		FROM contact_attempts WHERE agent_id = $1 ORDER BY attempted_at ASC
	`, agentID)
}

func (r *Repository) AppendDistribution(ctx context.Context, d Distribution) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO lead_distributions (id, card_id, lead_id, agent_id, previous_agent_id, reason, notes, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`, d.ID, d.CardID, d.LeadID, d.AgentID, d.PreviousAgent, d.Reason, d.Notes, d.CreatedAt)
	return err
}

func (r *Repository) ListDistributions(ctx context.Context, cardID uuid.UUID) ([]Distribution, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, card_id, lead_id, agent_id, previous_agent_id, reason, notes, created_at
		FROM lead_distributions WHERE card_id = $1 ORDER BY created_at ASC
	`, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]Distribution, 0)
	for rows.Next() {
		var d Distribution
		if err := rows.Scan(&d.ID, &d.CardID, &d.LeadID, &d.AgentID, &d.PreviousAgent, &d.Reason, &d.Notes, &d.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, d)
	}
	return items, rows.Err()
}

// =============================================================================
// internals
// =============================================================================

func (r *Repository) scanCardRow(ctx context.Context, id uuid.UUID) (domain.Card, error) {
	var (
		card            domain.Card
		stage           string
		qualification   string
		totalSeconds    int64
		recontactAt     *time.Time
		recontactNote   *string
		outQual         *string
		outReason       *string
		outAgent        *uuid.UUID
		outClosedAt     *time.Time
	)

	err := r.pool.QueryRow(ctx, `
		SELECT id, lead_id, stage, qualification, current_agent_id, previous_agent_id,
			distributed_at, updated_at, total_pipeline_seconds, recontact_loops,
			recontact_scheduled_for, recontact_notes,
			outcome_qualification, outcome_reason, outcome_agent_id, outcome_closed_at, created_at
		FROM pipeline_cards WHERE id = $1
	`, id).Scan(&card.ID, &card.LeadID, &stage, &qualification, &card.CurrentAgentID, &card.PreviousAgentID,
		&card.DistributedAt, &card.UpdatedAt, &totalSeconds, &card.RecontactLoops,
		&recontactAt, &recontactNote,
		&outQual, &outReason, &outAgent, &outClosedAt, &card.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Card{}, ErrCardNotFound
	}
	if err != nil {
		return domain.Card{}, err
	}

	card.Stage = domain.Stage(stage)
	card.Qualification = domain.Qualification(qualification)
	card.TotalPipelineTime = time.Duration(totalSeconds) * time.Second

	if recontactAt != nil {
		sr := domain.ScheduledRecontact{ScheduledFor: *recontactAt}
		if recontactNote != nil {
			sr.Notes = *recontactNote
		}
		card.ScheduledRecontact = &sr
	}

	if outQual != nil && outAgent != nil && outClosedAt != nil {
		o := domain.Outcome{
			Qualification: domain.Qualification(*outQual),
			AgentID:       *outAgent,
			ClosedAt:      *outClosedAt,
		}
		if outReason != nil {
			o.Reason = *outReason
		}
		card.Outcome = &o
	}

	return card, nil
}

func (r *Repository) loadHistory(ctx context.Context, cardID uuid.UUID) ([]domain.StageHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT stage, agent_id, entered_at, exited_at, dwell_seconds, notes
		FROM stage_history WHERE card_id = $1 ORDER BY position ASC
	`, cardID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	history := make([]domain.StageHistoryEntry, 0)
	for rows.Next() {
		var (
			entry        domain.StageHistoryEntry
			stage        string
			dwellSeconds int64
		)
		if err := rows.Scan(&stage, &entry.AgentID, &entry.EnteredAt, &entry.ExitedAt, &dwellSeconds, &entry.Notes); err != nil {
			return nil, err
		}
		entry.Stage = domain.Stage(stage)
		entry.Dwell = time.Duration(dwellSeconds) * time.Second
		history = append(history, entry)
	}
	return history, rows.Err()
}

func (r *Repository) queryAttempts(ctx context.Context, query string, arg any) ([]domain.ContactAttempt, error) {
	rows, err := r.pool.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := make([]domain.ContactAttempt, 0)
	for rows.Next() {
		var (
			a               domain.ContactAttempt
			channel         string
			result          string
			durationSeconds *int64
		)
		if err := rows.Scan(&a.ID, &a.CardID, &a.AgentID, &channel, &result, &a.Timestamp, &durationSeconds, &a.NextAction); err != nil {
			return nil, err
		}
		a.Channel = domain.Channel(channel)
		a.Result = domain.Result(result)
		if durationSeconds != nil {
			d := time.Duration(*durationSeconds) * time.Second
			a.CallDuration = &d
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func insertCardRow(ctx context.Context, tx pgx.Tx, card domain.Card) error {
	_, err := tx.Exec(ctx, `
		INSERT INTO pipeline_cards (
			id, lead_id, stage, qualification, current_agent_id, previous_agent_id,
			distributed_at, updated_at, total_pipeline_seconds, recontact_loops,
			recontact_scheduled_for, recontact_notes,
			outcome_qualification, outcome_reason, outcome_agent_id, outcome_closed_at, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`, card.ID, card.LeadID, string(card.Stage), string(card.Qualification), card.CurrentAgentID, card.PreviousAgentID,
		card.DistributedAt, card.UpdatedAt, int64(card.TotalPipelineTime/time.Second), card.RecontactLoops,
		recontactFor(card), recontactNotes(card),
		outcomeQualification(card), outcomeReason(card), outcomeAgent(card), outcomeClosedAt(card), card.CreatedAt)
	return err
}

func insertHistory(ctx context.Context, tx pgx.Tx, card domain.Card) error {
	for i, entry := range card.StageHistory {
		_, err := tx.Exec(ctx, `
			INSERT INTO stage_history (card_id, position, stage, agent_id, entered_at, exited_at, dwell_seconds, notes)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, card.ID, i, string(entry.Stage), entry.AgentID, entry.EnteredAt, entry.ExitedAt,
			int64(entry.Dwell/time.Second), entry.Notes)
		if err != nil {
			return err
		}
	}
	return nil
}

func recontactFor(card domain.Card) *time.Time {
	if card.ScheduledRecontact == nil {
		return nil
	}
	t := card.ScheduledRecontact.ScheduledFor
	return &t
}

func recontactNotes(card domain.Card) *string {
	if card.ScheduledRecontact == nil {
		return nil
	}
	s := card.ScheduledRecontact.Notes
	return &s
}

func outcomeQualification(card domain.Card) *string {
	if card.Outcome == nil {
		return nil
	}
	s := string(card.Outcome.Qualification)
	return &s
}

func outcomeReason(card domain.Card) *string {
	if card.Outcome == nil {
		return nil
	}
	s := card.Outcome.Reason
	return &s
}

func outcomeAgent(card domain.Card) *uuid.UUID {
	if card.Outcome == nil {
		return nil
	}
	id := card.Outcome.AgentID
	return &id
}

func outcomeClosedAt(card domain.Card) *time.Time {
	if card.Outcome == nil {
		return nil
	}
	t := card.Outcome.ClosedAt
	return &t
}

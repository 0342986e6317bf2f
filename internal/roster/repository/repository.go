// Package repository persists the commercial team roster.
package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a team member does not exist.
var ErrNotFound = errors.New("team member not found")

// Member is an active commercial agent with capacity and routing metadata.
// ActiveLeadCount is mutated only through TryAcquire/Release so the
// capacity invariant holds under concurrent distribution.
type Member struct {
	ID                 uuid.UUID
	Name               string
	Email              string
	Active             bool
	MaxConcurrentLeads int
	ActiveLeadCount    int
	PriorityRank       int
	Specializations    []string
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

type Repository struct {
	pool *pgxpool.Pool
}

func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const memberColumns = `id, name, email, active, max_concurrent_leads, active_lead_count, priority_rank, specializations, created_at, updated_at`

func scanMember(row pgx.Row) (Member, error) {
	var m Member
	err := row.Scan(&m.ID, &m.Name, &m.Email, &m.Active, &m.MaxConcurrentLeads,
		&m.ActiveLeadCount, &m.PriorityRank, &m.Specializations, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Member{}, ErrNotFound
	}
	return m, err
}

type CreateMemberParams struct {
	Name               string
	Email              string
	MaxConcurrentLeads int
	PriorityRank       int
	Specializations    []string
}

func (r *Repository) Create(ctx context.Context, params CreateMemberParams) (Member, error) {
	row := r.pool.QueryRow(ctx, `
		INSERT INTO commercial_team_members (name, email, active, max_concurrent_leads, priority_rank, specializations)
		VALUES ($1, $2, true, $3, $4, $5)
		RETURNING `+memberColumns,
		params.Name, params.Email, params.MaxConcurrentLeads, params.PriorityRank, params.Specializations)
	return scanMember(row)
}

func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Member, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+memberColumns+` FROM commercial_team_members WHERE id = $1`, id)
	return scanMember(row)
}

func (r *Repository) List(ctx context.Context) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM commercial_team_members
		ORDER BY priority_rank ASC, name ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

// ListActive returns active members ordered by distribution priority.
func (r *Repository) ListActive(ctx context.Context) ([]Member, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+memberColumns+`
		FROM commercial_team_members
		WHERE active = true
		ORDER BY priority_rank ASC, active_lead_count ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := make([]Member, 0)
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		members = append(members, m)
	}
	return members, rows.Err()
}

type UpdateMemberParams struct {
	Active             *bool
	MaxConcurrentLeads *int
	PriorityRank       *int
	Specializations    []string
}

func (r *Repository) Update(ctx context.Context, id uuid.UUID, params UpdateMemberParams) (Member, error) {
	row := r.pool.QueryRow(ctx, `
		UPDATE commercial_team_members SET
			active = COALESCE($2, active),
			max_concurrent_leads = COALESCE($3, max_concurrent_leads),
			priority_rank = COALESCE($4, priority_rank),
			specializations = COALESCE($5, specializations),
			updated_at = now()
		WHERE id = $1
		RETURNING `+memberColumns,
		id, params.Active, params.MaxConcurrentLeads, params.PriorityRank, params.Specializations)
	return scanMember(row)
}

// TryAcquire atomically claims one unit of the member's capacity. It returns
// false when the member is inactive or already at capacity, so the caller can
// move on to the next candidate.
func (r *Repository) TryAcquire(ctx context.Context, id uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE commercial_team_members
		SET active_lead_count = active_lead_count + 1, updated_at = now()
		WHERE id = $1 AND active = true AND active_lead_count < max_concurrent_leads
	`, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Release returns one unit of capacity. The floor guard keeps retried
// releases from driving the counter negative.
func (r *Repository) Release(ctx context.Context, id uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `
		UPDATE commercial_team_members
		SET active_lead_count = GREATEST(active_lead_count - 1, 0), updated_at = now()
		WHERE id = $1
	`, id)
	return err
}

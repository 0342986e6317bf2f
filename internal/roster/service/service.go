// Package service implements roster administration: capacity and activity
// changes arrive here; load counters are owned by the distribution path.
package service

import (
	"context"
	"errors"

	"staffhub_backend/internal/roster/repository"
	"staffhub_backend/internal/roster/transport"
	"staffhub_backend/platform/apperr"

	"github.com/google/uuid"
)

type Service struct {
	repo *repository.Repository
}

func New(repo *repository.Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Create(ctx context.Context, req transport.CreateMemberRequest) (transport.MemberResponse, error) {
	member, err := s.repo.Create(ctx, repository.CreateMemberParams{
		Name:               req.Name,
		Email:              req.Email,
		MaxConcurrentLeads: req.MaxConcurrentLeads,
		PriorityRank:       req.PriorityRank,
		Specializations:    req.Specializations,
	})
	if err != nil {
		return transport.MemberResponse{}, apperr.Wrap(apperr.KindInternal, "create team member", err)
	}
	return toMemberResponse(member), nil
}

func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (transport.MemberResponse, error) {
	member, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.MemberResponse{}, apperr.NotFound("team member not found")
		}
		return transport.MemberResponse{}, apperr.Wrap(apperr.KindInternal, "load team member", err)
	}
	return toMemberResponse(member), nil
}

func (s *Service) List(ctx context.Context) ([]transport.MemberResponse, error) {
	members, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "list team members", err)
	}
	out := make([]transport.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, toMemberResponse(m))
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, id uuid.UUID, req transport.UpdateMemberRequest) (transport.MemberResponse, error) {
	member, err := s.repo.Update(ctx, id, repository.UpdateMemberParams{
		Active:             req.Active,
		MaxConcurrentLeads: req.MaxConcurrentLeads,
		PriorityRank:       req.PriorityRank,
		Specializations:    req.Specializations,
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return transport.MemberResponse{}, apperr.NotFound("team member not found")
		}
		return transport.MemberResponse{}, apperr.Wrap(apperr.KindInternal, "update team member", err)
	}
	return toMemberResponse(member), nil
}

func toMemberResponse(m repository.Member) transport.MemberResponse {
	return transport.MemberResponse{
		ID:                 m.ID,
		Name:               m.Name,
		Email:              m.Email,
		Active:             m.Active,
		MaxConcurrentLeads: m.MaxConcurrentLeads,
		ActiveLeadCount:    m.ActiveLeadCount,
		PriorityRank:       m.PriorityRank,
		Specializations:    m.Specializations,
		CreatedAt:          m.CreatedAt,
		UpdatedAt:          m.UpdatedAt,
	}
}

package service

import (
	"context"
	"sort"

	rosterrepo "staffhub_backend/internal/roster/repository"

	"github.com/google/uuid"
)

// RosterStore is the slice of the roster repository the distribution path
// needs: candidate listing plus the atomic capacity counters.
type RosterStore interface {
	ListActive(ctx context.Context) ([]rosterrepo.Member, error)
	TryAcquire(ctx context.Context, id uuid.UUID) (bool, error)
	Release(ctx context.Context, id uuid.UUID) error
}

// rankCandidates orders eligible agents for a lead: agents whose
// specializations intersect the lead's product interests come first, then
// lower priority rank, then lower current load. Inactive, full, and excluded
// agents are filtered out. The sort is stable so equal candidates keep the
// roster's priority ordering.
func rankCandidates(members []rosterrepo.Member, interests []string, exclude *uuid.UUID) []rosterrepo.Member {
	interestSet := make(map[string]struct{}, len(interests))
	for _, i := range interests {
		interestSet[i] = struct{}{}
	}

	matches := func(m rosterrepo.Member) bool {
		for _, s := range m.Specializations {
			if _, ok := interestSet[s]; ok {
				return true
			}
		}
		return false
	}

	eligible := make([]rosterrepo.Member, 0, len(members))
	for _, m := range members {
		if !m.Active || m.ActiveLeadCount >= m.MaxConcurrentLeads {
			continue
		}
		if exclude != nil && m.ID == *exclude {
			continue
		}
		eligible = append(eligible, m)
	}

	sort.SliceStable(eligible, func(i, j int) bool {
		mi, mj := eligible[i], eligible[j]
		si, sj := matches(mi), matches(mj)
		if si != sj {
			return si
		}
		if mi.PriorityRank != mj.PriorityRank {
			return mi.PriorityRank < mj.PriorityRank
		}
		return mi.ActiveLeadCount < mj.ActiveLeadCount
	})

	return eligible
}

// acquireAgent walks the ranked candidates and claims the first one whose
// capacity slot can be taken atomically. The roster snapshot may be stale by
// the time we acquire, so TryAcquire re-checks capacity in the database and
// a refusal just moves on to the next candidate.
func (s *Service) acquireAgent(ctx context.Context, interests []string, exclude *uuid.UUID) (rosterrepo.Member, bool, error) {
	members, err := s.roster.ListActive(ctx)
	if err != nil {
		return rosterrepo.Member{}, false, err
	}

	for _, candidate := range rankCandidates(members, interests, exclude) {
		ok, err := s.roster.TryAcquire(ctx, candidate.ID)
		if err != nil {
			return rosterrepo.Member{}, false, err
		}
		if ok {
			return candidate, true, nil
		}
	}

	return rosterrepo.Member{}, false, nil
}

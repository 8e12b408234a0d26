package services

import (
	"context"
	"fmt"

	"tripsplit/internal/core"
)

// SummaryService reconstructs consolidated trip views from the ledger.
// Both operations are pure reads.
type SummaryService struct {
	store Store
}

func NewSummaryService(store Store) *SummaryService {
	return &SummaryService{store: store}
}

// TripSummary returns every ledger entry of a group in full, plus the
// sum of everything its members paid. A group with no ledger data at
// all yields core.ErrNoLedgerData; members who were never referenced by
// a contribution have no entry and do not appear.
func (s *SummaryService) TripSummary(ctx context.Context, group string) (core.TripSummary, error) {
	entries, err := s.store.ListLedgerEntries(ctx, group)
	if err != nil {
		return core.TripSummary{}, fmt.Errorf("list ledger entries: %w", err)
	}
	if len(entries) == 0 {
		return core.TripSummary{}, core.ErrNoLedgerData
	}

	summary := core.TripSummary{
		GroupName: group,
		Members:   make([]core.MemberSummary, 0, len(entries)),
	}
	for _, e := range entries {
		summary.TotalTripBudget += e.TotalPaid
		summary.Members = append(summary.Members, core.MemberSummary{
			Name:               e.MemberName,
			TotalPaid:          e.TotalPaid,
			TotalOwed:          e.TotalOwed,
			GivesTo:            e.GivesTo,
			GetsFrom:           e.GetsFrom,
			LatestActivityName: e.LatestActivityName,
			Activities:         e.Activities,
		})
	}
	return summary, nil
}

// GroupBalance joins the directory roster with the ledger: only roster
// members that already have ledger activity show up in PerMember, and a
// missing group-total record reads as zero rather than an error.
func (s *SummaryService) GroupBalance(ctx context.Context, group string) (core.GroupBalance, error) {
	g, err := s.store.GetGroup(ctx, group)
	if err != nil {
		return core.GroupBalance{}, err
	}

	briefs, err := s.store.ListMemberBriefs(ctx, group, g.Members)
	if err != nil {
		return core.GroupBalance{}, fmt.Errorf("list member briefs: %w", err)
	}

	total, err := s.store.GetGroupTotal(ctx, group)
	if err != nil {
		return core.GroupBalance{}, fmt.Errorf("get group total: %w", err)
	}

	return core.GroupBalance{
		GroupName:   group,
		Members:     g.Members,
		TotalAmount: total,
		PerMember:   briefs,
	}, nil
}

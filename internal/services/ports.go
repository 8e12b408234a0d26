package services

import (
	"context"

	"tripsplit/internal/core"
)

// Store is the persistence collaborator for the group directory, the
// balance ledger, and the group totals. Both the SQLite repository and
// the in-memory store implement it.
type Store interface {
	CreateGroup(ctx context.Context, g core.Group) error
	GetGroup(ctx context.Context, name string) (core.Group, error)

	// ApplyPosting applies every mutation of one contribution as a
	// single logical operation.
	ApplyPosting(ctx context.Context, contributionID string, p core.Posting) error

	ListLedgerEntries(ctx context.Context, group string) ([]core.LedgerEntry, error)
	ListMemberBriefs(ctx context.Context, group string, members []string) ([]core.MemberBrief, error)
	GetGroupTotal(ctx context.Context, group string) (float64, error)

	Close() error
}

// Publisher emits contribution-posted events for the sheet-sync worker.
type Publisher interface {
	PublishContributionPosted(ctx context.Context, group, contributionID string) error
}

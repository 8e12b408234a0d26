package worker

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"tripsplit/internal/amqp"
	"tripsplit/internal/core"
	"tripsplit/internal/services"
	"tripsplit/internal/sheets"
)

// SyncStateStore tracks which groups changed since their last mirror.
type SyncStateStore interface {
	ListDirtyGroups(ctx context.Context) ([]string, error)
	ClearDirty(ctx context.Context, group string) error
}

// SyncWorker mirrors group balances to the shared sheet, driven by
// contribution events with a periodic sweep for anything missed.
type SyncWorker struct {
	summary *services.SummaryService
	sheets  sheets.SummaryWriter
	state   SyncStateStore
}

func NewSyncWorker(summary *services.SummaryService, writer sheets.SummaryWriter, state SyncStateStore) *SyncWorker {
	return &SyncWorker{
		summary: summary,
		sheets:  writer,
		state:   state,
	}
}

// HandleContributionPosted processes one contribution event from AMQP.
func (w *SyncWorker) HandleContributionPosted(ctx context.Context, msg *amqp.ContributionPostedMessage) error {
	slog.InfoContext(ctx, "Processing contribution event",
		"group", msg.GroupName,
		"contribution_id", msg.ContributionID)

	return w.syncGroup(ctx, msg.GroupName)
}

// ProcessDirtyGroups sweeps every group whose ledger changed since its
// last successful mirror. Covers events lost while the broker or the
// worker was down.
func (w *SyncWorker) ProcessDirtyGroups(ctx context.Context) error {
	groups, err := w.state.ListDirtyGroups(ctx)
	if err != nil {
		return fmt.Errorf("list dirty groups: %w", err)
	}
	if len(groups) == 0 {
		return nil
	}

	slog.InfoContext(ctx, "Resyncing dirty groups", "count", len(groups))

	var firstErr error
	for _, g := range groups {
		if err := w.syncGroup(ctx, g); err != nil {
			slog.ErrorContext(ctx, "Failed to resync group", "group", g, "error", err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (w *SyncWorker) syncGroup(ctx context.Context, group string) error {
	balance, err := w.summary.GroupBalance(ctx, group)
	if errors.Is(err, core.ErrGroupNotFound) {
		// Explicit-share postings can touch ledgers of groups that were
		// never registered in the directory. Nothing to mirror.
		slog.WarnContext(ctx, "Skipping sync for unregistered group", "group", group)
		return w.state.ClearDirty(ctx, group)
	}
	if err != nil {
		return fmt.Errorf("load group balance: %w", err)
	}

	if err := w.sheets.WriteGroupBalance(ctx, balance); err != nil {
		return fmt.Errorf("write group balance: %w", err)
	}

	if err := w.state.ClearDirty(ctx, group); err != nil {
		return fmt.Errorf("clear dirty flag: %w", err)
	}

	slog.InfoContext(ctx, "Group balance mirrored",
		"group", group,
		"members", len(balance.PerMember),
		"total", balance.TotalAmount)

	return nil
}

package sheets

import (
	"context"

	"tripsplit/internal/core"
)

// Ports for outbound adapters.
type (
	// SummaryWriter mirrors a group's balance view to a shared sheet
	// the trip members can open.
	SummaryWriter interface {
		WriteGroupBalance(ctx context.Context, b core.GroupBalance) error
	}
)

package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"tripsplit/internal/core"
)

// ContributionService fans payment events out into the balance ledger
// and notifies the sheet-sync worker.
type ContributionService struct {
	store     Store
	publisher Publisher
}

// PostResult echoes back what a posted contribution did. Members and
// PerPerson are only set by the modes that resolve the roster.
type PostResult struct {
	ContributionID string
	Mode           core.SplitMode
	Members        []string
	PerPerson      float64
}

func NewContributionService(store Store, publisher Publisher) *ContributionService {
	return &ContributionService{store: store, publisher: publisher}
}

// Post validates and applies one contribution. For the custom and equal
// modes the group roster is resolved first and a missing group fails
// the whole call before anything is written. The explicit mode never
// consults the directory.
func (s *ContributionService) Post(ctx context.Context, c core.Contribution) (PostResult, error) {
	if err := c.Validate(); err != nil {
		return PostResult{}, err
	}

	var roster []string
	if c.Mode != core.SplitExplicit {
		group, err := s.store.GetGroup(ctx, c.GroupName)
		if err != nil {
			if errors.Is(err, core.ErrGroupNotFound) {
				return PostResult{}, core.ErrGroupNotFound
			}
			return PostResult{}, fmt.Errorf("resolve group roster: %w", err)
		}
		roster = group.Members
	}

	posting, err := core.BuildPosting(c, roster, time.Now().UTC())
	if err != nil {
		return PostResult{}, err
	}

	id := uuid.NewString()
	if err := s.store.ApplyPosting(ctx, id, posting); err != nil {
		return PostResult{}, fmt.Errorf("apply posting: %w", err)
	}

	// The posting is committed at this point; a publish failure only
	// delays the sheet mirror, which the worker's periodic resync
	// covers.
	if s.publisher != nil {
		if err := s.publisher.PublishContributionPosted(ctx, c.GroupName, id); err != nil {
			slog.ErrorContext(ctx, "Failed to publish contribution event",
				"contribution_id", id,
				"group", c.GroupName,
				"error", err)
		}
	}

	return PostResult{
		ContributionID: id,
		Mode:           c.Mode,
		Members:        posting.Participants,
		PerPerson:      posting.PerPerson,
	}, nil
}

// Package core holds the splitting and ledger model shared by the API
// server and the sync worker.
//
// Amounts are plain float64 values. The splitter divides totals with
// floating-point division and no rounding policy is applied beyond it.
package core

import (
	"errors"
	"strings"
)

const (
	// SplitExplicit posts each listed friend's own amount as a direct
	// payment; no debt edges are created.
	SplitExplicit SplitMode = "explicit"
	// SplitCustom fans caller-chosen share amounts out as debt edges
	// toward the payer.
	SplitCustom SplitMode = "custom"
	// SplitEqual divides the total evenly across the resolved
	// participant set.
	SplitEqual SplitMode = "equal"
)

type (
	SplitMode string

	// Group is the directory record for one trip group. The ledger core
	// only ever reads it; creation happens once through the group glue.
	Group struct {
		Name        string
		Members     []string
		SecretHash  string
		Destination string
	}

	// Share is one (member, amount) pair from a selectedFriends or
	// customSplit list.
	Share struct {
		Name   string
		Amount float64
	}

	// Contribution is one payment event to be fanned out across a
	// group. Amount is the caller-supplied total; for custom splits it
	// is trusted as-is even when the shares sum to something else.
	Contribution struct {
		PayerName    string
		Amount       float64
		ActivityName string
		GroupName    string
		Mode         SplitMode
		Shares       []Share
	}
)

var (
	ErrGroupNotFound  = errors.New("group not found")
	ErrGroupExists    = errors.New("group already exists")
	ErrNoLedgerData   = errors.New("no ledger data for group")
	ErrInvalidAmount  = errors.New("invalid amount")
	ErrEmptyPayer     = errors.New("empty payer name")
	ErrEmptyActivity  = errors.New("empty activity name")
	ErrEmptyGroupName = errors.New("empty group name")
	ErrNoMembers      = errors.New("group needs at least one member")
	ErrNoParticipants = errors.New("no participants to split between")
	ErrEmptySecret    = errors.New("empty group secret")
	ErrSecretMismatch = errors.New("group secret does not match")
)

func (g Group) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return ErrEmptyGroupName
	}
	members := 0
	for _, m := range g.Members {
		if strings.TrimSpace(m) != "" {
			members++
		}
	}
	if members == 0 {
		return ErrNoMembers
	}
	return nil
}

// HasMember reports whether name is part of the group roster.
func (g Group) HasMember(name string) bool {
	for _, m := range g.Members {
		if m == name {
			return true
		}
	}
	return false
}

func (c Contribution) Validate() error {
	if strings.TrimSpace(c.PayerName) == "" {
		return ErrEmptyPayer
	}
	if strings.TrimSpace(c.ActivityName) == "" {
		return ErrEmptyActivity
	}
	if strings.TrimSpace(c.GroupName) == "" {
		return ErrEmptyGroupName
	}
	if err := ValidateAmount(c.Amount); err != nil {
		return err
	}
	switch c.Mode {
	case SplitExplicit, SplitCustom, SplitEqual:
		return nil
	default:
		return errors.New("invalid split mode: " + string(c.Mode))
	}
}

// ResolveMode picks the split mode the way the API always has: an
// explicit friend list wins over a custom split, and with neither the
// contribution falls back to an equal split.
func ResolveMode(selectedFriends, customSplit []Share) SplitMode {
	switch {
	case len(selectedFriends) > 0:
		return SplitExplicit
	case len(customSplit) > 0:
		return SplitCustom
	default:
		return SplitEqual
	}
}

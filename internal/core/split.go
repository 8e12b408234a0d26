package core

import (
	"math"
	"strings"
	"time"
)

type (
	// Credit bumps a member's totalPaid and appends an activity record.
	Credit struct {
		Member string
		Amount float64
	}

	// Edge materializes as a givesTo entry on the debtor, a getsFrom
	// entry on the creditor, a totalOwed increment on the debtor, and
	// latestActivityName on both sides.
	Edge struct {
		Debtor   string
		Creditor string
		Amount   float64
	}

	// Posting is the full fan-out of one contribution, computed up
	// front so the storage layer can apply it in a single transaction.
	Posting struct {
		GroupName       string
		Activity        string
		Payer           string
		Amount          float64
		Timestamp       time.Time
		Mode            SplitMode
		Credits         []Credit
		Edges           []Edge
		GroupTotalDelta float64
		Participants    []string
		PerPerson       float64
	}
)

// ResolveParticipants builds the effective split set for the edge
// producing modes: the group roster with blanks dropped, plus the payer
// when they are not already on it.
func ResolveParticipants(roster []string, payer string) []string {
	out := make([]string, 0, len(roster)+1)
	seenPayer := false
	for _, name := range roster {
		if strings.TrimSpace(name) == "" {
			continue
		}
		if name == payer {
			seenPayer = true
		}
		out = append(out, name)
	}
	if !seenPayer && strings.TrimSpace(payer) != "" {
		out = append(out, payer)
	}
	return out
}

// BuildPosting fans a contribution out into the ledger mutations it
// implies. roster is ignored in explicit mode, which never consults the
// group directory. Every edge carries a totalOwed increment on the
// debtor regardless of mode.
func BuildPosting(c Contribution, roster []string, now time.Time) (Posting, error) {
	p := Posting{
		GroupName: c.GroupName,
		Activity:  c.ActivityName,
		Payer:     c.PayerName,
		Amount:    c.Amount,
		Timestamp: now,
		Mode:      c.Mode,
	}

	switch c.Mode {
	case SplitExplicit:
		// Each listed friend is an independent direct payer for their
		// own share. Entries with a blank name or a non-finite amount
		// are skipped, not rejected.
		for _, s := range c.Shares {
			if !validShare(s) {
				continue
			}
			p.Credits = append(p.Credits, Credit{Member: s.Name, Amount: s.Amount})
		}
		return p, nil

	case SplitCustom:
		p.Participants = ResolveParticipants(roster, c.PayerName)
		for _, s := range c.Shares {
			if !validShare(s) || s.Name == c.PayerName || s.Amount <= 0 {
				continue
			}
			p.Edges = append(p.Edges, Edge{Debtor: s.Name, Creditor: c.PayerName, Amount: s.Amount})
		}
		// The payer is credited with the caller-supplied total, not the
		// share sum. Callers are trusted to keep the two consistent.
		p.Credits = append(p.Credits, Credit{Member: c.PayerName, Amount: c.Amount})
		p.GroupTotalDelta = c.Amount
		return p, nil

	case SplitEqual:
		p.Participants = ResolveParticipants(roster, c.PayerName)
		if len(p.Participants) == 0 {
			return Posting{}, ErrNoParticipants
		}
		p.PerPerson = c.Amount / float64(len(p.Participants))
		for _, name := range p.Participants {
			if name == c.PayerName {
				continue
			}
			p.Edges = append(p.Edges, Edge{Debtor: name, Creditor: c.PayerName, Amount: p.PerPerson})
		}
		p.Credits = append(p.Credits, Credit{Member: c.PayerName, Amount: c.Amount})
		p.GroupTotalDelta = c.Amount
		return p, nil
	}

	return Posting{}, ErrNoParticipants
}

func validShare(s Share) bool {
	if strings.TrimSpace(s.Name) == "" {
		return false
	}
	if math.IsNaN(s.Amount) || math.IsInf(s.Amount, 0) {
		return false
	}
	return true
}

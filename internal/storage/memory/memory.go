// Package memory is an in-process store with the same behavior as the
// SQLite repository. It backs the memory data backend and the tests.
package memory

import (
	"context"
	"sync"

	"tripsplit/internal/core"
)

type Store struct {
	mu      sync.Mutex
	groups  map[string]core.Group
	entries map[string]*core.LedgerEntry // key: group + "\x00" + member
	order   []string                     // entry keys in creation order
	totals  map[string]float64
	dirty   map[string]bool
}

func New() *Store {
	return &Store{
		groups:  make(map[string]core.Group),
		entries: make(map[string]*core.LedgerEntry),
		totals:  make(map[string]float64),
		dirty:   make(map[string]bool),
	}
}

func key(group, member string) string {
	return group + "\x00" + member
}

func (s *Store) Close() error { return nil }

func (s *Store) CreateGroup(_ context.Context, g core.Group) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.groups[g.Name]; ok {
		return core.ErrGroupExists
	}
	g.Members = append([]string(nil), g.Members...)
	s.groups[g.Name] = g
	return nil
}

func (s *Store) GetGroup(_ context.Context, name string) (core.Group, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	g, ok := s.groups[name]
	if !ok {
		return core.Group{}, core.ErrGroupNotFound
	}
	g.Members = append([]string(nil), g.Members...)
	return g, nil
}

func (s *Store) entry(group, member string) *core.LedgerEntry {
	k := key(group, member)
	e, ok := s.entries[k]
	if !ok {
		e = &core.LedgerEntry{GroupName: group, MemberName: member}
		s.entries[k] = e
		s.order = append(s.order, k)
	}
	return e
}

func (s *Store) ApplyPosting(_ context.Context, _ string, p core.Posting) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, c := range p.Credits {
		e := s.entry(p.GroupName, c.Member)
		e.TotalPaid += c.Amount
		e.Activities = append(e.Activities, core.Activity{
			Label:     p.Activity,
			Amount:    c.Amount,
			Timestamp: p.Timestamp,
		})
	}

	for _, edge := range p.Edges {
		debtor := s.entry(p.GroupName, edge.Debtor)
		debtor.GivesTo = append(debtor.GivesTo, core.DebtEdge{
			Counterparty: edge.Creditor,
			Amount:       edge.Amount,
			Activity:     p.Activity,
		})
		debtor.TotalOwed += edge.Amount
		debtor.LatestActivityName = p.Activity

		creditor := s.entry(p.GroupName, edge.Creditor)
		creditor.GetsFrom = append(creditor.GetsFrom, core.DebtEdge{
			Counterparty: edge.Debtor,
			Amount:       edge.Amount,
			Activity:     p.Activity,
		})
		creditor.LatestActivityName = p.Activity
	}

	if p.GroupTotalDelta != 0 {
		s.totals[p.GroupName] += p.GroupTotalDelta
	}
	s.dirty[p.GroupName] = true

	return nil
}

func (s *Store) ListLedgerEntries(_ context.Context, group string) ([]core.LedgerEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []core.LedgerEntry
	for _, k := range s.order {
		e := s.entries[k]
		if e.GroupName != group {
			continue
		}
		out = append(out, copyEntry(e))
	}
	return out, nil
}

func (s *Store) ListMemberBriefs(_ context.Context, group string, members []string) ([]core.MemberBrief, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	roster := make(map[string]bool, len(members))
	for _, m := range members {
		roster[m] = true
	}

	var briefs []core.MemberBrief
	for _, k := range s.order {
		e := s.entries[k]
		if e.GroupName != group || !roster[e.MemberName] {
			continue
		}
		briefs = append(briefs, core.MemberBrief{
			Name:               e.MemberName,
			LatestActivityName: e.LatestActivityName,
			TotalPaid:          e.TotalPaid,
		})
	}
	return briefs, nil
}

func (s *Store) GetGroupTotal(_ context.Context, group string) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.totals[group], nil
}

func (s *Store) ListDirtyGroups(_ context.Context) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var groups []string
	for g, d := range s.dirty {
		if d {
			groups = append(groups, g)
		}
	}
	return groups, nil
}

func (s *Store) ClearDirty(_ context.Context, group string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.dirty[group] = false
	return nil
}

func copyEntry(e *core.LedgerEntry) core.LedgerEntry {
	out := *e
	out.Activities = append([]core.Activity(nil), e.Activities...)
	out.GivesTo = append([]core.DebtEdge(nil), e.GivesTo...)
	out.GetsFrom = append([]core.DebtEdge(nil), e.GetsFrom...)
	return out
}

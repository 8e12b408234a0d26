package services

import (
	"context"
	"errors"
	"math"
	"testing"

	"tripsplit/internal/core"
	"tripsplit/internal/storage/memory"
)

type capturingPublisher struct {
	groups []string
	ids    []string
	err    error
}

func (p *capturingPublisher) PublishContributionPosted(_ context.Context, group, id string) error {
	if p.err != nil {
		return p.err
	}
	p.groups = append(p.groups, group)
	p.ids = append(p.ids, id)
	return nil
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func newTrip1(t *testing.T, store Store) {
	t.Helper()
	err := store.CreateGroup(context.Background(), core.Group{
		Name:        "Trip1",
		Members:     []string{"A", "B", "C"},
		SecretHash:  "x",
		Destination: "Lisbon",
	})
	if err != nil {
		t.Fatalf("create group: %v", err)
	}
}

func entryByName(t *testing.T, entries []core.LedgerEntry, name string) core.LedgerEntry {
	t.Helper()
	for _, e := range entries {
		if e.MemberName == name {
			return e
		}
	}
	t.Fatalf("no ledger entry for %q in %+v", name, entries)
	return core.LedgerEntry{}
}

func TestPostEqualSplit(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	newTrip1(t, store)
	pub := &capturingPublisher{}
	svc := NewContributionService(store, pub)

	res, err := svc.Post(ctx, core.Contribution{
		PayerName:    "A",
		Amount:       90,
		ActivityName: "dinner",
		GroupName:    "Trip1",
		Mode:         core.SplitEqual,
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	if res.ContributionID == "" {
		t.Fatalf("expected contribution id")
	}
	if !almostEqual(res.PerPerson, 30) {
		t.Fatalf("per person = %v, want 30", res.PerPerson)
	}
	if len(res.Members) != 3 {
		t.Fatalf("members = %v, want 3", res.Members)
	}

	entries, _ := store.ListLedgerEntries(ctx, "Trip1")

	a := entryByName(t, entries, "A")
	if !almostEqual(a.TotalPaid, 90) {
		t.Errorf("A.totalPaid = %v, want 90", a.TotalPaid)
	}
	if len(a.GetsFrom) != 2 {
		t.Errorf("A.getsFrom = %+v, want 2 edges", a.GetsFrom)
	}
	if len(a.Activities) != 1 || !almostEqual(a.Activities[0].Amount, 90) {
		t.Errorf("A.activities = %+v, want one 90 record", a.Activities)
	}

	for _, name := range []string{"B", "C"} {
		e := entryByName(t, entries, name)
		if len(e.GivesTo) != 1 || e.GivesTo[0].Counterparty != "A" || !almostEqual(e.GivesTo[0].Amount, 30) {
			t.Errorf("%s.givesTo = %+v, want one 30 edge to A", name, e.GivesTo)
		}
		if !almostEqual(e.TotalOwed, 30) {
			t.Errorf("%s.totalOwed = %v, want 30", name, e.TotalOwed)
		}
		if e.LatestActivityName != "dinner" {
			t.Errorf("%s.latestActivityName = %q, want dinner", name, e.LatestActivityName)
		}
	}

	total, _ := store.GetGroupTotal(ctx, "Trip1")
	if !almostEqual(total, 90) {
		t.Errorf("group total = %v, want 90", total)
	}

	if len(pub.ids) != 1 || pub.groups[0] != "Trip1" {
		t.Errorf("expected one published event for Trip1, got %+v", pub.groups)
	}
}

func TestPostCustomSplitTrustsCallerTotal(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	newTrip1(t, store)
	svc := NewContributionService(store, nil)

	_, err := svc.Post(ctx, core.Contribution{
		PayerName:    "A",
		Amount:       100,
		ActivityName: "hotel",
		GroupName:    "Trip1",
		Mode:         core.SplitCustom,
		Shares: []core.Share{
			{Name: "A", Amount: 0},
			{Name: "B", Amount: 40},
			{Name: "C", Amount: 50},
		},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	entries, _ := store.ListLedgerEntries(ctx, "Trip1")

	a := entryByName(t, entries, "A")
	if !almostEqual(a.TotalPaid, 100) {
		t.Errorf("A.totalPaid = %v, want the caller total 100, not the 90 share sum", a.TotalPaid)
	}

	b := entryByName(t, entries, "B")
	if !almostEqual(b.TotalOwed, 40) {
		t.Errorf("B.totalOwed = %v, want 40", b.TotalOwed)
	}
	c := entryByName(t, entries, "C")
	if !almostEqual(c.TotalOwed, 50) {
		t.Errorf("C.totalOwed = %v, want 50", c.TotalOwed)
	}

	total, _ := store.GetGroupTotal(ctx, "Trip1")
	if !almostEqual(total, 100) {
		t.Errorf("group total = %v, want 100", total)
	}
}

func TestPostExplicitSharesSkipsDirectoryAndTotals(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	// No group created: the explicit mode never consults the directory.
	svc := NewContributionService(store, nil)

	_, err := svc.Post(ctx, core.Contribution{
		PayerName:    "A",
		Amount:       70,
		ActivityName: "tickets",
		GroupName:    "Trip1",
		Mode:         core.SplitExplicit,
		Shares: []core.Share{
			{Name: "B", Amount: 30},
			{Name: "D", Amount: 40},
		},
	})
	if err != nil {
		t.Fatalf("post: %v", err)
	}

	entries, _ := store.ListLedgerEntries(ctx, "Trip1")
	if len(entries) != 2 {
		t.Fatalf("entries = %+v, want B and D only", entries)
	}
	for _, e := range entries {
		if len(e.GivesTo) != 0 || len(e.GetsFrom) != 0 || e.TotalOwed != 0 {
			t.Errorf("%s has debt state %+v, explicit mode must not create edges", e.MemberName, e)
		}
	}

	total, _ := store.GetGroupTotal(ctx, "Trip1")
	if total != 0 {
		t.Errorf("group total = %v, explicit mode must not touch it", total)
	}
}

func TestPostGroupNotFound(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	svc := NewContributionService(store, nil)

	for _, mode := range []core.SplitMode{core.SplitEqual, core.SplitCustom} {
		_, err := svc.Post(ctx, core.Contribution{
			PayerName:    "A",
			Amount:       10,
			ActivityName: "x",
			GroupName:    "nope",
			Mode:         mode,
			Shares:       []core.Share{{Name: "B", Amount: 10}},
		})
		if !errors.Is(err, core.ErrGroupNotFound) {
			t.Errorf("mode %s: err = %v, want ErrGroupNotFound", mode, err)
		}
	}

	// Nothing was written.
	entries, _ := store.ListLedgerEntries(ctx, "nope")
	if len(entries) != 0 {
		t.Fatalf("expected no ledger writes, got %+v", entries)
	}
}

func TestPostTwiceDoublesEverything(t *testing.T) {
	// Idempotence is explicitly not guaranteed.
	ctx := context.Background()
	store := memory.New()
	newTrip1(t, store)
	svc := NewContributionService(store, nil)

	c := core.Contribution{
		PayerName:    "A",
		Amount:       90,
		ActivityName: "dinner",
		GroupName:    "Trip1",
		Mode:         core.SplitEqual,
	}
	for i := 0; i < 2; i++ {
		if _, err := svc.Post(ctx, c); err != nil {
			t.Fatalf("post %d: %v", i, err)
		}
	}

	entries, _ := store.ListLedgerEntries(ctx, "Trip1")
	a := entryByName(t, entries, "A")
	if !almostEqual(a.TotalPaid, 180) {
		t.Errorf("A.totalPaid = %v, want 180", a.TotalPaid)
	}
	if len(a.Activities) != 2 {
		t.Errorf("A.activities = %d records, want 2", len(a.Activities))
	}
	b := entryByName(t, entries, "B")
	if len(b.GivesTo) != 2 || !almostEqual(b.TotalOwed, 60) {
		t.Errorf("B = %+v, want two edges and totalOwed 60", b)
	}
	total, _ := store.GetGroupTotal(ctx, "Trip1")
	if !almostEqual(total, 180) {
		t.Errorf("group total = %v, want 180", total)
	}
}

func TestPostPublishFailureDoesNotFailPost(t *testing.T) {
	ctx := context.Background()
	store := memory.New()
	newTrip1(t, store)
	pub := &capturingPublisher{err: errors.New("broker down")}
	svc := NewContributionService(store, pub)

	_, err := svc.Post(ctx, core.Contribution{
		PayerName:    "A",
		Amount:       30,
		ActivityName: "coffee",
		GroupName:    "Trip1",
		Mode:         core.SplitEqual,
	})
	if err != nil {
		t.Fatalf("post should survive a publish failure: %v", err)
	}

	entries, _ := store.ListLedgerEntries(ctx, "Trip1")
	if len(entries) == 0 {
		t.Fatalf("posting must be committed before publishing")
	}
}

func TestPostRejectsInvalidContribution(t *testing.T) {
	svc := NewContributionService(memory.New(), nil)
	_, err := svc.Post(context.Background(), core.Contribution{
		PayerName:    "",
		Amount:       10,
		ActivityName: "x",
		GroupName:    "g",
		Mode:         core.SplitEqual,
	})
	if err == nil {
		t.Fatalf("expected validation error")
	}
}

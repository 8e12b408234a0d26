package storage

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"tripsplit/internal/core"
	"tripsplit/internal/services"
)

var _ services.Store = (*SQLiteRepository)(nil)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "tripsplit.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCreateAndGetGroup(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	g := core.Group{
		Name:        "Trip1",
		Members:     []string{"A", "B", "C"},
		SecretHash:  "hash",
		Destination: "Lisbon",
	}
	if err := repo.CreateGroup(ctx, g); err != nil {
		t.Fatalf("create: %v", err)
	}

	got, err := repo.GetGroup(ctx, "Trip1")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Name != "Trip1" || got.Destination != "Lisbon" || got.SecretHash != "hash" {
		t.Fatalf("got %+v", got)
	}
	if len(got.Members) != 3 || got.Members[1] != "B" {
		t.Fatalf("members = %v", got.Members)
	}

	if err := repo.CreateGroup(ctx, g); !errors.Is(err, core.ErrGroupExists) {
		t.Fatalf("duplicate err = %v, want ErrGroupExists", err)
	}
	if _, err := repo.GetGroup(ctx, "nope"); !errors.Is(err, core.ErrGroupNotFound) {
		t.Fatalf("missing err = %v, want ErrGroupNotFound", err)
	}
}

func TestApplyPostingFanOut(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)
	now := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	p := core.Posting{
		GroupName: "Trip1",
		Activity:  "dinner",
		Timestamp: now,
		Mode:      core.SplitEqual,
		Credits:   []core.Credit{{Member: "A", Amount: 90}},
		Edges: []core.Edge{
			{Debtor: "B", Creditor: "A", Amount: 30},
			{Debtor: "C", Creditor: "A", Amount: 30},
		},
		GroupTotalDelta: 90,
		Participants:    []string{"A", "B", "C"},
		PerPerson:       30,
	}
	if err := repo.ApplyPosting(ctx, "c-1", p); err != nil {
		t.Fatalf("apply: %v", err)
	}

	entries, err := repo.ListLedgerEntries(ctx, "Trip1")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}

	byName := map[string]core.LedgerEntry{}
	for _, e := range entries {
		byName[e.MemberName] = e
	}

	a := byName["A"]
	if !almostEqual(a.TotalPaid, 90) {
		t.Errorf("A.totalPaid = %v", a.TotalPaid)
	}
	if len(a.GetsFrom) != 2 {
		t.Errorf("A.getsFrom = %+v", a.GetsFrom)
	}
	if len(a.Activities) != 1 || a.Activities[0].Label != "dinner" {
		t.Errorf("A.activities = %+v", a.Activities)
	}
	if !a.Activities[0].Timestamp.Equal(now) {
		t.Errorf("activity timestamp = %v, want %v", a.Activities[0].Timestamp, now)
	}

	b := byName["B"]
	if len(b.GivesTo) != 1 || b.GivesTo[0].Counterparty != "A" || !almostEqual(b.GivesTo[0].Amount, 30) {
		t.Errorf("B.givesTo = %+v", b.GivesTo)
	}
	if !almostEqual(b.TotalOwed, 30) {
		t.Errorf("B.totalOwed = %v", b.TotalOwed)
	}
	if b.LatestActivityName != "dinner" {
		t.Errorf("B.latestActivityName = %q", b.LatestActivityName)
	}

	total, err := repo.GetGroupTotal(ctx, "Trip1")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if !almostEqual(total, 90) {
		t.Errorf("total = %v", total)
	}
}

func TestApplyPostingUpsertsSameEntry(t *testing.T) {
	// Two postings against the same (group, member) keys must mutate
	// one row pair, not create duplicates.
	ctx := context.Background()
	repo := newTestRepo(t)

	p := core.Posting{
		GroupName:       "Trip1",
		Activity:        "fuel",
		Timestamp:       time.Now().UTC(),
		Mode:            core.SplitEqual,
		Credits:         []core.Credit{{Member: "A", Amount: 10}},
		Edges:           []core.Edge{{Debtor: "B", Creditor: "A", Amount: 5}},
		GroupTotalDelta: 10,
	}
	if err := repo.ApplyPosting(ctx, "c-1", p); err != nil {
		t.Fatalf("apply 1: %v", err)
	}
	if err := repo.ApplyPosting(ctx, "c-2", p); err != nil {
		t.Fatalf("apply 2: %v", err)
	}

	entries, _ := repo.ListLedgerEntries(ctx, "Trip1")
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2 (A and B)", len(entries))
	}
	for _, e := range entries {
		switch e.MemberName {
		case "A":
			if !almostEqual(e.TotalPaid, 20) || len(e.Activities) != 2 || len(e.GetsFrom) != 2 {
				t.Errorf("A = %+v", e)
			}
		case "B":
			if !almostEqual(e.TotalOwed, 10) || len(e.GivesTo) != 2 {
				t.Errorf("B = %+v", e)
			}
		}
	}

	total, _ := repo.GetGroupTotal(ctx, "Trip1")
	if !almostEqual(total, 20) {
		t.Errorf("total = %v, want 20", total)
	}
}

func TestGetGroupTotalDefaultsToZero(t *testing.T) {
	repo := newTestRepo(t)
	total, err := repo.GetGroupTotal(context.Background(), "never-seen")
	if err != nil {
		t.Fatalf("total: %v", err)
	}
	if total != 0 {
		t.Fatalf("total = %v, want 0", total)
	}
}

func TestListMemberBriefsIntersection(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p := core.Posting{
		GroupName: "Trip1",
		Activity:  "dinner",
		Timestamp: time.Now().UTC(),
		Mode:      core.SplitEqual,
		Credits:   []core.Credit{{Member: "A", Amount: 60}},
		Edges:     []core.Edge{{Debtor: "B", Creditor: "A", Amount: 30}},
	}
	if err := repo.ApplyPosting(ctx, "c-1", p); err != nil {
		t.Fatalf("apply: %v", err)
	}
	// Same member name in a different group must not leak in.
	other := core.Posting{
		GroupName: "Trip2",
		Activity:  "taxi",
		Timestamp: time.Now().UTC(),
		Mode:      core.SplitEqual,
		Credits:   []core.Credit{{Member: "C", Amount: 10}},
	}
	if err := repo.ApplyPosting(ctx, "c-2", other); err != nil {
		t.Fatalf("apply other: %v", err)
	}

	briefs, err := repo.ListMemberBriefs(ctx, "Trip1", []string{"A", "B", "C"})
	if err != nil {
		t.Fatalf("briefs: %v", err)
	}
	if len(briefs) != 2 {
		t.Fatalf("briefs = %+v, want A and B only", briefs)
	}
	if briefs[0].Name != "A" || !almostEqual(briefs[0].TotalPaid, 60) {
		t.Errorf("brief[0] = %+v", briefs[0])
	}
	if briefs[1].Name != "B" || briefs[1].LatestActivityName != "dinner" {
		t.Errorf("brief[1] = %+v", briefs[1])
	}

	empty, err := repo.ListMemberBriefs(ctx, "Trip1", nil)
	if err != nil || len(empty) != 0 {
		t.Fatalf("empty roster: briefs=%v err=%v", empty, err)
	}
}

func TestDirtyGroupTracking(t *testing.T) {
	ctx := context.Background()
	repo := newTestRepo(t)

	p := core.Posting{
		GroupName: "Trip1",
		Activity:  "x",
		Timestamp: time.Now().UTC(),
		Mode:      core.SplitEqual,
		Credits:   []core.Credit{{Member: "A", Amount: 1}},
	}
	if err := repo.ApplyPosting(ctx, "c-1", p); err != nil {
		t.Fatalf("apply: %v", err)
	}

	dirty, err := repo.ListDirtyGroups(ctx)
	if err != nil {
		t.Fatalf("dirty: %v", err)
	}
	if len(dirty) != 1 || dirty[0] != "Trip1" {
		t.Fatalf("dirty = %v", dirty)
	}

	if err := repo.ClearDirty(ctx, "Trip1"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	dirty, _ = repo.ListDirtyGroups(ctx)
	if len(dirty) != 0 {
		t.Fatalf("dirty after clear = %v", dirty)
	}

	// Another posting flips the flag back.
	if err := repo.ApplyPosting(ctx, "c-2", p); err != nil {
		t.Fatalf("apply again: %v", err)
	}
	dirty, _ = repo.ListDirtyGroups(ctx)
	if len(dirty) != 1 {
		t.Fatalf("dirty after repost = %v", dirty)
	}
}

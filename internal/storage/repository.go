package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"tripsplit/internal/core"

	_ "modernc.org/sqlite"
)

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// CreateGroup inserts a new group record. The secret must already be
// hashed by the caller.
func (r *SQLiteRepository) CreateGroup(ctx context.Context, g core.Group) error {
	members, err := json.Marshal(g.Members)
	if err != nil {
		return fmt.Errorf("marshal members: %w", err)
	}

	_, err = r.db.ExecContext(ctx,
		`INSERT INTO groups (group_name, members, secret_hash, destination, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		g.Name, string(members), g.SecretHash, g.Destination, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return core.ErrGroupExists
		}
		return fmt.Errorf("insert group: %w", err)
	}

	slog.InfoContext(ctx, "Group created",
		"group", g.Name,
		"members", len(g.Members),
		"destination", g.Destination)

	return nil
}

// GetGroup loads a group by name, returning core.ErrGroupNotFound when
// it does not exist.
func (r *SQLiteRepository) GetGroup(ctx context.Context, name string) (core.Group, error) {
	var (
		g       core.Group
		members string
	)
	err := r.db.QueryRowContext(ctx,
		`SELECT group_name, members, secret_hash, destination FROM groups WHERE group_name = ?`,
		name).Scan(&g.Name, &members, &g.SecretHash, &g.Destination)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Group{}, core.ErrGroupNotFound
	}
	if err != nil {
		return core.Group{}, fmt.Errorf("select group: %w", err)
	}

	if err := json.Unmarshal([]byte(members), &g.Members); err != nil {
		return core.Group{}, fmt.Errorf("unmarshal members: %w", err)
	}
	return g, nil
}

// ApplyPosting applies the full fan-out of one contribution inside a
// single transaction: every ledger upsert, the group total bump, the
// contribution record, and the sheet-sync dirty flag commit together
// or not at all.
func (r *SQLiteRepository) ApplyPosting(ctx context.Context, contributionID string, p core.Posting) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, c := range p.Credits {
		entryID, err := upsertEntry(ctx, tx, p.GroupName, c.Member)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE ledger_entries SET total_paid = total_paid + ? WHERE id = ?`,
			c.Amount, entryID); err != nil {
			return fmt.Errorf("bump total paid for %s: %w", c.Member, err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO ledger_activities (entry_id, label, amount, created_at) VALUES (?, ?, ?, ?)`,
			entryID, p.Activity, c.Amount, p.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("append activity for %s: %w", c.Member, err)
		}
	}

	for _, e := range p.Edges {
		debtorID, err := upsertEntry(ctx, tx, p.GroupName, e.Debtor)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO debt_edges (entry_id, direction, counterparty, amount, activity)
			 VALUES (?, 'gives_to', ?, ?, ?)`,
			debtorID, e.Creditor, e.Amount, p.Activity); err != nil {
			return fmt.Errorf("append givesTo for %s: %w", e.Debtor, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE ledger_entries SET total_owed = total_owed + ?, latest_activity_name = ? WHERE id = ?`,
			e.Amount, p.Activity, debtorID); err != nil {
			return fmt.Errorf("bump total owed for %s: %w", e.Debtor, err)
		}

		creditorID, err := upsertEntry(ctx, tx, p.GroupName, e.Creditor)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO debt_edges (entry_id, direction, counterparty, amount, activity)
			 VALUES (?, 'gets_from', ?, ?, ?)`,
			creditorID, e.Debtor, e.Amount, p.Activity); err != nil {
			return fmt.Errorf("append getsFrom for %s: %w", e.Creditor, err)
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE ledger_entries SET latest_activity_name = ? WHERE id = ?`,
			p.Activity, creditorID); err != nil {
			return fmt.Errorf("update latest activity for %s: %w", e.Creditor, err)
		}
	}

	if p.GroupTotalDelta != 0 {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO group_totals (group_name, total_group_amount) VALUES (?, ?)
			 ON CONFLICT (group_name) DO UPDATE SET total_group_amount = total_group_amount + excluded.total_group_amount`,
			p.GroupName, p.GroupTotalDelta); err != nil {
			return fmt.Errorf("bump group total: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO contributions (id, group_name, payer_name, activity, amount, split_mode, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		contributionID, p.GroupName, p.Payer, p.Activity, p.Amount,
		string(p.Mode), p.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("record contribution: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO sync_state (group_name, dirty, updated_at) VALUES (?, 1, ?)
		 ON CONFLICT (group_name) DO UPDATE SET dirty = 1, updated_at = excluded.updated_at`,
		p.GroupName, p.Timestamp.UTC().Format(time.RFC3339Nano)); err != nil {
		return fmt.Errorf("mark group dirty: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit posting: %w", err)
	}

	slog.InfoContext(ctx, "Contribution posted",
		"contribution_id", contributionID,
		"group", p.GroupName,
		"activity", p.Activity,
		"split_mode", string(p.Mode),
		"credits", len(p.Credits),
		"edges", len(p.Edges))

	return nil
}

// upsertEntry creates the (group, member) ledger entry on first
// reference and returns its row id either way.
func upsertEntry(ctx context.Context, tx *sql.Tx, group, member string) (int64, error) {
	var id int64
	err := tx.QueryRowContext(ctx,
		`INSERT INTO ledger_entries (group_name, member_name) VALUES (?, ?)
		 ON CONFLICT (group_name, member_name) DO UPDATE SET member_name = excluded.member_name
		 RETURNING id`,
		group, member).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("upsert ledger entry for %s/%s: %w", group, member, err)
	}
	return id, nil
}

// ListLedgerEntries returns every ledger entry for a group with its
// full activity and debt-edge logs, in insertion order.
func (r *SQLiteRepository) ListLedgerEntries(ctx context.Context, group string) ([]core.LedgerEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, group_name, member_name, total_paid, total_owed, latest_activity_name
		 FROM ledger_entries WHERE group_name = ? ORDER BY id`,
		group)
	if err != nil {
		return nil, fmt.Errorf("select ledger entries: %w", err)
	}
	defer rows.Close()

	type row struct {
		id    int64
		entry core.LedgerEntry
	}
	var entries []row
	for rows.Next() {
		var e row
		if err := rows.Scan(&e.id, &e.entry.GroupName, &e.entry.MemberName,
			&e.entry.TotalPaid, &e.entry.TotalOwed, &e.entry.LatestActivityName); err != nil {
			return nil, fmt.Errorf("scan ledger entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ledger entries: %w", err)
	}

	out := make([]core.LedgerEntry, 0, len(entries))
	for _, e := range entries {
		if err := r.loadEntryLogs(ctx, e.id, &e.entry); err != nil {
			return nil, err
		}
		out = append(out, e.entry)
	}
	return out, nil
}

func (r *SQLiteRepository) loadEntryLogs(ctx context.Context, entryID int64, e *core.LedgerEntry) error {
	rows, err := r.db.QueryContext(ctx,
		`SELECT label, amount, created_at FROM ledger_activities WHERE entry_id = ? ORDER BY id`,
		entryID)
	if err != nil {
		return fmt.Errorf("select activities: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			a  core.Activity
			ts string
		)
		if err := rows.Scan(&a.Label, &a.Amount, &ts); err != nil {
			return fmt.Errorf("scan activity: %w", err)
		}
		if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
			a.Timestamp = t
		}
		e.Activities = append(e.Activities, a)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate activities: %w", err)
	}

	edges, err := r.db.QueryContext(ctx,
		`SELECT direction, counterparty, amount, activity FROM debt_edges WHERE entry_id = ? ORDER BY id`,
		entryID)
	if err != nil {
		return fmt.Errorf("select debt edges: %w", err)
	}
	defer edges.Close()
	for edges.Next() {
		var (
			direction string
			edge      core.DebtEdge
		)
		if err := edges.Scan(&direction, &edge.Counterparty, &edge.Amount, &edge.Activity); err != nil {
			return fmt.Errorf("scan debt edge: %w", err)
		}
		switch direction {
		case "gives_to":
			e.GivesTo = append(e.GivesTo, edge)
		case "gets_from":
			e.GetsFrom = append(e.GetsFrom, edge)
		}
	}
	if err := edges.Err(); err != nil {
		return fmt.Errorf("iterate debt edges: %w", err)
	}
	return nil
}

// ListMemberBriefs returns the compact per-member lines for members
// that are both in the given roster and present in the ledger.
func (r *SQLiteRepository) ListMemberBriefs(ctx context.Context, group string, members []string) ([]core.MemberBrief, error) {
	if len(members) == 0 {
		return nil, nil
	}

	placeholders := strings.Repeat("?,", len(members))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, 0, len(members)+1)
	args = append(args, group)
	for _, m := range members {
		args = append(args, m)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT member_name, latest_activity_name, total_paid FROM ledger_entries
		 WHERE group_name = ? AND member_name IN (`+placeholders+`) ORDER BY id`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("select member briefs: %w", err)
	}
	defer rows.Close()

	var briefs []core.MemberBrief
	for rows.Next() {
		var b core.MemberBrief
		if err := rows.Scan(&b.Name, &b.LatestActivityName, &b.TotalPaid); err != nil {
			return nil, fmt.Errorf("scan member brief: %w", err)
		}
		briefs = append(briefs, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate member briefs: %w", err)
	}
	return briefs, nil
}

// GetGroupTotal returns the running contribution total for a group, or
// 0 when no contribution was ever posted. This is the one read path
// that tolerates a missing record.
func (r *SQLiteRepository) GetGroupTotal(ctx context.Context, group string) (float64, error) {
	var total float64
	err := r.db.QueryRowContext(ctx,
		`SELECT total_group_amount FROM group_totals WHERE group_name = ?`,
		group).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("select group total: %w", err)
	}
	return total, nil
}

// ListDirtyGroups returns groups whose ledgers changed since the last
// sheet sync.
func (r *SQLiteRepository) ListDirtyGroups(ctx context.Context) ([]string, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT group_name FROM sync_state WHERE dirty = 1 ORDER BY updated_at`)
	if err != nil {
		return nil, fmt.Errorf("select dirty groups: %w", err)
	}
	defer rows.Close()

	var groups []string
	for rows.Next() {
		var g string
		if err := rows.Scan(&g); err != nil {
			return nil, fmt.Errorf("scan dirty group: %w", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate dirty groups: %w", err)
	}
	return groups, nil
}

// ClearDirty marks a group as synced.
func (r *SQLiteRepository) ClearDirty(ctx context.Context, group string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE sync_state SET dirty = 0 WHERE group_name = ?`, group); err != nil {
		return fmt.Errorf("clear dirty flag: %w", err)
	}
	return nil
}

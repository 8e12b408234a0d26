package core

import "time"

type (
	// Activity is one direct payment recorded against a member.
	Activity struct {
		Label     string
		Amount    float64
		Timestamp time.Time
	}

	// DebtEdge is a directed IOU between two members for one activity.
	// On a givesTo list the counterparty is the creditor; on a getsFrom
	// list it is the debtor.
	DebtEdge struct {
		Counterparty string
		Amount       float64
		Activity     string
	}

	// LedgerEntry is the per-member accounting record, keyed by
	// (GroupName, MemberName). Created lazily on first reference and
	// never deleted; all three logs are append-only.
	LedgerEntry struct {
		GroupName          string
		MemberName         string
		TotalPaid          float64
		TotalOwed          float64
		Activities         []Activity
		GivesTo            []DebtEdge
		GetsFrom           []DebtEdge
		LatestActivityName string
	}

	// GroupTotal is the running sum of every contribution ever posted
	// to a group, independent of how it was split.
	GroupTotal struct {
		GroupName        string
		TotalGroupAmount float64
	}
)

package core

type (
	// MemberSummary is one member's full record inside a trip summary.
	MemberSummary struct {
		Name               string
		TotalPaid          float64
		TotalOwed          float64
		GivesTo            []DebtEdge
		GetsFrom           []DebtEdge
		LatestActivityName string
		Activities         []Activity
	}

	// TripSummary is the consolidated view of every ledger entry a
	// group has accumulated.
	TripSummary struct {
		GroupName       string
		TotalTripBudget float64
		Members         []MemberSummary
	}

	// MemberBrief is the compact who-paid-what line used by the
	// directory-joined balance view.
	MemberBrief struct {
		Name               string
		LatestActivityName string
		TotalPaid          float64
	}

	// GroupBalance joins the group roster with its ledger state. Roster
	// members with no ledger activity yet appear in Members but not in
	// PerMember.
	GroupBalance struct {
		GroupName   string
		Members     []string
		TotalAmount float64
		PerMember   []MemberBrief
	}
)

package core

import (
	"sort"
	"strings"
)

// MonthsInYear is the width of the per-month vectors of a panel row.
const MonthsInYear = 12

// PanelRow is one member's year: tithe and offering summed per month.
type PanelRow struct {
	MemberID        int64               `json:"member_id"`
	MemberName      string              `json:"member_name"`
	TitheByMonth    [MonthsInYear]Money `json:"tithe_by_month"`
	TitheTotal      Money               `json:"tithe_total"`
	OfferingByMonth [MonthsInYear]Money `json:"offering_by_month"`
	OfferingTotal   Money               `json:"offering_total"`
}

// AnnualPanel is the member x month matrix for one year.
type AnnualPanel struct {
	Year          int        `json:"year"`
	Rows          []PanelRow `json:"rows"`
	TitheTotal    Money      `json:"tithe_total"`
	OfferingTotal Money      `json:"offering_total"`
	GrandTotal    Money      `json:"grand_total"`
}

// BuildAnnualPanel reshapes the ledger entries of one year into a panel.
//
// Entries from other years are ignored. Several entries in the same
// member/month slot are summed rather than picking one, since rows migrated
// from older data may predate the uniqueness rule. Only members with at least
// one entry in the year get a row. Totals are integer cents, so a row total is
// always exactly the sum of its slots.
func BuildAnnualPanel(year int, entries []LedgerEntry) AnnualPanel {
	panel := AnnualPanel{Year: year, Rows: []PanelRow{}}
	byMember := make(map[int64]*PanelRow)

	for _, e := range entries {
		if e.Competency.Year != year || e.Competency.Month < 1 || e.Competency.Month > MonthsInYear {
			continue
		}
		row, ok := byMember[e.MemberID]
		if !ok {
			row = &PanelRow{MemberID: e.MemberID, MemberName: e.MemberName}
			byMember[e.MemberID] = row
		}
		slot := e.Competency.Month - 1
		row.TitheByMonth[slot] = row.TitheByMonth[slot].Add(e.Tithe)
		row.OfferingByMonth[slot] = row.OfferingByMonth[slot].Add(e.Offering)
	}

	for _, row := range byMember {
		for i := 0; i < MonthsInYear; i++ {
			row.TitheTotal = row.TitheTotal.Add(row.TitheByMonth[i])
			row.OfferingTotal = row.OfferingTotal.Add(row.OfferingByMonth[i])
		}
		panel.TitheTotal = panel.TitheTotal.Add(row.TitheTotal)
		panel.OfferingTotal = panel.OfferingTotal.Add(row.OfferingTotal)
		panel.Rows = append(panel.Rows, *row)
	}
	panel.GrandTotal = panel.TitheTotal.Add(panel.OfferingTotal)

	sort.Slice(panel.Rows, func(i, j int) bool {
		a, b := strings.ToLower(panel.Rows[i].MemberName), strings.ToLower(panel.Rows[j].MemberName)
		if a != b {
			return a < b
		}
		return panel.Rows[i].MemberID < panel.Rows[j].MemberID
	})
	return panel
}

// Row returns the row of a member, if present.
func (p AnnualPanel) Row(memberID int64) (PanelRow, bool) {
	for _, r := range p.Rows {
		if r.MemberID == memberID {
			return r, true
		}
	}
	return PanelRow{}, false
}

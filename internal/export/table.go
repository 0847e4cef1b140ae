// Package export flattens core views into tables and spreadsheets.
package export

import (
	"igreja/internal/core"
)

const (
	memberHeader   = "Membro"
	titheGroup     = "Dízimo (R$)"
	offeringGroup  = "Oferta (R$)"
	totalLabel     = "Total"
	headerJoiner   = " - "
	grandTotalName = "Total geral"
)

// MonthAbbreviations are the Portuguese month labels used in panel headers.
var MonthAbbreviations = [core.MonthsInYear]string{
	"Jan", "Fev", "Mar", "Abr", "Mai", "Jun", "Jul", "Ago", "Set", "Out", "Nov", "Dez",
}

// PanelHeaders flattens the two-level category/month header into a single
// row: "Membro", then "Dízimo (R$) - Jan" ... "Dízimo (R$) - Total", then the
// same for "Oferta (R$)".
func PanelHeaders() []string {
	headers := make([]string, 0, 1+2*(core.MonthsInYear+1))
	headers = append(headers, memberHeader)
	for _, group := range []string{titheGroup, offeringGroup} {
		for _, month := range MonthAbbreviations {
			headers = append(headers, group+headerJoiner+month)
		}
		headers = append(headers, group+headerJoiner+totalLabel)
	}
	return headers
}

// PanelTable renders the panel as header, one row per member and a closing
// grand total row. Amounts are reais with two decimals.
func PanelTable(p core.AnnualPanel) [][]any {
	table := make([][]any, 0, len(p.Rows)+2)

	header := make([]any, 0, len(PanelHeaders()))
	for _, h := range PanelHeaders() {
		header = append(header, h)
	}
	table = append(table, header)

	var titheCols, offeringCols [core.MonthsInYear]core.Money
	for _, r := range p.Rows {
		table = append(table, panelRow(r.MemberName, r.TitheByMonth, r.TitheTotal, r.OfferingByMonth, r.OfferingTotal))
		for i := 0; i < core.MonthsInYear; i++ {
			titheCols[i] = titheCols[i].Add(r.TitheByMonth[i])
			offeringCols[i] = offeringCols[i].Add(r.OfferingByMonth[i])
		}
	}
	table = append(table, panelRow(grandTotalName, titheCols, p.TitheTotal, offeringCols, p.OfferingTotal))
	return table
}

func panelRow(name string, tithe [core.MonthsInYear]core.Money, titheTotal core.Money, offering [core.MonthsInYear]core.Money, offeringTotal core.Money) []any {
	row := make([]any, 0, 1+2*(core.MonthsInYear+1))
	row = append(row, name)
	for _, m := range tithe {
		row = append(row, m.Reais())
	}
	row = append(row, titheTotal.Reais())
	for _, m := range offering {
		row = append(row, m.Reais())
	}
	row = append(row, offeringTotal.Reais())
	return row
}

// MemberHeaders are the roster export columns.
func MemberHeaders() []string {
	return []string{
		"Matrícula", "Nome", "Ministério", "Endereço", "Telefone", "E-mail", "Sexo",
		"Nascimento", "Estado civil", "Cônjuge", "Admissão", "Tipo de admissão",
		"Saída", "Motivo da saída",
	}
}

// MembersTable renders the roster, photos excluded.
func MembersTable(members []core.Member) [][]any {
	table := make([][]any, 0, len(members)+1)
	header := make([]any, 0, len(MemberHeaders()))
	for _, h := range MemberHeaders() {
		header = append(header, h)
	}
	table = append(table, header)

	for _, m := range members {
		table = append(table, []any{
			m.RegistrationNumber, m.Name, m.Ministry, m.Address, m.Phone, m.Email, string(m.Sex),
			m.BirthDate.String(), string(m.MaritalStatus), m.SpouseName, m.AdmissionDate.String(),
			string(m.AdmissionType), m.DepartureDate.String(), string(m.DepartureReason),
		})
	}
	return table
}

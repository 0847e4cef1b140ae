package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"igreja/internal/core"
)

// amount accepts a JSON string ("150,00", "150.00") or a number.
type amount string

func (a *amount) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = amount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*a = amount(n.String())
	return nil
}

// fieldParser collects conversion failures from request DTOs.
type fieldParser struct {
	verr core.ValidationError
}

func (p *fieldParser) date(field, value string) core.Date {
	d, err := core.ParseDate(value)
	if err != nil {
		p.verr.Add(field, "must be a date in YYYY-MM-DD format")
	}
	return d
}

func (p *fieldParser) money(field string, value amount) core.Money {
	s := strings.TrimSpace(string(value))
	if s == "" {
		p.verr.Add(field, "is required")
		return core.Money{}
	}
	m, err := core.ParseMoney(s)
	if err != nil {
		p.verr.Add(field, "must be a non-negative amount with up to two decimals")
	}
	return m
}

// merge adds the fields of validate's error that were not already reported
// by the conversion step, so one response lists every problem.
func (p *fieldParser) merge(validate func() error) error {
	if len(p.verr.Fields) == 0 {
		return validate()
	}
	if err := validate(); err != nil {
		var more *core.ValidationError
		if errors.As(err, &more) {
			for _, f := range more.Fields {
				if !p.verr.Has(f.Field) {
					p.verr.Add(f.Field, f.Message)
				}
			}
		}
	}
	return &p.verr
}

type organizationRequest struct {
	TaxID       string `json:"tax_id"`
	Address     string `json:"address"`
	FoundedOn   string `json:"founded_on"`
	Logo        []byte `json:"logo"`
	PastorName  string `json:"pastor_name"`
	PastorStart string `json:"pastor_start"`
	PastorEnd   string `json:"pastor_end"`
}

func (req organizationRequest) toOrganization() (core.Organization, error) {
	var p fieldParser
	org := core.Organization{
		TaxID:       sanitizeInput(req.TaxID),
		Address:     sanitizeInput(req.Address),
		FoundedOn:   p.date("founded_on", req.FoundedOn),
		Logo:        req.Logo,
		PastorName:  sanitizeInput(req.PastorName),
		PastorStart: p.date("pastor_start", req.PastorStart),
		PastorEnd:   p.date("pastor_end", req.PastorEnd),
	}
	if len(p.verr.Fields) == 0 {
		return org, nil
	}
	return org, p.merge(org.Validate)
}

type memberRequest struct {
	ID                 int64  `json:"id"`
	RegistrationNumber string `json:"registration_number"`
	Name               string `json:"name"`
	Photo              []byte `json:"photo"`
	Ministry           string `json:"ministry"`
	Address            string `json:"address"`
	Phone              string `json:"phone"`
	Email              string `json:"email"`
	Sex                string `json:"sex"`
	BirthDate          string `json:"birth_date"`
	MaritalStatus      string `json:"marital_status"`
	SpouseName         string `json:"spouse_name"`
	DisciplineStart    string `json:"discipline_start"`
	DisciplineEnd      string `json:"discipline_end"`
	AdmissionDate      string `json:"admission_date"`
	AdmissionType      string `json:"admission_type"`
	DepartureDate      string `json:"departure_date"`
	DepartureReason    string `json:"departure_reason"`
}

// toMember converts the request. Date format errors are reported together
// with the member field policy violations.
func (req memberRequest) toMember() (core.Member, error) {
	var p fieldParser
	m := core.Member{
		ID:                 req.ID,
		RegistrationNumber: sanitizeInput(req.RegistrationNumber),
		Name:               sanitizeInput(req.Name),
		Photo:              req.Photo,
		Ministry:           sanitizeInput(req.Ministry),
		Address:            sanitizeInput(req.Address),
		Phone:              sanitizeInput(req.Phone),
		Email:              sanitizeInput(req.Email),
		Sex:                core.Sex(strings.ToLower(sanitizeInput(req.Sex))),
		BirthDate:          p.date("birth_date", req.BirthDate),
		MaritalStatus:      core.MaritalStatus(strings.ToLower(sanitizeInput(req.MaritalStatus))),
		SpouseName:         sanitizeInput(req.SpouseName),
		DisciplineStart:    p.date("discipline_start", req.DisciplineStart),
		DisciplineEnd:      p.date("discipline_end", req.DisciplineEnd),
		AdmissionDate:      p.date("admission_date", req.AdmissionDate),
		AdmissionType:      core.AdmissionType(strings.ToLower(sanitizeInput(req.AdmissionType))),
		DepartureDate:      p.date("departure_date", req.DepartureDate),
		DepartureReason:    core.DepartureReason(strings.ToLower(sanitizeInput(req.DepartureReason))),
	}
	if len(p.verr.Fields) == 0 {
		return m, nil
	}
	m.Normalize()
	return m, p.merge(m.Validate)
}

type contributionRequest struct {
	MemberID      int64  `json:"member_id"`
	Year          int    `json:"year"`
	Month         int    `json:"month"`
	Tithe         amount `json:"tithe"`
	Offering      amount `json:"offering"`
	PaymentDate   string `json:"payment_date"`
	PaymentMethod string `json:"payment_method"`
	Notes         string `json:"notes"`
}

func (req contributionRequest) toContribution() (core.Contribution, error) {
	var p fieldParser
	c := core.Contribution{
		MemberID:      req.MemberID,
		Competency:    core.Competency{Year: req.Year, Month: req.Month},
		Tithe:         p.money("tithe", req.Tithe),
		Offering:      p.money("offering", req.Offering),
		PaymentDate:   p.date("payment_date", req.PaymentDate),
		PaymentMethod: core.PaymentMethod(strings.ToLower(sanitizeInput(req.PaymentMethod))),
		Notes:         sanitizeInput(req.Notes),
	}
	if len(p.verr.Fields) == 0 {
		return c, nil
	}
	return c, p.merge(c.Validate)
}

// parseEntryFilter reads year, month and member from the query. Year is
// required.
func parseEntryFilter(r *http.Request) (core.EntryFilter, error) {
	verr := &core.ValidationError{}
	f := core.EntryFilter{
		Year:               queryInt(r, "year", 0, verr),
		Month:              queryInt(r, "month", 0, verr),
		MemberNameContains: sanitizeInput(r.URL.Query().Get("member")),
	}
	if !verr.Has("year") && (f.Year < 1900 || f.Year > 9999) {
		verr.Add("year", "must be between 1900 and 9999")
	}
	if !verr.Has("month") && (f.Month < 0 || f.Month > 12) {
		verr.Add("month", "must be between 1 and 12")
	}
	return f, verr.OrNil()
}

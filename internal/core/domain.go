package core

import (
	"encoding/json"
	"errors"
	"strings"
	"time"
)

const dateLayout = "2006-01-02"

// Enumerations stored as their string values.
const (
	SexMale   Sex = "masculino"
	SexFemale Sex = "feminino"
	SexOther  Sex = "outro"

	MaritalSingle   MaritalStatus = "solteiro"
	MaritalMarried  MaritalStatus = "casado"
	MaritalDivorced MaritalStatus = "divorciado"
	MaritalWidowed  MaritalStatus = "viuvo"

	AdmissionBaptism        AdmissionType = "batismo"
	AdmissionTransfer       AdmissionType = "transferencia"
	AdmissionAcclamation    AdmissionType = "aclamacao"
	AdmissionReconciliation AdmissionType = "reconciliacao"

	DepartureNone              DepartureReason = "nenhum"
	DepartureOnRequest         DepartureReason = "a_pedido"
	DepartureAbsence           DepartureReason = "ausencia"
	DepartureTransfer          DepartureReason = "transferencia"
	DepartureOtherDenomination DepartureReason = "outra_denominacao"
	DepartureOther             DepartureReason = "outros"

	PaymentCash     PaymentMethod = "dinheiro"
	PaymentPix      PaymentMethod = "pix"
	PaymentTransfer PaymentMethod = "transferencia"
	PaymentCard     PaymentMethod = "cartao"
	PaymentCheck    PaymentMethod = "cheque"
)

type (
	Sex             string
	MaritalStatus   string
	AdmissionType   string
	DepartureReason string
	PaymentMethod   string

	// Date is a calendar day at UTC midnight. The zero value means "not set".
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Organization is the single church profile.
	Organization struct {
		TaxID       string `json:"tax_id" validate:"required"`
		Address     string `json:"address" validate:"required"`
		FoundedOn   Date   `json:"founded_on" validate:"required"`
		Logo        []byte `json:"logo,omitempty"`
		PastorName  string `json:"pastor_name" validate:"required"`
		PastorStart Date   `json:"pastor_start" validate:"required"`
		PastorEnd   Date   `json:"pastor_end" validate:"required"`
	}

	Member struct {
		ID                 int64           `json:"id"`
		RegistrationNumber string          `json:"registration_number,omitempty"`
		Name               string          `json:"name" validate:"required,max=200"`
		Photo              []byte          `json:"photo,omitempty"`
		Ministry           string          `json:"ministry" validate:"required"`
		Address            string          `json:"address" validate:"required"`
		Phone              string          `json:"phone" validate:"required,numeric,len=11"`
		Email              string          `json:"email,omitempty" validate:"omitempty,email"`
		Sex                Sex             `json:"sex" validate:"required,oneof=masculino feminino outro"`
		BirthDate          Date            `json:"birth_date" validate:"required"`
		MaritalStatus      MaritalStatus   `json:"marital_status" validate:"required,oneof=solteiro casado divorciado viuvo"`
		SpouseName         string          `json:"spouse_name,omitempty" validate:"required_if=MaritalStatus casado"`
		DisciplineStart    Date            `json:"discipline_start"`
		DisciplineEnd      Date            `json:"discipline_end"`
		AdmissionDate      Date            `json:"admission_date" validate:"required"`
		AdmissionType      AdmissionType   `json:"admission_type" validate:"required,oneof=batismo transferencia aclamacao reconciliacao"`
		DepartureDate      Date            `json:"departure_date"`
		DepartureReason    DepartureReason `json:"departure_reason,omitempty" validate:"omitempty,oneof=nenhum a_pedido ausencia transferencia outra_denominacao outros"`
		BirthMonth         int             `json:"birth_month"`
	}

	// Competency is the calendar month a contribution is attributed to.
	Competency struct {
		Year  int `json:"year" validate:"gte=1900,lte=9999"`
		Month int `json:"month" validate:"gte=1,lte=12"`
	}

	LedgerEntry struct {
		ID            int64         `json:"id"`
		MemberID      int64         `json:"member_id"`
		MemberName    string        `json:"member_name,omitempty"`
		Competency    Competency    `json:"competency"`
		Tithe         Money         `json:"tithe"`
		Offering      Money         `json:"offering"`
		PaymentDate   Date          `json:"payment_date"`
		PaymentMethod PaymentMethod `json:"payment_method"`
		Notes         string        `json:"notes,omitempty"`
		CreatedAt     time.Time     `json:"created_at"`
		UpdatedAt     time.Time     `json:"updated_at"`
	}

	// Contribution is the input of a ledger write.
	Contribution struct {
		MemberID      int64         `json:"member_id" validate:"gt=0"`
		Competency    Competency    `json:"competency"`
		Tithe         Money         `json:"tithe" validate:"gte=0"`
		Offering      Money         `json:"offering" validate:"gte=0"`
		PaymentDate   Date          `json:"payment_date" validate:"required"`
		PaymentMethod PaymentMethod `json:"payment_method" validate:"required,oneof=dinheiro pix transferencia cartao cheque"`
		Notes         string        `json:"notes,omitempty" validate:"max=500"`
	}

	// EntryFilter selects ledger entries. Month and MemberNameContains are optional.
	EntryFilter struct {
		Year               int
		Month              int
		MemberNameContains string
	}

	RecordOutcome string
)

const (
	OutcomeCreated RecordOutcome = "created"
	OutcomeUpdated RecordOutcome = "updated"
)

var ErrInvalidAmount = errors.New("invalid amount")

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses YYYY-MM-DD. An empty string yields the zero Date.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Date{}, nil
	}
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, err
	}
	return Date{Time: t}, nil
}


// String formats the date as YYYY-MM-DD, or "" when not set.
func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(dateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Format(dateLayout))
}

func (d *Date) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*d = Date{}
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// FirstDay returns the canonical period key: the first day of the month.
func (c Competency) FirstDay() Date {
	return NewDate(c.Year, c.Month, 1)
}

func (c Competency) String() string {
	return c.FirstDay().Format("2006-01")
}

// Normalize derives computed fields and trims free text.
func (m *Member) Normalize() {
	m.Name = strings.TrimSpace(m.Name)
	m.RegistrationNumber = strings.TrimSpace(m.RegistrationNumber)
	m.Ministry = strings.TrimSpace(m.Ministry)
	m.Address = strings.TrimSpace(m.Address)
	m.Phone = strings.TrimSpace(m.Phone)
	m.Email = strings.TrimSpace(m.Email)
	m.SpouseName = strings.TrimSpace(m.SpouseName)
	if m.DepartureReason == "" {
		m.DepartureReason = DepartureNone
	}
	m.BirthMonth = 0
	if !m.BirthDate.IsZero() {
		m.BirthMonth = int(m.BirthDate.Month())
	}
}

// Active reports whether the member has not left the church.
func (m Member) Active() bool {
	return m.DepartureDate.IsZero()
}

func (o *Organization) Normalize() {
	o.TaxID = strings.TrimSpace(o.TaxID)
	o.Address = strings.TrimSpace(o.Address)
	o.PastorName = strings.TrimSpace(o.PastorName)
}

// Entry builds the ledger entry a contribution resolves to.
func (c Contribution) Entry() LedgerEntry {
	return LedgerEntry{
		MemberID:      c.MemberID,
		Competency:    c.Competency,
		Tithe:         c.Tithe,
		Offering:      c.Offering,
		PaymentDate:   c.PaymentDate,
		PaymentMethod: c.PaymentMethod,
		Notes:         strings.TrimSpace(c.Notes),
	}
}

package domain

import (
	"errors"
	"time"
)

// Route paths shared by handlers, templates and the submission workflow.
const (
	RouteLogin   = "/"
	RouteBills   = "/employee/bills"
	RouteNewBill = "/employee/bill/new"
)

var (
	ErrNotFound       = errors.New("bill not found")
	ErrInvalidSession = errors.New("invalid session")
)

// ExpenseTypes lists the values offered by the expense type select.
var ExpenseTypes = []string{
	"Transports",
	"Restaurants et bars",
	"Hôtel et logement",
	"Services en ligne",
	"IT et électronique",
	"Equipement et matériel",
	"Fournitures de bureau",
}

type BillStatus string

const (
	BillStatusPending  BillStatus = "pending"
	BillStatusAccepted BillStatus = "accepted"
	BillStatusRefused  BillStatus = "refused"
)

// Label returns the French label shown in the listing.
func (s BillStatus) Label() string {
	switch s {
	case BillStatusPending:
		return "En attente"
	case BillStatusAccepted:
		return "Accepté"
	case BillStatusRefused:
		return "Refusé"
	default:
		return string(s)
	}
}

// Bill is one expense-report record. Amount, VAT and Pct are kept as the
// strings the employee typed; nothing parses them on the way in.
type Bill struct {
	ID           string     `json:"id"`
	Type         string     `json:"type"`
	Name         string     `json:"name"`
	Date         string     `json:"date"`
	Amount       string     `json:"amount"`
	VAT          string     `json:"vat"`
	Pct          string     `json:"pct"`
	Commentary   string     `json:"commentary"`
	FileURL      string     `json:"fileUrl"`
	FileName     string     `json:"fileName"`
	Status       BillStatus `json:"status"`
	Email        string     `json:"email"`
	CommentAdmin string     `json:"commentAdmin,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`

	// ProofKey is the object store key of the uploaded proof and ProofType
	// the media type sniffed from its content. Local stores only.
	ProofKey  string `json:"-"`
	ProofType string `json:"-"`
}

// BillForm carries the scalar fields collected from a NewBill submit.
type BillForm struct {
	Type       string
	Name       string
	Date       string
	Amount     string
	VAT        string
	Pct        string
	Commentary string
}

type UserType string

const (
	UserEmployee UserType = "Employee"
	UserAdmin    UserType = "Admin"
)

// Session is the identity of the logged-in user, carried client-side in
// the "user" cookie as a signed token.
type Session struct {
	Type  UserType `json:"type" validate:"required,oneof=Employee Admin"`
	Email string   `json:"email" validate:"required,contains=@"`
}

// ListingState is the input of the bills listing view.
type ListingState struct {
	Data    []Bill
	Loading bool
	Error   string
}

// ProofPath is the URL under which a locally stored proof is served.
func ProofPath(billID string) string {
	return "/bills/" + billID + "/proof"
}

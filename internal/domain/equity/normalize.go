package equity

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Candidate is raw shareholder input as submitted by an operator
type Candidate struct {
	Name           string `json:"name" validate:"required,min=3,shareholder_name"`
	NationalID     string `json:"nationalId" validate:"required,national_id"`
	Contact        string `json:"contact" validate:"required,contact_number"`
	Address        string `json:"address" validate:"required,min=5"`
	InvestedAmount string `json:"investedAmount" validate:"required,decimal_amount,cent_precision"`
}

// CandidateFromDetails renders stored details back into candidate form
func CandidateFromDetails(d ShareholderDetails) Candidate {
	return Candidate{
		Name:           d.Name,
		NationalID:     d.NationalID,
		Contact:        d.Contact,
		Address:        d.Address,
		InvestedAmount: d.InvestedAmount.String(),
	}
}

// Normalize trims surrounding whitespace from every field. Nothing else is
// rewritten: stored values read back exactly as entered.
func (c Candidate) Normalize() Candidate {
	return Candidate{
		Name:           strings.TrimSpace(c.Name),
		NationalID:     strings.TrimSpace(c.NationalID),
		Contact:        strings.TrimSpace(c.Contact),
		Address:        strings.TrimSpace(c.Address),
		InvestedAmount: strings.TrimSpace(c.InvestedAmount),
	}
}

// NationalIDKey is the form national IDs are compared in, so 941234567v and
// 941234567V name the same person. Lookups and the unique index both use it.
func NationalIDKey(nationalID string) string {
	return cases.Upper(language.Und).String(strings.TrimSpace(nationalID))
}

// Package identity decides whether two contact records denote the same
// real-world person. It is used both to reject single-contact creation with a
// conflict and to report skips during bulk import.
package identity

import (
	"context"
	"errors"

	"github.com/Vaibhav5418/leadgen-backend/internal/db"
	"github.com/Vaibhav5418/leadgen-backend/internal/matching"
	"github.com/Vaibhav5418/leadgen-backend/internal/repository"
)

// Duplicate reasons, reported to callers and surfaced in import summaries.
const (
	ReasonNameEmail   = "matching name and email"
	ReasonNameCompany = "matching name and company"
	ReasonBareName    = "matching name with no email or company"
)

// Candidate carries the identity-relevant fields of an incoming contact.
type Candidate struct {
	Name    string
	Email   string
	Company string
}

// Resolution is the outcome of a duplicate check. Existing is set when a
// duplicate was found.
type Resolution struct {
	IsDuplicate bool
	Reason      string
	Existing    *repository.Contact
}

// ContactFinder is the narrow store surface the resolver needs. All lookups
// are case-insensitive, whole-string matches.
type ContactFinder interface {
	FindByNameAndEmail(ctx context.Context, name, email string) (*repository.Contact, error)
	FindByNameAndCompany(ctx context.Context, name, company string) (*repository.Contact, error)
	FindBareName(ctx context.Context, name string) (*repository.Contact, error)
}

// Resolver applies the duplicate-identity decision cascade.
type Resolver struct {
	contacts ContactFinder
}

func NewResolver(contacts ContactFinder) *Resolver {
	return &Resolver{contacts: contacts}
}

// Resolve runs the decision cascade; the first applicable rule wins:
//
//  1. Name and email both present: duplicate iff a contact matches both.
//     Name+email is the strongest signal, so it short-circuits the rest even
//     when it finds nothing.
//  2. Name and company present, email absent: duplicate iff a contact
//     matches both.
//  3. Only a name: duplicate iff a contact has the same name AND no email
//     AND no company. Bare-name matching never fires against records that
//     merely lack an email but have a company.
func (r *Resolver) Resolve(ctx context.Context, candidate Candidate) (Resolution, error) {
	name := matching.NormalizeName(candidate.Name)
	email := matching.NormalizeEmail(candidate.Email)
	company := matching.NormalizeCompany(candidate.Company)

	if name == "" {
		return Resolution{}, nil
	}

	switch {
	case email != "":
		existing, err := r.contacts.FindByNameAndEmail(ctx, name, email)
		if err != nil {
			return notFoundAsClean(err)
		}
		return Resolution{IsDuplicate: true, Reason: ReasonNameEmail, Existing: existing}, nil

	case company != "":
		existing, err := r.contacts.FindByNameAndCompany(ctx, name, company)
		if err != nil {
			return notFoundAsClean(err)
		}
		return Resolution{IsDuplicate: true, Reason: ReasonNameCompany, Existing: existing}, nil

	default:
		existing, err := r.contacts.FindBareName(ctx, name)
		if err != nil {
			return notFoundAsClean(err)
		}
		return Resolution{IsDuplicate: true, Reason: ReasonBareName, Existing: existing}, nil
	}
}

// notFoundAsClean maps a not-found lookup to a clean (non-duplicate)
// resolution; any other store error propagates.
func notFoundAsClean(err error) (Resolution, error) {
	if errors.Is(err, db.ErrNotFound) {
		return Resolution{}, nil
	}
	return Resolution{}, err
}

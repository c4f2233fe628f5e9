package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Vaibhav5418/leadgen-backend/internal/db"
	"github.com/Vaibhav5418/leadgen-backend/internal/identity"
	"github.com/Vaibhav5418/leadgen-backend/internal/repository"
)

// ErrNameRequired is returned when a contact draft has no name.
var ErrNameRequired = errors.New("contact name is required")

// DuplicateContactError is the conflict outcome of single-contact creation:
// the draft denotes a person already in the databank. It carries the matched
// record and the human-readable cascade reason.
type DuplicateContactError struct {
	Reason   string
	Existing *repository.Contact
}

func (e *DuplicateContactError) Error() string {
	return fmt.Sprintf("duplicate contact: %s", e.Reason)
}

type contactCreateStore interface {
	identity.ContactFinder
	InsertOne(ctx context.Context, contact repository.Contact) (*repository.Contact, error)
}

// ContactService handles databank contact creation with duplicate rejection.
type ContactService struct {
	contacts contactCreateStore
	resolver *identity.Resolver
}

func NewContactService(contacts contactCreateStore) *ContactService {
	return &ContactService{
		contacts: contacts,
		resolver: identity.NewResolver(contacts),
	}
}

// CreateContact inserts a contact after running the duplicate-identity
// cascade. A duplicate yields a *DuplicateContactError; a uniqueness race on
// the insert itself resolves to the same conflict outcome.
func (s *ContactService) CreateContact(ctx context.Context, contact repository.Contact) (*repository.Contact, error) {
	if strings.TrimSpace(contact.Name) == "" {
		return nil, ErrNameRequired
	}

	resolution, err := s.resolver.Resolve(ctx, identity.Candidate{
		Name:    contact.Name,
		Email:   contact.Email,
		Company: contact.Company,
	})
	if err != nil {
		return nil, err
	}
	if resolution.IsDuplicate {
		return nil, &DuplicateContactError{Reason: resolution.Reason, Existing: resolution.Existing}
	}

	created, err := s.contacts.InsertOne(ctx, contact)
	if err != nil {
		if errors.Is(err, db.ErrDuplicate) {
			// Lost a race with a concurrent create; report it as the same
			// conflict the cascade would have found.
			if existing, ferr := s.contacts.FindByNameAndEmail(ctx, contact.Name, contact.Email); ferr == nil {
				return nil, &DuplicateContactError{Reason: identity.ReasonNameEmail, Existing: existing}
			}
			return nil, &DuplicateContactError{Reason: identity.ReasonNameEmail}
		}
		return nil, err
	}
	return created, nil
}

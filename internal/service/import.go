package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Vaibhav5418/leadgen-backend/internal/logger"
	"github.com/Vaibhav5418/leadgen-backend/internal/matching"
	"github.com/Vaibhav5418/leadgen-backend/internal/repository"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
)

// Client input errors; no store mutation has happened when these are
// returned.
var (
	ErrMissingProjectID = errors.New("project id is required")
	ErrEmptyBatch       = errors.New("import batch is empty")
	ErrBatchTooLarge    = errors.New("import batch exceeds the row limit")
)

// ImportMode selects the batch-duplicate policy.
//
// Strict drops rows whose email repeats an earlier row in the same batch.
// Lenient instead synthesizes a unique identity for every row: repeated
// emails get a counter suffixed before the @, and rows missing a name or
// email get placeholder values. The lenient behavior manufactures identity
// data and exists to accept arbitrary historical uploads; it is a deliberate
// policy choice kept behind this explicit flag.
type ImportMode string

const (
	ImportModeStrict  ImportMode = "strict"
	ImportModeLenient ImportMode = "lenient"
)

// ImportRow is one pre-normalized candidate contact record from an upload.
type ImportRow struct {
	Name           string `json:"name" validate:"required"`
	Email          string `json:"email" validate:"omitempty,email"`
	Phone          string `json:"phone"`
	Company        string `json:"company"`
	Title          string `json:"title"`
	Industry       string `json:"industry"`
	Category       string `json:"category"`
	Keywords       string `json:"keywords"`
	Employees      string `json:"employees"`
	Website        string `json:"website"`
	LinkedInURL    string `json:"linkedin_url"`
	City           string `json:"city"`
	State          string `json:"state"`
	Country        string `json:"country"`
	CompanyCity    string `json:"company_city"`
	CompanyState   string `json:"company_state"`
	CompanyCountry string `json:"company_country"`
}

// ImportOptions configures one reconciliation run.
type ImportOptions struct {
	Mode         ImportMode
	AssignTo     string
	DefaultStage repository.Stage
}

// ImportReport is the byte-accurate outcome of a reconciliation run. Every
// input row lands in exactly one of the skip counters or proceeds into the
// databank phase; Imported always equals LinksCreated.
type ImportReport struct {
	RowsProvided           int      `json:"rows_provided"`
	Imported               int      `json:"imported"`
	Skipped                int      `json:"skipped"`
	BatchDuplicatesSkipped int      `json:"batch_duplicates_skipped"`
	InvalidRowsSkipped     int      `json:"invalid_rows_skipped"`
	AlreadyLinkedSkipped   int      `json:"already_linked_skipped"`
	NewContacts            int      `json:"new_contacts_in_databank"`
	ExistingContacts       int      `json:"existing_contacts_in_databank"`
	ContactsUpdated        int      `json:"contacts_updated"`
	LinksCreated           int      `json:"links_created"`
	Errors                 []string `json:"errors,omitempty"`
}

type importContactStore interface {
	FindByEmails(ctx context.Context, emails []string) ([]repository.Contact, error)
	FindOneByEmail(ctx context.Context, email string) (*repository.Contact, error)
	InsertMany(ctx context.Context, contacts []repository.Contact) ([]string, []repository.RejectedWrite, error)
	UpdateFields(ctx context.Context, id string, fields bson.M) error
}

type importProjectStore interface {
	GetProject(ctx context.Context, id string) (*repository.Project, error)
	FindLinks(ctx context.Context, projectID string) ([]repository.ProjectContact, error)
	InsertLinks(ctx context.Context, links []repository.ProjectContact) ([]string, []repository.RejectedWrite, error)
}

// ImportService reconciles a batch of candidate contact records against the
// databank and links the survivors to a project. Insert, update and link
// phases are best-effort and non-atomic; uniqueness races with concurrent
// imports are absorbed into the report, never escalated.
type ImportService struct {
	contacts     importContactStore
	projects     importProjectStore
	validate     *validator.Validate
	maxBatchRows int
}

func NewImportService(contacts importContactStore, projects importProjectStore, maxBatchRows int) *ImportService {
	return &ImportService{
		contacts:     contacts,
		projects:     projects,
		validate:     validator.New(),
		maxBatchRows: maxBatchRows,
	}
}

// Reconcile runs the full pipeline: intra-batch dedup, existing-record
// lookup, best-effort insert with partial-failure recovery, fill-only
// updates, and idempotent project linking.
func (s *ImportService) Reconcile(ctx context.Context, projectID string, rows []ImportRow, opts ImportOptions) (*ImportReport, error) {
	if projectID == "" {
		return nil, ErrMissingProjectID
	}
	if len(rows) == 0 {
		return nil, ErrEmptyBatch
	}
	if s.maxBatchRows > 0 && len(rows) > s.maxBatchRows {
		return nil, fmt.Errorf("%w: %d rows, limit %d", ErrBatchTooLarge, len(rows), s.maxBatchRows)
	}
	if opts.Mode == "" {
		opts.Mode = ImportModeStrict
	}
	if opts.DefaultStage == "" {
		opts.DefaultStage = repository.StageCIP
	}

	if _, err := s.projects.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	report := &ImportReport{RowsProvided: len(rows)}

	kept := s.dedupeBatch(rows, opts.Mode, report)

	newRows, existing, err := s.partitionByExisting(ctx, kept)
	if err != nil {
		return nil, err
	}

	createdIDs, err := s.insertNewContacts(ctx, newRows, &existing, report)
	if err != nil {
		return nil, err
	}
	report.NewContacts = len(createdIDs)
	report.ExistingContacts = len(existing)

	s.applyFillOnlyUpdates(ctx, existing, report)

	if err := s.linkContacts(ctx, projectID, createdIDs, existing, opts, report); err != nil {
		return nil, err
	}

	report.Imported = report.LinksCreated
	report.Skipped = report.BatchDuplicatesSkipped + report.InvalidRowsSkipped + report.AlreadyLinkedSkipped

	logger.Info().
		Str("project_id", projectID).
		Int("rows", report.RowsProvided).
		Int("imported", report.Imported).
		Int("new", report.NewContacts).
		Int("existing", report.ExistingContacts).
		Int("skipped", report.Skipped).
		Msg("bulk import reconciled")

	return report, nil
}

// dedupeBatch applies the mode's intra-batch duplicate policy and, in strict
// mode, row validation. Every dropped row increments a report counter.
func (s *ImportService) dedupeBatch(rows []ImportRow, mode ImportMode, report *ImportReport) []ImportRow {
	seen := make(map[string]bool, len(rows))
	kept := make([]ImportRow, 0, len(rows))

	for i, row := range rows {
		if mode == ImportModeLenient {
			synthesizeIdentity(&row, i+1, seen)
			seen[matching.NormalizeEmail(row.Email)] = true
			kept = append(kept, row)
			continue
		}

		if err := s.validate.Struct(row); err != nil {
			report.InvalidRowsSkipped++
			report.Errors = append(report.Errors, fmt.Sprintf("row %d: %s", i+1, validationMessage(err)))
			continue
		}

		email := matching.NormalizeEmail(row.Email)
		if email != "" {
			if seen[email] {
				report.BatchDuplicatesSkipped++
				continue
			}
			seen[email] = true
		}
		kept = append(kept, row)
	}

	return kept
}

// synthesizeIdentity fills missing identity fields and uniquifies repeated
// emails so every lenient-mode row survives.
func synthesizeIdentity(row *ImportRow, position int, seen map[string]bool) {
	if strings.TrimSpace(row.Name) == "" {
		row.Name = fmt.Sprintf("Unknown Contact %d", position)
	}
	if strings.TrimSpace(row.Email) == "" {
		row.Email = fmt.Sprintf("contact%d@unknown.com", position)
	}

	email := matching.NormalizeEmail(row.Email)
	if !seen[email] {
		row.Email = email
		return
	}

	at := strings.LastIndex(email, "@")
	local, domain := email[:at], email[at:]
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s%d%s", local, n, domain)
		if !seen[candidate] {
			row.Email = candidate
			return
		}
	}
}

type existingMatch struct {
	row    ImportRow
	stored repository.Contact
}

// partitionByExisting splits the batch into rows with no databank match and
// rows matched case-insensitively by email.
func (s *ImportService) partitionByExisting(ctx context.Context, rows []ImportRow) ([]ImportRow, []existingMatch, error) {
	emails := make([]string, 0, len(rows))
	for _, row := range rows {
		if email := matching.NormalizeEmail(row.Email); email != "" {
			emails = append(emails, email)
		}
	}

	stored, err := s.contacts.FindByEmails(ctx, emails)
	if err != nil {
		return nil, nil, err
	}

	byEmail := make(map[string]repository.Contact, len(stored))
	for _, contact := range stored {
		byEmail[matching.NormalizeEmail(contact.Email)] = contact
	}

	var newRows []ImportRow
	var existing []existingMatch
	for _, row := range rows {
		email := matching.NormalizeEmail(row.Email)
		if contact, ok := byEmail[email]; ok && email != "" {
			existing = append(existing, existingMatch{row: row, stored: contact})
			continue
		}
		newRows = append(newRows, row)
	}
	return newRows, existing, nil
}

// insertNewContacts bulk-inserts the unmatched rows, keeping whatever subset
// the store accepts. Rows rejected as duplicates (a race between the lookup
// and the insert) are re-resolved by email and reclassified as existing.
func (s *ImportService) insertNewContacts(ctx context.Context, rows []ImportRow, existing *[]existingMatch, report *ImportReport) ([]string, error) {
	if len(rows) == 0 {
		return nil, nil
	}

	drafts := make([]repository.Contact, len(rows))
	for i, row := range rows {
		drafts[i] = rowToContact(row)
		drafts[i].ID = uuid.NewString()
	}

	insertedIDs, rejected, err := s.contacts.InsertMany(ctx, drafts)
	if err != nil {
		return nil, err
	}

	for _, rej := range rejected {
		row := rows[rej.Index]
		if !rej.Duplicate {
			report.Errors = append(report.Errors, fmt.Sprintf("insert rejected for %q: %s", row.Email, rej.Message))
			continue
		}

		stored, ferr := s.contacts.FindOneByEmail(ctx, matching.NormalizeEmail(row.Email))
		if ferr != nil {
			logger.Warn().Err(ferr).Str("email", row.Email).Msg("failed to re-resolve duplicate insert")
			report.Errors = append(report.Errors, fmt.Sprintf("could not re-resolve duplicate %q", row.Email))
			continue
		}
		*existing = append(*existing, existingMatch{row: row, stored: *stored})
	}

	return insertedIDs, nil
}

// applyFillOnlyUpdates merges imported values into matched records, touching
// only fields that are empty on the stored record and populated on the draft.
func (s *ImportService) applyFillOnlyUpdates(ctx context.Context, existing []existingMatch, report *ImportReport) {
	for _, match := range existing {
		fields := fillOnlyFields(match.stored, match.row)
		if len(fields) == 0 {
			continue
		}
		if err := s.contacts.UpdateFields(ctx, match.stored.ID, fields); err != nil {
			logger.Warn().Err(err).Str("contact_id", match.stored.ID).Msg("fill-only update failed")
			report.Errors = append(report.Errors, fmt.Sprintf("update failed for %q: %v", match.stored.Email, err))
			continue
		}
		report.ContactsUpdated++
	}
}

// linkContacts creates project links for the union of created and matched
// contacts, skipping pairs already linked and absorbing uniqueness races on
// the link insert itself.
func (s *ImportService) linkContacts(ctx context.Context, projectID string, createdIDs []string, existing []existingMatch, opts ImportOptions, report *ImportReport) error {
	links, err := s.projects.FindLinks(ctx, projectID)
	if err != nil {
		return err
	}
	linked := make(map[string]bool, len(links))
	for _, link := range links {
		linked[link.ContactID] = true
	}

	candidateIDs := make([]string, 0, len(createdIDs)+len(existing))
	candidateIDs = append(candidateIDs, createdIDs...)
	for _, match := range existing {
		candidateIDs = append(candidateIDs, match.stored.ID)
	}

	var drafts []repository.ProjectContact
	seen := make(map[string]bool, len(candidateIDs))
	for _, contactID := range candidateIDs {
		if seen[contactID] {
			continue
		}
		seen[contactID] = true
		if linked[contactID] {
			report.AlreadyLinkedSkipped++
			continue
		}
		drafts = append(drafts, repository.ProjectContact{
			ProjectID:  projectID,
			ContactID:  contactID,
			Stage:      opts.DefaultStage,
			Priority:   repository.PriorityMedium,
			AssignedTo: opts.AssignTo,
		})
	}

	insertedIDs, rejected, err := s.projects.InsertLinks(ctx, drafts)
	if err != nil {
		return err
	}
	for _, rej := range rejected {
		if rej.Duplicate {
			report.AlreadyLinkedSkipped++
			continue
		}
		report.Errors = append(report.Errors, fmt.Sprintf("link rejected: %s", rej.Message))
	}
	report.LinksCreated = len(insertedIDs)
	return nil
}

// rowToContact maps an import row onto a contact draft.
func rowToContact(row ImportRow) repository.Contact {
	return repository.Contact{
		Name:           strings.TrimSpace(row.Name),
		Email:          matching.NormalizeEmail(row.Email),
		Phone:          strings.TrimSpace(row.Phone),
		Company:        strings.TrimSpace(row.Company),
		Title:          strings.TrimSpace(row.Title),
		Industry:       strings.TrimSpace(row.Industry),
		Category:       strings.TrimSpace(row.Category),
		Keywords:       strings.TrimSpace(row.Keywords),
		Employees:      strings.TrimSpace(row.Employees),
		Website:        strings.TrimSpace(row.Website),
		LinkedInURL:    strings.TrimSpace(row.LinkedInURL),
		City:           strings.TrimSpace(row.City),
		State:          strings.TrimSpace(row.State),
		Country:        strings.TrimSpace(row.Country),
		CompanyCity:    strings.TrimSpace(row.CompanyCity),
		CompanyState:   strings.TrimSpace(row.CompanyState),
		CompanyCountry: strings.TrimSpace(row.CompanyCountry),
	}
}

// fillOnlyFields computes the partial update for a matched record: every
// updatable attribute where the stored value is empty and the draft value is
// not. Populated fields are never overwritten.
func fillOnlyFields(stored repository.Contact, row ImportRow) bson.M {
	draft := rowToContact(row)
	pairs := []struct {
		field  string
		stored string
		draft  string
	}{
		{"name", stored.Name, draft.Name},
		{"phone", stored.Phone, draft.Phone},
		{"company", stored.Company, draft.Company},
		{"title", stored.Title, draft.Title},
		{"industry", stored.Industry, draft.Industry},
		{"category", stored.Category, draft.Category},
		{"keywords", stored.Keywords, draft.Keywords},
		{"employees", stored.Employees, draft.Employees},
		{"website", stored.Website, draft.Website},
		{"linkedinUrl", stored.LinkedInURL, draft.LinkedInURL},
		{"city", stored.City, draft.City},
		{"state", stored.State, draft.State},
		{"country", stored.Country, draft.Country},
		{"companyCity", stored.CompanyCity, draft.CompanyCity},
		{"companyState", stored.CompanyState, draft.CompanyState},
		{"companyCountry", stored.CompanyCountry, draft.CompanyCountry},
	}

	fields := bson.M{}
	for _, p := range pairs {
		if strings.TrimSpace(p.stored) == "" && p.draft != "" {
			fields[p.field] = p.draft
		}
	}
	return fields
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		parts := make([]string, 0, len(verrs))
		for _, ve := range verrs {
			parts = append(parts, fmt.Sprintf("%s failed %q validation", ve.Field(), ve.Tag()))
		}
		return strings.Join(parts, "; ")
	}
	return err.Error()
}

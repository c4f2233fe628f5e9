package service

import (
	"context"
	"testing"

	"github.com/Vaibhav5418/leadgen-backend/internal/db"
	"github.com/Vaibhav5418/leadgen-backend/internal/matching"
	"github.com/Vaibhav5418/leadgen-backend/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
)

// fakeContactStore is an in-memory databank keyed by normalized email,
// enforcing the same case-insensitive uniqueness as the real store.
type fakeContactStore struct {
	contacts map[string]repository.Contact // keyed by ID
	updates  map[string]bson.M

	// hiddenFromBulkLookup simulates a contact landing between the batch
	// email lookup and the bulk insert: FindByEmails misses it, but the
	// unique index still rejects the insert and FindOneByEmail sees it.
	hiddenFromBulkLookup map[string]bool
}

func newFakeContactStore(seed ...repository.Contact) *fakeContactStore {
	s := &fakeContactStore{
		contacts: make(map[string]repository.Contact),
		updates:  make(map[string]bson.M),
	}
	for _, c := range seed {
		s.contacts[c.ID] = c
	}
	return s
}

func (s *fakeContactStore) findEmail(email string) *repository.Contact {
	norm := matching.NormalizeEmail(email)
	if norm == "" {
		return nil
	}
	for _, c := range s.contacts {
		if matching.NormalizeEmail(c.Email) == norm {
			found := c
			return &found
		}
	}
	return nil
}

func (s *fakeContactStore) FindByEmails(ctx context.Context, emails []string) ([]repository.Contact, error) {
	var out []repository.Contact
	seen := make(map[string]bool)
	for _, email := range emails {
		if s.hiddenFromBulkLookup[matching.NormalizeEmail(email)] {
			continue
		}
		if c := s.findEmail(email); c != nil && !seen[c.ID] {
			seen[c.ID] = true
			out = append(out, *c)
		}
	}
	return out, nil
}

func (s *fakeContactStore) FindOneByEmail(ctx context.Context, email string) (*repository.Contact, error) {
	if c := s.findEmail(email); c != nil {
		return c, nil
	}
	return nil, db.ErrNotFound
}

func (s *fakeContactStore) InsertMany(ctx context.Context, contacts []repository.Contact) ([]string, []repository.RejectedWrite, error) {
	var ids []string
	var rejected []repository.RejectedWrite
	for i, c := range contacts {
		if s.findEmail(c.Email) != nil {
			rejected = append(rejected, repository.RejectedWrite{Index: i, Duplicate: true, Message: "duplicate key"})
			continue
		}
		s.contacts[c.ID] = c
		ids = append(ids, c.ID)
	}
	return ids, rejected, nil
}

func (s *fakeContactStore) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	if _, ok := s.contacts[id]; !ok {
		return db.ErrNotFound
	}
	s.updates[id] = fields
	return nil
}

type fakeProjectStore struct {
	project *repository.Project
	links   []repository.ProjectContact

	forceDuplicateContactIDs map[string]bool
}

func newFakeProjectStore() *fakeProjectStore {
	return &fakeProjectStore{
		project: &repository.Project{ID: "p1", Name: "Acme Outreach", ContactEmail: "owner@client.com"},
	}
}

func (s *fakeProjectStore) GetProject(ctx context.Context, id string) (*repository.Project, error) {
	if s.project == nil || s.project.ID != id {
		return nil, db.ErrNotFound
	}
	return s.project, nil
}

func (s *fakeProjectStore) FindLinks(ctx context.Context, projectID string) ([]repository.ProjectContact, error) {
	var out []repository.ProjectContact
	for _, l := range s.links {
		if l.ProjectID == projectID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (s *fakeProjectStore) InsertLinks(ctx context.Context, links []repository.ProjectContact) ([]string, []repository.RejectedWrite, error) {
	var ids []string
	var rejected []repository.RejectedWrite
	for i, l := range links {
		if s.forceDuplicateContactIDs[l.ContactID] {
			rejected = append(rejected, repository.RejectedWrite{Index: i, Duplicate: true, Message: "duplicate key"})
			continue
		}
		if l.ID == "" {
			l.ID = "link-" + l.ContactID
		}
		s.links = append(s.links, l)
		ids = append(ids, l.ID)
	}
	return ids, rejected, nil
}

func TestReconcileRejectsBadInput(t *testing.T) {
	contacts := newFakeContactStore()
	projects := newFakeProjectStore()
	svc := NewImportService(contacts, projects, 2)

	_, err := svc.Reconcile(context.Background(), "", []ImportRow{{Name: "A"}}, ImportOptions{})
	assert.ErrorIs(t, err, ErrMissingProjectID)

	_, err = svc.Reconcile(context.Background(), "p1", nil, ImportOptions{})
	assert.ErrorIs(t, err, ErrEmptyBatch)

	rows := []ImportRow{{Name: "A"}, {Name: "B"}, {Name: "C"}}
	_, err = svc.Reconcile(context.Background(), "p1", rows, ImportOptions{})
	assert.ErrorIs(t, err, ErrBatchTooLarge)

	_, err = svc.Reconcile(context.Background(), "missing", []ImportRow{{Name: "A"}}, ImportOptions{})
	assert.ErrorIs(t, err, db.ErrNotFound)

	assert.Empty(t, contacts.contacts)
	assert.Empty(t, projects.links)
}

func TestReconcileFreshBatch(t *testing.T) {
	contacts := newFakeContactStore()
	projects := newFakeProjectStore()
	svc := NewImportService(contacts, projects, 0)

	rows := []ImportRow{
		{Name: "Jane Doe", Email: "jane@acme.com", Company: "Acme"},
		{Name: "John Smith", Email: "john@globex.com"},
	}

	report, err := svc.Reconcile(context.Background(), "p1", rows, ImportOptions{AssignTo: "sam"})
	require.NoError(t, err)

	assert.Equal(t, 2, report.RowsProvided)
	assert.Equal(t, 2, report.NewContacts)
	assert.Equal(t, 0, report.ExistingContacts)
	assert.Equal(t, 2, report.LinksCreated)
	assert.Equal(t, report.LinksCreated, report.Imported)
	assert.Equal(t, 0, report.Skipped)
	assert.Empty(t, report.Errors)

	require.Len(t, projects.links, 2)
	for _, link := range projects.links {
		assert.Equal(t, "p1", link.ProjectID)
		assert.Equal(t, repository.StageCIP, link.Stage)
		assert.Equal(t, repository.PriorityMedium, link.Priority)
		assert.Equal(t, "sam", link.AssignedTo)
	}
}

// Running the same batch twice must be a no-op: no new contacts, no updates,
// every row skipped as already linked.
func TestReconcileIsIdempotent(t *testing.T) {
	contacts := newFakeContactStore()
	projects := newFakeProjectStore()
	svc := NewImportService(contacts, projects, 0)

	rows := []ImportRow{
		{Name: "Jane Doe", Email: "jane@acme.com", Company: "Acme"},
		{Name: "John Smith", Email: "john@globex.com", Phone: "555-0100"},
	}

	_, err := svc.Reconcile(context.Background(), "p1", rows, ImportOptions{})
	require.NoError(t, err)

	report, err := svc.Reconcile(context.Background(), "p1", rows, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, report.NewContacts)
	assert.Equal(t, 2, report.ExistingContacts)
	assert.Equal(t, 0, report.ContactsUpdated)
	assert.Equal(t, 0, report.LinksCreated)
	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 2, report.AlreadyLinkedSkipped)
	assert.Equal(t, 2, report.Skipped)
	assert.Len(t, projects.links, 2)
}

func TestReconcileStrictSkipsBatchDuplicatesAndInvalidRows(t *testing.T) {
	contacts := newFakeContactStore()
	projects := newFakeProjectStore()
	svc := NewImportService(contacts, projects, 0)

	rows := []ImportRow{
		{Name: "Jane Doe", Email: "jane@acme.com"},
		{Name: "Jane Again", Email: "JANE@ACME.COM"}, // repeats row 1 ignoring case
		{Email: "noname@acme.com"},                   // name is required
		{Name: "Bad Email", Email: "not-an-email"},
	}

	report, err := svc.Reconcile(context.Background(), "p1", rows, ImportOptions{Mode: ImportModeStrict})
	require.NoError(t, err)

	assert.Equal(t, 1, report.BatchDuplicatesSkipped)
	assert.Equal(t, 2, report.InvalidRowsSkipped)
	assert.Equal(t, 1, report.NewContacts)
	assert.Equal(t, 1, report.Imported)
	assert.Equal(t, 3, report.Skipped)
	assert.Len(t, report.Errors, 2)
}

func TestReconcileLenientSynthesizesIdentity(t *testing.T) {
	contacts := newFakeContactStore()
	projects := newFakeProjectStore()
	svc := NewImportService(contacts, projects, 0)

	rows := []ImportRow{
		{Name: "Jane Doe", Email: "jane@acme.com"},
		{Name: "Jane Again", Email: "jane@acme.com"}, // uniquified, not dropped
		{Email: "solo@acme.com"},                     // missing name synthesized
		{Name: "No Email"},                           // missing email synthesized
	}

	report, err := svc.Reconcile(context.Background(), "p1", rows, ImportOptions{Mode: ImportModeLenient})
	require.NoError(t, err)

	assert.Equal(t, 4, report.NewContacts)
	assert.Equal(t, 4, report.Imported)
	assert.Equal(t, 0, report.Skipped)

	emails := make(map[string]bool)
	names := make(map[string]bool)
	for _, c := range contacts.contacts {
		emails[c.Email] = true
		names[c.Name] = true
	}
	assert.True(t, emails["jane@acme.com"])
	assert.True(t, emails["jane2@acme.com"], "repeated email gets a counter before the @")
	assert.True(t, names["Unknown Contact 3"])
	assert.True(t, emails["contact4@unknown.com"])
}

func TestReconcileFillOnlyUpdates(t *testing.T) {
	stored := repository.Contact{
		ID:      "c1",
		Name:    "Jane Doe",
		Email:   "jane@acme.com",
		Company: "Acme",
		Phone:   "", // only gap to fill
	}
	contacts := newFakeContactStore(stored)
	projects := newFakeProjectStore()
	svc := NewImportService(contacts, projects, 0)

	rows := []ImportRow{{
		Name:    "Jane D.",
		Email:   "Jane@Acme.COM",
		Company: "Acme Corporation", // stored value populated, must survive
		Phone:   "555-0100",
		Title:   "CTO",
	}}

	report, err := svc.Reconcile(context.Background(), "p1", rows, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, report.NewContacts)
	assert.Equal(t, 1, report.ExistingContacts)
	assert.Equal(t, 1, report.ContactsUpdated)
	assert.Equal(t, 1, report.LinksCreated)

	fields := contacts.updates["c1"]
	require.NotNil(t, fields)
	assert.Equal(t, bson.M{"phone": "555-0100", "title": "CTO"}, fields)
}

// A contact inserted by a concurrent import between the lookup and the bulk
// insert comes back as a duplicate rejection; it must be re-resolved by email
// and still end up linked.
func TestReconcileRecoversFromInsertRace(t *testing.T) {
	racer := repository.Contact{ID: "c-race", Name: "Jane Doe", Email: "jane@acme.com"}
	contacts := newFakeContactStore(racer)
	contacts.hiddenFromBulkLookup = map[string]bool{"jane@acme.com": true}

	projects := newFakeProjectStore()
	svc := NewImportService(contacts, projects, 0)

	rows := []ImportRow{{Name: "Jane Doe", Email: "jane@acme.com"}}

	report, err := svc.Reconcile(context.Background(), "p1", rows, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, report.NewContacts)
	assert.Equal(t, 1, report.ExistingContacts)
	assert.Equal(t, 1, report.LinksCreated)
	assert.Empty(t, report.Errors)

	require.Len(t, projects.links, 1)
	assert.Equal(t, "c-race", projects.links[0].ContactID)
}

// A link inserted by a concurrent import between FindLinks and InsertLinks is
// rejected by the unique pair index; the rejection counts as already linked
// rather than failing the run.
func TestReconcileAbsorbsLinkRace(t *testing.T) {
	jane := repository.Contact{ID: "c-jane", Name: "Jane Doe", Email: "jane@acme.com"}
	contacts := newFakeContactStore(jane)
	projects := newFakeProjectStore()
	projects.forceDuplicateContactIDs = map[string]bool{"c-jane": true}
	svc := NewImportService(contacts, projects, 0)

	rows := []ImportRow{{Name: "Jane Doe", Email: "jane@acme.com"}}

	report, err := svc.Reconcile(context.Background(), "p1", rows, ImportOptions{})
	require.NoError(t, err)

	assert.Equal(t, 0, report.LinksCreated)
	assert.Equal(t, 1, report.AlreadyLinkedSkipped)
	assert.Equal(t, 0, report.Imported)
	assert.Empty(t, report.Errors)
}

func TestFillOnlyFieldsNeverOverwrites(t *testing.T) {
	stored := repository.Contact{Name: "Jane", Company: "Acme", City: "  "}
	row := ImportRow{Name: "Janet", Company: "Globex", City: "Berlin", Country: "Germany"}

	fields := fillOnlyFields(stored, row)

	assert.Equal(t, bson.M{"city": "Berlin", "country": "Germany"}, fields)
}

func TestSynthesizeIdentityUniquifiesRepeatedEmails(t *testing.T) {
	seen := map[string]bool{"jane@acme.com": true, "jane2@acme.com": true}
	row := ImportRow{Name: "Jane", Email: "Jane@Acme.com"}

	synthesizeIdentity(&row, 5, seen)

	assert.Equal(t, "jane3@acme.com", row.Email)
}

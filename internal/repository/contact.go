package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vaibhav5418/leadgen-backend/internal/db"
	"github.com/Vaibhav5418/leadgen-backend/internal/matching"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// duplicateKeyCodes are the server error codes for uniqueness violations.
var duplicateKeyCodes = map[int]bool{11000: true, 11001: true}

// ContactRepository implements the contact store contract over a document
// collection.
type ContactRepository struct {
	coll *mongo.Collection
}

func NewContactRepository(database *db.Database) *ContactRepository {
	return &ContactRepository{coll: database.DB.Collection(db.CollectionContacts)}
}

// FindByFilter returns contacts matching the predicate, sorted by ID so
// retrieval order is deterministic. A limit of 0 means no limit.
func (r *ContactRepository) FindByFilter(ctx context.Context, filter bson.M, limit int64) ([]Contact, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})
	if limit > 0 {
		opts.SetLimit(limit)
	}

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer cursor.Close(ctx)

	var contacts []Contact
	if err := cursor.All(ctx, &contacts); err != nil {
		return nil, fmt.Errorf("failed to decode contacts: %w", err)
	}
	return contacts, nil
}

// FindOne returns the first contact matching the predicate, or db.ErrNotFound.
func (r *ContactRepository) FindOne(ctx context.Context, filter bson.M) (*Contact, error) {
	var contact Contact
	err := r.coll.FindOne(ctx, filter).Decode(&contact)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, db.ErrNotFound
		}
		return nil, err
	}
	return &contact, nil
}

// FindByIDs returns the contacts with the given IDs. Missing IDs are simply
// absent from the result.
func (r *ContactRepository) FindByIDs(ctx context.Context, ids []string) ([]Contact, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	return r.FindByFilter(ctx, bson.M{"_id": bson.M{"$in": ids}}, 0)
}

// FindByEmails returns contacts whose email case-insensitively equals any of
// the given values.
func (r *ContactRepository) FindByEmails(ctx context.Context, emails []string) ([]Contact, error) {
	if len(emails) == 0 {
		return nil, nil
	}
	or := make([]bson.M, 0, len(emails))
	for _, email := range emails {
		or = append(or, bson.M{"email": anchoredFold(email)})
	}
	return r.FindByFilter(ctx, bson.M{"$or": or}, 0)
}

// FindOneByEmail returns the contact with the given email, matched
// case-insensitively and whole-string, or db.ErrNotFound.
func (r *ContactRepository) FindOneByEmail(ctx context.Context, email string) (*Contact, error) {
	return r.FindOne(ctx, bson.M{"email": anchoredFold(email)})
}

// FindByNameAndEmail matches name AND email exactly, case-insensitively and
// whole-string. Used by the duplicate-identity cascade.
func (r *ContactRepository) FindByNameAndEmail(ctx context.Context, name, email string) (*Contact, error) {
	return r.FindOne(ctx, bson.M{
		"name":  anchoredFold(name),
		"email": anchoredFold(email),
	})
}

// FindByNameAndCompany matches name AND company exactly, case-insensitively
// and whole-string.
func (r *ContactRepository) FindByNameAndCompany(ctx context.Context, name, company string) (*Contact, error) {
	return r.FindOne(ctx, bson.M{
		"name":    anchoredFold(name),
		"company": anchoredFold(company),
	})
}

// FindBareName matches contacts by name where email and company are both
// absent or empty. The narrow scope keeps bare-name matching from colliding
// with records that merely lack an email.
func (r *ContactRepository) FindBareName(ctx context.Context, name string) (*Contact, error) {
	return r.FindOne(ctx, bson.M{
		"name": anchoredFold(name),
		"$and": []bson.M{
			emptyOrMissing("email"),
			emptyOrMissing("company"),
		},
	})
}

// InsertOne inserts a single contact, assigning an ID and timestamps.
// Returns db.ErrDuplicate when the store rejects it on the email uniqueness
// constraint.
func (r *ContactRepository) InsertOne(ctx context.Context, contact Contact) (*Contact, error) {
	prepareContact(&contact)
	if _, err := r.coll.InsertOne(ctx, contact); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return nil, db.ErrDuplicate
		}
		return nil, fmt.Errorf("failed to insert contact: %w", err)
	}
	return &contact, nil
}

// InsertMany performs a best-effort unordered bulk insert. Inserted IDs and
// per-row rejections are both returned; uniqueness violations are flagged so
// the caller can reclassify those rows instead of failing the batch.
func (r *ContactRepository) InsertMany(ctx context.Context, contacts []Contact) ([]string, []RejectedWrite, error) {
	if len(contacts) == 0 {
		return nil, nil, nil
	}

	docs := make([]interface{}, 0, len(contacts))
	ids := make([]string, len(contacts))
	for i := range contacts {
		prepareContact(&contacts[i])
		ids[i] = contacts[i].ID
		docs = append(docs, contacts[i])
	}

	_, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return ids, nil, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return nil, nil, fmt.Errorf("failed to insert contacts: %w", err)
	}

	rejectedIdx := make(map[int]bool, len(bwe.WriteErrors))
	rejected := make([]RejectedWrite, 0, len(bwe.WriteErrors))
	for _, we := range bwe.WriteErrors {
		rejectedIdx[we.Index] = true
		rejected = append(rejected, RejectedWrite{
			Index:     we.Index,
			Duplicate: duplicateKeyCodes[we.Code],
			Message:   we.Message,
		})
	}

	inserted := make([]string, 0, len(ids))
	for i, id := range ids {
		if !rejectedIdx[i] {
			inserted = append(inserted, id)
		}
	}
	return inserted, rejected, nil
}

// UpdateFields applies a partial update to a contact. An empty field set is a
// no-op.
func (r *ContactRepository) UpdateFields(ctx context.Context, id string, fields bson.M) error {
	if len(fields) == 0 {
		return nil
	}
	fields["updatedAt"] = time.Now().UTC()

	result, err := r.coll.UpdateByID(ctx, id, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update contact %s: %w", id, err)
	}
	if result.MatchedCount == 0 {
		return db.ErrNotFound
	}
	return nil
}

// DistinctValues returns the distinct non-empty string values of a field
// among contacts matching the predicate.
func (r *ContactRepository) DistinctValues(ctx context.Context, field string, filter bson.M) ([]string, error) {
	raw, err := r.coll.Distinct(ctx, field, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to query distinct %s: %w", field, err)
	}

	values := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok && s != "" {
			values = append(values, s)
		}
	}
	return values, nil
}

// CountByFilter returns the number of contacts matching the predicate.
func (r *ContactRepository) CountByFilter(ctx context.Context, filter bson.M) (int64, error) {
	return r.coll.CountDocuments(ctx, filter)
}

func prepareContact(contact *Contact) {
	if contact.ID == "" {
		contact.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if contact.CreatedAt.IsZero() {
		contact.CreatedAt = now
	}
	contact.UpdatedAt = now
}

// anchoredFold builds a whole-string, case-insensitive equality predicate.
// The value is escaped so stored text cannot act as a pattern.
func anchoredFold(value string) primitive.Regex {
	return primitive.Regex{
		Pattern: "^" + matching.EscapePattern(value) + "$",
		Options: "i",
	}
}

// emptyOrMissing matches documents where the field is absent, null or empty.
func emptyOrMissing(field string) bson.M {
	return bson.M{"$or": []bson.M{
		{field: bson.M{"$exists": false}},
		{field: nil},
		{field: ""},
	}}
}

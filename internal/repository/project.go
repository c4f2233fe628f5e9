package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Vaibhav5418/leadgen-backend/internal/db"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ProjectRepository implements the project/link store contract over document
// collections.
type ProjectRepository struct {
	projects *mongo.Collection
	links    *mongo.Collection
}

func NewProjectRepository(database *db.Database) *ProjectRepository {
	return &ProjectRepository{
		projects: database.DB.Collection(db.CollectionProjects),
		links:    database.DB.Collection(db.CollectionProjectContacts),
	}
}

// GetProject retrieves a project by ID
func (r *ProjectRepository) GetProject(ctx context.Context, id string) (*Project, error) {
	var project Project
	err := r.projects.FindOne(ctx, bson.M{"_id": id}).Decode(&project)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, db.ErrNotFound
		}
		return nil, err
	}
	return &project, nil
}

// FindLinks returns a project's contact links in creation order. The stable
// order matters: already-linked contacts surface first in similar-contact
// results, in this order.
func (r *ProjectRepository) FindLinks(ctx context.Context, projectID string) ([]ProjectContact, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.links.Find(ctx, bson.M{"projectId": projectID}, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to query project links: %w", err)
	}
	defer cursor.Close(ctx)

	var links []ProjectContact
	if err := cursor.All(ctx, &links); err != nil {
		return nil, fmt.Errorf("failed to decode project links: %w", err)
	}
	return links, nil
}

// InsertLinks performs a best-effort unordered bulk insert of project links.
// Rows rejected on the (projectId, contactId) uniqueness constraint come back
// flagged as duplicates; the caller counts them as already-linked skips.
func (r *ProjectRepository) InsertLinks(ctx context.Context, links []ProjectContact) ([]string, []RejectedWrite, error) {
	if len(links) == 0 {
		return nil, nil, nil
	}

	docs := make([]interface{}, 0, len(links))
	ids := make([]string, len(links))
	for i := range links {
		prepareLink(&links[i])
		ids[i] = links[i].ID
		docs = append(docs, links[i])
	}

	_, err := r.links.InsertMany(ctx, docs, options.InsertMany().SetOrdered(false))
	if err == nil {
		return ids, nil, nil
	}

	var bwe mongo.BulkWriteException
	if !errors.As(err, &bwe) {
		return nil, nil, fmt.Errorf("failed to insert project links: %w", err)
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

// UpsertLink creates or updates the link for a (projectId, contactId) pair.
// Creating a duplicate link is a no-op update, never an error.
func (r *ProjectRepository) UpsertLink(ctx context.Context, projectID, contactID string, stage Stage, priority Priority, assignedTo string) (*ProjectContact, error) {
	now := time.Now().UTC()
	filter := bson.M{"projectId": projectID, "contactId": contactID}
	update := bson.M{
		"$set": bson.M{
			"stage":      stage,
			"priority":   priority,
			"assignedTo": assignedTo,
			"updatedAt":  now,
		},
		"$setOnInsert": bson.M{
			"_id":       uuid.NewString(),
			"projectId": projectID,
			"contactId": contactID,
			"createdAt": now,
		},
	}

	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)
	var link ProjectContact
	if err := r.links.FindOneAndUpdate(ctx, filter, update, opts).Decode(&link); err != nil {
		return nil, fmt.Errorf("failed to upsert project link: %w", err)
	}
	return &link, nil
}

// DeleteLinks removes the links between a project and the given contacts,
// returning the number actually deleted.
func (r *ProjectRepository) DeleteLinks(ctx context.Context, projectID string, contactIDs []string) (int64, error) {
	if len(contactIDs) == 0 {
		return 0, nil
	}
	result, err := r.links.DeleteMany(ctx, bson.M{
		"projectId": projectID,
		"contactId": bson.M{"$in": contactIDs},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to delete project links: %w", err)
	}
	return result.DeletedCount, nil
}

func prepareLink(link *ProjectContact) {
	if link.ID == "" {
		link.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if link.CreatedAt.IsZero() {
		link.CreatedAt = now
	}
	link.UpdatedAt = now
	if link.Stage == "" {
		link.Stage = StageCIP
	}
	if link.Priority == "" {
		link.Priority = PriorityMedium
	}
}

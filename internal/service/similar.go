package service

import (
	"context"
	"runtime"
	"sort"

	"github.com/Vaibhav5418/leadgen-backend/internal/config"
	"github.com/Vaibhav5418/leadgen-backend/internal/icp"
	"github.com/Vaibhav5418/leadgen-backend/internal/logger"
	"github.com/Vaibhav5418/leadgen-backend/internal/query"
	"github.com/Vaibhav5418/leadgen-backend/internal/repository"

	"go.mongodb.org/mongo-driver/bson"
)

// ScoredContact pairs a contact with its ICP match result.
type ScoredContact struct {
	Contact repository.Contact `json:"contact"`
	Match   icp.MatchResult    `json:"match"`
}

// MatchStats summarizes tier counts for UI display.
type MatchStats struct {
	Imported int `json:"imported"`
	Exact    int `json:"exact"`
	Good     int `json:"good"`
	Similar  int `json:"similar"`
	Loose    int `json:"loose"`
	Total    int `json:"total"`
}

// SimilarContactsResult is the merged, ordered recommendation list for a
// project.
type SimilarContactsResult struct {
	Contacts []ScoredContact `json:"contacts"`
	Stats    MatchStats      `json:"match_stats"`
}

type similarContactStore interface {
	FindByFilter(ctx context.Context, filter bson.M, limit int64) ([]repository.Contact, error)
	FindByIDs(ctx context.Context, ids []string) ([]repository.Contact, error)
}

type similarProjectStore interface {
	GetProject(ctx context.Context, id string) (*repository.Project, error)
	FindLinks(ctx context.Context, projectID string) ([]repository.ProjectContact, error)
}

// SimilarContactsService scans the databank for contacts matching a
// project's ICP definition and returns a ranked, deduplicated, explainable
// recommendation list. Already-linked contacts always come first.
type SimilarContactsService struct {
	contacts       similarContactStore
	projects       similarProjectStore
	candidateLimit int64
	batchSize      int
}

func NewSimilarContactsService(contacts similarContactStore, projects similarProjectStore, cfg config.MatchingConfig) *SimilarContactsService {
	return &SimilarContactsService{
		contacts:       contacts,
		projects:       projects,
		candidateLimit: int64(cfg.CandidateLimit),
		batchSize:      cfg.ScoreBatchSize,
	}
}

// FindSimilar computes the recommendation list for one project.
func (s *SimilarContactsService) FindSimilar(ctx context.Context, projectID string) (*SimilarContactsResult, error) {
	if projectID == "" {
		return nil, ErrMissingProjectID
	}

	project, err := s.projects.GetProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	links, err := s.projects.FindLinks(ctx, projectID)
	if err != nil {
		return nil, err
	}

	linkedIDs := make([]string, 0, len(links))
	for _, link := range links {
		linkedIDs = append(linkedIDs, link.ContactID)
	}

	imported, err := s.loadImportedContacts(ctx, linkedIDs)
	if err != nil {
		return nil, err
	}

	// An ICP with no meaningful criteria cannot rank anything; return only
	// what is already in the project.
	if !project.ICP.IsDefined() {
		return assembleResult(imported, nil), nil
	}

	filter := query.ICPCandidateFilter(project.ICP, linkedIDs, project.ContactEmail)
	candidates, err := s.contacts.FindByFilter(ctx, filter, s.candidateLimit)
	if err != nil {
		return nil, err
	}

	scored := s.scoreInBatches(candidates, project.ICP)

	// Tier first, score within tier, contact ID as the pinned tie-break so
	// equal tier+score pairs order deterministically.
	sort.SliceStable(scored, func(i, j int) bool {
		ri, rj := icp.TierRank(scored[i].Match.MatchType), icp.TierRank(scored[j].Match.MatchType)
		if ri != rj {
			return ri < rj
		}
		if scored[i].Match.Score != scored[j].Match.Score {
			return scored[i].Match.Score > scored[j].Match.Score
		}
		return scored[i].Contact.ID < scored[j].Contact.ID
	})

	logger.Debug().
		Str("project_id", projectID).
		Int("linked", len(imported)).
		Int("candidates", len(candidates)).
		Msg("similar contacts scored")

	return assembleResult(imported, scored), nil
}

// loadImportedContacts returns already-linked contacts in link order, tagged
// with the imported tier and full score.
func (s *SimilarContactsService) loadImportedContacts(ctx context.Context, linkedIDs []string) ([]ScoredContact, error) {
	contacts, err := s.contacts.FindByIDs(ctx, linkedIDs)
	if err != nil {
		return nil, err
	}

	byID := make(map[string]repository.Contact, len(contacts))
	for _, contact := range contacts {
		byID[contact.ID] = contact
	}

	imported := make([]ScoredContact, 0, len(linkedIDs))
	for _, id := range linkedIDs {
		contact, ok := byID[id]
		if !ok {
			continue
		}
		imported = append(imported, ScoredContact{
			Contact: contact,
			Match:   icp.ImportedResult(id),
		})
	}
	return imported, nil
}

// scoreInBatches scores the candidate pool in fixed-size batches, yielding
// the processor between batches so one large scoring pass does not starve
// concurrent work. Batch boundaries never affect scores or ordering.
func (s *SimilarContactsService) scoreInBatches(candidates []repository.Contact, def repository.ICPDefinition) []ScoredContact {
	batchSize := s.batchSize
	if batchSize <= 0 {
		batchSize = config.DefaultScoreBatchSize
	}

	scored := make([]ScoredContact, 0, len(candidates))
	for start := 0; start < len(candidates); start += batchSize {
		end := start + batchSize
		if end > len(candidates) {
			end = len(candidates)
		}
		for _, contact := range candidates[start:end] {
			scored = append(scored, ScoredContact{
				Contact: contact,
				Match:   icp.Score(contact, def),
			})
		}
		if end < len(candidates) {
			runtime.Gosched()
		}
	}
	return scored
}

// assembleResult merges imported contacts ahead of scored candidates and
// tallies tier counts.
func assembleResult(imported, scored []ScoredContact) *SimilarContactsResult {
	merged := make([]ScoredContact, 0, len(imported)+len(scored))
	merged = append(merged, imported...)
	merged = append(merged, scored...)

	var stats MatchStats
	for _, sc := range merged {
		switch sc.Match.MatchType {
		case icp.MatchImported:
			stats.Imported++
		case icp.MatchExact:
			stats.Exact++
		case icp.MatchGood:
			stats.Good++
		case icp.MatchSimilar:
			stats.Similar++
		default:
			stats.Loose++
		}
	}
	stats.Total = len(merged)

	return &SimilarContactsResult{Contacts: merged, Stats: stats}
}

// Package matcher ranks stored face descriptors against a query descriptor
// and decides whether the best one is close enough to be accepted.
package matcher

import (
	"context"
	"sort"

	contextPkg "FaceRegistry/pkg/context"
	"FaceRegistry/pkg/descriptor"
	"FaceRegistry/pkg/similarity"

	"github.com/sirupsen/logrus"
)

// Candidate is a stored identity as read from the record store. Descriptor
// holds the raw stored value and is validated during ranking.
type Candidate struct {
	ID         string
	Descriptor any
	Label      string
}

// Match is a scored candidate.
type Match struct {
	ID    string  `json:"id"`
	Score float64 `json:"similarity"`
	Label string  `json:"name"`
}

// Ranker orders candidates by descending similarity to the query. Ties keep
// the order in which candidates were given.
type Ranker interface {
	Rank(ctx context.Context, query descriptor.Descriptor, candidates []Candidate) []Match
}

// LinearRanker scores every candidate. It is the reference implementation.
type LinearRanker struct {
	log *logrus.Logger
}

func NewLinearRanker(log *logrus.Logger) *LinearRanker {
	return &LinearRanker{log: log}
}

func (r *LinearRanker) Rank(ctx context.Context, query descriptor.Descriptor, candidates []Candidate) []Match {
	matches := make([]Match, 0, len(candidates))

	for _, c := range candidates {
		stored, ok := decodeCandidate(ctx, r.log, c)
		if !ok {
			continue
		}

		matches = append(matches, Match{
			ID:    c.ID,
			Score: similarity.Blended(query, stored),
			Label: c.Label,
		})
	}

	sortMatches(matches)
	return matches
}

func decodeCandidate(ctx context.Context, log *logrus.Logger, c Candidate) (descriptor.Descriptor, bool) {
	stored, err := descriptor.Decode(c.Descriptor)
	if err != nil {
		log.WithFields(logrus.Fields{
			"request_id":      contextPkg.GetRequestID(ctx),
			"registration_id": c.ID,
			"error":           err.Error(),
		}).Warn("Skipping corrupt stored descriptor")
		return nil, false
	}
	return stored, true
}

func sortMatches(matches []Match) {
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
}

package matcher

import (
	"context"
	"slices"
	"sort"
	"sync"

	"FaceRegistry/pkg/descriptor"
	"FaceRegistry/pkg/similarity"

	"github.com/coder/hnsw"
	"github.com/sirupsen/logrus"
)

const (
	DefaultTopK       = 10
	indexMaxNeighbors = 16
)

// IndexedRanker keeps a long-lived HNSW graph of the stored descriptors. Each
// Rank call syncs the graph with the given candidates, adding only new or
// changed descriptors, then searches it and re-scores the nearest TopK
// exactly. It returns at most TopK matches.
//
// Replaced and removed descriptors stay in the graph as dead nodes until they
// outnumber the live ones, at which point the graph is rebuilt.
type IndexedRanker struct {
	log  *logrus.Logger
	topK int

	mu         sync.Mutex
	graph      *hnsw.Graph[int]
	live       map[int]*indexEntry
	byID       map[string]*indexEntry
	nextKey    int
	dead       int
	generation uint64
}

type indexEntry struct {
	key        int
	id         string
	text       string
	descriptor descriptor.Descriptor
	seen       uint64
}

func NewIndexedRanker(log *logrus.Logger, topK int) *IndexedRanker {
	if topK <= 0 {
		topK = DefaultTopK
	}
	return &IndexedRanker{
		log:   log,
		topK:  topK,
		graph: newGraph(),
		live:  map[int]*indexEntry{},
		byID:  map[string]*indexEntry{},
	}
}

func newGraph() *hnsw.Graph[int] {
	g := hnsw.NewGraph[int]()
	g.M = indexMaxNeighbors
	g.Ml = 1.0 / float64(indexMaxNeighbors)
	g.Distance = hnsw.CosineDistance
	return g
}

func (r *IndexedRanker) Rank(ctx context.Context, query descriptor.Descriptor, candidates []Candidate) []Match {
	unitQuery, ok := similarity.Normalize(query)
	if !ok {
		return []Match{}
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	order, labels := r.sync(ctx, candidates)
	if len(r.byID) == 0 {
		return []Match{}
	}

	var nearest []*indexEntry
	if len(r.byID) <= r.topK {
		nearest = make([]*indexEntry, 0, len(r.byID))
		for _, e := range r.byID {
			nearest = append(nearest, e)
		}
	} else {
		nearest = r.search(unitQuery)
	}

	sort.Slice(nearest, func(i, j int) bool {
		return order[nearest[i].id] < order[nearest[j].id]
	})

	matches := make([]Match, 0, len(nearest))
	for _, e := range nearest {
		matches = append(matches, Match{
			ID:    e.id,
			Score: similarity.Blended(query, e.descriptor),
			Label: labels[e.id],
		})
	}

	sortMatches(matches)
	if len(matches) > r.topK {
		matches = matches[:r.topK]
	}
	return matches
}

// sync brings the graph in line with candidates and returns each usable
// candidate's position and label.
func (r *IndexedRanker) sync(ctx context.Context, candidates []Candidate) (map[string]int, map[string]string) {
	r.generation++
	order := make(map[string]int, len(candidates))
	labels := make(map[string]string, len(candidates))

	for i, c := range candidates {
		text, isText := descriptorText(c.Descriptor)
		existing := r.byID[c.ID]

		if existing != nil && isText && existing.text == text {
			r.keep(existing, i, c, order, labels)
			continue
		}

		stored, ok := decodeCandidate(ctx, r.log, c)
		if ok && existing != nil && slices.Equal(existing.descriptor, stored) {
			existing.text = text
			r.keep(existing, i, c, order, labels)
			continue
		}

		if existing != nil {
			r.retire(existing)
		}
		if !ok {
			continue
		}

		unit, ok := similarity.Normalize(stored)
		if !ok {
			continue
		}

		e := &indexEntry{id: c.ID, text: text, descriptor: stored}
		r.insert(e, unit)
		r.keep(e, i, c, order, labels)
	}

	for _, e := range r.byID {
		if e.seen != r.generation {
			r.retire(e)
		}
	}

	if r.dead > 0 && r.dead > len(r.live) {
		r.rebuild()
	}

	return order, labels
}

func (r *IndexedRanker) keep(e *indexEntry, position int, c Candidate, order map[string]int, labels map[string]string) {
	e.seen = r.generation
	if _, dup := order[c.ID]; !dup {
		order[c.ID] = position
	}
	labels[c.ID] = c.Label
}

func (r *IndexedRanker) insert(e *indexEntry, unit []float64) {
	e.key = r.nextKey
	r.nextKey++
	r.graph.Add(hnsw.MakeNode(e.key, descriptor.Descriptor(unit).Float32()))
	r.live[e.key] = e
	r.byID[e.id] = e
}

// retire drops e from the live set. Its node stays in the graph.
func (r *IndexedRanker) retire(e *indexEntry) {
	delete(r.live, e.key)
	delete(r.byID, e.id)
	r.dead++
}

func (r *IndexedRanker) rebuild() {
	entries := make([]*indexEntry, 0, len(r.live))
	for _, e := range r.live {
		entries = append(entries, e)
	}

	r.log.WithFields(logrus.Fields{
		"live": len(entries),
		"dead": r.dead,
	}).Debug("Rebuilding descriptor index")

	r.graph = newGraph()
	r.live = make(map[int]*indexEntry, len(entries))
	r.byID = make(map[string]*indexEntry, len(entries))
	r.dead = 0

	for _, e := range entries {
		unit, _ := similarity.Normalize(e.descriptor)
		r.insert(e, unit)
	}
}

// search asks the graph for enough neighbours to cover the dead nodes and
// keeps the first TopK live ones.
func (r *IndexedRanker) search(unitQuery []float64) []*indexEntry {
	k := min(r.topK+r.dead, r.graph.Len())
	neighbors := r.graph.Search(descriptor.Descriptor(unitQuery).Float32(), k)

	out := make([]*indexEntry, 0, r.topK)
	for _, n := range neighbors {
		e, ok := r.live[n.Key]
		if !ok {
			continue
		}
		out = append(out, e)
		if len(out) == r.topK {
			break
		}
	}
	return out
}

// descriptorText returns the stored text of raw when it has one. Text is
// compared verbatim to detect changed descriptors without decoding them.
func descriptorText(raw any) (string, bool) {
	switch v := raw.(type) {
	case string:
		return v, true
	case []byte:
		return string(v), true
	default:
		return "", false
	}
}

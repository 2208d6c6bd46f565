package pipeline

import (
	"sort"

	"clauseguard-backend/models"
)

// DefaultLimit caps the number of pairs sent to the recommendation stage.
const DefaultLimit = 5

// PriorityTable maps clause types to a rank; lower ranks come first.
// It is immutable once constructed.
type PriorityTable struct {
	ranks    map[models.ClauseType]int
	unlisted int
}

// NewPriorityTable copies ranks into a new table.
func NewPriorityTable(ranks map[models.ClauseType]int) PriorityTable {
	copied := make(map[models.ClauseType]int, len(ranks))
	highest := 0
	for t, r := range ranks {
		copied[t] = r
		if r > highest {
			highest = r
		}
	}
	return PriorityTable{ranks: copied, unlisted: highest + 1}
}

// DefaultPriorities orders clause types by assumed legal risk.
var DefaultPriorities = NewPriorityTable(map[models.ClauseType]int{
	models.ClauseTypeLimitationOfLiability: 1,
	models.ClauseTypeIndemnification:       2,
	models.ClauseTypeIntellectualProperty:  3,
	models.ClauseTypeTermination:           4,
	models.ClauseTypePaymentTerms:          5,
	models.ClauseTypeConfidentiality:       6,
	models.ClauseTypeWarranty:              7,
	models.ClauseTypeGoverningLaw:          8,
	models.ClauseTypeAssignment:            9,
	models.ClauseTypeOther:                 10,
})

// Priority returns the rank of t. Types absent from the table rank after
// every listed type.
func (p PriorityTable) Priority(t models.ClauseType) int {
	if r, ok := p.ranks[t]; ok {
		return r
	}
	return p.unlisted
}

// Ranker orders matched pairs by priority and truncates them to Limit.
type Ranker struct {
	Priorities PriorityTable
	// Limit is the maximum number of pairs returned. Zero or negative means DefaultLimit.
	Limit int
}

// NewRanker returns a Ranker using DefaultPriorities.
func NewRanker(limit int) Ranker {
	return Ranker{Priorities: DefaultPriorities, Limit: limit}
}

func (r Ranker) limit() int {
	if r.Limit <= 0 {
		return DefaultLimit
	}
	return r.Limit
}

// Rank returns a new slice sorted by ascending priority and truncated to the
// limit. Pairs of equal priority keep their input order.
func (r Ranker) Rank(pairs []models.MatchedPair) []models.MatchedPair {
	if len(pairs) == 0 {
		return []models.MatchedPair{}
	}
	priorities := r.Priorities
	if priorities.ranks == nil {
		priorities = DefaultPriorities
	}

	ranked := make([]models.MatchedPair, len(pairs))
	copy(ranked, pairs)
	sort.SliceStable(ranked, func(i, j int) bool {
		return priorities.Priority(ranked[i].Clause.Type) < priorities.Priority(ranked[j].Clause.Type)
	})

	if limit := r.limit(); len(ranked) > limit {
		ranked = ranked[:limit]
	}
	return ranked
}

// Rank orders pairs with DefaultPriorities and truncates to limit.
func Rank(pairs []models.MatchedPair, limit int) []models.MatchedPair {
	return NewRanker(limit).Rank(pairs)
}

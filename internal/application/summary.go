package application

import "vn.io.arda/notifengine/internal/domain"

const (
	summaryCacheLimit = 100
	summaryCacheEvict = 50
)

type summaryKey struct {
	key      string
	postTime int64
}

// SummaryClassifier decides whether an event is a group summary.
// Results are memoized per (key, postTime). When the cache grows past
// its limit the oldest half is evicted in insertion order, regardless of access.
type SummaryClassifier struct {
	cache map[summaryKey]bool
	order []summaryKey
}

// NewSummaryClassifier creates an empty classifier.
func NewSummaryClassifier() *SummaryClassifier {
	return &SummaryClassifier{cache: make(map[summaryKey]bool)}
}

// IsSummary classifies e.
func (c *SummaryClassifier) IsSummary(e domain.Event) bool {
	k := summaryKey{key: e.Key, postTime: e.PostTime}
	if v, ok := c.cache[k]; ok {
		return v
	}

	v := e.IsGroupSummary()
	c.cache[k] = v
	c.order = append(c.order, k)

	if len(c.cache) > summaryCacheLimit {
		for _, old := range c.order[:summaryCacheEvict] {
			delete(c.cache, old)
		}
		c.order = append([]summaryKey(nil), c.order[summaryCacheEvict:]...)
	}
	return v
}

// Len returns the number of memoized classifications.
func (c *SummaryClassifier) Len() int {
	return len(c.cache)
}

package farm

import "sync"

// Aggregate holds the folded counts and concatenated issue/artifact lists
// for a set of results.
type Aggregate struct {
	SuccessCount int      `json:"success_count"`
	FailureCount int      `json:"failure_count"`
	BlockedCount int      `json:"blocked_count"`
	Issues       []string `json:"issues,omitempty"`
	Artifacts    []string `json:"artifacts,omitempty"`
}

// BatchSummary is the outcome of a batch execution: every individual result
// in completion order plus the folded aggregate.
type BatchSummary struct {
	Results   []*Result `json:"results"`
	Aggregate Aggregate `json:"aggregate"`
}

// Aggregator folds individual results into summary counts and issue lists.
// Safe for concurrent Add calls from a batch worker pool.
type Aggregator struct {
	mu      sync.Mutex
	results []*Result
}

// NewAggregator creates an empty aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Add accumulates one result.
func (a *Aggregator) Add(r *Result) {
	if r == nil {
		return
	}

	a.mu.Lock()
	defer a.mu.Unlock()
	a.results = append(a.results, r)
}

// Results returns the accumulated results in the order they were added.
func (a *Aggregator) Results() []*Result {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*Result, len(a.results))
	copy(out, a.results)
	return out
}

// Aggregate folds the accumulated results. Issues and artifacts are
// concatenated in result order, not deduplicated.
func (a *Aggregator) Aggregate() Aggregate {
	a.mu.Lock()
	defer a.mu.Unlock()
	return aggregate(a.results)
}

// Summary returns the results alongside their aggregate.
func (a *Aggregator) Summary() *BatchSummary {
	a.mu.Lock()
	defer a.mu.Unlock()

	results := make([]*Result, len(a.results))
	copy(results, a.results)
	return &BatchSummary{Results: results, Aggregate: aggregate(results)}
}

func aggregate(results []*Result) Aggregate {
	var agg Aggregate
	for _, r := range results {
		switch r.Status {
		case StatusSuccess:
			agg.SuccessCount++
		case StatusFailure:
			agg.FailureCount++
		case StatusBlocked:
			agg.BlockedCount++
		}
		agg.Issues = append(agg.Issues, r.Issues...)
		agg.Artifacts = append(agg.Artifacts, r.Artifacts...)
	}
	return agg
}

// IsOverallSuccess reports whether a result set contains no failures.
// Blocked results count toward neither side: they are retryable, not
// failures, so callers needing stricter semantics should inspect
// Aggregate.BlockedCount directly.
func IsOverallSuccess(results []*Result) bool {
	return aggregate(results).FailureCount == 0
}

package query

import (
	"context"
	"sort"

	"github.com/sourcegraph/conc/pool"

	"github.com/alecf/tally/internal/llm"
)

// Comparison is one model's outcome in a Compare call
type Comparison struct {
	Model  string
	Result *Result
	Err    error

	index int
}

// Compare sends the same request to several models concurrently.
// Results come back in the order the models were given; one model failing
// does not affect the others.
func (e *Engine) Compare(ctx context.Context, req llm.StreamRequest, models []string) []Comparison {
	if len(models) == 0 {
		return nil
	}

	p := pool.NewWithResults[Comparison]().WithMaxGoroutines(len(models))
	for i, id := range models {
		p.Go(func() Comparison {
			r := req
			r.Model = id
			res, err := e.Query(ctx, r)
			return Comparison{Model: id, Result: res, Err: err, index: i}
		})
	}

	results := p.Wait()
	sort.Slice(results, func(a, b int) bool {
		return results[a].index < results[b].index
	})
	return results
}

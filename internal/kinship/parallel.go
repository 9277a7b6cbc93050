package kinship

import (
	"runtime"
	"sync"
)

// CaseItem holds one case ready for analysis.
type CaseItem struct {
	Seq    int
	CaseID string
	Trio   Trio
	Err    error // set when the case could not be loaded; passed through
}

// CaseResult holds the analysis outcome of one case. Exactly one of
// Result and Err is set.
type CaseResult struct {
	Seq    int
	CaseID string
	Trio   Trio
	Result *Result
	Err    error
}

// ParallelAnalyze analyzes cases using a pool of workers.
// Results are sent to the returned channel in arrival order (not sequence order).
// Use OrderedCollect to consume results in sequence-number order.
// If workers is 0, runtime.NumCPU() is used.
func (a *Analyzer) ParallelAnalyze(items <-chan CaseItem, workers int) <-chan CaseResult {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	results := make(chan CaseResult, 2*workers)

	var wg sync.WaitGroup
	wg.Add(workers)

	for range workers {
		go func() {
			defer wg.Done()
			for item := range items {
				r := CaseResult{
					Seq:    item.Seq,
					CaseID: item.CaseID,
					Trio:   item.Trio,
					Err:    item.Err,
				}
				if r.Err == nil {
					r.Result, r.Err = a.Analyze(item.CaseID, item.Trio)
				}
				results <- r
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return results
}

// OrderedCollect calls fn for each result in sequence-number order.
// It buffers out-of-order results in a pending map and emits them
// as soon as the next expected sequence number is available.
// Blocks until the results channel is closed.
func OrderedCollect(results <-chan CaseResult, fn func(CaseResult) error) error {
	pending := make(map[int]CaseResult)
	nextSeq := 0

	for r := range results {
		pending[r.Seq] = r

		for {
			rr, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			if err := fn(rr); err != nil {
				// Drain remaining results to unblock workers.
				for range results {
				}
				return err
			}
		}
	}

	return nil
}

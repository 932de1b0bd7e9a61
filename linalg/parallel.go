package linalg

import (
	"sync"

	"github.com/tuneinsight/lattigo/v6/core/rlwe"

	"helr/core/ckkswrapper"
)

// Map runs fn for every index in [0, count) and collects the results in
// order. With workers > 1 the indices are spread over that many goroutines,
// each with its own forked algebra; fn must only read shared inputs.
// The first error by index wins.
func Map(alg ckkswrapper.Algebra, count, workers int, fn func(alg ckkswrapper.Algebra, i int) (*rlwe.Ciphertext, error)) ([]*rlwe.Ciphertext, error) {
	out := make([]*rlwe.Ciphertext, count)
	errs := make([]error, count)

	if workers <= 1 || count <= 1 {
		for i := 0; i < count; i++ {
			if out[i], errs[i] = fn(alg, i); errs[i] != nil {
				return nil, errs[i]
			}
		}
		return out, nil
	}

	if workers > count {
		workers = count
	}
	jobs := make(chan int)
	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		go func(local ckkswrapper.Algebra) {
			defer wg.Done()
			for i := range jobs {
				out[i], errs[i] = fn(local, i)
			}
		}(alg.Fork())
	}
	for i := 0; i < count; i++ {
		jobs <- i
	}
	close(jobs)
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

package testutil

import (
	"sync"

	dErrors "arefa/pkg/domain-errors"
)

// Parallel starts n goroutines running fn and waits for all of them. The
// returned slice holds each call's error at its index.
func Parallel(n int, fn func(i int) error) []error {
	errs := make([]error, n)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := range n {
		go func() {
			defer wg.Done()
			errs[i] = fn(i)
		}()
	}
	wg.Wait()
	return errs
}

// Tally counts errs by domain code. Successful calls are counted under "ok",
// errors without a code under internal_error.
func Tally(errs []error) map[string]int {
	out := make(map[string]int)
	for _, err := range errs {
		if err == nil {
			out["ok"]++
			continue
		}
		out[string(dErrors.CodeOf(err))]++
	}
	return out
}

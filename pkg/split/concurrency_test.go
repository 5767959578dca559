package split

import (
	"fmt"
	"reflect"
	"runtime"
	"sync"
	"testing"
)

var concurrentInputs = [][]string{
	{"hijack"},
	{"hi", "jack"},
	{"hijackis"},
	{"hi", "jackis"},
	{"is", "hijack"},
	{"4200", "15"},
	{"a"},
}

func TestSplitConcurrent(t *testing.T) {
	configs := []struct {
		workers             int
		iterationsPerWorker int
		cacheSize           int
	}{
		{workers: 1, iterationsPerWorker: 200, cacheSize: 0},
		{workers: 4, iterationsPerWorker: 100, cacheSize: 0},
		{workers: 8, iterationsPerWorker: 50, cacheSize: 0},
		{workers: 8, iterationsPerWorker: 50, cacheSize: 4},
	}

	for _, config := range configs {
		name := fmt.Sprintf("workers_%d_iter_%d_cache_%d", config.workers, config.iterationsPerWorker, config.cacheSize)
		t.Run(name, func(t *testing.T) {
			runConcurrentSplitTest(t, config.workers, config.iterationsPerWorker, config.cacheSize)
		})
	}
}

func runConcurrentSplitTest(t *testing.T, workers, iterationsPerWorker, cacheSize int) {
	store := trigramStore()

	expected := make([][]Ranked, len(concurrentInputs))
	for _, name := range allDecoders {
		s := newSplitter(t, store, WithDecoder(name), WithCache(cacheSize))
		for i, words := range concurrentInputs {
			results, err := s.Split(words, 4)
			if err != nil {
				t.Fatalf("%s: Split(%q) failed: %v", name, words, err)
			}
			expected[i] = results.Ranked()
		}

		baselineGoroutines := runtime.NumGoroutine()
		var wg sync.WaitGroup
		errs := make(chan string, workers)

		for worker := 0; worker < workers; worker++ {
			wg.Add(1)
			go func(worker int) {
				defer wg.Done()
				for iter := 0; iter < iterationsPerWorker; iter++ {
					i := (iter + worker) % len(concurrentInputs)
					results, err := s.Split(concurrentInputs[i], 4)
					if err != nil {
						errs <- fmt.Sprintf("worker %d: %v", worker, err)
						return
					}
					if got := results.Ranked(); !reflect.DeepEqual(got, expected[i]) {
						errs <- fmt.Sprintf("worker %d: %q = %v, want %v", worker, concurrentInputs[i], got, expected[i])
						return
					}
				}
			}(worker)
		}
		wg.Wait()
		close(errs)

		for msg := range errs {
			t.Errorf("%s: %s", name, msg)
		}

		stats := s.Stats()
		want := uint64(len(concurrentInputs) + workers*iterationsPerWorker)
		if stats.Requests != want {
			t.Errorf("%s: Stats().Requests = %d, want %d", name, stats.Requests, want)
		}
		if cacheSize > 0 && stats.CacheHits+stats.CacheMisses != want {
			t.Errorf("%s: cache hits %d + misses %d != %d requests", name, stats.CacheHits, stats.CacheMisses, want)
		}

		if delta := runtime.NumGoroutine() - baselineGoroutines; delta > 2 {
			t.Errorf("%s: goroutine leak detected: %d goroutines leaked", name, delta)
		}
	}
}

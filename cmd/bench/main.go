// Command bench runs a synthetic workload against the cache and exposes optional pprof/Prometheus endpoints.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	_ "net/http/pprof" // registers /debug/pprof/* on DefaultServeMux
	"runtime"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kdgregory/readthrough/cache"
	pmet "github.com/kdgregory/readthrough/metrics/prom"
)

func main() {
	// ---- Flags ----
	var (
		capacity = flag.Int("cap", 100_000, "cache capacity (entries)")
		mode     = flag.String("mode", "bykey", "miss coordination: bykey | none | single")

		workers  = flag.Int("workers", 2*runtime.GOMAXPROCS(0), "number of worker goroutines")
		duration = flag.Duration("duration", 10*time.Second, "benchmark duration")

		keys    = flag.Int("keys", 1_000_000, "keyspace size")
		zipfS   = flag.Float64("zipf_s", 1.1, "Zipf s > 1 (skew)")
		zipfV   = flag.Float64("zipf_v", 1.0, "Zipf v")
		seed    = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		loadLat = flag.Duration("load_latency", 0, "simulated loader latency per invocation")

		pprofAddr   = flag.String("pprof", "", "serve pprof at addr (e.g. :6060); empty = disabled")
		metricsAddr = flag.String("http", ":8080", "serve Prometheus metrics at addr")
	)
	flag.Parse()

	var conc cache.Concurrency
	switch *mode {
	case "bykey":
		conc = cache.ByKey
	case "none":
		conc = cache.None
	case "single":
		conc = cache.SingleThreaded
	default:
		log.Fatalf("unknown -mode %q", *mode)
	}

	// ---- pprof server (on DefaultServeMux) ----
	if *pprofAddr != "" {
		go func() {
			log.Printf("pprof: serving at %s", *pprofAddr)
			log.Println(http.ListenAndServe(*pprofAddr, nil))
		}()
	}

	// ---- Prometheus metrics (on DefaultServeMux) ----
	metrics := pmet.New(nil, "readthrough", "bench", nil)
	http.Handle("/metrics", promhttp.Handler())
	go func() {
		log.Printf("metrics: serving at %s", *metricsAddr)
		log.Println(http.ListenAndServe(*metricsAddr, nil))
	}()

	var loads atomic.Int64
	c := cache.New[string, string](cache.Options[string, string]{
		Capacity:    *capacity,
		Concurrency: conc,
		Metrics:     metrics,
		Loader: func(_ context.Context, k string) (string, error) {
			loads.Add(1)
			if *loadLat > 0 {
				time.Sleep(*loadLat)
			}
			return "v:" + k, nil
		},
	})
	defer c.Close()

	log.Printf("bench: cap=%d mode=%s workers=%d keys=%d duration=%s",
		*capacity, conc, *workers, *keys, *duration)

	ctx := context.Background()
	deadline := time.Now().Add(*duration)

	var ops atomic.Int64
	var wg sync.WaitGroup
	wg.Add(*workers)
	for w := 0; w < *workers; w++ {
		go func(id int) {
			defer wg.Done()
			// Independent Zipf stream per worker so hot keys overlap.
			r := rand.New(rand.NewSource(*seed + int64(id)*9973))
			z := rand.NewZipf(r, *zipfS, *zipfV, uint64(*keys-1))
			for time.Now().Before(deadline) {
				k := "k:" + strconv.FormatUint(z.Uint64(), 10)
				if _, err := c.Retrieve(ctx, k); err != nil {
					log.Fatalf("retrieve: %v", err)
				}
				ops.Add(1)
			}
		}(w)
	}
	wg.Wait()

	st := c.Stats()
	total := ops.Load()
	hitRate := 0.0
	if st.Hits+st.Misses > 0 {
		hitRate = float64(st.Hits) / float64(st.Hits+st.Misses)
	}
	fmt.Printf("ops=%d (%.0f/s)  hits=%d misses=%d hit-rate=%.2f%%  loads=%d evictions=%d size=%d\n",
		total, float64(total)/(*duration).Seconds(),
		st.Hits, st.Misses, hitRate*100, loads.Load(), st.Evictions, c.Size())
}

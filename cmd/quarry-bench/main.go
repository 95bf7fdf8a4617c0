package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/quarrydb/quarry/internal/arena"
	"github.com/quarrydb/quarry/internal/base"
	"github.com/quarrydb/quarry/internal/cache"
	"github.com/quarrydb/quarry/internal/lookup"
	"github.com/quarrydb/quarry/internal/memtable"
	"github.com/quarrydb/quarry/internal/metrics"
)

func main() {
	// Parse flags
	numKeys := flag.Int("keys", 100000, "Number of keys to load")
	versions := flag.Int("versions", 3, "Versions written per key")
	reads := flag.Int("reads", 200000, "Point lookups to run")
	bucketCount := flag.String("buckets", "65536", "prefix_hash bucket_count")
	cacheCapacity := flag.Int("cache", 16<<20, "Row cache capacity in bytes (0 disables)")
	prefixLen := flag.Int("prefix", 8, "Fixed prefix length for sharding")
	verbose := flag.Bool("v", false, "Debug logging")
	flag.Parse()

	logger, err := newLogger(*verbose)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	m := metrics.New()
	cmp := base.NewInternalKeyComparator(base.DefaultComparer)
	rep, err := memtable.NewFromRegistry("prefix_hash", cmp, arena.New(0),
		base.NewFixedPrefixTransform(*prefixLen),
		map[string]string{"bucket_count": *bucketCount}, logger)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build memtable rep: %v\n", err)
		os.Exit(1)
	}

	// Load phase: versioned values with an interleaved delete per key batch.
	logger.Info("loading", zap.Int("keys", *numKeys), zap.Int("versions", *versions))
	start := time.Now()
	seq := base.SequenceNumber(1)
	for i := 0; i < *numKeys; i++ {
		key := benchKey(i, *prefixLen)
		for v := 0; v < *versions; v++ {
			rep.Insert(base.EncodeRecord(nil, base.ParsedInternalKey{
				UserKey:  key,
				Sequence: seq,
				Type:     base.TypeValue,
			}, []byte(fmt.Sprintf("value-%d-v%d", i, v))))
			seq++
		}
	}
	largestSeq := seq - 1
	logger.Info("loaded",
		zap.Duration("elapsed", time.Since(start)),
		zap.Uint64("largest_seq", uint64(largestSeq)),
	)

	var rowCache cache.Cache
	var ns []byte
	if *cacheCapacity > 0 {
		rowCache = cache.NewLRU(*cacheCapacity)
		ns = cache.NewID()
	}

	// Read phase: repeated lookups so the row cache gets both misses and
	// hits.
	start = time.Now()
	for i := 0; i < *reads; i++ {
		key := benchKey(i%*numKeys, *prefixLen)
		r := lookup.NewResolver(lookup.Config{Logger: logger, Metrics: m}, key)

		if rowCache != nil {
			ck := lookup.CacheKey(ns, 0, lookup.CacheSequence(false, largestSeq, largestSeq), key)
			if lookup.ReplayFromCache(rowCache, ck, r, m) {
				tally(m, r)
				continue
			}
			var log lookup.ReplayLog
			r.SetReplayLog(&log)
			lookup.Get(rep, base.NewLookupKey(key, base.MaxSequenceNumber), r, m)
			r.SetReplayLog(nil)
			if r.State() == lookup.StateFound || r.State() == lookup.StateDeleted {
				log.AddToCache(rowCache, ck, m)
			}
			tally(m, r)
			continue
		}

		lookup.Get(rep, base.NewLookupKey(key, base.MaxSequenceNumber), r, m)
		tally(m, r)
	}
	elapsed := time.Since(start)

	logger.Info("read phase done",
		zap.Duration("elapsed", elapsed),
		zap.Float64("lookups_per_sec", float64(*reads)/elapsed.Seconds()),
	)

	fmt.Println()
	if _, err := m.WriteTo(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to write metrics: %v\n", err)
		os.Exit(1)
	}
}

func newLogger(verbose bool) (*zap.Logger, error) {
	cfg := zap.NewDevelopmentConfig()
	if !verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	}
	return cfg.Build()
}

// benchKey builds a key whose first prefixLen bytes spread load across
// shards.
func benchKey(i, prefixLen int) []byte {
	return []byte(fmt.Sprintf("%0*d-key-%08d", prefixLen, i%1024, i))
}

func tally(m *metrics.Metrics, r *lookup.Resolver) {
	switch r.State() {
	case lookup.StateFound:
		m.RecordLookupFound()
	case lookup.StateCorrupt:
		m.RecordLookupCorrupt()
	default:
		m.RecordLookupNotFound()
	}
}

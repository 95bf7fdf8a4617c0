package memtable

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/quarrydb/quarry/internal/arena"
	"github.com/quarrydb/quarry/internal/base"
)

func newTestRep(t *testing.T, bucketCount int, transform base.Transform) *HashSkipListRep {
	t.Helper()
	opts := DefaultOptions()
	opts.BucketCount = bucketCount
	cmp := base.NewInternalKeyComparator(base.DefaultComparer)
	return NewHashSkipListRep(cmp, arena.New(4096), transform, opts, zap.NewNop())
}

func makeRecord(userKey string, seq base.SequenceNumber, vt base.ValueType, value string) []byte {
	return base.EncodeRecord(nil, base.ParsedInternalKey{
		UserKey:  []byte(userKey),
		Sequence: seq,
		Type:     vt,
	}, []byte(value))
}

func internalKey(userKey string, seq base.SequenceNumber, vt base.ValueType) []byte {
	return base.EncodeInternalKey(nil, []byte(userKey), seq, vt)
}

// collectGet returns the (userKey, seq, value) triples Get streams for lk.
func collectGet(t *testing.T, rep *HashSkipListRep, lk *base.LookupKey) []string {
	t.Helper()
	var got []string
	rep.Get(lk, func(record []byte) bool {
		ikey, err := base.DecodeRecordKey(record)
		require.NoError(t, err)
		parsed, err := base.ParseInternalKey(ikey)
		require.NoError(t, err)
		value, err := base.DecodeRecordValue(record)
		require.NoError(t, err)
		got = append(got, fmt.Sprintf("%s@%d=%s", parsed.UserKey, parsed.Sequence, value))
		return true
	})
	return got
}

func TestInsertThenContains(t *testing.T) {
	rep := newTestRep(t, 16, base.IdentityTransform)

	keys := []string{"a", "b", "c"}
	for i, k := range keys {
		rep.Insert(makeRecord(k, base.SequenceNumber(i+1), base.TypeValue, "v"))
	}
	for i, k := range keys {
		assert.True(t, rep.Contains(internalKey(k, base.SequenceNumber(i+1), base.TypeValue)))
	}
	// No deletion path exists; everything stays for the rep's lifetime.
	rep.Insert(makeRecord("d", 10, base.TypeDeletion, ""))
	for i, k := range keys {
		assert.True(t, rep.Contains(internalKey(k, base.SequenceNumber(i+1), base.TypeValue)))
	}

	assert.False(t, rep.Contains(internalKey("zzz", 1, base.TypeValue)))
	// Same user key, different sequence, is a different internal key.
	assert.False(t, rep.Contains(internalKey("a", 99, base.TypeValue)))
}

func TestEqualPrefixesShareOneShard(t *testing.T) {
	transform := base.NewFixedPrefixTransform(4)
	rep := newTestRep(t, 64, transform)

	rep.Insert(makeRecord("user1000", 3, base.TypeValue, "x"))
	rep.Insert(makeRecord("user2000", 2, base.TypeValue, "y"))
	rep.Insert(makeRecord("user1000", 1, base.TypeValue, "old"))

	assert.Equal(t, rep.shard([]byte("user")), rep.shard(transform.Transform([]byte("user1000"))))

	// One shard serves every key under the prefix: a Get for user1000 walks
	// the shared bucket and sees user2000's record after user1000's run.
	lk := base.NewLookupKey([]byte("user1000"), base.MaxSequenceNumber)
	got := collectGet(t, rep, lk)
	assert.Equal(t, []string{
		"user1000@3=x",
		"user1000@1=old",
		"user2000@2=y",
	}, got)
}

func TestGetStartsAtSnapshotAndStopsOnVisitor(t *testing.T) {
	rep := newTestRep(t, 8, base.IdentityTransform)
	rep.Insert(makeRecord("k", 5, base.TypeValue, "v5"))
	rep.Insert(makeRecord("k", 3, base.TypeValue, "v3"))
	rep.Insert(makeRecord("k", 1, base.TypeValue, "v1"))

	// Seeking at seq 3 skips the newer record.
	got := collectGet(t, rep, base.NewLookupKey([]byte("k"), 3))
	assert.Equal(t, []string{"k@3=v3", "k@1=v1"}, got)

	// A false-returning visitor stops the scan immediately.
	visits := 0
	rep.Get(base.NewLookupKey([]byte("k"), base.MaxSequenceNumber), func([]byte) bool {
		visits++
		return false
	})
	assert.Equal(t, 1, visits)
}

func TestGetOnAbsentBucket(t *testing.T) {
	rep := newTestRep(t, 8, base.IdentityTransform)
	rep.Insert(makeRecord("present", 1, base.TypeValue, "v"))

	visits := 0
	rep.Get(base.NewLookupKey([]byte("never-written"), base.MaxSequenceNumber), func([]byte) bool {
		visits++
		return true
	})
	// No shard means no writes under this prefix: zero candidates, not an
	// error.
	assert.Zero(t, visits)
}

// twoDistinctShardKeys returns keys guaranteed to live in different shards.
func twoDistinctShardKeys(t *testing.T, rep *HashSkipListRep) (string, string) {
	t.Helper()
	first := "key-0"
	for i := 1; i < 64; i++ {
		k := fmt.Sprintf("key-%d", i)
		if rep.shard([]byte(k)) != rep.shard([]byte(first)) {
			return first, k
		}
	}
	t.Fatal("no shard-distinct key pair found")
	return "", ""
}

func TestGetIteratorTotalOrderAcrossShards(t *testing.T) {
	rep := newTestRep(t, 4, base.IdentityTransform)
	a, b := twoDistinctShardKeys(t, rep)

	rep.Insert(makeRecord(b, 2, base.TypeValue, "vb"))
	rep.Insert(makeRecord(a, 1, base.TypeValue, "va"))

	it := rep.GetIterator()
	var got []string
	for it.SeekToFirst(); it.Valid(); it.Next() {
		ikey, err := base.DecodeRecordKey(it.Key())
		require.NoError(t, err)
		got = append(got, string(base.ExtractUserKey(ikey)))
	}
	// Comparator order regardless of shard assignment.
	want := []string{a, b}
	if a > b {
		want = []string{b, a}
	}
	assert.Equal(t, want, got)
}

func TestGetIteratorIsASnapshot(t *testing.T) {
	rep := newTestRep(t, 4, base.IdentityTransform)
	rep.Insert(makeRecord("a", 1, base.TypeValue, "v"))

	it := rep.GetIterator()
	rep.Insert(makeRecord("b", 2, base.TypeValue, "v"))

	count := 0
	for it.SeekToFirst(); it.Valid(); it.Next() {
		count++
	}
	assert.Equal(t, 1, count)
}

func TestGetIteratorEmptyRep(t *testing.T) {
	rep := newTestRep(t, 4, base.IdentityTransform)
	it := rep.GetIterator()
	assert.False(t, it.Valid())
	it.SeekToFirst()
	assert.False(t, it.Valid())
	assert.Panics(t, func() { it.Key() })
	assert.Panics(t, func() { it.SeekForPrev(nil) })
}

func TestDynamicPrefixIterator(t *testing.T) {
	rep := newTestRep(t, 4, base.IdentityTransform)
	a, b := twoDistinctShardKeys(t, rep)
	rep.Insert(makeRecord(a, 1, base.TypeValue, "va"))
	rep.Insert(makeRecord(b, 2, base.TypeValue, "vb"))

	it := rep.GetDynamicPrefixIterator()

	// Seek rebinds to a's shard; the other shard's key is never seen.
	it.Seek(internalKey(a, base.MaxSequenceNumber, base.TypeSeek))
	require.True(t, it.Valid())
	for ; it.Valid(); it.Next() {
		ikey, err := base.DecodeRecordKey(it.Key())
		require.NoError(t, err)
		assert.NotEqual(t, b, string(base.ExtractUserKey(ikey)))
	}

	// Rebinding to the other shard works on the same iterator.
	it.Seek(internalKey(b, base.MaxSequenceNumber, base.TypeSeek))
	require.True(t, it.Valid())
	ikey, err := base.DecodeRecordKey(it.Key())
	require.NoError(t, err)
	assert.Equal(t, b, string(base.ExtractUserKey(ikey)))

	// No meaningful first or last position across unordered shards.
	it.SeekToFirst()
	assert.False(t, it.Valid())
	it.SeekToLast()
	assert.False(t, it.Valid())

	// Seeking a never-written prefix leaves the iterator invalid.
	it.Seek(internalKey("unwritten", base.MaxSequenceNumber, base.TypeSeek))
	assert.False(t, it.Valid())

	assert.Panics(t, func() { it.SeekForPrev(internalKey(a, 1, base.TypeSeek)) })
}

func TestApproximateMemoryUsageIsZero(t *testing.T) {
	rep := newTestRep(t, 4, base.IdentityTransform)
	rep.Insert(makeRecord("a", 1, base.TypeValue, "v"))
	assert.Zero(t, rep.ApproximateMemoryUsage())
}

// Writers on distinct shards are independent; readers run lock-free
// alongside them. Each writer owns one prefix, so one shard, keeping the
// per-bucket single-writer contract intact.
func TestConcurrentDistinctShardWriters(t *testing.T) {
	rep := newTestRep(t, 1024, base.NewFixedPrefixTransform(3))

	// Pick four prefixes with pairwise-distinct shards.
	prefixes := make([]string, 0, 4)
	seen := map[uint64]bool{}
	for c := byte('a'); len(prefixes) < 4 && c <= 'z'; c++ {
		p := fmt.Sprintf("w%c|", c)
		h := rep.shard([]byte(p))
		if !seen[h] {
			seen[h] = true
			prefixes = append(prefixes, p)
		}
	}
	require.Len(t, prefixes, 4)

	const perWriter = 500
	var wg sync.WaitGroup
	for w, p := range prefixes {
		wg.Add(1)
		go func(w int, p string) {
			defer wg.Done()
			for i := 0; i < perWriter; i++ {
				key := fmt.Sprintf("%s%04d", p, i)
				rep.Insert(makeRecord(key, base.SequenceNumber(i+1), base.TypeValue, "v"))
			}
		}(w, p)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 200; i++ {
			lk := base.NewLookupKey([]byte(prefixes[0]+"0000"), base.MaxSequenceNumber)
			rep.Get(lk, func([]byte) bool { return false })
		}
	}()

	wg.Wait()
	<-done

	for _, p := range prefixes {
		for i := 0; i < perWriter; i++ {
			key := fmt.Sprintf("%s%04d", p, i)
			assert.True(t, rep.Contains(internalKey(key, base.SequenceNumber(i+1), base.TypeValue)))
		}
	}
}

func TestParseOptions(t *testing.T) {
	opts, err := ParseOptions(nil)
	require.NoError(t, err)
	assert.Equal(t, DefaultBucketCount, opts.BucketCount)
	assert.Equal(t, DefaultSkiplistHeight, opts.SkiplistHeight)
	assert.Equal(t, DefaultSkiplistBranching, opts.SkiplistBranching)

	opts, err = ParseOptions(map[string]string{
		"bucket_count":              "4",
		"skiplist_height":           "8",
		"skiplist_branching_factor": "2",
		"some_future_knob":          "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, 4, opts.BucketCount)
	assert.Equal(t, 8, opts.SkiplistHeight)
	assert.Equal(t, 2, opts.SkiplistBranching)

	_, err = ParseOptions(map[string]string{"bucket_count": "not-a-number"})
	assert.ErrorIs(t, err, ErrBadOption)
}

func TestRegistry(t *testing.T) {
	cmp := base.NewInternalKeyComparator(base.DefaultComparer)
	rep, err := NewFromRegistry("prefix_hash", cmp, arena.New(0), base.IdentityTransform,
		map[string]string{"bucket_count": "8"}, zap.NewNop())
	require.NoError(t, err)
	require.NotNil(t, rep)

	rep.Insert(makeRecord("k", 1, base.TypeValue, "v"))
	assert.True(t, rep.Contains(internalKey("k", 1, base.TypeValue)))

	_, err = NewFromRegistry("no_such_rep", cmp, arena.New(0), base.IdentityTransform, nil, zap.NewNop())
	assert.ErrorIs(t, err, ErrUnknownRep)
}

package memtable

import (
	"fmt"
	"strconv"
	"sync"

	"go.uber.org/zap"

	"github.com/quarrydb/quarry/internal/arena"
	"github.com/quarrydb/quarry/internal/base"
)

// Defaults for the prefix_hash rep's construction options.
const (
	DefaultBucketCount       = 1_000_000
	DefaultSkiplistHeight    = 4
	DefaultSkiplistBranching = 4
)

// Options are the construction parameters of a HashSkipListRep, fixed for
// its lifetime.
type Options struct {
	BucketCount       int
	SkiplistHeight    int
	SkiplistBranching int
}

// DefaultOptions returns the stock configuration.
func DefaultOptions() Options {
	return Options{
		BucketCount:       DefaultBucketCount,
		SkiplistHeight:    DefaultSkiplistHeight,
		SkiplistBranching: DefaultSkiplistBranching,
	}
}

// ParseOptions applies a string-keyed option map over the defaults.
// Recognized keys: "bucket_count", "skiplist_height",
// "skiplist_branching_factor". Unrecognized keys are ignored; a recognized
// key that fails to parse is an error.
func ParseOptions(options map[string]string) (Options, error) {
	opts := DefaultOptions()
	if v, ok := options["bucket_count"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("%w: bucket_count=%q", ErrBadOption, v)
		}
		opts.BucketCount = n
	}
	if v, ok := options["skiplist_height"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return opts, fmt.Errorf("%w: skiplist_height=%q", ErrBadOption, v)
		}
		opts.SkiplistHeight = n
	}
	if v, ok := options["skiplist_branching_factor"]; ok {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 1 {
			return opts, fmt.Errorf("%w: skiplist_branching_factor=%q", ErrBadOption, v)
		}
		opts.SkiplistBranching = n
	}
	return opts, nil
}

// Factory builds a Rep from an option map. Engine configurations select a
// representation by registry name.
type Factory func(cmp *base.InternalKeyComparator, a *arena.Arena, transform base.Transform, options map[string]string, logger *zap.Logger) (Rep, error)

var registry = struct {
	sync.RWMutex
	factories map[string]Factory
}{factories: make(map[string]Factory)}

// Register makes a representation available under name, replacing any
// previous registration.
func Register(name string, f Factory) {
	registry.Lock()
	defer registry.Unlock()
	registry.factories[name] = f
}

// NewFromRegistry constructs the representation registered under name.
func NewFromRegistry(name string, cmp *base.InternalKeyComparator, a *arena.Arena, transform base.Transform, options map[string]string, logger *zap.Logger) (Rep, error) {
	registry.RLock()
	f, ok := registry.factories[name]
	registry.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRep, name)
	}
	return f(cmp, a, transform, options, logger)
}

func init() {
	Register("prefix_hash", func(cmp *base.InternalKeyComparator, a *arena.Arena, transform base.Transform, options map[string]string, logger *zap.Logger) (Rep, error) {
		opts, err := ParseOptions(options)
		if err != nil {
			return nil, err
		}
		return NewHashSkipListRep(cmp, a, transform, opts, logger), nil
	})
}

package lookup

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/quarrydb/quarry/internal/base"
	"github.com/quarrydb/quarry/internal/metrics"
)

// ReplayWriter receives every record the resolver consumes, in the order
// consumed, with its effective type after tombstone reclassification and
// separation translation.
type ReplayWriter interface {
	Append(t base.ValueType, value []byte)
}

// Config carries the collaborators a Resolver consumes. Only Comparer is
// required; a nil MergeOperator corrupts lookups that reach a merge, a nil
// Visibility admits every sequence, and a nil Separator makes indirect
// records a configuration error.
type Config struct {
	Comparer      base.Comparer
	MergeOperator base.MergeOperator
	Separator     base.Separator
	Visibility    base.VisibilityFilter
	Logger        *zap.Logger
	Metrics       *metrics.Metrics

	// Trivial short-circuits resolution: the first visible value or merge
	// operand is taken verbatim with no merge machinery. Used by scans that
	// relocate records rather than answer reads.
	Trivial bool
}

// Resolver is the multi-version value-resolution state machine for a single
// lookup of one user key. Records must arrive newest-sequence-first.
type Resolver struct {
	cfg     Config
	userKey []byte

	state    State
	value    []byte
	operands [][]byte // newest first

	// seq is the sequence of the newest visible record accepted, or
	// MaxSequenceNumber until one is.
	seq base.SequenceNumber

	// minSeqType masks records below an externally-imposed floor (packed
	// seq/type), used when an overlapping masking range hides old records.
	minSeqType uint64

	// coveringTombstoneSeq, when set, points at the newest range-deletion
	// sequence known to overlap the key. It may be updated by the caller
	// between SaveValue calls as new sources are consulted.
	coveringTombstoneSeq *base.SequenceNumber

	sink       ReplayWriter
	valueFound *bool
}

// NewResolver builds a resolver for one lookup of userKey.
func NewResolver(cfg Config, userKey []byte) *Resolver {
	if cfg.Comparer == nil {
		cfg.Comparer = base.DefaultComparer
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Resolver{
		cfg:     cfg,
		userKey: userKey,
		state:   StateNotFound,
		seq:     base.MaxSequenceNumber,
	}
}

// UserKey returns the lookup's target user key.
func (r *Resolver) UserKey() []byte { return r.userKey }

// State returns the current resolution state.
func (r *Resolver) State() State { return r.state }

// Value returns the resolved value; meaningful only in StateFound, and only
// when no MarkKeyMayExist side channel reported the value as unknown.
func (r *Resolver) Value() []byte { return r.value }

// Sequence returns the sequence number of the newest visible record
// encountered, or MaxSequenceNumber when none was.
func (r *Resolver) Sequence() base.SequenceNumber { return r.seq }

// PendingMerge reports whether operands are still accumulating.
func (r *Resolver) PendingMerge() bool { return r.state == StateMerge }

// SetMinSequenceAndType installs the packed (sequence, type) floor below
// which records are invisible to this lookup.
func (r *Resolver) SetMinSequenceAndType(packed uint64) { r.minSeqType = packed }

// SetCoveringTombstoneSeq installs the shared covering-tombstone sequence
// slot. The pointee is read at each step, so later discoveries take effect
// on subsequent records.
func (r *Resolver) SetCoveringTombstoneSeq(seq *base.SequenceNumber) {
	r.coveringTombstoneSeq = seq
}

// SetValueFound installs the side-channel flag MarkKeyMayExist writes
// through.
func (r *Resolver) SetValueFound(flag *bool) { r.valueFound = flag }

// SetReplayLog installs or removes the replay sink. Detaching a sink while
// the lookup is still unresolved under a live covering tombstone records a
// closing range-deletion entry, so a replayed log reproduces the masking.
func (r *Resolver) SetReplayLog(sink ReplayWriter) {
	if sink == nil && r.sink != nil &&
		(r.state == StateNotFound || r.state == StateMerge) &&
		r.coveringTombstoneSeq != nil && *r.coveringTombstoneSeq != 0 {
		r.sink.Append(base.TypeRangeDeletion, nil)
	}
	r.sink = sink
}

// MarkKeyMayExist records that the key may exist but was not actually
// checked because the caller declined to do I/O. State becomes StateFound
// while the value-found side channel reports the value as unknown; callers
// must consult that flag before trusting StateFound.
func (r *Resolver) MarkKeyMayExist() {
	r.state = StateFound
	if r.valueFound != nil {
		*r.valueFound = false
	}
}

// SaveValue feeds one candidate record to the state machine and reports
// whether the caller should keep scanning older records.
func (r *Resolver) SaveValue(key base.ParsedInternalKey, value []byte) bool {
	if r.cfg.Comparer.Compare(key.UserKey, r.userKey) != 0 {
		// Sorted candidates: a different user key means this lookup's
		// records are exhausted.
		return false
	}

	if base.PackSequenceAndType(key.Sequence, key.Type) < r.minSeqType {
		// Masked by the floor; everything older is masked too.
		return false
	}

	if r.cfg.Visibility != nil && !r.cfg.Visibility.Visible(key.Sequence) {
		// Outside the snapshot; an older version may still be visible.
		return true
	}

	if r.seq == base.MaxSequenceNumber {
		r.seq = key.Sequence
	}

	t := key.Type
	switch t {
	case base.TypeValue, base.TypeMerge, base.TypeValueIndex, base.TypeMergeIndex:
		if r.coveringTombstoneSeq != nil && *r.coveringTombstoneSeq > key.Sequence {
			t = base.TypeRangeDeletion
			value = nil
		}
	}

	if t == base.TypeValueIndex || t == base.TypeMergeIndex {
		combined, err := r.translateIndirect(key, value)
		if err != nil {
			r.fail("separation translation failed", err)
			return false
		}
		value = combined
		if t == base.TypeValueIndex {
			t = base.TypeValue
		} else {
			t = base.TypeMerge
		}
	}

	if r.sink != nil {
		r.sink.Append(t, value)
	}

	if r.cfg.Trivial {
		return r.saveTrivial(t, value)
	}

	next, runMerge, withBase, stop := transition(r.state, t)
	switch {
	case runMerge:
		if !withBase {
			value = nil
		}
		r.finishMerge(value, withBase)
	case next == StateMerge:
		r.state = StateMerge
		r.operands = append(r.operands, value)
		if r.cfg.MergeOperator != nil && r.cfg.MergeOperator.ShouldMerge(r.operands) {
			r.finishMerge(nil, false)
			return false
		}
	case next == StateFound:
		r.state = StateFound
		r.value = value
	default:
		r.state = next
	}
	return !stop && r.state == StateMerge
}

// saveTrivial takes the record verbatim and stops: values resolve to
// StateFound, merge operands stay in StateMerge with the operand as the
// carried value.
func (r *Resolver) saveTrivial(t base.ValueType, value []byte) bool {
	if r.state != StateNotFound {
		panic("lookup: trivial resolution consumed more than one record")
	}
	next, _, _, _ := transition(r.state, t)
	if next == StateMerge {
		r.state = StateMerge
	} else {
		r.state = next
	}
	if r.state == StateFound || r.state == StateMerge {
		r.value = value
	}
	return false
}

// finishMerge runs the full merge ending the operand chain and lands in
// StateFound or StateCorrupt.
func (r *Resolver) finishMerge(baseValue []byte, hasBase bool) {
	merged, err := r.fullMerge(baseValue, hasBase)
	if err != nil {
		r.fail("merge operator failed", err)
		return
	}
	r.state = StateFound
	r.value = merged
}

func (r *Resolver) fullMerge(baseValue []byte, hasBase bool) ([]byte, error) {
	if r.cfg.MergeOperator == nil {
		return nil, fmt.Errorf("%w: no merge operator configured", base.ErrCorruptMerge)
	}
	merged, err := r.cfg.MergeOperator.FullMerge(r.userKey, baseValue, hasBase, r.operands)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", base.ErrCorruptMerge, r.cfg.MergeOperator.Name(), err)
	}
	return merged, nil
}

// fail records a corruption: the lookup reports StateCorrupt rather than
// absence, and the process keeps serving other lookups.
func (r *Resolver) fail(msg string, err error) {
	r.state = StateCorrupt
	r.cfg.Metrics.RecordMergeFailure()
	r.cfg.Logger.Error(msg,
		zap.Binary("user_key", r.userKey),
		zap.Int("operands", len(r.operands)),
		zap.Error(err),
	)
}

func (r *Resolver) translateIndirect(key base.ParsedInternalKey, handle []byte) ([]byte, error) {
	if r.cfg.Separator == nil {
		panic("lookup: indirect record without a separation collaborator")
	}
	return r.cfg.Separator.TransToCombined(
		r.userKey, base.PackSequenceAndType(key.Sequence, key.Type), handle)
}

package lookup

import (
	"github.com/quarrydb/quarry/internal/base"
	"github.com/quarrydb/quarry/internal/memtable"
	"github.com/quarrydb/quarry/internal/metrics"
)

// Get streams the memtable candidates for lk through r. It is the visitor
// adapter between the index's encoded records and the resolver: the index
// produces unseen candidates in sort order, the resolver decides when to
// stop. Returns whether the memtable terminated resolution (the caller
// needs no further sources unless operands are still accumulating).
func Get(rep memtable.Rep, lk *base.LookupKey, r *Resolver, m *metrics.Metrics) bool {
	before := r.State()
	rep.Get(lk, func(record []byte) bool {
		ikey, err := base.DecodeRecordKey(record)
		if err != nil {
			panic("lookup: undecodable memtable record")
		}
		key, err := base.ParseInternalKey(ikey)
		if err != nil {
			panic("lookup: undecodable memtable record")
		}
		value, err := base.DecodeRecordValue(record)
		if err != nil {
			panic("lookup: undecodable memtable record")
		}
		return r.SaveValue(key, value)
	})

	switch r.State() {
	case StateFound, StateDeleted, StateCorrupt:
		if before != r.State() {
			m.RecordMemtableHit()
		}
		return true
	}
	return false
}

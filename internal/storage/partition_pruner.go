package storage

import (
	"github.com/harshithgowdakt/granulekey/internal/types"
)

// PartitionPruner wraps a KeyCondition over the partition key columns and
// checks it against the minmax indexes of each part. Parts of one partition
// may cover different value ranges, so every part is evaluated on its own
// box. Safe for concurrent use.
type PartitionPruner struct {
	condition *KeyCondition
	columns   []ColumnDef
	keyTypes  []types.DataType
}

// NewPartitionPruner creates a pruner for the query's predicates. Returns nil
// when pruning is not applicable: no partition key, or no usable condition on
// the partition columns.
func NewPartitionPruner(query QueryInfo, schema *TableSchema) (*PartitionPruner, error) {
	cols := schema.PartitionColumns()
	if len(cols) == 0 {
		return nil, nil
	}
	desc := SortDescription{
		Columns: make([]string, len(cols)),
		Types:   make([]types.DataType, len(cols)),
	}
	for i, c := range cols {
		desc.Columns[i] = c.Name
		desc.Types[i] = c.DataType
	}

	cond := NewKeyCondition(query, desc)
	useless, err := cond.AlwaysUnknownOrTrue()
	if err != nil || useless {
		return nil, err
	}
	return &PartitionPruner{
		condition: cond,
		columns:   cols,
		keyTypes:  desc.Types,
	}, nil
}

// CanBePruned returns true if the condition is false for every row of the
// part according to its minmax indexes. Columns without a minmax index are
// unbounded.
func (pp *PartitionPruner) CanBePruned(part *Part) (bool, error) {
	box := make(Hyperrectangle, len(pp.columns))
	for i, col := range pp.columns {
		box[i] = WholeRange()
		if idx, ok := part.MinMaxFor(col.Name); ok {
			box[i] = idx.Range()
		}
	}

	mask, err := pp.condition.CheckInHyperrectangle(box, pp.keyTypes)
	if err != nil {
		return false, err
	}
	return !mask.CanBeTrue, nil
}

// Condition returns the condition evaluated against the minmax indexes.
func (pp *PartitionPruner) Condition() *KeyCondition { return pp.condition }

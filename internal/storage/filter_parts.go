package storage

import (
	"context"

	"go.uber.org/zap"
)

// PartFilterCounters records what index analysis skipped.
type PartFilterCounters struct {
	InitialParts           int
	PartsAfterPartitionKey int
	PartsAfterPrimaryKey   int
	InitialGranules        int
	SelectedGranules       int
}

// FilterParts is the entry point for index analysis of a query over a set of
// parts: parts are pruned by their partition minmax indexes first, and the
// survivors are narrowed to mark ranges through the primary key.
func (s *Selector) FilterParts(ctx context.Context, query QueryInfo, schema *TableSchema, parts []*Part) ([]PartSelection, PartFilterCounters, error) {
	counters := PartFilterCounters{InitialParts: len(parts)}
	for _, p := range parts {
		counters.InitialGranules += p.Index.GranuleCount()
	}

	pruner, err := NewPartitionPruner(query, schema)
	if err != nil {
		return nil, counters, err
	}

	survivors := parts
	if pruner == nil {
		if len(parts) > 0 {
			s.logger.Debug("[partition] no partition pruning applicable, passing all parts through",
				zap.Int("parts", len(parts)))
		}
	} else {
		s.logger.Debug("[partition] evaluating parts against partition key",
			zap.Int("parts", len(parts)),
			zap.String("partition_by", schema.PartitionBy),
			zap.Stringer("condition", pruner.Condition()))

		survivors = make([]*Part, 0, len(parts))
		for _, part := range parts {
			pruned, err := pruner.CanBePruned(part)
			if err != nil {
				return nil, counters, err
			}
			if pruned {
				s.logger.Debug("[partition] part pruned", zap.String("part", part.Info.DirName()))
				if s.metrics != nil {
					s.metrics.partsPruned.WithLabelValues("partition").Inc()
				}
				continue
			}
			survivors = append(survivors, part)
		}
	}
	counters.PartsAfterPartitionKey = len(survivors)

	kc := NewKeyCondition(query, schema.SortDescription())
	selected, err := s.SelectMarkRangesForParts(ctx, kc, survivors)
	if err != nil {
		return nil, counters, err
	}
	counters.PartsAfterPrimaryKey = len(selected)
	for _, sel := range selected {
		counters.SelectedGranules += sel.Ranges.NumMarks()
	}

	s.logger.Info("[primary-key] index analysis done",
		zap.String("query", query.SQL),
		zap.Stringer("condition", kc),
		zap.Int("parts", counters.InitialParts),
		zap.Int("parts_after_partition_key", counters.PartsAfterPartitionKey),
		zap.Int("parts_after_primary_key", counters.PartsAfterPrimaryKey),
		zap.Int("granules", counters.InitialGranules),
		zap.Int("selected_granules", counters.SelectedGranules))
	return selected, counters, nil
}

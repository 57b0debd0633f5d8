package storage

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

// PartInfo identifies a part following ClickHouse naming: partition_minBlock_maxBlock_level.
type PartInfo struct {
	PartitionID string
	MinBlock    uint64
	MaxBlock    uint64
	Level       uint32
}

// ParsePartInfo parses a part directory name such as "202403_1_5_2".
func ParsePartInfo(name string) (PartInfo, error) {
	fields := strings.Split(name, "_")
	if len(fields) < 4 {
		return PartInfo{}, errors.Newf("malformed part name %q", name)
	}
	n := len(fields)
	minBlock, err := strconv.ParseUint(fields[n-3], 10, 64)
	if err != nil {
		return PartInfo{}, errors.Wrapf(err, "part %q min block", name)
	}
	maxBlock, err := strconv.ParseUint(fields[n-2], 10, 64)
	if err != nil {
		return PartInfo{}, errors.Wrapf(err, "part %q max block", name)
	}
	level, err := strconv.ParseUint(fields[n-1], 10, 32)
	if err != nil {
		return PartInfo{}, errors.Wrapf(err, "part %q level", name)
	}
	if minBlock > maxBlock {
		return PartInfo{}, errors.Newf("part %q has min block %d above max block %d", name, minBlock, maxBlock)
	}
	return PartInfo{
		PartitionID: strings.Join(fields[:n-3], "_"),
		MinBlock:    minBlock,
		MaxBlock:    maxBlock,
		Level:       uint32(level),
	}, nil
}

// DirName returns the directory name for this part.
func (pi PartInfo) DirName() string {
	return fmt.Sprintf("%s_%d_%d_%d", pi.PartitionID, pi.MinBlock, pi.MaxBlock, pi.Level)
}

// Contains returns true if this part's block range fully covers another part's range.
func (pi PartInfo) Contains(other PartInfo) bool {
	return pi.PartitionID == other.PartitionID &&
		pi.MinBlock <= other.MinBlock &&
		pi.MaxBlock >= other.MaxBlock &&
		pi.Level > other.Level
}

// Part is a data part as seen by index analysis: its primary index and the
// minmax indexes of the partition key columns.
type Part struct {
	Info   PartInfo
	Index  *PrimaryIndex
	MinMax []MinMaxIndex
}

func (p *Part) String() string {
	return fmt.Sprintf("Part{%s, marks=%d}", p.Info.DirName(), p.Index.MarkCount())
}

// MinMaxFor returns the minmax index of a column.
func (p *Part) MinMaxFor(column string) (MinMaxIndex, bool) {
	for _, m := range p.MinMax {
		if m.ColumnName == column {
			return m, true
		}
	}
	return MinMaxIndex{}, false
}

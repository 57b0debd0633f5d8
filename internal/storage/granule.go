package storage

import "github.com/harshithgowdakt/granulekey/internal/types"

// DefaultGranuleSize is the number of rows between two marks.
const DefaultGranuleSize = 8192

// GranuleRange represents a range of rows [Start, End).
type GranuleRange struct {
	Start int
	End   int
}

// SplitIntoGranules splits totalRows into granule boundaries.
func SplitIntoGranules(totalRows, granuleSize int) []GranuleRange {
	if granuleSize <= 0 {
		granuleSize = DefaultGranuleSize
	}
	var result []GranuleRange
	for start := 0; start < totalRows; start += granuleSize {
		end := min(start+granuleSize, totalRows)
		result = append(result, GranuleRange{Start: start, End: end})
	}
	return result
}

// BuildPrimaryIndex samples the key of the first row of every granule from
// rows sorted by key. With withFinalMark the key of the last row is appended
// as an extra mark.
func BuildPrimaryIndex(keyColumns []string, keyTypes []types.DataType, rows [][]types.Field, granuleSize int, withFinalMark bool) (*PrimaryIndex, error) {
	idx := &PrimaryIndex{
		KeyColumns:   keyColumns,
		KeyTypes:     keyTypes,
		HasFinalMark: withFinalMark,
	}
	for _, g := range SplitIntoGranules(len(rows), granuleSize) {
		idx.Marks = append(idx.Marks, rows[g.Start])
	}
	if withFinalMark && len(rows) > 0 {
		idx.Marks = append(idx.Marks, rows[len(rows)-1])
	}
	if err := idx.Validate(); err != nil {
		return nil, err
	}
	return idx, nil
}

package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harshithgowdakt/granulekey/internal/config"
	"github.com/harshithgowdakt/granulekey/internal/types"
)

// MarkRange is a half-open range of granules [Begin, End).
type MarkRange struct {
	Begin int
	End   int
}

func (r MarkRange) String() string { return fmt.Sprintf("[%d, %d)", r.Begin, r.End) }

// MarkRanges is an ordered list of disjoint mark ranges.
type MarkRanges []MarkRange

// NumMarks returns the total number of granules covered.
func (rs MarkRanges) NumMarks() int {
	n := 0
	for _, r := range rs {
		n += r.End - r.Begin
	}
	return n
}

func (rs MarkRanges) String() string {
	parts := make([]string, len(rs))
	for i, r := range rs {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", ")
}

// Selector picks the granules of a part that may satisfy a KeyCondition.
type Selector struct {
	settings config.Settings
	logger   *zap.Logger
	metrics  *Metrics
}

// SelectorOption configures a Selector.
type SelectorOption func(*Selector)

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *zap.Logger) SelectorOption {
	return func(s *Selector) { s.logger = l }
}

// WithMetrics sets the metrics the selector reports to.
func WithMetrics(m *Metrics) SelectorOption {
	return func(s *Selector) { s.metrics = m }
}

// NewSelector creates a selector. Settings must be valid.
func NewSelector(settings config.Settings, opts ...SelectorOption) *Selector {
	s := &Selector{settings: settings, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// MarkRangesFromPKRange returns the granules of idx that may contain rows
// matching kc. Suspicious ranges are split into CoarseIndexGranularity pieces
// until single granules remain; neighbouring granules separated by at most
// MinMarksForSeek skipped granules are merged into one range.
func (s *Selector) MarkRangesFromPKRange(kc *KeyCondition, idx *PrimaryIndex) (MarkRanges, error) {
	start := time.Now()
	marksCount := idx.MarkCount()
	lastMark := idx.GranuleCount()
	if lastMark == 0 {
		s.logger.Debug("[primary-key] index has 0 granules, nothing to prune")
		return nil, nil
	}

	res, steps, err := s.markRangesFromPKRange(kc, idx, marksCount, lastMark)
	if err != nil {
		return nil, err
	}

	if m := s.metrics; m != nil {
		m.marksConsidered.Add(float64(lastMark))
		m.marksSelected.Add(float64(res.NumMarks()))
		m.rangesEvaluated.Add(float64(steps))
		m.selectDuration.Observe(time.Since(start).Seconds())
	}
	s.logger.Debug("[primary-key] selected mark ranges",
		zap.Stringer("condition", kc),
		zap.Stringer("ranges", res),
		zap.Int("selected", res.NumMarks()),
		zap.Int("granules", lastMark),
		zap.Int("steps", steps))
	return res, nil
}

func (s *Selector) markRangesFromPKRange(kc *KeyCondition, idx *PrimaryIndex, marksCount, lastMark int) (MarkRanges, int, error) {
	useless, err := kc.AlwaysUnknownOrTrue()
	if err != nil {
		return nil, 0, err
	}
	if useless {
		return MarkRanges{{Begin: 0, End: lastMark}}, 0, nil
	}

	usedKeySize := min(kc.MaxKeyColumn()+1, len(idx.KeyColumns))
	keyTypes := idx.KeyTypes
	for i, mark := range idx.Marks {
		if len(mark) < usedKeySize {
			return nil, 0, errors.Newf("mark %d has %d key values, condition needs %d", i, len(mark), usedKeySize)
		}
	}

	mayBeTrue := func(r MarkRange) (bool, error) {
		left := idx.Marks[r.Begin][:usedKeySize]
		if r.End == marksCount && !idx.HasFinalMark {
			return kc.MayBeTrueAfter(usedKeySize, left, keyTypes)
		}
		right := idx.Marks[r.End][:usedKeySize]
		return kc.MayBeTrueInRange(usedKeySize, left, right, keyTypes)
	}

	var res MarkRanges
	steps := 0
	stack := []MarkRange{{Begin: 0, End: lastMark}}
	for len(stack) > 0 {
		r := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		steps++

		ok, err := mayBeTrue(r)
		if err != nil {
			return nil, steps, err
		}
		if !ok {
			if ce := s.logger.Check(zap.DebugLevel, "[primary-key] range skipped (condition always false)"); ce != nil {
				ce.Write(zap.Stringer("range", r), zap.String("from", keyTuple(idx.Marks[r.Begin])))
			}
			continue
		}

		if r.End == r.Begin+1 {
			if len(res) == 0 || r.Begin-res[len(res)-1].End > s.settings.MinMarksForSeek {
				res = append(res, r)
			} else {
				res[len(res)-1].End = r.End
			}
			continue
		}

		// Push pieces right to left so that the leftmost is examined first.
		step := (r.End-r.Begin-1)/s.settings.CoarseIndexGranularity + 1
		end := r.End
		for ; end > r.Begin+step; end -= step {
			stack = append(stack, MarkRange{Begin: end - step, End: end})
		}
		stack = append(stack, MarkRange{Begin: r.Begin, End: end})
	}
	return res, steps, nil
}

// PartSelection is the result of index analysis for one part.
type PartSelection struct {
	Part   *Part
	Ranges MarkRanges
}

// SelectMarkRangesForParts runs MarkRangesFromPKRange over every part with at
// most Parallelism parts in flight. Parts with no matching granule are
// dropped; the result keeps the order of parts.
func (s *Selector) SelectMarkRangesForParts(ctx context.Context, kc *KeyCondition, parts []*Part) ([]PartSelection, error) {
	results := make([]MarkRanges, len(parts))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.settings.Parallelism)
	for i, part := range parts {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			ranges, err := s.MarkRangesFromPKRange(kc, part.Index)
			if err != nil {
				return errors.Wrapf(err, "part %s", part.Info.DirName())
			}
			results[i] = ranges
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []PartSelection
	for i, part := range parts {
		if len(results[i]) == 0 {
			s.logger.Debug("[primary-key] part pruned", zap.String("part", part.Info.DirName()))
			if s.metrics != nil {
				s.metrics.partsPruned.WithLabelValues("primary_key").Inc()
			}
			continue
		}
		out = append(out, PartSelection{Part: part, Ranges: results[i]})
	}
	return out, nil
}

// keyTuple renders a mark for logs.
func keyTuple(mark []types.Field) string {
	vals := make([]string, len(mark))
	for i, v := range mark {
		vals[i] = v.String()
	}
	return "(" + strings.Join(vals, ", ") + ")"
}

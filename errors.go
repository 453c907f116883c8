package ivtree

import (
	"errors"
	"fmt"
	"strings"

	"github.com/turivl/ivtree/internal/innernode"
)

// ErrInvalidRange is returned by New when the covering range has
// start >= end, and by Remove when the target lies outside the tree's
// covering range. Insert, Traverse, GetUncachedRange and HasUncachedRange
// do not return it: they skip a range that does not overlap the covering
// range.
var ErrInvalidRange = errors.New("ivtree: invalid range")

// ErrConstructorMismatch names a tree built with inner/leaf constructors
// that do not satisfy the node contract. Trees in this package are always
// built from its own node types, and no function returns this error.
var ErrConstructorMismatch = errors.New("ivtree: constructor mismatch")

// ErrNotImplemented names an unsupported operation. No function in this
// package currently returns it.
var ErrNotImplemented = errors.New("ivtree: not implemented")

// DataNotReadyError reports that a traversal crossed an Unloaded slot
// without AllowNull. Range names the uncached sub-range the caller should
// fetch before retrying.
type DataNotReadyError struct {
	Range Range
}

func (e *DataNotReadyError) Error() string {
	return fmt.Sprintf("ivtree: data not ready for range %s", e.Range)
}

func newDataNotReady(err error) error {
	var inner *innernode.ErrDataNotReady
	if errors.As(err, &inner) {
		return &DataNotReadyError{Range: fromCoordRange(inner.Range)}
	}
	return err
}

// InconsistentContinuedListError describes pre-insertion canonicalization
// finding a stored bin disagreeing with an external entry claiming the same
// start. Insert does not construct it: such a failure is reported as a
// SubRangeError whose Cause is binnode.ErrInconsistentContinuedList.
type InconsistentContinuedListError struct {
	Range Range
}

func (e *InconsistentContinuedListError) Error() string {
	return fmt.Sprintf("ivtree: inconsistent continued list for range %s", e.Range)
}

// SubRangeError is one failing sub-range inside an AggregatedInsertError,
// carrying the underlying cause and (at most) the first three offending
// entries for a best-effort diagnostic message.
type SubRangeError struct {
	Range  Range
	Cause  error
	Sample []Interval
}

func (e *SubRangeError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s: %v", e.Range, e.Cause)
	for i, iv := range e.Sample {
		if i == 0 {
			b.WriteString(" [")
		} else {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s:%d-%d", iv.Chr(), iv.Start(), iv.End())
	}
	if len(e.Sample) > 0 {
		b.WriteString("]")
	}
	return b.String()
}

func (e *SubRangeError) Unwrap() error { return e.Cause }

// AggregatedInsertError is returned by Insert when one or more sub-ranges
// failed; it names every failing sub-range, not just the first.
type AggregatedInsertError struct {
	Failures []*SubRangeError
}

func (e *AggregatedInsertError) Error() string {
	var b strings.Builder
	b.WriteString("ivtree: insert failed for ")
	fmt.Fprintf(&b, "%d sub-range(s):\n", len(e.Failures))
	for _, f := range e.Failures {
		b.WriteString("  - ")
		b.WriteString(f.Error())
		b.WriteString("\n")
	}
	return b.String()
}

// Unwrap exposes every sub-range failure to errors.Is/errors.As via
// errors.Join semantics.
func (e *AggregatedInsertError) Unwrap() []error {
	errs := make([]error, len(e.Failures))
	for i, f := range e.Failures {
		errs[i] = f
	}
	return errs
}

func joinSubRangeErrors(failures []*SubRangeError) error {
	if len(failures) == 0 {
		return nil
	}
	return &AggregatedInsertError{Failures: failures}
}

// Package sequence provides an indexed-path abstraction over families of
// files that share a single-placeholder filename pattern, such as
// /path/to/frames/%05d.png. A sequence always corresponds to files that
// exist on disk at construction; sequences with mutable bounds can then
// be extended one index at a time so the index range never acquires gaps.
package sequence

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"

	"github.com/framelake/datacore/errors"
	"github.com/framelake/datacore/logger"
)

// Sentinel errors for sequence construction and path generation.
var (
	// ErrPatternMismatch indicates no files on disk match the sequence
	// pattern, or the pattern does not contain exactly one integer
	// placeholder
	ErrPatternMismatch = errors.New("pattern did not match any files on disk")

	// ErrInvalidIndex indicates a negative index requested from a mutable
	// sequence
	ErrInvalidIndex = errors.New("sequence indices must be nonnegative")

	// ErrIndexOutOfBounds indicates an index outside the sequence bounds
	ErrIndexOutOfBounds = errors.New("index out of sequence bounds")

	// ErrImmutableBounds indicates a bound mutation attempted on an
	// immutable sequence
	ErrImmutableBounds = errors.New("cannot set bounds of an immutable sequence")
)

// placeholderRegexp matches printf-style integer placeholders such as %d
// and %05d.
var placeholderRegexp = regexp.MustCompile(`%(0\d+)?d`)

// Sequence represents a family of files keyed by one integer index
// embedded in a path pattern. Bounds are inclusive and lower <= upper
// always holds.
type Sequence struct {
	pattern   string
	immutable bool
	ext       string
	lower     int
	upper     int
}

// New creates a Sequence for the given printf-style pattern, scanning the
// filesystem to discover the index bounds. The pattern must contain
// exactly one integer placeholder, in its filename component, and match
// at least one file on disk; otherwise ErrPatternMismatch is returned.
//
// With immutableBounds, the discovered bounds are fixed for the life of
// the sequence; otherwise GenPath may extend them one index at a time.
func New(pattern string, immutableBounds bool) (*Sequence, error) {
	if n := len(placeholderRegexp.FindAllString(pattern, -1)); n != 1 {
		return nil, errors.Wrapf(ErrPatternMismatch,
			"pattern %q must contain exactly one integer placeholder, found %d", pattern, n)
	}
	if len(placeholderRegexp.FindAllString(filepath.Base(pattern), -1)) != 1 {
		return nil, errors.Wrapf(ErrPatternMismatch,
			"pattern %q: the placeholder must be in the filename, not a directory component", pattern)
	}

	lower, upper, err := scanBounds(pattern)
	if err != nil {
		return nil, err
	}

	logger.Debugw("discovered sequence bounds",
		"pattern", pattern,
		"lower", lower,
		"upper", upper,
		"immutable", immutableBounds)

	return &Sequence{
		pattern:   pattern,
		immutable: immutableBounds,
		ext:       filepath.Ext(pattern),
		lower:     lower,
		upper:     upper,
	}, nil
}

// NewForDir creates an immutable Sequence for the given directory,
// inferring the pattern from the numerically-named files it contains.
func NewForDir(dirPath string) (*Sequence, error) {
	pattern, err := inferDirPattern(dirPath)
	if err != nil {
		return nil, err
	}
	return New(pattern, true)
}

// scanBounds inspects the filesystem for files matching the pattern and
// returns the smallest and largest matching indices.
func scanBounds(pattern string) (lower, upper int, err error) {
	dir := filepath.Dir(pattern)
	base := filepath.Base(pattern)

	nameRegexp, err := regexp.Compile(
		"^" + placeholderRegexp.ReplaceAllString(regexp.QuoteMeta(base), `(\d+)`) + "$")
	if err != nil {
		return 0, 0, errors.Wrapf(ErrPatternMismatch, "pattern %q is not scannable", pattern)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return 0, 0, errors.Wrapf(ErrPatternMismatch,
			"cannot scan directory for pattern %q: %v", pattern, err)
	}

	found := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := nameRegexp.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		index, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}
		if !found || index < lower {
			lower = index
		}
		if !found || index > upper {
			upper = index
		}
		found = true
	}

	if !found {
		return 0, 0, errors.Wrapf(ErrPatternMismatch,
			"sequence %q did not match any files on disk", pattern)
	}
	return lower, upper, nil
}

// inferDirPattern derives a sequence pattern from the numerically-named
// files in a directory. Zero padding is preserved when all stems share
// one width.
func inferDirPattern(dirPath string) (string, error) {
	entries, err := os.ReadDir(dirPath)
	if err != nil {
		return "", errors.Wrapf(ErrPatternMismatch, "cannot scan directory %q: %v", dirPath, err)
	}

	var digitsRegexp = regexp.MustCompile(`^(\d+)(\.\S+)?$`)

	ext := ""
	width := -1
	uniformWidth := true
	found := false
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		m := digitsRegexp.FindStringSubmatch(entry.Name())
		if m == nil {
			continue
		}
		if found && m[2] != ext {
			return "", errors.Wrapf(ErrPatternMismatch,
				"directory %q contains sequence files with mixed extensions", dirPath)
		}
		ext = m[2]
		if width == -1 {
			width = len(m[1])
		} else if len(m[1]) != width {
			uniformWidth = false
		}
		found = true
	}

	if !found {
		return "", errors.Wrapf(ErrPatternMismatch,
			"directory %q contains no sequence files", dirPath)
	}

	placeholder := "%d"
	if uniformWidth {
		placeholder = fmt.Sprintf("%%0%dd", width)
	}
	return filepath.Join(dirPath, placeholder+ext), nil
}

// Pattern returns the sequence pattern.
func (s *Sequence) Pattern() string {
	return s.pattern
}

// ImmutableBounds reports whether the bounds are fixed.
func (s *Sequence) ImmutableBounds() bool {
	return s.immutable
}

// Extension returns the file extension of the pattern.
func (s *Sequence) Extension() string {
	return s.ext
}

// LowerBound returns the smallest index in the sequence.
func (s *Sequence) LowerBound() int {
	return s.lower
}

// UpperBound returns the largest index in the sequence (inclusive).
func (s *Sequence) UpperBound() int {
	return s.upper
}

// StartsAtZero reports whether the sequence starts at index 0.
func (s *Sequence) StartsAtZero() bool {
	return s.lower == 0
}

// StartsAtOne reports whether the sequence starts at index 1.
func (s *Sequence) StartsAtOne() bool {
	return s.lower == 1
}

// CheckBounds reports whether index lies within the current bounds.
func (s *Sequence) CheckBounds(index int) bool {
	return index >= s.lower && index <= s.upper
}

// SetLowerBound sets the lower bound, clamped so it cannot exceed the
// current upper bound. Returns ErrImmutableBounds on immutable sequences.
func (s *Sequence) SetLowerBound(value int) error {
	if s.immutable {
		return errors.WithStack(ErrImmutableBounds)
	}
	s.lower = min(value, s.upper)
	return nil
}

// SetUpperBound sets the upper bound, clamped so it cannot fall below the
// current lower bound. Returns ErrImmutableBounds on immutable sequences.
func (s *Sequence) SetUpperBound(value int) error {
	if s.immutable {
		return errors.WithStack(ErrImmutableBounds)
	}
	s.upper = max(value, s.lower)
	return nil
}

// GenPath generates the path for the file with the given index.
//
// On an immutable sequence the index must lie within bounds. On a mutable
// sequence the index may additionally extend the sequence by exactly one
// below the lower bound or one above the upper bound, in which case the
// corresponding bound is updated; negative indices are always rejected
// with ErrInvalidIndex. Any other out-of-range index fails with
// ErrIndexOutOfBounds and leaves the bounds unchanged.
func (s *Sequence) GenPath(index int) (string, error) {
	if s.immutable {
		if !s.CheckBounds(index) {
			return "", errors.Wrapf(ErrIndexOutOfBounds,
				"index %d out of bounds [%d, %d]", index, s.lower, s.upper)
		}
		return fmt.Sprintf(s.pattern, index), nil
	}

	switch {
	case index < 0:
		return "", errors.WithStack(ErrInvalidIndex)
	case index == s.lower-1:
		s.lower = index
	case index == s.upper+1:
		s.upper = index
	case !s.CheckBounds(index):
		return "", errors.Wrapf(ErrIndexOutOfBounds,
			"index %d out of bounds [%d, %d]; mutable sequences can be extended at most one index above/below",
			index, s.lower, s.upper)
	}
	return fmt.Sprintf(s.pattern, index), nil
}

// Paths returns a fresh cursor over the generated paths from the lower to
// the upper bound inclusive. Each cursor starts at the lower bound and
// iterates independently of any other cursor.
func (s *Sequence) Paths() *Cursor {
	return &Cursor{seq: s, next: s.lower}
}

// Cursor iterates the paths of a Sequence. Cursors hold their own
// position; nested or repeated iterations do not interfere.
type Cursor struct {
	seq  *Sequence
	next int
}

// Next returns the next path in the sequence, or "" and false when the
// cursor is exhausted.
func (c *Cursor) Next() (string, bool) {
	if !c.seq.CheckBounds(c.next) {
		return "", false
	}
	path := fmt.Sprintf(c.seq.pattern, c.next)
	c.next++
	return path, true
}

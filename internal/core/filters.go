package core

import (
	"errors"
	"fmt"
	"regexp"
)

// ErrInvalidPattern marks a wishlist filter pattern that does not compile.
// It is a configuration error, never treated as "no match" or "always match".
var ErrInvalidPattern = errors.New("invalid filter pattern")

// TagFilter is a compiled include/exclude pattern pair. A nil include means
// "always pass"; a nil exclude means "never reject".
type TagFilter struct {
	include *regexp.Regexp
	exclude *regexp.Regexp
}

// CompileFilters compiles an optional include/exclude pattern pair.
// Patterns are evaluated case-insensitively.
func CompileFilters(includePattern, excludePattern *string) (*TagFilter, error) {
	f := &TagFilter{}

	if includePattern != nil {
		re, err := regexp.Compile("(?i)" + *includePattern)
		if err != nil {
			return nil, fmt.Errorf("%w: include %q: %v", ErrInvalidPattern, *includePattern, err)
		}
		f.include = re
	}

	if excludePattern != nil {
		re, err := regexp.Compile("(?i)" + *excludePattern)
		if err != nil {
			return nil, fmt.Errorf("%w: exclude %q: %v", ErrInvalidPattern, *excludePattern, err)
		}
		f.exclude = re
	}

	return f, nil
}

// Match reports whether the tag blob passes the filter pair: the include
// pattern must match (when present) and the exclude pattern must not.
func (f *TagFilter) Match(tags string) bool {
	if f.include != nil && !f.include.MatchString(tags) {
		return false
	}
	if f.exclude != nil && f.exclude.MatchString(tags) {
		return false
	}
	return true
}

// PassesFilters evaluates an include/exclude pattern pair against a
// release's tag blob. Both patterns are compiled before evaluation so an
// invalid pattern is always surfaced, even when the other pattern would
// already decide the outcome.
func PassesFilters(tags string, includePattern, excludePattern *string) (bool, error) {
	f, err := CompileFilters(includePattern, excludePattern)
	if err != nil {
		return false, err
	}
	return f.Match(tags), nil
}

// ValidatePattern checks a single wishlist pattern at entry-creation time,
// so malformed patterns are rejected before they can reach a matching pass.
func ValidatePattern(pattern string) error {
	if _, err := regexp.Compile("(?i)" + pattern); err != nil {
		return fmt.Errorf("%w: %q: %v", ErrInvalidPattern, pattern, err)
	}
	return nil
}

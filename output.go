package headless

import (
	"cmp"
	"slices"

	"github.com/aretw0/headless/pkg/domain"
)

// Ordered groups lines by the input that caused them, in input order. Lines not tied to any
// input come first. Within a group the emission order is kept. The slice is sorted in place.
func Ordered(lines []domain.OutputLine) []domain.OutputLine {
	slices.SortStableFunc(lines, func(a, b domain.OutputLine) int {
		return cmp.Compare(a.Origin, b.Origin)
	})
	return lines
}

// internal/dex/generation.go
//
// Generation classifier. One table drives both directions:
//   - RangeFor(gen): the id range a generation filter draws candidates from.
//   - Classify(id):  the generation an id belongs to.
// Keeping a single table means the filter path and the classification path
// cannot drift apart.

package dex

const (
	MinGeneration = 1
	MaxGeneration = 9

	// MaxID is the highest national dex id the quiz draws from.
	MaxID = 1010
)

// Range is an inclusive id range.
type Range struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// Contains reports whether id lies within r.
func (r Range) Contains(id int) bool { return id >= r.Start && id <= r.End }

// Size is the number of ids in r.
func (r Range) Size() int { return r.End - r.Start + 1 }

// generations[i] is the id range of generation i+1.
var generations = [MaxGeneration]Range{
	{Start: 1, End: 151},
	{Start: 152, End: 251},
	{Start: 252, End: 386},
	{Start: 387, End: 493},
	{Start: 494, End: 649},
	{Start: 650, End: 721},
	{Start: 722, End: 809},
	{Start: 810, End: 905},
	{Start: 906, End: 1010},
}

// Classify maps a species id to its release generation.
// Ids outside 1..MaxID default to generation 1.
func Classify(id int) int {
	for i, r := range generations {
		if r.Contains(id) {
			return i + 1
		}
	}
	return MinGeneration
}

// RangeFor returns the id range for gen, or false if gen is not 1..9.
func RangeFor(gen int) (Range, bool) {
	if !ValidGeneration(gen) {
		return Range{}, false
	}
	return generations[gen-1], true
}

// FullRange is the id range used when no generation filter is set.
func FullRange() Range { return Range{Start: 1, End: MaxID} }

// ValidGeneration reports whether g is a known generation number.
func ValidGeneration(g int) bool { return g >= MinGeneration && g <= MaxGeneration }

package analytics

import "fmt"

// Bracket is one named medal with five sub-levels, each Step rating points wide.
type Bracket struct {
	Code  int // tens digit of the tier code, e.g. 5 for Legend
	Name  string
	Floor int
	Step  int
}

// Tiers maps ratings onto the ordered tier enumeration. Tier 0 is unranked;
// the top tier has no sub-levels.
type Tiers struct {
	brackets []Bracket
	topCode  int
	topName  string
	topFloor int
}

const (
	Unranked     = 0
	subLevels    = 5
	unrankedName = "Unranked"
	unknownName  = "Unknown"
)

func DefaultTiers() *Tiers {
	return &Tiers{
		brackets: []Bracket{
			{Code: 1, Name: "Herald", Floor: 0, Step: 154},
			{Code: 2, Name: "Guardian", Floor: 770, Step: 154},
			{Code: 3, Name: "Crusader", Floor: 1540, Step: 154},
			{Code: 4, Name: "Archon", Floor: 2310, Step: 154},
			{Code: 5, Name: "Legend", Floor: 3080, Step: 154},
			{Code: 6, Name: "Ancient", Floor: 3850, Step: 154},
			{Code: 7, Name: "Divine", Floor: 4620, Step: 160},
		},
		topCode:  80,
		topName:  "Immortal",
		topFloor: 5420,
	}
}

// Codes lists every tier code in ascending order, unranked first.
func (t *Tiers) Codes() []int {
	codes := []int{Unranked}
	for _, b := range t.brackets {
		for level := 1; level <= subLevels; level++ {
			codes = append(codes, b.Code*10+level)
		}
	}
	return append(codes, t.topCode)
}

func (t *Tiers) RatingToTier(rating int) int {
	if rating <= 0 {
		return Unranked
	}
	if rating >= t.topFloor {
		return t.topCode
	}
	for i := len(t.brackets) - 1; i >= 0; i-- {
		b := t.brackets[i]
		if rating >= b.Floor {
			level := min(subLevels-1, (rating-b.Floor)/b.Step)
			return b.Code*10 + 1 + level
		}
	}
	return Unranked
}

func (t *Tiers) bracket(tier int) (Bracket, int, bool) {
	code, level := tier/10, tier%10
	if level < 1 || level > subLevels {
		return Bracket{}, 0, false
	}
	for _, b := range t.brackets {
		if b.Code == code {
			return b, level, true
		}
	}
	return Bracket{}, 0, false
}

// TierToRating estimates a rating from a reported tier using the middle of
// the tier's span. Unknown codes yield 0.
func (t *Tiers) TierToRating(tier int) int {
	if tier == t.topCode {
		return t.topFloor
	}
	b, level, ok := t.bracket(tier)
	if !ok {
		return 0
	}
	return b.Floor + b.Step*(level-1) + b.Step/2
}

// TierFloor is the lowest rating that maps to tier. Rating 0 is reserved for
// unranked, so the lowest ranked tier starts at 1.
func (t *Tiers) TierFloor(tier int) int {
	if tier == t.topCode {
		return t.topFloor
	}
	b, level, ok := t.bracket(tier)
	if !ok {
		return 0
	}
	return max(1, b.Floor+b.Step*(level-1))
}

func (t *Tiers) Name(tier int) string {
	if tier == Unranked {
		return unrankedName
	}
	if tier == t.topCode {
		return t.topName
	}
	b, level, ok := t.bracket(tier)
	if !ok {
		return unknownName
	}
	return fmt.Sprintf("%s %d", b.Name, level)
}

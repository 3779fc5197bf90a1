package delegation

import (
	"errors"
	"fmt"
)

// Position is the stance a voter takes on an item. The zero value, NoVote, is
// never stored in a VoteSet: it is what a voter resolves to when neither it nor
// anyone along its delegation chain voted.
type Position uint8

const (
	NoVote Position = iota
	Yay
	Nay
	Blank
)

var ErrInvalidPosition = errors.New("invalid position")

// toggleOrder is the order a voter cycles through when toggling. Landing on
// NoVote withdraws the explicit vote.
var toggleOrder = [...]Position{Yay, Nay, Blank, NoVote}

var positionNames = map[Position]string{
	NoVote: "no_vote",
	Yay:    "yay",
	Nay:    "nay",
	Blank:  "blank",
}

func (p Position) String() string {
	if name, ok := positionNames[p]; ok {
		return name
	}
	return fmt.Sprintf("Position(%d)", uint8(p))
}

// IsValid reports whether p is one of the four known positions.
func (p Position) IsValid() bool {
	return p <= Blank
}

// IsExplicit reports whether p can be cast as a direct vote.
func (p Position) IsExplicit() bool {
	return p == Yay || p == Nay || p == Blank
}

// next returns the position that follows p when toggling.
func (p Position) next() Position {
	for i, pos := range toggleOrder {
		if pos == p {
			return toggleOrder[(i+1)%len(toggleOrder)]
		}
	}
	return Yay
}

// ParsePosition converts the text form of a position. "yea" is accepted as an
// alias of "yay".
func ParsePosition(s string) (Position, error) {
	switch s {
	case "yay", "yea":
		return Yay, nil
	case "nay":
		return Nay, nil
	case "blank":
		return Blank, nil
	case "no_vote", "":
		return NoVote, nil
	}
	return NoVote, fmt.Errorf("%w: %q", ErrInvalidPosition, s)
}

func (p Position) MarshalText() ([]byte, error) {
	if !p.IsValid() {
		return nil, fmt.Errorf("%w: %d", ErrInvalidPosition, uint8(p))
	}
	return []byte(p.String()), nil
}

func (p *Position) UnmarshalText(text []byte) error {
	pos, err := ParsePosition(string(text))
	if err != nil {
		return err
	}
	*p = pos
	return nil
}

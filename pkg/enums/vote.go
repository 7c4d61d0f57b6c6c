package enums

import "fmt"

// Vote is a single actor's stance on a record.
type Vote string

const (
	VoteLike    Vote = "like"
	VoteDislike Vote = "dislike"
)

var validVotes = []Vote{VoteLike, VoteDislike}

// String implements fmt.Stringer.
func (v Vote) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Vote.
func (v Vote) IsValid() bool {
	for _, candidate := range validVotes {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseVote converts raw input into a Vote.
func ParseVote(value string) (Vote, error) {
	for _, candidate := range validVotes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid vote %q", value)
}

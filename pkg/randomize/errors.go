package randomize

import "errors"

var (
	// ErrStuck means an attempt stopped making progress while locations or
	// objectives remained. The generator retries with new seeds.
	ErrStuck = errors.New("randomization stuck")

	// ErrStartRejected means a hub has fewer than two bireachable item
	// locations with an empty inventory.
	ErrStartRejected = errors.New("start location rejected")

	// ErrAttemptsExhausted means no attempt within the budget succeeded.
	ErrAttemptsExhausted = errors.New("no valid randomization within the attempt budget")

	// ErrMalformed reports inputs that can never randomize, such as an item
	// pool that does not match the number of locations.
	ErrMalformed = errors.New("malformed randomizer input")
)

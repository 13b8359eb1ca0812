package randomutils

import (
	"fmt"
	"math/rand"
)

// WeightedRandomChoice describes a weighted, randomly selectable object for use with a WeightedRandomChooser.
type WeightedRandomChoice[T any] struct {
	// Data describes the wrapped data that a WeightedRandomChooser should return when making a random selection.
	Data T

	// weight describes a value indicating the likelihood of this WeightedRandomChoice to appear in a random
	// selection. Its probability is calculated as current weight / all weights in a WeightedRandomChooser.
	weight uint64
}

// NewWeightedRandomChoice creates a WeightedRandomChoice with the given underlying data and weight to use when
// added to a WeightedRandomChooser.
func NewWeightedRandomChoice[T any](data T, weight uint64) *WeightedRandomChoice[T] {
	return &WeightedRandomChoice[T]{
		Data:   data,
		weight: weight,
	}
}

// WeightedRandomChooser takes a series of WeightedRandomChoice objects which wrap underlying data, and returns one
// of the weighted options randomly.
type WeightedRandomChooser[T any] struct {
	// choices describes the weighted choices from which the chooser will randomly select.
	choices []*WeightedRandomChoice[T]

	// totalWeight describes the sum of all weights in choices, stored so it does not need to be recomputed.
	totalWeight uint64

	// randomProvider offers a source of random data. The chooser assumes single-threaded use, matching the
	// sequential execution model of a fuzzing sequence.
	randomProvider *rand.Rand
}

// NewWeightedRandomChooser creates a WeightedRandomChooser with the provided random provider.
func NewWeightedRandomChooser[T any](randomProvider *rand.Rand) *WeightedRandomChooser[T] {
	return &WeightedRandomChooser[T]{
		choices:        make([]*WeightedRandomChoice[T], 0),
		randomProvider: randomProvider,
	}
}

// ChoiceCount returns the count of choices added to this provider.
func (c *WeightedRandomChooser[T]) ChoiceCount() int {
	return len(c.choices)
}

// AddChoices adds weighted choices to the WeightedRandomChooser, allowing for future random selection.
func (c *WeightedRandomChooser[T]) AddChoices(choices ...*WeightedRandomChoice[T]) {
	// Loop for each choice to add to sum all weights
	for _, choice := range choices {
		c.totalWeight += choice.weight
	}

	// Add to choices to our array
	c.choices = append(c.choices, choices...)
}

// Choose selects a random weighted item from the WeightedRandomChooser, or returns an error if one occurs.
func (c *WeightedRandomChooser[T]) Choose() (*T, error) {
	// If we have no choices or 0 total weight, we cannot select anything.
	if len(c.choices) == 0 || c.totalWeight == 0 {
		return nil, fmt.Errorf("could not return a weighted random choice because no choices exist with non-zero weights")
	}

	// We'll randomly select a position in our total weight that will determine which item to return.
	selectedWeightPosition := c.randomProvider.Uint64() % c.totalWeight

	// Loop for each item
	for _, choice := range c.choices {
		// If our selected weight position is in range for this item, return it
		if selectedWeightPosition < choice.weight {
			return &choice.Data, nil
		}

		// Subtract the choice weight from the current position, and go to the next item to see if it's in range.
		selectedWeightPosition -= choice.weight
	}

	return nil, fmt.Errorf("could not obtain a weighted random choice, selected position does not exist")
}

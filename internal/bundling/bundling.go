// Package bundling splits outbound records into delivery batches whose
// estimated size stays within a budget.
//
// Packing is a single greedy pass in input order. Records are never split or
// reordered, and a record heavier than the budget is delivered alone.
package bundling

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMaxWeight is returned when the weight budget is not positive.
	ErrInvalidMaxWeight = errors.New("max weight must be positive")

	// ErrNilWeightFunc is returned when no weight function is supplied.
	ErrNilWeightFunc = errors.New("weight function is required")
)

// Pack partitions records into consecutive, non-empty batches. A batch is
// closed as soon as adding the next record would push its total weight above
// maxWeight.
func Pack[T any](records []T, weight func(T) float64, maxWeight int) ([][]T, error) {
	if maxWeight <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxWeight, maxWeight)
	}
	if weight == nil {
		return nil, ErrNilWeightFunc
	}

	limit := float64(maxWeight)
	batches := make([][]T, 0)
	var current []T
	total := 0.0

	for _, record := range records {
		w := weight(record)
		if len(current) > 0 && total+w > limit {
			batches = append(batches, current)
			current = nil
			total = 0
		}
		current = append(current, record)
		total += w
	}
	if len(current) > 0 {
		batches = append(batches, current)
	}

	return batches, nil
}

// First returns only the first batch Pack would produce, without weighing
// the records beyond it. It returns nil for an empty input.
func First[T any](records []T, weight func(T) float64, maxWeight int) ([]T, error) {
	if maxWeight <= 0 {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMaxWeight, maxWeight)
	}
	if weight == nil {
		return nil, ErrNilWeightFunc
	}

	limit := float64(maxWeight)
	total := 0.0
	for i, record := range records {
		total += weight(record)
		if i > 0 && total > limit {
			return records[:i], nil
		}
	}
	return records, nil
}

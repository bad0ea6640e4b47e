// Copyright (c) 2026 Helixio. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package slice holds the generic helpers the standard [slices] package lacks.
package slice

// Map applies transform to every element. A nil input stays nil.
func Map[T any, U any](input []T, transform func(T) U) []U {
	if input == nil {
		return nil
	}

	output := make([]U, len(input))
	for index, element := range input {
		output[index] = transform(element)
	}
	return output
}

// Filter keeps the elements for which keep returns true, in order.
func Filter[T any](input []T, keep func(T) bool) []T {
	var output []T
	for _, element := range input {
		if keep(element) {
			output = append(output, element)
		}
	}
	return output
}

// Reduce folds input into a single value starting from initial.
func Reduce[T any, U any](input []T, initial U, reducer func(accumulator U, current T) U) U {
	accumulator := initial
	for _, element := range input {
		accumulator = reducer(accumulator, element)
	}
	return accumulator
}

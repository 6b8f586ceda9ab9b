// Package folds implements the deterministic cross-validation
// partition of the image identifier set. Assignment is a pure function
// of image order, so a split can be recomputed at any time without
// touching the loaded data.
package folds

import (
	"fmt"
)

// Assignment maps every image to a fold number in [0, NumFolds).
type Assignment struct {
	ids      []string
	folds    []int
	numFolds int
}

// Assign distributes ids over numFolds folds by index modulo, the same
// for every invocation with the same input order.
func Assign(ids []string, numFolds int) (*Assignment, error) {
	if numFolds < 2 {
		return nil, fmt.Errorf("folds: need at least 2 folds, got %d", numFolds)
	}
	a := &Assignment{
		ids:      append([]string(nil), ids...),
		folds:    make([]int, len(ids)),
		numFolds: numFolds,
	}
	for i := range ids {
		a.folds[i] = i % numFolds
	}
	return a, nil
}

// NumFolds returns the number of folds of the assignment.
func (a *Assignment) NumFolds() int {
	return a.numFolds
}

// Fold returns the fold number of the image at index i.
func (a *Assignment) Fold(i int) int {
	return a.folds[i]
}

// Select splits the id set for validation fold k: train ids are every
// image whose fold differs from k, valid ids the rest. The two sets
// are disjoint and together cover the full id set. Selection is O(n)
// and requires no data reload.
func (a *Assignment) Select(k int) (train, valid []string, err error) {
	if k < 0 || k >= a.numFolds {
		return nil, nil, fmt.Errorf("folds: fold %d outside [0, %d)", k, a.numFolds)
	}
	for i, id := range a.ids {
		if a.folds[i] == k {
			valid = append(valid, id)
		} else {
			train = append(train, id)
		}
	}
	return train, valid, nil
}

package folds

import (
	"testing"
)

// TestAssignModulo verifies the index-modulo fold layout.
func TestAssignModulo(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	a, err := Assign(ids, 3)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if a.NumFolds() != 3 {
		t.Errorf("NumFolds() = %d, want 3", a.NumFolds())
	}
	for i := range ids {
		if a.Fold(i) != i%3 {
			t.Errorf("Fold(%d) = %d, want %d", i, a.Fold(i), i%3)
		}
	}
}

// TestSelectPartition verifies that every fold selection is a disjoint
// partition of the full id set.
func TestSelectPartition(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e", "f", "g"}
	a, err := Assign(ids, 3)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	for k := 0; k < 3; k++ {
		train, valid, err := a.Select(k)
		if err != nil {
			t.Fatalf("Select(%d) failed: %v", k, err)
		}
		if len(train)+len(valid) != len(ids) {
			t.Fatalf("fold %d: %d train + %d valid != %d ids", k, len(train), len(valid), len(ids))
		}

		seen := make(map[string]bool)
		for _, id := range append(append([]string(nil), train...), valid...) {
			if seen[id] {
				t.Errorf("fold %d: id %q selected twice", k, id)
			}
			seen[id] = true
		}
		for i, id := range ids {
			inValid := false
			for _, v := range valid {
				if v == id {
					inValid = true
				}
			}
			if want := i%3 == k; inValid != want {
				t.Errorf("fold %d: id %q in valid = %v, want %v", k, id, inValid, want)
			}
		}
	}
}

// TestSelectIsRepeatable verifies that switching folds back and forth
// reproduces the same split.
func TestSelectIsRepeatable(t *testing.T) {
	ids := []string{"a", "b", "c", "d", "e"}
	a, err := Assign(ids, 5)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}

	train1, valid1, err := a.Select(2)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	if _, _, err := a.Select(4); err != nil {
		t.Fatalf("Select failed: %v", err)
	}
	train2, valid2, err := a.Select(2)
	if err != nil {
		t.Fatalf("Select failed: %v", err)
	}

	if len(train1) != len(train2) || len(valid1) != len(valid2) {
		t.Fatalf("re-selection changed split sizes")
	}
	for i := range train1 {
		if train1[i] != train2[i] {
			t.Errorf("train id %d changed: %q vs %q", i, train1[i], train2[i])
		}
	}
	for i := range valid1 {
		if valid1[i] != valid2[i] {
			t.Errorf("valid id %d changed: %q vs %q", i, valid1[i], valid2[i])
		}
	}
}

// TestAssignRejectsBadInput verifies the validation of fold counts and
// selection indices.
func TestAssignRejectsBadInput(t *testing.T) {
	if _, err := Assign([]string{"a", "b"}, 1); err == nil {
		t.Error("expected error for fewer than 2 folds")
	}

	a, err := Assign([]string{"a", "b", "c"}, 3)
	if err != nil {
		t.Fatalf("Assign failed: %v", err)
	}
	if _, _, err := a.Select(-1); err == nil {
		t.Error("expected error for negative fold")
	}
	if _, _, err := a.Select(3); err == nil {
		t.Error("expected error for fold beyond the partition")
	}
}

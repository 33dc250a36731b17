package linearlogic

import (
	"errors"
	"testing"
)

func TestSubstitutionBinding(t *testing.T) {
	t.Run("AddBinding then Lookup round-trips", func(t *testing.T) {
		s := NewSubstitution(0)
		if err := s.AddBinding(1, NewAtom(5)); err != nil {
			t.Fatalf("AddBinding: %v", err)
		}
		got, ok := s.Lookup(1)
		if !ok || !got.Equal(NewAtom(5)) {
			t.Errorf("Lookup(1) = (%v, %v), want (atom(5), true)", got, ok)
		}
	})

	t.Run("occurs check rejects a self-referential binding", func(t *testing.T) {
		s := NewSubstitution(0)
		c, _ := NewCompound(1, []Term{Var{ID: 1}})
		err := s.AddBinding(1, c)
		if !errors.Is(err, ErrOccursCheck) {
			t.Errorf("AddBinding occurs-check error = %v, want ErrOccursCheck", err)
		}
	})

	t.Run("rebinding an already-bound variable fails", func(t *testing.T) {
		s := NewSubstitution(0)
		if err := s.AddBinding(1, NewAtom(1)); err != nil {
			t.Fatalf("AddBinding: %v", err)
		}
		if err := s.AddBinding(1, NewAtom(2)); err == nil {
			t.Error("rebinding variable 1 should fail")
		}
	})

	t.Run("capacity bound is enforced", func(t *testing.T) {
		s := NewSubstitution(2)
		if err := s.AddBinding(1, NewAtom(1)); err != nil {
			t.Fatalf("AddBinding 1: %v", err)
		}
		if err := s.AddBinding(2, NewAtom(1)); err != nil {
			t.Fatalf("AddBinding 2: %v", err)
		}
		err := s.AddBinding(3, NewAtom(1))
		if !errors.Is(err, ErrCapacityExceeded) {
			t.Errorf("AddBinding past capacity = %v, want ErrCapacityExceeded", err)
		}
	})
}

func TestSubstitutionApply(t *testing.T) {
	t.Run("chases a variable chain to fixpoint", func(t *testing.T) {
		s := NewSubstitution(0)
		_ = s.AddBinding(1, Var{ID: 2})
		_ = s.AddBinding(2, NewAtom(9))
		got := s.Apply(Var{ID: 1})
		if !got.Equal(NewAtom(9)) {
			t.Errorf("Apply(var 1) = %v, want atom(9)", got)
		}
	})

	t.Run("rewrites nested compound arguments", func(t *testing.T) {
		s := NewSubstitution(0)
		_ = s.AddBinding(1, NewAtom(9))
		c, _ := NewCompound(5, []Term{Var{ID: 1}, NewAtom(2)})
		got := s.Apply(c)
		want, _ := NewCompound(5, []Term{NewAtom(9), NewAtom(2)})
		if !got.Equal(want) {
			t.Errorf("Apply(%v) = %v, want %v", c, got, want)
		}
	})

	t.Run("preserves the CLONE marker on a resolved variable", func(t *testing.T) {
		s := NewSubstitution(0)
		_ = s.AddBinding(1, NewAtom(9))
		got := s.Apply(NewClone(Var{ID: 1}))
		if _, ok := got.(CloneTerm); !ok {
			t.Errorf("Apply(CLONE(var)) = %v, want a CloneTerm", got)
		}
	})

	t.Run("unbound variable applies to itself", func(t *testing.T) {
		s := NewSubstitution(0)
		got := s.Apply(Var{ID: 7})
		if !got.Equal(Var{ID: 7}) {
			t.Errorf("Apply(unbound var) = %v, want var 7", got)
		}
	})
}

func TestSubstitutionComposeAndFilter(t *testing.T) {
	t.Run("Compose rewrites left bindings under right", func(t *testing.T) {
		left := NewSubstitution(0)
		_ = left.AddBinding(1, Var{ID: 2})
		right := NewSubstitution(0)
		_ = right.AddBinding(2, NewAtom(9))

		composed := left.Compose(right)
		got, ok := composed.Lookup(1)
		if !ok || !got.Equal(NewAtom(9)) {
			t.Errorf("Compose: Lookup(1) = (%v, %v), want (atom(9), true)", got, ok)
		}
		got2, ok := composed.Lookup(2)
		if !ok || !got2.Equal(NewAtom(9)) {
			t.Errorf("Compose: Lookup(2) = (%v, %v), want (atom(9), true)", got2, ok)
		}
	})

	t.Run("Filter keeps only requested variables", func(t *testing.T) {
		s := NewSubstitution(0)
		_ = s.AddBinding(1, NewAtom(1))
		_ = s.AddBinding(2, NewAtom(2))
		filtered := s.Filter([]VarId{1})
		if filtered.Size() != 1 {
			t.Fatalf("Filter size = %d, want 1", filtered.Size())
		}
		if _, ok := filtered.Lookup(2); ok {
			t.Error("Filter should have dropped variable 2")
		}
	})
}

func TestSubstitutionEqual(t *testing.T) {
	t.Run("equal after applying to fixpoint regardless of order", func(t *testing.T) {
		a := NewSubstitution(0)
		_ = a.AddBinding(1, Var{ID: 2})
		_ = a.AddBinding(2, NewAtom(5))

		b := NewSubstitution(0)
		_ = b.AddBinding(2, NewAtom(5))
		_ = b.AddBinding(1, NewAtom(5))

		if !a.Equal(b) {
			t.Error("substitutions with the same fixpoint bindings should be Equal")
		}
	})

	t.Run("different binding counts are not equal", func(t *testing.T) {
		a := NewSubstitution(0)
		_ = a.AddBinding(1, NewAtom(1))
		b := NewSubstitution(0)
		if a.Equal(b) {
			t.Error("substitutions with different sizes should not be Equal")
		}
	})
}

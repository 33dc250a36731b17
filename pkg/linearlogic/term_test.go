package linearlogic

import "testing"

func TestTermEquality(t *testing.T) {
	t.Run("atoms compare by symbol", func(t *testing.T) {
		if !NewAtom(5).Equal(NewAtom(5)) {
			t.Error("equal-symbol atoms should be Equal")
		}
		if NewAtom(5).Equal(NewAtom(6)) {
			t.Error("distinct-symbol atoms should not be Equal")
		}
	})

	t.Run("atom and zero-arity compound are distinct", func(t *testing.T) {
		c, err := NewCompound(5, nil)
		if err != nil {
			t.Fatalf("NewCompound: %v", err)
		}
		if NewAtom(5).Equal(c) {
			t.Error("Atom(5) must not equal Compound(5) with no args")
		}
	})

	t.Run("compounds compare functor, arity, and args", func(t *testing.T) {
		a, _ := NewCompound(1, []Term{NewAtom(2), NewInteger(3)})
		b, _ := NewCompound(1, []Term{NewAtom(2), NewInteger(3)})
		c, _ := NewCompound(1, []Term{NewAtom(2), NewInteger(4)})
		if !a.Equal(b) {
			t.Error("structurally identical compounds should be Equal")
		}
		if a.Equal(c) {
			t.Error("compounds differing in an argument should not be Equal")
		}
	})

	t.Run("NewCompound rejects arity over 255", func(t *testing.T) {
		args := make([]Term, 256)
		for i := range args {
			args[i] = NewInteger(int64(i))
		}
		if _, err := NewCompound(1, args); err == nil {
			t.Error("expected an error for 256-argument compound")
		}
	})
}

func TestCloneTransparency(t *testing.T) {
	t.Run("NewClone collapses nested clones", func(t *testing.T) {
		inner := NewAtom(1)
		once := NewClone(inner)
		twice := NewClone(once)
		if _, ok := twice.(CloneTerm).Inner.(CloneTerm); ok {
			t.Error("CLONE of CLONE should collapse to a single wrapper")
		}
	})

	t.Run("Unclone strips exactly the wrapper", func(t *testing.T) {
		inner := NewAtom(7)
		wrapped := NewClone(inner)
		unwrapped, wasCloned := Unclone(wrapped)
		if !wasCloned {
			t.Error("Unclone should report true for a CLONE-wrapped term")
		}
		if !unwrapped.Equal(inner) {
			t.Errorf("Unclone(%v) = %v, want %v", wrapped, unwrapped, inner)
		}
		plain, wasCloned := Unclone(inner)
		if wasCloned {
			t.Error("Unclone should report false for a bare term")
		}
		if !plain.Equal(inner) {
			t.Error("Unclone of a bare term should return it unchanged")
		}
	})

	t.Run("Equal does not look through CLONE", func(t *testing.T) {
		inner := NewAtom(1)
		if NewClone(inner).Equal(inner) {
			t.Error("CloneTerm.Equal must not consider the unwrapped term equal")
		}
	})
}

func TestOccursAndFreeVars(t *testing.T) {
	t.Run("Occurs finds a variable nested in a compound", func(t *testing.T) {
		x := Var{ID: 1}
		c, _ := NewCompound(1, []Term{NewAtom(2), x})
		if !Occurs(1, c) {
			t.Error("Occurs should find var 1 nested in the compound")
		}
		if Occurs(2, c) {
			t.Error("Occurs should not find var 2, which is absent")
		}
	})

	t.Run("Occurs recurses through CLONE", func(t *testing.T) {
		x := Var{ID: 1}
		wrapped := NewClone(x)
		if !Occurs(1, wrapped) {
			t.Error("Occurs must see through a CLONE wrapper")
		}
	})

	t.Run("FreeVars deduplicates in first-occurrence order", func(t *testing.T) {
		x, y := Var{ID: 1}, Var{ID: 2}
		c, _ := NewCompound(1, []Term{x, y, x})
		vars := FreeVars(c)
		if len(vars) != 2 || vars[0] != 1 || vars[1] != 2 {
			t.Errorf("FreeVars = %v, want [1 2]", vars)
		}
	})
}

func TestRender(t *testing.T) {
	in := NewInterner()
	foo, _ := in.Intern("foo")
	bar, _ := in.Intern("bar")

	t.Run("resolves atom and compound names", func(t *testing.T) {
		c, _ := NewCompound(foo, []Term{NewAtom(bar), NewInteger(42)})
		got := Render(c, in)
		want := "foo(bar, 42)"
		if got != want {
			t.Errorf("Render = %q, want %q", got, want)
		}
	})

	t.Run("falls back to raw String for unresolved symbol", func(t *testing.T) {
		got := Render(NewAtom(SymbolId(9999)), in)
		if got == "" {
			t.Error("Render of an unresolved atom should still produce non-empty output")
		}
	})
}

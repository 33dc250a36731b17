package linearlogic

import "testing"

func TestKnowledgeBaseFactInsertion(t *testing.T) {
	t.Run("AddLinearFact is consumable until consumed", func(t *testing.T) {
		kb := NewKnowledgeBase()
		res, err := kb.AddLinearFact(NewAtom(1))
		if err != nil {
			t.Fatalf("AddLinearFact: %v", err)
		}
		if !res.Consumable() {
			t.Error("freshly-added linear fact should be Consumable")
		}
		kb.markConsumed(res)
		if res.Consumable() {
			t.Error("consumed linear resource should no longer be Consumable")
		}
	})

	t.Run("AddPersistentFact wraps the fact in CLONE", func(t *testing.T) {
		kb := NewKnowledgeBase()
		res, err := kb.AddPersistentFact(NewAtom(1))
		if err != nil {
			t.Fatalf("AddPersistentFact: %v", err)
		}
		if _, ok := res.Fact.(CloneTerm); !ok {
			t.Errorf("persistent fact storage = %v, want a CloneTerm", res.Fact)
		}
	})

	t.Run("AddExponentialFact is never marked consumed", func(t *testing.T) {
		kb := NewKnowledgeBase()
		res, err := kb.AddExponentialFact(NewAtom(1))
		if err != nil {
			t.Fatalf("AddExponentialFact: %v", err)
		}
		kb.markConsumed(res)
		if !res.Consumable() {
			t.Error("exponential resources stay Consumable regardless of markConsumed")
		}
	})

	t.Run("nil fact is rejected", func(t *testing.T) {
		kb := NewKnowledgeBase()
		if _, err := kb.AddLinearFact(nil); err == nil {
			t.Error("AddLinearFact(nil) should fail")
		}
	})
}

func TestKnowledgeBaseCheckpoint(t *testing.T) {
	t.Run("RestoreConsumedState undoes consumption", func(t *testing.T) {
		kb := NewKnowledgeBase()
		res, _ := kb.AddLinearFact(NewAtom(1))

		cp := kb.SaveConsumedState()
		kb.markConsumed(res)
		if res.Consumable() {
			t.Fatal("expected resource to be consumed before restore")
		}

		kb.RestoreConsumedState(cp)
		if !res.Consumable() {
			t.Error("RestoreConsumedState should have undone the consumption")
		}
	})

	t.Run("RestoreConsumedState drops resources asserted after the checkpoint", func(t *testing.T) {
		kb := NewKnowledgeBase()
		_, _ = kb.AddLinearFact(NewAtom(1))
		cp := kb.SaveConsumedState()
		_, _ = kb.AddLinearFact(NewAtom(2))

		count := 0
		for r := kb.resourcesHead(); r != nil; r = r.next {
			count++
		}
		if count != 2 {
			t.Fatalf("expected 2 resources before restore, got %d", count)
		}

		kb.RestoreConsumedState(cp)
		count = 0
		for r := kb.resourcesHead(); r != nil; r = r.next {
			count++
		}
		if count != 1 {
			t.Errorf("expected 1 resource after restore, got %d", count)
		}
	})

	t.Run("nested checkpoints restore independently", func(t *testing.T) {
		kb := NewKnowledgeBase()
		res1, _ := kb.AddLinearFact(NewAtom(1))
		cp1 := kb.SaveConsumedState()
		kb.markConsumed(res1)
		cp2 := kb.SaveConsumedState()
		res2, _ := kb.AddLinearFact(NewAtom(2))
		kb.markConsumed(res2)

		kb.RestoreConsumedState(cp2)
		if res2.Consumable() {
			// res2 itself was dropped by cp2's restore (asserted after cp2).
		}
		if res1.Consumable() {
			t.Error("res1 should still be consumed after restoring only to cp2")
		}

		kb.RestoreConsumedState(cp1)
		if !res1.Consumable() {
			t.Error("res1 should be consumable again after restoring to cp1")
		}
	})
}

func TestKnowledgeBaseTyping(t *testing.T) {
	t.Run("IsVariantOf is reflexive and transitive", func(t *testing.T) {
		kb := NewKnowledgeBase()
		coin, _ := kb.interner.Intern("coin")
		quarter, _ := kb.interner.Intern("quarter")
		washingtonQuarter, _ := kb.interner.Intern("washington-quarter")

		kb.AddUnionMapping(quarter, coin)
		kb.AddUnionMapping(washingtonQuarter, quarter)

		if !kb.IsVariantOf(coin, coin) {
			t.Error("IsVariantOf should be reflexive")
		}
		if !kb.IsVariantOf(washingtonQuarter, coin) {
			t.Error("IsVariantOf should be transitive across two hops")
		}
		if kb.IsVariantOf(coin, washingtonQuarter) {
			t.Error("IsVariantOf should not hold in the reverse direction")
		}
	})

	t.Run("CanUnifyWithType accepts a variant fact for a type-named goal", func(t *testing.T) {
		kb := NewKnowledgeBase()
		coinType, _ := kb.interner.Intern("coin")
		quarterFunctor, _ := kb.interner.Intern("quarter")
		kb.AddTypeMapping(quarterFunctor, coinType)

		quarterFact := NewAtom(quarterFunctor)
		s := NewSubstitution(0)
		_, ok := kb.CanUnifyWithType(s, NewAtom(coinType), quarterFact)
		if !ok {
			t.Error("CanUnifyWithType should accept a fact whose type matches the goal atom")
		}
	})

	t.Run("ValidateTypeMappings reports an unresolved parent", func(t *testing.T) {
		kb := NewKnowledgeBase()
		child, _ := kb.interner.Intern("child")
		kb.AddUnionMapping(child, SymbolId(60000))
		if err := kb.ValidateTypeMappings(); err == nil {
			t.Error("expected ValidateTypeMappings to report the unresolved parent symbol")
		}
	})
}

func TestKnowledgeBaseRuleDispatch(t *testing.T) {
	t.Run("rulesForProduction indexes by dispatch key", func(t *testing.T) {
		kb := NewKnowledgeBase()
		give, _ := kb.interner.Intern("give")
		take, _ := kb.interner.Intern("take")

		head, _ := NewCompound(take, []Term{NewAtom(1)})
		production, _ := NewCompound(give, []Term{NewAtom(1)})
		if _, err := kb.AddRule(nil, []Term{head}, production); err != nil {
			t.Fatalf("AddRule: %v", err)
		}

		goal, _ := NewCompound(give, []Term{Var{ID: 1}})
		rules := kb.rulesForProduction(goal)
		if len(rules) != 1 {
			t.Fatalf("rulesForProduction returned %d rules, want 1", len(rules))
		}

		other, _ := NewCompound(take, []Term{Var{ID: 1}})
		if len(kb.rulesForProduction(other)) != 0 {
			t.Error("rulesForProduction should not match a differently-keyed goal")
		}
	})
}

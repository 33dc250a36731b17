// Package fixtures builds small, named KnowledgeBase scenarios for
// cmd/linearkb, standing in for the
// textual fact/rule language the spec's Non-goals explicitly exclude:
// a fixture name plays the role a query language would.
package fixtures

import (
	"fmt"

	"github.com/gokando-ll/linearlogic/pkg/linearlogic"
)

// Fixture bundles a ready-to-query KnowledgeBase with one representative
// goal for the `resolve`/`resolve-all` CLI commands.
type Fixture struct {
	Name        string
	Description string
	Build       func() (*linearlogic.KnowledgeBase, []linearlogic.Term)
}

// All is the registry of named fixtures, indexed for the CLI's --fixture
// flag.
var All = map[string]Fixture{
	"vending-machine":      vendingMachine(),
	"greeting-persistent":  greetingPersistent(),
	"type-directed-coin":   typeDirectedCoin(),
	"shared-resource-race": sharedResourceRace(),
}

// Lookup resolves a fixture by name, building a fresh KnowledgeBase on
// every call (fixtures are not shared across CLI invocations).
func Lookup(name string) (*linearlogic.KnowledgeBase, []linearlogic.Term, error) {
	f, ok := All[name]
	if !ok {
		return nil, nil, fmt.Errorf("fixtures: unknown fixture %q", name)
	}
	kb, goals := f.Build()
	return kb, goals, nil
}

// vendingMachine: coin ⊸ soda. A single linear coin resource can be
// exchanged for exactly one soda.
func vendingMachine() Fixture {
	return Fixture{
		Name:        "vending-machine",
		Description: "production rule consumes a linear coin, asserts a soda",
		Build: func() (*linearlogic.KnowledgeBase, []linearlogic.Term) {
			kb := linearlogic.NewKnowledgeBase()
			in := kb.Interner()
			coin, _ := in.Intern("coin")
			soda, _ := in.Intern("soda")
			coinTerm := linearlogic.NewAtom(coin)
			sodaTerm := linearlogic.NewAtom(soda)
			mustAddRule(kb, nil, []linearlogic.Term{coinTerm}, sodaTerm)
			mustAddLinearFact(kb, coinTerm)
			return kb, []linearlogic.Term{sodaTerm}
		},
	}
}

// greetingPersistent: guest(X), language(english) ⊸ greeted(X). The
// persistent language fact survives being used in more than one firing.
func greetingPersistent() Fixture {
	return Fixture{
		Name:        "greeting-persistent",
		Description: "a persistent fact is reused across repeated rule firings",
		Build: func() (*linearlogic.KnowledgeBase, []linearlogic.Term) {
			kb := linearlogic.NewKnowledgeBase()
			in := kb.Interner()
			guest, _ := in.Intern("guest")
			language, _ := in.Intern("language")
			english, _ := in.Intern("english")
			greeted, _ := in.Intern("greeted")
			alice, _ := in.Intern("alice")
			bob, _ := in.Intern("bob")

			x := linearlogic.Var{ID: 1}
			guestX := mustCompound(guest, x)
			languageEnglish := mustCompound(language, linearlogic.NewAtom(english))
			greetedX := mustCompound(greeted, x)

			mustAddRule(kb, nil, []linearlogic.Term{guestX, languageEnglish}, greetedX)
			mustAddPersistentFact(kb, languageEnglish)
			mustAddLinearFact(kb, mustCompound(guest, linearlogic.NewAtom(alice)))
			mustAddLinearFact(kb, mustCompound(guest, linearlogic.NewAtom(bob)))

			goal := mustCompound(greeted, linearlogic.NewAtom(alice))
			return kb, []linearlogic.Term{goal}
		},
	}
}

// typeDirectedCoin: a goal naming a type (coin) matches a fact several
// variant hops below it in the variant DAG (washington-quarter <:
// quarter <: coin).
func typeDirectedCoin() Fixture {
	return Fixture{
		Name:        "type-directed-coin",
		Description: "a type-named goal matches a variant several hops down the DAG",
		Build: func() (*linearlogic.KnowledgeBase, []linearlogic.Term) {
			kb := linearlogic.NewKnowledgeBase()
			in := kb.Interner()
			coin, _ := in.Intern("coin")
			quarter, _ := in.Intern("quarter")
			washingtonQuarter, _ := in.Intern("washington-quarter")

			kb.AddTypeMapping(washingtonQuarter, washingtonQuarter)
			kb.AddUnionMapping(washingtonQuarter, quarter)
			kb.AddUnionMapping(quarter, coin)

			mustAddLinearFact(kb, linearlogic.NewAtom(washingtonQuarter))
			return kb, []linearlogic.Term{linearlogic.NewAtom(coin)}
		},
	}
}

// sharedResourceRace: spec.md §8 S6. Two production rules, a ⊸ p and
// b ⊸ p, each hold exclusive claim to a distinct linear resource but
// produce the same fact p. Resolving [p, p] fires a ⊸ p for the first
// goal and, since rule firing is tried before direct fact match, b ⊸ p
// for the second, consuming both a and b; neither rule can fire twice,
// since consumption removes its resource. The two
// goals are independent conjuncts sharing one pattern, not a
// self-recursive goal, so this is also the scenario the engine's
// ancestor-cycle guard must not misfire on.
func sharedResourceRace() Fixture {
	return Fixture{
		Name:        "shared-resource-race",
		Description: "two rules competing for distinct linear facts, same production",
		Build: func() (*linearlogic.KnowledgeBase, []linearlogic.Term) {
			kb := linearlogic.NewKnowledgeBase()
			in := kb.Interner()
			a, _ := in.Intern("a")
			b, _ := in.Intern("b")
			p, _ := in.Intern("p")

			aTerm := linearlogic.NewAtom(a)
			bTerm := linearlogic.NewAtom(b)
			pTerm := linearlogic.NewAtom(p)

			mustAddRule(kb, nil, []linearlogic.Term{aTerm}, pTerm)
			mustAddRule(kb, nil, []linearlogic.Term{bTerm}, pTerm)
			mustAddLinearFact(kb, aTerm)
			mustAddLinearFact(kb, bTerm)

			return kb, []linearlogic.Term{pTerm, pTerm}
		},
	}
}

func mustCompound(functor linearlogic.SymbolId, args ...linearlogic.Term) linearlogic.Term {
	c, err := linearlogic.NewCompound(functor, args)
	if err != nil {
		panic(err)
	}
	return c
}

func mustAddLinearFact(kb *linearlogic.KnowledgeBase, fact linearlogic.Term) {
	if _, err := kb.AddLinearFact(fact); err != nil {
		panic(err)
	}
}

func mustAddPersistentFact(kb *linearlogic.KnowledgeBase, fact linearlogic.Term) {
	if _, err := kb.AddPersistentFact(fact); err != nil {
		panic(err)
	}
}

func mustAddRule(kb *linearlogic.KnowledgeBase, head linearlogic.Term, body []linearlogic.Term, production linearlogic.Term) {
	if _, err := kb.AddRule(head, body, production); err != nil {
		panic(err)
	}
}

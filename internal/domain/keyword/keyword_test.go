package keyword

import (
	"testing"

	"github.com/kailas-cloud/recollect/internal/domain/facet"
)

func TestBuilder_DropsBlankAndDuplicates(t *testing.T) {
	s := NewBuilder().
		Add(facet.Title, " 新人 ").
		Add(facet.Title, "新人").
		Add(facet.Title, "   ").
		Add(facet.Genre, "新人").
		Build()

	if got := s.Terms(facet.Title); len(got) != 1 || got[0] != "新人" {
		t.Errorf("Terms(title) = %v, want [新人]", got)
	}
	// same term under another facet is a distinct pair
	if got := s.Terms(facet.Genre); len(got) != 1 {
		t.Errorf("Terms(genre) = %v, want 1 term", got)
	}
	if s.Len() != 2 {
		t.Errorf("Len() = %d, want 2", s.Len())
	}
}

func TestBuilder_InvalidFacetKeepsTerm(t *testing.T) {
	s := NewBuilder().Add(facet.Facet("mood"), "切ない").Build()

	if got := s.Terms(facet.Keyword); len(got) != 1 || got[0] != "切ない" {
		t.Errorf("Terms(keyword) = %v, want [切ない]", got)
	}
}

func TestSet_IsEmpty(t *testing.T) {
	if !Empty().IsEmpty() {
		t.Error("Empty().IsEmpty() = false")
	}
	s := Of(map[facet.Facet][]string{facet.Title: {}, facet.Actor: {""}})
	if !s.IsEmpty() {
		t.Error("set with only blank terms should be empty")
	}
	s = Of(map[facet.Facet][]string{facet.Actor: {"女優X"}})
	if s.IsEmpty() {
		t.Error("IsEmpty() = true for non-empty set")
	}
}

func TestSet_PairsCanonicalOrder(t *testing.T) {
	s := NewBuilder().
		Add(facet.Actor, "a").
		Add(facet.Title, "t1").
		Add(facet.Series, "s").
		Add(facet.Title, "t2").
		Build()

	want := []Pair{
		{facet.Title, "t1"},
		{facet.Title, "t2"},
		{facet.Series, "s"},
		{facet.Actor, "a"},
	}
	got := s.Pairs()
	if len(got) != len(want) {
		t.Fatalf("Pairs() len = %d, want %d", len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Pairs()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
}

func TestSet_TermsReturnsCopy(t *testing.T) {
	s := Of(map[facet.Facet][]string{facet.Title: {"a"}})
	ts := s.Terms(facet.Title)
	ts[0] = "mutated"
	if s.Terms(facet.Title)[0] != "a" {
		t.Error("Terms() leaked internal slice")
	}
}

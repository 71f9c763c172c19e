package app

import (
	"testing"

	"overlay-timeline-service/internal/domain"
)

func TestIsVisibleClosedInterval(t *testing.T) {
	e := domain.InteractiveElement{ID: "a", Timestamp: 5, EndTime: 15}

	cases := []struct {
		t       float64
		visible bool
	}{
		{4.99, false},
		{5, true}, // boundary inclusive
		{10, true},
		{15, true}, // boundary inclusive
		{15.01, false},
	}
	for _, c := range cases {
		if got := IsVisible(e, c.t); got != c.visible {
			t.Fatalf("IsVisible at t=%v: got %v, want %v", c.t, got, c.visible)
		}
	}
}

func TestVisibleAtEmptyInput(t *testing.T) {
	for _, tick := range []float64{0, 10, 99999} {
		if got := VisibleAt(nil, tick); len(got) != 0 {
			t.Fatalf("expected empty result at t=%v, got %d elements", tick, len(got))
		}
	}
}

func TestVisibleAtPreservesOrder(t *testing.T) {
	elements := []domain.InteractiveElement{
		{ID: "a", Timestamp: 0, EndTime: 20},
		{ID: "b", Timestamp: 30, EndTime: 40},
		{ID: "c", Timestamp: 5, EndTime: 15},
	}
	visible := VisibleAt(elements, 10)
	if len(visible) != 2 || visible[0].ID != "a" || visible[1].ID != "c" {
		t.Fatalf("expected [a c], got %+v", visible)
	}
}

func TestSortForPaintStableOnTies(t *testing.T) {
	a := domain.InteractiveElement{ID: "a", Timestamp: 5, EndTime: 15, ZIndex: 1}
	b := domain.InteractiveElement{ID: "b", Timestamp: 5, EndTime: 15, ZIndex: 1}

	ordered := SortForPaint([]domain.InteractiveElement{a, b}, "")
	if ordered[0].ID != "a" || ordered[1].ID != "b" {
		t.Fatalf("expected insertion order preserved on z tie, got %+v", ordered)
	}
}

func TestSelectionAlwaysPaintsOnTop(t *testing.T) {
	selected := domain.InteractiveElement{ID: "low", ZIndex: 1}
	others := []domain.InteractiveElement{
		{ID: "mid", ZIndex: 500},
		{ID: "high", ZIndex: 9999},
	}

	for _, other := range others {
		if EffectiveZIndex(selected, "low") <= EffectiveZIndex(other, "low") {
			t.Fatalf("selected element must outrank %s", other.ID)
		}
	}

	ordered := SortForPaint(append(others, selected), "low")
	if ordered[len(ordered)-1].ID != "low" {
		t.Fatalf("expected selected element last in paint order, got %+v", ordered)
	}
}

func TestSortForPaintDoesNotMutateStoredZIndex(t *testing.T) {
	elements := []domain.InteractiveElement{{ID: "a", ZIndex: 1}, {ID: "b", ZIndex: 2}}
	_ = SortForPaint(elements, "a")
	if elements[0].ZIndex != 1 || elements[0].ID != "a" {
		t.Fatalf("input slice mutated: %+v", elements)
	}
}

func TestHitTestDefaultBoxAndTopmost(t *testing.T) {
	under := domain.InteractiveElement{ID: "under", X: 0, Y: 0, Timestamp: 0, EndTime: 100, ZIndex: 1}
	over := domain.InteractiveElement{ID: "over", X: 50, Y: 20, Timestamp: 0, EndTime: 100, ZIndex: 2}
	elements := []domain.InteractiveElement{under, over}

	// (60, 30) is inside both default 120x50 boxes; the higher z wins.
	hit, ok := HitTest(elements, "", 60, 30, 10)
	if !ok || hit.ID != "over" {
		t.Fatalf("expected topmost hit 'over', got %+v ok=%v", hit, ok)
	}

	// Selection boosts 'under' above 'over'.
	hit, ok = HitTest(elements, "under", 60, 30, 10)
	if !ok || hit.ID != "under" {
		t.Fatalf("expected selected 'under' on top, got %+v ok=%v", hit, ok)
	}

	// Outside every box.
	if _, ok := HitTest(elements, "", 500, 500, 10); ok {
		t.Fatalf("expected miss at (500,500)")
	}

	// Inside a box but outside the visibility window.
	if _, ok := HitTest(elements, "", 60, 30, 200); ok {
		t.Fatalf("expected miss outside visibility window")
	}
}

func TestHitTestExplicitGeometry(t *testing.T) {
	e := domain.InteractiveElement{ID: "a", X: 10, Y: 10, Width: 30, Height: 30, Timestamp: 0, EndTime: 100}

	if _, ok := HitTest([]domain.InteractiveElement{e}, "", 45, 15, 1); ok {
		t.Fatalf("expected miss just right of the 30-wide box")
	}
	if hit, ok := HitTest([]domain.InteractiveElement{e}, "", 40, 40, 1); !ok || hit.ID != "a" {
		t.Fatalf("expected hit on box corner, got ok=%v", ok)
	}
}

package app

import (
	"sort"

	"overlay-timeline-service/internal/domain"
)

// selectionBoost lifts the selected element above any authored z-index so
// it always paints on top. It is applied at paint time only, never stored.
const selectionBoost = 10000

// IsVisible reports whether the element's visibility window contains t.
// The window is a closed interval: both endpoints are visible.
func IsVisible(e domain.InteractiveElement, t float64) bool {
	return t >= e.Timestamp && t <= e.EndTime
}

// VisibleAt filters elements to those visible at t, preserving input order.
// Paint order is a separate concern; see SortForPaint.
func VisibleAt(elements []domain.InteractiveElement, t float64) []domain.InteractiveElement {
	visible := make([]domain.InteractiveElement, 0, len(elements))
	for _, e := range elements {
		if IsVisible(e, t) {
			visible = append(visible, e)
		}
	}
	return visible
}

// EffectiveZIndex is the z-index used for paint-order resolution: the
// authored value plus the selection boost when the element is selected.
func EffectiveZIndex(e domain.InteractiveElement, selectedID string) int {
	z := e.ZIndex
	if selectedID != "" && e.ID == selectedID {
		z += selectionBoost
	}
	return z
}

// SortForPaint returns elements ordered back-to-front by effective z-index.
// The sort is stable, so equal z-indexes keep insertion order.
func SortForPaint(elements []domain.InteractiveElement, selectedID string) []domain.InteractiveElement {
	ordered := make([]domain.InteractiveElement, len(elements))
	copy(ordered, elements)
	sort.SliceStable(ordered, func(i, j int) bool {
		return EffectiveZIndex(ordered[i], selectedID) < EffectiveZIndex(ordered[j], selectedID)
	})
	return ordered
}

// HitTest returns the topmost element visible at t whose bounding box
// contains the point, or false when nothing is hit. Elements without
// explicit geometry use the default hit box.
func HitTest(elements []domain.InteractiveElement, selectedID string, x, y, t float64) (domain.InteractiveElement, bool) {
	ordered := SortForPaint(VisibleAt(elements, t), selectedID)
	// Walk front-to-back so the first hit is the topmost.
	for i := len(ordered) - 1; i >= 0; i-- {
		if containsPoint(ordered[i], x, y) {
			return ordered[i], true
		}
	}
	return domain.InteractiveElement{}, false
}

func containsPoint(e domain.InteractiveElement, x, y float64) bool {
	w := e.Width
	if w == 0 {
		w = domain.DefaultWidth
	}
	h := e.Height
	if h == 0 {
		h = domain.DefaultHeight
	}
	return x >= e.X && x <= e.X+w && y >= e.Y && y <= e.Y+h
}

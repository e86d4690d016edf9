package catalog

import "github.com/nasir-hacker-7/power.modz.hub/models"

// FilterVisible returns the records included in public listing surfaces:
// exactly those with IsVisible set, in their input order. Hidden records are
// excluded from every aggregate view but remain reachable by direct identity
// lookup — visibility controls discoverability, not access.
func FilterVisible(items []models.ContentItem) []models.ContentItem {
	visible := make([]models.ContentItem, 0, len(items))
	for _, it := range items {
		if it.IsVisible {
			visible = append(visible, it)
		}
	}
	return visible
}

package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/nasir-hacker-7/power.modz.hub/models"
)

func TestFilterVisible(t *testing.T) {
	items := []models.ContentItem{
		{ID: "a", IsVisible: true},
		{ID: "b", IsVisible: false},
		{ID: "c", IsVisible: true},
		{ID: "d", IsVisible: false},
	}

	got := FilterVisible(items)

	ids := make([]string, 0, len(got))
	for _, it := range got {
		ids = append(ids, it.ID)
	}
	assert.Equal(t, []string{"a", "c"}, ids, "order of survivors is preserved")
}

func TestFilterVisibleEmpty(t *testing.T) {
	assert.Empty(t, FilterVisible(nil))
	assert.Empty(t, FilterVisible([]models.ContentItem{{ID: "x", IsVisible: false}}))
}

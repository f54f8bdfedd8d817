package search

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestReconcile(t *testing.T) {
	vocab := testCatalog()

	tests := []struct {
		name       string
		makes      []string
		models     []string
		wantMakes  []string
		wantModels []string
	}{
		{
			name:      "owning make removed",
			makes:     []string{"Ford", "Nissan"},
			models:    []string{"Taurus"},
			wantMakes: []string{"Nissan"}, wantModels: []string{"Taurus"},
		},
		{
			name:      "all makes removed becomes absent",
			makes:     []string{"Ford", "Nissan"},
			models:    []string{"Taurus", "Rogue"},
			wantMakes: nil, wantModels: []string{"Taurus", "Rogue"},
		},
		{
			name:      "duplicate makes all removed",
			makes:     []string{"Ford", "Honda", "Ford"},
			models:    []string{"F-150"},
			wantMakes: []string{"Honda"}, wantModels: []string{"F-150"},
		},
		{
			name:      "no models leaves makes alone",
			makes:     []string{"Ford"},
			models:    nil,
			wantMakes: []string{"Ford"}, wantModels: nil,
		},
		{
			name:      "empty models leaves makes alone",
			makes:     []string{"Ford"},
			models:    []string{},
			wantMakes: []string{"Ford"}, wantModels: []string{},
		},
		{
			name:      "absent makes stay absent",
			makes:     nil,
			models:    []string{"Civic"},
			wantMakes: nil, wantModels: []string{"Civic"},
		},
		{
			name:      "unrelated model keeps make",
			makes:     []string{"Honda"},
			models:    []string{"Altima"},
			wantMakes: []string{"Honda"}, wantModels: []string{"Altima"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := NewFilter()
			f.Makes = tt.makes
			f.Models = tt.models

			reconcile(&f, vocab)

			assert.Equal(t, tt.wantMakes, f.Makes)
			assert.Equal(t, tt.wantModels, f.Models)
		})
	}
}

func TestReconcile_NeverLeavesOwningMake(t *testing.T) {
	vocab := testCatalog()
	allMakes := vocab.Makes()

	for _, model := range vocab.Models() {
		f := NewFilter()
		f.Makes = append([]string(nil), allMakes...)
		f.Models = []string{model}

		reconcile(&f, vocab)

		for _, mk := range f.Makes {
			assert.False(t, vocab.MakeOwnsModel(mk, model), "%s still selected with %s", mk, model)
		}
	}
}

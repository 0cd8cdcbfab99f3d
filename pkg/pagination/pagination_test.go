package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePerPage(t *testing.T) {
	assert.Equal(t, DefaultPerPage, NormalizePerPage(0))
	assert.Equal(t, DefaultPerPage, NormalizePerPage(-3))
	assert.Equal(t, 10, NormalizePerPage(10))
	assert.Equal(t, MaxPerPage, NormalizePerPage(MaxPerPage+1))
}

func TestTotalPages(t *testing.T) {
	assert.Equal(t, 0, TotalPages(0, 4))
	assert.Equal(t, 1, TotalPages(4, 4))
	assert.Equal(t, 2, TotalPages(5, 4))
	assert.Equal(t, 5, TotalPages(20, 4))
}

func TestResolve(t *testing.T) {
	tests := []struct {
		name   string
		params Params
		total  int
		want   Window
	}{
		{
			name:   "first page",
			params: Params{Page: 1, PerPage: 4},
			total:  20,
			want:   Window{Page: 1, PerPage: 4, Total: 20, TotalPages: 5, Start: 0, End: 4},
		},
		{
			name:   "partial last page",
			params: Params{Page: 3, PerPage: 4},
			total:  10,
			want:   Window{Page: 3, PerPage: 4, Total: 10, TotalPages: 3, Start: 8, End: 10},
		},
		{
			name:   "page beyond last clamps",
			params: Params{Page: 9, PerPage: 4},
			total:  10,
			want:   Window{Page: 3, PerPage: 4, Total: 10, TotalPages: 3, Start: 8, End: 10},
		},
		{
			name:   "page below first clamps",
			params: Params{Page: 0},
			total:  6,
			want:   Window{Page: 1, PerPage: DefaultPerPage, Total: 6, TotalPages: 2, Start: 0, End: 4},
		},
		{
			name:   "empty collection",
			params: Params{Page: 2, PerPage: 4},
			total:  0,
			want:   Window{Page: 1, PerPage: 4, Total: 0, TotalPages: 0, Start: 0, End: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Resolve(tt.params, tt.total))
		})
	}
}

func TestWindowNavigation(t *testing.T) {
	w := Resolve(Params{Page: 2, PerPage: 4}, 12)
	assert.True(t, w.HasPrev())
	assert.True(t, w.HasNext())

	last := Resolve(Params{Page: 3, PerPage: 4}, 12)
	assert.False(t, last.HasNext())

	empty := Resolve(Params{}, 0)
	assert.False(t, empty.HasPrev())
	assert.False(t, empty.HasNext())
}

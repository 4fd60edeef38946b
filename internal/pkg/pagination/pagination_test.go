package pagination

import "testing"

func TestNew(t *testing.T) {
	tests := []struct {
		page, limit int
		want        Params
	}{
		{1, 20, Params{Page: 1, Limit: 20, Offset: 0}},
		{3, 10, Params{Page: 3, Limit: 10, Offset: 20}},
		{0, 0, Params{Page: 1, Limit: DefaultLimit, Offset: 0}},
		{2, 500, Params{Page: 2, Limit: MaxLimit, Offset: MaxLimit}},
	}
	for _, tt := range tests {
		if got := New(tt.page, tt.limit); *got != tt.want {
			t.Fatalf("New(%d, %d) = %+v, want %+v", tt.page, tt.limit, *got, tt.want)
		}
	}
}

func TestGetMeta(t *testing.T) {
	meta := GetMeta(New(2, 10), 25)
	if meta.TotalPages != 3 || !meta.HasNext || !meta.HasPrev {
		t.Fatalf("GetMeta() = %+v", meta)
	}
	meta = GetMeta(New(1, 10), 0)
	if meta.TotalPages != 0 || meta.HasNext || meta.HasPrev {
		t.Fatalf("GetMeta() on empty = %+v", meta)
	}
}

package pagination

import "testing"

func TestNormalize(t *testing.T) {
	p := Params{}.Normalize()
	if p.Page != 1 || p.PerPage != DefaultPerPage {
		t.Fatalf("unexpected defaults %+v", p)
	}

	p = Params{Page: 3, PerPage: 500}.Normalize()
	if p.PerPage != MaxPerPage {
		t.Fatalf("expected per-page clamp, got %d", p.PerPage)
	}
	if p.Page != 3 {
		t.Fatalf("page should be preserved, got %d", p.Page)
	}
}

func TestOffset(t *testing.T) {
	if got := (Params{Page: 1, PerPage: 25}).Offset(); got != 0 {
		t.Fatalf("expected offset 0, got %d", got)
	}
	if got := (Params{Page: 4, PerPage: 10}).Offset(); got != 30 {
		t.Fatalf("expected offset 30, got %d", got)
	}
}

func TestNewMeta(t *testing.T) {
	meta := NewMeta(Params{Page: 2, PerPage: 10}, 35)
	if meta.TotalPages != 4 {
		t.Fatalf("expected 4 pages, got %d", meta.TotalPages)
	}
	if meta.TotalRows != 35 {
		t.Fatalf("expected 35 rows, got %d", meta.TotalRows)
	}

	empty := NewMeta(Params{}, 0)
	if empty.TotalPages != 1 {
		t.Fatalf("empty result should report a single page, got %d", empty.TotalPages)
	}
}

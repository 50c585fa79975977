package paging

import (
	"net/http/httptest"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		wantNumber int
		wantSize   int
		wantOffset int64
	}{
		{"defaults", "/x", 1, PageSize, 0},
		{"second page", "/x?page=2", 2, PageSize, PageSize},
		{"custom size", "/x?page=3&page_size=10", 3, 10, 20},
		{"clamped size", "/x?page_size=5000", 1, MaxPageSize, 0},
		{"invalid page", "/x?page=abc", 1, PageSize, 0},
		{"zero page", "/x?page=0&page_size=-4", 1, PageSize, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := Parse(httptest.NewRequest("GET", tt.target, nil))
			if p.Number != tt.wantNumber || p.Size != tt.wantSize {
				t.Errorf("Parse() = %+v, want page %d size %d", p, tt.wantNumber, tt.wantSize)
			}
			if p.Offset() != tt.wantOffset {
				t.Errorf("Offset() = %d, want %d", p.Offset(), tt.wantOffset)
			}
			if p.Limit() != int64(tt.wantSize) {
				t.Errorf("Limit() = %d, want %d", p.Limit(), tt.wantSize)
			}
		})
	}
}

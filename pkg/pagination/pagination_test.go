package pagination

import (
	"errors"
	"testing"
	"time"
)

func TestPageWalksAllItems(t *testing.T) {
	items := []int{1, 2, 3, 4, 5}
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	var seen []int
	params := Params{Limit: 2}
	for i := 0; i < 5; i++ {
		page, next, err := Page(items, params, at)
		if err != nil {
			t.Fatalf("page: %v", err)
		}
		seen = append(seen, page...)
		if next == "" {
			break
		}
		params.Cursor = next
	}
	if len(seen) != 5 || seen[4] != 5 {
		t.Fatalf("unexpected walk %v", seen)
	}
}

func TestPageRejectsStaleCursor(t *testing.T) {
	at := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	_, next, err := Page([]int{1, 2, 3}, Params{Limit: 1}, at)
	if err != nil || next == "" {
		t.Fatalf("expected next cursor, got %q %v", next, err)
	}
	_, _, err = Page([]int{1, 2, 3}, Params{Limit: 1, Cursor: next}, at.Add(time.Minute))
	if !errors.Is(err, ErrStaleCursor) {
		t.Fatalf("expected stale cursor error, got %v", err)
	}
}

func TestParseCursorRejectsGarbage(t *testing.T) {
	if c, err := ParseCursor(""); c != nil || err != nil {
		t.Fatalf("blank cursor should be nil, got %v %v", c, err)
	}
	if _, err := ParseCursor("!!!"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestNormalizeLimit(t *testing.T) {
	if NormalizeLimit(0) != DefaultLimit || NormalizeLimit(500) != MaxLimit || NormalizeLimit(10) != 10 {
		t.Fatal("unexpected limit normalization")
	}
}

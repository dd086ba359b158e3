package console

import (
	"reflect"
	"testing"
)

func TestHistory(t *testing.T) {
	h := NewHistory(5)
	check := func(wanted ...string) {
		t.Helper()
		if wanted == nil {
			wanted = []string{}
		}
		if got := h.Lines(); !reflect.DeepEqual(got, wanted) {
			t.Errorf("Wanted %v, got %v", wanted, got)
		}
	}

	check()
	h.Push("0", "1", "2")
	check("0", "1", "2")

	h.Push("3", "4")
	check("0", "1", "2", "3", "4")
	if h.Len() != 5 {
		t.Errorf("Wanted length 5, got %d", h.Len())
	}

	h.Push("5")
	check("1", "2", "3", "4", "5")

	h.Push("6", "7", "8")
	check("4", "5", "6", "7", "8")
	if got := h.Last(2); !reflect.DeepEqual(got, []string{"7", "8"}) {
		t.Errorf("Wanted last 2 [7 8], got %v", got)
	}
	if got := h.Last(10); len(got) != 5 {
		t.Errorf("Last beyond length returned %d lines", len(got))
	}

	h.Push("a", "b", "c", "d", "e", "f", "g")
	check("c", "d", "e", "f", "g")

}

func TestHistoryMinimumSize(t *testing.T) {
	h := NewHistory(0)
	if h.Cap() != 1 {
		t.Errorf("Wanted capacity 1, got %d", h.Cap())
	}
	h.Push("a", "b")
	if got := h.Lines(); !reflect.DeepEqual(got, []string{"b"}) {
		t.Errorf("Wanted [b], got %v", got)
	}
}

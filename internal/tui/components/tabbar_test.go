package components

import (
	"strings"
	"testing"
)

func TestNewTabBar(t *testing.T) {
	tb := NewTabBar([]string{"All", "Info", "Warn", "Error"})
	if tb.Active() != 0 {
		t.Errorf("Active: got %d, want 0", tb.Active())
	}
}

func TestTabBar_Next(t *testing.T) {
	tb := NewTabBar([]string{"A", "B", "C"})
	for _, want := range []int{1, 2, 0} { // wraps
		tb = tb.Next()
		if tb.Active() != want {
			t.Errorf("Active after Next: got %d, want %d", tb.Active(), want)
		}
	}
}

func TestTabBar_Prev(t *testing.T) {
	tb := NewTabBar([]string{"A", "B", "C"})
	for _, want := range []int{2, 1, 0} { // wraps
		tb = tb.Prev()
		if tb.Active() != want {
			t.Errorf("Active after Prev: got %d, want %d", tb.Active(), want)
		}
	}
}

func TestTabBar_SetActive(t *testing.T) {
	tb := NewTabBar([]string{"A", "B", "C"}).SetActive(2)
	if tb.Active() != 2 {
		t.Errorf("Active: got %d, want 2", tb.Active())
	}
	if tb.SetActive(7).Active() != 2 || tb.SetActive(-1).Active() != 2 {
		t.Error("out-of-range SetActive should be ignored")
	}
}

func TestTabBar_View_ContainsAllTabs(t *testing.T) {
	labels := []string{"All", "Info", "Warn", "Error"}
	view := NewTabBar(labels).View()
	for _, label := range labels {
		if !strings.Contains(view, label) {
			t.Errorf("View() missing label %q: got %q", label, view)
		}
	}
}

func TestTabBar_View_Counts(t *testing.T) {
	view := NewTabBar([]string{"All", "Info", "Warn"}).SetCounts([]int{5, 3}).View()
	for _, want := range []string{"All 5", "Info 3"} {
		if !strings.Contains(view, want) {
			t.Errorf("View() missing %q: %q", want, view)
		}
	}
	if strings.Contains(view, "Warn ") {
		t.Errorf("tab without a count should have no badge: %q", view)
	}
}

func TestTabBar_SetCounts_IndependentCopy(t *testing.T) {
	counts := []int{1, 2}
	tb := NewTabBar([]string{"A", "B"}).SetCounts(counts)
	counts[0] = 99
	if strings.Contains(tb.View(), "99") {
		t.Error("SetCounts should copy the slice")
	}
}

func TestTabBar_SetAccent(t *testing.T) {
	tb := NewTabBar([]string{"A"}).SetAccent("#FF0000")
	if tb.accent != "#FF0000" {
		t.Errorf("accent: got %q", tb.accent)
	}
	if tb.SetAccent("").accent != "#FF0000" {
		t.Error("empty accent should be ignored")
	}
}

func TestTabBar_Empty(t *testing.T) {
	tb := NewTabBar(nil)
	if view := tb.View(); view != "" {
		t.Errorf("empty TabBar View() = %q, want empty string", view)
	}
	_ = tb.Next()
	_ = tb.Prev()
}

func TestTabBar_SetWidth(t *testing.T) {
	tb := NewTabBar([]string{"Tab1", "Tab2"}).SetWidth(50)
	if tb.width != 50 {
		t.Errorf("width: got %d, want 50", tb.width)
	}
}

package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	if Truncate("hello", 10) != "hello" {
		t.Error("short string unchanged")
	}
	if Truncate("hello world", 5) != "hello..." {
		t.Errorf("got %s", Truncate("hello world", 5))
	}
	if Truncate("x", 0) != "x" {
		t.Error("maxLen 0 returns as-is")
	}
	// Multibyte text is cut on rune boundaries.
	if Truncate("발표 자료가 너무 길다", 5) != "발표 자료..." {
		t.Errorf("got %s", Truncate("발표 자료가 너무 길다", 5))
	}
}

func TestContainsFold(t *testing.T) {
	if !ContainsFold("bug report", "BUG") {
		t.Error("case-insensitive match expected")
	}
	if !ContainsFold("솔루션 텍스트", "루션") {
		t.Error("substring of multibyte text expected to match")
	}
	if ContainsFold("bug report", "feature") {
		t.Error("unexpected match")
	}
	if !ContainsFold("anything", "") {
		t.Error("empty substring matches everything")
	}
}

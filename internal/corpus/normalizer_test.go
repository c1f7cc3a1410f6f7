package corpus

import (
	"reflect"
	"testing"
)

func TestNormalize_ColumnMapping(t *testing.T) {
	rows := []RawRow{
		{"대분류": "글쓰기", "문제점": "결론이 묻힌다", "솔루션 (버전1)": "결론을 먼저 써라", "솔루션 (버전2)": "두괄식으로 바꿔라"},
	}
	entries := Normalize(rows)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	e := entries[0]
	if e.ID != 0 || e.Category != "글쓰기" || e.Problem != "결론이 묻힌다" ||
		e.Solution1 != "결론을 먼저 써라" || e.Solution2 != "두괄식으로 바꿔라" {
		t.Errorf("unexpected entry: %+v", e)
	}
}

func TestNormalize_DropsBlankProblem(t *testing.T) {
	rows := []RawRow{
		{"대분류": "A", "문제점": "", "솔루션 (버전1)": "x"},
		{"대분류": "A", "솔루션 (버전1)": "x"},
	}
	if got := Normalize(rows); len(got) != 0 {
		t.Errorf("rows without a problem must be dropped, got %+v", got)
	}
}

func TestNormalize_DropsEntryWithoutAnySolution(t *testing.T) {
	rows := []RawRow{
		{"문제점": "p", "솔루션 (버전1)": "", "솔루션 (버전2)": ""},
		{"문제점": "p"},
	}
	if got := Normalize(rows); len(got) != 0 {
		t.Errorf("rows without any solution must be dropped, got %+v", got)
	}
}

func TestNormalize_KeepsSolution2OnlyEntry(t *testing.T) {
	rows := []RawRow{
		{"문제점": "p", "솔루션 (버전2)": "s2"},
	}
	entries := Normalize(rows)
	if len(entries) != 1 {
		t.Fatalf("entry with only solution2 must be kept, got %d", len(entries))
	}
	if entries[0].Solution1 != "" || entries[0].Solution2 != "s2" {
		t.Errorf("unexpected entry: %+v", entries[0])
	}
}

func TestNormalize_CategoryDefault(t *testing.T) {
	rows := []RawRow{
		{"문제점": "p", "솔루션 (버전1)": "s"},
		{"대분류": "  ", "문제점": "p2", "솔루션 (버전1)": "s"},
	}
	entries := Normalize(rows)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	for _, e := range entries {
		if e.Category != DefaultCategory {
			t.Errorf("entry %d: category = %q, want %q", e.ID, e.Category, DefaultCategory)
		}
	}
}

func TestNormalize_Solution1FallbackColumn(t *testing.T) {
	rows := []RawRow{
		{"문제점": "p", "솔루션": "legacy"},
		{"문제점": "p2", "솔루션 (버전1)": "v1", "솔루션": "legacy"},
	}
	entries := Normalize(rows)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Solution1 != "legacy" {
		t.Errorf("fallback column not used: %+v", entries[0])
	}
	if entries[1].Solution1 != "v1" {
		t.Errorf("versioned column must win over fallback: %+v", entries[1])
	}
}

func TestNormalize_IDsKeepRawOrdinals(t *testing.T) {
	rows := []RawRow{
		{"문제점": "p0", "솔루션 (버전1)": "s"},
		{"문제점": ""}, // dropped
		{"문제점": "p2", "솔루션 (버전1)": "s"},
	}
	entries := Normalize(rows)
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].ID != 0 || entries[1].ID != 2 {
		t.Errorf("ids must keep gaps from dropped rows: got %d, %d", entries[0].ID, entries[1].ID)
	}
}

func TestNormalize_IgnoresExtraneousColumns(t *testing.T) {
	rows := []RawRow{
		{"문제점": "p", "솔루션 (버전1)": "s", "비고": "ignored", "작성자": "someone"},
	}
	if got := Normalize(rows); len(got) != 1 {
		t.Errorf("extraneous columns must be ignored, got %+v", got)
	}
}

func TestNormalize_IdempotentOnWellFormedInput(t *testing.T) {
	rows := []RawRow{
		{"대분류": "발표", "문제점": "p0", "솔루션 (버전1)": "s0"},
		{"대분류": "글쓰기", "문제점": "p1", "솔루션 (버전1)": "s1", "솔루션 (버전2)": "s2"},
	}
	first := Normalize(rows)

	// Re-feed the normalized entries through the same column mapping.
	refed := make([]RawRow, len(first))
	for i, e := range first {
		refed[i] = RawRow{
			"대분류":      e.Category,
			"문제점":      e.Problem,
			"솔루션 (버전1)": e.Solution1,
			"솔루션 (버전2)": e.Solution2,
		}
	}
	second := Normalize(refed)
	if !reflect.DeepEqual(first, second) {
		t.Errorf("normalization not idempotent:\nfirst:  %+v\nsecond: %+v", first, second)
	}
}

func TestNormalize_EmptyInput(t *testing.T) {
	if got := Normalize(nil); len(got) != 0 {
		t.Errorf("nil input yields empty output, got %+v", got)
	}
	if got := Normalize([]RawRow{}); len(got) != 0 {
		t.Errorf("empty input yields empty output, got %+v", got)
	}
}

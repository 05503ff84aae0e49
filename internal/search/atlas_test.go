package search

import (
	"testing"

	"rag-chat-platform/models"
)

func rec(id string) models.PassageRecord {
	return models.PassageRecord{ID: id, SourcePage: id + ".pdf#0", Content: "content " + id}
}

func titles(passages []models.RetrievedPassage) []string {
	out := make([]string, len(passages))
	for i, p := range passages {
		out[i] = p.Title
	}
	return out
}

func TestMergeRankedAlternates(t *testing.T) {
	vector := []models.PassageRecord{rec("v1"), rec("v2"), rec("v3")}
	text := []models.PassageRecord{rec("t1"), rec("t2"), rec("t3")}

	merged := mergeRanked(vector, text, 4)
	want := []string{"v1.pdf#0", "t1.pdf#0", "v2.pdf#0", "t2.pdf#0"}
	got := titles(merged)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("merged order = %v, want %v", got, want)
		}
	}
}

func TestMergeRankedTextNotStarved(t *testing.T) {
	vector := []models.PassageRecord{rec("v1"), rec("v2"), rec("v3"), rec("v4")}
	text := []models.PassageRecord{rec("t1"), rec("t2")}

	merged := mergeRanked(vector, text, 3)
	got := titles(merged)
	hasText := false
	for _, title := range got {
		if title == "t1.pdf#0" {
			hasText = true
		}
	}
	if !hasText {
		t.Errorf("top text hit missing from hybrid result: %v", got)
	}
}

func TestMergeRankedDedupes(t *testing.T) {
	shared := rec("shared")
	merged := mergeRanked(
		[]models.PassageRecord{shared, rec("v2")},
		[]models.PassageRecord{shared, rec("t2")},
		10)
	if len(merged) != 3 {
		t.Fatalf("merged %d passages, want 3 after dedupe: %v", len(merged), titles(merged))
	}
}

func TestMergeRankedTruncatesToTop(t *testing.T) {
	vector := []models.PassageRecord{rec("v1"), rec("v2"), rec("v3")}
	text := []models.PassageRecord{rec("t1"), rec("t2"), rec("t3")}
	if merged := mergeRanked(vector, text, 2); len(merged) != 2 {
		t.Errorf("merged %d passages, want 2", len(merged))
	}
}

func TestMergeRankedSingleArm(t *testing.T) {
	vectorOnly := mergeRanked([]models.PassageRecord{rec("v1"), rec("v2")}, nil, 3)
	if len(vectorOnly) != 2 {
		t.Errorf("vector-only merged %d passages", len(vectorOnly))
	}
	textOnly := mergeRanked(nil, []models.PassageRecord{rec("t1")}, 3)
	if len(textOnly) != 1 {
		t.Errorf("text-only merged %d passages", len(textOnly))
	}
}

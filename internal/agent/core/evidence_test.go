package core

import (
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	searchmodels "github.com/mohammad-safakhou/prospector/tools/web_search/models"
)

func TestNormalizeEvidenceDedupFirstWins(t *testing.T) {
	batchA := []searchmodels.Result{
		{URL: "https://example.com/a", Title: "First A", Snippet: "from batch one"},
		{URL: "https://example.com/b", Title: "B"},
	}
	batchB := []searchmodels.Result{
		{URL: "https://example.com/a", Title: "Second A", Snippet: "from batch two"},
		{URL: "https://example.com/c", Title: "C"},
	}

	docs, err := NormalizeEvidence(batchA, batchB)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(docs) != 3 {
		t.Fatalf("expected 3 unique documents, got %d", len(docs))
	}
	if docs[0].Title != "First A" || docs[0].Snippet != "from batch one" {
		t.Fatalf("dedup did not keep first occurrence: %+v", docs[0])
	}
}

func TestNormalizeEvidenceMapBatch(t *testing.T) {
	batch := map[string]interface{}{
		"results": []interface{}{
			map[string]interface{}{"url": "https://example.com/x", "title": "X", "content": "snippet text"},
		},
	}
	docs, err := NormalizeEvidence(batch)
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(docs) != 1 {
		t.Fatalf("expected 1 document, got %d", len(docs))
	}
	if docs[0].Snippet != "snippet text" {
		t.Fatalf("content fallback not applied: %+v", docs[0])
	}
}

func TestNormalizeEvidenceMalformed(t *testing.T) {
	var malformed *MalformedInputError

	if _, err := NormalizeEvidence(42); !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedInputError for int batch, got %v", err)
	}
	if _, err := NormalizeEvidence(map[string]interface{}{"items": []interface{}{}}); !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedInputError for mapping without results, got %v", err)
	}
	if _, err := NormalizeEvidence([]interface{}{"not a mapping"}); !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedInputError for non-mapping entry, got %v", err)
	}
}

func TestNormalizeEvidenceEmpty(t *testing.T) {
	docs, err := NormalizeEvidence()
	if err != nil {
		t.Fatalf("normalize failed: %v", err)
	}
	if len(docs) != 0 {
		t.Fatalf("expected no documents, got %d", len(docs))
	}

	blob := FormatEvidence(docs, 100, true)
	if !strings.HasPrefix(blob, "Sources:") {
		t.Fatalf("format of empty evidence should still be well-formed, got %q", blob)
	}
}

func TestFormatEvidenceTruncation(t *testing.T) {
	const max = 50
	long := strings.Repeat("x", 200)
	short := strings.Repeat("y", 10)

	docs := []EvidenceDocument{
		{URL: "https://example.com/long", Title: "Long", RawContent: long},
		{URL: "https://example.com/short", Title: "Short", RawContent: short},
	}
	blob := FormatEvidence(docs, max, true)

	if !strings.Contains(blob, strings.Repeat("x", max)+TruncationMarker) {
		t.Fatalf("long content should be cut at %d chars with marker", max)
	}
	if strings.Contains(blob, strings.Repeat("x", max+1)) {
		t.Fatalf("emitted more than %d chars of long content", max)
	}
	if !strings.Contains(blob, short) || strings.Contains(blob, short+TruncationMarker) {
		t.Fatalf("short content should be emitted unmodified with no marker")
	}
}

func TestFormatEvidenceTruncationRuneBoundary(t *testing.T) {
	// "é" is two bytes; an odd byte bound lands mid-rune and must back off
	long := strings.Repeat("é", 100)
	docs := []EvidenceDocument{{URL: "https://example.com/a", Title: "A", RawContent: long}}

	blob := FormatEvidence(docs, 51, true)
	if !utf8.ValidString(blob) {
		t.Fatalf("truncation produced invalid UTF-8")
	}
	if !strings.Contains(blob, strings.Repeat("é", 25)+TruncationMarker) {
		t.Fatalf("expected cut at the last whole rune before the bound")
	}
}

func TestFormatEvidenceMissingRawContent(t *testing.T) {
	docs := []EvidenceDocument{{URL: "https://example.com/a", Title: "A", Snippet: "only a snippet"}}
	blob := FormatEvidence(docs, 100, true)
	if !strings.Contains(blob, "only a snippet") {
		t.Fatalf("snippet missing from formatted evidence")
	}
}

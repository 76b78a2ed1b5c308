package core

import (
	"fmt"
	"strings"
	"unicode/utf8"

	searchmodels "github.com/mohammad-safakhou/prospector/tools/web_search/models"
)

// TruncationMarker is appended to raw content cut at the per-document bound.
const TruncationMarker = "... [truncated]"

// NormalizeEvidence flattens one or more raw search batches into a single
// deduplicated evidence list. A batch may be a []searchmodels.Result, a
// []EvidenceDocument, a map carrying a "results" list, or a slice of result
// maps (the shapes the search providers hand back before typing). Duplicate
// URLs keep the first-seen document; dedup scope is this call only.
func NormalizeEvidence(batches ...interface{}) ([]EvidenceDocument, error) {
	seen := make(map[string]struct{})
	out := []EvidenceDocument{}

	add := func(doc EvidenceDocument) {
		if doc.URL == "" {
			return
		}
		if _, ok := seen[doc.URL]; ok {
			return
		}
		seen[doc.URL] = struct{}{}
		out = append(out, doc)
	}

	for _, batch := range batches {
		switch b := batch.(type) {
		case nil:
			continue
		case []EvidenceDocument:
			for _, doc := range b {
				add(doc)
			}
		case []searchmodels.Result:
			for _, r := range b {
				add(EvidenceDocument{URL: r.URL, Title: r.Title, Snippet: r.Snippet, RawContent: r.RawContent, Query: r.Query})
			}
		case map[string]interface{}:
			items, ok := b["results"].([]interface{})
			if !ok {
				return nil, &MalformedInputError{Detail: "mapping batch has no results list"}
			}
			docs, err := docsFromMaps(items)
			if err != nil {
				return nil, err
			}
			for _, doc := range docs {
				add(doc)
			}
		case []interface{}:
			docs, err := docsFromMaps(b)
			if err != nil {
				return nil, err
			}
			for _, doc := range docs {
				add(doc)
			}
		case []map[string]interface{}:
			for _, item := range b {
				add(docFromMap(item))
			}
		default:
			return nil, &MalformedInputError{Detail: fmt.Sprintf("unsupported batch type %T", batch)}
		}
	}
	return out, nil
}

func docsFromMaps(items []interface{}) ([]EvidenceDocument, error) {
	docs := make([]EvidenceDocument, 0, len(items))
	for _, item := range items {
		m, ok := item.(map[string]interface{})
		if !ok {
			return nil, &MalformedInputError{Detail: fmt.Sprintf("result entry is %T, not a mapping", item)}
		}
		docs = append(docs, docFromMap(m))
	}
	return docs, nil
}

func docFromMap(m map[string]interface{}) EvidenceDocument {
	doc := EvidenceDocument{
		URL:        stringFromAny(m["url"]),
		Title:      stringFromAny(m["title"]),
		Snippet:    stringFromAny(m["snippet"]),
		RawContent: stringFromAny(m["raw_content"]),
		Query:      stringFromAny(m["query"]),
	}
	if doc.Snippet == "" {
		doc.Snippet = stringFromAny(m["content"])
	}
	return doc
}

// FormatEvidence renders documents into one contiguous text blob for model
// consumption. Raw content, when requested, is truncated to maxChars per
// document with a marker appended. Missing raw content degrades to the
// snippet; it never errors.
func FormatEvidence(docs []EvidenceDocument, maxChars int, includeRaw bool) string {
	var sb strings.Builder
	sb.WriteString("Sources:\n\n")
	for _, doc := range docs {
		title := doc.Title
		if title == "" {
			title = doc.URL
		}
		fmt.Fprintf(&sb, "Source %s:\n===\n", title)
		fmt.Fprintf(&sb, "URL: %s\n===\n", doc.URL)
		fmt.Fprintf(&sb, "Most relevant content from source: %s\n===\n", doc.Snippet)
		if includeRaw {
			raw := doc.RawContent
			if maxChars > 0 && len(raw) > maxChars {
				cut := maxChars
				// never split a multibyte rune
				for cut > 0 && !utf8.RuneStart(raw[cut]) {
					cut--
				}
				raw = raw[:cut] + TruncationMarker
			}
			fmt.Fprintf(&sb, "Full source content limited to %d chars: %s\n\n", maxChars, raw)
		}
	}
	return sb.String()
}

func stringFromAny(v interface{}) string {
	switch s := v.(type) {
	case string:
		return s
	case fmt.Stringer:
		return s.String()
	case nil:
		return ""
	default:
		return ""
	}
}

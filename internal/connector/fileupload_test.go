// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package connector

import (
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/northbound/cortex/internal/ids"
)

func TestFromUploadedText(t *testing.T) {
	doc := FromUploadedText("notes.txt", "Hello world.")

	if doc.SourceType != ids.SourcePdfUpload {
		t.Errorf("SourceType = %q, want pdf_upload", doc.SourceType)
	}
	if doc.Title != "notes.txt" {
		t.Errorf("Title = %q, want filename", doc.Title)
	}
	if doc.MimeType != "application/pdf" {
		t.Errorf("MimeType = %q, want application/pdf", doc.MimeType)
	}
	if _, err := uuid.Parse(doc.SourceID); err != nil {
		t.Errorf("SourceID = %q, want a fresh UUID: %v", doc.SourceID, err)
	}

	var meta map[string]string
	if err := json.Unmarshal(doc.Metadata, &meta); err != nil {
		t.Fatalf("Metadata is not valid JSON: %v", err)
	}
	if meta["filename"] != "notes.txt" {
		t.Errorf("metadata filename = %q", meta["filename"])
	}
}

func TestHashContentIsStable(t *testing.T) {
	a := HashContent([]byte("Hello world."))
	b := HashContent([]byte("Hello world."))
	if a != b {
		t.Errorf("identical bytes hashed differently: %s vs %s", a, b)
	}
	if len(a) != 64 {
		t.Errorf("hash length = %d, want 64 hex chars", len(a))
	}
	if HashContent([]byte("other")) == a {
		t.Error("different bytes produced the same hash")
	}
}

func TestSameContentDifferentFilenameSharesHash(t *testing.T) {
	a := FromUploadedText("a.txt", "identical body")
	b := FromUploadedText("b.txt", "identical body")
	if a.ContentHash != b.ContentHash {
		t.Error("content hash must depend only on content, not filename")
	}
	if a.SourceID == b.SourceID {
		t.Error("each upload must mint its own source_id")
	}
}

func TestRawDocumentJSONRoundTrip(t *testing.T) {
	doc := FromUploadedText("notes.txt", "Hello world.")
	url := "https://example.com/doc"
	doc.SourceURL = &url

	raw, err := json.Marshal(doc)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var back RawDocument
	if err := json.Unmarshal(raw, &back); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if back.SourceID != doc.SourceID || back.SourceType != doc.SourceType ||
		back.Title != doc.Title || back.Content != doc.Content ||
		back.ContentHash != doc.ContentHash || back.MimeType != doc.MimeType {
		t.Errorf("round trip changed fields:\n got %+v\nwant %+v", back, doc)
	}
	if back.SourceURL == nil || *back.SourceURL != url {
		t.Errorf("round trip lost source_url")
	}
	if !back.FetchedAt.Equal(doc.FetchedAt) {
		t.Errorf("round trip changed fetched_at")
	}
}

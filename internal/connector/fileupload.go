// Copyright (c) 2025 Northbound System
// Author: Nicholas Skitch
package connector

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/northbound/cortex/internal/ids"
)

// FromUploadedText synthesizes a RawDocument from pre-extracted upload
// text. PDF binary parsing is out of scope; text arrives already extracted.
func FromUploadedText(filename, text string) RawDocument {
	metadata, _ := json.Marshal(map[string]string{"filename": filename})
	return RawDocument{
		SourceID:    uuid.New().String(),
		SourceType:  ids.SourcePdfUpload,
		Title:       filename,
		Content:     text,
		MimeType:    "application/pdf",
		Metadata:    metadata,
		ContentHash: HashContent([]byte(text)),
		FetchedAt:   time.Now().UTC(),
	}
}

// HashContent returns the hex-encoded SHA-256 of content, the stable
// content-version identifier dedupe is keyed on.
func HashContent(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])
}

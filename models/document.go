// models/document.go
package models

// DocumentProcessingStatus is attached as metadata to a stored raw document
// blob and transitions only while that blob is being ingested.
type DocumentProcessingStatus string

const (
	StatusNotProcessed DocumentProcessingStatus = "NotProcessed"
	StatusSucceeded    DocumentProcessingStatus = "Succeeded"
	StatusFailed       DocumentProcessingStatus = "Failed"
)

// Blob metadata keys written by the ingestion pipeline.
const (
	MetadataKeyStatus        = "DocumentProcessingStatus"
	MetadataKeyEmbeddingType = "EmbeddingType"
)

// Page is one unit of extracted document text.
type Page struct {
	Number int
	Text   string
}

// PassageRecord is an index entry. ID is deterministic (source file + page)
// so re-ingesting an unchanged file overwrites instead of duplicating.
type PassageRecord struct {
	ID         string    `bson:"_id" json:"id"`
	Content    string    `bson:"content" json:"content"`
	Category   string    `bson:"category" json:"category"`
	SourcePage string    `bson:"sourcepage" json:"sourcepage"`
	SourceFile string    `bson:"sourcefile" json:"sourcefile"`
	Embedding  []float32 `bson:"embedding,omitempty" json:"embedding,omitempty"`
}

// DocumentInfo is the upload-facing view of a stored raw document.
type DocumentInfo struct {
	Name        string                   `json:"name"`
	ContentType string                   `json:"contentType"`
	Size        int64                    `json:"size"`
	Status      DocumentProcessingStatus `json:"status"`
}

package storage

import (
	"testing"

	"go.mongodb.org/mongo-driver/bson"
)

// List excludes the payload from its projection, so the reported size must
// come from the stored size field, not from the (absent) data bytes.
func TestBlobInfoSizeFromStoredField(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"name":         "guide.pdf",
		"content_type": "application/pdf",
		"size":         int64(4096),
		"metadata":     bson.M{"DocumentProcessingStatus": "Succeeded"},
	})
	if err != nil {
		t.Fatal(err)
	}

	var doc blobDocument
	if err := bson.Unmarshal(raw, &doc); err != nil {
		t.Fatal(err)
	}

	info := doc.info()
	if info.Size != 4096 {
		t.Errorf("size = %d, want 4096", info.Size)
	}
	if info.Name != "guide.pdf" {
		t.Errorf("name = %q", info.Name)
	}
	if info.Metadata["DocumentProcessingStatus"] != "Succeeded" {
		t.Errorf("metadata = %v", info.Metadata)
	}
}

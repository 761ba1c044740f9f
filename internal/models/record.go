package models

// Chunk is a bounded token window of an exchange, carrying the metadata every record inherits.
type Chunk struct {
	Text     string
	Metadata map[string]string
}

// Metadata keys shared by chunks and stored records.
const (
	MetaFullText  = "text"
	MetaSourceURL = "url"
	MetaCreatedAt = "created_at"
	MetaChunkText = "chunk"
)

// RecordMetadata is stored next to each vector. JSON names match the keys used in the index.
type RecordMetadata struct {
	ChunkText string `json:"chunk"`
	FullText  string `json:"text"`
	SourceURL string `json:"url"`
	CreatedAt string `json:"created_at"`
}

// MetadataFromChunk builds record metadata from a chunk's text and metadata map.
func MetadataFromChunk(c Chunk) RecordMetadata {
	return RecordMetadata{
		ChunkText: c.Text,
		FullText:  c.Metadata[MetaFullText],
		SourceURL: c.Metadata[MetaSourceURL],
		CreatedAt: c.Metadata[MetaCreatedAt],
	}
}

// Map flattens the metadata into string pairs for stores with flat metadata.
func (m RecordMetadata) Map() map[string]string {
	return map[string]string{
		MetaChunkText: m.ChunkText,
		MetaFullText:  m.FullText,
		MetaSourceURL: m.SourceURL,
		MetaCreatedAt: m.CreatedAt,
	}
}

// RecordMetadataFromMap is the inverse of Map. Unknown keys are ignored.
func RecordMetadataFromMap(m map[string]string) RecordMetadata {
	return RecordMetadata{
		ChunkText: m[MetaChunkText],
		FullText:  m[MetaFullText],
		SourceURL: m[MetaSourceURL],
		CreatedAt: m[MetaCreatedAt],
	}
}

// EmbeddingRecord is a vector ready to be upserted. ID is fresh per chunk.
type EmbeddingRecord struct {
	ID       string         `json:"id"`
	Vector   []float32      `json:"values"`
	Metadata RecordMetadata `json:"metadata"`
}

// Match is a ranked nearest-neighbour hit. Higher Score is more similar.
type Match struct {
	ID       string         `json:"id"`
	Score    float64        `json:"score"`
	Metadata RecordMetadata `json:"metadata"`
}

// AggregatedDocument is the representative full text for one source.
type AggregatedDocument struct {
	SourceURL string `json:"url"`
	Text      string `json:"text"`
}

// Aggregation is the deduplicated view of a match set.
// Sources and Documents share first-seen order.
type Aggregation struct {
	Sources   []string
	Documents []*AggregatedDocument
}

// Texts returns the document texts in order.
func (a *Aggregation) Texts() []string {
	out := make([]string, len(a.Documents))
	for i, d := range a.Documents {
		out[i] = d.Text
	}
	return out
}

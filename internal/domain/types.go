package domain

import "fmt"

// Document is a single source file loaded into the system.
type Document struct {
	ID      string
	Path    string
	Content string
}

// Chunk is a bounded span of a document's text, the atomic unit of
// indexing and retrieval.
type Chunk struct {
	ID         string
	DocumentID string
	Text       string
	Index      int
	Metadata   map[string]string
}

// Record is what the collection store persists per chunk.
type Record struct {
	ID       string
	Vector   []float32
	Text     string
	Metadata map[string]string
}

// SearchHit is a single similarity-search result. Score is comparable
// within one collection: higher is always better. For COSINE it is the
// cosine similarity, for DOT the dot product, for L2 the negated
// Euclidean distance.
type SearchHit struct {
	Record
	Score float32
}

// Source is one cited passage backing an answer.
type Source struct {
	Text     string            `json:"text"`
	Score    float32           `json:"score"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Answer is the result of one query pipeline invocation.
type Answer struct {
	Text    string   `json:"answer"`
	Sources []Source `json:"sources"`
}

// Metric is the distance metric a collection is created with. It is
// fixed for the lifetime of the collection.
type Metric string

const (
	MetricCosine Metric = "COSINE"
	MetricL2     Metric = "L2"
	MetricDot    Metric = "DOT"
)

// ParseMetric validates a metric name from configuration.
func ParseMetric(s string) (Metric, error) {
	switch Metric(s) {
	case MetricCosine, MetricL2, MetricDot:
		return Metric(s), nil
	case "":
		return MetricCosine, nil
	default:
		return "", fmt.Errorf("%w: unknown distance metric %q", ErrValidation, s)
	}
}

// CollectionStats describes a collection, whether it exists or not.
type CollectionStats struct {
	Name        string `json:"name"`
	Exists      bool   `json:"exists"`
	NumEntities int64  `json:"num_entities"`
	Dimension   int    `json:"dimension,omitempty"`
	Metric      Metric `json:"metric,omitempty"`
}

// SystemStats aggregates collection stats with the effective pipeline
// configuration, mirroring what the stats CLI command and /stats
// endpoint report.
type SystemStats struct {
	Collection     CollectionStats `json:"collection"`
	Model          string          `json:"model"`
	EmbeddingModel string          `json:"embedding_model"`
	ChunkSize      int             `json:"chunk_size"`
	ChunkOverlap   int             `json:"chunk_overlap"`
	TopK           int             `json:"top_k"`
}

package queue

const (
	TypeDocumentIngest = "document:ingest"
)

// IngestPayload carries an extracted document whose embedding and store
// write are deferred to the worker.
type IngestPayload struct {
	DocumentID string `json:"document_id"`
	Filename   string `json:"filename"`
	Content    string `json:"content"`
}

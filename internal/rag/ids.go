package rag

import (
	"encoding/hex"

	"github.com/google/uuid"
)

// IDGenerator assigns identities to stored documents and to search results
// the store returned without one.
type IDGenerator interface {
	DocumentID(filename string) string
	ResultID() string
}

// RandomIDs draws identities from google/uuid's crypto-backed source.
type RandomIDs struct{}

// DocumentID returns "<filename>-<8 lowercase hex digits>".
func (RandomIDs) DocumentID(filename string) string {
	u := uuid.New()
	return filename + "-" + hex.EncodeToString(u[:4])
}

func (RandomIDs) ResultID() string {
	return uuid.NewString()
}

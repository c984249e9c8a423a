package models

import "errors"

// Sentinel errors forming the pipeline error taxonomy. Callers match with
// errors.Is; the HTTP layer maps them to status codes.
var (
	// ErrNotFound: a report artifact or source directory is missing.
	ErrNotFound = errors.New("not found")
	// ErrConnectivity: an embedding or language-model service is unreachable
	// or returned an unusable response at the transport level.
	ErrConnectivity = errors.New("connectivity failure")
	// ErrFormat: model output could not be parsed as the expected structure.
	ErrFormat = errors.New("malformed model output")
	// ErrNoDocuments: the source directory exists but yields zero parsable documents.
	ErrNoDocuments = errors.New("no documents found")
	// ErrClaimBounds: the extracted claim count is outside the configured range.
	ErrClaimBounds = errors.New("claim count out of bounds")
)

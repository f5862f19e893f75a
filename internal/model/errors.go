package model

import "errors"

// Error kinds surfaced by the API. Handlers map them to HTTP statuses
// with errors.Is, so wrap them rather than returning them bare.
var (
	// ErrIngestion marks any batch-level ingestion failure: missing
	// columns, bad dates, bad numerics, unsupported or unreadable files.
	ErrIngestion = errors.New("ingestion failed")

	// ErrUnsafeSQL marks an LLM-generated statement that failed
	// validation. Bad input, not a system fault.
	ErrUnsafeSQL = errors.New("generated sql rejected")

	// ErrCollaborator marks a text-completion provider failure:
	// unreachable, non-2xx, or a malformed response shape.
	ErrCollaborator = errors.New("llm provider failure")

	// ErrInvalidDimension marks an unsupported breakdown dimension.
	ErrInvalidDimension = errors.New("unsupported breakdown dimension")

	// ErrValidation marks a request the caller can fix, like a
	// malformed filter date.
	ErrValidation = errors.New("invalid request")
)

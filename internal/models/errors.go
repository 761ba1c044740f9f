package models

import "errors"

var (
	// ErrConfigurationMissing indicates a required setting (e.g. the vector index name) is absent.
	ErrConfigurationMissing = errors.New("configuration missing")

	// ErrValidation indicates required request fields are missing or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrExternalService indicates the embedding, vector store or generation service failed.
	ErrExternalService = errors.New("external service failure")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")
)

package domain

import "errors"

var (
	// ErrAcquisition marks the structured acquisition path as unusable for
	// this run (missing credential, bad status, error payload). It is the
	// only error kind that triggers the browser fallback.
	ErrAcquisition = errors.New("structured acquisition failed")

	// ErrNoCredential means no API key is configured. Fatal for business
	// info fetches; for review fetches it is wrapped in ErrAcquisition.
	ErrNoCredential = errors.New("no API credential configured")

	// ErrNotFound is returned by read paths when a place is unknown.
	ErrNotFound = errors.New("not found")
)

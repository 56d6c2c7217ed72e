// Package common defines sentinel errors shared by the photo upload core, the
// gateway and the attempt ledger. Callers should use errors.Is to match these
// values; typed errors in other packages unwrap to them.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Selection rejected by the file validator.
	ErrValidation = errors.New("validation error")

	// A single file failed and aborted the whole upload batch.
	ErrUploadFailed = errors.New("upload failed")

	// The hidden URL field is not declared on the host form.
	ErrMissingHostField = errors.New("missing host field")

	// A submit arrived while a batch was still uploading.
	ErrUploadInProgress = errors.New("upload in progress")

	// The host form's upstream action answered with a non-2xx status.
	ErrUpstreamRejected = errors.New("upstream rejected submission")
)

package entity

import "errors"

// Domain errors
var (
	// Document and session errors
	ErrUnknownDocumentType   = errors.New("unknown document type")
	ErrQuestionNotFound      = errors.New("question not found")
	ErrEmptyAnswer           = errors.New("answer is empty")
	ErrInvalidView           = errors.New("invalid view for document type")
	ErrGenerationInProgress  = errors.New("generation is already in progress")
	ErrGenerationNotStarted  = errors.New("generation is not in progress")
	ErrGenerationNotComplete = errors.New("generation has not completed")
	ErrUploadNotRequired     = errors.New("document type does not take a source upload")

	// Profile errors
	ErrProfileNotFound = errors.New("profile not found")
	ErrUnknownTourPage = errors.New("unknown onboarding page")
	ErrTourNotStarted  = errors.New("onboarding tour not started")

	// File errors
	ErrInvalidFile       = errors.New("invalid file")
	ErrFileTooLarge      = errors.New("file too large")
	ErrTooManyFiles      = errors.New("too many files")
	ErrInvalidExtension  = errors.New("invalid file extension")
	ErrTotalSizeTooLarge = errors.New("total file size too large")

	// Validation errors
	ErrMissingField     = errors.New("required field is missing")
	ErrInvalidFormat    = errors.New("invalid format")
	ErrInvalidParameter = errors.New("invalid parameter")
)

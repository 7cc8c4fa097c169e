package util

import "errors"

var (
	ErrFileNotFound = errors.New("pdf file not found")
	ErrEmptyText    = errors.New("no text content found in the PDF file")

	ErrNoJSONFound         = errors.New("no valid JSON found in completion response")
	ErrMalformedCompletion = errors.New("completion output does not conform to the schema")
	ErrTransientService    = errors.New("completion service returned an error page")
)

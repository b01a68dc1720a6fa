package errors

import "errors"

// Domain errors
var (
	// Ingestion errors
	ErrUnsupportedFileType = errors.New("unsupported file type")
	ErrMalformedRecord     = errors.New("malformed record")

	// Conversion errors
	ErrConversion        = errors.New("conversion failed")
	ErrConversionUnknown = errors.New("conversion not supported")
	// ErrConversionSkipped marks payloads that are not the requested kind at
	// all, such as a TCP continuation segment. Callers skip them silently.
	ErrConversionSkipped = errors.New("payload is not the requested kind")

	// Message errors
	ErrDuplicateHeader = errors.New("duplicate header names differing only in case")
	ErrNotHTTP         = errors.New("payload is not an HTTP/1.x message")

	// Analyzer errors
	ErrUnknownAnalyzer = errors.New("unknown analyzer")
	ErrMissingConfig   = errors.New("missing required analyzer configuration")
	ErrInvalidConfig   = errors.New("invalid analyzer configuration")

	// Repository errors
	ErrDataFileNotFound      = errors.New("data file not found")
	ErrCorruptData           = errors.New("corrupt data file")
	ErrIncompatibleFormat    = errors.New("incompatible data file format")
	ErrSerializationFailed   = errors.New("serialization failed")
	ErrDeserializationFailed = errors.New("deserialization failed")

	// Reporting errors
	ErrUnknownReportFormat = errors.New("unknown report format")
	ErrDisplayUnsupported  = errors.New("report format cannot be displayed")
)

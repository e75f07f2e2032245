package errors

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 20000-20999: Archive intake & extraction errors
// 21000-21999: Compile pipeline errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	Timeout             ErrorCode = 10004
	ServiceUnavailable  ErrorCode = 10005

	// Validation errors (10300-10399)
	ValidationFailed   ErrorCode = 10300
	RequiredFieldEmpty ErrorCode = 10301

	// ========== Archive Intake & Extraction Errors (20000-20999) ==========

	// Intake (20000-20099)
	ArchiveNotProvided ErrorCode = 20000
	ArchiveNotFound    ErrorCode = 20001
	ArchiveTooLarge    ErrorCode = 20002

	// Extraction (20100-20199)
	BadArchive              ErrorCode = 20100
	EmptyArchive            ErrorCode = 20101
	UnsafeArchiveEntry      ErrorCode = 20102
	ArchivePermissionDenied ErrorCode = 20103

	// ========== Compile Pipeline Errors (21000-21999) ==========

	// Resolution (21000-21099)
	EntryFileNotFound ErrorCode = 21000

	// Invocation (21100-21199)
	CompilerStartFailed ErrorCode = 21100
	CompileTimeout      ErrorCode = 21101

	// Compilation (21200-21299)
	CompilationFailed ErrorCode = 21200
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	Timeout:             "Request timeout",
	ServiceUnavailable:  "Service temporarily unavailable",

	// Validation
	ValidationFailed:   "Validation failed",
	RequiredFieldEmpty: "Required field is empty",

	// Intake
	ArchiveNotProvided: "No archive was provided",
	ArchiveNotFound:    "Archive not found or invalid extension",
	ArchiveTooLarge:    "Archive exceeds the size limit",

	// Extraction
	BadArchive:              "Bad archive",
	EmptyArchive:            "Archive contains no files",
	UnsafeArchiveEntry:      "Archive entry escapes the extraction directory",
	ArchivePermissionDenied: "Permission denied while extracting archive",

	// Compile
	EntryFileNotFound:   "Entry file not found",
	CompilerStartFailed: "Could not start compiler",
	CompileTimeout:      "Compilation timed out",
	CompilationFailed:   "Compilation failed",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return 200
	case c == NotFound, c == ArchiveNotFound:
		return 404
	case c == InvalidParams, c == ArchiveNotProvided, c == ArchiveTooLarge:
		return 400
	case c >= 10300 && c < 10400: // Validation errors
		return 400
	case c >= 20100 && c < 20200: // Extraction errors
		return 422
	case c == EntryFileNotFound, c == CompilationFailed:
		return 422
	case c == CompileTimeout:
		return 504
	case c == ServiceUnavailable:
		return 503
	default:
		return 500
	}
}

package core

// # Error Codes Reference
//
// Errors shown to the operator carry a short code so a problem seen on the
// auction floor can be matched to the logs afterwards.
//
// # Validation (VAL001-VAL099)
//
//	VAL001 - Required field is empty            Patterns: "required field"
//	VAL002 - Unknown position                   Patterns: "invalid position"
//	VAL003 - Unknown gender                     Patterns: "invalid gender"
//	VAL004 - Budget must be a positive number   Patterns: "invalid budget"
//	VAL005 - Price must be a positive number    Patterns: "invalid price"
//	VAL006 - Malformed request                  Patterns: "invalid request body"
//	VAL007 - Malformed id                       Patterns: "invalid id"
//
// # Referential (REF001-REF099)
//
//	REF001 - Player not found                   Patterns: "player not found"
//	REF002 - Team not found                     Patterns: "team not found"
//
// # Ledger (LED001-LED099)
//
//	LED001 - Player is already sold             Patterns: "player already sold"
//	LED002 - Team still owns players            Patterns: "team has players"
//
// # Import (IMP001-IMP099)
//
//	IMP001 - No usable rows in the file         Patterns: "no valid player rows"
//	IMP002 - Unknown year policy                Patterns: "invalid year policy"
//	IMP003 - Import slots busy                  Patterns: "too many concurrent imports"
//
// # File (FILE001-FILE099)
//
//	FILE001 - File too large                    Patterns: "file too large"
//	FILE002 - Not a CSV file                    Patterns: "not a csv"
//	FILE003 - No file selected                  Patterns: "no file provided"
//	FILE004 - Empty file                        Patterns: "empty file"
//
// # Confirmation (CONF001)
//
//	CONF001 - Destructive action needs confirm  Patterns: "confirmation required"
//
// # Storage (STO001-STO099)
//
//	STO001 - Snapshot could not be saved        Patterns: "storage write failed"
//	STO002 - Snapshot could not be read         Patterns: "storage read failed"
//	STO003 - Stored snapshot is corrupt         Patterns: "corrupt snapshot"
//
// # Request (REQ001-REQ099), Rate limiting (RATE001)
//
//	REQ001 - Request cancelled                  Patterns: "context canceled"
//	REQ002 - Request timed out                  Patterns: "context deadline exceeded"
//	RATE001 - Too many requests                 Patterns: "rate limit"
//
// # Default (ERR000)
//
// Returned when nothing matches; check the logs for the technical error.
//
// Patterns are matched case-insensitively with strings.Contains and the
// first match wins, so specific patterns go before general ones.

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfirmationRequired is returned when a destructive operation is
// requested without explicit confirmation.
var ErrConfirmationRequired = errors.New("confirmation required")

// UserMessage provides operator-facing error information.
type UserMessage struct {
	Message string // What happened
	Action  string // What to do about it
	Code    string // Reference code
}

type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	// Validation
	{"required field", UserMessage{"Required field is empty", "Fill in every required field", "VAL001"}},
	{"invalid position", UserMessage{"Unknown position", "Choose GK, DEF, MID or ATT", "VAL002"}},
	{"invalid gender", UserMessage{"Unknown gender", "Choose male or female", "VAL003"}},
	{"invalid budget", UserMessage{"Budget must be a positive number", "Enter a budget greater than zero", "VAL004"}},
	{"invalid price", UserMessage{"Price must be a positive number", "Enter a sale price greater than zero", "VAL005"}},
	{"invalid request body", UserMessage{"The request could not be read", "Check the submitted values and try again", "VAL006"}},
	{"invalid id", UserMessage{"Malformed id", "Use the numeric id shown in the list", "VAL007"}},

	// Referential
	{"player not found", UserMessage{"Player not found", "Refresh the page; the player may have been removed", "REF001"}},
	{"team not found", UserMessage{"Team not found", "Refresh the page; the team may have been removed", "REF002"}},

	// Ledger
	{"player already sold", UserMessage{"Player is already sold", "Release the player before selling again", "LED001"}},
	{"team has players", UserMessage{"Cannot delete team with players", "Remove all players first", "LED002"}},

	// Import, before the generic file patterns
	{"no valid player rows", UserMessage{"No valid player data found in CSV", "Check the role and name columns of the export", "IMP001"}},
	{"invalid year policy", UserMessage{"Unknown year policy", "Use verbatim, batch or graduation", "IMP002"}},
	{"too many concurrent imports", UserMessage{"Another import is still running", "Wait for it to finish and try again", "IMP003"}},

	// File
	{"file too large", UserMessage{"File exceeds maximum size limit", "Export only the registration sheet", "FILE001"}},
	{"not a csv", UserMessage{"Please select a CSV file", "Save the sheet as .csv and upload again", "FILE002"}},
	{"no file provided", UserMessage{"No file was selected", "Please select a CSV file to upload", "FILE003"}},
	{"empty file", UserMessage{"The uploaded file is empty", "Please upload a CSV file with data rows", "FILE004"}},

	// Confirmation
	{"confirmation required", UserMessage{"This action needs confirmation", "Confirm to continue", "CONF001"}},

	// Storage
	{"storage write failed", UserMessage{"Changes could not be saved", "The last action was not applied; try again", "STO001"}},
	{"storage read failed", UserMessage{"Saved auction could not be loaded", "Check the storage settings", "STO002"}},
	{"corrupt snapshot", UserMessage{"Saved auction data is damaged", "Restore from an export or reset", "STO003"}},

	// Request lifecycle
	{"context canceled", UserMessage{"Request was cancelled", "Please try again", "REQ001"}},
	{"context deadline exceeded", UserMessage{"Request timed out", "Please try again", "REQ002"}},
	{"rate limit", UserMessage{"Too many requests", "Please wait a moment before trying again", "RATE001"}},
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or check the server logs",
	Code:    "ERR000",
}

// MapError converts an error to an operator-facing message. Unknown errors
// map to ERR000.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	errStr := strings.ToLower(err.Error())
	for _, ep := range errorPatterns {
		if strings.Contains(errStr, ep.pattern) {
			return ep.msg
		}
	}
	return defaultMessage
}

// FormatUserError renders "Message (Code: XXX). Action".
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific code rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

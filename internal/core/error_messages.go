// Package core orchestrates parsing, combining, and querying of uploaded
// data files.
//
// # Error Codes Reference
//
// This file defines user-friendly error messages with codes for support
// reference. When users encounter errors, they can quote the error code
// for faster diagnosis.
//
// # File Errors (FILE001-FILE099)
//
//	FILE001 - File too large: content exceeds the configured size ceiling
//	          Action: Split the file into smaller chunks
//	          Patterns: "file too large"
//
//	FILE002 - Invalid CSV: structurally unreadable delimited text
//	          Action: Check for unterminated quotes and re-export the file
//	          Patterns: "parse csv"
//
//	FILE003 - Invalid XML: malformed markup document
//	          Action: Validate the document and fix unbalanced tags
//	          Patterns: "parse xml"
//
//	FILE004 - No file: no content was supplied
//	          Action: Select at least one file to upload
//	          Patterns: "no csv content", "no file provided"
//
// # Import Errors (IMP001-IMP099)
//
//	IMP001 - Import not found: the referenced import id does not exist
//	         Action: Re-upload the files to create a new import
//	         Patterns: "import not found"
//
// # Database Errors (DB001-DB099)
//
//	DB001 - Connection problem: the database is unreachable
//	        Action: Please try again in a few moments
//	        Patterns: "connection refused", "connection reset"
//
//	DB002 - Timeout: the operation took too long
//	        Action: Try a smaller upload or try again later
//	        Patterns: "timeout", "context deadline exceeded"
//
// # Default Error (ERR000)
//
//	ERR000 - Unknown error: an unexpected error occurred
//	         Action: Please try again or contact support
//
// Patterns are matched case-insensitively with strings.Contains; the
// first matching pattern wins, so more specific patterns come first.
package core

import (
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

var errorPatterns = []errorPattern{
	{
		pattern: "file too large",
		msg: UserMessage{
			Message: "File exceeds the maximum size limit",
			Action:  "Split the file into smaller chunks",
			Code:    "FILE001",
		},
	},
	{
		pattern: "parse csv",
		msg: UserMessage{
			Message: "File is not a valid CSV",
			Action:  "Check for unterminated quotes and re-export the file",
			Code:    "FILE002",
		},
	},
	{
		pattern: "parse xml",
		msg: UserMessage{
			Message: "File is not a valid XML document",
			Action:  "Validate the document and fix unbalanced tags",
			Code:    "FILE003",
		},
	},
	{
		pattern: "no csv content",
		msg: UserMessage{
			Message: "No files were supplied",
			Action:  "Select at least one file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "no file provided",
		msg: UserMessage{
			Message: "No file was selected",
			Action:  "Please select a file to upload",
			Code:    "FILE004",
		},
	},
	{
		pattern: "import not found",
		msg: UserMessage{
			Message: "The requested import does not exist",
			Action:  "Re-upload the files to create a new import",
			Code:    "IMP001",
		},
	},
	{
		pattern: "connection refused",
		msg: UserMessage{
			Message: "Unable to connect to the database",
			Action:  "Please try again in a few moments",
			Code:    "DB001",
		},
	},
	{
		pattern: "connection reset",
		msg: UserMessage{
			Message: "Database connection was interrupted",
			Action:  "Please try again",
			Code:    "DB001",
		},
	},
	{
		pattern: "context deadline exceeded",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller upload or try again later",
			Code:    "DB002",
		},
	},
	{
		pattern: "timeout",
		msg: UserMessage{
			Message: "The operation timed out",
			Action:  "Try a smaller upload or try again later",
			Code:    "DB002",
		},
	},
}

// defaultMessage is returned when no pattern matches.
var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Please try again or contact support",
	Code:    "ERR000",
}

// MapError converts a technical error into a user-friendly message.
// The original error should still be logged server-side for debugging.
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

// FormatUserError creates a formatted error string for display.
// The format is: "Message (Code: XXX). Action"
func FormatUserError(err error) string {
	msg := MapError(err)
	if msg.Action != "" {
		return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
	}
	return fmt.Sprintf("%s (Code: %s)", msg.Message, msg.Code)
}

// Error Codes Reference
//
// This file defines user-friendly error messages with codes for support reference.
// When a run fails, the console shows the message, the suggested action and the
// code. The process exit status is derived from the same classification.
//
// # Run Errors
//
//	USE001 - Usage: wrong argument count or missing archive file
//	         Action: Run hoopsdb <archive> <store>
//	         Exit: 2
//
//	EXT001 - Extraction: archive is corrupt, unreadable or has unexpected contents
//	         Action: Check that the archive holds the five expected CSV files
//	         Exit: 3
//
//	TRF001 - Transform: a cleaning step rejected the data
//	         Action: Inspect the named table in the source archive
//	         Exit: 4
//
//	STO001 - Store initialization: store exists already or cannot be created
//	         Action: Choose a new store path or remove the old file
//	         Exit: 5
//
//	SCH001 - Schema mismatch: cleaned columns differ from the table definition
//	         Action: Fix the transform for the named table
//	         Exit: 6
//
//	CON001 - Constraint violation: duplicate key or dangling foreign key
//	         Action: Load into an empty store; tables before the failing one stay written
//	         Exit: 7
//
//	LOD001 - Load: a write to the store failed
//	         Action: Check disk space and permissions, then rerun into a new store
//	         Exit: 8
//
//	RUN001 - Interrupted: the run was cancelled (SIGINT/SIGTERM) in any stage
//	         Action: Rerun into a new store
//	         Exit: code of the stage's kind
//
// # Pattern Fallback
//
// Errors that carry no kind are matched case-insensitively with strings.Contains
// against a short pattern list. The first matching pattern wins.
//
//	ERR000 - Unknown error: An unexpected error occurred
//	         Action: Rerun with LOG_LEVEL=debug and check the log

package core

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// UserMessage provides user-friendly error information with actionable guidance.
type UserMessage struct {
	Message string // What happened (user-friendly)
	Action  string // What to do about it
	Code    string // Error code for support reference
}

var kindMessages = map[Kind]UserMessage{
	KindUsage: {
		Message: "Invalid command line",
		Action:  "Provide the archive path as the first argument and the store path as the second, e.g. hoopsdb path/to/archive.zip path/to/stats.db",
		Code:    "USE001",
	},
	KindExtraction: {
		Message: "The archive could not be extracted",
		Action:  "Check that the archive is a valid zip (or tar.gz) holding the five expected CSV files",
		Code:    "EXT001",
	},
	KindTransform: {
		Message: "Cleaning the raw data failed",
		Action:  "Inspect the named table in the source archive for malformed values",
		Code:    "TRF001",
	},
	KindStoreInit: {
		Message: "The store could not be created",
		Action:  "Choose a store path that does not exist yet in a writable directory",
		Code:    "STO001",
	},
	KindSchemaMismatch: {
		Message: "Cleaned data does not match the table definition",
		Action:  "Fix the transform so its columns match the store schema exactly",
		Code:    "SCH001",
	},
	KindConstraint: {
		Message: "A key constraint was violated while loading",
		Action:  "Load into a fresh store; tables written before the failing one remain in the store",
		Code:    "CON001",
	},
	KindLoad: {
		Message: "Writing to the store failed",
		Action:  "Check disk space and permissions, then rerun into a new store",
		Code:    "LOD001",
	},
}

// errorPattern defines a pattern to match and its corresponding user message.
type errorPattern struct {
	pattern string
	msg     UserMessage
}

// errorPatterns covers unclassified errors. Order matters: specific first.
var errorPatterns = []errorPattern{
	{
		pattern: "context canceled",
		msg:     interruptedMessage,
	},
	{
		pattern: "permission denied",
		msg: UserMessage{
			Message: "Access to a file was denied",
			Action:  "Check file permissions for the archive, scratch directory and store",
			Code:    "FILE001",
		},
	},
	{
		pattern: "no space left",
		msg: UserMessage{
			Message: "The disk is full",
			Action:  "Free disk space and rerun",
			Code:    "FILE002",
		},
	},
}

// interruptedMessage takes precedence over the kind of the stage that saw the
// cancellation.
var interruptedMessage = UserMessage{
	Message: "The run was interrupted",
	Action:  "Rerun into a new store; partially written stores should be discarded",
	Code:    "RUN001",
}

var defaultMessage = UserMessage{
	Message: "An unexpected error occurred",
	Action:  "Rerun with LOG_LEVEL=debug and check the log output",
	Code:    "ERR000",
}

// MapError converts err to a user-friendly message.
// Cancellation maps to RUN001 whatever stage reported it. Classified errors
// map by kind; others fall back to pattern matching.
func MapError(err error) UserMessage {
	if err == nil {
		return UserMessage{}
	}

	if errors.Is(err, context.Canceled) {
		return interruptedMessage
	}

	if msg, ok := kindMessages[KindOf(err)]; ok {
		return msg
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
	if msg.Message == "" {
		return ""
	}
	return fmt.Sprintf("%s (Code: %s). %s", msg.Message, msg.Code, msg.Action)
}

// IsUserFacing reports whether err maps to a specific message rather than ERR000.
func IsUserFacing(err error) bool {
	if err == nil {
		return false
	}
	return MapError(err).Code != defaultMessage.Code
}

// SPDX-License-Identifier: MIT

package envelope

import (
	"net/http"
	"strings"
)

// Symbolic error codes. HTTP status mapping lives in StatusFor.
const (
	// Input
	CodeValidationError  = "VALIDATION_ERROR"
	CodeMissingParameter = "MISSING_PARAMETER"
	CodeInvalidParameter = "INVALID_PARAMETER"

	// Auth
	CodeUnauthorized = "UNAUTHORIZED"
	CodeForbidden    = "FORBIDDEN"

	// Transport
	CodeEmptyResponse   = "EMPTY_RESPONSE"
	CodeInvalidResponse = "INVALID_RESPONSE"
	CodeNoRoute         = "NO_ROUTE"
	CodeUnknownTool     = "UNKNOWN_TOOL"
	CodeConnectionError = "CONNECTION_ERROR"
	CodeRequestTimeout  = "REQUEST_TIMEOUT"

	// Backpressure
	CodeRateLimited        = "RATE_LIMITED"
	CodeQueueFull          = "QUEUE_FULL"
	CodeServiceUnavailable = "SERVICE_UNAVAILABLE"

	// Resource
	CodeNotFound      = "NOT_FOUND"
	CodeGroupNotFound = "GROUP_NOT_FOUND"

	// Security
	CodeCommandInjection = "COMMAND_INJECTION"
	CodePathTraversal    = "PATH_TRAVERSAL"
)

// OperationFailed derives the default domain error code for an operation,
// e.g. "add_element" -> "ADD_ELEMENT_FAILED". Path-style operation names
// are flattened first ("video/start" -> "VIDEO_START_FAILED").
func OperationFailed(operation string) string {
	op := strings.ReplaceAll(operation, "/", "_")
	return strings.ToUpper(op) + "_FAILED"
}

// StatusFor maps a symbolic error code to its HTTP status.
func StatusFor(code string) int {
	switch code {
	case CodeValidationError, CodeMissingParameter, CodeInvalidParameter,
		CodeCommandInjection, CodePathTraversal:
		return http.StatusBadRequest
	case CodeUnauthorized:
		return http.StatusUnauthorized
	case CodeForbidden:
		return http.StatusForbidden
	case CodeNotFound, CodeNoRoute, CodeUnknownTool, CodeGroupNotFound:
		return http.StatusNotFound
	case CodeRequestTimeout:
		return http.StatusRequestTimeout
	case CodeRateLimited:
		return http.StatusTooManyRequests
	case CodeQueueFull, CodeServiceUnavailable, CodeConnectionError:
		return http.StatusServiceUnavailable
	case CodeEmptyResponse, CodeInvalidResponse:
		return http.StatusInternalServerError
	default:
		// Domain failures (<OP>_FAILED) and anything unrecognised.
		return http.StatusInternalServerError
	}
}

// Status returns the HTTP status for this envelope: 200 for success
// envelopes, StatusFor(code) otherwise.
func (e Envelope) Status() int {
	if e.Success() {
		return http.StatusOK
	}
	return StatusFor(e.Code())
}

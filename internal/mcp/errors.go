// Package mcp implements the Model Context Protocol (MCP) server for
// catalogmcp. It exposes the federated catalog search as MCP tools over
// stdio.
package mcp

import (
	"context"
	"errors"
	"fmt"

	cerrors "github.com/cataloghq/catalogmcp/internal/errors"
)

// Custom MCP error codes for catalogmcp.
const (
	// ErrCodeBackendUnavailable indicates no backend could answer.
	ErrCodeBackendUnavailable = -32001

	// ErrCodeTimeout indicates the request timed out.
	ErrCodeTimeout = -32003

	// Standard JSON-RPC error codes.
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternalError  = -32603
)

// MCPError represents an MCP protocol error with code and message.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface.
func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// MapError converts internal errors to MCP errors.
func MapError(err error) *MCPError {
	if err == nil {
		return nil
	}

	var ce *cerrors.CatalogError
	if errors.As(err, &ce) {
		return mapCatalogError(ce)
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request timed out.",
		}
	case errors.Is(err, context.Canceled):
		return &MCPError{
			Code:    ErrCodeTimeout,
			Message: "Request was canceled.",
		}
	default:
		return &MCPError{
			Code:    ErrCodeInternalError,
			Message: "Internal server error.",
		}
	}
}

// NewMethodNotFoundError creates an error for unknown methods/tools.
func NewMethodNotFoundError(name string) *MCPError {
	return &MCPError{
		Code:    ErrCodeMethodNotFound,
		Message: fmt.Sprintf("Tool '%s' not found.", name),
	}
}

// mapCatalogError converts a CatalogError to an MCPError.
func mapCatalogError(ce *cerrors.CatalogError) *MCPError {
	message := ce.Message
	if ce.Suggestion != "" {
		message = fmt.Sprintf("%s %s", ce.Message, ce.Suggestion)
	}

	switch ce.Code {
	case cerrors.ErrCodeBackendTimeout:
		return &MCPError{Code: ErrCodeTimeout, Message: message}
	case cerrors.ErrCodeBackendUnavailable, cerrors.ErrCodeBucketListFailed:
		return &MCPError{Code: ErrCodeBackendUnavailable, Message: message}
	}

	switch ce.Category {
	case cerrors.CategoryValidation:
		return &MCPError{Code: ErrCodeInvalidParams, Message: message}
	case cerrors.CategoryNetwork:
		return &MCPError{Code: ErrCodeBackendUnavailable, Message: message}
	default:
		return &MCPError{Code: ErrCodeInternalError, Message: message}
	}
}

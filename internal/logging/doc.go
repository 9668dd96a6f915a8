// Package logging provides file-based logging with rotation for catalogmcp.
// Structured JSON logs are written to ~/.catalogmcp/logs/ so that tool-call
// activity from the MCP server (which owns stdout for the protocol) remains
// inspectable after the fact.
package logging

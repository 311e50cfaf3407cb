// Package logging provides structured logging utilities for mailgate.
//
// This package centralizes logging patterns to ensure consistent, structured logging
// throughout the codebase using the standard library's slog package.
//
// # Key Features
//
//   - Structured logging with slog
//   - PII sanitization (email anonymization)
//   - Consistent attribute naming across the codebase
//   - Logger construction (JSON or text) and a printf-style adapter
//
// # Usage Patterns
//
// Create a logger with standard attributes:
//
//	logger := logging.WithOperation(slog.Default(), "approve")
//	logger.Info("pending message sent",
//	    logging.PendingID(id),
//	    logging.Status("success"))
//
// Sanitize sensitive data before logging:
//
//	logger.Info("recipient approved",
//	    logging.UserHash(recipient),
//	    logging.Domain(recipient))
//
// # Security Considerations
//
// This package is designed with security in mind:
//   - Email addresses are hashed to prevent PII leakage while allowing correlation
//   - Tokens are never logged directly
package logging

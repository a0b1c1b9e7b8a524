// Package logger provides structured logging capabilities for the hook runtime.
//
// This package offers a simple yet powerful logging interface that supports structured
// fields, multiple log levels, and contextual logging for better observability and debugging.
//
// # Logger Interface
//
// The Logger interface defines the contract for all logging implementations:
//
//	type Logger interface {
//	    Debug(msg string, fields ...interface{})
//	    Info(msg string, fields ...interface{})
//	    Warn(msg string, fields ...interface{})
//	    Error(msg string, fields ...interface{})
//	    SetLevel(level string)
//	    WithField(key string, value interface{}) Logger
//	    WithFields(fields map[string]interface{}) Logger
//	    With(fields ...Field) Logger
//	}
//
// # Log Levels
//
// Supported log levels in order of severity:
//   - DEBUG: Detailed information for debugging
//   - INFO: General informational messages
//   - WARN: Warning messages for potentially harmful situations
//   - ERROR: Error messages for serious problems
//
// # Structured Logging
//
// Log methods accept structured fields as a map, as Field values, or as
// alternating key/value arguments; each is printed as key=value:
//
//	logger.Info("Processing request", map[string]interface{}{
//	    "user_id": "123",
//	    "action": "create_order",
//	    "duration_ms": 145,
//	})
//
// # Contextual Logging
//
// Create child loggers with persistent fields:
//
//	requestLogger := logger.WithFields(map[string]interface{}{
//	    "request_id": "abc-123",
//	    "user_id": "456",
//	})
//	
//	// All logs from requestLogger will include request_id and user_id
//	requestLogger.Info("Starting processing", nil)
//	requestLogger.Info("Processing complete", map[string]interface{}{
//	    "items_processed": 10,
//	})
//
// # Simple Logger Implementation
//
// The package provides SimpleLogger:
//   - Text output through the standard library log package, which adds
//     its timestamp prefix
//   - Log level set with SetLevel (INFO by default)
//   - Fields rendered as key=value pairs after the message
//
// # Configuration
//
// GetLogLevel reads the LOG_LEVEL environment variable (debug, info, warn,
// error; INFO when unset). NewSimpleLogger does not read it; pass the
// value to SetLevel to apply it. There is no output-format setting.
//
// # Integration with the Hook Runtime
//
// The hooks facade takes a Logger through hooks.WithLogger and passes it
// to every subsystem that accepts one:
//
//	sys, err := hooks.New(configDir, hooks.WithLogger(logger.NewDefaultLogger()))
//
// # Best Practices
//
//   - Use appropriate log levels to control verbosity
//   - Include relevant context through structured fields
//   - Avoid logging sensitive information (passwords, tokens, PII)
//   - Use child loggers for request-scoped logging
//   - Keep log messages concise and actionable
package logger
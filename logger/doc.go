// Package logger provides structured logging for pipestudio using zerolog.
//
// Loggers are component-scoped: each package asks the registry for its own
// logger and attaches run, pipeline and namespace fields as it goes.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.Get("preview")
//	log.Info("preview submitted", logger.Fields(logger.FieldRunID, id))
package logger

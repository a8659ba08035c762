// Package logger provides a thin factory around log/slog plus helper
// attribute constructors used across the push subsystem.
//
// New builds a *slog.Logger from functional options: output format
// (text or json), minimum level, static attributes, and optional
// ContextExtractor callbacks that pull request-scoped values (such as a
// request ID) out of context on every log call.
//
//	log := logger.New(logger.WithProduction("pushkit"))
//	logger.SetAsDefault(log)
//
//	log.LogAttrs(ctx, slog.LevelWarn, "publish failed",
//	    logger.UserID(recipientID),
//	    logger.Error(err),
//	)
package logger

// Package logger provee un singleton de zap con encoders por entorno
// (consola en dev, JSON en prod) y helpers de campos tipados.
//
// Uso:
//
//	logger.Init(logger.Config{Env: "prod", Level: "info", ServiceName: "depotmaster"})
//	defer logger.Sync()
//	log := logger.Named("auth")
//	log.Info("user authenticated", logger.UserID(id))
package logger

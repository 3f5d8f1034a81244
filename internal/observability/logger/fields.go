package logger

import (
	"time"

	"go.uber.org/zap"
)

// Campos estándar HTTP.

func RequestID(v string) zap.Field { return zap.String("request_id", v) }
func Method(v string) zap.Field    { return zap.String("method", v) }
func Path(v string) zap.Field      { return zap.String("path", v) }
func Status(v int) zap.Field       { return zap.Int("status", v) }
func Bytes(v int) zap.Field        { return zap.Int("bytes", v) }
func ClientIP(v string) zap.Field  { return zap.String("client_ip", v) }

func DurationMs(v time.Duration) zap.Field {
	return zap.Int64("duration_ms", v.Milliseconds())
}

// Campos de negocio.

func UserID(v string) zap.Field  { return zap.String("user_id", v) }
func Login(v string) zap.Field   { return zap.String("login", v) }
func GroupID(v int64) zap.Field  { return zap.Int64("group_id", v) }
func DepotID(v int64) zap.Field  { return zap.Int64("depot_id", v) }
func Rule(v int) zap.Field       { return zap.Int("rule", v) }
func Op(v string) zap.Field      { return zap.String("op", v) }
func Err(err error) zap.Field    { return zap.Error(err) }
func String(k, v string) zap.Field { return zap.String(k, v) }
func Int(k string, v int) zap.Field { return zap.Int(k, v) }

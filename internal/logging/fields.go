package logging

import "go.uber.org/zap"

// Typed field constructors, kept terse so call sites read like prose:
// log.Info("order rested", logging.String("orderID", id), logging.Int64("quantity", qty)).

func String(key, val string) zap.Field { return zap.String(key, val) }

func Int64(key string, val int64) zap.Field { return zap.Int64(key, val) }

func Uint64(key string, val uint64) zap.Field { return zap.Uint64(key, val) }

func Error(err error) zap.Field { return zap.Error(err) }

func Duration(key string, nanos int64) zap.Field { return zap.Int64(key+"Nanos", nanos) }

func Stringer(key string, val interface{ String() string }) zap.Field {
	return zap.String(key, val.String())
}

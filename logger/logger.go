package logger

import (
	"net/http"

	"go.uber.org/zap"
)

// Log defaults to a no-op logger so packages can log before Setup is called (tests, tools).
var Log = zap.NewNop().Sugar()

// level is shared by every logger built through Setup so it can change at runtime.
var level = zap.NewAtomicLevelAt(zap.InfoLevel)

// Setup replaces Log. development switches to the console encoder with
// stack traces on warnings; lvl is a zap level name ("debug", "info", ...),
// empty keeps the current level.
func Setup(development bool, lvl string) error {
	if lvl != "" {
		parsed, err := zap.ParseAtomicLevel(lvl)
		if err != nil {
			return err
		}
		level.SetLevel(parsed.Level())
	}

	cfg := zap.NewProductionConfig()
	if development {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = level

	built, err := cfg.Build()
	if err != nil {
		return err
	}
	Log = built.Sugar()
	return nil
}

// Init 使用生产配置
func Init() {
	if err := Setup(false, ""); err != nil {
		panic("failed to initialize zap logger: " + err.Error())
	}
}

// SetLevel adjusts the level of every logger built by Setup.
func SetLevel(lvl string) error {
	parsed, err := zap.ParseAtomicLevel(lvl)
	if err != nil {
		return err
	}
	level.SetLevel(parsed.Level())
	return nil
}

// Level returns the current level name.
func Level() string {
	return level.String()
}

// LevelHandler reports the level on GET and changes it on PUT ({"level":"debug"}).
func LevelHandler() http.Handler {
	return level
}

// Sync flushes any buffered log entries.
func Sync() {
	_ = Log.Sync()
}

package logger

import (
	"log/slog"
	"path/filepath"
	"reflect"
	"testing"

	coreconfig "github.com/m3rciful/signupbot/core/config"
)

func TestResolveOptions(t *testing.T) {
	nilOpts := resolveOptions(nil)
	if nilOpts.level != slog.LevelInfo || nilOpts.format != formatJSON || nilOpts.profile != "prod" {
		t.Fatalf("nil config options = %+v", nilOpts)
	}

	cfg := &coreconfig.Config{
		Telegram: coreconfig.TelegramConfig{RunMode: coreconfig.RunModeLongpoll},
		Logging: coreconfig.LoggingConfig{
			Level:     " WARNING ",
			Profile:   "Dev",
			KeysOrder: "ts, level,,event",
			Dir:       "logs",
			BotFile:   "bot.log",
		},
	}
	opts := resolveOptions(cfg)
	if opts.level != slog.LevelWarn {
		t.Fatalf("level = %v, want warn", opts.level)
	}
	if opts.format != formatKV {
		t.Fatalf("dev profile should default to kv, got %q", opts.format)
	}
	if want := []string{"ts", "level", "event"}; !reflect.DeepEqual(opts.keyOrder, want) {
		t.Fatalf("key order = %v, want %v", opts.keyOrder, want)
	}
	if opts.filePath != filepath.Join("logs", "bot.log") || opts.mode != coreconfig.RunModeLongpoll {
		t.Fatalf("options = %+v", opts)
	}

	cfg.Logging.Format = "json"
	if got := resolveOptions(cfg).format; got != formatJSON {
		t.Fatalf("explicit json format ignored, got %q", got)
	}
}

func TestOpenOutputsCreatesDir(t *testing.T) {
	writers, closers := openOutputs(filepath.Join(t.TempDir(), "missing", "deeper", "bot.log"))
	for _, c := range closers {
		_ = c.Close()
	}
	if len(writers) != 2 || len(closers) != 1 {
		t.Fatalf("writers=%d closers=%d, want stdout and file", len(writers), len(closers))
	}

	writers, closers = openOutputs("")
	if len(writers) != 1 || closers != nil {
		t.Fatalf("stdout only expected, got writers=%d closers=%v", len(writers), closers)
	}
}

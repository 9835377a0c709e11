package logx

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var Logger = zap.NewNop()

// Options controls how the global logger is built
type Options struct {
	// Verbose switches to zap's development config at debug level
	Verbose bool
	// Quiet suppresses the styled terminal echo, for serve and watch modes
	Quiet bool
}

func InitLogger() {
	Init(Options{})
}

func InitLoggerWithLevel(verbose bool) {
	Init(Options{Verbose: verbose})
}

func Init(opts Options) {
	var err error

	if opts.Verbose {
		Logger, err = zap.NewDevelopment()
	} else {
		// JSON to stderr, warnings and up
		config := zap.NewProductionConfig()
		config.Level = zap.NewAtomicLevelAt(zapcore.WarnLevel)
		Logger, err = config.Build()
	}

	if err != nil {
		panic("failed to initialize logger: " + err.Error())
	}

	InitStyledLogger(opts.Quiet)
}

// Sync flushes buffered entries; call before exit
func Sync() {
	_ = Logger.Sync()
}

func Column(name string) zap.Field { return zap.String("column", name) }

func Path(p string) zap.Field { return zap.String("path", p) }

func Rows(n int) zap.Field { return zap.Int("rows", n) }

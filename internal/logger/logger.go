package logger

import (
	"io"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New creates the structured logger used by the gateway
func New(env string) (*zap.Logger, error) {
	// Always log to stdout for container compatibility
	return build(env, []string{"stdout"})
}

// NewCLI creates a logger that keeps stdout free for command output
func NewCLI(env string) (*zap.Logger, error) {
	return build(env, []string{"stderr"})
}

// NewWithWriter creates a logger writing to w with the encoding chosen for env
func NewWithWriter(env string, w io.Writer) *zap.Logger {
	config := configFor(env)

	var encoder zapcore.Encoder
	if config.Encoding == "json" {
		encoder = zapcore.NewJSONEncoder(config.EncoderConfig)
	} else {
		encoder = zapcore.NewConsoleEncoder(config.EncoderConfig)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(w), config.Level)
	return zap.New(core, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel))
}

func build(env string, outputs []string) (*zap.Logger, error) {
	config := configFor(env)
	config.OutputPaths = outputs
	config.ErrorOutputPaths = []string{"stderr"}

	return config.Build(
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
}

func configFor(env string) zap.Config {
	if env == "production" {
		config := zap.NewProductionConfig()
		config.Encoding = "json"
		return config
	}

	config := zap.NewDevelopmentConfig()
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	return config
}

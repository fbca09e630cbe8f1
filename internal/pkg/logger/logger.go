package logger

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Logger define a interface para logging estruturado.
// A aplicação (Handler, Service, Repository) deve depender apenas desta interface.
type Logger interface {
	Debug(msg string, fields map[string]interface{})
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, err error)
	Fatal(msg string, err error)
}

// ZerologLogger implementa Logger sobre o zerolog com saída JSON.
type ZerologLogger struct {
	logger zerolog.Logger
	exit   func(code int)
}

// NewLogger cria o logger da aplicação. Em desenvolvimento a saída é legível (console),
// nos demais ambientes é JSON em stdout.
func NewLogger(level string, development bool) Logger {
	var out io.Writer = os.Stdout
	if development {
		out = zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339}
	}
	return New(level, out)
}

// New cria um logger que escreve no writer informado (útil em testes).
func New(level string, output io.Writer) *ZerologLogger {
	if output == nil {
		output = os.Stdout
	}
	zerolog.TimeFieldFormat = time.RFC3339

	zl := zerolog.New(output).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Logger()

	return &ZerologLogger{logger: zl, exit: os.Exit}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zerolog.DebugLevel
	case "info":
		return zerolog.InfoLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	case "fatal":
		return zerolog.FatalLevel
	default:
		return zerolog.InfoLevel
	}
}

func (l *ZerologLogger) Debug(msg string, fields map[string]interface{}) {
	l.logger.Debug().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Info(msg string, fields map[string]interface{}) {
	l.logger.Info().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Warn(msg string, fields map[string]interface{}) {
	l.logger.Warn().Fields(fields).Msg(msg)
}

func (l *ZerologLogger) Error(msg string, err error) {
	l.logger.Error().Err(err).Msg(msg)
}

// Fatal registra o erro e encerra o processo.
// Usa WithLevel para que o encerramento fique a cargo de l.exit.
func (l *ZerologLogger) Fatal(msg string, err error) {
	l.logger.WithLevel(zerolog.FatalLevel).Err(err).Msg(msg)
	l.exit(1)
}

// nopLogger descarta tudo.
type nopLogger struct{}

// NewNop retorna um Logger silencioso.
func NewNop() Logger { return nopLogger{} }

func (nopLogger) Debug(string, map[string]interface{}) {}
func (nopLogger) Info(string, map[string]interface{})  {}
func (nopLogger) Warn(string, map[string]interface{})  {}
func (nopLogger) Error(string, error)                  {}
func (nopLogger) Fatal(string, error)                  {}

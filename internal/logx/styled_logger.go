package logx

import (
	"go.uber.org/zap"

	"github.com/pixperk/spssprep/internal/ui"
)

// StyledLogger writes every entry to zap and echoes it to the terminal
// with lipgloss styling unless quiet.
type StyledLogger struct {
	logger *zap.Logger
	quiet  bool
}

func NewStyledLogger(quiet bool) *StyledLogger {
	return &StyledLogger{
		logger: Logger,
		quiet:  quiet,
	}
}

func (s *StyledLogger) Info(msg string, fields ...zap.Field) {
	s.logger.Info(msg, fields...)
	if !s.quiet {
		ui.PrintInfo(msg)
	}
}

func (s *StyledLogger) Success(msg string, fields ...zap.Field) {
	s.logger.Info(msg, fields...)
	if !s.quiet {
		ui.PrintSuccess(msg)
	}
}

func (s *StyledLogger) Error(msg string, fields ...zap.Field) {
	s.logger.Error(msg, fields...)
	if !s.quiet {
		ui.PrintError(msg)
	}
}

func (s *StyledLogger) Warn(msg string, fields ...zap.Field) {
	s.logger.Warn(msg, fields...)
	if !s.quiet {
		ui.PrintWarning(msg)
	}
}

// Fatal logs at fatal level, which exits the process
func (s *StyledLogger) Fatal(msg string, fields ...zap.Field) {
	if !s.quiet {
		ui.PrintError(msg)
	}
	s.logger.Fatal(msg, fields...)
}

// Debug is never styled
func (s *StyledLogger) Debug(msg string, fields ...zap.Field) {
	s.logger.Debug(msg, fields...)
}

func (s *StyledLogger) Highlight(msg string, fields ...zap.Field) {
	s.logger.Info(msg, fields...)
	if !s.quiet {
		ui.PrintHighlight(msg)
	}
}

func (s *StyledLogger) With(fields ...zap.Field) *StyledLogger {
	return &StyledLogger{
		logger: s.logger.With(fields...),
		quiet:  s.quiet,
	}
}

func (s *StyledLogger) GetZapLogger() *zap.Logger {
	return s.logger
}

var StyledLog = NewStyledLogger(true)

func InitStyledLogger(quiet bool) {
	StyledLog = NewStyledLogger(quiet)
}

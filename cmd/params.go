package cmd

import (
	"io"
	"log"
	"os"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// startupParams is what every command needs before doing real work: where
// to write results and where to log.
type startupParams struct {
	out       *log.Logger // Results for the user
	trace     *log.Logger // Nil unless --trace was given
	traceFile string
	logger    *zap.Logger

	closers []io.Closer
}

// newStartupParams binds the command's flags and builds its outputs
func newStartupParams(cmd *cobra.Command) (*startupParams, error) {
	if err := bindFlags(cmd); err != nil {
		return nil, err
	}

	level, err := getLogLevel()
	if err != nil {
		return nil, err
	}

	sp := &startupParams{
		out:       log.New(cmd.OutOrStdout(), "", 0),
		traceFile: viper.GetString(traceFlag),
		logger:    newDevLogger(level),
	}

	if len(sp.traceFile) > 0 {
		f, err := os.Create(sp.traceFile)
		if err != nil {
			return nil, errors.Wrapf(err, "Could not create trace file %s", sp.traceFile)
		}
		sp.closers = append(sp.closers, f)
		sp.trace = log.New(f, "", 0)
	}

	return sp, nil
}

// target is the trace file when there is one, otherwise out
func (sp *startupParams) target() *log.Logger {
	if sp.trace != nil {
		return sp.trace
	}
	return sp.out
}

// Close flushes the logger and closes any files
func (sp *startupParams) Close() error {
	_ = sp.logger.Sync()

	var first error
	for _, c := range sp.closers {
		if err := c.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

func getLogLevel() (zapcore.Level, error) {
	if viper.GetBool(verboseFlag) {
		return zapcore.DebugLevel, nil
	}

	var ll zapcore.Level
	if err := ll.Set(viper.GetString(logLevelFlag)); err != nil {
		return ll, errors.Wrapf(err, "bad --%s", logLevelFlag)
	}
	return ll, nil
}

// newDevLogger creates a console logger at the given level writing to
// stderr, so results on stdout stay clean.
func newDevLogger(logLevel zapcore.Level) *zap.Logger {
	config := zap.NewDevelopmentConfig()
	config.DisableCaller = true
	config.DisableStacktrace = true
	config.Level.SetLevel(logLevel)

	logger, err := config.Build()
	if err != nil {
		return zap.NewNop()
	}
	return logger
}

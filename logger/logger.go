package logger

import (
	"os"
	"path/filepath"
	"time"

	rotatelogs "github.com/lestrrat-go/file-rotatelogs"
	"github.com/pkg/errors"
	"github.com/rifflock/lfshook"
	"github.com/sirupsen/logrus"

	"github.com/quartzproof/rigprep/common"
)

// Log is the global logger instance of RigLog.
var Log *RigLog

// RigLog wraps logrus.Logger for application-specific logging.
type RigLog struct {
	*logrus.Logger
}

// ForRun returns an entry carrying the run identifier. Phase and step
// fields are chained onto this entry by the phase runner.
func (l *RigLog) ForRun(runID string) *logrus.Entry {
	return l.WithField(common.LogFieldRunID, runID)
}

func init() {
	// A console-only logger at info level so failures before flag parsing
	// are still visible. InitGlobalLogger replaces it.
	l := logrus.New()
	l.SetOutput(os.Stdout)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(consoleFormatter(false))
	Log = &RigLog{Logger: l}
}

// InitGlobalLogger initializes the global Log variable. Entries always go
// to stdout; when outputDir is non-empty they are additionally written to
// daily-rotated files underneath it, kept for seven days. verbose lowers
// the level to debug regardless of defaultLevel.
func InitGlobalLogger(outputDir string, verbose bool, defaultLevel logrus.Level) error {
	logger := logrus.New()

	currentLogLevel := defaultLevel
	if verbose {
		currentLogLevel = logrus.DebugLevel
	}
	logger.SetLevel(currentLogLevel)
	logger.SetReportCaller(verbose)

	logger.SetOutput(os.Stdout)
	logger.SetFormatter(consoleFormatter(verbose))

	if outputDir != "" {
		if err := os.MkdirAll(outputDir, common.FileMode0755); err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", outputDir)
		}

		baseLogPath := filepath.Join(outputDir, common.AppName+".log")
		writer, err := rotatelogs.New(
			baseLogPath+".%Y%m%d",
			rotatelogs.WithLinkName(baseLogPath),
			rotatelogs.WithMaxAge(7*24*time.Hour),
			rotatelogs.WithRotationTime(24*time.Hour),
		)
		if err != nil {
			return errors.Wrapf(err, "failed to configure log rotation under %s", outputDir)
		}

		fileFmt := fileFormatter()
		logger.AddHook(lfshook.NewHook(
			lfshook.WriterMap{
				logrus.TraceLevel: writer,
				logrus.DebugLevel: writer,
				logrus.InfoLevel:  writer,
				logrus.WarnLevel:  writer,
				logrus.ErrorLevel: writer,
				logrus.FatalLevel: writer,
				logrus.PanicLevel: writer,
			},
			fileFmt,
		))
	}

	Log = &RigLog{Logger: logger}
	return nil
}

// consoleFormatter is the compact operator-facing format. Level names are
// hidden for routine lines unless verbose is set.
func consoleFormatter(verbose bool) *Formatter {
	displayMode := ShowAboveWarn
	if verbose {
		displayMode = ShowAll
	}
	return &Formatter{
		TimestampFormat:        "15:04:05",
		NoColors:               false,
		DisplayLevelName:       displayMode,
		FieldsDisplayWithOrder: fieldOrder(),
		DisableCaller:          true,
	}
}

// fileFormatter is the audit-trail format: full timestamps, no colors,
// caller included when the logger reports it.
func fileFormatter() *Formatter {
	return &Formatter{
		TimestampFormat:        "2006/01/02 15:04:05.000 MST",
		NoColors:               true,
		DisplayLevelName:       ShowAll,
		FieldsDisplayWithOrder: fieldOrder(),
		DisableCaller:          false,
	}
}

func fieldOrder() []string {
	return []string{
		common.LogFieldRunID,
		common.LogFieldPhase,
		common.LogFieldStepName,
		common.LogFieldStepIndex,
		common.LogFieldCheckName,
		common.LogFieldUser,
	}
}

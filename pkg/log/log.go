// package log provides a simple logger with leveled log messages.
//
//   - DebugLevel (highest verbosity)
//   - InfoLevel
//   - WarningLevel
//   - ErrorLevel
//   - FatalLevel (lowest verbosity)
//
// Output goes to stderr unless redirected with SetOutput.
package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"sync/atomic"
)

type level int32

const (
	DebugLevel   level = iota // DebugLevel logs all messages
	InfoLevel                 // InfoLevel logs info messages and and above
	WarningLevel              // WarningLevel logs warning messages and above
	ErrorLevel                // ErrorLevel logs error messages and above
	FatalLevel                // FatalLevel only logs fatal messages
)

const (
	tagDebug   = "DEBU"
	tagInfo    = "INFO"
	tagWarning = "WARN"
	tagError   = "ERRO"
	tagFatal   = "FATA"
)

var (
	currentLevel = int32(InfoLevel)
	logger       = log.New(os.Stderr, "", log.LstdFlags)
)

// SetLevel sets the logging level.  Available options: DebugLevel, InfoLevel,
// WarningLevel, ErrorLevel, FatalLevel.
func SetLevel(lv level) {
	atomic.StoreInt32(&currentLevel, int32(lv))
}

func SetLevelFromString(levelName string) error {
	switch levelName {
	case "debug":
		SetLevel(DebugLevel)
	case "info":
		SetLevel(InfoLevel)
	case "warning":
		SetLevel(WarningLevel)
	case "error":
		SetLevel(ErrorLevel)
	case "fatal":
		SetLevel(FatalLevel)
	default:
		return fmt.Errorf("invalid logging level %s", levelName)
	}
	return nil
}

func SetOutput(w io.Writer) {
	logger.SetOutput(w)
}

// SetDate enables or disables the date and time prefix.
func SetDate(enable bool) {
	if enable {
		logger.SetFlags(log.LstdFlags)
	} else {
		logger.SetFlags(0)
	}
}

func isEnabled(lv level) bool {
	return level(atomic.LoadInt32(&currentLevel)) <= lv
}

func Debug(format string, v ...interface{}) {
	if isEnabled(DebugLevel) {
		logger.Printf("["+tagDebug+"] "+format, v...)
	}
}

func Info(format string, v ...interface{}) {
	if isEnabled(InfoLevel) {
		logger.Printf("["+tagInfo+"] "+format, v...)
	}
}

func Warning(format string, v ...interface{}) {
	if isEnabled(WarningLevel) {
		logger.Printf("["+tagWarning+"] "+format, v...)
	}
}

func Error(format string, v ...interface{}) {
	if isEnabled(ErrorLevel) {
		logger.Printf("["+tagError+"] "+format, v...)
	}
}

func Fatal(format string, v ...interface{}) {
	logger.Fatalf("["+tagFatal+"] "+format, v...)
}

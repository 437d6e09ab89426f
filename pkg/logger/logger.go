package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/fitness360/notification-svc/pkg/logger/types"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

const timeLayout = "2006-01-02 15:04:05"

var (
	Log     *types.Logger
	logHook atomic.Value // types.LogHook
)

// Config represents configuration options for logger initialization
type Config struct {
	Debug        bool           // Enable debug logging
	TimeLocation *time.Location // Zone used for timestamps (default: UTC)
	LogToFile    bool           // Also write JSON logs to a file
	LogsDir      string         // Directory for log files, relative to the working directory
}

// SetLogHook sets a hook function that will be called for each log entry
func SetLogHook(hook types.LogHook) {
	logHook.Store(hook)
	if Log != nil {
		Log.Debug("Log hook set")
	}
}

// Init builds the root "main" logger: colored console output plus an optional JSON file.
func Init(config Config) error {
	l := types.Logger{Name: "main"}

	logsPath, err := resolveLogsPath(config.LogsDir)
	if err != nil {
		return err
	}
	l.LogsPath = logsPath

	location := config.TimeLocation
	if location == nil {
		location = time.UTC
	}
	encoderConfig := zapcore.EncoderConfig{
		MessageKey:     "message",
		LevelKey:       "level",
		TimeKey:        "timestamp",
		NameKey:        "logger",
		CallerKey:      "caller",
		EncodeTime:     timeEncoder(location),
		EncodeCaller:   zapcore.ShortCallerEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
	}

	level := zapcore.InfoLevel
	if config.Debug {
		level = zapcore.DebugLevel
	}

	consoleConfig := encoderConfig
	consoleConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(consoleConfig), zapcore.Lock(os.Stdout), level),
	}

	if config.LogToFile {
		fileCore, errFile := newFileCore(encoderConfig, logsPath, level)
		if errFile != nil {
			return errFile
		}
		cores = append(cores, fileCore)
	}

	log := zap.New(zapcore.NewTee(cores...), zap.AddCaller(), zap.Hooks(dispatchHook))
	l.SugaredLogger = log.Named(l.Name).Sugar()
	Log = &l

	return nil
}

// Named returns a new logger with the specified name ("http", "dispatcher", etc.)
func Named(name string) (*types.Logger, error) {
	if Log == nil {
		return nil, fmt.Errorf("logger is not initialized")
	}
	return &types.Logger{
		SugaredLogger: Log.SugaredLogger.Named(name),
		LogsPath:      Log.LogsPath,
		Name:          name,
	}, nil
}

// Sync flushes buffered entries of the root logger.
func Sync() {
	if Log != nil {
		_ = Log.Sync()
	}
}

func dispatchHook(entry zapcore.Entry) error {
	hook, _ := logHook.Load().(types.LogHook)
	if hook == nil {
		return nil
	}
	hook(types.Log{
		Timestamp:  entry.Time,
		Caller:     entry.Caller.TrimmedPath(),
		LoggerName: entry.LoggerName,
		Level:      entry.Level,
		Message:    entry.Message,
	})
	return nil
}

func resolveLogsPath(dir string) (string, error) {
	wd, err := os.Getwd()
	if err != nil {
		return "", err
	}
	if dir == "" {
		return wd, nil
	}
	if filepath.IsAbs(dir) {
		return dir, nil
	}
	return filepath.Join(wd, dir), nil
}

func newFileCore(encoderConfig zapcore.EncoderConfig, logsPath string, level zapcore.Level) (zapcore.Core, error) {
	if err := os.MkdirAll(logsPath, os.ModePerm); err != nil {
		return nil, err
	}

	name := filepath.Join(logsPath, fmt.Sprintf("notifier-%s.log", time.Now().Format("2006-01-02")))
	file, err := os.OpenFile(name, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, err
	}

	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	return zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), zapcore.AddSync(file), level), nil
}

func timeEncoder(location *time.Location) zapcore.TimeEncoder {
	return func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
		enc.AppendString(t.In(location).Format(timeLayout))
	}
}

package logger

import (
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/spf13/viper"

	"mevwatcher/config"
)

var (
	DetectLogger, ChainLogger, GlobalLogger *slog.Logger
	consoleEnabled                          = true

	globalRW, detectRW, chainRW *rotatingWriter
)

// rotationPolicy bounds the disk use of one log.
type rotationPolicy struct {
	maxSize    int64 // bytes
	maxBackups int
}

// currentPolicy reads log.maxSizeMB and log.maxBackups, falling back to the
// config defaults. Before the config is loaded only the defaults apply.
func currentPolicy() rotationPolicy {
	p := rotationPolicy{
		maxSize:    config.LOG_MAX_SIZE_MB << 20,
		maxBackups: config.LOG_MAX_BACKUPS,
	}
	if mb := viper.GetInt64("log.maxSizeMB"); mb > 0 {
		p.maxSize = mb << 20
	}
	if viper.IsSet("log.maxBackups") {
		p.maxBackups = max(viper.GetInt("log.maxBackups"), 0)
	}
	return p
}

// Thread-safe writer that rotates files when they exceed max size. The live
// file is <prefix>.log, older ones <prefix>.1.log (newest) to <prefix>.N.log.
type rotatingWriter struct {
	mu     sync.Mutex
	file   *os.File
	dir    string
	prefix string // e.g. "mevwatcher_20250925101122_global"
	ext    string // ".log"
	size   int64
	policy rotationPolicy
}

func newRotatingWriter(dir, prefix string, policy rotationPolicy) (*rotatingWriter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	rw := &rotatingWriter{
		dir:    dir,
		prefix: prefix,
		ext:    ".log",
		policy: policy,
	}
	if err := rw.openNew(); err != nil {
		return nil, err
	}
	return rw, nil
}

func (w *rotatingWriter) currentName() string {
	return filepath.Join(w.dir, w.prefix+w.ext)
}

func (w *rotatingWriter) backupName(n int) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s.%d%s", w.prefix, n, w.ext))
}

func (w *rotatingWriter) openNew() error {
	f, err := os.OpenFile(w.currentName(), os.O_CREATE|os.O_TRUNC|os.O_RDWR, 0o666)
	if err != nil {
		return err
	}
	w.file = f
	w.size = 0
	return nil
}

// rotate shifts the backups by one, dropping the oldest, and reopens the live file.
func (w *rotatingWriter) rotate() error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}
	if w.policy.maxBackups > 0 {
		_ = os.Remove(w.backupName(w.policy.maxBackups))
		for n := w.policy.maxBackups - 1; n >= 1; n-- {
			if err := os.Rename(w.backupName(n), w.backupName(n+1)); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
		if err := os.Rename(w.currentName(), w.backupName(1)); err != nil && !os.IsNotExist(err) {
			return err
		}
	}
	return w.openNew()
}

func (w *rotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.size > 0 && w.size+int64(len(p)) > w.policy.maxSize {
		if err := w.rotate(); err != nil {
			return 0, err
		}
	}
	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

func (w *rotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file != nil {
		return w.file.Close()
	}
	return nil
}

func SetConsoleEnabled(enabled bool) {
	consoleEnabled = enabled
	resetLoggers()
}

// InitLogs opens the detection and chain log files for one command run.
func InitLogs(cmdName string) {
	ensureLogDir()

	ts := time.Now().Format("20060102150405")
	policy := currentPolicy()

	var err error
	detectRW, err = newRotatingWriter(config.LogPath, fmt.Sprintf("mevwatcher_%s_%s_detect", ts, cmdName), policy)
	if err != nil {
		log.Fatal(err)
	}
	chainRW, err = newRotatingWriter(config.LogPath, fmt.Sprintf("mevwatcher_%s_%s_chain", ts, cmdName), policy)
	if err != nil {
		log.Fatal(err)
	}

	DetectLogger = slog.New(newHandler(detectRW))
	ChainLogger = slog.New(newHandler(chainRW))
	resetLoggers()
}

func init() {
	ensureLogDir()
	ts := time.Now().Format("20060102150405")

	var err error
	globalRW, err = newRotatingWriter(config.LogPath, fmt.Sprintf("mevwatcher_%s_global", ts), currentPolicy())
	if err != nil {
		log.Fatal(err)
	}
	GlobalLogger = slog.New(newHandler(globalRW))
	// Until InitLogs runs, subsystem loggers share the global file
	DetectLogger = GlobalLogger
	ChainLogger = GlobalLogger
	resetLoggers()
}

func CloseAll() {
	if globalRW != nil {
		_ = globalRW.Close()
	}
	if detectRW != nil {
		_ = detectRW.Close()
	}
	if chainRW != nil {
		_ = chainRW.Close()
	}
}

func ensureLogDir() {
	if err := os.MkdirAll(config.LogPath, 0o755); err != nil {
		log.Fatal(err)
	}
}

func newHandler(fileWriter io.Writer) slog.Handler {
	w := fileWriter
	if consoleEnabled {
		w = io.MultiWriter(os.Stdout, fileWriter)
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{
		AddSource: true,
	})
}

func resetLoggers() {
	if GlobalLogger != nil && globalRW != nil {
		GlobalLogger = slog.New(newHandler(globalRW))
	}
	if detectRW != nil {
		DetectLogger = slog.New(newHandler(detectRW))
	} else {
		DetectLogger = GlobalLogger
	}
	if chainRW != nil {
		ChainLogger = slog.New(newHandler(chainRW))
	} else {
		ChainLogger = GlobalLogger
	}
}

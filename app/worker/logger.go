package worker

import (
	"io"
	"log"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// NewWorkerLogger writes to stdout and a size-rotated file under dir
func NewWorkerLogger(dir string) *log.Logger {
	if dir == "" {
		dir = "data"
	}
	rotator := &lumberjack.Logger{
		Filename:   filepath.Join(dir, "worker.log"),
		MaxSize:    50, // megabytes
		MaxBackups: 5,
		MaxAge:     30, // days
		Compress:   true,
	}
	mw := io.MultiWriter(os.Stdout, rotator)
	return log.New(mw, "worker ", log.LstdFlags|log.Lmicroseconds|log.LUTC)
}

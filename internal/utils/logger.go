package utils

import (
	"io"
	"log"
	"os"
)

type Logger struct {
	debug       bool
	debugLogger *log.Logger
	infoLogger  *log.Logger
	warnLogger  *log.Logger
	errorLogger *log.Logger
	fatalLogger *log.Logger
}

func NewLogger(debug bool, out io.Writer) *Logger {
	if out == nil {
		out = os.Stdout
	}

	flags := log.Ldate | log.Ltime | log.Lshortfile
	return &Logger{
		debug:       debug,
		debugLogger: log.New(out, "DEBUG: ", flags),
		infoLogger:  log.New(out, "INFO: ", flags),
		warnLogger:  log.New(out, "WARN: ", flags),
		errorLogger: log.New(out, "ERROR: ", flags),
		fatalLogger: log.New(out, "FATAL: ", flags),
	}
}

func (l *Logger) Debug(v ...interface{}) {
	if l.debug {
		l.debugLogger.Println(v...)
	}
}

func (l *Logger) Info(v ...interface{}) {
	l.infoLogger.Println(v...)
}

func (l *Logger) Warn(v ...interface{}) {
	l.warnLogger.Println(v...)
}

func (l *Logger) Error(v ...interface{}) {
	l.errorLogger.Println(v...)
}

func (l *Logger) Fatal(v ...interface{}) {
	l.fatalLogger.Fatalln(v...)
}

package utils

import (
	"fmt"
	"io"
	"sync"
)

// Logger is nil safe, nil logger drops everything
type Logger struct {
	io.Writer
	lock sync.Mutex
}

func NewLogger(w io.Writer) *Logger {
	if w == nil {
		return nil
	}
	return &Logger{Writer: w}
}

func (l *Logger) Println(a ...interface{}) {
	if l != nil {
		l.lock.Lock()
		fmt.Fprintln(l, a...)
		l.lock.Unlock()
	}
}

func (l *Logger) Printf(format string, a ...interface{}) {
	if l != nil {
		l.lock.Lock()
		fmt.Fprintf(l, format+"\n", a...)
		l.lock.Unlock()
	}
}

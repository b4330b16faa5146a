package logx

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

var log = newLogger()

func newLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true, DisableLevelTruncation: true})
	return l
}

// SetLevel accepts debug, info, warn or error. Unknown values leave the level unchanged.
func SetLevel(l string) {
	switch strings.ToLower(l) {
	case "debug": log.SetLevel(logrus.DebugLevel)
	case "info": log.SetLevel(logrus.InfoLevel)
	case "warn": log.SetLevel(logrus.WarnLevel)
	case "error": log.SetLevel(logrus.ErrorLevel)
	}
}

func Level() string { return log.GetLevel().String() }

func SetOutput(w io.Writer) { log.SetOutput(w) }

func Debugf(f string, a ...any) { log.Debugf(f, a...) }
func Infof(f string, a ...any)  { log.Infof(f, a...) }
func Warnf(f string, a ...any)  { log.Warnf(f, a...) }
func Errorf(f string, a ...any) { log.Errorf(f, a...) }

func Fatalf(f string, a ...any) { Errorf(f, a...); os.Exit(1) }

// WithFields returns an entry carrying kv. Never pass key material here.
func WithFields(kv map[string]any) *logrus.Entry {
	return log.WithFields(logrus.Fields(kv))
}

// SprintKV renders kv as space separated k=v pairs in key order.
func SprintKV(kv map[string]any) string {
	keys := make([]string, 0, len(kv))
	for k := range kv { keys = append(keys, k) }
	sort.Strings(keys)
	var b strings.Builder
	for i, k := range keys {
		if i > 0 { b.WriteString(" ") }
		b.WriteString(fmt.Sprintf("%s=%v", k, kv[k]))
	}
	return b.String()
}

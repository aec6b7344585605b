package logger

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Log - глобальный логгер. До вызова Init пишет в stderr с уровнем Info.
var Log = logrus.New()

// Init инициализирует структурированный логгер.
func Init(level string) {
	Log = logrus.New()

	lvl, err := logrus.ParseLevel(level)
	if err != nil {
		lvl = logrus.InfoLevel
	}
	Log.SetLevel(lvl)

	// JSON для production, text включается через SetTextFormatter
	Log.SetFormatter(&logrus.JSONFormatter{})
}

// SetTextFormatter устанавливает текстовый формат логов (для development).
func SetTextFormatter() {
	Log.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})
}

// Component возвращает логгер с полем component.
func Component(name string) *logrus.Entry {
	return Log.WithField("component", name)
}

// Discard глушит вывод, используется в тестах.
func Discard() {
	Log.SetOutput(io.Discard)
}

package goroutine

import (
	"runtime/debug"

	"github.com/ignatzorin/household-backend/internal/logger"
)

// Logger интерфейс для логирования ошибок
type Logger interface {
	Errorf(format string, args ...interface{})
}

// RecoveryHandler обрабатывает panic в горутинах
type RecoveryHandler struct {
	logger Logger
}

// NewRecoveryHandler создает новый обработчик
func NewRecoveryHandler(logger Logger) *RecoveryHandler {
	return &RecoveryHandler{logger: logger}
}

// SafeGo запускает горутину с обработкой panic
func (rh *RecoveryHandler) SafeGo(fn func()) {
	go rh.Run(fn)
}

// Run выполняет fn в текущей горутине и гасит panic.
func (rh *RecoveryHandler) Run(fn func()) {
	defer rh.handlePanic("goroutine")
	fn()
}

func (rh *RecoveryHandler) handlePanic(where string) {
	if r := recover(); r != nil {
		rh.logger.Errorf("Panic in %s: %v\nStack trace:\n%s", where, r, debug.Stack())
	}
}

// globalLogger пишет в logger.Log, который пересоздаётся в logger.Init.
type globalLogger struct{}

func (globalLogger) Errorf(format string, args ...interface{}) {
	logger.Log.Errorf(format, args...)
}

// DefaultRecoveryHandler - глобальный обработчик, пишет в общий logrus-логгер
var DefaultRecoveryHandler = NewRecoveryHandler(globalLogger{})

// SafeGo - упрощенная функция для запуска безопасной горутины
func SafeGo(fn func()) {
	DefaultRecoveryHandler.SafeGo(fn)
}

// Recover выполняет fn синхронно, перехватывая panic.
func Recover(fn func()) {
	DefaultRecoveryHandler.Run(fn)
}

package controller

// Logger is the structured logging surface the controller core needs.
// It's satisfied by *logrus.Entry and *logrus.Logger, among others, so
// the core can log without importing a logging package directly.
type Logger interface {
	Debugf(format string, args ...interface{})
	Infof(format string, args ...interface{})
	Warnf(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// nopLogger discards everything; used when no Logger is supplied.
type nopLogger struct{}

func (nopLogger) Debugf(string, ...interface{}) {}
func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Warnf(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

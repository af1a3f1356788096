package core

// Logger is any service that can report application events. The optional
// args (an error, a map of extras, the acting user) may be forwarded to the
// implementation's backend.
type Logger interface {
	Debug(msg string, args ...interface{})
	Info(msg string, args ...interface{})
	Warn(msg string, args ...interface{})
	Error(msg string, args ...interface{})
	Fatal(msg string, args ...interface{})
}

package logger

// LoggerInstance defines the interface for logging backends.
type LoggerInstance interface {
	Log(message string, keyvals ...any)
	Debug(message string, keyvals ...any)
	Info(message string, keyvals ...any)
	Warn(message string, keyvals ...any)
	Error(message string, keyvals ...any)
	Fatal(message string, keyvals ...any)
}

// Logger fans log calls out to every configured backend.
type Logger struct {
	instances []LoggerInstance
	fields    []any
}

var singleton *Logger

// Init installs the global logger. Calls made before Init are dropped.
func Init(instances ...LoggerInstance) {
	singleton = &Logger{instances: instances}
}

// With returns a logger that prepends keyvals to every call. It is safe to
// call before Init; the returned logger then discards everything.
func With(keyvals ...any) *Logger {
	base := singleton
	if base == nil {
		return &Logger{}
	}
	fields := make([]any, 0, len(base.fields)+len(keyvals))
	fields = append(fields, base.fields...)
	fields = append(fields, keyvals...)
	return &Logger{instances: base.instances, fields: fields}
}

func (l *Logger) merge(keyvals []any) []any {
	if len(l.fields) == 0 {
		return keyvals
	}
	out := make([]any, 0, len(l.fields)+len(keyvals))
	out = append(out, l.fields...)
	return append(out, keyvals...)
}

func (l *Logger) Log(message string, keyvals ...any) {
	for _, instance := range l.instances {
		instance.Log(message, l.merge(keyvals)...)
	}
}

func (l *Logger) Debug(message string, keyvals ...any) {
	for _, instance := range l.instances {
		instance.Debug(message, l.merge(keyvals)...)
	}
}

func (l *Logger) Info(message string, keyvals ...any) {
	for _, instance := range l.instances {
		instance.Info(message, l.merge(keyvals)...)
	}
}

func (l *Logger) Warn(message string, keyvals ...any) {
	for _, instance := range l.instances {
		instance.Warn(message, l.merge(keyvals)...)
	}
}

func (l *Logger) Error(message string, keyvals ...any) {
	for _, instance := range l.instances {
		instance.Error(message, l.merge(keyvals)...)
	}
}

func (l *Logger) Fatal(message string, keyvals ...any) {
	for _, instance := range l.instances {
		instance.Fatal(message, l.merge(keyvals)...)
	}
}

// Log writes a message at the default log level to all configured backends.
func Log(message string, keyvals ...any) {
	if singleton != nil {
		singleton.Log(message, keyvals...)
	}
}

// Info writes a message at INFO level to all configured backends.
func Info(message string, keyvals ...any) {
	if singleton != nil {
		singleton.Info(message, keyvals...)
	}
}

// Warn writes a message at WARN level to all configured backends.
func Warn(message string, keyvals ...any) {
	if singleton != nil {
		singleton.Warn(message, keyvals...)
	}
}

// Error writes a message at ERROR level to all configured backends.
func Error(message string, keyvals ...any) {
	if singleton != nil {
		singleton.Error(message, keyvals...)
	}
}

// Debug writes a message at DEBUG level to all configured backends.
func Debug(message string, keyvals ...any) {
	if singleton != nil {
		singleton.Debug(message, keyvals...)
	}
}

// Fatal writes a message at FATAL level and terminates the program.
func Fatal(message string, keyvals ...any) {
	if singleton != nil {
		singleton.Fatal(message, keyvals...)
	}
}

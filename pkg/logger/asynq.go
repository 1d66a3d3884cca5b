package logger

// AsynqLogger adapts the global zap logger to asynq's Logger interface
type AsynqLogger struct{}

func NewAsynqLogger() *AsynqLogger {
	return &AsynqLogger{}
}

func (l *AsynqLogger) Debug(args ...interface{}) {
	Log.Sugar().Debug(args...)
}

func (l *AsynqLogger) Info(args ...interface{}) {
	Log.Sugar().Info(args...)
}

func (l *AsynqLogger) Warn(args ...interface{}) {
	Log.Sugar().Warn(args...)
}

func (l *AsynqLogger) Error(args ...interface{}) {
	Log.Sugar().Error(args...)
}

func (l *AsynqLogger) Fatal(args ...interface{}) {
	Log.Sugar().Fatal(args...)
}

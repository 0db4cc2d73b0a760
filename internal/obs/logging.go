// Package obs contains observability utilities such as logging.
package obs

import "go.uber.org/zap"

// Logger is the global structured logger used by the service.
//
// It defaults to a no-op logger so packages can log under test without
// any initialization.
var Logger = zap.NewNop()

// InitLogger replaces the global Logger with a production JSON logger.
func InitLogger() {
	l, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	Logger = l
}

package ccconfig

import "go.uber.org/zap"

// NewLogger builds a zap.SugaredLogger the way
// darleet-GraphDB/src/app/server.go does: development mode gets the
// human-readable console encoder, production gets the JSON encoder.
func NewLogger(env Environment) (*zap.SugaredLogger, error) {
	var (
		l   *zap.Logger
		err error
	)
	if env == EnvDev {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

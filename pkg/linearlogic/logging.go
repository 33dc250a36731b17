package linearlogic

import "github.com/hashicorp/go-hclog"

// nullLogger is the default when a caller does not supply one via
// WithLogger/WithEngineLogger, keeping library use silent by default
// (the same convention nomad's subsystems follow: an explicit,
// injectable, named hclog.Logger per component).
func nullLogger() hclog.Logger {
	return hclog.NewNullLogger()
}

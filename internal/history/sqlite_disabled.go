//go:build !sqlite
// +build !sqlite

package history

import (
	"errors"

	logx "github.com/andrewiggins/fluentui/pkg/logx"
)

func openSQLite(cfg Config, log logx.Logger) (Store, error) {
	return nil, errors.New("sqlite history driver not built in (rebuild with -tags sqlite)")
}

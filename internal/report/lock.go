// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package report

import (
	"github.com/gofrs/flock"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// ErrLocked is returned by Lock when another process holds the report.
var ErrLocked = eris.New("report is locked by another process")

// Lock takes an exclusive advisory lock on path+".lock" so that concurrent
// decision merges against one report file are serialized. It does not wait;
// the returned function releases the lock.
func Lock(path string) (func(), error) {
	lockPath := path + ".lock"
	fl := flock.New(lockPath)

	ok, err := fl.TryLock()
	if err != nil {
		return nil, eris.Wrapf(err, "acquiring lock %s", lockPath)
	}
	if !ok {
		return nil, eris.Wrapf(ErrLocked, "%s", lockPath)
	}
	return func() {
		if err := fl.Unlock(); err != nil {
			zap.L().Warn("failed to release report lock", zap.String("lock", lockPath), zap.Error(err))
		}
	}, nil
}

// Package lock guards a gallery root against concurrent builds with the
// sentinel file <root>/.lock. The sentinel is created exclusively, so one
// left behind by a crashed build keeps blocking until it is removed by hand.
// While a build runs the file is also held with an advisory flock.
//
//	l, err := lock.Acquire(root)
//	if errors.Is(err, lock.ErrLocked) {
//	    // another build is running, or a stale sentinel is left
//	}
//	defer l.Release()
package lock

// Package fsnap provides the library API for capturing directory snapshots
// and diffing them.
//
// An Engine combines a capturer, an in-memory history and the ordered-merge
// diff. Snapshots are immutable once captured and may be shared freely
// between goroutines.
//
// # Concurrency Safety
//
//   - Capture may run concurrently with itself and with every history
//     operation. Captures are not atomic: a tree mutated during a walk yields
//     a snapshot mixing before and after states.
//
//   - Record, Latest, At, Size, List and the Diff methods are safe for
//     concurrent use. Readers observe the history as of the call.
//
// # Typical Usage
//
//	eng := fsnap.New(fsnap.Options{FollowSymlinks: false})
//	if _, err := eng.CaptureAndRecord(ctx, "/srv/data"); err != nil {
//	    return err
//	}
//	// ... time passes ...
//	if _, err := eng.CaptureAndRecord(ctx, "/srv/data"); err != nil {
//	    return err
//	}
//	result, err := eng.DiffLatestPair()
//	fmt.Println(result.FormatStat())
package fsnap

// Package ratelimit paces outbound downloads.
//
// TokenBucket caps HTTP requests to asset hosts per period. Throttle keeps a
// minimum gap between consecutive video downloads so the video host does not
// block the run; it is created once per run and passed down to the video
// downloader.
//
//	throttle := ratelimit.NewThrottle(5 * time.Second)
//	if err := throttle.Wait(ctx); err != nil {
//	    return err
//	}
//	// download
//	throttle.Mark()
package ratelimit

// Package retry re-runs operations that fail with transient errors.
//
// Asset downloads use it to ride out 5xx responses and dropped connections:
//
//	err := retry.Do(func() error {
//	    return client.get(ctx, uri, dst)
//	}, &retry.Config{
//	    MaxAttempts: 3,
//	    Backoff:     retry.DefaultExponentialBackoff(),
//	    Context:     ctx,
//	    Logger:      log,
//	})
//
// DefaultRetryIf only retries network and server errors; not-found responses,
// DNS failures and cancelled contexts fail immediately.
package retry

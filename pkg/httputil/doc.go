// Package httputil provides the HTTP plumbing shared by graph producers.
//
// # Overview
//
//   - [Client]: GET requests with a default User-Agent, a token-bucket rate
//     limit and automatic retries
//   - [Retry]: exponential backoff for transient failures
//
// # Retry
//
// Only errors wrapped in [RetryableError] are retried. [Client] wraps
// network failures, 429 and 5xx responses; a 404 becomes [ErrNotFound]
// and is returned immediately:
//
//	err := httputil.Retry(ctx, httputil.DefaultPolicy(), func() error {
//	    return doSomething()
//	})
//
// # Rate limiting
//
// Wikis ask crawlers to keep their request rate low. Every request made
// through a [Client] waits on a shared limiter first, so the number of
// crawler workers does not change the request rate.
package httputil

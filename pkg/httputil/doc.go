// Package httputil downloads remote inputs, such as a topology given by URL.
//
// [Client.Get] retries transient failures with exponential backoff through
// [Retry]. Wrap an error with [Retryable] to make [Retry] attempt the call
// again; any other error is returned at once.
//
//	c := httputil.NewClient(30 * time.Second)
//	data, err := c.Get(ctx, "https://cdn.jsdelivr.net/npm/us-atlas@3/states-albers-10m.json")
//
// Requests report to the HTTP hooks of the observability package.
package httputil

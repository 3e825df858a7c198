// Package ratelimit keeps outbound Raindrop calls inside the service quota.
//
// The Governor combines two signals:
//
//   - a sliding window of request timestamps. Once it holds MaxRequests
//     entries from the trailing Window, the next caller sleeps until the
//     oldest entry ages out (plus one second) and the window is cleared.
//   - the quota reported by the service in X-RateLimit-* response headers.
//     While 0 < remaining < LowRemainingThreshold every call pauses for
//     LowRemainingPause.
//
// Usage:
//
//	gov := ratelimit.NewGovernor(ratelimit.DefaultConfig())
//	if err := gov.WaitIfNeeded(ctx); err != nil {
//	    return err
//	}
//	resp, err := http.DefaultClient.Do(req)
//	if resp != nil {
//	    gov.UpdateFromResponse(resp.Header)
//	}
package ratelimit

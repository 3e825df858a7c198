// Package retry provides backoff and retry logic for transient failures in
// Raindrop API calls.
//
// The client uses the throttle preset, which only retries 429 responses:
//
//	cfg := retry.ThrottleConfig(3, 10*time.Second, log)
//	err := retry.Do(ctx, func(ctx context.Context) error {
//		return client.put(ctx, path, body)
//	}, cfg)
//
// That gives waits of 10s, 20s and 40s before the second, third and fourth
// attempts. When the budget is spent the returned error wraps the last
// failure, so errors.As still finds the 429 underneath.
//
// Tests replace Config.Sleep to record waits without sleeping.
package retry

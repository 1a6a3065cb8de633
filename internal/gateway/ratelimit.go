package gateway

import "golang.org/x/time/rate"

// CreateThrottle bounds how often session.create requests may be sent,
// using a token bucket. A runaway retry loop would otherwise burn through
// gateway-issued codes.
type CreateThrottle struct {
	limiter *rate.Limiter
}

// NewCreateThrottle creates a throttle allowing perMinute creates with a
// burst of 2. If perMinute <= 0 the throttle is disabled (always allows).
func NewCreateThrottle(perMinute int) *CreateThrottle {
	if perMinute <= 0 {
		return &CreateThrottle{}
	}
	return &CreateThrottle{
		limiter: rate.NewLimiter(rate.Limit(float64(perMinute)/60.0), 2),
	}
}

// Allow reports whether a create request may be sent now.
func (t *CreateThrottle) Allow() bool {
	if t.limiter == nil {
		return true
	}
	return t.limiter.Allow()
}

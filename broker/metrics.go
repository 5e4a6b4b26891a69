package broker

// Metrics is the optional observability sink the broker reports
// counters and gauges to; internal/metrics supplies the Prometheus
// backed implementation, but the broker only depends on this
// interface so it stays testable without a registry.
type Metrics interface {
	SessionsActive(delta int)
	ChannelsActive(delta int)
	WaitersArmed(delta int)
	SweepRun(sessionsExpired, channelsRemoved int)
	MessagePublished(channelKind string)
	MessageDelivered()
	MessageDropped(reason string)
}

type nopMetrics struct{}

func (nopMetrics) SessionsActive(int)             {}
func (nopMetrics) ChannelsActive(int)              {}
func (nopMetrics) WaitersArmed(int)                 {}
func (nopMetrics) SweepRun(int, int)                {}
func (nopMetrics) MessagePublished(string)          {}
func (nopMetrics) MessageDelivered()                {}
func (nopMetrics) MessageDropped(string)            {}

package broker

import "time"

// Config holds every tunable named in the server options table: hold
// timeouts, sweep cadence, browser-cookie shape, the per-browser cap on
// held connects and the status code used for duplicate-connect
// preemption.
type Config struct {
	Timeout     int64 // ms, max hold for /meta/connect
	Interval    int64 // ms, pause advised between client connects
	MaxInterval int64 // ms, grace before sweeper expires a session
	SweepPeriod time.Duration

	BrowserCookieName     string
	BrowserCookieHTTPOnly bool
	BrowserCookieSecure   bool
	BrowserCookieSameSite string // "Strict" | "Lax" | "None" | ""

	MaxSessionsPerBrowser int   // -1 unlimited, 0 forbid
	MultiSessionInterval  int64 // ms

	DuplicateMetaConnectHTTPResponseCode int
}

// DefaultConfig returns the documented defaults.
func DefaultConfig() Config {
	return Config{
		Timeout:                              30000,
		Interval:                             0,
		MaxInterval:                          10000,
		SweepPeriod:                          997 * time.Millisecond,
		BrowserCookieName:                    "BAYEUX_BROWSER",
		BrowserCookieHTTPOnly:                true,
		BrowserCookieSecure:                  false,
		BrowserCookieSameSite:                "",
		MaxSessionsPerBrowser:                1,
		MultiSessionInterval:                 2000,
		DuplicateMetaConnectHTTPResponseCode: 500,
	}
}

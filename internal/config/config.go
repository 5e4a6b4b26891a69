// Package config loads runtime options from environment variables (and
// an optional config file) via viper, following the documented option
// table in spec.md §6, including its prefixed-namespace override
// ("long-polling.json.<name>") for transport-scoped tuning.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/johnjansen/bayeux/broker"
)

// longPollingNamespace is the more-specific prefix in the lookup list
// from spec §6/§9: each option is looked up first as "<namespace>.<name>",
// falling back to the general "<name>" key when the namespaced form
// isn't set. Named after the transport it tunes, since a second
// transport (if one is ever added) would get its own namespace.
const longPollingNamespace = "long-polling.json"

// Options mirrors spec.md §6's option table before it's translated
// into broker.Config (which uses time.Duration/typed fields broker
// itself consumes).
type Options struct {
	Timeout     int64  `mapstructure:"timeout"`
	Interval    int64  `mapstructure:"interval"`
	MaxInterval int64  `mapstructure:"max_interval"`
	SweepPeriod int64  `mapstructure:"sweep_period"`
	LogLevel    string `mapstructure:"log_level"`

	BrowserCookieName     string `mapstructure:"browser_cookie_name"`
	BrowserCookieHTTPOnly bool   `mapstructure:"browser_cookie_http_only"`
	BrowserCookieSecure   bool   `mapstructure:"browser_cookie_secure"`
	BrowserCookieSameSite string `mapstructure:"browser_cookie_same_site"`

	MaxSessionsPerBrowser int   `mapstructure:"max_sessions_per_browser"`
	MultiSessionInterval  int64 `mapstructure:"multi_session_interval"`

	DuplicateMetaConnectHTTPResponseCode int `mapstructure:"duplicate_meta_connect_http_response_code"`
}

// Load reads Options from BAYEUX_-prefixed environment variables,
// falling back to the documented defaults. Every option is then looked
// up a second time under the namespaced key
// "long-polling.json.<name>" (e.g. env var
// BAYEUX_LONG_POLLING_JSON_TIMEOUT, or a "long-polling.json.timeout"
// key in the config file) and, if set, that value wins — the prefix
// list runs general to specific, per spec §6/§9.
func Load() (Options, error) {
	v := viper.New()

	v.SetDefault("timeout", 30000)
	v.SetDefault("interval", 0)
	v.SetDefault("max_interval", 10000)
	v.SetDefault("sweep_period", 997)
	v.SetDefault("log_level", "info")
	v.SetDefault("browser_cookie_name", "BAYEUX_BROWSER")
	v.SetDefault("browser_cookie_http_only", true)
	v.SetDefault("browser_cookie_secure", false)
	v.SetDefault("browser_cookie_same_site", "")
	v.SetDefault("max_sessions_per_browser", 1)
	v.SetDefault("multi_session_interval", 2000)
	v.SetDefault("duplicate_meta_connect_http_response_code", 500)

	v.SetConfigName("bayeux")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.SetEnvPrefix("BAYEUX")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	_ = v.ReadInConfig()

	var opts Options
	if err := v.Unmarshal(&opts); err != nil {
		return Options{}, fmt.Errorf("config unmarshal: %w", err)
	}

	opts.Timeout = overrideInt64(v, "timeout", opts.Timeout)
	opts.Interval = overrideInt64(v, "interval", opts.Interval)
	opts.MaxInterval = overrideInt64(v, "max_interval", opts.MaxInterval)
	opts.SweepPeriod = overrideInt64(v, "sweep_period", opts.SweepPeriod)
	opts.LogLevel = overrideString(v, "log_level", opts.LogLevel)
	opts.BrowserCookieName = overrideString(v, "browser_cookie_name", opts.BrowserCookieName)
	opts.BrowserCookieHTTPOnly = overrideBool(v, "browser_cookie_http_only", opts.BrowserCookieHTTPOnly)
	opts.BrowserCookieSecure = overrideBool(v, "browser_cookie_secure", opts.BrowserCookieSecure)
	opts.BrowserCookieSameSite = overrideString(v, "browser_cookie_same_site", opts.BrowserCookieSameSite)
	opts.MaxSessionsPerBrowser = int(overrideInt64(v, "max_sessions_per_browser", int64(opts.MaxSessionsPerBrowser)))
	opts.MultiSessionInterval = overrideInt64(v, "multi_session_interval", opts.MultiSessionInterval)
	opts.DuplicateMetaConnectHTTPResponseCode = int(overrideInt64(v, "duplicate_meta_connect_http_response_code", int64(opts.DuplicateMetaConnectHTTPResponseCode)))

	return opts, nil
}

// namespacedKey returns the longPollingNamespace-prefixed key, the
// more specific end of the spec §9 prefix list.
func namespacedKey(name string) string {
	return longPollingNamespace + "." + name
}

func overrideInt64(v *viper.Viper, name string, fallback int64) int64 {
	ns := namespacedKey(name)
	if v.IsSet(ns) {
		return v.GetInt64(ns)
	}
	return fallback
}

func overrideString(v *viper.Viper, name string, fallback string) string {
	ns := namespacedKey(name)
	if v.IsSet(ns) {
		return v.GetString(ns)
	}
	return fallback
}

func overrideBool(v *viper.Viper, name string, fallback bool) bool {
	ns := namespacedKey(name)
	if v.IsSet(ns) {
		return v.GetBool(ns)
	}
	return fallback
}

// ToBrokerConfig translates Options into the typed broker.Config the
// rest of the system consumes.
func (o Options) ToBrokerConfig() broker.Config {
	return broker.Config{
		Timeout:                              o.Timeout,
		Interval:                             o.Interval,
		MaxInterval:                          o.MaxInterval,
		SweepPeriod:                          time.Duration(o.SweepPeriod) * time.Millisecond,
		BrowserCookieName:                    o.BrowserCookieName,
		BrowserCookieHTTPOnly:                o.BrowserCookieHTTPOnly,
		BrowserCookieSecure:                  o.BrowserCookieSecure,
		BrowserCookieSameSite:                o.BrowserCookieSameSite,
		MaxSessionsPerBrowser:                o.MaxSessionsPerBrowser,
		MultiSessionInterval:                 o.MultiSessionInterval,
		DuplicateMetaConnectHTTPResponseCode: o.DuplicateMetaConnectHTTPResponseCode,
	}
}

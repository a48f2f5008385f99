package config

import (
	"errors"
	"net/netip"
	"net/url"
	"strconv"
	"strings"
)

const (
	DefaultTitle      = "Algorithmic Trading Platform"
	DefaultStatus     = "Setting up the trading dashboard..."
	DefaultBackendURL = "http://localhost:5000"
)

type Config struct {
	HTTP struct {
		Address   string `yaml:"address"`
		RateLimit *int   `yaml:"rate_limit"` // requests per minute per client, 0 disables
		// Peers allowed to set X-Forwarded-For / X-Real-IP, as IPs or CIDRs.
		TrustedProxies []string `yaml:"trusted_proxies"`
	} `yaml:"http"`

	Dashboard struct {
		Title  string `yaml:"title"`
		Status string `yaml:"status"`
	} `yaml:"dashboard"`

	Backend BackendConfig `yaml:"backend"`

	Database DatabaseConfig `yaml:"database"`

	Logging struct {
		Level  string `yaml:"level"`  // "debug" | "info" | "warn" | "error"
		Format string `yaml:"format"` // "text" | "json"
	} `yaml:"logging"`
}

// BackendConfig points the dashboard at the trading backend. HealthURL is
// rendered as the link destination and never fetched; only http(s) URLs pass
// Validate.
type BackendConfig struct {
	URL       string `yaml:"url"`
	HealthURL string `yaml:"health_url"`
}

type DatabaseConfig struct {
	URL      string `yaml:"url"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"` // e.g. "disable" | "require"
}

func (c *Config) Defaults() {
	if c.HTTP.Address == "" {
		c.HTTP.Address = ":8080"
	}
	if c.HTTP.RateLimit == nil {
		n := 120
		c.HTTP.RateLimit = &n
	}
	if c.Dashboard.Title == "" {
		c.Dashboard.Title = DefaultTitle
	}
	if c.Dashboard.Status == "" {
		c.Dashboard.Status = DefaultStatus
	}
	if c.Backend.URL == "" {
		c.Backend.URL = DefaultBackendURL
	}
	if c.Backend.HealthURL == "" {
		c.Backend.HealthURL = strings.TrimRight(c.Backend.URL, "/") + "/health"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
	if c.Logging.Format == "" {
		c.Logging.Format = "json"
	}
	if c.Database.Enabled() {
		if c.Database.Port == 0 {
			c.Database.Port = 5432
		}
		if c.Database.SSLMode == "" {
			c.Database.SSLMode = "disable"
		}
	}
}

// RequestsPerMinute returns the configured rate limit, 0 meaning unlimited.
func (c *Config) RequestsPerMinute() int {
	if c.HTTP.RateLimit == nil {
		return 0
	}
	return *c.HTTP.RateLimit
}

func (c *Config) Validate() error {
	var errs []string
	if c.HTTP.RateLimit != nil && *c.HTTP.RateLimit < 0 {
		errs = append(errs, "http.rate_limit must not be negative")
	}
	if _, err := c.TrustedProxyPrefixes(); err != nil {
		errs = append(errs, err.Error())
	}
	for _, u := range []struct{ key, val string }{
		{"backend.url", c.Backend.URL},
		{"backend.health_url", c.Backend.HealthURL},
	} {
		if u.val != "" && !isHTTPURL(u.val) {
			errs = append(errs, u.key+" must be an http or https URL")
		}
	}
	switch strings.ToLower(c.Logging.Level) {
	case "", "debug", "info", "warn", "error":
	default:
		errs = append(errs, "logging.level must be debug, info, warn or error")
	}
	switch strings.ToLower(c.Logging.Format) {
	case "", "json", "text":
	default:
		errs = append(errs, "logging.format must be text or json")
	}
	// DB is optional, but once started it needs either URL or (Host, User, Name)
	if c.Database.Enabled() && c.Database.URL == "" {
		if c.Database.Host == "" || c.Database.User == "" || c.Database.Name == "" {
			errs = append(errs, "database.url or database.{host,user,name} must be set")
		}
	}
	if len(errs) > 0 {
		return errors.New(joinErrs(errs))
	}
	return nil
}

// TrustedProxyPrefixes parses http.trusted_proxies; bare IPs become /32 or /128.
func (c *Config) TrustedProxyPrefixes() ([]netip.Prefix, error) {
	out := make([]netip.Prefix, 0, len(c.HTTP.TrustedProxies))
	for _, s := range c.HTTP.TrustedProxies {
		s = strings.TrimSpace(s)
		if p, err := netip.ParsePrefix(s); err == nil {
			out = append(out, p.Masked())
			continue
		}
		a, err := netip.ParseAddr(s)
		if err != nil {
			return nil, errors.New("http.trusted_proxies: invalid address " + strconv.Quote(s))
		}
		out = append(out, netip.PrefixFrom(a, a.BitLen()))
	}
	return out, nil
}

func isHTTPURL(s string) bool {
	u, err := url.Parse(s)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func joinErrs(es []string) string {
	if len(es) == 1 {
		return es[0]
	}
	out := es[0]
	for i := 1; i < len(es); i++ {
		out += "; " + es[i]
	}
	return out
}

// Enabled reports whether any database setting was provided.
func (d *DatabaseConfig) Enabled() bool {
	return d.URL != "" || d.Host != "" || d.User != "" || d.Name != ""
}

// AppURL returns a postgres connection URL for the readiness database.
func (d *DatabaseConfig) AppURL() (string, error) {
	if d.URL != "" {
		return d.URL, nil
	}
	if d.Host == "" || d.User == "" || d.Name == "" {
		return "", errors.New("database config incomplete: need host, user, name or set url")
	}
	u := &url.URL{
		Scheme: "postgres",
		Host:   d.Host + ":" + strconv.Itoa(d.Port),
		Path:   "/" + d.Name,
	}
	if d.Password != "" {
		u.User = url.UserPassword(d.User, d.Password)
	} else {
		u.User = url.User(d.User)
	}
	q := url.Values{}
	if d.SSLMode != "" {
		q.Set("sslmode", d.SSLMode)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

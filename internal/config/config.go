package config

import (
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/odiseo-io/email-service/internal/errorx"
	"github.com/zeromicro/go-zero/rest"
)

// Config holds the full service configuration. The REST section doubles as
// the service section (name, listen address, logging, metrics) the way
// go-zero lays it out.
type Config struct {
	rest.RestConf

	Version string `json:",default=1.0.0"`

	Database  DatabaseConf
	SMTP      SMTPConf      `json:",optional"`
	Worker    WorkerConf    `json:",optional"`
	Templates TemplatesConf `json:",optional"`
	Auth      AuthConf      `json:",optional"`
	RateLimit RateLimitConf `json:",optional"`
}

// DatabaseConf holds queue store wiring.
type DatabaseConf struct {
	DataSource   string
	Schema       string `json:",default=public"`
	MaxOpenConns int    `json:",default=10,range=[1:100]"`
	MaxIdleConns int    `json:",default=1,range=[0:100]"`
}

// SMTPConf holds transport settings. An empty Host means SMTP is not
// configured: the API still accepts mail but the worker cannot deliver.
type SMTPConf struct {
	Host           string `json:",optional"`
	Port           int    `json:",default=587,range=[1:65535]"`
	Username       string `json:",optional"`
	Password       string `json:",optional"`
	FromEmail      string `json:",default=noreply@odiseo.io"`
	FromName       string `json:",default=Odiseo"`
	UseTLS         bool   `json:",default=true"`
	TimeoutSeconds int    `json:",default=30,range=[5:300]"`
}

// WorkerConf holds delivery loop settings.
type WorkerConf struct {
	Enabled             bool `json:",default=true"`
	PollIntervalSeconds int  `json:",default=10,range=[1:3600]"`
	BatchSize           int  `json:",default=50,range=[1:1000]"`
	Concurrency         int  `json:",default=5,range=[1:100]"`
	MaxRetries          int  `json:",default=3,range=[1:10]"`
	BackoffSeconds      int  `json:",default=300,range=[60:86400]"`
	// LeaseTimeoutSeconds bounds how long a processing row stays owned by a
	// dead worker before it becomes leasable again. Zero derives it as ten
	// poll intervals.
	LeaseTimeoutSeconds int `json:",default=0"`
	// RateLimitPerMinute throttles outbound sends. Zero disables.
	RateLimitPerMinute int `json:",default=0"`
	RetentionDays      int `json:",default=90,range=[1:3650]"`
}

// TemplatesConf holds template directory settings.
type TemplatesConf struct {
	Dir string `json:",default=./templates"`
}

// AuthConf holds ingress authentication settings. An empty key disables
// authentication entirely.
type AuthConf struct {
	APIKey string `json:",optional"`
}

// RateLimitConf holds the ingress sliding-window budgets.
type RateLimitConf struct {
	PerSecond int `json:",default=10,range=[1:10000]"`
	PerMinute int `json:",default=60,range=[1:100000]"`
}

// Validate normalises and checks settings that the tag ranges cannot
// express. It must run once after loading, before anything dials out.
func (c *Config) Validate() error {
	// App-password UIs display keys in space-separated groups; strip them
	// so operators can paste verbatim.
	c.SMTP.Password = strings.ReplaceAll(c.SMTP.Password, " ", "")

	if c.Database.DataSource == "" {
		return errorx.NewConfigError("Database.DataSource is required")
	}
	if c.Database.MaxIdleConns > c.Database.MaxOpenConns {
		return errorx.NewConfigError("Database.MaxIdleConns %d exceeds MaxOpenConns %d",
			c.Database.MaxIdleConns, c.Database.MaxOpenConns)
	}
	if c.SMTP.Host != "" && c.SMTP.FromEmail == "" {
		return errorx.NewConfigError("SMTP.FromEmail is required when SMTP.Host is set")
	}
	if c.Worker.LeaseTimeoutSeconds < 0 {
		return errorx.NewConfigError("Worker.LeaseTimeoutSeconds must not be negative")
	}
	return nil
}

// Configured reports whether an SMTP relay is set up.
func (s SMTPConf) Configured() bool {
	return s.Host != ""
}

// Address returns the host:port dial target.
func (s SMTPConf) Address() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// Timeout returns the connect/command timeout.
func (s SMTPConf) Timeout() time.Duration {
	return time.Duration(s.TimeoutSeconds) * time.Second
}

// PollInterval returns the queue poll period.
func (w WorkerConf) PollInterval() time.Duration {
	return time.Duration(w.PollIntervalSeconds) * time.Second
}

// Backoff returns the constant retry backoff.
func (w WorkerConf) Backoff() time.Duration {
	return time.Duration(w.BackoffSeconds) * time.Second
}

// LeaseTimeout returns the stale-lease horizon, deriving the default from
// the poll interval when unset.
func (w WorkerConf) LeaseTimeout() time.Duration {
	if w.LeaseTimeoutSeconds > 0 {
		return time.Duration(w.LeaseTimeoutSeconds) * time.Second
	}
	return 10 * w.PollInterval()
}

package scan

import (
	"errors"
	"fmt"
	"time"
)

const (
	// NoTitle is reported when a page has no usable <title>.
	NoTitle = "No title"
	// UnknownServer is reported when a response carries no Server header.
	UnknownServer = "Unknown"
	// DefaultUserAgent is sent with every HTTP probe.
	DefaultUserAgent = "Mozilla/5.0 Network Scanner"

	defaultMaxBodyBytes = 2 << 20
)

var (
	// DefaultPorts are the candidate web management ports.
	DefaultPorts = []int{80, 443, 8080, 8443, 8888, 8000, 8081}
	// DefaultTLSPorts are tried over HTTPS before plain HTTP.
	DefaultTLSPorts = []int{443, 8443}
)

// Config describes the parameters of a scan run.
type Config struct {
	Range        string        `json:"range"`
	Ports        []int         `json:"ports"`
	TLSPorts     []int         `json:"tlsPorts,omitempty"`
	Timeout      time.Duration `json:"timeout"`
	Concurrency  int           `json:"concurrency"`
	VerifyTLS    bool          `json:"verifyTls,omitempty"`
	UserAgent    string        `json:"userAgent,omitempty"`
	RateLimit    float64       `json:"rateLimit,omitempty"`
	PingFirst    bool          `json:"pingFirst,omitempty"`
	MaxBodyBytes int64         `json:"maxBodyBytes,omitempty"`
}

// WithDefaults returns a copy of the configuration with zero values replaced
// by their defaults.
func (c Config) WithDefaults() Config {
	if len(c.Ports) == 0 {
		c.Ports = append([]int(nil), DefaultPorts...)
	}
	if c.TLSPorts == nil {
		c.TLSPorts = append([]int(nil), DefaultTLSPorts...)
	}
	if c.Timeout == 0 {
		c.Timeout = 2 * time.Second
	}
	if c.Concurrency == 0 {
		c.Concurrency = 50
	}
	if c.UserAgent == "" {
		c.UserAgent = DefaultUserAgent
	}
	if c.MaxBodyBytes == 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	return c
}

// Validate checks that the configuration is usable.
func (c Config) Validate() error {
	if c.Range == "" {
		return errors.New("range is required")
	}
	if len(c.Ports) == 0 {
		return ErrNoPorts
	}
	for _, port := range append(append([]int(nil), c.Ports...), c.TLSPorts...) {
		if port <= 0 || port > 65535 {
			return fmt.Errorf("port %d out of range", port)
		}
	}
	if c.Timeout < 0 {
		return errors.New("timeout cannot be negative")
	}
	if c.Concurrency < 0 {
		return errors.New("concurrency cannot be negative")
	}
	if c.RateLimit < 0 {
		return errors.New("rateLimit cannot be negative")
	}
	return nil
}

// DeviceType is the classifier's label for a discovered interface.
type DeviceType string

const (
	DeviceRouter  DeviceType = "router"
	DeviceNAS     DeviceType = "nas"
	DeviceCamera  DeviceType = "camera"
	DevicePrinter DeviceType = "printer"
	DeviceUnknown DeviceType = "unknown"
)

// Result is one classified web service found on an (address, port) pair.
type Result struct {
	IP            string     `json:"ip"`
	Port          int        `json:"port"`
	URL           string     `json:"url"`
	StatusCode    int        `json:"status_code"`
	Title         string     `json:"title"`
	Server        string     `json:"server"`
	ContentType   string     `json:"content_type"`
	Encoding      string     `json:"encoding"`
	ContentLength int        `json:"content_length"`
	IsRouter      bool       `json:"is_router"`
	DeviceType    DeviceType `json:"device_type"`
}

// Progress contains a summary of the current scan progress.
type Progress struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Found     int `json:"found"`
}

// Percent returns the completion ratio in percent.
func (p Progress) Percent() float64 {
	if p.Total == 0 {
		return 100
	}
	return float64(p.Completed) / float64(p.Total) * 100
}

// Run is the finalized state of one scan.
type Run struct {
	Config    Config    `json:"config"`
	Results   []Result  `json:"results"`
	Progress  Progress  `json:"progress"`
	Started   time.Time `json:"started"`
	Finished  time.Time `json:"finished"`
	Cancelled bool      `json:"cancelled,omitempty"`
}

// Routers returns the results classified as router-class.
func (r Run) Routers() []Result {
	var out []Result
	for _, res := range r.Results {
		if res.IsRouter {
			out = append(out, res)
		}
	}
	return out
}

// InvalidRangeError is returned when the target range cannot be parsed.
type InvalidRangeError struct {
	Range string
	Err   error
}

func (e *InvalidRangeError) Error() string {
	return fmt.Sprintf("invalid range %q: %v", e.Range, e.Err)
}

func (e *InvalidRangeError) Unwrap() error {
	return e.Err
}

var (
	// ErrNoPorts indicates the configuration has nothing to probe.
	ErrNoPorts = errors.New("no ports configured")
	// ErrIPv6Unsupported indicates a non-IPv4 range was supplied.
	ErrIPv6Unsupported = errors.New("only IPv4 ranges are supported")

	errEmptyRange = errors.New("empty range")
)

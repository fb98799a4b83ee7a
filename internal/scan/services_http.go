package scan

import (
	"context"
	"io"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
)

const (
	acceptHeader = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"
	previewRunes = 500
)

// Detail is a Result together with the raw response evidence, as recorded by
// single-device investigations.
type Detail struct {
	Result
	Headers        map[string]string `json:"headers"`
	ContentPreview string            `json:"content_preview"`
}

// Prober performs the per-port network checks of a scan.
type Prober interface {
	CheckPort(ctx context.Context, host string, port int) bool
	CheckWebService(ctx context.Context, host string, port int) (Result, bool)
}

type netProber struct {
	cfg    Config
	client *http.Client
	logger zerolog.Logger
}

// NewProber returns the default Prober for cfg. cfg should already have its
// defaults applied.
func NewProber(cfg Config, logger zerolog.Logger) Prober {
	return &netProber{
		cfg:    cfg,
		client: newHTTPClient(cfg.Timeout, cfg.VerifyTLS),
		logger: logger,
	}
}

func (p *netProber) CheckPort(ctx context.Context, host string, port int) bool {
	return CheckPort(ctx, host, port, p.cfg.Timeout)
}

func (p *netProber) CheckWebService(ctx context.Context, host string, port int) (Result, bool) {
	detail, ok := p.inspect(ctx, host, port)
	return detail.Result, ok
}

func (p *netProber) inspect(ctx context.Context, host string, port int) (Detail, bool) {
	for _, url := range candidateURLs(host, port, p.cfg.TLSPorts) {
		detail, err := p.fetch(ctx, url)
		if err != nil {
			p.logger.Debug().Err(err).Str("url", url).Msg("probe failed")
			continue
		}
		detail.IP = host
		detail.Port = port
		return detail, true
	}
	return Detail{}, false
}

func (p *netProber) fetch(ctx context.Context, url string) (Detail, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Detail{}, errors.Wrap(err, "build request")
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)
	req.Header.Set("Accept", acceptHeader)

	resp, err := p.client.Do(req)
	if err != nil {
		return Detail{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, p.cfg.MaxBodyBytes))
	if err != nil {
		return Detail{}, errors.Wrap(err, "read body")
	}

	enc := DetectEncoding(resp.Header, body)
	text := decodeBody(enc, body)
	title := ExtractTitle(text)

	server := resp.Header.Get("Server")
	if server == "" {
		server = UnknownServer
	}

	res := Result{
		URL:           url,
		StatusCode:    resp.StatusCode,
		Title:         title,
		Server:        server,
		ContentType:   resp.Header.Get("Content-Type"),
		Encoding:      enc,
		ContentLength: utf8.RuneCountInString(text),
	}
	res.DeviceType, res.IsRouter = classify(title, text, server, res.ContentType)
	return Detail{
		Result:         res,
		Headers:        flattenHeader(resp.Header),
		ContentPreview: truncateRunes(text, previewRunes),
	}, nil
}

func flattenHeader(h http.Header) map[string]string {
	out := make(map[string]string, len(h))
	for name, values := range h {
		out[name] = strings.Join(values, ", ")
	}
	return out
}

// classify applies the scored classifier and falls back to the router
// heuristic when it is inconclusive.
func classify(title, body, server, contentType string) (DeviceType, bool) {
	device := AnalyzeDeviceType(title, body, server)
	if device != DeviceUnknown {
		return device, device == DeviceRouter
	}
	if IsRouterInterface(title, body, contentType) {
		return DeviceRouter, true
	}
	return DeviceUnknown, false
}

// CheckWebService fetches host:port with a one-off prober built from cfg.
func CheckWebService(ctx context.Context, host string, port int, cfg Config) (Result, bool) {
	cfg = cfg.WithDefaults()
	return NewProber(cfg, zerolog.Nop()).CheckWebService(ctx, host, port)
}

// Inspect probes host:port like CheckWebService and keeps the response headers
// and the first 500 characters of the decoded body.
func Inspect(ctx context.Context, host string, port int, cfg Config) (Detail, bool) {
	cfg = cfg.WithDefaults()
	p := &netProber{cfg: cfg, client: newHTTPClient(cfg.Timeout, cfg.VerifyTLS), logger: zerolog.Nop()}
	return p.inspect(ctx, host, port)
}

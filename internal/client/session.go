package client

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"catalogmirror/scraper/internal/config"
	"catalogmirror/scraper/internal/metrics"

	"github.com/PuerkitoBio/goquery"
	log "github.com/sirupsen/logrus"
	"go.uber.org/ratelimit"
	"resty.dev/v3"
)

// Session is one configured HTTP session owned by a single sync run.
type Session interface {
	// Connect probes the catalog root; it reports failure instead of returning an error.
	Connect(ctx context.Context) bool
	// FetchDocument returns the parsed page, or nil when the page could not be fetched.
	FetchDocument(ctx context.Context, pageURL string) *goquery.Document
	// Download fetches a binary resource and its declared content type.
	Download(ctx context.Context, resourceURL string) ([]byte, string, error)
	// Resolve turns a possibly relative href into an absolute URL on the shop host.
	Resolve(href string) string
	BaseURL() string
	ShopURL() string
	Close()
}

// SessionFactory opens a fresh session for each sync run.
type SessionFactory func() Session

type shopSession struct {
	rl         ratelimit.Limiter
	config     config.ShopConfig
	baseURL    *url.URL
	httpClient *resty.Client
	closeOnce  sync.Once
}

// NewSessionFactory returns a factory producing sessions configured from cfg.
func NewSessionFactory(cfg config.ShopConfig) SessionFactory {
	return func() Session {
		return NewSession(cfg)
	}
}

// NewSession builds a session with a browser-like header set.
func NewSession(cfg config.ShopConfig) Session {
	timeout := time.Duration(cfg.Timeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(cfg.MaxRetries).
		SetRetryWaitTime(2*time.Second).
		SetRetryMaxWaitTime(10*time.Second).
		SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)).
		SetHeader("User-Agent", cfg.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,image/apng,*/*;q=0.8").
		SetHeader("Accept-Language", cfg.AcceptLanguage).
		SetHeader("Connection", "keep-alive").
		SetHeader("Upgrade-Insecure-Requests", "1").
		SetHeader("Cache-Control", "max-age=0")

	rps := cfg.MaxRequestsPerSecond
	var rl ratelimit.Limiter
	if rps > 0 {
		rl = ratelimit.New(rps)
	} else {
		rl = ratelimit.NewUnlimited()
	}

	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/") + "/")
	if err != nil {
		log.Warnf("Invalid shop base URL %q: %v", cfg.BaseURL, err)
		base = &url.URL{}
	}

	return &shopSession{
		rl:         rl,
		config:     cfg,
		baseURL:    base,
		httpClient: client,
	}
}

func (s *shopSession) BaseURL() string {
	return strings.TrimRight(s.config.BaseURL, "/")
}

func (s *shopSession) ShopURL() string {
	return s.config.ShopURL()
}

func (s *shopSession) Connect(ctx context.Context) bool {
	resp, err := s.get(ctx, s.ShopURL())
	if err != nil {
		log.Errorf("❌ Connection to %s failed: %v", s.BaseURL(), err)
		return false
	}
	if resp.StatusCode() != http.StatusOK {
		log.Errorf("❌ Connection to %s failed: HTTP %d", s.BaseURL(), resp.StatusCode())
		return false
	}

	log.Infof("✅ Connected to %s", s.BaseURL())
	return true
}

func (s *shopSession) FetchDocument(ctx context.Context, pageURL string) *goquery.Document {
	resp, err := s.get(ctx, pageURL)
	if err != nil {
		log.Warnf("⚠️ Failed to fetch %s: %v", pageURL, err)
		metrics.ObservePage("error")
		return nil
	}
	if resp.StatusCode() != http.StatusOK {
		log.Warnf("⚠️ HTTP %d for %s", resp.StatusCode(), pageURL)
		metrics.ObservePage(fmt.Sprintf("http_%d", resp.StatusCode()))
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(resp.Bytes()))
	if err != nil {
		log.Warnf("⚠️ Failed to parse HTML from %s: %v", pageURL, err)
		metrics.ObservePage("parse_error")
		return nil
	}

	metrics.ObservePage("ok")
	return doc
}

func (s *shopSession) Download(ctx context.Context, resourceURL string) ([]byte, string, error) {
	resp, err := s.get(ctx, resourceURL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch %s: %w", resourceURL, err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, "", fmt.Errorf("HTTP error: %d %s", resp.StatusCode(), resp.Status())
	}

	body := resp.Bytes()
	if len(body) == 0 {
		return nil, "", fmt.Errorf("empty body for %s", resourceURL)
	}

	return body, resp.Header().Get("Content-Type"), nil
}

func (s *shopSession) Resolve(href string) string {
	return ResolveURL(s.baseURL, href)
}

func (s *shopSession) Close() {
	s.closeOnce.Do(func() {
		if err := s.httpClient.Close(); err != nil {
			log.Debugf("Closing HTTP session: %v", err)
		}
		log.Debug("HTTP session closed")
	})
}

func (s *shopSession) get(ctx context.Context, target string) (*resty.Response, error) {
	s.rl.Take()

	resp, err := s.httpClient.R().
		SetContext(ctx).
		Get(target)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("request cancelled: %w", ctx.Err())
		}
		return nil, fmt.Errorf("failed to fetch URL: %w", err)
	}

	return resp, nil
}

// ResolveURL resolves href against base; absolute hrefs are returned unchanged.
func ResolveURL(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" {
		return ""
	}
	ref, err := url.Parse(href)
	if err != nil {
		return href
	}
	if base == nil {
		return ref.String()
	}
	return base.ResolveReference(ref).String()
}

package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"time"

	apperrors "bilimusic/internal/infrastructure/errors"
	"bilimusic/internal/infrastructure/logging"

	"github.com/gocolly/colly/v2"
)

// ClientConfig configures the HTTP collectors used by the API clients
type ClientConfig struct {
	BaseURL   string
	UserAgent string
	Timeout   time.Duration
	Referer   string
	Retry     *apperrors.RetryConfig
	Transport http.RoundTripper
}

// fetchResult is one completed HTTP exchange
type fetchResult struct {
	Body       []byte
	StatusCode int
	FinalURL   *url.URL
}

// apiEnvelope is the common {code, message, data} shape of JSON APIs
type apiEnvelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// apiClient issues requests through a colly collector. Each request runs on
// a clone so that callbacks never leak between requests.
type apiClient struct {
	collector *colly.Collector
	cfg       ClientConfig
	logger    logging.Logger
}

func newAPIClient(cfg ClientConfig, logger logging.Logger) *apiClient {
	if logger == nil {
		logger = logging.NopLogger{}
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.Retry == nil {
		cfg.Retry = apperrors.DefaultRetryConfig()
	}

	c := colly.NewCollector(
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.MaxBodySize(0),
	)
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	c.SetRequestTimeout(cfg.Timeout)
	if cfg.Transport != nil {
		c.WithTransport(cfg.Transport)
	}

	return &apiClient{collector: c, cfg: cfg, logger: logger}
}

// endpoint joins the base URL with path and query
func (a *apiClient) endpoint(path string, query url.Values) string {
	u := a.cfg.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// fetch performs a single request without retries
func (a *apiClient) fetch(ctx context.Context, op, method, rawURL string) (*fetchResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperrors.WrapTransportError(op, rawURL, err)
	}

	c := a.collector.Clone()

	var (
		result    fetchResult
		errStatus int
	)
	c.OnRequest(func(r *colly.Request) {
		if ctx.Err() != nil {
			r.Abort()
			return
		}
		if a.cfg.Referer != "" {
			r.Headers.Set("Referer", a.cfg.Referer)
		}
		r.Headers.Set("Accept", "application/json, text/plain, */*")
	})
	c.OnResponse(func(r *colly.Response) {
		result.Body = r.Body
		result.StatusCode = r.StatusCode
		result.FinalURL = r.Request.URL
	})
	c.OnError(func(r *colly.Response, err error) {
		if r != nil {
			errStatus = r.StatusCode
		}
	})

	var err error
	switch method {
	case http.MethodHead:
		err = c.Head(rawURL)
	default:
		err = c.Visit(rawURL)
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err != nil {
		if errStatus >= 400 && errStatus < 500 {
			return nil, apperrors.NewAppErrorWithContext(op, err, apperrors.ErrCodeUpstream, map[string]string{
				"url":    rawURL,
				"status": http.StatusText(errStatus),
			})
		}
		return nil, apperrors.WrapTransportError(op, rawURL, err)
	}
	return &result, nil
}

// get performs a GET with retries on transport failures
func (a *apiClient) get(ctx context.Context, op, rawURL string) (*fetchResult, error) {
	var result *fetchResult
	err := apperrors.WithRetryContext(ctx, a.cfg.Retry, func() error {
		r, err := a.fetch(ctx, op, http.MethodGet, rawURL)
		if err != nil {
			return err
		}
		result = r
		return nil
	}, op)
	if err != nil {
		return nil, err
	}
	return result, nil
}

// getJSON decodes the body of a GET into out
func (a *apiClient) getJSON(ctx context.Context, op, rawURL string, out interface{}) error {
	res, err := a.get(ctx, op, rawURL)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(res.Body, out); err != nil {
		return apperrors.NewAppErrorWithContext(op, err, apperrors.ErrCodeUpstream, map[string]string{"url": rawURL})
	}
	return nil
}

// getAPI decodes an envelope response and unmarshals its data into out.
// A non-zero code becomes an UPSTREAM error.
func (a *apiClient) getAPI(ctx context.Context, op, rawURL string, out interface{}) error {
	var env apiEnvelope
	if err := a.getJSON(ctx, op, rawURL, &env); err != nil {
		return err
	}
	if env.Code != 0 {
		return apperrors.HandleUpstreamError(op, env.Code, env.Message)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return apperrors.NewAppErrorWithContext(op, err, apperrors.ErrCodeUpstream, map[string]string{"url": rawURL})
	}
	return nil
}

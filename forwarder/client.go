package forwarder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
)

// ErrNotConfigured means the site descriptor lacks an endpoint path for
// the requested operation.
var ErrNotConfigured = errors.New("forwarder: endpoint not configured")

// Result is the upstream site's reply, relayed to the caller unmodified.
type Result struct {
	StatusCode  int
	Body        []byte
	ContentType string
}

// Client proxies webhook bodies to a remote site's own backend. The body
// is forwarded verbatim so signature or casing quirks survive the hop.
type Client struct {
	http *http.Client
	log  *logrus.Entry
}

func NewClient() *Client {
	return &Client{
		http: &http.Client{},
		log:  logrus.WithField("component", "forwarder"),
	}
}

// Forward POSTs the raw body to the site's configured endpoint for the
// operation, honoring the site's timeout.
func (c *Client) Forward(ctx context.Context, site *config.Site, endpoint config.Endpoint, contentType string, body []byte) (*Result, error) {
	target := site.ExternalURL(endpoint)
	if target == "" {
		return nil, fmt.Errorf("%w: site %s, operation %s", ErrNotConfigured, site.Prefix, endpoint)
	}

	ctx, cancel := context.WithTimeout(ctx, site.ForwardTimeout())
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if contentType == "" {
		contentType = "application/json"
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		c.log.WithError(err).WithFields(logrus.Fields{
			"site":   site.Prefix,
			"target": target,
		}).Warn("forward failed")
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	return &Result{
		StatusCode:  resp.StatusCode,
		Body:        respBody,
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

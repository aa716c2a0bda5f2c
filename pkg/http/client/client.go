// Package client talks to a kubeingest render service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/pkg/errors"

	kierr "github.com/fluxcd/kubeingest/pkg/errors"
	transport "github.com/fluxcd/kubeingest/pkg/http"
	"github.com/fluxcd/kubeingest/pkg/http/httperror"
)

type Client struct {
	client   *http.Client
	router   *mux.Router
	endpoint string
}

func New(c *http.Client, router *mux.Router, endpoint string) *Client {
	if c == nil {
		c = http.DefaultClient
	}
	return &Client{
		client:   c,
		router:   router,
		endpoint: endpoint,
	}
}

// RenderOptions are given as query parameters to a render request.
type RenderOptions struct {
	Namespace   string
	Prefix      string
	KubeVersion string
}

func (c *Client) Ping(ctx context.Context) error {
	return c.Get(ctx, nil, transport.Ping)
}

func (c *Client) Version(ctx context.Context) (string, error) {
	var v string
	err := c.Get(ctx, &v, transport.Version)
	return v, err
}

func (c *Client) Kinds(ctx context.Context) ([]string, error) {
	var res []string
	err := c.Get(ctx, &res, transport.Kinds)
	return res, err
}

// Render sends the manifests to be rendered.
func (c *Client) Render(ctx context.Context, manifests []byte, opts RenderOptions) (transport.RenderResult, error) {
	var res transport.RenderResult
	u, err := transport.MakeURL(c.endpoint, c.router, transport.Render,
		"namespace", opts.Namespace,
		"prefix", opts.Prefix,
		"kubeVersion", opts.KubeVersion)
	if err != nil {
		return res, errors.Wrap(err, "constructing URL")
	}
	req, err := http.NewRequest("POST", u.String(), bytes.NewReader(manifests))
	if err != nil {
		return res, errors.Wrapf(err, "constructing request %s", u)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Content-Type", "application/yaml")
	req.Header.Set("Accept", "application/json")

	resp, err := c.executeRequest(req)
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return res, errors.Wrap(err, "decoding response from server")
	}
	return res, nil
}

// Get executes a get request against the server. it unmarshals the
// response into dest, if not nil.
func (c *Client) Get(ctx context.Context, dest interface{}, route string, queryParams ...string) error {
	u, err := transport.MakeURL(c.endpoint, c.router, route, queryParams...)
	if err != nil {
		return errors.Wrap(err, "constructing URL")
	}

	req, err := http.NewRequest("GET", u.String(), nil)
	if err != nil {
		return errors.Wrapf(err, "constructing request %s", u)
	}
	req = req.WithContext(ctx)
	req.Header.Set("Accept", "application/json")

	resp, err := c.executeRequest(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if dest != nil {
		if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
			return errors.Wrap(err, "decoding response from server")
		}
	}
	return nil
}

func (c *Client) executeRequest(req *http.Request) (*http.Response, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "executing HTTP request")
	}
	switch resp.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusNoContent, http.StatusAccepted:
		return resp, nil
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(err, "reading response body of error")
	}
	// Our own errors come as JSON; anything else, e.g., from a
	// proxy, is kept as the status and body.
	if strings.HasPrefix(resp.Header.Get(http.CanonicalHeaderKey("Content-Type")), "application/json") {
		var niceError kierr.Error
		if err := json.Unmarshal(body, &niceError); err == nil && niceError.Err != nil {
			return nil, &niceError
		}
	}
	return nil, &httperror.APIError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Body:       string(body),
	}
}

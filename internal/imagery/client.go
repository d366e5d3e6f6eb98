// apps/go-server/internal/imagery/client.go
//
// HTTP client for the Mapillary Graph API.
//   - Images: ids of street-level photos inside a bounding box.
//   - ThumbURL: 2048px thumbnail URL for a single image id.
//   - Download: copies a thumbnail (or any image URL) to a writer.
//
// Every call is bounded by the client timeout as well as the caller's context.
// Transport failures and non-2xx statuses are reported as ErrUnavailable.

package imagery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultBaseURL is the public Mapillary Graph API endpoint.
const DefaultBaseURL = "https://graph.mapillary.com"

var (
	ErrUnavailable = errors.New("imagery: service unavailable")
	ErrNoThumbnail = errors.New("imagery: image has no thumbnail")
)

// Client talks to the Graph API with a fixed access token.
type Client struct {
	baseURL string
	token   string
	hc      *http.Client
}

// NewClient builds a client. A zero timeout falls back to 5s.
func NewClient(baseURL, token string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		token:   token,
		hc:      &http.Client{Timeout: timeout},
	}
}

type imagesResponse struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// Images returns candidate image ids inside box. An empty result is not an error.
func (c *Client) Images(ctx context.Context, box BBox) ([]string, error) {
	q := url.Values{}
	q.Set("access_token", c.token)
	q.Set("fields", "id")
	q.Set("bbox", box.String())

	var body imagesResponse
	if err := c.getJSON(ctx, c.baseURL+"/images?"+q.Encode(), &body); err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(body.Data))
	for _, d := range body.Data {
		if d.ID != "" {
			ids = append(ids, d.ID)
		}
	}
	return ids, nil
}

// ThumbURL resolves the 2048px thumbnail URL of an image.
func (c *Client) ThumbURL(ctx context.Context, id string) (string, error) {
	q := url.Values{}
	q.Set("access_token", c.token)
	q.Set("fields", "thumb_2048_url")

	var body struct {
		URL string `json:"thumb_2048_url"`
	}
	if err := c.getJSON(ctx, c.baseURL+"/"+url.PathEscape(id)+"?"+q.Encode(), &body); err != nil {
		return "", err
	}
	if body.URL == "" {
		return "", ErrNoThumbnail
	}
	return body.URL, nil
}

// Download streams the resource at rawURL into w and returns the bytes written.
func (c *Client) Download(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	return io.Copy(w, resp.Body)
}

func (c *Client) getJSON(ctx context.Context, rawURL string, v any) error {
	resp, err := c.get(ctx, rawURL)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: decode response: %v", ErrUnavailable, err)
	}
	return nil
}

func (c *Client) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.hc.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, redact(err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		resp.Body.Close()
		return nil, fmt.Errorf("%w: status %d", ErrUnavailable, resp.StatusCode)
	}
	return resp, nil
}

// redact strips the query string (and with it the access token) from url errors.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		if u, perr := url.Parse(uerr.URL); perr == nil {
			u.RawQuery = ""
			return &url.Error{Op: uerr.Op, URL: u.String(), Err: uerr.Err}
		}
	}
	return err
}

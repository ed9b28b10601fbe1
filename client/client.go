// Package client talks to the storage/search service.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
)

// ErrNotFound is the service answer when no stored ciphertext matched.
var ErrNotFound = errors.New("message was not found")

type Client struct {
	base string
	http *http.Client
}

func New(baseURL string) *Client {
	return &Client{
		base: strings.TrimRight(baseURL, "/"),
		http: &http.Client{Timeout: 5 * time.Minute},
	}
}

// SearchResult mirrors the service response.
type SearchResult struct {
	CTout   []string `json:"CTout"`
	Scanned int      `json:"scanned"`
	Failed  int      `json:"failed"`
}

func (c *Client) Heartbeat(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/heartbeat", nil)
	if err != nil {
		return err
	}
	_, err = c.do(req)
	return err
}

func (c *Client) GlobalSetup(ctx context.Context, pp, msk []byte) error {
	files := map[string][]byte{"PP": pp}
	if msk != nil {
		files["MSK"] = msk
	}
	_, err := c.upload(ctx, "/global-setup", files)
	return err
}

func (c *Client) AuthoritySetup(ctx context.Context, id int, att, ask, apk []byte) error {
	files := map[string][]byte{"ATT": att, "APK": apk}
	if ask != nil {
		files["ASK"] = ask
	}
	_, err := c.upload(ctx, fmt.Sprintf("/authority-setup/%d", id), files)
	return err
}

// Store uploads a serialized ciphertext and returns its id.
func (c *Client) Store(ctx context.Context, ct []byte) (string, error) {
	body, err := c.upload(ctx, "/store", map[string][]byte{"CT": ct})
	if err != nil {
		return "", err
	}
	var resp struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", errors.Wrap(err, "store response")
	}
	return resp.ID, nil
}

// Search sends a trapdoor and transformation key. ErrNotFound means nothing matched.
func (c *Client) Search(ctx context.Context, td, tk []byte) (*SearchResult, error) {
	body, err := c.upload(ctx, "/search", map[string][]byte{"TD": td, "TK": tk})
	if err != nil {
		return nil, err
	}
	res := new(SearchResult)
	if err := json.Unmarshal(body, res); err != nil {
		return nil, errors.Wrap(err, "search response")
	}
	return res, nil
}

// Clear empties the ciphertext collection and returns how many were removed.
func (c *Client) Clear(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/clear-messages", nil)
	if err != nil {
		return 0, err
	}
	body, err := c.do(req)
	if err != nil {
		return 0, err
	}
	var resp struct {
		Removed int `json:"removed"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, errors.Wrap(err, "clear response")
	}
	return resp.Removed, nil
}

func (c *Client) upload(ctx context.Context, path string, files map[string][]byte) ([]byte, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for field, data := range files {
		fw, err := mw.CreateFormFile(field, field)
		if err != nil {
			return nil, err
		}
		if _, err := fw.Write(data); err != nil {
			return nil, err
		}
	}
	if err := mw.Close(); err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, &buf)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return c.do(req)
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrapf(err, "%s %s", req.Method, req.URL.Path)
	}
	switch {
	case resp.StatusCode == http.StatusNotFound && strings.HasSuffix(req.URL.Path, "/search"):
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		return nil, errors.Errorf("%s %s: %d %s", req.Method, req.URL.Path, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return body, nil
}

// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"medigenius/internal/prompt"
)

const (
	// maxImageBytes caps how much of an image response is read.
	maxImageBytes = 10 << 20
	// maxJSONBytes caps how much of an API response is read.
	maxJSONBytes = 1 << 20
)

// pollinations is the keyless free image adapter
// (GET /prompt/{prompt}?width=512&height=512&model=flux&nologo=true).
type pollinations struct {
	baseURL string
	style   string
	client  *http.Client
}

func newPollinations(baseURL, style string, client *http.Client) *pollinations {
	return &pollinations{baseURL: strings.TrimRight(baseURL, "/"), style: style, client: client}
}

func (p *pollinations) Name() AdapterID { return AdapterPollinations }

// GenerateImage wraps the prompt in healthcare styling and downloads the
// rendered image.
func (p *pollinations) GenerateImage(ctx context.Context, text string) (Image, error) {
	q := url.Values{}
	q.Set("width", "512")
	q.Set("height", "512")
	q.Set("model", "flux")
	q.Set("nologo", "true")

	endpoint := fmt.Sprintf("%s/prompt/%s?%s",
		p.baseURL, url.PathEscape(prompt.ImageStylePrompt(text, p.style)), q.Encode())

	return fetchImage(ctx, p.client, AdapterPollinations, endpoint, nil)
}

// Check renders a tiny 64x64 test image.
func (p *pollinations) Check(ctx context.Context) error {
	q := url.Values{}
	q.Set("width", "64")
	q.Set("height", "64")
	q.Set("nologo", "true")
	_, err := fetchImage(ctx, p.client, AdapterPollinations, p.baseURL+"/prompt/test?"+q.Encode(), nil)
	return err
}

// fetchImage downloads an image URL and validates that the body is an image.
func fetchImage(ctx context.Context, client *http.Client, id AdapterID, endpoint string, header http.Header) (Image, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return Image{}, NewError(KindTransport, id, "build request", err)
	}
	for k, vs := range header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return Image{}, classify(id, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes))
	if err != nil {
		return Image{}, classify(id, err)
	}

	if resp.StatusCode != http.StatusOK {
		return Image{}, classifyStatus(id, resp.StatusCode, string(body),
			fmt.Errorf("image fetch status %d", resp.StatusCode))
	}

	mime := resp.Header.Get("Content-Type")
	if i := strings.Index(mime, ";"); i >= 0 {
		mime = strings.TrimSpace(mime[:i])
	}
	if mime == "" {
		mime = http.DetectContentType(body)
	}
	if !strings.HasPrefix(mime, "image/") || len(body) == 0 {
		return Image{}, NewError(KindUnexpectedResponse, id,
			fmt.Sprintf("expected an image, got %q", mime), nil)
	}
	return Image{Data: body, MIMEType: mime}, nil
}

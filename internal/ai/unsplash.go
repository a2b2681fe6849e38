// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
)

// unsplash is the stock photo adapter. It searches for one landscape photo
// and downloads its small rendition.
type unsplash struct {
	accessKey string
	baseURL   string
	client    *http.Client
}

func newUnsplash(accessKey, baseURL string, client *http.Client) (*unsplash, error) {
	if accessKey == "" {
		return nil, NewError(KindMissingCredential, AdapterUnsplash, "access key is empty", nil)
	}
	return &unsplash{accessKey: accessKey, baseURL: strings.TrimRight(baseURL, "/"), client: client}, nil
}

func (u *unsplash) Name() AdapterID { return AdapterUnsplash }

func (u *unsplash) GenerateImage(ctx context.Context, prompt string) (Image, error) {
	q := url.Values{}
	q.Set("query", StockSearchQuery(prompt))
	q.Set("per_page", "1")
	q.Set("orientation", "landscape")

	body, err := u.get(ctx, "/search/photos", q)
	if err != nil {
		return Image{}, err
	}

	var result unsplashSearchResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return Image{}, NewError(KindUnexpectedResponse, AdapterUnsplash, "decode search response", err)
	}
	if len(result.Results) == 0 || result.Results[0].URLs.Small == "" {
		return Image{}, NewError(KindUnexpectedResponse, AdapterUnsplash, "no relevant images found", nil)
	}

	return fetchImage(ctx, u.client, AdapterUnsplash, result.Results[0].URLs.Small, nil)
}

// Check lists one editorial photo. /me needs a user token, so an access
// key alone is verified against a public listing.
func (u *unsplash) Check(ctx context.Context) error {
	q := url.Values{}
	q.Set("per_page", "1")
	_, err := u.get(ctx, "/photos", q)
	return err
}

// get sends an authenticated API request and returns the size-limited body
// of a 200 response.
func (u *unsplash) get(ctx context.Context, path string, q url.Values) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, NewError(KindTransport, AdapterUnsplash, "build request", err)
	}
	req.Header.Set("Authorization", "Client-ID "+u.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := u.client.Do(req)
	if err != nil {
		return nil, classify(AdapterUnsplash, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxJSONBytes))
	if err != nil {
		return nil, classify(AdapterUnsplash, err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, classifyStatus(AdapterUnsplash, resp.StatusCode, string(body),
			fmt.Errorf("unsplash %s status %d", path, resp.StatusCode))
	}
	return body, nil
}

var nonWord = regexp.MustCompile(`[^\w\s]`)

// StockSearchQuery turns an image prompt into a short stock photo query:
// "healthcare medical" plus the first three words longer than two letters.
func StockSearchQuery(prompt string) string {
	cleaned := nonWord.ReplaceAllString(strings.ToLower(prompt), " ")
	var keywords []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) > 2 {
			keywords = append(keywords, w)
		}
		if len(keywords) == 3 {
			break
		}
	}
	return strings.TrimSpace("healthcare medical " + strings.Join(keywords, " "))
}

// --- Unsplash API types ---

type unsplashURLs struct {
	Small string `json:"small"`
}

type unsplashPhoto struct {
	URLs unsplashURLs `json:"urls"`
}

type unsplashSearchResponse struct {
	Results []unsplashPhoto `json:"results"`
}

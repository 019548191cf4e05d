// Package translate implements the batch translation service: a two-tier
// cache (process memory, then the translation_cache table) in front of a
// DeepL-compatible HTTP provider, guarded by a circuit breaker. Provider
// failures are never surfaced to callers; untranslated source text is the
// fallback for every degraded path.
package translate

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Provider translates a batch of source strings into the target language.
// Implementations must return one result per input, in input order.
type Provider interface {
	TranslateBatch(ctx context.Context, texts []string, targetLang string) ([]string, error)
}

// DeepLClient calls a DeepL-style /v2/translate endpoint with form-encoded
// batches. The zero value is not usable; construct with NewDeepLClient.
type DeepLClient struct {
	baseURL string
	authKey string
	http    *http.Client
}

// NewDeepLClient builds a client for the given API base URL and key. The
// timeout bounds each provider call on the client side so a hung provider
// cannot pin request goroutines; breaker accounting depends on calls
// actually returning.
func NewDeepLClient(baseURL, authKey string, timeout time.Duration) *DeepLClient {
	return &DeepLClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		authKey: authKey,
		http:    &http.Client{Timeout: timeout},
	}
}

type deeplResponse struct {
	Translations []struct {
		DetectedSourceLanguage string `json:"detected_source_language"`
		Text                   string `json:"text"`
	} `json:"translations"`
}

// TranslateBatch sends one HTTP call for the whole batch. DeepL accepts the
// text parameter repeated once per string and responds with translations in
// the same order.
func (d *DeepLClient) TranslateBatch(ctx context.Context, texts []string, targetLang string) ([]string, error) {
	form := url.Values{}
	form.Set("auth_key", d.authKey)
	form.Set("target_lang", strings.ToUpper(targetLang))
	for _, t := range texts {
		form.Add("text", t)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		d.baseURL+"/v2/translate", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := d.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("provider call: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("provider status %d", resp.StatusCode)
	}
	var body deeplResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("decode provider response: %w", err)
	}
	if len(body.Translations) != len(texts) {
		return nil, fmt.Errorf("provider returned %d translations for %d texts",
			len(body.Translations), len(texts))
	}
	out := make([]string, len(texts))
	for i, tr := range body.Translations {
		out[i] = tr.Text
	}
	return out, nil
}

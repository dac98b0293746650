// Copyright 2024-2026 Aiku AI

package puppet

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/gabriel-vasile/mimetype"
	"maunium.net/go/mautrix/id"
)

// FetchError means downloading a remote avatar failed, either on the wire or
// with a non-2xx status.
type FetchError struct {
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to download %s: %v", e.URL, e.Err)
	}
	return fmt.Sprintf("failed to download %s: HTTP %d", e.URL, e.StatusCode)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// ReuploadAvatar downloads the image at the given URL and re-hosts it on the
// homeserver through the given intent. The MIME type is sniffed from the
// downloaded bytes; the server-provided Content-Type header is not trusted.
// No retries: callers treat a failure as "avatar sync failed, try again on
// the next update". A nil client falls back to http.DefaultClient.
func ReuploadAvatar(ctx context.Context, client *http.Client, intent GhostIntent, url string) (id.ContentURI, error) {
	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return id.ContentURI{}, &FetchError{URL: url, Err: err}
	}
	resp, err := client.Do(req)
	if err != nil {
		return id.ContentURI{}, &FetchError{URL: url, Err: err}
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return id.ContentURI{}, &FetchError{URL: url, StatusCode: resp.StatusCode}
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return id.ContentURI{}, &FetchError{URL: url, Err: err}
	}

	mime := mimetype.Detect(data)
	uri, err := intent.UploadBytes(ctx, data, mime.String())
	if err != nil {
		return id.ContentURI{}, fmt.Errorf("failed to upload avatar: %w", err)
	}
	return uri, nil
}

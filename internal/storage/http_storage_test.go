package storage

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func pagePNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 4, 3))
	img.Set(1, 1, color.Black)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func fastOptions() HTTPFetcherOptions {
	opts := DefaultHTTPFetcherOptions()
	opts.Backoff = 10 * time.Millisecond
	return opts
}

func TestHTTPImageFetcher_RetryLogic(t *testing.T) {
	tests := []struct {
		name          string
		responses     []int // Status codes to return in sequence
		expectRetries int   // Expected number of requests
		expectError   bool
		errorContains string
	}{
		{
			name:          "Success on first attempt",
			responses:     []int{200},
			expectRetries: 1,
		},
		{
			name:          "Success on second attempt after 5xx",
			responses:     []int{500, 200},
			expectRetries: 2,
		},
		{
			name:          "4xx client error - no retry",
			responses:     []int{404},
			expectRetries: 1,
			expectError:   true,
			errorContains: "client error: status code 404",
		},
		{
			name:          "4xx after 5xx - should retry until 4xx then stop",
			responses:     []int{500, 404},
			expectRetries: 2,
			expectError:   true,
			errorContains: "client error: status code 404",
		},
		{
			name:          "All 5xx errors - retry all attempts",
			responses:     []int{500, 502, 503},
			expectRetries: 3,
			expectError:   true,
			errorContains: "server error: status code 503",
		},
	}

	body := pagePNG(t)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var requestCount int32

			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				n := int(atomic.AddInt32(&requestCount, 1)) - 1
				if n >= len(tt.responses) {
					w.WriteHeader(500)
					return
				}
				if tt.responses[n] == 200 {
					w.Header().Set("Content-Type", "image/png")
					w.Write(body)
					return
				}
				w.WriteHeader(tt.responses[n])
				fmt.Fprintf(w, "Error %d", tt.responses[n])
			}))
			defer server.Close()

			fetcher := NewHTTPImageFetcherWithOptions(fastOptions())
			img, err := fetcher.FetchImage(context.Background(), server.URL)

			if got := int(atomic.LoadInt32(&requestCount)); got != tt.expectRetries {
				t.Errorf("Expected %d requests, got %d", tt.expectRetries, got)
			}

			if tt.expectError {
				if err == nil {
					t.Errorf("Expected error, but got none")
				} else if !strings.Contains(err.Error(), tt.errorContains) {
					t.Errorf("Expected error to contain '%s', got: %s", tt.errorContains, err.Error())
				}
				return
			}
			if err != nil {
				t.Fatalf("Expected no error, got: %s", err.Error())
			}
			if img.Bounds().Dx() != 4 || img.Bounds().Dy() != 3 {
				t.Errorf("Expected 4x3 image, got %v", img.Bounds())
			}
		})
	}
}

func TestHTTPImageFetcher_NetworkError_Retry(t *testing.T) {
	var requestCount int32
	body := pagePNG(t)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&requestCount, 1) < 3 {
			// drop the connection
			if hj, ok := w.(http.Hijacker); ok {
				conn, _, _ := hj.Hijack()
				conn.Close()
			}
			return
		}
		w.Header().Set("Content-Type", "image/png")
		w.Write(body)
	}))
	defer server.Close()

	fetcher := NewHTTPImageFetcherWithOptions(fastOptions())

	start := time.Now()
	_, err := fetcher.FetchImage(context.Background(), server.URL)
	duration := time.Since(start)

	if err != nil {
		t.Errorf("Expected success after retries, got error: %s", err.Error())
	}
	if got := atomic.LoadInt32(&requestCount); got != 3 {
		t.Errorf("Expected 3 requests, got %d", got)
	}
	// 10ms + 20ms of backoff
	if duration < 30*time.Millisecond {
		t.Errorf("Expected backoff between attempts, took %v", duration)
	}
}

func TestHTTPImageFetcher_NotAnImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not a page</html>"))
	}))
	defer server.Close()

	_, err := NewHTTPImageFetcherWithOptions(fastOptions()).FetchImage(context.Background(), server.URL)
	if err == nil || !strings.Contains(err.Error(), "failed to decode image") {
		t.Errorf("Expected decode error, got %v", err)
	}
}

func TestHTTPImageFetcher_CanceledDuringBackoff(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(503)
	}))
	defer server.Close()

	opts := DefaultHTTPFetcherOptions()
	opts.Backoff = time.Minute
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := NewHTTPImageFetcherWithOptions(opts).FetchImage(ctx, server.URL)
	if err != context.DeadlineExceeded {
		t.Errorf("Expected deadline exceeded, got %v", err)
	}
}

func TestParseBlobURL(t *testing.T) {
	tests := []struct {
		url       string
		container string
		blob      string
		wantErr   bool
	}{
		{url: "https://acct.blob.core.windows.net/pages/ch1/p01.png", container: "pages", blob: "ch1/p01.png"},
		{url: "https://acct.blob.core.windows.net/pages?blob=p02.png", container: "pages", blob: "p02.png"},
		{url: "https://acct.blob.core.windows.net/pages", wantErr: true},
		{url: "https://acct.blob.core.windows.net/", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			container, blob, err := ParseBlobURL(tt.url)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected error for %s", tt.url)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if container != tt.container || blob != tt.blob {
				t.Errorf("Expected %s/%s, got %s/%s", tt.container, tt.blob, container, blob)
			}
		})
	}
}

func TestBlobAccount(t *testing.T) {
	tests := []struct {
		host    string
		account string
		ok      bool
	}{
		{host: "acct.blob.core.windows.net", account: "acct", ok: true},
		{host: "Scans.Blob.Core.Windows.Net", account: "scans", ok: true},
		{host: "blob.core.windows.net"},
		{host: "evil.acct.blob.core.windows.net"},
		{host: "example.com"},
	}

	for _, tt := range tests {
		account, ok := BlobAccount(tt.host)
		if ok != tt.ok || account != tt.account {
			t.Errorf("BlobAccount(%q) = %q, %v; expected %q, %v", tt.host, account, ok, tt.account, tt.ok)
		}
	}
}

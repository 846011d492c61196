package illustrating

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"
	"time"

	"eduassist/internal/config"
	"eduassist/internal/services"
)

const maxImageBytes = 20 << 20

// PhotoSource finds stock photos for a search query; the Unsplash client
// satisfies it.
type PhotoSource interface {
	Available() bool
	RandomPhotoURL(ctx context.Context, query string) (string, error)
}

type unsplashClient struct {
	baseURL   string
	accessKey string
	client    *http.Client
}

func newUnsplashClient(cfg config.Unsplash) *unsplashClient {
	timeout := time.Duration(cfg.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		base = "https://api.unsplash.com"
	}
	return &unsplashClient{
		baseURL:   base,
		accessKey: strings.TrimSpace(cfg.AccessKey),
		client:    &http.Client{Timeout: timeout},
	}
}

func (u *unsplashClient) Available() bool {
	return u != nil && u.accessKey != ""
}

// RandomPhotoURL asks Unsplash for one landscape photo matching the query and
// returns its download URL.
func (u *unsplashClient) RandomPhotoURL(ctx context.Context, query string) (string, error) {
	endpoint := fmt.Sprintf("%s/photos/random?query=%s&orientation=landscape", u.baseURL, url.QueryEscape(query))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "illustrating", "build photo request",
			"Failed to build Unsplash request", err)
	}
	req.Header.Set("Authorization", "Client-ID "+u.accessKey)
	req.Header.Set("Accept-Version", "v1")

	resp, err := u.client.Do(req)
	if err != nil {
		return "", services.Wrap(services.ErrTransient, "illustrating", "fetch photo",
			fmt.Sprintf("Unsplash request failed for %q", query), err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", services.Wrap(services.ErrProvider, "illustrating", "fetch photo",
			fmt.Sprintf("Unsplash returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body))), nil)
	}

	var decoded struct {
		URLs struct {
			Regular string `json:"regular"`
			Full    string `json:"full"`
		} `json:"urls"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", services.Wrap(services.ErrProvider, "illustrating", "decode photo",
			"Unsplash returned malformed JSON", err)
	}
	photo := decoded.URLs.Regular
	if photo == "" {
		photo = decoded.URLs.Full
	}
	if photo == "" {
		return "", services.Wrap(services.ErrProvider, "illustrating", "decode photo",
			fmt.Sprintf("Unsplash returned no photo URL for %q", query), nil)
	}
	return photo, nil
}

// download fetches an image URL into target, removing partial files on error.
func (il *Illustrator) download(ctx context.Context, imageURL, target string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return services.Wrap(services.ErrTransient, "illustrating", "build image request",
			"Failed to build image download request", err)
	}
	client := il.httpClient()
	resp, err := client.Do(req)
	if err != nil {
		return services.Wrap(services.ErrTransient, "illustrating", "download image",
			"Image download failed", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return services.Wrap(services.ErrTransient, "illustrating", "download image",
			fmt.Sprintf("Image download returned status %d", resp.StatusCode), nil)
	}

	out, err := os.Create(target)
	if err != nil {
		return services.Wrap(services.ErrTransient, "illustrating", "write image",
			"Failed to create image file", err)
	}
	if _, err := io.Copy(out, io.LimitReader(resp.Body, maxImageBytes)); err != nil {
		out.Close()
		os.Remove(target)
		return services.Wrap(services.ErrTransient, "illustrating", "write image",
			"Failed to write image file", err)
	}
	if err := out.Close(); err != nil {
		os.Remove(target)
		return services.Wrap(services.ErrTransient, "illustrating", "write image",
			"Failed to finalize image file", err)
	}
	return nil
}

func (il *Illustrator) httpClient() *http.Client {
	if source, ok := il.photos.(*unsplashClient); ok && source != nil && source.client != nil {
		return source.client
	}
	if il.cfg != nil && il.cfg.Unsplash.TimeoutSeconds > 0 {
		return &http.Client{Timeout: time.Duration(il.cfg.Unsplash.TimeoutSeconds) * time.Second}
	}
	return &http.Client{Timeout: 15 * time.Second}
}

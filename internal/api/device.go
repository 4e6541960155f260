package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// DeviceIdentity reports the attached device's full part number.
type DeviceIdentity interface {
	PartNumber(ctx context.Context) (string, error)
}

// ConfigPrimer prepares the backend's configuration cache. It must finish
// before the repository is fetched.
type ConfigPrimer interface {
	Prime(ctx context.Context) error
}

// StaticIdentity is a part number supplied by configuration.
type StaticIdentity string

// PartNumber implements DeviceIdentity.
func (s StaticIdentity) PartNumber(context.Context) (string, error) {
	if strings.TrimSpace(string(s)) == "" {
		return "", fmt.Errorf("%w: empty part number", ErrPartNumber)
	}
	return string(s), nil
}

// HTTPIdentity reads the part number from a backend path.
type HTTPIdentity struct {
	Client *Client
	Path   string
}

// PartNumber implements DeviceIdentity. The body may be a bare string or a
// JSON string.
func (h HTTPIdentity) PartNumber(ctx context.Context) (string, error) {
	body, err := h.Client.do(ctx, http.MethodGet, h.Client.URL(h.Path), "", nil)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrPartNumber, err)
	}
	raw := strings.TrimSpace(string(body))
	var s string
	if json.Unmarshal(body, &s) == nil {
		raw = strings.TrimSpace(s)
	}
	if raw == "" {
		return "", fmt.Errorf("%w: empty response", ErrPartNumber)
	}
	return raw, nil
}

// NoopPrimer does nothing.
type NoopPrimer struct{}

// Prime implements ConfigPrimer.
func (NoopPrimer) Prime(context.Context) error { return nil }

// HTTPPrimer posts to a backend path to prime the config cache.
type HTTPPrimer struct {
	Client *Client
	Path   string
}

// Prime implements ConfigPrimer.
func (p HTTPPrimer) Prime(ctx context.Context) error {
	if _, err := p.Client.do(ctx, http.MethodPost, p.Client.URL(p.Path), "", nil); err != nil {
		return fmt.Errorf("%w: %w", ErrPrimeConfig, err)
	}
	return nil
}

// NormalizePartNumber replaces spaces with dashes and returns the full part
// number and the short display form before the first dash.
func NormalizePartNumber(raw string) (full, display string) {
	full = strings.ReplaceAll(strings.TrimSpace(raw), " ", "-")
	display, _, _ = strings.Cut(full, "-")
	return full, display
}

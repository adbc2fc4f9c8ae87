package compositor

import (
	"context"
	"fmt"
	"image"
	"net/http"

	// Register decoders for the image formats logo URLs may point at.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// Resolver turns a logo image address into a decoded image.
// Resolution is asynchronous with respect to scene rebuilds; results arriving
// after the owning scene was replaced are discarded by the surface.
type Resolver interface {
	Resolve(ctx context.Context, url string) (image.Image, error)
}

// HTTPResolver fetches logo images over HTTP. No validation or allow-list is
// applied to the address.
type HTTPResolver struct {
	Client *http.Client
}

// Resolve implements Resolver.
func (r *HTTPResolver) Resolve(ctx context.Context, url string) (image.Image, error) {
	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", url, err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("resolve %s: status %d", url, resp.StatusCode)
	}

	img, _, err := image.Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", url, err)
	}
	return img, nil
}

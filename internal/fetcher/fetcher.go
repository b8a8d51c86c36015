package fetcher

import (
	"context"

	"github.com/kpiotrowski/spizarka/internal/types"
)

// Fetcher retrieves documents over HTTP. Implementations handle their own
// retry policy; a returned error means the URL is not worth retrying again.
type Fetcher interface {
	// Fetch retrieves the content at the given URL.
	Fetch(ctx context.Context, rawURL string) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error
}

package loaders

import (
	"context"
	"strings"

	"github.com/bankgreen/bankmap/internal/transport"
	"github.com/bankgreen/bankmap/pkg/pipeline"
)

// Fetcher sends http(s) URLs through an HTTP client that asks for SPARQL
// JSON results and hands every other scheme to next.
func Fetcher(client *transport.Client, next pipeline.Fetcher) pipeline.Fetcher {
	if client == nil {
		client = transport.New(nil, "",
			transport.WithService("sources"),
			transport.WithAccept("application/sparql-results+json, application/json;q=0.9, */*;q=0.8"),
		)
	}
	if next == nil {
		next = pipeline.AFSFetcher()
	}
	return pipeline.FetcherFunc(func(ctx context.Context, url string) ([]byte, error) {
		if strings.HasPrefix(url, "http://") || strings.HasPrefix(url, "https://") {
			return client.Fetch(ctx, url)
		}
		return next.Fetch(ctx, url)
	})
}

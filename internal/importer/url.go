package importer

import (
	"context"
	"fmt"
	"net/url"
)

// URLImporter imports URLs visited by the spider
type URLImporter struct {
	store *Store
}

// NewURLImporter creates a URLImporter
func NewURLImporter(store *Store) *URLImporter {
	return &URLImporter{store: store}
}

// ImportURL records the URL along with its host name
func (i *URLImporter) ImportURL(ctx context.Context, u URL) error {
	parsed, err := url.Parse(u.URL)
	if err != nil || parsed.Hostname() == "" {
		return fmt.Errorf("invalid URL %q", u.URL)
	}

	return i.store.InTx(ctx, func(w *Writer) error {
		if err := w.UpsertHostName(ctx, parsed.Hostname(), ""); err != nil {
			return err
		}
		return w.UpsertURL(ctx, u)
	})
}

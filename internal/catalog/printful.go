package catalog

import (
	"context"
	"strconv"

	"github.com/praytees/storefront/pkg/printful"
)

// PrintfulAPI is the subset of the Printful client the catalog reads.
type PrintfulAPI interface {
	ListAllStoreProducts(ctx context.Context) ([]printful.SyncProduct, error)
	GetStoreProduct(ctx context.Context, id string) (*printful.ProductDetail, error)
}

// PrintfulFetcher adapts the Printful store endpoints to Fetcher.
type PrintfulFetcher struct {
	api PrintfulAPI
}

// NewPrintfulFetcher wraps api.
func NewPrintfulFetcher(api PrintfulAPI) *PrintfulFetcher {
	return &PrintfulFetcher{api: api}
}

// ListProducts implements Fetcher. Listing rows only carry a variant count.
func (f *PrintfulFetcher) ListProducts(ctx context.Context) ([]RawProduct, error) {
	products, err := f.api.ListAllStoreProducts(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]RawProduct, 0, len(products))
	for _, p := range products {
		out = append(out, RawProduct{
			ID:           ProductID(strconv.FormatInt(p.ID, 10)),
			ExternalID:   p.ExternalID,
			Name:         p.Name,
			Variants:     VariantCount(p.Variants),
			Synced:       p.Synced,
			ThumbnailURL: p.ThumbnailURL,
			Ignored:      p.IsIgnored,
		})
	}
	return out, nil
}

// ProductVariants implements Fetcher.
func (f *PrintfulFetcher) ProductVariants(ctx context.Context, id ProductID) ([]Variant, error) {
	detail, err := f.api.GetStoreProduct(ctx, id.String())
	if err != nil {
		return nil, err
	}
	variants := make([]Variant, 0, len(detail.SyncVariants))
	for _, sv := range detail.SyncVariants {
		variants = append(variants, fromSyncVariant(sv))
	}
	return variants, nil
}

func fromSyncVariant(sv printful.SyncVariant) Variant {
	files := make([]VariantFile, 0, len(sv.Files))
	for _, f := range sv.Files {
		files = append(files, VariantFile{Type: f.Type, PreviewURL: f.PreviewURL, ThumbnailURL: f.ThumbnailURL})
	}
	return Variant{
		ID:               sv.ID,
		ExternalID:       sv.ExternalID,
		CatalogVariantID: sv.VariantID,
		Name:             sv.Name,
		Size:             sv.Size,
		Color:            sv.Color,
		RetailPrice:      sv.RetailPrice,
		Currency:         sv.Currency,
		SKU:              sv.SKU,
		Files:            files,
		Synced:           sv.Synced,
		Ignored:          sv.IsIgnored,
	}
}

package catalog

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ProductView is the storefront rendering of a catalog product.
type ProductView struct {
	ID                  string                     `json:"id"`
	Name                string                     `json:"name"`
	Price               decimal.Decimal            `json:"price"`
	Image               string                     `json:"image"`
	Description         string                     `json:"description"`
	Sizes               []string                   `json:"sizes"`
	Colors              []string                   `json:"colors"`
	Category            string                     `json:"category"`
	PrintfulID          string                     `json:"printful_id"`
	DefaultVariantID    int64                      `json:"default_variant_id"`
	VariantMapping      map[string]int64           `json:"variant_mapping"`
	ColorImageMapping   map[string]string          `json:"color_image_mapping"`
	VariantPriceMapping map[string]decimal.Decimal `json:"variant_price_mapping"`
	Variants            []Variant                  `json:"all_variants,omitempty"`
}

// View builds the view model for p. withVariants controls whether the raw
// variant list is embedded.
func (r *Resolver) View(p *Product, withVariants bool) ProductView {
	idx := r.indexes.Get(p)
	view := ProductView{
		ID:                  p.ID.String(),
		Name:                p.Name,
		Price:               r.BasePrice(p),
		Image:               mainImage(p),
		Description:         "Premium quality " + strings.ToLower(p.Name) + " with faith-based design.",
		Sizes:               idx.Sizes,
		Colors:              idx.Colors,
		Category:            Category(p.Name),
		PrintfulID:          p.ID.String(),
		DefaultVariantID:    DefaultVariantID,
		VariantMapping:      idx.VariantIDs,
		ColorImageMapping:   idx.ColorImages,
		VariantPriceMapping: idx.Prices,
	}
	if p.FirstVariant != nil && p.FirstVariant.ID != 0 {
		view.DefaultVariantID = p.FirstVariant.ID
	}
	if withVariants {
		view.Variants = p.Variants
	}
	return view
}

// Category buckets a product by its display name. Matching is case sensitive
// apart from the explicit alternatives.
func Category(name string) string {
	switch {
	case strings.Contains(name, "t-shirt"), strings.Contains(name, "tee"), strings.Contains(name, "Tee"):
		return "Tees"
	case strings.Contains(name, "Hoodie"), strings.Contains(name, "hoodie"):
		return "Hoodies"
	case strings.Contains(name, "Tank"), strings.Contains(name, "tank"):
		return "Tanks"
	default:
		return "Apparel"
	}
}

func mainImage(p *Product) string {
	if p.FirstVariant != nil {
		if url := p.FirstVariant.PreviewURL(); url != "" {
			return url
		}
	}
	if p.ThumbnailURL != "" {
		return p.ThumbnailURL
	}
	if p.Image != "" {
		return p.Image
	}
	return PlaceholderImage
}

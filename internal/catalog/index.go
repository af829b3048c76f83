package catalog

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/praytees/storefront/pkg/money"
)

const (
	// DefaultVariantID is ordered when nothing better is known.
	DefaultVariantID int64 = 2
	// HoodieVariantID replaces DefaultVariantID for hoodie products.
	HoodieVariantID int64 = 202

	defaultDimension = "default"
)

var (
	defaultSizes  = []string{"XS", "S", "M", "L", "XL", "XXL"}
	defaultColors = []string{"Black", "White", "Navy"}
)

// VariantIndex holds the lookup tables derived from a product's variants.
type VariantIndex struct {
	Sizes       []string
	Colors      []string
	VariantIDs  map[string]int64
	ColorImages map[string]string
	Prices      map[string]decimal.Decimal
}

// VariantKey joins size and color, substituting "default" for a missing side.
func VariantKey(size, color string) string {
	if size == "" {
		size = defaultDimension
	}
	if color == "" {
		color = defaultDimension
	}
	return size + "-" + color
}

// BuildIndex derives the size, color, id, image and price tables for p.
// Duplicate (size, color) pairs resolve to the last variant seen.
func BuildIndex(p *Product) VariantIndex {
	idx := VariantIndex{
		VariantIDs:  map[string]int64{},
		ColorImages: map[string]string{},
		Prices:      map[string]decimal.Decimal{},
	}
	if p == nil {
		idx.Sizes = append([]string(nil), defaultSizes...)
		idx.Colors = append([]string(nil), defaultColors...)
		idx.VariantIDs[VariantKey("", "")] = DefaultVariantID
		return idx
	}

	seenSize := map[string]struct{}{}
	seenColor := map[string]struct{}{}
	for _, v := range p.Variants {
		size := strings.TrimSpace(v.Size)
		color := strings.TrimSpace(v.Color)

		if size != "" {
			if _, ok := seenSize[size]; !ok {
				seenSize[size] = struct{}{}
				idx.Sizes = append(idx.Sizes, size)
			}
		}
		if color != "" {
			if _, ok := seenColor[color]; !ok {
				seenColor[color] = struct{}{}
				idx.Colors = append(idx.Colors, color)
			}
			if preview := v.PreviewURL(); preview != "" {
				idx.ColorImages[color] = preview
			}
		}

		idx.VariantIDs[VariantKey(size, color)] = v.ID

		if size != "" && color != "" {
			if price, ok := money.Parse(v.RetailPrice); ok {
				idx.Prices[VariantKey(size, color)] = price
			}
		}
	}

	sort.Strings(idx.Sizes)
	if len(idx.Sizes) == 0 {
		idx.Sizes = append([]string(nil), defaultSizes...)
	}
	if len(idx.Colors) == 0 {
		idx.Colors = append([]string(nil), defaultColors...)
	}
	if len(p.Variants) == 0 {
		id := DefaultVariantID
		if p.FirstVariant != nil && p.FirstVariant.ID != 0 {
			id = p.FirstVariant.ID
		}
		idx.VariantIDs[VariantKey("", "")] = id
	}
	return idx
}

// VariantID looks up the exact (size, color) entry.
func (idx VariantIndex) VariantID(size, color string) (int64, bool) {
	id, ok := idx.VariantIDs[VariantKey(size, color)]
	if !ok || id == 0 {
		return 0, false
	}
	return id, true
}

// Price looks up the exact (size, color) price entry.
func (idx VariantIndex) Price(size, color string) (decimal.Decimal, bool) {
	if size == "" || color == "" {
		return decimal.Zero, false
	}
	price, ok := idx.Prices[VariantKey(size, color)]
	return price, ok
}

// ColorImage returns the preview image for color, if any.
func (idx VariantIndex) ColorImage(color string) (string, bool) {
	url, ok := idx.ColorImages[color]
	return url, ok
}

// FallbackVariantID returns the id ordered when a product has no usable mapping.
func FallbackVariantID(productName string) int64 {
	if strings.Contains(strings.ToLower(productName), "hoodie") {
		return HoodieVariantID
	}
	return DefaultVariantID
}

// ShippableVariantID resolves the variant sent to the fulfillment platform for
// a selection: exact mapping, then the default mapping, then the first
// variant, then the name fallback.
func ShippableVariantID(p *Product, idx VariantIndex, size, color string) int64 {
	if id, ok := idx.VariantID(size, color); ok {
		return id
	}
	if id := idx.VariantIDs[VariantKey("", "")]; id != 0 {
		return id
	}
	if p == nil {
		return DefaultVariantID
	}
	if p.FirstVariant != nil && p.FirstVariant.ID != 0 {
		return p.FirstVariant.ID
	}
	return FallbackVariantID(p.Name)
}

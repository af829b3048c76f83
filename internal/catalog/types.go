package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// ProductID identifies a catalog product. The fulfillment platform emits it as a
// number while the storefront passes it around as an opaque string.
type ProductID string

// UnmarshalJSON accepts both JSON numbers and strings.
func (p *ProductID) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		*p = ""
		return nil
	}
	if trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*p = ProductID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return fmt.Errorf("product id: %w", err)
	}
	*p = ProductID(n.String())
	return nil
}

// String implements fmt.Stringer.
func (p ProductID) String() string {
	return string(p)
}

// Int64 reports the numeric form of the id when it has one.
func (p ProductID) Int64() (int64, bool) {
	n, err := strconv.ParseInt(string(p), 10, 64)
	if err != nil {
		return 0, false
	}
	return n, true
}

// VariantFile is one of the print or preview files attached to a variant.
type VariantFile struct {
	Type         string `json:"type"`
	PreviewURL   string `json:"preview_url"`
	ThumbnailURL string `json:"thumbnail_url,omitempty"`
}

// Variant is a purchasable size/color combination of a product.
type Variant struct {
	ID               int64         `json:"id"`
	ExternalID       string        `json:"external_id,omitempty"`
	CatalogVariantID int64         `json:"variant_id,omitempty"`
	Name             string        `json:"name"`
	Size             string        `json:"size"`
	Color            string        `json:"color"`
	RetailPrice      string        `json:"retail_price"`
	Currency         string        `json:"currency"`
	SKU              string        `json:"sku,omitempty"`
	Files            []VariantFile `json:"files,omitempty"`
	Synced           bool          `json:"synced"`
	Ignored          bool          `json:"is_ignored"`
}

// PreviewURL returns the first preview file URL, if any.
func (v Variant) PreviewURL() string {
	for _, f := range v.Files {
		if f.Type == "preview" && f.PreviewURL != "" {
			return f.PreviewURL
		}
	}
	return ""
}

// Purchasable reports whether the variant is synced and not ignored.
func (v Variant) Purchasable() bool {
	return v.Synced && !v.Ignored
}

// VariantList is the raw variants field. Listing endpoints send a count,
// detail endpoints send the full array.
type VariantList struct {
	count  int
	list   []Variant
	isList bool
}

// VariantCount builds the count form.
func VariantCount(n int) VariantList {
	return VariantList{count: n}
}

// VariantsOf builds the list form.
func VariantsOf(variants ...Variant) VariantList {
	return VariantList{list: variants, isList: true}
}

// Count returns the advertised count and whether the value is the count form.
func (l VariantList) Count() (int, bool) {
	if l.isList {
		return len(l.list), false
	}
	return l.count, true
}

// IsList reports whether the variants were delivered inline.
func (l VariantList) IsList() bool {
	return l.isList
}

// List normalizes to the list form. The count form carries no variants.
func (l VariantList) List() []Variant {
	if !l.isList {
		return nil
	}
	out := make([]Variant, len(l.list))
	copy(out, l.list)
	return out
}

// UnmarshalJSON decodes either a JSON number or an array of variants.
func (l *VariantList) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0, bytes.Equal(trimmed, []byte("null")):
		*l = VariantList{}
		return nil
	case trimmed[0] == '[':
		var variants []Variant
		if err := json.Unmarshal(trimmed, &variants); err != nil {
			return fmt.Errorf("variants list: %w", err)
		}
		*l = VariantsOf(variants...)
		return nil
	default:
		var n int
		if err := json.Unmarshal(trimmed, &n); err != nil {
			return fmt.Errorf("variants count: %w", err)
		}
		*l = VariantCount(n)
		return nil
	}
}

// MarshalJSON writes the form the value was decoded from.
func (l VariantList) MarshalJSON() ([]byte, error) {
	if l.isList {
		if l.list == nil {
			return []byte("[]"), nil
		}
		return json.Marshal(l.list)
	}
	return json.Marshal(l.count)
}

// RawProduct is a product record as delivered by the fulfillment platform.
type RawProduct struct {
	ID           ProductID   `json:"id"`
	ExternalID   string      `json:"external_id,omitempty"`
	Name         string      `json:"name"`
	Variants     VariantList `json:"variants"`
	Synced       int         `json:"synced"`
	ThumbnailURL string      `json:"thumbnail_url,omitempty"`
	Ignored      bool        `json:"is_ignored"`
}

// Product is the normalized catalog record the pricing and cart code reads.
// It is replaced wholesale on every catalog refresh and never mutated.
type Product struct {
	ID           ProductID
	ExternalID   string
	Name         string
	Image        string
	ThumbnailURL string
	Variants     []Variant
	FirstVariant *Variant
}

// Normalize converts the wire record to a Product using the supplied detail
// variants. Inline variants on raw win over detail when both are present.
func Normalize(raw RawProduct, detail []Variant) *Product {
	variants := raw.Variants.List()
	if len(variants) == 0 {
		variants = append([]Variant(nil), detail...)
	}
	p := &Product{
		ID:           raw.ID,
		ExternalID:   raw.ExternalID,
		Name:         raw.Name,
		ThumbnailURL: raw.ThumbnailURL,
		Variants:     variants,
	}
	p.FirstVariant = pickFirstVariant(variants)
	p.Image = p.ThumbnailURL
	if p.Image == "" && p.FirstVariant != nil {
		p.Image = p.FirstVariant.PreviewURL()
	}
	if p.Image == "" {
		p.Image = PlaceholderImage
	}
	return p
}

// PlaceholderImage is shown when neither the product nor its variants carry an image.
const PlaceholderImage = "https://images.unsplash.com/photo-1521572163474-6864f9cf17ab?ixlib=rb-4.0.3&auto=format&fit=crop&w=1000&q=80"

func pickFirstVariant(variants []Variant) *Variant {
	if len(variants) == 0 {
		return nil
	}
	for i := range variants {
		if variants[i].Purchasable() {
			v := variants[i]
			return &v
		}
	}
	v := variants[0]
	return &v
}

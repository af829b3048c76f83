package productsync

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/praytees/storefront/internal/catalog"
	"github.com/praytees/storefront/pkg/db/models"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
	"github.com/praytees/storefront/pkg/metrics"
	"github.com/praytees/storefront/pkg/money"
)

// JobName labels the sync in logs and job metrics.
const JobName = "product-sync"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Params groups the Syncer dependencies.
type Params struct {
	DB       txRunner
	Fetcher  catalog.Fetcher
	Resolver *catalog.Resolver
	Metrics  *metrics.JobMetrics
	Logger   *logger.Logger
	Clock    func() time.Time
}

// Result summarizes one sync run.
type Result struct {
	Products int `json:"products"`
	Variants int `json:"variants"`
	Skipped  int `json:"skipped"`
	Failed   int `json:"failed"`
}

// Syncer mirrors the fulfillment platform's store products into the
// products and product_variants tables.
type Syncer struct {
	db       txRunner
	fetcher  catalog.Fetcher
	resolver *catalog.Resolver
	metrics  *metrics.JobMetrics
	logg     *logger.Logger
	now      func() time.Time
}

func NewSyncer(params Params) (*Syncer, error) {
	if params.DB == nil {
		return nil, errors.New("db runner required")
	}
	if params.Fetcher == nil {
		return nil, errors.New("catalog fetcher required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger required")
	}
	resolver := params.Resolver
	if resolver == nil {
		resolver = catalog.NewResolver(nil, nil)
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &Syncer{
		db:       params.DB,
		fetcher:  params.Fetcher,
		resolver: resolver,
		metrics:  params.Metrics,
		logg:     params.Logger,
		now:      clock,
	}, nil
}

// Name implements cron.Job.
func (s *Syncer) Name() string { return JobName }

// Run implements cron.Job.
func (s *Syncer) Run(ctx context.Context) error {
	_, err := s.Sync(ctx)
	return err
}

// Sync upserts every store product. A product that fails is logged and
// skipped; only a failed listing fails the run.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	var result Result
	err := s.metrics.Track(JobName, func() error {
		raws, err := s.fetcher.ListProducts(ctx)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list store products")
		}
		for _, raw := range raws {
			if raw.Ignored {
				result.Skipped++
				continue
			}
			n, err := s.syncProduct(ctx, raw)
			if err != nil {
				result.Failed++
				s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
					"product_id": raw.ID.String(),
					"error":      err.Error(),
				}), "product sync failed")
				continue
			}
			result.Products++
			result.Variants += n
		}
		return nil
	})
	if err != nil {
		return result, err
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"products": result.Products,
		"variants": result.Variants,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
	}), "product sync complete")
	return result, nil
}

func (s *Syncer) syncProduct(ctx context.Context, raw catalog.RawProduct) (int, error) {
	var detail []catalog.Variant
	if !raw.Variants.IsList() || len(raw.Variants.List()) == 0 {
		variants, err := s.fetcher.ProductVariants(ctx, raw.ID)
		if err != nil {
			return 0, err
		}
		detail = variants
	}
	product := catalog.Normalize(raw, detail)
	view := s.resolver.View(product, false)
	syncedAt := s.now().UTC()

	row := models.Product{
		ID:                uuid.New(),
		ExternalProductID: product.ID.String(),
		Name:              product.Name,
		Category:          view.Category,
		Description:       view.Description,
		ThumbnailURL:      optional(product.ThumbnailURL),
		BasePrice:         view.Price,
		Sizes:             view.Sizes,
		Colors:            view.Colors,
		SyncedAt:          syncedAt,
	}

	var written int
	err := s.db.WithTx(ctx, func(tx *gorm.DB) error {
		err := tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_product_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"name", "category", "description", "thumbnail_url",
				"base_price", "sizes", "colors", "synced_at", "updated_at",
			}),
		}).Create(&row).Error
		if err != nil {
			return err
		}

		var stored models.Product
		if err := tx.Where("external_product_id = ?", row.ExternalProductID).First(&stored).Error; err != nil {
			return err
		}

		variants := s.variantRows(stored.ID, product, view.Price)
		if len(variants) == 0 {
			return nil
		}
		err = tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "external_variant_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"product_id", "name", "size", "color", "retail_price",
				"currency", "preview_url", "synced", "ignored", "updated_at",
			}),
		}).Create(&variants).Error
		if err != nil {
			return err
		}

		keep := make([]string, 0, len(variants))
		for _, v := range variants {
			keep = append(keep, v.ExternalVariantID)
		}
		if err := tx.Where("product_id = ? AND external_variant_id NOT IN ?", stored.ID, keep).
			Delete(&models.ProductVariant{}).Error; err != nil {
			return err
		}
		written = len(variants)
		return nil
	})
	return written, err
}

func (s *Syncer) variantRows(productID uuid.UUID, product *catalog.Product, basePrice decimal.Decimal) []models.ProductVariant {
	rows := make([]models.ProductVariant, 0, len(product.Variants))
	for _, v := range product.Variants {
		if v.ID == 0 {
			continue
		}
		price, ok := money.Parse(v.RetailPrice)
		if !ok {
			price = basePrice
		}
		currency := strings.ToUpper(strings.TrimSpace(v.Currency))
		if currency == "" {
			currency = "USD"
		}
		rows = append(rows, models.ProductVariant{
			ID:                uuid.New(),
			ProductID:         productID,
			ExternalVariantID: strconv.FormatInt(v.ID, 10),
			Name:              v.Name,
			Size:              optional(v.Size),
			Color:             optional(v.Color),
			RetailPrice:       price,
			Currency:          currency,
			PreviewURL:        optional(v.PreviewURL()),
			Synced:            v.Synced,
			Ignored:           v.Ignored,
		})
	}
	return rows
}

func optional(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

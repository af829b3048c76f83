package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/praytees/storefront/api/responses"
	"github.com/praytees/storefront/api/validators"
	"github.com/praytees/storefront/internal/catalog"
	pkgerrors "github.com/praytees/storefront/pkg/errors"
	"github.com/praytees/storefront/pkg/logger"
)

type productSource interface {
	Products(ctx context.Context) []*catalog.Product
	Product(ctx context.Context, id catalog.ProductID) (*catalog.Product, bool)
}

// ProductList renders the catalog. ?category narrows to one bucket and
// ?variants=true embeds the raw variant list.
func ProductList(source productSource, resolver *catalog.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil || resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		withVariants, err := validators.ParseQueryBool(r, "variants")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		category := strings.TrimSpace(r.URL.Query().Get("category"))

		products := source.Products(r.Context())
		views := make([]catalog.ProductView, 0, len(products))
		for _, p := range products {
			if category != "" && !strings.EqualFold(catalog.Category(p.Name), category) {
				continue
			}
			views = append(views, resolver.View(p, withVariants))
		}

		responses.WriteSuccess(w, views)
	}
}

// ProductDetail renders one product including its variants.
func ProductDetail(source productSource, resolver *catalog.Resolver, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if source == nil || resolver == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "catalog unavailable"))
			return
		}

		id := strings.TrimSpace(chi.URLParam(r, "productId"))
		if id == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "product id is required"))
			return
		}

		product, ok := source.Product(r.Context(), catalog.ProductID(id))
		if !ok {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "product not found"))
			return
		}

		responses.WriteSuccess(w, resolver.View(product, true))
	}
}

package transport

import (
	"errors"
	"net/http"

	"products-api/internal/domain"
	"products-api/internal/middleware"
	"products-api/internal/repository"
	"products-api/internal/service"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// ProductRequest represents the create/update request payload. Fields are
// pointers so a missing field is distinguishable from a present zero value:
// price 0 and has_active_sale false are valid, an absent field is not.
type ProductRequest struct {
	Name          *string  `json:"name" validate:"required,min=1"`
	Price         *float64 `json:"price" validate:"required,gte=0"`
	Category      *string  `json:"category" validate:"required,category"`
	HasActiveSale *bool    `json:"has_active_sale" validate:"required"`
}

// toDomain converts a validated request into a domain product. The id is
// left unset; it is assigned by storage on create or pinned by the path on
// update.
func (req *ProductRequest) toDomain() *domain.Product {
	category, _ := domain.ParseCategory(*req.Category)
	return &domain.Product{
		Name:          *req.Name,
		Price:         *req.Price,
		Category:      category,
		HasActiveSale: *req.HasActiveSale,
	}
}

// ProductHandler handles HTTP requests for product operations
type ProductHandler struct {
	repo          repository.ProductRepository
	importService service.ImportService
	logger        *zap.Logger
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(repo repository.ProductRepository, importService service.ImportService, logger *zap.Logger) *ProductHandler {
	return &ProductHandler{
		repo:          repo,
		importService: importService,
		logger:        logger,
	}
}

// RegisterRoutes registers all product routes
func (h *ProductHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/products", func(r chi.Router) {
		r.Get("/", h.List)
		r.Post("/", h.Create)
		r.Post("/import/csv", h.ImportCSV)
		r.Get("/{id}", h.Get)
		r.Put("/{id}", h.Update)
		r.Delete("/{id}", h.Delete)
	})
}

// List handles GET /api/products
func (h *ProductHandler) List(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("Failed to list products", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to list products")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, products)
}

// Get handles GET /api/products/{id}
func (h *ProductHandler) Get(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")

	id, err := repository.ParseProductID(idParam)
	if err != nil {
		h.logger.Debug("Invalid product id", zap.String("id", idParam))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	product, err := h.repo.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to fetch product", zap.String("id", idParam), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to fetch product")
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, product)
}

// Create handles POST /api/products
func (h *ProductHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req ProductRequest

	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	product := req.toDomain()
	if err := h.repo.Create(r.Context(), product); err != nil {
		h.logger.Error("Failed to create product", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to create product")
		return
	}

	h.logger.Info("Product created", zap.String("id", product.ID.Hex()))
	middleware.RespondWithJSON(w, http.StatusCreated, product)
}

// Update handles PUT /api/products/{id}. The update is a full replacement;
// every field of the stored document takes the payload's value.
func (h *ProductHandler) Update(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")

	id, err := repository.ParseProductID(idParam)
	if err != nil {
		h.logger.Debug("Invalid product id", zap.String("id", idParam))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	var req ProductRequest
	if err := middleware.DecodeAndValidate(r, &req); err != nil {
		h.logger.Debug("Product validation failed", zap.Error(err))

		if validationErrors := middleware.FormatValidationErrors(err); len(validationErrors) > 0 {
			middleware.RespondWithValidationErrors(w, validationErrors)
			return
		}

		middleware.RespondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	updated, err := h.repo.Replace(r.Context(), id, req.toDomain())
	if err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to update product", zap.String("id", idParam), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to update product")
		return
	}

	h.logger.Info("Product updated", zap.String("id", idParam))
	middleware.RespondWithJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/products/{id}
func (h *ProductHandler) Delete(w http.ResponseWriter, r *http.Request) {
	idParam := chi.URLParam(r, "id")

	id, err := repository.ParseProductID(idParam)
	if err != nil {
		h.logger.Debug("Invalid product id", zap.String("id", idParam))
		middleware.RespondWithError(w, http.StatusBadRequest, "invalid product id")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, repository.ErrProductNotFound) {
			middleware.RespondWithError(w, http.StatusNotFound, "product not found")
			return
		}
		h.logger.Error("Failed to delete product", zap.String("id", idParam), zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to delete product")
		return
	}

	h.logger.Info("Product deleted", zap.String("id", idParam))
	w.WriteHeader(http.StatusNoContent)
}

// ImportCSV handles POST /api/products/import/csv. The CSV is uploaded as a
// multipart form with a "file" field.
func (h *ProductHandler) ImportCSV(w http.ResponseWriter, r *http.Request) {
	file, _, err := r.FormFile("file")
	if err != nil {
		h.logger.Debug("CSV upload missing file field", zap.Error(err))
		middleware.RespondWithError(w, http.StatusBadRequest, "missing file field")
		return
	}
	defer file.Close()

	result, err := h.importService.ImportCSV(r.Context(), file)
	if err != nil {
		h.logger.Error("CSV import failed", zap.Error(err))
		middleware.RespondWithError(w, http.StatusInternalServerError, "failed to import products")
		return
	}

	if len(result.Errors) > 0 {
		middleware.RespondWithJSON(w, http.StatusUnprocessableEntity, result)
		return
	}

	middleware.RespondWithJSON(w, http.StatusOK, result)
}

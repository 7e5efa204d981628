package http

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/domain"
	"github.com/VishalChauhan562/nemichand-handlooms-backend/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type CatalogService interface {
	CreateProduct(ctx context.Context, input service.ProductInput) (*domain.Product, error)
	CreateProductsBulk(ctx context.Context, inputs []service.ProductInput) ([]*domain.Product, error)
	UpdateProduct(ctx context.Context, p *domain.Product) error
	DeleteProduct(ctx context.Context, id int64) error
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	ListProducts(ctx context.Context, page, limit int) ([]*domain.Product, int, error)
}

type ProductHandler struct {
	catalog CatalogService
}

func NewProductHandler(catalog CatalogService) *ProductHandler {
	return &ProductHandler{catalog: catalog}
}

type ProductRequestDTO struct {
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	Stock       int             `json:"stock"`
	CategoryID  int64           `json:"category_id"`
	ImageURL    string          `json:"image_url"`
	IsActive    bool            `json:"is_active"`
	IsFeatured  bool            `json:"is_featured"`
}

type ProductListResponseDTO struct {
	Products []*domain.Product `json:"products"`
	Total    int               `json:"total"`
	Page     int               `json:"page"`
	Limit    int               `json:"limit"`
}

func (dto ProductRequestDTO) toInput() service.ProductInput {
	return service.ProductInput{
		Name:        dto.Name,
		Description: dto.Description,
		Price:       dto.Price,
		Stock:       dto.Stock,
		CategoryID:  dto.CategoryID,
		ImageURL:    dto.ImageURL,
		IsActive:    dto.IsActive,
		IsFeatured:  dto.IsFeatured,
	}
}

func (dto ProductRequestDTO) validate() []string {
	var violations []string
	if dto.Name == "" {
		violations = append(violations, "name is required")
	}
	if dto.Price.IsNegative() || dto.Price.IsZero() {
		violations = append(violations, "price must be positive")
	}
	if dto.Stock < 0 {
		violations = append(violations, "stock must not be negative")
	}
	if dto.CategoryID <= 0 {
		violations = append(violations, "category_id is required")
	}
	return violations
}

// GET /api/v1/products
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 10
	}

	products, total, err := h.catalog.ListProducts(r.Context(), page, limit)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ProductListResponseDTO{
		Products: products,
		Total:    total,
		Page:     page,
		Limit:    limit,
	})
}

// GET /api/v1/products/{productID}
func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// POST /api/v1/admin/products
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if violations := req.validate(); len(violations) > 0 {
		handleServiceError(w, &service.ValidationError{Violations: violations})
		return
	}

	product, err := h.catalog.CreateProduct(r.Context(), req.toInput())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, product)
}

// POST /api/v1/admin/products/bulk
func (h *ProductHandler) CreateProductsBulk(w http.ResponseWriter, r *http.Request) {
	var reqs []ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&reqs); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}

	var violations []string
	inputs := make([]service.ProductInput, 0, len(reqs))
	for i, req := range reqs {
		for _, v := range req.validate() {
			violations = append(violations, "product "+strconv.Itoa(i)+": "+v)
		}
		inputs = append(inputs, req.toInput())
	}
	if len(violations) > 0 {
		handleServiceError(w, &service.ValidationError{Violations: violations})
		return
	}

	products, err := h.catalog.CreateProductsBulk(r.Context(), inputs)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, products)
}

// PUT /api/v1/admin/products/{productID}
func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}

	var req ProductRequestDTO
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if violations := req.validate(); len(violations) > 0 {
		handleServiceError(w, &service.ValidationError{Violations: violations})
		return
	}

	product, err := h.catalog.GetProduct(r.Context(), productID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	product.Name = req.Name
	product.Description = req.Description
	product.Price = req.Price
	product.Stock = req.Stock
	product.CategoryID = req.CategoryID
	product.ImageURL = req.ImageURL
	product.IsActive = req.IsActive
	product.IsFeatured = req.IsFeatured

	if err := h.catalog.UpdateProduct(r.Context(), product); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, product)
}

// DELETE /api/v1/admin/products/{productID}
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	productID, err := strconv.ParseInt(chi.URLParam(r, "productID"), 10, 64)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_product_id", "product id must be an integer")
		return
	}

	if err := h.catalog.DeleteProduct(r.Context(), productID); err != nil {
		handleServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{"success": true})
}

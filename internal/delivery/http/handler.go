package http

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/storage"
	"github.com/nutriscan/backend/internal/usecase"
)

// DefaultMaxUploadBytes caps a single uploaded image
const DefaultMaxUploadBytes = 10 << 20

// Handler holds dependencies for HTTP handlers
type Handler struct {
	barcodes       *usecase.BarcodeService
	ingredients    *usecase.IngredientAnalysisOrchestrator
	submissions    *usecase.SubmissionService
	store          *usecase.ProductStore
	assistant      *usecase.AssistantService
	images         domain.ImageStore
	maxUploadBytes int64
}

// HandlerDependencies groups the services the handlers call
type HandlerDependencies struct {
	Barcodes       *usecase.BarcodeService
	Ingredients    *usecase.IngredientAnalysisOrchestrator
	Submissions    *usecase.SubmissionService
	Store          *usecase.ProductStore
	Assistant      *usecase.AssistantService
	Images         domain.ImageStore
	MaxUploadBytes int64
}

// NewHandler creates a new HTTP handler
func NewHandler(deps HandlerDependencies) *Handler {
	maxUpload := deps.MaxUploadBytes
	if maxUpload <= 0 {
		maxUpload = DefaultMaxUploadBytes
	}
	return &Handler{
		barcodes:       deps.Barcodes,
		ingredients:    deps.Ingredients,
		submissions:    deps.Submissions,
		store:          deps.Store,
		assistant:      deps.Assistant,
		images:         deps.Images,
		maxUploadBytes: maxUpload,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "nutriscan-backend",
		"version": "1.0.0",
	})
}

// ExtractBarcode reads the barcode digits from an uploaded photo
func (h *Handler) ExtractBarcode(c *gin.Context) {
	path, err := h.saveUpload(c, "image", "barcode")
	if err != nil {
		respondError(c, err)
		return
	}
	if path == "" {
		respondError(c, fmt.Errorf("%w: image is required", domain.ErrInvalidRequest))
		return
	}

	barcode, err := h.barcodes.ExtractBarcode(c.Request.Context(), path)
	if err != nil {
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"barcode":   barcode,
		"imagePath": path,
	})
}

// LookupProduct returns catalog metadata for a barcode
func (h *Handler) LookupProduct(c *gin.Context) {
	entry, err := h.barcodes.LookupProduct(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

// AnalyzeProduct analyzes a multipart submission and persists the result
func (h *Handler) AnalyzeProduct(c *gin.Context) {
	sub := usecase.Submission{
		Barcode:         c.PostForm("barcode"),
		Name:            c.PostForm("name"),
		Source:          c.PostForm("source"),
		IngredientsText: c.PostForm("ingredientsText"),
	}

	uploads := []struct {
		field string
		kind  domain.ImageKind
		dest  *string
	}{
		{"productImage", domain.ImageProduct, &sub.ProductImagePath},
		{"ingredientsImage", domain.ImageIngredients, &sub.IngredientsImagePath},
		{"nutritionLabelImage", domain.ImageNutritionLabel, &sub.NutritionLabelImagePath},
	}
	for _, upload := range uploads {
		path, err := h.saveUpload(c, upload.field, string(upload.kind))
		if err != nil {
			respondError(c, err)
			return
		}
		*upload.dest = path
	}

	record, err := h.submissions.Submit(c.Request.Context(), sub)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

type ingredientsRequest struct {
	IngredientsText string `json:"ingredientsText"`
}

// AnalyzeIngredients returns a verdict for typed text or an uploaded photo.
// Nothing is persisted.
func (h *Handler) AnalyzeIngredients(c *gin.Context) {
	var in usecase.IngredientInput

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		path, err := h.saveUpload(c, "image", string(domain.ImageIngredients))
		if err != nil {
			respondError(c, err)
			return
		}
		in = usecase.IngredientInput{ImagePath: path, Text: c.PostForm("ingredientsText")}
	} else {
		var req ingredientsRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
			return
		}
		in = usecase.IngredientInput{Text: req.IngredientsText}
	}

	c.JSON(http.StatusOK, h.ingredients.Analyze(c.Request.Context(), in))
}

type chatRequest struct {
	Prompt string `json:"prompt"`
}

// Chat answers a food question, optionally about an uploaded photo
func (h *Handler) Chat(c *gin.Context) {
	var prompt, imagePath string

	if strings.HasPrefix(c.ContentType(), "multipart/") {
		path, err := h.saveUpload(c, "image", "chat")
		if err != nil {
			respondError(c, err)
			return
		}
		prompt, imagePath = c.PostForm("prompt"), path
	} else {
		var req chatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, fmt.Errorf("%w: %v", domain.ErrInvalidRequest, err))
			return
		}
		prompt = req.Prompt
	}

	reply, err := h.assistant.Ask(c.Request.Context(), prompt, imagePath)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"response": reply})
}

// ListProducts returns stored records newest first
func (h *Handler) ListProducts(c *gin.Context) {
	limit, err := queryInt(c, "limit", usecase.DefaultPageSize)
	if err != nil {
		respondError(c, err)
		return
	}
	offset, err := queryInt(c, "offset", 0)
	if err != nil {
		respondError(c, err)
		return
	}

	records, err := h.store.List(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"products": records,
		"limit":    limit,
		"offset":   offset,
	})
}

// GetProduct returns a record by id
func (h *Handler) GetProduct(c *gin.Context) {
	h.respondRecord(c, func(ctx context.Context) (*domain.ProductRecord, error) {
		return h.store.FindByID(ctx, c.Param("id"))
	})
}

// GetProductByBarcode returns a record by barcode
func (h *Handler) GetProductByBarcode(c *gin.Context) {
	h.respondRecord(c, func(ctx context.Context) (*domain.ProductRecord, error) {
		return h.store.FindByBarcode(ctx, c.Param("barcode"))
	})
}

// GetProductByImageName returns the latest record whose image of the given
// kind was saved under the product name
func (h *Handler) GetProductByImageName(c *gin.Context) {
	h.respondRecord(c, func(ctx context.Context) (*domain.ProductRecord, error) {
		return h.store.FindByImageName(ctx, domain.ImageKind(c.Param("kind")), c.Param("name"))
	})
}

// RepairRecords re-applies defaulting to every stored analysis
func (h *Handler) RepairRecords(c *gin.Context) {
	repaired, err := h.store.RepairAll(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"repaired": repaired})
}

func (h *Handler) respondRecord(c *gin.Context, find func(ctx context.Context) (*domain.ProductRecord, error)) {
	record, err := find(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, record)
}

// saveUpload stores the multipart file in field and returns its path. A
// missing field yields an empty path.
func (h *Handler) saveUpload(c *gin.Context, field, prefix string) (string, error) {
	header, err := c.FormFile(field)
	if err != nil {
		if errors.Is(err, http.ErrMissingFile) || errors.Is(err, http.ErrNotMultipart) {
			return "", nil
		}
		return "", fmt.Errorf("%w: %s: %v", domain.ErrInvalidRequest, field, err)
	}
	if header.Size > h.maxUploadBytes {
		return "", fmt.Errorf("%w: %s exceeds %d bytes", domain.ErrInvalidRequest, field, h.maxUploadBytes)
	}

	data, err := readUpload(header, h.maxUploadBytes)
	if err != nil {
		return "", err
	}
	if contentType := http.DetectContentType(data); !strings.HasPrefix(contentType, "image/") {
		return "", fmt.Errorf("%w: %s is %s, not an image", domain.ErrInvalidRequest, field, contentType)
	}

	path, err := h.images.Put(c.Request.Context(), storage.ObjectName(prefix, header.Filename), data)
	if err != nil {
		return "", err
	}
	log.Printf("[HTTP] Stored %s upload %q as %s", field, header.Filename, path)
	return path, nil
}

func readUpload(header *multipart.FileHeader, limit int64) ([]byte, error) {
	file, err := header.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: cannot open upload: %v", domain.ErrInvalidRequest, err)
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit))
	if err != nil {
		return nil, fmt.Errorf("%w: cannot read upload: %v", domain.ErrInvalidRequest, err)
	}
	return data, nil
}

func queryInt(c *gin.Context, key string, fallback int) (int, error) {
	raw := c.Query(key)
	if raw == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidRequest, key)
	}
	return n, nil
}

// statusFor maps a domain error to an HTTP status code
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrRecordNotFound),
		errors.Is(err, domain.ErrProductNotFound),
		errors.Is(err, domain.ErrImageNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrBadBarcodeFormat):
		return http.StatusUnprocessableEntity
	case errors.Is(err, domain.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrDuplicateBarcode):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(c *gin.Context, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Printf("[HTTP] %s %s failed: %v", c.Request.Method, c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"error": err.Error()})
}

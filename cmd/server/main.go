package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/rekognition"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/nutriscan/backend/config"
	httpDelivery "github.com/nutriscan/backend/internal/delivery/http"
	"github.com/nutriscan/backend/internal/domain"
	"github.com/nutriscan/backend/internal/infrastructure/cache"
	"github.com/nutriscan/backend/internal/infrastructure/gemini"
	"github.com/nutriscan/backend/internal/infrastructure/metrics"
	"github.com/nutriscan/backend/internal/infrastructure/ocr"
	"github.com/nutriscan/backend/internal/infrastructure/openfoodfacts"
	"github.com/nutriscan/backend/internal/infrastructure/persistence"
	"github.com/nutriscan/backend/internal/infrastructure/storage"
	"github.com/nutriscan/backend/internal/usecase"
	"github.com/prometheus/client_golang/prometheus"
)

const shutdownTimeout = 15 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	log.Printf("Starting NutriScan Backend v1.0.0")
	log.Printf("Environment: %s", cfg.Server.Environment)
	log.Printf("Port: %s", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg); err != nil {
		log.Fatalf("Server stopped: %v", err)
	}
	log.Printf("Server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	var awsCfg aws.Config
	if cfg.UsesAWS() {
		loaded, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWS.Region))
		if err != nil {
			return fmt.Errorf("failed to load AWS configuration: %w", err)
		}
		awsCfg = loaded
		log.Printf("AWS configured for region %s", cfg.AWS.Region)
	}

	// Initialize infrastructure dependencies
	m, err := metrics.New(prometheus.NewRegistry())
	if err != nil {
		return fmt.Errorf("failed to register metrics: %w", err)
	}

	images, err := newImageStore(cfg, awsCfg)
	if err != nil {
		return err
	}

	geminiClient, err := gemini.NewClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model)
	if err != nil {
		return fmt.Errorf("failed to create Gemini client: %w", err)
	}
	defer geminiClient.Close()
	log.Printf("Gemini model: %s (timeout %s)", cfg.Gemini.Model, cfg.Gemini.Timeout)

	var detector ocr.TextDetector
	if cfg.UsesProvider(ocr.ProviderRekognition) {
		detector = rekognition.NewFromConfig(awsCfg)
	}

	ingredientsOCR, err := ocr.New(cfg.OCR.IngredientsProvider, ocrOptions(cfg, images, geminiClient, detector, gemini.IngredientsOCRPrompt, ocr.IngredientWhitelist))
	if err != nil {
		return fmt.Errorf("failed to create ingredients OCR provider: %w", err)
	}
	barcodeOCR, err := ocr.New(cfg.OCR.BarcodeProvider, ocrOptions(cfg, images, geminiClient, detector, gemini.BarcodeOCRPrompt, "0123456789"))
	if err != nil {
		return fmt.Errorf("failed to create barcode OCR provider: %w", err)
	}
	log.Printf("OCR: ingredients=%s, barcode=%s", ingredientsOCR.Name(), barcodeOCR.Name())

	reasoning := metrics.InstrumentReasoning(gemini.NewAnalyzer(geminiClient, images, cfg.Gemini.Timeout), m, ocr.ProviderGemini)
	assistant := metrics.InstrumentAssistant(gemini.NewAssistant(geminiClient, images, cfg.Gemini.Timeout), m, ocr.ProviderGemini)

	catalogClient := openfoodfacts.NewClient(openfoodfacts.ClientConfig{
		BaseURL:       cfg.Catalog.BaseURL,
		Timeout:       cfg.Catalog.Timeout,
		RatePerMinute: cfg.Catalog.RatePerMinute,
		UserAgent:     cfg.Catalog.UserAgent,
	})

	// Enable debug mode in development environment
	if cfg.Server.Environment == "development" {
		catalogClient.SetDebug(true)
		log.Printf("Open Food Facts client debug mode enabled")
	}
	catalog := metrics.InstrumentCatalog(catalogClient, m, "openfoodfacts")

	memoryCache := cache.NewMemoryCache(cfg.Cache.CleanupInterval)
	defer memoryCache.Close()
	log.Printf("Cache TTL: %s", cfg.Cache.TTL)

	db, err := persistence.Open(cfg.Database.Path, cfg.Database.Debug)
	if err != nil {
		return err
	}
	defer persistence.Close(db)

	// Initialize usecase layer
	store := usecase.NewProductStore(persistence.NewProductRepository(db), m)
	barcodes := usecase.NewBarcodeService(
		metrics.InstrumentOCR(barcodeOCR, m, "extract_barcode"),
		catalog,
		memoryCache,
		usecase.BarcodeServiceConfig{CacheTTL: cfg.Cache.TTL},
	)
	ingredients := usecase.NewIngredientAnalysisOrchestrator(
		metrics.InstrumentOCR(ingredientsOCR, m, "recognize_ingredients"),
		reasoning,
		m,
		usecase.IngredientAnalysisConfig{
			StripOCRPreamble:   cfg.Analysis.StripOCRPreamble && cfg.OCR.IngredientsProvider == ocr.ProviderGemini,
			EnableDebugLogging: cfg.Analysis.EnableDebugLogging,
		},
	)
	products := usecase.NewProductAnalyzer(reasoning, m)

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(httpDelivery.HandlerDependencies{
		Barcodes:       barcodes,
		Ingredients:    ingredients,
		Submissions:    usecase.NewSubmissionService(barcodes, products, ingredients, store),
		Store:          store,
		Assistant:      usecase.NewAssistantService(assistant),
		Images:         images,
		MaxUploadBytes: cfg.Server.MaxUploadMB << 20,
	})

	// Setup router
	router := httpDelivery.SetupRouter(cfg, handler, httpDelivery.RouterOptions{
		Metrics:        m,
		MetricsHandler: m.Handler(),
	})

	// Start server
	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Server.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Printf("Shutting down, waiting up to %s for in-flight requests", shutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// newImageStore returns the store uploads are written to and read from
func newImageStore(cfg *config.Config, awsCfg aws.Config) (domain.ImageStore, error) {
	if cfg.Storage.Type == "s3" {
		log.Printf("Image storage: s3://%s/%s", cfg.Storage.S3Bucket, cfg.Storage.S3Prefix)
		return storage.NewS3Store(s3.NewFromConfig(awsCfg), cfg.Storage.S3Bucket, cfg.Storage.S3Prefix), nil
	}

	store, err := storage.NewLocalStore(cfg.Storage.LocalDir)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare image directory: %w", err)
	}
	log.Printf("Image storage: %s", cfg.Storage.LocalDir)
	return store, nil
}

func ocrOptions(
	cfg *config.Config,
	images domain.ImageStore,
	generator gemini.Generator,
	detector ocr.TextDetector,
	prompt string,
	whitelist string,
) ocr.Options {
	return ocr.Options{
		Images:        images,
		Timeout:       cfg.OCR.Timeout,
		TesseractPath: cfg.OCR.TesseractPath,
		Language:      cfg.OCR.Language,
		Whitelist:     whitelist,
		Generator:     generator,
		Prompt:        prompt,
		Detector:      detector,
	}
}

func init() {
	// Set log flags for better debugging
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.SetOutput(os.Stdout)
}

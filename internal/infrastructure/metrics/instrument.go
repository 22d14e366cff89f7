package metrics

import (
	"context"
	"time"

	"github.com/nutriscan/backend/internal/domain"
)

type instrumentedOCR struct {
	next      domain.OCRProvider
	metrics   *Metrics
	operation string
}

// InstrumentOCR records every Recognize call of p under operation
func InstrumentOCR(p domain.OCRProvider, m *Metrics, operation string) domain.OCRProvider {
	return &instrumentedOCR{next: p, metrics: m, operation: operation}
}

func (o *instrumentedOCR) Name() string {
	return o.next.Name()
}

func (o *instrumentedOCR) Recognize(ctx context.Context, imagePath string) (string, error) {
	start := time.Now()
	text, err := o.next.Recognize(ctx, imagePath)
	o.metrics.RecordProviderCall(o.next.Name(), o.operation, err, time.Since(start))
	return text, err
}

type instrumentedReasoning struct {
	next     domain.ReasoningClient
	metrics  *Metrics
	provider string
}

// InstrumentReasoning records every call of c
func InstrumentReasoning(c domain.ReasoningClient, m *Metrics, provider string) domain.ReasoningClient {
	return &instrumentedReasoning{next: c, metrics: m, provider: provider}
}

func (r *instrumentedReasoning) AnalyzeIngredients(ctx context.Context, prompt domain.IngredientPrompt) (map[string]any, error) {
	start := time.Now()
	doc, err := r.next.AnalyzeIngredients(ctx, prompt)
	r.metrics.RecordProviderCall(r.provider, "analyze_ingredients", err, time.Since(start))
	return doc, err
}

func (r *instrumentedReasoning) AnalyzeProduct(ctx context.Context, prompt domain.ProductPrompt) (map[string]any, error) {
	start := time.Now()
	doc, err := r.next.AnalyzeProduct(ctx, prompt)
	r.metrics.RecordProviderCall(r.provider, "analyze_product", err, time.Since(start))
	return doc, err
}

type instrumentedCatalog struct {
	next     domain.ProductCatalog
	metrics  *Metrics
	provider string
}

// InstrumentCatalog records every GetProduct call of c
func InstrumentCatalog(c domain.ProductCatalog, m *Metrics, provider string) domain.ProductCatalog {
	return &instrumentedCatalog{next: c, metrics: m, provider: provider}
}

func (c *instrumentedCatalog) GetProduct(ctx context.Context, barcode string) (*domain.CatalogResponse, error) {
	start := time.Now()
	resp, err := c.next.GetProduct(ctx, barcode)
	c.metrics.RecordProviderCall(c.provider, "get_product", err, time.Since(start))
	return resp, err
}

type instrumentedAssistant struct {
	next     domain.AssistantClient
	metrics  *Metrics
	provider string
}

// InstrumentAssistant records every Reply call of c
func InstrumentAssistant(c domain.AssistantClient, m *Metrics, provider string) domain.AssistantClient {
	return &instrumentedAssistant{next: c, metrics: m, provider: provider}
}

func (a *instrumentedAssistant) Reply(ctx context.Context, prompt domain.AssistantPrompt) (string, error) {
	start := time.Now()
	reply, err := a.next.Reply(ctx, prompt)
	a.metrics.RecordProviderCall(a.provider, "chat", err, time.Since(start))
	return reply, err
}

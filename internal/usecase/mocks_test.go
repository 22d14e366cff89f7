package usecase

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/nutriscan/backend/internal/domain"
)

// MockCacheRepository is a mock implementation of domain.CacheRepository
type MockCacheRepository struct {
	mu        sync.Mutex
	data      map[string]interface{}
	getError  error
	setError  error
	getCalled bool
	setCalled bool
	deleted   []string
}

func NewMockCacheRepository() *MockCacheRepository {
	return &MockCacheRepository{
		data: make(map[string]interface{}),
	}
}

func (m *MockCacheRepository) Get(ctx context.Context, key string) (interface{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.getCalled = true
	if m.getError != nil {
		return nil, m.getError
	}
	if value, ok := m.data[key]; ok {
		return value, nil
	}
	return nil, domain.ErrCacheMiss
}

func (m *MockCacheRepository) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.setCalled = true
	if m.setError != nil {
		return m.setError
	}
	m.data[key] = value
	return nil
}

func (m *MockCacheRepository) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deleted = append(m.deleted, key)
	delete(m.data, key)
	return nil
}

// MockOCRProvider returns canned text per image path
type MockOCRProvider struct {
	mu      sync.Mutex
	text    map[string]string
	err     error
	calls   int
	lastCtx context.Context
}

func NewMockOCRProvider() *MockOCRProvider {
	return &MockOCRProvider{text: make(map[string]string)}
}

func (m *MockOCRProvider) Name() string { return "mock" }

func (m *MockOCRProvider) Recognize(ctx context.Context, imagePath string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	m.lastCtx = ctx
	if m.err != nil {
		return "", m.err
	}
	text, ok := m.text[imagePath]
	if !ok {
		return "", domain.ErrImageNotFound
	}
	return text, nil
}

func (m *MockOCRProvider) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// MockReasoningClient returns canned documents or errors. The optional hooks
// run before the canned result is returned.
type MockReasoningClient struct {
	mu                   sync.Mutex
	ingredientResult     map[string]any
	ingredientError      error
	productResult        map[string]any
	productError         error
	ingredientCalls      int
	productCalls         int
	lastIngredients      domain.IngredientPrompt
	lastProduct          domain.ProductPrompt
	onAnalyzeIngredients func(ctx context.Context) error
	onAnalyzeProduct     func(ctx context.Context) error
}

func (m *MockReasoningClient) AnalyzeIngredients(ctx context.Context, prompt domain.IngredientPrompt) (map[string]any, error) {
	m.mu.Lock()
	m.ingredientCalls++
	m.lastIngredients = prompt
	hook := m.onAnalyzeIngredients
	result, err := m.ingredientResult, m.ingredientError
	m.mu.Unlock()

	if hook != nil {
		if hookErr := hook(ctx); hookErr != nil {
			return nil, hookErr
		}
	}
	if err != nil {
		return nil, err
	}
	return copyMap(result), nil
}

func (m *MockReasoningClient) AnalyzeProduct(ctx context.Context, prompt domain.ProductPrompt) (map[string]any, error) {
	m.mu.Lock()
	m.productCalls++
	m.lastProduct = prompt
	hook := m.onAnalyzeProduct
	result, err := m.productResult, m.productError
	m.mu.Unlock()

	if hook != nil {
		if hookErr := hook(ctx); hookErr != nil {
			return nil, hookErr
		}
	}
	if err != nil {
		return nil, err
	}
	return copyMap(result), nil
}

func (m *MockReasoningClient) callCounts() (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ingredientCalls, m.productCalls
}

func copyMap(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// MockProductCatalog is a mock implementation of domain.ProductCatalog
type MockProductCatalog struct {
	mu       sync.Mutex
	products map[string]*domain.CatalogResponse
	err      error
	calls    int
}

func NewMockProductCatalog() *MockProductCatalog {
	return &MockProductCatalog{products: make(map[string]*domain.CatalogResponse)}
}

func (m *MockProductCatalog) GetProduct(ctx context.Context, barcode string) (*domain.CatalogResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	resp, ok := m.products[barcode]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	return resp, nil
}

// MockMetrics counts reported outcomes
type MockMetrics struct {
	mu        sync.Mutex
	fallbacks map[string]int
	repaired  int
}

func NewMockMetrics() *MockMetrics {
	return &MockMetrics{fallbacks: make(map[string]int)}
}

func (m *MockMetrics) FallbackUsed(stage string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fallbacks[stage]++
}

func (m *MockMetrics) RecordsRepaired(n int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.repaired += n
}

// MemoryProductRepository is an in-memory domain.ProductRepository. The raw
// analysis documents are kept apart from the records so tests can plant
// malformed legacy data.
type MemoryProductRepository struct {
	mu          sync.Mutex
	records     map[string]*domain.ProductRecord
	rawAnalysis map[string]map[string]any
	createErr   error
	lastLimit   int
	lastOffset  int
}

func NewMemoryProductRepository() *MemoryProductRepository {
	return &MemoryProductRepository{
		records:     make(map[string]*domain.ProductRecord),
		rawAnalysis: make(map[string]map[string]any),
	}
}

func (r *MemoryProductRepository) FindByID(ctx context.Context, id string) (*domain.ProductRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, domain.ErrRecordNotFound
	}
	return r.read(record), nil
}

func (r *MemoryProductRepository) FindByBarcode(ctx context.Context, barcode string) (*domain.ProductRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, record := range r.records {
		if record.Barcode == barcode {
			return r.read(record), nil
		}
	}
	return nil, domain.ErrRecordNotFound
}

func (r *MemoryProductRepository) FindLatestByImageName(ctx context.Context, kind domain.ImageKind, name string) (*domain.ProductRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var latest *domain.ProductRecord
	for _, record := range r.records {
		if record.FormattedImageNames.Get(kind) != name {
			continue
		}
		if latest == nil || record.UpdatedAt.After(latest.UpdatedAt) {
			latest = record
		}
	}
	if latest == nil {
		return nil, domain.ErrRecordNotFound
	}
	return r.read(latest), nil
}

func (r *MemoryProductRepository) List(ctx context.Context, limit, offset int) ([]*domain.ProductRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lastLimit, r.lastOffset = limit, offset

	all := make([]*domain.ProductRecord, 0, len(r.records))
	for _, record := range r.records {
		all = append(all, r.read(record))
	}
	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })

	if offset >= len(all) {
		return []*domain.ProductRecord{}, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], nil
}

func (r *MemoryProductRepository) Create(ctx context.Context, record *domain.ProductRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	for _, existing := range r.records {
		if existing.Barcode == record.Barcode {
			return domain.ErrDuplicateBarcode
		}
	}
	r.records[record.ID] = cloneRecord(record)
	r.rawAnalysis[record.ID] = record.Analysis.Fields()
	return nil
}

func (r *MemoryProductRepository) Save(ctx context.Context, record *domain.ProductRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ID]; !ok {
		return domain.ErrRecordNotFound
	}
	r.records[record.ID] = cloneRecord(record)
	r.rawAnalysis[record.ID] = record.Analysis.Fields()
	return nil
}

func (r *MemoryProductRepository) StoredAnalyses(ctx context.Context) ([]domain.StoredAnalysis, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.StoredAnalysis, 0, len(r.records))
	for id := range r.records {
		out = append(out, domain.StoredAnalysis{RecordID: id, Fields: copyMap(r.rawAnalysis[id])})
	}
	return out, nil
}

func (r *MemoryProductRepository) SaveAnalysis(ctx context.Context, recordID string, analysis domain.Analysis) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[recordID]
	if !ok {
		return domain.ErrRecordNotFound
	}
	record.Analysis = analysis
	r.rawAnalysis[recordID] = analysis.Fields()
	return nil
}

func (r *MemoryProductRepository) plantRawAnalysis(recordID string, raw map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rawAnalysis[recordID] = raw
}

func (r *MemoryProductRepository) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.records)
}

// read returns a copy of record carrying its stored documents, the way a
// database-backed repository returns rows. Callers hold r.mu.
func (r *MemoryProductRepository) read(record *domain.ProductRecord) *domain.ProductRecord {
	clone := cloneRecord(record)
	clone.Stored = &domain.StoredDocuments{Analysis: copyMap(r.rawAnalysis[record.ID])}
	if record.IngredientAnalysis != nil {
		clone.Stored.IngredientAnalysis = record.IngredientAnalysis.Fields()
	}
	return clone
}

func cloneRecord(record *domain.ProductRecord) *domain.ProductRecord {
	clone := *record
	clone.Ingredients = append([]string(nil), record.Ingredients...)
	if record.IngredientAnalysis != nil {
		analysis := *record.IngredientAnalysis
		clone.IngredientAnalysis = &analysis
	}
	return &clone
}

// steppingClock returns a time that advances by one second per call
func steppingClock() func() time.Time {
	var mu sync.Mutex
	current := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

// MockAssistantClient returns a canned reply
type MockAssistantClient struct {
	reply  string
	err    error
	calls  int
	prompt domain.AssistantPrompt
}

func (m *MockAssistantClient) Reply(ctx context.Context, prompt domain.AssistantPrompt) (string, error) {
	m.calls++
	m.prompt = prompt
	return m.reply, m.err
}

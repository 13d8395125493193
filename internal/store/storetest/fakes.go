// Package storetest provides in-memory implementations of the store
// repositories for use-case and handler tests.
package storetest

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/tair/hiking-store/internal/store/domain"
)

// ProductRepository keeps products per category in insertion order
type ProductRepository struct {
	mu       sync.Mutex
	products map[domain.Category][]domain.Product
	missing  map[domain.Category]bool
	backfill map[domain.Category]int
	Err      error
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{
		products: make(map[domain.Category][]domain.Product),
		missing:  make(map[domain.Category]bool),
	}
}

// Add stores products under their category
func (r *ProductRepository) Add(products ...domain.Product) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range products {
		if p.ObjectID == "" {
			p.ObjectID = p.ID
		}
		r.products[p.Category] = append(r.products[p.Category], p)
	}
}

// DropCollection makes a category behave as if its collection did not exist
func (r *ProductRepository) DropCollection(c domain.Category) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.missing[c] = true
	delete(r.products, c)
}

func (r *ProductRepository) ListCategory(_ context.Context, c domain.Category, page, limit int) (*domain.ProductPage, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	if r.missing[c] {
		return &domain.ProductPage{Products: []domain.Product{}, Page: 1}, nil
	}

	all := r.products[c]
	start := (page - 1) * limit
	if start > len(all) {
		start = len(all)
	}
	end := start + limit
	if end > len(all) {
		end = len(all)
	}
	items := append([]domain.Product{}, all[start:end]...)
	total := int64(len(all))
	return &domain.ProductPage{
		Products:   items,
		Total:      total,
		Page:       page,
		TotalPages: domain.TotalPages(total, limit),
	}, nil
}

func (r *ProductRepository) FindByIDs(_ context.Context, categories []domain.Category, ids []string) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = true
	}
	found := []domain.Product{}
	for _, c := range categories {
		for _, p := range r.products[c] {
			if want[p.ID] {
				found = append(found, p)
			}
		}
	}
	return found, nil
}

func (r *ProductRepository) MatchSubstring(_ context.Context, categories []domain.Category, query string, perCategory int) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}

	needle := strings.ToLower(query)
	found := []domain.Product{}
	for _, c := range categories {
		n := 0
		for _, p := range r.products[c] {
			if n >= perCategory {
				break
			}
			brand := ""
			if p.Brand != nil {
				brand = *p.Brand
			}
			if strings.Contains(strings.ToLower(p.Title), needle) || strings.Contains(strings.ToLower(brand), needle) {
				found = append(found, p)
				n++
			}
		}
	}
	return found, nil
}

func (r *ProductRepository) All(_ context.Context, c domain.Category) ([]domain.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	return append([]domain.Product{}, r.products[c]...), nil
}

// SetBackfill sets how many products the next backfill of c reports updated
func (r *ProductRepository) SetBackfill(c domain.Category, n int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.backfill == nil {
		r.backfill = make(map[domain.Category]int)
	}
	r.backfill[c] = n
}

func (r *ProductRepository) BackfillThumbnails(_ context.Context, c domain.Category) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return 0, r.Err
	}
	n := r.backfill[c]
	delete(r.backfill, c)
	return n, nil
}

func (r *ProductRepository) Ping(context.Context) error { return r.Err }

// UserRepository keeps users by id
type UserRepository struct {
	mu    sync.Mutex
	users map[string]*domain.User
	Err   error
}

func NewUserRepository(users ...domain.User) *UserRepository {
	r := &UserRepository{users: make(map[string]*domain.User)}
	for _, u := range users {
		u := u
		r.users[u.ID] = &u
	}
	return r
}

func (r *UserRepository) FindByID(_ context.Context, userID string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return nil, r.Err
	}
	u, ok := r.users[userID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	cp.FavoriteStores = append([]string{}, u.FavoriteStores...)
	return &cp, nil
}

func (r *UserRepository) AddFavorite(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	if !u.HasFavorite(productID) {
		u.FavoriteStores = append(u.FavoriteStores, productID)
	}
	return nil
}

func (r *UserRepository) RemoveFavorite(_ context.Context, userID, productID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	kept := u.FavoriteStores[:0]
	for _, id := range u.FavoriteStores {
		if id != productID {
			kept = append(kept, id)
		}
	}
	u.FavoriteStores = kept
	return nil
}

// RecentStore mirrors the sorted-set semantics of the Redis tracker,
// including call order for views with equal timestamps
type RecentStore struct {
	mu    sync.Mutex
	views map[string]map[string]recentView
	seq   int64
	Limit int
	Err   error
}

type recentView struct {
	at  time.Time
	seq int64
}

func (v recentView) newerThan(o recentView) bool {
	if v.at.Equal(o.at) {
		return v.seq > o.seq
	}
	return v.at.After(o.at)
}

func NewRecentStore(limit int) *RecentStore {
	return &RecentStore{views: make(map[string]map[string]recentView), Limit: limit}
}

func (s *RecentStore) Add(_ context.Context, userID, productID string, viewedAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	set, ok := s.views[userID]
	if !ok {
		set = make(map[string]recentView)
		s.views[userID] = set
	}
	s.seq++
	set[productID] = recentView{at: viewedAt, seq: s.seq}
	for len(set) > s.Limit {
		oldest := ""
		for id, v := range set {
			if oldest == "" || set[oldest].newerThan(v) {
				oldest = id
			}
		}
		delete(set, oldest)
	}
	return nil
}

func (s *RecentStore) List(_ context.Context, userID string) ([]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return nil, s.Err
	}
	set := s.views[userID]
	ids := make([]string, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return set[ids[i]].newerThan(set[ids[j]]) })
	return ids, nil
}

func (s *RecentStore) Ping(context.Context) error { return s.Err }

// SearchIndex ranks documents by the order they were indexed
type SearchIndex struct {
	mu        sync.Mutex
	docs      []domain.IndexDocument
	exists    bool
	Err       error
	// BulkErr fails only BulkIndex
	BulkErr   error
	Requests  []domain.SearchRequest
	Recreated int
	Dropped   int
}

// NewSearchIndex returns an index; exists controls whether it has been built
func NewSearchIndex(exists bool) *SearchIndex {
	return &SearchIndex{exists: exists}
}

// Put indexes documents directly, bypassing Recreate
func (s *SearchIndex) Put(docs ...domain.IndexDocument) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.exists = true
	s.docs = append(s.docs, docs...)
}

// Docs returns the indexed documents
func (s *SearchIndex) Docs() []domain.IndexDocument {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.IndexDocument{}, s.docs...)
}

func (s *SearchIndex) Search(_ context.Context, req domain.SearchRequest) (*domain.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Requests = append(s.Requests, req)
	if s.Err != nil {
		return nil, s.Err
	}
	if !s.exists {
		return nil, domain.ErrIndexNotFound
	}

	needle := strings.ToLower(req.Query)
	var matched []domain.IndexDocument
	for _, d := range s.docs {
		if req.Category != nil && d.Category != *req.Category {
			continue
		}
		if strings.Contains(strings.ToLower(d.Title+" "+d.Brand+" "+d.Description), needle) {
			matched = append(matched, d)
		}
	}

	result := &domain.SearchResult{Hits: []domain.SearchHit{}, Total: int64(len(matched))}
	for i := req.From; i < len(matched) && i < req.From+req.Size; i++ {
		result.Hits = append(result.Hits, domain.SearchHit{ID: matched[i].ID, Score: float64(len(matched) - i)})
	}
	return result, nil
}

func (s *SearchIndex) Recreate(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.docs = nil
	s.exists = true
	s.Recreated++
	return nil
}

func (s *SearchIndex) BulkIndex(_ context.Context, docs []domain.IndexDocument) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return 0, s.Err
	}
	if s.BulkErr != nil {
		return 0, s.BulkErr
	}
	s.docs = append(s.docs, docs...)
	return len(docs), nil
}

func (s *SearchIndex) Drop(context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return s.Err
	}
	s.docs = nil
	s.exists = false
	s.Dropped++
	return nil
}

func (s *SearchIndex) Ping(context.Context) error { return s.Err }

// Publisher records published events
type Publisher struct {
	mu      sync.Mutex
	Viewed  []domain.ProductViewedEvent
	Toggled []domain.FavoriteToggledEvent
	Catalog []domain.CatalogUpdatedEvent
}

func (p *Publisher) PublishProductViewed(_ context.Context, e domain.ProductViewedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Viewed = append(p.Viewed, e)
	return nil
}

func (p *Publisher) PublishFavoriteToggled(_ context.Context, e domain.FavoriteToggledEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Toggled = append(p.Toggled, e)
	return nil
}

func (p *Publisher) PublishCatalogUpdated(_ context.Context, e domain.CatalogUpdatedEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.Catalog = append(p.Catalog, e)
	return nil
}

// Recorder counts observations by key
type Recorder struct {
	mu        sync.Mutex
	Fallbacks map[string]int
	Degraded  map[string]int
	Toggles   map[bool]int
}

func NewRecorder() *Recorder {
	return &Recorder{
		Fallbacks: make(map[string]int),
		Degraded:  make(map[string]int),
		Toggles:   make(map[bool]int),
	}
}

func (r *Recorder) SearchFallback(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Fallbacks[reason]++
}

func (r *Recorder) RecentDegraded(op string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Degraded[op]++
}

func (r *Recorder) FavoriteToggled(favorited bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Toggles[favorited]++
}

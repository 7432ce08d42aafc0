package services

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"eventhub/internal/domain"
)

const testTimeout = 5 * time.Second

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func ptr[T any](v T) *T { return &v }

// fakeUserRepo implements domain.UserRepository for tests.
type fakeUserRepo struct {
	mu         sync.Mutex
	byID       map[string]*domain.User
	getErr     error
	consents   *fakeConsentRepo
	consentErr error
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{byID: make(map[string]*domain.User)}
}

func (f *fakeUserRepo) add(u *domain.User) *domain.User {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = domain.RoleUser
	}
	cp := *u
	f.byID[u.ID] = &cp
	return u
}

// CreateWithConsents is all or nothing: with consentErr set nothing is stored.
func (f *fakeUserRepo) CreateWithConsents(ctx context.Context, u *domain.User, consents []*domain.Consent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	if f.consentErr != nil {
		return f.consentErr
	}
	f.add(u)
	for _, c := range consents {
		c.UserID = u.ID
		if f.consents != nil {
			if err := f.consents.Upsert(ctx, c); err != nil {
				return err
			}
		}
	}
	return nil
}

func (f *fakeUserRepo) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.byID {
		if u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUserRepo) Update(ctx context.Context, u *domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[u.ID]; !ok {
		return domain.ErrUserNotFound
	}
	for _, existing := range f.byID {
		if existing.ID != u.ID && existing.Email == u.Email {
			return domain.ErrDuplicateEmail
		}
	}
	cp := *u
	f.byID[u.ID] = &cp
	return nil
}

func (f *fakeUserRepo) UpdatePassword(ctx context.Context, userID, hash, salt string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.PasswordHash, u.Salt = hash, salt
	return nil
}

func (f *fakeUserRepo) SetEmailVerified(ctx context.Context, userID string, at *time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.EmailVerifiedAt = at
	return nil
}

func (f *fakeUserRepo) SetRole(ctx context.Context, userID string, role domain.UserRole) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return domain.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUserRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrUserNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeUserRepo) List(ctx context.Context, filter domain.UserFilter, params domain.PaginationParams) ([]*domain.User, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.User, 0)
	for _, u := range f.byID {
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		cp := *u
		out = append(out, &cp)
	}
	return out, len(out), nil
}

// fakeSessionRepo implements domain.SessionRepository for tests.
type fakeSessionRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Session
	touched []string
	expired int64
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{byID: make(map[string]*domain.Session)}
}

func (f *fakeSessionRepo) Create(ctx context.Context, s *domain.Session) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = uuid.NewString()
	cp := *s
	f.byID[s.ID] = &cp
	return nil
}

func (f *fakeSessionRepo) GetByID(ctx context.Context, id string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessionRepo) GetByToken(ctx context.Context, tokenHash string) (*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, s := range f.byID {
		if s.Token == tokenHash && !s.Expired(time.Now()) {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeSessionRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Session, 0)
	for _, s := range f.byID {
		if s.UserID == userID {
			cp := *s
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeSessionRepo) Touch(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.touched = append(f.touched, id)
	if s, ok := f.byID[id]; ok {
		s.LastSeenAt = at
	}
	return nil
}

func (f *fakeSessionRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeSessionRepo) DeleteByUserID(ctx context.Context, userID, keepSessionID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.byID {
		if s.UserID == userID && id != keepSessionID {
			delete(f.byID, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeSessionRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, s := range f.byID {
		if s.Expired(now) {
			delete(f.byID, id)
			n++
		}
	}
	return n + f.expired, nil
}

// fakeConsentRepo implements domain.ConsentRepository for tests.
type fakeConsentRepo struct {
	mu   sync.Mutex
	rows map[string]*domain.Consent
}

func newFakeConsentRepo() *fakeConsentRepo {
	return &fakeConsentRepo{rows: make(map[string]*domain.Consent)}
}

func consentKey(userID string, t domain.ConsentType) string { return userID + "/" + string(t) }

func (f *fakeConsentRepo) Upsert(ctx context.Context, c *domain.Consent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	key := consentKey(c.UserID, c.Type)
	if existing, ok := f.rows[key]; ok {
		c.ID = existing.ID
		c.CreatedAt = existing.CreatedAt
	} else {
		c.ID = uuid.NewString()
	}
	cp := *c
	f.rows[key] = &cp
	return nil
}

func (f *fakeConsentRepo) Get(ctx context.Context, userID string, t domain.ConsentType) (*domain.Consent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.rows[consentKey(userID, t)]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeConsentRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.Consent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Consent, 0)
	for _, c := range f.rows {
		if c.UserID == userID {
			cp := *c
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Type < out[j].Type })
	return out, nil
}

// fakeVerificationRepo implements domain.EmailVerificationRepository for tests.
type fakeVerificationRepo struct {
	mu   sync.Mutex
	rows []*domain.EmailVerification
}

func (f *fakeVerificationRepo) Create(ctx context.Context, v *domain.EmailVerification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	v.ID = uuid.NewString()
	cp := *v
	f.rows = append(f.rows, &cp)
	return nil
}

func (f *fakeVerificationRepo) GetByToken(ctx context.Context, tokenHash string) (*domain.EmailVerification, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.rows {
		if v.Token == tokenHash {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeVerificationRepo) MarkVerified(ctx context.Context, id string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.rows {
		if v.ID == id && v.VerifiedAt == nil {
			v.VerifiedAt = &at
			return nil
		}
	}
	return domain.ErrNotFound
}

func (f *fakeVerificationRepo) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	kept := f.rows[:0]
	var n int64
	for _, v := range f.rows {
		if v.VerifiedAt == nil && !v.ExpiresAt.After(now) {
			n++
			continue
		}
		kept = append(kept, v)
	}
	f.rows = kept
	return n, nil
}

// fakeEventRepo implements domain.EventRepository for tests.
type fakeEventRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Event
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{byID: make(map[string]*domain.Event)}
}

func (f *fakeEventRepo) add(e *domain.Event) *domain.Event {
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.Status == "" {
		e.Status = domain.EventDraft
	}
	cp := *e
	f.byID[e.ID] = &cp
	return e
}

func (f *fakeEventRepo) Create(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Slug == e.Slug {
			return domain.ErrSlugTaken
		}
	}
	f.add(e)
	return nil
}

func (f *fakeEventRepo) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) GetBySlug(ctx context.Context, slug string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.byID {
		if e.Slug == slug {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeEventRepo) SlugExists(ctx context.Context, slug string) (bool, error) {
	_, err := f.GetBySlug(ctx, slug)
	return err == nil, nil
}

func (f *fakeEventRepo) List(ctx context.Context, filter domain.EventFilter, params domain.PaginationParams) ([]*domain.Event, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Event, 0)
	for _, e := range f.byID {
		if filter.OwnerID != "" && e.OwnerID != filter.OwnerID {
			continue
		}
		if len(filter.Statuses) > 0 {
			match := false
			for _, st := range filter.Statuses {
				match = match || e.Status == st
			}
			if !match {
				continue
			}
		}
		cp := *e
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, len(out), nil
}

func (f *fakeEventRepo) Update(ctx context.Context, id string, upd domain.EventUpdate) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Title != nil {
		e.Title = *upd.Title
	}
	if upd.Description != nil {
		e.Description = *upd.Description
	}
	if upd.VenueID != nil {
		e.VenueID = emptyToNil(upd.VenueID)
	}
	if upd.CategoryID != nil {
		e.CategoryID = emptyToNil(upd.CategoryID)
	}
	if upd.StartsAt != nil {
		e.StartsAt = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		e.EndsAt = upd.EndsAt
	}
	if upd.Capacity != nil {
		e.Capacity = *upd.Capacity
	}
	if upd.WaitlistEnabled != nil {
		e.WaitlistEnabled = *upd.WaitlistEnabled
	}
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) SetStatus(ctx context.Context, id string, status domain.EventStatus) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	e.Status = status
	cp := *e
	return &cp, nil
}

func (f *fakeEventRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeEventRepo) CountByStatus(ctx context.Context, ownerID string) ([]domain.StatusCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[domain.EventStatus]int{}
	for _, e := range f.byID {
		if ownerID == "" || e.OwnerID == ownerID {
			counts[e.Status]++
		}
	}
	out := make([]domain.StatusCount, 0, len(counts))
	for st, n := range counts {
		out = append(out, domain.StatusCount{Status: st, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Status < out[j].Status })
	return out, nil
}

func (f *fakeEventRepo) CountByCategory(ctx context.Context, ownerID string) ([]domain.CategoryCount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := map[string]int{}
	for _, e := range f.byID {
		if ownerID != "" && e.OwnerID != ownerID {
			continue
		}
		key := ""
		if e.CategoryID != nil {
			key = *e.CategoryID
		}
		counts[key]++
	}
	out := make([]domain.CategoryCount, 0, len(counts))
	for id, n := range counts {
		out = append(out, domain.CategoryCount{CategoryID: emptyToNil(&id), Count: n})
	}
	return out, nil
}

// fakeVenueRepo implements domain.VenueRepository for tests.
type fakeVenueRepo struct {
	mu     sync.Mutex
	byID   map[string]*domain.Venue
	events map[string]int
}

func newFakeVenueRepo() *fakeVenueRepo {
	return &fakeVenueRepo{byID: make(map[string]*domain.Venue), events: make(map[string]int)}
}

func (f *fakeVenueRepo) add(v *domain.Venue) *domain.Venue {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	cp := *v
	f.byID[v.ID] = &cp
	return v
}

func (f *fakeVenueRepo) Create(ctx context.Context, v *domain.Venue) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if strings.EqualFold(existing.Name, v.Name) {
			return domain.ErrConflict
		}
	}
	f.add(v)
	return nil
}

func (f *fakeVenueRepo) GetByID(ctx context.Context, id string) (*domain.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVenueRepo) GetByName(ctx context.Context, name string) (*domain.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, v := range f.byID {
		if strings.EqualFold(v.Name, name) {
			cp := *v
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeVenueRepo) List(ctx context.Context, filter domain.VenueFilter, params domain.PaginationParams) ([]*domain.Venue, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Venue, 0)
	for _, v := range f.byID {
		if filter.City != "" && !strings.EqualFold(v.City, filter.City) {
			continue
		}
		cp := *v
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (f *fakeVenueRepo) Update(ctx context.Context, id string, upd domain.VenueUpdate) (*domain.Venue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Name != nil {
		v.Name = *upd.Name
	}
	if upd.City != nil {
		v.City = *upd.City
	}
	if upd.Capacity != nil {
		v.Capacity = *upd.Capacity
	}
	if upd.Latitude != nil {
		v.Latitude = upd.Latitude
	}
	if upd.Longitude != nil {
		v.Longitude = upd.Longitude
	}
	cp := *v
	return &cp, nil
}

func (f *fakeVenueRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeVenueRepo) CountEvents(ctx context.Context, id string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[id], nil
}

// fakeCategoryRepo implements domain.CategoryRepository for tests.
type fakeCategoryRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Category
}

func newFakeCategoryRepo() *fakeCategoryRepo {
	return &fakeCategoryRepo{byID: make(map[string]*domain.Category)}
}

func (f *fakeCategoryRepo) add(c *domain.Category) *domain.Category {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	cp := *c
	f.byID[c.ID] = &cp
	return c
}

func (f *fakeCategoryRepo) Create(ctx context.Context, c *domain.Category) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Slug == c.Slug || existing.Name == c.Name {
			return domain.ErrConflict
		}
	}
	f.add(c)
	return nil
}

func (f *fakeCategoryRepo) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategoryRepo) GetBySlug(ctx context.Context, slug string) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.byID {
		if c.Slug == slug {
			cp := *c
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeCategoryRepo) List(ctx context.Context, search string, params domain.PaginationParams) ([]*domain.Category, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Category, 0)
	for _, c := range f.byID {
		if search != "" && !strings.Contains(strings.ToLower(c.Name), strings.ToLower(search)) {
			continue
		}
		cp := *c
		out = append(out, &cp)
	}
	return out, len(out), nil
}

func (f *fakeCategoryRepo) Update(ctx context.Context, id string, upd domain.CategoryUpdate) (*domain.Category, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	c, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Name != nil {
		c.Name = *upd.Name
	}
	if upd.Slug != nil {
		c.Slug = *upd.Slug
	}
	if upd.Description != nil {
		c.Description = *upd.Description
	}
	cp := *c
	return &cp, nil
}

func (f *fakeCategoryRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeShowRepo implements domain.ShowRepository for tests.
type fakeShowRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.Show
}

func newFakeShowRepo() *fakeShowRepo {
	return &fakeShowRepo{byID: make(map[string]*domain.Show)}
}

func (f *fakeShowRepo) Create(ctx context.Context, s *domain.Show) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = uuid.NewString()
	cp := *s
	f.byID[s.ID] = &cp
	return nil
}

func (f *fakeShowRepo) GetByID(ctx context.Context, id string) (*domain.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (f *fakeShowRepo) ListByEventID(ctx context.Context, eventID string) ([]*domain.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Show, 0)
	for _, s := range f.byID {
		if s.EventID == eventID {
			cp := *s
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartsAt.Before(out[j].StartsAt) })
	return out, nil
}

func (f *fakeShowRepo) Update(ctx context.Context, id string, upd domain.ShowUpdate) (*domain.Show, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Title != nil {
		s.Title = *upd.Title
	}
	if upd.StartsAt != nil {
		s.StartsAt = *upd.StartsAt
	}
	if upd.EndsAt != nil {
		s.EndsAt = upd.EndsAt
	}
	if upd.Price != nil {
		s.Price = *upd.Price
	}
	if upd.Currency != nil {
		s.Currency = *upd.Currency
	}
	if upd.SeatsTotal != nil {
		s.SeatsTotal = *upd.SeatsTotal
	}
	cp := *s
	return &cp, nil
}

func (f *fakeShowRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeShowRepo) PriceSummary(ctx context.Context, eventID string) (*domain.PriceSummary, error) {
	shows, _ := f.ListByEventID(ctx, eventID)
	sum := &domain.PriceSummary{}
	total := decimal.Zero
	for i, s := range shows {
		if i == 0 || s.Price.LessThan(sum.Min) {
			sum.Min = s.Price
		}
		if s.Price.GreaterThan(sum.Max) {
			sum.Max = s.Price
		}
		total = total.Add(s.Price)
		sum.Seats += s.SeatsTotal
		sum.Count++
	}
	if sum.Count > 0 {
		sum.Avg = total.Div(decimal.NewFromInt(int64(sum.Count))).Round(2)
	}
	return sum, nil
}

// fakePlaceRepo implements domain.NearbyPlaceRepository for tests.
type fakePlaceRepo struct {
	mu   sync.Mutex
	byID map[string]*domain.NearbyPlace
}

func newFakePlaceRepo() *fakePlaceRepo {
	return &fakePlaceRepo{byID: make(map[string]*domain.NearbyPlace)}
}

func (f *fakePlaceRepo) Create(ctx context.Context, p *domain.NearbyPlace) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = uuid.NewString()
	cp := *p
	f.byID[p.ID] = &cp
	return nil
}

func (f *fakePlaceRepo) GetByID(ctx context.Context, id string) (*domain.NearbyPlace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlaceRepo) ListByEventID(ctx context.Context, eventID string, kind domain.PlaceKind) ([]*domain.NearbyPlace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.NearbyPlace, 0)
	for _, p := range f.byID {
		if p.EventID == eventID && (kind == "" || p.Kind == kind) {
			cp := *p
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakePlaceRepo) Update(ctx context.Context, id string, upd domain.NearbyPlaceUpdate) (*domain.NearbyPlace, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	if upd.Name != nil {
		p.Name = *upd.Name
	}
	if upd.Kind != nil {
		p.Kind = *upd.Kind
	}
	if upd.Latitude != nil {
		p.Latitude = upd.Latitude
	}
	if upd.Longitude != nil {
		p.Longitude = upd.Longitude
	}
	if upd.DistanceMeters != nil {
		p.DistanceMeters = upd.DistanceMeters
	}
	if upd.URL != nil {
		p.URL = *upd.URL
	}
	cp := *p
	return &cp, nil
}

func (f *fakePlaceRepo) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

// fakeWaitlistRepo implements domain.WaitlistRepository for tests.
type fakeWaitlistRepo struct {
	mu        sync.Mutex
	entries   []*domain.WaitlistEntry
	markedIDs []string
}

func (f *fakeWaitlistRepo) Create(ctx context.Context, entry *domain.WaitlistEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	maxPos := 0
	for _, e := range f.entries {
		if e.EventID != entry.EventID {
			continue
		}
		if e.Email == entry.Email {
			return domain.ErrAlreadyOnWaitlist
		}
		if e.Position > maxPos {
			maxPos = e.Position
		}
	}
	entry.ID = uuid.NewString()
	entry.Position = maxPos + 1
	cp := *entry
	f.entries = append(f.entries, &cp)
	return nil
}

func (f *fakeWaitlistRepo) GetByID(ctx context.Context, id string) (*domain.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == id {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeWaitlistRepo) GetByEventAndEmail(ctx context.Context, eventID, email string) (*domain.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.EventID == eventID && e.Email == email {
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeWaitlistRepo) ListByEventID(ctx context.Context, eventID string, status domain.WaitlistStatus, params domain.PaginationParams) ([]*domain.WaitlistEntry, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.WaitlistEntry, 0)
	for _, e := range f.entries {
		if e.EventID == eventID && (status == "" || e.Status == status) {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (f *fakeWaitlistRepo) ListByUserID(ctx context.Context, userID string) ([]*domain.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.WaitlistEntry, 0)
	for _, e := range f.entries {
		if e.UserID != nil && *e.UserID == userID {
			cp := *e
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeWaitlistRepo) CountByEventID(ctx context.Context, eventID string, status domain.WaitlistStatus) (int, error) {
	_, n, err := f.ListByEventID(ctx, eventID, status, domain.PaginationParams{})
	return n, err
}

func (f *fakeWaitlistRepo) NextWaiting(ctx context.Context, eventID string, n int) ([]*domain.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.WaitlistEntry, 0)
	for _, e := range f.entries {
		if e.EventID == eventID && e.Status == domain.WaitlistWaiting {
			cp := *e
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Position < out[j].Position })
	if len(out) > n {
		out = out[:n]
	}
	return out, nil
}

func (f *fakeWaitlistRepo) MarkNotified(ctx context.Context, ids []string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.markedIDs = append(f.markedIDs, ids...)
	for _, id := range ids {
		for _, e := range f.entries {
			if e.ID == id && e.Status == domain.WaitlistWaiting {
				e.Status = domain.WaitlistNotified
				e.NotifiedAt = &at
			}
		}
	}
	return nil
}

func (f *fakeWaitlistRepo) UpdateStatus(ctx context.Context, id string, status domain.WaitlistStatus) (*domain.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.entries {
		if e.ID == id {
			e.Status = status
			cp := *e
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeWaitlistRepo) Requeue(ctx context.Context, eventID, id string) (*domain.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	maxPos := 0
	var target *domain.WaitlistEntry
	for _, e := range f.entries {
		if e.EventID != eventID {
			continue
		}
		if e.Position > maxPos {
			maxPos = e.Position
		}
		if e.ID == id {
			target = e
		}
	}
	if target == nil {
		return nil, domain.ErrNotFound
	}
	target.Status = domain.WaitlistWaiting
	target.NotifiedAt = nil
	target.Position = maxPos + 1
	cp := *target
	return &cp, nil
}

// fakeInvitationRepo implements domain.InvitationRepository for tests.
type fakeInvitationRepo struct {
	mu      sync.Mutex
	byID    map[string]*domain.Invitation
	expired int64
}

func newFakeInvitationRepo() *fakeInvitationRepo {
	return &fakeInvitationRepo{byID: make(map[string]*domain.Invitation)}
}

func (f *fakeInvitationRepo) Create(ctx context.Context, inv *domain.Invitation) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv.ID = uuid.NewString()
	cp := *inv
	f.byID[inv.ID] = &cp
	return nil
}

func (f *fakeInvitationRepo) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitationRepo) GetByToken(ctx context.Context, tokenHash string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.byID {
		if inv.Token == tokenHash {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) FindPending(ctx context.Context, inviterID, email string) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, inv := range f.byID {
		if inv.InviterID == inviterID && inv.Email == email && inv.Status == domain.InvitationPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (f *fakeInvitationRepo) listWhere(match func(*domain.Invitation) bool) ([]*domain.Invitation, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*domain.Invitation, 0)
	for _, inv := range f.byID {
		if match(inv) {
			cp := *inv
			out = append(out, &cp)
		}
	}
	return out, len(out), nil
}

func (f *fakeInvitationRepo) ListByInviter(ctx context.Context, inviterID string, params domain.PaginationParams) ([]*domain.Invitation, int, error) {
	return f.listWhere(func(inv *domain.Invitation) bool { return inv.InviterID == inviterID })
}

func (f *fakeInvitationRepo) ListByEmail(ctx context.Context, email string, params domain.PaginationParams) ([]*domain.Invitation, int, error) {
	return f.listWhere(func(inv *domain.Invitation) bool { return inv.Email == email })
}

func (f *fakeInvitationRepo) Accept(ctx context.Context, id, inviteeID string, at time.Time) (*domain.Invitation, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok || inv.Status != domain.InvitationPending {
		return nil, domain.ErrNotFound
	}
	inv.Status = domain.InvitationAccepted
	inv.InviteeID = &inviteeID
	inv.AcceptedAt = &at
	cp := *inv
	return &cp, nil
}

func (f *fakeInvitationRepo) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	inv, ok := f.byID[id]
	if !ok {
		return domain.ErrNotFound
	}
	inv.Status = status
	return nil
}

func (f *fakeInvitationRepo) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := f.expired
	for _, inv := range f.byID {
		if inv.Status == domain.InvitationPending && !inv.ExpiresAt.After(now) {
			inv.Status = domain.InvitationExpired
			n++
		}
	}
	return n, nil
}

// fakeAuditLogRepo implements domain.AuditLogRepository for tests.
type fakeAuditLogRepo struct {
	mu      sync.Mutex
	entries []*domain.AuditLog
	err     error
}

func (f *fakeAuditLogRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	entry.ID = uuid.NewString()
	f.entries = append(f.entries, entry)
	return nil
}

func (f *fakeAuditLogRepo) List(ctx context.Context, filter domain.AuditFilter, params domain.PaginationParams) ([]*domain.AuditLog, int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.entries, len(f.entries), nil
}

// fakeAudit implements domain.AuditService and remembers recorded actions.
type fakeAudit struct {
	mu      sync.Mutex
	actions []string
}

func (f *fakeAudit) Record(ctx context.Context, userID *string, action, entityType, entityID string, metadata map[string]any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.actions = append(f.actions, action)
}

func (f *fakeAudit) List(ctx context.Context, caller domain.Principal, filter domain.AuditFilter, params domain.PaginationParams) ([]*domain.AuditLog, int, error) {
	return nil, 0, nil
}

// fakeEmailService implements domain.EmailService and keeps what was sent.
type fakeEmailService struct {
	mu            sync.Mutex
	welcome       []*domain.WelcomeEmailData
	verifications []*domain.VerificationEmailData
	invitations   []*domain.InvitationEmailData
	waitlist      []*domain.WaitlistSpotEmailData
	failFor       map[string]bool
}

func (f *fakeEmailService) fail(email string) error {
	if f.failFor[email] {
		return errors.New("smtp unavailable")
	}
	return nil
}

func (f *fakeEmailService) SendWelcome(ctx context.Context, data *domain.WelcomeEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.welcome = append(f.welcome, data)
	return f.fail(data.Email)
}

func (f *fakeEmailService) SendVerification(ctx context.Context, data *domain.VerificationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifications = append(f.verifications, data)
	return f.fail(data.Email)
}

func (f *fakeEmailService) SendInvitation(ctx context.Context, data *domain.InvitationEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.invitations = append(f.invitations, data)
	return f.fail(data.Email)
}

func (f *fakeEmailService) SendWaitlistSpot(ctx context.Context, data *domain.WaitlistSpotEmailData) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.fail(data.Email); err != nil {
		return err
	}
	f.waitlist = append(f.waitlist, data)
	return nil
}

// fakeCache implements domain.EventCache in memory.
type fakeCache struct {
	mu      sync.Mutex
	bySlug  map[string]*domain.Event
	deleted []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{bySlug: make(map[string]*domain.Event)}
}

func (f *fakeCache) Get(ctx context.Context, slug string) (*domain.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.bySlug[slug]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	cp := *e
	return &cp, nil
}

func (f *fakeCache) Set(ctx context.Context, e *domain.Event) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *e
	f.bySlug[e.Slug] = &cp
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, slug string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, slug)
	delete(f.bySlug, slug)
	return nil
}

// fakePasswordHasher implements domain.PasswordHasher for tests.
type fakePasswordHasher struct{}

func (fakePasswordHasher) GenerateSalt() (string, error) { return "salt", nil }

func (fakePasswordHasher) Hash(salt, password string) (string, error) {
	return "hash:" + salt + ":" + password, nil
}

func (fakePasswordHasher) Compare(hash, salt, password string) error {
	if hash != "hash:"+salt+":"+password {
		return domain.ErrInvalidCredentials
	}
	return nil
}

// fakeTokens implements domain.TokenIssuer and domain.TokenParser with an in-memory table.
type fakeTokens struct {
	mu      sync.Mutex
	issued  map[string]domain.TokenClaims
	expiry  time.Duration
	expired map[string]bool
}

func newFakeTokens() *fakeTokens {
	return &fakeTokens{issued: make(map[string]domain.TokenClaims), expired: make(map[string]bool)}
}

func (f *fakeTokens) Issue(claims domain.TokenClaims, expiry time.Duration) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	token := "tok-" + uuid.NewString()
	f.issued[token] = claims
	f.expiry = expiry
	return token, nil
}

func (f *fakeTokens) Parse(token string) (*domain.TokenClaims, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.expired[token] {
		return nil, domain.ErrTokenExpired
	}
	c, ok := f.issued[token]
	if !ok {
		return nil, domain.ErrUnauthorized
	}
	return &c, nil
}

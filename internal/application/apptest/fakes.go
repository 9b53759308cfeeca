// Package apptest provides in-memory implementations of the repository and
// service interfaces for tests.
package apptest

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/lareyna/reyna-api/internal/application/service"
	"github.com/lareyna/reyna-api/internal/domain/export"
	"github.com/lareyna/reyna-api/internal/domain/product"
	"github.com/lareyna/reyna-api/internal/domain/user"
	"github.com/lareyna/reyna-api/pkg/apperror"
)

type UserRepo struct {
	mu    sync.Mutex
	users map[uuid.UUID]*user.User
}

func NewUserRepo() *UserRepo {
	return &UserRepo{users: make(map[uuid.UUID]*user.User)}
}

func (r *UserRepo) Save(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return apperror.NewConflict("user", "email", u.Email)
		}
		if existing.FullName == u.FullName {
			return apperror.NewConflict("user", "full_name", u.FullName)
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) Upsert(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			existing.PasswordHash = u.PasswordHash
			existing.Role = u.Role
			existing.UpdatedAt = u.UpdatedAt
			u.ID = existing.ID
			return nil
		}
	}
	cp := *u
	r.users[u.ID] = &cp
	return nil
}

func (r *UserRepo) FindByID(_ context.Context, id uuid.UUID) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		cp := *u
		return &cp, nil
	}
	return nil, apperror.NewNotFound("user", id.String())
}

func (r *UserRepo) FindByEmail(_ context.Context, email string) (*user.User, error) {
	return r.find(func(u *user.User) bool { return u.Email == email }, email)
}

func (r *UserRepo) FindByLogin(ctx context.Context, identifier string) (*user.User, error) {
	if u, err := r.FindByEmail(ctx, identifier); err == nil {
		return u, nil
	}
	return r.find(func(u *user.User) bool { return u.FullName == identifier }, identifier)
}

func (r *UserRepo) find(match func(*user.User) bool, ident string) (*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if match(u) {
			cp := *u
			return &cp, nil
		}
	}
	return nil, apperror.NewNotFound("user", ident)
}

func (r *UserRepo) List(_ context.Context, limit, offset int) ([]*user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*user.User, 0, len(r.users))
	for _, u := range r.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return page(out, limit, offset), nil
}

type ProductRepo struct {
	mu       sync.Mutex
	nextID   int64
	products map[int64]*product.Product
	// ListCalls counts List invocations so cache tests can tell hits from misses.
	ListCalls int
	// OnList runs after List has read its rows, outside the lock.
	OnList func()
}

func NewProductRepo(seed ...product.Product) *ProductRepo {
	r := &ProductRepo{products: make(map[int64]*product.Product)}
	for i := range seed {
		p := seed[i]
		_ = r.Save(context.Background(), &p)
	}
	return r
}

func (r *ProductRepo) Save(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	p.ID = r.nextID
	if p.CreatedAt.IsZero() {
		p.CreatedAt = time.Now().UTC()
		p.UpdatedAt = p.CreatedAt
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *ProductRepo) Update(_ context.Context, p *product.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[p.ID]; !ok {
		return apperror.NewNotFound("product", fmt.Sprint(p.ID))
	}
	cp := *p
	r.products[p.ID] = &cp
	return nil
}

func (r *ProductRepo) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.products[id]; !ok {
		return apperror.NewNotFound("product", fmt.Sprint(id))
	}
	delete(r.products, id)
	return nil
}

func (r *ProductRepo) FindByID(_ context.Context, id int64) (*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if p, ok := r.products[id]; ok {
		cp := *p
		return &cp, nil
	}
	return nil, apperror.NewNotFound("product", fmt.Sprint(id))
}

func (r *ProductRepo) List(_ context.Context, f product.Filter) ([]*product.Product, error) {
	r.mu.Lock()
	r.ListCalls++
	out := make([]*product.Product, 0, len(r.products))
	for _, p := range r.products {
		if f.Category != "" && p.Category != f.Category {
			continue
		}
		cp := *p
		out = append(out, &cp)
	}
	hook := r.OnList
	r.mu.Unlock()

	if hook != nil {
		hook()
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return page(out, f.Limit, f.Offset), nil
}

func (r *ProductRepo) ListNewest(_ context.Context, limit int) ([]*product.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*product.Product, 0, len(r.products))
	for _, p := range r.products {
		cp := *p
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID > out[j].ID })
	return page(out, limit, 0), nil
}

type ExportRepo struct {
	mu   sync.Mutex
	jobs map[uuid.UUID]*export.Job
}

func NewExportRepo() *ExportRepo {
	return &ExportRepo{jobs: make(map[uuid.UUID]*export.Job)}
}

func (r *ExportRepo) Save(_ context.Context, j *export.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *ExportRepo) Update(_ context.Context, j *export.Job) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.jobs[j.ID]; !ok {
		return apperror.NewNotFound("export job", j.ID.String())
	}
	cp := *j
	r.jobs[j.ID] = &cp
	return nil
}

func (r *ExportRepo) FindByID(_ context.Context, id uuid.UUID) (*export.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if j, ok := r.jobs[id]; ok {
		cp := *j
		return &cp, nil
	}
	return nil, apperror.NewNotFound("export job", id.String())
}

// Publisher records every event. Set Err to make publishing fail.
type Publisher struct {
	mu            sync.Mutex
	Err           error
	UserEvents    []service.UserEvent
	ProductEvents []service.ProductEvent
	ExportEvents  []service.ExportEvent
}

func (p *Publisher) PublishUserEvent(_ context.Context, e service.UserEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.UserEvents = append(p.UserEvents, e)
	return nil
}

func (p *Publisher) PublishProductEvent(_ context.Context, e service.ProductEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.ProductEvents = append(p.ProductEvents, e)
	return nil
}

func (p *Publisher) PublishExportEvent(_ context.Context, e service.ExportEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.Err != nil {
		return p.Err
	}
	p.ExportEvents = append(p.ExportEvents, e)
	return nil
}

func (p *Publisher) ProductEventTypes() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	types := make([]string, len(p.ProductEvents))
	for i, e := range p.ProductEvents {
		types[i] = e.Type
	}
	return types
}

// ProductCache is a map backed cache with generations. Set Err to simulate
// an unreachable cache server.
type ProductCache struct {
	mu            sync.Mutex
	Err           error
	gen           int64
	entries       map[string][]*product.Product
	Invalidations int
}

func NewProductCache() *ProductCache {
	return &ProductCache{entries: make(map[string][]*product.Product)}
}

func (c *ProductCache) Generation(context.Context) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return 0, c.Err
	}
	return c.gen, nil
}

func (c *ProductCache) GetList(_ context.Context, gen int64, key string) ([]*product.Product, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return nil, false, c.Err
	}
	ps, ok := c.entries[fmt.Sprintf("%d:%s", gen, key)]
	return ps, ok, nil
}

func (c *ProductCache) SetList(_ context.Context, gen int64, key string, products []*product.Product) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.entries[fmt.Sprintf("%d:%s", gen, key)] = products
	return nil
}

func (c *ProductCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.Invalidations++
	if c.Err != nil {
		return c.Err
	}
	c.gen++
	return nil
}

// Uploader keeps uploaded bytes in memory and serves them from a fake host.
type Uploader struct {
	mu      sync.Mutex
	Err     error
	Files   map[string][]byte
	Deleted []string
}

func NewUploader() *Uploader {
	return &Uploader{Files: make(map[string][]byte)}
}

func (u *Uploader) Upload(_ context.Context, file io.Reader, folder string, publicID string) (string, error) {
	if u.Err != nil {
		return "", u.Err
	}
	data, err := io.ReadAll(file)
	if err != nil {
		return "", err
	}
	key := strings.TrimSuffix(folder, "/") + "/" + publicID
	u.mu.Lock()
	u.Files[key] = data
	u.mu.Unlock()
	return "https://files.test/" + key, nil
}

func (u *Uploader) Delete(_ context.Context, publicID string) error {
	u.mu.Lock()
	defer u.mu.Unlock()
	delete(u.Files, publicID)
	u.Deleted = append(u.Deleted, publicID)
	return nil
}

func (u *Uploader) ThumbnailURL(publicID string) (string, error) {
	if publicID == "" {
		return "", errors.New("empty public id")
	}
	return "https://files.test/c_limit,w_400/" + publicID, nil
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return items[:0]
	}
	items = items[offset:]
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}

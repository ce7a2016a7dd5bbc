package service_test

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/linemk/grocery-shop/internal/domain/models"
	"github.com/linemk/grocery-shop/internal/storage"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

type fakeUserRepo struct {
	users map[string]*models.User // ключ - id
	err   error
}

var _ storage.UserStorage = (*fakeUserRepo)(nil)

func newFakeUserRepo(users ...*models.User) *fakeUserRepo {
	f := &fakeUserRepo{users: make(map[string]*models.User)}
	for _, u := range users {
		f.users[u.ID] = u
	}
	return f
}

func (f *fakeUserRepo) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, storage.ErrUserNotFound
}

func (f *fakeUserRepo) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	return u, nil
}

func (f *fakeUserRepo) CreateUser(ctx context.Context, user *models.User) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	for _, u := range f.users {
		if u.Email == user.Email {
			return nil, storage.ErrUserExists
		}
	}
	user.ID = uuid.NewString()
	if user.Role == "" {
		user.Role = models.RoleUser
	}
	user.CreatedAt = time.Now()
	f.users[user.ID] = user
	return user, nil
}

func (f *fakeUserRepo) ListUsers(ctx context.Context) ([]*models.UserSummary, error) {
	if f.err != nil {
		return nil, f.err
	}
	var res []*models.UserSummary
	for _, u := range f.users {
		res = append(res, &models.UserSummary{User: *u})
	}
	return res, nil
}

func (f *fakeUserRepo) UpdateUserRole(ctx context.Context, id string, role models.Role) (*models.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, storage.ErrUserNotFound
	}
	u.Role = role
	return u, nil
}

func (f *fakeUserRepo) DeleteUser(ctx context.Context, id string) error {
	if _, ok := f.users[id]; !ok {
		return storage.ErrUserNotFound
	}
	delete(f.users, id)
	return nil
}

type fakeProductRepo struct {
	products     map[string]*models.Product
	locked       []string
	decremented  map[string]int
	decrementErr error
	err          error
	lastFilter   storage.ProductFilter
	deleteErr    error
}

var _ storage.ProductStorage = (*fakeProductRepo)(nil)

func newFakeProductRepo(products ...*models.Product) *fakeProductRepo {
	f := &fakeProductRepo{
		products:    make(map[string]*models.Product),
		decremented: make(map[string]int),
	}
	for _, p := range products {
		f.products[p.ID] = p
	}
	return f
}

func (f *fakeProductRepo) ListProducts(ctx context.Context, filter storage.ProductFilter) ([]*models.Product, error) {
	f.lastFilter = filter
	if f.err != nil {
		return nil, f.err
	}
	var res []*models.Product
	for _, p := range f.products {
		if filter.Category == "" || p.Category == filter.Category {
			res = append(res, p)
		}
	}
	return res, nil
}

func (f *fakeProductRepo) SearchProducts(ctx context.Context, query string, limit int) ([]*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	var res []*models.Product
	for _, p := range f.products {
		res = append(res, p)
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Name < res[j].Name })
	if len(res) > limit {
		res = res[:limit]
	}
	return res, nil
}

func (f *fakeProductRepo) GetProductByID(ctx context.Context, id string) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	return p, nil
}

func (f *fakeProductRepo) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if f.err != nil {
		return nil, f.err
	}
	p.ID = uuid.NewString()
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProductRepo) UpdateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	if _, ok := f.products[p.ID]; !ok {
		return nil, storage.ErrProductNotFound
	}
	f.products[p.ID] = p
	return p, nil
}

func (f *fakeProductRepo) DeleteProduct(ctx context.Context, id string) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.products[id]; !ok {
		return storage.ErrProductNotFound
	}
	delete(f.products, id)
	return nil
}

func (f *fakeProductRepo) ListCategories(ctx context.Context) ([]models.CategoryCount, error) {
	if f.err != nil {
		return nil, f.err
	}
	counts := make(map[string]int)
	for _, p := range f.products {
		counts[p.Category]++
	}
	var res []models.CategoryCount
	for c, n := range counts {
		res = append(res, models.CategoryCount{Category: c, ProductCount: n})
	}
	sort.Slice(res, func(i, j int) bool { return res[i].Category < res[j].Category })
	return res, nil
}

// LockProductTx игнорирует tx и отдаёт копию, как это сделала бы БД
func (f *fakeProductRepo) LockProductTx(ctx context.Context, tx *sql.Tx, id string) (*models.Product, error) {
	f.locked = append(f.locked, id)
	p, ok := f.products[id]
	if !ok {
		return nil, storage.ErrProductNotFound
	}
	cp := *p
	return &cp, nil
}

func (f *fakeProductRepo) DecrementStockTx(ctx context.Context, tx *sql.Tx, id string, quantity int) error {
	if f.decrementErr != nil {
		return f.decrementErr
	}
	p, ok := f.products[id]
	if !ok {
		return storage.ErrProductNotFound
	}
	if p.Stock < quantity {
		return storage.ErrOutOfStock
	}
	p.Stock -= quantity
	f.decremented[id] += quantity
	return nil
}

type fakeOrderRepo struct {
	orders    map[string]*models.Order
	createErr error
	err       error
	counts    map[string]int
}

var _ storage.OrderStorage = (*fakeOrderRepo)(nil)

func newFakeOrderRepo(orders ...*models.Order) *fakeOrderRepo {
	f := &fakeOrderRepo{orders: make(map[string]*models.Order), counts: make(map[string]int)}
	for _, o := range orders {
		f.orders[o.ID] = o
		f.counts[o.UserID]++
	}
	return f
}

func (f *fakeOrderRepo) CreateOrderTx(ctx context.Context, tx *sql.Tx, order *models.Order) error {
	if f.createErr != nil {
		return f.createErr
	}
	order.CreatedAt = time.Now()
	order.UpdatedAt = order.CreatedAt
	f.orders[order.ID] = order
	f.counts[order.UserID]++
	return nil
}

func (f *fakeOrderRepo) GetOrderByID(ctx context.Context, id string) (*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, storage.ErrOrderNotFound
	}
	return o, nil
}

func (f *fakeOrderRepo) ListOrdersByUserID(ctx context.Context, userID string) ([]*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	var res []*models.Order
	for _, o := range f.orders {
		if o.UserID == userID {
			res = append(res, o)
		}
	}
	return res, nil
}

func (f *fakeOrderRepo) ListOrders(ctx context.Context) ([]*models.Order, error) {
	if f.err != nil {
		return nil, f.err
	}
	var res []*models.Order
	for _, o := range f.orders {
		res = append(res, o)
	}
	return res, nil
}

func (f *fakeOrderRepo) UpdateOrderStatus(ctx context.Context, id string, status models.OrderStatus) error {
	o, ok := f.orders[id]
	if !ok {
		return storage.ErrOrderNotFound
	}
	o.Status = status
	return nil
}

func (f *fakeOrderRepo) CountOrdersByUserID(ctx context.Context, userID string) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	return f.counts[userID], nil
}

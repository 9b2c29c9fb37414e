package catalog

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noah-isme/backend-pos/internal/common"
	"github.com/noah-isme/backend-pos/internal/repo"
)

type fakeCategories struct {
	rows      map[int64]repo.Category
	nextID    int64
	deleteErr error
}

func (f *fakeCategories) List(_ context.Context) ([]repo.Category, error) {
	out := make([]repo.Category, 0, len(f.rows))
	for _, c := range f.rows {
		out = append(out, c)
	}
	return out, nil
}

func (f *fakeCategories) Get(_ context.Context, id int64) (repo.Category, error) {
	c, ok := f.rows[id]
	if !ok {
		return repo.Category{}, pgx.ErrNoRows
	}
	return c, nil
}

func (f *fakeCategories) Create(_ context.Context, c repo.Category) (repo.Category, error) {
	f.nextID++
	c.ID = f.nextID
	f.rows[c.ID] = c
	return c, nil
}

func (f *fakeCategories) Update(_ context.Context, c repo.Category) (repo.Category, error) {
	if _, ok := f.rows[c.ID]; !ok {
		return repo.Category{}, pgx.ErrNoRows
	}
	f.rows[c.ID] = c
	return c, nil
}

func (f *fakeCategories) Delete(_ context.Context, id int64) error {
	if f.deleteErr != nil {
		return f.deleteErr
	}
	if _, ok := f.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

type fakeProducts struct {
	rows   map[int64]repo.Product
	tags   map[int64][]repo.Tag
	nextID int64
}

func (f *fakeProducts) List(_ context.Context, _ repo.ListParams) ([]repo.Product, error) {
	out := make([]repo.Product, 0, len(f.rows))
	for _, p := range f.rows {
		out = append(out, p)
	}
	return out, nil
}

func (f *fakeProducts) Count(_ context.Context, _ repo.ListParams) (int64, error) {
	return int64(len(f.rows)), nil
}

func (f *fakeProducts) Get(_ context.Context, id int64) (repo.Product, error) {
	p, ok := f.rows[id]
	if !ok {
		return repo.Product{}, pgx.ErrNoRows
	}
	return p, nil
}

func (f *fakeProducts) GetByBarcode(_ context.Context, barcode string) (repo.Product, error) {
	for _, p := range f.rows {
		if p.Barcode != nil && *p.Barcode == barcode {
			return p, nil
		}
	}
	return repo.Product{}, pgx.ErrNoRows
}

func (f *fakeProducts) Create(_ context.Context, p repo.Product) (repo.Product, error) {
	f.nextID++
	p.ID = f.nextID
	f.rows[p.ID] = p
	return p, nil
}

func (f *fakeProducts) Update(_ context.Context, p repo.Product) (repo.Product, error) {
	if _, ok := f.rows[p.ID]; !ok {
		return repo.Product{}, pgx.ErrNoRows
	}
	f.rows[p.ID] = p
	return p, nil
}

func (f *fakeProducts) Delete(_ context.Context, id int64) error {
	if _, ok := f.rows[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(f.rows, id)
	return nil
}

func (f *fakeProducts) Tags(_ context.Context, productID int64) ([]repo.Tag, error) {
	return f.tags[productID], nil
}

func (f *fakeProducts) AttachTag(_ context.Context, productID int64, name string) (repo.Tag, error) {
	t := repo.Tag{ID: int64(len(f.tags[productID]) + 1), Name: name}
	f.tags[productID] = append(f.tags[productID], t)
	return t, nil
}

func (f *fakeProducts) DetachTag(_ context.Context, productID, tagID int64) error {
	tags := f.tags[productID]
	for i, t := range tags {
		if t.ID == tagID {
			f.tags[productID] = append(tags[:i], tags[i+1:]...)
			return nil
		}
	}
	return pgx.ErrNoRows
}

func newTestCatalog() (*Service, *fakeCategories, *fakeProducts) {
	cats := &fakeCategories{rows: map[int64]repo.Category{}}
	prods := &fakeProducts{rows: map[int64]repo.Product{}, tags: map[int64][]repo.Tag{}}
	svc := NewService(ServiceConfig{Categories: cats, Products: prods, Cache: NewCache(nil, 0)})
	return svc, cats, prods
}

func TestCreateCategoryValidatesTierLimits(t *testing.T) {
	svc, _, _ := newTestCatalog()
	tier2 := int64(800)
	bad := int32(-1)
	limit1 := int32(10)
	limit2 := int32(5)

	cases := []struct {
		name string
		in   CategoryInput
	}{
		{"negative limit", CategoryInput{Name: "x", PriceTier1: 1000, QtyLimit1: &bad}},
		{"limit2 not above limit1", CategoryInput{Name: "x", PriceTier1: 1000, PriceTier2: &tier2, QtyLimit1: &limit1, QtyLimit2: &limit2}},
	}
	for _, tc := range cases {
		if _, err := svc.CreateCategory(context.Background(), tc.in); err == nil {
			t.Errorf("%s: expected validation error", tc.name)
		}
	}

	limitOK := int32(5)
	c, err := svc.CreateCategory(context.Background(), CategoryInput{
		Name: "Fasteners", PriceTier1: 1000, PriceTier2: &tier2, QtyLimit1: &limitOK,
	})
	if err != nil {
		t.Fatalf("valid category rejected: %v", err)
	}
	if c.Tiers.Tier1 != 1000 || c.Tiers.Tier2 == nil || *c.Tiers.Tier2 != 800 {
		t.Errorf("tiers not persisted: %+v", c.Tiers)
	}
}

func TestCreateCategoryWithSingleTier(t *testing.T) {
	svc, cats, _ := newTestCatalog()

	c, err := svc.CreateCategory(context.Background(), CategoryInput{Name: "Cleaning", PriceTier1: 1500})
	if err != nil {
		t.Fatalf("single-tier category rejected: %v", err)
	}
	if c.Tiers.Tier2 != nil || c.Tiers.Tier3 != nil || c.Tiers.Limit1 != nil || c.Tiers.Limit2 != nil {
		t.Errorf("optional tiers must stay unset: %+v", c.Tiers)
	}

	stored := cats.rows[c.ID]
	if stored.Tiers.Tier2 != nil || stored.Tiers.Limit1 != nil {
		t.Errorf("store received non-nil optional tiers: %+v", stored.Tiers)
	}
	if got := stored.Tiers.UnitPrice(1_000_000); got != 1500 {
		t.Errorf("unit price = %d, want flat 1500", got)
	}
}

func TestCreateProductRequiresExistingCategory(t *testing.T) {
	svc, _, _ := newTestCatalog()
	_, err := svc.CreateProduct(context.Background(), ProductInput{Name: "Hammer", CategoryID: 7})
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "NOT_FOUND" {
		t.Fatalf("err = %v, want NOT_FOUND for missing category", err)
	}
}

func TestGetProductByBarcode(t *testing.T) {
	svc, cats, prods := newTestCatalog()
	cats.rows[1] = repo.Category{ID: 1, Name: "Tools"}
	code := "789100001"
	prods.rows[1] = repo.Product{ID: 1, Name: "Hammer", Barcode: &code, CategoryID: 1}

	detail, err := svc.GetProductByBarcode(context.Background(), code)
	if err != nil {
		t.Fatalf("GetProductByBarcode: %v", err)
	}
	if detail.Name != "Hammer" || detail.Category.Name != "Tools" {
		t.Errorf("detail = %+v", detail)
	}

	if _, err := svc.GetProductByBarcode(context.Background(), "nope"); err == nil {
		t.Error("unknown barcode resolved")
	}
	if _, err := svc.GetProductByBarcode(context.Background(), ""); err == nil {
		t.Error("empty barcode accepted")
	}
}

func TestDeleteCategoryInUseIsConflict(t *testing.T) {
	svc, cats, _ := newTestCatalog()
	cats.rows[1] = repo.Category{ID: 1, Name: "Tools"}
	cats.deleteErr = &pgconn.PgError{Code: "23503"}

	err := svc.DeleteCategory(context.Background(), 1)
	var appErr *common.AppError
	if !errors.As(err, &appErr) || appErr.Code != "CONFLICT" {
		t.Fatalf("err = %v, want CONFLICT", err)
	}
}

func TestTagLifecycle(t *testing.T) {
	svc, cats, prods := newTestCatalog()
	cats.rows[1] = repo.Category{ID: 1, Name: "Tools"}
	prods.rows[1] = repo.Product{ID: 1, Name: "Hammer", CategoryID: 1}

	tag, err := svc.TagProduct(context.Background(), 1, "promo")
	if err != nil {
		t.Fatalf("TagProduct: %v", err)
	}
	detail, err := svc.GetProduct(context.Background(), 1)
	if err != nil {
		t.Fatalf("GetProduct: %v", err)
	}
	if len(detail.Tags) != 1 || detail.Tags[0].Name != "promo" {
		t.Errorf("tags = %+v, want [promo]", detail.Tags)
	}
	if err := svc.UntagProduct(context.Background(), 1, tag.ID); err != nil {
		t.Fatalf("UntagProduct: %v", err)
	}
	if _, err := svc.TagProduct(context.Background(), 1, ""); err == nil {
		t.Error("empty tag name accepted")
	}
}

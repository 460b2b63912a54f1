package shop

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/01moynul/tshirtstore-golang/internal/access"
	"github.com/01moynul/tshirtstore-golang/internal/models"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
)

const (
	homeShelfSize   = 8
	relatedLimit    = 4
	adminProductsPP = 10
)

// Catalog serves products and categories.
type Catalog struct {
	repo    CatalogRepo
	reviews *ReviewLedger
	perPage int
}

func NewCatalog(repo CatalogRepo, reviews *ReviewLedger, perPage int) *Catalog {
	if perPage <= 0 {
		perPage = 12
	}
	return &Catalog{repo: repo, reviews: reviews, perPage: perPage}
}

// CategoryInput is the admin form for a category.
type CategoryInput struct {
	Name        string
	Description string
}

// ProductInput is the admin form for a product.
type ProductInput struct {
	CategoryID      int64
	Name            string
	Description     string
	SKU             string
	ImageURL        string
	Price           decimal.Decimal
	DiscountedPrice *decimal.Decimal
	StockQuantity   int
	IsActive        bool
}

func (in ProductInput) validate() error {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return invalid("name", "is required")
	}
	if utf8.RuneCountInString(name) > 200 {
		return invalid("name", "must be at most 200 characters")
	}
	if in.Price.IsNegative() {
		return invalid("price", "must not be negative")
	}
	if in.DiscountedPrice != nil && in.DiscountedPrice.IsNegative() {
		return invalid("discountedPrice", "must not be negative")
	}
	if in.StockQuantity < 0 {
		return invalid("stock", "must not be negative")
	}
	if in.CategoryID <= 0 {
		return invalid("categoryId", "is required")
	}
	return nil
}

func (in ProductInput) apply(p *models.Product) {
	p.CategoryID = in.CategoryID
	p.Name = strings.TrimSpace(in.Name)
	p.Description = in.Description
	p.SKU = optional(in.SKU)
	p.ImageURL = optional(in.ImageURL)
	p.Price = in.Price
	p.DiscountedPrice = decimal.NullDecimal{}
	if in.DiscountedPrice != nil {
		p.DiscountedPrice = decimal.NewNullDecimal(*in.DiscountedPrice)
	}
	p.StockQuantity = in.StockQuantity
	p.IsActive = in.IsActive
}

func optional(s string) *string {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	return &s
}

// CreateCategory adds a category; the slug is derived from the name.
func (c *Catalog) CreateCategory(ctx context.Context, caller access.Caller, in CategoryInput) (models.Category, error) {
	if err := authorize(caller, access.Admin()); err != nil {
		return models.Category{}, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return models.Category{}, invalid("name", "is required")
	}
	cat := models.Category{
		Name:        name,
		Slug:        slug.Make(name),
		Description: in.Description,
	}
	if err := c.repo.CreateCategory(ctx, &cat); err != nil {
		return models.Category{}, err
	}
	return cat, nil
}

func (c *Catalog) Categories(ctx context.Context) ([]models.Category, error) {
	cats, err := c.repo.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	if cats == nil {
		cats = []models.Category{}
	}
	return cats, nil
}

func (c *Catalog) CreateProduct(ctx context.Context, caller access.Caller, in ProductInput) (models.Product, error) {
	if err := authorize(caller, access.Admin()); err != nil {
		return models.Product{}, err
	}
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}
	if _, err := c.repo.CategoryByID(ctx, in.CategoryID); err != nil {
		return models.Product{}, err
	}

	var p models.Product
	in.apply(&p)
	if err := c.repo.CreateProduct(ctx, &p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// UpdateProduct rewrites a product. Orders already placed keep the prices
// they were bought at.
func (c *Catalog) UpdateProduct(ctx context.Context, caller access.Caller, id int64, in ProductInput) (models.Product, error) {
	if err := authorize(caller, access.Admin()); err != nil {
		return models.Product{}, err
	}
	if err := in.validate(); err != nil {
		return models.Product{}, err
	}

	p, err := c.repo.ProductByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if in.CategoryID != p.CategoryID {
		if _, err := c.repo.CategoryByID(ctx, in.CategoryID); err != nil {
			return models.Product{}, err
		}
	}
	in.apply(&p)
	if err := c.repo.UpdateProduct(ctx, &p); err != nil {
		return models.Product{}, err
	}
	return p, nil
}

// Product returns a product; inactive ones are only visible to admins.
func (c *Catalog) Product(ctx context.Context, caller access.Caller, id int64) (models.Product, error) {
	p, err := c.repo.ProductByID(ctx, id)
	if err != nil {
		return models.Product{}, err
	}
	if !p.IsActive && !caller.IsAdmin {
		return models.Product{}, ErrNotFound
	}
	return p, nil
}

// Browse lists active products.
func (c *Catalog) Browse(ctx context.Context, f ProductFilter) (PageResult[models.Product], error) {
	f.IncludeInactive = false
	f.Search = strings.TrimSpace(f.Search)
	switch f.Sort {
	case SortNewest, SortPriceLow, SortPriceHigh, SortName:
	default:
		f.Sort = SortNewest
	}
	f.Page = f.Page.normalize(c.perPage)

	products, total, err := c.repo.ListProducts(ctx, f)
	if err != nil {
		return PageResult[models.Product]{}, err
	}
	return newPageResult(products, total, f.Page), nil
}

// Home is the landing page content.
type Home struct {
	Featured   []models.Product  `json:"featured"`
	OnSale     []models.Product  `json:"onSale"`
	Categories []models.Category `json:"categories"`
}

func (c *Catalog) Home(ctx context.Context) (Home, error) {
	shelf := Page{Number: 1, PerPage: homeShelfSize}

	featured, _, err := c.repo.ListProducts(ctx, ProductFilter{Sort: SortNewest, Page: shelf})
	if err != nil {
		return Home{}, err
	}
	onSale, _, err := c.repo.ListProducts(ctx, ProductFilter{Sort: SortNewest, DiscountedOnly: true, Page: shelf})
	if err != nil {
		return Home{}, err
	}
	cats, err := c.Categories(ctx)
	if err != nil {
		return Home{}, err
	}
	return Home{Featured: orEmpty(featured), OnSale: orEmpty(onSale), Categories: cats}, nil
}

// ProductDetail is the product page content.
type ProductDetail struct {
	Product            models.Product   `json:"product"`
	EffectivePrice     decimal.Decimal  `json:"effectivePrice"`
	DiscountPercentage int              `json:"discountPercentage"`
	Related            []models.Product `json:"related"`
	ProductReviews
}

func (c *Catalog) Detail(ctx context.Context, caller access.Caller, id int64) (ProductDetail, error) {
	p, err := c.Product(ctx, caller, id)
	if err != nil {
		return ProductDetail{}, err
	}
	related, err := c.repo.RelatedProducts(ctx, p, relatedLimit)
	if err != nil {
		return ProductDetail{}, err
	}
	reviews, err := c.reviews.ForProduct(ctx, p.ID)
	if err != nil {
		return ProductDetail{}, err
	}
	return ProductDetail{
		Product:            p,
		EffectivePrice:     p.EffectivePrice(),
		DiscountPercentage: p.DiscountPercentage(),
		Related:            orEmpty(related),
		ProductReviews:     reviews,
	}, nil
}

// AdminList lists every product, active or not, newest first.
func (c *Catalog) AdminList(ctx context.Context, caller access.Caller, page Page) (PageResult[models.Product], error) {
	if err := authorize(caller, access.Admin()); err != nil {
		return PageResult[models.Product]{}, err
	}
	page = page.normalize(adminProductsPP)
	products, total, err := c.repo.ListProducts(ctx, ProductFilter{Sort: SortNewest, IncludeInactive: true, Page: page})
	if err != nil {
		return PageResult[models.Product]{}, err
	}
	return newPageResult(products, total, page), nil
}

func orEmpty(ps []models.Product) []models.Product {
	if ps == nil {
		return []models.Product{}
	}
	return ps
}

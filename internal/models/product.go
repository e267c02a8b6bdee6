package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/g-but/fitfoot/internal/listing"
)

const (
	ProductTypeNew         = "new"
	ProductTypeRefurbished = "refurbished"
)

const (
	ProductStatusDraft  = "draft"
	ProductStatusActive = "active"
)

type Variant struct {
	ID        string          `json:"id"`
	SKU       string          `json:"sku,omitempty"`
	Size      string          `json:"size,omitempty"`
	Color     string          `json:"color,omitempty"`
	Price     decimal.Decimal `json:"price"`
	Inventory int             `json:"inventory"`
}

type Product struct {
	ID             string          `json:"id"`
	Title          string          `json:"title"`
	Brand          string          `json:"brand,omitempty"`
	Description    string          `json:"description,omitempty"`
	Category       string          `json:"category,omitempty"`
	ProductType    string          `json:"product_type"`
	ConditionGrade string          `json:"condition_grade,omitempty"`
	Status         string          `json:"status"`
	Archived       bool            `json:"archived"`
	Price          decimal.Decimal `json:"price"`
	Variants       []Variant       `json:"variants,omitempty"`
	Rating         float64         `json:"rating,omitempty"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Inventory summed over variants
func (p Product) Inventory() int {
	total := 0
	for _, v := range p.Variants {
		total += v.Inventory
	}
	return total
}

// InStock: products without variants carry no stock data and are sold as long as they are listed
func (p Product) InStock() bool {
	if p.Archived {
		return false
	}
	if len(p.Variants) == 0 {
		return true
	}
	return p.Inventory() > 0
}

// ListingItem: multi-variant products are priced by their variants, others by base price
func (p Product) ListingItem() listing.Item {
	prices := make([]decimal.Decimal, 0, max(len(p.Variants), 1))
	for _, v := range p.Variants {
		prices = append(prices, v.Price)
	}
	if len(prices) == 0 {
		prices = append(prices, p.Price)
	}

	return listing.Item{
		Name:        p.Title,
		Brand:       p.Brand,
		Description: p.Description,
		Category:    p.Category,
		Status:      p.Status,
		Prices:      prices,
		Rating:      p.Rating,
		AddedAt:     p.CreatedAt,
		InStock:     p.InStock(),
		Refurbished: p.ProductType == ProductTypeRefurbished,
	}
}

type WishlistItem struct {
	ID            string           `json:"id"`
	Name          string           `json:"name"`
	Brand         string           `json:"brand"`
	Category      string           `json:"category"`
	Price         decimal.Decimal  `json:"price"`
	OriginalPrice *decimal.Decimal `json:"originalPrice,omitempty"`
	Rating        float64          `json:"rating"`
	ReviewCount   int              `json:"reviewCount"`
	InStock       bool             `json:"inStock"`
	IsRefurbished bool             `json:"isRefurbished"`
	AddedDate     time.Time        `json:"addedDate"`
}

func (w WishlistItem) ListingItem() listing.Item {
	return listing.Item{
		Name:        w.Name,
		Brand:       w.Brand,
		Category:    w.Category,
		Prices:      []decimal.Decimal{w.Price},
		Rating:      w.Rating,
		AddedAt:     w.AddedDate,
		InStock:     w.InStock,
		Refurbished: w.IsRefurbished,
	}
}

// Savings against the original price, zero when not discounted
func (w WishlistItem) Savings() decimal.Decimal {
	if w.OriginalPrice == nil || w.OriginalPrice.LessThanOrEqual(w.Price) {
		return decimal.Zero
	}
	return w.OriginalPrice.Sub(w.Price)
}

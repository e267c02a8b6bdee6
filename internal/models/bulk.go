package models

import (
	"github.com/shopspring/decimal"
)

const (
	BulkDelete    = "delete"
	BulkUpdate    = "update"
	BulkArchive   = "archive"
	BulkUnarchive = "unarchive"
)

const (
	PriceAdjustPercentage = "percentage"
	PriceAdjustFixed      = "fixed"
)

const (
	BulkStatusSuccess = "success"
	BulkStatusError   = "error"
)

// Upper bound of products touched by a single bulk request
const MaxBulkProducts = 100

type PriceAdjustment struct {
	Type  string          `json:"type" validate:"required,oneof=percentage fixed"`
	Value decimal.Decimal `json:"value"`
}

type BulkUpdateData struct {
	ProductType     string           `json:"product_type,omitempty" validate:"omitempty,oneof=new refurbished"`
	ConditionGrade  string           `json:"condition_grade,omitempty"`
	Category        string           `json:"category,omitempty"`
	PriceAdjustment *PriceAdjustment `json:"price_adjustment,omitempty"`
}

type BulkOperation struct {
	Action     string          `json:"action" validate:"required,oneof=delete update archive unarchive"`
	ProductIDs []string        `json:"productIds" validate:"required,min=1,max=100,dive,required"`
	UpdateData *BulkUpdateData `json:"updateData,omitempty"`
}

type BulkItemError struct {
	ProductID string `json:"productId"`
	Message   string `json:"message"`
}

type BulkItemResult struct {
	ProductID string `json:"productId"`
	Status    string `json:"status"`
	Message   string `json:"message,omitempty"`
}

type BulkResult struct {
	Success              bool             `json:"success"`
	TotalProcessed       int              `json:"totalProcessed"`
	SuccessfulOperations int              `json:"successfulOperations"`
	FailedOperations     int              `json:"failedOperations"`
	Errors               []BulkItemError  `json:"errors"`
	Results              []BulkItemResult `json:"results"`
}

package domain

import "time"

type ProductType string

const (
	ProductTypeKarki    ProductType = "Karki"
	ProductTypeMaterial ProductType = "Material"
	ProductTypeJoggers  ProductType = "Joggers"
	ProductTypeJeans    ProductType = "Jeans"
	ProductTypeChinos   ProductType = "Chinos"
	ProductTypeOther    ProductType = "Other"
)

func (t ProductType) Valid() bool {
	switch t {
	case ProductTypeKarki, ProductTypeMaterial, ProductTypeJoggers, ProductTypeJeans, ProductTypeChinos, ProductTypeOther:
		return true
	}
	return false
}

type StockEntryType string

const (
	StockEntryInitial      StockEntryType = "INITIAL"
	StockEntrySale         StockEntryType = "SALE"
	StockEntryReturn       StockEntryType = "RETURN"
	StockEntryManualEdit   StockEntryType = "MANUAL_EDIT"
	StockEntryBulkEdit     StockEntryType = "BULK_EDIT"
	StockEntryRestock      StockEntryType = "RESTOCK"
	StockEntryCancellation StockEntryType = "CANCELLATION"
)

// StockHistoryEntry is one immutable line of a product's audit trail.
// NewStockLevel duplicates the running sum so history listings can show
// absolute levels without replaying every entry.
type StockHistoryEntry struct {
	ID             string         `json:"id"`
	Date           time.Time      `json:"date"`
	Type           StockEntryType `json:"type"`
	QuantityChange int            `json:"quantity_change"`
	NewStockLevel  int            `json:"new_stock_level"`
	Note           string         `json:"note,omitempty"`
}

type Product struct {
	ID            string              `json:"id"`
	Brand         string              `json:"brand"`
	Type          ProductType         `json:"type"`
	Color         string              `json:"color"`
	Model         string              `json:"model"`
	Size          string              `json:"size"`
	CostCfa       float64             `json:"cost_cfa"`
	ExchangeRate  float64             `json:"exchange_rate"` // GHS per 1000 CFA
	CostGhsBase   float64             `json:"cost_ghs_base"`
	ServiceCharge float64             `json:"service_charge"` // GHS amount
	MiscCharge    float64             `json:"misc_charge"`    // GHS amount
	ProfitMargin  float64             `json:"profit_margin"`  // flat GHS
	TaxRate       float64             `json:"tax_rate"`       // percent
	SellingPrice  float64             `json:"selling_price"`
	StockQuantity int                 `json:"stock_quantity"`
	DateAdded     time.Time           `json:"date_added"`
	History       []StockHistoryEntry `json:"history"`
}

// DisplayName is the denormalized product identity snapshotted onto sale rows.
func (p Product) DisplayName() string {
	return p.Brand + " " + string(p.Type) + " (" + p.Color + ")"
}

type ProductCreateRequest struct {
	Brand          string      `json:"brand"`
	Type           ProductType `json:"type"`
	Color          string      `json:"color"`
	Model          string      `json:"model"`
	Size           string      `json:"size"`
	CostCfa        float64     `json:"cost_cfa"`
	ExchangeRate   float64     `json:"exchange_rate"`
	ServiceRatePct float64     `json:"service_rate_pct"`
	MiscRatePct    float64     `json:"misc_rate_pct"`
	ProfitMargin   float64     `json:"profit_margin"`
	TaxRatePct     float64     `json:"tax_rate_pct"`
	InitialStock   int         `json:"initial_stock"`
}

type ProductUpdateRequest struct {
	Brand          *string      `json:"brand,omitempty"`
	Type           *ProductType `json:"type,omitempty"`
	Color          *string      `json:"color,omitempty"`
	Model          *string      `json:"model,omitempty"`
	Size           *string      `json:"size,omitempty"`
	CostCfa        *float64     `json:"cost_cfa,omitempty"`
	ExchangeRate   *float64     `json:"exchange_rate,omitempty"`
	ServiceRatePct *float64     `json:"service_rate_pct,omitempty"`
	MiscRatePct    *float64     `json:"misc_rate_pct,omitempty"`
	ProfitMargin   *float64     `json:"profit_margin,omitempty"`
	TaxRatePct     *float64     `json:"tax_rate_pct,omitempty"`
}

type StockSetRequest struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

type RestockRequest struct {
	Quantity int    `json:"quantity"`
	Note     string `json:"note"`
}

type BulkStockMode string

const (
	BulkStockSet BulkStockMode = "SET"
	BulkStockAdd BulkStockMode = "ADD"
)

type BulkStockRequest struct {
	ProductIDs []string      `json:"product_ids"`
	Mode       BulkStockMode `json:"mode"`
	Value      int           `json:"value"`
	Reason     string        `json:"reason"`
}

type BulkPricingRequest struct {
	ProductIDs   []string `json:"product_ids"`
	ProfitMargin *float64 `json:"profit_margin,omitempty"`
	TaxRatePct   *float64 `json:"tax_rate_pct,omitempty"`
}

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentPaid      PaymentStatus = "PAID"
	PaymentCancelled PaymentStatus = "CANCELLED"
)

type PaymentMethod string

const (
	PayCash    PaymentMethod = "CASH"
	PayMomo    PaymentMethod = "MOMO"
	PayCard    PaymentMethod = "CARD"
	PayUnknown PaymentMethod = "UNKNOWN"
)

func (m PaymentMethod) Valid() bool {
	switch m {
	case PayCash, PayMomo, PayCard, PayUnknown:
		return true
	}
	return false
}

type FulfillmentStatus string

const (
	FulfillmentNew        FulfillmentStatus = "NEW"
	FulfillmentProcessing FulfillmentStatus = "PROCESSING"
	FulfillmentReady      FulfillmentStatus = "READY"
	FulfillmentCompleted  FulfillmentStatus = "COMPLETED"
)

// Sale is one line item of a logical order. Rows created in one checkout
// share a TransactionID and move through payment transitions together.
// A compensating return row carries negative Quantity/TotalPrice/TaxAmount.
type Sale struct {
	ID                string            `json:"id"`
	TransactionID     string            `json:"transaction_id"`
	ProductID         string            `json:"product_id"`
	ProductName       string            `json:"product_name"`
	Quantity          int               `json:"quantity"`
	TotalPrice        float64           `json:"total_price"`
	TaxAmount         float64           `json:"tax_amount"`
	Salesman          string            `json:"salesman"`
	CustomerID        string            `json:"customer_id,omitempty"`
	CustomerName      string            `json:"customer_name"`
	Date              time.Time         `json:"date"`
	ReturnedQuantity  int               `json:"returned_quantity"`
	PaymentStatus     PaymentStatus     `json:"payment_status"`
	PaymentMethod     PaymentMethod     `json:"payment_method,omitempty"`
	PaymentDate       *time.Time        `json:"payment_date,omitempty"`
	CashierName       string            `json:"cashier_name,omitempty"`
	FulfillmentStatus FulfillmentStatus `json:"fulfillment_status"`
}

type Customer struct {
	ID               string    `json:"id"`
	Name             string    `json:"name"`
	Phone            string    `json:"phone"`
	Email            string    `json:"email,omitempty"`
	TotalSpent       float64   `json:"total_spent"`
	LastPurchaseDate time.Time `json:"last_purchase_date"`
	Preferences      []string  `json:"preferences"`
}

type CustomerCreateRequest struct {
	Name  string `json:"name"`
	Phone string `json:"phone"`
	Email string `json:"email,omitempty"`
}

type CartLine struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type CheckoutRequest struct {
	Lines      []CartLine `json:"lines"`
	CustomerID string     `json:"customer_id,omitempty"`
	Salesman   string     `json:"salesman,omitempty"`
}

type ReceiptLine struct {
	ProductID   string  `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
	TaxAmount   float64 `json:"tax_amount"`
}

// CheckoutResponse doubles as the payment ticket handed to the cashier queue.
type CheckoutResponse struct {
	TransactionID string        `json:"transaction_id"`
	Date          time.Time     `json:"date"`
	CustomerName  string        `json:"customer_name"`
	Salesman      string        `json:"salesman"`
	Items         []ReceiptLine `json:"items"`
	TotalAmount   float64       `json:"total_amount"`
	TotalTax      float64       `json:"total_tax"`
}

// BookingRequest is the storefront variant of a checkout: customers book
// against their own account and the order lands in the cashier queue.
type BookingRequest struct {
	Lines        []CartLine `json:"lines"`
	Name         string     `json:"name"`
	Phone        string     `json:"phone"`
	RequiredDate string     `json:"required_date,omitempty"`
	DepositCode  string     `json:"deposit_code,omitempty"`
}

type PaymentRequest struct {
	Method PaymentMethod `json:"method"`
}

type FulfillmentAdvanceRequest struct {
	Status FulfillmentStatus `json:"status"`
}

type ReturnRequest struct {
	Quantity int `json:"quantity"`
}

// OrderGroup is the aggregate view of one logical order: every sale row
// sharing a transaction code, in original relative order.
type OrderGroup struct {
	TransactionID string  `json:"transaction_id"`
	Lines         []Sale  `json:"lines"`
	Total         float64 `json:"total"`
}

type Actor struct {
	Username string
	Role     string
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type RegisterCustomerRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email,omitempty"`
	Password string `json:"password"`
}

type PaymentBreakdown struct {
	Method       PaymentMethod `json:"method"`
	Transactions int           `json:"transactions"`
	Total        float64       `json:"total"`
}

type DailySummary struct {
	Date         string             `json:"date"`
	Orders       int                `json:"orders"`
	ItemsSold    int                `json:"items_sold"`
	GrossSales   float64            `json:"gross_sales"`
	TaxCollected float64            `json:"tax_collected"`
	ByMethod     []PaymentBreakdown `json:"by_method"`
}

package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is a flat entity with a numeric identity unique within its collection.
type Record interface {
	RecordID() int
	SearchFields() []string
}

// RecordPtr is satisfied by pointers to record types that can be assigned an
// id and normalized before validation.
type RecordPtr[T any] interface {
	*T
	Record
	SetRecordID(id int)
	Normalize()
}

type Actor struct {
	Username string `json:"username"`
	Role     string `json:"role"`
}

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

type Product struct {
	ID       int             `json:"id"`
	Name     string          `json:"name" validate:"required"`
	Category string          `json:"category" validate:"required"`
	Price    decimal.Decimal `json:"price" validate:"gte=0"`
	Stock    int             `json:"stock" validate:"gte=0"`
	SKU      string          `json:"sku" validate:"required"`
}

func (p Product) RecordID() int       { return p.ID }
func (p *Product) SetRecordID(id int) { p.ID = id }

func (p Product) SearchFields() []string {
	return []string{p.Name, p.Category, p.SKU}
}

type Customer struct {
	ID            int             `json:"id"`
	Name          string          `json:"name" validate:"required"`
	Email         string          `json:"email" validate:"required,email"`
	Phone         string          `json:"phone" validate:"required"`
	Address       string          `json:"address"`
	TotalOrders   int             `json:"totalOrders" validate:"gte=0"`
	TotalSpent    decimal.Decimal `json:"totalSpent" validate:"gte=0"`
	Status        ActiveStatus    `json:"status" validate:"oneof=Active Inactive"`
	LastOrderDate Date            `json:"lastOrderDate"`
}

func (c Customer) RecordID() int       { return c.ID }
func (c *Customer) SetRecordID(id int) { c.ID = id }

func (c Customer) SearchFields() []string {
	return []string{c.Name, c.Email, c.Phone}
}

type Supplier struct {
	ID            int             `json:"id"`
	Name          string          `json:"name" validate:"required"`
	Email         string          `json:"email" validate:"required,email"`
	Phone         string          `json:"phone" validate:"required"`
	Address       string          `json:"address"`
	ContactPerson string          `json:"contactPerson" validate:"required"`
	TotalOrders   int             `json:"totalOrders" validate:"gte=0"`
	TotalSpent    decimal.Decimal `json:"totalSpent" validate:"gte=0"`
	Status        ActiveStatus    `json:"status" validate:"oneof=Active Inactive"`
	LastOrderDate Date            `json:"lastOrderDate"`
	PaymentTerms  string          `json:"paymentTerms"`
}

func (s Supplier) RecordID() int       { return s.ID }
func (s *Supplier) SetRecordID(id int) { s.ID = id }

func (s Supplier) SearchFields() []string {
	return []string{s.Name, s.Email, s.Phone, s.ContactPerson}
}

type ActiveStatus string

const (
	StatusActive   ActiveStatus = "Active"
	StatusInactive ActiveStatus = "Inactive"
)

type Expense struct {
	ID          int             `json:"id"`
	Date        Date            `json:"date" validate:"required"`
	Category    string          `json:"category" validate:"required"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Description string          `json:"description"`
}

func (e Expense) RecordID() int       { return e.ID }
func (e *Expense) SetRecordID(id int) { e.ID = id }

func (e Expense) SearchFields() []string {
	return []string{e.Category, e.Description, e.Date.String(), e.Amount.String()}
}

type Quotation struct {
	ID           int             `json:"id"`
	Date         Date            `json:"date" validate:"required"`
	Reference    string          `json:"reference" validate:"required"`
	CustomerName string          `json:"customerName" validate:"required"`
	SupplierName string          `json:"supplierName"`
	Amount       decimal.Decimal `json:"amount" validate:"gt=0"`
	Status       string          `json:"status" validate:"required"`
}

func (q Quotation) RecordID() int       { return q.ID }
func (q *Quotation) SetRecordID(id int) { q.ID = id }

func (q Quotation) SearchFields() []string {
	return []string{q.Reference, q.CustomerName, q.SupplierName, q.Date.String(), q.Amount.String(), q.Status}
}

type Transfer struct {
	ID           int    `json:"id"`
	Date         Date   `json:"date" validate:"required"`
	Reference    string `json:"reference" validate:"required"`
	FromLocation string `json:"fromLocation" validate:"required"`
	ToLocation   string `json:"toLocation" validate:"required"`
	Status       string `json:"status" validate:"oneof=Pending Completed Canceled"`
}

func (t Transfer) RecordID() int       { return t.ID }
func (t *Transfer) SetRecordID(id int) { t.ID = id }

func (t Transfer) SearchFields() []string {
	return []string{t.Reference, t.FromLocation, t.ToLocation, t.Date.String(), t.Status}
}

// Location is an entry of the stores collection: a shop or warehouse.
type Location struct {
	ID     int    `json:"id"`
	Name   string `json:"name" validate:"required"`
	Phone  string `json:"phone" validate:"required"`
	Email  string `json:"email" validate:"required,email"`
	Status string `json:"status" validate:"oneof=Enable Disable"`
}

func (l Location) RecordID() int       { return l.ID }
func (l *Location) SetRecordID(id int) { l.ID = id }

func (l Location) SearchFields() []string {
	return []string{l.Name, l.Phone, l.Email, l.Status}
}

type SalesReturn struct {
	ID            int             `json:"id"`
	ProductName   string          `json:"productName" validate:"required"`
	Date          Date            `json:"date" validate:"required"`
	Customer      string          `json:"customer" validate:"required"`
	Status        string          `json:"status" validate:"oneof=Received Pending"`
	GrandTotal    decimal.Decimal `json:"grandTotal" validate:"gt=0"`
	Paid          decimal.Decimal `json:"paid" validate:"gte=0"`
	Due           decimal.Decimal `json:"due" validate:"gte=0"`
	PaymentStatus string          `json:"paymentStatus" validate:"oneof=Paid Unpaid Partial"`
}

func (r SalesReturn) RecordID() int       { return r.ID }
func (r *SalesReturn) SetRecordID(id int) { r.ID = id }

func (r SalesReturn) SearchFields() []string {
	return []string{
		r.ProductName,
		r.Customer,
		r.Date.String(),
		r.Status,
		r.GrandTotal.String(),
		r.Paid.String(),
		r.Due.String(),
		r.PaymentStatus,
	}
}

type DocumentKind string

const (
	KindSale     DocumentKind = "sale"
	KindPurchase DocumentKind = "purchase"
)

type DocumentStatus string

const (
	StatusPending   DocumentStatus = "Pending"
	StatusCompleted DocumentStatus = "Completed"
	StatusReceived  DocumentStatus = "Received"
	StatusCancelled DocumentStatus = "Cancelled"
)

// LineItem is one product-quantity-price tuple owned by a document.
type LineItem struct {
	ProductID int             `json:"productId"`
	Name      string          `json:"name"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
}

// Document is a sale or a purchase. Total is derived from Items and is only
// ever set by the ledger.
type Document struct {
	ID           int             `json:"id"`
	Reference    string          `json:"reference"`
	Counterparty string          `json:"counterparty"`
	Date         Date            `json:"date"`
	Items        []LineItem      `json:"items"`
	Total        decimal.Decimal `json:"total"`
	Status       DocumentStatus  `json:"status"`
}

func (d Document) RecordID() int { return d.ID }

func (d Document) SearchFields() []string {
	return []string{d.Reference, d.Counterparty}
}

type LineItemAction string

const (
	ActionAdd    LineItemAction = "add"
	ActionRemove LineItemAction = "remove"
)

type LineItemOp struct {
	Action    LineItemAction `json:"action" validate:"oneof=add remove"`
	ProductID int            `json:"productId" validate:"gt=0"`
	Quantity  int            `json:"quantity"`
}

type DocumentDraftRequest struct {
	Reference    string         `json:"reference"`
	Counterparty string         `json:"counterparty"`
	Date         string         `json:"date"`
	Status       DocumentStatus `json:"status"`
	Ops          []LineItemOp   `json:"ops" validate:"dive"`
}

type Settings struct {
	Notifications NotificationSettings `json:"notifications"`
	Security      SecuritySettings     `json:"security"`
	Business      BusinessSettings     `json:"business"`
	Appearance    AppearanceSettings   `json:"appearance"`
}

type NotificationSettings struct {
	EmailNotifications bool `json:"emailNotifications"`
	LowStockAlerts     bool `json:"lowStockAlerts"`
	SalesReports       bool `json:"salesReports"`
	PurchaseReports    bool `json:"purchaseReports"`
}

type SecuritySettings struct {
	TwoFactorAuth  bool   `json:"twoFactorAuth"`
	SessionTimeout string `json:"sessionTimeout" validate:"oneof=15 30 60 120"`
	PasswordExpiry string `json:"passwordExpiry" validate:"oneof=30 60 90 180"`
}

type BusinessSettings struct {
	CompanyName string `json:"companyName" validate:"required"`
	Address     string `json:"address"`
	Phone       string `json:"phone"`
	Email       string `json:"email" validate:"omitempty,email"`
	Currency    string `json:"currency" validate:"oneof=USD EUR GBP"`
	Timezone    string `json:"timezone" validate:"required"`
}

type AppearanceSettings struct {
	DarkMode    bool   `json:"darkMode"`
	CompactMode bool   `json:"compactMode"`
	FontSize    string `json:"fontSize" validate:"oneof=small medium large"`
}

type UserAccount struct {
	Username  string    `json:"username"`
	Password  string    `json:"password"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"createdAt"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
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

type AuditEntry struct {
	ID            string    `json:"id"`
	ActorUsername string    `json:"actor_username"`
	ActorRole     string    `json:"actor_role"`
	Action        string    `json:"action"`
	EntityType    string    `json:"entity_type"`
	EntityID      string    `json:"entity_id"`
	Detail        string    `json:"detail"`
	CreatedAt     time.Time `json:"created_at"`
}

type Granularity string

const (
	GranularityWeek    Granularity = "week"
	GranularityMonth   Granularity = "month"
	GranularityQuarter Granularity = "quarter"
	GranularityYear    Granularity = "year"
	GranularityAll     Granularity = "all"
)

type Trend string

const (
	TrendUp   Trend = "up"
	TrendDown Trend = "down"
	TrendFlat Trend = "flat"
)

// StatCard is one summary figure of a report.
type StatCard struct {
	Title      string          `json:"title"`
	Value      decimal.Decimal `json:"value"`
	Previous   decimal.Decimal `json:"previous"`
	Change     float64         `json:"change"`
	Trend      Trend           `json:"trend"`
	Comparable bool            `json:"comparable"`
	Baseline   *int            `json:"baseline,omitempty"`
}

type ProductSales struct {
	ProductID int             `json:"productId"`
	Name      string          `json:"name"`
	UnitsSold int             `json:"unitsSold"`
	Revenue   decimal.Decimal `json:"revenue"`
}

type ExportRow struct {
	Reference    string          `json:"reference"`
	Counterparty string          `json:"counterparty"`
	Date         string          `json:"date"`
	ItemCount    int             `json:"itemCount"`
	Total        decimal.Decimal `json:"total"`
	Status       DocumentStatus  `json:"status"`
}

type ReportWindow struct {
	Granularity   Granularity `json:"granularity"`
	Start         *time.Time  `json:"start,omitempty"`
	End           time.Time   `json:"end"`
	PreviousStart *time.Time  `json:"previousStart,omitempty"`
	PreviousEnd   *time.Time  `json:"previousEnd,omitempty"`
}

type Report struct {
	Window      ReportWindow   `json:"window"`
	Sales       StatCard       `json:"sales"`
	Purchases   StatCard       `json:"purchases"`
	Customers   StatCard       `json:"customers"`
	Products    StatCard       `json:"products"`
	TopSellers  []ProductSales `json:"topSellers"`
	RecentSales []Document     `json:"recentSales"`
	GeneratedAt time.Time      `json:"generatedAt"`
}

type MonthlyTotal struct {
	Month     string          `json:"month"`
	Label     string          `json:"label"`
	Sales     decimal.Decimal `json:"sales"`
	Purchases decimal.Decimal `json:"purchases"`
}

type Dashboard struct {
	TotalProducts  int             `json:"totalProducts"`
	TotalSales     decimal.Decimal `json:"totalSales"`
	TotalPurchases decimal.Decimal `json:"totalPurchases"`
	TotalCustomers int             `json:"totalCustomers"`
	Monthly        []MonthlyTotal  `json:"monthly"`
	LowStock       []Product       `json:"lowStock"`
}

package store

import (
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"

	"stockroom/internal/domain"
	"stockroom/internal/ledger"
)

func money(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func SeedProducts() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Laptop", Category: "Electronics", Price: money("999.99"), Stock: 50, SKU: "LAP001"},
		{ID: 2, Name: "Smartphone", Category: "Electronics", Price: money("699.99"), Stock: 100, SKU: "PHN001"},
		{ID: 3, Name: "Headphones", Category: "Accessories", Price: money("99.99"), Stock: 200, SKU: "HD001"},
		{ID: 4, Name: "Monitor", Category: "Electronics", Price: money("299.99"), Stock: 75, SKU: "MON001"},
		{ID: 5, Name: "Keyboard", Category: "Accessories", Price: money("49.99"), Stock: 150, SKU: "KB001"},
	}
}

func seedItem(productID int, name string, qty int, price string) domain.LineItem {
	return domain.LineItem{ProductID: productID, Name: name, Quantity: qty, UnitPrice: money(price)}
}

func seedDocument(id int, ref string, counterparty string, date string, status domain.DocumentStatus, items ...domain.LineItem) domain.Document {
	return domain.Document{
		ID:           id,
		Reference:    ref,
		Counterparty: counterparty,
		Date:         domain.MustDate(date),
		Items:        items,
		Total:        ledger.Total(items),
		Status:       status,
	}
}

func SeedSales() []domain.Document {
	return []domain.Document{
		seedDocument(1, "INV001", "John Doe", "2024-03-15", domain.StatusCompleted,
			seedItem(1, "Laptop", 1, "999.99"), seedItem(3, "Headphones", 1, "99.99")),
		seedDocument(2, "INV002", "Jane Smith", "2024-03-14", domain.StatusPending,
			seedItem(2, "Smartphone", 1, "699.99"), seedItem(5, "Keyboard", 2, "49.99")),
		seedDocument(3, "INV003", "Mike Johnson", "2024-03-13", domain.StatusCancelled,
			seedItem(3, "Headphones", 1, "99.99"), seedItem(5, "Keyboard", 1, "49.99")),
	}
}

func SeedPurchases() []domain.Document {
	return []domain.Document{
		seedDocument(1, "PO001", "Tech Supplies Inc.", "2024-03-15", domain.StatusReceived,
			seedItem(1, "Laptop", 2, "999.99"), seedItem(3, "Headphones", 5, "99.99")),
		seedDocument(2, "PO002", "Office Depot", "2024-03-14", domain.StatusPending,
			seedItem(2, "Smartphone", 1, "699.99"), seedItem(5, "Keyboard", 2, "49.99")),
		seedDocument(3, "PO003", "Global Electronics", "2024-03-13", domain.StatusCancelled,
			seedItem(4, "Monitor", 3, "299.99"), seedItem(5, "Keyboard", 4, "49.99")),
	}
}

func SeedCustomers() []domain.Customer {
	return []domain.Customer{
		{ID: 1, Name: "John Doe", Email: "john.doe@example.com", Phone: "555-0101", Address: "123 Main St, City, State 12345",
			TotalOrders: 5, TotalSpent: money("2499.99"), Status: domain.StatusActive, LastOrderDate: domain.MustDate("2024-03-15")},
		{ID: 2, Name: "Jane Smith", Email: "jane.smith@example.com", Phone: "555-0102", Address: "456 Oak Ave, City, State 12345",
			TotalOrders: 3, TotalSpent: money("1499.99"), Status: domain.StatusActive, LastOrderDate: domain.MustDate("2024-03-14")},
		{ID: 3, Name: "Mike Johnson", Email: "mike.johnson@example.com", Phone: "555-0103", Address: "789 Pine Rd, City, State 12345",
			TotalOrders: 2, TotalSpent: money("799.99"), Status: domain.StatusInactive, LastOrderDate: domain.MustDate("2024-02-28")},
	}
}

func SeedSuppliers() []domain.Supplier {
	return []domain.Supplier{
		{ID: 1, Name: "Tech Supplies Inc.", Email: "contact@techsupplies.com", Phone: "555-0101", Address: "123 Tech Park, Silicon Valley, CA 94025",
			ContactPerson: "John Smith", TotalOrders: 15, TotalSpent: money("24999.99"), Status: domain.StatusActive,
			LastOrderDate: domain.MustDate("2024-03-15"), PaymentTerms: "Net 30"},
		{ID: 2, Name: "Office Depot", Email: "orders@officedepot.com", Phone: "555-0102", Address: "456 Business Ave, New York, NY 10001",
			ContactPerson: "Sarah Johnson", TotalOrders: 8, TotalSpent: money("14999.99"), Status: domain.StatusActive,
			LastOrderDate: domain.MustDate("2024-03-14"), PaymentTerms: "Net 45"},
		{ID: 3, Name: "Global Electronics", Email: "sales@globalelectronics.com", Phone: "555-0103", Address: "789 Industrial Zone, Chicago, IL 60601",
			ContactPerson: "Mike Brown", TotalOrders: 5, TotalSpent: money("7999.99"), Status: domain.StatusInactive,
			LastOrderDate: domain.MustDate("2024-02-28"), PaymentTerms: "Net 60"},
	}
}

func SeedExpenses() []domain.Expense {
	return []domain.Expense{
		{ID: 1, Date: domain.MustDate("2024-03-15"), Category: "Office Supplies", Amount: money("150.75"), Description: "Purchase of paper and pens"},
		{ID: 2, Date: domain.MustDate("2024-03-14"), Category: "Utilities", Amount: money("300.50"), Description: "Monthly electricity bill"},
		{ID: 3, Date: domain.MustDate("2024-03-13"), Category: "Travel", Amount: money("500.00"), Description: "Business trip to conference"},
		{ID: 4, Date: domain.MustDate("2024-03-12"), Category: "Marketing", Amount: money("200.00"), Description: "Online ad campaign"},
		{ID: 5, Date: domain.MustDate("2024-03-11"), Category: "Salaries", Amount: money("5000.00"), Description: "Monthly payroll"},
	}
}

func SeedQuotations() []domain.Quotation {
	return []domain.Quotation{
		{ID: 1, Date: domain.MustDate("2024-03-20"), Reference: "Q1001", CustomerName: "Alpha Retail", SupplierName: "Beta Supply", Amount: money("1200.50"), Status: "Sent"},
		{ID: 2, Date: domain.MustDate("2024-03-19"), Reference: "Q1002", CustomerName: "Gamma Corp", SupplierName: "Delta Goods", Amount: money("3500.00"), Status: "Accepted"},
		{ID: 3, Date: domain.MustDate("2024-03-18"), Reference: "Q1003", CustomerName: "Alpha Retail", SupplierName: "Epsilon Mart", Amount: money("750.20"), Status: "Rejected"},
	}
}

func SeedTransfers() []domain.Transfer {
	return []domain.Transfer{
		{ID: 1, Date: domain.MustDate("2024-03-22"), Reference: "TRF001", FromLocation: "Warehouse A", ToLocation: "Store 1", Status: "Completed"},
		{ID: 2, Date: domain.MustDate("2024-03-21"), Reference: "TRF002", FromLocation: "Store 2", ToLocation: "Warehouse B", Status: "Pending"},
		{ID: 3, Date: domain.MustDate("2024-03-20"), Reference: "TRF003", FromLocation: "Warehouse A", ToLocation: "Warehouse B", Status: "Completed"},
	}
}

func SeedLocations() []domain.Location {
	return []domain.Location{
		{ID: 1, Name: "Store 1", Phone: "123-456-7890", Email: "store1@example.com", Status: "Enable"},
		{ID: 2, Name: "Store 2", Phone: "987-654-3210", Email: "store2@example.com", Status: "Enable"},
		{ID: 3, Name: "Warehouse", Phone: "555-555-5555", Email: "warehouse@example.com", Status: "Enable"},
	}
}

func SeedSalesReturns() []domain.SalesReturn {
	return []domain.SalesReturn{
		{ID: 1, ProductName: "Macbook Pro", Date: domain.MustDate("2024-03-15"), Customer: "Thomas", Status: "Received",
			GrandTotal: money("550"), Paid: money("120"), Due: money("430"), PaymentStatus: "Partial"},
		{ID: 2, ProductName: "Orange", Date: domain.MustDate("2024-03-14"), Customer: "Benjamin", Status: "Pending",
			GrandTotal: money("50"), Paid: money("0"), Due: money("50"), PaymentStatus: "Unpaid"},
		{ID: 3, ProductName: "Pineapple", Date: domain.MustDate("2024-03-13"), Customer: "James", Status: "Pending",
			GrandTotal: money("30"), Paid: money("30"), Due: money("0"), PaymentStatus: "Paid"},
	}
}

func DefaultSettings() domain.Settings {
	return domain.Settings{
		Notifications: domain.NotificationSettings{
			EmailNotifications: true,
			LowStockAlerts:     true,
			SalesReports:       true,
			PurchaseReports:    true,
		},
		Security: domain.SecuritySettings{
			SessionTimeout: "30",
			PasswordExpiry: "90",
		},
		Business: domain.BusinessSettings{
			CompanyName: "My Company",
			Address:     "123 Business St, City, Country",
			Phone:       "+1 234-567-8900",
			Email:       "contact@mycompany.com",
			Currency:    "USD",
			Timezone:    "UTC",
		},
		Appearance: domain.AppearanceSettings{
			FontSize: "medium",
		},
	}
}

func SeedSettings() []domain.Settings {
	return []domain.Settings{DefaultSettings()}
}

// SeedUsers builds the bootstrap accounts. Passwords are hashed with bcrypt
// before they reach any backend.
func SeedUsers(adminPassword string, staffPassword string) func() []domain.UserAccount {
	return func() []domain.UserAccount {
		now := time.Now().UTC()
		users := make([]domain.UserAccount, 0, 2)
		for _, u := range []struct {
			username string
			password string
			role     string
		}{
			{"admin", adminPassword, domain.RoleAdmin},
			{"staff", staffPassword, domain.RoleStaff},
		} {
			if u.password == "" {
				continue
			}
			hash, err := bcrypt.GenerateFromPassword([]byte(u.password), bcrypt.DefaultCost)
			if err != nil {
				continue
			}
			users = append(users, domain.UserAccount{
				Username:  u.username,
				Password:  string(hash),
				Role:      u.role,
				Active:    true,
				CreatedAt: now,
			})
		}
		return users
	}
}

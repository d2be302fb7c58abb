package domain

import "strings"

func (p *Product) Normalize() {
	p.Name = strings.TrimSpace(p.Name)
	p.Category = strings.TrimSpace(p.Category)
	p.SKU = strings.ToUpper(strings.TrimSpace(p.SKU))
}

func (c *Customer) Normalize() {
	c.Name = strings.TrimSpace(c.Name)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
	c.Phone = strings.TrimSpace(c.Phone)
	c.Address = strings.TrimSpace(c.Address)
	if c.Status == "" {
		c.Status = StatusActive
	}
}

func (s *Supplier) Normalize() {
	s.Name = strings.TrimSpace(s.Name)
	s.Email = strings.ToLower(strings.TrimSpace(s.Email))
	s.Phone = strings.TrimSpace(s.Phone)
	s.Address = strings.TrimSpace(s.Address)
	s.ContactPerson = strings.TrimSpace(s.ContactPerson)
	s.PaymentTerms = strings.TrimSpace(s.PaymentTerms)
	if s.Status == "" {
		s.Status = StatusActive
	}
}

func (e *Expense) Normalize() {
	e.Category = strings.TrimSpace(e.Category)
	e.Description = strings.TrimSpace(e.Description)
}

func (q *Quotation) Normalize() {
	q.Reference = strings.TrimSpace(q.Reference)
	q.CustomerName = strings.TrimSpace(q.CustomerName)
	q.SupplierName = strings.TrimSpace(q.SupplierName)
	q.Status = strings.TrimSpace(q.Status)
}

func (t *Transfer) Normalize() {
	t.Reference = strings.TrimSpace(t.Reference)
	t.FromLocation = strings.TrimSpace(t.FromLocation)
	t.ToLocation = strings.TrimSpace(t.ToLocation)
	if t.Status == "" {
		t.Status = "Pending"
	}
}

func (l *Location) Normalize() {
	l.Name = strings.TrimSpace(l.Name)
	l.Phone = strings.TrimSpace(l.Phone)
	l.Email = strings.ToLower(strings.TrimSpace(l.Email))
	if l.Status == "" {
		l.Status = "Enable"
	}
}

func (r *SalesReturn) Normalize() {
	r.ProductName = strings.TrimSpace(r.ProductName)
	r.Customer = strings.TrimSpace(r.Customer)
}

// StatusAllowed reports whether status is valid for documents of kind.
func (k DocumentKind) StatusAllowed(status DocumentStatus) bool {
	switch status {
	case StatusPending, StatusCancelled:
		return true
	case StatusCompleted:
		return k == KindSale
	case StatusReceived:
		return k == KindPurchase
	default:
		return false
	}
}

// ReferencePrefix is the prefix of generated invoice and purchase order numbers.
func (k DocumentKind) ReferencePrefix() string {
	if k == KindPurchase {
		return "PO"
	}
	return "INV"
}

func (k DocumentKind) Collection() string {
	if k == KindPurchase {
		return "purchases"
	}
	return "sales"
}

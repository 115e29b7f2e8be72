package services

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"clinic-backend/internal/apperr"
	"clinic-backend/internal/db"
	"clinic-backend/internal/models"
	"clinic-backend/internal/repositories"

	"github.com/shopspring/decimal"
)

var errStoreDown = errors.New("store unavailable")

// memDB is an in-memory stand-in for the clinic database. memTx serializes
// transactions and restores a snapshot when one fails, which gives tests
// the same all-or-nothing view a real transaction gives readers.
type memDB struct {
	txMu sync.Mutex
	mu   sync.Mutex

	nextID        int
	appointments  map[int]models.Appointment
	products      map[int]models.Product
	movements     []models.StockMovement
	invoices      map[int]models.Invoice
	items         []models.InvoiceItem
	cash          []models.CashMovement
	patients      map[int]models.Patient
	professionals map[int]models.Professional
	audit         []models.AuditLog

	failAudit      bool
	failItemInsert int
	failCash       bool
}

func newMemDB() *memDB {
	return &memDB{
		nextID:        100,
		appointments:  make(map[int]models.Appointment),
		products:      make(map[int]models.Product),
		invoices:      make(map[int]models.Invoice),
		patients:      make(map[int]models.Patient),
		professionals: make(map[int]models.Professional),
	}
}

func (m *memDB) id() int {
	m.nextID++
	return m.nextID
}

type memSnapshot struct {
	nextID       int
	appointments map[int]models.Appointment
	products     map[int]models.Product
	movements    []models.StockMovement
	invoices     map[int]models.Invoice
	items        []models.InvoiceItem
	cash         []models.CashMovement
}

func (m *memDB) snapshot() memSnapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	s := memSnapshot{
		nextID:       m.nextID,
		appointments: make(map[int]models.Appointment, len(m.appointments)),
		products:     make(map[int]models.Product, len(m.products)),
		invoices:     make(map[int]models.Invoice, len(m.invoices)),
		movements:    append([]models.StockMovement(nil), m.movements...),
		items:        append([]models.InvoiceItem(nil), m.items...),
		cash:         append([]models.CashMovement(nil), m.cash...),
	}
	for k, v := range m.appointments {
		s.appointments[k] = v
	}
	for k, v := range m.products {
		s.products[k] = v
	}
	for k, v := range m.invoices {
		s.invoices[k] = v
	}
	return s
}

func (m *memDB) restore(s memSnapshot) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID = s.nextID
	m.appointments = s.appointments
	m.products = s.products
	m.movements = s.movements
	m.invoices = s.invoices
	m.items = s.items
	m.cash = s.cash
}

func (m *memDB) addProfessional(id int, name string) {
	m.professionals[id] = models.Professional{ID: id, Name: name, IsActive: true}
}

func (m *memDB) addPatient(id int, name string) {
	m.patients[id] = models.Patient{ID: id, Name: name, CPF: "000.000.000-00", IsActive: true}
}

func (m *memDB) addProduct(id int, name string, price string, stock, min int) {
	m.products[id] = models.Product{ID: id, Name: name, SalePrice: mustDecimal(price), CurrentStock: stock, MinStock: min, IsActive: true}
}

func (m *memDB) stock(id int) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.products[id].CurrentStock
}

func (m *memDB) counts() (invoices, items, movements, cash int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.invoices), len(m.items), len(m.movements), len(m.cash)
}

func (m *memDB) auditActions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	var actions []string
	for _, a := range m.audit {
		actions = append(actions, a.Action)
	}
	return actions
}

// memTx implements db.Transactor over memDB
type memTx struct {
	db *memDB
}

func (t memTx) InTx(ctx context.Context, fn func(ctx context.Context, q db.DBTX) error) error {
	t.db.txMu.Lock()
	defer t.db.txMu.Unlock()

	snap := t.db.snapshot()
	if err := fn(ctx, nil); err != nil {
		t.db.restore(snap)
		return err
	}
	return nil
}

// failingTx fails before running anything, as a lost connection would
type failingTx struct{}

func (failingTx) InTx(ctx context.Context, fn func(ctx context.Context, q db.DBTX) error) error {
	return errStoreDown
}

type memAppointments struct{ db *memDB }

func (r memAppointments) LockDate(ctx context.Context, q db.DBTX, date string) error { return nil }

func (r memAppointments) ListActiveOnDate(ctx context.Context, q db.DBTX, date string, excludeID *int) ([]*models.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.Appointment
	for _, a := range r.db.appointments {
		if a.Date != date || a.Status == models.AppointmentCancelled {
			continue
		}
		if excludeID != nil && a.ID == *excludeID {
			continue
		}
		a := a
		out = append(out, &a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r memAppointments) Create(ctx context.Context, q db.DBTX, a *models.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a.ID = r.db.id()
	a.CreatedAt = time.Now()
	a.UpdatedAt = a.CreatedAt
	r.db.appointments[a.ID] = *a
	return nil
}

func (r memAppointments) GetForUpdate(ctx context.Context, q db.DBTX, id int) (*models.Appointment, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.appointments[id]
	if !ok {
		return nil, apperr.NotFound("appointment", id)
	}
	return &a, nil
}

func (r memAppointments) Update(ctx context.Context, q db.DBTX, a *models.Appointment) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if _, ok := r.db.appointments[a.ID]; !ok {
		return apperr.NotFound("appointment", a.ID)
	}
	a.UpdatedAt = time.Now()
	r.db.appointments[a.ID] = *a
	return nil
}

func (r memAppointments) UpdateStatus(ctx context.Context, q db.DBTX, id int, status models.AppointmentStatus) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.appointments[id]
	if !ok {
		return apperr.NotFound("appointment", id)
	}
	a.Status = status
	r.db.appointments[id] = a
	return nil
}

func (r memAppointments) Get(ctx context.Context, id int) (*models.AppointmentWithNames, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	a, ok := r.db.appointments[id]
	if !ok {
		return nil, apperr.NotFound("appointment", id)
	}
	return r.withNames(a), nil
}

func (r memAppointments) ListByDate(ctx context.Context, date string, professionalID *int) ([]*models.AppointmentWithNames, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.AppointmentWithNames
	for _, a := range r.db.appointments {
		if a.Date != date || (professionalID != nil && a.ProfessionalID != *professionalID) {
			continue
		}
		out = append(out, r.withNames(a))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartTime < out[j].StartTime })
	return out, nil
}

func (r memAppointments) withNames(a models.Appointment) *models.AppointmentWithNames {
	view := &models.AppointmentWithNames{Appointment: a, ProfessionalName: r.db.professionals[a.ProfessionalID].Name}
	if a.PatientID != nil {
		view.PatientName = r.db.patients[*a.PatientID].Name
	}
	return view
}

type memParties struct{ db *memDB }

func (r memParties) GetPatient(ctx context.Context, q db.DBTX, id int) (*models.Patient, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.patients[id]
	if !ok {
		return nil, apperr.NotFound("patient", id)
	}
	return &p, nil
}

func (r memParties) GetProfessional(ctx context.Context, q db.DBTX, id int) (*models.Professional, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.professionals[id]
	if !ok {
		return nil, apperr.NotFound("professional", id)
	}
	return &p, nil
}

type memProducts struct{ db *memDB }

func (r memProducts) Get(ctx context.Context, q db.DBTX, id int) (*models.Product, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[id]
	if !ok {
		return nil, apperr.NotFound("product", id)
	}
	return &p, nil
}

func (r memProducts) DecrementStock(ctx context.Context, q db.DBTX, productID, quantity int) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[productID]
	if !ok || p.CurrentStock < quantity {
		return false, nil
	}
	p.CurrentStock -= quantity
	r.db.products[productID] = p
	return true, nil
}

func (r memProducts) IncrementStock(ctx context.Context, q db.DBTX, productID, quantity int) (bool, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	p, ok := r.db.products[productID]
	if !ok {
		return false, nil
	}
	p.CurrentStock += quantity
	r.db.products[productID] = p
	return true, nil
}

func (r memProducts) CreateMovement(ctx context.Context, q db.DBTX, m *models.StockMovement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	m.ID = r.db.id()
	m.CreatedAt = time.Now()
	r.db.movements = append(r.db.movements, *m)
	return nil
}

func (r memProducts) List(ctx context.Context) ([]*models.Product, error) {
	return r.filter(func(p models.Product) bool { return p.IsActive }), nil
}

func (r memProducts) ListLowStock(ctx context.Context) ([]*models.Product, error) {
	return r.filter(func(p models.Product) bool { return p.IsActive && p.LowStock() }), nil
}

func (r memProducts) filter(keep func(models.Product) bool) []*models.Product {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.Product
	for _, p := range r.db.products {
		if keep(p) {
			p := p
			out = append(out, &p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r memProducts) ListMovements(ctx context.Context, productID, limit int) ([]*models.StockMovement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.StockMovement
	for i := len(r.db.movements) - 1; i >= 0 && len(out) < limit; i-- {
		if m := r.db.movements[i]; m.ProductID == productID {
			out = append(out, &m)
		}
	}
	return out, nil
}

type memInvoices struct{ db *memDB }

func (r memInvoices) CreateHeader(ctx context.Context, q db.DBTX, inv *models.Invoice) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	inv.ID = r.db.id()
	inv.CreatedAt = time.Now()
	header := *inv
	header.Items = nil
	r.db.invoices[inv.ID] = header
	return nil
}

func (r memInvoices) CreateItem(ctx context.Context, q db.DBTX, item *models.InvoiceItem) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failItemInsert > 0 && item.Position == r.db.failItemInsert {
		return errStoreDown
	}
	item.ID = r.db.id()
	r.db.items = append(r.db.items, *item)
	return nil
}

func (r memInvoices) Get(ctx context.Context, id int) (*models.InvoiceWithDetails, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	inv, ok := r.db.invoices[id]
	if !ok {
		return nil, apperr.NotFound("invoice", id)
	}
	for _, it := range r.db.items {
		if it.InvoiceID == id {
			inv.Items = append(inv.Items, it)
		}
	}
	return &models.InvoiceWithDetails{
		Invoice:          inv,
		PatientName:      r.db.patients[inv.PatientID].Name,
		PatientCPF:       r.db.patients[inv.PatientID].CPF,
		ProfessionalName: r.db.professionals[inv.ProfessionalID].Name,
	}, nil
}

func (r memInvoices) ListByPeriod(ctx context.Context, from, to time.Time) ([]*models.InvoiceSummary, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.InvoiceSummary
	for _, inv := range r.db.invoices {
		if inv.CreatedAt.Before(from) || !inv.CreatedAt.Before(to) {
			continue
		}
		count := 0
		for _, it := range r.db.items {
			if it.InvoiceID == inv.ID {
				count++
			}
		}
		out = append(out, &models.InvoiceSummary{
			ID:               inv.ID,
			CreatedAt:        inv.CreatedAt,
			PatientName:      r.db.patients[inv.PatientID].Name,
			ProfessionalName: r.db.professionals[inv.ProfessionalID].Name,
			PaymentMethod:    inv.PaymentMethod,
			ItemsCount:       count,
			NetTotal:         inv.NetTotal,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type memCash struct{ db *memDB }

func (r memCash) Create(ctx context.Context, q db.DBTX, m *models.CashMovement) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failCash {
		return errStoreDown
	}
	m.ID = r.db.id()
	m.CreatedAt = time.Now()
	r.db.cash = append(r.db.cash, *m)
	return nil
}

func (r memCash) List(ctx context.Context, filter repositories.CashMovementFilter) ([]*models.CashMovement, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.CashMovement
	for _, m := range r.db.cash {
		if filter.From != "" && m.Date < filter.From {
			continue
		}
		if filter.To != "" && m.Date > filter.To {
			continue
		}
		m := m
		out = append(out, &m)
	}
	return out, nil
}

type memAudit struct{ db *memDB }

func (r memAudit) Create(ctx context.Context, log *models.AuditLog) error {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	if r.db.failAudit {
		return errStoreDown
	}
	log.ID = r.db.id()
	log.CreatedAt = time.Now()
	r.db.audit = append(r.db.audit, *log)
	return nil
}

func (r memAudit) List(ctx context.Context, filter models.AuditLogFilter) ([]*models.AuditLog, error) {
	r.db.mu.Lock()
	defer r.db.mu.Unlock()
	var out []*models.AuditLog
	for i := len(r.db.audit) - 1; i >= 0; i-- {
		a := r.db.audit[i]
		if filter.EntityKind != "" && a.EntityKind != filter.EntityKind {
			continue
		}
		out = append(out, &a)
	}
	return out, nil
}

// memCache implements InvoiceCache
type memCache struct {
	mu   sync.Mutex
	data map[string][]byte
	hits int
}

func newMemCache() *memCache {
	return &memCache{data: make(map[string][]byte)}
}

func (c *memCache) Get(ctx context.Context, key string) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.data[key]
	if ok {
		c.hits++
	}
	return d, ok
}

func (c *memCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.data[key] = data
}

// recordingNotifier implements AgendaNotifier
type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) AppointmentChanged(event string, a *models.Appointment) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, event)
}

func mustDecimal(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func intPtr(v int) *int { return &v }

func strPtr(v string) *string { return &v }

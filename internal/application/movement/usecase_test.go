package movement

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/picking-api/internal/domain"
	"github.com/jhoicas/picking-api/internal/domain/entity"
	"github.com/jhoicas/picking-api/internal/domain/repository"
)

// memStore estado compartido de los repositorios en memoria. El fakeTxRunner
// lo serializa con un mutex y restaura un snapshot cuando la fn falla, para
// reproducir la semántica todo-o-nada de la transacción real.
type memStore struct {
	mu       sync.Mutex
	moves    map[string]*entity.Move
	stock    map[entity.StockKey]decimal.Decimal
	products map[string]*entity.Product
	audit    []*entity.AuditEntry
}

func newMemStore() *memStore {
	return &memStore{
		moves:    make(map[string]*entity.Move),
		stock:    make(map[entity.StockKey]decimal.Decimal),
		products: make(map[string]*entity.Product),
	}
}

func copyMove(m *entity.Move) *entity.Move {
	c := *m
	c.Lines = make([]*entity.MoveLine, len(m.Lines))
	for i, l := range m.Lines {
		lc := *l
		c.Lines[i] = &lc
	}
	return &c
}

func (s *memStore) snapshot() *memStore {
	snap := newMemStore()
	for id, m := range s.moves {
		snap.moves[id] = copyMove(m)
	}
	for k, q := range s.stock {
		snap.stock[k] = q
	}
	snap.audit = append([]*entity.AuditEntry(nil), s.audit...)
	return snap
}

func (s *memStore) restore(snap *memStore) {
	s.moves = snap.moves
	s.stock = snap.stock
	s.audit = snap.audit
}

// memMoveRepo repositorio de movimientos en memoria. inTx evita el doble lock
// cuando el fakeTxRunner ya sostiene el mutex.
type memMoveRepo struct {
	s    *memStore
	inTx bool
}

func (r *memMoveRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memMoveRepo) Create(move *entity.Move) error {
	defer r.lock()()
	for _, m := range r.s.moves {
		if m.DocType == move.DocType && m.DocNumber == move.DocNumber {
			return domain.ErrDuplicate
		}
	}
	r.s.moves[move.ID] = copyMove(move)
	return nil
}

func (r *memMoveRepo) GetByID(id string) (*entity.Move, error) {
	defer r.lock()()
	m, ok := r.s.moves[id]
	if !ok {
		return nil, nil
	}
	return copyMove(m), nil
}

func (r *memMoveRepo) GetLineForUpdate(lineID string) (*entity.MoveLine, error) {
	defer r.lock()()
	for _, m := range r.s.moves {
		for _, l := range m.Lines {
			if l.ID == lineID {
				lc := *l
				return &lc, nil
			}
		}
	}
	return nil, nil
}

func (r *memMoveRepo) UpdateStatus(id, fromStatus, toStatus string, approvedBy *string) error {
	defer r.lock()()
	m, ok := r.s.moves[id]
	if !ok {
		return domain.ErrNotFound
	}
	// compare-and-set, como el UPDATE ... WHERE status = $2 del repo real
	if m.Status != fromStatus {
		return fmt.Errorf("%w: el movimiento ya no está en %s", domain.ErrInvalidTransition, fromStatus)
	}
	m.Status = toStatus
	if approvedBy != nil {
		m.ApprovedBy = approvedBy
	}
	return nil
}

func (r *memMoveRepo) UpdateLineConfirmed(lineID string, qtyConfirmed decimal.Decimal) error {
	defer r.lock()()
	for _, m := range r.s.moves {
		for _, l := range m.Lines {
			if l.ID == lineID {
				l.QtyConfirmed = qtyConfirmed
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

type memStockRepo struct {
	s    *memStore
	inTx bool
}

func (r *memStockRepo) lock() func() {
	if r.inTx {
		return func() {}
	}
	r.s.mu.Lock()
	return r.s.mu.Unlock
}

func (r *memStockRepo) GetQuantity(key entity.StockKey) (decimal.Decimal, error) {
	defer r.lock()()
	return r.s.stock[key], nil
}

func (r *memStockRepo) ApplyDelta(key entity.StockKey, delta decimal.Decimal) (decimal.Decimal, error) {
	defer r.lock()()
	next := r.s.stock[key].Add(delta)
	if next.IsNegative() {
		return decimal.Zero, fmt.Errorf("%w: %s en %s", domain.ErrInsufficientStock, key.ItemCode, key.Location)
	}
	r.s.stock[key] = next
	return next, nil
}

func (r *memStockRepo) List(limit, offset int) ([]*entity.StockRow, error) {
	return nil, nil
}

type memAuditRepo struct {
	s    *memStore
	inTx bool
}

func (r *memAuditRepo) Append(e *entity.AuditEntry) error {
	if !r.inTx {
		r.s.mu.Lock()
		defer r.s.mu.Unlock()
	}
	ec := *e
	if ec.ID == "" {
		ec.ID = uuid.New().String()
	}
	r.s.audit = append(r.s.audit, &ec)
	return nil
}

type memProductRepo struct {
	s *memStore
}

func (r *memProductRepo) Create(p *entity.Product) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, ok := r.s.products[p.ItemCode]; ok {
		return domain.ErrDuplicate
	}
	pc := *p
	r.s.products[p.ItemCode] = &pc
	return nil
}

func (r *memProductRepo) GetByCode(itemCode string) (*entity.Product, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	p, ok := r.s.products[itemCode]
	if !ok {
		return nil, nil
	}
	pc := *p
	return &pc, nil
}

func (r *memProductRepo) List(limit, offset int) ([]*entity.Product, error) {
	return nil, nil
}

// fakeTxRunner serializa las "transacciones" con el mutex del store y revierte
// al snapshot si fn devuelve error.
type fakeTxRunner struct {
	s *memStore
}

func (t *fakeTxRunner) Run(_ context.Context, fn func(
	moveRepo repository.MoveRepository,
	stockRepo repository.StockRepository,
	auditRepo repository.AuditRepository,
) error) error {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	snap := t.s.snapshot()
	err := fn(&memMoveRepo{s: t.s, inTx: true}, &memStockRepo{s: t.s, inTx: true}, &memAuditRepo{s: t.s, inTx: true})
	if err != nil {
		t.s.restore(snap)
	}
	return err
}

var (
	operator   = Actor{ID: "u-op", Role: domain.RoleOperator}
	supervisor = Actor{ID: "u-sup", Role: domain.RoleSupervisor}
)

func supervisorPolicy(a Actor) bool {
	return domain.RoleAtLeast(a.Role, domain.RoleSupervisor)
}

func newFixture(t *testing.T, cfg Config) (*UseCase, *memStore) {
	t.Helper()
	s := newMemStore()
	products := &memProductRepo{s: s}
	require.NoError(t, products.Create(&entity.Product{ItemCode: "SKU1", Name: "Caja estándar", UnitMeasure: "UN", Active: true}))
	require.NoError(t, products.Create(&entity.Product{ItemCode: "SKU-LOT", Name: "Perecedero", UnitMeasure: "UN", RequiresLot: true, Active: true}))
	require.NoError(t, products.Create(&entity.Product{ItemCode: "SKU-OFF", Name: "Descatalogado", UnitMeasure: "UN", Active: false}))

	uc := NewUseCase(&fakeTxRunner{s: s}, &memMoveRepo{s: s}, products, supervisorPolicy, cfg)
	return uc, s
}

func qty(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func seedStock(s *memStore, itemCode, location string, q int64) {
	s.stock[entity.NewStockKey(itemCode, nil, nil, location)] = qty(q)
}

func stockAt(s *memStore, itemCode, location string) decimal.Decimal {
	return s.stock[entity.NewStockKey(itemCode, nil, nil, location)]
}

// crea un movimiento aprobado de una línea, listo para confirmar.
func approvedMove(t *testing.T, uc *UseCase, docType string, line CreateLineInput) *entity.Move {
	t.Helper()
	ctx := context.Background()
	move, err := uc.CreateMove(ctx, CreateMoveInput{
		DocType:   docType,
		DocNumber: "DOC-" + uuid.New().String()[:8],
		Lines:     []CreateLineInput{line},
	}, operator)
	require.NoError(t, err)
	require.NoError(t, uc.Approve(ctx, move.ID, supervisor))
	return move
}

func TestCreateMove_NacePendingYAudita(t *testing.T) {
	uc, s := newFixture(t, Config{})
	ctx := context.Background()

	move, err := uc.CreateMove(ctx, CreateMoveInput{
		DocType:   entity.DocTypePO,
		DocNumber: "PO-001",
		Lines: []CreateLineInput{
			{ItemCode: "SKU1", Qty: qty(10), LocationTo: "MAIN"},
		},
	}, operator)
	require.NoError(t, err)

	assert.Equal(t, entity.MoveStatusPending, move.Status)
	assert.Equal(t, entity.MoveTypeInbound, move.Type)
	assert.Equal(t, "u-op", move.CreatedBy)
	require.Len(t, move.Lines, 1)
	assert.True(t, move.Lines[0].QtyConfirmed.IsZero())

	require.Len(t, s.audit, 1)
	assert.Equal(t, "move", s.audit[0].Entity)
	assert.Equal(t, "create", s.audit[0].Action)
	assert.Equal(t, "u-op", s.audit[0].UserID)
}

func TestCreateMove_DocumentoDuplicado(t *testing.T) {
	uc, _ := newFixture(t, Config{})
	ctx := context.Background()

	in := CreateMoveInput{
		DocType:   entity.DocTypePO,
		DocNumber: "PO-DUP",
		Lines:     []CreateLineInput{{ItemCode: "SKU1", Qty: qty(1), LocationTo: "MAIN"}},
	}
	_, err := uc.CreateMove(ctx, in, operator)
	require.NoError(t, err)

	_, err = uc.CreateMove(ctx, in, operator)
	assert.ErrorIs(t, err, domain.ErrDuplicate)
}

func TestCreateMove_ValidacionPorLineas(t *testing.T) {
	uc, s := newFixture(t, Config{})
	ctx := context.Background()

	_, err := uc.CreateMove(ctx, CreateMoveInput{
		DocType:   entity.DocTypeSO,
		DocNumber: "SO-001",
		Lines: []CreateLineInput{
			{ItemCode: "SKU1", Qty: qty(0), LocationFrom: "MAIN"},   // cantidad no positiva
			{ItemCode: "NOPE", Qty: qty(1), LocationFrom: "MAIN"},   // producto inexistente
			{ItemCode: "SKU-OFF", Qty: qty(1), LocationFrom: "MAIN"}, // producto inactivo
			{ItemCode: "SKU-LOT", Qty: qty(1), LocationFrom: "MAIN"}, // falta lote
			{ItemCode: "SKU1", Qty: qty(1)},                          // falta origen en outbound
		},
	}, operator)

	require.ErrorIs(t, err, domain.ErrValidation)
	var verr *domain.ValidationError
	require.ErrorAs(t, err, &verr)
	require.Len(t, verr.Lines, 5)
	assert.Equal(t, 0, verr.Lines[0].Index)
	assert.Equal(t, "qty", verr.Lines[0].Field)
	assert.Equal(t, "item_code", verr.Lines[1].Field)
	assert.Equal(t, "item_code", verr.Lines[2].Field)
	assert.Equal(t, "lot", verr.Lines[3].Field)
	assert.Equal(t, "location_from", verr.Lines[4].Field)

	// todo-o-nada: nada persistido, nada auditado
	assert.Empty(t, s.moves)
	assert.Empty(t, s.audit)
}

func TestCreateMove_DocTypeDesconocido(t *testing.T) {
	uc, _ := newFixture(t, Config{})
	_, err := uc.CreateMove(context.Background(), CreateMoveInput{
		DocType:   "XX",
		DocNumber: "XX-1",
		Lines:     []CreateLineInput{{ItemCode: "SKU1", Qty: qty(1), LocationTo: "MAIN"}},
	}, operator)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestSubmit_DraftPasaAPending(t *testing.T) {
	uc, _ := newFixture(t, Config{CreateStatus: entity.MoveStatusDraft})
	ctx := context.Background()

	move, err := uc.CreateMove(ctx, CreateMoveInput{
		DocType:   entity.DocTypePO,
		DocNumber: "PO-DRAFT",
		Lines:     []CreateLineInput{{ItemCode: "SKU1", Qty: qty(5), LocationTo: "MAIN"}},
	}, operator)
	require.NoError(t, err)
	assert.Equal(t, entity.MoveStatusDraft, move.Status)

	require.NoError(t, uc.Submit(ctx, move.ID, operator))
	got, err := uc.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MoveStatusPending, got.Status)

	// submit repetido: pending no es draft
	err = uc.Submit(ctx, move.ID, operator)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestApprove_ExigePolitica(t *testing.T) {
	uc, _ := newFixture(t, Config{})
	ctx := context.Background()

	move, err := uc.CreateMove(ctx, CreateMoveInput{
		DocType:   entity.DocTypePO,
		DocNumber: "PO-APR",
		Lines:     []CreateLineInput{{ItemCode: "SKU1", Qty: qty(5), LocationTo: "MAIN"}},
	}, operator)
	require.NoError(t, err)

	err = uc.Approve(ctx, move.ID, operator)
	assert.ErrorIs(t, err, domain.ErrForbidden)

	require.NoError(t, uc.Approve(ctx, move.ID, supervisor))
	got, err := uc.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MoveStatusApproved, got.Status)
	require.NotNil(t, got.ApprovedBy)
	assert.Equal(t, "u-sup", *got.ApprovedBy)

	// aprobar dos veces no es una transición válida
	err = uc.Approve(ctx, move.ID, supervisor)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCancel_SoloDraftYPending(t *testing.T) {
	uc, _ := newFixture(t, Config{})
	ctx := context.Background()

	move, err := uc.CreateMove(ctx, CreateMoveInput{
		DocType:   entity.DocTypePO,
		DocNumber: "PO-CAN",
		Lines:     []CreateLineInput{{ItemCode: "SKU1", Qty: qty(5), LocationTo: "MAIN"}},
	}, operator)
	require.NoError(t, err)

	require.NoError(t, uc.Cancel(ctx, move.ID, operator))
	got, err := uc.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MoveStatusCancelled, got.Status)

	// cancelled es terminal
	assert.ErrorIs(t, uc.Cancel(ctx, move.ID, operator), domain.ErrInvalidTransition)
	assert.ErrorIs(t, uc.Approve(ctx, move.ID, supervisor), domain.ErrInvalidTransition)

	// un movimiento aprobado no se cancela
	approved := approvedMove(t, uc, entity.DocTypePO, CreateLineInput{ItemCode: "SKU1", Qty: qty(1), LocationTo: "MAIN"})
	assert.ErrorIs(t, uc.Cancel(ctx, approved.ID, supervisor), domain.ErrInvalidTransition)
}

func TestConfirmLine_InboundSumaStockYCierra(t *testing.T) {
	uc, s := newFixture(t, Config{})
	ctx := context.Background()

	move := approvedMove(t, uc, entity.DocTypePO, CreateLineInput{ItemCode: "SKU1", Qty: qty(10), LocationTo: "MAIN"})
	lineID := move.Lines[0].ID

	line, err := uc.ConfirmLine(ctx, move.ID, lineID, qty(4), operator)
	require.NoError(t, err)
	assert.True(t, line.QtyConfirmed.Equal(qty(4)))
	assert.True(t, stockAt(s, "SKU1", "MAIN").Equal(qty(4)))

	line, err = uc.ConfirmLine(ctx, move.ID, lineID, qty(6), operator)
	require.NoError(t, err)
	assert.True(t, line.QtyConfirmed.Equal(qty(10)))
	assert.True(t, line.Remaining().IsZero())
	assert.True(t, stockAt(s, "SKU1", "MAIN").Equal(qty(10)))

	got, err := uc.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.True(t, got.FullyApplied())

	// qty_confirmed nunca supera qty
	_, err = uc.ConfirmLine(ctx, move.ID, lineID, qty(1), operator)
	assert.ErrorIs(t, err, domain.ErrOverConfirmation)
}

func TestConfirmLine_OutboundRechazaStockInsuficiente(t *testing.T) {
	uc, s := newFixture(t, Config{})
	ctx := context.Background()
	seedStock(s, "SKU1", "MAIN", 3)

	move := approvedMove(t, uc, entity.DocTypeSO, CreateLineInput{ItemCode: "SKU1", Qty: qty(5), LocationFrom: "MAIN"})
	lineID := move.Lines[0].ID
	auditBefore := len(s.audit)

	_, err := uc.ConfirmLine(ctx, move.ID, lineID, qty(5), operator)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	// el rechazo descarta el delta completo: ni stock, ni línea, ni auditoría
	assert.True(t, stockAt(s, "SKU1", "MAIN").Equal(qty(3)))
	got, err := uc.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.True(t, got.Lines[0].QtyConfirmed.IsZero())
	assert.Len(t, s.audit, auditBefore)

	// lo que sí hay alcanza para una confirmación parcial menor
	_, err = uc.ConfirmLine(ctx, move.ID, lineID, qty(3), operator)
	require.NoError(t, err)
	assert.True(t, stockAt(s, "SKU1", "MAIN").IsZero())
}

func TestConfirmLine_TransferMueveEntreUbicaciones(t *testing.T) {
	uc, s := newFixture(t, Config{})
	ctx := context.Background()
	seedStock(s, "SKU1", "MAIN", 10)

	move := approvedMove(t, uc, entity.DocTypeTR, CreateLineInput{
		ItemCode: "SKU1", Qty: qty(4), LocationFrom: "MAIN", LocationTo: "PICK",
	})
	_, err := uc.ConfirmLine(ctx, move.ID, move.Lines[0].ID, qty(4), operator)
	require.NoError(t, err)

	assert.True(t, stockAt(s, "SKU1", "MAIN").Equal(qty(6)))
	assert.True(t, stockAt(s, "SKU1", "PICK").Equal(qty(4)))
}

func TestConfirmLine_TransferSinOrigenRevierteTodo(t *testing.T) {
	uc, s := newFixture(t, Config{})
	ctx := context.Background()
	// sin stock en MAIN: la resta del origen falla y el destino no debe sumar

	move := approvedMove(t, uc, entity.DocTypeTR, CreateLineInput{
		ItemCode: "SKU1", Qty: qty(2), LocationFrom: "MAIN", LocationTo: "PICK",
	})
	_, err := uc.ConfirmLine(ctx, move.ID, move.Lines[0].ID, qty(2), operator)
	require.ErrorIs(t, err, domain.ErrInsufficientStock)

	assert.True(t, stockAt(s, "SKU1", "MAIN").IsZero())
	assert.True(t, stockAt(s, "SKU1", "PICK").IsZero())
}

func TestConfirmLine_GuardasDeEstadoYExistencia(t *testing.T) {
	uc, _ := newFixture(t, Config{})
	ctx := context.Background()

	// pendiente (sin aprobar): no confirmable
	move, err := uc.CreateMove(ctx, CreateMoveInput{
		DocType:   entity.DocTypePO,
		DocNumber: "PO-GUARD",
		Lines:     []CreateLineInput{{ItemCode: "SKU1", Qty: qty(5), LocationTo: "MAIN"}},
	}, operator)
	require.NoError(t, err)
	_, err = uc.ConfirmLine(ctx, move.ID, move.Lines[0].ID, qty(1), operator)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	// delta no positivo
	approved := approvedMove(t, uc, entity.DocTypePO, CreateLineInput{ItemCode: "SKU1", Qty: qty(5), LocationTo: "MAIN"})
	_, err = uc.ConfirmLine(ctx, approved.ID, approved.Lines[0].ID, qty(0), operator)
	assert.ErrorIs(t, err, domain.ErrValidation)
	_, err = uc.ConfirmLine(ctx, approved.ID, approved.Lines[0].ID, qty(-1), operator)
	assert.ErrorIs(t, err, domain.ErrValidation)

	// línea de otro movimiento
	_, err = uc.ConfirmLine(ctx, approved.ID, move.Lines[0].ID, qty(1), operator)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	// movimiento inexistente
	_, err = uc.ConfirmLine(ctx, uuid.New().String(), approved.Lines[0].ID, qty(1), operator)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestUpdateStatus_EsCompareAndSet(t *testing.T) {
	uc, s := newFixture(t, Config{})
	ctx := context.Background()

	move, err := uc.CreateMove(ctx, CreateMoveInput{
		DocType:   entity.DocTypePO,
		DocNumber: "PO-CAS",
		Lines:     []CreateLineInput{{ItemCode: "SKU1", Qty: qty(1), LocationTo: "MAIN"}},
	}, operator)
	require.NoError(t, err)

	// un escritor con una lectura vieja (cree que sigue en draft) no pisa nada
	repo := &memMoveRepo{s: s}
	err = repo.UpdateStatus(move.ID, entity.MoveStatusDraft, entity.MoveStatusCancelled, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	got, err := uc.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MoveStatusPending, got.Status)

	// con el estado esperado correcto la transición sí escribe
	require.NoError(t, repo.UpdateStatus(move.ID, entity.MoveStatusPending, entity.MoveStatusApproved, nil))

	// cancel tras perder la carrera contra approve: cero filas, sin pisar
	err = repo.UpdateStatus(move.ID, entity.MoveStatusPending, entity.MoveStatusCancelled, nil)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	got, err = uc.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.MoveStatusApproved, got.Status)

	assert.ErrorIs(t, repo.UpdateStatus("no-existe", entity.MoveStatusDraft, entity.MoveStatusPending, nil), domain.ErrNotFound)
}

func TestConfirmLine_ConcurrenciaNuncaDejaStockNegativo(t *testing.T) {
	uc, s := newFixture(t, Config{})
	ctx := context.Background()
	seedStock(s, "SKU1", "MAIN", 7)

	move := approvedMove(t, uc, entity.DocTypeSO, CreateLineInput{ItemCode: "SKU1", Qty: qty(20), LocationFrom: "MAIN"})
	lineID := move.Lines[0].ID

	const workers = 20
	var wg sync.WaitGroup
	errs := make(chan error, workers)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := uc.ConfirmLine(ctx, move.ID, lineID, qty(1), operator)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var ok, insufficient int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, domain.ErrInsufficientStock):
			insufficient++
		default:
			t.Fatalf("error inesperado: %v", err)
		}
	}

	// solo caben 7 confirmaciones: el resto rebota sin dejar el stock negativo
	assert.Equal(t, 7, ok)
	assert.Equal(t, workers-7, insufficient)
	assert.True(t, stockAt(s, "SKU1", "MAIN").IsZero())

	got, err := uc.GetMove(ctx, move.ID)
	require.NoError(t, err)
	assert.True(t, got.Lines[0].QtyConfirmed.Equal(qty(7)))
}

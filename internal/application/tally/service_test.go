package tally_test

import (
	"context"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tu-usuario/lumber-pro/internal/application/tally"
	"github.com/tu-usuario/lumber-pro/internal/domain"
	"github.com/tu-usuario/lumber-pro/internal/domain/entity"
	"github.com/tu-usuario/lumber-pro/internal/domain/repository"
	"github.com/tu-usuario/lumber-pro/pkg/config"
	"github.com/tu-usuario/lumber-pro/pkg/logger"
)

func dec(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return d
}

// ──────────────────────────────────────────────────────────────────────────────
// Fakes en memoria (mismo contrato que los adaptadores de postgres)
// ──────────────────────────────────────────────────────────────────────────────

type fakeLotRepo struct {
	seq  int
	lots map[string]*entity.TallySheet
}

func newFakeLotRepo() *fakeLotRepo {
	return &fakeLotRepo{lots: map[string]*entity.TallySheet{}}
}

func (f *fakeLotRepo) Create(_ context.Context, lot *entity.TallySheet) (string, error) {
	f.seq++
	id := fmt.Sprintf("lot-%d", f.seq)
	cp := *lot
	cp.ID = id
	f.lots[id] = &cp
	return id, nil
}

func (f *fakeLotRepo) GetByID(_ context.Context, id string) (*entity.TallySheet, error) {
	lot, ok := f.lots[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *lot
	return &cp, nil
}

func (f *fakeLotRepo) GetForUpdate(ctx context.Context, id string) (*entity.TallySheet, error) {
	return f.GetByID(ctx, id)
}

func (f *fakeLotRepo) Update(_ context.Context, lot *entity.TallySheet) error {
	if _, ok := f.lots[lot.ID]; !ok {
		return domain.ErrNotFound
	}
	cp := *lot
	f.lots[lot.ID] = &cp
	return nil
}

func (f *fakeLotRepo) FindAvailable(_ context.Context, filter repository.AvailableLotsFilter) ([]*entity.TallySheet, error) {
	var out []*entity.TallySheet
	for _, lot := range f.lots {
		if lot.ItemID != filter.ItemID || lot.LocationID != filter.LocationID {
			continue
		}
		if filter.SubsidiaryID != "" && lot.SubsidiaryID != filter.SubsidiaryID {
			continue
		}
		if filter.Grade != "" && lot.Grade != filter.Grade {
			continue
		}
		if !lot.IsAvailable() {
			continue
		}
		cp := *lot
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ReceivedDate.Before(out[j].ReceivedDate) })
	return out, nil
}

func (f *fakeLotRepo) FindAvailableForUpdate(ctx context.Context, filter repository.AvailableLotsFilter) ([]*entity.TallySheet, error) {
	return f.FindAvailable(ctx, filter)
}

func (f *fakeLotRepo) ListByStatus(_ context.Context, statuses []string, limit, offset int) ([]*entity.TallySheet, error) {
	var out []*entity.TallySheet
	for _, lot := range f.lots {
		for _, st := range statuses {
			if lot.Status == st {
				cp := *lot
				out = append(out, &cp)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeAllocRepo struct {
	seq    int
	allocs map[string]*entity.Allocation
}

func newFakeAllocRepo() *fakeAllocRepo {
	return &fakeAllocRepo{allocs: map[string]*entity.Allocation{}}
}

func (f *fakeAllocRepo) Create(_ context.Context, a *entity.Allocation) (string, error) {
	f.seq++
	id := fmt.Sprintf("alloc-%d", f.seq)
	cp := *a
	cp.ID = id
	f.allocs[id] = &cp
	return id, nil
}

func (f *fakeAllocRepo) GetByID(_ context.Context, id string) (*entity.Allocation, error) {
	a, ok := f.allocs[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAllocRepo) ListByDemand(_ context.Context, demandID, status string) ([]*entity.Allocation, error) {
	var out []*entity.Allocation
	for _, a := range f.allocs {
		if a.DemandID != demandID {
			continue
		}
		if status != "" && a.Status != status {
			continue
		}
		cp := *a
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeAllocRepo) ListByTallySheet(_ context.Context, lotID string, statuses []string) ([]*entity.Allocation, error) {
	var out []*entity.Allocation
	for _, a := range f.allocs {
		if a.TallySheetID != lotID {
			continue
		}
		for _, st := range statuses {
			if a.Status == st {
				cp := *a
				out = append(out, &cp)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeAllocRepo) UpdateStatus(_ context.Context, id, status string) error {
	a, ok := f.allocs[id]
	if !ok {
		return domain.ErrNotFound
	}
	a.Status = status
	return nil
}

func (f *fakeAllocRepo) SumByTallySheet(ctx context.Context, lotID string, statuses []string) (decimal.Decimal, error) {
	allocs, _ := f.ListByTallySheet(ctx, lotID, statuses)
	sum := decimal.Zero
	for _, a := range allocs {
		sum = sum.Add(a.Quantity)
	}
	return sum, nil
}

// fakeTxRunner ejecuta el callback directo sobre los fakes (sin transacción real).
type fakeTxRunner struct {
	lots   *fakeLotRepo
	allocs *fakeAllocRepo
}

func (f *fakeTxRunner) Run(ctx context.Context, fn func(
	lotRepo repository.TallySheetRepository,
	allocRepo repository.AllocationRepository,
) error) error {
	return fn(f.lots, f.allocs)
}

// ──────────────────────────────────────────────────────────────────────────────
// Fixture
// ──────────────────────────────────────────────────────────────────────────────

type fixture struct {
	svc    *tally.Service
	lots   *fakeLotRepo
	allocs *fakeAllocRepo
}

func newFixture(cfg config.LumberConfig) *fixture {
	lots := newFakeLotRepo()
	allocs := newFakeAllocRepo()
	runner := &fakeTxRunner{lots: lots, allocs: allocs}
	return &fixture{
		svc:    tally.NewService(runner, lots, cfg, logger.NewNop()),
		lots:   lots,
		allocs: allocs,
	}
}

func defaultCfg() config.LumberConfig {
	return config.LumberConfig{
		TallyEnabled: true,
		FIFOEnforced: true,
		BFPrecision:  2,
	}
}

func dimsPino() entity.DimensionSet {
	return entity.DimensionSet{ThicknessIn: dec("2"), WidthIn: dec("4"), LengthFt: dec("8"), PiecesPerBundle: 50}
}

// seedLot inserta un lote abierto con remanente = recibido en la fecha dada.
func (fx *fixture) seedLot(t *testing.T, lotNumber, qty string, received time.Time) string {
	t.Helper()
	lot, err := fx.svc.CreateTallySheet(context.Background(), tally.CreateTallySheetInput{
		LotNumber:    lotNumber,
		ItemID:       "item-pino",
		LocationID:   "loc-1",
		ReceivedQty:  dec(qty),
		Dimensions:   dimsPino(),
		ReceivedDate: received,
		UserID:       "u-1",
	})
	require.NoError(t, err)
	return lot.ID
}

var (
	jan1 = time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	jan5 = time.Date(2025, 1, 5, 0, 0, 0, 0, time.UTC)
	feb1 = time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC)
)

// requireInvariant verifica 0 ≤ remanente ≤ recibido para todos los lotes.
func (fx *fixture) requireInvariant(t *testing.T) {
	t.Helper()
	for id, lot := range fx.lots.lots {
		require.True(t, lot.RemainingQty.GreaterThanOrEqual(decimal.Zero),
			"lote %s: remanente negativo %s", id, lot.RemainingQty)
		require.True(t, lot.RemainingQty.LessThanOrEqual(lot.ReceivedQty),
			"lote %s: remanente %s excede lo recibido %s", id, lot.RemainingQty, lot.ReceivedQty)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Recepción
// ──────────────────────────────────────────────────────────────────────────────

func TestCreateTallySheet(t *testing.T) {
	fx := newFixture(defaultCfg())

	lot, err := fx.svc.CreateTallySheet(context.Background(), tally.CreateTallySheetInput{
		LotNumber:   "TS-001",
		ItemID:      "item-pino",
		LocationID:  "loc-1",
		ReceivedQty: dec("1000.005"),
		Dimensions:  dimsPino(),
	})
	require.NoError(t, err)

	assert.Equal(t, entity.TallyStatusOpen, lot.Status)
	assert.True(t, lot.ReceivedQty.Equal(dec("1000.01")), "la cantidad se redondea a la precisión configurada")
	assert.True(t, lot.RemainingQty.Equal(lot.ReceivedQty), "al recibir, remanente = recibido")
	assert.False(t, lot.ReceivedDate.IsZero())
}

func TestCreateTallySheet_Validaciones(t *testing.T) {
	fx := newFixture(defaultCfg())
	ctx := context.Background()

	_, err := fx.svc.CreateTallySheet(ctx, tally.CreateTallySheetInput{
		LotNumber: "TS-001", ItemID: "item-pino", LocationID: "loc-1",
		ReceivedQty: decimal.Zero, Dimensions: dimsPino(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "cantidad cero no es recepción válida")

	_, err = fx.svc.CreateTallySheet(ctx, tally.CreateTallySheetInput{
		LotNumber: "TS-002", ItemID: "item-pino", LocationID: "loc-1",
		ReceivedQty: dec("100"), Dimensions: entity.DimensionSet{},
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "dimensiones incompletas en recepción")

	_, err = fx.svc.CreateTallySheet(ctx, tally.CreateTallySheetInput{
		ItemID: "item-pino", LocationID: "loc-1", ReceivedQty: dec("100"), Dimensions: dimsPino(),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "lot number obligatorio")
}

func TestCreateTallySheet_ModuloDeshabilitado(t *testing.T) {
	cfg := defaultCfg()
	cfg.TallyEnabled = false
	fx := newFixture(cfg)

	_, err := fx.svc.CreateTallySheet(context.Background(), tally.CreateTallySheetInput{
		LotNumber: "TS-001", ItemID: "item-pino", LocationID: "loc-1",
		ReceivedQty: dec("100"), Dimensions: dimsPino(),
	})
	assert.ErrorIs(t, err, domain.ErrModuleDisabled)
}

// ──────────────────────────────────────────────────────────────────────────────
// Búsqueda FIFO
// ──────────────────────────────────────────────────────────────────────────────

func TestFindAvailableLots_OrdenFIFO(t *testing.T) {
	fx := newFixture(defaultCfg())
	// Sembrado fuera de orden cronológico a propósito.
	fx.seedLot(t, "TS-FEB", "10", feb1)
	fx.seedLot(t, "TS-ENE1", "30", jan1)
	fx.seedLot(t, "TS-ENE5", "20", jan5)

	lots, err := fx.svc.FindAvailableLots(context.Background(), tally.FindAvailableInput{
		ItemID: "item-pino", LocationID: "loc-1",
	})
	require.NoError(t, err)
	require.Len(t, lots, 3)

	// Orden no decreciente por fecha de recepción: el más viejo primero.
	for i := 1; i < len(lots); i++ {
		assert.False(t, lots[i].ReceivedDate.Before(lots[i-1].ReceivedDate),
			"lote %s recibido antes que %s", lots[i].LotNumber, lots[i-1].LotNumber)
	}
	assert.Equal(t, "TS-ENE1", lots[0].LotNumber)
}

func TestFindAvailableLots_CorteConFIFOEnforced(t *testing.T) {
	fx := newFixture(defaultCfg())
	fx.seedLot(t, "A", "30", jan1)
	fx.seedLot(t, "B", "20", jan5)
	fx.seedLot(t, "C", "50", feb1)

	required := dec("40")
	lots, err := fx.svc.FindAvailableLots(context.Background(), tally.FindAvailableInput{
		ItemID: "item-pino", LocationID: "loc-1", RequiredQty: &required,
	})
	require.NoError(t, err)
	// 30 + 20 ≥ 40: alcanza con los dos primeros.
	assert.Len(t, lots, 2)
}

func TestFindAvailableLots_SinCorteSiEnforcementApagado(t *testing.T) {
	cfg := defaultCfg()
	cfg.FIFOEnforced = false
	fx := newFixture(cfg)
	fx.seedLot(t, "A", "30", jan1)
	fx.seedLot(t, "B", "20", jan5)
	fx.seedLot(t, "C", "50", feb1)

	required := dec("40")
	lots, err := fx.svc.FindAvailableLots(context.Background(), tally.FindAvailableInput{
		ItemID: "item-pino", LocationID: "loc-1", RequiredQty: &required,
	})
	require.NoError(t, err)
	assert.Len(t, lots, 3, "sin enforcement la lista completa sigue siendo válida")
}

// ──────────────────────────────────────────────────────────────────────────────
// Asignación FIFO
// ──────────────────────────────────────────────────────────────────────────────

// TestAllocateFIFO_EscenarioReferencia lotes A(30, Ene1) y B(20, Ene5):
// pedir 40 toma 30 de A y 10 de B sin faltante; pedir 60 sobre lotes frescos
// toma 50 y reporta faltante de 10.
func TestAllocateFIFO_EscenarioReferencia(t *testing.T) {
	ctx := context.Background()

	t.Run("demanda cubierta", func(t *testing.T) {
		fx := newFixture(defaultCfg())
		idA := fx.seedLot(t, "A", "30", jan1)
		idB := fx.seedLot(t, "B", "20", jan5)

		res, err := fx.svc.AllocateFIFO(ctx, tally.AllocateInput{
			ItemID: "item-pino", LocationID: "loc-1", RequiredQty: dec("40"), DemandID: "wo-1",
		})
		require.NoError(t, err)

		require.Len(t, res.Draws, 2)
		assert.Equal(t, idA, res.Draws[0].TallySheetID)
		assert.True(t, res.Draws[0].Quantity.Equal(dec("30")))
		assert.Equal(t, idB, res.Draws[1].TallySheetID)
		assert.True(t, res.Draws[1].Quantity.Equal(dec("10")))
		assert.True(t, res.TotalAllocated.Equal(dec("40")))
		assert.True(t, res.Shortfall.IsZero())
		assert.True(t, res.Satisfied())
		fx.requireInvariant(t)
	})

	t.Run("demanda con faltante", func(t *testing.T) {
		fx := newFixture(defaultCfg())
		fx.seedLot(t, "A", "30", jan1)
		fx.seedLot(t, "B", "20", jan5)

		res, err := fx.svc.AllocateFIFO(ctx, tally.AllocateInput{
			ItemID: "item-pino", LocationID: "loc-1", RequiredQty: dec("60"), DemandID: "wo-2",
		})
		require.NoError(t, err, "el faltante se reporta, no se lanza")

		assert.True(t, res.TotalAllocated.Equal(dec("50")))
		assert.True(t, res.Shortfall.Equal(dec("10")))
		assert.False(t, res.Satisfied())
		fx.requireInvariant(t)
	})
}

// TestAllocateFIFO_RespetaReservasVivas la segunda demanda ve solo el
// disponible real (remanente − reservas ALLOCATED): nunca se sobre-suscribe.
func TestAllocateFIFO_RespetaReservasVivas(t *testing.T) {
	fx := newFixture(defaultCfg())
	ctx := context.Background()
	fx.seedLot(t, "A", "30", jan1)
	fx.seedLot(t, "B", "20", jan5)

	_, err := fx.svc.AllocateFIFO(ctx, tally.AllocateInput{
		ItemID: "item-pino", LocationID: "loc-1", RequiredQty: dec("40"), DemandID: "wo-1",
	})
	require.NoError(t, err)

	// Quedan 10 BF disponibles en B (20 − 10 reservados).
	res, err := fx.svc.AllocateFIFO(ctx, tally.AllocateInput{
		ItemID: "item-pino", LocationID: "loc-1", RequiredQty: dec("15"), DemandID: "wo-2",
	})
	require.NoError(t, err)

	assert.True(t, res.TotalAllocated.Equal(dec("10")))
	assert.True(t, res.Shortfall.Equal(dec("5")))
	fx.requireInvariant(t)
}

// TestAllocateFIFO_SinDemandaEsSimulacion sin DemandID devuelve el plan sin
// persistir asignaciones ni tocar los lotes.
func TestAllocateFIFO_SinDemandaEsSimulacion(t *testing.T) {
	fx := newFixture(defaultCfg())
	ctx := context.Background()
	idA := fx.seedLot(t, "A", "30", jan1)

	res, err := fx.svc.AllocateFIFO(ctx, tally.AllocateInput{
		ItemID: "item-pino", LocationID: "loc-1", RequiredQty: dec("20"),
	})
	require.NoError(t, err)
	assert.True(t, res.TotalAllocated.Equal(dec("20")))

	assert.Empty(t, fx.allocs.allocs, "una simulación no crea asignaciones")
	lot, _ := fx.lots.GetByID(ctx, idA)
	assert.Equal(t, entity.TallyStatusOpen, lot.Status, "una simulación no cambia el estado del lote")
}

func TestAllocateFIFO_Validaciones(t *testing.T) {
	fx := newFixture(defaultCfg())
	ctx := context.Background()

	_, err := fx.svc.AllocateFIFO(ctx, tally.AllocateInput{
		ItemID: "item-pino", LocationID: "loc-1", RequiredQty: decimal.Zero,
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = fx.svc.AllocateFIFO(ctx, tally.AllocateInput{RequiredQty: dec("10")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Consumo, liberación y reversión
// ──────────────────────────────────────────────────────────────────────────────

func TestMarkConsumed(t *testing.T) {
	fx := newFixture(defaultCfg())
	ctx := context.Background()
	idA := fx.seedLot(t, "A", "30", jan1)
	idB := fx.seedLot(t, "B", "20", jan5)

	_, err := fx.svc.AllocateFIFO(ctx, tally.AllocateInput{
		ItemID: "item-pino", LocationID: "loc-1", RequiredQty: dec("40"), DemandID: "wo-1",
	})
	require.NoError(t, err)

	require.NoError(t, fx.svc.MarkConsumed(ctx, "wo-1"))

	lotA, _ := fx.lots.GetByID(ctx, idA)
	assert.True(t, lotA.RemainingQty.IsZero())
	assert.Equal(t, entity.TallyStatusConsumed, lotA.Status)

	lotB, _ := fx.lots.GetByID(ctx, idB)
	assert.True(t, lotB.RemainingQty.Equal(dec("10")))
	assert.Equal(t, entity.TallyStatusPartial, lotB.Status)

	// Todas las asignaciones de la demanda quedaron CONSUMED.
	allocs, _ := fx.allocs.ListByDemand(ctx, "wo-1", "")
	for _, a := range allocs {
		assert.Equal(t, entity.AllocationStatusConsumed, a.Status)
	}
	fx.requireInvariant(t)
}

func TestMarkConsumed_SinAsignaciones(t *testing.T) {
	fx := newFixture(defaultCfg())
	err := fx.svc.MarkConsumed(context.Background(), "wo-fantasma")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestReleaseAllocations(t *testing.T) {
	fx := newFixture(defaultCfg())
	ctx := context.Background()
	idA := fx.seedLot(t, "A", "30", jan1)

	_, err := fx.svc.AllocateFIFO(ctx, tally.AllocateInput{
		ItemID: "item-pino", LocationID: "loc-1", RequiredQty: dec("30"), DemandID: "wo-1",
	})
	require.NoError(t, err)

	lotA, _ := fx.lots.GetByID(ctx, idA)
	assert.Equal(t, entity.TallyStatusAllocated, lotA.Status, "totalmente reservado")

	require.NoError(t, fx.svc.ReleaseAllocations(ctx, "wo-1"))

	lotA, _ = fx.lots.GetByID(ctx, idA)
	assert.True(t, lotA.RemainingQty.Equal(dec("30")), "liberar no toca el remanente")
	assert.Equal(t, entity.TallyStatusOpen, lotA.Status)

	allocs, _ := fx.allocs.ListByDemand(ctx, "wo-1", "")
	require.Len(t, allocs, 1)
	assert.Equal(t, entity.AllocationStatusReleased, allocs[0].Status, "el historial se conserva")
	fx.requireInvariant(t)
}

func TestReverseConsumption(t *testing.T) {
	fx := newFixture(defaultCfg())
	ctx := context.Background()
	idA := fx.seedLot(t, "A", "30", jan1)

	_, err := fx.svc.AllocateFIFO(ctx, tally.AllocateInput{
		ItemID: "item-pino", LocationID: "loc-1", RequiredQty: dec("30"), DemandID: "wo-1",
	})
	require.NoError(t, err)
	require.NoError(t, fx.svc.MarkConsumed(ctx, "wo-1"))

	// Reversión parcial: CONSUMED → PARTIAL.
	require.NoError(t, fx.svc.ReverseConsumption(ctx, idA, dec("10")))
	lotA, _ := fx.lots.GetByID(ctx, idA)
	assert.True(t, lotA.RemainingQty.Equal(dec("10")))
	assert.Equal(t, entity.TallyStatusPartial, lotA.Status)

	// Doble reversión exagerada: el techo es la cantidad recibida.
	require.NoError(t, fx.svc.ReverseConsumption(ctx, idA, dec("1000")))
	lotA, _ = fx.lots.GetByID(ctx, idA)
	assert.True(t, lotA.RemainingQty.Equal(dec("30")), "nunca por encima de lo recibido")
	assert.Equal(t, entity.TallyStatusOpen, lotA.Status)
	fx.requireInvariant(t)
}

func TestReverseConsumption_MontoInvalido(t *testing.T) {
	fx := newFixture(defaultCfg())
	err := fx.svc.ReverseConsumption(context.Background(), "lot-1", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

// ──────────────────────────────────────────────────────────────────────────────
// Estados terminales
// ──────────────────────────────────────────────────────────────────────────────

func TestEstadosTerminales(t *testing.T) {
	fx := newFixture(defaultCfg())
	ctx := context.Background()
	idA := fx.seedLot(t, "A", "30", jan1)

	require.NoError(t, fx.svc.VoidTallySheet(ctx, idA))

	// Un lote VOID no admite más transiciones ni cambios de balance.
	assert.ErrorIs(t, fx.svc.CloseTallySheet(ctx, idA), domain.ErrLotTerminal)
	assert.ErrorIs(t, fx.svc.VoidTallySheet(ctx, idA), domain.ErrLotTerminal)
	assert.ErrorIs(t, fx.svc.ReverseConsumption(ctx, idA, dec("5")), domain.ErrLotTerminal)

	// Y deja de aparecer como disponible.
	lots, err := fx.svc.FindAvailableLots(ctx, tally.FindAvailableInput{ItemID: "item-pino", LocationID: "loc-1"})
	require.NoError(t, err)
	assert.Empty(t, lots)
}

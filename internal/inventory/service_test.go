package inventory

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/tavolapos/tavola-backend/pkg/db/models"
	"github.com/tavolapos/tavola-backend/pkg/enums"
	pkgerrors "github.com/tavolapos/tavola-backend/pkg/errors"
	"github.com/tavolapos/tavola-backend/pkg/pagination"
	"gorm.io/gorm"
)

type stubInventoryRepo struct {
	ingredient   *models.Ingredient
	transactions []*models.StockTransaction
}

func (s *stubInventoryRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *stubInventoryRepo) CreateIngredient(ctx context.Context, ingredient *models.Ingredient) (*models.Ingredient, error) {
	if ingredient.ID == uuid.Nil {
		ingredient.ID = uuid.New()
	}
	s.ingredient = ingredient
	return ingredient, nil
}

func (s *stubInventoryRepo) FindIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	if s.ingredient == nil || s.ingredient.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	return s.ingredient, nil
}

func (s *stubInventoryRepo) ListIngredients(ctx context.Context) ([]models.Ingredient, error) {
	if s.ingredient == nil {
		return nil, nil
	}
	return []models.Ingredient{*s.ingredient}, nil
}

func (s *stubInventoryRepo) UpdateIngredient(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if s.ingredient == nil || s.ingredient.ID != id {
		return gorm.ErrRecordNotFound
	}
	if v, ok := updates["name"].(string); ok {
		s.ingredient.Name = v
	}
	if v, ok := updates["unit"].(enums.IngredientUnit); ok {
		s.ingredient.Unit = v
	}
	if v, ok := updates["min_stock"].(decimal.Decimal); ok {
		s.ingredient.MinStock = v
	}
	if v, ok := updates["cost_per_unit"].(decimal.Decimal); ok {
		s.ingredient.CostPerUnit = v
	}
	return nil
}

func (s *stubInventoryRepo) AdjustIngredientStock(ctx context.Context, id uuid.UUID, delta decimal.Decimal) (bool, error) {
	if s.ingredient == nil || s.ingredient.ID != id {
		return false, nil
	}
	next := s.ingredient.CurrentStock.Add(delta)
	if next.IsNegative() {
		return false, nil
	}
	s.ingredient.CurrentStock = next
	return true, nil
}

func (s *stubInventoryRepo) CreateTransaction(ctx context.Context, txn *models.StockTransaction) (*models.StockTransaction, error) {
	if txn.ID == uuid.Nil {
		txn.ID = uuid.New()
	}
	s.transactions = append(s.transactions, txn)
	return txn, nil
}

func (s *stubInventoryRepo) ListTransactions(ctx context.Context, params pagination.Params, filters TransactionFilters) (*TransactionList, error) {
	list := &TransactionList{}
	for _, txn := range s.transactions {
		list.Transactions = append(list.Transactions, *txn)
	}
	return list, nil
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

func newTestService(t *testing.T, repo *stubInventoryRepo) Service {
	t.Helper()
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}
	return svc
}

func flourIngredient(stock string) *models.Ingredient {
	return &models.Ingredient{
		ID:           uuid.New(),
		Name:         "Flour",
		Unit:         enums.IngredientUnitKilogram,
		CurrentStock: decimal.RequireFromString(stock),
		MinStock:     decimal.RequireFromString("5"),
	}
}

func apply(t *testing.T, svc Service, id uuid.UUID, kind enums.StockTransactionType, qty string) *models.StockTransaction {
	t.Helper()
	txn, err := svc.ApplyTransaction(context.Background(), ApplyTransactionInput{
		IngredientID: id,
		Type:         kind,
		Quantity:     decimal.RequireFromString(qty),
	})
	if err != nil {
		t.Fatalf("%s %s: expected success got %v", kind, qty, err)
	}
	return txn
}

func TestApplyTransactionSignedEffects(t *testing.T) {
	repo := &stubInventoryRepo{ingredient: flourIngredient("10")}
	svc := newTestService(t, repo)
	id := repo.ingredient.ID

	// Usage of 12 against a balance of 10 must be rejected outright.
	_, err := svc.ApplyTransaction(context.Background(), ApplyTransactionInput{
		IngredientID: id,
		Type:         enums.StockTransactionUsage,
		Quantity:     decimal.RequireFromString("12"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
	details, ok := typed.Details().(map[string]any)
	if !ok {
		t.Fatalf("expected details, got %v", typed.Details())
	}
	if delta, ok := details["attempted_delta"].(decimal.Decimal); !ok || !delta.Equal(decimal.RequireFromString("-12")) {
		t.Fatalf("unexpected attempted delta %v", details["attempted_delta"])
	}
	if !repo.ingredient.CurrentStock.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("balance mutated to %s", repo.ingredient.CurrentStock)
	}
	if len(repo.transactions) != 0 {
		t.Fatalf("rejected transaction must not be recorded, got %d", len(repo.transactions))
	}

	// Purchase 12 -> 22, usage 12 -> 10.
	txn := apply(t, svc, id, enums.StockTransactionPurchase, "12")
	if !txn.Quantity.Equal(decimal.RequireFromString("12")) {
		t.Fatalf("unexpected signed quantity %s", txn.Quantity)
	}
	if !repo.ingredient.CurrentStock.Equal(decimal.RequireFromString("22")) {
		t.Fatalf("unexpected balance %s", repo.ingredient.CurrentStock)
	}

	txn = apply(t, svc, id, enums.StockTransactionUsage, "12")
	if !txn.Quantity.Equal(decimal.RequireFromString("-12")) {
		t.Fatalf("unexpected signed quantity %s", txn.Quantity)
	}
	if !repo.ingredient.CurrentStock.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("unexpected balance %s", repo.ingredient.CurrentStock)
	}

	// The running balance equals the sum of signed ledger entries.
	sum := decimal.Zero
	for _, entry := range repo.transactions {
		sum = sum.Add(entry.Quantity)
	}
	if !repo.ingredient.CurrentStock.Equal(decimal.RequireFromString("10").Add(sum)) {
		t.Fatalf("ledger sum %s does not reconcile with balance %s", sum, repo.ingredient.CurrentStock)
	}
}

// staleReadInventoryRepo serves every read from a fixed snapshot while the
// guarded write checks the authoritative balance, mimicking a second writer
// committing between this caller's read and its write.
type staleReadInventoryRepo struct {
	stubInventoryRepo
	snapshot models.Ingredient
}

func (s *staleReadInventoryRepo) WithTx(tx *gorm.DB) Repository {
	return s
}

func (s *staleReadInventoryRepo) FindIngredient(ctx context.Context, id uuid.UUID) (*models.Ingredient, error) {
	if s.snapshot.ID != id {
		return nil, gorm.ErrRecordNotFound
	}
	snap := s.snapshot
	return &snap, nil
}

func TestApplyUsageStaleReadCannotOverdraw(t *testing.T) {
	ingredient := flourIngredient("10")
	repo := &staleReadInventoryRepo{snapshot: *ingredient}
	repo.ingredient = ingredient
	svc, err := NewService(repo, stubTxRunner{})
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	// Both usages of 10 read the same balance-10 snapshot. Only the first
	// may drain the units; the second must be rejected by the guarded write.
	if _, err := svc.ApplyTransaction(context.Background(), ApplyTransactionInput{
		IngredientID: ingredient.ID,
		Type:         enums.StockTransactionUsage,
		Quantity:     decimal.RequireFromString("10"),
	}); err != nil {
		t.Fatalf("first usage: expected success got %v", err)
	}

	_, err = svc.ApplyTransaction(context.Background(), ApplyTransactionInput{
		IngredientID: ingredient.ID,
		Type:         enums.StockTransactionUsage,
		Quantity:     decimal.RequireFromString("10"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}

	if len(repo.transactions) != 1 {
		t.Fatalf("expected 1 ledger entry, got %d", len(repo.transactions))
	}
	sum := decimal.Zero
	for _, entry := range repo.transactions {
		sum = sum.Add(entry.Quantity)
	}
	if !ingredient.CurrentStock.Equal(decimal.RequireFromString("10").Add(sum)) {
		t.Fatalf("ledger sum %s does not reconcile with balance %s", sum, ingredient.CurrentStock)
	}
	if ingredient.CurrentStock.IsNegative() {
		t.Fatalf("balance went negative: %s", ingredient.CurrentStock)
	}
}

func TestListTransactionsRejectsMalformedCursor(t *testing.T) {
	svc := newTestService(t, &stubInventoryRepo{})

	_, err := svc.ListTransactions(context.Background(), pagination.Params{Limit: 10, Cursor: "not-base64!"}, TransactionFilters{})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestApplyAdjustmentRecordsDelta(t *testing.T) {
	repo := &stubInventoryRepo{ingredient: flourIngredient("10")}
	svc := newTestService(t, repo)

	txn := apply(t, svc, repo.ingredient.ID, enums.StockTransactionAdjustment, "7.5")
	if !txn.Quantity.Equal(decimal.RequireFromString("-2.5")) {
		t.Fatalf("adjustment must store the delta, got %s", txn.Quantity)
	}
	if !repo.ingredient.CurrentStock.Equal(decimal.RequireFromString("7.5")) {
		t.Fatalf("unexpected balance %s", repo.ingredient.CurrentStock)
	}
}

func TestApplyTransactionValidation(t *testing.T) {
	repo := &stubInventoryRepo{ingredient: flourIngredient("10")}
	svc := newTestService(t, repo)
	id := repo.ingredient.ID

	cases := []struct {
		name  string
		input ApplyTransactionInput
	}{
		{"invalid type", ApplyTransactionInput{IngredientID: id, Type: "refill", Quantity: decimal.RequireFromString("1")}},
		{"zero quantity", ApplyTransactionInput{IngredientID: id, Type: enums.StockTransactionPurchase, Quantity: decimal.Zero}},
		{"negative quantity", ApplyTransactionInput{IngredientID: id, Type: enums.StockTransactionUsage, Quantity: decimal.RequireFromString("-2")}},
		{"negative adjustment target", ApplyTransactionInput{IngredientID: id, Type: enums.StockTransactionAdjustment, Quantity: decimal.RequireFromString("-1")}},
	}
	for _, tc := range cases {
		_, err := svc.ApplyTransaction(context.Background(), tc.input)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
			t.Fatalf("%s: unexpected error %v", tc.name, err)
		}
	}
}

func TestApplyTransactionIngredientNotFound(t *testing.T) {
	svc := newTestService(t, &stubInventoryRepo{})
	_, err := svc.ApplyTransaction(context.Background(), ApplyTransactionInput{
		IngredientID: uuid.New(),
		Type:         enums.StockTransactionPurchase,
		Quantity:     decimal.RequireFromString("1"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("unexpected error %v", err)
	}
}

func TestIngredientViewFlags(t *testing.T) {
	repo := &stubInventoryRepo{ingredient: flourIngredient("0")}
	svc := newTestService(t, repo)

	view, err := svc.GetIngredient(context.Background(), repo.ingredient.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !view.LowStock || !view.OutOfStock {
		t.Fatalf("expected low and out of stock flags, got %+v", view)
	}

	repo.ingredient.CurrentStock = decimal.RequireFromString("4")
	view, err = svc.GetIngredient(context.Background(), repo.ingredient.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !view.LowStock || view.OutOfStock {
		t.Fatalf("expected low stock only, got %+v", view)
	}

	repo.ingredient.CurrentStock = decimal.RequireFromString("6")
	view, err = svc.GetIngredient(context.Background(), repo.ingredient.ID)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if view.LowStock || view.OutOfStock {
		t.Fatalf("expected healthy stock, got %+v", view)
	}
}

func TestCreateIngredientStartsAtZeroStock(t *testing.T) {
	repo := &stubInventoryRepo{}
	svc := newTestService(t, repo)

	ingredient, err := svc.CreateIngredient(context.Background(), CreateIngredientInput{
		Name:        "Tomato",
		Unit:        enums.IngredientUnitKilogram,
		MinStock:    decimal.RequireFromString("2"),
		CostPerUnit: decimal.RequireFromString("1.20"),
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !ingredient.CurrentStock.IsZero() {
		t.Fatalf("new ingredient must start at zero stock, got %s", ingredient.CurrentStock)
	}
}

func TestUpdateIngredientRejectsUnknownFieldsAndEmptyInput(t *testing.T) {
	repo := &stubInventoryRepo{ingredient: flourIngredient("10")}
	svc := newTestService(t, repo)

	_, err := svc.UpdateIngredient(context.Background(), repo.ingredient.ID, UpdateIngredientInput{})
	if err == nil {
		t.Fatal("expected error")
	}
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("unexpected error %v", err)
	}

	name := "Bread Flour"
	view, err := svc.UpdateIngredient(context.Background(), repo.ingredient.ID, UpdateIngredientInput{Name: &name})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if view.Name != name {
		t.Fatalf("unexpected name %s", view.Name)
	}
	if !view.CurrentStock.Equal(decimal.RequireFromString("10")) {
		t.Fatalf("update must not touch stock, got %s", view.CurrentStock)
	}
}

package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"affiliatehub/internal/adapters/persistence/models"
	"affiliatehub/internal/core/domain"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := models.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	if err := db.AutoMigrate(&models.SaleRecord{}); err != nil {
		t.Fatalf("migrate sales: %v", err)
	}
	return db
}

func strPtr(s string) *string { return &s }

func seedSale(t *testing.T, db *gorm.DB, sale models.SaleRecord) *models.SaleRecord {
	t.Helper()
	if sale.CreatedAt.IsZero() {
		sale.CreatedAt = time.Now()
	}
	if err := db.Create(&sale).Error; err != nil {
		t.Fatalf("seed sale: %v", err)
	}
	return &sale
}

func TestUserAccountUpsertIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserAccountRepository(db)
	ctx := context.Background()

	account := func() *models.UserAccount {
		return &models.UserAccount{
			ID:            "3f1c2a9e-0000-4000-8000-000000000001",
			Email:         "ana@example.com",
			IDNumber:      "12345678901",
			AffiliateCode: strPtr("123456"),
			CreatedAt:     time.Now(),
		}
	}

	if err := repo.Upsert(ctx, account()); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := repo.Upsert(ctx, account()); err != nil {
		t.Fatalf("second upsert: %v", err)
	}

	var count int64
	db.Model(&models.UserAccount{}).Count(&count)
	if count != 1 {
		t.Fatalf("expected 1 row, got %d", count)
	}

	changed := account()
	changed.AffiliateCode = strPtr("654321")
	if err := repo.Upsert(ctx, changed); err != nil {
		t.Fatalf("third upsert: %v", err)
	}
	got, err := repo.GetByID(ctx, changed.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.AffiliateCodeValue() != "654321" {
		t.Fatalf("expected updated code, got %q", got.AffiliateCodeValue())
	}
}

func TestUserAccountLookups(t *testing.T) {
	db := newTestDB(t)
	repo := NewUserAccountRepository(db)
	ctx := context.Background()

	db.Create(&models.UserAccount{ID: "u1", Email: "a@x.com", IDNumber: "123.456.789-01", AffiliateCode: strPtr("111111"), CreatedAt: time.Now()})
	db.Create(&models.UserAccount{ID: "u2", Email: "b@x.com", IDNumber: "98765432100", AffiliateCode: strPtr("222222"), CreatedAt: time.Now()})

	got, err := repo.GetByIDNumbers(ctx, []string{"12345678901", "123.456.789-01"})
	if err != nil || got.ID != "u1" {
		t.Fatalf("expected u1 by formatted variant, got %v %v", got, err)
	}

	if _, err := repo.GetByIDNumbers(ctx, []string{"00000000000"}); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}

	byEmail, err := repo.GetByEmail(ctx, "b@x.com")
	if err != nil || byEmail.ID != "u2" {
		t.Fatalf("expected u2 by email, got %v %v", byEmail, err)
	}

	list, err := repo.ListByAffiliateCodes(ctx, []string{"111111", "222222", "333333"})
	if err != nil || len(list) != 2 {
		t.Fatalf("expected 2 accounts, got %d %v", len(list), err)
	}
}

func TestAffiliateCodeActivateIfInactive(t *testing.T) {
	db := newTestDB(t)
	repo := NewAffiliateCodeRepository(db)
	ctx := context.Background()

	code := &models.AffiliateCode{ID: "c1", Code: "123456", Status: domain.CodeStatusInactive}
	if err := repo.Create(ctx, code); err != nil {
		t.Fatalf("create: %v", err)
	}

	ok, err := repo.ActivateIfInactive(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("first activation: ok=%v err=%v", ok, err)
	}
	ok, err = repo.ActivateIfInactive(ctx, "c1")
	if err != nil || ok {
		t.Fatalf("second activation should not apply: ok=%v err=%v", ok, err)
	}

	got, _ := repo.GetByCode(ctx, "123456")
	if got.Status != domain.CodeStatusActive || got.ActivatedAt == nil {
		t.Fatalf("expected active with timestamp, got %+v", got)
	}
}

func TestAffiliateCodePrefixAndExisting(t *testing.T) {
	db := newTestDB(t)
	repo := NewAffiliateCodeRepository(db)
	ctx := context.Background()

	repo.Create(ctx, &models.AffiliateCode{ID: "c1", Code: "123456789", Status: domain.CodeStatusInactive})
	repo.Create(ctx, &models.AffiliateCode{ID: "c2", Code: "654321", Status: domain.CodeStatusActive})

	got, err := repo.GetByPrefix(ctx, "123456")
	if err != nil || got.Code != "123456789" {
		t.Fatalf("prefix lookup: %v %v", got, err)
	}
	if _, err := repo.GetByCode(ctx, "123456"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("exact lookup should miss, got %v", err)
	}

	existing, err := repo.ExistingCodes(ctx, []string{"654321", "000000"})
	if err != nil || len(existing) != 1 || existing[0] != "654321" {
		t.Fatalf("existing codes: %v %v", existing, err)
	}
}

func TestSaleQueries(t *testing.T) {
	db := newTestDB(t)
	repo := NewSaleRepository(db)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	seedSale(t, db, models.SaleRecord{GeneratedCode: strPtr("111111"), UsedCode: strPtr("AAAAAA"), IDNumber: "12345678901", FullName: strPtr("Ana Souza"), Confirmed: true, CreatedAt: base})
	seedSale(t, db, models.SaleRecord{GeneratedCode: strPtr("222222"), UsedCode: strPtr("AAAAAA"), IDNumber: "987.654.321-00", Confirmed: true, CreatedAt: base.Add(time.Hour)})
	seedSale(t, db, models.SaleRecord{GeneratedCode: strPtr("333333"), UsedCode: strPtr("BBBBBB"), IDNumber: "11122233344", Confirmed: false, PaymentLinkID: strPtr("pl_1"), CreatedAt: base.Add(2 * time.Hour)})
	seedSale(t, db, models.SaleRecord{GeneratedCode: strPtr("444444"), IDNumber: "55566677788", Confirmed: true, CreatedAt: base.Add(3 * time.Hour)})

	codes, err := repo.ListConfirmedUsedCodes(ctx)
	if err != nil || len(codes) != 2 {
		t.Fatalf("expected 2 confirmed used codes, got %v %v", codes, err)
	}

	named, err := repo.ListNamedByGeneratedCodes(ctx, []string{"111111", "222222"})
	if err != nil || len(named) != 1 || named[0].FullNameValue() != "Ana Souza" {
		t.Fatalf("named by generated: %v %v", named, err)
	}

	byID, err := repo.GetByIDNumbers(ctx, []string{"98765432100", "987.654.321-00"})
	if err != nil || byID.GeneratedCodeValue() != "222222" {
		t.Fatalf("by id numbers: %v %v", byID, err)
	}

	confirmed, err := repo.ListConfirmedByUsedCode(ctx, "AAAAAA")
	if err != nil || len(confirmed) != 2 || confirmed[0].GeneratedCodeValue() != "222222" {
		t.Fatalf("confirmed by used code should be newest first: %v %v", confirmed, err)
	}

	linked, err := repo.ListLinkInitiatedByUsedCode(ctx, "BBBBBB")
	if err != nil || len(linked) != 1 {
		t.Fatalf("link initiated: %v %v", linked, err)
	}

	page, err := repo.ListConfirmedGeneratedCodes(ctx, 0, 2)
	if err != nil || len(page) != 2 {
		t.Fatalf("first page: %v %v", page, err)
	}
	next, err := repo.ListConfirmedGeneratedCodes(ctx, page[1].ID, 2)
	if err != nil || len(next) != 1 || next[0].GeneratedCodeValue() != "444444" {
		t.Fatalf("second page: %v %v", next, err)
	}
}

func TestGetByGeneratedCodePrefersConfirmed(t *testing.T) {
	db := newTestDB(t)
	repo := NewSaleRepository(db)
	ctx := context.Background()

	seedSale(t, db, models.SaleRecord{GeneratedCode: strPtr("654321"), IDNumber: "11111111111", Confirmed: false})
	confirmed := seedSale(t, db, models.SaleRecord{GeneratedCode: strPtr("654321"), IDNumber: "12345678901", Confirmed: true})
	seedSale(t, db, models.SaleRecord{GeneratedCode: strPtr("654321"), IDNumber: "22222222222", Confirmed: true})

	sale, err := repo.GetByGeneratedCode(ctx, "654321")
	if err != nil {
		t.Fatalf("GetByGeneratedCode: %v", err)
	}
	if sale.ID != confirmed.ID {
		t.Fatalf("got sale %d, want the first confirmed sale %d", sale.ID, confirmed.ID)
	}
}

func TestRefreshTokenLifecycle(t *testing.T) {
	db := newTestDB(t)
	repo := NewRefreshTokenRepository(db)
	ctx := context.Background()

	live := &models.RefreshToken{UserID: "u1", TokenHash: "live", ExpiresAt: time.Now().Add(time.Hour)}
	expired := &models.RefreshToken{UserID: "u1", TokenHash: "old", ExpiresAt: time.Now().Add(-time.Hour)}
	repo.Create(ctx, live)
	repo.Create(ctx, expired)

	if _, err := repo.GetByTokenHash(ctx, "live"); err != nil {
		t.Fatalf("get live: %v", err)
	}
	if err := repo.RevokeByTokenHash(ctx, "live"); err != nil {
		t.Fatalf("revoke: %v", err)
	}
	if _, err := repo.GetByTokenHash(ctx, "live"); !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Fatalf("revoked token should not be found, got %v", err)
	}

	removed, err := repo.DeleteExpired(ctx)
	if err != nil || removed != 1 {
		t.Fatalf("delete expired: %d %v", removed, err)
	}
}

func TestWithdrawalHistoryNewestFirst(t *testing.T) {
	db := newTestDB(t)
	repo := NewWithdrawalRepository(db)
	ctx := context.Background()

	older := &models.Withdrawal{UserID: "u1", PixKey: "ana@pix", Status: "paid", CreatedAt: time.Now().Add(-time.Hour)}
	newer := &models.Withdrawal{UserID: "u1", PixKey: "ana@pix", Status: "pending", CreatedAt: time.Now()}
	other := &models.Withdrawal{UserID: "u2", PixKey: "x", Status: "pending"}
	db.Create(older)
	db.Create(newer)
	db.Create(other)

	list, total, err := repo.ListByUserID(ctx, "u1", 20, 0)
	if err != nil || total != 2 || len(list) != 2 || list[0].Status != "pending" {
		t.Fatalf("history: %v %d %v", list, total, err)
	}

	page, total, err := repo.ListByUserID(ctx, "u1", 1, 1)
	if err != nil || total != 2 || len(page) != 1 || page[0].Status != "paid" {
		t.Fatalf("second page: %v %d %v", page, total, err)
	}
}

func TestProcedureCallDialect(t *testing.T) {
	db := newTestDB(t)
	if got := procedureCall(db, "request_withdrawal", 3); got != "CALL request_withdrawal(?, ?, ?)" {
		t.Fatalf("unexpected call for sqlite/mysql dialect: %q", got)
	}
}

func TestProcedureRejection(t *testing.T) {
	signalled := &mysql.MySQLError{Number: 1644, SQLState: [5]byte{'4', '5', '0', '0', '0'}, Message: "minimum withdrawal is 50.00"}
	if msg, ok := procedureRejection(fmt.Errorf("call: %w", signalled)); !ok || msg != "minimum withdrawal is 50.00" {
		t.Fatalf("mysql signal: %q %v", msg, ok)
	}
	if msg, ok := procedureRejection(&pgconn.PgError{Code: "P0001", Message: "insufficient balance"}); !ok || msg != "insufficient balance" {
		t.Fatalf("postgres raise: %q %v", msg, ok)
	}

	for _, err := range []error{
		&mysql.MySQLError{Number: 1213, SQLState: [5]byte{'4', '0', '0', '0', '1'}, Message: "deadlock"},
		&pgconn.PgError{Code: "57014", Message: "canceling statement"},
		errors.New("connection refused"),
	} {
		if _, ok := procedureRejection(err); ok {
			t.Fatalf("%v classified as a rejection", err)
		}
	}
}

func TestRequestWithdrawalPassesThroughDriverErrors(t *testing.T) {
	db := newTestDB(t)
	repo := NewWithdrawalRepository(db)

	// sqlite has no stored procedures, so the CALL fails as a plain driver error
	_, err := repo.RequestWithdrawal(context.Background(), "u1", domain.WithdrawalRequest{PixKey: "ana@pix"})
	if err == nil {
		t.Fatal("expected an error")
	}
	if errors.Is(err, domain.ErrWithdrawalRejected) {
		t.Fatalf("driver error reported as rejection: %v", err)
	}
}

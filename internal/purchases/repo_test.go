package purchases

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/rewardloop/rewardloop-backend/pkg/db/models"
	"github.com/rewardloop/rewardloop-backend/pkg/enums"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	ddl := []string{
		`CREATE TABLE products (
			id TEXT PRIMARY KEY,
			merchant_id TEXT NOT NULL,
			name TEXT NOT NULL,
			price NUMERIC NOT NULL,
			cashback_percentage NUMERIC NOT NULL,
			is_active BOOLEAN NOT NULL DEFAULT 1,
			created_at DATETIME,
			updated_at DATETIME
		)`,
		`CREATE TABLE purchases (
			id TEXT PRIMARY KEY,
			consumer_id TEXT NOT NULL,
			merchant_id TEXT NOT NULL,
			product_id TEXT NOT NULL,
			total_amount NUMERIC NOT NULL,
			cashback_percentage NUMERIC NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			distributed_at DATETIME,
			created_at DATETIME,
			updated_at DATETIME
		)`,
	}
	for _, stmt := range ddl {
		require.NoError(t, conn.Exec(stmt).Error)
	}
	return conn
}

func seedPurchase(t *testing.T, conn *gorm.DB, status enums.PurchaseStatus) *models.Purchase {
	t.Helper()
	purchase := &models.Purchase{
		ID:                 uuid.New(),
		ConsumerID:         uuid.New(),
		MerchantID:         uuid.New(),
		ProductID:          uuid.New(),
		TotalAmount:        decimal.NewFromInt(200),
		CashbackPercentage: decimal.NewFromInt(10),
		Status:             status,
	}
	require.NoError(t, conn.Create(purchase).Error)
	return purchase
}

func TestFindByID(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)
	seeded := seedPurchase(t, conn, enums.PurchaseStatusCompleted)

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, seeded.ID, found.ID)
	require.True(t, found.TotalAmount.Equal(decimal.NewFromInt(200)))
	require.Nil(t, found.DistributedAt)
}

func TestFindByID_Missing(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)

	found, err := repo.FindByID(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, found)
}

func TestFindProductByID(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)

	product := &models.Product{
		ID:                 uuid.New(),
		MerchantID:         uuid.New(),
		Name:               "Case of seltzer",
		Price:              decimal.NewFromInt(30),
		CashbackPercentage: decimal.NewFromInt(5),
		IsActive:           true,
	}
	require.NoError(t, conn.Create(product).Error)

	found, err := repo.FindProductByID(context.Background(), product.ID)
	require.NoError(t, err)
	require.NotNil(t, found)
	require.Equal(t, product.Name, found.Name)

	missing, err := repo.FindProductByID(context.Background(), uuid.New())
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestMarkDistributed(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)
	seeded := seedPurchase(t, conn, enums.PurchaseStatusCompleted)

	now := time.Now().UTC()
	affected, err := repo.MarkDistributed(context.Background(), seeded.ID, now)
	require.NoError(t, err)
	require.EqualValues(t, 1, affected)

	found, err := repo.FindByID(context.Background(), seeded.ID)
	require.NoError(t, err)
	require.NotNil(t, found.DistributedAt)

	// Second stamp is a no-op: the marker only transitions once.
	affected, err = repo.MarkDistributed(context.Background(), seeded.ID, now.Add(time.Minute))
	require.NoError(t, err)
	require.EqualValues(t, 0, affected)
}

func TestMarkDistributed_MissingPurchase(t *testing.T) {
	conn := setupTestDB(t)
	repo := NewRepository(conn)

	affected, err := repo.MarkDistributed(context.Background(), uuid.New(), time.Now().UTC())
	require.NoError(t, err)
	require.EqualValues(t, 0, affected)
}

package db

import (
	"context"
	"fmt"
	"testing"
	"time"

	"Gin_postgres_redis_workshop_inventory/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupTestDB 每个测试一个独立的内存库；cache=shared 让连接池里的连接看到同一份数据
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, Migrate(conn))
	return conn
}

func newTestRepo(t *testing.T) (*Repo, time.Time) {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Second)
	repo := NewRepo(setupTestDB(t)).WithNowFunc(func() time.Time { return now })
	return repo, now
}

func createTestCategory(t *testing.T, repo *Repo) *models.Category {
	t.Helper()
	cat := &models.Category{ID: uuid.NewString(), Name: "general-" + uuid.NewString()[:8]}
	require.NoError(t, repo.CreateCategory(context.Background(), cat))
	return cat
}

func createTestTool(t *testing.T, repo *Repo, name string, quantity int) *models.Tool {
	t.Helper()
	cat := createTestCategory(t, repo)
	tool, err := repo.CreateTool(context.Background(), CreateToolInput{
		DisplayID:     "TL-" + uuid.NewString()[:8],
		Name:          name,
		CategoryID:    cat.ID,
		TotalQuantity: quantity,
		Condition:     models.ConditionExcellent,
	})
	require.NoError(t, err)
	return tool
}

func createTestMaterial(t *testing.T, repo *Repo, name string, current, threshold string) *models.Material {
	t.Helper()
	cat := createTestCategory(t, repo)
	m, err := repo.CreateMaterial(context.Background(), CreateMaterialInput{
		DisplayID:         "MT-" + uuid.NewString()[:8],
		Name:              name,
		CategoryID:        cat.ID,
		CurrentQuantity:   decimal.RequireFromString(current),
		ThresholdQuantity: decimal.RequireFromString(threshold),
		Unit:              "kg",
	})
	require.NoError(t, err)
	return m
}

// assertToolInvariant available_quantity 必须等于可用单元数
func assertToolInvariant(t *testing.T, repo *Repo, toolID string) {
	t.Helper()
	tool, err := repo.FindToolByID(context.Background(), toolID)
	require.NoError(t, err)
	n, err := repo.CountAvailableUnits(context.Background(), toolID)
	require.NoError(t, err)
	require.EqualValues(t, n, tool.AvailableQuantity, "available_quantity drifted from unit count")
}

func borrowAllUnitIDs(bt *models.BorrowingTransaction) []string {
	var ids []string
	for _, item := range bt.Items {
		for _, iu := range item.Units {
			ids = append(ids, iu.ID)
		}
	}
	return ids
}

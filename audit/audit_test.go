package audit

import (
	"context"
	"fmt"
	"testing"

	"Gin_postgres_redis_workshop_inventory/db"
	"Gin_postgres_redis_workshop_inventory/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestRecorder(t *testing.T) (*Recorder, *db.Repo) {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString())
	conn, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.Migrate(conn))
	repo := db.NewRepo(conn)
	return NewRecorder(repo, zap.NewNop()), repo
}

func TestRecordWritesAfterFlush(t *testing.T) {
	rec, repo := newTestRecorder(t)

	rec.Record(Entry{
		EntityType: models.EntityBorrowing,
		EntityID:   "b1",
		Action:     models.ActionBorrow,
		ActorName:  "alice",
		After:      map[string]interface{}{"status": "ACTIVE"},
		Metadata:   map[string]interface{}{"units": 2},
	})
	rec.Flush()

	res, err := repo.ListActivityLogs(context.Background(), db.ActivityLogsQuery{EntityID: "b1"})
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	e := res.Entries[0]
	assert.Equal(t, models.ActionBorrow, e.Action)
	assert.Equal(t, "alice", e.ActorName)
	assert.JSONEq(t, `{"status":"ACTIVE"}`, string(e.After))
	assert.Empty(t, []byte(e.Before))
}

// 落库失败不能影响调用方：Record 之后连接已关，Flush 正常返回
func TestRecordFailureIsSwallowed(t *testing.T) {
	rec, repo := newTestRecorder(t)

	sqlDB, err := repo.DB.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	rec.Record(Entry{EntityType: models.EntityTool, EntityID: "t1", Action: models.ActionCreate})
	rec.Flush()
}

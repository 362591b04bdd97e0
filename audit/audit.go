package audit

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"Gin_postgres_redis_workshop_inventory/db"
	"Gin_postgres_redis_workshop_inventory/models"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

// Recorder 业务事务提交之后异步追加审计记录。写失败只进 zap，
// 永远不会把错误抛回触发它的业务操作。
type Recorder struct {
	repo *db.Repo
	log  *zap.Logger
	wg   sync.WaitGroup
}

func NewRecorder(repo *db.Repo, log *zap.Logger) *Recorder {
	return &Recorder{repo: repo, log: log}
}

type Entry struct {
	EntityType string
	EntityID   string
	Action     string
	ActorName  string
	Before     interface{}
	After      interface{}
	Metadata   map[string]interface{}
}

// Record fire-and-forget；调用方不等待也拿不到错误
func (rec *Recorder) Record(e Entry) {
	rec.wg.Add(1)
	go func() {
		defer rec.wg.Done()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		row := &models.ActivityLogEntry{
			EntityType: e.EntityType,
			EntityID:   e.EntityID,
			Action:     e.Action,
			ActorName:  e.ActorName,
			Before:     rec.toJSON(e.Before),
			After:      rec.toJSON(e.After),
			Metadata:   rec.toJSON(e.Metadata),
		}
		if err := rec.repo.AppendActivity(ctx, row); err != nil {
			rec.log.Warn("activity log write failed",
				zap.String("entityType", e.EntityType),
				zap.String("entityId", e.EntityID),
				zap.String("action", e.Action),
				zap.Error(err))
		}
	}()
}

// Flush 等未落库的记录写完（优雅退出 / 测试用）
func (rec *Recorder) Flush() { rec.wg.Wait() }

func (rec *Recorder) toJSON(v interface{}) datatypes.JSON {
	if v == nil {
		return nil
	}
	if m, ok := v.(map[string]interface{}); ok && len(m) == 0 {
		return nil
	}
	b, err := json.Marshal(v)
	if err != nil {
		rec.log.Warn("activity snapshot marshal failed", zap.Error(err))
		return nil
	}
	return datatypes.JSON(b)
}

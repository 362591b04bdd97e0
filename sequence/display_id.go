package sequence

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 展示编号前缀
const (
	PrefixTool        = "TL"
	PrefixMaterial    = "MT"
	PrefixBorrowing   = "BR"
	PrefixConsumption = "CS"
)

// Store 展示编号分配器。Redis INCR 原子自增，并发创建不会撞号。
// 编号只是给人看的，不承担任何正确性职责。
type Store struct {
	rdb *redis.Client
	now func() time.Time
}

func NewStore(rdb *redis.Client) *Store {
	return &Store{rdb: rdb, now: func() time.Time { return time.Now().UTC() }}
}

// WithNowFunc 测试用假时钟（按年编号需要）
func (s *Store) WithNowFunc(f func() time.Time) *Store {
	s.now = f
	return s
}

func key(prefix string) string            { return fmt.Sprintf("seq:%s", prefix) }
func yearKey(prefix string, y int) string { return fmt.Sprintf("seq:%s:%d", prefix, y) }

// Next TL-001 / MT-001 这类全局递增编号
func (s *Store) Next(ctx context.Context, prefix string) (string, error) {
	n, err := s.rdb.Incr(ctx, key(prefix)).Result()
	if err != nil {
		return "", err
	}
	return FormatID(prefix, n), nil
}

// NextYearly BR-2026-001 这类按年重新计数的编号
func (s *Store) NextYearly(ctx context.Context, prefix string) (string, error) {
	year := s.now().Year()
	n, err := s.rdb.Incr(ctx, yearKey(prefix, year)).Result()
	if err != nil {
		return "", err
	}
	return FormatYearlyID(prefix, year, n), nil
}

func FormatID(prefix string, n int64) string {
	return fmt.Sprintf("%s-%03d", prefix, n)
}

func FormatYearlyID(prefix string, year int, n int64) string {
	return fmt.Sprintf("%s-%d-%03d", prefix, year, n)
}

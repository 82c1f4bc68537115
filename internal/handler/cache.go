package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// 每个岗位有一个版本号，班次有任何改动时版本号加一
// 计算结果存放在以版本号区分的 hash 中，旧版本的 hash 不再被读取，等待过期
func stationVersionKey(stationID int64) string {
	return fmt.Sprintf("coverage:station:%d:v", stationID)
}

func stationCacheKey(stationID, version int64) string {
	return fmt.Sprintf("coverage:station:%d:v%d", stationID, version)
}

// cached 先尝试从 redis 读取 field 对应的结果，没有命中时调用 compute 计算并写回
// 版本号在 compute 之前读取，计算期间发生的改动只会写入已经过时的 hash
// redis 出错时只记录日志，直接使用计算结果
func cached[T any](ctx context.Context, h *Handler, stationID int64, field string, compute func() (T, error)) (T, error) {
	if h.redisClient == nil {
		return compute()
	}

	rctx, cancel := context.WithTimeout(ctx, h.redisTimeout())
	defer cancel()

	version, err := h.redisClient.Get(rctx, stationVersionKey(stationID)).Int64()
	if err != nil && !errors.Is(err, redis.Nil) {
		slog.Warn("读取缓存版本失败", "station_id", stationID, "error", err)
		return compute()
	}

	key := stationCacheKey(stationID, version)

	raw, err := h.redisClient.HGet(rctx, key, field).Bytes()
	switch {
	case err == nil:
		var v T
		if err := json.Unmarshal(raw, &v); err == nil {
			return v, nil
		}
		slog.Warn("无法解析缓存内容", "key", key, "field", field)
	case !errors.Is(err, redis.Nil):
		slog.Warn("读取缓存失败", "key", key, "field", field, "error", err)
	}

	v, err := compute()
	if err != nil {
		return v, err
	}

	data, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}

	pipe := h.redisClient.TxPipeline()
	pipe.HSet(rctx, key, field, data)
	pipe.Expire(rctx, key, time.Duration(h.config.Coverage.CacheTTL)*time.Second)
	if _, err := pipe.Exec(rctx); err != nil {
		slog.Warn("写入缓存失败", "key", key, "field", field, "error", err)
	}

	return v, nil
}

// invalidateStation 必须在数据库写入提交之后调用
func (h *Handler) invalidateStation(ctx context.Context, stationID int64) {
	if h.redisClient == nil {
		return
	}

	rctx, cancel := context.WithTimeout(ctx, h.redisTimeout())
	defer cancel()

	if err := h.redisClient.Incr(rctx, stationVersionKey(stationID)).Err(); err != nil {
		slog.Warn("清除缓存失败", "station_id", stationID, "error", err)
	}
}

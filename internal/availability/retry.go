package availability

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v5"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/coverage"
)

// RetryQuerier 在查询边界上做有限次数的指数退避重试
type RetryQuerier struct {
	next            Querier
	maxTries        uint
	initialInterval time.Duration
}

func NewRetryQuerier(next Querier, maxTries uint, initialInterval time.Duration) *RetryQuerier {
	if maxTries == 0 {
		maxTries = 1
	}
	if initialInterval <= 0 {
		initialInterval = backoff.DefaultInitialInterval
	}
	return &RetryQuerier{
		next:            next,
		maxTries:        maxTries,
		initialInterval: initialInterval,
	}
}

func (q *RetryQuerier) Query(ctx context.Context, req Request) (*Result, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = q.initialInterval

	return backoff.Retry(ctx, func() (*Result, error) {
		res, err := q.next.Query(ctx, req)
		if err != nil && !retryable(err) {
			return nil, backoff.Permanent(err)
		}
		return res, err
	}, backoff.WithBackOff(b), backoff.WithMaxTries(q.maxTries))
}

// retryable 判断错误是否是暂时性的，班次时间格式错误和 4xx 响应直接返回
func retryable(err error) bool {
	if errors.Is(err, coverage.ErrInvalidTime) {
		return false
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		return statusErr.Temporary()
	}
	return true
}

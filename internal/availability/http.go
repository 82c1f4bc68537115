package availability

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/sysu-ecnc-dev/shift-coverage/backend/internal/domain"
)

// HTTPQuerier 通过远程可用性服务查询，请求体为 {startDate, endDate, shift}
type HTTPQuerier struct {
	endpoint string
	client   *http.Client
}

func NewHTTPQuerier(endpoint string, client *http.Client) *HTTPQuerier {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPQuerier{
		endpoint: endpoint,
		client:   client,
	}
}

// StatusError 表示可用性服务返回了非 2xx 状态码
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("可用性服务返回状态码 %d: %s", e.StatusCode, e.Body)
}

// Temporary 只有 5xx 和 429 值得重试，其余 4xx 重试也不会成功
func (e *StatusError) Temporary() bool {
	return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
}

type queryPayload struct {
	StartDate string               `json:"startDate"`
	EndDate   string               `json:"endDate"`
	Shift     domain.ShiftTemplate `json:"shift"`
}

func (q *HTTPQuerier) Query(ctx context.Context, req Request) (*Result, error) {
	body, err := json.Marshal(queryPayload{
		StartDate: req.StartDate.Format(time.DateOnly),
		EndDate:   req.EndDate.Format(time.DateOnly),
		Shift:     req.Shift,
	})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, q.endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := q.client.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, &StatusError{StatusCode: resp.StatusCode, Body: string(bytes.TrimSpace(msg))}
	}

	var res Result
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return nil, fmt.Errorf("无法解析可用性服务的响应: %w", err)
	}

	return &res, nil
}

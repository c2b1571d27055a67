package sink

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"trade-logger/internal/config"
)

// Outcome 描述单次投递结果。投递失败只用于记录，不向上传播。
type Outcome struct {
	Success    bool
	StatusCode int
	Reason     string
}

// Sink 将序列化后的记录一次性 POST 给采集端，不重试、不排队。
// 底层 http.Client 进程内共享，启动时创建一次。
type Sink struct {
	url    string
	client *http.Client
	logger *zap.Logger
}

// New 创建投递客户端。
func New(cfg config.CollectorConfig, logger *zap.Logger) *Sink {
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Sink{
		url: cfg.URL,
		client: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Send 向采集端投递一条 JSON 记录。2xx 视为成功，
// 其余状态码与传输层错误一律作为失败返回，由调用方记录日志。
func (s *Sink) Send(ctx context.Context, payload []byte) Outcome {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return Outcome{Reason: fmt.Sprintf("构造请求失败: %v", err)}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return Outcome{Reason: err.Error()}
	}
	defer func() {
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Outcome{
			StatusCode: resp.StatusCode,
			Reason:     fmt.Sprintf("非预期状态码 %s", resp.Status),
		}
	}

	return Outcome{Success: true, StatusCode: resp.StatusCode}
}

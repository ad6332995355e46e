package job

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/maheshrc27/fbscheduler/internal/models"
	"github.com/maheshrc27/fbscheduler/internal/service"
	"github.com/maheshrc27/fbscheduler/internal/transfer"
	"github.com/maheshrc27/fbscheduler/pkg/utils"
)

const pollerTokenTTL = 15 * time.Minute

// HTTPDispatcher replays posts through the server's publish endpoint. It is
// used by the standalone poller, which has no queue of its own.
type HTTPDispatcher struct {
	baseURL   string
	secretKey string
	media     service.MediaService
	client    *http.Client
}

func NewHTTPDispatcher(baseURL, secretKey string, media service.MediaService, client *http.Client) *HTTPDispatcher {
	if client == nil {
		client = &http.Client{Timeout: 5 * time.Minute}
	}
	return &HTTPDispatcher{
		baseURL:   strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		secretKey: secretKey,
		media:     media,
		client:    client,
	}
}

func (d *HTTPDispatcher) DispatchPublish(ctx context.Context, post *models.Post) error {
	req, err := service.BuildReplay(ctx, d.media, post)
	if err != nil {
		return err
	}
	return d.send(ctx, req)
}

func (d *HTTPDispatcher) send(ctx context.Context, req *transfer.PublishPost) error {
	body, err := json.Marshal(req)
	if err != nil {
		return err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL+"/api/posts/publish", bytes.NewReader(body))
	if err != nil {
		return err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	if d.secretKey != "" {
		token, err := utils.GenerateToken(d.secretKey, transfer.ScopePoller, pollerTokenTTL)
		if err != nil {
			return err
		}
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := d.client.Do(httpReq)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// 409 means another attempt holds the post.
	if resp.StatusCode >= 400 && resp.StatusCode != http.StatusConflict {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("publish endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}
	return nil
}

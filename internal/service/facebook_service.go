package service

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/maheshrc27/fbscheduler/internal/transfer"
)

const (
	maxRemoteBody = 10 << 20
	loginGrace    = 30 * time.Second
)

var essentialCookies = map[string]struct{}{
	"c_user": {}, "xs": {}, "fr": {}, "datr": {}, "sb": {},
}

// EndpointProvider supplies the automation API base URL. An empty URL means
// it has not been configured.
type EndpointProvider interface {
	APIBaseURL(ctx context.Context) (string, error)
}

type FacebookService interface {
	Login(ctx context.Context, identity, secret string, waitSeconds int) (*transfer.LoginResult, error)
	VerifySession(ctx context.Context, cookie string) (*transfer.SessionIdentity, error)
	CheckLiveness(ctx context.Context, cookie string) bool
	FetchPages(ctx context.Context, cookie string) ([]transfer.RemotePage, error)
	Publish(ctx context.Context, cookie string, req transfer.PublishRequest) (*transfer.PublishResult, error)
}

type facebookService struct {
	endpoints EndpointProvider
	client    *http.Client
	timeout   time.Duration
}

func NewFacebookService(endpoints EndpointProvider, client *http.Client, timeout time.Duration) FacebookService {
	if client == nil {
		client = &http.Client{}
	}
	return &facebookService{
		endpoints: endpoints,
		client:    client,
		timeout:   timeout,
	}
}

func (s *facebookService) Login(ctx context.Context, identity, secret string, waitSeconds int) (*transfer.LoginResult, error) {
	timeout := time.Duration(waitSeconds)*time.Second + loginGrace
	if timeout < s.timeout {
		timeout = s.timeout
	}

	env, _, err := s.call(ctx, "/login/", transfer.RemoteLoginRequest{
		Email:          identity,
		Password:       secret,
		Wait2FASeconds: waitSeconds,
	}, timeout)
	if err != nil {
		return nil, err
	}

	if env.Status == "error" || (env.StatusCode != 0 && env.StatusCode != http.StatusOK) {
		return nil, statusError(env.StatusCode, remoteMessage(env), nil)
	}

	cookies := firstRaw(env.Cookies)
	if res := env.Result(); res != nil && cookies == nil {
		cookies = firstRaw(res.Cookies)
	}
	if cookies == nil {
		cookies = firstRaw(env.Resultado)
	}
	if cookies == nil {
		return nil, &RemoteError{Kind: ErrUpstreamFormat, Message: "login response carried no cookies"}
	}

	cookie := string(cookies)
	var asString string
	if json.Unmarshal(cookies, &asString) == nil {
		cookie = asString
	}

	result := &transfer.LoginResult{Cookie: cookie}
	if env.Session != nil {
		result.DisplayName = env.Session.Name
		result.RemoteUserID = env.Session.CUser
	}
	result.DisplayName = firstNonEmpty(result.DisplayName, env.Name, env.UserName, env.Email, identity)
	result.RemoteUserID = firstNonEmpty(result.RemoteUserID, env.CUser, cookieValue(cookies, "c_user"))

	return result, nil
}

func (s *facebookService) VerifySession(ctx context.Context, cookie string) (*transfer.SessionIdentity, error) {
	cookies, err := parseCookies(cookie, false)
	if err != nil {
		return nil, err
	}

	env, _, err := s.call(ctx, "/get_session/", transfer.RemoteCookiesRequest{Cookies: cookies}, s.timeout)
	if err != nil {
		return nil, err
	}

	if env.StatusCode != http.StatusOK {
		return nil, statusError(env.StatusCode, remoteMessage(env), nil)
	}

	return &transfer.SessionIdentity{
		StatusCode:   env.StatusCode,
		RemoteUserID: env.CUser,
		DisplayName:  firstNonEmpty(env.Name, env.UserName),
	}, nil
}

// CheckLiveness probes the remote session endpoint. Any failure, including a
// missing API URL, counts as not live.
func (s *facebookService) CheckLiveness(ctx context.Context, cookie string) bool {
	if _, err := s.VerifySession(ctx, cookie); err != nil {
		slog.Info("session liveness check failed", "outcome", Classify(err).String(), "error", err)
		return false
	}
	return true
}

func (s *facebookService) FetchPages(ctx context.Context, cookie string) ([]transfer.RemotePage, error) {
	cookies, err := parseCookies(cookie, true)
	if err != nil {
		return nil, err
	}

	env, body, err := s.call(ctx, "/get_pages/", transfer.RemoteCookiesRequest{Cookies: cookies}, s.timeout)
	if err != nil {
		return nil, err
	}

	res := env.Result()
	if env.Status == "error" || (res != nil && res.StatusCode != http.StatusOK) {
		code := env.StatusCode
		if res != nil {
			code = res.StatusCode
		}
		return nil, statusError(code, remoteMessage(env), body)
	}
	if env.Status != "ok" || res == nil {
		return nil, &RemoteError{Kind: ErrUpstreamFormat, Message: "unexpected page list envelope", Body: body}
	}

	raw := bytes.TrimSpace(res.Resultado)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, &RemoteError{Kind: ErrUpstreamFormat, Message: "automation API returned no page list", Body: body}
	}
	// The list usually arrives as a JSON document encoded inside a string.
	var encoded string
	if json.Unmarshal(raw, &encoded) == nil {
		raw = []byte(encoded)
	}

	var listed []transfer.RemotePage
	if err := json.Unmarshal(raw, &listed); err != nil {
		return nil, &RemoteError{Kind: ErrUpstreamFormat, Message: "page list is not valid JSON", Body: body}
	}

	pages := make([]transfer.RemotePage, 0, len(listed))
	for _, p := range listed {
		if p.ID == "" {
			continue
		}
		pages = append(pages, p)
	}

	return pages, nil
}

func (s *facebookService) Publish(ctx context.Context, cookie string, req transfer.PublishRequest) (*transfer.PublishResult, error) {
	cookies, err := parseCookies(cookie, false)
	if err != nil {
		return nil, err
	}

	env, body, err := s.call(ctx, "/publish/", transfer.RemotePublishRequest{
		ID:          req.PageID,
		Cookies:     cookies,
		Title:       req.Title,
		Comment:     req.Comment,
		ImageBase64: req.Image,
	}, s.timeout)
	if err != nil {
		return nil, err
	}

	res := env.Result()
	ok := (env.Status == "ok" && res != nil && res.StatusCode == http.StatusOK) ||
		(env.StatusCode == http.StatusOK && isEmptyJSON(env.Error))
	if !ok {
		code := env.StatusCode
		if res != nil && res.StatusCode != 0 {
			code = res.StatusCode
		}
		return nil, statusError(code, remoteMessage(env), body)
	}

	result := &transfer.PublishResult{}
	if res != nil {
		if res.Data != nil {
			result.RemotePostID = res.Data.PostID.String()
		}
		if result.RemotePostID == "" {
			result.RemotePostID = res.PostID.String()
		}
	}

	return result, nil
}

func (s *facebookService) call(ctx context.Context, path string, payload any, timeout time.Duration) (*transfer.RemoteEnvelope, json.RawMessage, error) {
	base, err := s.endpoints.APIBaseURL(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	if base == "" {
		return nil, nil, ErrConfiguration
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return nil, nil, err
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, base+path, bytes.NewReader(data))
	if err != nil {
		return nil, nil, &RemoteError{Kind: ErrConfiguration, Message: err.Error()}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		slog.Info("automation API request failed", "path", path, "error", err)
		return nil, nil, &RemoteError{Kind: ErrConnectivity, Message: err.Error()}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteBody))
	if err != nil {
		return nil, nil, &RemoteError{Kind: ErrConnectivity, StatusCode: resp.StatusCode, Message: err.Error()}
	}

	var env transfer.RemoteEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, &RemoteError{
			Kind:       ErrUpstreamFormat,
			StatusCode: resp.StatusCode,
			Message:    truncate(strings.TrimSpace(string(body)), 200),
		}
	}

	return &env, body, nil
}

func statusError(code int, message string, body json.RawMessage) *RemoteError {
	kind := ErrUpstream
	if IsAuthStatus(code) {
		kind = ErrSessionExpired
	}
	if message == "" {
		message = "unknown error"
	}
	return &RemoteError{Kind: kind, StatusCode: code, Message: message, Body: body}
}

// parseCookies validates the stored payload. With essentialOnly, cookie
// lists are reduced to the few cookies the page listing needs.
func parseCookies(cookie string, essentialOnly bool) (json.RawMessage, error) {
	raw := json.RawMessage(strings.TrimSpace(cookie))
	if len(raw) == 0 || !json.Valid(raw) {
		return nil, ErrCorruptCookie
	}
	if !essentialOnly || raw[0] != '[' {
		return raw, nil
	}

	var list []map[string]any
	if err := json.Unmarshal(raw, &list); err != nil {
		return raw, nil
	}
	kept := make([]map[string]any, 0, len(list))
	for _, c := range list {
		name, _ := c["name"].(string)
		if _, ok := essentialCookies[name]; ok {
			kept = append(kept, c)
		}
	}
	filtered, err := json.Marshal(kept)
	if err != nil {
		return nil, err
	}
	return filtered, nil
}

func remoteMessage(env *transfer.RemoteEnvelope) string {
	var msg string
	if res := env.Result(); res != nil {
		msg = res.Mensaje
	}
	msg = firstNonEmpty(msg, env.Mensaje, env.Message, rawString(env.Error))

	detail := bytes.TrimSpace(env.Detail)
	if len(detail) == 0 {
		return msg
	}

	var items []struct {
		Msg string `json:"msg"`
		Loc []any  `json:"loc"`
	}
	if json.Unmarshal(detail, &items) == nil {
		parts := make([]string, 0, len(items))
		for _, it := range items {
			loc := make([]string, 0, len(it.Loc))
			for _, l := range it.Loc {
				loc = append(loc, fmt.Sprint(l))
			}
			parts = append(parts, fmt.Sprintf("%s (%s)", it.Msg, strings.Join(loc, ".")))
		}
		return strings.Join(parts, ", ")
	}
	if s := rawString(detail); s != "" {
		return s
	}

	return msg
}

func cookieValue(cookies json.RawMessage, name string) string {
	var list []transfer.RemoteCookie
	if json.Unmarshal(cookies, &list) == nil {
		for _, c := range list {
			if c.Name == name {
				return c.Value
			}
		}
		return ""
	}
	var m map[string]any
	if json.Unmarshal(cookies, &m) == nil {
		if v, ok := m[name].(string); ok {
			return v
		}
	}
	return ""
}

func firstRaw(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if isEmptyJSON(raw) {
		return nil
	}
	return raw
}

func isEmptyJSON(raw json.RawMessage) bool {
	switch string(bytes.TrimSpace(raw)) {
	case "", "null", "false", `""`:
		return true
	}
	return false
}

func rawString(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return ""
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/maheshrc27/fbscheduler/internal/transfer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRemote struct {
	t        *testing.T
	handlers map[string]http.HandlerFunc
	bodies   map[string][]byte
}

func newFakeRemote(t *testing.T) (*fakeRemote, FacebookService) {
	t.Helper()
	f := &fakeRemote{t: t, handlers: map[string]http.HandlerFunc{}, bodies: map[string][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		f.bodies[r.URL.Path] = body
		h, ok := f.handlers[r.URL.Path]
		if !ok {
			http.NotFound(w, r)
			return
		}
		h(w, r)
	}))
	t.Cleanup(srv.Close)

	return f, NewFacebookService(staticEndpoint(srv.URL), srv.Client(), 5*time.Second)
}

func jsonReply(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, body)
	}
}

func TestPublishRemoteSuccess(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/publish/"] = jsonReply(`{"status":"ok","resultado":{"status_code":200,"data":{"post_id":999}}}`)

	res, err := fb.Publish(context.Background(), testCookie, transfer.PublishRequest{PageID: "P", Title: "T", Comment: "Hello"})
	require.NoError(t, err)
	assert.Equal(t, "999", res.RemotePostID)

	var sent map[string]any
	require.NoError(t, json.Unmarshal(f.bodies["/publish/"], &sent))
	assert.Equal(t, "P", sent["id"])
	assert.Equal(t, "Hello", sent["comment"])
	assert.IsType(t, []any{}, sent["cookies"])
	assert.NotContains(t, sent, "image_base64")
}

func TestPublishRemoteFlatSuccess(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/publish/"] = jsonReply(`{"status_code":200,"resultado":{"post_id":"55"}}`)

	res, err := fb.Publish(context.Background(), testCookie, transfer.PublishRequest{PageID: "P"})
	require.NoError(t, err)
	assert.Equal(t, "55", res.RemotePostID)
}

func TestPublishRemoteAuthFailure(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/publish/"] = jsonReply(`{"status":"error","resultado":{"status_code":401,"mensaje":"cookie expired"}}`)

	_, err := fb.Publish(context.Background(), testCookie, transfer.PublishRequest{PageID: "P"})
	require.Error(t, err)
	assert.Equal(t, OutcomeAuth, Classify(err))

	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, 401, re.StatusCode)
	assert.Equal(t, "cookie expired", re.Message)
	assert.NotEmpty(t, re.Body)
}

func TestPublishRemoteGenericFailure(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/publish/"] = jsonReply(`{"status":"error","resultado":{"status_code":500,"mensaje":"internal"}}`)

	_, err := fb.Publish(context.Background(), testCookie, transfer.PublishRequest{PageID: "P"})
	assert.Equal(t, OutcomeUpstream, Classify(err))
	assert.Contains(t, err.Error(), "internal")
}

func TestPublishRemoteValidationDetail(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/publish/"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnprocessableEntity)
		io.WriteString(w, `{"detail":[{"msg":"field required","loc":["body","id"]}]}`)
	}

	_, err := fb.Publish(context.Background(), testCookie, transfer.PublishRequest{})
	var re *RemoteError
	require.ErrorAs(t, err, &re)
	assert.Equal(t, "field required (body.id)", re.Message)
}

func TestPublishRemoteNotJSON(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/publish/"] = func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, "<html>bad gateway</html>")
	}

	_, err := fb.Publish(context.Background(), testCookie, transfer.PublishRequest{PageID: "P"})
	assert.Equal(t, OutcomeFormat, Classify(err))
}

func TestRemoteUnreachable(t *testing.T) {
	fb := NewFacebookService(staticEndpoint("http://127.0.0.1:1"), nil, time.Second)

	_, err := fb.Publish(context.Background(), testCookie, transfer.PublishRequest{PageID: "P"})
	assert.Equal(t, OutcomeConnectivity, Classify(err))
}

func TestRemoteNotConfigured(t *testing.T) {
	fb := NewFacebookService(staticEndpoint(""), nil, time.Second)

	_, err := fb.FetchPages(context.Background(), testCookie)
	assert.ErrorIs(t, err, ErrConfiguration)
	assert.Equal(t, OutcomeConfiguration, Classify(err))
	assert.False(t, fb.CheckLiveness(context.Background(), testCookie))
}

func TestCheckLiveness(t *testing.T) {
	f, fb := newFakeRemote(t)
	status := 200
	f.handlers["/get_session/"] = func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{"status_code": status, "c_user": "100", "name": "Ana"})
	}

	ctx := context.Background()
	assert.True(t, fb.CheckLiveness(ctx, testCookie))

	status = 401
	assert.False(t, fb.CheckLiveness(ctx, testCookie))

	assert.False(t, fb.CheckLiveness(ctx, "not json"))
}

func TestVerifySessionIdentity(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/get_session/"] = jsonReply(`{"status_code":200,"c_user":"100","name":"Ana"}`)

	id, err := fb.VerifySession(context.Background(), testCookie)
	require.NoError(t, err)
	assert.Equal(t, "100", id.RemoteUserID)
	assert.Equal(t, "Ana", id.DisplayName)
}

func TestFetchPagesSendsEssentialCookies(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/get_pages/"] = jsonReply(`{"status":"ok","resultado":{"status_code":200,"resultado":"[{\"id\":123,\"name\":\"Shop\"},{\"id\":\"456\",\"name\":\"Blog\"}]"}}`)

	cookie := `[{"name":"c_user","value":"1"},{"name":"presence","value":"x"},{"name":"xs","value":"2"}]`
	pages, err := fb.FetchPages(context.Background(), cookie)
	require.NoError(t, err)
	require.Len(t, pages, 2)
	assert.Equal(t, "123", pages[0].ID.String())
	assert.Equal(t, "Blog", pages[1].Name.String())

	var sent struct {
		Cookies []transfer.RemoteCookie `json:"cookies"`
	}
	require.NoError(t, json.Unmarshal(f.bodies["/get_pages/"], &sent))
	require.Len(t, sent.Cookies, 2)
	assert.Equal(t, "c_user", sent.Cookies[0].Name)
	assert.Equal(t, "xs", sent.Cookies[1].Name)
}

func TestFetchPagesAuthFailure(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/get_pages/"] = jsonReply(`{"status":"error","resultado":{"status_code":400}}`)

	_, err := fb.FetchPages(context.Background(), testCookie)
	assert.Equal(t, OutcomeAuth, Classify(err))
}

func TestFetchPagesMissingList(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/get_pages/"] = jsonReply(`{"status":"ok","resultado":{"status_code":200}}`)

	_, err := fb.FetchPages(context.Background(), testCookie)
	assert.ErrorIs(t, err, ErrUpstreamFormat)
}

func TestLoginFallbackFields(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/login/"] = jsonReply(`{"status":"ok","resultado":{"cookies":[{"name":"c_user","value":"321"}]}}`)

	res, err := fb.Login(context.Background(), "ana@example.com", "pw", 60)
	require.NoError(t, err)
	assert.Equal(t, "321", res.RemoteUserID)
	assert.Equal(t, "ana@example.com", res.DisplayName)
	assert.JSONEq(t, `[{"name":"c_user","value":"321"}]`, res.Cookie)

	var sent transfer.RemoteLoginRequest
	require.NoError(t, json.Unmarshal(f.bodies["/login/"], &sent))
	assert.Equal(t, 60, sent.Wait2FASeconds)
}

func TestLoginRemoteError(t *testing.T) {
	f, fb := newFakeRemote(t)
	f.handlers["/login/"] = jsonReply(`{"status":"error","mensaje":"2FA denied"}`)

	_, err := fb.Login(context.Background(), "ana", "pw", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "2FA denied")
}

func TestClassify(t *testing.T) {
	assert.Equal(t, OutcomeSuccess, Classify(nil))
	assert.Equal(t, OutcomeAuth, Classify(&RemoteError{Kind: ErrSessionExpired}))
	assert.Equal(t, OutcomeUpstream, Classify(ErrCorruptCookie))
	assert.Equal(t, OutcomeConfiguration, Classify(ErrConfiguration))
}

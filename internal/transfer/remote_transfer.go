package transfer

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Shapes exchanged with the automation API. Its envelopes are inconsistent
// between endpoints, so most fields are optional.

type RemoteLoginRequest struct {
	Email          string `json:"email"`
	Password       string `json:"password"`
	Wait2FASeconds int    `json:"wait_2fa_seconds"`
}

type RemoteCookiesRequest struct {
	Cookies json.RawMessage `json:"cookies"`
}

type RemotePublishRequest struct {
	ID          string          `json:"id"`
	Cookies     json.RawMessage `json:"cookies"`
	Title       string          `json:"title"`
	Comment     string          `json:"comment"`
	ImageBase64 string          `json:"image_base64,omitempty"`
}

type RemoteResult struct {
	StatusCode int             `json:"status_code"`
	Mensaje    string          `json:"mensaje"`
	PostID     FlexString      `json:"post_id"`
	Resultado  json.RawMessage `json:"resultado"`
	Cookies    json.RawMessage `json:"cookies"`
	Data       *struct {
		PostID FlexString `json:"post_id"`
	} `json:"data"`
}

type RemoteEnvelope struct {
	Status     string          `json:"status"`
	StatusCode int             `json:"status_code"`
	Mensaje    string          `json:"mensaje"`
	Message    string          `json:"message"`
	Error      json.RawMessage `json:"error"`
	Detail     json.RawMessage `json:"detail"`
	Resultado  json.RawMessage `json:"resultado"`

	CUser    string          `json:"c_user"`
	Name     string          `json:"name"`
	UserName string          `json:"user_name"`
	Email    string          `json:"email"`
	Cookies  json.RawMessage `json:"cookies"`
	Session  *struct {
		Name  string `json:"name"`
		CUser string `json:"c_user"`
	} `json:"session"`
}

// Result decodes the nested resultado object. It is nil when the field is
// missing or is not an object.
func (e *RemoteEnvelope) Result() *RemoteResult {
	raw := bytes.TrimSpace(e.Resultado)
	if len(raw) == 0 || raw[0] != '{' {
		return nil
	}
	var r RemoteResult
	if err := json.Unmarshal(raw, &r); err != nil {
		return nil
	}
	return &r
}

type RemoteCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

type RemotePage struct {
	ID   FlexString `json:"id"`
	Name FlexString `json:"name"`
}

type LoginResult struct {
	Cookie       string `json:"cookie"`
	DisplayName  string `json:"display_name"`
	RemoteUserID string `json:"remote_user_id"`
}

type SessionIdentity struct {
	StatusCode   int    `json:"status_code"`
	RemoteUserID string `json:"c_user"`
	DisplayName  string `json:"name"`
}

type PublishRequest struct {
	PageID  string
	Title   string
	Comment string
	Image   string
}

type PublishResult struct {
	RemotePostID string `json:"fb_post_id"`
}

// FlexString decodes a JSON string or number into its textual form.
type FlexString string

func (f *FlexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*f = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = FlexString(strings.TrimSpace(n.String()))
	return nil
}

func (f FlexString) String() string { return string(f) }

package sxt

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/Jh18L/sxt/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memRecorder struct {
	mu      sync.Mutex
	records []CallRecord
}

func (m *memRecorder) Record(rec CallRecord) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = append(m.records, rec)
}

func (m *memRecorder) all() []CallRecord {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CallRecord(nil), m.records...)
}

func testConfig(base string) config.SxtConfig {
	return config.SxtConfig{
		APIBase:        base,
		PortalBase:     base,
		Timeout:        5 * time.Second,
		MinInterval:    time.Millisecond,
		SmsMinInterval: time.Millisecond,
	}
}

func TestPasswordLoginParsesEnvelope(t *testing.T) {
	var gotBody loginRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/passport/api/auth/login", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"token":"t1","refreshToken":"r1"}}`))
	}))
	defer srv.Close()

	rec := &memRecorder{}
	client := NewClient(testConfig(srv.URL), rec)

	env, err := client.PasswordLogin(context.Background(), "13800000000", "encrypted")
	require.NoError(t, err)
	assert.True(t, env.Success)

	assert.Equal(t, "SXT", gotBody.App)
	assert.Equal(t, "STUDENT", gotBody.Client)
	assert.Equal(t, "ANDROID", gotBody.Platform)
	assert.Equal(t, 0, gotBody.AccountType)
	assert.Equal(t, "13800000000", gotBody.Account)
	assert.Equal(t, "encrypted", gotBody.Password)

	records := rec.all()
	require.Len(t, records, 1)
	assert.Equal(t, http.StatusOK, records[0].ResponseStatus)
	assert.Empty(t, records[0].Error)
	assert.NotEmpty(t, records[0].ID)
}

// 安全网关的拦截页可能带 200 也可能带 405，都必须识别为拦截
func TestHTMLBodyBecomesBlockedError(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusMethodNotAllowed} {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "text/html")
			w.WriteHeader(status)
			w.Write([]byte(`<html><body>请求被网站防火墙拦截</body></html>`))
		}))

		rec := &memRecorder{}
		client := NewClient(testConfig(srv.URL), rec)

		_, err := client.GetUserInfo(context.Background(), "token")
		require.Error(t, err)

		var blocked *BlockedError
		require.ErrorAs(t, err, &blocked)
		assert.Equal(t, status, blocked.Status)

		records := rec.all()
		require.Len(t, records, 1)
		assert.NotEmpty(t, records[0].Error)

		srv.Close()
	}
}

func TestUpstreamErrorCarriesStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"success":false,"message":"系统繁忙"}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	_, err := client.GetUserInfo(context.Background(), "token")
	var uerr *UpstreamError
	require.ErrorAs(t, err, &uerr)
	assert.Equal(t, http.StatusInternalServerError, uerr.Status)
	assert.Equal(t, "系统繁忙", uerr.Message)
}

// 2xx 且 success=false 的应答不是错误，由调用方透传
func TestUnsuccessfulEnvelopePassesThrough(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false,"message":"账号或密码错误"}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	env, err := client.PasswordLogin(context.Background(), "a", "b")
	require.NoError(t, err)
	assert.False(t, env.Success)
	assert.Equal(t, "账号或密码错误", env.Message)
}

func TestPortalHeadersCarrySession(t *testing.T) {
	var roleUserID, cookie string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		roleUserID = r.Header.Get("role-user-id")
		cookie = r.Header.Get("Cookie")
		w.Write([]byte(`{"success":true,"data":{"dataList":[]}}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)
	sess := Session{Token: "tok", RefreshToken: "ref", UserID: "stu-1"}

	_, err := client.GetExamList(context.Background(), sess, 1, 10)
	require.NoError(t, err)
	assert.Equal(t, "stu-1", roleUserID)
	assert.Equal(t, "sxt_h5_token_prod=tok; sxt_h5_token_prod_refresh=ref", cookie)
}

func TestSmsParamsGoInQueryString(t *testing.T) {
	var query string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.RawQuery
		w.Write([]byte(`{"success":true}`))
	}))
	defer srv.Close()

	client := NewClient(testConfig(srv.URL), nil)

	_, err := client.SendAuthCode(context.Background(), "13800000000")
	require.NoError(t, err)
	assert.Equal(t, "phoneNumber=13800000000", query)
}

func TestDataIsTrue(t *testing.T) {
	env := &Envelope{Success: true, Data: json.RawMessage(`true`)}
	assert.True(t, env.DataIsTrue())

	env.Data = json.RawMessage(`false`)
	assert.False(t, env.DataIsTrue())

	env.Data = json.RawMessage(`{"a":1}`)
	assert.False(t, env.DataIsTrue())
}

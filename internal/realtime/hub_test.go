package realtime

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/motohub/workshop-service/internal/auth"
	"github.com/motohub/workshop-service/internal/event"
	"github.com/motohub/workshop-service/internal/pkg/i18n"
	"github.com/motohub/workshop-service/internal/pkg/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
	i18n.Init()
}

type wsFixture struct {
	hub    *Hub
	tokens *auth.TokenManager
	server *httptest.Server
}

func newFixture(t *testing.T) *wsFixture {
	t.Helper()
	hub := NewHub(logger.NewNop())
	tokens := auth.NewTokenManager("secret", "")
	h := NewHandler(hub, tokens, "access_token", logger.NewNop())

	r := gin.New()
	r.GET("/ws", h.ServeWs)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return &wsFixture{hub: hub, tokens: tokens, server: srv}
}

func (f *wsFixture) dial(t *testing.T, query string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.server.URL, "http") + "/ws?" + query
	return websocket.DefaultDialer.Dial(url, nil)
}

func (f *wsFixture) token(t *testing.T, userID, dealerID, role string) string {
	t.Helper()
	tok, err := f.tokens.Generate(userID, dealerID, role, time.Minute)
	require.NoError(t, err)
	return tok
}

func TestHubDeliversToDealerOnly(t *testing.T) {
	f := newFixture(t)

	connA, _, err := f.dial(t, "token="+f.token(t, "u-1", "dealer-a", auth.RoleTechnician))
	require.NoError(t, err)
	defer connA.Close()
	connB, _, err := f.dial(t, "token="+f.token(t, "u-2", "dealer-b", auth.RoleServiceManager))
	require.NoError(t, err)
	defer connB.Close()

	require.Eventually(t, func() bool {
		return f.hub.Count("dealer-a") == 1 && f.hub.Count("dealer-b") == 1
	}, time.Second, 10*time.Millisecond)

	env, err := event.New(event.RequisitionApproved, "test", "dealer-a", "", map[string]string{"requisition_id": "r-1"})
	require.NoError(t, err)
	require.NoError(t, f.hub.Publish(context.Background(), env))

	connA.SetReadDeadline(time.Now().Add(time.Second))
	_, msg, err := connA.ReadMessage()
	require.NoError(t, err)
	var got event.Envelope
	require.NoError(t, json.Unmarshal(msg, &got))
	assert.Equal(t, env.EventID, got.EventID)
	assert.Equal(t, event.RequisitionApproved, got.EventType)

	connB.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = connB.ReadMessage()
	assert.Error(t, err, "dealer-b must not receive dealer-a events")
}

func TestHubSuperAdminDealerOverride(t *testing.T) {
	f := newFixture(t)

	conn, _, err := f.dial(t, "dealer_id=dealer-x&token="+f.token(t, "u-9", "", auth.RoleSuperAdmin))
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return f.hub.Count("dealer-x") == 1 }, time.Second, 10*time.Millisecond)
}

func TestServeWsRejects(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		name  string
		query string
		code  int
	}{
		{"missing token", "", http.StatusUnauthorized},
		{"bad token", "token=nope", http.StatusUnauthorized},
		{"no dealer", "token=" + f.token(t, "u-1", "", auth.RoleDealerAdmin), http.StatusBadRequest},
		{"unknown role", "token=" + f.token(t, "u-1", "dealer-a", "cashier"), http.StatusForbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, resp, err := f.dial(t, tt.query)
			require.Error(t, err)
			require.NotNil(t, resp)
			assert.Equal(t, tt.code, resp.StatusCode)
		})
	}
}

func TestHubUnregisterOnClose(t *testing.T) {
	f := newFixture(t)

	conn, _, err := f.dial(t, "token="+f.token(t, "u-1", "dealer-a", auth.RoleTechnician))
	require.NoError(t, err)
	require.Eventually(t, func() bool { return f.hub.Count("dealer-a") == 1 }, time.Second, 10*time.Millisecond)

	conn.Close()
	require.Eventually(t, func() bool { return f.hub.Count("dealer-a") == 0 }, 2*time.Second, 10*time.Millisecond)
}

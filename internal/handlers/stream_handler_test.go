package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.accord.negotiation/internal/negotiation"
	"dev.accord.negotiation/internal/services"
)

func TestStreamDeliversRoundEvents(t *testing.T) {
	router, svc := newTestRouter(t)
	NewStreamHandler(svc, quietLogger()).RegisterRoutes(router.Group("/v1"))

	summary, err := svc.Create(services.CreateNegotiationRequest{
		Participants: []string{"buyer", "seller"},
		MaxRounds:    6,
	})
	require.NoError(t, err)

	server := httptest.NewServer(router)
	defer server.Close()

	url := "ws" + strings.TrimPrefix(server.URL, "http") + "/v1/negotiations/" + summary.ID + "/stream"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()
	defer resp.Body.Close()

	_, err = svc.Step(context.Background(), summary.ID, negotiation.RoundAction{
		Type:  negotiation.ActionOffer,
		Actor: "buyer",
		Terms: map[string]interface{}{"price": 500.0},
	})
	require.NoError(t, err)

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var event negotiation.Event
	require.NoError(t, conn.ReadJSON(&event))

	assert.Equal(t, negotiation.EventOffer, event.Type)
	assert.Equal(t, "buyer", event.Actor)
	assert.Equal(t, 1, event.Round)
}

func TestStreamUnknownNegotiationIs404(t *testing.T) {
	router, svc := newTestRouter(t)
	NewStreamHandler(svc, quietLogger()).RegisterRoutes(router.Group("/v1"))

	recorder := doJSON(t, router, http.MethodGet, "/v1/negotiations/ghost/stream", nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

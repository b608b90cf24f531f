package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dev.accord.negotiation/internal/config"
	"dev.accord.negotiation/internal/llm"
	"dev.accord.negotiation/internal/services"
)

func quietLogger() *logrus.Logger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func newTestRouter(t *testing.T) (*gin.Engine, *services.NegotiationService) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	oracle := llm.NewScriptedOracle().WithFallback("neutral")
	registry := services.NewModuleRegistry(config.DefaultModulesConfig(), oracle, quietLogger())
	svc := services.NewNegotiationService(registry, config.SessionConfig{
		MaxRounds:     10,
		ModuleTimeout: time.Second,
	}, quietLogger())

	router := gin.New()
	NewNegotiationHandler(svc, quietLogger()).RegisterRoutes(router.Group("/v1"))
	return router, svc
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	recorder := httptest.NewRecorder()
	router.ServeHTTP(recorder, req)
	return recorder
}

func createNegotiation(t *testing.T, router *gin.Engine) string {
	t.Helper()
	recorder := doJSON(t, router, http.MethodPost, "/v1/negotiations", gin.H{
		"participants": []string{"buyer", "seller"},
		"max_rounds":   6,
	})
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())

	var created struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &created))
	require.NotEmpty(t, created.ID)
	return created.ID
}

func stepBody(actor string, price float64) gin.H {
	return gin.H{
		"type":  "offer",
		"actor": actor,
		"terms": gin.H{"price": price},
	}
}

// =============================================================================
// Lifecycle Endpoint Tests
// =============================================================================

func TestCreateNegotiationEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createNegotiation(t, router)

	recorder := doJSON(t, router, http.MethodGet, "/v1/negotiations/"+id, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"phase":"opening"`)
}

func TestCreateNegotiationRejectsBadPayload(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/v1/negotiations", gin.H{"max_rounds": 5})
	assert.Equal(t, http.StatusBadRequest, recorder.Code, "participants are required")

	recorder = doJSON(t, router, http.MethodPost, "/v1/negotiations", gin.H{"participants": []string{"solo"}})
	assert.Equal(t, http.StatusBadRequest, recorder.Code)
}

func TestStepEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createNegotiation(t, router)

	recorder := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/negotiations/%s/step", id), stepBody("buyer", 500))
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	var result struct {
		Round        int               `json:"round"`
		Observations map[string]string `json:"observations"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &result))
	assert.Equal(t, 1, result.Round)
	assert.Contains(t, result.Observations["buyer"], "[TEMPORAL DYNAMICS]")
}

func TestStepUnknownNegotiationIs404(t *testing.T) {
	router, _ := newTestRouter(t)

	recorder := doJSON(t, router, http.MethodPost, "/v1/negotiations/ghost/step", stepBody("buyer", 500))
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestStepConcludedNegotiationIs409(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createNegotiation(t, router)

	recorder := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/negotiations/%s/step", id),
		gin.H{"type": "withdraw", "actor": "seller"})
	require.Equal(t, http.StatusOK, recorder.Code)

	recorder = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/negotiations/%s/step", id), stepBody("buyer", 500))
	assert.Equal(t, http.StatusConflict, recorder.Code)
}

// =============================================================================
// History and Agreement Endpoint Tests
// =============================================================================

func TestHistoryAndAgreementEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createNegotiation(t, router)

	doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/negotiations/%s/step", id), stepBody("seller", 650))
	recorder := doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/negotiations/%s/step", id),
		gin.H{"type": "accept", "actor": "buyer"})
	require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

	recorder = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/negotiations/%s/history", id), nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var history struct {
		Events []json.RawMessage `json:"events"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &history))
	assert.Len(t, history.Events, 2)

	recorder = doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/negotiations/%s/agreement", id), nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), `"price":650`)
}

func TestAgreementMissingIs404(t *testing.T) {
	router, _ := newTestRouter(t)
	id := createNegotiation(t, router)

	recorder := doJSON(t, router, http.MethodGet, fmt.Sprintf("/v1/negotiations/%s/agreement", id), nil)
	assert.Equal(t, http.StatusNotFound, recorder.Code)
}

func TestListEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	createNegotiation(t, router)
	createNegotiation(t, router)

	recorder := doJSON(t, router, http.MethodGet, "/v1/negotiations", nil)
	assert.Equal(t, http.StatusOK, recorder.Code)

	var listing struct {
		Negotiations []json.RawMessage `json:"negotiations"`
	}
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &listing))
	assert.Len(t, listing.Negotiations, 2)
}

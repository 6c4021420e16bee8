package api

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quizhive/mimir/internal/config"
	"github.com/quizhive/mimir/internal/quiz"
	"github.com/quizhive/mimir/internal/quiz/quiztest"
)

const testSecret = "test-secret"

func testConfig() *config.Config {
	return &config.Config{
		JWTSecret:      testSecret,
		RateLimitRPS:   1000,
		ImportMaxItems: 10,
	}
}

func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	svc := quiz.NewService(
		quiztest.NewQuestionStore(),
		quiztest.NewUploadStore(),
		quiztest.NewTracker(),
		nil,
	)
	return SetupRoutes(testConfig(), svc)
}

func bearerToken(t *testing.T, userID string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func doRequest(router *gin.Engine, method, path, token, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

const questionBody = `{
	"category": "geography",
	"subcategory": "capitals",
	"question": "What is the capital of France?",
	"correctAnswer": "Paris",
	"incorrectAnswers": ["London", "Berlin"]
}`

func TestHealthEndpoint(t *testing.T) {
	router := testRouter(t)

	w := doRequest(router, http.MethodGet, "/health", "", "")
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateQuestionRequiresAuth(t *testing.T) {
	router := testRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/questions", "", questionBody)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreateQuestionFlow(t *testing.T) {
	router := testRouter(t)
	token := bearerToken(t, "user-1")

	w := doRequest(router, http.MethodPost, "/api/v1/questions", token, questionBody)
	require.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"fingerprint"`)

	// Repeat in the same scope: validation-class rejection.
	w = doRequest(router, http.MethodPost, "/api/v1/questions", token, questionBody)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_QUESTION")
	assert.Contains(t, w.Body.String(), `"existingId"`)

	// A different user is a different scope.
	w = doRequest(router, http.MethodPost, "/api/v1/questions", bearerToken(t, "user-2"), questionBody)
	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestCreateQuestionValidatesBody(t *testing.T) {
	router := testRouter(t)

	w := doRequest(router, http.MethodPost, "/api/v1/questions", bearerToken(t, "user-1"), `{"category":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestImportEndpointReportsDuplicates(t *testing.T) {
	router := testRouter(t)
	token := bearerToken(t, "user-1")

	body := `{"items":[
		{"category":"geo","subcategory":"cap","question":"Q one","correctAnswer":"A"},
		{"category":"geo","subcategory":"cap","question":"Q one","correctAnswer":"A"},
		{"category":"geo","subcategory":"cap","question":"Q two","correctAnswer":"B"}
	]}`

	w := doRequest(router, http.MethodPost, "/api/v1/questions/import", token, body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"imported":2`)
	assert.Contains(t, w.Body.String(), `"duplicates":1`)
	assert.Contains(t, w.Body.String(), `"Q one"`)
}

func TestImportEndpointEnforcesBatchLimit(t *testing.T) {
	router := testRouter(t)
	token := bearerToken(t, "user-1")

	items := make([]string, 0, 11)
	for i := 0; i < 11; i++ {
		items = append(items, `{"category":"geo","subcategory":"cap","question":"Q","correctAnswer":"A"}`)
	}
	body := `{"items":[` + strings.Join(items, ",") + `]}`

	w := doRequest(router, http.MethodPost, "/api/v1/questions/import", token, body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "IMPORT_TOO_LARGE")
}

func TestUploadEndpointConflictOnRepeat(t *testing.T) {
	router := testRouter(t)
	token := bearerToken(t, "user-1")

	body := `{"payload":"[{\"category\":\"geo\",\"subcategory\":\"cap\",\"question\":\"Q\",\"correctAnswer\":\"A\"}]"}`

	w := doRequest(router, http.MethodPost, "/api/v1/uploads", token, body)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"uploadId"`)

	w = doRequest(router, http.MethodPost, "/api/v1/uploads", token, body)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "DUPLICATE_UPLOAD")

	// Identical payload from another user is accepted.
	w = doRequest(router, http.MethodPost, "/api/v1/uploads", bearerToken(t, "user-2"), body)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestUploadEndpointRejectsBadPayload(t *testing.T) {
	router := testRouter(t)

	body := `{"payload":"{not json"}`
	w := doRequest(router, http.MethodPost, "/api/v1/uploads", bearerToken(t, "user-1"), body)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_PAYLOAD")
}

func TestImportStatusUnknownJob(t *testing.T) {
	router := testRouter(t)

	w := doRequest(router, http.MethodGet, "/api/v1/imports/unknown-job", bearerToken(t, "user-1"), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

package rest_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feral-file/covenant-witness/internal/adapter"
	"github.com/feral-file/covenant-witness/internal/api/middleware"
	"github.com/feral-file/covenant-witness/internal/api/rest"
	"github.com/feral-file/covenant-witness/internal/domain"
	"github.com/feral-file/covenant-witness/internal/logger"
	"github.com/feral-file/covenant-witness/internal/mocks"
	"github.com/feral-file/covenant-witness/internal/notification"
	"github.com/feral-file/covenant-witness/internal/readiness"
	"github.com/feral-file/covenant-witness/internal/registration"
	"github.com/feral-file/covenant-witness/internal/store"
	"github.com/feral-file/covenant-witness/internal/store/schema"
)

const (
	testIdentifier = "0x52908400098527886e0f7030069857d2e4169ee7"
	adminKey       = "admin-key"
)

var testNow = time.Date(2025, 10, 12, 12, 0, 0, 0, time.UTC)

type testHandlerMocks struct {
	service    *mocks.MockRegistrationService
	dispatcher *mocks.MockDispatcher
	store      *mocks.MockStore
	clock      *mocks.MockClock
	router     *gin.Engine
}

func setupTestHandler(t *testing.T) *testHandlerMocks {
	t.Helper()
	require.NoError(t, logger.Initialize(logger.Config{Debug: true}))
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	tm := &testHandlerMocks{
		service:    mocks.NewMockRegistrationService(ctrl),
		dispatcher: mocks.NewMockDispatcher(ctrl),
		store:      mocks.NewMockStore(ctrl),
		clock:      mocks.NewMockClock(ctrl),
		router:     gin.New(),
	}
	tm.clock.EXPECT().Now().Return(testNow).AnyTimes()

	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{APIKeys: []string{adminKey}})
	require.NoError(t, err)

	handler := rest.NewHandler(tm.service, tm.dispatcher, tm.store, tm.clock)
	rest.SetupRoutes(tm.router, handler, auth, nil)
	return tm
}

func (tm *testHandlerMocks) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	tm.router.ServeHTTP(rec, req)
	return rec
}

func testWitness(seq uint64) *schema.Witness {
	contact := "witness@example.com"
	blockRef := uint64(21000000)
	w := &schema.Witness{
		ID:             seq,
		Identifier:     testIdentifier,
		Contact:        &contact,
		ProofHash:      "0xproof",
		BlockRef:       &blockRef,
		SignedAt:       time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC),
		SequenceNumber: seq,
		Status:         domain.WitnessStatusActive,
		CreatedAt:      testNow,
		UpdatedAt:      testNow,
	}
	w.SetPreferences(domain.DefaultNotificationPreferences())
	return w
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRegisterWitness(t *testing.T) {
	tm := setupTestHandler(t)

	signedAt := time.Date(2025, 10, 1, 12, 0, 0, 0, time.UTC)
	tm.service.EXPECT().
		Register(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, input registration.RegisterInput) (*schema.Witness, error) {
			assert.Equal(t, testIdentifier, input.Identifier)
			require.NotNil(t, input.Contact)
			assert.Equal(t, "witness@example.com", *input.Contact)
			assert.Equal(t, "0xproof", input.ProofHash)
			require.NotNil(t, input.SignedAt)
			assert.True(t, signedAt.Equal(*input.SignedAt))
			require.NotNil(t, input.Preferences)
			assert.False(t, input.Preferences.Countdown)
			assert.True(t, input.Preferences.Welcome)
			return testWitness(7), nil
		})

	rec := tm.do(http.MethodPost, "/witnesses", `{
		"identifier": "`+testIdentifier+`",
		"contact": "witness@example.com",
		"proofHash": "0xproof",
		"signedAt": "2025-10-01T12:00:00Z",
		"notificationPreferences": {"countdown": false}
	}`)

	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	witness := body["witness"].(map[string]any)
	assert.Equal(t, float64(7), witness["sequenceNumber"])
	assert.Equal(t, testIdentifier, witness["identifier"])
	assert.Equal(t, "witness@example.com", witness["contact"])
}

func TestRegisterWitness_SignedAtMillis(t *testing.T) {
	tm := setupTestHandler(t)

	tm.service.EXPECT().
		Register(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ any, input registration.RegisterInput) (*schema.Witness, error) {
			require.NotNil(t, input.SignedAt)
			assert.Equal(t, int64(1759320000000), input.SignedAt.UnixMilli())
			assert.Nil(t, input.Preferences)
			return testWitness(1), nil
		})

	rec := tm.do(http.MethodPost, "/witnesses",
		`{"identifier":"`+testIdentifier+`","proofHash":"0xproof","signedAt":1759320000000}`)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestRegisterWitness_Errors(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantError  string
		wantFields []any
	}{
		{
			name:       "missing fields",
			err:        &domain.MissingFieldError{Fields: []string{"identifier", "signedAt"}},
			wantStatus: http.StatusBadRequest,
			wantError:  "MissingFieldError",
			wantFields: []any{"identifier", "signedAt"},
		},
		{
			name:       "invalid identifier",
			err:        &domain.InvalidIdentifierError{Identifier: "0x123"},
			wantStatus: http.StatusBadRequest,
			wantError:  "InvalidIdentifierError",
			wantFields: []any{"identifier"},
		},
		{
			name:       "invalid contact",
			err:        &domain.InvalidContactError{Contact: "nope", Err: errors.New("no address")},
			wantStatus: http.StatusBadRequest,
			wantError:  "InvalidContactError",
			wantFields: []any{"contact"},
		},
		{
			name:       "duplicate",
			err:        domain.ErrDuplicateWitness,
			wantStatus: http.StatusConflict,
			wantError:  "DuplicateWitnessError",
		},
		{
			name:       "capacity",
			err:        domain.ErrCapacityReached,
			wantStatus: http.StatusConflict,
			wantError:  "CapacityReachedError",
		},
		{
			name:       "allocation exhausted",
			err:        &domain.AllocationError{Attempts: 5, Err: domain.ErrAllocationConflict},
			wantStatus: http.StatusInternalServerError,
			wantError:  "AllocationError",
		},
		{
			name:       "unexpected",
			err:        errors.New("boom"),
			wantStatus: http.StatusInternalServerError,
			wantError:  "InternalError",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestHandler(t)
			tm.service.EXPECT().Register(gomock.Any(), gomock.Any()).Return(nil, tt.err)

			rec := tm.do(http.MethodPost, "/witnesses", `{"identifier":"x"}`)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, tt.wantError, body["error"])
			if tt.wantFields != nil {
				assert.Equal(t, tt.wantFields, body["fields"])
			} else {
				assert.NotContains(t, body, "fields")
			}
		})
	}
}

func TestRegisterWitness_MalformedBody(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "not json", body: `identifier=0x1`},
		{name: "bad signedAt", body: `{"signedAt":"yesterday"}`},
		{name: "blockRef not a number", body: `{"blockRef":"abc"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestHandler(t)

			rec := tm.do(http.MethodPost, "/witnesses", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "InvalidRequestError", decode(t, rec)["error"])
		})
	}
}

func TestListWitnesses(t *testing.T) {
	tm := setupTestHandler(t)

	tm.service.EXPECT().List(gomock.Any(), 2, 1).Return([]schema.Witness{*testWitness(2), *testWitness(3)}, nil)
	tm.service.EXPECT().Stats(gomock.Any(), testNow).Return(&readiness.Readiness{
		ActiveCount:      3,
		TargetCount:      100,
		PercentComplete:  3,
		DaysRemaining:    7,
		RawDaysRemaining: 7,
		Tier:             readiness.TierCritical,
		Urgent:           true,
	}, nil)

	rec := tm.do(http.MethodGet, "/witnesses?includeStats=true&limit=2&offset=1", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "witness@example.com")
	assert.NotContains(t, rec.Body.String(), "rawDaysRemaining")

	body := decode(t, rec)
	witnesses := body["witnesses"].([]any)
	require.Len(t, witnesses, 2)
	assert.Equal(t, float64(2), witnesses[0].(map[string]any)["sequenceNumber"])
	assert.Equal(t, map[string]any{
		"totalWitnesses":  float64(3),
		"targetWitnesses": float64(100),
		"percentComplete": float64(3),
		"daysRemaining":   float64(7),
		"tier":            "CRITICAL",
		"urgent":          true,
	}, body["stats"])
}

func TestListWitnesses_Pagination(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
		wantStatus int
	}{
		{name: "defaults", query: "", wantLimit: 50, wantOffset: 0, wantStatus: http.StatusOK},
		{name: "clamped", query: "?limit=100000", wantLimit: 200, wantOffset: 0, wantStatus: http.StatusOK},
		{name: "zero limit", query: "?limit=0", wantStatus: http.StatusBadRequest},
		{name: "negative offset", query: "?offset=-1", wantStatus: http.StatusBadRequest},
		{name: "non-numeric limit", query: "?limit=ten", wantStatus: http.StatusBadRequest},
		{name: "bad includeStats", query: "?includeStats=maybe", wantStatus: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestHandler(t)
			if tt.wantStatus == http.StatusOK {
				tm.service.EXPECT().List(gomock.Any(), tt.wantLimit, tt.wantOffset).Return(nil, nil)
			}

			rec := tm.do(http.MethodGet, "/witnesses"+tt.query, "")

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.JSONEq(t, `{"witnesses":[]}`, rec.Body.String())
			}
		})
	}
}

func TestGetWitness(t *testing.T) {
	tm := setupTestHandler(t)

	tm.service.EXPECT().Get(gomock.Any(), testIdentifier).Return(testWitness(4), nil)
	tm.service.EXPECT().Get(gomock.Any(), "0x0000000000000000000000000000000000000001").Return(nil, domain.ErrWitnessNotFound)

	rec := tm.do(http.MethodGet, "/witnesses/"+testIdentifier, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "contact")
	assert.Equal(t, float64(4), decode(t, rec)["witness"].(map[string]any)["sequenceNumber"])

	rec = tm.do(http.MethodGet, "/witnesses/0x0000000000000000000000000000000000000001", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "WitnessNotFoundError", decode(t, rec)["error"])
}

func TestGetStats(t *testing.T) {
	tm := setupTestHandler(t)

	tm.service.EXPECT().Stats(gomock.Any(), testNow).Return(&readiness.Readiness{
		ActiveCount:     90,
		TargetCount:     100,
		PercentComplete: 90,
		DaysRemaining:   0,
		Tier:            readiness.TierReady,
	}, nil)

	rec := tm.do(http.MethodGet, "/stats", "")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{
		"totalWitnesses": 90,
		"targetWitnesses": 100,
		"percentComplete": 90,
		"daysRemaining": 0,
		"tier": "READY",
		"urgent": false
	}`, rec.Body.String())
}

func TestSendNotification(t *testing.T) {
	deadline := time.Date(2025, 10, 18, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name       string
		body       string
		wantIntent notification.Intent
		result     *notification.Result
		dispatch   error
		wantBody   string
	}{
		{
			name:       "welcome sent",
			body:       `{"type":"welcome","identifier":"0x52908400098527886E0F7030069857D2E4169EE7"}`,
			wantIntent: notification.WelcomeIntent{Identifier: testIdentifier},
			result: &notification.Result{
				Kind: domain.NotificationKindWelcome, Status: notification.StatusSent,
				EventID: "01J0000000000000000000000", IdempotencyKey: "welcome:" + testIdentifier, Recipients: 1,
			},
			wantBody: `{"success":true,"kind":"welcome","status":"sent","eventId":"01J0000000000000000000000",
				"idempotencyKey":"welcome:` + testIdentifier + `","recipients":1}`,
		},
		{
			name:       "welcome already sent",
			body:       `{"type":"welcome","identifier":"` + testIdentifier + `"}`,
			wantIntent: notification.WelcomeIntent{Identifier: testIdentifier},
			result: &notification.Result{
				Kind: domain.NotificationKindWelcome, Status: notification.StatusAlreadySent,
				IdempotencyKey: "welcome:" + testIdentifier,
			},
			wantBody: `{"success":true,"kind":"welcome","status":"already_sent",
				"idempotencyKey":"welcome:` + testIdentifier + `","recipients":0}`,
		},
		{
			name:       "milestone transport failure",
			body:       `{"type":"milestone","threshold":25,"population":25}`,
			wantIntent: notification.MilestoneIntent{Threshold: 25, Population: 25},
			result: &notification.Result{
				Kind: domain.NotificationKindMilestone, Status: notification.StatusFailed,
				Recipients: 10, Error: "failed to deliver milestone notification: relay down",
			},
			wantBody: `{"success":false,"error":"failed to deliver milestone notification: relay down",
				"kind":"milestone","status":"failed","recipients":10}`,
		},
		{
			name: "emergency with deadline",
			body: `{"type":"emergency","urgency":"critical","message":"Sign now","deadline":"2025-10-18T00:00:00Z"}`,
			wantIntent: notification.EmergencyIntent{
				Urgency: domain.Urgency("critical"), Message: "Sign now", Deadline: &deadline,
			},
			result:   &notification.Result{Kind: domain.NotificationKindEmergency, Status: notification.StatusSent, Recipients: 3},
			wantBody: `{"success":true,"kind":"emergency","status":"sent","recipients":3}`,
		},
		{
			name:       "launch countdown",
			body:       `{"type":"launch_countdown","force":true}`,
			wantIntent: notification.CountdownIntent{Force: true},
			result:     &notification.Result{Kind: domain.NotificationKindCountdown, Status: notification.StatusSent, Recipients: 2},
			wantBody:   `{"success":true,"kind":"countdown","status":"sent","recipients":2}`,
		},
		{
			name: "batch test",
			body: `{"type":"batch_test","recipients":["a@example.com","b@example.com"],"simulate":"launch_countdown"}`,
			wantIntent: notification.BatchTestIntent{
				Recipients: []string{"a@example.com", "b@example.com"}, Simulate: domain.NotificationKindCountdown,
			},
			result: &notification.Result{
				Kind: domain.NotificationKindBatchTest, Status: notification.StatusSent,
				Recipients: 2, Total: 2, Sent: 2,
			},
			wantBody: `{"success":true,"kind":"batch_test","status":"sent","recipients":2,"total":2,"sent":2}`,
		},
		{
			name:       "unknown witness",
			body:       `{"type":"welcome","identifier":"` + testIdentifier + `"}`,
			wantIntent: notification.WelcomeIntent{Identifier: testIdentifier},
			dispatch:   domain.ErrWitnessNotFound,
			wantBody:   `{"success":false,"error":"witness not found","kind":"welcome","recipients":0}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestHandler(t)
			tm.dispatcher.EXPECT().Dispatch(gomock.Any(), tt.wantIntent).Return(tt.result, tt.dispatch)

			rec := tm.do(http.MethodPost, "/notifications", tt.body)

			assert.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
		})
	}
}

func TestSendNotification_InvalidRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"type":`},
		{name: "missing type", body: `{}`},
		{name: "unknown type", body: `{"type":"carrier_pigeon"}`},
		{name: "welcome without identifier", body: `{"type":"welcome"}`},
		{name: "welcome with bad identifier", body: `{"type":"welcome","identifier":"0x12"}`},
		{name: "milestone without threshold", body: `{"type":"milestone"}`},
		{name: "emergency without message", body: `{"type":"emergency","urgency":"high"}`},
		{name: "emergency with unknown urgency", body: `{"type":"emergency","urgency":"meh","message":"x"}`},
		{name: "batch test without recipients", body: `{"type":"batch_test"}`},
		{name: "batch test simulating itself", body: `{"type":"batch_test","recipients":["a@example.com"],"simulate":"batch_test"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tm := setupTestHandler(t)

			rec := tm.do(http.MethodPost, "/notifications", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Equal(t, "InvalidRequestError", decode(t, rec)["error"])
		})
	}
}

func TestSendNotification_MilestoneMustHaveFired(t *testing.T) {
	require.NoError(t, logger.Initialize(logger.Config{Debug: true}))
	gin.SetMode(gin.TestMode)

	ctrl := gomock.NewController(t)
	clock := mocks.NewMockClock(ctrl)
	clock.EXPECT().Now().Return(testNow).AnyTimes()
	sender := mocks.NewMockSender(ctrl)
	sender.EXPECT().Name().Return("mock").AnyTimes()

	st := store.NewMemoryStore(clock)
	contact := "witness@example.com"
	_, err := st.TryAccept(context.Background(), store.AcceptInput{
		Identifier:  testIdentifier,
		Contact:     &contact,
		ProofHash:   "0xproof",
		SignedAt:    testNow,
		Preferences: domain.DefaultNotificationPreferences(),
	})
	require.NoError(t, err)

	dispatcher := notification.NewDispatcher(context.Background(), notification.Config{Target: 100}, st, sender, clock, adapter.NewJSON(), nil)
	defer dispatcher.Close()

	auth, err := middleware.NewAuthenticator(middleware.AuthConfig{APIKeys: []string{adminKey}})
	require.NoError(t, err)
	router := gin.New()
	rest.SetupRoutes(router, rest.NewHandler(mocks.NewMockRegistrationService(ctrl), dispatcher, st, clock), auth, nil)

	post := func(body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(http.MethodPost, "/notifications", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	// Nothing is sent for a threshold the population has not crossed
	rec := post(`{"type":"milestone","threshold":10,"population":1}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "InvalidRequestError", decode(t, rec)["error"])

	_, err = st.RecordMilestones(context.Background(), store.RecordMilestonesInput{Thresholds: []int{10}, Population: 10, FiredAt: testNow})
	require.NoError(t, err)
	sender.EXPECT().Send(gomock.Any(), gomock.Any()).Return(nil).Times(1)

	rec = post(`{"type":"milestone","threshold":10,"population":1}`)
	assert.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, "sent", body["status"])
}

func TestRevokeWitness(t *testing.T) {
	t.Run("requires authentication", func(t *testing.T) {
		tm := setupTestHandler(t)

		rec := tm.do(http.MethodPost, "/admin/witnesses/"+testIdentifier+"/revoke", `{"reason":"spam"}`)

		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("revoked", func(t *testing.T) {
		tm := setupTestHandler(t)

		revoked := testWitness(5)
		revoked.Status = domain.WitnessStatusRevoked
		reason := "duplicate person"
		revoked.RevocationReason = &reason
		revokedAt := testNow
		revoked.RevokedAt = &revokedAt
		tm.service.EXPECT().Revoke(gomock.Any(), testIdentifier, "duplicate person").Return(revoked, nil)

		rec := tm.do(http.MethodPost, "/admin/witnesses/"+testIdentifier+"/revoke",
			`{"reason":"duplicate person"}`, "Authorization", "ApiKey "+adminKey)

		require.Equal(t, http.StatusOK, rec.Code)
		body := decode(t, rec)
		assert.Equal(t, "duplicate person", body["revocationReason"])
		assert.Equal(t, "revoked", body["witness"].(map[string]any)["status"])
		assert.Equal(t, float64(5), body["witness"].(map[string]any)["sequenceNumber"])
	})

	t.Run("empty body", func(t *testing.T) {
		tm := setupTestHandler(t)

		revoked := testWitness(5)
		revoked.Status = domain.WitnessStatusRevoked
		tm.service.EXPECT().Revoke(gomock.Any(), testIdentifier, "").Return(revoked, nil)

		rec := tm.do(http.MethodPost, "/admin/witnesses/"+testIdentifier+"/revoke", "",
			"Authorization", "ApiKey "+adminKey)

		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("already revoked", func(t *testing.T) {
		tm := setupTestHandler(t)
		tm.service.EXPECT().Revoke(gomock.Any(), testIdentifier, "").Return(nil, domain.ErrWitnessAlreadyRevoked)

		rec := tm.do(http.MethodPost, "/admin/witnesses/"+testIdentifier+"/revoke", `{}`,
			"Authorization", "ApiKey "+adminKey)

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "WitnessAlreadyRevokedError", decode(t, rec)["error"])
	})

	t.Run("reason too long", func(t *testing.T) {
		tm := setupTestHandler(t)

		body, err := json.Marshal(map[string]string{"reason": string(bytes.Repeat([]byte("x"), 513))})
		require.NoError(t, err)
		rec := tm.do(http.MethodPost, "/admin/witnesses/"+testIdentifier+"/revoke", string(body),
			"Authorization", "ApiKey "+adminKey)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, []any{"reason"}, decode(t, rec)["fields"])
	})
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		tm := setupTestHandler(t)
		tm.store.EXPECT().Ping(gomock.Any()).Return(nil)

		rec := tm.do(http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "healthy", decode(t, rec)["status"])
	})

	t.Run("store unreachable", func(t *testing.T) {
		tm := setupTestHandler(t)
		tm.store.EXPECT().Ping(gomock.Any()).Return(errors.New("connection refused"))

		rec := tm.do(http.MethodGet, "/health", "")

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "unhealthy", decode(t, rec)["status"])
	})
}

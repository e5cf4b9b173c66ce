package tests

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/routepulse/server/internal/auth"
	"github.com/routepulse/server/internal/challenge"
	"github.com/routepulse/server/internal/config"
	"github.com/routepulse/server/internal/db"
	httphandler "github.com/routepulse/server/internal/http"
	"github.com/routepulse/server/internal/http/handlers"
	"github.com/routepulse/server/internal/model"
	"github.com/routepulse/server/internal/repo"
	_ "github.com/lib/pq"
)

func TestMain(m *testing.M) {
	// Do NOT set DATABASE_URL; integration tests skip if missing.
	if os.Getenv("JWT_SECRET") == "" {
		os.Setenv("JWT_SECRET", "test-jwt-secret-at-least-32-characters-long")
	}
	os.Exit(m.Run())
}

// testServer holds the server and DB for integration tests
type testServer struct {
	Server *httptest.Server
	DB     *sql.DB
	Tokens *auth.TokenService
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	if os.Getenv("DATABASE_URL") == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	cfg, err := config.Load()
	require.NoError(t, err, "config load must succeed for integration test")

	ctx := context.Background()
	database, err := db.Open(ctx, cfg.DatabaseURL)
	require.NoError(t, err, "database open must succeed; check DATABASE_URL and that the test DB exists")
	t.Cleanup(func() { database.Close() })

	require.NoError(t, RunMigrations(database), "migrations must run successfully")
	require.NoError(t, TruncateAll(ctx, database))

	logger := zap.NewNop()

	userRepo := repo.NewUserRepo(database)
	routeRepo := repo.NewRouteRepo(database)
	scoreRepo := repo.NewScoreRepo(database)
	challengeRepo := repo.NewChallengeRepo(database)

	tokenService := auth.NewTokenService(cfg.JWTSecret)
	authService := auth.NewService(userRepo, tokenService, logger)
	engine := challenge.NewEngine(challengeRepo, logger)

	h := httphandler.Handlers{
		Auth:        handlers.NewAuthHandler(authService, logger),
		Users:       handlers.NewUserHandler(userRepo, logger),
		Posts:       handlers.NewPostHandler(repo.NewPostRepo(database), logger),
		Routes:      handlers.NewRouteHandler(routeRepo, scoreRepo, logger),
		Challenges:  handlers.NewChallengeHandler(engine, logger),
		Leaderboard: handlers.NewLeaderboardHandler(repo.NewLeaderboardRepo(database), logger),
		Friends:     handlers.NewFriendHandler(repo.NewFriendshipRepo(database), userRepo, logger),
		SensorData:  handlers.NewSensorDataHandler(repo.NewSensorDataRepo(database), scoreRepo, logger),
	}

	server := httptest.NewServer(httphandler.NewRouter(h, tokenService, logger))
	t.Cleanup(server.Close)

	return &testServer{Server: server, DB: database, Tokens: tokenService}
}

// doJSON performs a request with an optional bearer token and decodes the
// JSON response into out (when out is non-nil).
func (ts *testServer) doJSON(t *testing.T, method, path, token string, body any, out any) int {
	t.Helper()

	var reqBody *bytes.Buffer = bytes.NewBuffer(nil)
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reqBody = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest(method, ts.Server.URL+path, reqBody)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := ts.Server.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	if out != nil {
		_ = json.NewDecoder(resp.Body).Decode(out)
	}
	return resp.StatusCode
}

// registerAndLogin creates a user and returns its model plus a fresh token.
func (ts *testServer) registerAndLogin(t *testing.T, username string) (model.User, string) {
	t.Helper()

	email := fmt.Sprintf("%s@example.com", username)
	status := ts.doJSON(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": username,
		"email":    email,
		"password": "SecurePass123!",
	}, nil)
	require.Equal(t, http.StatusOK, status, "registration should succeed")

	var login struct {
		Token string     `json:"token"`
		User  model.User `json:"user"`
	}
	status = ts.doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": "SecurePass123!",
	}, &login)
	require.Equal(t, http.StatusOK, status, "login should succeed")
	require.NotEmpty(t, login.Token)

	return login.User, login.Token
}

func (ts *testServer) createRoute(t *testing.T, token, name string) model.Route {
	t.Helper()

	var route model.Route
	status := ts.doJSON(t, http.MethodPost, "/routes", token, map[string]any{
		"name":      name,
		"is_public": true,
		"path_data": map[string]any{"type": "LineString", "coordinates": [][]float64{{0, 0}, {1, 1}}},
	}, &route)
	require.Equal(t, http.StatusOK, status)
	return route
}

func (ts *testServer) submitScore(t *testing.T, token string, route model.Route, seconds float64, maxSpeed *float64) model.Score {
	t.Helper()

	var score model.Score
	status := ts.doJSON(t, http.MethodPost, "/routes/"+route.ID.String()+"/score", token, map[string]any{
		"time_seconds":  seconds,
		"max_speed_kmh": maxSpeed,
	}, &score)
	require.Equal(t, http.StatusOK, status)
	return score
}

func TestRegisterLoginFlow(t *testing.T) {
	ts := newTestServer(t)

	user, token := ts.registerAndLogin(t, "alice")

	// the minted token verifies and carries the registered user's id
	claims, err := ts.Tokens.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// wrong password is rejected
	status := ts.doJSON(t, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    "alice@example.com",
		"password": "wrong",
	}, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// duplicate username/email conflicts
	status = ts.doJSON(t, http.MethodPost, "/auth/register", "", map[string]string{
		"username": "alice",
		"email":    "alice@example.com",
		"password": "whatever",
	}, nil)
	assert.Equal(t, http.StatusConflict, status)
}

func TestProtectedRoutesRequireToken(t *testing.T) {
	ts := newTestServer(t)

	status := ts.doJSON(t, http.MethodGet, "/routes", "", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	status = ts.doJSON(t, http.MethodGet, "/challenges/available", "garbage-token", nil, nil)
	assert.Equal(t, http.StatusUnauthorized, status)

	// the public route listing stays reachable without a token
	status = ts.doJSON(t, http.MethodGet, "/routes/public", "", nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestRouteOwnership(t *testing.T) {
	ts := newTestServer(t)

	_, aliceToken := ts.registerAndLogin(t, "alice")
	_, bobToken := ts.registerAndLogin(t, "bob")

	route := ts.createRoute(t, aliceToken, "Loop")

	// a foreign caller may not mutate the route
	status := ts.doJSON(t, http.MethodPut, "/routes/"+route.ID.String(), bobToken,
		map[string]any{"name": "Hijacked"}, nil)
	assert.Equal(t, http.StatusForbidden, status)

	status = ts.doJSON(t, http.MethodDelete, "/routes/"+route.ID.String(), bobToken, nil, nil)
	assert.Equal(t, http.StatusForbidden, status)

	// the owner may, and omitted fields keep their stored values
	var updated model.Route
	status = ts.doJSON(t, http.MethodPut, "/routes/"+route.ID.String(), aliceToken,
		map[string]any{"description": "around the lake"}, &updated)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Loop", updated.Name)
	require.NotNil(t, updated.Description)
	assert.Equal(t, "around the lake", *updated.Description)

	// unknown id yields 404 even to its would-be owner
	status = ts.doJSON(t, http.MethodPut, "/routes/00000000-0000-0000-0000-000000000001", aliceToken,
		map[string]any{"name": "Ghost"}, nil)
	assert.Equal(t, http.StatusNotFound, status)

	status = ts.doJSON(t, http.MethodDelete, "/routes/"+route.ID.String(), aliceToken, nil, nil)
	assert.Equal(t, http.StatusOK, status)
}

func TestChallengeLifecycle(t *testing.T) {
	ts := newTestServer(t)

	alice, aliceToken := ts.registerAndLogin(t, "alice")
	_, bobToken := ts.registerAndLogin(t, "bob")

	route := ts.createRoute(t, aliceToken, "Sprint")

	// open challenge: no designated opponent
	var ch model.Challenge
	status := ts.doJSON(t, http.MethodPost, "/challenges", aliceToken, map[string]any{
		"route_id": route.ID,
	}, &ch)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.ChallengeStatusPending, ch.Status)
	assert.Nil(t, ch.ChallengedID)

	// it shows up in the open-challenge inbox
	var available []model.Challenge
	status = ts.doJSON(t, http.MethodGet, "/challenges/available", bobToken, nil, &available)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, available, 1)
	assert.Equal(t, ch.ID, available[0].ID)

	// accept flips pending -> active
	var accepted model.Challenge
	status = ts.doJSON(t, http.MethodPost, "/challenges/"+ch.ID.String()+"/accept", bobToken, nil, &accepted)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.ChallengeStatusActive, accepted.Status)

	// re-accepting an active challenge reports not-found and changes nothing
	status = ts.doJSON(t, http.MethodPost, "/challenges/"+ch.ID.String()+"/accept", bobToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)

	var stored model.Challenge
	status = ts.doJSON(t, http.MethodGet, "/challenges/"+ch.ID.String(), bobToken, nil, &stored)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.ChallengeStatusActive, stored.Status)

	// times without a status update the winner but not the completion timestamp
	var partial model.Challenge
	status = ts.doJSON(t, http.MethodPost, "/challenges/"+ch.ID.String()+"/complete", aliceToken,
		map[string]any{"challenger_time": 10.0, "challenged_time": 12.0}, &partial)
	require.Equal(t, http.StatusOK, status)
	require.NotNil(t, partial.WinnerID)
	assert.Equal(t, alice.ID, *partial.WinnerID)
	assert.Nil(t, partial.CompletedAt)
	assert.Equal(t, model.ChallengeStatusActive, partial.Status)

	// completing stamps the timestamp
	var completed model.Challenge
	status = ts.doJSON(t, http.MethodPost, "/challenges/"+ch.ID.String()+"/complete", aliceToken,
		map[string]any{"status": "completed", "challenger_time": 10.0, "challenged_time": 12.0}, &completed)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.ChallengeStatusCompleted, completed.Status)
	require.NotNil(t, completed.WinnerID)
	assert.Equal(t, alice.ID, *completed.WinnerID)
	assert.NotNil(t, completed.CompletedAt)

	// unknown challenge id
	status = ts.doJSON(t, http.MethodPost, "/challenges/00000000-0000-0000-0000-000000000001/complete",
		aliceToken, map[string]any{"status": "completed"}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestChallengeWinnerNullWithMissingTime(t *testing.T) {
	ts := newTestServer(t)

	_, aliceToken := ts.registerAndLogin(t, "alice")
	route := ts.createRoute(t, aliceToken, "Hill")

	var ch model.Challenge
	status := ts.doJSON(t, http.MethodPost, "/challenges", aliceToken, map[string]any{
		"route_id": route.ID,
	}, &ch)
	require.Equal(t, http.StatusOK, status)

	var completed model.Challenge
	status = ts.doJSON(t, http.MethodPost, "/challenges/"+ch.ID.String()+"/complete", aliceToken,
		map[string]any{"status": "completed", "challenger_time": 10.0}, &completed)
	require.Equal(t, http.StatusOK, status)
	assert.Nil(t, completed.WinnerID, "winner stays null when either time is missing")
	assert.NotNil(t, completed.CompletedAt)
}

func TestRouteLeaderboardBestPerUser(t *testing.T) {
	ts := newTestServer(t)

	alice, aliceToken := ts.registerAndLogin(t, "alice")
	bob, bobToken := ts.registerAndLogin(t, "bob")

	route := ts.createRoute(t, aliceToken, "Loop")

	// alice's slower repeat attempts must never appear alongside her best
	for _, seconds := range []float64{20, 15, 18} {
		ts.submitScore(t, aliceToken, route, seconds, nil)
	}
	ts.submitScore(t, bobToken, route, 16, nil)

	var entries []model.LeaderboardEntry
	status := ts.doJSON(t, http.MethodGet, "/leaderboard/route/"+route.ID.String(), aliceToken, nil, &entries)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, entries, 2)

	assert.Equal(t, alice.ID, entries[0].UserID)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, 15.0, entries[0].TimeSeconds)
	assert.Equal(t, bob.ID, entries[1].UserID)
	assert.Equal(t, 16.0, entries[1].TimeSeconds)
}

func TestGlobalSpeedLeaderboard(t *testing.T) {
	ts := newTestServer(t)

	_, aliceToken := ts.registerAndLogin(t, "alice")
	bob, bobToken := ts.registerAndLogin(t, "bob")

	route := ts.createRoute(t, aliceToken, "Flat")

	fast, faster := 42.0, 55.0
	ts.submitScore(t, bobToken, route, 30, &fast)
	ts.submitScore(t, bobToken, route, 31, &faster)
	// a score without a speed never qualifies
	ts.submitScore(t, aliceToken, route, 29, nil)

	var entries []model.LeaderboardEntry
	status := ts.doJSON(t, http.MethodGet, "/leaderboard/global/speed", aliceToken, nil, &entries)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, entries, 1)
	assert.Equal(t, bob.ID, entries[0].UserID)
	require.NotNil(t, entries[0].MaxSpeedKmh)
	assert.Equal(t, 55.0, *entries[0].MaxSpeedKmh)
}

func TestEndToEndScenario(t *testing.T) {
	ts := newTestServer(t)

	_, token := ts.registerAndLogin(t, "alice")
	route := ts.createRoute(t, token, "Loop")
	ts.submitScore(t, token, route, 100, nil)

	var entries []model.LeaderboardEntry
	status := ts.doJSON(t, http.MethodGet, "/leaderboard/route/"+route.ID.String(), token, nil, &entries)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, entries, 1)
	assert.Equal(t, "alice", entries[0].Username)
	assert.Equal(t, 100.0, entries[0].TimeSeconds)
}

func TestBulkSensorDataAtomicity(t *testing.T) {
	ts := newTestServer(t)

	_, token := ts.registerAndLogin(t, "alice")
	route := ts.createRoute(t, token, "Loop")
	score := ts.submitScore(t, token, route, 100, nil)

	countFor := func() int {
		var n int
		err := ts.DB.QueryRow(`SELECT COUNT(*) FROM sensor_data WHERE score_id = $1`, score.ID).Scan(&n)
		require.NoError(t, err)
		return n
	}

	// row 2 violates the offset constraint; the whole batch must roll back
	status := ts.doJSON(t, http.MethodPost, "/sensor-data/bulk", token, map[string]any{
		"score_id": score.ID,
		"data": []map[string]any{
			{"timestamp_offset_ms": 0, "speed_kmh": 10.0},
			{"timestamp_offset_ms": -100, "speed_kmh": 11.0},
			{"timestamp_offset_ms": 200, "speed_kmh": 12.0},
		},
	}, nil)
	assert.Equal(t, http.StatusInternalServerError, status)
	assert.Equal(t, 0, countFor(), "no rows may survive a failed batch")

	// a clean batch persists every row
	var resp struct {
		InsertedCount int `json:"inserted_count"`
	}
	status = ts.doJSON(t, http.MethodPost, "/sensor-data/bulk", token, map[string]any{
		"score_id": score.ID,
		"data": []map[string]any{
			{"timestamp_offset_ms": 0, "speed_kmh": 10.0},
			{"timestamp_offset_ms": 100, "speed_kmh": 11.0},
			{"timestamp_offset_ms": 200, "speed_kmh": 12.0},
		},
	}, &resp)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, 3, resp.InsertedCount)
	assert.Equal(t, 3, countFor())

	// unknown parent score
	status = ts.doJSON(t, http.MethodPost, "/sensor-data/bulk", token, map[string]any{
		"score_id": "00000000-0000-0000-0000-000000000001",
		"data":     []map[string]any{{"timestamp_offset_ms": 0}},
	}, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

func TestFriendshipFlow(t *testing.T) {
	ts := newTestServer(t)

	_, aliceToken := ts.registerAndLogin(t, "alice")
	bob, bobToken := ts.registerAndLogin(t, "bob")

	// alice -> bob request
	var friendship model.Friendship
	status := ts.doJSON(t, http.MethodPost, "/friends/add/"+bob.ID.String(), aliceToken, nil, &friendship)
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, model.FriendshipStatusPending, friendship.Status)

	// bob sees the pending request
	var pending []model.FriendInfo
	status = ts.doJSON(t, http.MethodGet, "/friends/pending", bobToken, nil, &pending)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, pending, 1)
	assert.Equal(t, "alice", pending[0].Username)

	// accepting flips only alice's edge
	status = ts.doJSON(t, http.MethodPut, "/friends/accept/"+friendship.ID.String(), bobToken, nil, nil)
	require.Equal(t, http.StatusOK, status)

	var aliceFriends []model.FriendInfo
	status = ts.doJSON(t, http.MethodGet, "/friends", aliceToken, nil, &aliceFriends)
	require.Equal(t, http.StatusOK, status)
	require.Len(t, aliceFriends, 1)
	assert.Equal(t, "bob", aliceFriends[0].Username)

	// reciprocity is not automatic
	var bobFriends []model.FriendInfo
	status = ts.doJSON(t, http.MethodGet, "/friends", bobToken, nil, &bobFriends)
	require.Equal(t, http.StatusOK, status)
	assert.Empty(t, bobFriends)

	// unknown friend target
	status = ts.doJSON(t, http.MethodPost, "/friends/add/00000000-0000-0000-0000-000000000001", aliceToken, nil, nil)
	assert.Equal(t, http.StatusNotFound, status)
}

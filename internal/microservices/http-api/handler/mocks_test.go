package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"yamdb/internal/authz"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/throttle"
)

// MockAuthService mocks the AuthService interface
type MockAuthService struct {
	mock.Mock
}

func (m *MockAuthService) Signup(ctx context.Context, req dto.SignupRequest) (*models.User, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *MockAuthService) ExchangeToken(ctx context.Context, req dto.TokenRequest) (string, error) {
	args := m.Called(ctx, req)
	return args.String(0), args.Error(1)
}

func (m *MockAuthService) Authenticate(ctx context.Context, token string) (*models.User, error) {
	args := m.Called(ctx, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

// MockTaxonomyService mocks the TaxonomyService interface
type MockTaxonomyService struct {
	mock.Mock
}

func (m *MockTaxonomyService) List(ctx context.Context, q dto.TaxonomyListQuery) (dto.Paginated[dto.TaxonomyResponse], error) {
	args := m.Called(ctx, q)
	return args.Get(0).(dto.Paginated[dto.TaxonomyResponse]), args.Error(1)
}

func (m *MockTaxonomyService) Create(ctx context.Context, req dto.CreateTaxonomyRequest) (*dto.TaxonomyResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.TaxonomyResponse), args.Error(1)
}

func (m *MockTaxonomyService) Delete(ctx context.Context, slug string) error {
	args := m.Called(ctx, slug)
	return args.Error(0)
}

// MockReviewService mocks the ReviewService interface
type MockReviewService struct {
	mock.Mock
}

func (m *MockReviewService) List(ctx context.Context, titleID int64, q dto.PageQuery) (dto.Paginated[dto.ReviewResponse], error) {
	args := m.Called(ctx, titleID, q)
	return args.Get(0).(dto.Paginated[dto.ReviewResponse]), args.Error(1)
}

func (m *MockReviewService) Get(ctx context.Context, titleID, reviewID int64) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, titleID, reviewID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *MockReviewService) Create(ctx context.Context, actor *models.User, titleID int64, req dto.CreateReviewRequest) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, actor, titleID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *MockReviewService) Update(ctx context.Context, actor *models.User, titleID, reviewID int64, req dto.UpdateReviewRequest) (*dto.ReviewResponse, error) {
	args := m.Called(ctx, actor, titleID, reviewID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*dto.ReviewResponse), args.Error(1)
}

func (m *MockReviewService) Delete(ctx context.Context, actor *models.User, titleID, reviewID int64) error {
	args := m.Called(ctx, actor, titleID, reviewID)
	return args.Error(0)
}

// stubLimiter returns a fixed decision.
type stubLimiter struct {
	decision throttle.Decision
	err      error
}

func (l stubLimiter) Allow(ctx context.Context, key string) (throttle.Decision, error) {
	return l.decision, l.err
}

var allowAll = stubLimiter{decision: throttle.Decision{Allowed: true}}

// --- SETUP ---

var (
	alice = &models.User{ID: "u-alice", Username: "alice", Email: "alice@example.com", Role: models.RoleUser}
	moder = &models.User{ID: "u-mod", Username: "mod", Email: "mod@example.com", Role: models.RoleModerator}
	root  = &models.User{ID: "u-root", Username: "root", Email: "root@example.com", Role: models.RoleAdmin}
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := dto.RegisterGinValidators(); err != nil {
		panic(err)
	}
}

// withTokens makes auth resolve "<username>-token" to the matching fixture
// user and anything else to ErrInvalidToken.
func withTokens(auth *MockAuthService) *MockAuthService {
	for _, u := range []*models.User{alice, moder, root} {
		auth.On("Authenticate", mock.Anything, u.Username+"-token").Return(u, nil).Maybe()
	}
	auth.On("Authenticate", mock.Anything, mock.Anything).Return(nil, service.ErrInvalidToken).Maybe()
	return auth
}

func setupRouter(t *testing.T, svc handler.Services, limiter throttle.Limiter) *gin.Engine {
	t.Helper()
	policy, err := authz.New("")
	require.NoError(t, err)
	if limiter == nil {
		limiter = allowAll
	}
	return handler.NewRouter(svc, policy, limiter, handler.RouterOptions{})
}

// doRequest performs a JSON request with an optional bearer token.
func doRequest(r http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v))
	return v
}

var fixedTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

package handler_test

import (
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"yamdb/internal/authz"
	"yamdb/internal/mailer"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/handler"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
	"yamdb/internal/microservices/http-api/service"
	"yamdb/internal/testutil"
	"yamdb/internal/throttle"
)

// capturedMail records confirmation mails instead of sending them.
type capturedMail struct {
	mu   sync.Mutex
	msgs []mailer.Message
}

func (q *capturedMail) Enqueue(msg mailer.Message) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.msgs = append(q.msgs, msg)
	return nil
}

// codeFor returns the code from the latest mail sent to email.
func (q *capturedMail) codeFor(email string) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	for i := len(q.msgs) - 1; i >= 0; i-- {
		if q.msgs[i].To == email {
			return strings.TrimPrefix(q.msgs[i].Body, "Your access confirmation code: ")
		}
	}
	return ""
}

type APISuite struct {
	suite.Suite
	router *gin.Engine
	mail   *capturedMail
	tokens *service.TokenIssuer
	title  *models.Title
	admin  string
}

func TestAPISuite(t *testing.T) {
	suite.Run(t, new(APISuite))
}

func (s *APISuite) SetupTest() {
	t := s.T()
	db := testutil.OpenDB(t)

	policy, err := authz.New("")
	require.NoError(t, err)

	users := repository.NewUserRepository(db)
	titles := repository.NewTitleRepository(db)
	reviews := repository.NewReviewRepository(db)

	s.mail = &capturedMail{}
	s.tokens = service.NewTokenIssuer("test-secret-test-secret-test-secret", time.Hour)

	svc := handler.Services{
		Auth:       service.NewAuthService(users, s.tokens, s.mail, "admin@yamdb.com"),
		Users:      service.NewUserService(users),
		Categories: service.NewCategoryService(repository.NewCategoryRepository(db)),
		Genres:     service.NewGenreService(repository.NewGenreRepository(db)),
		Titles: service.NewTitleService(titles, repository.NewCategoryRepository(db),
			repository.NewGenreRepository(db), reviews),
		Reviews:  service.NewReviewService(reviews, titles, policy),
		Comments: service.NewCommentService(repository.NewCommentRepository(db), reviews, policy),
	}
	s.router = handler.NewRouter(svc, policy, throttle.NewMemoryLimiter(10, time.Minute), handler.RouterOptions{})

	s.title = testutil.CreateTitle(t, db, "Dune", 1965)
	root := testutil.CreateUser(t, db, "root", models.RoleAdmin)
	s.admin, err = s.tokens.Issue(root)
	require.NoError(t, err)
}

// login runs signup and token exchange and returns the bearer token.
func (s *APISuite) login(username string) string {
	email := username + "@example.com"
	w := doRequest(s.router, http.MethodPost, "/v1/auth/signup/", "", dto.SignupRequest{Username: username, Email: email})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())

	w = doRequest(s.router, http.MethodPost, "/v1/auth/token/", "",
		dto.TokenRequest{Username: username, ConfirmationCode: s.mail.codeFor(email)})
	s.Require().Equal(http.StatusOK, w.Code, w.Body.String())
	return decode[dto.TokenResponse](s.T(), w).Token
}

func (s *APISuite) TestSignupTokenReviewFlow() {
	t := s.T()

	w := doRequest(s.router, http.MethodPost, "/v1/auth/signup/", "", dto.SignupRequest{Username: "alice", Email: "alice@example.com"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.SignupResponse{Username: "alice", Email: "alice@example.com"}, decode[dto.SignupResponse](t, w))

	w = doRequest(s.router, http.MethodPost, "/v1/auth/token/", "", dto.TokenRequest{Username: "alice", ConfirmationCode: "wrong"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	code := s.mail.codeFor("alice@example.com")
	require.NotEmpty(t, code)
	w = doRequest(s.router, http.MethodPost, "/v1/auth/token/", "", dto.TokenRequest{Username: "alice", ConfirmationCode: code})
	require.Equal(t, http.StatusOK, w.Code)
	token := decode[dto.TokenResponse](t, w).Token
	require.NotEmpty(t, token)

	// codes are single use
	w = doRequest(s.router, http.MethodPost, "/v1/auth/token/", "", dto.TokenRequest{Username: "alice", ConfirmationCode: code})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s.router, http.MethodPost, "/v1/titles/1/reviews/", token, dto.CreateReviewRequest{Text: "A classic", Score: 7})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	review := decode[dto.ReviewResponse](t, w)
	assert.Equal(t, "alice", review.Author)
	assert.Equal(t, 7, review.Score)

	w = doRequest(s.router, http.MethodPost, "/v1/titles/1/reviews/", token, dto.CreateReviewRequest{Text: "Again", Score: 3})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s.router, http.MethodGet, "/v1/titles/1/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	title := decode[dto.TitleResponse](t, w)
	require.NotNil(t, title.Rating)
	assert.InDelta(t, 7.0, *title.Rating, 1e-9)
}

func (s *APISuite) TestUnknownUserToken() {
	w := doRequest(s.router, http.MethodPost, "/v1/auth/token/", "", dto.TokenRequest{Username: "ghost", ConfirmationCode: "x"})
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *APISuite) TestSignupConflicts() {
	s.login("alice")

	tests := []struct {
		name  string
		req   dto.SignupRequest
		field string
	}{
		{"Reserved", dto.SignupRequest{Username: "me", Email: "me@example.com"}, "username"},
		{"UsernameTaken", dto.SignupRequest{Username: "alice", Email: "other@example.com"}, "username"},
		{"EmailTaken", dto.SignupRequest{Username: "other", Email: "alice@example.com"}, "email"},
	}
	for _, tt := range tests {
		s.Run(tt.name, func() {
			w := doRequest(s.router, http.MethodPost, "/v1/auth/signup/", "", tt.req)
			s.Equal(http.StatusBadRequest, w.Code)
			s.Equal(tt.field, decode[dto.ErrorResponse](s.T(), w).Field)
		})
	}
}

func (s *APISuite) TestOwnershipRules() {
	t := s.T()
	alice := s.login("alice")
	bob := s.login("bob")

	w := doRequest(s.router, http.MethodPost, "/v1/titles/1/reviews/", alice, dto.CreateReviewRequest{Text: "mine", Score: 8})
	require.Equal(t, http.StatusCreated, w.Code)
	reviewPath := "/v1/titles/1/reviews/1/"

	text := "hijacked"
	w = doRequest(s.router, http.MethodPatch, reviewPath, bob, dto.UpdateReviewRequest{Text: &text})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(s.router, http.MethodPost, reviewPath+"comments/", bob, dto.CreateCommentRequest{Text: "nice"})
	require.Equal(t, http.StatusCreated, w.Code)
	comment := decode[dto.CommentResponse](t, w)
	assert.Equal(t, "bob", comment.Author)

	w = doRequest(s.router, http.MethodDelete, reviewPath+"comments/1/", alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)

	// admins moderate everything
	w = doRequest(s.router, http.MethodDelete, reviewPath+"comments/1/", s.admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	edited := "still mine"
	w = doRequest(s.router, http.MethodPatch, reviewPath, alice, dto.UpdateReviewRequest{Text: &edited})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "still mine", decode[dto.ReviewResponse](t, w).Text)
}

func (s *APISuite) TestCatalogAdministration() {
	t := s.T()
	alice := s.login("alice")

	w := doRequest(s.router, http.MethodPost, "/v1/genres/", alice, dto.CreateTaxonomyRequest{Name: "Drama", Slug: "drama"})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w = doRequest(s.router, http.MethodPost, "/v1/genres/", s.admin, dto.CreateTaxonomyRequest{Name: "Drama", Slug: "drama"})
	require.Equal(t, http.StatusCreated, w.Code)
	w = doRequest(s.router, http.MethodPost, "/v1/categories/", s.admin, dto.CreateTaxonomyRequest{Name: "Films", Slug: "films"})
	require.Equal(t, http.StatusCreated, w.Code)

	w = doRequest(s.router, http.MethodPost, "/v1/titles/", s.admin, dto.CreateTitleRequest{
		Name: "Solaris", Year: 1972, Genre: []string{"drama"}, Category: "films",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode[dto.TitleResponse](t, w)
	assert.Nil(t, created.Rating)
	require.NotNil(t, created.Category)
	assert.Equal(t, "films", created.Category.Slug)

	w = doRequest(s.router, http.MethodGet, "/v1/titles/?genre=drama", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	page := decode[dto.Paginated[dto.TitleResponse]](t, w)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "Solaris", page.Data[0].Name)

	w = doRequest(s.router, http.MethodPost, "/v1/titles/", s.admin, dto.CreateTitleRequest{Name: "Later", Year: 3000})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = doRequest(s.router, http.MethodDelete, "/v1/categories/films/", s.admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doRequest(s.router, http.MethodGet, "/v1/titles/2/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Nil(t, decode[dto.TitleResponse](t, w).Category)
}

func (s *APISuite) TestUserEndpoints() {
	t := s.T()
	alice := s.login("alice")

	w := doRequest(s.router, http.MethodGet, "/v1/users/", alice, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w = doRequest(s.router, http.MethodGet, "/v1/users/me/", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	role := "admin"
	bio := "reader"
	w = doRequest(s.router, http.MethodPatch, "/v1/users/me/", alice, dto.UpdateUserRequest{Bio: &bio, Role: &role})
	require.Equal(t, http.StatusOK, w.Code)
	me := decode[dto.UserResponse](t, w)
	assert.Equal(t, "reader", me.Bio)
	assert.Equal(t, "user", me.Role)

	w = doRequest(s.router, http.MethodPatch, "/v1/users/alice/", s.admin, dto.UpdateUserRequest{Role: &role})
	require.Equal(t, http.StatusOK, w.Code)

	// the role change applies to the existing token on the next request
	w = doRequest(s.router, http.MethodGet, "/v1/users/?search=alice", alice, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, int64(1), decode[dto.Paginated[dto.UserResponse]](t, w).Total)

	w = doRequest(s.router, http.MethodDelete, "/v1/users/alice/", s.admin, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)
	w = doRequest(s.router, http.MethodGet, "/v1/users/me/", alice, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

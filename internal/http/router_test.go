package httpapi

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	accounthandler "biblio/internal/account/handler"
	accountmocks "biblio/internal/account/handler/mocks"
	cataloghandler "biblio/internal/catalog/handler"
	catalogmocks "biblio/internal/catalog/handler/mocks"
	catalogmodels "biblio/internal/catalog/models"
	jwttoken "biblio/internal/jwt_token"
	"biblio/internal/platform/metrics"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/testutil"
)

type RouterSuite struct {
	suite.Suite
	catalog  *catalogmocks.MockService
	accounts *accountmocks.MockService
	jwt      *jwttoken.JWTService
	registry *prometheus.Registry
	router   http.Handler
	healthy  error
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

func (s *RouterSuite) SetupTest() {
	ctrl := gomock.NewController(s.T())
	s.catalog = catalogmocks.NewMockService(ctrl)
	s.accounts = accountmocks.NewMockService(ctrl)
	s.jwt = jwttoken.NewJWTService("router-key", "biblio", "biblio-api")
	s.registry = prometheus.NewRegistry()
	s.healthy = nil
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	accounts := accounthandler.New(s.accounts, logger)
	s.router = NewRouter(Deps{
		Logger:   logger,
		Metrics:  metrics.NewWithRegisterer(s.registry),
		Gatherer: s.registry,
		Tokens:   jwttoken.NewJWTServiceAdapter(s.jwt),
		Public:   []PublicRegistrar{accounts},
		Modules:  []RouteRegistrar{cataloghandler.New(s.catalog, logger), accounts},
		Health: map[string]HealthCheck{
			"database": func(context.Context) error { return s.healthy },
		},
	})
}

func (s *RouterSuite) bearer(role id.Role) string {
	token, err := s.jwt.GenerateAccessToken(id.NewAccountID(), "x@example.com", role, time.Hour)
	s.Require().NoError(err)
	return token
}

// TestAuthentication verifies module routes require a valid token.
func (s *RouterSuite) TestAuthentication() {
	s.Run("missing token is 401", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/books"))
		testutil.AssertStatus(s.T(), rr, http.StatusUnauthorized)
	})

	s.Run("valid token reaches the handler", func() {
		s.catalog.EXPECT().ListBooks(gomock.Any()).Return([]*catalogmodels.Book{}, nil)
		req := testutil.WithBearer(testutil.NewRequest(s.T(), http.MethodGet, "/books"), s.bearer(id.RoleMember))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatusOK(s.T(), rr)
		s.NotEmpty(rr.Header().Get("X-Request-ID"))
	})

	s.Run("member token cannot create books", func() {
		req := testutil.WithBearer(testutil.NewJSONRequest(s.T(), http.MethodPost, "/books", map[string]string{
			"title": "Rayuela", "author": "Cortázar", "isbn": "9788437604572",
		}), s.bearer(id.RoleMember))
		rr := testutil.DoRequest(s.router, req)
		testutil.AssertStatus(s.T(), rr, http.StatusForbidden)
	})
}

// TestPublicRoutes verifies login is reachable without a token.
func (s *RouterSuite) TestPublicRoutes() {
	s.accounts.EXPECT().Login(gomock.Any(), "ana@example.com", "x").
		Return(nil, dErrors.New(dErrors.CodeUnauthorized, "invalid credentials"))

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/auth/login", map[string]string{
		"email": "ana@example.com", "password": "x",
	})
	rr := testutil.DoRequest(s.router, req)
	testutil.AssertStatusAndError(s.T(), rr, http.StatusUnauthorized, "unauthorized")
}

// TestHealthAndMetrics verifies the operational endpoints.
func (s *RouterSuite) TestHealthAndMetrics() {
	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatusOK(s.T(), rr)
	testutil.AssertJSONContains(s.T(), rr, "status", "ok")

	s.healthy = errors.New("connection refused")
	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/healthz"))
	testutil.AssertStatus(s.T(), rr, http.StatusServiceUnavailable)

	rr = testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/metrics"))
	testutil.AssertStatusOK(s.T(), rr)
	s.True(strings.Contains(rr.Body.String(), "biblio_http_requests_total"))
}

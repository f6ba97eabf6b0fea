package service_test

import (
	"context"
	"errors"
	"net/url"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"biblio/internal/account/metrics"
	"biblio/internal/account/models"
	"biblio/internal/account/notify"
	"biblio/internal/account/secrets"
	"biblio/internal/account/service"
	accountstore "biblio/internal/account/store/account"
	tokenstore "biblio/internal/account/store/token"
	catalogservice "biblio/internal/catalog/service"
	bookstore "biblio/internal/catalog/store/book"
	memberstore "biblio/internal/catalog/store/member"
	jwttoken "biblio/internal/jwt_token"
	id "biblio/pkg/domain"
	dErrors "biblio/pkg/domain-errors"
	"biblio/pkg/platform/audit"
	"biblio/pkg/platform/audit/publisher"
	auditmemory "biblio/pkg/platform/audit/store/memory"
	"biblio/pkg/requestcontext"
)

type noLoans struct{}

func (noLoans) CountOutstandingByBook(context.Context, id.BookID) (int, error)     { return 0, nil }
func (noLoans) CountOutstandingByMember(context.Context, id.MemberID) (int, error) { return 0, nil }

type recordingMailer struct {
	mu   sync.Mutex
	sent []notify.ApprovalEmail
	fail error
}

func (m *recordingMailer) SendApproval(_ context.Context, email notify.ApprovalEmail) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.fail != nil {
		return m.fail
	}
	m.sent = append(m.sent, email)
	return nil
}

func (m *recordingMailer) lastToken() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sent) == 0 {
		return ""
	}
	u, err := url.Parse(m.sent[len(m.sent)-1].RegistrationURL)
	if err != nil {
		return ""
	}
	return u.Query().Get("token")
}

type AccountServiceSuite struct {
	suite.Suite
	now      time.Time
	ctx      context.Context
	accounts *accountstore.InMemory
	members  *memberstore.InMemory
	catalog  *catalogservice.Service
	jwt      *jwttoken.JWTService
	mailer   *recordingMailer
	events   *auditmemory.InMemoryStore
	metrics  *metrics.Metrics
	svc      *service.Service
}

func TestAccountServiceSuite(t *testing.T) {
	suite.Run(t, new(AccountServiceSuite))
}

func (s *AccountServiceSuite) SetupTest() {
	s.now = time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
	s.accounts = accountstore.NewInMemory()
	s.members = memberstore.NewInMemory()
	s.catalog = catalogservice.New(bookstore.NewInMemory(), s.members, noLoans{})
	s.jwt = jwttoken.NewJWTService("test-key", "biblio", "biblio-api")
	s.mailer = &recordingMailer{}
	s.events = auditmemory.NewInMemoryStore()
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.svc = service.New(s.accounts, tokenstore.NewInMemory(), s.catalog, secrets.NewHasher(bcrypt.MinCost), s.jwt,
		service.WithMailer(s.mailer),
		service.WithAuditPublisher(publisher.NewPublisher(s.events)),
		service.WithMetrics(s.metrics),
	)
}

func (s *AccountServiceSuite) at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), s.now.Add(offset))
}

func (s *AccountServiceSuite) request(email, dni string) *models.Account {
	a, err := s.svc.RequestMembership(s.ctx, service.MembershipInput{Email: email, FullName: "Ana Gómez", NationalID: dni})
	s.Require().NoError(err)
	return a
}

// activeMember runs the full membership workflow and returns the activated account.
func (s *AccountServiceSuite) activeMember(email, dni, password string) *models.Account {
	a := s.request(email, dni)
	_, err := s.svc.ApproveAccount(s.ctx, a.ID)
	s.Require().NoError(err)
	activated, err := s.svc.CompleteRegistration(s.ctx, s.mailer.lastToken(), password)
	s.Require().NoError(err)
	return activated
}

func (s *AccountServiceSuite) actions(subject string) []string {
	events, err := s.events.ListBySubject(s.ctx, subject)
	s.Require().NoError(err)
	out := make([]string, 0, len(events))
	for _, e := range events {
		out = append(out, e.Action)
	}
	return out
}

// TestRequestMembership verifies pending account creation and email uniqueness.
func (s *AccountServiceSuite) TestRequestMembership() {
	a := s.request(" Ana@Example.com ", "12345678")
	s.Equal(models.AccountStatusPending, a.Status)
	s.Equal("ana@example.com", a.Email)
	s.Equal(id.RoleMember, a.Role)
	s.Equal([]string{string(audit.EventAccountRequested)}, s.actions(a.ID.String()))
	s.Equal(1.0, testutil.ToFloat64(s.metrics.MembershipRequests))

	_, err := s.svc.RequestMembership(s.ctx, service.MembershipInput{Email: "ANA@example.com", FullName: "Otra", NationalID: "87654321"})
	s.True(dErrors.HasCode(err, dErrors.CodeUniqueness))

	_, err = s.svc.RequestMembership(s.ctx, service.MembershipInput{Email: "b@example.com", FullName: "B", NationalID: "12"})
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))
}

// TestApproveAccount verifies the token email and that email failures do not undo approval.
func (s *AccountServiceSuite) TestApproveAccount() {
	s.Run("approval emails a registration link", func() {
		a := s.request("ana@example.com", "12345678")
		result, err := s.svc.ApproveAccount(s.ctx, a.ID)
		s.Require().NoError(err)
		s.True(result.EmailSent)
		s.Equal(models.AccountStatusProvisional, result.Account.Status)
		s.Require().Len(s.mailer.sent, 1)
		s.Equal("ana@example.com", s.mailer.sent[0].To)
		s.Equal("12345678", s.mailer.sent[0].NationalID)
		s.Equal(result.RegistrationURL, s.mailer.sent[0].RegistrationURL)
		s.NotEmpty(s.mailer.lastToken())

		_, err = s.svc.ApproveAccount(s.ctx, a.ID)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("email failure keeps the approval", func() {
		s.mailer.fail = errors.New("webhook down")
		defer func() { s.mailer.fail = nil }()

		a := s.request("bea@example.com", "23456789")
		result, err := s.svc.ApproveAccount(s.ctx, a.ID)
		s.Require().NoError(err)
		s.False(result.EmailSent)
		s.NotEmpty(result.RegistrationURL)

		stored, err := s.svc.GetAccount(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(models.AccountStatusProvisional, stored.Status)
		s.Equal(1.0, testutil.ToFloat64(s.metrics.EmailFailures))
	})

	s.Run("unknown account is not found", func() {
		_, err := s.svc.ApproveAccount(s.ctx, id.NewAccountID())
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// TestRejectAccount verifies only pending accounts can be rejected.
func (s *AccountServiceSuite) TestRejectAccount() {
	a := s.request("ana@example.com", "12345678")
	rejected, err := s.svc.RejectAccount(s.ctx, a.ID)
	s.Require().NoError(err)
	s.Equal(models.AccountStatusRejected, rejected.Status)

	_, err = s.svc.ApproveAccount(s.ctx, a.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	_, err = s.svc.RejectAccount(s.ctx, a.ID)
	s.True(dErrors.HasCode(err, dErrors.CodeConflict))
}

// TestCompleteRegistration verifies activation creates the member and burns the token.
func (s *AccountServiceSuite) TestCompleteRegistration() {
	a := s.request("ana@example.com", "12345678")
	_, err := s.svc.ApproveAccount(s.ctx, a.ID)
	s.Require().NoError(err)
	token := s.mailer.lastToken()

	_, err = s.svc.CompleteRegistration(s.ctx, token, "12345")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	activated, err := s.svc.CompleteRegistration(s.ctx, token, "secreto1")
	s.Require().NoError(err)
	s.Equal(models.AccountStatusActive, activated.Status)

	member, err := s.catalog.GetMemberByEmail(s.ctx, "ana@example.com")
	s.Require().NoError(err)
	s.Equal("SOC001", member.MemberNumber)
	s.Equal("12345678", member.NationalID)
	s.Zero(member.PendingFines)

	_, err = s.svc.CompleteRegistration(s.ctx, token, "secreto1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	s.Equal([]string{
		string(audit.EventAccountRequested),
		string(audit.EventAccountApproved),
		string(audit.EventAccountActivated),
	}, s.actions(a.ID.String()))
}

// TestCompleteRegistrationExpiredToken verifies tokens lapse after 24 hours.
func (s *AccountServiceSuite) TestCompleteRegistrationExpiredToken() {
	a := s.request("ana@example.com", "12345678")
	_, err := s.svc.ApproveAccount(s.ctx, a.ID)
	s.Require().NoError(err)

	_, err = s.svc.CompleteRegistration(s.at(25*time.Hour), s.mailer.lastToken(), "secreto1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))

	_, err = s.svc.CompleteRegistration(s.ctx, "not-a-token", "secreto1")
	s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
}

// TestCompleteRegistrationLinksExistingMember verifies a member created earlier by a
// librarian is reused rather than duplicated.
func (s *AccountServiceSuite) TestCompleteRegistrationLinksExistingMember() {
	_, err := s.catalog.CreateMember(s.ctx, catalogservice.MemberInput{Name: "Ana Gómez", NationalID: "12345678", Email: "ana@example.com"})
	s.Require().NoError(err)

	s.activeMember("ANA@example.com", "12345678", "secreto1")

	members, err := s.catalog.ListMembers(s.ctx)
	s.Require().NoError(err)
	s.Len(members, 1)

	linked, err := s.catalog.GetMemberByEmail(s.ctx, "ana@example.com")
	s.Require().NoError(err)
	s.Equal(members[0].ID, linked.ID)
}

// TestCompleteRegistrationRefusesMismatchedMember verifies an account is not activated
// against a member it could never borrow as.
func (s *AccountServiceSuite) TestCompleteRegistrationRefusesMismatchedMember() {
	_, err := s.catalog.CreateMember(s.ctx, catalogservice.MemberInput{Name: "Ana Gómez", NationalID: "22333444", Email: "old@example.com"})
	s.Require().NoError(err)
	_, err = s.catalog.CreateMember(s.ctx, catalogservice.MemberInput{Name: "Bea Ruiz", NationalID: "22333445", Email: "bea@example.com"})
	s.Require().NoError(err)

	s.Run("national id held by a member with another email", func() {
		a := s.request("new@example.com", "22333444")
		_, err := s.svc.ApproveAccount(s.ctx, a.ID)
		s.Require().NoError(err)
		token := s.mailer.lastToken()

		_, err = s.svc.CompleteRegistration(s.ctx, token, "secreto1")
		s.True(dErrors.HasCode(err, dErrors.CodeUniqueness), "got %v", err)

		current, err := s.svc.GetAccount(s.ctx, a.ID)
		s.Require().NoError(err)
		s.Equal(models.AccountStatusProvisional, current.Status)
	})

	s.Run("email held by a member with another national id", func() {
		_, err := s.svc.CreateAccount(s.ctx, service.AccountInput{
			MembershipInput: service.MembershipInput{Email: "bea@example.com", FullName: "Bea Ruiz", NationalID: "22333446"},
			Role:            id.RoleMember,
			Password:        "secreto1",
		})
		s.True(dErrors.HasCode(err, dErrors.CodeUniqueness), "got %v", err)
	})

	members, err := s.catalog.ListMembers(s.ctx)
	s.Require().NoError(err)
	s.Len(members, 2)
}

// TestCreateAccount verifies librarian-created accounts are active immediately.
func (s *AccountServiceSuite) TestCreateAccount() {
	librarian, err := s.svc.CreateAccount(s.ctx, service.AccountInput{
		MembershipInput: service.MembershipInput{Email: "bib@example.com", FullName: "Bibliotecaria", NationalID: "11111111"},
		Role:            id.RoleLibrarian,
		Password:        "secreto1",
	})
	s.Require().NoError(err)
	s.Equal(models.AccountStatusActive, librarian.Status)

	members, err := s.catalog.ListMembers(s.ctx)
	s.Require().NoError(err)
	s.Empty(members, "librarians do not get a member record")

	_, err = s.svc.CreateAccount(s.ctx, service.AccountInput{
		MembershipInput: service.MembershipInput{Email: "socio@example.com", FullName: "Socio", NationalID: "22222222"},
		Role:            id.RoleMember,
		Password:        "secreto1",
	})
	s.Require().NoError(err)

	_, err = s.svc.CreateAccount(s.ctx, service.AccountInput{
		MembershipInput: service.MembershipInput{Email: "SOCIO@example.com", FullName: "Otro", NationalID: "33333333"},
		Role:            id.RoleMember,
		Password:        "secreto1",
	})
	s.True(dErrors.HasCode(err, dErrors.CodeUniqueness))

	members, err = s.catalog.ListMembers(s.ctx)
	s.Require().NoError(err)
	s.Len(members, 1)
}

// TestLogin verifies credential checks and the issued token.
func (s *AccountServiceSuite) TestLogin() {
	account := s.activeMember("ana@example.com", "12345678", "secreto1")
	ua := "Mozilla/5.0 (X11; Linux x86_64; rv:121.0) Gecko/20100101 Firefox/121.0"
	ctx := requestcontext.WithClientMetadata(s.ctx, "10.0.0.1", ua)

	s.Run("valid credentials issue a token", func() {
		result, err := s.svc.Login(ctx, "ANA@example.com", "secreto1")
		s.Require().NoError(err)
		claims, err := s.jwt.ValidateToken(result.AccessToken)
		s.Require().NoError(err)
		s.Equal(account.ID.String(), claims.AccountID)
		s.Equal("MEMBER", claims.Role)

		events, err := s.events.ListBySubject(s.ctx, account.ID.String())
		s.Require().NoError(err)
		last := events[len(events)-1]
		s.Equal(string(audit.EventLoginSucceeded), last.Action)
		s.Contains(last.Details["device"], "Firefox")
	})

	s.Run("wrong password and unknown email look the same", func() {
		_, err := s.svc.Login(ctx, "ana@example.com", "incorrecta")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
		_, err2 := s.svc.Login(ctx, "nadie@example.com", "secreto1")
		s.True(dErrors.HasCode(err2, dErrors.CodeUnauthorized))

		de1, _ := dErrors.From(err)
		de2, _ := dErrors.From(err2)
		s.Equal(de1.Message, de2.Message)
		s.Equal(2.0, testutil.ToFloat64(s.metrics.Logins.WithLabelValues("failed")))
	})

	s.Run("pending account cannot log in", func() {
		s.request("bea@example.com", "23456789")
		_, err := s.svc.Login(ctx, "bea@example.com", "secreto1")
		s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	s.Run("missing fields are a bad request", func() {
		_, err := s.svc.Login(ctx, "", "")
		s.True(dErrors.HasCode(err, dErrors.CodeBadRequest))
	})
}

// TestChangePassword verifies the cooldown and current password checks.
func (s *AccountServiceSuite) TestChangePassword() {
	account := s.activeMember("ana@example.com", "12345678", "secreto1")

	err := s.svc.ChangePassword(s.at(2*time.Minute), account.ID, "secreto1", "nuevo123")
	s.Require().True(dErrors.HasCode(err, dErrors.CodeCooldown))
	de, _ := dErrors.From(err)
	s.Equal(3*time.Minute, de.RetryAfter)

	later := s.at(6 * time.Minute)
	err = s.svc.ChangePassword(later, account.ID, "incorrecta", "nuevo123")
	s.True(dErrors.HasCode(err, dErrors.CodeUnauthorized))

	err = s.svc.ChangePassword(later, account.ID, "secreto1", "abc")
	s.True(dErrors.HasCode(err, dErrors.CodeValidation))

	s.Require().NoError(s.svc.ChangePassword(later, account.ID, "secreto1", "nuevo123"))
	_, err = s.svc.Login(later, "ana@example.com", "nuevo123")
	s.NoError(err)

	err = s.svc.ChangePassword(s.at(7*time.Minute), account.ID, "nuevo123", "otro1234")
	s.True(dErrors.HasCode(err, dErrors.CodeCooldown))
}

// TestListAccounts verifies the status filter.
func (s *AccountServiceSuite) TestListAccounts() {
	s.request("a@example.com", "11111111")
	b := s.request("b@example.com", "22222222")
	_, err := s.svc.RejectAccount(s.ctx, b.ID)
	s.Require().NoError(err)

	pending, err := s.svc.ListAccounts(s.ctx, models.AccountStatusPending)
	s.Require().NoError(err)
	s.Len(pending, 1)

	all, err := s.svc.ListAccounts(s.ctx, "")
	s.Require().NoError(err)
	s.Len(all, 2)
}

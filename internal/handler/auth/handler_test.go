package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/Adham-AI-111/clinic-system-docker/internal/config"
	"github.com/Adham-AI-111/clinic-system-docker/internal/middleware"
	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository/memory"
	"github.com/Adham-AI-111/clinic-system-docker/internal/service/audit"
	"github.com/Adham-AI-111/clinic-system-docker/internal/service/auth"
	"github.com/Adham-AI-111/clinic-system-docker/internal/session"
	"github.com/Adham-AI-111/clinic-system-docker/internal/tenancy"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/metrics"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/security"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/validator"
)

const (
	publicHost  = "http://clinic.localhost"
	clinicAHost = "http://a.clinic.localhost"
	password    = "p1-secret"
	cookieName  = "sessionid"
)

type response struct {
	Status  string                 `json:"status"`
	Message string                 `json:"message"`
	Data    map[string]interface{} `json:"data"`
}

type AuthHandlerTestSuite struct {
	suite.Suite
	store  *memory.Store
	hasher security.PasswordHasher
	engine *gin.Engine
	doctor *model.Identity
}

func TestAuthHandlerTestSuite(t *testing.T) {
	suite.Run(t, new(AuthHandlerTestSuite))
}

func (s *AuthHandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.store = memory.NewStore()
	s.hasher = security.NewBcryptHasher(bcrypt.MinCost)

	s.doctor = s.addIdentity("drA", model.RoleDoctor, password, "+201001111111")
	s.store.AddTenant(&model.Tenant{SchemaName: "clinic_a", OwnerID: s.doctor.ID}, "a.clinic.localhost")

	m := metrics.NewNop()
	sessions := session.NewManager(
		session.NewMemoryStore(time.Minute),
		session.NewSigner("0123456789abcdef0123456789abcdef", "clinic"),
		config.SessionConfig{CookieName: cookieName, CookieDomain: "clinic.localhost", Lifetime: time.Hour},
		m,
	)

	identities := s.store.Identities()
	phones := validator.NewPhoneNormalizer("EG")
	lockout := auth.NewLockoutTracker(identities, auth.DefaultMaxLoginAttempts, auth.DefaultLockoutDuration)
	authenticator := auth.NewAuthenticator(identities, s.store.Patients(), s.hasher, lockout, phones)
	handoff := auth.NewHandoffCoordinator(identities, s.store.Tenants(), s.store.Domains(), sessions, auth.DefaultHandoffTTL, 0)
	svc := auth.NewService(authenticator, handoff, audit.NewService(s.store.Audit()), m)

	s.engine = gin.New()
	s.engine.Use(
		middleware.ErrorHandler(),
		middleware.Validation(middleware.DefaultValidationConfig()),
		tenancy.Middleware(tenancy.NewResolver(s.store.Domains(), time.Minute)),
		sessions.Middleware(),
	)
	NewHandler(svc, sessions).RegisterRoutes(s.engine)
}

func (s *AuthHandlerTestSuite) addIdentity(username string, role model.Role, pw, phone string) *model.Identity {
	hash := s.hasher.Unusable()
	if pw != "" {
		var err error
		hash, err = s.hasher.Hash(pw)
		s.Require().NoError(err)
	}
	identity := &model.Identity{Username: username, Phone: phone, Role: role, PasswordHash: hash, IsActive: true}
	s.store.AddIdentity(identity)
	return identity
}

func (s *AuthHandlerTestSuite) do(method, url, body string, cookie *http.Cookie) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, url, nil)
	} else {
		req = httptest.NewRequest(method, url, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if cookie != nil {
		req.AddCookie(cookie)
	}
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)
	return w
}

func (s *AuthHandlerTestSuite) decode(w *httptest.ResponseRecorder) response {
	var resp response
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *AuthHandlerTestSuite) cookie(w *httptest.ResponseRecorder) *http.Cookie {
	for _, c := range w.Result().Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	s.FailNow("no session cookie set")
	return nil
}

func (s *AuthHandlerTestSuite) TestStaffHandoffAcrossDomains() {
	w := s.do(http.MethodPost, publicHost+"/staff-login/", `{"username":"drA","password":"p1-secret"}`, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	resp := s.decode(w)
	s.Equal("success", resp.Status)
	s.Equal(false, resp.Data["logged_in"])
	s.Equal(clinicAHost+"/staff-login/", resp.Data["redirect"])
	pending := s.cookie(w)

	w = s.do(http.MethodGet, clinicAHost+"/staff-login/", "", pending)
	s.Require().Equal(http.StatusFound, w.Code)
	s.Equal(auth.StaffDashboardPath, w.Header().Get("Location"))
	loggedIn := s.cookie(w)
	s.NotEqual(pending.Value, loggedIn.Value)

	// The pending login is single use.
	w = s.do(http.MethodGet, clinicAHost+"/staff-login/", "", pending)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("staff_login", s.decode(w).Data["form"])

	w = s.do(http.MethodGet, clinicAHost+"/staff-login/", "", loggedIn)
	s.Require().Equal(http.StatusOK, w.Code)
	resp = s.decode(w)
	s.Equal("already_authenticated", resp.Message)
	s.Equal(auth.StaffDashboardPath, resp.Data["redirect"])
}

func (s *AuthHandlerTestSuite) TestStaffLoginOnOwnDomain() {
	w := s.do(http.MethodPost, clinicAHost+"/staff-login/", `{"username":"drA","password":"p1-secret"}`, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	resp := s.decode(w)
	s.Equal(true, resp.Data["logged_in"])
	s.Equal(auth.StaffDashboardPath, resp.Data["redirect"])
	s.NotEmpty(s.cookie(w).Value)
}

func (s *AuthHandlerTestSuite) TestWrongPasswordReportsRemainingAttempts() {
	w := s.do(http.MethodPost, publicHost+"/staff-login/", `{"username":"drA","password":"nope"}`, nil)
	s.Require().Equal(http.StatusUnauthorized, w.Code)
	resp := s.decode(w)
	s.Equal("error", resp.Status)
	s.Equal("invalid_credentials", resp.Data["code"])
	s.Equal(float64(auth.DefaultMaxLoginAttempts-1), resp.Data["attempts_remaining"])
}

func (s *AuthHandlerTestSuite) TestUnknownUserLooksLikeBadPassword() {
	w := s.do(http.MethodPost, publicHost+"/staff-login/", `{"username":"ghost","password":"nope"}`, nil)
	s.Require().Equal(http.StatusUnauthorized, w.Code)
	resp := s.decode(w)
	s.Equal("invalid_credentials", resp.Data["code"])
	s.NotContains(resp.Data, "attempts_remaining")
}

func (s *AuthHandlerTestSuite) TestLockedAccount() {
	until := time.Now().Add(10 * time.Minute)
	s.doctor.Lockout = model.Lockout{FailedAttempts: auth.DefaultMaxLoginAttempts, LockedUntil: &until}
	s.store.AddIdentity(s.doctor)

	w := s.do(http.MethodPost, publicHost+"/staff-login/", `{"username":"drA","password":"p1-secret"}`, nil)
	s.Require().Equal(http.StatusLocked, w.Code)
	resp := s.decode(w)
	s.Equal("account_locked", resp.Data["code"])
	s.InDelta(600, resp.Data["retry_after_seconds"], 2)
	s.NotEmpty(w.Header().Get("Retry-After"))
}

func (s *AuthHandlerTestSuite) TestInactiveStaff() {
	s.doctor.IsActive = false
	s.store.AddIdentity(s.doctor)

	w := s.do(http.MethodPost, publicHost+"/staff-login/", `{"username":"drA","password":"p1-secret"}`, nil)
	s.Equal(http.StatusForbidden, w.Code)
	s.Equal("inactive", s.decode(w).Data["code"])
}

func (s *AuthHandlerTestSuite) TestAdminHasNoClinic() {
	s.addIdentity("root", model.RoleAdmin, password, "+201002222222")

	w := s.do(http.MethodPost, publicHost+"/staff-login/", `{"username":"root","password":"p1-secret"}`, nil)
	s.Equal(http.StatusConflict, w.Code)
	s.Equal("no_tenant_association", s.decode(w).Data["code"])
}

func (s *AuthHandlerTestSuite) TestMissingFieldsAreRejected() {
	w := s.do(http.MethodPost, publicHost+"/staff-login/", `{"username":"drA"}`, nil)
	s.Equal(http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, publicHost+"/staff-login/", `{"username":`, nil)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *AuthHandlerTestSuite) TestPatientLoginRequiresClinicDomain() {
	w := s.do(http.MethodPost, publicHost+"/patient-login/", `{"phone":"01001234567","username":"sara"}`, nil)
	s.Equal(http.StatusFound, w.Code)
	s.Equal(auth.HomePath, w.Header().Get("Location"))
}

func (s *AuthHandlerTestSuite) TestPatientLoginAndLogout() {
	patient := s.addIdentity("sara", model.RolePatient, "", "+201001234567")
	s.store.AddPatient("clinic_a", patient.ID, 30)
	profile := auth.PatientProfilePath(patient)

	w := s.do(http.MethodPost, clinicAHost+"/patient-login/", `{"phone":"01001234567","username":"sara"}`, nil)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(profile, s.decode(w).Data["redirect"])
	cookie := s.cookie(w)

	w = s.do(http.MethodGet, clinicAHost+"/patient-login/", "", cookie)
	s.Equal(http.StatusFound, w.Code)
	s.Equal(profile, w.Header().Get("Location"))

	w = s.do(http.MethodPost, clinicAHost+"/patient-logout/", "", cookie)
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(auth.PatientLoginPath, s.decode(w).Data["redirect"])
	s.Less(s.cookie(w).MaxAge, 0)

	w = s.do(http.MethodGet, clinicAHost+"/patient-login/", "", cookie)
	s.Equal(http.StatusOK, w.Code)
	s.Equal("patient_login", s.decode(w).Data["form"])
}

func (s *AuthHandlerTestSuite) TestPatientOfAnotherClinicIsNotFound() {
	patient := s.addIdentity("omar", model.RolePatient, "", "+201005555555")
	s.store.AddTenant(&model.Tenant{SchemaName: "clinic_b", OwnerID: uuid.New()}, "b.clinic.localhost")
	s.store.AddPatient("clinic_b", patient.ID, 40)

	w := s.do(http.MethodPost, clinicAHost+"/patient-login/", `{"phone":"01005555555","username":"omar"}`, nil)
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal("invalid_credentials", s.decode(w).Data["code"])
}

func (s *AuthHandlerTestSuite) TestStaffLogoutLandsOnHome() {
	w := s.do(http.MethodPost, clinicAHost+"/staff-login/", `{"username":"drA","password":"p1-secret"}`, nil)
	s.Require().Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, clinicAHost+"/staff-logout/", "", s.cookie(w))
	s.Require().Equal(http.StatusOK, w.Code)
	s.Equal(auth.HomePath, s.decode(w).Data["redirect"])
}

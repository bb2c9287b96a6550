package signup

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/Adham-AI-111/clinic-system-docker/internal/middleware"
	"github.com/Adham-AI-111/clinic-system-docker/internal/model"
	"github.com/Adham-AI-111/clinic-system-docker/internal/repository/memory"
	"github.com/Adham-AI-111/clinic-system-docker/internal/service/audit"
	"github.com/Adham-AI-111/clinic-system-docker/internal/service/signup"
	"github.com/Adham-AI-111/clinic-system-docker/internal/session"
	"github.com/Adham-AI-111/clinic-system-docker/internal/tenancy"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/security"
	"github.com/Adham-AI-111/clinic-system-docker/pkg/validator"
)

type fixture struct {
	store     *memory.Store
	engine    *gin.Engine
	doctor    *model.Identity
	reception *model.Identity
	clinic    tenancy.Partition

	// actor is the identity logged in on every request, nil for anonymous.
	actor    *model.Identity
	onPublic bool
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	gin.SetMode(gin.TestMode)

	phones := validator.NewPhoneNormalizer("EG")
	validation := middleware.DefaultValidationConfig()
	validation.CustomValidators["phone"] = phones.PhoneValidation()
	require.NoError(t, middleware.RegisterValidators(validation))

	f := &fixture{store: memory.NewStore()}
	f.doctor = &model.Identity{Username: "drA", Phone: "+201001111111", Role: model.RoleDoctor, IsActive: true}
	f.store.AddIdentity(f.doctor)
	tenant := &model.Tenant{SchemaName: "clinic_a", OwnerID: f.doctor.ID}
	f.store.AddTenant(tenant, "a.clinic.localhost")
	f.reception = &model.Identity{Username: "front", Phone: "+201002222222", Role: model.RoleReception, IsActive: true}
	f.store.AddIdentity(f.reception)
	f.store.AttachStaff(tenant.ID, f.reception.ID)
	f.clinic = tenancy.Partition{Schema: tenant.SchemaName, TenantID: tenant.ID}

	svc := signup.NewService(
		f.store.Patients(),
		f.store.Tenants(),
		security.NewBcryptHasher(bcrypt.MinCost),
		phones,
		audit.NewService(f.store.Audit()),
	)

	f.engine = gin.New()
	f.engine.Use(
		middleware.ErrorHandler(),
		middleware.Validation(validation),
		func(c *gin.Context) {
			sess := session.New()
			if f.actor != nil {
				sess.Authenticate(f.actor, f.clinic.Schema)
			}
			session.Set(c, sess)

			partition := f.clinic
			if f.onPublic {
				partition = tenancy.Public
			}
			c.Request = c.Request.WithContext(tenancy.WithPartition(c.Request.Context(), partition))
			c.Next()
		},
	)
	NewHandler(svc).RegisterRoutes(f.engine)
	return f
}

func post(engine *gin.Engine, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

func TestCreatePatient(t *testing.T) {
	f := newFixture(t)
	f.actor = f.reception

	w := post(f.engine, "/patient-signup/", `{"username":"sara","phone":"01001234567","age":31}`)
	require.Equal(t, http.StatusCreated, w.Code)

	var resp struct {
		Status string         `json:"status"`
		Data   model.Identity `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "success", resp.Status)
	assert.Equal(t, "+201001234567", resp.Data.Phone)
	assert.Equal(t, model.RolePatient, resp.Data.Role)
	assert.NotContains(t, w.Body.String(), "password")

	ok, err := f.store.Patients().ExistsForUser(context.Background(), "clinic_a", resp.Data.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	w = post(f.engine, "/patient-signup/", `{"username":"sara","phone":"01001234567","age":31}`)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCreatePatient_Validation(t *testing.T) {
	f := newFixture(t)
	f.actor = f.reception

	w := post(f.engine, "/patient-signup/", `{"username":"sara","phone":"12","age":31}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), `"field":"phone"`)
}

func TestCreatePatient_RequiresLogin(t *testing.T) {
	f := newFixture(t)

	w := post(f.engine, "/patient-signup/", `{"username":"sara","phone":"01001234567","age":31}`)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCreatePatient_PublicDomainRedirects(t *testing.T) {
	f := newFixture(t)
	f.actor = f.reception
	f.onPublic = true

	w := post(f.engine, "/patient-signup/", `{"username":"sara","phone":"01001234567","age":31}`)
	assert.Equal(t, http.StatusFound, w.Code)
}

func TestCreateReception(t *testing.T) {
	f := newFixture(t)
	f.actor = f.doctor

	w := post(f.engine, "/reception-signup/", `{"username":"desk2","phone":"01003334444","password":"long-enough"}`)
	require.Equal(t, http.StatusCreated, w.Code)

	tenant, err := f.store.Tenants().GetByStaffMember(context.Background(), findID(t, f, "desk2"))
	require.NoError(t, err)
	assert.Equal(t, "clinic_a", tenant.SchemaName)
}

func TestCreateReception_DoctorOnly(t *testing.T) {
	f := newFixture(t)
	f.actor = f.reception

	w := post(f.engine, "/reception-signup/", `{"username":"desk2","phone":"01003334444","password":"long-enough"}`)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func findID(t *testing.T, f *fixture, username string) uuid.UUID {
	t.Helper()
	found, err := f.store.Identities().FindByUsernameOrEmail(context.Background(), username)
	require.NoError(t, err)
	require.Len(t, found, 1)
	return found[0].ID
}

package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/depotmaster/internal/auth"
	"github.com/dropDatabas3/depotmaster/internal/authz"
	"github.com/dropDatabas3/depotmaster/internal/cache"
	depothttp "github.com/dropDatabas3/depotmaster/internal/http"
	"github.com/dropDatabas3/depotmaster/internal/http/handlers"
	"github.com/dropDatabas3/depotmaster/internal/http/middlewares"
	"github.com/dropDatabas3/depotmaster/internal/rate"
	"github.com/dropDatabas3/depotmaster/internal/security/password"
	"github.com/dropDatabas3/depotmaster/internal/security/totp"
	"github.com/dropDatabas3/depotmaster/internal/store"
	"github.com/dropDatabas3/depotmaster/internal/store/core"
	"github.com/dropDatabas3/depotmaster/internal/store/memory"
	"github.com/dropDatabas3/depotmaster/internal/token"
)

var testHash = password.Params{Memory: 8 * 1024, Time: 1, Parallelism: 1, KeyLen: 32}

type env struct {
	router http.Handler
	repos  *store.Store
}

// newEnv levanta el stack completo sobre el store en memoria: router, auth,
// policy y rate limiter, sin red ni base de datos.
func newEnv(t *testing.T, loginLimit int) *env {
	t.Helper()

	repos := memory.New().Repos()
	iss, err := token.NewIssuer("depotmaster-test", []byte("secreto-de-test"), time.Hour)
	require.NoError(t, err)
	svc, err := auth.NewService(repos, iss, testHash, nil)
	require.NoError(t, err)
	tf := auth.NewTwoFactor(repos, "depotmaster")
	policy := authz.NewPolicy(repos, cache.NewMemory("test"))
	deps := middlewares.AuthDeps{Issuer: iss, Users: repos.Users, TOTP: repos.TOTP}
	limiter := rate.NewMemoryLimiter(loginLimit, time.Minute)

	router := depothttp.NewRouter(nil,
		handlers.NewAuthHandler(svc, repos, deps, nil, limiter),
		handlers.NewMFAHandler(tf, deps),
		handlers.NewGroupHandler(policy, deps),
		handlers.NewUserAdminHandler(repos.Users, policy, deps, nil),
		handlers.NewDepotHandler(repos.Depots, policy, deps),
		handlers.NewSupplierHandler(repos.Suppliers, policy, deps),
		handlers.NewAttachmentHandler(repos.Attachments, nil, policy, deps, 1<<20),
		handlers.NewHealthHandler("test"),
	)
	return &env{router: router, repos: repos}
}

func (e *env) do(t *testing.T, method, path, tok string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

// registerAndLogin crea el usuario vía la API y devuelve (userID, token). El
// grupo se asigna directo en el store: el endpoint público no acepta grupo.
func (e *env) registerAndLogin(t *testing.T, login, secret string, groupID int64) (string, string) {
	t.Helper()
	reg := map[string]any{"login": login, "secret": secret, "email": login + "@example.com"}
	rec := e.do(t, http.MethodPost, "/v1/auth/register", "", reg)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	if groupID > 0 {
		require.NoError(t, e.repos.Users.SetGroup(context.Background(), u.ID, groupID))
	}

	rec = e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"login": login, "secret": secret})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	return u.ID, res.Token
}

// newGroup crea un grupo directo en el store, para no depender de un admin
// preexistente en cada test.
func newGroup(t *testing.T, repos *store.Store, name string, rules ...int) int64 {
	t.Helper()
	g := &core.Group{Name: name, Rules: rules}
	require.NoError(t, repos.Groups.Insert(context.Background(), g))
	return g.ID
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body struct {
		Code string `json:"code"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body.Code
}

func TestLoginAndMe(t *testing.T) {
	e := newEnv(t, 100)
	id, tok := e.registerAndLogin(t, "walter", "no-tan-secreto", 0)

	rec := e.do(t, http.MethodGet, "/v1/auth/me", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var me struct {
		ID    string `json:"id"`
		Login string `json:"login"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, id, me.ID)
	assert.Equal(t, "walter", me.Login)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestLoginFailuresCollapse(t *testing.T) {
	e := newEnv(t, 100)
	e.registerAndLogin(t, "walter", "no-tan-secreto", 0)

	// password incorrecto y login inexistente responden idéntico
	bad := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"login": "walter", "secret": "otro"})
	ghost := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"login": "nadie", "secret": "otro"})
	require.Equal(t, http.StatusUnauthorized, bad.Code)
	require.Equal(t, http.StatusUnauthorized, ghost.Code)
	assert.Equal(t, errorCode(t, bad), errorCode(t, ghost))
}

func TestMissingTokenUnauthenticated(t *testing.T) {
	e := newEnv(t, 100)
	rec := e.do(t, http.MethodGet, "/v1/auth/me", "", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHENTICATED", errorCode(t, rec))

	rec = e.do(t, http.MethodGet, "/v1/auth/me", "no-es-un-jwt", nil)
	require.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestBlockTakesEffectOnNextRequest(t *testing.T) {
	e := newEnv(t, 100)
	adminGroup := newGroup(t, e.repos, "admins", authz.RuleUserAdmin)
	_, adminTok := e.registerAndLogin(t, "admin", "clave-admin", adminGroup)
	targetID, targetTok := e.registerAndLogin(t, "victima", "clave-victima", 0)

	// el token de la víctima sigue siendo criptográficamente válido...
	rec := e.do(t, http.MethodGet, "/v1/auth/me", targetTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/v1/users/"+targetID+"/block", adminTok, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// ...pero el gate lo rechaza en el request siguiente, sin esperar expiración
	rec = e.do(t, http.MethodGet, "/v1/auth/me", targetTok, nil)
	require.Equal(t, http.StatusLocked, rec.Code)
	assert.Equal(t, "ACCOUNT_BLOCKED", errorCode(t, rec))

	// y el login vuelve a rechazar también
	rec = e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"login": "victima", "secret": "clave-victima"})
	require.Equal(t, http.StatusLocked, rec.Code)

	rec = e.do(t, http.MethodPost, "/v1/users/"+targetID+"/unblock", adminTok, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)
	rec = e.do(t, http.MethodGet, "/v1/auth/me", targetTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAdminCannotBlockSelf(t *testing.T) {
	e := newEnv(t, 100)
	adminGroup := newGroup(t, e.repos, "admins", authz.RuleUserAdmin)
	adminID, adminTok := e.registerAndLogin(t, "admin", "clave-admin", adminGroup)

	rec := e.do(t, http.MethodPost, "/v1/users/"+adminID+"/block", adminTok, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRuleEnforcement(t *testing.T) {
	e := newEnv(t, 100)
	readers := newGroup(t, e.repos, "lectores", authz.RuleDepotRead)
	writers := newGroup(t, e.repos, "operadores", authz.RuleDepotRead, authz.RuleDepotWrite)
	_, readerTok := e.registerAndLogin(t, "lector", "clave-lector", readers)
	_, writerTok := e.registerAndLogin(t, "operador", "clave-operador", writers)
	_, plainTok := e.registerAndLogin(t, "raso", "clave-raso", 0)

	// sin rule: 403
	rec := e.do(t, http.MethodGet, "/v1/depots", plainTok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))

	// lectura sí, escritura no
	rec = e.do(t, http.MethodGet, "/v1/depots", readerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPost, "/v1/depots", readerTok, map[string]any{"name": "central"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// operador crea y el lector lo ve
	rec = e.do(t, http.MethodPost, "/v1/depots", writerTok, map[string]any{"name": "central", "capacity": 100})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var d struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &d))

	rec = e.do(t, http.MethodGet, fmt.Sprintf("/v1/depots/%d", d.ID), readerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"central"`)
}

func TestGroupUpdateRevokesAccess(t *testing.T) {
	e := newEnv(t, 100)
	adminGroup := newGroup(t, e.repos, "admins", authz.RuleGroupAdmin)
	workGroup := newGroup(t, e.repos, "operadores", authz.RuleSupplierRead)
	_, adminTok := e.registerAndLogin(t, "admin", "clave-admin", adminGroup)
	_, workerTok := e.registerAndLogin(t, "op", "clave-op", workGroup)

	rec := e.do(t, http.MethodGet, "/v1/suppliers", workerTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	// el admin vacía las rules del grupo; el acceso cae en el request siguiente
	rec = e.do(t, http.MethodPut, fmt.Sprintf("/v1/groups/%d", workGroup), adminTok,
		map[string]any{"name": "operadores", "rules": []int{}})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = e.do(t, http.MethodGet, "/v1/suppliers", workerTok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
}

func TestGroupDeleteRefusedWhileReferenced(t *testing.T) {
	e := newEnv(t, 100)
	adminGroup := newGroup(t, e.repos, "admins", authz.RuleGroupAdmin)
	workGroup := newGroup(t, e.repos, "operadores", authz.RuleDepotRead)
	_, adminTok := e.registerAndLogin(t, "admin", "clave-admin", adminGroup)
	e.registerAndLogin(t, "op", "clave-op", workGroup)

	rec := e.do(t, http.MethodDelete, fmt.Sprintf("/v1/groups/%d", workGroup), adminTok, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "GROUP_IN_USE", errorCode(t, rec))
}

func TestLoginRateLimited(t *testing.T) {
	e := newEnv(t, 2)
	e.registerAndLogin(t, "walter", "no-tan-secreto", 0) // consume 1 intento

	rec := e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"login": "walter", "secret": "mal"})
	require.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"login": "walter", "secret": "mal"})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "RATE_LIMIT_EXCEEDED", errorCode(t, rec))
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestPasswordResetGate(t *testing.T) {
	e := newEnv(t, 100)
	adminGroup := newGroup(t, e.repos, "admins", authz.RuleUserAdmin)
	_, adminTok := e.registerAndLogin(t, "admin", "clave-admin", adminGroup)
	targetID, targetTok := e.registerAndLogin(t, "walter", "clave-vieja", 0)

	rec := e.do(t, http.MethodPost, "/v1/users/"+targetID+"/require-reset", adminTok, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// todo rechazado salvo el cambio de password
	rec = e.do(t, http.MethodGet, "/v1/auth/me", targetTok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "PASSWORD_RESET_REQUIRED", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, "/v1/auth/password", targetTok,
		map[string]string{"current_secret": "clave-vieja", "new_secret": "clave-nueva"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// el flag se limpió: acceso normal de vuelta, con la clave nueva
	rec = e.do(t, http.MethodGet, "/v1/auth/me", targetTok, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{"login": "walter", "secret": "clave-nueva"})
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestDuplicateRegisterConflicts(t *testing.T) {
	e := newEnv(t, 100)
	e.registerAndLogin(t, "walter", "no-tan-secreto", 0)

	rec := e.do(t, http.MethodPost, "/v1/auth/register", "",
		map[string]string{"login": "WALTER", "secret": "x", "email": "otro@example.com"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "LOGIN_TAKEN", errorCode(t, rec))

	rec = e.do(t, http.MethodPost, "/v1/auth/register", "",
		map[string]string{"login": "otro", "secret": "x", "email": "walter@example.com"})
	require.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "EMAIL_TAKEN", errorCode(t, rec))
}

func TestAssignUnknownGroupRejected(t *testing.T) {
	e := newEnv(t, 100)
	admins := newGroup(t, e.repos, "admins", authz.RuleUserAdmin)
	_, adminTok := e.registerAndLogin(t, "admin", "clave-admin", admins)
	targetID, _ := e.registerAndLogin(t, "walter", "no-tan-secreto", 0)

	rec := e.do(t, http.MethodPut, "/v1/users/"+targetID+"/group", adminTok,
		map[string]int64{"group_id": 12345})
	require.Equal(t, http.StatusNotFound, rec.Code, rec.Body.String())
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))

	require.ErrorIs(t, e.repos.Users.SetGroup(context.Background(), targetID, 12345), core.ErrNotFound)
}

func TestRegisterCannotChooseGroup(t *testing.T) {
	e := newEnv(t, 100)
	admins := newGroup(t, e.repos, "admins", authz.RuleUserAdmin)

	// el body con group_id se rechaza en el borde, no se ignora en silencio
	rec := e.do(t, http.MethodPost, "/v1/auth/register", "",
		map[string]any{"login": "intruso", "secret": "clave-intruso", "email": "intruso@example.com", "group_id": admins})
	require.Equal(t, http.StatusBadRequest, rec.Code, rec.Body.String())
	assert.Equal(t, "INVALID_JSON", errorCode(t, rec))

	// un alta limpia nace sin grupo y sin permisos
	rec = e.do(t, http.MethodPost, "/v1/auth/register", "",
		map[string]string{"login": "intruso", "secret": "clave-intruso", "email": "intruso@example.com"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var u struct {
		GroupID int64 `json:"group_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &u))
	assert.Zero(t, u.GroupID)

	rec = e.do(t, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"login": "intruso", "secret": "clave-intruso"})
	require.Equal(t, http.StatusOK, rec.Code)
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	rec = e.do(t, http.MethodGet, "/v1/users", res.Token, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "FORBIDDEN", errorCode(t, rec))
}

func TestUnknownRouteAndMethod(t *testing.T) {
	e := newEnv(t, 100)
	rec := e.do(t, http.MethodGet, "/v1/nada", "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, rec))

	rec = e.do(t, http.MethodDelete, "/v1/auth/login", "", nil)
	require.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestHealthz(t *testing.T) {
	e := newEnv(t, 100)
	rec := e.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestSecondFactorCeremony(t *testing.T) {
	e := newEnv(t, 100)
	_, tok := e.registerAndLogin(t, "walter", "no-tan-secreto", 0)

	rec := e.do(t, http.MethodPost, "/v1/mfa/enroll", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var enr struct {
		Secret string `json:"secret"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &enr))
	raw, err := totp.DecodeSecret(enr.Secret)
	require.NoError(t, err)

	// confirma el enrolamiento con un código real
	rec = e.do(t, http.MethodPost, "/v1/mfa/verify", tok, map[string]string{"code": totp.Code(raw, time.Now())})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	// el token viejo es anterior a la confirmación: no alcanza más
	rec = e.do(t, http.MethodGet, "/v1/auth/me", tok, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "SECOND_FACTOR_REQUIRED", errorCode(t, rec))

	// login sin código tampoco
	rec = e.do(t, http.MethodPost, "/v1/auth/login", "",
		map[string]string{"login": "walter", "secret": "no-tan-secreto"})
	require.Equal(t, http.StatusForbidden, rec.Code)

	// con código del paso siguiente (el actual ya fue consumido) entra
	rec = e.do(t, http.MethodPost, "/v1/auth/login", "", map[string]string{
		"login": "walter", "secret": "no-tan-secreto",
		"code": totp.Code(raw, time.Now().Add(30*time.Second)),
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var res struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))

	rec = e.do(t, http.MethodGet, "/v1/auth/me", res.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
}

func TestAttachmentsUnavailableWithoutObjectStorage(t *testing.T) {
	e := newEnv(t, 100)
	g := newGroup(t, e.repos, "archivo", authz.RuleAttachmentRead, authz.RuleAttachmentWrite)
	_, tok := e.registerAndLogin(t, "walter", "no-tan-secreto", g)

	// la metadata responde aunque no haya blobs configurados
	rec := e.do(t, http.MethodGet, "/v1/attachments", tok, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = e.do(t, http.MethodPost, "/v1/attachments", tok, nil)
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

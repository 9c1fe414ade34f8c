package httptransport_test

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

	"estatecore/internal/audit"
	auditstore "estatecore/internal/audit/store"
	"estatecore/internal/identity"
	identitymodels "estatecore/internal/identity/models"
	identitystore "estatecore/internal/identity/store"
	"estatecore/internal/identity/token"
	"estatecore/internal/notification"
	notificationstore "estatecore/internal/notification/store"
	"estatecore/internal/platform/logger"
	propertymodels "estatecore/internal/property/models"
	propertyservice "estatecore/internal/property/service"
	propertystore "estatecore/internal/property/store"
	"estatecore/internal/quota"
	quotastore "estatecore/internal/quota/store"
	"estatecore/internal/tenant"
	tenantmodels "estatecore/internal/tenant/models"
	tenantstore "estatecore/internal/tenant/store"
	httptransport "estatecore/internal/transport/http"
	id "estatecore/pkg/domain"
)

const signingKey = "test-signing-key"

type testServer struct {
	server     *httptest.Server
	verifier   *token.Verifier
	principals *identitystore.InMemory
	tenants    *tenantstore.InMemory
	tenant     id.TenantID
}

func seedTenant(t *testing.T, tenants *tenantstore.InMemory, tenantID id.TenantID, slug string) {
	t.Helper()
	record, err := tenantmodels.NewTenant(tenantID, "Test "+slug, slug, time.Now())
	require.NoError(t, err)
	require.NoError(t, tenants.CreateIfSlugAvailable(context.Background(), record))
}

func newTestServer(t *testing.T, maxProperties int) *testServer {
	t.Helper()
	log := logger.New()
	tenantID := id.NewTenantID()

	subs := quotastore.NewInMemory()
	require.NoError(t, subs.Put(context.Background(), &quota.Subscription{
		ID:       id.NewSubscriptionID(),
		TenantID: tenantID,
		Plan: quota.Plan{
			Name:     "starter",
			Features: quota.Limits{MaxUsers: 5, MaxProperties: maxProperties, MaxLeads: quota.Unlimited, MaxDeals: 10},
		},
		Status:    quota.StatusActive,
		StartDate: time.Now().Add(-time.Hour),
		EndDate:   time.Now().Add(30 * 24 * time.Hour),
	}))

	principals := identitystore.NewInMemory()
	recorder := audit.NewRecorder(auditstore.NewInMemory(), audit.WithLogger(log))
	notifications := notification.New(notificationstore.NewInMemory(), principals, notification.WithLogger(log))
	properties := propertyservice.New(propertystore.NewInMemory(), quota.NewEnforcer(subs),
		propertyservice.WithAuditor(recorder),
		propertyservice.WithNotifier(notifications),
		propertyservice.WithLogger(log),
	)
	tenantStore := tenantstore.NewInMemory()
	seedTenant(t, tenantStore, tenantID, "primary-estates")
	tenants := tenant.New(tenantStore, tenant.WithAuditor(recorder), tenant.WithLogger(log))

	verifier := token.NewVerifier(signingKey)
	resolver := identity.NewResolver(principals, tenantStore, identity.WithLogger(log))
	handler := httptransport.NewHandler(properties, tenants, notifications, nil, log)
	server := httptest.NewServer(httptransport.NewRouter(handler, verifier, resolver, 30*time.Second))
	t.Cleanup(server.Close)

	return &testServer{server: server, verifier: verifier, principals: principals, tenants: tenantStore, tenant: tenantID}
}

func (ts *testServer) addPrincipal(t *testing.T, role id.Role) (*identitymodels.Principal, string) {
	t.Helper()
	tenantID := ts.tenant
	if role == id.RolePlatformAdmin {
		tenantID = id.TenantID{}
	}
	p, err := identitymodels.NewPrincipal(id.NewPrincipalID(), tenantID, role, "Test "+role.String(), role.String()+"@example.com", time.Now())
	require.NoError(t, err)
	require.NoError(t, ts.principals.Create(context.Background(), p))

	credential, err := ts.verifier.Sign(p.ID.String(), p.TenantID.String(), role.String(), time.Hour)
	require.NoError(t, err)
	return p, credential
}

func (ts *testServer) do(t *testing.T, method, path, credential string, body any) *http.Response {
	t.Helper()
	var payload bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&payload).Encode(body))
	}
	req, err := http.NewRequest(method, ts.server.URL+path, &payload)
	require.NoError(t, err)
	if credential != "" {
		req.Header.Set("Authorization", "Bearer "+credential)
	}
	resp, err := ts.server.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decodeBody[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func createBody(title string) map[string]any {
	return map[string]any{"title": title, "city": "Porto", "price_cents": 42_000_000}
}

func TestRequestWithoutCredential(t *testing.T) {
	ts := newTestServer(t, 10)
	resp := ts.do(t, http.MethodGet, "/api/v1/properties", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHealthEndpoint(t *testing.T) {
	ts := newTestServer(t, 10)
	resp := ts.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestPropertyLifecycleOverHTTP(t *testing.T) {
	ts := newTestServer(t, 10)
	_, agentToken := ts.addPrincipal(t, id.RoleAgent)
	_, managerToken := ts.addPrincipal(t, id.RoleManager)

	resp := ts.do(t, http.MethodPost, "/api/v1/properties", agentToken, createBody("Harbor loft"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[propertymodels.Property](t, resp)
	assert.Equal(t, propertymodels.ApprovalPending, created.ApprovalStatus)

	path := fmt.Sprintf("/api/v1/properties/%s", created.ID)

	resp = ts.do(t, http.MethodPost, path+"/approve", managerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	approved := decodeBody[propertymodels.Property](t, resp)
	assert.Equal(t, propertymodels.PublicationPublished, approved.PublicationStatus)

	// the race loser gets a conflict
	resp = ts.do(t, http.MethodPost, path+"/reject", managerToken, map[string]string{"reason": "too late"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, path+"/approval", agentToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snapshot := decodeBody[propertymodels.ApprovalSnapshot](t, resp)
	assert.Equal(t, propertymodels.ApprovalApproved, snapshot.ApprovalStatus)

	resp = ts.do(t, http.MethodPost, path+"/advance", agentToken, map[string]string{"to": "under-contract"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestQuotaDenialEnvelope(t *testing.T) {
	ts := newTestServer(t, 1)
	_, agentToken := ts.addPrincipal(t, id.RoleAgent)

	resp := ts.do(t, http.MethodPost, "/api/v1/properties", agentToken, createBody("First"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/v1/properties", agentToken, createBody("Second"))
	require.Equal(t, http.StatusPaymentRequired, resp.StatusCode)

	body := decodeBody[struct {
		Error string `json:"error"`
		Quota *struct {
			Plan    string `json:"plan"`
			Limit   string `json:"limit"`
			Current int    `json:"current"`
			Max     int    `json:"max"`
		} `json:"quota"`
	}](t, resp)
	assert.Equal(t, "quota_exceeded", body.Error)
	require.NotNil(t, body.Quota)
	assert.Equal(t, "starter", body.Quota.Plan)
	assert.Equal(t, "maxProperties", body.Quota.Limit)
	assert.Equal(t, 1, body.Quota.Current)
	assert.Equal(t, 1, body.Quota.Max)
}

func TestRejectWithoutReason(t *testing.T) {
	ts := newTestServer(t, 10)
	_, agentToken := ts.addPrincipal(t, id.RoleAgent)
	_, managerToken := ts.addPrincipal(t, id.RoleManager)

	resp := ts.do(t, http.MethodPost, "/api/v1/properties", agentToken, createBody("Loft"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[propertymodels.Property](t, resp)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/properties/%s/reject", created.ID), managerToken, map[string]string{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestCrossTenantReadsAsMissing(t *testing.T) {
	tsA := newTestServer(t, 10)
	_, agentToken := tsA.addPrincipal(t, id.RoleAgent)

	resp := tsA.do(t, http.MethodPost, "/api/v1/properties", agentToken, createBody("Private"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[propertymodels.Property](t, resp)

	// a manager from another tenant on the same deployment
	foreignTenant := id.NewTenantID()
	seedTenant(t, tsA.tenants, foreignTenant, "foreign-estates")
	outsider, err := identitymodels.NewPrincipal(id.NewPrincipalID(), foreignTenant, id.RoleManager, "Mallory", "m@example.com", time.Now())
	require.NoError(t, err)
	require.NoError(t, tsA.principals.Create(context.Background(), outsider))
	outsiderToken, err := tsA.verifier.Sign(outsider.ID.String(), outsider.TenantID.String(), "manager", time.Hour)
	require.NoError(t, err)

	resp = tsA.do(t, http.MethodGet, fmt.Sprintf("/api/v1/properties/%s", created.ID), outsiderToken, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestNotificationsFlow(t *testing.T) {
	ts := newTestServer(t, 10)
	_, agentToken := ts.addPrincipal(t, id.RoleAgent)
	_, managerToken := ts.addPrincipal(t, id.RoleManager)

	resp := ts.do(t, http.MethodPost, "/api/v1/properties", agentToken, createBody("Notify me"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/v1/notifications?unread=true", managerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list := decodeBody[struct {
		Notifications []*notification.Notification `json:"notifications"`
	}](t, resp)
	require.Len(t, list.Notifications, 1)
	assert.Equal(t, notification.TypeApprovalRequested, list.Notifications[0].Type)

	resp = ts.do(t, http.MethodPost, fmt.Sprintf("/api/v1/notifications/%s/read", list.Notifications[0].ID), managerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/v1/notifications?unread=true", managerToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	list = decodeBody[struct {
		Notifications []*notification.Notification `json:"notifications"`
	}](t, resp)
	assert.Empty(t, list.Notifications)
}

func TestTenantAdministration(t *testing.T) {
	ts := newTestServer(t, 10)
	_, adminToken := ts.addPrincipal(t, id.RolePlatformAdmin)
	_, managerToken := ts.addPrincipal(t, id.RoleManager)

	resp := ts.do(t, http.MethodPost, "/api/v1/tenants", managerToken, map[string]string{"name": "Rogue", "slug": "rogue"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/v1/tenants", adminToken, map[string]string{"name": "Acme Realty", "slug": "acme"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	created := decodeBody[struct {
		ID string `json:"id"`
	}](t, resp)

	resp = ts.do(t, http.MethodDelete, "/api/v1/tenants/"+created.ID, adminToken, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestDeactivatedTenantRefusedAtBoundary(t *testing.T) {
	ts := newTestServer(t, 10)
	_, adminToken := ts.addPrincipal(t, id.RolePlatformAdmin)
	_, agentToken := ts.addPrincipal(t, id.RoleAgent)

	resp := ts.do(t, http.MethodPost, "/api/v1/properties", agentToken, createBody("Before"))
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = ts.do(t, http.MethodDelete, "/api/v1/tenants/"+ts.tenant.String(), adminToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// every member request is refused once the tenant is deactivated, reads
	// included; the credential itself is still valid
	resp = ts.do(t, http.MethodPost, "/api/v1/properties", agentToken, createBody("After"))
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = ts.do(t, http.MethodGet, "/api/v1/properties", agentToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
}

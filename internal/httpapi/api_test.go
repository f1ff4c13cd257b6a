package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"socialloom.io/internal/asset"
	"socialloom.io/internal/audit"
	"socialloom.io/internal/briefing"
	"socialloom.io/internal/generation"
	"socialloom.io/internal/identity"
	"socialloom.io/internal/sched"
	"socialloom.io/internal/tenant"
	"socialloom.io/internal/workflow"
)

type apiClient struct {
	t     *testing.T
	srv   *httptest.Server
	token string
}

func newTestServer(t *testing.T, completionDelay time.Duration) *httptest.Server {
	t.Helper()

	store := identity.NewMemoryStore()
	require.NoError(t, identity.Seed(context.Background(), store))

	signer, err := identity.NewTokenSigner("test-secret-test-secret-32bytes!", "socialloom-api")
	require.NoError(t, err)
	identitySvc, err := identity.NewService(store, signer)
	require.NoError(t, err)

	briefings, err := briefing.NewService(tenant.NewRepo[*briefing.Briefing]())
	require.NoError(t, err)
	workflows, err := workflow.NewEngine(tenant.NewRepo[*workflow.Workflow]())
	require.NoError(t, err)

	completer := sched.New()
	t.Cleanup(completer.Close)

	sessions, err := generation.NewService(
		tenant.NewRepo[*generation.Session](), briefings, workflows,
		completer, completionDelay, zerolog.Nop(),
	)
	require.NoError(t, err)
	assets, err := asset.NewGenerator(
		tenant.NewRepo[*asset.Asset](), workflows,
		completer, completionDelay, "https://cdn.socialloom.io", zerolog.Nop(),
	)
	require.NoError(t, err)

	api := New(
		zerolog.Nop(), identitySvc, briefings, sessions, workflows, assets,
		audit.New(zerolog.Nop()), ReadyProbe{}, "test", Options{},
	)
	srv := httptest.NewServer(api.Handler())
	t.Cleanup(srv.Close)
	return srv
}

func login(t *testing.T, srv *httptest.Server, email string) *apiClient {
	t.Helper()
	c := &apiClient{t: t, srv: srv}
	var res identity.LoginResult
	code := c.do(http.MethodPost, "/auth/login",
		map[string]string{"email": email, "password": identity.DemoPassword}, &res)
	require.Equal(t, http.StatusOK, code)
	require.NotEmpty(t, res.Token)
	c.token = res.Token
	return c
}

func (c *apiClient) do(method, path string, body any, out any) int {
	c.t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(c.t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req, err := http.NewRequest(method, c.srv.URL+path, reader)
	require.NoError(c.t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set(authHeader, bearer+c.token)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(c.t, err)
	defer resp.Body.Close()
	if out != nil && resp.StatusCode < 300 {
		require.NoError(c.t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

func (c *apiClient) createBriefing(name string) briefing.Briefing {
	c.t.Helper()
	var b briefing.Briefing
	code := c.do(http.MethodPost, "/briefings", map[string]any{
		"template_id": "product-launch",
		"name":        name,
		"data": map[string]any{
			"objective": "launch the spring line",
			"audience":  "young professionals",
			"tone":      "upbeat",
			"platforms": []string{"instagram", "linkedin"},
			"keywords":  []string{"fresh", "spring"},
		},
	}, &b)
	require.Equal(c.t, http.StatusCreated, code)
	return b
}

func (c *apiClient) startSession(briefingID string) generation.Session {
	c.t.Helper()
	var s generation.Session
	code := c.do(http.MethodPost, "/content/generate-with-agents", map[string]any{
		"briefing_id": briefingID,
		"subject":     "spring collection teaser",
		"num_agents":  3,
		"num_rounds":  2,
	}, &s)
	require.Equal(c.t, http.StatusAccepted, code)
	return s
}

func (c *apiClient) waitForWorkflow(sessionID string) workflow.Workflow {
	c.t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		var s generation.Session
		code := c.do(http.MethodGet, "/sessions/"+sessionID, nil, &s)
		require.Equal(c.t, http.StatusOK, code)
		if s.Status == generation.StatusCompleted {
			require.NotEmpty(c.t, s.WorkflowID)
			var wf workflow.Workflow
			code = c.do(http.MethodGet, "/workflows/"+s.WorkflowID, nil, &wf)
			require.Equal(c.t, http.StatusOK, code)
			return wf
		}
		require.Equal(c.t, generation.StatusProcessing, s.Status)
		time.Sleep(2 * time.Millisecond)
	}
	c.t.Fatalf("session %s never completed", sessionID)
	return workflow.Workflow{}
}

func TestLoginAndProfile(t *testing.T) {
	srv := newTestServer(t, time.Hour)
	c := login(t, srv, "manager@agency.com")

	var profile struct {
		User   identity.User   `json:"user"`
		Tenant identity.Tenant `json:"tenant"`
	}
	code := c.do(http.MethodGet, "/user/profile", nil, &profile)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, "manager@agency.com", profile.User.Email)
	require.Equal(t, "agency-demo", profile.Tenant.ID)
	require.Equal(t, "Northwind Creative", profile.Tenant.Branding.CompanyName)
}

func TestLoginFailuresAreUniform(t *testing.T) {
	srv := newTestServer(t, time.Hour)
	c := &apiClient{t: t, srv: srv}

	unknown := c.do(http.MethodPost, "/auth/login",
		map[string]string{"email": "ghost@agency.com", "password": identity.DemoPassword}, nil)
	wrongPassword := c.do(http.MethodPost, "/auth/login",
		map[string]string{"email": "manager@agency.com", "password": "wrong"}, nil)
	require.Equal(t, http.StatusUnauthorized, unknown)
	require.Equal(t, http.StatusUnauthorized, wrongPassword)
}

func TestMissingTokenIsUnauthorized(t *testing.T) {
	srv := newTestServer(t, time.Hour)
	c := &apiClient{t: t, srv: srv}

	require.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/briefings", nil, nil))
	require.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/workflows", nil, nil))

	c.token = "not-a-token"
	require.Equal(t, http.StatusUnauthorized, c.do(http.MethodGet, "/briefings", nil, nil))
}

func TestTokenErrorsDistinguishMissingFromInvalid(t *testing.T) {
	srv := newTestServer(t, time.Hour)

	get := func(authorization string) (int, string) {
		req, err := http.NewRequest(http.MethodGet, srv.URL+"/briefings", nil)
		require.NoError(t, err)
		if authorization != "" {
			req.Header.Set(authHeader, authorization)
		}
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		defer resp.Body.Close()
		var body struct {
			Error string `json:"error"`
		}
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
		return resp.StatusCode, body.Error
	}

	code, msg := get("")
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "missing bearer token", msg)

	code, msg = get("Basic abc")
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "invalid token", msg)

	code, msg = get(bearer + "garbage")
	require.Equal(t, http.StatusUnauthorized, code)
	require.Equal(t, "invalid token", msg)
}

func TestBriefingLifecycle(t *testing.T) {
	srv := newTestServer(t, time.Hour)
	c := login(t, srv, "manager@agency.com")

	var templates struct {
		Templates []briefing.Template `json:"templates"`
	}
	code := c.do(http.MethodGet, "/briefings/templates", nil, &templates)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, templates.Templates, 4)

	created := c.createBriefing("Spring Launch")
	require.Equal(t, "agency-demo", created.TenantID)

	var list struct {
		Briefings []briefing.Briefing `json:"briefings"`
	}
	code = c.do(http.MethodGet, "/briefings", nil, &list)
	require.Equal(t, http.StatusOK, code)
	require.Len(t, list.Briefings, 1)
	require.Equal(t, created.ID, list.Briefings[0].ID)

	badTemplate := c.do(http.MethodPost, "/briefings", map[string]any{
		"template_id": "nope", "name": "x", "data": map[string]any{},
	}, nil)
	require.Equal(t, http.StatusBadRequest, badTemplate)
}

func TestViewerCannotCreateBriefings(t *testing.T) {
	srv := newTestServer(t, time.Hour)
	viewer := login(t, srv, "viewer@agency.com")

	code := viewer.do(http.MethodPost, "/briefings", map[string]any{
		"template_id": "product-launch", "name": "x", "data": map[string]any{},
	}, nil)
	require.Equal(t, http.StatusForbidden, code)

	require.Equal(t, http.StatusOK, viewer.do(http.MethodGet, "/briefings", nil, nil))
}

func TestGenerationToApprovalFlow(t *testing.T) {
	srv := newTestServer(t, 5*time.Millisecond)
	manager := login(t, srv, "manager@agency.com")

	b := manager.createBriefing("Spring Launch")
	s := manager.startSession(b.ID)
	require.Equal(t, generation.StatusProcessing, s.Status)

	wf := manager.waitForWorkflow(s.ID)
	require.Equal(t, workflow.StateGeneration, wf.State)
	require.Equal(t, s.ID, wf.SessionID)
	require.NotEmpty(t, wf.Content.Text)

	var moved workflow.Workflow
	code := manager.do(http.MethodPost, fmt.Sprintf("/workflows/%s/transition", wf.ID),
		map[string]string{"state": "approval", "comment": "ready for review"}, &moved)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, workflow.StateApproval, moved.State)
	require.Len(t, moved.History, 2)

	// Moving back to generation is never legal.
	illegal := manager.do(http.MethodPost, fmt.Sprintf("/workflows/%s/transition", wf.ID),
		map[string]string{"state": "generation"}, nil)
	require.Equal(t, http.StatusConflict, illegal)
}

func TestApproverScenarios(t *testing.T) {
	srv := newTestServer(t, 5*time.Millisecond)
	manager := login(t, srv, "manager@agency.com")
	approver := login(t, srv, "approver@client.com")

	b := manager.createBriefing("Spring Launch")
	s := manager.startSession(b.ID)
	wf := manager.waitForWorkflow(s.ID)

	code := manager.do(http.MethodPost, fmt.Sprintf("/workflows/%s/transition", wf.ID),
		map[string]string{"state": "approval"}, nil)
	require.Equal(t, http.StatusOK, code)

	// Cross-tenant approval looks like a missing workflow, not a permission
	// failure.
	crossTenant := approver.do(http.MethodPost, fmt.Sprintf("/approval/%s/approve", wf.ID),
		map[string]string{"comment": "lgtm"}, nil)
	require.Equal(t, http.StatusNotFound, crossTenant)

	// The manager holds workflow.transition but not workflow.approve.
	forbidden := manager.do(http.MethodPost, fmt.Sprintf("/approval/%s/approve", wf.ID),
		map[string]string{"comment": "self-approve"}, nil)
	require.Equal(t, http.StatusForbidden, forbidden)
}

func TestGenerateWithoutBriefingIsRejected(t *testing.T) {
	srv := newTestServer(t, time.Hour)
	manager := login(t, srv, "manager@agency.com")

	code := manager.do(http.MethodPost, "/content/generate-with-agents", map[string]any{
		"subject": "no brief", "num_agents": 2, "num_rounds": 1,
	}, nil)
	require.Equal(t, http.StatusBadRequest, code)

	var list struct {
		Workflows []workflow.Workflow `json:"workflows"`
	}
	require.Equal(t, http.StatusOK, manager.do(http.MethodGet, "/workflows", nil, &list))
	require.Empty(t, list.Workflows)
}

func TestCreativeAssets(t *testing.T) {
	srv := newTestServer(t, 5*time.Millisecond)
	manager := login(t, srv, "manager@agency.com")

	b := manager.createBriefing("Spring Launch")
	s := manager.startSession(b.ID)
	wf := manager.waitForWorkflow(s.ID)

	var img asset.Asset
	code := manager.do(http.MethodPost, "/creatives/generate-image", map[string]string{
		"workflow_id": wf.ID, "platform": "instagram", "prompt": "sunny rooftop",
	}, &img)
	require.Equal(t, http.StatusCreated, code)
	require.Equal(t, asset.StatusGenerated, img.Status)

	var link asset.DownloadLink
	code = manager.do(http.MethodGet, fmt.Sprintf("/assets/%s/download", img.ID), nil, &link)
	require.Equal(t, http.StatusOK, code)
	require.Equal(t, img.MediaURL, link.URL)
	require.Equal(t, img.ID+".png", link.Filename)

	// Unknown workflow and asset ids are plain 404s.
	require.Equal(t, http.StatusNotFound, manager.do(http.MethodPost, "/creatives/generate-image",
		map[string]string{"workflow_id": "nope", "platform": "x", "prompt": "y"}, nil))
	require.Equal(t, http.StatusNotFound, manager.do(http.MethodGet, "/assets/nope/download", nil, nil))
}

func TestTenantIsolationOnListing(t *testing.T) {
	srv := newTestServer(t, time.Hour)
	manager := login(t, srv, "manager@agency.com")
	approver := login(t, srv, "approver@client.com")

	manager.createBriefing("Agency Brief")

	var list struct {
		Briefings []briefing.Briefing `json:"briefings"`
	}
	code := approver.do(http.MethodGet, "/briefings", nil, &list)
	require.Equal(t, http.StatusOK, code)
	require.Empty(t, list.Briefings)
}

func TestTenantsEndpointIsAdminOnly(t *testing.T) {
	srv := newTestServer(t, time.Hour)
	admin := login(t, srv, "admin@platform.com")
	manager := login(t, srv, "manager@agency.com")

	var list struct {
		Tenants []identity.Tenant `json:"tenants"`
	}
	require.Equal(t, http.StatusOK, admin.do(http.MethodGet, "/tenants", nil, &list))
	require.Len(t, list.Tenants, 3)

	require.Equal(t, http.StatusForbidden, manager.do(http.MethodGet, "/tenants", nil, nil))
}

func TestAmbientEndpointsArePublic(t *testing.T) {
	srv := newTestServer(t, time.Hour)
	c := &apiClient{t: t, srv: srv}

	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/healthz", nil, nil))
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/readyz", nil, nil))
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/v1/info", nil, nil))
	require.Equal(t, http.StatusOK, c.do(http.MethodGet, "/metrics", nil, nil))
}

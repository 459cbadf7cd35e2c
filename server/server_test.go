package server

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"github.com/sponsorly/sponsorly/config"
)

type M map[string]interface{}

var (
	cfg *config.Config
	srv *Server
	ts  *httptest.Server
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)

	dir, err := os.MkdirTemp("", "sponsorly-test")
	if err != nil {
		log.Fatal(err)
	}

	cfg = config.Sandboxed()
	cfg.DBPath, cfg.DBName = dir+"/", "test"

	r := gin.New()
	if srv, err = New(cfg, r); err != nil {
		log.Fatal(err)
	}
	ts = httptest.NewServer(r)

	code := m.Run()

	ts.Close()
	srv.Close()
	os.RemoveAll(dir)
	os.Exit(code)
}

type apiResp struct {
	Status  string          `json:"status"`
	Message string          `json:"message"`
	Kind    string          `json:"kind"`
	Data    json.RawMessage `json:"data"`
}

func doReq(t *testing.T, method, path, token string, body interface{}) (int, apiResp) {
	t.Helper()

	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}

	req, err := http.NewRequest(method, ts.URL+cfg.APIPath+path, rd)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()

	var out apiResp
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	return res.StatusCode, out
}

func signIn(t *testing.T, identifier, pass string) string {
	t.Helper()
	code, res := doReq(t, "POST", "/signIn", "", M{"identifier": identifier, "pass": pass})
	require.Equal(t, 200, code, res.Message)

	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &data))
	require.NotEmpty(t, data.Token)
	return data.Token
}

func doSignUp(t *testing.T, body M) {
	t.Helper()
	code, res := doReq(t, "POST", "/signUp", "", body)
	require.Equal(t, 200, code, res.Message)
}

func TestServerFlow(t *testing.T) {
	admin := signIn(t, cfg.AdminEmail, cfg.AdminPass)

	doSignUp(t, M{
		"username": "acmecorp", "email": "acme@example.com",
		"password": "hunter2hunter2", "role": "sponsor",
		"companyName": "Acme", "industry": "Retail",
	})
	sponsor := signIn(t, "acmecorp", "hunter2hunter2")

	doSignUp(t, M{
		"username": "kaycreates", "email": "kay@example.com",
		"password": "hunter2hunter2", "role": "influencer",
		"category": "Gaming",
	})
	influencer := signIn(t, "kay@example.com", "hunter2hunter2")

	code, res := doReq(t, "GET", "/me", sponsor, nil)
	require.Equal(t, 200, code)
	require.Contains(t, string(res.Data), `"sponsor"`)

	// influencers can't own campaigns
	code, res = doReq(t, "POST", "/campaigns", influencer, M{})
	require.Equal(t, 403, code)
	require.Equal(t, "Forbidden", res.Kind)

	campaign := M{
		"name": "Summer Launch", "description": "Push the summer line",
		"startDate": 1750000000, "endDate": 1760000000,
		"budget": 1000, "campaignStatus": "Active",
		"niche": "Gaming", "visibility": "public",
	}
	code, res = doReq(t, "POST", "/campaigns", sponsor, campaign)
	require.Equal(t, 200, code, res.Message)
	var cmp struct {
		Id string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &cmp))

	// bad niche is a validation error
	bad := M{}
	for k, v := range campaign {
		bad[k] = v
	}
	bad["niche"] = "Crypto"
	code, res = doReq(t, "POST", "/campaigns", sponsor, bad)
	require.Equal(t, 400, code)
	require.Equal(t, "ValidationError", res.Kind)

	// public running campaigns are browsable without a token
	code, res = doReq(t, "GET", "/campaigns", "", nil)
	require.Equal(t, 200, code)
	require.Contains(t, string(res.Data), `"Summer Launch"`)
	code, _ = doReq(t, "GET", "/campaigns/"+cmp.Id, "", nil)
	require.Equal(t, 200, code)

	// but a private campaign only exists for its owner
	private := M{}
	for k, v := range campaign {
		private[k] = v
	}
	private["name"], private["visibility"] = "Quiet Pilot", "private"
	code, res = doReq(t, "POST", "/campaigns", sponsor, private)
	require.Equal(t, 200, code, res.Message)
	var priv struct {
		Id string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &priv))

	code, res = doReq(t, "GET", "/campaigns/"+priv.Id, influencer, nil)
	require.Equal(t, 404, code)
	require.Equal(t, "NotFound", res.Kind)
	code, _ = doReq(t, "GET", "/campaigns/"+priv.Id, sponsor, nil)
	require.Equal(t, 200, code)

	// first influencer record seeded by the signup above
	const infId = "1"

	code, res = doReq(t, "POST", "/adRequests", sponsor, M{
		"campaignId": cmp.Id, "influencerId": infId,
		"amount": 600, "requirement": "two posts",
	})
	require.Equal(t, 200, code, res.Message)
	var ad struct {
		Id     string `json:"id"`
		Amount int64  `json:"amount"`
		Status string `json:"adStatus"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &ad))
	require.Equal(t, "Pending", ad.Status)

	// 600 + 500 > 1000
	code, res = doReq(t, "POST", "/adRequests", sponsor, M{
		"campaignId": cmp.Id, "influencerId": infId,
		"amount": 500, "requirement": "one post",
	})
	require.Equal(t, 400, code)
	require.Equal(t, "BudgetExceeded", res.Kind)
	require.Contains(t, res.Message, "400") // remaining budget figure

	// influencer counter-offers, sponsor accepts
	code, res = doReq(t, "POST", "/adRequests/"+ad.Id+"/negotiate", influencer, M{
		"amount": 900, "message": "rate is 900",
	})
	require.Equal(t, 200, code, res.Message)
	require.NoError(t, json.Unmarshal(res.Data, &ad))
	require.Equal(t, "Negotiation", ad.Status)
	require.Equal(t, int64(600), ad.Amount)

	code, res = doReq(t, "POST", "/adRequests/"+ad.Id+"/accept", sponsor, nil)
	require.Equal(t, 200, code, res.Message)
	require.NoError(t, json.Unmarshal(res.Data, &ad))
	require.Equal(t, "Accepted", ad.Status)
	require.Equal(t, int64(900), ad.Amount)

	// derived campaign view reflects the committed amount
	code, res = doReq(t, "GET", "/campaigns/"+cmp.Id, sponsor, nil)
	require.Equal(t, 200, code)
	var view struct {
		Spent     int64 `json:"spent"`
		Remaining int64 `json:"remaining"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &view))
	require.Equal(t, int64(900), view.Spent)
	require.Equal(t, int64(100), view.Remaining)

	// accepted work gets completed
	code, res = doReq(t, "POST", "/adRequests/"+ad.Id+"/status", sponsor, M{"status": "Completed"})
	require.Equal(t, 200, code, res.Message)

	code, res = doReq(t, "POST", "/adRequests/"+ad.Id+"/status", sponsor, M{"status": "Accepted"})
	require.Equal(t, 400, code)
	require.Equal(t, "InvalidTransition", res.Kind)

	// admin moderation: verification progression and flagging
	code, res = doReq(t, "POST", "/admin/sponsors/1/verification", admin, M{"status": "verified"})
	require.Equal(t, 200, code, res.Message)
	code, res = doReq(t, "POST", "/admin/sponsors/1/verification", admin, M{"status": "not_verified"})
	require.Equal(t, 400, code)
	require.Equal(t, "ValidationError", res.Kind)

	// non-admins never reach the moderation surface
	code, res = doReq(t, "POST", "/admin/users/2/flag", sponsor, M{"reason": "nope"})
	require.Equal(t, 403, code)
}

func TestSignUpValidation(t *testing.T) {
	code, res := doReq(t, "POST", "/signUp", "", M{
		"username": "dupuser", "email": "dup@example.com",
		"password": "hunter2hunter2", "role": "sponsor",
		"companyName": "Dup", "industry": "Retail",
	})
	require.Equal(t, 200, code, res.Message)

	// same email again
	code, res = doReq(t, "POST", "/signUp", "", M{
		"username": "dupuser2", "email": "dup@example.com",
		"password": "hunter2hunter2", "role": "sponsor",
		"companyName": "Dup", "industry": "Retail",
	})
	require.Equal(t, 409, code)
	require.Equal(t, "Conflict", res.Kind)

	// nobody signs up as admin
	code, res = doReq(t, "POST", "/signUp", "", M{
		"username": "wannabe", "email": "wannabe@example.com",
		"password": "hunter2hunter2", "role": "admin",
	})
	require.Equal(t, 404, code)
	require.Equal(t, "NotFound", res.Kind)

	code, res = doReq(t, "POST", "/signUp", "", M{
		"username": "mismatch", "email": "mismatch@example.com",
		"password": "hunter2hunter2", "confirmPassword": "something-else",
		"role": "influencer", "category": "Food",
	})
	require.Equal(t, 400, code)
	require.Equal(t, "ValidationError", res.Kind)
}

func TestChangePasswordEndpoint(t *testing.T) {
	doSignUp(t, M{
		"username": "keymaster", "email": "keymaster@example.com",
		"password": "hunter2hunter2", "role": "influencer",
		"category": "Tech",
	})
	token := signIn(t, "keymaster", "hunter2hunter2")

	code, res := doReq(t, "PUT", "/me/password", token, M{
		"oldPassword": "wrong-password", "newPassword": "n3wpassword",
	})
	require.Equal(t, 401, code)
	require.Equal(t, "Unauthorized", res.Kind)

	code, res = doReq(t, "PUT", "/me/password", token, M{
		"oldPassword": "hunter2hunter2", "newPassword": "short",
	})
	require.Equal(t, 400, code)
	require.Equal(t, "ValidationError", res.Kind)

	code, res = doReq(t, "PUT", "/me/password", token, M{
		"oldPassword": "hunter2hunter2", "newPassword": "n3wpassword",
	})
	require.Equal(t, 200, code, res.Message)

	code, _ = doReq(t, "POST", "/signIn", "", M{"identifier": "keymaster", "pass": "hunter2hunter2"})
	require.Equal(t, 401, code)
	signIn(t, "keymaster", "n3wpassword")
}

func TestSignOutRevokesToken(t *testing.T) {
	doSignUp(t, M{
		"username": "fleeting", "email": "fleeting@example.com",
		"password": "hunter2hunter2", "role": "influencer",
		"category": "Travel",
	})
	token := signIn(t, "fleeting", "hunter2hunter2")

	code, _ := doReq(t, "GET", "/me", token, nil)
	require.Equal(t, 200, code)

	code, _ = doReq(t, "POST", "/signOut", token, nil)
	require.Equal(t, 200, code)

	code, res := doReq(t, "GET", "/me", token, nil)
	require.Equal(t, 401, code)
	require.Equal(t, "Unauthorized", res.Kind)
	require.Contains(t, res.Message, "revoked")
}

func TestRefreshFlow(t *testing.T) {
	doSignUp(t, M{
		"username": "refresher", "email": "refresher@example.com",
		"password": "hunter2hunter2", "role": "influencer",
		"category": "Beauty",
	})

	// sign in manually to keep the refresh cookie
	b, _ := json.Marshal(M{"identifier": "refresher", "pass": "hunter2hunter2"})
	res, err := http.Post(ts.URL+cfg.APIPath+"/signIn", "application/json", bytes.NewReader(b))
	require.NoError(t, err)
	res.Body.Close()

	var refresh *http.Cookie
	for _, c := range res.Cookies() {
		if c.Name == "refresh" {
			refresh = c
		}
	}
	require.NotNil(t, refresh, "refresh cookie must be set on sign-in")
	require.True(t, refresh.HttpOnly)

	req, err := http.NewRequest("POST", ts.URL+cfg.APIPath+"/token/refresh", nil)
	require.NoError(t, err)
	req.AddCookie(refresh)
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, 200, res.StatusCode)

	var out apiResp
	require.NoError(t, json.NewDecoder(res.Body).Decode(&out))
	var data struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(out.Data, &data))

	code, _ := doReq(t, "GET", "/me", data.Token, nil)
	require.Equal(t, 200, code)

	// the refresh token itself can't be used as an access token
	code, r2 := doReq(t, "GET", "/me", refresh.Value, nil)
	require.Equal(t, 401, code)
	require.Equal(t, "Unauthorized", r2.Kind)

	// and refreshing without the cookie fails
	code, r2 = doReq(t, "POST", "/token/refresh", "", nil)
	require.Equal(t, 401, code)
	require.Equal(t, "Unauthorized", r2.Kind)
}

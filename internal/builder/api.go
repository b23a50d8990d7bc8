package builder

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/jask/webforge/internal/model"
)

// RegisterRequest creates an account.
type RegisterRequest struct {
	Name     string     `json:"name"`
	Email    string     `json:"email"`
	Password string     `json:"password"`
	Plan     model.Plan `json:"plan"`
}

// User is the account record returned by register.
type User struct {
	Name  string     `json:"name"`
	Email string     `json:"email"`
	Plan  model.Plan `json:"plan"`
}

// RebuildResult is the outcome of a rebuild. Files is nil when the service
// only reports the new version.
type RebuildResult struct {
	Version int          `json:"version"`
	Files   *model.Files `json:"files,omitempty"`
}

// Register creates an account. No authentication is required.
func (c *Client) Register(ctx context.Context, req RegisterRequest) (User, error) {
	body, err := jsonBody(req)
	if err != nil {
		return User{}, err
	}
	var out User
	err = c.doJSON(ctx, call{op: "register", method: http.MethodPost, path: "/auth/register", body: body, contentType: "application/json"}, &out)
	return out, err
}

// Login exchanges credentials for an access token. A 2xx response without
// a token is treated as a failed login.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	form := url.Values{"username": {email}, "password": {password}}
	var out struct {
		AccessToken string `json:"access_token"`
	}
	err := c.doJSON(ctx, call{
		op:          "login",
		method:      http.MethodPost,
		path:        "/auth/login",
		body:        strings.NewReader(form.Encode()),
		contentType: "application/x-www-form-urlencoded",
	}, &out)
	if err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", &model.RemoteError{Op: "login", Status: http.StatusOK, Body: "response carried no access_token"}
	}
	return out.AccessToken, nil
}

// WhoAmI resolves the identity behind token.
func (c *Client) WhoAmI(ctx context.Context, token string) (model.Identity, error) {
	var out model.Identity
	err := c.doJSON(ctx, call{op: "whoami", method: http.MethodGet, path: "/auth/me", token: token}, &out)
	return out, err
}

// ListProjects returns the caller's projects in service order.
func (c *Client) ListProjects(ctx context.Context, token string) ([]model.ProjectSummary, error) {
	var out struct {
		Items []model.ProjectSummary `json:"items"`
	}
	if err := c.doJSON(ctx, call{op: "list projects", method: http.MethodGet, path: "/projects", token: token}, &out); err != nil {
		return nil, err
	}
	if out.Items == nil {
		return []model.ProjectSummary{}, nil
	}
	return out.Items, nil
}

// Generate asks the service to build a new project.
func (c *Client) Generate(ctx context.Context, token string, req model.GenerationRequest) (model.Project, error) {
	body, err := jsonBody(req)
	if err != nil {
		return model.Project{}, err
	}
	var out model.Project
	err = c.doJSON(ctx, call{op: "generate", method: http.MethodPost, path: "/ai/generate", token: token, body: body, contentType: "application/json"}, &out)
	if err != nil {
		return model.Project{}, err
	}
	if out.ID == "" {
		return model.Project{}, &model.RemoteError{Op: "generate", Status: http.StatusOK, Body: "response carried no project id"}
	}
	return out, nil
}

// Rebuild regenerates project id and reports the new version.
func (c *Client) Rebuild(ctx context.Context, token, id string) (RebuildResult, error) {
	var out RebuildResult
	err := c.doJSON(ctx, call{
		op:          "rebuild",
		method:      http.MethodPost,
		path:        projectPath(id, "rebuild"),
		token:       token,
		body:        strings.NewReader("{}"),
		contentType: "application/json",
	}, &out)
	return out, err
}

// Deploy publishes project id and returns its public URL.
func (c *Client) Deploy(ctx context.Context, token, id string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.doJSON(ctx, call{op: "deploy", method: http.MethodPost, path: projectPath(id, "deploy"), token: token}, &out); err != nil {
		return "", err
	}
	return out.URL, nil
}

// DownloadURL is the packaging endpoint for project id. The token travels
// as a query parameter because the URL is meant to be opened directly.
func (c *Client) DownloadURL(id, token string) string {
	q := url.Values{"token": {token}}
	return c.baseURL + projectPath(id, "download") + "?" + q.Encode()
}

// FetchArchive streams the packaged project into w and returns the number
// of bytes written.
func (c *Client) FetchArchive(ctx context.Context, id, token string, w io.Writer) (int64, error) {
	return c.Fetch(ctx, c.DownloadURL(id, token), w)
}

// Fetch streams a URL minted by this client, such as DownloadURL, into w.
func (c *Client) Fetch(ctx context.Context, rawURL string, w io.Writer) (int64, error) {
	path, ok := strings.CutPrefix(rawURL, c.baseURL)
	if !ok || !strings.HasPrefix(path, "/") {
		return 0, model.Invalid("url %q is not served by %s", rawURL, c.baseURL)
	}
	resp, err := c.send(ctx, call{op: "download", method: http.MethodGet, path: path})
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, &model.RemoteError{Op: "download", Status: resp.StatusCode, Err: fmt.Errorf("read archive: %w", err)}
	}
	return n, nil
}

package api

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"golang.org/x/oauth2"

	"boardly-api/domain"
	"boardly-api/service"
)

const (
	defaultGitHubUserURL = "https://api.github.com/user"
	defaultGoogleUserURL = "https://www.googleapis.com/oauth2/v2/userinfo"
)

// LoginConfig wires the credential and OAuth login flows. GitHub and
// Google are each optional; their routes are only registered when the
// corresponding config is present.
type LoginConfig struct {
	Auth   *Auth
	States StateStore
	GitHub *oauth2.Config
	Google *oauth2.Config

	// HTTPClient overrides the client used for token exchange and
	// userinfo fetches; tests point it at a local server.
	HTTPClient *http.Client
	// GitHubUserURL and GoogleUserURL override the userinfo endpoints.
	GitHubUserURL string
	GoogleUserURL string
}

func (cfg *LoginConfig) httpClient() *http.Client {
	if cfg.HTTPClient != nil {
		return cfg.HTTPClient
	}
	return http.DefaultClient
}

func (cfg *LoginConfig) githubUserURL() string {
	if cfg.GitHubUserURL != "" {
		return cfg.GitHubUserURL
	}
	return defaultGitHubUserURL
}

func (cfg *LoginConfig) googleUserURL() string {
	if cfg.GoogleUserURL != "" {
		return cfg.GoogleUserURL
	}
	return defaultGoogleUserURL
}

type sessionResponse struct {
	Token string      `json:"token"`
	User  domain.User `json:"user"`
}

// RegisterLogin wires up the credential login and OAuth callback routes.
func RegisterLogin(e *echo.Echo, users UserService, cfg LoginConfig) {
	e.POST("/login", passwordLogin(users, cfg.Auth))
	if cfg.GitHub != nil {
		e.GET("/github/login", oauthRedirect(cfg.GitHub, cfg.States))
		e.GET("/login/callback", githubCallback(users, cfg))
		e.GET("/github/get/user", githubUser(cfg))
	}
	if cfg.Google != nil {
		e.GET("/google/login", oauthRedirect(cfg.Google, cfg.States))
		e.GET("/google/callback", googleCallback(users, cfg))
	}
}

func passwordLogin(users UserService, auth *Auth) echo.HandlerFunc {
	return func(c echo.Context) error {
		email := c.QueryParam("email")
		password := c.QueryParam("password")
		if email == "" || password == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "email and password are required"})
		}
		u, err := users.Login(c.Request().Context(), email, password)
		if err != nil {
			var ve *service.ValidationError
			if errors.As(err, &ve) {
				return c.JSON(http.StatusUnauthorized, errorResponse{Detail: ve.Msg})
			}
			return writeError(c, err)
		}
		return writeSession(c, auth, u)
	}
}

func oauthRedirect(conf *oauth2.Config, states StateStore) echo.HandlerFunc {
	return func(c echo.Context) error {
		state, err := states.Issue(c.Request().Context())
		if err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusInternalServerError, errorResponse{Detail: "could not start login"})
		}
		return c.Redirect(http.StatusFound, conf.AuthCodeURL(state))
	}
}

func githubCallback(users UserService, cfg LoginConfig) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := exchangeCode(c, cfg, cfg.GitHub)
		if err != nil {
			return err
		}
		var ghUser struct {
			ID    int64  `json:"id"`
			Login string `json:"login"`
			Email string `json:"email"`
		}
		if err := fetchUserInfo(c.Request().Context(), cfg.httpClient(), cfg.githubUserURL(), token.AccessToken, &ghUser); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusBadGateway, errorResponse{Detail: "github user lookup failed"})
		}
		email := ghUser.Email
		if email == "" {
			email = ghUser.Login + "@users.noreply.github.com"
		}
		u, err := findOrCreateUser(c.Request().Context(), users, email, ghUser.Login)
		if err != nil {
			return writeError(c, err)
		}
		return writeSession(c, cfg.Auth, u)
	}
}

func googleCallback(users UserService, cfg LoginConfig) echo.HandlerFunc {
	return func(c echo.Context) error {
		token, err := exchangeCode(c, cfg, cfg.Google)
		if err != nil {
			return err
		}
		var gUser struct {
			Email string `json:"email"`
			Name  string `json:"name"`
		}
		if err := fetchUserInfo(c.Request().Context(), cfg.httpClient(), cfg.googleUserURL(), token.AccessToken, &gUser); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusBadGateway, errorResponse{Detail: "google user lookup failed"})
		}
		if gUser.Email == "" {
			return c.JSON(http.StatusBadGateway, errorResponse{Detail: "google account has no email"})
		}
		u, err := findOrCreateUser(c.Request().Context(), users, gUser.Email, gUser.Name)
		if err != nil {
			return writeError(c, err)
		}
		return writeSession(c, cfg.Auth, u)
	}
}

// githubUser proxies the GitHub user endpoint for an already obtained
// access token.
func githubUser(cfg LoginConfig) echo.HandlerFunc {
	return func(c echo.Context) error {
		accessToken := c.QueryParam("access_token")
		if accessToken == "" {
			return c.JSON(http.StatusBadRequest, errorResponse{Detail: "access_token is required"})
		}
		var raw map[string]any
		if err := fetchUserInfo(c.Request().Context(), cfg.httpClient(), cfg.githubUserURL(), accessToken, &raw); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusBadGateway, errorResponse{Detail: "github user lookup failed"})
		}
		return c.JSON(http.StatusOK, raw)
	}
}

// exchangeCode verifies the state nonce and swaps the authorization code
// for an access token. A nil error on the echo side means the response
// has already been written.
func exchangeCode(c echo.Context, cfg LoginConfig, conf *oauth2.Config) (*oauth2.Token, error) {
	code := c.QueryParam("code")
	if code == "" {
		return nil, c.JSON(http.StatusBadRequest, errorResponse{Detail: "code is required"})
	}
	if cfg.States != nil {
		ok, err := cfg.States.Consume(c.Request().Context(), c.QueryParam("state"))
		if err != nil {
			c.Logger().Error(err)
			return nil, c.JSON(http.StatusInternalServerError, errorResponse{Detail: "could not verify login state"})
		}
		if !ok {
			return nil, c.JSON(http.StatusBadRequest, errorResponse{Detail: "unknown login state"})
		}
	}
	ctx := context.WithValue(c.Request().Context(), oauth2.HTTPClient, cfg.httpClient())
	token, err := conf.Exchange(ctx, code)
	if err != nil {
		c.Logger().Error(err)
		return nil, c.JSON(http.StatusUnauthorized, errorResponse{Detail: "code exchange failed"})
	}
	return token, nil
}

func fetchUserInfo(ctx context.Context, client *http.Client, url, accessToken string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New("userinfo request failed: " + strconv.Itoa(resp.StatusCode))
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, postBodyMaxSize))
	if err != nil {
		return err
	}
	return sonic.Unmarshal(body, out)
}

func findOrCreateUser(ctx context.Context, users UserService, email, name string) (domain.User, error) {
	u, err := users.FindUserByEmail(ctx, email)
	if err == nil {
		u.Password = ""
		return u, nil
	}
	if !service.IsNotFound(err) {
		return domain.User{}, err
	}
	return users.CreateUser(ctx, domain.User{Name: name, Email: email})
}

func writeSession(c echo.Context, auth *Auth, u domain.User) error {
	token, err := auth.IssueSession(u.ID)
	if err != nil {
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, errorResponse{Detail: "could not issue session"})
	}
	return c.JSON(http.StatusOK, sessionResponse{Token: token, User: u})
}

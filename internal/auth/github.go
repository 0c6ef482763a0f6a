package auth

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/oauth2"
	githuboauth "golang.org/x/oauth2/github"
)

const oauthStateCookie = "oauth_state"

// GitHubOAuth handles the GitHub login flow. Users who sign in through
// GitHub for the first time get an account with a random throwaway password
// and 2FA disabled.
type GitHubOAuth struct {
	conf        *oauth2.Config
	apiBaseURL  string
	frontendURL string
}

func NewGitHubOAuth(clientID, clientSecret, callbackURL, frontendURL string) *GitHubOAuth {
	return &GitHubOAuth{
		conf: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"user:email"},
			Endpoint:     githuboauth.Endpoint,
		},
		apiBaseURL:  "https://api.github.com",
		frontendURL: frontendURL,
	}
}

type githubProfile struct {
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Redirect starts the flow: sets a state cookie and sends the browser to
// GitHub's authorize page.
func (h *Handler) GitHubRedirect(oauth *GitHubOAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state := uuid.New().String()
		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/",
			HttpOnly: true,
			MaxAge:   300,
		})
		http.Redirect(w, r, oauth.conf.AuthCodeURL(state), http.StatusFound)
	}
}

// Callback finishes the flow: exchanges the code, resolves the GitHub
// profile and email, creates the account on first sight, then hands a
// bearer token back to the frontend via redirect.
func (h *Handler) GitHubCallback(oauth *GitHubOAuth) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		cookie, err := r.Cookie(oauthStateCookie)
		if err != nil || cookie.Value == "" || cookie.Value != r.URL.Query().Get("state") {
			writeError(w, http.StatusBadRequest, "invalid oauth state")
			return
		}

		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, http.StatusBadRequest, "missing oauth code")
			return
		}

		tok, err := oauth.conf.Exchange(r.Context(), code)
		if err != nil {
			h.log.Error("github token exchange", "err", err)
			writeError(w, http.StatusBadGateway, "GitHub login failed")
			return
		}

		profile, err := oauth.fetchProfile(r, tok)
		if err != nil {
			h.log.Error("github profile fetch", "err", err)
			writeError(w, http.StatusBadGateway, "GitHub login failed")
			return
		}
		if profile.Email == "" {
			writeError(w, http.StatusBadRequest, "GitHub account has no accessible email")
			return
		}

		user, err := h.users.GetUserByEmail(r.Context(), profile.Email)
		if err != nil || user == nil {
			name := profile.Name
			if name == "" {
				name = profile.Login
			}
			// Throwaway password; OAuth users authenticate through GitHub.
			hashed, err := bcrypt.GenerateFromPassword([]byte(uuid.New().String()), bcrypt.DefaultCost)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "Server error")
				return
			}
			user, err = h.users.CreateUser(r.Context(), name, profile.Email, string(hashed))
			if err != nil {
				h.log.Error("create oauth user", "err", err)
				writeError(w, http.StatusInternalServerError, "Server error")
				return
			}
		}

		token, err := h.jwt.Sign(user.ID)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Server error")
			return
		}

		http.Redirect(w, r,
			oauth.frontendURL+"/auth/callback?token="+token, http.StatusFound)
	}
}

func (o *GitHubOAuth) fetchProfile(r *http.Request, tok *oauth2.Token) (*githubProfile, error) {
	client := o.conf.Client(r.Context(), tok)

	var profile githubProfile
	if err := getJSON(client, o.apiBaseURL+"/user", &profile); err != nil {
		return nil, err
	}

	// The public email may be hidden; fall back to the emails endpoint.
	if profile.Email == "" {
		var emails []struct {
			Email    string `json:"email"`
			Primary  bool   `json:"primary"`
			Verified bool   `json:"verified"`
		}
		if err := getJSON(client, o.apiBaseURL+"/user/emails", &emails); err != nil {
			return nil, err
		}
		for _, e := range emails {
			if e.Primary && e.Verified {
				profile.Email = e.Email
				break
			}
		}
		if profile.Email == "" && len(emails) > 0 {
			profile.Email = emails[0].Email
		}
	}
	return &profile, nil
}

func getJSON(client *http.Client, url string, v any) error {
	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("github api %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("github api %s returned %d: %s", url, resp.StatusCode, string(body))
	}
	return json.NewDecoder(resp.Body).Decode(v)
}

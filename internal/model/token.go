package model

// TokenPair is the credential pair held by the client. Both fields are set or
// cleared together.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// TokenResponse is what the auth endpoints return. The backend has used both
// snake_case and camelCase field names over time.
type TokenResponse struct {
	AccessToken       string `json:"access_token"`
	RefreshToken      string `json:"refresh_token"`
	AccessTokenCamel  string `json:"accessToken"`
	RefreshTokenCamel string `json:"refreshToken"`
	TokenType         string `json:"token_type"`
	User              *User  `json:"user,omitempty"`
}

func (r TokenResponse) Pair() TokenPair {
	p := TokenPair{AccessToken: r.AccessToken, RefreshToken: r.RefreshToken}
	if p.AccessToken == "" {
		p.AccessToken = r.AccessTokenCamel
	}
	if p.RefreshToken == "" {
		p.RefreshToken = r.RefreshTokenCamel
	}
	return p
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// AuthSession is returned by login and registration.
type AuthSession struct {
	Tokens TokenPair
	User   *User
}

package domain

// Credentials are the username/password pair sent on login and registration.
type Credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Session is what login and registration return. Registration may omit
// the token, in which case AccessToken is "".
type Session struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	User        *User  `json:"user,omitempty"`
}

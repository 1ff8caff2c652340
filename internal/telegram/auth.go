package telegram

import "context"

// startRequest is the request body for the start method.
type startRequest struct {
	APIID   int    `json:"api_id"`
	APIHash string `json:"api_hash"`
}

// sendCodeRequest is the request body for the sendCode method.
type sendCodeRequest struct {
	Phone string `json:"phone"`
}

// signInRequest is the request body for the signIn method.
type signInRequest struct {
	Phone         string `json:"phone"`
	Code          string `json:"code"`
	PhoneCodeHash string `json:"phone_code_hash"`
}

// checkPasswordRequest is the request body for the checkPassword method.
type checkPasswordRequest struct {
	Password string `json:"password"`
}

// Start opens (or resumes) the session with the given API credentials and
// reports whether it is already authorized.
func (c *Client) Start(ctx context.Context, apiID int, apiHash string) (*AuthState, error) {
	return do[AuthState](ctx, c, "start", startRequest{APIID: apiID, APIHash: apiHash})
}

// SendCode requests a login code for the given phone number. The returned
// phone_code_hash must be passed back to SignIn.
func (c *Client) SendCode(ctx context.Context, phone string) (*AuthState, error) {
	return do[AuthState](ctx, c, "sendCode", sendCodeRequest{Phone: phone})
}

// SignIn completes the login with the code the user received. When the
// account has two-step verification enabled the gateway answers with
// SESSION_PASSWORD_NEEDED and the caller must follow up with CheckPassword.
func (c *Client) SignIn(ctx context.Context, phone, code, phoneCodeHash string) (*User, error) {
	return do[User](ctx, c, "signIn", signInRequest{
		Phone:         phone,
		Code:          code,
		PhoneCodeHash: phoneCodeHash,
	})
}

// CheckPassword supplies the two-step verification password.
func (c *Client) CheckPassword(ctx context.Context, password string) (*User, error) {
	return do[User](ctx, c, "checkPassword", checkPasswordRequest{Password: password})
}

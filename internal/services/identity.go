package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/example/carcino/internal/models"
	"github.com/example/carcino/internal/utils"
)

var (
	ErrMissingFields      = errors.New("Email, password, and name are required")
	ErrPasswordTooShort   = errors.New("Password must be at least 6 characters long")
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// IdentityError is a registration refusal reported by the identity provider.
type IdentityError struct {
	Message string
}

func (e *IdentityError) Error() string { return e.Message }

// Registration is the input of a sign up.
type Registration struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// Validate applies the checks every provider shares.
func (r Registration) Validate() error {
	if r.Email == "" || r.Password == "" || r.Name == "" {
		return ErrMissingFields
	}
	if len(r.Password) < utils.MinPasswordLength {
		return ErrPasswordTooShort
	}
	return nil
}

// Account is the public view of a registered user.
type Account struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

// AuthResult is returned by providers. Token is empty when the provider
// does not issue bearer tokens itself.
type AuthResult struct {
	Account Account
	Token   string
}

// IdentityProvider creates accounts.
type IdentityProvider interface {
	Register(ctx context.Context, reg Registration) (*AuthResult, error)
}

// Authenticator is implemented by providers that can also log users in.
type Authenticator interface {
	Login(ctx context.Context, email, password string) (*AuthResult, error)
}

// SupabaseIdentity creates users through the Supabase admin API.
type SupabaseIdentity struct {
	baseURL    string
	serviceKey string
	client     *http.Client
}

// NewSupabaseIdentity creates a provider for the project at baseURL.
func NewSupabaseIdentity(baseURL, serviceKey string) *SupabaseIdentity {
	return &SupabaseIdentity{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		client:     &http.Client{Timeout: 15 * time.Second},
	}
}

type supabaseUser struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	UserMetadata struct {
		FullName string `json:"full_name"`
	} `json:"user_metadata"`
}

// Register creates an auto-confirmed user with the name as full_name metadata.
func (s *SupabaseIdentity) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(map[string]interface{}{
		"email":         reg.Email,
		"password":      reg.Password,
		"email_confirm": true,
		"user_metadata": map[string]string{"full_name": reg.Name},
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.baseURL+"/auth/v1/admin/users", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("supabase request build: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", s.serviceKey)
	req.Header.Set("Authorization", "Bearer "+s.serviceKey)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("supabase read: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &IdentityError{Message: supabaseMessage(body, resp.StatusCode)}
	}

	var wrapped struct {
		User *supabaseUser `json:"user"`
	}
	if err := json.Unmarshal(body, &wrapped); err != nil {
		return nil, fmt.Errorf("supabase unmarshal: %w", err)
	}
	user := wrapped.User
	if user == nil {
		user = &supabaseUser{}
		if err := json.Unmarshal(body, user); err != nil {
			return nil, fmt.Errorf("supabase unmarshal: %w", err)
		}
	}

	return &AuthResult{Account: Account{
		ID:       user.ID,
		Email:    user.Email,
		FullName: user.UserMetadata.FullName,
	}}, nil
}

func supabaseMessage(body []byte, status int) string {
	var e struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if err := json.Unmarshal(body, &e); err == nil {
		if msg := firstNonEmpty(e.Msg, e.Message, e.ErrorDescription, e.Error); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("registration failed with status %d", status)
}

// LocalIdentity stores users in the service database and issues its own tokens.
type LocalIdentity struct {
	db     *gorm.DB
	secret string
	ttl    time.Duration
}

// NewLocalIdentity creates a provider backed by the users table.
func NewLocalIdentity(db *gorm.DB, secret string, ttl time.Duration) *LocalIdentity {
	return &LocalIdentity{db: db, secret: secret, ttl: ttl}
}

// Register creates a verified user and returns a token for it.
func (l *LocalIdentity) Register(ctx context.Context, reg Registration) (*AuthResult, error) {
	if err := reg.Validate(); err != nil {
		return nil, err
	}

	email := strings.ToLower(strings.TrimSpace(reg.Email))

	var existing models.User
	err := l.db.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, &IdentityError{Message: "A user with this email address has already been registered"}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	hash, err := utils.HashPassword(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		FullName:     reg.Name,
		PasswordHash: hash,
		IsVerified:   true,
	}
	if err := l.db.WithContext(ctx).Create(&user).Error; err != nil {
		return nil, err
	}

	return l.result(user)
}

// Login checks the password of an existing user.
func (l *LocalIdentity) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	var user models.User
	err := l.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(email))).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !utils.CheckPassword(user.PasswordHash, password) {
		return nil, ErrInvalidCredentials
	}

	return l.result(user)
}

func (l *LocalIdentity) result(user models.User) (*AuthResult, error) {
	token, err := utils.GenerateToken(l.secret, user.ID, user.Email, l.ttl)
	if err != nil {
		return nil, fmt.Errorf("generate token: %w", err)
	}

	return &AuthResult{
		Account: Account{ID: user.ID.String(), Email: user.Email, FullName: user.FullName},
		Token:   token,
	}, nil
}

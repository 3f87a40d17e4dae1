package services

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/expensio/expensio-be/internal/auth"
	"github.com/expensio/expensio-be/internal/models"
)

// ProfileUpdate carries the mutable profile fields. Only non-nil fields are
// written; anything else a client submits is dropped during JSON decoding.
type ProfileUpdate struct {
	Name           *string `json:"name"`
	ProfilePicture *string `json:"profilePicture"`
}

// AuthServiceProvider defines the interface for authentication services.
type AuthServiceProvider interface {
	Register(name, email, password string) (string, models.User, error)
	Login(email, password string) (string, models.User, error)
	GetProfile(userID string) (models.User, error)
	UpdateProfile(userID string, update ProfileUpdate) (models.User, error)
	ChangePassword(userID, currentPassword, newPassword string) error
	VerifyToken(token string) (models.User, error)
	RefreshToken(userID string) (string, error)
}

// AuthService provides business logic for registration, login and profiles.
type AuthService struct {
	db     *sql.DB
	issuer *auth.Issuer
}

// NewAuthService creates a new AuthService.
func NewAuthService(db *sql.DB, issuer *auth.Issuer) *AuthService {
	return &AuthService{db: db, issuer: issuer}
}

const userColumns = "id, name, email, password_hash, role, is_active, profile_picture, last_login, created_at"

func scanUser(row interface{ Scan(...interface{}) error }) (models.User, error) {
	var user models.User
	var lastLogin sql.NullTime
	err := row.Scan(&user.ID, &user.Name, &user.Email, &user.PasswordHash,
		&user.Role, &user.IsActive, &user.ProfilePicture, &lastLogin, &user.CreatedAt)
	if err != nil {
		return models.User{}, err
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}
	return user, nil
}

// Register creates a new user with a hashed password and issues a token.
func (s *AuthService) Register(name, email, password string) (string, models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	var existing string
	err := s.db.QueryRow("SELECT id FROM users WHERE email = ?", email).Scan(&existing)
	if err == nil {
		return "", models.User{}, ErrDuplicateEmail
	}
	if err != sql.ErrNoRows {
		return "", models.User{}, err
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", models.User{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hashedPassword),
		Role:         models.RoleUser,
		IsActive:     true,
		CreatedAt:    time.Now().UTC(),
	}

	stmt, err := s.db.Prepare("INSERT INTO users(id, name, email, password_hash, role, is_active, created_at) VALUES(?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return "", models.User{}, err
	}
	defer stmt.Close()

	if _, err = stmt.Exec(user.ID, user.Name, user.Email, user.PasswordHash, user.Role, user.IsActive, user.CreatedAt); err != nil {
		// Backstop for the race between the pre-check and the insert.
		if strings.Contains(err.Error(), "UNIQUE") {
			return "", models.User{}, ErrDuplicateEmail
		}
		return "", models.User{}, err
	}

	token, err := s.issuer.Generate(user.ID)
	if err != nil {
		return "", models.User{}, fmt.Errorf("failed to generate token: %w", err)
	}

	user.PasswordHash = ""
	return token, user, nil
}

// Login verifies a user's credentials, records the login time and issues a
// token. Unknown email and wrong password return the same error.
func (s *AuthService) Login(email, password string) (string, models.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE email = ?", email)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", models.User{}, ErrInvalidCredentials
		}
		return "", models.User{}, err
	}

	if !user.IsActive {
		return "", models.User{}, ErrAccountDeactivated
	}

	if err = bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", models.User{}, ErrInvalidCredentials
	}

	now := time.Now().UTC()
	if _, err = s.db.Exec("UPDATE users SET last_login = ? WHERE id = ?", now, user.ID); err != nil {
		return "", models.User{}, err
	}
	user.LastLogin = &now

	token, err := s.issuer.Generate(user.ID)
	if err != nil {
		return "", models.User{}, fmt.Errorf("failed to generate token: %w", err)
	}

	user.PasswordHash = ""
	return token, user, nil
}

// GetProfile retrieves a single user by their ID.
func (s *AuthService) GetProfile(userID string) (models.User, error) {
	row := s.db.QueryRow("SELECT "+userColumns+" FROM users WHERE id = ?", userID)
	user, err := scanUser(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return models.User{}, ErrUserNotFound
		}
		return models.User{}, err
	}
	user.PasswordHash = ""
	return user, nil
}

// UpdateProfile writes the allow-listed profile fields and returns the
// updated user.
func (s *AuthService) UpdateProfile(userID string, update ProfileUpdate) (models.User, error) {
	var sets []string
	var args []interface{}
	if update.Name != nil {
		sets = append(sets, "name = ?")
		args = append(args, *update.Name)
	}
	if update.ProfilePicture != nil {
		sets = append(sets, "profile_picture = ?")
		args = append(args, *update.ProfilePicture)
	}

	if len(sets) > 0 {
		args = append(args, userID)
		res, err := s.db.Exec("UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
		if err != nil {
			return models.User{}, err
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return models.User{}, ErrUserNotFound
		}
	}

	return s.GetProfile(userID)
}

// ChangePassword verifies the current password, then hashes and stores the
// new one.
func (s *AuthService) ChangePassword(userID, currentPassword, newPassword string) error {
	var passwordHash string
	err := s.db.QueryRow("SELECT password_hash FROM users WHERE id = ?", userID).Scan(&passwordHash)
	if err != nil {
		if err == sql.ErrNoRows {
			return ErrUserNotFound
		}
		return err
	}

	if err = bcrypt.CompareHashAndPassword([]byte(passwordHash), []byte(currentPassword)); err != nil {
		return ErrIncorrectPassword
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash new password: %w", err)
	}

	_, err = s.db.Exec("UPDATE users SET password_hash = ? WHERE id = ?", string(hashedPassword), userID)
	return err
}

// VerifyToken resolves a bearer token to an active user. Token failures,
// missing users and deactivated users all collapse into ErrInvalidToken.
func (s *AuthService) VerifyToken(token string) (models.User, error) {
	userID, err := s.issuer.Validate(token)
	if err != nil {
		return models.User{}, ErrInvalidToken
	}

	user, err := s.GetProfile(userID)
	if err != nil {
		return models.User{}, ErrInvalidToken
	}
	if !user.IsActive {
		return models.User{}, ErrInvalidToken
	}
	return user, nil
}

// RefreshToken issues a fresh token for an already-authenticated user.
func (s *AuthService) RefreshToken(userID string) (string, error) {
	return s.issuer.Generate(userID)
}

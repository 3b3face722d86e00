package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bookclub/api/internal/auth"
	"github.com/bookclub/api/internal/kv"
	"github.com/bookclub/api/internal/models"
	"github.com/bookclub/api/internal/storage"
	"github.com/bookclub/api/pkg/logger"
	"github.com/bookclub/api/pkg/utils"
	"github.com/go-playground/validator/v10"
)

type UserService struct {
	users    storage.UserStore
	tokens   *kv.ResetTokens
	mailer   Mailer
	resetURL string
}

func NewUserService(users storage.UserStore, tokens *kv.ResetTokens, mailer Mailer, resetURL string) *UserService {
	if mailer == nil {
		mailer = LogMailer{}
	}
	return &UserService{users: users, tokens: tokens, mailer: mailer, resetURL: resetURL}
}

// UserResult carries either the signed in user or field errors.
type UserResult struct {
	User   *models.User
	Errors []FieldError
}

func fieldFailure(field, message string) *UserResult {
	return &UserResult{Errors: []FieldError{{Field: field, Message: message}}}
}

type RegisterInput struct {
	Email    string `validate:"min=3,contains=@"`
	Password string `validate:"min=6,bcryptlen"`
	Name     string `validate:"required"`
}

const passwordTooLong = "Your password must be at most 72 bytes long"

var registerMessages = map[string]string{
	"Email.min":          "Your email must be at least 3 characters long",
	"Email.contains":     "You must enter a valid email",
	"Password.min":       "Your password must be at least 6 characters long",
	"Password.bcryptlen": passwordTooLong,
	"Name.required":      "You must include your name",
}

// ValidateRegister returns the first failing rule, or nil.
func ValidateRegister(in RegisterInput) []FieldError {
	err := validate.Struct(in)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return []FieldError{{Field: "email", Message: err.Error()}}
	}

	first := verrs[0]
	message, ok := registerMessages[first.StructField()+"."+first.Tag()]
	if !ok {
		message = first.Error()
	}
	return []FieldError{{Field: strings.ToLower(first.StructField()), Message: message}}
}

// Register creates the account and signs the session in.
func (s *UserService) Register(ctx context.Context, session auth.Session, in RegisterInput) (*UserResult, error) {
	if errs := ValidateRegister(in); errs != nil {
		return &UserResult{Errors: errs}, nil
	}

	hash, err := utils.HashPassword(in.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &models.User{
		Email:        strings.ToLower(in.Email),
		PasswordHash: hash,
		Name:         in.Name,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if storage.IsDuplicate(err) {
			return fieldFailure("email", "This email is already taken"), nil
		}
		return nil, err
	}

	if err := session.Login(user.ID); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &UserResult{User: user}, nil
}

func (s *UserService) Login(ctx context.Context, session auth.Session, email, password string) (*UserResult, error) {
	user, err := s.users.UserByEmail(ctx, strings.ToLower(email))
	if errors.Is(err, storage.ErrNotFound) {
		return fieldFailure("email", "That email does not exist"), nil
	}
	if err != nil {
		return nil, err
	}

	if !utils.CheckPassword(password, user.PasswordHash) {
		return fieldFailure("password", "incorrect password"), nil
	}

	if err := session.Login(user.ID); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &UserResult{User: user}, nil
}

func (s *UserService) Logout(session auth.Session) bool {
	if err := session.Logout(); err != nil {
		logger.Error("logout_failed", err, nil)
		return false
	}
	return true
}

// ForgotPassword always reports success so callers cannot probe for
// registered addresses.
func (s *UserService) ForgotPassword(ctx context.Context, email string) bool {
	user, err := s.users.UserByEmail(ctx, strings.ToLower(email))
	if err != nil {
		if !errors.Is(err, storage.ErrNotFound) {
			logger.Error("forgot_password_lookup_failed", err, nil)
		}
		return true
	}

	token, err := s.tokens.Issue(ctx, user.ID)
	if err != nil {
		logger.Error("reset_token_issue_failed", err, map[string]interface{}{"user_id": user.ID})
		return true
	}

	if err := s.mailer.SendPasswordReset(ctx, user.Email, s.resetURL+token); err != nil {
		logger.Error("reset_mail_failed", err, map[string]interface{}{"user_id": user.ID})
	}
	return true
}

// ChangePassword consumes a reset token and signs the session in as its
// owner.
func (s *UserService) ChangePassword(ctx context.Context, session auth.Session, token, newPassword string) (*UserResult, error) {
	if len([]rune(newPassword)) <= 5 {
		return fieldFailure("password", "Your password must be at least 6 characters long"), nil
	}
	if len(newPassword) > utils.MaxPasswordBytes {
		return fieldFailure("password", passwordTooLong), nil
	}

	userID, err := s.tokens.Lookup(ctx, token)
	if errors.Is(err, kv.ErrTokenNotFound) {
		return fieldFailure("token", "token expired"), nil
	}
	if err != nil {
		return nil, err
	}

	user, err := s.users.UserByID(ctx, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return fieldFailure("token", "user no longer exists"), nil
	}
	if err != nil {
		return nil, err
	}

	hash, err := utils.HashPassword(newPassword)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	if err := s.users.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	if err := s.tokens.Delete(ctx, token); err != nil {
		logger.Error("reset_token_delete_failed", err, map[string]interface{}{"user_id": user.ID})
	}
	if err := session.Login(user.ID); err != nil {
		return nil, fmt.Errorf("start session: %w", err)
	}
	return &UserResult{User: user}, nil
}

// Me returns the signed in user, nil when anonymous or deleted.
func (s *UserService) Me(ctx context.Context) (*models.User, error) {
	id, ok := auth.CurrentUserID(ctx)
	if !ok {
		return nil, nil
	}
	user, err := s.users.UserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

func (s *UserService) All(ctx context.Context) ([]models.User, error) {
	return s.users.ListUsers(ctx)
}

func (s *UserService) ByID(ctx context.Context, id uint) (*models.User, error) {
	user, err := s.users.UserByID(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil
	}
	return user, err
}

package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"marketplace/internal/apperr"
	"marketplace/internal/auth"
	"marketplace/internal/models"
	"marketplace/internal/store"
)

type AccountService struct {
	accounts store.Accounts
	hasher   *auth.Hasher
	tokens   *auth.TokenService
	validate *validator.Validate
	log      *zap.Logger
	now      func() time.Time
}

type RegisterInput struct {
	Name     string      `json:"name" validate:"required,max=100"`
	Phone    string      `json:"phone" validate:"required,e164"`
	Password string      `json:"password" validate:"required,min=6,max=72"`
	Email    string      `json:"email" validate:"omitempty,email,max=254"`
	Role     models.Role `json:"role" validate:"omitempty,oneof=customer shop_owner"`
}

type ProfileInput struct {
	Name   *string `json:"name" validate:"omitempty,min=1,max=100"`
	Email  *string `json:"email" validate:"omitempty,email,max=254"`
	Avatar *string `json:"avatar" validate:"omitempty,max=2048"`
}

// Session is what register and login hand back to the client.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expiresAt"`
	Account   *models.Account `json:"account"`
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*Session, error) {
	in.Name = strings.TrimSpace(in.Name)
	in.Phone = strings.TrimSpace(in.Phone)
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}
	if in.Role == "" {
		in.Role = models.RoleCustomer
	}

	if err := s.ensureUnique(ctx, in.Phone, in.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "password hash failed", err)
	}

	now := s.now()
	account := &models.Account{
		Name:         in.Name,
		Phone:        in.Phone,
		Email:        in.Email,
		PasswordHash: hash,
		Role:         in.Role,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.New(apperr.DuplicateIdentity, "phone or email already registered")
		}
		return nil, apperr.Wrap(apperr.Internal, "create account", err)
	}

	s.log.Info("account registered", zap.String("accountId", account.ID.Hex()), zap.String("role", string(account.Role)))
	return s.session(account)
}

func (s *AccountService) Authenticate(ctx context.Context, phone, password string) (*Session, error) {
	phone = strings.TrimSpace(phone)
	if phone == "" || password == "" {
		return nil, apperr.New(apperr.Validation, "phone and password are required")
	}

	account, err := s.accounts.FindByPhone(ctx, phone)
	switch {
	case errors.Is(err, store.ErrNotFound):
		s.hasher.CheckMissing(password)
		return nil, apperr.New(apperr.InvalidCredentials, "invalid credentials")
	case err != nil:
		return nil, apperr.Wrap(apperr.Internal, "find account", err)
	}

	if !s.hasher.Check(account.PasswordHash, password) {
		s.log.Info("login rejected", zap.String("accountId", account.ID.Hex()))
		return nil, apperr.New(apperr.InvalidCredentials, "invalid credentials")
	}
	return s.session(account)
}

func (s *AccountService) UpdateProfile(ctx context.Context, actor *models.Account, in ProfileInput) (*models.Account, error) {
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		in.Name = &name
	}
	if in.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*in.Email))
		in.Email = &email
	}
	if err := validateInput(s.validate, in); err != nil {
		return nil, err
	}

	account, err := s.accounts.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, storeErr(err, "account not found")
	}

	if in.Name != nil {
		account.Name = *in.Name
	}
	if in.Email != nil && *in.Email != account.Email {
		if *in.Email != "" {
			if _, err := s.accounts.FindByEmail(ctx, *in.Email); err == nil {
				return nil, apperr.New(apperr.DuplicateIdentity, "email already registered")
			} else if !errors.Is(err, store.ErrNotFound) {
				return nil, apperr.Wrap(apperr.Internal, "find account", err)
			}
		}
		account.Email = *in.Email
	}
	if in.Avatar != nil {
		account.Avatar = strings.TrimSpace(*in.Avatar)
	}
	account.UpdatedAt = s.now()

	if err := s.accounts.Update(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return nil, apperr.New(apperr.DuplicateIdentity, "email already registered")
		}
		return nil, storeErr(err, "account not found")
	}
	return account, nil
}

// EnsureAdmin creates the admin account when no account uses phone yet. It
// reports whether an account was created. A non-admin account on the same
// phone is a Conflict and is left untouched.
func (s *AccountService) EnsureAdmin(ctx context.Context, name, phone, password string) (*models.Account, bool, error) {
	phone = strings.TrimSpace(phone)
	existing, err := s.accounts.FindByPhone(ctx, phone)
	switch {
	case err == nil && existing.Role == models.RoleAdmin:
		return existing, false, nil
	case err == nil:
		return nil, false, apperr.New(apperr.Conflict, "admin phone belongs to a non-admin account")
	case !errors.Is(err, store.ErrNotFound):
		return nil, false, apperr.Wrap(apperr.Internal, "find account", err)
	}

	if err := s.validate.Var(phone, "required,e164"); err != nil {
		return nil, false, apperr.FromValidation(err)
	}
	if len(password) < 6 {
		return nil, false, apperr.New(apperr.Validation, "admin password must have at least 6 characters")
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, false, apperr.Wrap(apperr.Internal, "password hash failed", err)
	}
	now := s.now()
	account := &models.Account{
		Name:         strings.TrimSpace(name),
		Phone:        phone,
		PasswordHash: hash,
		Role:         models.RoleAdmin,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, store.ErrDuplicate) {
			return s.EnsureAdmin(ctx, name, phone, password)
		}
		return nil, false, apperr.Wrap(apperr.Internal, "create admin", err)
	}
	return account, true, nil
}

func (s *AccountService) ensureUnique(ctx context.Context, phone, email string) error {
	if _, err := s.accounts.FindByPhone(ctx, phone); err == nil {
		return apperr.New(apperr.DuplicateIdentity, "phone already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(apperr.Internal, "find account", err)
	}

	if email == "" {
		return nil
	}
	if _, err := s.accounts.FindByEmail(ctx, email); err == nil {
		return apperr.New(apperr.DuplicateIdentity, "email already registered")
	} else if !errors.Is(err, store.ErrNotFound) {
		return apperr.Wrap(apperr.Internal, "find account", err)
	}
	return nil
}

func (s *AccountService) session(account *models.Account) (*Session, error) {
	token, expiresAt, err := s.tokens.Issue(account.ID)
	if err != nil {
		return nil, apperr.Wrap(apperr.Internal, "token generation failed", err)
	}
	return &Session{Token: token, ExpiresAt: expiresAt, Account: account}, nil
}

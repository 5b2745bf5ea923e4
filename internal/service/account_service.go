package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/fitlgui/Api-OurThree/internal/logging"
	"github.com/fitlgui/Api-OurThree/internal/model"
	"github.com/fitlgui/Api-OurThree/internal/queue"
	"github.com/fitlgui/Api-OurThree/internal/repository"
	"github.com/fitlgui/Api-OurThree/internal/utils"
)

// UserStore is the persistence the account service needs.
// *repository.UserRepo implements it.
type UserStore interface {
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	Create(ctx context.Context, u model.User) error
	GetByUsername(ctx context.Context, username string) (model.User, error)
}

// EventPublisher publishes domain events.  *queue.Publisher implements it.
type EventPublisher interface {
	Publish(ctx context.Context, ev queue.Event) error
}

// RegisterInput carries a registration request.  AdminKey is the raw
// credential presented by the caller.
type RegisterInput struct {
	Username string
	Email    string
	Password string
	AdminKey string
}

// AccountService handles admin-gated registration and credential checks.
type AccountService struct {
	users  UserStore
	admin  AdminAuthorizer
	cost   int
	events EventPublisher
	log    logging.Logger
}

// NewAccountService wires the service.  events may be nil.
func NewAccountService(users UserStore, admin AdminAuthorizer, bcryptCost int, events EventPublisher, log logging.Logger) *AccountService {
	return &AccountService{users: users, admin: admin, cost: bcryptCost, events: events, log: log}
}

// Authorized reports whether credential passes the admin check.
func (s *AccountService) Authorized(credential string) bool {
	return s.admin.Authorize(credential)
}

// Register creates a user.  The admin check runs before anything touches
// the store.  The existence lookups give the common case a clean answer;
// the unique indexes behind Create catch registrations racing past them.
func (s *AccountService) Register(ctx context.Context, in RegisterInput) error {
	if !s.admin.Authorize(in.AdminKey) {
		return ErrInvalidAdminKey
	}
	if strings.TrimSpace(in.Username) == "" || strings.TrimSpace(in.Email) == "" || in.Password == "" {
		return ErrMissingFields
	}

	taken, err := s.users.ExistsByUsername(ctx, in.Username)
	if err != nil {
		return internal("lookup username", err)
	}
	if !taken {
		taken, err = s.users.ExistsByEmail(ctx, in.Email)
		if err != nil {
			return internal("lookup email", err)
		}
	}
	if taken {
		return ErrUserExists
	}

	hash, err := utils.HashPassword(in.Password, s.cost)
	if err != nil {
		if errors.Is(err, utils.ErrPasswordTooLong) {
			return ErrPasswordTooLong
		}
		return internal("hash password", err)
	}

	now := time.Now().UTC()
	err = s.users.Create(ctx, model.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: hash,
		CreatedAt:    now,
	})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return ErrUserExists
		}
		return internal("insert user", err)
	}

	s.log.Info(ctx, "user registered", "username", in.Username)
	s.publish(ctx, queue.UserRegisteredEvent{Username: in.Username, Email: in.Email, RegisteredAt: now})
	return nil
}

// Login verifies username and password.  Nothing is issued on success.
func (s *AccountService) Login(ctx context.Context, username, password string) error {
	u, err := s.users.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return internal("find user", err)
	}
	if err := utils.CheckPassword(u.PasswordHash, password); err != nil {
		if errors.Is(err, utils.ErrMismatch) {
			return ErrInvalidPassword
		}
		return internal("verify password", err)
	}
	return nil
}

func (s *AccountService) publish(ctx context.Context, ev queue.Event) {
	if s.events == nil {
		return
	}
	if err := s.events.Publish(ctx, ev); err != nil {
		s.log.Warn(ctx, "event publish failed", "routing_key", ev.RoutingKey(), "err", err)
	}
}

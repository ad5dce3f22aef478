package service

import (
	"context"

	"yamdb/database"
	"yamdb/internal/microservices/http-api/dto"
	"yamdb/internal/microservices/http-api/models"
	"yamdb/internal/microservices/http-api/repository"
)

type UserService interface {
	List(ctx context.Context, q dto.UserListQuery) (dto.Paginated[dto.UserResponse], error)
	Get(ctx context.Context, username string) (*dto.UserResponse, error)
	Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error)
	Update(ctx context.Context, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error)
	Delete(ctx context.Context, username string) error

	// UpdateProfile applies a self-service edit; the role field is ignored.
	UpdateProfile(ctx context.Context, actor *models.User, req dto.UpdateUserRequest) (*dto.UserResponse, error)

	SetRole(ctx context.Context, username string, role models.Role) error
	CreateSuperuser(ctx context.Context, username, email string) (*models.User, error)
}

type userService struct {
	users repository.UserRepository
}

func NewUserService(users repository.UserRepository) UserService {
	return &userService{users: users}
}

func (s *userService) List(ctx context.Context, q dto.UserListQuery) (dto.Paginated[dto.UserResponse], error) {
	page := q.PageQuery.Normalize()
	list, total, err := s.users.List(ctx, q.Search, repository.Page{Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		return dto.Paginated[dto.UserResponse]{}, err
	}

	resp := make([]dto.UserResponse, 0, len(list))
	for i := range list {
		resp = append(resp, dto.UserFromModel(&list[i]))
	}
	return dto.NewPaginated(resp, total, page), nil
}

func (s *userService) Get(ctx context.Context, username string) (*dto.UserResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	resp := dto.UserFromModel(user)
	return &resp, nil
}

// ensureAvailable rejects a username or email held by a user other than self.
func (s *userService) ensureAvailable(ctx context.Context, self *models.User, username, email string) error {
	if username != "" {
		other, err := lookupUser(ctx, s.users.FindByUsername, username)
		if err != nil {
			return err
		}
		if other != nil && (self == nil || other.ID != self.ID) {
			return ErrUsernameTaken
		}
	}
	if email != "" {
		other, err := lookupUser(ctx, s.users.FindByEmail, email)
		if err != nil {
			return err
		}
		if other != nil && (self == nil || other.ID != self.ID) {
			return ErrEmailTaken
		}
	}
	return nil
}

func (s *userService) Create(ctx context.Context, req dto.CreateUserRequest) (*dto.UserResponse, error) {
	if err := models.ValidateUsername(req.Username); err != nil {
		return nil, newValidationError("username", err.Error())
	}
	if err := s.ensureAvailable(ctx, nil, req.Username, req.Email); err != nil {
		return nil, err
	}

	role := models.RoleUser
	if req.Role != "" {
		parsed, err := models.ParseRole(req.Role)
		if err != nil {
			return nil, newValidationError("role", err.Error())
		}
		role = parsed
	}

	user := &models.User{
		Username:  req.Username,
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Bio:       req.Bio,
		Role:      role,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}

	resp := dto.UserFromModel(user)
	return &resp, nil
}

func (s *userService) Update(ctx context.Context, username string, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.apply(ctx, user, req)
}

func (s *userService) UpdateProfile(ctx context.Context, actor *models.User, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	req.Role = nil
	// work on a fresh copy so a failed update leaves the request's user intact
	user, err := s.users.FindByID(ctx, actor.ID)
	if err != nil {
		return nil, notFound(err, ErrUserNotFound)
	}
	return s.apply(ctx, user, req)
}

func (s *userService) apply(ctx context.Context, user *models.User, req dto.UpdateUserRequest) (*dto.UserResponse, error) {
	var newName, newEmail string
	if req.Username != nil && *req.Username != user.Username {
		if err := models.ValidateUsername(*req.Username); err != nil {
			return nil, newValidationError("username", err.Error())
		}
		newName = *req.Username
	}
	if req.Email != nil && *req.Email != user.Email {
		newEmail = *req.Email
	}
	if err := s.ensureAvailable(ctx, user, newName, newEmail); err != nil {
		return nil, err
	}

	if newName != "" {
		user.Username = newName
	}
	if newEmail != "" {
		user.Email = newEmail
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if req.Bio != nil {
		user.Bio = *req.Bio
	}
	if req.Role != nil {
		role, err := models.ParseRole(*req.Role)
		if err != nil {
			return nil, newValidationError("role", err.Error())
		}
		user.Role = role
	}

	if err := s.users.Update(ctx, user); err != nil {
		if database.IsUniqueViolation(err) {
			return nil, ErrUsernameTaken
		}
		return nil, err
	}
	resp := dto.UserFromModel(user)
	return &resp, nil
}

func (s *userService) Delete(ctx context.Context, username string) error {
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	return notFound(s.users.Delete(ctx, user.ID), ErrUserNotFound)
}

func (s *userService) SetRole(ctx context.Context, username string, role models.Role) error {
	if !role.Valid() {
		return newValidationError("role", "unknown role "+string(role))
	}
	user, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return notFound(err, ErrUserNotFound)
	}
	user.Role = role
	return s.users.Update(ctx, user)
}

// CreateSuperuser creates an admin with the superuser flag set, or promotes
// the existing user with that username and email.
func (s *userService) CreateSuperuser(ctx context.Context, username, email string) (*models.User, error) {
	if err := models.ValidateUsername(username); err != nil {
		return nil, newValidationError("username", err.Error())
	}

	user, err := lookupUser(ctx, s.users.FindByUsername, username)
	if err != nil {
		return nil, err
	}
	if user != nil {
		if user.Email != email {
			return nil, ErrUsernameTaken
		}
		user.Role = models.RoleAdmin
		user.IsSuperuser = true
		return user, s.users.Update(ctx, user)
	}

	if err := s.ensureAvailable(ctx, nil, "", email); err != nil {
		return nil, err
	}
	user = &models.User{
		Username:    username,
		Email:       email,
		Role:        models.RoleAdmin,
		IsSuperuser: true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

package service

import (
	"context"
	"errors"
	"regexp"

	"sprintdesk/internal/sprintdesk/auth"
	"sprintdesk/internal/sprintdesk/model"
	"sprintdesk/internal/sprintdesk/repository"
)

func (s *Service) Login(ctx context.Context, req model.LoginReq) (*model.LoginResp, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	user, err := s.Users.FindOne(ctx, repository.Filter{"email": req.Email})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newError(ErrUnauthorized, "invalid email or password")
		}
		return nil, err
	}
	if err := auth.CheckPassword(user.PasswordHash, req.Password); err != nil {
		if errors.Is(err, auth.ErrPasswordMismatch) {
			return nil, newError(ErrUnauthorized, "invalid email or password")
		}
		return nil, err
	}
	if !user.Active {
		return nil, newError(ErrUnauthorized, "account is disabled")
	}

	token, expiresAt, err := s.tokens.Issue(user)
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "user logged in", "user_id", user.ID)
	return &model.LoginResp{Token: token, ExpiresAt: expiresAt, User: user}, nil
}

// CreateAdmin bootstraps an admin account outside any request.
func (s *Service) CreateAdmin(ctx context.Context, req model.CreateUserReq) (*model.User, error) {
	req.Role = model.RoleAdmin
	return s.createUser(ctx, model.Caller{ID: "system", Role: model.RoleAdmin}, req)
}

func (s *Service) CreateUser(ctx context.Context, caller model.Caller, req model.CreateUserReq) (*model.User, error) {
	if !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.createUser(ctx, caller, req)
}

func (s *Service) createUser(ctx context.Context, caller model.Caller, req model.CreateUserReq) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user := &model.User{
		Name:         req.Name,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         req.Role,
		Active:       true,
	}
	user.Init(s.newID(), s.clock())

	if err := s.Users.Insert(ctx, user); err != nil {
		return nil, conflictOnDuplicate(err, "email %s is already registered", req.Email)
	}

	s.audit(ctx, "user.create", caller, "user_id", user.ID, "role", user.Role)
	return user, nil
}

func (s *Service) GetUser(ctx context.Context, id string) (*model.User, error) {
	return lookup(ctx, s.Users, "user", id)
}

func (s *Service) ListUsers(ctx context.Context, req model.ListUsersReq) (*model.Page[model.User], error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	filter := repository.Filter{}
	if req.Role != "" {
		filter["role"] = req.Role
	}
	if req.Query != "" {
		pattern := map[string]any{"$regex": regexp.QuoteMeta(req.Query), "$options": "i"}
		filter["$or"] = []map[string]any{{"name": pattern}, {"email": pattern}}
	}

	users, total, err := s.Users.Find(ctx, filter, req.PageReq)
	if err != nil {
		return nil, err
	}
	return model.NewPage(users, req.PageReq, total), nil
}

// UpdateUser applies a partial update. Only admins change role or active.
func (s *Service) UpdateUser(ctx context.Context, caller model.Caller, id string, req model.UpdateUserReq) (*model.User, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		if caller.ID != id {
			return nil, ErrForbidden
		}
		if req.Role != nil || req.Active != nil {
			return nil, newError(ErrForbidden, "only admins can change role or active")
		}
	}
	if caller.ID == id {
		if req.Role != nil && *req.Role != caller.Role {
			return nil, newError(ErrBadRequest, "you cannot change your own role")
		}
		if req.Active != nil && !*req.Active {
			return nil, newError(ErrBadRequest, "you cannot disable your own account")
		}
	}

	user, err := lookup(ctx, s.Users, "user", id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		user.Name = *req.Name
	}
	if req.Email != nil {
		user.Email = *req.Email
	}
	if req.Role != nil {
		user.Role = *req.Role
	}
	if req.Active != nil {
		user.Active = *req.Active
	}
	user.UpdatedAt = s.clock()

	if err := s.Users.Replace(ctx, id, user); err != nil {
		return nil, notFoundAs(conflictOnDuplicate(err, "email %s is already registered", user.Email), "user")
	}

	s.audit(ctx, "user.update", caller, "user_id", id)
	return user, nil
}

// ChangePassword requires the current password unless an admin resets someone else's.
func (s *Service) ChangePassword(ctx context.Context, caller model.Caller, id string, req model.ChangePasswordReq) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if caller.ID != id && !caller.IsAdmin() {
		return ErrForbidden
	}

	user, err := lookup(ctx, s.Users, "user", id)
	if err != nil {
		return err
	}

	if caller.ID == id {
		if err := auth.CheckPassword(user.PasswordHash, req.CurrentPassword); err != nil {
			if errors.Is(err, auth.ErrPasswordMismatch) {
				return newError(ErrBadRequest, "current password is incorrect")
			}
			return err
		}
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		return err
	}
	user.PasswordHash = hash
	user.UpdatedAt = s.clock()

	if err := s.Users.Replace(ctx, id, user); err != nil {
		return notFoundAs(err, "user")
	}
	s.audit(ctx, "user.change_password", caller, "user_id", id)
	return nil
}

// DeleteUser removes a user and their memberships. Leads must be replaced first.
func (s *Service) DeleteUser(ctx context.Context, caller model.Caller, id string) error {
	if !caller.IsAdmin() {
		return ErrForbidden
	}
	if caller.ID == id {
		return newError(ErrBadRequest, "you cannot delete your own account")
	}
	if _, err := lookup(ctx, s.Users, "user", id); err != nil {
		return err
	}

	var refs []model.ResourceRef
	for _, resourceType := range []string{model.ResourceTypeProject, model.ResourceTypeSprint} {
		ids, err := s.Memberships.ListResourceIDs(ctx, id, resourceType)
		if err != nil {
			return err
		}
		for _, rid := range ids {
			ref := model.ResourceRef{Type: resourceType, ID: rid}
			m, err := s.Memberships.GetMembership(ctx, ref, id)
			if err != nil && !errors.Is(err, repository.ErrNotFound) {
				return err
			}
			if m != nil && m.IsLead() {
				return newError(ErrConflict, "user still leads %s %s", resourceType, rid)
			}
			refs = append(refs, ref)
		}
	}

	for _, ref := range refs {
		if err := s.Memberships.RemoveMember(ctx, ref, id); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return err
		}
	}
	if err := s.unassignTasks(ctx, repository.Filter{"assignee_id": id}); err != nil {
		return err
	}

	if err := s.Users.Delete(ctx, id); err != nil {
		return notFoundAs(err, "user")
	}
	s.audit(ctx, "user.delete", caller, "user_id", id, "memberships_removed", len(refs))
	return nil
}

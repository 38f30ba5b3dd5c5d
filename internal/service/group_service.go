package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/langufy-api/internal/models"
	"github.com/noah-isme/langufy-api/internal/repository"
	appErrors "github.com/noah-isme/langufy-api/pkg/errors"
)

type groupRepository interface {
	Create(ctx context.Context, group *models.Group) error
	FindByID(ctx context.Context, id string) (*models.Group, error)
	ListForUser(ctx context.Context, userID string) ([]models.Group, error)
	Update(ctx context.Context, group *models.Group) error
	Delete(ctx context.Context, id string) error
	IsMember(ctx context.Context, groupID, userID string) (bool, error)
	ListMembers(ctx context.Context, groupID string) ([]models.MemberSummary, error)
	AddMember(ctx context.Context, groupID, userID string) (int, error)
	RemoveMember(ctx context.Context, groupID, userID string) (int, error)
}

type groupUserRepository interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// GroupService manages groups and their membership. Every operation resolves
// the group before checking the caller's access to it.
type GroupService struct {
	repo      groupRepository
	users     groupUserRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewGroupService constructs a GroupService.
func NewGroupService(repo groupRepository, users groupUserRepository, validate *validator.Validate, logger *zap.Logger) *GroupService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GroupService{repo: repo, users: users, validator: newValidator(validate), logger: logger}
}

// Create stores a new group owned by the caller. Only teachers and above may
// create groups.
func (s *GroupService) Create(ctx context.Context, caller *models.User, req models.CreateGroupRequest, meta models.RequestMeta) (*models.Group, error) {
	if !caller.Role.HasPermission(models.RoleTeacher) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can create groups")
	}
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}

	group := &models.Group{
		Name:        req.Name,
		Description: req.Description,
		OwnerID:     caller.ID,
	}
	if err := s.repo.Create(ctx, group); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create group")
	}

	s.audit(ctx, caller, models.AuditActionGroupCreate, group.ID, nil, map[string]interface{}{"name": group.Name}, meta)
	return group, nil
}

// Get returns a group with its member summaries to its owner or members.
func (s *GroupService) Get(ctx context.Context, caller *models.User, id string) (*models.GroupDetail, error) {
	group, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if group.OwnerID != caller.ID {
		member, err := s.repo.IsMember(ctx, group.ID, caller.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check membership")
		}
		if !member {
			return nil, appErrors.Clone(appErrors.ErrForbidden, "no access to this group")
		}
	}

	members, err := s.repo.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load members")
	}
	return &models.GroupDetail{Group: *group, Members: members}, nil
}

// ListMine returns the groups the caller owns or belongs to.
func (s *GroupService) ListMine(ctx context.Context, caller *models.User) ([]models.Group, error) {
	groups, err := s.repo.ListForUser(ctx, caller.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list groups")
	}
	return groups, nil
}

// Update applies a partial update. Owner only.
func (s *GroupService) Update(ctx context.Context, caller *models.User, id string, req models.UpdateGroupRequest, meta models.RequestMeta) (*models.Group, error) {
	if req.Name != nil {
		trimmed := strings.TrimSpace(*req.Name)
		req.Name = &trimmed
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid group payload")
	}

	group, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}
	old := map[string]interface{}{"name": group.Name, "description": group.Description}

	if req.Name != nil {
		group.Name = *req.Name
	}
	if req.Description != nil {
		group.Description = req.Description
	}

	if err := s.repo.Update(ctx, group); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update group")
	}

	s.audit(ctx, caller, models.AuditActionGroupUpdate, group.ID, old, map[string]interface{}{"name": group.Name, "description": group.Description}, meta)
	return group, nil
}

// Delete removes a group and its memberships. Owner only.
func (s *GroupService) Delete(ctx context.Context, caller *models.User, id string, meta models.RequestMeta) error {
	group, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, group.ID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete group")
	}

	s.audit(ctx, caller, models.AuditActionGroupDelete, group.ID, map[string]interface{}{"name": group.Name}, nil, meta)
	return nil
}

// AddMember puts a user into the group's member set. Owner only.
func (s *GroupService) AddMember(ctx context.Context, caller *models.User, id string, req models.GroupMemberRequest, meta models.RequestMeta) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid member payload")
	}

	group, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	if _, err := s.users.FindByID(ctx, req.UserID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load user")
	}

	count, err := s.repo.AddMember(ctx, group.ID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrAlreadyMember):
			return nil, appErrors.Clone(appErrors.ErrConflict, "user is already a member")
		case errors.Is(err, repository.ErrMissingReference):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user not found")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to add member")
	}
	group.MembersCount = count

	s.audit(ctx, caller, models.AuditActionMemberAdd, group.ID, nil, map[string]interface{}{"user_id": req.UserID, "members_count": count}, meta)
	return group, nil
}

// RemoveMember takes a user out of the group's member set. Owner only.
func (s *GroupService) RemoveMember(ctx context.Context, caller *models.User, id string, req models.GroupMemberRequest, meta models.RequestMeta) (*models.Group, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, validationError(err, "invalid member payload")
	}

	group, err := s.loadOwned(ctx, caller, id)
	if err != nil {
		return nil, err
	}

	count, err := s.repo.RemoveMember(ctx, group.ID, req.UserID)
	if err != nil {
		switch {
		case errors.Is(err, repository.ErrNotMember):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "user is not a member")
		case errors.Is(err, sql.ErrNoRows):
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to remove member")
	}
	group.MembersCount = count

	s.audit(ctx, caller, models.AuditActionMemberRemove, group.ID, map[string]interface{}{"user_id": req.UserID}, map[string]interface{}{"members_count": count}, meta)
	return group, nil
}

func (s *GroupService) load(ctx context.Context, id string) (*models.Group, error) {
	group, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "group not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load group")
	}
	return group, nil
}

func (s *GroupService) loadOwned(ctx context.Context, caller *models.User, id string) (*models.Group, error) {
	group, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if group.OwnerID != caller.ID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the group owner can do this")
	}
	return group, nil
}

func (s *GroupService) audit(ctx context.Context, caller *models.User, action, groupID string, oldValues, newValues interface{}, meta models.RequestMeta) {
	if s.users == nil {
		return
	}
	log := &models.AuditLog{
		UserID:     &caller.ID,
		Action:     action,
		Resource:   "group",
		ResourceID: &groupID,
		OldValues:  auditPayload(s.logger, oldValues),
		NewValues:  auditPayload(s.logger, newValues),
		IPAddress:  meta.IP,
		UserAgent:  meta.UserAgent,
	}
	if err := s.users.CreateAuditLog(ctx, log); err != nil {
		s.logger.Warn("failed to record audit log", zap.String("action", action), zap.Error(err))
	}
}

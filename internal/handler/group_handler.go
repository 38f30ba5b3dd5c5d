package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/langufy-api/internal/models"
	"github.com/noah-isme/langufy-api/pkg/response"
)

type groupService interface {
	Create(ctx context.Context, caller *models.User, req models.CreateGroupRequest, meta models.RequestMeta) (*models.Group, error)
	Get(ctx context.Context, caller *models.User, id string) (*models.GroupDetail, error)
	ListMine(ctx context.Context, caller *models.User) ([]models.Group, error)
	Update(ctx context.Context, caller *models.User, id string, req models.UpdateGroupRequest, meta models.RequestMeta) (*models.Group, error)
	Delete(ctx context.Context, caller *models.User, id string, meta models.RequestMeta) error
	AddMember(ctx context.Context, caller *models.User, id string, req models.GroupMemberRequest, meta models.RequestMeta) (*models.Group, error)
	RemoveMember(ctx context.Context, caller *models.User, id string, req models.GroupMemberRequest, meta models.RequestMeta) (*models.Group, error)
}

// GroupHandler exposes group and membership endpoints.
type GroupHandler struct {
	service groupService
}

// NewGroupHandler constructs a group handler.
func NewGroupHandler(svc groupService) *GroupHandler {
	return &GroupHandler{service: svc}
}

// Create godoc
// @Summary Create group
// @Description Teachers and above create a group they own
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body models.CreateGroupRequest true "Group payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /api/groups/ [post]
func (h *GroupHandler) Create(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	var req models.CreateGroupRequest
	if !bindJSON(c, &req, "invalid group payload") {
		return
	}

	group, err := h.service.Create(c.Request.Context(), user, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, group)
}

// List godoc
// @Summary List my groups
// @Description Groups the caller owns or belongs to
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Success 200 {object} response.Envelope
// @Router /api/groups/ [get]
func (h *GroupHandler) List(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	groups, err := h.service.ListMine(c.Request.Context(), user)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, groups, map[string]interface{}{"total": len(groups)})
}

// Get godoc
// @Summary Get group
// @Tags Groups
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/groups/{id} [get]
func (h *GroupHandler) Get(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	group, err := h.service.Get(c.Request.Context(), user, id)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Update godoc
// @Summary Update group
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param payload body models.UpdateGroupRequest true "Fields to change"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/groups/{id} [put]
func (h *GroupHandler) Update(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.UpdateGroupRequest
	if !bindJSON(c, &req, "invalid group payload") {
		return
	}

	group, err := h.service.Update(c.Request.Context(), user, id, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

// Delete godoc
// @Summary Delete group
// @Tags Groups
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Success 204
// @Failure 403 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/groups/{id} [delete]
func (h *GroupHandler) Delete(c *gin.Context) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), user, id, requestMeta(c)); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AddMember godoc
// @Summary Add group member
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param payload body models.GroupMemberRequest true "Member"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /api/groups/{id}/members [post]
func (h *GroupHandler) AddMember(c *gin.Context) {
	h.mutateMembers(c, h.service.AddMember)
}

// RemoveMember godoc
// @Summary Remove group member
// @Tags Groups
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Group ID"
// @Param payload body models.GroupMemberRequest true "Member"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /api/groups/{id}/members [delete]
func (h *GroupHandler) RemoveMember(c *gin.Context) {
	h.mutateMembers(c, h.service.RemoveMember)
}

type memberMutation func(ctx context.Context, caller *models.User, id string, req models.GroupMemberRequest, meta models.RequestMeta) (*models.Group, error)

func (h *GroupHandler) mutateMembers(c *gin.Context, mutate memberMutation) {
	user, ok := currentUser(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}
	var req models.GroupMemberRequest
	if !bindJSON(c, &req, "invalid member payload") {
		return
	}

	group, err := mutate(c.Request.Context(), user, id, req, requestMeta(c))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, group, nil)
}

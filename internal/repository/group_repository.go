package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/langufy-api/internal/models"
)

const groupColumns = `id, name, description, owner_id, members_count, created_at, updated_at`

// GroupRepository persists groups and their membership set.
type GroupRepository struct {
	db *sqlx.DB
}

// NewGroupRepository constructs a GroupRepository.
func NewGroupRepository(db *sqlx.DB) *GroupRepository {
	return &GroupRepository{db: db}
}

// Create inserts a group with an empty member set.
func (r *GroupRepository) Create(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	group.CreatedAt = now
	group.UpdatedAt = now
	group.MembersCount = 0

	const query = `INSERT INTO groups (id, name, description, owner_id, members_count, created_at, updated_at)
VALUES (:id, :name, :description, :owner_id, :members_count, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, group); err != nil {
		return fmt.Errorf("create group: %w", translate(err, true))
	}
	return nil
}

// FindByID returns a group by identifier.
func (r *GroupRepository) FindByID(ctx context.Context, id string) (*models.Group, error) {
	const query = `SELECT ` + groupColumns + ` FROM groups WHERE id = $1`
	var group models.Group
	if err := r.db.GetContext(ctx, &group, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find group: %w", err)
	}
	return &group, nil
}

// ListForUser returns groups the user owns or belongs to, each once.
func (r *GroupRepository) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	const query = `SELECT ` + groupColumns + ` FROM groups g
WHERE g.owner_id = $1 OR EXISTS (SELECT 1 FROM group_members gm WHERE gm.group_id = g.id AND gm.user_id = $1)
ORDER BY g.created_at, g.id`
	groups := []models.Group{}
	if err := r.db.SelectContext(ctx, &groups, query, userID); err != nil {
		return nil, fmt.Errorf("list groups for user: %w", err)
	}
	return groups, nil
}

// Update persists name and description changes.
func (r *GroupRepository) Update(ctx context.Context, group *models.Group) error {
	group.UpdatedAt = time.Now().UTC()
	const query = `UPDATE groups SET name = :name, description = :description, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, group)
	if err != nil {
		return fmt.Errorf("update group: %w", err)
	}
	return requireAffected(res)
}

// Delete removes a group; membership rows cascade.
func (r *GroupRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM groups WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete group: %w", err)
	}
	return requireAffected(res)
}

// IsMember reports whether userID is in the group's member set.
func (r *GroupRepository) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM group_members WHERE group_id = $1 AND user_id = $2)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, groupID, userID); err != nil {
		return false, fmt.Errorf("check group membership: %w", err)
	}
	return exists, nil
}

// ListMembers returns member summaries of a group in a single query.
func (r *GroupRepository) ListMembers(ctx context.Context, groupID string) ([]models.MemberSummary, error) {
	const query = `SELECT u.id, u.full_name, u.email, u.role FROM group_members gm
JOIN users u ON u.id = gm.user_id
WHERE gm.group_id = $1
ORDER BY gm.created_at, u.id`
	members := []models.MemberSummary{}
	if err := r.db.SelectContext(ctx, &members, query, groupID); err != nil {
		return nil, fmt.Errorf("list group members: %w", err)
	}
	return members, nil
}

// AddMember inserts the membership and recomputes members_count from the
// member set. It returns the new count.
func (r *GroupRepository) AddMember(ctx context.Context, groupID, userID string) (count int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin add member transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockGroup(ctx, tx, groupID); err != nil {
		return 0, err
	}

	const insert = `INSERT INTO group_members (group_id, user_id, created_at) VALUES ($1, $2, $3) ON CONFLICT (group_id, user_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, insert, groupID, userID, time.Now().UTC())
	if err != nil {
		err = translate(err, true)
		return 0, fmt.Errorf("insert group member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = ErrAlreadyMember
		return 0, err
	}

	if count, err = recountMembers(ctx, tx, groupID); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit add member: %w", err)
	}
	return count, nil
}

// RemoveMember deletes the membership and recomputes members_count.
func (r *GroupRepository) RemoveMember(ctx context.Context, groupID, userID string) (count int, err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin remove member transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = lockGroup(ctx, tx, groupID); err != nil {
		return 0, err
	}

	res, err := tx.ExecContext(ctx, `DELETE FROM group_members WHERE group_id = $1 AND user_id = $2`, groupID, userID)
	if err != nil {
		return 0, fmt.Errorf("delete group member: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	if affected == 0 {
		err = ErrNotMember
		return 0, err
	}

	if count, err = recountMembers(ctx, tx, groupID); err != nil {
		return 0, err
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit remove member: %w", err)
	}
	return count, nil
}

func lockGroup(ctx context.Context, tx *sqlx.Tx, groupID string) error {
	var id string
	if err := tx.GetContext(ctx, &id, `SELECT id FROM groups WHERE id = $1 FOR UPDATE`, groupID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return err
		}
		return fmt.Errorf("lock group: %w", err)
	}
	return nil
}

func recountMembers(ctx context.Context, tx *sqlx.Tx, groupID string) (int, error) {
	const query = `UPDATE groups SET members_count = (SELECT COUNT(*) FROM group_members WHERE group_id = $1), updated_at = $2 WHERE id = $1 RETURNING members_count`
	var count int
	if err := tx.GetContext(ctx, &count, query, groupID, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("recount group members: %w", err)
	}
	return count, nil
}

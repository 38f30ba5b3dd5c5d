package service

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/noah-isme/langufy-api/internal/ai"
	"github.com/noah-isme/langufy-api/internal/models"
	"github.com/noah-isme/langufy-api/internal/repository"
)

type fakeUserStore struct {
	mu        sync.Mutex
	users     map[string]*models.User
	auditLogs []*models.AuditLog
	createErr error
}

func newFakeUserStore(users ...*models.User) *fakeUserStore {
	store := &fakeUserStore{users: map[string]*models.User{}}
	for _, u := range users {
		store.users[u.ID] = u
	}
	return store
}

func (f *fakeUserStore) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Email == email {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if u.Username == username {
			clone := *u
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (f *fakeUserStore) FindByID(ctx context.Context, id string) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *u
	return &clone, nil
}

func (f *fakeUserStore) Count(ctx context.Context) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users), nil
}

func (f *fakeUserStore) Create(ctx context.Context, user *models.User, maxUsers int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if maxUsers > 0 && len(f.users) >= maxUsers {
		return repository.ErrUserLimitReached
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) Update(ctx context.Context, user *models.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[user.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *user
	f.users[user.ID] = &clone
	return nil
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	u.PasswordHash = passwordHash
	u.UpdatedAt = updatedAt
	return nil
}

func (f *fakeUserStore) Delete(ctx context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.users, id)
	return nil
}

func (f *fakeUserStore) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.auditLogs = append(f.auditLogs, log)
	return nil
}

func (f *fakeUserStore) actions() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, 0, len(f.auditLogs))
	for _, log := range f.auditLogs {
		out = append(out, log.Action)
	}
	return out
}

type fakeGroupStore struct {
	groups  map[string]*models.Group
	members map[string][]string
	users   *fakeUserStore
}

func newFakeGroupStore(users *fakeUserStore) *fakeGroupStore {
	return &fakeGroupStore{groups: map[string]*models.Group{}, members: map[string][]string{}, users: users}
}

func (f *fakeGroupStore) Create(ctx context.Context, group *models.Group) error {
	group.ID = uuid.NewString()
	group.MembersCount = 0
	clone := *group
	f.groups[group.ID] = &clone
	return nil
}

func (f *fakeGroupStore) FindByID(ctx context.Context, id string) (*models.Group, error) {
	g, ok := f.groups[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *g
	return &clone, nil
}

func (f *fakeGroupStore) ListForUser(ctx context.Context, userID string) ([]models.Group, error) {
	out := []models.Group{}
	for id, g := range f.groups {
		if g.OwnerID == userID || f.contains(id, userID) {
			out = append(out, *g)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeGroupStore) Update(ctx context.Context, group *models.Group) error {
	if _, ok := f.groups[group.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *group
	f.groups[group.ID] = &clone
	return nil
}

func (f *fakeGroupStore) Delete(ctx context.Context, id string) error {
	if _, ok := f.groups[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.groups, id)
	delete(f.members, id)
	return nil
}

func (f *fakeGroupStore) IsMember(ctx context.Context, groupID, userID string) (bool, error) {
	return f.contains(groupID, userID), nil
}

func (f *fakeGroupStore) ListMembers(ctx context.Context, groupID string) ([]models.MemberSummary, error) {
	out := []models.MemberSummary{}
	for _, id := range f.members[groupID] {
		u, err := f.users.FindByID(ctx, id)
		if err != nil {
			continue
		}
		out = append(out, models.MemberSummary{ID: u.ID, FullName: u.FullName, Email: u.Email, Role: u.Role})
	}
	return out, nil
}

func (f *fakeGroupStore) AddMember(ctx context.Context, groupID, userID string) (int, error) {
	g, ok := f.groups[groupID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	if f.contains(groupID, userID) {
		return 0, repository.ErrAlreadyMember
	}
	f.members[groupID] = append(f.members[groupID], userID)
	g.MembersCount = len(f.members[groupID])
	return g.MembersCount, nil
}

func (f *fakeGroupStore) RemoveMember(ctx context.Context, groupID, userID string) (int, error) {
	g, ok := f.groups[groupID]
	if !ok {
		return 0, sql.ErrNoRows
	}
	ids := f.members[groupID]
	for i, id := range ids {
		if id == userID {
			f.members[groupID] = append(ids[:i], ids[i+1:]...)
			g.MembersCount = len(f.members[groupID])
			return g.MembersCount, nil
		}
	}
	return 0, repository.ErrNotMember
}

func (f *fakeGroupStore) contains(groupID, userID string) bool {
	for _, id := range f.members[groupID] {
		if id == userID {
			return true
		}
	}
	return false
}

type fakeDictionary struct {
	mu         sync.Mutex
	categories map[string]*models.Category
	words      []*models.Word
	batchErr   error
}

func newFakeDictionary() *fakeDictionary {
	return &fakeDictionary{categories: map[string]*models.Category{}}
}

func (f *fakeDictionary) addCategory(name string) *models.Category {
	c := &models.Category{ID: uuid.NewString(), Name: name}
	f.categories[c.ID] = c
	return c
}

func (f *fakeDictionary) addWord(english, uzbek string, category *models.Category) *models.Word {
	w := &models.Word{ID: uuid.NewString(), English: english, Uzbek: uzbek, CategoryID: category.ID, CreatedAt: time.Now()}
	f.words = append(f.words, w)
	return w
}

func (f *fakeDictionary) Create(ctx context.Context, category *models.Category) error {
	for _, c := range f.categories {
		if c.Name == category.Name {
			return &repository.DuplicateError{Constraint: "categories_name_key", Err: repository.ErrDuplicate}
		}
	}
	category.ID = uuid.NewString()
	clone := *category
	f.categories[category.ID] = &clone
	return nil
}

func (f *fakeDictionary) List(ctx context.Context) ([]models.Category, error) {
	out := []models.Category{}
	for _, c := range f.categories {
		out = append(out, *c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (f *fakeDictionary) FindByID(ctx context.Context, id string) (*models.Category, error) {
	c, ok := f.categories[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	clone := *c
	return &clone, nil
}

func (f *fakeDictionary) Update(ctx context.Context, category *models.Category) error {
	for id, c := range f.categories {
		if id != category.ID && c.Name == category.Name {
			return &repository.DuplicateError{Constraint: "categories_name_key", Err: repository.ErrDuplicate}
		}
	}
	if _, ok := f.categories[category.ID]; !ok {
		return sql.ErrNoRows
	}
	clone := *category
	f.categories[category.ID] = &clone
	return nil
}

func (f *fakeDictionary) Delete(ctx context.Context, id string) error {
	if _, ok := f.categories[id]; !ok {
		return sql.ErrNoRows
	}
	delete(f.categories, id)
	return nil
}

func (f *fakeDictionary) CountWords(ctx context.Context, id string) (int, error) {
	total := 0
	for _, w := range f.words {
		if w.CategoryID == id {
			total++
		}
	}
	return total, nil
}

func (f *fakeDictionary) categoryByName(name string) *models.Category {
	for _, c := range f.categories {
		if c.Name == name {
			return c
		}
	}
	return nil
}

// wordStore adapts fakeDictionary to the word repository method set, whose
// FindByID/Create/List/Update/Delete names clash with the category ones.
type wordStore struct{ *fakeDictionary }

func (w wordStore) Create(ctx context.Context, word *models.Word) error {
	if _, ok := w.categories[word.CategoryID]; !ok {
		return fmt.Errorf("create word: %w", repository.ErrMissingReference)
	}
	word.ID = uuid.NewString()
	clone := *word
	w.words = append(w.words, &clone)
	return nil
}

func (w wordStore) CreateBatch(ctx context.Context, words []*models.Word) error {
	if w.batchErr != nil {
		return w.batchErr
	}
	for _, word := range words {
		if err := w.Create(ctx, word); err != nil {
			return err
		}
	}
	return nil
}

func (w wordStore) CreateInCategoryNamed(ctx context.Context, categoryName string, word *models.Word) error {
	w.mu.Lock()
	category := w.categoryByName(categoryName)
	if category == nil {
		category = w.addCategory(categoryName)
	}
	w.mu.Unlock()
	word.CategoryID = category.ID
	if err := w.Create(ctx, word); err != nil {
		return err
	}
	word.Category = category
	return nil
}

func (w wordStore) FindByID(ctx context.Context, id string) (*models.Word, error) {
	for _, word := range w.words {
		if word.ID == id {
			clone := *word
			return &clone, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (w wordStore) List(ctx context.Context) ([]models.Word, error) {
	out := []models.Word{}
	for _, word := range w.words {
		out = append(out, *word)
	}
	return out, nil
}

func (w wordStore) ListByCategory(ctx context.Context, categoryID string) ([]models.Word, error) {
	out := []models.Word{}
	for _, word := range w.words {
		if word.CategoryID == categoryID {
			out = append(out, *word)
		}
	}
	return out, nil
}

func (w wordStore) Search(ctx context.Context, term string) ([]models.Word, error) {
	out := []models.Word{}
	needle := strings.ToLower(term)
	for _, word := range w.words {
		if strings.Contains(strings.ToLower(word.English), needle) {
			out = append(out, *word)
		}
	}
	return out, nil
}

func (w wordStore) Update(ctx context.Context, word *models.Word) error {
	for i, existing := range w.words {
		if existing.ID == word.ID {
			clone := *word
			w.words[i] = &clone
			return nil
		}
	}
	return sql.ErrNoRows
}

func (w wordStore) Delete(ctx context.Context, id string) error {
	for i, existing := range w.words {
		if existing.ID == id {
			w.words = append(w.words[:i], w.words[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

type fakeProvider struct {
	calls      int
	definition *ai.Definition
	err        error
}

func (p *fakeProvider) Define(ctx context.Context, term string) (*ai.Definition, error) {
	p.calls++
	if p.err != nil {
		return nil, p.err
	}
	return p.definition, nil
}

package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/taxirank/rank-api/internal/models"
	"github.com/taxirank/rank-api/internal/repository"
	appErrors "github.com/taxirank/rank-api/pkg/errors"
)

type userRepoStub struct {
	users   map[string]*models.User
	deleted []string
	nextID  int
}

func newUserRepoStub() *userRepoStub {
	return &userRepoStub{users: make(map[string]*models.User)}
}

func (u *userRepoStub) add(user *models.User) *models.User {
	if user.ID == "" {
		u.nextID++
		user.ID = "user-" + strconv.Itoa(u.nextID)
	}
	u.users[user.ID] = user
	return user
}

func (u *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := u.users[id]; ok {
		copy := *user
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (u *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range u.users {
		if strings.EqualFold(user.Email, email) {
			copy := *user
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (u *userRepoStub) Create(ctx context.Context, user *models.User) error {
	u.add(user)
	return nil
}

func (u *userRepoStub) UpdateRole(ctx context.Context, id string, role models.UserRole) error {
	user, ok := u.users[id]
	if !ok {
		return sql.ErrNoRows
	}
	user.Role = role
	return nil
}

func (u *userRepoStub) Delete(ctx context.Context, id string) error {
	if _, ok := u.users[id]; !ok {
		return sql.ErrNoRows
	}
	delete(u.users, id)
	u.deleted = append(u.deleted, id)
	return nil
}

func (u *userRepoStub) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	if user, ok := u.users[id]; ok {
		user.LastLogin = &ts
	}
	return nil
}

func (u *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	result := make([]models.User, 0, len(u.users))
	for _, user := range u.users {
		if filter.Role != nil && user.Role != *filter.Role {
			continue
		}
		result = append(result, *user)
	}
	return result, len(result), nil
}

type rankRepoStub struct {
	ranks map[string]*models.Rank
}

func newRankRepoStub(ranks ...*models.Rank) *rankRepoStub {
	stub := &rankRepoStub{ranks: make(map[string]*models.Rank)}
	for _, rank := range ranks {
		stub.ranks[rank.ID] = rank
	}
	return stub
}

func (r *rankRepoStub) FindByID(ctx context.Context, id string) (*models.Rank, error) {
	if rank, ok := r.ranks[id]; ok {
		copy := *rank
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *rankRepoStub) FindByIDs(ctx context.Context, ids []string) ([]models.Rank, error) {
	result := make([]models.Rank, 0, len(ids))
	for _, id := range ids {
		if rank, ok := r.ranks[id]; ok {
			result = append(result, *rank)
		}
	}
	return result, nil
}

func (r *rankRepoStub) FindByCode(ctx context.Context, code string) (*models.Rank, error) {
	for _, rank := range r.ranks {
		if rank.Code == code {
			copy := *rank
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (r *rankRepoStub) List(ctx context.Context) ([]models.Rank, error) {
	result := make([]models.Rank, 0, len(r.ranks))
	for _, rank := range r.ranks {
		result = append(result, *rank)
	}
	return result, nil
}

type bindingRepoStub struct {
	bindings []*models.Binding
	nextID   int
}

func newBindingRepoStub() *bindingRepoStub {
	return &bindingRepoStub{}
}

func (b *bindingRepoStub) Create(ctx context.Context, binding *models.Binding) error {
	for _, existing := range b.bindings {
		if existing.UserID == binding.UserID && existing.RankID == binding.RankID {
			return repository.ErrDuplicateBinding
		}
		if existing.RankID == binding.RankID {
			return repository.ErrRankTaken
		}
	}
	b.nextID++
	binding.ID = "binding-" + strconv.Itoa(b.nextID)
	binding.AssignedAt = time.Now().UTC()
	copy := *binding
	b.bindings = append(b.bindings, &copy)
	return nil
}

func (b *bindingRepoStub) Find(ctx context.Context, userID, rankID string) (*models.Binding, error) {
	for _, binding := range b.bindings {
		if binding.UserID == userID && binding.RankID == rankID {
			copy := *binding
			return &copy, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (b *bindingRepoStub) ListByUser(ctx context.Context, userID string) ([]models.Binding, error) {
	result := make([]models.Binding, 0)
	for _, binding := range b.bindings {
		if binding.UserID == userID {
			result = append(result, *binding)
		}
	}
	return result, nil
}

func (b *bindingRepoStub) ListByRank(ctx context.Context, rankID string) ([]models.Binding, error) {
	result := make([]models.Binding, 0)
	for _, binding := range b.bindings {
		if binding.RankID == rankID {
			result = append(result, *binding)
		}
	}
	return result, nil
}

func (b *bindingRepoStub) CountByRank(ctx context.Context, rankID string) (int, error) {
	count := 0
	for _, binding := range b.bindings {
		if binding.RankID == rankID {
			count++
		}
	}
	return count, nil
}

func (b *bindingRepoStub) Delete(ctx context.Context, userID, rankID string) error {
	for i, binding := range b.bindings {
		if binding.UserID == userID && binding.RankID == rankID {
			b.bindings = append(b.bindings[:i], b.bindings[i+1:]...)
			return nil
		}
	}
	return sql.ErrNoRows
}

func (b *bindingRepoStub) UpdatePermissions(ctx context.Context, binding *models.Binding) error {
	for i, existing := range b.bindings {
		if existing.UserID == binding.UserID && existing.RankID == binding.RankID {
			copy := *binding
			b.bindings[i] = &copy
			return nil
		}
	}
	return sql.ErrNoRows
}

func (b *bindingRepoStub) ListRoster(ctx context.Context) ([]models.BindingDetail, error) {
	result := make([]models.BindingDetail, 0, len(b.bindings))
	for _, binding := range b.bindings {
		result = append(result, models.BindingDetail{Binding: *binding})
	}
	return result, nil
}

type registrationRepoStub struct {
	requests  map[string]*models.RegistrationRequest
	createErr error
	nextID    int
}

func newRegistrationRepoStub() *registrationRepoStub {
	return &registrationRepoStub{requests: make(map[string]*models.RegistrationRequest)}
}

func (r *registrationRepoStub) Create(ctx context.Context, request *models.RegistrationRequest) error {
	if r.createErr != nil {
		return r.createErr
	}
	if request.ID == "" {
		r.nextID++
		request.ID = "reg-" + strconv.Itoa(r.nextID)
	}
	copy := *request
	r.requests[request.ID] = &copy
	return nil
}

func (r *registrationRepoStub) GetByID(ctx context.Context, id string) (*models.RegistrationRequest, error) {
	if request, ok := r.requests[id]; ok {
		copy := *request
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (r *registrationRepoStub) ListByStatus(ctx context.Context, status models.RequestStatus) ([]models.RegistrationRequest, error) {
	result := make([]models.RegistrationRequest, 0)
	for _, request := range r.requests {
		if request.Status == status {
			result = append(result, *request)
		}
	}
	return result, nil
}

func (r *registrationRepoStub) ExistsPendingByEmail(ctx context.Context, email string) (bool, error) {
	for _, request := range r.requests {
		if strings.EqualFold(request.Email, email) && request.Status == models.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (r *registrationRepoStub) UpdateReview(ctx context.Context, params repository.UpdateReviewParams) error {
	request, ok := r.requests[params.ID]
	if !ok || request.Status != models.RequestPending {
		return sql.ErrNoRows
	}
	request.Status = params.Status
	request.ReviewNotes = params.ReviewNotes
	request.ReviewedBy = &params.ReviewedBy
	request.ReviewedAt = &params.ReviewedAt
	return nil
}

type assignmentRepoStub struct {
	requests map[string]*models.AssignmentRequest
	nextID   int
}

func newAssignmentRepoStub() *assignmentRepoStub {
	return &assignmentRepoStub{requests: make(map[string]*models.AssignmentRequest)}
}

func (a *assignmentRepoStub) Create(ctx context.Context, request *models.AssignmentRequest) error {
	if request.ID == "" {
		a.nextID++
		request.ID = "asg-" + strconv.Itoa(a.nextID)
	}
	if request.Status == "" {
		request.Status = models.RequestPending
	}
	copy := *request
	a.requests[request.ID] = &copy
	return nil
}

func (a *assignmentRepoStub) GetByID(ctx context.Context, id string) (*models.AssignmentRequest, error) {
	if request, ok := a.requests[id]; ok {
		copy := *request
		return &copy, nil
	}
	return nil, sql.ErrNoRows
}

func (a *assignmentRepoStub) List(ctx context.Context, filter models.AssignmentRequestFilter) ([]models.AssignmentRequest, error) {
	result := make([]models.AssignmentRequest, 0)
	for _, request := range a.requests {
		if filter.RequestingAdmin != "" && request.RequestingAdmin != filter.RequestingAdmin {
			continue
		}
		if filter.RankID != "" && request.RankID != filter.RankID {
			continue
		}
		if len(filter.Status) > 0 {
			match := false
			for _, status := range filter.Status {
				if request.Status == status {
					match = true
					break
				}
			}
			if !match {
				continue
			}
		}
		result = append(result, *request)
	}
	return result, nil
}

func (a *assignmentRepoStub) ExistsPending(ctx context.Context, adminID, rankID string) (bool, error) {
	for _, request := range a.requests {
		if request.RequestingAdmin == adminID && request.RankID == rankID && request.Status == models.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (a *assignmentRepoStub) ExistsPendingForRank(ctx context.Context, rankID string) (bool, error) {
	for _, request := range a.requests {
		if request.RankID == rankID && request.Status == models.RequestPending {
			return true, nil
		}
	}
	return false, nil
}

func (a *assignmentRepoStub) UpdateResponse(ctx context.Context, params repository.UpdateResponseParams) error {
	request, ok := a.requests[params.ID]
	if !ok || request.Status != models.RequestPending {
		return sql.ErrNoRows
	}
	request.Status = params.Status
	request.ResponseMessage = params.ResponseMessage
	request.ReviewedBy = params.ReviewedBy
	request.RespondedAt = &params.RespondedAt
	return nil
}

// conflictBinderStub reports every rank as free at check time but fails the
// bind for one rank, the shape of a concurrent reviewer winning that rank
// between the availability check and the commit.
type conflictBinderStub struct {
	failRankID string
	held       []models.Binding
	bound      []string
	removed    []string
}

func (b *conflictBinderStub) FirstConflict(ctx context.Context, ranks []models.RankRef) (*models.RankRef, error) {
	return nil, nil
}

func (b *conflictBinderStub) CountForRank(ctx context.Context, rankID string) (int, error) {
	return 0, nil
}

func (b *conflictBinderStub) BindingsFor(ctx context.Context, userID string) ([]models.Binding, error) {
	return b.held, nil
}

func (b *conflictBinderStub) IsAdminForRank(ctx context.Context, userID, rankID string) (bool, error) {
	return false, nil
}

func (b *conflictBinderStub) Bind(ctx context.Context, userID string, rank *models.Rank, perms models.BindingPermissions, designation, notes *string) (*models.Binding, error) {
	if rank.ID == b.failRankID {
		return nil, appErrors.Clone(appErrors.ErrRankAlreadyAssigned, "rank '"+rank.Name+"' already has an admin assigned")
	}
	b.bound = append(b.bound, rank.ID)
	return &models.Binding{
		ID:                 "binding-" + rank.ID,
		UserID:             userID,
		RankID:             rank.ID,
		BindingPermissions: perms,
		Designation:        designation,
	}, nil
}

func (b *conflictBinderStub) Remove(ctx context.Context, userID, rankID, actorID string) error {
	b.removed = append(b.removed, rankID)
	return nil
}

type auditStub struct {
	logs []*models.AuditLog
}

func (a *auditStub) CreateAuditLog(ctx context.Context, log *models.AuditLog) error {
	a.logs = append(a.logs, log)
	return nil
}

type cacheStub struct {
	entries map[string][]byte
	hits    int
	misses  int
}

func newCacheStub() *cacheStub {
	return &cacheStub{entries: make(map[string][]byte)}
}

func (c *cacheStub) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := c.entries[key]
	if !ok {
		c.misses++
		return appErrors.ErrCacheMiss
	}
	c.hits++
	return json.Unmarshal(raw, dest)
}

func (c *cacheStub) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.entries[key] = raw
	return nil
}

func (c *cacheStub) Delete(ctx context.Context, keys ...string) {
	for _, key := range keys {
		delete(c.entries, key)
	}
}

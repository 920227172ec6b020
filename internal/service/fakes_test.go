package service

import (
	"sort"
	"time"

	"backend/internal/models"
)

// In-memory fakes for the repository interfaces, used by the service
// tests in this package.

type fakeUserRepo struct {
	users  map[int64]*models.User
	nextID int64
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[int64]*models.User), nextID: 1}
}

func (r *fakeUserRepo) add(user *models.User) *models.User {
	if user.ID == 0 {
		user.ID = r.nextID
		r.nextID++
	} else if user.ID >= r.nextID {
		r.nextID = user.ID + 1
	}
	r.users[user.ID] = user
	return user
}

func (r *fakeUserRepo) Create(user *models.User) error {
	user.CreatedAt = time.Now()
	r.add(user)
	return nil
}

func (r *fakeUserRepo) GetByID(id int64) (*models.User, error) {
	return r.users[id], nil
}

func (r *fakeUserRepo) GetByEmail(email string) (*models.User, error) {
	for _, user := range r.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) GetByTelegramID(telegramID int64) (*models.User, error) {
	for _, user := range r.users {
		if user.TelegramID != nil && *user.TelegramID == telegramID {
			return user, nil
		}
	}
	return nil, nil
}

func (r *fakeUserRepo) List() ([]*models.User, error) {
	users := make([]*models.User, 0, len(r.users))
	for id := int64(1); id < r.nextID; id++ {
		if user, ok := r.users[id]; ok {
			users = append(users, user)
		}
	}
	return users, nil
}

func (r *fakeUserRepo) Update(user *models.User) error {
	r.users[user.ID] = user
	return nil
}

type fakeVerificationRepo struct {
	records map[int64]*models.VerificationRecord
}

func newFakeVerificationRepo() *fakeVerificationRepo {
	return &fakeVerificationRepo{records: make(map[int64]*models.VerificationRecord)}
}

func (r *fakeVerificationRepo) Replace(rec *models.VerificationRecord) error {
	stored := *rec
	stored.Children = append([]models.ChildProfile(nil), rec.Children...)
	r.records[rec.UserID] = &stored
	return nil
}

func (r *fakeVerificationRepo) GetByUserID(userID int64) (*models.VerificationRecord, error) {
	return r.records[userID], nil
}

func (r *fakeVerificationRepo) LoadAll() (map[int64]*models.VerificationRecord, error) {
	out := make(map[int64]*models.VerificationRecord, len(r.records))
	for id, rec := range r.records {
		out[id] = rec
	}
	return out, nil
}

type fakePermissionRepo struct {
	grants map[[2]int64]bool
}

func newFakePermissionRepo() *fakePermissionRepo {
	return &fakePermissionRepo{grants: make(map[[2]int64]bool)}
}

func (r *fakePermissionRepo) Grant(ownerID, viewerID int64) error {
	r.grants[[2]int64{ownerID, viewerID}] = true
	return nil
}

func (r *fakePermissionRepo) HasGrant(ownerID, viewerID int64) (bool, error) {
	return r.grants[[2]int64{ownerID, viewerID}], nil
}

func (r *fakePermissionRepo) ListViewers(ownerID int64) ([]int64, error) {
	var viewers []int64
	for key := range r.grants {
		if key[0] == ownerID {
			viewers = append(viewers, key[1])
		}
	}
	sort.Slice(viewers, func(i, j int) bool { return viewers[i] < viewers[j] })
	return viewers, nil
}

// fakeRequestRepo mirrors the real repository's transactional side
// effects: Create also appends the notification message to the chat,
// and MarkResponded records the grant when the request is accepted.
type fakeRequestRepo struct {
	requests map[int64]*models.ChildDataRequest
	nextID   int64
	perms    *fakePermissionRepo
	chats    *fakeChatRepo
}

func newFakeRequestRepo(perms *fakePermissionRepo, chats *fakeChatRepo) *fakeRequestRepo {
	return &fakeRequestRepo{
		requests: make(map[int64]*models.ChildDataRequest),
		nextID:   1,
		perms:    perms,
		chats:    chats,
	}
}

func (r *fakeRequestRepo) Create(req *models.ChildDataRequest, msg *models.Message) error {
	req.ID = r.nextID
	r.nextID++
	req.CreatedAt = time.Now()
	req.UpdatedAt = req.CreatedAt
	copied := *req
	r.requests[req.ID] = &copied
	msg.RequestID = &req.ID
	_, err := r.chats.AppendMessage(req.RequesterID, req.RecipientID, msg)
	return err
}

func (r *fakeRequestRepo) GetByID(id int64) (*models.ChildDataRequest, error) {
	req, ok := r.requests[id]
	if !ok {
		return nil, nil
	}
	copied := *req
	return &copied, nil
}

func (r *fakeRequestRepo) FindPending(requesterID, recipientID int64) (*models.ChildDataRequest, error) {
	for _, req := range r.requests {
		if req.RequesterID == requesterID && req.RecipientID == recipientID && req.Status == models.RequestStatusPending {
			copied := *req
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *fakeRequestRepo) GetPendingByRecipient(recipientID int64) ([]*models.ChildDataRequest, error) {
	var out []*models.ChildDataRequest
	for id := int64(1); id < r.nextID; id++ {
		req, ok := r.requests[id]
		if ok && req.RecipientID == recipientID && req.Status == models.RequestStatusPending {
			copied := *req
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeRequestRepo) MarkResponded(id int64, status string, respondedAt time.Time) (bool, error) {
	req, ok := r.requests[id]
	if !ok || req.Status != models.RequestStatusPending {
		return false, nil
	}
	req.Status = status
	req.RespondedAt = &respondedAt
	req.UpdatedAt = respondedAt
	if status == models.RequestStatusAccepted {
		r.perms.Grant(req.RecipientID, req.RequesterID)
	}
	return true, nil
}

type fakeChatRepo struct {
	chats  map[int64]*models.Chat
	nextID int64
}

func newFakeChatRepo() *fakeChatRepo {
	return &fakeChatRepo{chats: make(map[int64]*models.Chat), nextID: 1}
}

func (r *fakeChatRepo) GetBetweenUsers(userID1, userID2 int64) (*models.Chat, error) {
	for _, chat := range r.chats {
		if (chat.User1ID == userID1 && chat.User2ID == userID2) ||
			(chat.User1ID == userID2 && chat.User2ID == userID1) {
			return chat, nil
		}
	}
	return nil, nil
}

func (r *fakeChatRepo) GetUserChats(userID int64) ([]*models.Chat, error) {
	var out []*models.Chat
	for id := int64(1); id < r.nextID; id++ {
		chat, ok := r.chats[id]
		if ok && (chat.User1ID == userID || chat.User2ID == userID) {
			out = append(out, chat)
		}
	}
	return out, nil
}

func (r *fakeChatRepo) GetMessages(chatID int64) ([]models.Message, error) {
	chat, ok := r.chats[chatID]
	if !ok {
		return nil, nil
	}
	return chat.Messages, nil
}

func (r *fakeChatRepo) AppendMessage(userID1, userID2 int64, msg *models.Message) (*models.Chat, error) {
	chat, _ := r.GetBetweenUsers(userID1, userID2)
	if chat == nil {
		chat = &models.Chat{ID: r.nextID, User1ID: userID1, User2ID: userID2, CreatedAt: time.Now()}
		r.nextID++
		r.chats[chat.ID] = chat
	}
	msg.ID = int64(len(chat.Messages) + 1)
	msg.ChatID = chat.ID
	msg.SentAt = time.Now()
	chat.Messages = append(chat.Messages, *msg)
	return chat, nil
}

type fakeReviewRepo struct {
	reviews []*models.Review
	nextID  int64
}

func newFakeReviewRepo() *fakeReviewRepo {
	return &fakeReviewRepo{nextID: 1}
}

func (r *fakeReviewRepo) Create(review *models.Review) error {
	stored := *review
	stored.ID = r.nextID
	stored.CreatedAt = time.Now()
	r.nextID++
	r.reviews = append(r.reviews, &stored)
	review.ID = stored.ID
	review.CreatedAt = stored.CreatedAt
	return nil
}

func (r *fakeReviewRepo) ListByUserID(userID int64) ([]*models.Review, error) {
	var out []*models.Review
	for _, review := range r.reviews {
		if review.UserID == userID {
			copied := *review
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeReviewRepo) HasReviewed(userID, reviewerID int64) (bool, error) {
	for _, review := range r.reviews {
		if review.UserID == userID && review.ReviewerID == reviewerID {
			return true, nil
		}
	}
	return false, nil
}

func (r *fakeReviewRepo) AverageRating(userID int64) (float64, error) {
	sum, count := 0, 0
	for _, review := range r.reviews {
		if review.UserID == userID {
			sum += review.Stars
			count++
		}
	}
	if count == 0 {
		return 0, nil
	}
	return float64(sum) / float64(count), nil
}

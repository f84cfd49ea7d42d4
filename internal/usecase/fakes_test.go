package usecase

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"coursebay/internal/domain/entity"
	"coursebay/internal/domain/repository"
	"coursebay/internal/domain/service"
	"coursebay/pkg/errors"
)

type fakeDirectory struct {
	mu      sync.Mutex
	records map[string]*repository.ParticipantRecord
}

func newFakeDirectory() *fakeDirectory {
	return &fakeDirectory{records: make(map[string]*repository.ParticipantRecord)}
}

func directoryKey(id string, kind entity.ParticipantKind) string {
	return string(kind) + ":" + id
}

func (d *fakeDirectory) put(record *repository.ParticipantRecord) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records[directoryKey(record.ID, record.Kind)] = record
}

func (d *fakeDirectory) GetParticipant(ctx context.Context, id string, kind entity.ParticipantKind) (*repository.ParticipantRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	record, ok := d.records[directoryKey(id, kind)]
	if !ok {
		return nil, errors.NotFound("Participant", nil)
	}
	copied := *record
	return &copied, nil
}

func (d *fakeDirectory) GetShopByOwner(ctx context.Context, ownerID string) (*repository.ParticipantRecord, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, record := range d.records {
		if record.Kind == entity.KindShop && record.OwnerID == ownerID {
			copied := *record
			return &copied, nil
		}
	}
	return nil, errors.NotFound("Shop", nil)
}

func (d *fakeDirectory) SetBlocked(ctx context.Context, owner entity.Participant, targetID string, blocked bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	record, ok := d.records[directoryKey(owner.ID, owner.Kind)]
	if !ok {
		return errors.NotFound("Participant", nil)
	}
	if blocked {
		record.Blocked = append(record.Blocked, targetID)
		return nil
	}
	var kept []string
	for _, id := range record.Blocked {
		if id != targetID {
			kept = append(kept, id)
		}
	}
	record.Blocked = kept
	return nil
}

type fakeMessageRepo struct {
	mu       sync.Mutex
	messages map[string]*entity.Message
	seq      int
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{messages: make(map[string]*entity.Message)}
}

func (r *fakeMessageRepo) nextID() string {
	r.seq++
	return fmt.Sprintf("msg-%d", r.seq)
}

func (r *fakeMessageRepo) store(message *entity.Message) {
	if message.ID == "" {
		message.ID = r.nextID()
	}
	if message.CreatedAt.IsZero() {
		message.CreatedAt = time.Now()
	}
	copied := *message
	r.messages[message.ID] = &copied
}

func (r *fakeMessageRepo) Create(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.store(message)
	return nil
}

func (r *fakeMessageRepo) GetByID(ctx context.Context, id string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	message, ok := r.messages[id]
	if !ok {
		return nil, errors.NotFound("Message", nil)
	}
	copied := *message
	return &copied, nil
}

func (r *fakeMessageRepo) Update(ctx context.Context, message *entity.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.messages[message.ID]; !ok {
		return errors.NotFound("Message", nil)
	}
	copied := *message
	r.messages[message.ID] = &copied
	return nil
}

func (r *fakeMessageRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.messages, id)
	return nil
}

func (r *fakeMessageRepo) sorted(filter func(*entity.Message) bool) []*entity.Message {
	var out []*entity.Message
	for _, message := range r.messages {
		if filter(message) {
			copied := *message
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out
}

func paginate(messages []*entity.Message, limit, offset int) []*entity.Message {
	if offset >= len(messages) {
		return nil
	}
	messages = messages[offset:]
	if limit > 0 && limit < len(messages) {
		messages = messages[:limit]
	}
	return messages
}

func (r *fakeMessageRepo) ListByPair(ctx context.Context, pairKey string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(m *entity.Message) bool { return m.PairKey == pairKey })
	return paginate(all, limit, offset), int64(len(all)), nil
}

func (r *fakeMessageRepo) ListByGroup(ctx context.Context, groupID string, limit, offset int) ([]*entity.Message, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(m *entity.Message) bool { return m.GroupID == groupID })
	return paginate(all, limit, offset), int64(len(all)), nil
}

func (r *fakeMessageRepo) ListBySender(ctx context.Context, sender entity.Participant) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.sorted(func(m *entity.Message) bool {
		return m.SenderID == sender.ID && m.SenderKind == sender.Kind
	}), nil
}

func (r *fakeMessageRepo) LatestVisibleByPair(ctx context.Context, pairKey string) (*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sorted(func(m *entity.Message) bool {
		return m.PairKey == pairKey && !m.IsDeleted
	})
	if len(all) == 0 {
		return nil, errors.NotFound("Message", nil)
	}
	return all[0], nil
}

func (r *fakeMessageRepo) DeleteByGroup(ctx context.Context, groupID string) ([]*entity.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	deleted := r.sorted(func(m *entity.Message) bool { return m.GroupID == groupID })
	for _, message := range deleted {
		delete(r.messages, message.ID)
	}
	return deleted, nil
}

type fakeConversationRepo struct {
	mu            sync.Mutex
	conversations map[string]*entity.Conversation
	messageRepo   *fakeMessageRepo
}

func newFakeConversationRepo(messageRepo *fakeMessageRepo) *fakeConversationRepo {
	return &fakeConversationRepo{
		conversations: make(map[string]*entity.Conversation),
		messageRepo:   messageRepo,
	}
}

func (r *fakeConversationRepo) AppendDirect(ctx context.Context, conv *entity.Conversation, message *entity.Message) (*entity.Conversation, error) {
	if err := r.messageRepo.Create(ctx, message); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	existing, ok := r.conversations[conv.ID]
	if !ok {
		copied := *conv
		copied.CreatedAt = now
		existing = &copied
		r.conversations[conv.ID] = existing
	}

	existing.LastMessage = messagePreview(message)
	existing.LastMessageID = message.ID
	existing.IsArchived = nil
	existing.UpdatedAt = now

	copied := *existing
	return &copied, nil
}

func (r *fakeConversationRepo) GetByID(ctx context.Context, id string) (*entity.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[id]
	if !ok {
		return nil, errors.NotFound("Conversation", nil)
	}
	copied := *conv
	return &copied, nil
}

func (r *fakeConversationRepo) GetDirect(ctx context.Context, pairKey string) (*entity.Conversation, error) {
	return r.GetByID(ctx, pairKey)
}

func (r *fakeConversationRepo) ListByMember(ctx context.Context, participantID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sortedByMember(participantID, func(conv *entity.Conversation) bool { return true })
	return paginateConversations(all, limit, offset), int64(len(all)), nil
}

func (r *fakeConversationRepo) ListDirectByMember(ctx context.Context, participantID string, limit, offset int) ([]*entity.Conversation, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.sortedByMember(participantID, func(conv *entity.Conversation) bool { return !conv.IsGroup })
	return paginateConversations(all, limit, offset), int64(len(all)), nil
}

func (r *fakeConversationRepo) sortedByMember(participantID string, match func(*entity.Conversation) bool) []*entity.Conversation {
	var out []*entity.Conversation
	for _, conv := range r.conversations {
		if conv.HasMember(participantID) && match(conv) {
			copied := *conv
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].UpdatedAt.After(out[j].UpdatedAt)
	})
	return out
}

func paginateConversations(conversations []*entity.Conversation, limit, offset int) []*entity.Conversation {
	if offset >= len(conversations) {
		return nil
	}
	conversations = conversations[offset:]
	if limit > 0 && limit < len(conversations) {
		conversations = conversations[:limit]
	}
	return conversations
}

func (r *fakeConversationRepo) Update(ctx context.Context, conv *entity.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.conversations[conv.ID]; !ok {
		return errors.NotFound("Conversation", nil)
	}
	copied := *conv
	r.conversations[conv.ID] = &copied
	return nil
}

func (r *fakeConversationRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.conversations, id)
	return nil
}

func (r *fakeConversationRepo) SetArchived(ctx context.Context, conversationID, participantID string, archived bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	conv, ok := r.conversations[conversationID]
	if !ok {
		return errors.NotFound("Conversation", nil)
	}
	if conv.IsArchived == nil {
		conv.IsArchived = make(map[string]bool)
	}
	if archived {
		conv.IsArchived[participantID] = true
	} else {
		delete(conv.IsArchived, participantID)
	}
	return nil
}

type fakeGroupChatRepo struct {
	mu          sync.Mutex
	groups      map[string]*entity.GroupChat
	convRepo    *fakeConversationRepo
	messageRepo *fakeMessageRepo
}

func newFakeGroupChatRepo(convRepo *fakeConversationRepo, messageRepo *fakeMessageRepo) *fakeGroupChatRepo {
	return &fakeGroupChatRepo{
		groups:      make(map[string]*entity.GroupChat),
		convRepo:    convRepo,
		messageRepo: messageRepo,
	}
}

func (r *fakeGroupChatRepo) Create(ctx context.Context, group *entity.GroupChat, conv *entity.Conversation) error {
	r.mu.Lock()
	copied := *group
	r.groups[group.ID] = &copied
	r.mu.Unlock()

	r.convRepo.mu.Lock()
	convCopy := *conv
	r.convRepo.conversations[conv.ID] = &convCopy
	r.convRepo.mu.Unlock()
	return nil
}

func (r *fakeGroupChatRepo) GetByID(ctx context.Context, id string) (*entity.GroupChat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	group, ok := r.groups[id]
	if !ok {
		return nil, errors.NotFound("Group chat", nil)
	}
	copied := *group
	return &copied, nil
}

func (r *fakeGroupChatRepo) Update(ctx context.Context, group *entity.GroupChat) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.groups[group.ID]; !ok {
		return errors.NotFound("Group chat", nil)
	}
	copied := *group
	r.groups[group.ID] = &copied
	return nil
}

func (r *fakeGroupChatRepo) UpdateWithConversation(ctx context.Context, group *entity.GroupChat, conv *entity.Conversation) error {
	if err := r.Update(ctx, group); err != nil {
		return err
	}
	return r.convRepo.Update(ctx, conv)
}

func (r *fakeGroupChatRepo) AppendMessage(ctx context.Context, group *entity.GroupChat, conv *entity.Conversation, message *entity.Message) error {
	if err := r.messageRepo.Create(ctx, message); err != nil {
		return err
	}

	mirror := messagePreview(message)
	group.LastMessage = mirror
	group.LastMessageID = message.ID
	conv.LastMessage = mirror
	conv.LastMessageID = message.ID

	if err := r.Update(ctx, group); err != nil {
		return err
	}
	return r.convRepo.Update(ctx, conv)
}

func (r *fakeGroupChatRepo) Delete(ctx context.Context, groupID string) error {
	r.mu.Lock()
	delete(r.groups, groupID)
	r.mu.Unlock()
	return r.convRepo.Delete(ctx, groupID)
}

func (r *fakeGroupChatRepo) ListByMember(ctx context.Context, participantID string) ([]*entity.GroupChat, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.GroupChat
	for _, group := range r.groups {
		if group.HasMember(participantID) {
			copied := *group
			out = append(out, &copied)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

type fakeMediaStore struct {
	mu       sync.Mutex
	uploads  int
	deleted  []string
	failFrom int // fail uploads once this many have succeeded; 0 disables
}

func (s *fakeMediaStore) Upload(ctx context.Context, data []byte, contentType, folder string) (*service.MediaRef, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failFrom > 0 && s.uploads >= s.failFrom {
		return nil, fmt.Errorf("upload failed")
	}
	s.uploads++
	ref := fmt.Sprintf("%s/object-%d", folder, s.uploads)
	return &service.MediaRef{StorageRef: ref, URL: "https://storage.example.com/" + ref}, nil
}

func (s *fakeMediaStore) Delete(ctx context.Context, storageRef string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deleted = append(s.deleted, storageRef)
	return nil
}

type sentMail struct {
	To      string
	Subject string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
}

func (m *fakeMailer) Send(ctx context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMail{To: to, Subject: subject})
	return nil
}

type emittedEvent struct {
	Key   string
	Event string
}

type fakeRegistry struct {
	mu     sync.Mutex
	events []emittedEvent
}

func (r *fakeRegistry) Emit(key, event string, payload interface{}) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, emittedEvent{Key: key, Event: event})
}

func (r *fakeRegistry) eventsFor(key string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []string
	for _, e := range r.events {
		if e.Key == key {
			out = append(out, e.Event)
		}
	}
	return out
}

type fixture struct {
	directory   *fakeDirectory
	messageRepo *fakeMessageRepo
	convRepo    *fakeConversationRepo
	groupRepo   *fakeGroupChatRepo
	media       *fakeMediaStore
	mailer      *fakeMailer
	registry    *fakeRegistry

	messages *MessageUseCase
	groups   *GroupChatUseCase
	accounts *AccountUseCase
}

func newFixture() *fixture {
	directory := newFakeDirectory()
	messageRepo := newFakeMessageRepo()
	convRepo := newFakeConversationRepo(messageRepo)
	groupRepo := newFakeGroupChatRepo(convRepo, messageRepo)
	media := &fakeMediaStore{}
	mailer := &fakeMailer{}
	registry := &fakeRegistry{}

	guards := NewGuards(directory, groupRepo)

	return &fixture{
		directory:   directory,
		messageRepo: messageRepo,
		convRepo:    convRepo,
		groupRepo:   groupRepo,
		media:       media,
		mailer:      mailer,
		registry:    registry,
		messages:    NewMessageUseCase(messageRepo, convRepo, directory, media, mailer, registry, guards, time.Second),
		groups:      NewGroupChatUseCase(groupRepo, convRepo, messageRepo, directory, media, registry, guards, time.Second),
		accounts:    NewAccountUseCase(messageRepo, convRepo, groupRepo, media, registry),
	}
}

func (f *fixture) addUser(id string) *repository.ParticipantRecord {
	record := &repository.ParticipantRecord{
		ID:    id,
		Kind:  entity.KindUser,
		Name:  "User " + id,
		Email: id + "@example.com",
	}
	f.directory.put(record)
	return record
}

func (f *fixture) addShop(id, ownerID string) *repository.ParticipantRecord {
	record := &repository.ParticipantRecord{
		ID:       id,
		Kind:     entity.KindShop,
		Name:     "Shop " + id,
		Email:    id + "@example.com",
		Verified: true,
		OwnerID:  ownerID,
	}
	f.directory.put(record)
	return record
}

func user(id string) entity.Participant {
	return entity.Participant{ID: id, Kind: entity.KindUser}
}

func shop(id string) entity.Participant {
	return entity.Participant{ID: id, Kind: entity.KindShop}
}

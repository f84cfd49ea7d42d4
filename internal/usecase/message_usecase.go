package usecase

import (
	"context"
	"fmt"
	"log"
	"time"

	"coursebay/internal/domain/entity"
	"coursebay/internal/domain/repository"
	"coursebay/internal/domain/service"
	"coursebay/internal/infrastructure/ratelimit"
	ws "coursebay/internal/infrastructure/websocket"
	"coursebay/pkg/errors"
)

// MessageUseCase is the one-to-one fan-out engine: direct sends between
// users and between a user and a shop, read receipts, deletes with
// last-message recompute, and per-member archival.
type MessageUseCase struct {
	messageRepo   repository.MessageRepository
	convRepo      repository.ConversationRepository
	directory     repository.Directory
	media         service.MediaStore
	mailer        service.Mailer
	registry      SocketRegistry
	guards        *Guards
	rateLimiter   *ratelimit.RateLimiter
	uploadTimeout time.Duration
}

func NewMessageUseCase(
	messageRepo repository.MessageRepository,
	convRepo repository.ConversationRepository,
	directory repository.Directory,
	media service.MediaStore,
	mailer service.Mailer,
	registry SocketRegistry,
	guards *Guards,
	uploadTimeout time.Duration,
) *MessageUseCase {
	rateLimiter := ratelimit.NewRateLimiter()
	rateLimiter.StartCleanupRoutine()

	return &MessageUseCase{
		messageRepo:   messageRepo,
		convRepo:      convRepo,
		directory:     directory,
		media:         media,
		mailer:        mailer,
		registry:      registry,
		guards:        guards,
		rateLimiter:   rateLimiter,
		uploadTimeout: uploadTimeout,
	}
}

type SendMessageInput struct {
	Sender   entity.Participant
	Receiver entity.Participant
	Content  string
	Media    []MediaInput
}

// SendMessage validates, uploads media, persists the message together with
// its conversation update, and fans out to both sockets. Every call creates
// a new message; deduplication is the caller's concern.
func (uc *MessageUseCase) SendMessage(ctx context.Context, input SendMessageInput) (*MessageResponse, error) {
	if !input.Sender.Kind.Valid() || !input.Receiver.Kind.Valid() {
		return nil, errors.BadRequest("Unknown participant kind", nil)
	}
	if input.Sender.Equals(input.Receiver) {
		return nil, errors.BadRequest("You cannot message yourself", nil)
	}

	allowed, waitTime := uc.rateLimiter.Allow(input.Sender.ID, "send_message")
	if !allowed {
		log.Printf("SendMessage Rate Limited: %s must wait %v", input.Sender.ID, waitTime)
		return nil, errors.TooManyRequests("Rate limit exceeded. Please wait before sending another message", waitTime)
	}

	if err := validateMessageBody(input.Content, input.Media); err != nil {
		return nil, err
	}

	senderRecord, err := uc.guards.CheckSuspension(ctx, input.Sender)
	if err != nil {
		log.Printf("SendMessage: sender %s failed suspension check: %v", input.Sender.ID, err)
		return nil, err
	}

	var receiverRecord *repository.ParticipantRecord
	if input.Receiver.Kind == entity.KindShop {
		receiverRecord, err = uc.guards.CheckShopVerified(ctx, input.Receiver.ID)
	} else {
		receiverRecord, err = uc.directory.GetParticipant(ctx, input.Receiver.ID, input.Receiver.Kind)
	}
	if err != nil {
		log.Printf("SendMessage: receiver %s lookup failed: %v", input.Receiver.ID, err)
		return nil, err
	}

	if err := uc.guards.CheckBlocked(ctx, input.Sender, input.Receiver); err != nil {
		log.Printf("SendMessage: block check failed between %s and %s: %v", input.Sender.ID, input.Receiver.ID, err)
		return nil, err
	}

	uploaded, err := uploadAll(ctx, uc.media, uc.uploadTimeout, "messages/"+input.Sender.ID, input.Media)
	if err != nil {
		return nil, err
	}

	message := &entity.Message{
		SenderID:     input.Sender.ID,
		SenderKind:   input.Sender.Kind,
		ReceiverID:   input.Receiver.ID,
		ReceiverKind: input.Receiver.Kind,
		PairKey:      entity.DirectPairKey(input.Sender, input.Receiver),
		Content:      input.Content,
		Media:        uploaded,
		CreatedAt:    time.Now(),
	}

	conversationKind := entity.KindUser
	if input.Sender.Kind == entity.KindShop || input.Receiver.Kind == entity.KindShop {
		conversationKind = entity.KindShop
	}
	conv := &entity.Conversation{
		ID:      message.PairKey,
		Members: []string{input.Sender.ID, input.Receiver.ID},
		Kind:    conversationKind,
	}

	if _, err := uc.convRepo.AppendDirect(ctx, conv, message); err != nil {
		log.Printf("SendMessage: failed to persist message from %s to %s: %v", input.Sender.ID, input.Receiver.ID, err)
		destroyMedia(uc.media, uploaded)
		return nil, err
	}

	resp := &MessageResponse{Message: message, Sender: senderRecord}
	uc.registry.Emit(input.Receiver.SocketKey(), ws.EventNewMessage, resp)
	uc.registry.Emit(input.Sender.SocketKey(), ws.EventMessageSent, resp)

	if receiverRecord.NotifyByEmail && receiverRecord.Email != "" {
		go uc.notifyByEmail(receiverRecord, senderRecord, message)
	}

	return resp, nil
}

// notifyByEmail is fire-and-forget; failures are logged, never surfaced.
func (uc *MessageUseCase) notifyByEmail(receiver, sender *repository.ParticipantRecord, message *entity.Message) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	subject := fmt.Sprintf("New message from %s", sender.Name)
	body := fmt.Sprintf("<p>%s sent you a message:</p><blockquote>%s</blockquote>", sender.Name, messagePreview(message))

	if err := uc.mailer.Send(ctx, receiver.Email, subject, body); err != nil {
		log.Printf("notifyByEmail: failed to mail %s for message %s: %v", receiver.ID, message.ID, err)
	}
}

// MarkMessageRead flips the read flag for a direct message. Only the
// receiver may mark, and marking twice is a conflict.
func (uc *MessageUseCase) MarkMessageRead(ctx context.Context, callerUID, messageID string) (*entity.Message, error) {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return nil, err
	}
	if message.IsGroupMessage() {
		return nil, errors.BadRequest("Read receipts apply to direct messages only", nil)
	}

	if !uc.actsFor(ctx, callerUID, message.Receiver()) {
		return nil, errors.Forbidden("Only the receiver can mark a message read", nil)
	}
	if message.IsRead {
		return nil, errors.Conflict("Message is already marked read")
	}

	message.IsRead = true
	if err := uc.messageRepo.Update(ctx, message); err != nil {
		log.Printf("MarkMessageRead: failed to update message %s: %v", messageID, err)
		return nil, err
	}

	uc.registry.Emit(message.Sender().SocketKey(), ws.EventMessageRead, map[string]interface{}{
		"message_id": message.ID,
		"reader_id":  message.ReceiverID,
	})

	return message, nil
}

// DeleteMessage soft-deletes a message, destroys its media, and recomputes
// the owning conversation's last-message pointer when it pointed here.
func (uc *MessageUseCase) DeleteMessage(ctx context.Context, callerUID, messageID string) error {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if message.IsGroupMessage() {
		return errors.BadRequest("Group messages are deleted through their group", nil)
	}

	if !uc.actsFor(ctx, callerUID, message.Sender()) && !uc.actsFor(ctx, callerUID, message.Receiver()) {
		return errors.Forbidden("Only a participant of this message can delete it", nil)
	}
	if message.IsDeleted {
		return errors.Conflict("Message is already deleted")
	}

	message.IsDeleted = true
	if err := uc.messageRepo.Update(ctx, message); err != nil {
		log.Printf("DeleteMessage: failed to update message %s: %v", messageID, err)
		return err
	}

	destroyMedia(uc.media, message.Media)

	conv, err := uc.convRepo.GetDirect(ctx, message.PairKey)
	if err != nil {
		log.Printf("DeleteMessage: conversation lookup for %s failed: %v", message.PairKey, err)
	} else if conv.LastMessageID == message.ID {
		latest, err := uc.messageRepo.LatestVisibleByPair(ctx, message.PairKey)
		if err != nil {
			if !errors.Is(err, "NOT_FOUND") {
				log.Printf("DeleteMessage: failed to recompute last message for %s: %v", conv.ID, err)
				return err
			}
			conv.LastMessage = ""
			conv.LastMessageID = ""
		} else {
			conv.LastMessage = messagePreview(latest)
			conv.LastMessageID = latest.ID
		}
		if err := uc.convRepo.Update(ctx, conv); err != nil {
			log.Printf("DeleteMessage: failed to update conversation %s: %v", conv.ID, err)
			return err
		}
	}

	other := message.Receiver()
	if uc.actsFor(ctx, callerUID, message.Receiver()) && !uc.actsFor(ctx, callerUID, message.Sender()) {
		other = message.Sender()
	}
	uc.registry.Emit(other.SocketKey(), ws.EventMessageDeleted, map[string]interface{}{
		"message_id": message.ID,
	})

	return nil
}

// DeleteMessageForMe hides a message from the caller's own view only.
func (uc *MessageUseCase) DeleteMessageForMe(ctx context.Context, caller entity.Participant, messageID string) error {
	message, err := uc.messageRepo.GetByID(ctx, messageID)
	if err != nil {
		return err
	}
	if !caller.Equals(message.Sender()) && !caller.Equals(message.Receiver()) {
		return errors.Forbidden("Only a participant of this message can hide it", nil)
	}
	if message.DeletedFor(caller.ID) {
		return errors.Conflict("Message is already hidden")
	}

	message.DeletedBy = append(message.DeletedBy, caller.ID)
	if err := uc.messageRepo.Update(ctx, message); err != nil {
		log.Printf("DeleteMessageForMe: failed to update message %s: %v", messageID, err)
		return err
	}
	return nil
}

// SetArchived flips the caller's own visibility flag on a direct
// conversation; the counterpart's view is untouched.
func (uc *MessageUseCase) SetArchived(ctx context.Context, actor, counterpart entity.Participant, archived bool) error {
	pairKey := entity.DirectPairKey(actor, counterpart)
	conv, err := uc.convRepo.GetDirect(ctx, pairKey)
	if err != nil {
		return err
	}
	if !conv.HasMember(actor.ID) {
		return errors.Forbidden("Not a participant of this conversation", nil)
	}

	if err := uc.convRepo.SetArchived(ctx, conv.ID, actor.ID, archived); err != nil {
		log.Printf("SetArchived: failed to update conversation %s for %s: %v", conv.ID, actor.ID, err)
		return err
	}

	event := ws.EventConversationArchived
	if !archived {
		event = ws.EventConversationUnarchived
	}
	uc.registry.Emit(counterpart.SocketKey(), event, map[string]interface{}{
		"conversation_id": conv.ID,
		"by":              actor.ID,
	})

	return nil
}

// ListConversations returns the caller's direct threads, hiding archived
// ones unless asked, each joined with the counterpart's directory record.
// The returned total is the store's direct-thread count for the caller;
// archived threads are filtered after the query and may shrink a page.
func (uc *MessageUseCase) ListConversations(ctx context.Context, actor entity.Participant, includeArchived bool, limit, offset int) ([]*ConversationResponse, int64, error) {
	convs, total, err := uc.convRepo.ListDirectByMember(ctx, actor.ID, limit, offset)
	if err != nil {
		log.Printf("ListConversations: failed for %s: %v", actor.ID, err)
		return nil, 0, err
	}

	var responses []*ConversationResponse
	for _, conv := range convs {
		if !includeArchived && conv.ArchivedFor(actor.ID) {
			continue
		}

		resp := &ConversationResponse{Conversation: conv}

		counterpartKind := entity.KindUser
		if conv.Kind == entity.KindShop && actor.Kind == entity.KindUser {
			counterpartKind = entity.KindShop
		}
		counterpart, err := uc.directory.GetParticipant(ctx, conv.Counterpart(actor.ID), counterpartKind)
		if err == nil {
			resp.Counterpart = counterpart
		} else {
			log.Printf("ListConversations Warning: counterpart %s not found for %s: %v", conv.Counterpart(actor.ID), conv.ID, err)
		}

		responses = append(responses, resp)
	}

	return responses, total, nil
}

// ListMessages returns the visible history between the caller and a
// counterpart, newest first, each joined with the sender's record.
func (uc *MessageUseCase) ListMessages(ctx context.Context, actor, counterpart entity.Participant, limit, offset int) ([]*MessageResponse, int64, error) {
	pairKey := entity.DirectPairKey(actor, counterpart)
	messages, total, err := uc.messageRepo.ListByPair(ctx, pairKey, limit, offset)
	if err != nil {
		log.Printf("ListMessages: failed for pair %s: %v", pairKey, err)
		return nil, 0, err
	}

	senders := make(map[string]*repository.ParticipantRecord)
	var responses []*MessageResponse
	for _, message := range messages {
		if !message.VisibleTo(actor.ID) {
			continue
		}

		resp := &MessageResponse{Message: message}
		cacheKey := message.SenderID + ":" + string(message.SenderKind)
		if cached, ok := senders[cacheKey]; ok {
			resp.Sender = cached
		} else if record, err := uc.directory.GetParticipant(ctx, message.SenderID, message.SenderKind); err == nil {
			senders[cacheKey] = record
			resp.Sender = record
		}

		responses = append(responses, resp)
	}

	return responses, total, nil
}

// SetShopBlock flips the caller's shop block list entry for a user and
// notifies that user's socket.
func (uc *MessageUseCase) SetShopBlock(ctx context.Context, callerUID, targetUserID string, blocked bool) error {
	shop, err := uc.directory.GetShopByOwner(ctx, callerUID)
	if err != nil {
		return err
	}
	if _, err := uc.directory.GetParticipant(ctx, targetUserID, entity.KindUser); err != nil {
		return err
	}

	if shop.HasBlocked(targetUserID) == blocked {
		if blocked {
			return errors.Conflict("User is already blocked")
		}
		return errors.Conflict("User is not blocked")
	}

	if err := uc.directory.SetBlocked(ctx, shop.Participant(), targetUserID, blocked); err != nil {
		log.Printf("SetShopBlock: failed to update block list of shop %s: %v", shop.ID, err)
		return err
	}

	event := ws.EventBlockedByShop
	if !blocked {
		event = ws.EventUnblockedByShop
	}
	uc.registry.Emit(targetUserID, event, map[string]interface{}{
		"shop_id": shop.ID,
	})

	return nil
}

// ResolveActor maps an authenticated uid to the participant it acts as: the
// user itself, or the shop it owns when the request asks for the shop
// identity.
func (uc *MessageUseCase) ResolveActor(ctx context.Context, callerUID string, asShop bool) (entity.Participant, error) {
	if !asShop {
		return entity.Participant{ID: callerUID, Kind: entity.KindUser}, nil
	}
	shop, err := uc.directory.GetShopByOwner(ctx, callerUID)
	if err != nil {
		return entity.Participant{}, err
	}
	return shop.Participant(), nil
}

// actsFor reports whether the caller may act as the given participant: their
// own user identity, or a shop they own.
func (uc *MessageUseCase) actsFor(ctx context.Context, callerUID string, p entity.Participant) bool {
	if p.Kind == entity.KindUser {
		return p.ID == callerUID
	}
	shop, err := uc.directory.GetShopByOwner(ctx, callerUID)
	if err != nil {
		return false
	}
	return shop.ID == p.ID
}

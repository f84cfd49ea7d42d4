package usecase

import (
	"context"
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"coursebay/internal/domain/entity"
	"coursebay/pkg/errors"
)

func TestSendMessageCreatesConversation(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")

	resp, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		Sender:   user("alice"),
		Receiver: user("bob"),
		Content:  "hello",
	})
	require.NoError(t, err)
	require.NotNil(t, resp)
	assert.NotEmpty(t, resp.ID)
	assert.Equal(t, "alice", resp.SenderID)
	assert.Equal(t, "User alice", resp.Sender.Name)

	conv, err := f.convRepo.GetDirect(context.Background(), resp.PairKey)
	require.NoError(t, err)
	assert.Equal(t, "hello", conv.LastMessage)
	assert.Equal(t, resp.ID, conv.LastMessageID)
	assert.ElementsMatch(t, []string{"alice", "bob"}, conv.Members)

	assert.Equal(t, []string{"newMessage"}, f.registry.eventsFor("bob"))
	assert.Equal(t, []string{"messageSent"}, f.registry.eventsFor("alice"))
}

func TestSendMessageReusesConversation(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")
	ctx := context.Background()

	first, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user("bob"), Content: "one"})
	require.NoError(t, err)
	second, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("bob"), Receiver: user("alice"), Content: "two"})
	require.NoError(t, err)

	assert.Equal(t, first.PairKey, second.PairKey)

	convs, _, err := f.convRepo.ListByMember(ctx, "alice", 0, 0)
	require.NoError(t, err)
	assert.Len(t, convs, 1)
	assert.Equal(t, "two", convs[0].LastMessage)
}

func TestSendMessageEmptyBodyRejected(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")

	_, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		Sender:   user("alice"),
		Receiver: user("bob"),
		Content:  "   ",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestSendMessageToSelfRejected(t *testing.T) {
	f := newFixture()
	f.addUser("alice")

	_, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		Sender:   user("alice"),
		Receiver: user("alice"),
		Content:  "hi",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
}

func TestSendMessageMediaLimitCheckedBeforeUpload(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")

	data := base64.StdEncoding.EncodeToString([]byte("img"))
	var media []MediaInput
	for i := 0; i < entity.MaxMediaItems+1; i++ {
		media = append(media, MediaInput{Data: data, Kind: entity.MediaImage})
	}

	_, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		Sender:   user("alice"),
		Receiver: user("bob"),
		Media:    media,
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BAD_REQUEST"))
	assert.Zero(t, f.media.uploads)
}

func TestSendMessageUploadFailureCleansUp(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")
	f.media.failFrom = 1

	data := base64.StdEncoding.EncodeToString([]byte("img"))
	_, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		Sender:   user("alice"),
		Receiver: user("bob"),
		Media: []MediaInput{
			{Data: data, Kind: entity.MediaImage},
			{Data: data, Kind: entity.MediaImage},
		},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "INTERNAL_ERROR"))
	assert.Len(t, f.media.deleted, 1)

	messages, err := f.messageRepo.ListBySender(context.Background(), user("alice"))
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestSendMessageBlockedSymmetric(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	shopRecord := f.addShop("shop1", "carol")
	f.addUser("carol")
	shopRecord.Blocked = []string{"alice"}
	f.directory.put(shopRecord)

	ctx := context.Background()

	// user -> shop fails
	_, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: shop("shop1"), Content: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BLOCKED"))

	// shop -> user fails too, block is symmetric
	_, err = f.messages.SendMessage(ctx, SendMessageInput{Sender: shop("shop1"), Receiver: user("alice"), Content: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BLOCKED"))
}

func TestSendMessageSuspendedSender(t *testing.T) {
	f := newFixture()
	alice := f.addUser("alice")
	f.addUser("bob")
	alice.Suspended = true
	f.directory.put(alice)

	_, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		Sender:   user("alice"),
		Receiver: user("bob"),
		Content:  "hi",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "SUSPENDED"))
}

func TestSendMessageSuspensionExpired(t *testing.T) {
	f := newFixture()
	alice := f.addUser("alice")
	f.addUser("bob")
	past := time.Now().Add(-time.Hour)
	alice.Suspended = true
	alice.SuspendedUntil = &past
	f.directory.put(alice)

	_, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		Sender:   user("alice"),
		Receiver: user("bob"),
		Content:  "hi",
	})
	assert.NoError(t, err)
}

func TestSendMessageUnverifiedShopReceiver(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	shopRecord := f.addShop("shop1", "carol")
	shopRecord.Verified = false
	f.directory.put(shopRecord)

	_, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		Sender:   user("alice"),
		Receiver: shop("shop1"),
		Content:  "hi",
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_VERIFIED"))
}

func TestSendMessageNotifiesByEmail(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	bob := f.addUser("bob")
	bob.NotifyByEmail = true
	f.directory.put(bob)

	_, err := f.messages.SendMessage(context.Background(), SendMessageInput{
		Sender:   user("alice"),
		Receiver: user("bob"),
		Content:  "hi",
	})
	require.NoError(t, err)

	// email dispatch is async
	assert.Eventually(t, func() bool {
		f.mailer.mu.Lock()
		defer f.mailer.mu.Unlock()
		return len(f.mailer.sent) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestMarkMessageRead(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")
	ctx := context.Background()

	sent, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user("bob"), Content: "hi"})
	require.NoError(t, err)

	read, err := f.messages.MarkMessageRead(ctx, "bob", sent.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
	assert.Contains(t, f.registry.eventsFor("alice"), "messageRead")

	// second mark is a conflict
	_, err = f.messages.MarkMessageRead(ctx, "bob", sent.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))
}

func TestMarkMessageReadOnlyReceiver(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")
	f.addUser("mallory")
	ctx := context.Background()

	sent, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user("bob"), Content: "hi"})
	require.NoError(t, err)

	_, err = f.messages.MarkMessageRead(ctx, "alice", sent.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))

	_, err = f.messages.MarkMessageRead(ctx, "mallory", sent.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "FORBIDDEN"))
}

func TestDeleteLastMessageClearsPointer(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")
	ctx := context.Background()

	sent, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user("bob"), Content: "only"})
	require.NoError(t, err)

	require.NoError(t, f.messages.DeleteMessage(ctx, "alice", sent.ID))

	conv, err := f.convRepo.GetDirect(ctx, sent.PairKey)
	require.NoError(t, err)
	assert.Empty(t, conv.LastMessage)
	assert.Empty(t, conv.LastMessageID)
	assert.Contains(t, f.registry.eventsFor("bob"), "messageDeleted")
}

func TestDeleteMessageRecomputesPointer(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")
	ctx := context.Background()

	first, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user("bob"), Content: "first"})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user("bob"), Content: "second"})
	require.NoError(t, err)

	require.NoError(t, f.messages.DeleteMessage(ctx, "alice", second.ID))

	conv, err := f.convRepo.GetDirect(ctx, first.PairKey)
	require.NoError(t, err)
	assert.Equal(t, "first", conv.LastMessage)
	assert.Equal(t, first.ID, conv.LastMessageID)
}

func TestDeleteMessageTwiceConflicts(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")
	ctx := context.Background()

	sent, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user("bob"), Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, f.messages.DeleteMessage(ctx, "bob", sent.ID))
	err = f.messages.DeleteMessage(ctx, "bob", sent.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))
}

func TestDeleteMessageForMeHidesFromOneSide(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")
	ctx := context.Background()

	sent, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user("bob"), Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, f.messages.DeleteMessageForMe(ctx, user("bob"), sent.ID))

	bobView, _, err := f.messages.ListMessages(ctx, user("bob"), user("alice"), 0, 0)
	require.NoError(t, err)
	assert.Empty(t, bobView)

	aliceView, _, err := f.messages.ListMessages(ctx, user("alice"), user("bob"), 0, 0)
	require.NoError(t, err)
	assert.Len(t, aliceView, 1)

	err = f.messages.DeleteMessageForMe(ctx, user("bob"), sent.ID)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))
}

func TestArchiveIsPerMember(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")
	ctx := context.Background()

	sent, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user("bob"), Content: "hi"})
	require.NoError(t, err)

	require.NoError(t, f.messages.SetArchived(ctx, user("alice"), user("bob"), true))

	conv, err := f.convRepo.GetDirect(ctx, sent.PairKey)
	require.NoError(t, err)
	assert.True(t, conv.ArchivedFor("alice"))
	assert.False(t, conv.ArchivedFor("bob"))
	assert.Contains(t, f.registry.eventsFor("bob"), "conversationArchived")

	aliceList, _, err := f.messages.ListConversations(ctx, user("alice"), false, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, aliceList)

	bobList, _, err := f.messages.ListConversations(ctx, user("bob"), false, 0, 0)
	require.NoError(t, err)
	assert.Len(t, bobList, 1)
}

func TestListConversationsTotalCountsDirectThreads(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")
	f.addUser("carol")
	f.addUser("dave")
	ctx := context.Background()

	for _, other := range []string{"bob", "carol", "dave"} {
		_, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user(other), Content: "hi " + other})
		require.NoError(t, err)
		time.Sleep(2 * time.Millisecond)
	}
	f.createGroup(t, "alice", "bob", "carol")

	// group threads take no page slots and the total counts the full set
	page, total, err := f.messages.ListConversations(ctx, user("alice"), false, 2, 0)
	require.NoError(t, err)
	assert.Len(t, page, 2)
	assert.EqualValues(t, 3, total)
	for _, resp := range page {
		assert.False(t, resp.Conversation.IsGroup)
	}
}

func TestNewMessageClearsArchiveFlags(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")
	ctx := context.Background()

	sent, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user("bob"), Content: "hi"})
	require.NoError(t, err)
	require.NoError(t, f.messages.SetArchived(ctx, user("bob"), user("alice"), true))

	_, err = f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: user("bob"), Content: "again"})
	require.NoError(t, err)

	conv, err := f.convRepo.GetDirect(ctx, sent.PairKey)
	require.NoError(t, err)
	assert.False(t, conv.ArchivedFor("alice"))
	assert.False(t, conv.ArchivedFor("bob"))
}

func TestArchiveWithoutConversation(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("bob")

	err := f.messages.SetArchived(context.Background(), user("alice"), user("bob"), true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "NOT_FOUND"))
}

func TestShopBlockAndUnblock(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("carol")
	f.addShop("shop1", "carol")
	ctx := context.Background()

	require.NoError(t, f.messages.SetShopBlock(ctx, "carol", "alice", true))
	assert.Contains(t, f.registry.eventsFor("alice"), "blockedByShop")

	// blocking again is a conflict
	err := f.messages.SetShopBlock(ctx, "carol", "alice", true)
	require.Error(t, err)
	assert.True(t, errors.Is(err, "CONFLICT"))

	// blocked pair cannot message
	_, err = f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: shop("shop1"), Content: "hi"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, "BLOCKED"))

	require.NoError(t, f.messages.SetShopBlock(ctx, "carol", "alice", false))
	assert.Contains(t, f.registry.eventsFor("alice"), "unblockedByShop")

	_, err = f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: shop("shop1"), Content: "hi"})
	assert.NoError(t, err)
}

func TestShopReplyUsesOwnerResolution(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("carol")
	f.addShop("shop1", "carol")
	ctx := context.Background()

	actor, err := f.messages.ResolveActor(ctx, "carol", true)
	require.NoError(t, err)
	assert.Equal(t, shop("shop1"), actor)
	assert.Equal(t, "shop_shop1", actor.SocketKey())

	resp, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: actor, Receiver: user("alice"), Content: "welcome"})
	require.NoError(t, err)
	assert.Equal(t, entity.KindShop, resp.SenderKind)
	assert.Contains(t, f.registry.eventsFor("shop_shop1"), "messageSent")
	assert.Contains(t, f.registry.eventsFor("alice"), "newMessage")
}

func TestShopOwnerActsForShopMessages(t *testing.T) {
	f := newFixture()
	f.addUser("alice")
	f.addUser("carol")
	f.addShop("shop1", "carol")
	ctx := context.Background()

	sent, err := f.messages.SendMessage(ctx, SendMessageInput{Sender: user("alice"), Receiver: shop("shop1"), Content: "hi"})
	require.NoError(t, err)

	// the shop owner marks read on behalf of the shop
	read, err := f.messages.MarkMessageRead(ctx, "carol", sent.ID)
	require.NoError(t, err)
	assert.True(t, read.IsRead)
}

func TestDirectPairKeyIsOrderIndependent(t *testing.T) {
	a := user("alice")
	b := user("bob")
	assert.Equal(t, entity.DirectPairKey(a, b), entity.DirectPairKey(b, a))

	s := shop("shop1")
	assert.Equal(t, entity.DirectPairKey(a, s), entity.DirectPairKey(s, a))
	assert.NotEqual(t, entity.DirectPairKey(a, b), entity.DirectPairKey(a, s))
}

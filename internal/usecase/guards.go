package usecase

import (
	"context"
	"net/http"
	"time"

	"coursebay/internal/domain/entity"
	"coursebay/internal/domain/repository"
	"coursebay/pkg/errors"
)

// Guards are the pre-mutation authorization checks. Each is a fresh read
// against the directory or group store; nothing is cached across requests
// because suspension and block state can change between them.
type Guards struct {
	directory repository.Directory
	groups    repository.GroupChatRepository
}

func NewGuards(directory repository.Directory, groups repository.GroupChatRepository) *Guards {
	return &Guards{
		directory: directory,
		groups:    groups,
	}
}

// CheckSuspension fails when the participant is suspended indefinitely or
// until a future time. Returns the directory record for reuse.
func (g *Guards) CheckSuspension(ctx context.Context, p entity.Participant) (*repository.ParticipantRecord, error) {
	record, err := g.directory.GetParticipant(ctx, p.ID, p.Kind)
	if err != nil {
		return nil, err
	}
	if record.SuspensionActive(time.Now()) {
		return nil, errors.New("SUSPENDED", "Account is suspended", http.StatusForbidden, nil)
	}
	return record, nil
}

// CheckShopVerified fails when the shop has not passed verification.
func (g *Guards) CheckShopVerified(ctx context.Context, shopID string) (*repository.ParticipantRecord, error) {
	record, err := g.directory.GetParticipant(ctx, shopID, entity.KindShop)
	if err != nil {
		return nil, err
	}
	if !record.Verified {
		return nil, errors.New("NOT_VERIFIED", "Shop is not verified", http.StatusForbidden, nil)
	}
	return record, nil
}

// CheckBlocked fails when either side has the other on its block list. The
// check is symmetric: a block in one direction suppresses both.
func (g *Guards) CheckBlocked(ctx context.Context, a, b entity.Participant) error {
	recordA, err := g.directory.GetParticipant(ctx, a.ID, a.Kind)
	if err != nil {
		return err
	}
	recordB, err := g.directory.GetParticipant(ctx, b.ID, b.Kind)
	if err != nil {
		return err
	}
	if recordA.HasBlocked(b.ID) || recordB.HasBlocked(a.ID) {
		return errors.New("BLOCKED", "Messaging between these accounts is blocked", http.StatusForbidden, nil)
	}
	return nil
}

// CheckGroupAccess loads the group and verifies membership, and admin role
// when required.
func (g *Guards) CheckGroupAccess(ctx context.Context, groupID, participantID string, requireAdmin bool) (*entity.GroupChat, error) {
	group, err := g.groups.GetByID(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(participantID) {
		return nil, errors.New("NOT_MEMBER", "Not a member of this group", http.StatusForbidden, nil)
	}
	if requireAdmin && !group.IsAdmin(participantID) {
		return nil, errors.New("NOT_ADMIN", "Admin access required", http.StatusForbidden, nil)
	}
	return group, nil
}

package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"squadbase/models"
)

// SquadDetails is the read model for a squad page: the squad document plus
// the resolved member profiles.
type SquadDetails struct {
	Squad   models.Squad  `json:"squad"`
	Members []models.User `json:"members"`
}

// FixMembershipResult reports what the repair pass did for one user.
type FixMembershipResult struct {
	Status       string `json:"status"` // "ok", "cleared", "aligned", "resolved"
	SquadID      string `json:"squadId,omitempty"`
	RemovedFrom  int    `json:"removedFrom,omitempty"`
	ClearedStale bool   `json:"clearedStale,omitempty"`
}

// Squads implements the membership state machine. Every cross-document
// sequence runs as an ordered saga without transactions; partial failures
// leave states the reconciliation sweeps repair, never states that violate
// a single document's invariants.
type Squads struct {
	squads   SquadStore
	users    UserStore
	invites  InviteStore
	requests JoinRequestStore
	notifier *Notifier
	tiers    TierConfig
	log      *zap.Logger
	now      func() time.Time
	newID    func() string
}

func NewSquads(squads SquadStore, users UserStore, invites InviteStore, requests JoinRequestStore, notifier *Notifier, tiers TierConfig, log *zap.Logger) *Squads {
	return &Squads{
		squads:   squads,
		users:    users,
		invites:  invites,
		requests: requests,
		notifier: notifier,
		tiers:    tiers,
		log:      log,
		now:      time.Now,
		newID:    func() string { return uuid.NewString() },
	}
}

func displayName(u *models.User) string {
	if u != nil && u.XUsername != "" {
		return u.XUsername
	}
	if u != nil {
		return u.WalletAddress
	}
	return ""
}

func (s *Squads) requireUser(ctx context.Context, wallet string) (*models.User, error) {
	user, err := s.users.GetByWallet(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrNotFound(fmt.Sprintf("user %s not found", wallet))
	}
	return user, nil
}

func (s *Squads) requireSquad(ctx context.Context, squadID string) (*models.Squad, error) {
	squad, err := s.squads.GetByID(ctx, squadID)
	if err != nil {
		return nil, err
	}
	if squad == nil {
		return nil, ErrNotFound("squad not found")
	}
	return squad, nil
}

// capacity returns the squad's member limit, falling back to the tier
// table for documents created before maxMembers was persisted.
func (s *Squads) capacity(squad *models.Squad) int {
	if squad.MaxMembers > 0 {
		return squad.MaxMembers
	}
	_, max := s.tiers.TierFor(squad.TotalSquadPoints)
	return max
}

// Create forms a new squad with the caller as leader and sole member. The
// points cache starts at the leader's balance.
func (s *Squads) Create(ctx context.Context, leaderWallet, name, description string) (*models.Squad, error) {
	name = strings.TrimSpace(name)
	if len(name) < 3 || len(name) > 30 {
		return nil, ErrValidation("squad name must be between 3 and 30 characters")
	}

	leader, err := s.requireUser(ctx, leaderWallet)
	if err != nil {
		return nil, err
	}
	if leader.SquadID != "" {
		return nil, ErrConflict("you are already in a squad")
	}

	existing, err := s.squads.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrConflict("a squad with this name already exists")
	}

	tier, maxMembers := s.tiers.TierFor(leader.Points)
	now := s.now()
	squad := &models.Squad{
		SquadID:               s.newID(),
		Name:                  name,
		Description:           strings.TrimSpace(description),
		LeaderWalletAddress:   leader.WalletAddress,
		MemberWalletAddresses: []string{leader.WalletAddress},
		TotalSquadPoints:      leader.Points,
		Tier:                  tier,
		MaxMembers:            maxMembers,
		CreatedAt:             now,
		UpdatedAt:             now,
	}
	if err := s.squads.Insert(ctx, squad); err != nil {
		return nil, err
	}
	if err := s.users.SetSquad(ctx, leader.WalletAddress, squad.SquadID); err != nil {
		// Squad exists without the back-reference; the membership sweep
		// aligns it. Surface the error so the caller can retry.
		s.log.Error("failed to set squadId on creator", zap.String("squadId", squad.SquadID), zap.Error(err))
		return nil, err
	}
	return squad, nil
}

// Details returns a squad together with its member profiles.
func (s *Squads) Details(ctx context.Context, squadID string) (*SquadDetails, error) {
	squad, err := s.requireSquad(ctx, squadID)
	if err != nil {
		return nil, err
	}
	members, err := s.users.ListByWallets(ctx, squad.MemberWalletAddresses)
	if err != nil {
		return nil, err
	}
	return &SquadDetails{Squad: *squad, Members: members}, nil
}

// MySquad returns the caller's squad, or NotFound when they have none.
func (s *Squads) MySquad(ctx context.Context, wallet string) (*SquadDetails, error) {
	user, err := s.requireUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if user.SquadID == "" {
		return nil, ErrNotFound("you are not in a squad")
	}
	return s.Details(ctx, user.SquadID)
}

// Leaderboard returns the top squads by cached points.
func (s *Squads) Leaderboard(ctx context.Context, limit int64) ([]models.Squad, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return s.squads.TopByPoints(ctx, limit)
}

// SendInvite creates a pending invitation from the squad leader to a
// wallet, notifying the invitee. One pending invitation per (squad,
// invitee).
func (s *Squads) SendInvite(ctx context.Context, leaderWallet, squadID, inviteeWallet string) (*models.SquadInvitation, error) {
	if !ValidWalletAddress(inviteeWallet) {
		return nil, ErrValidation("invalid invitee wallet address")
	}
	squad, err := s.requireSquad(ctx, squadID)
	if err != nil {
		return nil, err
	}
	if squad.LeaderWalletAddress != leaderWallet {
		return nil, ErrForbidden("only the squad leader can send invitations")
	}
	if leaderWallet == inviteeWallet {
		return nil, ErrValidation("you cannot invite yourself")
	}
	if squad.HasMember(inviteeWallet) {
		return nil, ErrConflict("user is already a member of this squad")
	}
	if len(squad.MemberWalletAddresses) >= s.capacity(squad) {
		return nil, ErrConflict("squad is full")
	}

	pending, err := s.invites.FindPending(ctx, squadID, inviteeWallet)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrConflict("an invitation for this user is already pending")
	}

	leader, err := s.requireUser(ctx, leaderWallet)
	if err != nil {
		return nil, err
	}

	now := s.now()
	inv := &models.SquadInvitation{
		InvitationID:               s.newID(),
		SquadID:                    squad.SquadID,
		SquadName:                  squad.Name,
		InvitedByUserWalletAddress: leaderWallet,
		InvitedUserWalletAddress:   inviteeWallet,
		Status:                     models.InviteStatusPending,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}
	if err := s.invites.Insert(ctx, inv); err != nil {
		return nil, err
	}

	s.notifier.Create(ctx, inviteeWallet, models.NotifSquadInviteReceived,
		"Squad Invitation",
		fmt.Sprintf("%s invited you to join squad %q", displayName(leader), squad.Name),
		InvitePayload{
			InvitationID: inv.InvitationID,
			SquadID:      squad.SquadID,
			SquadName:    squad.Name,
			ActorWallet:  leaderWallet,
			ActorName:    displayName(leader),
		})
	return inv, nil
}

// AcceptInvite makes the invitee a member. The status flip is the saga's
// commit point: it happens first and conditionally, so two concurrent
// accepts (or an accept racing a revoke) resolve to one winner.
func (s *Squads) AcceptInvite(ctx context.Context, wallet, invitationID string) (*models.Squad, error) {
	inv, err := s.invites.GetByID(ctx, invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound("invitation not found")
	}
	if inv.InvitedUserWalletAddress != wallet {
		return nil, ErrForbidden("this invitation is not addressed to you")
	}
	if inv.Status != models.InviteStatusPending {
		return nil, ErrConflict(fmt.Sprintf("invitation is already %s", inv.Status))
	}

	user, err := s.requireUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if user.SquadID != "" {
		return nil, ErrConflict("you must leave your current squad before joining another")
	}

	squad, err := s.squads.GetByID(ctx, inv.SquadID)
	if err != nil {
		return nil, err
	}
	if squad == nil {
		// Squad disbanded after the invite went out; retire the invitation.
		if _, err := s.invites.TransitionFromPending(ctx, invitationID, models.InviteStatusRevoked, "squad no longer exists"); err != nil {
			s.log.Warn("failed to retire orphaned invitation", zap.String("invitationId", invitationID), zap.Error(err))
		}
		return nil, ErrNotFound("squad no longer exists")
	}
	if len(squad.MemberWalletAddresses) >= s.capacity(squad) {
		return nil, ErrConflict("squad is full")
	}

	ok, err := s.invites.TransitionFromPending(ctx, invitationID, models.InviteStatusAccepted, "")
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict("invitation has already been resolved")
	}

	if err := s.joinSquad(ctx, user, squad); err != nil {
		return nil, err
	}

	s.notifier.Create(ctx, inv.InvitedByUserWalletAddress, models.NotifSquadInviteAccepted,
		"Invitation Accepted",
		fmt.Sprintf("%s accepted your invitation to %q", displayName(user), squad.Name),
		InvitePayload{
			InvitationID: inv.InvitationID,
			SquadID:      squad.SquadID,
			SquadName:    squad.Name,
			ActorWallet:  wallet,
			ActorName:    displayName(user),
		})
	s.notifyMembers(ctx, squad, []string{wallet, inv.InvitedByUserWalletAddress}, models.NotifSquadMemberJoined,
		"New Squad Member",
		fmt.Sprintf("%s joined %q", displayName(user), squad.Name),
		SquadPayload{SquadID: squad.SquadID, SquadName: squad.Name, ActorWallet: wallet, ActorName: displayName(user)})

	return s.squads.GetByID(ctx, squad.SquadID)
}

// joinSquad applies the membership writes shared by invite acceptance and
// join-request approval: member array + points cache, then the user
// back-reference.
func (s *Squads) joinSquad(ctx context.Context, user *models.User, squad *models.Squad) error {
	if err := s.squads.AddMember(ctx, squad.SquadID, user.WalletAddress, user.Points); err != nil {
		return err
	}
	if err := s.users.SetSquad(ctx, user.WalletAddress, squad.SquadID); err != nil {
		// Member array updated but back-reference missing; the membership
		// sweep aligns it.
		s.log.Error("failed to set squadId after join",
			zap.String("wallet", user.WalletAddress), zap.String("squadId", squad.SquadID), zap.Error(err))
		return err
	}
	return nil
}

// DeclineInvite is the invitee rejecting a pending invitation.
func (s *Squads) DeclineInvite(ctx context.Context, wallet, invitationID string) error {
	inv, err := s.invites.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound("invitation not found")
	}
	if inv.InvitedUserWalletAddress != wallet {
		return ErrForbidden("this invitation is not addressed to you")
	}
	ok, err := s.invites.TransitionFromPending(ctx, invitationID, models.InviteStatusDeclined, "")
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict(fmt.Sprintf("invitation is already %s", inv.Status))
	}

	user, _ := s.users.GetByWallet(ctx, wallet)
	s.notifier.Create(ctx, inv.InvitedByUserWalletAddress, models.NotifSquadInviteDeclined,
		"Invitation Declined",
		fmt.Sprintf("%s declined your invitation to %q", displayName(user), inv.SquadName),
		InvitePayload{
			InvitationID: inv.InvitationID,
			SquadID:      inv.SquadID,
			SquadName:    inv.SquadName,
			ActorWallet:  wallet,
			ActorName:    displayName(user),
		})
	return nil
}

// RevokeInvite is the inviter withdrawing a pending invitation.
func (s *Squads) RevokeInvite(ctx context.Context, leaderWallet, invitationID string) error {
	inv, err := s.invites.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound("invitation not found")
	}
	if inv.InvitedByUserWalletAddress != leaderWallet {
		return ErrForbidden("only the inviter can revoke this invitation")
	}
	ok, err := s.invites.TransitionFromPending(ctx, invitationID, models.InviteStatusRevoked, "")
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict(fmt.Sprintf("invitation is already %s", inv.Status))
	}

	leader, _ := s.users.GetByWallet(ctx, leaderWallet)
	s.notifier.Create(ctx, inv.InvitedUserWalletAddress, models.NotifSquadInviteRevoked,
		"Invitation Revoked",
		fmt.Sprintf("Your invitation to %q was revoked", inv.SquadName),
		InvitePayload{
			InvitationID: inv.InvitationID,
			SquadID:      inv.SquadID,
			SquadName:    inv.SquadName,
			ActorWallet:  leaderWallet,
			ActorName:    displayName(leader),
		})
	return nil
}

// PendingInvitesFor lists the caller's pending invitations.
func (s *Squads) PendingInvitesFor(ctx context.Context, wallet string) ([]models.SquadInvitation, error) {
	return s.invites.ListPendingFor(ctx, wallet)
}

// RequestJoin creates a pending join request to a squad and notifies the
// leader. At most one pending request per (requester, squad); the approve
// path revalidates and the sweep is the backstop against duplicates that
// race past the pre-check.
func (s *Squads) RequestJoin(ctx context.Context, wallet, squadID, message string) (*models.SquadJoinRequest, error) {
	user, err := s.requireUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	if user.SquadID != "" {
		return nil, ErrConflict("you are already in a squad")
	}
	squad, err := s.requireSquad(ctx, squadID)
	if err != nil {
		return nil, err
	}
	if squad.HasMember(wallet) {
		return nil, ErrConflict("you are already a member of this squad")
	}
	if len(squad.MemberWalletAddresses) >= s.capacity(squad) {
		return nil, ErrConflict("squad is full")
	}

	pending, err := s.requests.FindPending(ctx, squadID, wallet)
	if err != nil {
		return nil, err
	}
	if pending != nil {
		return nil, ErrConflict("you already have a pending request for this squad")
	}

	now := s.now()
	req := &models.SquadJoinRequest{
		RequestID:                   s.newID(),
		SquadID:                     squad.SquadID,
		SquadName:                   squad.Name,
		RequestingUserWalletAddress: wallet,
		RequestingUserXUsername:     user.XUsername,
		Message:                     strings.TrimSpace(message),
		Status:                      models.JoinRequestStatusPending,
		CreatedAt:                   now,
		UpdatedAt:                   now,
	}
	if err := s.requests.Insert(ctx, req); err != nil {
		return nil, err
	}

	s.notifier.Create(ctx, squad.LeaderWalletAddress, models.NotifSquadJoinRequestReceived,
		"Join Request",
		fmt.Sprintf("%s wants to join %q", displayName(user), squad.Name),
		JoinRequestPayload{
			RequestID:   req.RequestID,
			SquadID:     squad.SquadID,
			SquadName:   squad.Name,
			ActorWallet: wallet,
			ActorName:   displayName(user),
		})
	return req, nil
}

// ApproveJoin is the leader accepting a pending join request. Capacity and
// the requester's squad-free status are revalidated at approval time; a
// stale request is auto-rejected instead of half-applied.
func (s *Squads) ApproveJoin(ctx context.Context, leaderWallet, requestID string) (*models.Squad, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, ErrNotFound("join request not found")
	}
	squad, err := s.requireSquad(ctx, req.SquadID)
	if err != nil {
		return nil, err
	}
	if squad.LeaderWalletAddress != leaderWallet {
		return nil, ErrForbidden("only the squad leader can approve join requests")
	}
	if req.Status != models.JoinRequestStatusPending {
		return nil, ErrConflict(fmt.Sprintf("join request is already %s", req.Status))
	}

	requester, err := s.users.GetByWallet(ctx, req.RequestingUserWalletAddress)
	if err != nil {
		return nil, err
	}
	if requester == nil || requester.SquadID != "" {
		if _, err := s.requests.TransitionFromPending(ctx, requestID, models.JoinRequestStatusRejected); err != nil {
			s.log.Warn("failed to auto-reject stale join request", zap.String("requestId", requestID), zap.Error(err))
		}
		if requester == nil {
			return nil, ErrNotFound("requesting user no longer exists")
		}
		return nil, ErrConflict("requesting user has already joined a squad")
	}
	if len(squad.MemberWalletAddresses) >= s.capacity(squad) {
		return nil, ErrConflict("squad is full")
	}

	ok, err := s.requests.TransitionFromPending(ctx, requestID, models.JoinRequestStatusApproved)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrConflict("join request has already been resolved")
	}

	if err := s.joinSquad(ctx, requester, squad); err != nil {
		return nil, err
	}

	s.notifier.Create(ctx, requester.WalletAddress, models.NotifSquadJoinRequestApproved,
		"Join Request Approved",
		fmt.Sprintf("Your request to join %q was approved", squad.Name),
		JoinRequestPayload{
			RequestID: req.RequestID,
			SquadID:   squad.SquadID,
			SquadName: squad.Name,
		})
	s.notifyMembers(ctx, squad, []string{requester.WalletAddress, leaderWallet}, models.NotifSquadMemberJoined,
		"New Squad Member",
		fmt.Sprintf("%s joined %q", displayName(requester), squad.Name),
		SquadPayload{SquadID: squad.SquadID, SquadName: squad.Name, ActorWallet: requester.WalletAddress, ActorName: displayName(requester)})

	return s.squads.GetByID(ctx, squad.SquadID)
}

// RejectJoin is the leader declining a pending join request.
func (s *Squads) RejectJoin(ctx context.Context, leaderWallet, requestID string) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrNotFound("join request not found")
	}
	squad, err := s.requireSquad(ctx, req.SquadID)
	if err != nil {
		return err
	}
	if squad.LeaderWalletAddress != leaderWallet {
		return ErrForbidden("only the squad leader can reject join requests")
	}
	ok, err := s.requests.TransitionFromPending(ctx, requestID, models.JoinRequestStatusRejected)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict(fmt.Sprintf("join request is already %s", req.Status))
	}

	s.notifier.Create(ctx, req.RequestingUserWalletAddress, models.NotifSquadJoinRequestRejected,
		"Join Request Rejected",
		fmt.Sprintf("Your request to join %q was not approved", req.SquadName),
		JoinRequestPayload{RequestID: req.RequestID, SquadID: req.SquadID, SquadName: req.SquadName})
	return nil
}

// CancelJoin is the requester withdrawing their own pending request.
func (s *Squads) CancelJoin(ctx context.Context, wallet, requestID string) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req == nil {
		return ErrNotFound("join request not found")
	}
	if req.RequestingUserWalletAddress != wallet {
		return ErrForbidden("only the requester can cancel this request")
	}
	ok, err := s.requests.TransitionFromPending(ctx, requestID, models.JoinRequestStatusCancelled)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict(fmt.Sprintf("join request is already %s", req.Status))
	}

	if squad, err := s.squads.GetByID(ctx, req.SquadID); err == nil && squad != nil {
		user, _ := s.users.GetByWallet(ctx, wallet)
		s.notifier.Create(ctx, squad.LeaderWalletAddress, models.NotifSquadJoinRequestCancelled,
			"Join Request Cancelled",
			fmt.Sprintf("%s withdrew their request to join %q", displayName(user), req.SquadName),
			JoinRequestPayload{RequestID: req.RequestID, SquadID: req.SquadID, SquadName: req.SquadName, ActorWallet: wallet, ActorName: displayName(user)})
	}
	return nil
}

// PendingRequestsFor lists the caller's pending join requests.
func (s *Squads) PendingRequestsFor(ctx context.Context, wallet string) ([]models.SquadJoinRequest, error) {
	return s.requests.ListPendingFor(ctx, wallet)
}

// PendingRequestsForSquad lists a squad's pending join requests,
// leader-only.
func (s *Squads) PendingRequestsForSquad(ctx context.Context, leaderWallet, squadID string) ([]models.SquadJoinRequest, error) {
	squad, err := s.requireSquad(ctx, squadID)
	if err != nil {
		return nil, err
	}
	if squad.LeaderWalletAddress != leaderWallet {
		return nil, ErrForbidden("only the squad leader can view join requests")
	}
	return s.requests.ListPendingForSquad(ctx, squadID)
}

// Leave removes the caller from their squad. A sole member's departure
// deletes the squad; a leader's departure with members remaining promotes
// the first remaining member in array order.
func (s *Squads) Leave(ctx context.Context, wallet string) error {
	user, err := s.requireUser(ctx, wallet)
	if err != nil {
		return err
	}
	if user.SquadID == "" {
		return ErrConflict("you are not in a squad")
	}
	squad, err := s.squads.GetByID(ctx, user.SquadID)
	if err != nil {
		return err
	}
	if squad == nil {
		// Stale back-reference; clear it and report success.
		return s.users.ClearSquad(ctx, wallet)
	}

	remaining := make([]string, 0, len(squad.MemberWalletAddresses))
	for _, m := range squad.MemberWalletAddresses {
		if m != wallet {
			remaining = append(remaining, m)
		}
	}

	if len(remaining) == 0 {
		if err := s.squads.Delete(ctx, squad.SquadID); err != nil {
			return err
		}
		return s.users.ClearSquad(ctx, wallet)
	}

	if squad.LeaderWalletAddress == wallet {
		successor := remaining[0]
		ok, err := s.squads.SetLeaderIf(ctx, squad.SquadID, wallet, successor)
		if err != nil {
			return err
		}
		if !ok {
			// Leadership changed underneath us; re-read and continue as a
			// plain member departure.
			s.log.Warn("leader changed during leave", zap.String("squadId", squad.SquadID))
		} else {
			heir, _ := s.users.GetByWallet(ctx, successor)
			s.notifyWallets(ctx, remaining, models.NotifSquadLeaderChanged,
				"New Squad Leader",
				fmt.Sprintf("%s is now the leader of %q", displayName(heir), squad.Name),
				SquadPayload{SquadID: squad.SquadID, SquadName: squad.Name, ActorWallet: successor, ActorName: displayName(heir)})
		}
	}

	if err := s.squads.RemoveMember(ctx, squad.SquadID, wallet, user.Points); err != nil {
		return err
	}
	if err := s.users.ClearSquad(ctx, wallet); err != nil {
		return err
	}

	s.notifyWallets(ctx, remaining, models.NotifSquadMemberLeft,
		"Member Left",
		fmt.Sprintf("%s left %q", displayName(user), squad.Name),
		SquadPayload{SquadID: squad.SquadID, SquadName: squad.Name, ActorWallet: wallet, ActorName: displayName(user)})
	return nil
}

// Kick removes a member from the leader's squad. Leader-only, never self.
func (s *Squads) Kick(ctx context.Context, leaderWallet, squadID, targetWallet string) error {
	squad, err := s.requireSquad(ctx, squadID)
	if err != nil {
		return err
	}
	if squad.LeaderWalletAddress != leaderWallet {
		return ErrForbidden("only the squad leader can remove members")
	}
	if targetWallet == leaderWallet {
		return ErrValidation("you cannot kick yourself; leave the squad instead")
	}
	if !squad.HasMember(targetWallet) {
		return ErrNotFound("user is not a member of this squad")
	}

	target, err := s.users.GetByWallet(ctx, targetWallet)
	if err != nil {
		return err
	}
	var targetPoints int64
	if target != nil {
		targetPoints = target.Points
	}

	if err := s.squads.RemoveMember(ctx, squadID, targetWallet, targetPoints); err != nil {
		return err
	}
	if target != nil {
		if err := s.users.ClearSquad(ctx, targetWallet); err != nil {
			s.log.Error("failed to clear squadId on kicked user",
				zap.String("wallet", targetWallet), zap.Error(err))
			return err
		}
	}

	s.notifier.Create(ctx, targetWallet, models.NotifSquadKicked,
		"Removed From Squad",
		fmt.Sprintf("You were removed from %q", squad.Name),
		SquadPayload{SquadID: squad.SquadID, SquadName: squad.Name, ActorWallet: leaderWallet})
	s.notifyMembers(ctx, squad, []string{targetWallet, leaderWallet}, models.NotifSquadMemberLeft,
		"Member Removed",
		fmt.Sprintf("%s was removed from %q", displayName(target), squad.Name),
		SquadPayload{SquadID: squad.SquadID, SquadName: squad.Name, ActorWallet: targetWallet, ActorName: displayName(target)})
	return nil
}

// TransferLeadership hands the squad to another member. The write is a
// conditional update matching (squadId, current leader); of two concurrent
// transfers one matches zero documents and gets a Conflict.
func (s *Squads) TransferLeadership(ctx context.Context, leaderWallet, squadID, newLeaderWallet string) error {
	squad, err := s.requireSquad(ctx, squadID)
	if err != nil {
		return err
	}
	if squad.LeaderWalletAddress != leaderWallet {
		return ErrForbidden("only the squad leader can transfer leadership")
	}
	if newLeaderWallet == leaderWallet {
		return ErrValidation("you are already the leader")
	}
	if !squad.HasMember(newLeaderWallet) {
		return ErrValidation("new leader must be a member of the squad")
	}

	ok, err := s.squads.SetLeaderIf(ctx, squadID, leaderWallet, newLeaderWallet)
	if err != nil {
		return err
	}
	if !ok {
		return ErrConflict("leadership has changed; refresh and try again")
	}

	heir, _ := s.users.GetByWallet(ctx, newLeaderWallet)
	s.notifyMembers(ctx, squad, []string{leaderWallet}, models.NotifSquadLeaderChanged,
		"New Squad Leader",
		fmt.Sprintf("%s is now the leader of %q", displayName(heir), squad.Name),
		SquadPayload{SquadID: squad.SquadID, SquadName: squad.Name, ActorWallet: newLeaderWallet, ActorName: displayName(heir)})
	return nil
}

// FixMembership repairs one user's squad membership:
//
//	member of zero squads  -> clear any stale squadId
//	member of one squad    -> align squadId to it
//	member of many squads  -> keep the most recently updated, pull the rest
func (s *Squads) FixMembership(ctx context.Context, wallet string) (*FixMembershipResult, error) {
	user, err := s.requireUser(ctx, wallet)
	if err != nil {
		return nil, err
	}
	memberOf, err := s.squads.ListWithMember(ctx, wallet)
	if err != nil {
		return nil, err
	}

	switch len(memberOf) {
	case 0:
		if user.SquadID == "" {
			return &FixMembershipResult{Status: "ok"}, nil
		}
		if err := s.users.ClearSquad(ctx, wallet); err != nil {
			return nil, err
		}
		s.notifier.Create(ctx, wallet, models.NotifSquadDisbanded,
			"Squad Disbanded",
			"Your squad no longer exists, so your membership was cleared.",
			SquadPayload{SquadID: user.SquadID})
		return &FixMembershipResult{Status: "cleared", ClearedStale: true}, nil

	case 1:
		sq := memberOf[0]
		if user.SquadID == sq.SquadID {
			return &FixMembershipResult{Status: "ok", SquadID: sq.SquadID}, nil
		}
		if err := s.users.SetSquad(ctx, wallet, sq.SquadID); err != nil {
			return nil, err
		}
		return &FixMembershipResult{Status: "aligned", SquadID: sq.SquadID, ClearedStale: user.SquadID != ""}, nil

	default:
		keep := memberOf[0]
		for _, sq := range memberOf[1:] {
			if sq.UpdatedAt.After(keep.UpdatedAt) {
				keep = sq
			}
		}
		removed := 0
		for _, sq := range memberOf {
			if sq.SquadID == keep.SquadID {
				continue
			}
			if err := s.squads.RemoveMember(ctx, sq.SquadID, wallet, user.Points); err != nil {
				s.log.Error("failed to pull user from duplicate squad",
					zap.String("wallet", wallet), zap.String("squadId", sq.SquadID), zap.Error(err))
				continue
			}
			removed++
		}
		if user.SquadID != keep.SquadID {
			if err := s.users.SetSquad(ctx, wallet, keep.SquadID); err != nil {
				return nil, err
			}
		}
		return &FixMembershipResult{Status: "resolved", SquadID: keep.SquadID, RemovedFrom: removed}, nil
	}
}

// ReconcilePoints recomputes every squad's cached point total from the
// member sum, correcting drift and re-deriving the tier. Returns the
// number of squads corrected.
func (s *Squads) ReconcilePoints(ctx context.Context) (int, error) {
	squads, err := s.squads.ListAll(ctx)
	if err != nil {
		return 0, err
	}
	corrected := 0
	for i := range squads {
		sq := &squads[i]
		members, err := s.users.ListByWallets(ctx, sq.MemberWalletAddresses)
		if err != nil {
			s.log.Error("failed to load members for reconcile",
				zap.String("squadId", sq.SquadID), zap.Error(err))
			continue
		}
		var total int64
		for _, m := range members {
			total += m.Points
		}
		tier, maxMembers := s.tiers.TierFor(total)
		if total == sq.TotalSquadPoints && tier == sq.Tier && maxMembers == sq.MaxMembers {
			continue
		}
		if err := s.squads.SetTotals(ctx, sq.SquadID, total, tier, maxMembers); err != nil {
			s.log.Error("failed to correct squad totals",
				zap.String("squadId", sq.SquadID), zap.Error(err))
			continue
		}
		s.log.Info("corrected squad point cache",
			zap.String("squadId", sq.SquadID),
			zap.Int64("was", sq.TotalSquadPoints),
			zap.Int64("now", total),
			zap.Int("tier", tier))
		corrected++
	}
	return corrected, nil
}

// SweepMemberships runs FixMembership across every user that claims a
// squad. Returns the number of users repaired.
func (s *Squads) SweepMemberships(ctx context.Context) (int, error) {
	users, err := s.users.ListWithSquad(ctx)
	if err != nil {
		return 0, err
	}
	repaired := 0
	for i := range users {
		res, err := s.FixMembership(ctx, users[i].WalletAddress)
		if err != nil {
			s.log.Error("membership repair failed",
				zap.String("wallet", users[i].WalletAddress), zap.Error(err))
			continue
		}
		if res.Status != "ok" {
			repaired++
		}
	}
	return repaired, nil
}

// SweepInvalidInvites marks pending invitations addressed to malformed
// wallet addresses as invalid_address. Returns the number marked.
func (s *Squads) SweepInvalidInvites(ctx context.Context) (int, error) {
	pending, err := s.invites.ListPending(ctx)
	if err != nil {
		return 0, err
	}
	marked := 0
	for i := range pending {
		inv := &pending[i]
		if ValidWalletAddress(inv.InvitedUserWalletAddress) {
			continue
		}
		ok, err := s.invites.TransitionFromPending(ctx, inv.InvitationID, models.InviteStatusInvalidAddress, "invitee address failed validation")
		if err != nil {
			s.log.Error("failed to mark invalid invitation",
				zap.String("invitationId", inv.InvitationID), zap.Error(err))
			continue
		}
		if ok {
			marked++
		}
	}
	return marked, nil
}

// notifyMembers fans a notification out to the squad's members minus the
// excluded wallets.
func (s *Squads) notifyMembers(ctx context.Context, squad *models.Squad, exclude []string, typ models.NotificationType, title, message string, payload Payload) {
	skip := make(map[string]bool, len(exclude))
	for _, w := range exclude {
		skip[w] = true
	}
	targets := make([]string, 0, len(squad.MemberWalletAddresses))
	for _, m := range squad.MemberWalletAddresses {
		if !skip[m] {
			targets = append(targets, m)
		}
	}
	s.notifyWallets(ctx, targets, typ, title, message, payload)
}

func (s *Squads) notifyWallets(ctx context.Context, wallets []string, typ models.NotificationType, title, message string, payload Payload) {
	for _, w := range wallets {
		s.notifier.Create(ctx, w, typ, title, message, payload)
	}
}

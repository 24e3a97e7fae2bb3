package services

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"squadbase/models"
)

// In-memory store fakes. They mirror the Mongo stores' document-level
// atomicity with a mutex, so the services under test see the same
// conditional-update semantics.

type memUsers struct {
	mu    sync.Mutex
	users map[string]*models.User
}

func newMemUsers() *memUsers {
	return &memUsers{users: make(map[string]*models.User)}
}

func (m *memUsers) add(u models.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := u
	m.users[u.WalletAddress] = &cp
}

func (m *memUsers) GetByWallet(_ context.Context, wallet string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[wallet]
	if !ok {
		return nil, nil
	}
	cp := *u
	return &cp, nil
}

func (m *memUsers) GetByID(_ context.Context, hexID string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ID.Hex() == hexID {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) GetByReferralCode(_ context.Context, code string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.ReferralCode == code && code != "" {
			cp := *u
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memUsers) Insert(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *user
	m.users[user.WalletAddress] = &cp
	return nil
}

func (m *memUsers) IncrementPoints(_ context.Context, wallet string, delta int64, completedAction string) (*models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[wallet]
	if !ok {
		return nil, nil
	}
	u.Points += delta
	if completedAction != "" && !u.HasCompleted(completedAction) {
		u.CompletedActions = append(u.CompletedActions, completedAction)
	}
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, nil
}

func (m *memUsers) AwardOnce(_ context.Context, wallet string, action string, delta int64) (*models.User, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[wallet]
	if !ok || u.HasCompleted(action) {
		return nil, false, nil
	}
	u.Points += delta
	u.CompletedActions = append(u.CompletedActions, action)
	u.UpdatedAt = time.Now()
	cp := *u
	return &cp, true, nil
}

func (m *memUsers) LinkReferral(_ context.Context, wallet, referrerWallet string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[wallet]
	if !ok || u.ReferredBy != "" {
		return false, nil
	}
	u.ReferredBy = referrerWallet
	return true, nil
}

func (m *memUsers) IncrementReferralsMade(_ context.Context, wallet string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[wallet]; ok {
		u.ReferralsMadeCount++
	}
	return nil
}

func (m *memUsers) ConsumeBoost(_ context.Context, wallet, boostType string, now time.Time) (*models.ReferralBoost, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[wallet]
	if !ok {
		return nil, nil
	}
	for i := range u.ActiveReferralBoosts {
		b := u.ActiveReferralBoosts[i]
		if b.Type == boostType && b.RemainingUses > 0 && b.ExpiresAt.After(now) {
			u.ActiveReferralBoosts[i].RemainingUses--
			return &b, nil
		}
	}
	return nil, nil
}

func (m *memUsers) SetSquad(_ context.Context, wallet, squadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[wallet]; ok {
		u.SquadID = squadID
	}
	return nil
}

func (m *memUsers) ClearSquad(_ context.Context, wallet string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if u, ok := m.users[wallet]; ok {
		u.SquadID = ""
	}
	return nil
}

func (m *memUsers) ListByWallets(_ context.Context, wallets []string) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, w := range wallets {
		if u, ok := m.users[w]; ok {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) ListWithSquad(_ context.Context) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		if u.SquadID != "" {
			out = append(out, *u)
		}
	}
	return out, nil
}

func (m *memUsers) TopByPoints(_ context.Context, limit int64) ([]models.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.User
	for _, u := range m.users {
		out = append(out, *u)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Points > out[j].Points })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memSquads struct {
	mu     sync.Mutex
	squads map[string]*models.Squad
}

func newMemSquads() *memSquads {
	return &memSquads{squads: make(map[string]*models.Squad)}
}

func (m *memSquads) GetByID(_ context.Context, squadID string) (*models.Squad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sq, ok := m.squads[squadID]
	if !ok {
		return nil, nil
	}
	cp := *sq
	cp.MemberWalletAddresses = append([]string(nil), sq.MemberWalletAddresses...)
	return &cp, nil
}

func (m *memSquads) GetByName(_ context.Context, name string) (*models.Squad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, sq := range m.squads {
		if sq.Name == name {
			cp := *sq
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memSquads) Insert(_ context.Context, squad *models.Squad) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *squad
	cp.MemberWalletAddresses = append([]string(nil), squad.MemberWalletAddresses...)
	m.squads[squad.SquadID] = &cp
	return nil
}

func (m *memSquads) Delete(_ context.Context, squadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.squads, squadID)
	return nil
}

func (m *memSquads) AddMember(_ context.Context, squadID, wallet string, points int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sq, ok := m.squads[squadID]
	if !ok {
		return nil
	}
	if !sq.HasMember(wallet) {
		sq.MemberWalletAddresses = append(sq.MemberWalletAddresses, wallet)
	}
	sq.TotalSquadPoints += points
	sq.UpdatedAt = time.Now()
	return nil
}

func (m *memSquads) RemoveMember(_ context.Context, squadID, wallet string, points int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	sq, ok := m.squads[squadID]
	if !ok {
		return nil
	}
	kept := sq.MemberWalletAddresses[:0]
	for _, w := range sq.MemberWalletAddresses {
		if w != wallet {
			kept = append(kept, w)
		}
	}
	sq.MemberWalletAddresses = kept
	sq.TotalSquadPoints -= points
	sq.UpdatedAt = time.Now()
	return nil
}

func (m *memSquads) IncrementPoints(_ context.Context, squadID string, delta int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sq, ok := m.squads[squadID]; ok {
		sq.TotalSquadPoints += delta
	}
	return nil
}

func (m *memSquads) SetLeaderIf(_ context.Context, squadID, currentLeader, newLeader string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sq, ok := m.squads[squadID]
	if !ok || sq.LeaderWalletAddress != currentLeader {
		return false, nil
	}
	sq.LeaderWalletAddress = newLeader
	sq.UpdatedAt = time.Now()
	return true, nil
}

func (m *memSquads) SetTotals(_ context.Context, squadID string, total int64, tier, maxMembers int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sq, ok := m.squads[squadID]; ok {
		sq.TotalSquadPoints = total
		sq.Tier = tier
		sq.MaxMembers = maxMembers
	}
	return nil
}

func (m *memSquads) ListWithMember(_ context.Context, wallet string) ([]models.Squad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Squad
	for _, sq := range m.squads {
		if sq.HasMember(wallet) {
			cp := *sq
			cp.MemberWalletAddresses = append([]string(nil), sq.MemberWalletAddresses...)
			out = append(out, cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SquadID < out[j].SquadID })
	return out, nil
}

func (m *memSquads) ListAll(_ context.Context) ([]models.Squad, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Squad
	for _, sq := range m.squads {
		cp := *sq
		cp.MemberWalletAddresses = append([]string(nil), sq.MemberWalletAddresses...)
		out = append(out, cp)
	}
	return out, nil
}

func (m *memSquads) TopByPoints(_ context.Context, limit int64) ([]models.Squad, error) {
	out, _ := m.ListAll(context.Background())
	sort.Slice(out, func(i, j int) bool { return out[i].TotalSquadPoints > out[j].TotalSquadPoints })
	if int64(len(out)) > limit {
		out = out[:limit]
	}
	return out, nil
}

type memInvites struct {
	mu      sync.Mutex
	invites map[string]*models.SquadInvitation
}

func newMemInvites() *memInvites {
	return &memInvites{invites: make(map[string]*models.SquadInvitation)}
}

func (m *memInvites) Insert(_ context.Context, inv *models.SquadInvitation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *inv
	m.invites[inv.InvitationID] = &cp
	return nil
}

func (m *memInvites) GetByID(_ context.Context, invitationID string) (*models.SquadInvitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[invitationID]
	if !ok {
		return nil, nil
	}
	cp := *inv
	return &cp, nil
}

func (m *memInvites) FindPending(_ context.Context, squadID, invitee string) (*models.SquadInvitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, inv := range m.invites {
		if inv.SquadID == squadID && inv.InvitedUserWalletAddress == invitee && inv.Status == models.InviteStatusPending {
			cp := *inv
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memInvites) ListPendingFor(_ context.Context, invitee string) ([]models.SquadInvitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SquadInvitation
	for _, inv := range m.invites {
		if inv.InvitedUserWalletAddress == invitee && inv.Status == models.InviteStatusPending {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *memInvites) ListPending(_ context.Context) ([]models.SquadInvitation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SquadInvitation
	for _, inv := range m.invites {
		if inv.Status == models.InviteStatusPending {
			out = append(out, *inv)
		}
	}
	return out, nil
}

func (m *memInvites) TransitionFromPending(_ context.Context, invitationID, newStatus, notes string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.invites[invitationID]
	if !ok || inv.Status != models.InviteStatusPending {
		return false, nil
	}
	inv.Status = newStatus
	if notes != "" {
		inv.Notes = notes
	}
	inv.UpdatedAt = time.Now()
	return true, nil
}

type memRequests struct {
	mu       sync.Mutex
	requests map[string]*models.SquadJoinRequest
}

func newMemRequests() *memRequests {
	return &memRequests{requests: make(map[string]*models.SquadJoinRequest)}
}

func (m *memRequests) Insert(_ context.Context, req *models.SquadJoinRequest) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *req
	m.requests[req.RequestID] = &cp
	return nil
}

func (m *memRequests) GetByID(_ context.Context, requestID string) (*models.SquadJoinRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok {
		return nil, nil
	}
	cp := *req
	return &cp, nil
}

func (m *memRequests) FindPending(_ context.Context, squadID, requester string) (*models.SquadJoinRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, req := range m.requests {
		if req.SquadID == squadID && req.RequestingUserWalletAddress == requester && req.Status == models.JoinRequestStatusPending {
			cp := *req
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *memRequests) ListPendingFor(_ context.Context, requester string) ([]models.SquadJoinRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SquadJoinRequest
	for _, req := range m.requests {
		if req.RequestingUserWalletAddress == requester && req.Status == models.JoinRequestStatusPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (m *memRequests) ListPendingForSquad(_ context.Context, squadID string) ([]models.SquadJoinRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.SquadJoinRequest
	for _, req := range m.requests {
		if req.SquadID == squadID && req.Status == models.JoinRequestStatusPending {
			out = append(out, *req)
		}
	}
	return out, nil
}

func (m *memRequests) TransitionFromPending(_ context.Context, requestID, newStatus string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	req, ok := m.requests[requestID]
	if !ok || req.Status != models.JoinRequestStatusPending {
		return false, nil
	}
	req.Status = newStatus
	req.UpdatedAt = time.Now()
	return true, nil
}

type memNotifications struct {
	mu   sync.Mutex
	docs []*models.Notification
	seq  int
}

func newMemNotifications() *memNotifications {
	return &memNotifications{}
}

func (m *memNotifications) FindUnread(_ context.Context, recipient string, typ models.NotificationType, c models.Correlation) (*models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	field, value := c.MostSpecific()
	for _, n := range m.docs {
		if n.RecipientWalletAddress != recipient || n.Type != typ || n.IsRead {
			continue
		}
		if field != "" {
			var have string
			switch field {
			case "relatedInvitationId":
				have = n.RelatedInvitationID
			case "relatedQuestId":
				have = n.RelatedQuestID
			case "relatedSquadId":
				have = n.RelatedSquadID
			}
			if have != value {
				continue
			}
		}
		cp := *n
		return &cp, nil
	}
	return nil, nil
}

func (m *memNotifications) Insert(_ context.Context, n *models.Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	if n.NotificationID == "" {
		n.NotificationID = "n-" + strconv.Itoa(m.seq)
	}
	cp := *n
	m.docs = append(m.docs, &cp)
	return nil
}

func (m *memNotifications) Refresh(_ context.Context, notificationID, title, message string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, n := range m.docs {
		if n.NotificationID == notificationID {
			n.Title = title
			n.Message = message
			n.UpdatedAt = at
			return nil
		}
	}
	return nil
}

func (m *memNotifications) ListFor(_ context.Context, recipient string, limit int64) ([]models.Notification, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for i := len(m.docs) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if m.docs[i].RecipientWalletAddress == recipient {
			out = append(out, *m.docs[i])
		}
	}
	return out, nil
}

func (m *memNotifications) CountUnread(_ context.Context, recipient string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, doc := range m.docs {
		if doc.RecipientWalletAddress == recipient && !doc.IsRead {
			n++
		}
	}
	return n, nil
}

func (m *memNotifications) MarkRead(_ context.Context, recipient, notificationID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, doc := range m.docs {
		if doc.NotificationID == notificationID && doc.RecipientWalletAddress == recipient {
			doc.IsRead = true
			return true, nil
		}
	}
	return false, nil
}

func (m *memNotifications) MarkAllRead(_ context.Context, recipient string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var n int64
	for _, doc := range m.docs {
		if doc.RecipientWalletAddress == recipient && !doc.IsRead {
			doc.IsRead = true
			n++
		}
	}
	return n, nil
}

// allFor returns every stored notification for the recipient, oldest
// first. Test inspection helper.
func (m *memNotifications) allFor(recipient string) []models.Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Notification
	for _, doc := range m.docs {
		if doc.RecipientWalletAddress == recipient {
			out = append(out, *doc)
		}
	}
	return out
}

type memActions struct {
	mu      sync.Mutex
	actions []models.Action
}

func newMemActions() *memActions {
	return &memActions{}
}

func (m *memActions) Insert(_ context.Context, a *models.Action) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.actions = append(m.actions, *a)
	return nil
}

func (m *memActions) ListByWallet(_ context.Context, wallet string, limit int64) ([]models.Action, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Action
	for i := len(m.actions) - 1; i >= 0 && int64(len(out)) < limit; i-- {
		if m.actions[i].WalletAddress == wallet {
			out = append(out, m.actions[i])
		}
	}
	return out, nil
}

func (m *memActions) HasAction(_ context.Context, wallet, actionType string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.actions {
		if a.WalletAddress == wallet && a.ActionType == actionType {
			return true, nil
		}
	}
	return false, nil
}

func (m *memActions) countFor(wallet string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, a := range m.actions {
		if a.WalletAddress == wallet {
			n++
		}
	}
	return n
}

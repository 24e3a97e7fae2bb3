package services

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.uber.org/zap"

	"squadbase/models"
)

// ActionType enumerates the rewarded user actions. Point values and
// repeatability live on the type so an unknown action is rejected before
// any database access.
type ActionType string

const (
	ActionInitialConnection ActionType = "initial_connection"
	ActionSharedOnX         ActionType = "shared_on_x"
	ActionFollowedOnX       ActionType = "followed_on_x"
	ActionJoinedTelegram    ActionType = "joined_telegram"
	ActionProfileShared     ActionType = "profile_shared"
	ActionReferralBonus     ActionType = "referral_bonus"
	// Quest rewards carry per-quest point values and are awarded directly
	// through the ledger by the quest collaborator.
	ActionQuestCompleted ActionType = "quest_completed"
)

// Points returns the fixed award for the action, with ok=false for
// actions that have no fixed table value.
func (a ActionType) Points() (int64, bool) {
	switch a {
	case ActionInitialConnection:
		return 100, true
	case ActionSharedOnX:
		return 50, true
	case ActionFollowedOnX:
		return 30, true
	case ActionJoinedTelegram:
		return 25, true
	case ActionProfileShared:
		return 50, true
	case ActionReferralBonus:
		return 20, true
	}
	return 0, false
}

// OneTime reports whether the action may award at most once per account.
func (a ActionType) OneTime() bool {
	switch a {
	case ActionInitialConnection, ActionFollowedOnX, ActionJoinedTelegram, ActionProfileShared:
		return true
	}
	return false
}

// BoostReferralMultiplier is the boost type that multiplies referral
// bonuses while it has remaining uses.
const BoostReferralMultiplier = "referral_bonus_multiplier"

// RecordActionResult reports the outcome of recording a user action.
type RecordActionResult struct {
	PointsAwarded   int64 `json:"pointsAwarded"`
	AlreadyRecorded bool  `json:"alreadyRecorded"`
	NewPointsTotal  int64 `json:"newPointsTotal"`
}

// ReferralResult reports a successful referral registration.
type ReferralResult struct {
	ReferrerWalletAddress string `json:"referrerWalletAddress"`
	PointsAwarded         int64  `json:"pointsAwarded"`
}

// Rules maps discrete user actions to ledger awards, applying one-time
// versus repeatable semantics and the referral linking rules.
type Rules struct {
	ledger *Ledger
	users  UserStore
	log    *zap.Logger
	now    func() time.Time
}

func NewRules(ledger *Ledger, users UserStore, log *zap.Logger) *Rules {
	return &Rules{ledger: ledger, users: users, log: log, now: time.Now}
}

// RecordAction awards the table value for the action. One-time actions go
// through the conditional award so that concurrent identical requests
// award exactly once; the losing call reports AlreadyRecorded. Repeatable
// actions award on every call — rate limiting is the transport layer's
// concern.
func (r *Rules) RecordAction(ctx context.Context, wallet string, action ActionType) (RecordActionResult, error) {
	points, ok := action.Points()
	if !ok {
		return RecordActionResult{}, ErrValidation(fmt.Sprintf("unknown or variable-value action type %q", action))
	}

	opts := AwardOptions{
		Reason:     "action:" + string(action),
		ActionType: action,
		EmitEvent:  true,
	}

	if action.OneTime() {
		user, applied, err := r.ledger.AwardOnce(ctx, wallet, action, points, opts)
		if err != nil {
			return RecordActionResult{}, err
		}
		if !applied {
			return RecordActionResult{AlreadyRecorded: true, NewPointsTotal: user.Points}, nil
		}
		return RecordActionResult{PointsAwarded: points, NewPointsTotal: user.Points}, nil
	}

	user, err := r.ledger.AwardPoints(ctx, Identity{Wallet: wallet}, points, opts)
	if err != nil {
		return RecordActionResult{}, err
	}
	return RecordActionResult{PointsAwarded: points, NewPointsTotal: user.Points}, nil
}

// RegisterReferral links newWallet to the owner of referralCode and pays
// the referrer the referral bonus. The referredBy link is the atomic
// guard: it is set with a conditional update that only succeeds when the
// field is unset, so a user can be referred at most once and the referrer
// can never be double-paid for the same user.
func (r *Rules) RegisterReferral(ctx context.Context, newWallet, referralCode string) (ReferralResult, error) {
	if newWallet == "" || referralCode == "" {
		return ReferralResult{}, ErrValidation("wallet address and referral code are required")
	}

	referrer, err := r.users.GetByReferralCode(ctx, referralCode)
	if err != nil {
		return ReferralResult{}, err
	}
	if referrer == nil {
		return ReferralResult{}, ErrNotFound("invalid referral code")
	}
	if referrer.WalletAddress == newWallet {
		return ReferralResult{}, ErrConflict("cannot refer yourself")
	}

	referred, err := r.users.GetByWallet(ctx, newWallet)
	if err != nil {
		return ReferralResult{}, err
	}
	if referred == nil {
		// First touchpoint through a referral link: create the minimal user
		// already linked, which also closes the linking race for this path.
		now := r.now()
		if err := r.users.Insert(ctx, &models.User{
			WalletAddress:    newWallet,
			XUserID:          newWallet,
			Points:           0,
			ReferredBy:       referrer.WalletAddress,
			CompletedActions: []string{},
			CreatedAt:        now,
			UpdatedAt:        now,
		}); err != nil {
			return ReferralResult{}, err
		}
	} else {
		linked, err := r.users.LinkReferral(ctx, newWallet, referrer.WalletAddress)
		if err != nil {
			return ReferralResult{}, err
		}
		if !linked {
			return ReferralResult{}, ErrConflict("user has already been referred")
		}
	}

	bonus, _ := ActionReferralBonus.Points()
	if boost, err := r.users.ConsumeBoost(ctx, referrer.WalletAddress, BoostReferralMultiplier, r.now()); err != nil {
		r.log.Warn("failed to check referral boost",
			zap.String("wallet", referrer.WalletAddress), zap.Error(err))
	} else if boost != nil {
		bonus = int64(math.Round(float64(bonus) * boost.Value))
	}

	if _, err := r.ledger.AwardPoints(ctx, Identity{Wallet: referrer.WalletAddress}, bonus, AwardOptions{
		Reason:     fmt.Sprintf("Referred %s", newWallet),
		ActionType: ActionReferralBonus,
		Metadata:   map[string]any{"referredWalletAddress": newWallet},
		EmitEvent:  true,
	}); err != nil {
		return ReferralResult{}, err
	}
	if err := r.users.IncrementReferralsMade(ctx, referrer.WalletAddress); err != nil {
		r.log.Warn("failed to increment referralsMadeCount",
			zap.String("wallet", referrer.WalletAddress), zap.Error(err))
	}

	return ReferralResult{ReferrerWalletAddress: referrer.WalletAddress, PointsAwarded: bonus}, nil
}

package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/config"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/identity"
	"github.com/Ashenafi-pixel/buffalo-multisite-gateway/models"
)

// BalanceChange is one settled round reported by the provider.
type BalanceChange struct {
	UID          string
	Token        string
	BetUID       string // idempotency key, may be empty
	ChangeAmount int64
	BetAmount    int64
	WinAmount    int64
	GameID       int
	Payload      map[string]any // provider request body as received, kept for audit
}

// ChangeResult carries the post-change balance in whole units. Duplicate
// is set when the round was already settled and nothing was mutated.
type ChangeResult struct {
	Balance   int64
	Duplicate bool
}

// WalletService settles provider rounds against the local ledger.
type WalletService struct {
	sites *config.Registry
	codec *identity.Codec
	uow   UnitOfWorkFactory
	log   *logrus.Entry
}

func NewWalletService(sites *config.Registry, codec *identity.Codec, uow UnitOfWorkFactory) *WalletService {
	return &WalletService{
		sites: sites,
		codec: codec,
		uow:   uow,
		log:   logrus.WithField("component", "wallet"),
	}
}

// accountDirectory adapts the user repository to the identity codec.
type accountDirectory struct {
	users UserRepository
}

func NewAccountDirectory(users UserRepository) identity.AccountDirectory {
	return accountDirectory{users: users}
}

func (d accountDirectory) FindUsername(ctx context.Context, name string) (string, bool, error) {
	u, err := d.users.GetByUsername(ctx, name)
	if err != nil {
		return "", false, err
	}
	if u == nil {
		return "", false, nil
	}
	return u.UserName, true, nil
}

func (d accountDirectory) Usernames(ctx context.Context) ([]string, error) {
	return d.users.Usernames(ctx)
}

func (s *WalletService) site(uid string) (*config.Site, error) {
	site, ok := s.sites.Lookup(config.ResolvePrefix(uid))
	if !ok || !s.sites.Serviceable(site) {
		return nil, ErrUnknownSite
	}
	return site, nil
}

// GetBalance verifies the caller and reads the current balance. Read
// only, never touches the ledger.
func (s *WalletService) GetBalance(ctx context.Context, uid, token string) (int64, error) {
	site, err := s.site(uid)
	if err != nil {
		return 0, err
	}
	username, ok, err := s.codec.VerifyToken(ctx, uid, token)
	if err != nil {
		return 0, fmt.Errorf("verify token: %w", err)
	}
	if !ok {
		return 0, ErrInvalidToken
	}
	user, err := s.uow.Unscoped().Users().GetByUsername(ctx, username)
	if err != nil {
		return 0, fmt.Errorf("resolve account: %w", err)
	}
	if user == nil {
		return 0, ErrUserNotFound
	}
	return site.ProviderBalance(user.Balance), nil
}

// ChangeBalance applies one signed delta to a player's balance. The
// idempotency gate, the balance mutation, the history row and the bet
// log all live in a single transaction: either everything commits or a
// retry can safely start over.
func (s *WalletService) ChangeBalance(ctx context.Context, req BalanceChange) (ChangeResult, error) {
	site, err := s.site(req.UID)
	if err != nil {
		return ChangeResult{}, err
	}
	username, ok, err := s.codec.VerifyToken(ctx, req.UID, req.Token)
	if err != nil {
		return ChangeResult{}, fmt.Errorf("verify token: %w", err)
	}
	if !ok {
		return ChangeResult{}, ErrInvalidToken
	}

	var result ChangeResult
	err = s.uow.WithTransaction(ctx, func(ctx context.Context, uow UnitOfWork) error {
		user, err := uow.Users().GetByUsernameForUpdate(ctx, username)
		if err != nil {
			return err
		}
		if user == nil {
			return ErrUserNotFound
		}

		// The idempotency gate sits behind the row lock: a concurrent
		// retry of the same round parks on the lock and, once through,
		// sees the winner's committed log row here.
		if req.BetUID != "" {
			prior, err := uow.BetLogs().GetByBetUID(ctx, req.BetUID)
			if err != nil {
				return err
			}
			if prior != nil {
				result = ChangeResult{Balance: user.Balance, Duplicate: true}
				return nil
			}
		}

		balanceBefore := user.Balance
		balanceAfter := balanceBefore + req.ChangeAmount
		if balanceAfter < 0 {
			return ErrInsufficientBalance
		}

		if err := uow.Users().UpdateBalance(ctx, user.ID, balanceAfter); err != nil {
			return err
		}

		metadata := map[string]any{
			"uid":        req.UID,
			"bet_uid":    req.BetUID,
			"bet_amount": req.BetAmount,
			"win_amount": req.WinAmount,
			"game_id":    req.GameID,
			"site":       site.Prefix,
		}
		if err := uow.Transactions().Record(ctx, &models.Transaction{
			UserID:        user.ID,
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceAfter,
			ChangeAmount:  req.ChangeAmount,
			Name:          models.NameFor(req.ChangeAmount),
			Metadata:      metadata,
		}); err != nil {
			return err
		}

		var betUID *string
		if req.BetUID != "" {
			betUID = &req.BetUID
		}
		if err := uow.BetLogs().Create(ctx, &models.BetLog{
			BetUID:        betUID,
			MemberAccount: user.UserName,
			PlayerID:      user.ID,
			AgentID:       user.AgentID,
			AgentName:     user.AgentName,
			GameID:        req.GameID,
			BetAmount:     req.BetAmount,
			WinAmount:     req.WinAmount,
			ChangeAmount:  req.ChangeAmount,
			BalanceBefore: balanceBefore,
			BalanceAfter:  balanceAfter,
			Result:        models.ResultFor(req.ChangeAmount),
			Payload:       req.Payload,
		}); err != nil {
			return err
		}

		result = ChangeResult{Balance: balanceAfter}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrUserNotFound) || errors.Is(err, ErrInsufficientBalance) {
			return ChangeResult{}, err
		}
		// A losing race on the bet_uid unique index means the winner
		// already settled this round. Report the same duplicate success
		// a gate hit would have.
		if errors.Is(err, ErrDuplicateRound) {
			user, rerr := s.uow.Unscoped().Users().GetByUsername(ctx, username)
			if rerr != nil {
				return ChangeResult{}, fmt.Errorf("%w: %v", ErrLedgerFailure, rerr)
			}
			if user == nil {
				return ChangeResult{}, ErrUserNotFound
			}
			s.log.WithFields(logrus.Fields{
				"bet_uid": req.BetUID,
				"user":    username,
			}).Info("duplicate round lost insert race")
			return ChangeResult{
				Balance:   site.ProviderBalance(user.Balance),
				Duplicate: true,
			}, nil
		}
		s.log.WithError(err).WithFields(logrus.Fields{
			"uid":     req.UID,
			"bet_uid": req.BetUID,
		}).Error("balance change aborted")
		return ChangeResult{}, fmt.Errorf("%w: %v", ErrLedgerFailure, err)
	}

	if result.Duplicate {
		s.log.WithFields(logrus.Fields{
			"bet_uid": req.BetUID,
			"user":    username,
		}).Info("duplicate round replayed")
	}
	result.Balance = site.ProviderBalance(result.Balance)
	return result, nil
}

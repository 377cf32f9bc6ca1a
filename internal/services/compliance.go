package services

import (
	"context"
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"github.com/unexbilletera/unex-api/internal/data/repos"
	"github.com/unexbilletera/unex-api/internal/observability"
	"github.com/unexbilletera/unex-api/internal/pkg/dbctx"
	pkgerrors "github.com/unexbilletera/unex-api/internal/pkg/errors"
	"github.com/unexbilletera/unex-api/internal/platform/logger"
)

const (
	DefaultComplianceAccountType  = "cvu"
	DefaultComplianceActiveStatus = "active"
	ComplianceHistoryLimit        = 1000
)

var DefaultComplianceHistoryTypes = []string{"cashin_cvu", "cashout_cvu"}

type ComplianceEndpoint string

const (
	ComplianceSummary ComplianceEndpoint = "cvu-summary"
	ComplianceHistory ComplianceEndpoint = "cvu-history"
)

type ComplianceCredentials struct {
	Passphrase     string
	Secret         string
	// SecretIsBcrypt marks Secret as a bcrypt hash of the expected header value.
	SecretIsBcrypt bool
}

func (c ComplianceCredentials) empty() bool {
	return c.Passphrase == "" || c.Secret == ""
}

type ComplianceConfig struct {
	Summary      ComplianceCredentials
	History      ComplianceCredentials
	AccountType  string
	ActiveStatus string
	HistoryTypes []string
}

// WithDefaults fills the account designations and falls back to the summary
// pair when neither history field is set. A half-set history pair stays as is
// and rejects every caller.
func (c ComplianceConfig) WithDefaults() ComplianceConfig {
	if c.History.Passphrase == "" && c.History.Secret == "" {
		c.History = c.Summary
	}
	if c.AccountType == "" {
		c.AccountType = DefaultComplianceAccountType
	}
	if c.ActiveStatus == "" {
		c.ActiveStatus = DefaultComplianceActiveStatus
	}
	if len(c.HistoryTypes) == 0 {
		c.HistoryTypes = append([]string(nil), DefaultComplianceHistoryTypes...)
	}
	return c
}

type CvuSummary struct {
	AccountType    string    `json:"accountType"`
	TotalAccounts  int64     `json:"totalAccounts"`
	TotalBalance   string    `json:"totalBalance"`
	ActiveAccounts int64     `json:"activeAccounts"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

type CvuHistoryEntry struct {
	ID                string    `json:"id"`
	ExternalID        *string   `json:"externalId"`
	Type              string    `json:"type"`
	Status            string    `json:"status"`
	Amount            string    `json:"amount"`
	ReverseExternalID *string   `json:"reverseExternalId"`
	CreatedAt         time.Time `json:"createdAt"`
}

type CvuHistory struct {
	Transactions []CvuHistoryEntry `json:"transactions"`
	Count        int               `json:"count"`
	GeneratedAt  time.Time         `json:"generatedAt"`
}

type ComplianceService interface {
	Authorize(endpoint ComplianceEndpoint, passphrase, secret string) error
	GetCvuSummary(ctx context.Context) (*CvuSummary, error)
	GetCvuHistory(ctx context.Context) (*CvuHistory, error)
}

type complianceService struct {
	log      *logger.Logger
	cfg      ComplianceConfig
	accounts repos.AccountRepo
	ops      repos.OperationRepo
	metrics  *observability.Metrics
	now      func() time.Time
}

func NewComplianceService(
	log *logger.Logger,
	cfg ComplianceConfig,
	accounts repos.AccountRepo,
	ops repos.OperationRepo,
	metrics *observability.Metrics,
) ComplianceService {
	serviceLog := log.With("service", "ComplianceService")
	return &complianceService{
		log:      serviceLog,
		cfg:      cfg.WithDefaults(),
		accounts: accounts,
		ops:      ops,
		metrics:  metrics,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Authorize compares both headers in constant time. An unset configured pair
// rejects every caller.
func (s *complianceService) Authorize(endpoint ComplianceEndpoint, passphrase, secret string) error {
	var want ComplianceCredentials
	switch endpoint {
	case ComplianceSummary:
		want = s.cfg.Summary
	case ComplianceHistory:
		want = s.cfg.History
	default:
		return fmt.Errorf("unknown compliance endpoint %q: %w", endpoint, pkgerrors.ErrUnauthorized)
	}
	ok := !want.empty() &&
		passphrase != "" && secret != "" &&
		subtle.ConstantTimeCompare([]byte(passphrase), []byte(want.Passphrase)) == 1 &&
		secretMatches(secret, want)
	s.metrics.IncComplianceAuth(string(endpoint), ok)
	if !ok {
		if want.empty() {
			s.log.Warn("compliance credentials not configured", "endpoint", endpoint)
		} else {
			s.log.Warn("compliance credentials rejected", "endpoint", endpoint)
		}
		return fmt.Errorf("invalid compliance credentials: %w", pkgerrors.ErrUnauthorized)
	}
	return nil
}

func secretMatches(given string, want ComplianceCredentials) bool {
	if want.SecretIsBcrypt {
		return bcrypt.CompareHashAndPassword([]byte(want.Secret), []byte(given)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(given), []byte(want.Secret)) == 1
}

func (s *complianceService) GetCvuSummary(ctx context.Context) (*CvuSummary, error) {
	var (
		total, active int64
		balance       decimal.Decimal
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.accounts.CountByType(dbctx.New(gctx), s.cfg.AccountType)
		total = n
		return err
	})
	g.Go(func() error {
		sum, err := s.accounts.SumBalanceByType(dbctx.New(gctx), s.cfg.AccountType)
		balance = sum
		return err
	})
	g.Go(func() error {
		n, err := s.accounts.CountByTypeAndStatus(dbctx.New(gctx), s.cfg.AccountType, s.cfg.ActiveStatus)
		active = n
		return err
	})
	if err := g.Wait(); err != nil {
		s.log.Error("cvu summary aggregation failed", "error", err)
		return nil, err
	}
	return &CvuSummary{
		AccountType:    s.cfg.AccountType,
		TotalAccounts:  total,
		TotalBalance:   balance.StringFixed(2),
		ActiveAccounts: active,
		GeneratedAt:    s.now(),
	}, nil
}

func (s *complianceService) GetCvuHistory(ctx context.Context) (*CvuHistory, error) {
	rows, err := s.ops.RecentByTypes(dbctx.New(ctx), s.cfg.HistoryTypes, ComplianceHistoryLimit)
	if err != nil {
		s.log.Error("cvu history query failed", "error", err)
		return nil, err
	}
	out := make([]CvuHistoryEntry, 0, len(rows))
	for _, op := range rows {
		out = append(out, CvuHistoryEntry{
			ID:                op.ID.String(),
			ExternalID:        op.ExternalID,
			Type:              op.Type,
			Status:            string(op.Status),
			Amount:            op.Amount.StringFixed(2),
			ReverseExternalID: op.ReverseExternalID,
			CreatedAt:         op.CreatedAt,
		})
	}
	return &CvuHistory{Transactions: out, Count: len(out), GeneratedAt: s.now()}, nil
}

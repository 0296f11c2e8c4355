// Package accounts looks up the trading accounts imports are attributed to.
package accounts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"

	"github.com/tradelog-dev/tradelog/internal/model"
)

// Service provides in-memory lookup over the configured accounts.
type Service struct {
	accounts []model.Account
	byID     map[string]model.Account
}

// NewService creates a Service from a slice of accounts.
func NewService(accounts []model.Account) *Service {
	byID := make(map[string]model.Account, len(accounts))
	for _, a := range accounts {
		byID[a.ID] = a
	}
	return &Service{accounts: accounts, byID: byID}
}

// All returns all accounts.
func (s *Service) All() []model.Account {
	return s.accounts
}

// Get returns an account by ID.
func (s *Service) Get(id string) (model.Account, bool) {
	a, ok := s.byID[id]
	return a, ok
}

// Resolve picks the account for an import. An empty id is accepted only
// when exactly one account is configured.
func (s *Service) Resolve(id string) (model.Account, error) {
	if id == "" {
		if len(s.accounts) == 1 {
			return s.accounts[0], nil
		}
		return model.Account{}, fmt.Errorf("choose an account with --account (configured: %s)", s.idList())
	}
	a, ok := s.Get(id)
	if !ok {
		return model.Account{}, fmt.Errorf("unknown account %q (configured: %s)", id, s.idList())
	}
	return a, nil
}

// FormatAmount renders amount in the account's currency, e.g. "-$15.00".
// Unknown or empty currency codes fall back to USD.
func FormatAmount(a model.Account, amount float64) string {
	code := strings.ToUpper(a.Currency)
	cur := money.GetCurrency(code)
	if cur == nil {
		code = money.USD
		cur = money.GetCurrency(code)
	}
	factor := decimal.New(1, int32(cur.Fraction))
	minor := decimal.NewFromFloat(amount).Mul(factor).Round(0)
	return money.New(minor.IntPart(), code).Display()
}

func (s *Service) idList() string {
	if len(s.accounts) == 0 {
		return "none"
	}
	ids := make([]string, len(s.accounts))
	for i, a := range s.accounts {
		ids[i] = a.ID
	}
	sort.Strings(ids)
	return strings.Join(ids, ", ")
}

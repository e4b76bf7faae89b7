package common

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"pix-withdraw-go/internal/models"
	"pix-withdraw-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v2"
)

type AccountSeed struct {
	Id      string `yaml:"id"`
	Name    string `yaml:"name"`
	Balance string `yaml:"balance"`
}

type AccountsFile struct {
	Accounts []AccountSeed `yaml:"accounts"`
}

// LoadAccountSeeds reads accounts.yaml. Seeds without an id get a fresh one.
func LoadAccountSeeds(accountsFile string) ([]store.CreateAccountParams, error) {
	var accountsPath string
	if filepath.IsAbs(accountsFile) {
		accountsPath = accountsFile
	} else {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("failed to get working directory: %w", err)
		}
		accountsPath = filepath.Join(wd, accountsFile)
	}

	data, err := os.ReadFile(accountsPath)
	if err != nil {
		return nil, fmt.Errorf("unable to read %s: %w", accountsFile, err)
	}

	return ParseAccountSeeds(data)
}

func ParseAccountSeeds(data []byte) ([]store.CreateAccountParams, error) {
	var file AccountsFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("unable to parse accounts: %w", err)
	}

	params := make([]store.CreateAccountParams, 0, len(file.Accounts))
	for i, seed := range file.Accounts {
		if strings.TrimSpace(seed.Name) == "" {
			return nil, fmt.Errorf("account at index %d missing name", i)
		}
		balance := decimal.Zero
		if seed.Balance != "" {
			parsed, err := decimal.NewFromString(seed.Balance)
			if err != nil {
				return nil, fmt.Errorf("account at index %d has invalid balance %q: %w", i, seed.Balance, err)
			}
			balance = parsed
		}
		if balance.IsNegative() {
			return nil, fmt.Errorf("account at index %d has negative balance", i)
		}
		id := seed.Id
		if id == "" {
			id = uuid.New().String()
		} else if _, err := uuid.Parse(id); err != nil {
			return nil, fmt.Errorf("account at index %d has invalid id %q: %w", i, id, err)
		}
		params = append(params, store.CreateAccountParams{Id: id, Name: seed.Name, Balance: balance})
	}

	return params, nil
}

// ResolveAccounts returns the account with accountId, or every account when
// the filter is empty.
func ResolveAccounts(ctx context.Context, withdrawStore store.WithdrawStore, accountId string) ([]models.Account, error) {
	if accountId == "" {
		accounts, err := withdrawStore.GetAccounts(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to get accounts: %w", err)
		}
		return accounts, nil
	}

	account, err := withdrawStore.GetAccount(ctx, accountId)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			return nil, fmt.Errorf("account not found: %s", accountId)
		}
		return nil, err
	}
	return []models.Account{*account}, nil
}

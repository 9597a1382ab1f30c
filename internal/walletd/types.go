// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package walletd

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// NativeResourceAddress is the resource address of the network's native token.
var NativeResourceAddress = "resource_" + strings.Repeat("01", 32)

// componentPrefix marks an account given as a component address.
const componentPrefix = "component_"

// Duration is a serialized time span as the wallet daemon expects it.
type Duration struct {
	Secs  uint64 `json:"secs"`
	Nanos uint32 `json:"nanos"`
}

// AuthLoginRequest asks the daemon for a login challenge.
// A nil Duration requests a session without expiry.
type AuthLoginRequest struct {
	Permissions []string  `json:"permissions"`
	Duration    *Duration `json:"duration"`
}

type AuthLoginResponse struct {
	AuthToken    string `json:"auth_token"`
	ValidForSecs uint64 `json:"valid_for_secs"`
}

type AuthLoginAcceptRequest struct {
	AuthToken string `json:"auth_token"`
	Name      string `json:"name"`
}

type AuthLoginAcceptResponse struct {
	PermissionsToken string `json:"permissions_token"`
}

// Account identifies a wallet account by component address or by name.
// Exactly one field is set.
type Account struct {
	ComponentAddress string
	Name             string
}

// ParseAccount treats strings starting with "component_" as addresses and
// anything else as an account name.
func ParseAccount(s string) Account {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, componentPrefix) {
		return Account{ComponentAddress: s}
	}
	return Account{Name: s}
}

func (a Account) String() string {
	if a.ComponentAddress != "" {
		return a.ComponentAddress
	}
	return a.Name
}

// IsZero reports whether no account is set.
func (a Account) IsZero() bool {
	return a.ComponentAddress == "" && a.Name == ""
}

func (a Account) MarshalJSON() ([]byte, error) {
	if a.ComponentAddress != "" {
		return json.Marshal(map[string]string{"ComponentAddress": a.ComponentAddress})
	}
	return json.Marshal(map[string]string{"Name": a.Name})
}

func (a *Account) UnmarshalJSON(data []byte) error {
	var raw map[string]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid account: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("invalid account: expected one variant, got %d", len(raw))
	}
	*a = Account{ComponentAddress: raw["ComponentAddress"], Name: raw["Name"]}
	if a.IsZero() {
		return fmt.Errorf("invalid account: unknown variant in %s", string(data))
	}
	return nil
}

// Amount is a token amount in the network's smallest unit.
// It decodes from a JSON number or a numeric string.
type Amount int64

func (a *Amount) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		return nil
	}
	s := string(data)
	if len(data) >= 2 && data[0] == '"' && data[len(data)-1] == '"' {
		unquoted, err := strconv.Unquote(s)
		if err != nil {
			return fmt.Errorf("invalid amount %s: %w", s, err)
		}
		s = unquoted
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid amount %s: %w", string(data), err)
	}
	*a = Amount(v)
	return nil
}

type AccountBalancesRequest struct {
	Account *Account `json:"account"`
	Refresh bool     `json:"refresh"`
}

type BalanceEntry struct {
	VaultAddress        string `json:"vault_address"`
	ResourceAddress     string `json:"resource_address"`
	Balance             Amount `json:"balance"`
	ResourceType        string `json:"resource_type,omitempty"`
	ConfidentialBalance Amount `json:"confidential_balance"`
	TokenSymbol         string `json:"token_symbol,omitempty"`
}

type AccountBalancesResponse struct {
	Address  string         `json:"address"`
	Balances []BalanceEntry `json:"balances"`
}

// BalanceOf returns the balance held in resource, or 0 when the account has
// no vault for it.
func (r *AccountBalancesResponse) BalanceOf(resource string) Amount {
	for _, b := range r.Balances {
		if b.ResourceAddress == resource {
			return b.Balance
		}
	}
	return 0
}

// PublishTemplateRequest publishes (or dry-runs) a template binary.
// Binary is sent base64 encoded.
type PublishTemplateRequest struct {
	Binary       []byte   `json:"binary"`
	FeeAccount   *Account `json:"fee_account"`
	MaxFee       Amount   `json:"max_fee"`
	DetectInputs bool     `json:"detect_inputs"`
	DryRun       bool     `json:"dry_run"`
}

type PublishTemplateResponse struct {
	TransactionID string  `json:"transaction_id"`
	DryRunFee     *Amount `json:"dry_run_fee"`
}

type WaitTransactionResultRequest struct {
	TransactionID string  `json:"transaction_id"`
	TimeoutSecs   *uint64 `json:"timeout_secs"`
}

type WaitTransactionResultResponse struct {
	Result   *FinalizeResult `json:"result"`
	Status   string          `json:"status"`
	FinalFee Amount          `json:"final_fee"`
	TimedOut bool            `json:"timed_out"`
}

// FinalizeResult is the finalized outcome of a transaction.
type FinalizeResult struct {
	TransactionHash string            `json:"transaction_hash,omitempty"`
	Result          TransactionResult `json:"result"`
}

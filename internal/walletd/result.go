// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package walletd

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ResultKind is the variant of a TransactionResult.
type ResultKind string

const (
	ResultAccept              ResultKind = "Accept"
	ResultAcceptFeeRejectRest ResultKind = "AcceptFeeRejectRest"
	ResultReject              ResultKind = "Reject"
)

// TransactionResult is one of
//
//	{"Accept": diff}
//	{"AcceptFeeRejectRest": [diff, reason]}
//	{"Reject": reason}
type TransactionResult struct {
	Kind   ResultKind
	Diff   *SubstateDiff
	Reason RejectReason
}

func (r *TransactionResult) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid transaction result: %w", err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("invalid transaction result: expected one variant, got %d", len(raw))
	}

	for key, value := range raw {
		switch ResultKind(key) {
		case ResultAccept:
			var diff SubstateDiff
			if err := json.Unmarshal(value, &diff); err != nil {
				return fmt.Errorf("invalid Accept diff: %w", err)
			}
			*r = TransactionResult{Kind: ResultAccept, Diff: &diff}
		case ResultAcceptFeeRejectRest:
			var pair []json.RawMessage
			if err := json.Unmarshal(value, &pair); err != nil || len(pair) != 2 {
				return fmt.Errorf("invalid AcceptFeeRejectRest payload: %s", string(value))
			}
			var diff SubstateDiff
			if err := json.Unmarshal(pair[0], &diff); err != nil {
				return fmt.Errorf("invalid AcceptFeeRejectRest diff: %w", err)
			}
			var reason RejectReason
			if err := json.Unmarshal(pair[1], &reason); err != nil {
				return err
			}
			*r = TransactionResult{Kind: ResultAcceptFeeRejectRest, Diff: &diff, Reason: reason}
		case ResultReject:
			var reason RejectReason
			if err := json.Unmarshal(value, &reason); err != nil {
				return err
			}
			*r = TransactionResult{Kind: ResultReject, Reason: reason}
		default:
			return fmt.Errorf("invalid transaction result: unknown variant %q", key)
		}
	}
	return nil
}

func (r TransactionResult) MarshalJSON() ([]byte, error) {
	switch r.Kind {
	case ResultAccept:
		return json.Marshal(map[string]any{string(r.Kind): r.Diff})
	case ResultAcceptFeeRejectRest:
		return json.Marshal(map[string]any{string(r.Kind): []any{r.Diff, r.Reason}})
	case ResultReject:
		return json.Marshal(map[string]any{string(r.Kind): r.Reason})
	default:
		return nil, fmt.Errorf("cannot marshal transaction result of kind %q", r.Kind)
	}
}

// RejectReason is the human-readable reason a transaction was rejected.
// The daemon sends either a bare string ("InsufficientFeesPaid") or a
// single-key object ({"ExecutionFailure": "..."}), rendered as "Key: detail".
type RejectReason string

func (r *RejectReason) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*r = RejectReason(s)
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid reject reason: %w", err)
	}
	parts := make([]string, 0, len(obj))
	for key, value := range obj {
		var detail string
		if err := json.Unmarshal(value, &detail); err != nil {
			detail = string(value)
		}
		parts = append(parts, key+": "+detail)
	}
	*r = RejectReason(strings.Join(parts, "; "))
	return nil
}

// SubstateDiff is the state change of an accepted transaction.
type SubstateDiff struct {
	UpSubstates   []UpSubstate      `json:"up_substates"`
	DownSubstates []json.RawMessage `json:"down_substates,omitempty"`
}

// UpSubstate is a created or updated substate, encoded as [id, substate].
type UpSubstate struct {
	ID       SubstateID
	Substate json.RawMessage
}

func (u *UpSubstate) UnmarshalJSON(data []byte) error {
	var pair []json.RawMessage
	if err := json.Unmarshal(data, &pair); err != nil {
		return fmt.Errorf("invalid up substate: %w", err)
	}
	if len(pair) != 2 {
		return fmt.Errorf("invalid up substate: expected [id, substate], got %d elements", len(pair))
	}
	if err := json.Unmarshal(pair[0], &u.ID); err != nil {
		return err
	}
	u.Substate = pair[1]
	return nil
}

func (u UpSubstate) MarshalJSON() ([]byte, error) {
	substate := u.Substate
	if substate == nil {
		substate = json.RawMessage("null")
	}
	return json.Marshal([]any{u.ID, substate})
}

// Substate kinds as they appear in string ids ("template_<addr>").
const (
	SubstateKindComponent   = "component"
	SubstateKindResource    = "resource"
	SubstateKindVault       = "vault"
	SubstateKindNonFungible = "nft"
	SubstateKindTemplate    = "template"
	SubstateKindReceipt     = "txreceipt"
)

var substateVariantKinds = map[string]string{
	"Component":          SubstateKindComponent,
	"Resource":           SubstateKindResource,
	"Vault":              SubstateKindVault,
	"NonFungible":        SubstateKindNonFungible,
	"Template":           SubstateKindTemplate,
	"TransactionReceipt": SubstateKindReceipt,
}

// SubstateID identifies a substate by kind and address.
type SubstateID struct {
	Kind    string
	Address string
}

// ParseSubstateID parses the "<kind>_<address>" string form.
func ParseSubstateID(s string) (SubstateID, error) {
	kind, addr, ok := strings.Cut(s, "_")
	if !ok || kind == "" || addr == "" {
		return SubstateID{}, fmt.Errorf("invalid substate id %q", s)
	}
	return SubstateID{Kind: kind, Address: addr}, nil
}

func (id SubstateID) String() string {
	return id.Kind + "_" + id.Address
}

// UnmarshalJSON accepts "template_<addr>" or {"Template": "<addr>"}.
func (id *SubstateID) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		parsed, err := ParseSubstateID(s)
		if err != nil {
			return err
		}
		*id = parsed
		return nil
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("invalid substate id: %w", err)
	}
	if len(obj) != 1 {
		return fmt.Errorf("invalid substate id: expected one variant, got %d", len(obj))
	}
	for variant, value := range obj {
		kind, ok := substateVariantKinds[variant]
		if !ok {
			kind = strings.ToLower(variant)
		}
		var addr string
		if err := json.Unmarshal(value, &addr); err != nil {
			return fmt.Errorf("invalid substate id: %s address must be a string", variant)
		}
		*id = SubstateID{Kind: kind, Address: strings.TrimPrefix(addr, kind+"_")}
	}
	return nil
}

func (id SubstateID) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.String())
}

// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (C) 2026 tdeploy Authors

package walletd

import "context"

// Session is an authenticated view of a Client. It should be used for one
// logical operation and then dropped.
type Session struct {
	client *Client
	token  string
}

// Token returns the permissions token attached to every call.
func (s *Session) Token() string {
	return s.token
}

// AccountBalances queries the balances of an account.
func (s *Session) AccountBalances(ctx context.Context, req AccountBalancesRequest) (*AccountBalancesResponse, error) {
	var resp AccountBalancesResponse
	if err := s.client.call(ctx, s.token, MethodAccountBalances, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// PublishTemplate submits a template publish transaction, or only computes
// its fee when req.DryRun is set.
func (s *Session) PublishTemplate(ctx context.Context, req PublishTemplateRequest) (*PublishTemplateResponse, error) {
	var resp PublishTemplateResponse
	if err := s.client.call(ctx, s.token, MethodPublishTemplate, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// WaitTransactionResult blocks on the daemon until the transaction finalizes
// or req.TimeoutSecs elapses.
func (s *Session) WaitTransactionResult(ctx context.Context, req WaitTransactionResultRequest) (*WaitTransactionResultResponse, error) {
	var resp WaitTransactionResultResponse
	if err := s.client.call(ctx, s.token, MethodWaitTransactionResult, req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

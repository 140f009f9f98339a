package solana

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/gagliardetto/solana-go/rpc/jsonrpc"

	"github.com/lugondev/go-agora/internal/common"
	"github.com/lugondev/go-agora/pkg/types"
)

// Client wraps the Solana RPC client
type Client struct {
	common.LoggerMixin

	rpc        *rpc.Client
	commitment rpc.CommitmentType
}

// ClientOption configures a Client.
type ClientOption func(*Client)

// WithCommitment sets the commitment used for reads and preflight.
func WithCommitment(commitment rpc.CommitmentType) ClientOption {
	return func(c *Client) {
		c.commitment = commitment
	}
}

// WithRPCClient replaces the JSON-RPC transport.
func WithRPCClient(client rpc.JSONRPCClient) ClientOption {
	return func(c *Client) {
		c.rpc = rpc.NewWithCustomRPCClient(client)
	}
}

// WithClientLogger sets the client logger.
func WithClientLogger(logger *slog.Logger) ClientOption {
	return func(c *Client) {
		c.SetLogger(logger)
	}
}

// NewClient creates a new Solana client
func NewClient(endpoint string, opts ...ClientOption) *Client {
	c := &Client{
		LoggerMixin: common.NewLoggerMixin(),
		commitment:  rpc.CommitmentConfirmed,
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.rpc == nil {
		c.rpc = rpc.New(endpoint)
	}
	return c
}

// Commitment returns the commitment used for reads.
func (c *Client) Commitment() rpc.CommitmentType {
	return c.commitment
}

// GetBalance returns the balance of an account in lamports
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	result, err := c.rpc.GetBalance(ctx, pubkey, c.commitment)
	if err != nil {
		return 0, fmt.Errorf("failed to get balance: %w", err)
	}
	return result.Value, nil
}

// GetBalanceSOL returns the balance in SOL (not lamports)
func (c *Client) GetBalanceSOL(ctx context.Context, pubkey solana.PublicKey) (float64, error) {
	lamports, err := c.GetBalance(ctx, pubkey)
	if err != nil {
		return 0, err
	}
	return float64(lamports) / float64(solana.LAMPORTS_PER_SOL), nil
}

// LatestBlockhash returns the latest blockhash
func (c *Client) LatestBlockhash(ctx context.Context) (solana.Hash, error) {
	result, err := c.rpc.GetLatestBlockhash(ctx, c.commitment)
	if err != nil {
		return solana.Hash{}, fmt.Errorf("failed to get latest blockhash: %w", err)
	}
	return result.Value.Blockhash, nil
}

// AccountInfo returns the account at pubkey, or nil if it does not exist.
func (c *Client) AccountInfo(ctx context.Context, pubkey solana.PublicKey) (*types.Account, error) {
	result, err := c.rpc.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
		Encoding:   solana.EncodingBase64,
		Commitment: c.commitment,
	})
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get account info: %w", err)
	}

	acc := &types.Account{
		Lamports:   result.Value.Lamports,
		Owner:      result.Value.Owner,
		Executable: result.Value.Executable,
	}
	if result.Value.Data != nil {
		acc.Data = result.Value.Data.GetBinary()
	}
	if result.Value.RentEpoch != nil && result.Value.RentEpoch.IsUint64() {
		acc.RentEpoch = result.Value.RentEpoch.Uint64()
	}
	return acc, nil
}

// RequestAirdrop requests an airdrop of SOL (only works on devnet/testnet)
func (c *Client) RequestAirdrop(ctx context.Context, pubkey solana.PublicKey, lamports uint64) (solana.Signature, error) {
	sig, err := c.rpc.RequestAirdrop(ctx, pubkey, lamports, c.commitment)
	if err != nil {
		return solana.Signature{}, fmt.Errorf("failed to request airdrop: %w", err)
	}
	return sig, nil
}

// SignatureStatus returns the status of sig, or nil if the cluster does not
// know it.
func (c *Client) SignatureStatus(ctx context.Context, sig solana.Signature) (*types.SignatureStatus, error) {
	result, err := c.rpc.GetSignatureStatuses(ctx, true, sig)
	if errors.Is(err, rpc.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get signature status: %w", err)
	}
	if len(result.Value) == 0 || result.Value[0] == nil {
		return nil, nil
	}

	raw := result.Value[0]
	txErr, err := types.ParseTransactionError(raw.Err)
	if err != nil {
		return nil, fmt.Errorf("failed to parse transaction error: %w", err)
	}
	return &types.SignatureStatus{
		Slot:               raw.Slot,
		Confirmations:      raw.Confirmations,
		ConfirmationStatus: raw.ConfirmationStatus,
		Err:                txErr,
	}, nil
}

// TransactionLogs returns the log messages of a confirmed transaction.
func (c *Client) TransactionLogs(ctx context.Context, sig solana.Signature) ([]string, error) {
	commitment := c.commitment
	if commitment == rpc.CommitmentProcessed {
		// getTransaction does not serve processed.
		commitment = rpc.CommitmentConfirmed
	}

	maxVersion := uint64(0)
	result, err := c.rpc.GetTransaction(ctx, sig, &rpc.GetTransactionOpts{
		Commitment:                     commitment,
		MaxSupportedTransactionVersion: &maxVersion,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	if result.Meta == nil {
		return nil, nil
	}
	return result.Meta.LogMessages, nil
}

// SendTransaction submits tx once, without client-side retries. A preflight
// rejection is returned as a wrapped *types.TransactionError.
func (c *Client) SendTransaction(ctx context.Context, tx *solana.Transaction) (solana.Signature, error) {
	maxRetries := uint(0)
	sig, err := c.rpc.SendTransactionWithOpts(ctx, tx, rpc.TransactionOpts{
		Encoding:            solana.EncodingBase64,
		PreflightCommitment: c.commitment,
		MaxRetries:          &maxRetries,
	})
	if err == nil {
		return sig, nil
	}

	if txErr := preflightError(err); txErr != nil {
		c.GetLogger().Debug("preflight rejected transaction", "error", txErr)
		return solana.Signature{}, fmt.Errorf("transaction simulation failed: %w", txErr)
	}
	return solana.Signature{}, fmt.Errorf("failed to send transaction: %w", err)
}

// preflightError extracts the transaction error carried by a JSON-RPC error.
func preflightError(err error) *types.TransactionError {
	var rpcErr *jsonrpc.RPCError
	if !errors.As(err, &rpcErr) {
		return nil
	}
	data, ok := rpcErr.Data.(map[string]any)
	if !ok {
		return nil
	}
	txErr, parseErr := types.ParseTransactionError(data["err"])
	if parseErr != nil {
		return nil
	}
	return txErr
}

// Close closes the client connection
func (c *Client) Close() error {
	return c.rpc.Close()
}

package client

import (
	"context"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"go.uber.org/zap"
)

// lamportsPerSOL converts the RPC's smallest-unit balance to display units.
const lamportsPerSOL = 1_000_000_000

// SolanaRPCClient fetches the native SOL balance of an address from a Solana
// JSON-RPC endpoint. Implements overlay.BalanceSource.
type SolanaRPCClient struct {
	client  *fasthttp.Client
	rpcURL  string
	timeout time.Duration
	logger  *zap.Logger
}

// NewSolanaRPCClient creates a new SolanaRPCClient.
func NewSolanaRPCClient(rpcURL string, timeout time.Duration, logger *zap.Logger) *SolanaRPCClient {
	return &SolanaRPCClient{
		client:  &fasthttp.Client{},
		rpcURL:  rpcURL,
		timeout: timeout,
		logger:  logger.Named("SolanaRPCClient"),
	}
}

// Name identifies this balance source in overlay entries.
func (c *SolanaRPCClient) Name() string {
	return "solana-rpc"
}

type solanaRPCRequest struct {
	JSONRPC string `json:"jsonrpc"`
	ID      int    `json:"id"`
	Method  string `json:"method"`
	Params  []any  `json:"params"`
}

type solanaRPCResponse struct {
	Result *struct {
		Value uint64 `json:"value"`
	} `json:"result"`
	Error *struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// FetchBalance issues a getBalance request and converts lamports to SOL.
func (c *SolanaRPCClient) FetchBalance(ctx context.Context, address string) (float64, error) {
	payload, err := json.Marshal(solanaRPCRequest{
		JSONRPC: "2.0",
		ID:      1,
		Method:  "getBalance",
		Params:  []any{address},
	})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal getBalance request: %w", err)
	}

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(c.rpcURL)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.SetContentTypeBytes([]byte("application/json"))
	req.SetBody(payload)

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		err = c.client.DoDeadline(req, resp, deadline)
	} else {
		err = c.client.DoTimeout(req, resp, c.timeout)
	}
	if err != nil {
		return 0, fmt.Errorf("failed to execute getBalance request to %s: %w", c.rpcURL, err)
	}

	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Solana RPC request failed",
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", resp.Body()))
		return 0, fmt.Errorf("solana RPC request failed with status %d", resp.StatusCode())
	}

	var rpcResp solanaRPCResponse
	if err := json.Unmarshal(resp.Body(), &rpcResp); err != nil {
		return 0, fmt.Errorf("failed to unmarshal getBalance response: %w", err)
	}
	if rpcResp.Error != nil {
		return 0, fmt.Errorf("solana RPC error %d: %s", rpcResp.Error.Code, rpcResp.Error.Message)
	}
	if rpcResp.Result == nil {
		return 0, fmt.Errorf("solana RPC response missing result")
	}

	return float64(rpcResp.Result.Value) / lamportsPerSOL, nil
}

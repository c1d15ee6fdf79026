package client

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/valyala/fasthttp"
	"go.uber.org/zap"

	"wallet_reconciler/internal/domain/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// WalletAPIClient defines the interface for the external wallet-record API.
type WalletAPIClient interface {
	// GetWalletsByAvatar returns the stored wallet records for one avatar,
	// grouped by the provider-type key the backend chose. Keys and embedded
	// provider types may be canonical strings, raw numbers or numeric strings
	// interchangeably; records come back with the raw identifier preserved
	// for normalization downstream.
	GetWalletsByAvatar(ctx context.Context, avatarID string) (map[string][]entity.WalletRecord, error)
}

// walletAPIClientImpl is the implementation of WalletAPIClient.
type walletAPIClientImpl struct {
	client  *fasthttp.Client
	baseURL string
	timeout time.Duration
	logger  *zap.Logger
}

// NewWalletAPIClient creates a new instance of walletAPIClientImpl.
func NewWalletAPIClient(baseURL string, timeout time.Duration, logger *zap.Logger) WalletAPIClient {
	return &walletAPIClientImpl{
		client:  &fasthttp.Client{},
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		logger:  logger.Named("WalletAPIClient"),
	}
}

// rawWalletRecord mirrors one wallet record as the backend actually sends it:
// several fields arrive as either numbers or strings depending on the
// backend's storage provider, so they decode as any and are coerced here, at
// the boundary, once.
type rawWalletRecord struct {
	WalletID        any    `json:"walletId"`
	ProviderType    any    `json:"providerType"`
	WalletAddress   string `json:"walletAddress"`
	Balance         any    `json:"balance"`
	CreatedDate     string `json:"createdDate"`
	ModifiedDate    string `json:"modifiedDate"`
	IsDefaultWallet bool   `json:"isDefaultWallet"`
}

// walletListEnvelope covers the two response shapes the backend emits: the
// provider map directly, or wrapped in a result field.
type walletListEnvelope struct {
	Result map[string][]rawWalletRecord `json:"result"`
}

// GetWalletsByAvatar implements the WalletAPIClient interface.
func (c *walletAPIClientImpl) GetWalletsByAvatar(ctx context.Context, avatarID string) (map[string][]entity.WalletRecord, error) {
	requestURL := fmt.Sprintf("%s/api/avatar/%s/wallets", c.baseURL, avatarID)
	c.logger.Debug("Requesting wallet list", zap.String("url", requestURL))

	req := fasthttp.AcquireRequest()
	defer fasthttp.ReleaseRequest(req)
	req.SetRequestURI(requestURL)
	req.Header.SetMethod(fasthttp.MethodGet)
	req.Header.SetContentTypeBytes([]byte("application/json"))

	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseResponse(resp)

	if deadline, ok := ctx.Deadline(); ok {
		if err := c.client.DoDeadline(req, resp, deadline); err != nil {
			return nil, fmt.Errorf("failed to execute request to %s: %w", requestURL, err)
		}
	} else {
		if err := c.client.DoTimeout(req, resp, c.timeout); err != nil {
			return nil, fmt.Errorf("failed to execute request to %s with default timeout: %w", requestURL, err)
		}
	}

	rawBody := resp.Body()
	if resp.StatusCode() != fasthttp.StatusOK {
		c.logger.Error("Wallet API request failed",
			zap.String("url", requestURL),
			zap.Int("statusCode", resp.StatusCode()),
			zap.ByteString("responseBody", rawBody))
		return nil, fmt.Errorf("wallet API request to %s failed with status %d", requestURL, resp.StatusCode())
	}

	var envelope walletListEnvelope
	if err := json.Unmarshal(rawBody, &envelope); err == nil && envelope.Result != nil {
		return convertWalletList(envelope.Result), nil
	}

	var direct map[string][]rawWalletRecord
	if err := json.Unmarshal(rawBody, &direct); err != nil {
		return nil, fmt.Errorf("failed to unmarshal wallet list from %s: %w", requestURL, err)
	}
	return convertWalletList(direct), nil
}

func convertWalletList(raw map[string][]rawWalletRecord) map[string][]entity.WalletRecord {
	out := make(map[string][]entity.WalletRecord, len(raw))
	for key, group := range raw {
		records := make([]entity.WalletRecord, 0, len(group))
		for _, r := range group {
			records = append(records, entity.WalletRecord{
				WalletID:        coerceString(r.WalletID),
				ProviderType:    entity.ParseRawProvider(r.ProviderType),
				WalletAddress:   r.WalletAddress,
				Balance:         coerceFloat(r.Balance),
				CreatedDate:     r.CreatedDate,
				ModifiedDate:    r.ModifiedDate,
				IsDefaultWallet: r.IsDefaultWallet,
			})
		}
		out[key] = records
	}
	return out
}

func coerceString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}

func coerceFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(t), 64)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

package shipping

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// QuoteRequest describes one shipment for fee calculation. Weight in grams,
// dimensions in cm.
type QuoteRequest struct {
	ToDistrictID   int
	ToWardCode     string
	Weight         int
	Length         int
	Width          int
	Height         int
	InsuranceValue int64
}

// Quoter produces a shipping fee in whole VND. The computation itself is the
// carrier's black box; we only consume the quote.
type Quoter interface {
	Quote(ctx context.Context, req QuoteRequest) (int64, error)
}

// GHNClient calls the GiaoHangNhanh fee endpoint.
type GHNClient struct {
	BaseURL       string
	Token         string
	ShopID        int
	ServiceTypeID int
	client        *http.Client
}

func NewGHNClient(baseURL, token string, shopID int) *GHNClient {
	if baseURL == "" {
		baseURL = "https://online-gateway.ghn.vn"
	}
	return &GHNClient{
		BaseURL:       baseURL,
		Token:         token,
		ShopID:        shopID,
		ServiceTypeID: 2, // standard delivery
		client:        &http.Client{Timeout: 15 * time.Second},
	}
}

type ghnFeeReq struct {
	ServiceTypeID  int    `json:"service_type_id"`
	ToDistrictID   int    `json:"to_district_id"`
	ToWardCode     string `json:"to_ward_code"`
	Weight         int    `json:"weight"`
	Length         int    `json:"length"`
	Width          int    `json:"width"`
	Height         int    `json:"height"`
	InsuranceValue int64  `json:"insurance_value"`
}

type ghnFeeResp struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    struct {
		Total int64 `json:"total"`
	} `json:"data"`
}

func (g *GHNClient) Quote(ctx context.Context, req QuoteRequest) (int64, error) {
	payload, _ := json.Marshal(ghnFeeReq{
		ServiceTypeID:  g.ServiceTypeID,
		ToDistrictID:   req.ToDistrictID,
		ToWardCode:     req.ToWardCode,
		Weight:         req.Weight,
		Length:         req.Length,
		Width:          req.Width,
		Height:         req.Height,
		InsuranceValue: req.InsuranceValue,
	})
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		g.BaseURL+"/shiip/public-api/v2/shipping-order/fee", bytes.NewReader(payload))
	if err != nil {
		return 0, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Token", g.Token)
	httpReq.Header.Set("ShopId", fmt.Sprintf("%d", g.ShopID))

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return 0, fmt.Errorf("ghn fee: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	var out ghnFeeResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return 0, fmt.Errorf("ghn fee: bad response (%d): %s", resp.StatusCode, string(respBody))
	}
	if out.Code != 200 {
		return 0, fmt.Errorf("ghn fee: code=%d message=%s", out.Code, out.Message)
	}
	return out.Data.Total, nil
}

// FlatQuoter answers every quote with a fixed fee; used in development when
// no GHN token is configured.
type FlatQuoter struct {
	Fee int64
}

func (f *FlatQuoter) Quote(ctx context.Context, req QuoteRequest) (int64, error) {
	return f.Fee, nil
}

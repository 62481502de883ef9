package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"time"
)

// CodeSuccess is the gateway's "everything fine" code, shared by the
// create-link response and the webhook envelope/data.
const CodeSuccess = "00"

// codeDuplicateOrder is returned when the numeric order code was already
// used for another payment request.
const codeDuplicateOrder = "231"

// ErrOrderCodeTaken signals the one transient failure the orchestrator is
// allowed to retry, with a freshly generated code.
var ErrOrderCodeTaken = errors.New("payos: order code already exists")

// ErrBadSignature is returned when webhook verification fails. Callers must
// absorb it (log + ack), never propagate it to the gateway.
var ErrBadSignature = errors.New("payos: signature mismatch")

// PayOSProvider talks to the PayOS payment-request API.
type PayOSProvider struct {
	BaseURL     string
	ClientID    string
	APIKey      string
	ChecksumKey string
	client      *http.Client
}

func NewPayOSProvider(baseURL, clientID, apiKey, checksumKey string) *PayOSProvider {
	if baseURL == "" {
		baseURL = "https://api-merchant.payos.vn"
	}
	return &PayOSProvider{
		BaseURL:     baseURL,
		ClientID:    clientID,
		APIKey:      apiKey,
		ChecksumKey: checksumKey,
		client:      &http.Client{Timeout: 30 * time.Second},
	}
}

type createLinkReq struct {
	OrderCode   int64  `json:"orderCode"`
	Amount      int64  `json:"amount"`
	Description string `json:"description"`
	ReturnURL   string `json:"returnUrl"`
	CancelURL   string `json:"cancelUrl"`
	Signature   string `json:"signature"`
}

type createLinkResp struct {
	Code string `json:"code"`
	Desc string `json:"desc"`
	Data struct {
		PaymentLinkID string `json:"paymentLinkId"`
		CheckoutURL   string `json:"checkoutUrl"`
		QRCode        string `json:"qrCode"`
		Status        string `json:"status"`
	} `json:"data"`
}

// CreatePaymentLink opens a checkout link. Any non-success gateway code is a
// hard failure here; only ErrOrderCodeTaken is worth a (single) retry above.
func (p *PayOSProvider) CreatePaymentLink(ctx context.Context, req LinkRequest) (*LinkResponse, error) {
	body := createLinkReq{
		OrderCode:   req.OrderCode,
		Amount:      req.Amount,
		Description: req.Description,
		ReturnURL:   req.ReturnURL,
		CancelURL:   req.CancelURL,
	}
	// The create-link signature covers exactly these five fields, sorted
	// alphabetically, raw values. Must match the gateway byte for byte.
	body.Signature = p.sign(fmt.Sprintf(
		"amount=%d&cancelUrl=%s&description=%s&orderCode=%d&returnUrl=%s",
		req.Amount, req.CancelURL, req.Description, req.OrderCode, req.ReturnURL,
	))

	payload, _ := json.Marshal(body)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, p.BaseURL+"/v2/payment-requests", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-client-id", p.ClientID)
	httpReq.Header.Set("x-api-key", p.APIKey)

	resp, err := p.client.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("payos request: %w", err)
	}
	defer resp.Body.Close()
	respBody, _ := io.ReadAll(resp.Body)

	var out createLinkResp
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("payos: bad response (%d): %s", resp.StatusCode, string(respBody))
	}
	if out.Code == codeDuplicateOrder {
		return nil, ErrOrderCodeTaken
	}
	if out.Code != CodeSuccess {
		return nil, fmt.Errorf("payos: create link failed: code=%s desc=%s", out.Code, out.Desc)
	}
	return &LinkResponse{
		PaymentLinkID: out.Data.PaymentLinkID,
		CheckoutURL:   out.Data.CheckoutURL,
		QRCode:        out.Data.QRCode,
	}, nil
}

// WebhookEnvelope is the gateway's callback body. Data stays raw until the
// signature over it has been checked.
type WebhookEnvelope struct {
	Code      string          `json:"code"`
	Desc      string          `json:"desc"`
	Success   bool            `json:"success"`
	Data      json.RawMessage `json:"data"`
	Signature string          `json:"signature"`
}

// WebhookData is the inner payload after verification.
type WebhookData struct {
	OrderCode     int64  `json:"orderCode"`
	Amount        int64  `json:"amount"`
	Description   string `json:"description"`
	Code          string `json:"code"`
	Desc          string `json:"desc"`
	PaymentLinkID string `json:"paymentLinkId"`
	Reference     string `json:"reference"`
	TransactionAt string `json:"transactionDateTime"`
}

// Succeeded checks the explicit success flag and the gateway code on both
// the envelope and the inner payload; either being populated is enough.
func (e *WebhookEnvelope) Succeeded(data *WebhookData) bool {
	return e.Success || e.Code == CodeSuccess || data.Code == CodeSuccess
}

// VerifyWebhookSignature re-canonicalizes the data object from the raw,
// untouched body bytes and compares the keyed hash against the envelope
// signature.
func (p *PayOSProvider) VerifyWebhookSignature(rawBody []byte) error {
	var env WebhookEnvelope
	if err := json.Unmarshal(rawBody, &env); err != nil {
		return fmt.Errorf("payos webhook: %w", err)
	}
	if env.Signature == "" || len(env.Data) == 0 {
		return ErrBadSignature
	}
	canonical, err := canonicalizeJSON(env.Data)
	if err != nil {
		return fmt.Errorf("payos webhook: %w", err)
	}
	want := p.sign(canonical)
	if !hmac.Equal([]byte(want), []byte(env.Signature)) {
		return ErrBadSignature
	}
	return nil
}

func (p *PayOSProvider) sign(canonical string) string {
	mac := hmac.New(sha256.New, []byte(p.ChecksumKey))
	mac.Write([]byte(canonical))
	return hex.EncodeToString(mac.Sum(nil))
}

// canonicalizeJSON renders a JSON object as key=value pairs joined by '&',
// keys sorted alphabetically, values raw (no URL encoding). Numbers keep
// their exact wire text via json.Number so the hash is byte-identical to
// what the gateway computed; null renders as empty.
func canonicalizeJSON(raw []byte) (string, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]interface{}
	if err := dec.Decode(&obj); err != nil {
		return "", err
	}
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b bytes.Buffer
	for i, k := range keys {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(canonicalValue(obj[k]))
	}
	return b.String(), nil
}

func canonicalValue(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		// Nested objects/arrays re-marshal compactly.
		b, _ := json.Marshal(t)
		return string(b)
	}
}

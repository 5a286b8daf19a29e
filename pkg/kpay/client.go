package kpay

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

var (
	ErrInvalidAmount      = errors.New("amount must be greater than zero")
	ErrUnsupportedMethod  = errors.New("unsupported payment method")
	ErrMissingIdentifier  = errors.New("transaction id or reference is required")
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
)

// Config holds KPay credentials and endpoints. The gateway authenticates
// every call with HTTP basic auth.
type Config struct {
	BaseURL     string // e.g. https://pay.kpay.rw/api
	Username    string
	Password    string
	CallbackURL string // where KPay delivers webhooks
	Timeout     time.Duration
}

func ConfigFromEnv() Config {
	timeout := 30 * time.Second
	if raw := os.Getenv("KPAY_TIMEOUT_SECONDS"); raw != "" {
		if d, err := time.ParseDuration(raw + "s"); err == nil {
			timeout = d
		}
	}
	return Config{
		BaseURL:     os.Getenv("KPAY_BASE_URL"),
		Username:    os.Getenv("KPAY_USERNAME"),
		Password:    os.Getenv("KPAY_PASSWORD"),
		CallbackURL: os.Getenv("KPAY_CALLBACK_URL"),
		Timeout:     timeout,
	}
}

// supportedMethods maps our method keys to KPay's pmethod values.
var supportedMethods = map[string]string{
	"mtn_momo":     "momo-mtn-rw",
	"airtel_money": "momo-airtel-rw",
	"card":         "cc",
	"spenn":        "spenn",
}

func SupportedMethod(method string) bool {
	_, ok := supportedMethods[method]
	return ok
}

type Customer struct {
	Name  string
	Email string
	Phone string
}

type InitiateRequest struct {
	Amount      int64
	Currency    string
	Customer    Customer
	Method      string
	Reference   string
	Details     string
	RedirectURL string
}

type StatusRequest struct {
	TransactionID string
	Reference     string
}

// Response is the normalized shape KPay returns for both initiation and
// status checks. Raw keeps the verbatim body for audit storage.
type Response struct {
	StatusID          string
	StatusDescription string
	ReturnCode        int
	TransactionID     string
	MomTransactionID  string
	CheckoutURL       string
	Raw               json.RawMessage
}

type Client struct {
	cfg  Config
	http *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" || cfg.Username == "" || cfg.Password == "" {
		return nil, errors.New("missing KPay credentials")
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// wire shapes per the KPay API contract

type paymentRequest struct {
	Action      string `json:"action"`
	MSISDN      string `json:"msisdn"`
	Email       string `json:"email"`
	CName       string `json:"cname"`
	Details     string `json:"details"`
	RefID       string `json:"refid"`
	Amount      int64  `json:"amount"`
	Currency    string `json:"currency"`
	PMethod     string `json:"pmethod"`
	RedirectURL string `json:"redirecturl,omitempty"`
	RetURL      string `json:"returl,omitempty"`
}

type statusRequest struct {
	Action string `json:"action"`
	TID    string `json:"tid,omitempty"`
	RefID  string `json:"refid,omitempty"`
}

// KPay is loose about numeric vs string fields, so decode through Flex types.
type wireResponse struct {
	TID              FlexString `json:"tid"`
	RefID            FlexString `json:"refid"`
	StatusID         FlexString `json:"statusid"`
	StatusDesc       FlexString `json:"statusdesc"`
	RetCode          FlexInt    `json:"retcode"`
	MomTransactionID FlexString `json:"momtransactionid"`
	URL              string     `json:"url"`
}

func (c *Client) InitiatePayment(ctx context.Context, req InitiateRequest) (*Response, error) {
	if req.Amount <= 0 {
		return nil, ErrInvalidAmount
	}
	pmethod, ok := supportedMethods[req.Method]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedMethod, req.Method)
	}

	currency := req.Currency
	if currency == "" {
		currency = "RWF"
	}

	body := paymentRequest{
		Action:      "pay",
		MSISDN:      FormatPhoneNumber(req.Customer.Phone),
		Email:       req.Customer.Email,
		CName:       req.Customer.Name,
		Details:     req.Details,
		RefID:       req.Reference,
		Amount:      req.Amount,
		Currency:    currency,
		PMethod:     pmethod,
		RedirectURL: req.RedirectURL,
		RetURL:      c.cfg.CallbackURL,
	}

	return c.post(ctx, body)
}

func (c *Client) CheckStatus(ctx context.Context, req StatusRequest) (*Response, error) {
	if req.TransactionID == "" && req.Reference == "" {
		return nil, ErrMissingIdentifier
	}

	body := statusRequest{
		Action: "checkstatus",
		TID:    req.TransactionID,
		RefID:  req.Reference,
	}

	return c.post(ctx, body)
}

func (c *Client) post(ctx context.Context, body interface{}) (*Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.cfg.BaseURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.SetBasicAuth(c.cfg.Username, c.cfg.Password)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", ErrGatewayUnavailable, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: gateway returned %d", ErrGatewayUnavailable, resp.StatusCode)
	}

	var wire wireResponse
	if err := json.Unmarshal(raw, &wire); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", ErrGatewayUnavailable, err)
	}

	return &Response{
		StatusID:          string(wire.StatusID),
		StatusDescription: string(wire.StatusDesc),
		ReturnCode:        int(wire.RetCode),
		TransactionID:     string(wire.TID),
		MomTransactionID:  string(wire.MomTransactionID),
		CheckoutURL:       wire.URL,
		Raw:               json.RawMessage(raw),
	}, nil
}

package utils

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"time"
)

// Client — клиент Mobizon SMS API (или имитация в dry-run).
type Client struct {
	ApiKey string
	Sender string // опционально
	DryRun bool
	HTTP   *http.Client
}

type SendSMSResponse struct {
	Code int `json:"code"`
	Data struct {
		MessageID string `json:"messageId"`
	} `json:"data"`
}

func NewClientWithOptions(apiKey, sender string, dryRun bool) *Client {
	return &Client{
		ApiKey: apiKey,
		Sender: sender,
		DryRun: dryRun,
		// жёсткий таймаут: недоставка лучше зависшего хендлера
		HTTP: &http.Client{Timeout: 10 * time.Second},
	}
}

// SendSMS — отправка SMS через Mobizon.
func (c *Client) SendSMS(to, text string) (*SendSMSResponse, error) {
	if c.DryRun || c.ApiKey == "" || c.ApiKey == "dry-run" {
		log.Printf("[mobizon][dry-run] to=%s sender=%q", to, c.Sender)
		return &SendSMSResponse{Code: 0}, nil
	}

	apiURL := "https://api.mobizon.kz/service/message/sendsmsmessage"
	form := url.Values{
		"apiKey":    {c.ApiKey},
		"recipient": {to},
		"text":      {text},
	}
	if c.Sender != "" {
		form.Set("from", c.Sender)
	}

	resp, err := c.HTTP.PostForm(apiURL, form)
	if err != nil {
		return nil, fmt.Errorf("send SMS request: %w", err)
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	var result SendSMSResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if result.Code != 0 {
		return nil, fmt.Errorf("mobizon returned error code: %d", result.Code)
	}
	log.Printf("[mobizon][send] ok to=%s messageID=%s", to, result.Data.MessageID)
	return &result, nil
}

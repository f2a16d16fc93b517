package models

import (
	"bytes"
	"strconv"
)

// FlexID decodes a JSON id that may arrive as a number or a string.
type FlexID string

func (f *FlexID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if data[0] == '"' {
		s, err := strconv.Unquote(string(data))
		if err != nil {
			return err
		}
		*f = FlexID(s)
		return nil
	}
	*f = FlexID(data)
	return nil
}

func (f FlexID) String() string { return string(f) }

// Webhook payload shape sent by the billing provider.
type WebhookPayload struct {
	Meta WebhookMeta `json:"meta"`
	Data WebhookData `json:"data"`
}

type WebhookMeta struct {
	EventName  string `json:"event_name"`
	CustomData struct {
		UserID string `json:"user_id"`
	} `json:"custom_data"`
}

type WebhookData struct {
	ID         FlexID            `json:"id"`
	Type       string            `json:"type"`
	Attributes WebhookAttributes `json:"attributes"`
}

type WebhookAttributes struct {
	CustomerID     FlexID `json:"customer_id"`
	Status         string `json:"status"`
	VariantID      FlexID `json:"variant_id"`
	FirstOrderItem struct {
		VariantID FlexID `json:"variant_id"`
	} `json:"first_order_item"`
}

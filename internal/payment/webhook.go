package payment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrNoPayload is returned by ParseNotification for an empty or non-object body.
var ErrNoPayload = errors.New("no payload")

// Notification is the subset of the payment provider webhook we read.
// Some payloads carry external_reference at the root, others inside data.
type Notification struct {
	Type              string
	ExternalReference string
	Data              json.RawMessage
}

// ParseNotification reads a webhook body. Fields of an unexpected JSON type
// read as empty instead of rejecting the whole notification.
func ParseNotification(body []byte) (Notification, error) {
	var root map[string]json.RawMessage
	if err := json.Unmarshal(body, &root); err != nil || len(root) == 0 {
		return Notification{}, ErrNoPayload
	}
	return Notification{
		Type:              stringField(root, "type"),
		ExternalReference: stringField(root, "external_reference"),
		Data:              root["data"],
	}, nil
}

func stringField(m map[string]json.RawMessage, key string) string {
	var s string
	if raw, ok := m[key]; ok && json.Unmarshal(raw, &s) == nil {
		return strings.TrimSpace(s)
	}
	return ""
}

// Reference returns the root external_reference, falling back to data.external_reference.
func (n Notification) Reference() string {
	if ref := strings.TrimSpace(n.ExternalReference); ref != "" {
		return ref
	}
	if len(n.Data) == 0 {
		return ""
	}
	var data map[string]json.RawMessage
	if err := json.Unmarshal(n.Data, &data); err != nil {
		return ""
	}
	return stringField(data, "external_reference")
}

// HandleWebhook confirms the referenced token for "payment" notifications.
// It returns the token acted upon, or "" when the notification was ignored.
func (s *Service) HandleWebhook(ctx context.Context, n Notification) (string, error) {
	if n.Type != "payment" {
		return "", nil
	}
	ref := n.Reference()
	if ref == "" {
		s.log.Warn("payment notification without reference")
		return "", nil
	}
	if _, err := s.Confirm(ctx, ref); err != nil {
		return "", fmt.Errorf("webhook confirm: %w", err)
	}
	return ref, nil
}

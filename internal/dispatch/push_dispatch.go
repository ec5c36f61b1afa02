package dispatch

// PushNotifier tries the user's live websocket session first and falls back
// to the webhook relay for users who are not connected.
type PushNotifier struct {
	WS      *WSRegistry
	Webhook *WebhookNotifier
}

func NewPushNotifier(ws *WSRegistry, webhook *WebhookNotifier) *PushNotifier {
	return &PushNotifier{WS: ws, Webhook: webhook}
}

func (p *PushNotifier) Notify(userID string, n JoinNotice) error {
	if p.WS != nil {
		if err := p.WS.Notify(userID, n); err == nil {
			return nil
		}
	}
	if p.Webhook != nil {
		return p.Webhook.Notify(userID, n)
	}
	return nil
}

package dto

// TwilioStatusCallback is the form payload Twilio posts on message status changes.
// Field names follow the Twilio status callback parameters.
type TwilioStatusCallback struct {
	MessageSid    string `form:"MessageSid"`
	SmsSid        string `form:"SmsSid"`
	MessageStatus string `form:"MessageStatus"`
	SmsStatus     string `form:"SmsStatus"`
	ErrorCode     string `form:"ErrorCode"`
	To            string `form:"To"`
	From          string `form:"From"`
}

// SID returns whichever message identifier the callback carried
func (c TwilioStatusCallback) SID() string {
	if c.MessageSid != "" {
		return c.MessageSid
	}
	return c.SmsSid
}

// Status returns whichever status field the callback carried
func (c TwilioStatusCallback) Status() string {
	if c.MessageStatus != "" {
		return c.MessageStatus
	}
	return c.SmsStatus
}

// TwilioInboundMessage is the form payload Twilio posts for inbound SMS
type TwilioInboundMessage struct {
	MessageSid string `form:"MessageSid"`
	From       string `form:"From"`
	To         string `form:"To"`
	Body       string `form:"Body"`
}

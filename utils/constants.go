package utils

import (
	"time"
)

// Queue defaults
const (
	// DispatchMaxAttempts is how many times a dispatch job is tried before dead-lettering
	DispatchMaxAttempts = 3

	// DispatchBackoffBase is the first retry delay; subsequent retries double it
	DispatchBackoffBase = 5 * time.Second

	// BatchStaggerInterval spaces batch dispatch jobs so a shared sender
	// number is not burst-saturated
	BatchStaggerInterval = 2 * time.Second

	// ScheduleTolerance is how early a scheduled job may be picked up
	// before the worker treats it as dequeued too soon and retries
	ScheduleTolerance = 30 * time.Second
)

// Inbound keyword auto-replies
const (
	OptOutReply  = "You have been unsubscribed. Reply START to resubscribe."
	OptInReply   = "You have been resubscribed. Reply STOP to unsubscribe."
	HelpReply    = "Reply STOP to unsubscribe or START to resubscribe."
	OptedOutNote = "Customer opted out"
)

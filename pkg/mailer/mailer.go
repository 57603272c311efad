// Package mailer defines the outbound email capability. The handler depends
// on the Sender interface only; transport credentials and delivery mechanics
// belong to the implementation.
package mailer

import "context"

// Message is a single outbound email. Produced once, never mutated after
// construction; ownership passes to the Send call that consumes it.
type Message struct {
	To       string
	From     string
	FromName string
	ReplyTo  string // optional
	Subject  string
	HTMLBody string
	TextBody string // optional plain-text alternative
}

// Sender delivers a message. Implementations return an error on failure and
// must never panic across the call boundary.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
}

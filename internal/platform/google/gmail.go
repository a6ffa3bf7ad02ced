package google

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"

	"holidayhub/internal/platform/email"
)

// Gmail sends notifications from the connected account.
type Gmail struct {
	tokens *TokenSource
	from   string
	// Endpoint overrides the API base URL.
	Endpoint string
}

func NewGmail(tokens *TokenSource, from string) *Gmail {
	return &Gmail{tokens: tokens, from: from}
}

func (g *Gmail) Notify(ctx context.Context, to, subject, htmlBody string) error {
	if to == "" {
		return nil
	}
	if !g.tokens.Connected() {
		return ErrNotConnected
	}
	opts := []option.ClientOption{option.WithHTTPClient(g.tokens.client())}
	if g.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.Endpoint))
	}
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return err
	}
	msg := &gmail.Message{
		Raw: base64.URLEncoding.EncodeToString(email.BuildMessage(g.from, to, subject, htmlBody)),
	}
	if _, err := svc.Users.Messages.Send("me", msg).Context(ctx).Do(); err != nil {
		return fmt.Errorf("gmail send to %s: %w", to, err)
	}
	return nil
}

// Package catalog models the remote vendor catalog and conversation service
// and provides its HTTP client. The negotiation workflow only ever reads
// vendors; the catalog owns them.
package catalog

import (
	"context"
	"time"
)

// Document is a file attached to a vendor profile by the catalog.
type Document struct {
	ID        int        `json:"id"`
	Filename  string     `json:"filename"`
	FileType  string     `json:"file_type,omitempty"`
	CreatedAt *time.Time `json:"created_at,omitempty"`
}

// Vendor is a supplier profile from the remote catalog.
type Vendor struct {
	ID               int        `json:"id"`
	Name             string     `json:"name"`
	Description      string     `json:"description,omitempty"`
	BehavioralPrompt string     `json:"behavioral_prompt,omitempty"`
	IsPredefined     bool       `json:"is_predefined,omitempty"`
	Documents        []Document `json:"documents,omitempty"`
}

// Conversation is one negotiation thread with a vendor, created remotely.
type Conversation struct {
	ID       int    `json:"id"`
	VendorID int    `json:"vendor_id"`
	TeamID   int    `json:"team_id,omitempty"`
	Title    string `json:"title,omitempty"`
}

// Message is a single message in a conversation. SendMessage returns the
// vendor's reply, so Role is usually "assistant" on responses.
type Message struct {
	ID             int       `json:"id"`
	ConversationID int       `json:"conversation_id"`
	Role           string    `json:"role"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"created_at"`
}

// Client is the catalog/conversation surface the workflow consumes. All calls
// are network requests and may fail with a transport error; the workflow
// decides which of those are fatal.
type Client interface {
	// ListVendors returns the full catalog in catalog order.
	ListVendors(ctx context.Context) ([]Vendor, error)

	// FetchVendorSubset returns the catalog entries matching ids, silently
	// omitting ids the catalog does not know.
	FetchVendorSubset(ctx context.Context, ids []int) ([]Vendor, error)

	// CreateConversation opens a new thread with a vendor.
	CreateConversation(ctx context.Context, vendorID int, title string) (Conversation, error)

	// SendMessage posts content to a conversation and returns the vendor's
	// reply message.
	SendMessage(ctx context.Context, conversationID int, content string) (Message, error)

	// GetMessages returns the full transcript of a conversation.
	GetMessages(ctx context.Context, conversationID int) ([]Message, error)
}

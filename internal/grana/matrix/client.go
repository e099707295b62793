// Package matrix is the chat transport for grana. It connects to a Matrix
// homeserver, filters inbound text messages down to the configured rooms and
// senders, and hands them to the application as plain strings.
package matrix

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"maunium.net/go/mautrix"
	"maunium.net/go/mautrix/event"
	"maunium.net/go/mautrix/id"
)

// Config holds Matrix client configuration.
type Config struct {
	Homeserver  string
	UserID      string
	AccessToken string

	// Rooms lists the room IDs the assistant listens in. Messages from any
	// other room are ignored.
	Rooms []string

	// AllowedSenders optionally restricts which Matrix users may issue
	// commands. Empty means every sender in a configured room is accepted.
	AllowedSenders []string

	// DB is an optional SQLite connection used to persist the sync token
	// (next_batch) across restarts. When nil the token is kept in memory
	// and room history replays on every restart, which would re-stage old
	// commands.
	DB *sql.DB
}

// MessageHandler receives one inbound text message. The reply, if any, is
// sent by the handler through the client.
type MessageHandler func(ctx context.Context, roomID, sender, text string)

// Client wraps the mautrix client.
type Client struct {
	client  *mautrix.Client
	config  *Config
	stopCh  chan struct{}
	handler MessageHandler
}

// New creates a Matrix client from config.
func New(config *Config) (*Client, error) {
	client, err := mautrix.NewClient(config.Homeserver, id.UserID(config.UserID), config.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Matrix client: %w", err)
	}

	c := &Client{
		client: client,
		config: config,
		stopCh: make(chan struct{}),
	}

	if config.DB != nil {
		client.Store = newDBSyncStore(config.DB)
		slog.Info("Matrix sync store: using persistent SQLite store")
	} else {
		slog.Warn("Matrix sync store: no DB configured, using in-memory store (history will replay on restart)")
	}

	return c, nil
}

// Start joins the configured rooms and begins syncing in the background.
func (c *Client) Start(ctx context.Context, handler MessageHandler) error {
	c.handler = handler

	syncer := c.client.Syncer.(*mautrix.DefaultSyncer)
	syncer.OnEventType(event.EventMessage, c.handleMessage)

	for _, roomID := range c.config.Rooms {
		if err := c.joinRoom(id.RoomID(roomID)); err != nil {
			return fmt.Errorf("failed to join room %s: %w", roomID, err)
		}
	}

	// Sync in the background with exponential back-off reconnection. Without
	// retries a transient homeserver error would silently kill the sync
	// goroutine and leave the assistant deaf to all new messages.
	go func() {
		const (
			backoffMin = 2 * time.Second
			backoffMax = 5 * time.Minute
		)
		backoff := backoffMin
		for {
			backoff = backoffMin // reset before each attempt
			if err := c.client.Sync(); err != nil {
				select {
				case <-c.stopCh:
					return
				default:
				}
				slog.Error("Matrix sync stopped; reconnecting", "err", err, "backoff", backoff)
				select {
				case <-c.stopCh:
					return
				case <-time.After(backoff):
				}
				backoff *= 2
				if backoff > backoffMax {
					backoff = backoffMax
				}
				continue
			}
			// Sync returns nil only after a clean StopSync().
			return
		}
	}()

	return nil
}

// Stop stops the Matrix client.
func (c *Client) Stop() {
	close(c.stopCh)
	c.client.StopSync()
}

// SendMessage sends a text message to a room.
func (c *Client) SendMessage(ctx context.Context, roomID, message string) error {
	_, err := c.client.SendText(ctx, id.RoomID(roomID), message)
	if err != nil {
		return fmt.Errorf("failed to send message: %w", err)
	}
	return nil
}

// SendNotice sends a notice (less intrusive than a normal message); used for
// operational announcements such as startup and shutdown.
func (c *Client) SendNotice(ctx context.Context, roomID, message string) error {
	content := event.MessageEventContent{
		MsgType: event.MsgNotice,
		Body:    message,
	}
	_, err := c.client.SendMessageEvent(ctx, id.RoomID(roomID), event.EventMessage, &content)
	if err != nil {
		return fmt.Errorf("failed to send notice: %w", err)
	}
	return nil
}

// SetTyping toggles the typing indicator while a command is being processed.
func (c *Client) SetTyping(ctx context.Context, roomID string, typing bool, timeout time.Duration) error {
	_, err := c.client.UserTyping(ctx, id.RoomID(roomID), typing, timeout)
	if err != nil {
		return fmt.Errorf("failed to set typing: %w", err)
	}
	return nil
}

// isConfiguredRoom checks whether the assistant listens in roomID.
func (c *Client) isConfiguredRoom(roomID string) bool {
	for _, r := range c.config.Rooms {
		if r == roomID {
			return true
		}
	}
	return false
}

// isAllowedSender checks the sender allow-list; an empty list allows all.
func (c *Client) isAllowedSender(sender string) bool {
	if len(c.config.AllowedSenders) == 0 {
		return true
	}
	for _, s := range c.config.AllowedSenders {
		if s == sender {
			return true
		}
	}
	return false
}

// handleMessage filters inbound events down to text messages from configured
// rooms and allowed senders, then invokes the registered handler.
func (c *Client) handleMessage(ctx context.Context, evt *event.Event) {
	// Ignore our own messages.
	if evt.Sender == id.UserID(c.config.UserID) {
		return
	}

	msgContent := evt.Content.AsMessage()
	if msgContent == nil || msgContent.MsgType != event.MsgText {
		return
	}

	if !c.isConfiguredRoom(evt.RoomID.String()) {
		return
	}
	if !c.isAllowedSender(evt.Sender.String()) {
		slog.Warn("ignoring message from unauthorized sender", "sender", evt.Sender, "room", evt.RoomID)
		return
	}

	if c.handler != nil {
		c.handler(ctx, evt.RoomID.String(), evt.Sender.String(), msgContent.Body)
	}
}

// joinRoom attempts to join a room.
func (c *Client) joinRoom(roomID id.RoomID) error {
	_, err := c.client.JoinRoomByID(context.Background(), roomID)
	if err != nil {
		// Homeservers return M_FORBIDDEN when the bot is already a member of
		// the room. Use mautrix's typed error check instead of string matching.
		if errors.Is(err, mautrix.MForbidden) {
			slog.Warn("joinRoom: already a member or access denied, continuing", "room", roomID)
			return nil
		}
		return err
	}
	return nil
}

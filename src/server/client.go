package server

import (
	"encoding/json"
	"errors"
	"time"

	"stocknews-client/src/helpers"
	"stocknews-client/src/models"

	"github.com/gorilla/websocket"
)

// -----------------------------------------------------------------------------
// Constants
// -----------------------------------------------------------------------------

const (
	writeWait  = 2 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// maxCommandSize bounds one client frame; commands are a verb and a view.
	maxCommandSize = 1024
)

// -----------------------------------------------------------------------------
// Client
// -----------------------------------------------------------------------------

// Client is one websocket subscriber. The hub owns send and closes it.
type Client struct {
	id   string
	hub  *FeedServer
	conn *websocket.Conn
	send chan interface{}
}

// -----------------------------------------------------------------------------
// Inbound commands
// -----------------------------------------------------------------------------

// readPump decodes commands until the connection fails. Frames that are not
// commands, and commands the hub cannot apply, are answered with an error
// message to this client only. Frames over maxCommandSize end the connection.
func (c *Client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		c.conn.Close()
		c.hub.Logger.Info("Client %s disconnected", c.id)
	}()

	c.conn.SetReadLimit(maxCommandSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		kind, frame, err := c.conn.ReadMessage()
		if err != nil {
			switch {
			case errors.Is(err, websocket.ErrReadLimit):
				c.hub.Logger.Warning("Client %s sent a frame over %d bytes", c.id, maxCommandSize)
			case websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure):
				c.hub.Logger.Info("WebSocket error from %s: %v", c.id, err)
			}
			return
		}

		cmd, err := decodeCommand(kind, frame)
		if err != nil {
			c.hub.Logger.Info("Malformed command from %s: %v", c.id, err)
			c.reject("", err)
			continue
		}

		if err := c.hub.HandleClientMessage(c, cmd); err != nil {
			c.hub.Logger.Warning("Client %s: %v", c.id, err)
			c.reject(cmd.Command, err)
		}
	}
}

// -----------------------------------------------------------------------------

func decodeCommand(kind int, frame []byte) (models.MFeedCommand, error) {
	var cmd models.MFeedCommand
	if kind != websocket.TextMessage {
		return cmd, helpers.NewValidationError("commands must be text frames")
	}
	if err := json.Unmarshal(frame, &cmd); err != nil {
		return cmd, helpers.NewValidationError("command is not valid JSON")
	}
	if cmd.Command == "" {
		return cmd, helpers.NewValidationError("command is required")
	}
	return cmd, nil
}

// reject answers the sender with the reason a command was refused.
func (c *Client) reject(command string, err error) {
	c.hub.sendTo(c, feedMessage(models.FeedTypeError, models.MFeedError{
		Command: command,
		Error:   helpers.UserMessage(err, "command failed"),
	}))
}

// -----------------------------------------------------------------------------
// Outbound feed
// -----------------------------------------------------------------------------

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				// Hub closed the channel
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				c.hub.Logger.Info("Write error for %s: %v", c.id, err)
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

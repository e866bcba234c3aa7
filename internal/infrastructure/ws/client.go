// Package ws carries room streams over websocket: the visible marker set
// flows out as snapshots, position reports flow in. Fan-out itself lives in
// the feed package; a ws client is one subscriber plus one reporter source.
package ws

import (
	"context"
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"

	"github.com/G1okz/Geo-app/internal/feed"
	"github.com/G1okz/Geo-app/internal/infrastructure/metrics"
	"github.com/G1okz/Geo-app/internal/reporter"
)

type Client struct {
	conn   *connWrapper
	sub    *feed.Subscription
	source *reporter.ChannelSource
	cancel context.CancelFunc

	ID       string `json:"id"`
	RoomID   string `json:"roomId"`
	Username string `json:"username"`
}

func NewClient(conn *websocket.Conn, sub *feed.Subscription, source *reporter.ChannelSource, cancel context.CancelFunc, id, roomID, username string) *Client {
	metrics.ConnectedClients.Inc()

	return &Client{
		conn:     newConnWrapper(conn),
		sub:      sub,
		source:   source,
		cancel:   cancel,
		ID:       id,
		RoomID:   roomID,
		Username: username,
	}
}

// ReadPump parses incoming messages until the connection drops, feeding
// position reports to the client's reporter. It tears the client down on
// exit, which ends the write pump via the closed subscription.
func (c *Client) ReadPump() {
	defer c.teardown()

	for {
		_, raw, err := c.conn.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("ws read error (client %s): %v", c.ID, err)
			}
			return
		}

		var msg WSMessage
		if err := json.Unmarshal(raw, &msg); err != nil {
			_ = c.conn.WriteJSON(NewError(c.RoomID, "malformed message"))
			continue
		}

		if msg.Type != PositionReport {
			continue
		}

		data, err := json.Marshal(msg.Data)
		if err != nil {
			continue
		}
		var report PositionReportPayload
		if err := json.Unmarshal(data, &report); err != nil {
			_ = c.conn.WriteJSON(NewError(c.RoomID, "malformed position report"))
			continue
		}

		c.source.Push(reporter.Position{
			Latitude:  report.Latitude,
			Longitude: report.Longitude,
			At:        report.Timestamp,
		})
	}
}

// WritePump forwards every projection the subscription emits as a snapshot
// message. It exits when the subscription closes.
func (c *Client) WritePump() {
	defer func() {
		_ = c.conn.Close()
	}()

	for markers := range c.sub.Updates() {
		if err := c.conn.WriteJSON(NewMarkerSnapshot(c.RoomID, markers)); err != nil {
			log.Printf("ws write error (client %s): %v", c.ID, err)
			return
		}
	}
}

func (c *Client) teardown() {
	c.cancel()
	c.sub.Close()
	_ = c.conn.Close()
	metrics.ConnectedClients.Dec()
}

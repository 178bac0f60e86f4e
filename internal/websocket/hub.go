package websocket

import (
	"encoding/json"
	"log"

	"github.com/gorilla/websocket"
)

type Client struct {
	Hub     *Hub
	Conn    *websocket.Conn
	Send    chan []byte
	OwnerID int64
}

// DonationAlert is pushed to a campaign owner's widget when a payment for
// one of their campaigns is confirmed.
type DonationAlert struct {
	TargetOwnerID int64  `json:"-"`
	CampaignID    int64  `json:"campaign_id"`
	CampaignTitle string `json:"campaign_title"`
	DonorName     string `json:"donor_name"`
	AmountCents   int64  `json:"amount_cents"`
}

type Hub struct {
	Clients        map[int64]*Client
	Register       chan *Client
	Unregister     chan *Client
	BroadcastAlert chan DonationAlert
}

func NewHub() *Hub {
	return &Hub{
		Clients:        make(map[int64]*Client),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		BroadcastAlert: make(chan DonationAlert, 64),
	}
}

// DonationConfirmed queues an alert without blocking the caller; if the hub
// is saturated the alert is dropped, it is best-effort by contract.
func (h *Hub) DonationConfirmed(alert DonationAlert) {
	select {
	case h.BroadcastAlert <- alert:
	default:
		log.Printf("alert channel full, dropping alert for owner %d", alert.TargetOwnerID)
	}
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.Clients[client.OwnerID] = client
			log.Printf("WebSocket client registered for owner %d", client.OwnerID)

		case client := <-h.Unregister:
			if _, ok := h.Clients[client.OwnerID]; ok {
				delete(h.Clients, client.OwnerID)
				close(client.Send)
				log.Printf("WebSocket client unregistered for owner %d", client.OwnerID)
			}

		case alert := <-h.BroadcastAlert:
			if client, ok := h.Clients[alert.TargetOwnerID]; ok {
				jsonData, err := json.Marshal(alert)
				if err != nil {
					log.Println("Failed to marshal donation alert:", err)
					continue
				}

				select {
				case client.Send <- jsonData:
				default:
					close(client.Send)
					delete(h.Clients, client.OwnerID)
				}
			}
		}
	}
}

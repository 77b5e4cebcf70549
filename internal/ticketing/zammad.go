package ticketing

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// Zammad creates tickets through the Zammad REST API.
type Zammad struct {
	baseURL  string
	token    string
	group    string
	customer string
	client   *http.Client
}

// ZammadOption configures the Zammad channel.
type ZammadOption func(*Zammad)

// WithGroup overrides the target ticket group.
func WithGroup(group string) ZammadOption {
	return func(z *Zammad) {
		if group != "" {
			z.group = group
		}
	}
}

// WithCustomer overrides the ticket customer address.
func WithCustomer(customer string) ZammadOption {
	return func(z *Zammad) {
		if customer != "" {
			z.customer = customer
		}
	}
}

// NewZammad constructs a Zammad ticket channel.
func NewZammad(baseURL, token string, opts ...ZammadOption) (*Zammad, error) {
	if baseURL == "" {
		return nil, errors.New("zammad: empty base url")
	}
	if token == "" {
		return nil, errors.New("zammad: empty token")
	}
	z := &Zammad{
		baseURL:  strings.TrimRight(baseURL, "/"),
		token:    token,
		group:    "Monitoring",
		customer: "monitoring@localhost",
		client:   &http.Client{Timeout: 15 * time.Second},
	}
	for _, opt := range opts {
		opt(z)
	}
	return z, nil
}

type zammadTicketRequest struct {
	Title    string        `json:"title"`
	Group    string        `json:"group"`
	Customer string        `json:"customer"`
	Priority string        `json:"priority"`
	Tags     string        `json:"tags,omitempty"`
	Article  zammadArticle `json:"article"`
}

type zammadArticle struct {
	Subject  string `json:"subject"`
	Body     string `json:"body"`
	Type     string `json:"type"`
	Internal bool   `json:"internal"`
}

type zammadTicketResponse struct {
	ID     int    `json:"id"`
	Number string `json:"number"`
}

// CreateTicket raises a ticket and returns its number.
func (z *Zammad) CreateTicket(ctx context.Context, title, body, priority, tag string) (string, error) {
	if z == nil || z.client == nil {
		return "", errors.New("zammad: nil channel")
	}
	if title == "" {
		return "", errors.New("zammad: empty title")
	}
	request := zammadTicketRequest{
		Title:    title,
		Group:    z.group,
		Customer: z.customer,
		Priority: priority,
		Tags:     tag,
		Article: zammadArticle{
			Subject:  title,
			Body:     body,
			Type:     "note",
			Internal: false,
		},
	}
	payload, err := json.Marshal(request)
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, z.baseURL+"/api/v1/tickets", bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Token token="+z.token)

	resp, err := z.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("zammad: http %d", resp.StatusCode)
	}
	var ticket zammadTicketResponse
	if err := json.NewDecoder(resp.Body).Decode(&ticket); err != nil {
		return "", err
	}
	if ticket.Number != "" {
		return ticket.Number, nil
	}
	return strconv.Itoa(ticket.ID), nil
}

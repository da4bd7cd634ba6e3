package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

type Request struct {
	ID      string `json:"id"`
	Target  string `json:"target"`
	Payload any    `json:"payload,omitempty"`
}

type WSEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

type ResultPayload struct {
	RequestID string          `json:"request_id"`
	Result    json.RawMessage `json:"result"`
}

type Client struct {
	baseURL     string
	httpClient  *http.Client
	wsConn      *websocket.Conn
	wsDone      chan struct{}
	scanner     *bufio.Scanner
	currentRoom string

	mu      sync.Mutex
	pending map[string]chan json.RawMessage
}

func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		wsDone:     make(chan struct{}),
		pending:    make(map[string]chan json.RawMessage),
	}
}

func (c *Client) SetScanner(scanner *bufio.Scanner) {
	c.scanner = scanner
}

func (c *Client) connectWebSocket() error {
	u, err := url.Parse(c.baseURL)
	if err != nil {
		return err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/ws"

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect websocket: %w", err)
	}
	c.wsConn = conn

	go c.listenWebSocket()
	return nil
}

func (c *Client) listenWebSocket() {
	defer close(c.wsDone)

	for {
		_, raw, err := c.wsConn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				fmt.Printf("\nwebsocket closed: %v\n", err)
			}
			return
		}

		var event WSEvent
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}

		switch event.Type {
		case "RESULT":
			var result ResultPayload
			if err := json.Unmarshal(event.Payload, &result); err != nil {
				continue
			}
			c.mu.Lock()
			ch, ok := c.pending[result.RequestID]
			delete(c.pending, result.RequestID)
			c.mu.Unlock()
			if ok {
				ch <- result.Result
			}
		default:
			fmt.Printf("\n[%s] %s\n", event.Type, string(event.Payload))
		}
	}
}

// invoke sends a request and waits for its RESULT.
func (c *Client) invoke(target string, payload any) (json.RawMessage, error) {
	id := uuid.NewString()
	ch := make(chan json.RawMessage, 1)

	c.mu.Lock()
	c.pending[id] = ch
	c.mu.Unlock()

	if err := c.wsConn.WriteJSON(Request{ID: id, Target: target, Payload: payload}); err != nil {
		return nil, err
	}

	select {
	case result := <-ch:
		return result, nil
	case <-c.wsDone:
		return nil, fmt.Errorf("connection closed")
	case <-time.After(10 * time.Second):
		c.mu.Lock()
		delete(c.pending, id)
		c.mu.Unlock()
		return nil, fmt.Errorf("no reply to %s", target)
	}
}

func (c *Client) prompt(label string) (string, error) {
	fmt.Print(label)
	if !c.scanner.Scan() {
		return "", io.EOF
	}
	return strings.TrimSpace(c.scanner.Text()), nil
}

func (c *Client) CreateRoom() error {
	result, err := c.invoke("CreateRoom", nil)
	if err != nil {
		return err
	}
	var code *string
	if err := json.Unmarshal(result, &code); err != nil || code == nil {
		return fmt.Errorf("room was not created")
	}
	c.currentRoom = *code
	fmt.Printf("Room created: %s\n", *code)
	return nil
}

func (c *Client) JoinRoom() error {
	code, err := c.prompt("Room code: ")
	if err != nil {
		return err
	}
	result, err := c.invoke("JoinRoom", map[string]string{"room_code": strings.ToUpper(code)})
	if err != nil {
		return err
	}
	var joined bool
	_ = json.Unmarshal(result, &joined)
	if !joined {
		return fmt.Errorf("room %s does not exist", code)
	}
	c.currentRoom = strings.ToUpper(code)
	fmt.Printf("Joined room %s\n", c.currentRoom)
	return nil
}

func (c *Client) ChooseName() error {
	name, err := c.prompt("Name: ")
	if err != nil {
		return err
	}
	_, err = c.invoke("ChooseName", map[string]string{"name": name})
	return err
}

func (c *Client) AddCriterion() error {
	text, err := c.prompt("Criterion: ")
	if err != nil {
		return err
	}
	_, err = c.invoke("AddCriterion", map[string]string{"text": text})
	return err
}

func (c *Client) AddTeam() error {
	name, err := c.prompt("Team name: ")
	if err != nil {
		return err
	}
	result, err := c.invoke("AddTeam", map[string]string{"name": name})
	if err != nil {
		return err
	}
	fmt.Printf("Team id: %s\n", string(result))
	return nil
}

func (c *Client) StartScoring() error {
	teamID, err := c.prompt("Team id: ")
	if err != nil {
		return err
	}
	_, err = c.invoke("StartScoring", map[string]string{"team_id": teamID})
	return err
}

func (c *Client) GiveScore() error {
	teamID, err := c.prompt("Team id: ")
	if err != nil {
		return err
	}
	raw, err := c.prompt("Score: ")
	if err != nil {
		return err
	}
	score, err := strconv.Atoi(raw)
	if err != nil {
		return fmt.Errorf("score must be a number")
	}
	_, err = c.invoke("GiveScore", map[string]any{"team_id": teamID, "score": score})
	return err
}

func (c *Client) SendMessage() error {
	text, err := c.prompt("Message: ")
	if err != nil {
		return err
	}
	_, err = c.invoke("SendMessage", map[string]string{"text": text})
	return err
}

func (c *Client) ViewRoom() error {
	if c.currentRoom == "" {
		return fmt.Errorf("not in a room")
	}
	resp, err := c.httpClient.Get(c.baseURL + "/rooms/" + c.currentRoom)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to read room: %s - %s", resp.Status, string(body))
	}
	fmt.Println(string(body))
	return nil
}

func (c *Client) Close() {
	if c.wsConn != nil {
		_ = c.wsConn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		c.wsConn.Close()
	}
}

func main() {
	baseURL := flag.String("server", "http://localhost:8080/api/v1", "server API base url")
	flag.Parse()

	client := NewClient(*baseURL)
	if err := client.connectWebSocket(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	scanner := bufio.NewScanner(os.Stdin)
	client.SetScanner(scanner)

	actions := map[string]func() error{
		"1": client.CreateRoom,
		"2": client.JoinRoom,
		"3": client.ChooseName,
		"4": client.AddCriterion,
		"5": client.AddTeam,
		"6": client.StartScoring,
		"7": client.GiveScore,
		"8": client.SendMessage,
		"9": client.ViewRoom,
	}

	for {
		fmt.Println("\n=== Klick Console Client ===")
		if client.currentRoom != "" {
			fmt.Printf("Room: %s\n", client.currentRoom)
		}
		fmt.Println("1. Create room")
		fmt.Println("2. Join room")
		fmt.Println("3. Choose name")
		fmt.Println("4. Add criterion")
		fmt.Println("5. Add team")
		fmt.Println("6. Start scoring")
		fmt.Println("7. Give score")
		fmt.Println("8. Send message")
		fmt.Println("9. View room")
		fmt.Println("0. Exit")
		fmt.Print("Choose an action: ")

		if !scanner.Scan() {
			return
		}
		input := strings.TrimSpace(scanner.Text())

		if input == "0" {
			fmt.Println("Bye!")
			return
		}
		action, ok := actions[input]
		if !ok {
			fmt.Println("Unknown action")
			continue
		}
		if err := action(); err != nil {
			fmt.Printf("Error: %v\n", err)
		}
	}
}

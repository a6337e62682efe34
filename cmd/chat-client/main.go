// Command chat-client is a small interactive terminal client, mostly useful
// for poking at a running server. Plain input broadcasts; `/msg <user> <text>`
// sends a private message; `/count` asks for user counts (moderators only);
// `/jwt` requests a fresh token.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"github.com/suprohub/axochat-server/pkg/packet"
)

const historySize = 200

var (
	serverURL     string
	token         string
	allowMessages bool
)

type model struct {
	textInput textinput.Model
	conn      *websocket.Conn
	history   []string
	closed    bool
}

type incomingMsg struct {
	pkt packet.ClientPacket
}

type connClosedMsg struct {
	err error
}

func (m model) Init() tea.Cmd {
	return textinput.Blink
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit

		case tea.KeyEnter:
			line := strings.TrimSpace(m.textInput.Value())
			m.textInput.Reset()
			if line == "" {
				return m, nil
			}
			if err := m.sendLine(line); err != nil {
				m = m.appendLine("! " + err.Error())
			}
			return m, nil
		}

	case incomingMsg:
		m = m.appendLine(renderPacket(msg.pkt))
		return m, nil

	case connClosedMsg:
		m.closed = true
		if msg.err != nil {
			m = m.appendLine("! connection closed: " + msg.err.Error())
		} else {
			m = m.appendLine("! connection closed")
		}
		return m, nil
	}

	m.textInput, cmd = m.textInput.Update(msg)
	return m, cmd
}

func (m model) View() string {
	var b strings.Builder
	for _, line := range m.history {
		b.WriteString(line)
		b.WriteByte('\n')
	}
	b.WriteByte('\n')
	b.WriteString(m.textInput.View())
	b.WriteByte('\n')
	return b.String()
}

func (m model) appendLine(line string) model {
	m.history = append(m.history, line)
	if len(m.history) > historySize {
		m.history = m.history[len(m.history)-historySize:]
	}
	return m
}

func (m model) sendLine(line string) error {
	if m.closed {
		return fmt.Errorf("not connected")
	}

	var pkt packet.ServerPacket
	switch {
	case line == "/count":
		pkt = &packet.RequestUserCount{}
	case line == "/jwt":
		pkt = &packet.RequestJWT{}
	case strings.HasPrefix(line, "/msg "):
		receiver, content, ok := strings.Cut(strings.TrimPrefix(line, "/msg "), " ")
		if !ok {
			return fmt.Errorf("usage: /msg <user> <text>")
		}
		pkt = &packet.PrivateMessage{Receiver: receiver, Content: content}
	case strings.HasPrefix(line, "/"):
		return fmt.Errorf("unknown command %q", line)
	default:
		pkt = &packet.Message{Content: line}
	}

	data, err := packet.EncodeServer(pkt)
	if err != nil {
		return err
	}
	return m.conn.WriteMessage(websocket.TextMessage, data)
}

func renderPacket(pkt packet.ClientPacket) string {
	switch p := pkt.(type) {
	case *packet.ChatMessage:
		return fmt.Sprintf("<%s> %s", p.AuthorName, p.Content)
	case *packet.PrivateChatMessage:
		return fmt.Sprintf("[%s -> you] %s", p.AuthorName, p.Content)
	case *packet.UserCount:
		return fmt.Sprintf("* %d connections, %d logged in", p.Connections, p.LoggedIn)
	case *packet.NewJWT:
		return "* token: " + p.Token
	case *packet.Success:
		return fmt.Sprintf("* success: %s", p.Reason)
	case *packet.Error:
		return "! " + p.Message.Error()
	case *packet.MojangInfo:
		return "* session hash: " + p.SessionHash
	}
	return fmt.Sprintf("? %#v", pkt)
}

func run() error {
	conn, _, err := websocket.DefaultDialer.Dial(serverURL, nil)
	if err != nil {
		return fmt.Errorf("dialing %s: %w", serverURL, err)
	}
	defer conn.Close()

	if token != "" {
		data, err := packet.EncodeServer(&packet.LoginJWT{Token: token, AllowMessages: allowMessages})
		if err != nil {
			return err
		}
		if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return fmt.Errorf("sending login: %w", err)
		}
	}

	ti := textinput.New()
	ti.Placeholder = "Say something"
	ti.Focus()
	ti.CharLimit = 256
	ti.Width = 60

	p := tea.NewProgram(model{textInput: ti, conn: conn})

	go func() {
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				p.Send(connClosedMsg{err: err})
				return
			}
			pkt, err := packet.DecodeClient(data)
			if err != nil {
				continue
			}
			p.Send(incomingMsg{pkt: pkt})
		}
	}()

	_, err = p.Run()
	return err
}

func main() {
	root := &cobra.Command{
		Use:          "chat-client",
		Short:        "Interactive terminal client for the chat server",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run()
		},
	}
	root.Flags().StringVar(&serverURL, "url", "ws://127.0.0.1:8080/ws", "websocket url of the server")
	root.Flags().StringVar(&token, "token", "", "log in with this JWT after connecting")
	root.Flags().BoolVar(&allowMessages, "allow-messages", true, "accept private messages")

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

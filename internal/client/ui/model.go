package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/ansi"
	"github.com/rs/zerolog"

	"github.com/cloudzz-dev/batepapo/internal/chat"
	"github.com/cloudzz-dev/batepapo/internal/models"
)

// --- View State ---

type viewState int

const (
	viewLogin viewState = iota
	viewChat
)

const menuWidth = 28

type Options struct {
	Backend   chat.Backend
	Intervals chat.Intervals
	// Notify shows a desktop notification. Nil disables notifications.
	Notify func(title, body string) error
	// OnLogin is called with the name after a successful login.
	OnLogin func(name string)
	// Name prefills the login input.
	Name string
	// Forget is called when the prefilled name turns out to be taken.
	Forget func()
	Logger zerolog.Logger
}

// --- Messages ---

type loginResultMsg struct {
	name    string
	session *chat.Session
	err     error
}

// pollEvent carries a Poller result back into the update loop. Events of a
// session that is no longer current are dropped.
type pollEvent struct {
	session *chat.Session
	payload any
}

type sentMsg struct {
	session *chat.Session
	upd     chat.MessageUpdate
	err     error
}

type pollerStoppedMsg struct {
	session *chat.Session
	err     error
}

// --- Main Model ---

type Model struct {
	opts Options
	log  zerolog.Logger

	view      viewState
	nameInput textinput.Model
	loggingIn bool
	loginErr  string
	spinner   spinner.Model

	session *chat.Session
	snap    chat.Snapshot
	sender  *chat.Sender
	events  chan tea.Msg
	pollCtx context.Context
	cancel  context.CancelFunc
	loading bool
	expired bool
	banner  string

	messageInput textinput.Model
	feed         viewport.Model

	menuOpen   bool
	menuCursor int

	width  int
	height int
}

func New(opts Options) Model {
	nameInput := textinput.New()
	nameInput.Placeholder = "Nome de usuário"
	nameInput.CharLimit = 32
	nameInput.Width = 30
	nameInput.SetValue(opts.Name)
	nameInput.Focus()

	messageInput := textinput.New()
	messageInput.Placeholder = "Escreva aqui..."
	messageInput.CharLimit = 1000
	messageInput.Width = 50

	return Model{
		opts:         opts,
		spinner:      spinner.New(spinner.WithSpinner(spinner.Dot), spinner.WithStyle(mutedStyle)),
		log:          opts.Logger,
		view:         viewLogin,
		nameInput:    nameInput,
		messageInput: messageInput,
		feed:         viewport.New(80, 20),
	}
}

// --- Commands ---

func loginCmd(b chat.Registrar, name string) tea.Cmd {
	return func() tea.Msg {
		s, err := chat.Login(context.Background(), b, name)
		return loginResultMsg{name: name, session: s, err: err}
	}
}

func runPoller(ctx context.Context, p *chat.Poller, s *chat.Session) tea.Cmd {
	return func() tea.Msg {
		return pollerStoppedMsg{session: s, err: p.Run(ctx)}
	}
}

// waitForEvent blocks until the poller reports something, like a read on a
// connection.
func waitForEvent(ctx context.Context, ch <-chan tea.Msg) tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-ch:
			return msg
		case <-ctx.Done():
			return nil
		}
	}
}

func sendCmd(ctx context.Context, sender *chat.Sender, s *chat.Session, text string) tea.Cmd {
	return func() tea.Msg {
		upd, err := sender.Send(ctx, text)
		return sentMsg{session: s, upd: upd, err: err}
	}
}

// chanSink forwards poller results into the update loop.
type chanSink struct {
	ctx     context.Context
	ch      chan<- tea.Msg
	session *chat.Session
}

func (c chanSink) push(payload any) {
	select {
	case c.ch <- pollEvent{session: c.session, payload: payload}:
	case <-c.ctx.Done():
	}
}

func (c chanSink) OnMessages(u chat.MessageUpdate) { c.push(u) }
func (c chanSink) OnContacts(u chat.ContactUpdate) { c.push(u) }
func (c chanSink) OnError(err error)               { c.push(err) }

// --- Init ---

func (m Model) Init() tea.Cmd {
	return textinput.Blink
}

// --- Update ---

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case loginResultMsg:
		m.loggingIn = false
		if msg.err != nil {
			m.loginErr = loginErrorText(msg.err)
			m.log.Info().Err(msg.err).Msg("login rejected")
			m.forgetIfPrefilled(msg.name, msg.err)
			return m, nil
		}
		return m.startSession(msg.session)

	case pollEvent:
		if msg.session != m.session || m.session == nil {
			return m, nil
		}
		switch p := msg.payload.(type) {
		case chat.MessageUpdate:
			m.applyMessages(p)
			if cmd := m.notifyCmd(p); cmd != nil {
				return m, tea.Batch(cmd, waitForEvent(m.ctxDone(), m.events))
			}
		case chat.ContactUpdate:
			m.snap = m.session.Snapshot()
			m.clampMenu()
		case error:
			m.showError(p)
		}
		return m, waitForEvent(m.ctxDone(), m.events)

	case sentMsg:
		if msg.session != m.session || m.session == nil {
			return m, nil
		}
		if msg.err != nil {
			if !errors.Is(msg.err, chat.ErrEmptyMessage) {
				m.showError(msg.err)
			}
			return m, nil
		}
		if msg.upd.Stale {
			return m, nil
		}
		m.applyMessages(msg.upd)
		return m, m.notifyCmd(msg.upd)

	case spinner.TickMsg:
		if !m.busy() {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case pollerStoppedMsg:
		if msg.err != nil && !errors.Is(msg.err, context.Canceled) {
			m.log.Error().Err(msg.err).Msg("poller stopped")
		}
		return m, nil
	}

	var cmd tea.Cmd
	switch m.view {
	case viewLogin:
		m.nameInput, cmd = m.nameInput.Update(msg)
	case viewChat:
		m.messageInput, cmd = m.messageInput.Update(msg)
	}
	return m, cmd
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		m.stop()
		return m, tea.Quit
	}

	if m.view == viewLogin {
		if msg.String() == "enter" {
			if m.loggingIn {
				return m, nil
			}
			m.loggingIn = true
			m.loginErr = ""
			return m, tea.Batch(loginCmd(m.opts.Backend, m.nameInput.Value()), m.spinner.Tick)
		}
		var cmd tea.Cmd
		m.nameInput, cmd = m.nameInput.Update(msg)
		return m, cmd
	}

	switch msg.String() {
	case "ctrl+r":
		m.restart()
		return m, textinput.Blink
	case "tab":
		m.menuOpen = !m.menuOpen
		m.clampMenu()
		m.resize()
		return m, nil
	case "pgup", "pgdown":
		var cmd tea.Cmd
		m.feed, cmd = m.feed.Update(msg)
		return m, cmd
	}

	if m.menuOpen {
		switch msg.String() {
		case "up", "k":
			if m.menuCursor > 0 {
				m.menuCursor--
			}
		case "down", "j":
			if m.menuCursor < len(m.menuEntries())-1 {
				m.menuCursor++
			}
		case "enter", " ":
			m.chooseMenuEntry()
		case "esc":
			m.menuOpen = false
			m.resize()
		}
		return m, nil
	}

	if msg.String() == "enter" {
		text := m.messageInput.Value()
		if strings.TrimSpace(text) == "" || m.sender == nil {
			return m, nil
		}
		m.messageInput.SetValue("")
		return m, sendCmd(m.ctxDone(), m.sender, m.session, text)
	}

	var cmd tea.Cmd
	m.messageInput, cmd = m.messageInput.Update(msg)
	return m, cmd
}

// startSession leaves the login screen and arms the polling loops.
func (m Model) startSession(s *chat.Session) (tea.Model, tea.Cmd) {
	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan tea.Msg, 16)
	poller := chat.NewPoller(m.opts.Backend, s, chanSink{ctx: ctx, ch: events, session: s}, m.opts.Intervals, m.log)

	m.session = s
	m.snap = s.Snapshot()
	m.sender = chat.NewSender(m.opts.Backend, s, poller.Messages)
	m.events = events
	m.cancel = cancel
	m.pollCtx = ctx
	m.view = viewChat
	m.loading = true
	m.expired = false
	m.banner = ""
	m.loginErr = ""
	m.nameInput.Blur()
	m.messageInput.Focus()
	m.resize()

	m.log.Info().Str("user", s.Username()).Msg("logged in")
	if m.opts.OnLogin != nil {
		m.opts.OnLogin(s.Username())
	}

	return m, tea.Batch(
		runPoller(ctx, poller, s),
		waitForEvent(ctx, events),
		textinput.Blink,
		m.spinner.Tick,
	)
}

// restart drops the session and goes back to the login screen. It is the
// only way to leave a session besides quitting.
func (m *Model) restart() {
	m.stop()
	m.session = nil
	m.sender = nil
	m.events = nil
	m.pollCtx = nil
	m.snap = chat.Snapshot{}
	m.view = viewLogin
	m.loading = false
	m.expired = false
	m.banner = ""
	m.menuOpen = false
	m.menuCursor = 0
	m.feed.SetContent("")
	m.messageInput.SetValue("")
	m.messageInput.Blur()
	m.nameInput.Focus()
}

// busy reports whether a loading indicator is on screen.
func (m Model) busy() bool {
	return m.loggingIn || m.loading
}

// forgetIfPrefilled drops the remembered name once the server refuses it.
func (m Model) forgetIfPrefilled(name string, err error) {
	if m.opts.Forget == nil || m.opts.Name == "" || !errors.Is(err, chat.ErrNameTaken) {
		return
	}
	if strings.TrimSpace(name) == strings.TrimSpace(m.opts.Name) {
		m.opts.Forget()
	}
}

func (m *Model) stop() {
	if m.cancel != nil {
		m.cancel()
		m.cancel = nil
	}
}

func (m Model) ctxDone() context.Context {
	if m.pollCtx == nil {
		return context.Background()
	}
	return m.pollCtx
}

func (m *Model) applyMessages(upd chat.MessageUpdate) {
	m.loading = false
	if !m.expired {
		m.banner = ""
	}
	m.snap = m.session.Snapshot()
	m.feed.SetContent(RenderFeed(m.snap.Messages, m.feed.Width))
	if upd.Scroll {
		m.feed.GotoBottom()
	}
}

func (m *Model) showError(err error) {
	if errors.Is(err, chat.ErrSessionExpired) {
		m.expired = true
		m.banner = "Sua sessão expirou. Pressione ctrl+r para entrar novamente."
		return
	}
	if m.expired {
		return
	}
	m.banner = fmt.Sprintf("Falha de conexão, tentando novamente: %v", err)
}

func (m Model) notifyCmd(upd chat.MessageUpdate) tea.Cmd {
	if m.opts.Notify == nil || len(upd.Mentions) == 0 {
		return nil
	}
	notify := m.opts.Notify
	log := m.log
	mentions := upd.Mentions
	return func() tea.Msg {
		for _, msg := range mentions {
			body := ansi.Truncate(clean(msg.Text), 100, "...")
			if err := notify("Bate-papo - "+clean(msg.From), body); err != nil {
				log.Debug().Err(err).Msg("desktop notification failed")
			}
		}
		return nil
	}
}

func (m *Model) resize() {
	w := m.width - 2
	if m.menuOpen {
		w -= menuWidth + 1
	}
	if w < 20 {
		w = 20
	}
	h := m.height - 7
	if h < 3 {
		h = 3
	}
	m.feed.Width = w
	m.feed.Height = h
	m.messageInput.Width = w - 4
	if m.session != nil {
		m.feed.SetContent(RenderFeed(m.snap.Messages, w))
	}
}

func loginErrorText(err error) string {
	switch {
	case errors.Is(err, chat.ErrEmptyName):
		return "Insira um nome de usuário"
	case errors.Is(err, chat.ErrNameTaken):
		return "Já existe um usuário com esse nome"
	default:
		return "Não foi possível entrar, tente novamente"
	}
}

// --- Menu ---

type menuEntry struct {
	label      string
	recipient  string
	visibility chat.Visibility
	isMode     bool
	selected   bool
}

func (m Model) menuEntries() []menuEntry {
	entries := []menuEntry{{
		label:     models.AllParticipants,
		recipient: models.AllParticipants,
		selected:  m.snap.AllSelected(),
	}}
	for _, c := range m.snap.Contacts {
		entries = append(entries, menuEntry{label: clean(c.Name), recipient: c.Name, selected: c.Selected})
	}
	entries = append(entries,
		menuEntry{label: "Público", visibility: chat.Public, isMode: true, selected: m.snap.Visibility == chat.Public},
		menuEntry{label: "Reservadamente", visibility: chat.Private, isMode: true, selected: m.snap.Visibility == chat.Private},
	)
	return entries
}

func (m *Model) chooseMenuEntry() {
	entries := m.menuEntries()
	if m.session == nil || m.menuCursor >= len(entries) {
		return
	}
	e := entries[m.menuCursor]
	if e.isMode {
		m.snap = m.session.Dispatch(chat.SetVisibility{Visibility: e.visibility})
		return
	}
	m.snap = m.session.Dispatch(chat.SelectRecipient{Name: e.recipient})
}

func (m *Model) clampMenu() {
	if n := len(m.menuEntries()); m.menuCursor >= n {
		m.menuCursor = n - 1
	}
}

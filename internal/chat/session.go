package chat

import (
	"slices"
	"sync"

	"github.com/cloudzz-dev/batepapo/internal/models"
)

type Visibility int

const (
	Public Visibility = iota
	Private
)

// Kind is the wire kind a message composed in this mode is sent as.
func (v Visibility) Kind() models.Kind {
	if v == Private {
		return models.KindPrivate
	}
	return models.KindPublic
}

func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

// Contact is one entry of the contact menu.
type Contact struct {
	Name     string
	Selected bool
}

type stream int

const (
	streamMessages stream = iota
	streamContacts
	numStreams
)

type ticketCounter struct {
	issued  uint64
	applied uint64
}

// Session is the state of one logged-in user. It is created by Login and
// lives until the user restarts or quits.
type Session struct {
	mu         sync.Mutex
	username   string
	sendTo     string
	visibility Visibility
	messages   []models.Message
	contacts   []Contact
	tickets    [numStreams]ticketCounter
}

// NewSession returns a session for username addressing everyone publicly.
func NewSession(username string) *Session {
	return &Session{
		username: username,
		sendTo:   models.AllParticipants,
	}
}

func (s *Session) Username() string {
	return s.username
}

// Snapshot is a copy of the session state, safe to keep and render.
type Snapshot struct {
	Username   string
	SendTo     string
	Visibility Visibility
	Messages   []models.Message
	Contacts   []Contact
}

// AllSelected reports whether the "everyone" entry is the selected one.
func (s Snapshot) AllSelected() bool {
	return s.SendTo == models.AllParticipants
}

// SelectedCount counts selected menu entries, the "everyone" entry included.
func (s Snapshot) SelectedCount() int {
	n := 0
	if s.AllSelected() {
		n++
	}
	for _, c := range s.Contacts {
		if c.Selected {
			n++
		}
	}
	return n
}

func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Session) snapshotLocked() Snapshot {
	return Snapshot{
		Username:   s.username,
		SendTo:     s.sendTo,
		Visibility: s.visibility,
		Messages:   slices.Clone(s.messages),
		Contacts:   slices.Clone(s.contacts),
	}
}

// Action is a UI selection change applied through Dispatch.
type Action interface {
	apply(s *Session)
}

// SelectRecipient makes Name the recipient. Names not in the contact menu
// are ignored.
type SelectRecipient struct {
	Name string
}

func (a SelectRecipient) apply(s *Session) {
	if a.Name == models.AllParticipants {
		s.selectLocked(models.AllParticipants)
		return
	}
	for _, c := range s.contacts {
		if c.Name == a.Name {
			s.selectLocked(a.Name)
			return
		}
	}
}

type SetVisibility struct {
	Visibility Visibility
}

func (a SetVisibility) apply(s *Session) {
	s.visibility = a.Visibility
}

// Dispatch applies a and returns the resulting state.
func (s *Session) Dispatch(a Action) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	a.apply(s)
	return s.snapshotLocked()
}

// selectLocked marks name as the only selected entry. A contact that
// happens to be called like the reserved label is never marked.
func (s *Session) selectLocked(name string) {
	s.sendTo = name
	found := false
	for i := range s.contacts {
		sel := !found && name != models.AllParticipants && s.contacts[i].Name == name
		s.contacts[i].Selected = sel
		found = found || sel
	}
	if !found {
		s.sendTo = models.AllParticipants
	}
}

func (s *Session) issue(st stream) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tickets[st].issued++
	return s.tickets[st].issued
}

// admitLocked accepts a response for ticket unless a newer one of the same
// stream was already applied.
func (s *Session) admitLocked(st stream, ticket uint64) bool {
	if ticket <= s.tickets[st].applied {
		return false
	}
	s.tickets[st].applied = ticket
	return true
}

// MessageUpdate is the outcome of applying one message fetch.
type MessageUpdate struct {
	// Messages is the full visible feed to render.
	Messages []models.Message
	// Scroll is set when the newest visible message changed.
	Scroll bool
	// Arrivals are the messages after the previously newest one. On the
	// first applied fetch it is the whole feed.
	Arrivals []models.Message
	// Mentions are arrivals that are private messages to the user.
	Mentions []models.Message
	// Stale is set when a newer response had already been applied; nothing
	// else is filled in then.
	Stale bool
}

func (s *Session) applyMessages(ticket uint64, feed []models.Message) MessageUpdate {
	visible := Filter(feed, s.username)

	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.admitLocked(streamMessages, ticket) {
		return MessageUpdate{Stale: true}
	}

	prev := s.messages
	s.messages = visible

	upd := MessageUpdate{Messages: slices.Clone(visible)}
	if len(visible) == 0 {
		return upd
	}
	newest := visible[len(visible)-1]
	upd.Scroll = len(prev) == 0 || prev[len(prev)-1] != newest
	if len(prev) == 0 {
		upd.Arrivals = slices.Clone(visible)
		return upd
	}
	if !upd.Scroll {
		return upd
	}
	upd.Arrivals = arrivals(prev[len(prev)-1], visible)
	for _, m := range upd.Arrivals {
		if m.Type == models.KindPrivate && m.To == s.username && m.From != s.username {
			upd.Mentions = append(upd.Mentions, m)
		}
	}
	return upd
}

// arrivals returns what follows last in next. When last fell out of the
// window only the newest message counts as new.
func arrivals(last models.Message, next []models.Message) []models.Message {
	for i := len(next) - 1; i >= 0; i-- {
		if next[i] == last {
			return slices.Clone(next[i+1:])
		}
	}
	return slices.Clone(next[len(next)-1:])
}

// ContactUpdate is the outcome of applying one participant fetch.
type ContactUpdate struct {
	Contacts []Contact
	SendTo   string
	// Dropped is set when the selected recipient left and the selection fell
	// back to everyone.
	Dropped bool
	Stale   bool
}

func (s *Session) applyContacts(ticket uint64, roster []models.Participant) ContactUpdate {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.admitLocked(streamContacts, ticket) {
		return ContactUpdate{Stale: true}
	}

	seen := make(map[string]bool, len(roster))
	contacts := make([]Contact, 0, len(roster))
	for _, p := range roster {
		if p.Name == s.username || seen[p.Name] {
			continue
		}
		seen[p.Name] = true
		contacts = append(contacts, Contact{Name: p.Name})
	}

	before := s.sendTo
	s.contacts = contacts
	s.selectLocked(before)

	return ContactUpdate{
		Contacts: slices.Clone(s.contacts),
		SendTo:   s.sendTo,
		Dropped:  before != s.sendTo,
	}
}

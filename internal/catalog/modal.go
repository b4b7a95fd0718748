package catalog

import (
	"fmt"
	"strings"
	"sync"
)

// ModalState is either open or closed.
type ModalState int

const (
	ModalClosed ModalState = iota
	ModalOpen
)

func (s ModalState) String() string {
	if s == ModalOpen {
		return "open"
	}
	return "closed"
}

// CloseReason records which control dismissed the modal.
type CloseReason int

const (
	CloseButton CloseReason = iota
	CloseBackdrop
	CloseEscape
)

func (r CloseReason) String() string {
	switch r {
	case CloseButton:
		return "button"
	case CloseBackdrop:
		return "backdrop"
	case CloseEscape:
		return "escape"
	default:
		return fmt.Sprintf("close_reason(%d)", int(r))
	}
}

// ParseCloseReason maps a client event value onto a CloseReason.
func ParseCloseReason(s string) (CloseReason, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "button", "close", "":
		return CloseButton, nil
	case "backdrop", "outside":
		return CloseBackdrop, nil
	case "escape", "esc":
		return CloseEscape, nil
	default:
		return 0, fmt.Errorf("catalog: unknown close reason %q", s)
	}
}

// Modal is the detail overlay. While open, page scrolling is locked.
type Modal struct {
	mu          sync.Mutex
	state       ModalState
	content     string
	itemID      string
	lastReason  CloseReason
	transitions int
}

// Open shows content for itemID. Opening an open modal swaps the content
// without counting another transition. It reports whether a transition
// happened.
func (m *Modal) Open(itemID, content string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.content = content
	m.itemID = itemID
	if m.state == ModalOpen {
		return false
	}
	m.state = ModalOpen
	m.transitions++
	return true
}

// Close dismisses the modal. Closing a closed modal is a no-op that
// returns false.
func (m *Modal) Close(reason CloseReason) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == ModalClosed {
		return false
	}
	m.state = ModalClosed
	m.content = ""
	m.itemID = ""
	m.lastReason = reason
	m.transitions++
	return true
}

func (m *Modal) State() ModalState {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

func (m *Modal) Content() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.content
}

func (m *Modal) ItemID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.itemID
}

// ScrollLocked is true exactly while the modal is open.
func (m *Modal) ScrollLocked() bool {
	return m.State() == ModalOpen
}

// LastReason returns how the modal was most recently closed.
func (m *Modal) LastReason() CloseReason {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReason
}

// Transitions counts open and close transitions since creation.
func (m *Modal) Transitions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transitions
}

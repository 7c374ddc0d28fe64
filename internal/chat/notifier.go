package chat

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"

	"github.com/samber/lo"
)

// Notifier builds the server-originated envelopes and fans them out over
// a registry snapshot. Counts are read from the registry at build time,
// never cached.
type Notifier struct {
	registry *Registry
}

func NewNotifier(registry *Registry) *Notifier {
	return &Notifier{registry: registry}
}

func (n *Notifier) broadcast(env *Envelope) {
	payload, _ := json.Marshal(env)
	for _, c := range n.registry.Snapshot() {
		if !c.TrySend(payload) {
			log.Printf("[NOTIFY] Dropping %s frame for %s: buffer full or connection closed", env.Type, c.Nickname)
		}
	}
}

// System broadcasts a free-text announcement stamped with the current
// online count.
func (n *Notifier) System(content string) {
	n.broadcast(&Envelope{
		Type:    TypeSystem,
		Content: fmt.Sprintf("[system] %s (online: %d)", content, n.registry.Count()),
	})
}

// UserCount broadcasts the current registry size as string content, the
// format the web client already expects.
func (n *Notifier) UserCount() {
	n.broadcast(&Envelope{
		Type:    TypeUserCount,
		Content: strconv.Itoa(n.registry.Count()),
	})
}

// UserList broadcasts the sorted distinct nicknames of the open
// connections. A connection without a nickname is omitted.
func (n *Notifier) UserList() {
	snapshot := n.registry.Snapshot()
	nicknames := make([]string, 0, len(snapshot))
	for _, c := range snapshot {
		if c.Nickname != "" {
			nicknames = append(nicknames, c.Nickname)
		}
	}

	users := lo.Uniq(nicknames)
	sort.Strings(users)

	n.broadcast(&Envelope{Type: TypeUserList, Users: users})
}

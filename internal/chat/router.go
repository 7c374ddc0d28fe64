package chat

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"chatroom-server/internal/models"
	"chatroom-server/internal/repository"
)

const (
	defaultHistoryPageSize = 20
	persistTimeout         = 5 * time.Second
)

// Router classifies inbound frames and dispatches them. It is stateless
// across frames; all connection state lives in the registry. Delivery is
// best-effort and runs before persistence, which is never rolled back.
type Router struct {
	registry *Registry
	notifier *Notifier
	store    repository.MessageRepo

	historyOnConnect bool
	backlogLimit     int
}

func NewRouter(registry *Registry, notifier *Notifier, store repository.MessageRepo, historyOnConnect bool, backlogLimit int) *Router {
	if backlogLimit < 1 {
		backlogLimit = defaultHistoryPageSize
	}
	return &Router{
		registry:         registry,
		notifier:         notifier,
		store:            store,
		historyOnConnect: historyOnConnect,
		backlogLimit:     backlogLimit,
	}
}

// Connect registers the connection and runs the join sequence: optional
// history backlog to the newcomer only, then userCount, userList and the
// system announcement, each built against the updated registry.
func (r *Router) Connect(c *Conn) {
	if err := r.registry.Add(c); err != nil {
		log.Printf("[ROUTER] %v for session %s (%s), replaced stale entry", err, c.ID, c.Nickname)
	}
	log.Printf("[ROUTER] %s connected (session %s), online: %d", c.Nickname, c.ID, r.registry.Count())

	if r.historyOnConnect && r.store != nil {
		r.sendBacklog(c)
	}

	r.notifier.UserCount()
	r.notifier.UserList()
	r.notifier.System("a new user joined")
}

// Disconnect removes the connection and runs the leave sequence. Only the
// call that actually removes the entry broadcasts, so duplicate close
// signals stay silent.
func (r *Router) Disconnect(c *Conn) {
	removed := r.registry.Remove(c)
	c.Close()
	if !removed {
		return
	}
	log.Printf("[ROUTER] %s disconnected (session %s), online: %d", c.Nickname, c.ID, r.registry.Count())

	r.notifier.UserCount()
	r.notifier.UserList()
	r.notifier.System("a user left")
}

// Shutdown closes every live connection. Used by the process-level
// graceful shutdown; no leave broadcasts are sent.
func (r *Router) Shutdown() {
	for _, c := range r.registry.Snapshot() {
		r.registry.Remove(c)
		c.Close()
	}
}

// HandleFrame parses one inbound frame and dispatches on its type. Every
// failure is scoped to this frame: the sender gets a single error
// envelope and the session stays open.
func (r *Router) HandleFrame(c *Conn, payload []byte) {
	env, err := ParseEnvelope(payload)
	if err != nil {
		log.Printf("[ROUTER] %v from %s", err, c.Nickname)
		r.reply(c, errorEnvelope("invalid message format"))
		return
	}

	switch env.Type {
	case TypeChat:
		r.handleChat(c, env)
	case TypePrivate:
		r.handlePrivate(c, env)
	case TypeHistory:
		r.handleHistory(c, env)
	default:
		log.Printf("[ROUTER] %v %q from %s", ErrUnknownMessageType, env.Type, c.Nickname)
		r.reply(c, errorEnvelope("unknown message type: "+string(env.Type)))
	}
}

func (r *Router) handleChat(c *Conn, env *Envelope) {
	now := time.Now()
	env.FromUser = c.Nickname
	env.Time = now.Format(time.RFC3339)

	payload, _ := json.Marshal(env)
	for _, peer := range r.registry.Snapshot() {
		if !peer.TrySend(payload) {
			log.Printf("[ROUTER] Chat delivery to %s failed, skipping", peer.Nickname)
		}
	}

	r.persist(env, now)
}

// handlePrivate delivers to every connection whose nickname matches the
// target, plus the sender itself for the echo. Nicknames are not unique,
// so multiple matches all receive the message; zero matches is not an
// error.
func (r *Router) handlePrivate(c *Conn, env *Envelope) {
	if env.ToUser == "" {
		r.reply(c, errorEnvelope("private message requires toUser"))
		return
	}

	now := time.Now()
	env.FromUser = c.Nickname
	env.Time = now.Format(time.RFC3339)

	payload, _ := json.Marshal(env)
	for _, peer := range r.registry.Snapshot() {
		if peer != c && peer.Nickname != env.ToUser {
			continue
		}
		if !peer.TrySend(payload) {
			log.Printf("[ROUTER] Private delivery to %s failed, skipping", peer.Nickname)
		}
	}

	r.persist(env, now)
}

func (r *Router) handleHistory(c *Conn, env *Envelope) {
	page := env.Page
	if page < 1 {
		page = 1
	}
	size := env.Size
	if size < 1 {
		size = defaultHistoryPageSize
	}

	if r.store == nil {
		r.reply(c, errorEnvelope("history unavailable"))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	records, total, err := r.store.Query(ctx, page, size, env.Filter, c.Nickname)
	if err != nil {
		log.Printf("[ROUTER] History query for %s failed: %v", c.Nickname, err)
		r.reply(c, errorEnvelope("history unavailable"))
		return
	}

	r.reply(c, &Envelope{
		Type:    TypeHistory,
		Records: records,
		Total:   total,
		Page:    page,
	})
}

// sendBacklog replays recent history privately to a new connection,
// oldest first, one record per frame, the way the web client consumes it.
func (r *Router) sendBacklog(c *Conn) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	records, _, err := r.store.Query(ctx, 1, r.backlogLimit, "", c.Nickname)
	if err != nil {
		log.Printf("[ROUTER] Backlog fetch for %s failed: %v", c.Nickname, err)
		return
	}

	for i := len(records) - 1; i >= 0; i-- {
		payload, _ := json.Marshal(records[i])
		if !c.TrySend(payload) {
			return
		}
	}
}

// persist writes the stored projection after delivery. Failures are
// logged and swallowed: recipients already have the message.
func (r *Router) persist(env *Envelope, ts time.Time) {
	if r.store == nil {
		return
	}

	m := &models.ChatMessage{
		FromUser:   env.FromUser,
		ToUser:     env.ToUser,
		Content:    env.Content,
		MsgType:    env.MsgType,
		FileUrl:    env.FileUrl,
		FileSize:   env.FileSize,
		CreateTime: ts,
		Type:       string(env.Type),
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if _, err := r.store.Insert(ctx, m); err != nil {
		log.Printf("[ROUTER] Message from %s delivered but not saved: %v", env.FromUser, err)
	}
}

func (r *Router) reply(c *Conn, env *Envelope) {
	payload, _ := json.Marshal(env)
	if !c.TrySend(payload) {
		log.Printf("[ROUTER] Reply to %s failed, skipping", c.Nickname)
	}
}

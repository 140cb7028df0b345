package inmemory

import (
	"sync"

	"github.com/jamqueue/server/internal/repository/connection"
)

type client struct {
	conn *connection.Conn
	role connection.Role
}

// repo tracks every observer connection by client id plus the single admin
// role holder. adminId is empty when no connection holds the role.
type repo struct {
	clients  map[string]client
	connList map[*connection.Conn]string
	adminId  string
	mu       sync.RWMutex
}

func NewRepo() *repo {
	return &repo{
		clients:  make(map[string]client),
		connList: make(map[*connection.Conn]string),
	}
}

func (r *repo) Add(conn *connection.Conn, clientId string, role connection.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[clientId]; ok {
		return connection.ErrAlreadyExists
	}
	if _, ok := r.connList[conn]; ok {
		return connection.ErrAlreadyExists
	}

	r.clients[clientId] = client{conn: conn, role: role}
	r.connList[conn] = clientId

	return nil
}

// RemoveByClientId drops the connection and revokes the admin role if the
// client held it. Reports whether the removed client was the admin.
func (r *repo) RemoveByClientId(clientId string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.clients[clientId]
	if !ok {
		return false, connection.ErrNotFound
	}

	delete(r.clients, clientId)
	delete(r.connList, c.conn)

	wasAdmin := r.adminId == clientId
	if wasAdmin {
		r.adminId = ""
	}

	return wasAdmin, nil
}

func (r *repo) GetClientId(conn *connection.Conn) (string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	clientId, ok := r.connList[conn]
	if !ok {
		return "", connection.ErrNotFound
	}

	return clientId, nil
}

func (r *repo) GetConn(clientId string) (*connection.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	c, ok := r.clients[clientId]
	if !ok {
		return nil, connection.ErrNotFound
	}

	return c.conn, nil
}

func (r *repo) GetConns() []*connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*connection.Conn, 0, len(r.clients))
	for _, c := range r.clients {
		conns = append(conns, c.conn)
	}

	return conns
}

func (r *repo) GetConnsByRole(role connection.Role) []*connection.Conn {
	r.mu.RLock()
	defer r.mu.RUnlock()

	conns := make([]*connection.Conn, 0, len(r.clients))
	for _, c := range r.clients {
		if c.role == role {
			conns = append(conns, c.conn)
		}
	}

	return conns
}

// SetAdmin makes clientId the role holder, replacing any previous holder.
// Last writer wins. Returns the replaced holder's id, empty if there was none.
func (r *repo) SetAdmin(clientId string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.clients[clientId]; !ok {
		return "", connection.ErrNotFound
	}

	previousId := r.adminId
	if previousId == clientId {
		previousId = ""
	}
	r.adminId = clientId

	return previousId, nil
}

func (r *repo) IsAdmin(clientId string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.adminId != "" && r.adminId == clientId
}

func (r *repo) GetAdminConn() (*connection.Conn, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.adminId == "" {
		return nil, connection.ErrNoAdmin
	}

	c, ok := r.clients[r.adminId]
	if !ok {
		return nil, connection.ErrNoAdmin
	}

	return c.conn, nil
}

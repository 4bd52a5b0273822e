package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"

	"pmsync/internal"
	"pmsync/metrics/counters"
	"pmsync/models"
	"pmsync/utility"
)

const writeWait = 10 * time.Second

type feedClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
}

// JobFeed pushes every job snapshot to the connected websocket clients.
type JobFeed struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[string]*feedClient
	logger   internal.LogHandler
}

func NewJobFeed() *JobFeed {
	return &JobFeed{
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		clients: make(map[string]*feedClient),
	}
}

func (f *JobFeed) SetLogger(logger internal.LogHandler) {
	f.logger = logger
}

func (f *JobFeed) Serve(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	conn, err := f.upgrader.Upgrade(w, r, nil)
	if err != nil {
		if f.logger != nil {
			f.logger.Error("feed: upgrade failed", err)
		}
		return
	}
	client := &feedClient{id: utility.NewUUID(), conn: conn, send: make(chan []byte, 16)}
	f.mu.Lock()
	f.clients[client.id] = client
	counters.ObserveFeedClients(len(f.clients))
	f.mu.Unlock()
	f.debug(fmt.Sprintf("feed: client %s connected from %s", client.id, r.RemoteAddr))

	go f.writer(client)
	go f.reader(client)
}

// reader only watches for the close; clients do not send anything.
func (f *JobFeed) reader(client *feedClient) {
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				f.debug(fmt.Sprintf("feed: client %s: %v", client.id, err))
			}
			f.remove(client)
			return
		}
	}
}

func (f *JobFeed) writer(client *feedClient) {
	defer func() {
		_ = client.conn.Close()
	}()
	for data := range client.send {
		_ = client.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := client.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			f.debug(fmt.Sprintf("feed: write to %s: %v", client.id, err))
			f.remove(client)
			return
		}
	}
}

func (f *JobFeed) remove(client *feedClient) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.clients[client.id]; !ok {
		return
	}
	delete(f.clients, client.id)
	close(client.send)
	counters.ObserveFeedClients(len(f.clients))
}

// OnJobUpdate broadcasts the snapshot. Clients whose queue is full miss it.
func (f *JobFeed) OnJobUpdate(job models.SyncJob) {
	data, err := json.Marshal(job)
	if err != nil {
		if f.logger != nil {
			f.logger.Error("feed: encoding job", err)
		}
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, client := range f.clients {
		select {
		case client.send <- data:
		default:
			f.debug(fmt.Sprintf("feed: client %s is behind, dropping update", client.id))
		}
	}
}

func (f *JobFeed) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.clients)
}

func (f *JobFeed) debug(text string) {
	if f.logger != nil {
		f.logger.Debug(text)
	}
}

package etherlite

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const jsonRpcVersion = "2.0"

/*
Common interface implemented by RPC transports. Obtained via "DialTrans" and
passed to the various RPC functions. Implementations must be safe for
concurrent use.
*/
type Trans interface {
	/**
	Should make an RPC request and decode the response body into `out`, which
	must be a pointer. Returns a request error, a decoding error, or "RpcError"
	reported by the node.
	*/
	Call(ctx context.Context, out interface{}, method string, params ...interface{}) error

	/**
	Should return a channel that becomes closed when the transport is connected.
	Stateless transports such as HTTP should always return a closed channel.
	Persistent transports such as websocket: when connected, should return a
	closed channel; when not connected, should return an open channel and close
	it when connected.
	*/
	Connected() chan struct{}
}

/*
Chooses the appropriate transport for the given URL. Waits until connected, if
possible. The optional logger is used for background logging, if that's
relevant for the chosen transport.
*/
func DialTrans(rpcPath string, logger logrus.FieldLogger) (Trans, error) {
	rpcUrl, err := url.Parse(rpcPath)
	if err != nil {
		return nil, errors.WithStack(err)
	}

	switch rpcUrl.Scheme {
	case "ws", "wss":
		return DialWs(*rpcUrl, logger)
	case "http", "https":
		return HttpTrans{Url: *rpcUrl}, nil
	}
	return nil, errors.Errorf("unsupported RPC path: %v", rpcPath)
}

/*
Stateless HTTP transport. Uses "http.DefaultClient" unless ".Client" is
provided.
*/
type HttpTrans struct {
	Url    url.URL
	Client *http.Client
}

// Since an HTTP transport is "always connected", this returns a channel that's
// always closed.
func (self HttpTrans) Connected() chan struct{} { return alwaysConnected }

var alwaysConnected = func() chan struct{} {
	out := make(chan struct{})
	close(out)
	return out
}()

// Makes an RPC call.
func (self HttpTrans) Call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	var body bytes.Buffer
	err := json.NewEncoder(&body).Encode(rpcRequest{
		Jsonrpc: jsonRpcVersion,
		Id:      randomId(),
		Method:  method,
		Params:  nonNilParams(params),
	})
	if err != nil {
		return errors.WithStack(err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, self.Url.String(), &body)
	if err != nil {
		return errors.WithStack(err)
	}
	req.Header.Set("Content-Type", "application/json")

	client := self.Client
	if client == nil {
		client = http.DefaultClient
	}

	res, err := client.Do(req)
	if err != nil {
		return errors.WithStack(err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		bytes, _ := io.ReadAll(res.Body)
		return errors.Errorf("RPC error: %s\n%s", res.Status, bytes)
	}

	rpcRes := rpcResponse{Result: out}
	err = json.NewDecoder(res.Body).Decode(&rpcRes)
	if err != nil {
		return errors.Wrap(err, "failed to decode RPC response")
	}
	// Note: `error((*RpcError)(nil)) != nil` !!!
	if rpcRes.Error != nil {
		return errors.WithStack(*rpcRes.Error)
	}
	return nil
}

/*
Stateful websocket transport. Supports RPC calls and automatic reconnect. The
".ReconnectInterval" property defaults to 1s, can be modified. Calls pending
during a disconnect fail with an error; they're never retried.
*/
type WsTrans struct {
	Url               url.URL
	Logger            logrus.FieldLogger
	ReconnectInterval time.Duration

	// Guards "conn" and "connected" across reconnects.
	stateLock sync.Mutex
	conn      *websocket.Conn
	connected chan struct{}
	done      chan struct{}
	closeOnce sync.Once

	// Unavoidable bottleneck
	writeLock sync.Mutex

	pendingLock sync.Mutex
	pending     map[string]chan wsReply
}

type wsReply struct {
	val []byte
	err error
}

/*
Attempts to establish a websocket connection to the RPC node at the given URL.
Waits until the connection is established. Starts a background receive loop,
which runs until ".Close" is called.
*/
func DialWs(url url.URL, logger logrus.FieldLogger) (*WsTrans, error) {
	trans := &WsTrans{
		Url:               url,
		Logger:            logger,
		ReconnectInterval: defaultReconnectInterval,
		connected:         make(chan struct{}),
		done:              make(chan struct{}),
		pending:           map[string]chan wsReply{},
	}

	err := trans.connect()
	if err != nil {
		return nil, err
	}

	go trans.run()
	return trans, nil
}

// Stops the receive loop and closes the connection. Pending calls fail.
func (self *WsTrans) Close() error {
	var err error
	self.closeOnce.Do(func() {
		close(self.done)
		self.stateLock.Lock()
		conn := self.conn
		self.stateLock.Unlock()
		if conn != nil {
			err = errors.WithStack(conn.Close())
		}
	})
	return err
}

func (self *WsTrans) closed() bool {
	select {
	case <-self.done:
		return true
	default:
		return false
	}
}

func (self *WsTrans) log() logrus.FieldLogger {
	return loggerOrDiscard(self.Logger).WithField("url", self.Url.String())
}

func (self *WsTrans) run() {
	for {
		err := self.receiveLoop()
		if self.closed() {
			return
		}
		self.log().WithError(err).Warn("disconnected from RPC node")

		for {
			select {
			case <-self.done:
				return
			case <-time.After(self.ReconnectInterval):
			}

			err := self.connect()
			if err == nil {
				self.log().Info("reconnected to RPC node")
				break
			}
			self.log().WithError(err).Warn("failed to reconnect to RPC node")
		}
	}
}

func (self *WsTrans) connect() error {
	conn, _, err := websocket.DefaultDialer.Dial(self.Url.String(), nil)
	if err != nil {
		return errors.WithStack(err)
	}

	self.stateLock.Lock()
	self.conn = conn
	close(self.connected)
	self.stateLock.Unlock()
	return nil
}

func (self *WsTrans) receiveLoop() error {
	self.stateLock.Lock()
	conn := self.conn
	self.stateLock.Unlock()

	defer func() {
		self.stateLock.Lock()
		self.connected = make(chan struct{})
		self.stateLock.Unlock()
		conn.Close()
		self.failPending(errors.New("disconnected from RPC node"))
	}()

	/**
	Note: we receive and unmarshal separately. A receiving failure indicates
	a disconnect. An unmarshaling error indicates a malformed message, but
	not necessarily a connection problem.
	*/
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var body json.RawMessage
		res := rpcResponse{Result: &body}
		err = json.Unmarshal(payload, &res)
		if err != nil {
			self.log().WithError(err).Warn("failed to decode RPC message")
			continue
		}

		var id string
		if json.Unmarshal(res.Id, &id) != nil || id == "" {
			// Notifications are irrelevant without subscriptions.
			continue
		}

		// Note: `error((*RpcError)(nil)) != nil` !!!
		if res.Error != nil {
			err = errors.WithStack(*res.Error)
		}
		self.dispatch(id, []byte(body), err)
	}
}

/*
Returns a channel that becomes closed when the transport is connected. If the
transport is currently connected, the channel is closed.
*/
func (self *WsTrans) Connected() chan struct{} {
	self.stateLock.Lock()
	defer self.stateLock.Unlock()
	return self.connected
}

// Makes an RPC call.
func (self *WsTrans) Call(ctx context.Context, out interface{}, method string, params ...interface{}) error {
	id := randomId()
	reply := make(chan wsReply, 1)
	self.register(id, reply)
	defer self.unregister(id)

	err := self.send(id, method, params...)
	if err != nil {
		return err
	}

	select {
	case <-ctx.Done():
		return errors.WithStack(ctx.Err())
	case reply := <-reply:
		if reply.err != nil {
			return reply.err
		}
		if len(reply.val) == 0 {
			return nil
		}
		return errors.WithStack(json.Unmarshal(reply.val, out))
	}
}

func (self *WsTrans) send(id string, method string, params ...interface{}) error {
	self.stateLock.Lock()
	conn := self.conn
	self.stateLock.Unlock()

	self.writeLock.Lock()
	defer self.writeLock.Unlock()
	err := conn.WriteJSON(rpcRequest{
		Jsonrpc: jsonRpcVersion,
		Id:      id,
		Method:  method,
		Params:  nonNilParams(params),
	})
	return errors.WithStack(err)
}

func (self *WsTrans) register(id string, reply chan wsReply) {
	self.pendingLock.Lock()
	self.pending[id] = reply
	self.pendingLock.Unlock()
}

func (self *WsTrans) unregister(id string) {
	self.pendingLock.Lock()
	delete(self.pending, id)
	self.pendingLock.Unlock()
}

func (self *WsTrans) dispatch(id string, val []byte, err error) {
	self.pendingLock.Lock()
	reply := self.pending[id]
	self.pendingLock.Unlock()

	if reply != nil {
		select {
		case reply <- wsReply{val: val, err: err}:
		default:
		}
	}
}

func (self *WsTrans) failPending(err error) {
	self.pendingLock.Lock()
	defer self.pendingLock.Unlock()

	for _, reply := range self.pending {
		select {
		case reply <- wsReply{err: err}:
		default:
		}
	}
}

// Some nodes reject `"params": null`.
func nonNilParams(params []interface{}) []interface{} {
	if params == nil {
		return []interface{}{}
	}
	return params
}

var (
	rnd     = rand.New(rand.NewSource(time.Now().UnixNano()))
	rndLock sync.Mutex
)

// Tens of times faster than "crypto/rand". Request IDs only need to be unique
// among in-flight calls.
func randomId() string {
	var buf Word
	rndLock.Lock()
	rnd.Read(buf[:])
	rndLock.Unlock()
	return buf.String()
}

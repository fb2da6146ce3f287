package feed

import (
	"context"
	"time"

	"github.com/gorilla/websocket"
)

const (
	readDeadline = 60 * time.Second
	pingEvery    = 25 * time.Second
	dialTimeout  = 10 * time.Second

	// reconnect backoff bounds, doubled per failed attempt
	initialBackoff = 500 * time.Millisecond
	maxBackoff     = 10 * time.Second
)

// Dial opens a websocket connection with a bounded handshake timeout.
func Dial(ctx context.Context, wsURL string) (*websocket.Conn, error) {
	cctx, cancel := context.WithTimeout(ctx, dialTimeout)
	defer cancel()
	conn, _, err := websocket.DefaultDialer.DialContext(cctx, wsURL, nil)
	return conn, err
}

// ReadLoop pumps messages from conn into onMsg until the context is
// cancelled or the transport fails, keeping the connection alive with
// pings and read deadlines. The returned error is the disconnect cause.
func ReadLoop(ctx context.Context, conn *websocket.Conn, onMsg func([]byte)) error {
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
		return nil
	})

	pingTicker := time.NewTicker(pingEvery)
	defer pingTicker.Stop()

	errCh := make(chan error, 1)
	go func() {
		defer close(errCh)
		for {
			_, b, err := conn.ReadMessage()
			if err != nil {
				errCh <- err
				return
			}
			_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
			onMsg(b)
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-errCh:
			return err
		case <-pingTicker.C:
			_ = conn.WriteControl(websocket.PingMessage, []byte("ping"), time.Now().Add(5*time.Second))
		}
	}
}

// NextBackoff doubles the delay up to the maximum.
func NextBackoff(d time.Duration) time.Duration {
	d *= 2
	if d > maxBackoff {
		d = maxBackoff
	}
	return d
}

// InitialBackoff is the delay after the first failure.
func InitialBackoff() time.Duration { return initialBackoff }

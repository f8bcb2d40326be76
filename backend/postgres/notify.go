package postgres

import (
	"context"

	"github.com/fxamacker/cbor/v2"
	"github.com/jackc/pgx/v5"

	"github.com/arion-db/arion/arionerr"
)

// BroadcastChannelName is the notification channel reserved for
// broadcast payloads.
const BroadcastChannelName = "arion_broadcast"

// BroadcastPayload is the CBOR-encoded map sent over
// BroadcastChannelName.
type BroadcastPayload struct {
	URL       string `cbor:"url"`
	Exclusive bool   `cbor:"exclusive"`
	Data      []byte `cbor:"data"`
}

// Listener holds a dedicated connection in LISTEN mode. pgx's own
// Conn.WaitForNotification already multiplexes that poll internally, so
// Listener exposes the same "listen, then consume in a loop" shape without
// hand-rolling the fd plumbing pgx already does correctly.
type Listener struct {
	conn *pgx.Conn
}

// ListenForNotifications acquires a dedicated connection (outside the
// pool, since a LISTENing connection must not be reused for other
// statements) and issues LISTEN <channel>.
func (a *Adapter) ListenForNotifications(ctx context.Context, channel string) (*Listener, error) {
	connCfg := a.pool.Config().ConnConfig.Copy()
	conn, err := pgx.ConnectConfig(ctx, connCfg)
	if err != nil {
		return nil, arionerr.New(arionerr.KindConnectionLost, "LISTEN", err)
	}
	if _, err := conn.Exec(ctx, "LISTEN \""+channel+"\""); err != nil {
		conn.Close(ctx)
		return nil, arionerr.New(arionerr.KindBackend, "LISTEN", err)
	}
	return &Listener{conn: conn}, nil
}

// ConsumeNotifications blocks until the context is cancelled or the
// connection is lost, invoking handle for every NOTIFY received on the
// channel this Listener is subscribed to — the "consume function that
// dispatches each NOTIFY payload.
func (l *Listener) ConsumeNotifications(ctx context.Context, handle func(channel, payload string)) error {
	for {
		n, err := l.conn.WaitForNotification(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return arionerr.New(arionerr.KindConnectionLost, "consume_notifications", err)
		}
		handle(n.Channel, n.Payload)
	}
}

// ConsumeBroadcasts is ConsumeNotifications specialized to
// BroadcastChannelName, decoding each payload as CBOR into a
// BroadcastPayload before calling handle.
func (l *Listener) ConsumeBroadcasts(ctx context.Context, handle func(BroadcastPayload)) error {
	return l.ConsumeNotifications(ctx, func(channel, payload string) {
		if channel != BroadcastChannelName {
			return
		}
		var bp BroadcastPayload
		if err := cbor.Unmarshal([]byte(payload), &bp); err != nil {
			return
		}
		handle(bp)
	})
}

// Close releases the dedicated listening connection.
func (l *Listener) Close(ctx context.Context) error {
	return l.conn.Close(ctx)
}

// Notify sends a CBOR-encoded BroadcastPayload to BroadcastChannelName.
func (a *Adapter) Notify(ctx context.Context, payload BroadcastPayload) error {
	b, err := cbor.Marshal(payload)
	if err != nil {
		return err
	}
	_, err = a.Exec(ctx, "SELECT pg_notify($1, $2)", BroadcastChannelName, string(b))
	return err
}

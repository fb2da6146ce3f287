package pushquote

import "testing"

func TestParseFrame(t *testing.T) {
	frame := []byte(`{"event":"quote:BTCUSDT","data":{"symbol":"BTCUSDT","bid":64990.5,"ask":65010.5,"ts":1700000000123}}`)

	tick, ok := parseFrame(frame, 9)
	if !ok {
		t.Fatal("frame should parse")
	}
	if tick.Symbol != "BTCUSDT" || tick.Bid != 64990.5 || tick.Ask != 65010.5 {
		t.Errorf("tick = %+v", tick)
	}
	if tick.Ts != 1700000000123 {
		t.Errorf("ts = %d, want source ts", tick.Ts)
	}
	if !tick.HasBook() {
		t.Error("pushed quotes carry a real book")
	}
}

func TestParseFrameSymbolFromEvent(t *testing.T) {
	// symbol omitted from the payload: taken from the event name
	frame := []byte(`{"event":"quote:ETHUSDT","data":{"bid":3000,"ask":3001}}`)

	tick, ok := parseFrame(frame, 9)
	if !ok || tick.Symbol != "ETHUSDT" {
		t.Errorf("tick = %+v ok=%v, want symbol from event", tick, ok)
	}
	if tick.Ts != 9 {
		t.Errorf("ts = %d, want arrival-time fallback", tick.Ts)
	}
}

func TestParseFrameIgnoresNonQuoteEvents(t *testing.T) {
	cases := []string{
		`{"event":"subscribed","data":{"symbol":"BTCUSDT"}}`,
		`{"event":"pong"}`,
		`garbage`,
		`{"event":"quote:BTCUSDT","data":{"bid":0,"ask":100}}`,
		`{"event":"quote:BTCUSDT","data":{"bid":100,"ask":0}}`,
		`{"event":"quote:"}`,
	}
	for _, c := range cases {
		if _, ok := parseFrame([]byte(c), 1); ok {
			t.Errorf("frame %s should be ignored", c)
		}
	}
}

func TestControlFramesNoopWhileDisconnected(t *testing.T) {
	f := &Feed{}
	// refcount transitions arrive before the first connect; they must not
	// error, the connect path replays the active set anyway
	if err := f.SubscribeSymbol("BTCUSDT"); err != nil {
		t.Errorf("subscribe while disconnected: %v", err)
	}
	if err := f.UnsubscribeSymbol("BTCUSDT"); err != nil {
		t.Errorf("unsubscribe while disconnected: %v", err)
	}
}

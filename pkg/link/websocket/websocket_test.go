package websocket

import (
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/net/websocket"
)

func TestEcho(t *testing.T) {
	srv := httptest.NewServer(websocket.Handler(func(conn *websocket.Conn) {
		rw := New(conn)
		for {
			pkt, err := rw.ReadPacket()
			if err != nil {
				return
			}
			if err := rw.WritePacket(pkt); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	rw, err := Dial("ws" + strings.TrimPrefix(srv.URL, "http"))
	require.NoError(t, err)
	defer rw.Close()
	require.NoError(t, rw.WritePacket([]byte{1, 2, 3}))
	pkt, err := rw.ReadPacket()
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, pkt)

	require.NoError(t, rw.Close())
	_, err = rw.ReadPacket()
	require.Error(t, err)
}

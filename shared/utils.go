// Package shared provides utility functions shared across the simulation node.
package shared

import (
	"io"
	"net/http"
	"reflect"
	"strings"
	"sync"
	"time"
)

// ExternalIP resolves the address a binary should announce itself under:
// 127.0.0.1 when DEBUG_MODE is set (grounded on roboscapesim-api's
// get_external_ip, which shortcuts to loopback in its own debug build), or
// whatever checkip.amazonaws.com reports otherwise. Falls back to loopback
// if the lookup fails.
func ExternalIP() string {
	if DEBUG_MODE {
		return "127.0.0.1"
	}

	client := http.Client{Timeout: 5 * time.Second}
	resp, err := client.Get("http://checkip.amazonaws.com")
	if err != nil {
		DebugError(err)
		return "127.0.0.1"
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		DebugError(err)
		return "127.0.0.1"
	}
	return strings.TrimSpace(string(body))
}

// channelCloseMutex protects against concurrent channel close operations.
var channelCloseMutex sync.Mutex

// SafeCloseChannel closes ch without panicking if it is already closed or nil.
// ch must be a channel value (passed as interface{} so callers of generic
// queue types don't need a type parameter just to close their done channel).
func SafeCloseChannel(ch interface{}) {
	if ch == nil {
		return
	}

	val := reflect.ValueOf(ch)
	if val.Kind() != reflect.Chan {
		DebugPrint("SafeCloseChannel: not a channel, type: %T", ch)
		return
	}

	channelCloseMutex.Lock()
	defer channelCloseMutex.Unlock()

	if !isChannelClosed(val) {
		val.Close()
	}
}

func isChannelClosed(ch reflect.Value) bool {
	if ch.Kind() != reflect.Chan {
		return true
	}

	chosen, _, ok := reflect.Select([]reflect.SelectCase{
		{Dir: reflect.SelectRecv, Chan: ch},
		{Dir: reflect.SelectDefault},
	})

	return chosen == 0 && !ok
}

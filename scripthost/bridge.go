// Package scripthost implements the integration seam a room's script host
// uses (§2 Non-goals excludes the block-language VM itself — "we specify
// only the integration seam: what we call, what we feed it, what we do with
// its outbound RPC requests"). Grounded on
// roboscapesim-server/src/room/vm.rs's request handler: RPC calls naming
// one of the room's own IoTScape services are kept local, queued the same
// way an HTTP IoTScape request is; everything else falls through
// (RequestStatus::UseDefault) to the external NetsBlox services host.
package scripthost

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"roboscapesim/service"
	"roboscapesim/shared"
)

// localServiceNames maps the RPC service names a script names (matching
// vm.rs's match arms) onto this room's service.Type.
var localServiceNames = map[string]service.Type{
	"RoboScapeWorld":   service.World,
	"RoboScapeEntity":  service.Entity,
	"PositionSensor":   service.PositionSensor,
	"ProximitySensor":  service.ProximitySensor,
	"LIDARSensor":      service.LIDAR,
	"RoboScapeTrigger": service.Trigger,
	"WaypointList":     service.WaypointList,
}

// Bridge routes one room's outbound script RPC calls to its local service
// registry or, for anything unrecognized, to the configured NetsBlox
// services host.
type Bridge struct {
	registry            *service.Registry
	netsBloxServicesURL string
	httpClient          *http.Client

	roomID       string
	robotsInRoom func() []string
}

func NewBridge(registry *service.Registry, netsBloxServicesURL, roomID string, robotsInRoom func() []string) *Bridge {
	return &Bridge{
		registry:            registry,
		netsBloxServicesURL: strings.TrimRight(netsBloxServicesURL, "/"),
		httpClient:          &http.Client{Timeout: 5 * time.Second},
		roomID:              roomID,
		robotsInRoom:        robotsInRoom,
	}
}

// Call resolves one script-originated RPC: serviceName/device/method/args
// mirror the (service, rpc, args) tuple vm.rs's request handler receives,
// with device conventionally args[0] (§4.3 "device" IoTScape argument).
func (b *Bridge) Call(ctx context.Context, serviceName, device, method string, args []interface{}) (interface{}, error) {
	if svcType, ok := localServiceNames[serviceName]; ok {
		if svc, ok := b.registry.Get(service.Key{ID: device, Type: svcType}); ok {
			return b.dispatchLocal(ctx, svc, method, args)
		}
	}
	return b.forwardRemote(ctx, serviceName, device, method, args)
}

// dispatchLocal queues req on svc exactly as an HTTP IoTScape caller would
// (service.Service.Drain is the tick loop's single consumer, §4.4 step 3),
// then blocks for its response or ctx cancellation.
func (b *Bridge) dispatchLocal(ctx context.Context, svc *service.Service, method string, args []interface{}) (interface{}, error) {
	respCh := make(chan service.Response, 1)
	svc.Enqueue(service.Request{Method: method, Params: args, Response: respCh})

	select {
	case resp := <-respCh:
		return resp.Value, resp.Err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// forwardRemote relays an RPC the room doesn't own to the NetsBlox services
// host, the "UseDefault" fallback path in vm.rs's request handler.
func (b *Bridge) forwardRemote(ctx context.Context, serviceName, device, method string, args []interface{}) (interface{}, error) {
	if b.netsBloxServicesURL == "" {
		return nil, fmt.Errorf("%w: no NetsBlox services host configured for %s/%s", shared.ErrUnknownService, serviceName, method)
	}

	body, err := json.Marshal(map[string]interface{}{"id": device, "args": args})
	if err != nil {
		return nil, err
	}

	url := fmt.Sprintf("%s/%s/%s", b.netsBloxServicesURL, serviceName, method)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("NetsBlox services host returned %s for %s/%s", resp.Status, serviceName, method)
	}

	var out interface{}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

// UnknownBlock answers the two custom blocks vm.rs's UnknownBlock arm
// handles directly rather than routing through IoTScape: "roomID" and
// "robotsInRoom".
func (b *Bridge) UnknownBlock(name string) (interface{}, bool) {
	switch name {
	case "roomID":
		return b.roomID, true
	case "robotsInRoom":
		return b.robotsInRoom(), true
	default:
		return nil, false
	}
}

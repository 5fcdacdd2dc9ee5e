package lnnode

import (
	"errors"
	"fmt"

	"github.com/lightningnetwork/lnd/lnrpc"
	"github.com/lightningnetwork/lnd/lnrpc/routerrpc"
	"google.golang.org/grpc"
	"google.golang.org/protobuf/proto"
	"gopkg.in/macaroon-bakery.v2/bakery"
	"gopkg.in/macaroon.v2"
)

const (
	// TypeDefault is the method type of the main lightning service.
	TypeDefault = "default"

	// TypeRouter is the method type of the router sub-server.
	TypeRouter = "router"

	// entityURI is the macaroon entity that grants access to individual
	// rpc methods by their full uri.
	entityURI = "uri"
)

var (
	// SendPaymentV2 is the streaming payment method of the router
	// sub-server.
	SendPaymentV2 = Method{
		Type:   TypeRouter,
		Name:   "sendPaymentV2",
		URI:    "/routerrpc.Router/SendPaymentV2",
		Entity: "offchain",
		Action: "write",
	}

	// GetInfo is the method used to look up the node's best block height.
	GetInfo = Method{
		Type:   TypeDefault,
		Name:   "getInfo",
		URI:    "/lnrpc.Lightning/GetInfo",
		Entity: "info",
		Action: "read",
	}

	// GetChanInfo is the method used to look up channel edges in the
	// node's graph.
	GetChanInfo = Method{
		Type:   TypeDefault,
		Name:   "getChanInfo",
		URI:    "/lnrpc.Lightning/GetChanInfo",
		Entity: "info",
		Action: "read",
	}
)

// ErrUnknownMacaroonVersion is returned when a macaroon id was not created
// by a bakery version we can decode.
var ErrUnknownMacaroonVersion = errors.New("unknown macaroon id version")

// Method describes an rpc method of the node along with the permission that
// a macaroon needs to call it.
type Method struct {
	// Type is the sub-server that serves the method.
	Type string

	// Name is the method's name.
	Name string

	// URI is the full grpc uri of the method.
	URI string

	// Entity is the macaroon entity required to call the method.
	Entity string

	// Action is the macaroon action required on Entity.
	Action string
}

// String returns the type qualified name of the method.
func (m Method) String() string {
	return fmt.Sprintf("%v/%v", m.Type, m.Name)
}

// Permission is a single entity/action pair granted to a macaroon.
type Permission struct {
	Entity string
	Action string
}

// Authorizer reports whether a node handle is able to call a method.
type Authorizer interface {
	// Supports returns true if the handle is connected to the sub-server
	// that serves the method and is authorized to call it.
	Supports(method Method) bool
}

// Node is an authenticated handle to an lnd node.
type Node struct {
	router    routerrpc.RouterClient
	lightning lnrpc.LightningClient

	permissions map[Permission]struct{}

	// conn is the connection that the clients use, set when the handle
	// owns the connection.
	conn *grpc.ClientConn
}

// A compile time check to ensure Node implements the Authorizer interface.
var _ Authorizer = (*Node)(nil)

// New creates a node handle from the clients provided. Either client may be
// nil, in which case methods of that type are not supported.
func New(router routerrpc.RouterClient, lightning lnrpc.LightningClient,
	permissions []Permission) *Node {

	perms := make(map[Permission]struct{}, len(permissions))
	for _, perm := range permissions {
		perms[perm] = struct{}{}
	}

	return &Node{
		router:      router,
		lightning:   lightning,
		permissions: perms,
	}
}

// NewFromConn creates a node handle for a connection, granting the
// permissions held by the macaroon that the connection authenticates with.
func NewFromConn(conn grpc.ClientConnInterface,
	mac *macaroon.Macaroon) (*Node, error) {

	perms, err := PermissionsFromMacaroon(mac)
	if err != nil {
		return nil, err
	}

	return New(
		routerrpc.NewRouterClient(conn), lnrpc.NewLightningClient(conn),
		perms,
	), nil
}

// Router returns the router sub-server client.
func (n *Node) Router() routerrpc.RouterClient {
	return n.router
}

// Lightning returns the main lightning service client.
func (n *Node) Lightning() lnrpc.LightningClient {
	return n.lightning
}

// Supports returns true if the handle is connected to the sub-server that
// serves the method and holds a permission for it.
func (n *Node) Supports(method Method) bool {
	if n == nil {
		return false
	}

	switch method.Type {
	case TypeRouter:
		if n.router == nil {
			return false
		}

	case TypeDefault:
		if n.lightning == nil {
			return false
		}

	default:
		return false
	}

	if _, ok := n.permissions[Permission{
		Entity: method.Entity,
		Action: method.Action,
	}]; ok {
		return true
	}

	_, ok := n.permissions[Permission{
		Entity: entityURI,
		Action: method.URI,
	}]

	return ok
}

// Close closes the connection to the node, if the handle owns it.
func (n *Node) Close() error {
	if n.conn == nil {
		return nil
	}

	return n.conn.Close()
}

// PermissionsFromMacaroon decodes the operations that lnd encodes in a
// macaroon's id.
func PermissionsFromMacaroon(mac *macaroon.Macaroon) ([]Permission, error) {
	if mac == nil {
		return nil, nil
	}

	rawID := mac.Id()
	if len(rawID) == 0 || rawID[0] != byte(bakery.LatestVersion) {
		return nil, ErrUnknownMacaroonVersion
	}

	decodedID := &lnrpc.MacaroonId{}
	if err := proto.Unmarshal(rawID[1:], decodedID); err != nil {
		return nil, fmt.Errorf("unable to decode macaroon id: %w", err)
	}

	var perms []Permission
	for _, op := range decodedID.Ops {
		for _, action := range op.Actions {
			perms = append(perms, Permission{
				Entity: op.Entity,
				Action: action,
			})
		}
	}

	return perms, nil
}

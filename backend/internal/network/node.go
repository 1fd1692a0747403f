package network

import (
	"fmt"
	"strings"

	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"go.uber.org/zap"
)

// NodeType is the closed set of node kinds a response can carry
type NodeType string

const (
	NodeMovie   NodeType = "Movie"
	NodeUser    NodeType = "User"
	NodeGenre   NodeType = "Genre"
	NodeUnknown NodeType = "Unknown"
)

// elementPrefix marks identities that fell back to the store's element id
const elementPrefix = "element:"

// NetworkNode is a graph node as rendered to clients
type NetworkNode struct {
	ID         string         `json:"id"`
	Name       string         `json:"name"`
	Type       NodeType       `json:"type"`
	Properties map[string]any `json:"properties"`
}

// NetworkLink is a directed edge between two NetworkNode ids
type NetworkLink struct {
	Source string `json:"source"`
	Target string `json:"target"`
	Type   string `json:"type"`
}

// Network is a subgraph response
type Network struct {
	Nodes []NetworkNode `json:"nodes"`
	Links []NetworkLink `json:"links"`
}

func emptyNetwork() *Network {
	return &Network{Nodes: []NetworkNode{}, Links: []NetworkLink{}}
}

// TypeOf resolves a node's kind once from its labels. The first label that
// names a known kind wins; anything else is Unknown.
func TypeOf(node neo4j.Node) NodeType {
	for _, label := range node.Labels {
		switch NodeType(label) {
		case NodeMovie, NodeUser, NodeGenre:
			return NodeType(label)
		}
	}
	return NodeUnknown
}

// Identity derives the key that deduplicates a node within one response: the
// id property, else name (genres), else the element id. The last one is only
// stable for the lifetime of a single query result; durable reports whether
// the identity came from a property. Identity alone is not unique across
// types; see resolver.
func Identity(node neo4j.Node) (id string, durable bool) {
	if v, ok := node.Props["id"]; ok && v != nil {
		return fmt.Sprint(v), true
	}
	if v, ok := node.Props["name"]; ok && v != nil {
		return fmt.Sprint(v), true
	}
	return elementPrefix + node.ElementId, false
}

// Materialize converts a store node into its response form
func Materialize(node neo4j.Node, nodeType NodeType, identity string) NetworkNode {
	props := make(map[string]any, len(node.Props))
	for k, v := range node.Props {
		props[k] = v
	}

	return NetworkNode{
		ID:         identity,
		Name:       displayName(node, nodeType, identity),
		Type:       nodeType,
		Properties: props,
	}
}

func displayName(node neo4j.Node, nodeType NodeType, identity string) string {
	for _, key := range []string{"title", "name"} {
		if v, ok := node.Props[key]; ok && v != nil {
			if s := fmt.Sprint(v); s != "" {
				return s
			}
		}
	}
	return fmt.Sprintf("%s_%s", nodeType, strings.TrimPrefix(identity, string(nodeType)+":"))
}

// resolver caches identities by element id for the duration of one request
// so every relationship endpoint resolves to the same key as its node. Users
// and movies share a numeric id space, so an identity already owned by another
// element is qualified with the node type ("User:1"), and failing that with
// the element id.
type resolver struct {
	identities map[string]string
	owners     map[string]string
	logger     *zap.Logger
}

func newResolver(logger *zap.Logger) *resolver {
	return &resolver{
		identities: make(map[string]string),
		owners:     make(map[string]string),
		logger:     logger,
	}
}

func (r *resolver) identity(node neo4j.Node) string {
	if id, ok := r.identities[node.ElementId]; ok {
		return id
	}
	id, durable := Identity(node)
	if !durable {
		r.logger.Warn("Node has neither id nor name, using element id",
			zap.String("element_id", node.ElementId),
			zap.Strings("labels", node.Labels),
		)
	}
	if r.taken(id, node.ElementId) {
		id = fmt.Sprintf("%s:%s", TypeOf(node), id)
		if r.taken(id, node.ElementId) {
			id = elementPrefix + node.ElementId
		}
	}
	r.identities[node.ElementId] = id
	r.owners[id] = node.ElementId
	return id
}

func (r *resolver) taken(id, elementID string) bool {
	owner, ok := r.owners[id]
	return ok && owner != elementID
}

func (r *resolver) learn(nodes []neo4j.Node) {
	for _, n := range nodes {
		r.identity(n)
	}
}

// endpoint returns the identity of a previously seen node by element id
func (r *resolver) endpoint(elementID string) (string, bool) {
	id, ok := r.identities[elementID]
	return id, ok
}

// nodeSet keeps admitted nodes in admission order
type nodeSet struct {
	index map[string]int
	nodes []NetworkNode
}

func newNodeSet() *nodeSet {
	return &nodeSet{index: make(map[string]int)}
}

func (s *nodeSet) has(id string) bool {
	_, ok := s.index[id]
	return ok
}

func (s *nodeSet) add(n NetworkNode) bool {
	if s.has(n.ID) {
		return false
	}
	s.index[n.ID] = len(s.nodes)
	s.nodes = append(s.nodes, n)
	return true
}

func (s *nodeSet) len() int {
	return len(s.nodes)
}

type linkKey struct {
	source, target, relType string
}

// linkSet deduplicates directed links by (source, target, type)
type linkSet struct {
	seen  map[linkKey]struct{}
	links []NetworkLink
}

func newLinkSet() *linkSet {
	return &linkSet{seen: make(map[linkKey]struct{})}
}

func (s *linkSet) add(source, target, relType string) {
	key := linkKey{source, target, relType}
	if _, ok := s.seen[key]; ok {
		return
	}
	s.seen[key] = struct{}{}
	s.links = append(s.links, NetworkLink{Source: source, Target: target, Type: relType})
}

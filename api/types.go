package api

// NodeType classifies a remote node as a leaf object or a container.
type NodeType string

const (
	NodeTypeObject      NodeType = "obj"
	NodeTypeDir         NodeType = "dir"
	NodeTypeMount       NodeType = "mount"
	NodeTypeAccountRoot NodeType = "account_root"
	NodeTypeLink        NodeType = "link"
)

// Container reports whether nodes of this type can have children.
func (t NodeType) Container() bool {
	switch t {
	case NodeTypeDir, NodeTypeMount, NodeTypeAccountRoot:
		return true
	}
	return false
}

// Node is the resolved metadata for one remote path.
type Node struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Type     NodeType `json:"type"`
	IsParent bool     `json:"isParent"`
}

type nodeDataResponse struct {
	Data map[string]Node `json:"data"`
}

type signedURLResponse struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

type signedURLsRecursiveResponse struct {
	Data struct {
		URLs map[string]string `json:"urls"`
	} `json:"data"`
}

type errorResponse struct {
	Error string `json:"error"`
}

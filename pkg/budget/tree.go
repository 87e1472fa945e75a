package budget

import (
	"sort"
	"strconv"
	"strings"
)

// TreeNode is one node of the assembled budget hierarchy.
type TreeNode struct {
	Item     BudgetItem
	Children []*TreeNode
}

// BuildTree assembles a forest from a flat, unordered list of budget items.
// Children are attached to the item whose ItemCode equals their ParentCode.
// An item whose ParentCode resolves to no known item is promoted to a root
// rather than dropped, so every input item appears in the output exactly once.
// The builder is total: it never rejects input.
func BuildTree(items []BudgetItem) []*TreeNode {
	nodesByCode := make(map[string]*TreeNode, len(items))
	nodes := make([]*TreeNode, 0, len(items))
	for _, item := range items {
		node := &TreeNode{Item: item}
		nodes = append(nodes, node)
		// Last one wins on duplicate codes; input is expected to be unique per budget.
		nodesByCode[item.ItemCode] = node
	}

	var roots []*TreeNode
	parents := make(map[*TreeNode]*TreeNode)
	for _, node := range nodes {
		parentCode := strings.TrimSpace(node.Item.ParentCode)
		if parentCode == "" {
			roots = append(roots, node)
			continue
		}
		parent, ok := nodesByCode[parentCode]
		if !ok || parent == node || linksBack(parents, parent, node) {
			// Orphan or cyclic parent chain: keep it visible as a root
			// instead of losing the line.
			roots = append(roots, node)
			continue
		}
		parent.Children = append(parent.Children, node)
		parents[node] = parent
	}

	sortNodes(roots)
	return roots
}

// linksBack reports whether node already sits on parent's ancestor chain.
// Attaching it there would close a parent-code cycle and detach the whole
// group from every root.
func linksBack(parents map[*TreeNode]*TreeNode, parent, node *TreeNode) bool {
	for p := parent; p != nil; p = parents[p] {
		if p == node {
			return true
		}
	}
	return false
}

func sortNodes(nodes []*TreeNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		return lessItemCode(nodes[i].Item.ItemCode, nodes[j].Item.ItemCode)
	})
	for _, node := range nodes {
		sortNodes(node.Children)
	}
}

// lessItemCode orders hierarchical codes naturally: "1.2" < "1.10" < "2".
// Non-numeric segments fall back to lexicographic comparison.
func lessItemCode(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		an, aErr := strconv.Atoi(as[i])
		bn, bErr := strconv.Atoi(bs[i])
		if aErr == nil && bErr == nil {
			if an != bn {
				return an < bn
			}
			continue
		}
		if as[i] != bs[i] {
			return as[i] < bs[i]
		}
	}
	return len(as) < len(bs)
}

// Walk visits every node of the forest depth-first, parents before children.
func Walk(nodes []*TreeNode, visit func(node *TreeNode)) {
	for _, node := range nodes {
		visit(node)
		Walk(node.Children, visit)
	}
}

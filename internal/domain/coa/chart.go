package coa

import (
	"sort"

	"github.com/google/uuid"
)

// Chart is an immutable, validated view of the chart of accounts.
// All slices it returns are ordered by account code.
type Chart struct {
	byID     map[uuid.UUID]*Account
	byCode   map[string]*Account
	children map[uuid.UUID][]*Account
	ordered  []*Account
}

// NewChart validates the account tree and indexes it
func NewChart(accounts []*Account) (*Chart, error) {
	c := &Chart{
		byID:     make(map[uuid.UUID]*Account, len(accounts)),
		byCode:   make(map[string]*Account, len(accounts)),
		children: make(map[uuid.UUID][]*Account),
		ordered:  make([]*Account, 0, len(accounts)),
	}

	for _, acc := range accounts {
		if err := acc.Validate(); err != nil {
			return nil, ErrInvalidChart{Reason: err.Error()}
		}
		if _, dup := c.byID[acc.ID]; dup {
			return nil, ErrInvalidChart{Reason: "duplicate account id " + acc.ID.String()}
		}
		if _, dup := c.byCode[acc.Code]; dup {
			return nil, ErrInvalidChart{Reason: "duplicate account code " + acc.Code}
		}
		copied := *acc
		c.byID[acc.ID] = &copied
		c.byCode[acc.Code] = &copied
		c.ordered = append(c.ordered, &copied)
	}

	for _, acc := range c.ordered {
		if acc.ParentID == nil {
			continue
		}
		parent, ok := c.byID[*acc.ParentID]
		if !ok {
			return nil, ErrInvalidChart{Reason: "account " + acc.Code + " references unknown parent " + acc.ParentID.String()}
		}
		if parent.IsPosting() {
			return nil, ErrInvalidChart{Reason: "posting account " + parent.Code + " cannot have children"}
		}
		c.children[parent.ID] = append(c.children[parent.ID], acc)
	}

	if err := c.checkCycles(); err != nil {
		return nil, err
	}

	sortByCode(c.ordered)
	for id := range c.children {
		sortByCode(c.children[id])
	}

	return c, nil
}

func (c *Chart) checkCycles() error {
	for _, acc := range c.ordered {
		seen := map[uuid.UUID]bool{acc.ID: true}
		for cur := acc; cur.ParentID != nil; {
			next := c.byID[*cur.ParentID]
			if seen[next.ID] {
				return ErrInvalidChart{Reason: "parent cycle through account " + acc.Code}
			}
			seen[next.ID] = true
			cur = next
		}
	}
	return nil
}

func sortByCode(accounts []*Account) {
	sort.Slice(accounts, func(i, j int) bool {
		return accounts[i].Code < accounts[j].Code
	})
}

// Get returns the account with the given id
func (c *Chart) Get(id uuid.UUID) (*Account, bool) {
	acc, ok := c.byID[id]
	return acc, ok
}

// GetByCode returns the account with the given code
func (c *Chart) GetByCode(code string) (*Account, bool) {
	acc, ok := c.byCode[code]
	return acc, ok
}

// Len returns the number of accounts in the chart
func (c *Chart) Len() int {
	return len(c.ordered)
}

// Accounts returns every account
func (c *Chart) Accounts() []*Account {
	out := make([]*Account, len(c.ordered))
	copy(out, c.ordered)
	return out
}

// PostingAccounts returns the accounts that accept ledger lines
func (c *Chart) PostingAccounts() []*Account {
	var out []*Account
	for _, acc := range c.ordered {
		if acc.IsPosting() {
			out = append(out, acc)
		}
	}
	return out
}

// Children returns the direct children of an account
func (c *Chart) Children(id uuid.UUID) []*Account {
	out := make([]*Account, len(c.children[id]))
	copy(out, c.children[id])
	return out
}

// PostingDescendants returns every posting account beneath id. A posting
// account is its own only descendant.
func (c *Chart) PostingDescendants(id uuid.UUID) []*Account {
	root, ok := c.byID[id]
	if !ok {
		return nil
	}
	if root.IsPosting() {
		return []*Account{root}
	}

	var out []*Account
	stack := []uuid.UUID{id}
	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		for _, child := range c.children[cur] {
			if child.IsPosting() {
				out = append(out, child)
			} else {
				stack = append(stack, child.ID)
			}
		}
	}
	sortByCode(out)
	return out
}

// Ancestors returns the chain of parents of id, nearest first
func (c *Chart) Ancestors(id uuid.UUID) []*Account {
	acc, ok := c.byID[id]
	if !ok {
		return nil
	}
	var out []*Account
	for acc.ParentID != nil {
		acc = c.byID[*acc.ParentID]
		out = append(out, acc)
	}
	return out
}

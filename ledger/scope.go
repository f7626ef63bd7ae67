package ledger

import "fmt"

// =============================================================================
// SCOPE - Tenant + principal collection addressing
// =============================================================================

// Collection names under a scope. Every collection lives at
// {tenantRoot}/{principalId}/{collectionName}.
const (
	CollectionSales     = "sales"
	CollectionExpenses  = "expenses"
	CollectionInventory = "inventory"
)

// Scope addresses the three ledger collections of one principal inside one
// deployment. TenantRoot comes from configuration; its absence is a fatal
// configuration error, never defaulted.
type Scope struct {
	TenantRoot string
	Principal  string
}

// Collection returns the full path of one collection.
func (s Scope) Collection(name string) (string, error) {
	if s.TenantRoot == "" {
		return "", ErrMissingTenantRoot
	}
	switch name {
	case CollectionSales, CollectionExpenses, CollectionInventory:
		return fmt.Sprintf("%s/%s/%s", s.TenantRoot, s.Principal, name), nil
	}
	return "", fmt.Errorf("%w: collection %q", ErrUnknownKind, name)
}

// Sales, Expenses, Inventory are shorthands for Collection.
func (s Scope) Sales() (string, error)     { return s.Collection(CollectionSales) }
func (s Scope) Expenses() (string, error)  { return s.Collection(CollectionExpenses) }
func (s Scope) Inventory() (string, error) { return s.Collection(CollectionInventory) }

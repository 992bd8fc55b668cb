package sandbox

import (
	"errors"
	"fmt"
	"strings"

	"opsconsole/internal/access"
	"opsconsole/internal/inventory"
	"opsconsole/internal/purchase"
)

var (
	ErrUnknownAction     = errors.New("unknown action")
	ErrInvalidTransition = errors.New("invalid transition")
)

const statusKey = "status"

type transition struct {
	from []string
	to   string
}

func collection(path string) string {
	return strings.Trim(path, "/")
}

var (
	transfers        = collection(inventory.InternalTransferPath)
	scraps           = collection(inventory.ScrapPath)
	stockMoves       = collection(inventory.StockMovePath)
	products         = collection(inventory.ProductPath)
	locations        = collection(inventory.LocationPath)
	purchaseRequests = collection(purchase.PurchaseRequestPath)
	vendors          = collection(purchase.VendorPath)
	users            = collection(access.UserPath)
	roles            = collection(access.RolePath)
)

var collections = []string{
	transfers, scraps, stockMoves, products, locations,
	purchaseRequests, vendors, users, roles,
}

var workflows = map[string]map[string]transition{
	transfers: moveWorkflow(),
	scraps:    moveWorkflow(),
	purchaseRequests: {
		purchase.ActionSendForApproval: {
			from: []string{string(purchase.StatusDraft)},
			to:   string(purchase.StatusPendingApproval),
		},
		purchase.ActionApprove: {
			from: []string{string(purchase.StatusPendingApproval)},
			to:   string(purchase.StatusApproved),
		},
		purchase.ActionReject: {
			from: []string{string(purchase.StatusPendingApproval)},
			to:   string(purchase.StatusRejected),
		},
	},
}

func moveWorkflow() map[string]transition {
	open := []string{string(inventory.StatusDraft), string(inventory.StatusSubmitted)}
	return map[string]transition{
		inventory.ActionDone: {from: open, to: string(inventory.StatusDone)},
		"cancel":             {from: open, to: string(inventory.StatusCancelled)},
	}
}

// hasWorkflow reports whether documents of the collection carry a status.
func hasWorkflow(collection string) bool {
	_, ok := workflows[collection]
	return ok
}

// resolveCollection splits an api path into the longest known collection
// and the remaining segments.
func resolveCollection(path string) (string, []string, bool) {
	segments := strings.Split(strings.Trim(path, "/"), "/")
	for n := min(2, len(segments)); n > 0; n-- {
		name := strings.Join(segments[:n], "/")
		for _, known := range collections {
			if known == name {
				return name, segments[n:], true
			}
		}
	}
	return "", nil, false
}

// transit moves doc through action and returns the new status.
func transit(collection, action string, doc Document) (string, error) {
	actions, ok := workflows[collection]
	if !ok {
		return "", ErrUnknownAction
	}
	step, ok := actions[action]
	if !ok {
		return "", ErrUnknownAction
	}

	current := doc.String(statusKey)
	for _, from := range step.from {
		if current == from {
			doc[statusKey] = step.to
			return step.to, nil
		}
	}
	return "", fmt.Errorf("%w: %s is not allowed for a document in status %s", ErrInvalidTransition, action, current)
}

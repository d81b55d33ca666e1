// Package access evaluates declarative role/tier rules for API actions.
package access

import (
	"fmt"

	"github.com/steadyhq/steady/internal/domain"
)

// Actions checked by route handlers.
const (
	ActionManageLinks    = "links.manage"
	ActionReadLinks      = "links.read"
	ActionReadContacts   = "contacts.read"
	ActionManageContacts = "contacts.manage"
	ActionReadScores     = "scores.read"
	ActionRunAnalysis    = "analysis.run"
	ActionUsePrompts     = "prompts.use"
	ActionManagePayments = "payments.manage"
	ActionManageDomains  = "domains.manage"
	ActionReadSettings   = "settings.read"
	ActionWriteSettings  = "settings.write"
)

// rule states the minimum role and required tier for an action.
type rule struct {
	minRole string
	tier    string
}

var rules = map[string]rule{
	ActionReadLinks:      {minRole: domain.RoleViewer},
	ActionManageLinks:    {minRole: domain.RoleEditor},
	ActionReadContacts:   {minRole: domain.RoleViewer},
	ActionManageContacts: {minRole: domain.RoleEditor},
	ActionReadScores:     {minRole: domain.RoleViewer},
	ActionRunAnalysis:    {minRole: domain.RoleEditor, tier: domain.TierPro},
	ActionUsePrompts:     {minRole: domain.RoleViewer, tier: domain.TierPro},
	ActionManagePayments: {minRole: domain.RoleAdmin},
	ActionManageDomains:  {minRole: domain.RoleAdmin, tier: domain.TierPro},
	ActionReadSettings:   {minRole: domain.RoleViewer},
	ActionWriteSettings:  {minRole: domain.RoleAdmin},
}

var roleRank = map[string]int{
	domain.RoleViewer: 1,
	domain.RoleEditor: 2,
	domain.RoleAdmin:  3,
}

// ErrDenied is returned when the rule check fails.
type ErrDenied struct {
	Action string
	Reason string
}

func (e ErrDenied) Error() string {
	return fmt.Sprintf("access denied for %s: %s", e.Action, e.Reason)
}

// Check evaluates the rule for action against the caller's role and tier.
// Unknown actions are denied.
func Check(role, tier, action string) error {
	r, ok := rules[action]
	if !ok {
		return ErrDenied{Action: action, Reason: "unknown action"}
	}
	if roleRank[role] < roleRank[r.minRole] {
		return ErrDenied{Action: action, Reason: "insufficient role"}
	}
	if r.tier != "" && tier != r.tier {
		return ErrDenied{Action: action, Reason: "tier upgrade required"}
	}
	return nil
}

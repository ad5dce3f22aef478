// Package authz decides which roles may perform which actions on which API
// resources. Decisions come from a Casbin RBAC model whose roles inherit
// upwards: anonymous < user < moderator < admin.
package authz

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"
)

//go:embed model.conf
var embeddedModel string

//go:embed policy.csv
var embeddedPolicy string

// RoleAnonymous is the subject used for requests without a valid token.
const RoleAnonymous = "anonymous"

// Resources.
const (
	ResourceCategories = "categories"
	ResourceGenres     = "genres"
	ResourceTitles     = "titles"
	ResourceReviews    = "reviews"
	ResourceComments   = "comments"
	ResourceUsers      = "users"
	ResourceProfile    = "profile"
)

// Actions.
const (
	ActionRead   = "read"
	ActionCreate = "create"
	ActionUpdate = "update"
	ActionDelete = "delete"

	ownSuffix = ":own"
)

// ErrForbidden is returned by Require when the role lacks the permission.
var ErrForbidden = errors.New("you do not have permission to perform this action")

// Policy wraps a Casbin enforcer loaded with the role model.
type Policy struct {
	enforcer *casbin.SyncedEnforcer
}

// New loads the embedded model and either the policy file at policyPath or,
// when policyPath is empty, the embedded policy.
func New(policyPath string) (*Policy, error) {
	m, err := model.NewModelFromString(embeddedModel)
	if err != nil {
		return nil, fmt.Errorf("failed to load casbin model: %w", err)
	}

	var enforcer *casbin.SyncedEnforcer
	if policyPath != "" {
		if _, statErr := os.Stat(policyPath); statErr != nil {
			return nil, fmt.Errorf("policy file: %w", statErr)
		}
		enforcer, err = casbin.NewSyncedEnforcer(m, fileadapter.NewAdapter(policyPath))
	} else {
		enforcer, err = casbin.NewSyncedEnforcer(m)
		if err == nil {
			err = loadPolicy(enforcer, embeddedPolicy)
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create casbin enforcer: %w", err)
	}

	return &Policy{enforcer: enforcer}, nil
}

// loadPolicy adds the p and g lines of a CSV policy to the enforcer.
func loadPolicy(enforcer *casbin.SyncedEnforcer, policy string) error {
	for _, line := range strings.Split(policy, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		parts := strings.Split(line, ",")
		for i := range parts {
			parts[i] = strings.TrimSpace(parts[i])
		}

		switch {
		case parts[0] == "p" && len(parts) == 4:
			if _, err := enforcer.AddPolicy(parts[1], parts[2], parts[3]); err != nil {
				return fmt.Errorf("failed to add policy %v: %w", parts[1:], err)
			}
		case parts[0] == "g" && len(parts) == 3:
			if _, err := enforcer.AddGroupingPolicy(parts[1], parts[2]); err != nil {
				return fmt.Errorf("failed to add grouping policy %v: %w", parts[1:], err)
			}
		default:
			return fmt.Errorf("malformed policy line %q", line)
		}
	}
	return nil
}

// Allowed reports whether role holds exactly the given permission.
func (p *Policy) Allowed(role, resource, action string) (bool, error) {
	if role == "" {
		role = RoleAnonymous
	}
	ok, err := p.enforcer.Enforce(role, resource, action)
	if err != nil {
		return false, fmt.Errorf("enforcement failed: %w", err)
	}
	return ok, nil
}

// Permits reports whether role may attempt action on resource, either
// unconditionally or on objects it owns. It is the coarse check run before
// the object is loaded.
func (p *Policy) Permits(role, resource, action string) (bool, error) {
	ok, err := p.Allowed(role, resource, action)
	if err != nil || ok {
		return ok, err
	}
	return p.Allowed(role, resource, action+ownSuffix)
}

// CanModify reports whether role may apply action to a specific object.
// isOwner unlocks the ownership-scoped variant of the permission.
func (p *Policy) CanModify(role, resource, action string, isOwner bool) (bool, error) {
	ok, err := p.Allowed(role, resource, action)
	if err != nil || ok || !isOwner {
		return ok, err
	}
	return p.Allowed(role, resource, action+ownSuffix)
}

// Require is CanModify returning ErrForbidden instead of false.
func (p *Policy) Require(role, resource, action string, isOwner bool) error {
	ok, err := p.CanModify(role, resource, action, isOwner)
	if err != nil {
		return err
	}
	if !ok {
		return ErrForbidden
	}
	return nil
}

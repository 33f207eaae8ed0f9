// Package authz resolves application permissions and corporation delegates
// with casbin, and turns an authenticated principal into a models.Viewer.
//
// Subjects are "user:<uuid>" or roles ("role:<name>"). Domains are "*" for
// global grants and "corp:<id>" for one corporation. Policies granted to
// role:authenticated apply to every signed-in member.
package authz

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	fileadapter "github.com/casbin/casbin/v2/persist/file-adapter"

	"blueprints/internal/requests/models"
	id "blueprints/pkg/domain"
	dErrors "blueprints/pkg/domain-errors"
	"blueprints/pkg/requestcontext"
)

// GlobalDomain grants a permission everywhere.
const GlobalDomain = "*"

// RoleAuthenticated is implicitly held by every signed-in member.
const RoleAuthenticated = "role:authenticated"

const modelText = `
[request_definition]
r = sub, dom, obj

[policy_definition]
p = sub, dom, obj

[role_definition]
g = _, _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = (r.sub == p.sub || p.sub == "role:authenticated" || g(r.sub, p.sub, r.dom) || g(r.sub, p.sub, "*")) && (p.dom == "*" || p.dom == r.dom) && r.obj == p.obj
`

// globalPermissions are resolved once per viewer in the global domain.
var globalPermissions = []models.Permission{
	models.PermBasicAccess,
	models.PermRequestBlueprints,
	models.PermManageRequests,
	models.PermViewLocations,
	models.PermAddBlueprintOwner,
}

// UserSubject is the casbin subject for a member.
func UserSubject(u id.UserID) string { return "user:" + u.String() }

// CorporationDomain is the casbin domain for one corporation.
func CorporationDomain(c id.CorporationID) string { return "corp:" + c.String() }

// Resolver answers permission questions. It is safe for concurrent use.
type Resolver struct {
	mu       sync.RWMutex
	enforcer *casbin.Enforcer
	logger   *slog.Logger
}

type Option func(*Resolver)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New creates a Resolver with an empty policy set.
func New(opts ...Option) (*Resolver, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: parse model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	return newResolver(enf, opts), nil
}

// NewFromFile creates a Resolver whose policies come from a casbin CSV file.
func NewFromFile(policyPath string, opts ...Option) (*Resolver, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: parse model: %w", err)
	}
	enf, err := casbin.NewEnforcer(m, fileadapter.NewAdapter(policyPath))
	if err != nil {
		return nil, fmt.Errorf("authz: failed to initialize enforcer: %w", err)
	}
	if err := enf.LoadPolicy(); err != nil {
		return nil, fmt.Errorf("authz: failed to load policies: %w", err)
	}
	return newResolver(enf, opts), nil
}

func newResolver(enf *casbin.Enforcer, opts []Option) *Resolver {
	r := &Resolver{enforcer: enf, logger: slog.Default()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Grant allows subject to use perm in domain.
func (r *Resolver) Grant(subject, domain string, perm models.Permission) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.enforcer.AddPolicy(subject, domain, string(perm)); err != nil {
		return fmt.Errorf("authz: add policy: %w", err)
	}
	return nil
}

// AssignRole gives subject role within domain.
func (r *Resolver) AssignRole(subject, role, domain string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, err := r.enforcer.AddGroupingPolicy(subject, role, domain); err != nil {
		return fmt.Errorf("authz: add grouping policy: %w", err)
	}
	return nil
}

// Can reports whether subject may use perm in domain.
func (r *Resolver) Can(subject, domain string, perm models.Permission) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ok, err := r.enforcer.Enforce(subject, domain, string(perm))
	if err != nil {
		return false, fmt.Errorf("authz: enforce failed: %w", err)
	}
	return ok, nil
}

// ResolveViewer builds the viewer for p: global permissions plus the
// corporations p is a delegate for. A member is a delegate of a corporation
// they belong to when they hold manage_requests globally or in that
// corporation's domain.
func (r *Resolver) ResolveViewer(ctx context.Context, p requestcontext.Principal) (models.Viewer, error) {
	if p.UserID.IsNil() {
		return models.Viewer{}, dErrors.New(dErrors.CodeUnauthorized, "authentication required")
	}
	subject := UserSubject(p.UserID)
	v := models.Viewer{
		UserID:         p.UserID,
		Name:           p.Name,
		CharacterIDs:   p.CharacterIDs,
		CorporationIDs: p.CorporationIDs,
	}
	for _, perm := range globalPermissions {
		ok, err := r.Can(subject, GlobalDomain, perm)
		if err != nil {
			return models.Viewer{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve permissions")
		}
		if ok {
			v.Permissions = append(v.Permissions, perm)
		}
	}
	for _, corp := range p.CorporationIDs {
		ok, err := r.Can(subject, CorporationDomain(corp), models.PermManageRequests)
		if err != nil {
			return models.Viewer{}, dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve delegates")
		}
		if ok {
			v.ManagedCorporations = append(v.ManagedCorporations, corp)
		}
	}
	r.logger.DebugContext(ctx, "viewer resolved",
		"request_id", requestcontext.RequestID(ctx),
		"user_id", p.UserID,
		"permissions", v.Permissions,
		"managed_corporations", len(v.ManagedCorporations),
	)
	return v, nil
}

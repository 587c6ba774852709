package domain

// Scope is the tenant-isolation rule for a read. A tenant scope sees the
// tenant's own documents plus global ones; the global scope sees only global
// documents.
type Scope struct {
	// TenantID is the requesting organisation. Empty selects global-only.
	TenantID string
}

// GlobalScope returns the global-only scope.
func GlobalScope() Scope {
	return Scope{}
}

// TenantScope returns the scope for an organisation.
func TenantScope(tenantID string) Scope {
	return Scope{TenantID: tenantID}
}

// ScopeOf returns the scope a document may link within: a global document
// links only to global documents, a tenant document to its tenant and global.
func ScopeOf(doc *Document) Scope {
	return Scope{TenantID: doc.TenantID}
}

// IsGlobal reports whether the scope is global-only.
func (s Scope) IsGlobal() bool {
	return s.TenantID == ""
}

// Allows reports whether a document is visible under the scope.
// Published state is checked separately.
func (s Scope) Allows(doc *Document) bool {
	if doc.TenantID == "" {
		return true
	}
	return !s.IsGlobal() && doc.TenantID == s.TenantID
}

// String returns the string representation.
func (s Scope) String() string {
	if s.IsGlobal() {
		return "global"
	}
	return "tenant:" + s.TenantID
}

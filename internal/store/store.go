package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("record not found")

// Org is the decoded organization record. Legacy document shapes
// (string channel bindings, native datetime joined_date) are normalized
// here at the adapter boundary; domain code never branches on
// representation.
type Org struct {
	TeamID string
	// JoinedDate is the canonical serialized creation timestamp
	// (RFC 3339 with a trailing Z). Empty when absent from the document.
	JoinedDate string
	// JoinedDateNative reports that the stored value was a native
	// datetime and still needs the in-place string migration.
	JoinedDateNative bool
	// HasBindings reports whether the channel_projects field exists at all.
	HasBindings bool
	Bindings    map[string]ChannelBinding
	// Projects holds the raw project settings documents keyed by project
	// name. Defaults merging happens in the settings package.
	Projects    map[string]map[string]any
	Invocations int64
}

// ChannelBinding associates a channel with a named project configuration.
type ChannelBinding struct {
	Project      string
	WelcomeShown bool
	// WelcomeSet reports whether the welcome_shown key was present in the
	// stored document. Rebinding a channel must not invent the flag.
	WelcomeSet bool
}

// OrgStore is the document-store binding for organization records.
// All mutations are field-scoped upserts so concurrent writers touching
// different fields never clobber each other.
type OrgStore interface {
	// EnsureOrg creates the organization record if it does not exist,
	// setting team_id, an empty channel_projects map and joinedDate.
	// Existing records are left untouched (insert-on-new-only), so
	// concurrent first contacts converge to one record.
	EnsureOrg(ctx context.Context, teamID, joinedDate string) error

	// GetOrg fetches and decodes an organization record.
	// Returns ErrNotFound when the record does not exist.
	GetOrg(ctx context.Context, teamID string) (*Org, error)

	// SetOrgFields applies a targeted $set of top-level fields to an
	// existing record. Used for self-healing schema drift.
	SetOrgFields(ctx context.Context, teamID string, fields map[string]any) error

	// SetOrgField upserts a single dotted field path.
	SetOrgField(ctx context.Context, teamID, path string, value any) error

	// IncOrgField atomically increments a numeric field, upserting the
	// record if needed.
	IncOrgField(ctx context.Context, teamID, path string, delta int64) error

	// ListOrgs returns all organization records (admin dashboard only).
	ListOrgs(ctx context.Context) ([]*Org, error)
}

// RateLimitWindow is one sliding-window record per (operation, tenant).
type RateLimitWindow struct {
	Key       string
	TeamID    string
	Requests  []time.Time
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RateLimitStore persists sliding-window rate limit records.
type RateLimitStore interface {
	// GetWindow fetches a window by its composite key.
	// Returns ErrNotFound when the record does not exist.
	GetWindow(ctx context.Context, key string) (*RateLimitWindow, error)

	// CreateWindow inserts a fresh window holding a single timestamp.
	CreateWindow(ctx context.Context, key, teamID string, now time.Time) error

	// SaveWindow replaces the request list of an existing window.
	SaveWindow(ctx context.Context, key string, requests []time.Time, now time.Time) error

	// DeleteStaleWindows removes windows untouched since cutoff and
	// returns the number deleted.
	DeleteStaleWindows(ctx context.Context, cutoff time.Time) (int64, error)
}

// Store is the full storage surface the application wires at startup.
type Store interface {
	OrgStore
	RateLimitStore
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
}
